// Package errors provides error handling for sitemapgen.
//
// It re-exports github.com/cockroachdb/errors (stack traces, wrapping, hints)
// and defines the sentinel errors of the generation run. Per-record and
// per-source failures are recovered where they happen; sink, empty-feed and
// configuration failures are returned to the caller and end the run.
//
//	if err := writer.Write(entries, f); err != nil {
//	    return errors.Mark(errors.Wrap(err, "write feed"), errors.ErrSinkFailure)
//	}
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
	Mark         = crdb.Mark
)

// User-facing messages and details
var (
	WithHint     = crdb.WithHint
	WithHintf    = crdb.WithHintf
	WithDetail   = crdb.WithDetail
	WithDetailf  = crdb.WithDetailf
	GetAllHints  = crdb.GetAllHints
	FlattenHints = crdb.FlattenHints
)

// Error inspection
var (
	Is        = crdb.Is
	IsAny     = crdb.IsAny
	As        = crdb.As
	Unwrap    = crdb.Unwrap
	UnwrapAll = crdb.UnwrapAll
)

// Run error taxonomy. Wrap or Mark these so callers can test with Is.
var (
	// ErrSourceUnavailable: registry unreadable, database unreachable,
	// directory missing. The source contributes zero routes.
	ErrSourceUnavailable = New("source unavailable")

	// ErrRecordInvalid: missing required fields or an unparseable date.
	// The record is dropped.
	ErrRecordInvalid = New("record invalid")

	// ErrSinkFailure: the feed could not be opened, written or closed.
	ErrSinkFailure = New("sink failure")

	// ErrConfigurationMissing: no base URL, no output path, or a bad value.
	ErrConfigurationMissing = New("configuration missing")

	// ErrEmptyFeed: every source failed or was filtered away; the previous
	// feed is kept.
	ErrEmptyFeed = New("feed would be empty")
)

// IsFatal reports whether err must end the run with a non-zero exit.
func IsFatal(err error) bool {
	return IsAny(err, ErrSinkFailure, ErrConfigurationMissing, ErrEmptyFeed)
}
