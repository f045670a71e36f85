// Package metrics records generation runs as Prometheus metrics and writes
// them to a node_exporter textfile.
package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/romangod6/sitemapgen/internal/errors"
)

const namespace = "sitemapgen"

// Drop reasons.
const (
	DropInvalidDate = "invalid_date"
	DropExcluded    = "excluded"
	DropExternal    = "external"
	DropDuplicate   = "duplicate"
)

// Recorder holds the run metrics on a private registry. A nil *Recorder is
// valid and records nothing.
type Recorder struct {
	reg            *prom.Registry
	routes         *prom.GaugeVec
	dropped        *prom.CounterVec
	sourceFailures *prom.CounterVec
	runDuration    prom.Gauge
	lastSuccess    prom.Gauge
	now            func() time.Time
}

// NewRecorder registers the run metrics on reg, or on a new registry when
// reg is nil.
func NewRecorder(reg *prom.Registry) *Recorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	r := &Recorder{
		reg: reg,
		routes: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "routes_total",
			Help:      "Entries in the last written feed by route class",
		}, []string{"class"}),
		dropped: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "records_dropped_total",
			Help:      "Routes and records left out of the feed by reason",
		}, []string{"reason"}),
		sourceFailures: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "source_failures_total",
			Help:      "Content sources that could not be read",
		}, []string{"source"}),
		runDuration: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of the last generation run",
		}),
		lastSuccess: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last run that wrote a feed",
		}),
		now: time.Now,
	}
	reg.MustRegister(r.routes, r.dropped, r.sourceFailures, r.runDuration, r.lastSuccess)
	return r
}

// Registry exposes the registry the metrics live on.
func (r *Recorder) Registry() *prom.Registry {
	if r == nil {
		return nil
	}
	return r.reg
}

func (r *Recorder) SetRoutes(class string, n int) {
	if r == nil {
		return
	}
	r.routes.WithLabelValues(class).Set(float64(n))
}

func (r *Recorder) AddDropped(reason string, n int) {
	if r == nil || n <= 0 {
		return
	}
	r.dropped.WithLabelValues(reason).Add(float64(n))
}

func (r *Recorder) IncSourceFailure(source string) {
	if r == nil {
		return
	}
	r.sourceFailures.WithLabelValues(source).Inc()
}

// ObserveRun records the duration of a run and, when it wrote a feed, the
// time of success.
func (r *Recorder) ObserveRun(d time.Duration, success bool) {
	if r == nil {
		return
	}
	r.runDuration.Set(d.Seconds())
	if success {
		r.lastSuccess.Set(float64(r.now().Unix()))
	}
}

// WriteTextfile writes the registry to path in the text exposition format.
// An empty path is a no-op.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := prom.WriteToTextfile(path, r.reg); err != nil {
		return errors.Wrapf(err, "write metrics textfile %s", path)
	}
	return nil
}
