package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogOptions configures a RunLogger.
type LogOptions struct {
	Dir   string // empty disables the log file
	Level string
	JSON  bool
}

// RunLogger writes to stdout and to one log file per generation run.
type RunLogger struct {
	*zap.SugaredLogger
	file *os.File
	path string
}

// NewRunLogger creates logs/<site>/generate_<timestamp>.log and tees the
// console output into it.
func NewRunLogger(opts LogOptions, siteName string) (*RunLogger, error) {
	level := zap.InfoLevel
	if opts.Level != "" {
		if err := level.UnmarshalText([]byte(opts.Level)); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
	}

	var consoleEnc zapcore.Encoder
	if opts.JSON {
		consoleEnc = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	} else {
		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
		consoleEnc = zapcore.NewConsoleEncoder(encCfg)
	}
	cores := []zapcore.Core{zapcore.NewCore(consoleEnc, zapcore.AddSync(os.Stdout), level)}

	rl := &RunLogger{}
	if opts.Dir != "" {
		siteDir := filepath.Join(opts.Dir, SanitizeName(siteName))
		if err := os.MkdirAll(siteDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}

		timestamp := time.Now().Format("2006-01-02_15-04-05")
		file, err := createLogFile(siteDir, timestamp)
		if err != nil {
			return nil, fmt.Errorf("failed to create log file: %w", err)
		}
		rl.file = file
		rl.path = file.Name()
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(file),
			zap.DebugLevel,
		))
	}

	rl.SugaredLogger = zap.New(zapcore.NewTee(cores...)).Sugar()
	return rl, nil
}

// Path is the log file of this run, or "" when file logging is off.
func (rl *RunLogger) Path() string { return rl.path }

func (rl *RunLogger) Close() error {
	_ = rl.Sync()
	if rl.file == nil {
		return nil
	}
	return rl.file.Close()
}

// createLogFile creates generate_<timestamp>.log, adding _1, _2, ... when
// a run in the same second already owns the name.
func createLogFile(dir, timestamp string) (*os.File, error) {
	for i := 0; ; i++ {
		name := "generate_" + timestamp
		if i > 0 {
			name += fmt.Sprintf("_%d", i)
		}
		file, err := os.OpenFile(filepath.Join(dir, name+".log"), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err == nil || !os.IsExist(err) {
			return file, err
		}
	}
}

// SanitizeName turns a site name or host into a file-system friendly name.
func SanitizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return "site"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '.':
			return r
		}
		return '_'
	}, name)
}
