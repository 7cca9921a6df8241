// Package logging provides the process-wide structured logger. Grounded
// on manifold/internal/logging's JSON-formatted logrus setup with a
// package/file caller hook, adapted so the log file path and level are
// supplied by internal/config.Config at startup instead of being fixed at
// init time — logging.Init is the composition root's explicit call,
// mirroring how internal/telemetry and the vector-index backend are
// wired from config rather than hardcoded.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Log is the application wide logger. It defaults to stdout-only, info
// level output until Init is called; tests and other callers that never
// call Init still get usable logging.
var Log = logrus.New()

type contextHook struct{}

func (contextHook) Levels() []logrus.Level { return logrus.AllLevels }

func packageFromFunc(fn string) string {
	if i := strings.LastIndex(fn, "/"); i >= 0 {
		fn = fn[i+1:]
	}
	if i := strings.Index(fn, "."); i >= 0 {
		return fn[:i]
	}
	return fn
}

func (contextHook) Fire(e *logrus.Entry) error {
	if e.Caller == nil {
		return nil
	}
	pkg := packageFromFunc(e.Caller.Function)
	file := fmt.Sprintf("%s:%d", filepath.Base(e.Caller.File), e.Caller.Line)
	e.Data["package"] = pkg
	e.Data["file"] = file
	return nil
}

func init() {
	Log.SetReportCaller(true)
	Log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339Nano,
		CallerPrettyfier: func(f *runtime.Frame) (string, string) {
			function := filepath.Base(f.Function)
			file := fmt.Sprintf("%s:%d", filepath.Base(f.File), f.Line)
			return function, file
		},
	})
	Log.AddHook(contextHook{})
	Log.SetOutput(os.Stdout)
	Log.SetLevel(logrus.InfoLevel)
}

// Init points Log at logPath (in addition to stdout) and sets its level,
// as resolved by config.Load from LOG_PATH and LOG_LEVEL. An empty logPath
// leaves output on stdout only; an unopenable path is logged and ignored
// rather than treated as fatal, since stdout logging alone is still
// useful.
func Init(logPath, level string) {
	if logPath != "" {
		logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			Log.WithError(err).Warn("logging: could not open log file, continuing on stdout only")
		} else {
			Log.SetOutput(io.MultiWriter(os.Stdout, logFile))
		}
	}

	if level == "" {
		level = "info"
	}
	if lvl, err := logrus.ParseLevel(level); err == nil {
		Log.SetLevel(lvl)
	} else {
		Log.WithField("level", level).Warn("logging: unrecognized LOG_LEVEL, defaulting to info")
		Log.SetLevel(logrus.InfoLevel)
	}
}
