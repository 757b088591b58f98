package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"vibe-transcode-service/pkg/config"
)

// Logger wraps a logrus logger together with the file it may own.
type Logger struct {
	entry *logrus.Logger
	file  *os.File
}

var global atomic.Pointer[Logger]

// NewLogger builds a logger from the log section of the service config.
// Unknown levels fall back to info, unknown formats to text.
func NewLogger(cfg *config.Config) *Logger {
	l := logrus.New()
	out := &Logger{entry: l}

	var lc config.LogConfig
	if cfg != nil {
		lc = cfg.Log
	}

	level, err := logrus.ParseLevel(strings.TrimSpace(lc.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	switch strings.ToLower(lc.Format) {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"})
	default:
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "2006-01-02 15:04:05.000"})
	}

	var w io.Writer = os.Stdout
	switch strings.ToLower(lc.Output) {
	case "stderr":
		w = os.Stderr
	case "file":
		if lc.Filename != "" {
			if err := os.MkdirAll(filepath.Dir(lc.Filename), 0o755); err == nil {
				if f, err := os.OpenFile(lc.Filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
					out.file = f
					w = io.MultiWriter(os.Stdout, f)
				}
			}
		}
	}
	l.SetOutput(w)
	return out
}

// SetGlobalLogger replaces the logger used by the package-level helpers.
func SetGlobalLogger(l *Logger) {
	if l != nil {
		global.Store(l)
	}
}

// Default returns the global logger, creating a stdout/info one on first use.
func Default() *Logger {
	if l := global.Load(); l != nil {
		return l
	}
	l := NewLogger(nil)
	if global.CompareAndSwap(nil, l) {
		return l
	}
	return global.Load()
}

// Raw exposes the underlying logrus logger; Run routes gin output through it.
func (l *Logger) Raw() *logrus.Logger { return l.entry }

// WithFields returns a logrus entry carrying the given fields.
func (l *Logger) WithFields(fields map[string]interface{}) *logrus.Entry {
	return l.entry.WithFields(logrus.Fields(fields))
}

func (l *Logger) Debugf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }
func (l *Logger) Infof(format string, args ...interface{})  { l.entry.Infof(format, args...) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.entry.Warnf(format, args...) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }

// Close releases the log file, if any.
func (l *Logger) Close() {
	if l.file != nil {
		_ = l.file.Sync()
		_ = l.file.Close()
		l.file = nil
	}
}

func fieldsOf(fields []map[string]interface{}) logrus.Fields {
	out := logrus.Fields{}
	for _, f := range fields {
		for k, v := range f {
			out[k] = v
		}
	}
	return out
}

func Debug(msg string, fields ...map[string]interface{}) {
	Default().entry.WithFields(fieldsOf(fields)).Debug(msg)
}

func Info(msg string, fields ...map[string]interface{}) {
	Default().entry.WithFields(fieldsOf(fields)).Info(msg)
}

func Warn(msg string, fields ...map[string]interface{}) {
	Default().entry.WithFields(fieldsOf(fields)).Warn(msg)
}

func Error(msg string, fields ...map[string]interface{}) {
	Default().entry.WithFields(fieldsOf(fields)).Error(msg)
}

// Fatal logs and exits the process.
func Fatal(msg string, fields ...map[string]interface{}) {
	Default().entry.WithFields(fieldsOf(fields)).Fatal(msg)
}

func Debugf(format string, args ...interface{}) { Default().entry.Debugf(format, args...) }
func Infof(format string, args ...interface{})  { Default().entry.Infof(format, args...) }
func Warnf(format string, args ...interface{})  { Default().entry.Warnf(format, args...) }
func Errorf(format string, args ...interface{}) { Default().entry.Errorf(format, args...) }

// Fatalf logs a formatted message and exits the process.
func Fatalf(format string, args ...interface{}) {
	Default().entry.Fatal(fmt.Sprintf(format, args...))
}
