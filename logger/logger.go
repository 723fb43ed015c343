// Package logger provides the leveled logger shared by the engine, the
// realignment engine and the array facade.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Ensure nopLogger and zapLogger implement interface.
var (
	_ Logger = &nopLogger{}
	_ Logger = &zapLogger{}
)

// Logger represents an interface for a shared logger.
type Logger interface {
	Debugf(format string, v ...interface{})
	Infof(format string, v ...interface{})
	Warnf(format string, v ...interface{})
	Errorf(format string, v ...interface{})
	// WithPrefix returns a new Logger with the same configuration as
	// this one, but all logs will be tagged with the given component name.
	WithPrefix(prefix string) Logger
}

// NopLogger represents a Logger that doesn't do anything.
var NopLogger Logger = &nopLogger{}

type nopLogger struct{}

func (n *nopLogger) Debugf(format string, v ...interface{}) {}
func (n *nopLogger) Infof(format string, v ...interface{})  {}
func (n *nopLogger) Warnf(format string, v ...interface{})  {}
func (n *nopLogger) Errorf(format string, v ...interface{}) {}

func (n *nopLogger) WithPrefix(prefix string) Logger {
	return n
}

type zapLogger struct {
	s *zap.SugaredLogger
}

// NewZap wraps an existing zap logger.
func NewZap(l *zap.Logger) Logger {
	return &zapLogger{s: l.Sugar()}
}

// New builds a console logger writing to stderr at the named level
// ("debug", "info", "warn", "error").
func New(level string) (Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.DisableStacktrace = true
	l, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return NewZap(l), nil
}

func (z *zapLogger) Debugf(format string, v ...interface{}) { z.s.Debugf(format, v...) }
func (z *zapLogger) Infof(format string, v ...interface{})  { z.s.Infof(format, v...) }
func (z *zapLogger) Warnf(format string, v ...interface{})  { z.s.Warnf(format, v...) }
func (z *zapLogger) Errorf(format string, v ...interface{}) { z.s.Errorf(format, v...) }

func (z *zapLogger) WithPrefix(prefix string) Logger {
	return &zapLogger{s: z.s.Named(prefix)}
}

// OrNop returns l, or NopLogger when l is nil.
func OrNop(l Logger) Logger {
	if l == nil {
		return NopLogger
	}
	return l
}
