// Package logger provides the structured logging interface used across storetrust.
package logger

import (
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the logging surface every package depends on. Implementations
// must be safe for concurrent use.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	// Fatal logs then exits the process.
	Fatal(msg string, fields ...Field)
	With(fields ...Field) Logger
	Sync() error
}

// Field is a key-value pair attached to a log entry.
type Field = zap.Field

type zapLogger struct {
	z *zap.Logger
}

// New builds a zap-backed Logger writing to cfg.OutputPaths.
func New(cfg Config) (Logger, error) {
	cfg.SetDefaults()

	sink, _, err := zap.Open(cfg.OutputPaths...)
	if err != nil {
		return nil, fmt.Errorf("open log outputs: %w", err)
	}

	core := zapcore.NewCore(newEncoder(cfg.Format), sink, zap.NewAtomicLevelAt(levelOf(cfg.Level)))
	if !cfg.Development {
		core = zapcore.NewSamplerWithOptions(core, time.Second, 100, 100)
	}

	opts := []zap.Option{
		zap.AddCaller(),
		zap.AddCallerSkip(1),
		zap.AddStacktrace(zapcore.ErrorLevel),
		zap.ErrorOutput(zapcore.Lock(os.Stderr)),
	}
	if cfg.Development {
		opts = append(opts, zap.Development())
	}

	return &zapLogger{z: zap.New(core, opts...)}, nil
}

// Must is New for process startup paths that cannot continue without a logger.
func Must(cfg Config) Logger {
	l, err := New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	return l
}

func newEncoder(format string) zapcore.Encoder {
	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = "ts"
	ec.EncodeTime = zapcore.ISO8601TimeEncoder
	ec.EncodeCaller = zapcore.ShortCallerEncoder
	ec.EncodeDuration = zapcore.StringDurationEncoder

	if strings.EqualFold(format, FormatConsole) {
		ec.EncodeLevel = zapcore.CapitalLevelEncoder
		return zapcore.NewConsoleEncoder(ec)
	}
	return zapcore.NewJSONEncoder(ec)
}

var levels = map[string]zapcore.Level{
	"debug":   zapcore.DebugLevel,
	"info":    zapcore.InfoLevel,
	"warn":    zapcore.WarnLevel,
	"warning": zapcore.WarnLevel,
	"error":   zapcore.ErrorLevel,
	"fatal":   zapcore.FatalLevel,
}

// levelOf maps a config level name to zap; unknown names log at info.
func levelOf(name string) zapcore.Level {
	if lvl, ok := levels[strings.ToLower(strings.TrimSpace(name))]; ok {
		return lvl
	}
	return zapcore.InfoLevel
}

func (l *zapLogger) Debug(msg string, fields ...Field) { l.z.Debug(msg, fields...) }
func (l *zapLogger) Info(msg string, fields ...Field)  { l.z.Info(msg, fields...) }
func (l *zapLogger) Warn(msg string, fields ...Field)  { l.z.Warn(msg, fields...) }
func (l *zapLogger) Error(msg string, fields ...Field) { l.z.Error(msg, fields...) }
func (l *zapLogger) Fatal(msg string, fields ...Field) { l.z.Fatal(msg, fields...) }

func (l *zapLogger) With(fields ...Field) Logger { return &zapLogger{z: l.z.With(fields...)} }

func (l *zapLogger) Sync() error { return l.z.Sync() }

func String(key, val string) Field                 { return zap.String(key, val) }
func Int(key string, val int) Field                { return zap.Int(key, val) }
func Duration(key string, val time.Duration) Field { return zap.Duration(key, val) }
func Strings(key string, val []string) Field       { return zap.Strings(key, val) }
func Any(key string, val any) Field                { return zap.Any(key, val) }

// Error attaches err under the "error" key.
func Error(err error) Field { return zap.Error(err) }

// Domain tags an entry with the normalized domain being evaluated.
func Domain(domain string) Field { return zap.String("domain", domain) }

// Signal tags an entry with a signal type name.
func Signal(signalType string) Field { return zap.String("signal", signalType) }
