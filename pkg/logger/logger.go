// Package logger provides the structured logger shared by the relay, the CLI and the deployer.
package logger

import (
	"fmt"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

// Logger is the structured logging contract. Loggers are injected and scoped with Named, e.g.
// lggr.Named("relay").Named("donor-registry").
//
// Levels
//   - Error: a request failed because of the ledger or the relay. Example: a transaction reverted.
//   - Warn: something unexpected that did not fail the request. Example: a dial attempt failed.
//   - Info: lifecycle and request milestones. Example: transaction sent, transaction confirmed.
//   - Debug: forensic detail. Example: parsed identifiers.
type Logger interface {
	// Name returns the dotted name of the logger.
	Name() string
	Named(name string) Logger
	With(keysAndValues ...any) Logger

	Debug(args ...any)
	Info(args ...any)
	Warn(args ...any)
	Error(args ...any)

	Debugw(msg string, keysAndValues ...any)
	Infow(msg string, keysAndValues ...any)
	Warnw(msg string, keysAndValues ...any)
	Errorw(msg string, keysAndValues ...any)

	// Sync flushes buffered entries.
	Sync() error
}

// Format is the encoding of log entries.
type Format string

const (
	// FormatJSON writes one JSON object per entry. This is the default.
	FormatJSON Format = "json"
	// FormatConsole writes human readable lines for local runs.
	FormatConsole Format = "console"
)

// Config holds the runtime logger settings.
type Config struct {
	Level  zapcore.Level
	Format Format
}

// ParseConfig builds a Config from textual settings such as "debug" and "console". Empty values
// default to info and json.
func ParseConfig(level, format string) (Config, error) {
	cfg := Config{Level: zapcore.InfoLevel, Format: FormatJSON}

	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return Config{}, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		cfg.Level = lvl
	}

	switch f := Format(strings.ToLower(strings.TrimSpace(format))); f {
	case "":
	case FormatJSON, FormatConsole:
		cfg.Format = f
	default:
		return Config{}, fmt.Errorf("invalid log format %q: want %s or %s", format, FormatJSON, FormatConsole)
	}

	return cfg, nil
}

// New returns a json Logger at info level writing to stderr.
func New() (Logger, error) {
	return Config{Level: zapcore.InfoLevel, Format: FormatJSON}.New()
}

// New returns a Logger writing to stderr with the settings of c.
func (c Config) New() (Logger, error) {
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(c.Level)
	if c.Format == FormatConsole {
		zcfg.Encoding = string(FormatConsole)
		zcfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
		zcfg.Sampling = nil
	}

	z, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return &logger{z.Sugar()}, nil
}

// Test returns a Logger writing every level to the output of tb.
func Test(tb testing.TB) Logger {
	tb.Helper()

	enc := zap.NewDevelopmentEncoderConfig()
	enc.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000000")
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zaptest.NewTestingWriter(tb), zapcore.DebugLevel)

	return &logger{zap.New(core).Sugar()}
}

// TestObserved returns a test Logger that also records entries at lvl and above.
func TestObserved(tb testing.TB, lvl zapcore.Level) (Logger, *observer.ObservedLogs) {
	tb.Helper()

	core, logs := observer.New(lvl)
	tee := zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return zapcore.NewTee(c, core)
	})

	return &logger{zaptest.NewLogger(tb, zaptest.WrapOptions(tee)).Sugar()}, logs
}

// Nop returns a Logger that discards everything.
func Nop() Logger {
	return &logger{zap.NewNop().Sugar()}
}

type logger struct {
	*zap.SugaredLogger
}

func (l *logger) Name() string {
	return l.Desugar().Name()
}

func (l *logger) Named(name string) Logger {
	return &logger{l.SugaredLogger.Named(name)}
}

func (l *logger) With(keysAndValues ...any) Logger {
	return &logger{l.SugaredLogger.With(keysAndValues...)}
}
