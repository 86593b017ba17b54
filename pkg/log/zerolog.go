package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ZerologLogger implements Logger on top of zerolog.
type ZerologLogger struct {
	zl zerolog.Logger
}

// NewZerologLogger returns a JSON logger writing to w at the given minimum level.
func NewZerologLogger(w io.Writer, level Level) *ZerologLogger {
	zl := zerolog.New(w).Level(toZerologLevel(level)).With().Timestamp().Logger()
	return &ZerologLogger{zl: zl}
}

// NewConsoleLogger returns a human-readable logger for interactive runs.
func NewConsoleLogger(w io.Writer, level Level) *ZerologLogger {
	cw := zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	zl := zerolog.New(cw).Level(toZerologLevel(level)).With().Timestamp().Logger()
	return &ZerologLogger{zl: zl}
}

func toZerologLevel(l Level) zerolog.Level {
	switch {
	case l <= LevelDebug:
		return zerolog.DebugLevel
	case l <= LevelInfo:
		return zerolog.InfoLevel
	case l <= LevelWarn:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}

// Debug implements Logger.Debug.
func (z *ZerologLogger) Debug(msg string, fields ...any) {
	emit(z.zl.Debug(), msg, fields)
}

// Info implements Logger.Info.
func (z *ZerologLogger) Info(msg string, fields ...any) {
	emit(z.zl.Info(), msg, fields)
}

// Warn implements Logger.Warn.
func (z *ZerologLogger) Warn(msg string, fields ...any) {
	emit(z.zl.Warn(), msg, fields)
}

// Error implements Logger.Error. A leading error field is attached under
// ErrorKey together with its stack trace.
func (z *ZerologLogger) Error(msg string, fields ...any) {
	e := z.zl.Error()
	if len(fields) > 0 {
		if err, ok := fields[0].(error); ok {
			e = withError(e, err)
			fields = fields[1:]
		}
	}
	emit(e, msg, fields)
}

// With implements Logger.With.
func (z *ZerologLogger) With(fields ...any) Logger {
	ctx := z.zl.With()
	for i := 0; i+1 < len(fields); i += 2 {
		key := fmt.Sprint(fields[i])
		switch v := fields[i+1].(type) {
		case error:
			ctx = ctx.AnErr(key, v)
		default:
			ctx = ctx.Interface(key, v)
		}
	}
	return &ZerologLogger{zl: ctx.Logger()}
}

// Enabled implements Logger.Enabled.
func (z *ZerologLogger) Enabled(_ context.Context, level Level) bool {
	zlv := toZerologLevel(level)
	return zlv >= z.zl.GetLevel() && zlv >= zerolog.GlobalLevel()
}

// WarnError logs a warning value, using its zerolog marshaler when it has one.
// It is the hook installed into pkg/errors.Warn by the command.
func (z *ZerologLogger) WarnError(w error) {
	e := z.zl.Warn()
	if m, ok := w.(zerolog.LogObjectMarshaler); ok {
		e = e.Object("warning", m)
	}
	e.Msg(w.Error())
}

func emit(e *zerolog.Event, msg string, fields []any) {
	if e == nil {
		return
	}
	for i := 0; i+1 < len(fields); i += 2 {
		key := fmt.Sprint(fields[i])
		switch v := fields[i+1].(type) {
		case error:
			e = e.AnErr(key, v)
		case zerolog.LogObjectMarshaler:
			e = e.Object(key, v)
		default:
			e = e.Interface(key, v)
		}
	}
	if len(fields)%2 == 1 {
		e = e.Interface("!BADKEY", fields[len(fields)-1])
	}
	e.Msg(msg)
}

func withError(e *zerolog.Event, err error) *zerolog.Event {
	e = e.AnErr(ErrorKey, err)
	var m zerolog.LogObjectMarshaler
	if errors.As(err, &m) {
		e = e.Object(ErrorTypeKey, m)
	}
	if st := extractStacktrace(err); st != "" {
		e = e.Str(StacktraceKey, st)
	}
	return e
}

// extractStacktrace returns the stack recorded by cockroachdb/errors, if any.
func extractStacktrace(err error) string {
	safeDetails := errors.GetSafeDetails(err).SafeDetails
	if len(safeDetails) > 0 {
		return safeDetails[0]
	}
	return ""
}

// Provider is the zerolog-backed LoggerProvider used by the package-level helpers.
type Provider struct {
	mu     sync.RWMutex
	w      io.Writer
	pretty bool
	level  Level
	root   Logger
}

// NewProvider creates a provider writing to w.
func NewProvider(w io.Writer, level Level, pretty bool) *Provider {
	p := &Provider{w: w, pretty: pretty, level: level}
	p.rebuild()
	return p
}

func (p *Provider) rebuild() {
	if p.pretty {
		p.root = NewConsoleLogger(p.w, p.level)
		return
	}
	p.root = NewZerologLogger(p.w, p.level)
}

// GetLogger implements LoggerProvider.GetLogger.
func (p *Provider) GetLogger() Logger {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.root
}

// GetLoggerWithName implements LoggerProvider.GetLoggerWithName.
func (p *Provider) GetLoggerWithName(name string) Logger {
	return p.GetLogger().With(ComponentKey, name)
}

// SetLevel implements LoggerProvider.SetLevel.
func (p *Provider) SetLevel(level Level) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.level = level
	p.rebuild()
}

// WarnError logs a warning through the current root logger. Install it with
// errors.SetZerologWarnFunc so library warnings reach the run log.
func (p *Provider) WarnError(w error) {
	if z, ok := p.GetLogger().(*ZerologLogger); ok {
		z.WarnError(w)
		return
	}
	p.GetLogger().Warn(w.Error())
}

var (
	globalMu       sync.RWMutex
	globalProvider LoggerProvider = NewProvider(os.Stderr, LevelInfo, false)
)

// SetProvider replaces the process-wide provider. Tests use it with a
// TestLoggerProvider. nil restores the default stderr provider.
func SetProvider(p LoggerProvider) {
	globalMu.Lock()
	defer globalMu.Unlock()
	if p == nil {
		p = NewProvider(os.Stderr, LevelInfo, false)
	}
	globalProvider = p
}

// SetLogger installs a fixed logger as the process-wide logger.
func SetLogger(l Logger) {
	SetProvider(&fixedProvider{root: l})
}

type fixedProvider struct {
	root Logger
}

func (p *fixedProvider) GetLogger() Logger { return p.root }

func (p *fixedProvider) GetLoggerWithName(name string) Logger {
	return p.root.With(ComponentKey, name)
}

func (p *fixedProvider) SetLevel(Level) {}

func provider() LoggerProvider {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalProvider
}

// GetLogger returns the process-wide logger.
func GetLogger() Logger {
	return provider().GetLogger()
}

// GetLoggerWithName returns the process-wide logger tagged with a component name.
func GetLoggerWithName(name string) Logger {
	return provider().GetLoggerWithName(name)
}

// Setup installs a zerolog provider for the command. level is one of
// debug, info, warn, error.
func Setup(level string, pretty bool, w io.Writer) (*Provider, error) {
	lv, ok := ParseLevel(level)
	if !ok {
		return nil, errors.Newf("invalid log level: %q", level)
	}
	p := NewProvider(w, lv, pretty)
	SetProvider(p)
	return p, nil
}
