// Testing helpers for structured logging.
//
// TestLogger captures records as JSON lines in memory so tests can assert on
// messages and fields without touching the process-wide zerolog output.

package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// TestLogger is a Logger that captures every record in memory.
// It is safe for concurrent use; loggers derived with With share the buffer.
type TestLogger struct {
	mu     *sync.Mutex
	buffer *bytes.Buffer
	level  *Level
	fields map[string]interface{}
}

// NewTestLogger creates a new TestLogger with the specified minimum level.
//
// Example:
//
//	logger, buffer := log.NewTestLogger(log.LevelDebug)
//	logger.Info("fold scored", log.FoldKey, 2)
//	output := buffer.String()
func NewTestLogger(level Level) (*TestLogger, *bytes.Buffer) {
	buffer := &bytes.Buffer{}
	lv := level
	return &TestLogger{
		mu:     &sync.Mutex{},
		buffer: buffer,
		level:  &lv,
		fields: make(map[string]interface{}),
	}, buffer
}

// Debug implements Logger.Debug.
func (t *TestLogger) Debug(msg string, fields ...any) {
	t.writeLog(LevelDebug, msg, fields...)
}

// Info implements Logger.Info.
func (t *TestLogger) Info(msg string, fields ...any) {
	t.writeLog(LevelInfo, msg, fields...)
}

// Warn implements Logger.Warn.
func (t *TestLogger) Warn(msg string, fields ...any) {
	t.writeLog(LevelWarn, msg, fields...)
}

// Error implements Logger.Error. A leading error is recorded under ErrorKey.
func (t *TestLogger) Error(msg string, fields ...any) {
	if len(fields) > 0 {
		if err, ok := fields[0].(error); ok {
			fields = append([]any{ErrorKey, err}, fields[1:]...)
		}
	}
	t.writeLog(LevelError, msg, fields...)
}

// With implements Logger.With.
func (t *TestLogger) With(fields ...any) Logger {
	newFields := make(map[string]interface{}, len(t.fields)+len(fields)/2)
	for k, v := range t.fields {
		newFields[k] = v
	}
	addFields(newFields, fields)

	return &TestLogger{
		mu:     t.mu,
		buffer: t.buffer,
		level:  t.level,
		fields: newFields,
	}
}

// Enabled implements Logger.Enabled.
func (t *TestLogger) Enabled(_ context.Context, level Level) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return *t.level <= level
}

func addFields(dst map[string]interface{}, fields []any) {
	for i := 0; i+1 < len(fields); i += 2 {
		key := fmt.Sprintf("%v", fields[i])
		if err, ok := fields[i+1].(error); ok {
			dst[key] = err.Error()
		} else {
			dst[key] = fields[i+1]
		}
	}
}

func (t *TestLogger) writeLog(level Level, msg string, fields ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if *t.level > level {
		return
	}

	entry := map[string]interface{}{
		"level":   level.String(),
		"message": msg,
	}
	for k, v := range t.fields {
		entry[k] = v
	}
	addFields(entry, fields)

	jsonData, err := json.Marshal(entry)
	if err != nil {
		jsonData, _ = json.Marshal(map[string]interface{}{
			"level":   level.String(),
			"message": msg,
			ErrorKey:  err.Error(),
		})
	}
	t.buffer.Write(jsonData)
	t.buffer.WriteByte('\n')
}

// GetBuffer returns the internal buffer for direct access to captured logs.
func (t *TestLogger) GetBuffer() *bytes.Buffer {
	return t.buffer
}

// GetLogEntries parses the captured log output into one map per record.
func (t *TestLogger) GetLogEntries() ([]map[string]interface{}, error) {
	t.mu.Lock()
	raw := t.buffer.String()
	t.mu.Unlock()

	var entries []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(raw), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ContainsMessage reports whether any captured record contains message.
func (t *TestLogger) ContainsMessage(message string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return strings.Contains(t.buffer.String(), message)
}

// ContainsField reports whether a captured record has key set to value.
// Numbers decode as float64, so compare against float64 values.
func (t *TestLogger) ContainsField(key string, value interface{}) bool {
	entries, err := t.GetLogEntries()
	if err != nil {
		return false
	}
	for _, entry := range entries {
		if fieldValue, exists := entry[key]; exists && fieldValue == value {
			return true
		}
	}
	return false
}

// Clear clears all captured log content.
func (t *TestLogger) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buffer.Reset()
}

// TestLoggerProvider implements LoggerProvider for testing scenarios.
type TestLoggerProvider struct {
	logger *TestLogger
	buffer *bytes.Buffer
}

// NewTestLoggerProvider creates a new test logger provider.
//
//	p, buf := log.NewTestLoggerProvider(log.LevelDebug)
//	log.SetProvider(p)
//	defer log.SetProvider(nil)
func NewTestLoggerProvider(level Level) (*TestLoggerProvider, *bytes.Buffer) {
	logger, buffer := NewTestLogger(level)
	return &TestLoggerProvider{
		logger: logger,
		buffer: buffer,
	}, buffer
}

// GetLogger implements LoggerProvider.GetLogger.
func (p *TestLoggerProvider) GetLogger() Logger {
	return p.logger
}

// GetLoggerWithName implements LoggerProvider.GetLoggerWithName.
func (p *TestLoggerProvider) GetLoggerWithName(name string) Logger {
	return p.logger.With(ComponentKey, name)
}

// SetLevel implements LoggerProvider.SetLevel.
func (p *TestLoggerProvider) SetLevel(level Level) {
	p.logger.mu.Lock()
	defer p.logger.mu.Unlock()
	*p.logger.level = level
}

// Logger returns the underlying TestLogger.
func (p *TestLoggerProvider) Logger() *TestLogger {
	return p.logger
}

// GetBuffer returns the buffer for accessing captured logs.
func (p *TestLoggerProvider) GetBuffer() *bytes.Buffer {
	return p.buffer
}
