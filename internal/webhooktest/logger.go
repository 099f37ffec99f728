// Package webhooktest holds capture doubles and signing helpers shared by the
// package tests.
package webhooktest

import (
	"context"
	"sync"

	glog "github.com/goliatone/go-logger/glog"
)

type LogRecord struct {
	Level   string
	Message string
	Fields  map[string]any
}

// CaptureLogger records every log call. Loggers derived through WithFields or
// WithContext share the record buffer.
type CaptureLogger struct {
	mu       *sync.Mutex
	records  *[]LogRecord
	defaults map[string]any
}

func NewCaptureLogger() *CaptureLogger {
	records := []LogRecord{}
	return &CaptureLogger{mu: &sync.Mutex{}, records: &records, defaults: map[string]any{}}
}

func (l *CaptureLogger) WithFields(fields map[string]any) glog.Logger {
	merged := cloneFields(l.defaults)
	for key, value := range fields {
		merged[key] = value
	}
	return &CaptureLogger{mu: l.mu, records: l.records, defaults: merged}
}

func (l *CaptureLogger) WithContext(context.Context) glog.Logger {
	return &CaptureLogger{mu: l.mu, records: l.records, defaults: cloneFields(l.defaults)}
}

func (l *CaptureLogger) Trace(msg string, args ...any) { l.record("trace", msg, args...) }
func (l *CaptureLogger) Debug(msg string, args ...any) { l.record("debug", msg, args...) }
func (l *CaptureLogger) Info(msg string, args ...any)  { l.record("info", msg, args...) }
func (l *CaptureLogger) Warn(msg string, args ...any)  { l.record("warn", msg, args...) }
func (l *CaptureLogger) Error(msg string, args ...any) { l.record("error", msg, args...) }
func (l *CaptureLogger) Fatal(msg string, args ...any) { l.record("fatal", msg, args...) }

func (l *CaptureLogger) record(level string, msg string, args ...any) {
	fields := cloneFields(l.defaults)
	for index := 0; index+1 < len(args); index += 2 {
		key, ok := args[index].(string)
		if !ok {
			continue
		}
		fields[key] = args[index+1]
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	*l.records = append(*l.records, LogRecord{Level: level, Message: msg, Fields: fields})
}

func (l *CaptureLogger) Records() []LogRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]LogRecord, len(*l.records))
	copy(out, *l.records)
	return out
}

// Find returns the records logged at level with message.
func (l *CaptureLogger) Find(level string, message string) []LogRecord {
	out := []LogRecord{}
	for _, record := range l.Records() {
		if record.Level == level && record.Message == message {
			out = append(out, record)
		}
	}
	return out
}

// Provider hands the same capture logger out for every name.
type Provider struct {
	Logger glog.Logger
}

func (p Provider) GetLogger(string) glog.Logger {
	return p.Logger
}

func cloneFields(input map[string]any) map[string]any {
	output := make(map[string]any, len(input))
	for key, value := range input {
		output[key] = value
	}
	return output
}
