package core

import (
	"context"

	glog "github.com/goliatone/go-logger/glog"
)

// HandlerFunc reacts to one event. Returned errors are contained by the
// router and never reach the entry point.
type HandlerFunc func(ctx context.Context, event Event) error

// HandlerBinding is one registered reaction, bound to a live component.
type HandlerBinding struct {
	Namespace Namespace
	EventType string
	Owner     string
	Method    string
	Invoke    HandlerFunc
}

// Key identifies a binding for duplicate detection.
func (b HandlerBinding) Key() string {
	return b.Namespace.String() + "|" + b.EventType + "|" + b.Owner + "|" + b.Method
}

func (b HandlerBinding) fields() map[string]any {
	return map[string]any{
		"namespace":  b.Namespace.String(),
		"event_type": b.EventType,
		"owner":      b.Owner,
		"method":     b.Method,
	}
}

// Fields returns the binding identity as structured log fields.
func (b HandlerBinding) Fields() map[string]any {
	return b.fields()
}

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger
