package router

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/goliatone/go-stripe-webhooks/core"
)

// Service routes events to the handlers of one sealed set of dispatch
// tables. It is safe for concurrent use; independent RouteEvent calls share
// no mutable state.
type Service struct {
	tables    core.DispatchTables
	lifecycle *core.Lifecycle
	observer  core.Observer
	logger    core.Logger
	metrics   core.MetricsRecorder
	logCounts bool
	newID     func() string
	now       func() time.Time
	ready     bool
}

// New builds a router over tables. Both namespace tables are required; use
// core.EmptyDispatchTable for a namespace without handlers.
func New(tables core.DispatchTables, opts ...Option) (*Service, error) {
	svc := &Service{
		tables: tables,
		newID:  defaultIDGenerator,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(svc)
	}
	for _, namespace := range core.Namespaces() {
		table := tables.Table(namespace)
		if table == nil {
			return nil, core.InternalError("router: dispatch table is required", map[string]any{
				"namespace": namespace.String(),
			})
		}
		if table.Namespace() != namespace {
			return nil, core.InternalError("router: dispatch table namespace mismatch", map[string]any{
				"namespace":       namespace.String(),
				"table_namespace": table.Namespace().String(),
			})
		}
	}
	if svc.newID == nil {
		svc.newID = defaultIDGenerator
	}
	if svc.now == nil {
		svc.now = func() time.Time { return time.Now().UTC() }
	}
	svc.observer = core.NewObserver(svc.logger, svc.metrics)
	svc.ready = true
	return svc, nil
}

// Ready reports whether RouteEvent may be called.
func (s *Service) Ready() bool {
	if s == nil || !s.ready {
		return false
	}
	if s.lifecycle != nil {
		return s.lifecycle.State() == core.StateReady
	}
	return true
}

func (s *Service) state() core.InitializationState {
	if s == nil || !s.ready {
		return core.StateUninitialized
	}
	if s.lifecycle != nil {
		return s.lifecycle.State()
	}
	return core.StateReady
}

// Table returns the sealed dispatch table for namespace.
func (s *Service) Table(namespace core.Namespace) *core.DispatchTable {
	if s == nil {
		return nil
	}
	return s.tables.Table(namespace)
}

// RouteEvent invokes every handler registered for event.Type in namespace
// concurrently and waits for all of them. Handlers share event and must not
// modify its byte slices. Calling RouteEvent before the router is ready is a
// programming error and panics.
func (s *Service) RouteEvent(ctx context.Context, namespace core.Namespace, event core.Event) Result {
	if !s.Ready() {
		panic(core.RouterNotReadyError(s.state()))
	}
	if ctx == nil {
		ctx = context.Background()
	}
	result := Result{
		DispatchID: s.newID(),
		Namespace:  namespace,
		EventID:    event.ID,
		EventType:  event.Type,
	}
	bindings := s.tables.Table(namespace).Lookup(event.Type)
	result.Matched = len(bindings)
	if s.logCounts {
		s.observer.Debug(ctx, "webhook matching handlers", map[string]any{
			"dispatch_id": result.DispatchID,
			"namespace":   namespace.String(),
			"event_type":  event.Type,
			"count":       len(bindings),
		})
	}
	if len(bindings) == 0 {
		s.observer.Counter(ctx, "webhooks.dispatch.total", 1, map[string]string{
			"namespace": namespace.String(),
			"matched":   "false",
		})
		return result
	}

	outcomes := make([]Outcome, len(bindings))
	var wg sync.WaitGroup
	wg.Add(len(bindings))
	for index, binding := range bindings {
		go func() {
			defer wg.Done()
			outcomes[index] = s.invoke(ctx, result.DispatchID, binding, event)
		}()
	}
	wg.Wait()

	result.Outcomes = outcomes
	for _, outcome := range outcomes {
		if outcome.Err != nil {
			result.Failed++
		}
	}
	s.observer.Counter(ctx, "webhooks.dispatch.total", 1, map[string]string{
		"namespace": namespace.String(),
		"matched":   "true",
	})
	return result
}

func (s *Service) invoke(ctx context.Context, dispatchID string, binding core.HandlerBinding, event core.Event) (outcome Outcome) {
	startedAt := s.now()
	outcome = Outcome{Owner: binding.Owner, Method: binding.Method}
	defer func() {
		if recovered := recover(); recovered != nil {
			outcome.Err = core.HandlerInvocationError(fmt.Errorf("handler panic: %v", recovered), binding)
		}
		outcome.Duration = s.now().Sub(startedAt)
		s.observe(ctx, dispatchID, binding, event, outcome)
	}()
	if err := binding.Invoke(ctx, event); err != nil {
		outcome.Err = core.HandlerInvocationError(err, binding)
	}
	return outcome
}

func (s *Service) observe(ctx context.Context, dispatchID string, binding core.HandlerBinding, event core.Event, outcome Outcome) {
	status := "success"
	if outcome.Err != nil {
		status = "failure"
	}
	tags := map[string]string{
		"namespace":  binding.Namespace.String(),
		"event_type": binding.EventType,
		"owner":      binding.Owner,
		"status":     status,
	}
	s.observer.Counter(ctx, "webhooks.handler.total", 1, tags)
	s.observer.Histogram(ctx, "webhooks.handler.duration_ms", float64(outcome.Duration.Milliseconds()), tags)

	fields := core.MergeFields(binding.Fields(), map[string]any{
		"dispatch_id": dispatchID,
		"event_id":    event.ID,
		"status":      status,
		"duration_ms": outcome.Duration.Milliseconds(),
	})
	if outcome.Err != nil {
		s.observer.Error(ctx, "webhook handler failed", core.MergeFields(fields, core.ErrorFields(outcome.Err)))
		return
	}
	s.observer.Debug(ctx, "webhook handler completed", fields)
}
