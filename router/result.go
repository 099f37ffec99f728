package router

import (
	"errors"
	"time"

	"github.com/goliatone/go-stripe-webhooks/core"
)

// Outcome is the settled state of one handler invocation.
type Outcome struct {
	Owner    string
	Method   string
	Err      error
	Duration time.Duration
}

func (o Outcome) Succeeded() bool {
	return o.Err == nil
}

// Result summarizes one RouteEvent call.
type Result struct {
	DispatchID string
	Namespace  core.Namespace
	EventID    string
	EventType  string
	Matched    int
	Failed     int
	Outcomes   []Outcome
}

// Err joins every handler failure, or returns nil when all succeeded. It is
// informational; the dispatch itself always completes.
func (r Result) Err() error {
	if r.Failed == 0 {
		return nil
	}
	errs := make([]error, 0, r.Failed)
	for _, outcome := range r.Outcomes {
		if outcome.Err != nil {
			errs = append(errs, outcome.Err)
		}
	}
	return errors.Join(errs...)
}
