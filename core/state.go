package core

import "sync"

// InitializationState tracks module boot. Dispatch is only accepted once
// the state reaches StateReady.
type InitializationState int

const (
	StateUninitialized InitializationState = iota
	StateValidating
	StateDiscovering
	StateReady
	StateFailed
	StateDisabled
)

func (s InitializationState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateValidating:
		return "validating"
	case StateDiscovering:
		return "discovering"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	case StateDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is allowed.
func (s InitializationState) Terminal() bool {
	return s == StateReady || s == StateFailed || s == StateDisabled
}

var allowedTransitions = map[InitializationState][]InitializationState{
	StateUninitialized: {StateValidating},
	StateValidating:    {StateDiscovering, StateFailed, StateDisabled},
	StateDiscovering:   {StateReady, StateFailed},
}

// Lifecycle is a process-wide initialization state holder.
type Lifecycle struct {
	mu    sync.RWMutex
	state InitializationState
	cause error
}

func NewLifecycle() *Lifecycle {
	return &Lifecycle{state: StateUninitialized}
}

func (l *Lifecycle) State() InitializationState {
	if l == nil {
		return StateUninitialized
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// Cause returns the error recorded with the transition to StateFailed.
func (l *Lifecycle) Cause() error {
	if l == nil {
		return nil
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cause
}

func (l *Lifecycle) Transition(to InitializationState) error {
	return l.transition(to, nil)
}

func (l *Lifecycle) Fail(cause error) error {
	return l.transition(StateFailed, cause)
}

func (l *Lifecycle) transition(to InitializationState, cause error) error {
	if l == nil {
		return InternalError("webhooks: lifecycle is nil", nil)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, allowed := range allowedTransitions[l.state] {
		if allowed == to {
			l.state = to
			if to == StateFailed {
				l.cause = cause
			}
			return nil
		}
	}
	return InvalidTransitionError(l.state, to)
}
