package core

import (
	"errors"
	"testing"
)

func TestLifecycle_HappyPath(t *testing.T) {
	lifecycle := NewLifecycle()
	for _, state := range []InitializationState{StateValidating, StateDiscovering, StateReady} {
		if err := lifecycle.Transition(state); err != nil {
			t.Fatalf("transition to %s: %v", state, err)
		}
	}
	if lifecycle.State() != StateReady || !lifecycle.State().Terminal() {
		t.Fatalf("expected terminal ready state, got %s", lifecycle.State())
	}
	err := lifecycle.Transition(StateDiscovering)
	if !HasTextCode(err, ServiceErrorInvalidTransition) {
		t.Fatalf("expected invalid transition out of ready, got %v", err)
	}
}

func TestLifecycle_RejectsSkippingStates(t *testing.T) {
	lifecycle := NewLifecycle()
	if err := lifecycle.Transition(StateReady); err == nil {
		t.Fatalf("expected uninitialized -> ready to be rejected")
	}
	if err := lifecycle.Transition(StateValidating); err != nil {
		t.Fatalf("transition: %v", err)
	}
	if err := lifecycle.Transition(StateReady); err == nil {
		t.Fatalf("expected validating -> ready to be rejected")
	}
}

func TestLifecycle_FailRecordsCause(t *testing.T) {
	lifecycle := NewLifecycle()
	_ = lifecycle.Transition(StateValidating)
	cause := errors.New("boom")
	if err := lifecycle.Fail(cause); err != nil {
		t.Fatalf("fail: %v", err)
	}
	if lifecycle.State() != StateFailed || !errors.Is(lifecycle.Cause(), cause) {
		t.Fatalf("expected failed state with cause, got %s %v", lifecycle.State(), lifecycle.Cause())
	}
	if err := lifecycle.Transition(StateDisabled); err == nil {
		t.Fatalf("expected failed to be terminal")
	}
}

func TestLifecycle_Nil(t *testing.T) {
	var lifecycle *Lifecycle
	if lifecycle.State() != StateUninitialized {
		t.Fatalf("expected uninitialized state for nil lifecycle")
	}
	if err := lifecycle.Transition(StateValidating); err == nil {
		t.Fatalf("expected nil lifecycle error")
	}
}
