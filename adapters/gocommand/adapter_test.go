package gocommand

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/goliatone/go-command"
	webhookcommand "github.com/goliatone/go-stripe-webhooks/command"
	"github.com/goliatone/go-stripe-webhooks/core"
	"github.com/goliatone/go-stripe-webhooks/router"
)

type okMessage struct{}

func (okMessage) Type() string { return "webhooks.command.ok" }

type invalidMessage struct{}

func (invalidMessage) Type() string { return "" }

type failingMessage struct{}

func (failingMessage) Type() string { return "webhooks.command.fail" }

func (failingMessage) Validate() error { return errors.New("invalid payload") }

type countingRouter struct {
	calls atomic.Int32
}

func (r *countingRouter) RouteEvent(_ context.Context, namespace core.Namespace, event core.Event) router.Result {
	r.calls.Add(1)
	return router.Result{Namespace: namespace, EventType: event.Type}
}

func TestValidateMessageContract(t *testing.T) {
	if err := ValidateMessageContract(okMessage{}); err != nil {
		t.Fatalf("expected valid message, got %v", err)
	}
	if err := ValidateMessageContract(invalidMessage{}); err == nil {
		t.Fatalf("expected empty type to fail contract validation")
	}
	if err := ValidateMessageContract(failingMessage{}); err == nil {
		t.Fatalf("expected Validate() failure to bubble")
	}
	if err := ValidateMessageContract(webhookcommand.RouteEventMessage{
		Namespace: core.NamespacePrimary,
		Event:     core.Event{Type: "invoice.paid"},
	}); err != nil {
		t.Fatalf("expected route event message to satisfy contract, got %v", err)
	}
}

func TestRegisterWebhookCommands_DispatchRoutesEvent(t *testing.T) {
	adapter := NewRegistryAdapter(command.NewRegistry())
	eventRouter := &countingRouter{}

	subscriptions, err := RegisterWebhookCommands(adapter, eventRouter, nil)
	if err != nil {
		t.Fatalf("register webhook commands: %v", err)
	}
	defer subscriptions.Unsubscribe()
	if len(subscriptions) != 1 {
		t.Fatalf("expected route command only without verifier, got %d", len(subscriptions))
	}
	if err := adapter.Initialize(); err != nil {
		t.Fatalf("initialize registry: %v", err)
	}

	if err := Dispatch(context.Background(), webhookcommand.RouteEventMessage{
		Namespace: core.NamespacePrimary,
		Event:     core.Event{ID: "evt_1", Type: "invoice.paid"},
	}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if got := eventRouter.calls.Load(); got != 1 {
		t.Fatalf("expected one routed event, got %d", got)
	}
}

func TestRegisterWebhookCommands_RequiresRouter(t *testing.T) {
	if _, err := RegisterWebhookCommands(NewRegistryAdapter(nil), nil, nil); err == nil {
		t.Fatalf("expected router required error")
	}
	if _, err := RegisterAndSubscribe[webhookcommand.RouteEventMessage](nil, webhookcommand.NewRouteEventCommand(&countingRouter{})); err == nil {
		t.Fatalf("expected registry required error")
	}
}
