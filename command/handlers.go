package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-stripe-webhooks/core"
	"github.com/goliatone/go-stripe-webhooks/router"
)

type EventRouter interface {
	RouteEvent(ctx context.Context, namespace core.Namespace, event core.Event) router.Result
}

type EventVerifier interface {
	VerifyContext(ctx context.Context, payload []byte, signature string, namespace core.Namespace) (core.Event, error)
}

type RouteEventCommand struct {
	router EventRouter
}

func NewRouteEventCommand(eventRouter EventRouter) *RouteEventCommand {
	return &RouteEventCommand{router: eventRouter}
}

// Execute routes the event and stores the router.Result in the context
// result collector. Handler failures are reported in the result, not as an
// error.
func (c *RouteEventCommand) Execute(ctx context.Context, msg RouteEventMessage) error {
	if c == nil || c.router == nil {
		return commandDependencyError("command: event router is required")
	}
	if err := msg.Validate(); err != nil {
		return commandWrapValidation(err, "command: invalid route event message")
	}
	storeResult(ctx, c.router.RouteEvent(ctx, msg.Namespace, msg.Event))
	return nil
}

type ReceiveEventCommand struct {
	verifier EventVerifier
	router   EventRouter
}

func NewReceiveEventCommand(verifier EventVerifier, eventRouter EventRouter) *ReceiveEventCommand {
	return &ReceiveEventCommand{verifier: verifier, router: eventRouter}
}

func (c *ReceiveEventCommand) Execute(ctx context.Context, msg ReceiveEventMessage) error {
	if c == nil || c.verifier == nil || c.router == nil {
		return commandDependencyError("command: verifier and event router are required")
	}
	if err := msg.Validate(); err != nil {
		return commandWrapValidation(err, "command: invalid receive event message")
	}
	event, err := c.verifier.VerifyContext(ctx, msg.Payload, msg.Signature, msg.Namespace)
	if err != nil {
		return err
	}
	storeResult(ctx, c.router.RouteEvent(ctx, msg.Namespace, event))
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
