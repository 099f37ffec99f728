package command

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-stripe-webhooks/core"
)

const (
	TypeRouteEvent   = "webhooks.command.route_event"
	TypeReceiveEvent = "webhooks.command.receive_event"
)

// RouteEventMessage dispatches an already verified event.
type RouteEventMessage struct {
	Namespace core.Namespace
	Event     core.Event
}

func (RouteEventMessage) Type() string { return TypeRouteEvent }

func (m RouteEventMessage) Validate() error {
	if !m.Namespace.Valid() {
		return fmt.Errorf("command: unsupported namespace %q", m.Namespace)
	}
	if strings.TrimSpace(m.Event.Type) == "" {
		return fmt.Errorf("command: event type is required")
	}
	return nil
}

// ReceiveEventMessage carries a raw delivery that still has to be verified,
// for transports other than HTTP.
type ReceiveEventMessage struct {
	Namespace core.Namespace
	Payload   []byte
	Signature string
}

func (ReceiveEventMessage) Type() string { return TypeReceiveEvent }

func (m ReceiveEventMessage) Validate() error {
	if !m.Namespace.Valid() {
		return fmt.Errorf("command: unsupported namespace %q", m.Namespace)
	}
	if len(m.Payload) == 0 {
		return fmt.Errorf("command: payload is required")
	}
	if strings.TrimSpace(m.Signature) == "" {
		return fmt.Errorf("command: signature is required")
	}
	return nil
}
