package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[RouteEventMessage]   = (*RouteEventCommand)(nil)
	_ gocmd.Commander[ReceiveEventMessage] = (*ReceiveEventCommand)(nil)
	_ gocmd.Message                        = RouteEventMessage{}
	_ gocmd.Message                        = ReceiveEventMessage{}
)
