// Package router dispatches verified webhook events to the handlers sealed
// in the dispatch tables.
//
// Every handler matching an event is started before any is awaited, and
// RouteEvent returns once all of them settled. Handler errors and panics are
// contained, logged with the handler identity, and reported in the Result;
// RouteEvent itself never fails.
package router
