// Package httpwebhooks is the HTTP entry point for provider webhook
// deliveries. It reads and verifies each request, hands the event to the
// router and acknowledges once every handler settled.
package httpwebhooks
