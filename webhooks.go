// Package stripewebhooks wires webhook handler discovery, signature
// verification and concurrent dispatch for the primary and connect
// namespaces of a payment provider account.
package stripewebhooks

import (
	"github.com/goliatone/go-stripe-webhooks/core"
	"github.com/goliatone/go-stripe-webhooks/registry"
	"github.com/goliatone/go-stripe-webhooks/router"
)

type Config = core.Config
type WebhookConfig = core.WebhookConfig
type WebhookSecrets = core.WebhookSecrets

type Namespace = core.Namespace

const (
	NamespacePrimary = core.NamespacePrimary
	NamespaceConnect = core.NamespaceConnect
)

type Event = core.Event
type HandlerFunc = core.HandlerFunc
type HandlerBinding = core.HandlerBinding
type DispatchTables = core.DispatchTables
type InitializationState = core.InitializationState

type Component = registry.Component
type Named = registry.Named
type Container = registry.Container
type TaggedMethod = registry.TaggedMethod
type StaticContainer = registry.StaticContainer

type Result = router.Result
type Outcome = router.Outcome

var (
	On                  = registry.On
	IsConfigError       = core.IsConfigError
	IsDiscoveryError    = core.IsDiscoveryError
	IsVerificationError = core.IsVerificationError
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}
