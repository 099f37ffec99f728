package core

import "context"

// DiscoveryPlan is the outcome of a successful Initialize call.
type DiscoveryPlan struct {
	Enabled    bool
	Config     WebhookConfig
	Configured []Namespace
	Discover   []Namespace
}

// ShouldDiscover reports whether namespace handlers must be scanned.
func (p DiscoveryPlan) ShouldDiscover(namespace Namespace) bool {
	for _, candidate := range p.Discover {
		if candidate == namespace {
			return true
		}
	}
	return false
}

// HasSecret reports whether namespace can ever receive a verified event.
func (p DiscoveryPlan) HasSecret(namespace Namespace) bool {
	for _, candidate := range p.Configured {
		if candidate == namespace {
			return true
		}
	}
	return false
}

// Guard validates webhook configuration and drives the lifecycle through
// validation and discovery.
type Guard struct {
	lifecycle *Lifecycle
	observer  Observer
}

func NewGuard(lifecycle *Lifecycle, observer Observer) *Guard {
	if lifecycle == nil {
		lifecycle = NewLifecycle()
	}
	return &Guard{lifecycle: lifecycle, observer: observer}
}

func (g *Guard) Lifecycle() *Lifecycle {
	if g == nil {
		return nil
	}
	return g.lifecycle
}

// Initialize validates cfg. A nil webhook section disables the module
// before any other check. A section without secrets fails it. Anything else
// moves the lifecycle to discovering and returns the namespaces to scan.
func (g *Guard) Initialize(ctx context.Context, cfg Config) (DiscoveryPlan, error) {
	if g == nil {
		return DiscoveryPlan{}, InternalError("webhooks: guard is nil", nil)
	}
	if err := g.lifecycle.Transition(StateValidating); err != nil {
		return DiscoveryPlan{}, err
	}
	if cfg.Webhooks == nil {
		if err := g.lifecycle.Transition(StateDisabled); err != nil {
			return DiscoveryPlan{}, err
		}
		g.observer.Info(ctx, "webhooks disabled: no webhook configuration supplied", map[string]any{
			"state": StateDisabled.String(),
		})
		return DiscoveryPlan{Enabled: false}, nil
	}
	if err := cfg.Validate(); err != nil {
		wrapped := InvalidConfigError(err)
		_ = g.lifecycle.Fail(wrapped)
		return DiscoveryPlan{}, wrapped
	}

	webhooks := *cfg.Webhooks
	configured := webhooks.ConfiguredNamespaces()
	if len(configured) == 0 {
		err := NoSecretsProvidedError()
		_ = g.lifecycle.Fail(err)
		g.observer.Error(ctx, "webhooks initialization failed", MergeFields(ErrorFields(err), map[string]any{
			"state": StateFailed.String(),
		}))
		return DiscoveryPlan{}, err
	}

	discover := Namespaces()
	if webhooks.SkipUnconfiguredNamespaces {
		discover = configured
	}
	for _, namespace := range Namespaces() {
		if webhooks.Secret(namespace) != "" {
			continue
		}
		if webhooks.SkipUnconfiguredNamespaces {
			g.observer.Info(ctx, "webhook namespace skipped: secret not configured", map[string]any{
				"namespace": namespace.String(),
			})
			continue
		}
		g.observer.Warn(ctx, "webhook namespace discovered without secret; its handlers are unreachable", map[string]any{
			"namespace": namespace.String(),
		})
	}

	if err := g.lifecycle.Transition(StateDiscovering); err != nil {
		return DiscoveryPlan{}, err
	}
	return DiscoveryPlan{
		Enabled:    true,
		Config:     webhooks,
		Configured: configured,
		Discover:   discover,
	}, nil
}

// Complete marks discovery finished and the module ready for dispatch.
func (g *Guard) Complete(ctx context.Context) error {
	if g == nil {
		return InternalError("webhooks: guard is nil", nil)
	}
	if err := g.lifecycle.Transition(StateReady); err != nil {
		return err
	}
	g.observer.Info(ctx, "webhooks ready", map[string]any{"state": StateReady.String()})
	return nil
}

// Abort records a fatal discovery failure and returns cause.
func (g *Guard) Abort(ctx context.Context, cause error) error {
	if g == nil {
		return cause
	}
	if err := g.lifecycle.Fail(cause); err != nil {
		return err
	}
	g.observer.Error(ctx, "webhooks initialization failed", MergeFields(ErrorFields(cause), map[string]any{
		"state": StateFailed.String(),
	}))
	return cause
}
