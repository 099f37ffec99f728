// Package fxwebhooks boots the webhook module inside an fx application.
// Components join discovery by being provided into the ComponentGroup value
// group; the HTTP entry point is wired by default.
package fxwebhooks

import (
	"context"
	"sort"

	stripewebhooks "github.com/goliatone/go-stripe-webhooks"
	"github.com/goliatone/go-stripe-webhooks/core"
	"github.com/goliatone/go-stripe-webhooks/registry"
	"go.uber.org/fx"
)

const ComponentGroup = "stripe_webhook_components"

// AsComponent annotates constructor so its result joins the webhook
// component group.
func AsComponent(constructor any) any {
	return fx.Annotate(
		constructor,
		fx.As(new(registry.Component)),
		fx.ResultTags(`group:"`+ComponentGroup+`"`),
	)
}

// GroupContainer is a registry.Container over the fx value group. fx does
// not order group members, so components are sorted by owner name.
type GroupContainer struct {
	components []registry.Component
}

func NewGroupContainer(components []registry.Component) GroupContainer {
	sorted := append([]registry.Component(nil), components...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return registry.OwnerName(sorted[i]) < registry.OwnerName(sorted[j])
	})
	return GroupContainer{components: sorted}
}

func (c GroupContainer) Components() []any {
	out := make([]any, 0, len(c.components))
	for _, component := range c.components {
		out = append(out, component)
	}
	return out
}

type Params struct {
	fx.In

	Config         core.Config
	Components     []registry.Component    `group:"stripe_webhook_components"`
	Logger         core.Logger             `optional:"true"`
	LoggerProvider core.LoggerProvider     `optional:"true"`
	Metrics        core.MetricsRecorder    `optional:"true"`
	Options        []stripewebhooks.Option `group:"stripe_webhook_options"`
}

// NewModule boots the webhook module. A boot error fails fx start.
func NewModule(p Params) (*stripewebhooks.Module, error) {
	opts := []stripewebhooks.Option{
		stripewebhooks.WithLogger(p.Logger),
		stripewebhooks.WithLoggerProvider(p.LoggerProvider),
		stripewebhooks.WithMetricsRecorder(p.Metrics),
		stripewebhooks.WithHTTPEntryPoint(),
	}
	opts = append(opts, p.Options...)
	module, err := stripewebhooks.Bootstrap(context.Background(), p.Config, NewGroupContainer(p.Components), opts...)
	if err != nil {
		return nil, err
	}
	return module, nil
}

// AsOption contributes a bootstrap option, for example a custom entry point.
func AsOption(opt stripewebhooks.Option) fx.Option {
	return fx.Provide(fx.Annotate(
		func() stripewebhooks.Option { return opt },
		fx.ResultTags(`group:"stripe_webhook_options"`),
	))
}

var Module = fx.Module("stripe-webhooks",
	fx.Provide(NewModule),
)
