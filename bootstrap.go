package stripewebhooks

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goliatone/go-stripe-webhooks/core"
	"github.com/goliatone/go-stripe-webhooks/registry"
	"github.com/goliatone/go-stripe-webhooks/router"
	"github.com/goliatone/go-stripe-webhooks/transport/httpwebhooks"
	"github.com/goliatone/go-stripe-webhooks/verifier"
)

const loggerName = "webhooks"

// EntryPoint receives verified deliveries and owns the router.
type EntryPoint interface {
	Mount(r chi.Router)
}

// ValidEntryPoint is optionally implemented by entry points that can report
// a typed nil or an unusable value. Bootstrap treats Valid() == false as a
// missing router owner.
type ValidEntryPoint interface {
	Valid() bool
}

// EntryPointFactory builds the entry point once the router is constructed.
type EntryPointFactory func(deps EntryPointDeps) (EntryPoint, error)

type EntryPointDeps struct {
	Config   core.WebhookConfig
	Router   *router.Service
	Verifier *verifier.Verifier
	Logger   core.Logger
	Metrics  core.MetricsRecorder
}

type Option func(*bootstrapOptions)

type bootstrapOptions struct {
	logger         core.Logger
	loggerProvider core.LoggerProvider
	metrics        core.MetricsRecorder
	entryPoint     EntryPointFactory
}

func WithLogger(logger core.Logger) Option {
	return func(o *bootstrapOptions) {
		o.logger = logger
	}
}

func WithLoggerProvider(provider core.LoggerProvider) Option {
	return func(o *bootstrapOptions) {
		o.loggerProvider = provider
	}
}

func WithMetricsRecorder(recorder core.MetricsRecorder) Option {
	return func(o *bootstrapOptions) {
		o.metrics = recorder
	}
}

// WithEntryPoint registers the component that will own the router. Without
// one an enabled module fails to boot.
func WithEntryPoint(factory EntryPointFactory) Option {
	return func(o *bootstrapOptions) {
		o.entryPoint = factory
	}
}

// WithHTTPEntryPoint registers the chi entry point served under the
// configured base path.
func WithHTTPEntryPoint(opts ...httpwebhooks.Option) Option {
	return WithEntryPoint(func(deps EntryPointDeps) (EntryPoint, error) {
		handlerOpts := append([]httpwebhooks.Option{
			httpwebhooks.WithLogger(deps.Logger),
			httpwebhooks.WithMetricsRecorder(deps.Metrics),
		}, opts...)
		return httpwebhooks.New(deps.Verifier, deps.Router, deps.Config.ResolvedBasePath(), handlerOpts...)
	})
}

// Module is the booted webhook subsystem. A disabled module has no router.
type Module struct {
	lifecycle  *core.Lifecycle
	tables     core.DispatchTables
	router     *router.Service
	verifier   *verifier.Verifier
	entryPoint EntryPoint
}

func (m *Module) State() core.InitializationState {
	if m == nil || m.lifecycle == nil {
		return core.StateUninitialized
	}
	return m.lifecycle.State()
}

func (m *Module) Enabled() bool {
	return m.State() == core.StateReady
}

func (m *Module) Router() *router.Service {
	if m == nil {
		return nil
	}
	return m.router
}

func (m *Module) Verifier() *verifier.Verifier {
	if m == nil {
		return nil
	}
	return m.verifier
}

func (m *Module) Tables() core.DispatchTables {
	if m == nil {
		return core.DispatchTables{}
	}
	return m.tables
}

func (m *Module) EntryPoint() EntryPoint {
	if m == nil {
		return nil
	}
	return m.entryPoint
}

// Mount registers the entry point routes on r. It is a no-op for a
// disabled module.
func (m *Module) Mount(r chi.Router) {
	if !m.Enabled() || m.entryPoint == nil || r == nil {
		return
	}
	m.entryPoint.Mount(r)
}

// Handler returns a standalone HTTP handler for the entry point routes.
func (m *Module) Handler() http.Handler {
	r := chi.NewRouter()
	m.Mount(r)
	return r
}

// Bootstrap validates cfg, discovers handlers from container, seals the
// dispatch tables and hands the router to the entry point. Configuration
// without a webhook section yields a disabled module and no error.
func Bootstrap(ctx context.Context, cfg Config, container Container, opts ...Option) (*Module, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	options := bootstrapOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	logger := core.ResolveLogger(loggerName, options.loggerProvider, options.logger)
	observer := core.NewObserver(logger, options.metrics)

	lifecycle := core.NewLifecycle()
	guard := core.NewGuard(lifecycle, observer)
	module := &Module{lifecycle: lifecycle}

	plan, err := guard.Initialize(ctx, cfg)
	if err != nil {
		return module, err
	}
	if !plan.Enabled {
		return module, nil
	}
	if options.entryPoint == nil {
		return module, guard.Abort(ctx, core.MissingRouterOwnerError(map[string]any{
			"configured": namespaceNames(plan.Configured),
		}))
	}
	if container == nil {
		container = registry.StaticContainer{}
	}

	tables, err := registry.BuildTables(ctx, container, plan, observer)
	if err != nil {
		return module, guard.Abort(ctx, err)
	}
	module.tables = tables

	svc, err := router.New(tables,
		router.WithLifecycle(lifecycle),
		router.WithLogger(logger),
		router.WithMetricsRecorder(options.metrics),
		router.WithLogMatchingHandlerCounts(plan.Config.LogMatchingHandlerCounts),
	)
	if err != nil {
		return module, guard.Abort(ctx, err)
	}
	module.router = svc
	module.verifier = verifier.New(plan.Config,
		verifier.WithLogger(logger),
		verifier.WithMetricsRecorder(options.metrics),
	)

	entryPoint, err := options.entryPoint(EntryPointDeps{
		Config:   plan.Config,
		Router:   svc,
		Verifier: module.verifier,
		Logger:   logger,
		Metrics:  options.metrics,
	})
	if err != nil {
		return module, guard.Abort(ctx, err)
	}
	if entryPoint == nil {
		return module, guard.Abort(ctx, core.MissingRouterOwnerError(map[string]any{
			"configured": namespaceNames(plan.Configured),
			"reason":     "entry point factory returned nil",
		}))
	}
	if valid, ok := entryPoint.(ValidEntryPoint); ok && !valid.Valid() {
		return module, guard.Abort(ctx, core.MissingRouterOwnerError(map[string]any{
			"configured": namespaceNames(plan.Configured),
			"reason":     "entry point is not usable",
		}))
	}
	module.entryPoint = entryPoint

	if err := guard.Complete(ctx); err != nil {
		return module, err
	}
	return module, nil
}

func namespaceNames(namespaces []core.Namespace) []string {
	out := make([]string, 0, len(namespaces))
	for _, namespace := range namespaces {
		out = append(out, namespace.String())
	}
	return out
}
