package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	stripewebhooks "github.com/goliatone/go-stripe-webhooks"
	"github.com/goliatone/go-stripe-webhooks/adapters/fxwebhooks"
	"github.com/goliatone/go-stripe-webhooks/adapters/gologger"
	"github.com/goliatone/go-stripe-webhooks/adapters/prommetrics"
	"github.com/goliatone/go-stripe-webhooks/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// baseOptions wires configuration, logging, metrics and the webhook module.
func baseOptions(opts *cliOptions) []fx.Option {
	return []fx.Option{
		fx.Supply(opts),
		fx.Provide(
			provideZap,
			provideConfig,
			provideLoggerProvider,
			provideRegistry,
			provideMetricsRecorder,
		),
		fx.Provide(
			fxwebhooks.AsComponent(newEventAuditor),
			fxwebhooks.AsComponent(newAccountAuditor),
		),
		fxwebhooks.Module,
	}
}

func appOptions(opts *cliOptions) []fx.Option {
	return append(baseOptions(opts),
		fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger}
		}),
		fx.Provide(provideHTTPHandler),
		fx.Invoke(registerServer),
	)
}

func provideZap(opts *cliOptions) (*zap.Logger, error) {
	if opts.debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func provideConfig(opts *cliOptions) (core.Config, error) {
	return loadConfig(context.Background(), opts.configPath)
}

func provideLoggerProvider(logger *zap.Logger) core.LoggerProvider {
	return gologger.NewZapProvider(logger)
}

func provideRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return registry
}

func provideMetricsRecorder(registry *prometheus.Registry) core.MetricsRecorder {
	return prommetrics.New(registry)
}

func provideHTTPHandler(module *stripewebhooks.Module, registry *prometheus.Registry) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(module.State().String()))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	module.Mount(r)
	return r
}

func registerServer(lc fx.Lifecycle, opts *cliOptions, handler http.Handler, logger *zap.Logger) {
	srv := &http.Server{
		Addr:              opts.listenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			listener, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			logger.Info("webhook server listening", zap.String("addr", listener.Addr().String()))
			go func() {
				if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("webhook server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("webhook server stopping")
			return srv.Shutdown(ctx)
		},
	})
}
