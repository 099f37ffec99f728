package httpwebhooks

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goliatone/go-stripe-webhooks/core"
	"github.com/goliatone/go-stripe-webhooks/router"
)

const SignatureHeader = "Stripe-Signature"

// DefaultMaxBodyBytes caps the size of a delivery body.
const DefaultMaxBodyBytes int64 = 64 * 1024

const connectSuffix = "/connect"

type EventVerifier interface {
	VerifyContext(ctx context.Context, payload []byte, signature string, namespace core.Namespace) (core.Event, error)
}

type EventRouter interface {
	RouteEvent(ctx context.Context, namespace core.Namespace, event core.Event) router.Result
}

// Handler owns the router for the lifetime of the process and serves one
// route per namespace.
type Handler struct {
	verifier     EventVerifier
	router       EventRouter
	basePath     string
	maxBodyBytes int64
	logger       core.Logger
	metrics      core.MetricsRecorder
	observer     core.Observer
}

type Option func(*Handler)

func WithMaxBodyBytes(limit int64) Option {
	return func(h *Handler) {
		h.maxBodyBytes = limit
	}
}

func WithLogger(logger core.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

func WithMetricsRecorder(recorder core.MetricsRecorder) Option {
	return func(h *Handler) {
		h.metrics = recorder
	}
}

func New(verifier EventVerifier, eventRouter EventRouter, basePath string, opts ...Option) (*Handler, error) {
	if verifier == nil {
		return nil, core.InternalError("httpwebhooks: verifier is required", nil)
	}
	if eventRouter == nil {
		return nil, core.InternalError("httpwebhooks: router is required", nil)
	}
	basePath = strings.TrimRight(strings.TrimSpace(basePath), "/")
	if basePath == "" {
		basePath = core.DefaultBasePath
	}
	if !strings.HasPrefix(basePath, "/") {
		return nil, core.BadInputError("httpwebhooks: base path must start with /", map[string]any{
			"base_path": basePath,
		})
	}
	h := &Handler{
		verifier:     verifier,
		router:       eventRouter,
		basePath:     basePath,
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	if h.maxBodyBytes <= 0 {
		h.maxBodyBytes = DefaultMaxBodyBytes
	}
	h.observer = core.NewObserver(h.logger, h.metrics)
	return h, nil
}

// Valid reports whether h was built by New. A nil *Handler is invalid.
func (h *Handler) Valid() bool {
	return h != nil && h.verifier != nil && h.router != nil
}

// Path returns the route serving namespace.
func (h *Handler) Path(namespace core.Namespace) string {
	if namespace == core.NamespaceConnect {
		return h.basePath + connectSuffix
	}
	return h.basePath
}

// Mount registers the primary and connect routes on r.
func (h *Handler) Mount(r chi.Router) {
	for _, namespace := range core.Namespaces() {
		r.Post(h.Path(namespace), h.ServeNamespace(namespace))
	}
}

// Routes returns a standalone chi router serving both namespaces.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	h.Mount(r)
	return r
}

// ServeNamespace handles deliveries for namespace. Handler results never
// change the response: a verified event is always acknowledged.
func (h *Handler) ServeNamespace(namespace core.Namespace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := middleware.GetReqID(ctx)

		payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
		if err != nil {
			fields := map[string]any{"namespace": namespace.String(), "limit": h.maxBodyBytes}
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				fields["too_large"] = true
			}
			h.reject(w, r, namespace, core.BadInputError("httpwebhooks: unable to read request body", fields))
			return
		}

		event, err := h.verifier.VerifyContext(ctx, payload, r.Header.Get(SignatureHeader), namespace)
		if err != nil {
			if !core.IsVerificationError(err) {
				err = core.VerificationError(err, namespace)
			}
			h.reject(w, r, namespace, err)
			return
		}

		result := h.router.RouteEvent(context.WithoutCancel(ctx), namespace, event)
		h.observer.Counter(ctx, "webhooks.http.total", 1, map[string]string{
			"namespace": namespace.String(),
			"status":    "accepted",
		})
		h.observer.Info(ctx, "webhook event acknowledged", map[string]any{
			"request_id":  requestID,
			"dispatch_id": result.DispatchID,
			"namespace":   namespace.String(),
			"event_id":    event.ID,
			"event_type":  event.Type,
			"matched":     result.Matched,
			"failed":      result.Failed,
		})
		writeJSON(w, http.StatusOK, ackResponse{Received: true})
	}
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request, namespace core.Namespace, err error) {
	ctx := r.Context()
	requestID := middleware.GetReqID(ctx)
	status, envelope := envelopeFor(err, requestID)
	h.observer.Counter(ctx, "webhooks.http.total", 1, map[string]string{
		"namespace": namespace.String(),
		"status":    "rejected",
	})
	h.observer.Warn(ctx, "webhook request rejected", core.MergeFields(core.ErrorFields(err), map[string]any{
		"request_id": requestID,
		"namespace":  namespace.String(),
		"status":     status,
	}))
	writeJSON(w, status, envelope)
}
