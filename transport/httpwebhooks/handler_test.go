package httpwebhooks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goliatone/go-stripe-webhooks/core"
	"github.com/goliatone/go-stripe-webhooks/internal/webhooktest"
	"github.com/goliatone/go-stripe-webhooks/router"
	"github.com/goliatone/go-stripe-webhooks/verifier"
	"github.com/stripe/stripe-go/v81"
)

type recordingRouter struct {
	calls     atomic.Int32
	namespace atomic.Value
	ctxErr    atomic.Value
}

func (r *recordingRouter) RouteEvent(ctx context.Context, namespace core.Namespace, event core.Event) router.Result {
	r.calls.Add(1)
	r.namespace.Store(namespace)
	if err := ctx.Err(); err != nil {
		r.ctxErr.Store(err)
	}
	return router.Result{DispatchID: "dsp_test", Namespace: namespace, EventType: event.Type, Matched: 1}
}

func newHandler(t *testing.T, eventRouter EventRouter, opts ...Option) *Handler {
	t.Helper()
	v := verifier.New(core.WebhookConfig{Secrets: core.WebhookSecrets{Primary: "whsec_primary", Connect: "whsec_connect"}})
	h, err := New(v, eventRouter, "/stripe/webhook/", opts...)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	return h
}

func signedRequest(t *testing.T, path string, secret string, eventType string) *http.Request {
	t.Helper()
	payload := webhooktest.EventPayload("evt_http", eventType, stripe.APIVersion)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set(SignatureHeader, webhooktest.SignatureHeader(payload, secret, time.Now()))
	return req
}

func TestServe_AcknowledgesVerifiedEvent(t *testing.T) {
	recorder := &recordingRouter{}
	h := newHandler(t, recorder)
	mux := chi.NewRouter()
	h.Mount(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, signedRequest(t, "/stripe/webhook", "whsec_primary", "invoice.paid"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var ack map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &ack); err != nil {
		t.Fatalf("decode ack: %v", err)
	}
	if ack["received"] != true {
		t.Fatalf("expected received ack, got %v", ack)
	}
	if recorder.calls.Load() != 1 || recorder.namespace.Load() != core.NamespacePrimary {
		t.Fatalf("expected one primary dispatch")
	}
}

func TestServe_ConnectRouteUsesConnectNamespace(t *testing.T) {
	recorder := &recordingRouter{}
	h := newHandler(t, recorder)

	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, signedRequest(t, "/stripe/webhook/connect", "whsec_connect", "account.updated"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if recorder.namespace.Load() != core.NamespaceConnect {
		t.Fatalf("expected connect dispatch, got %v", recorder.namespace.Load())
	}

	rec = httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, signedRequest(t, "/stripe/webhook/connect", "whsec_primary", "account.updated"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected primary secret rejected on connect route, got %d", rec.Code)
	}
}

func TestServe_RejectsUnverifiedRequestWithoutRouting(t *testing.T) {
	recorder := &recordingRouter{}
	logger := webhooktest.NewCaptureLogger()
	h := newHandler(t, recorder, WithLogger(logger))
	mux := chi.NewRouter()
	mux.Use(middleware.RequestID)
	h.Mount(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, signedRequest(t, "/stripe/webhook", "whsec_wrong", "invoice.paid"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if recorder.calls.Load() != 0 {
		t.Fatalf("router must not run for unverified requests")
	}
	var envelope errorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if envelope.Error.TextCode != core.ServiceErrorVerificationFailed {
		t.Fatalf("expected verification text code, got %q", envelope.Error.TextCode)
	}
	if envelope.RequestID == "" {
		t.Fatalf("expected request id in envelope")
	}
	if strings.Contains(rec.Body.String(), "whsec_") {
		t.Fatalf("error envelope leaked secret material")
	}
	if len(logger.Find("warn", "webhook request rejected")) != 1 {
		t.Fatalf("expected rejection log")
	}
}

func TestServe_RejectsOversizedBody(t *testing.T) {
	recorder := &recordingRouter{}
	h := newHandler(t, recorder, WithMaxBodyBytes(16))

	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, signedRequest(t, "/stripe/webhook", "whsec_primary", "invoice.paid"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for oversized body, got %d", rec.Code)
	}
	var envelope errorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if envelope.Error.TextCode != core.ServiceErrorBadInput {
		t.Fatalf("expected bad input text code, got %q", envelope.Error.TextCode)
	}
	if recorder.calls.Load() != 0 {
		t.Fatalf("router must not run for unread bodies")
	}
}

func TestServe_HandlerFailuresStillAcknowledge(t *testing.T) {
	failing := func(context.Context, core.Event) error { return errors.New("downstream down") }
	primary, err := core.NewDispatchTable(core.NamespacePrimary, []core.HandlerBinding{
		{Namespace: core.NamespacePrimary, EventType: "invoice.paid", Owner: "billing", Method: "OnPaid", Invoke: failing},
	})
	if err != nil {
		t.Fatalf("table: %v", err)
	}
	svc, err := router.New(core.DispatchTables{Primary: primary, Connect: core.EmptyDispatchTable(core.NamespaceConnect)})
	if err != nil {
		t.Fatalf("router: %v", err)
	}
	h := newHandler(t, svc)

	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, signedRequest(t, "/stripe/webhook", "whsec_primary", "invoice.paid"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected handler failures to be acknowledged, got %d", rec.Code)
	}
}

func TestServe_HandlersOutliveClientCancellation(t *testing.T) {
	recorder := &recordingRouter{}
	h := newHandler(t, recorder)

	req := signedRequest(t, "/stripe/webhook", "whsec_primary", "invoice.paid")
	ctx, cancel := context.WithCancel(req.Context())
	cancel()
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req.WithContext(ctx))
	if recorder.calls.Load() != 1 {
		t.Fatalf("expected dispatch despite cancelled request context")
	}
	if recorder.ctxErr.Load() != nil {
		t.Fatalf("handlers must not see the request cancellation")
	}
}

func TestNew_ValidatesCollaborators(t *testing.T) {
	v := verifier.New(core.WebhookConfig{})
	if _, err := New(nil, &recordingRouter{}, ""); err == nil {
		t.Fatalf("expected verifier required error")
	}
	if _, err := New(v, nil, ""); err == nil {
		t.Fatalf("expected router required error")
	}
	if _, err := New(v, &recordingRouter{}, "stripe"); err == nil {
		t.Fatalf("expected relative base path error")
	}
	h, err := New(v, &recordingRouter{}, "")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if h.Path(core.NamespacePrimary) != core.DefaultBasePath || h.Path(core.NamespaceConnect) != core.DefaultBasePath+"/connect" {
		t.Fatalf("unexpected default paths %q %q", h.Path(core.NamespacePrimary), h.Path(core.NamespaceConnect))
	}
	if !h.Valid() {
		t.Fatalf("expected constructed handler to be valid")
	}
	var missing *Handler
	if missing.Valid() {
		t.Fatalf("expected nil handler to be invalid")
	}
}
