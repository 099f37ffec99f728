// Package verifier authenticates raw webhook deliveries with the secret of
// their namespace and decodes them into core events.
package verifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-stripe-webhooks/core"
	"github.com/stripe/stripe-go/v81/webhook"
)

// Verifier checks Stripe-Signature headers. It holds one secret per
// namespace and never verifies against an empty secret.
type Verifier struct {
	secrets           map[core.Namespace]string
	options           webhook.ConstructEventOptions
	observer          core.Observer
	metrics           core.MetricsRecorder
	logger            core.Logger
	enforceAPIVersion bool
}

type Option func(*Verifier)

func WithLogger(logger core.Logger) Option {
	return func(v *Verifier) {
		v.logger = logger
	}
}

func WithMetricsRecorder(recorder core.MetricsRecorder) Option {
	return func(v *Verifier) {
		v.metrics = recorder
	}
}

func New(cfg core.WebhookConfig, opts ...Option) *Verifier {
	v := &Verifier{
		secrets: map[core.Namespace]string{},
		options: webhook.ConstructEventOptions{
			Tolerance:                cfg.Tolerance(),
			IgnoreAPIVersionMismatch: !cfg.EnforceAPIVersion,
		},
		enforceAPIVersion: cfg.EnforceAPIVersion,
	}
	for _, namespace := range core.Namespaces() {
		if secret := cfg.Secret(namespace); secret != "" {
			v.secrets[namespace] = secret
		}
	}
	for _, opt := range opts {
		if opt != nil {
			opt(v)
		}
	}
	v.observer = core.NewObserver(v.logger, v.metrics)
	return v
}

// Configured reports whether namespace has a secret.
func (v *Verifier) Configured(namespace core.Namespace) bool {
	if v == nil {
		return false
	}
	_, ok := v.secrets[namespace]
	return ok
}

// Verify authenticates payload against signature using the namespace secret.
// Every failure is a core verification error.
func (v *Verifier) Verify(payload []byte, signature string, namespace core.Namespace) (core.Event, error) {
	return v.VerifyContext(context.Background(), payload, signature, namespace)
}

func (v *Verifier) VerifyContext(ctx context.Context, payload []byte, signature string, namespace core.Namespace) (core.Event, error) {
	if v == nil {
		return core.Event{}, core.VerificationError(fmt.Errorf("verifier is nil"), namespace)
	}
	if !namespace.Valid() {
		return core.Event{}, v.fail(ctx, namespace, core.UnsupportedNamespaceError(namespace))
	}
	secret, ok := v.secrets[namespace]
	if !ok {
		return core.Event{}, v.fail(ctx, namespace, fmt.Errorf("no secret configured for namespace %s", namespace))
	}
	if strings.TrimSpace(signature) == "" {
		return core.Event{}, v.fail(ctx, namespace, webhook.ErrNotSigned)
	}

	stripeEvent, err := webhook.ConstructEventWithOptions(payload, signature, secret, v.options)
	if err != nil {
		return core.Event{}, v.fail(ctx, namespace, err)
	}
	event := core.Event{
		ID:         stripeEvent.ID,
		Type:       string(stripeEvent.Type),
		Account:    stripeEvent.Account,
		APIVersion: stripeEvent.APIVersion,
		Created:    stripeEvent.Created,
		Livemode:   stripeEvent.Livemode,
		Payload:    append([]byte(nil), payload...),
	}
	if stripeEvent.Data != nil {
		event.Data = append([]byte(nil), stripeEvent.Data.Raw...)
	}
	if strings.TrimSpace(event.Type) == "" {
		return core.Event{}, v.fail(ctx, namespace, fmt.Errorf("event type is missing"))
	}
	v.observer.Counter(ctx, "webhooks.verify.total", 1, map[string]string{
		"namespace": namespace.String(),
		"status":    "success",
	})
	return event, nil
}

func (v *Verifier) fail(ctx context.Context, namespace core.Namespace, cause error) error {
	err := core.VerificationError(cause, namespace)
	v.observer.Counter(ctx, "webhooks.verify.total", 1, map[string]string{
		"namespace": namespace.String(),
		"status":    "failure",
	})
	v.observer.Warn(ctx, "webhook verification failed", core.MergeFields(core.ErrorFields(err), map[string]any{
		"namespace":           namespace.String(),
		"enforce_api_version": v.enforceAPIVersion,
	}))
	return err
}
