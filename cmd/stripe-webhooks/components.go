package main

import (
	"context"

	"github.com/goliatone/go-stripe-webhooks/core"
	"github.com/goliatone/go-stripe-webhooks/registry"
)

// eventAuditor logs the primary account events the demo reacts to.
type eventAuditor struct {
	logger core.Logger
}

func newEventAuditor(provider core.LoggerProvider) *eventAuditor {
	return &eventAuditor{logger: provider.GetLogger("webhooks.audit")}
}

func (*eventAuditor) WebhookOwner() string { return "event_auditor" }

func (a *eventAuditor) WebhookMethods(namespace core.Namespace) []registry.TaggedMethod {
	if namespace != core.NamespacePrimary {
		return nil
	}
	return []registry.TaggedMethod{
		registry.On("invoice.paid", "OnInvoicePaid", a.record),
		registry.On("invoice.payment_failed", "OnInvoicePaymentFailed", a.record),
		registry.On("customer.subscription.updated", "OnSubscriptionUpdated", a.record),
	}
}

func (a *eventAuditor) record(_ context.Context, event core.Event) error {
	a.logger.Info("stripe event received", "event_id", event.ID, "event_type", event.Type, "livemode", event.Livemode)
	return nil
}

// accountAuditor logs connected account events.
type accountAuditor struct {
	logger core.Logger
}

func newAccountAuditor(provider core.LoggerProvider) *accountAuditor {
	return &accountAuditor{logger: provider.GetLogger("webhooks.connect_audit")}
}

func (*accountAuditor) WebhookOwner() string { return "account_auditor" }

func (a *accountAuditor) WebhookMethods(namespace core.Namespace) []registry.TaggedMethod {
	if namespace != core.NamespaceConnect {
		return nil
	}
	return []registry.TaggedMethod{
		registry.On("account.updated", "OnAccountUpdated", a.record),
		registry.On("payout.paid", "OnPayoutPaid", a.record),
	}
}

func (a *accountAuditor) record(_ context.Context, event core.Event) error {
	a.logger.Info("stripe connect event received", "event_id", event.ID, "event_type", event.Type, "account", event.Account)
	return nil
}
