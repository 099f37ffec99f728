package registry

import (
	"context"
	"reflect"
	"sync/atomic"
	"testing"

	"github.com/goliatone/go-stripe-webhooks/core"
	"github.com/goliatone/go-stripe-webhooks/internal/webhooktest"
)

type billingService struct {
	paid atomic.Int32
}

func (s *billingService) OnInvoicePaid(context.Context, core.Event) error {
	s.paid.Add(1)
	return nil
}

func (s *billingService) OnInvoiceFailed(context.Context, core.Event) error { return nil }

func (s *billingService) WebhookMethods(namespace core.Namespace) []TaggedMethod {
	if namespace != core.NamespacePrimary {
		return nil
	}
	return []TaggedMethod{
		On("invoice.paid", "OnInvoicePaid", s.OnInvoicePaid),
		On("invoice.payment_failed", "OnInvoiceFailed", s.OnInvoiceFailed),
	}
}

type platformService struct{}

func (platformService) WebhookOwner() string { return "platform" }

func (platformService) OnAccountUpdated(context.Context, core.Event) error { return nil }

func (p platformService) WebhookMethods(namespace core.Namespace) []TaggedMethod {
	switch namespace {
	case core.NamespaceConnect:
		return []TaggedMethod{On("account.updated", "OnAccountUpdated", p.OnAccountUpdated)}
	case core.NamespacePrimary:
		return []TaggedMethod{On(" invoice.paid ", "OnInvoicePaid", func(context.Context, core.Event) error { return nil })}
	}
	return nil
}

type plainService struct{}

func TestDiscover_FollowsContainerOrderAndSkipsNonComponents(t *testing.T) {
	billing := &billingService{}
	container := StaticContainer{billing, plainService{}, nil, platformService{}}

	primary, err := Discover(container, core.NamespacePrimary)
	if err != nil {
		t.Fatalf("discover primary: %v", err)
	}
	if len(primary) != 3 {
		t.Fatalf("expected 3 primary handlers, got %d", len(primary))
	}
	if primary[0].Owner != "registry.billingService" || primary[0].Method != "OnInvoicePaid" {
		t.Fatalf("unexpected first handler %+v", primary[0])
	}
	if primary[2].Owner != "platform" || primary[2].EventType != "invoice.paid" {
		t.Fatalf("expected trimmed event type from named owner, got %+v", primary[2])
	}

	connect, err := Discover(container, core.NamespaceConnect)
	if err != nil {
		t.Fatalf("discover connect: %v", err)
	}
	if len(connect) != 1 || connect[0].EventType != "account.updated" {
		t.Fatalf("unexpected connect handlers %+v", connect)
	}

	if err := primary[0].Invoke(context.Background(), core.Event{}); err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if billing.paid.Load() != 1 {
		t.Fatalf("expected discovered callable bound to live instance")
	}
}

type brokenComponent struct {
	methods []TaggedMethod
}

func (b brokenComponent) WebhookMethods(core.Namespace) []TaggedMethod { return b.methods }

func TestDiscover_RejectsInvalidTaggedMethods(t *testing.T) {
	if _, err := Discover(nil, core.NamespacePrimary); err == nil {
		t.Fatalf("expected nil container error")
	}
	if _, err := Discover(StaticContainer{}, core.Namespace("test")); err == nil {
		t.Fatalf("expected unsupported namespace error")
	}
	missingType := StaticContainer{brokenComponent{methods: []TaggedMethod{On("  ", "Handle", func(context.Context, core.Event) error { return nil })}}}
	if _, err := Discover(missingType, core.NamespacePrimary); err == nil {
		t.Fatalf("expected missing event type error")
	}
	missingFn := StaticContainer{brokenComponent{methods: []TaggedMethod{On("invoice.paid", "Handle", nil)}}}
	if _, err := Discover(missingFn, core.NamespacePrimary); err == nil {
		t.Fatalf("expected missing callable error")
	}

	unnamed := StaticContainer{brokenComponent{methods: []TaggedMethod{On("invoice.paid", "", func(context.Context, core.Event) error { return nil })}}}
	found, err := Discover(unnamed, core.NamespacePrimary)
	if err != nil {
		t.Fatalf("discover unnamed: %v", err)
	}
	if found[0].Method != "handler_0" {
		t.Fatalf("expected positional method name, got %q", found[0].Method)
	}
}

func TestGroupByOwner(t *testing.T) {
	groups := GroupByOwner([]Discovered{
		{Owner: "billing", Method: "A", EventType: "invoice.paid"},
		{Owner: "mailer", Method: "B", EventType: "invoice.paid"},
		{Owner: "billing", Method: "C", EventType: "charge.refunded"},
		{Owner: "billing", Method: "D", EventType: "invoice.paid"},
	})
	if len(groups) != 2 {
		t.Fatalf("expected two groups, got %d", len(groups))
	}
	if !reflect.DeepEqual(groups[0].Methods, []string{"A", "C", "D"}) {
		t.Fatalf("unexpected billing methods %v", groups[0].Methods)
	}
	if !reflect.DeepEqual(groups[0].EventTypes, []string{"charge.refunded", "invoice.paid"}) {
		t.Fatalf("unexpected billing event types %v", groups[0].EventTypes)
	}
}

func TestBuilder_RegisterValidatesAndDetectsDuplicates(t *testing.T) {
	noop := func(context.Context, core.Event) error { return nil }
	builder := NewBuilder()
	if err := builder.Register(core.NamespacePrimary, "invoice.paid", "billing", "OnPaid", noop); err != nil {
		t.Fatalf("register: %v", err)
	}
	err := builder.Register(core.NamespacePrimary, "invoice.paid", "billing", "OnPaid", noop)
	if !core.HasTextCode(err, core.ServiceErrorDuplicateHandler) {
		t.Fatalf("expected duplicate handler error, got %v", err)
	}
	if !core.IsDiscoveryError(err) {
		t.Fatalf("expected duplicate to classify as discovery error")
	}
	if err := builder.Register(core.NamespaceConnect, "invoice.paid", "billing", "OnPaid", noop); err != nil {
		t.Fatalf("same binding in another namespace must be allowed: %v", err)
	}
	if err := builder.Register(core.NamespacePrimary, "invoice.paid", "billing", "OnPaidAgain", noop); err != nil {
		t.Fatalf("another method for the same type must be allowed: %v", err)
	}
	if err := builder.Register(core.NamespacePrimary, "", "billing", "OnPaid", noop); err == nil {
		t.Fatalf("expected empty event type error")
	}
	if err := builder.Register(core.NamespacePrimary, "invoice.paid", " ", "OnPaid", noop); err == nil {
		t.Fatalf("expected empty owner error")
	}
	if err := builder.Register(core.NamespacePrimary, "invoice.paid", "billing", "OnNil", nil); err == nil {
		t.Fatalf("expected nil handler error")
	}

	tables, err := builder.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if tables.Primary.Len() != 2 || tables.Connect.Len() != 1 {
		t.Fatalf("unexpected table sizes primary=%d connect=%d", tables.Primary.Len(), tables.Connect.Len())
	}
	if _, err := builder.Build(); err == nil {
		t.Fatalf("expected second build to fail")
	}
	if err := builder.Register(core.NamespacePrimary, "charge.refunded", "billing", "OnRefund", noop); err == nil {
		t.Fatalf("expected register after seal to fail")
	}
}

func TestBuildTables_DiscoversPlannedNamespaces(t *testing.T) {
	logger := webhooktest.NewCaptureLogger()
	container := StaticContainer{&billingService{}, platformService{}}
	plan := core.DiscoveryPlan{
		Enabled:    true,
		Configured: []core.Namespace{core.NamespacePrimary},
		Discover:   []core.Namespace{core.NamespacePrimary},
	}

	tables, err := BuildTables(context.Background(), container, plan, core.NewObserver(logger, nil))
	if err != nil {
		t.Fatalf("build tables: %v", err)
	}
	if got := len(tables.Primary.Lookup("invoice.paid")); got != 2 {
		t.Fatalf("expected two invoice.paid handlers, got %d", got)
	}
	if tables.Connect.Len() != 0 {
		t.Fatalf("expected empty connect table for skipped namespace")
	}
	if got := len(logger.Find("info", "webhook handlers discovered")); got != 2 {
		t.Fatalf("expected one discovery log per owner, got %d", got)
	}
}

func TestBuildTables_RebuildIsDeterministic(t *testing.T) {
	container := StaticContainer{&billingService{}, platformService{}}
	plan := core.DiscoveryPlan{Enabled: true, Discover: core.Namespaces()}

	describe := func(tables core.DispatchTables) map[string][]string {
		out := map[string][]string{}
		for _, namespace := range core.Namespaces() {
			table := tables.Table(namespace)
			for _, eventType := range table.EventTypes() {
				for _, binding := range table.Lookup(eventType) {
					key := namespace.String() + "/" + eventType
					out[key] = append(out[key], binding.Owner+"."+binding.Method)
				}
			}
		}
		return out
	}

	first, err := BuildTables(context.Background(), container, plan, core.Observer{})
	if err != nil {
		t.Fatalf("first build: %v", err)
	}
	second, err := BuildTables(context.Background(), container, plan, core.Observer{})
	if err != nil {
		t.Fatalf("second build: %v", err)
	}
	if !reflect.DeepEqual(describe(first), describe(second)) {
		t.Fatalf("expected identical rebuilds\nfirst: %v\nsecond: %v", describe(first), describe(second))
	}
	if !reflect.DeepEqual(first.Primary.EventTypes(), []string{"invoice.paid", "invoice.payment_failed"}) {
		t.Fatalf("unexpected primary event types %v", first.Primary.EventTypes())
	}
}

type duplicatingComponent struct{}

func (duplicatingComponent) WebhookOwner() string { return "dup" }

func (duplicatingComponent) WebhookMethods(core.Namespace) []TaggedMethod {
	fn := func(context.Context, core.Event) error { return nil }
	return []TaggedMethod{On("invoice.paid", "Handle", fn), On("invoice.paid", "Handle", fn)}
}

func TestBuildTables_FailsOnDuplicateRegistration(t *testing.T) {
	_, err := BuildTables(context.Background(), StaticContainer{duplicatingComponent{}}, core.DiscoveryPlan{
		Enabled:  true,
		Discover: []core.Namespace{core.NamespacePrimary},
	}, core.Observer{})
	if !core.HasTextCode(err, core.ServiceErrorDuplicateHandler) {
		t.Fatalf("expected duplicate handler error, got %v", err)
	}
}

type invoiceMailer struct {
	sent atomic.Int32
}

func (m *invoiceMailer) OnInvoicePaid(context.Context, core.Event) error {
	m.sent.Add(1)
	return nil
}

func (m *invoiceMailer) WebhookMethods(namespace core.Namespace) []TaggedMethod {
	if namespace != core.NamespacePrimary {
		return nil
	}
	return []TaggedMethod{On("invoice.paid", "OnInvoicePaid", m.OnInvoicePaid)}
}

func TestBuildTables_DistinctInstancesOfOneTypeAreSeparateOwners(t *testing.T) {
	first, second := &invoiceMailer{}, &invoiceMailer{}
	tables, err := BuildTables(context.Background(), StaticContainer{first, second}, core.DiscoveryPlan{
		Enabled:  true,
		Discover: []core.Namespace{core.NamespacePrimary},
	}, core.Observer{})
	if err != nil {
		t.Fatalf("build tables: %v", err)
	}
	bindings := tables.Primary.Lookup("invoice.paid")
	if len(bindings) != 2 {
		t.Fatalf("expected one binding per instance, got %d", len(bindings))
	}
	if bindings[0].Owner != "registry.invoiceMailer" || bindings[1].Owner != "registry.invoiceMailer#2" {
		t.Fatalf("unexpected owners %q %q", bindings[0].Owner, bindings[1].Owner)
	}
	for _, binding := range bindings {
		if err := binding.Invoke(context.Background(), core.Event{Type: "invoice.paid"}); err != nil {
			t.Fatalf("invoke: %v", err)
		}
	}
	if first.sent.Load() != 1 || second.sent.Load() != 1 {
		t.Fatalf("expected each instance invoked once, got %d and %d", first.sent.Load(), second.sent.Load())
	}
}

func TestBuildTables_SameInstanceTwiceIsDuplicate(t *testing.T) {
	mailer := &invoiceMailer{}
	_, err := BuildTables(context.Background(), StaticContainer{mailer, mailer}, core.DiscoveryPlan{
		Enabled:  true,
		Discover: []core.Namespace{core.NamespacePrimary},
	}, core.Observer{})
	if !core.HasTextCode(err, core.ServiceErrorDuplicateHandler) {
		t.Fatalf("expected duplicate handler error, got %v", err)
	}
}

func TestBuildTables_SharedNamedOwnerIsDuplicate(t *testing.T) {
	_, err := BuildTables(context.Background(), StaticContainer{platformService{}, &namedPlatform{}}, core.DiscoveryPlan{
		Enabled:  true,
		Discover: []core.Namespace{core.NamespaceConnect},
	}, core.Observer{})
	if !core.HasTextCode(err, core.ServiceErrorDuplicateHandler) {
		t.Fatalf("expected duplicate handler error for shared owner name, got %v", err)
	}
}

type namedPlatform struct{}

func (*namedPlatform) WebhookOwner() string { return "platform" }

func (*namedPlatform) WebhookMethods(namespace core.Namespace) []TaggedMethod {
	if namespace != core.NamespaceConnect {
		return nil
	}
	return []TaggedMethod{On("account.updated", "OnAccountUpdated", func(context.Context, core.Event) error { return nil })}
}
