package registry

import (
	"context"
	"strings"
	"sync"

	"github.com/goliatone/go-stripe-webhooks/core"
)

// Builder collects handler bindings and seals them into dispatch tables.
// Register is the explicit registration API; AddDiscovered feeds the output
// of Discover.
type Builder struct {
	mu       sync.Mutex
	bindings map[core.Namespace][]core.HandlerBinding
	seen     map[string]struct{}
	sealed   bool
}

func NewBuilder() *Builder {
	return &Builder{
		bindings: map[core.Namespace][]core.HandlerBinding{},
		seen:     map[string]struct{}{},
	}
}

func (b *Builder) Register(
	namespace core.Namespace,
	eventType string,
	owner string,
	method string,
	fn core.HandlerFunc,
) error {
	if b == nil {
		return core.InternalError("registry: builder is nil", nil)
	}
	binding := core.HandlerBinding{
		Namespace: namespace,
		EventType: strings.TrimSpace(eventType),
		Owner:     strings.TrimSpace(owner),
		Method:    strings.TrimSpace(method),
		Invoke:    fn,
	}
	if !namespace.Valid() {
		return core.UnsupportedNamespaceError(namespace)
	}
	if binding.EventType == "" {
		return core.BadInputError("registry: event type is required", binding.Fields())
	}
	if binding.Owner == "" {
		return core.BadInputError("registry: owner is required", binding.Fields())
	}
	if binding.Invoke == nil {
		return core.BadInputError("registry: handler is nil", binding.Fields())
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sealed {
		return core.InternalError("registry: builder already sealed", binding.Fields())
	}
	if _, exists := b.seen[binding.Key()]; exists {
		return core.DuplicateHandlerError(binding)
	}
	b.seen[binding.Key()] = struct{}{}
	b.bindings[namespace] = append(b.bindings[namespace], binding)
	return nil
}

func (b *Builder) AddDiscovered(namespace core.Namespace, discovered []Discovered) error {
	for _, item := range discovered {
		if err := b.Register(namespace, item.EventType, item.Owner, item.Method, item.Invoke); err != nil {
			return err
		}
	}
	return nil
}

// Build seals the builder and returns one table per namespace. A builder
// can only be built once.
func (b *Builder) Build() (core.DispatchTables, error) {
	if b == nil {
		return core.DispatchTables{}, core.InternalError("registry: builder is nil", nil)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sealed {
		return core.DispatchTables{}, core.InternalError("registry: builder already sealed", nil)
	}
	primary, err := core.NewDispatchTable(core.NamespacePrimary, b.bindings[core.NamespacePrimary])
	if err != nil {
		return core.DispatchTables{}, err
	}
	connect, err := core.NewDispatchTable(core.NamespaceConnect, b.bindings[core.NamespaceConnect])
	if err != nil {
		return core.DispatchTables{}, err
	}
	b.sealed = true
	return core.DispatchTables{Primary: primary, Connect: connect}, nil
}

// BuildTables runs discovery over container for every namespace plan asks
// for and returns the sealed tables. Namespaces outside the plan get an
// empty table.
func BuildTables(
	ctx context.Context,
	container Container,
	plan core.DiscoveryPlan,
	observer core.Observer,
) (core.DispatchTables, error) {
	builder := NewBuilder()
	for _, namespace := range core.Namespaces() {
		if !plan.ShouldDiscover(namespace) {
			continue
		}
		discovered, err := Discover(container, namespace)
		if err != nil {
			return core.DispatchTables{}, err
		}
		for _, group := range GroupByOwner(discovered) {
			observer.Info(ctx, "webhook handlers discovered", map[string]any{
				"namespace":   namespace.String(),
				"owner":       group.Owner,
				"methods":     group.Methods,
				"event_types": group.EventTypes,
			})
		}
		if err := builder.AddDiscovered(namespace, discovered); err != nil {
			return core.DispatchTables{}, err
		}
	}
	tables, err := builder.Build()
	if err != nil {
		return core.DispatchTables{}, err
	}
	for _, namespace := range core.Namespaces() {
		table := tables.Table(namespace)
		observer.Debug(ctx, "webhook dispatch table sealed", map[string]any{
			"namespace":   namespace.String(),
			"handlers":    table.Len(),
			"event_types": table.EventTypes(),
			"has_secret":  plan.HasSecret(namespace),
		})
	}
	return tables, nil
}
