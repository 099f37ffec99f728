package core

import "sort"

// DispatchTable maps an event type to its handler bindings in discovery
// order. A table is sealed when built and is safe for concurrent reads.
type DispatchTable struct {
	namespace Namespace
	entries   map[string][]HandlerBinding
	order     []string
}

// NewDispatchTable seals bindings into a table for namespace. Bindings for
// another namespace or without an event type are rejected.
func NewDispatchTable(namespace Namespace, bindings []HandlerBinding) (*DispatchTable, error) {
	if !namespace.Valid() {
		return nil, UnsupportedNamespaceError(namespace)
	}
	table := &DispatchTable{
		namespace: namespace,
		entries:   make(map[string][]HandlerBinding),
	}
	seen := make(map[string]struct{}, len(bindings))
	for _, binding := range bindings {
		if binding.Namespace != namespace {
			return nil, InternalError("webhooks: binding namespace does not match table", binding.fields())
		}
		if binding.EventType == "" {
			return nil, BadInputError("webhooks: binding event type is required", binding.fields())
		}
		if binding.Invoke == nil {
			return nil, BadInputError("webhooks: binding callable is required", binding.fields())
		}
		if _, exists := seen[binding.Key()]; exists {
			return nil, DuplicateHandlerError(binding)
		}
		seen[binding.Key()] = struct{}{}
		if _, exists := table.entries[binding.EventType]; !exists {
			table.order = append(table.order, binding.EventType)
		}
		table.entries[binding.EventType] = append(table.entries[binding.EventType], binding)
	}
	return table, nil
}

// EmptyDispatchTable returns a sealed table with no entries.
func EmptyDispatchTable(namespace Namespace) *DispatchTable {
	return &DispatchTable{namespace: namespace, entries: map[string][]HandlerBinding{}}
}

func (t *DispatchTable) Namespace() Namespace {
	if t == nil {
		return ""
	}
	return t.namespace
}

// Lookup returns a copy of the bindings registered for eventType.
func (t *DispatchTable) Lookup(eventType string) []HandlerBinding {
	if t == nil {
		return nil
	}
	bindings := t.entries[eventType]
	if len(bindings) == 0 {
		return nil
	}
	return append([]HandlerBinding(nil), bindings...)
}

// EventTypes returns the registered event types in first-registration order.
func (t *DispatchTable) EventTypes() []string {
	if t == nil {
		return nil
	}
	return append([]string(nil), t.order...)
}

// SortedEventTypes returns the registered event types alphabetically.
func (t *DispatchTable) SortedEventTypes() []string {
	types := t.EventTypes()
	sort.Strings(types)
	return types
}

// Len returns the total number of bindings.
func (t *DispatchTable) Len() int {
	if t == nil {
		return 0
	}
	total := 0
	for _, bindings := range t.entries {
		total += len(bindings)
	}
	return total
}

// DispatchTables holds the table of every namespace.
type DispatchTables struct {
	Primary *DispatchTable
	Connect *DispatchTable
}

func (t DispatchTables) Table(namespace Namespace) *DispatchTable {
	switch namespace {
	case NamespacePrimary:
		return t.Primary
	case NamespaceConnect:
		return t.Connect
	default:
		return nil
	}
}
