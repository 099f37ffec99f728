package registry

import (
	"fmt"
	"sort"

	"github.com/goliatone/go-stripe-webhooks/core"
)

// Discovered is one tagged method found on a component.
type Discovered struct {
	Owner     string
	Method    string
	EventType string
	Invoke    core.HandlerFunc
}

// Discover scans every component of container for methods tagged for
// namespace. Order follows the container and then each component's
// declaration order.
func Discover(container Container, namespace core.Namespace) ([]Discovered, error) {
	if container == nil {
		return nil, core.InternalError("registry: container is nil", nil)
	}
	if !namespace.Valid() {
		return nil, core.UnsupportedNamespaceError(namespace)
	}
	found := make([]Discovered, 0)
	owners := newOwnerNames()
	for _, instance := range container.Components() {
		if instance == nil {
			continue
		}
		owner := owners.resolve(instance)
		for index, method := range TaggedMethodsOf(instance, namespace) {
			name := method.Method
			if name == "" {
				name = fmt.Sprintf("handler_%d", index)
			}
			if method.EventType == "" {
				return nil, core.BadInputError("registry: tagged method has no event type", map[string]any{
					"namespace": namespace.String(),
					"owner":     owner,
					"method":    name,
				})
			}
			if method.Invoke == nil {
				return nil, core.BadInputError("registry: tagged method has no callable", map[string]any{
					"namespace":  namespace.String(),
					"owner":      owner,
					"method":     name,
					"event_type": method.EventType,
				})
			}
			found = append(found, Discovered{
				Owner:     owner,
				Method:    name,
				EventType: method.EventType,
				Invoke:    method.Invoke,
			})
		}
	}
	return found, nil
}

// OwnerGroup lists the handlers one component contributed.
type OwnerGroup struct {
	Owner      string
	Methods    []string
	EventTypes []string
}

// GroupByOwner groups discovered handlers by owner for logging. Grouping has
// no effect on routing.
func GroupByOwner(discovered []Discovered) []OwnerGroup {
	index := map[string]int{}
	groups := make([]OwnerGroup, 0)
	for _, item := range discovered {
		position, ok := index[item.Owner]
		if !ok {
			position = len(groups)
			index[item.Owner] = position
			groups = append(groups, OwnerGroup{Owner: item.Owner})
		}
		groups[position].Methods = append(groups[position].Methods, item.Method)
		groups[position].EventTypes = appendUnique(groups[position].EventTypes, item.EventType)
	}
	for i := range groups {
		sort.Strings(groups[i].EventTypes)
	}
	return groups
}

func appendUnique(values []string, value string) []string {
	for _, existing := range values {
		if existing == value {
			return values
		}
	}
	return append(values, value)
}
