package registry

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/goliatone/go-stripe-webhooks/core"
)

// TaggedMethod is one handler method tagged with the event type it reacts to.
type TaggedMethod struct {
	Method    string
	EventType string
	Invoke    core.HandlerFunc
}

// On tags fn for eventType. fn is usually a method value such as
// svc.OnInvoicePaid.
func On(eventType string, method string, fn core.HandlerFunc) TaggedMethod {
	return TaggedMethod{Method: method, EventType: eventType, Invoke: fn}
}

// Component is implemented by application components that expose webhook
// handlers. WebhookMethods is called once per namespace during discovery.
type Component interface {
	WebhookMethods(namespace core.Namespace) []TaggedMethod
}

// Named lets a component choose the owner name used in logs and
// duplicate detection. Components sharing a Named owner must not tag the
// same method twice. Unnamed components are owned by their dynamic type
// name, and every further distinct instance of that type gets a "#N" suffix.
type Named interface {
	WebhookOwner() string
}

// Container enumerates live component instances in a stable order.
type Container interface {
	Components() []any
}

// StaticContainer is a Container over an explicit component list.
type StaticContainer []any

func (c StaticContainer) Components() []any {
	return append([]any(nil), c...)
}

// TaggedMethodsOf returns the methods instance tags for namespace. Instances
// that do not implement Component expose none.
func TaggedMethodsOf(instance any, namespace core.Namespace) []TaggedMethod {
	component, ok := instance.(Component)
	if !ok || component == nil {
		return nil
	}
	methods := component.WebhookMethods(namespace)
	out := make([]TaggedMethod, 0, len(methods))
	for _, method := range methods {
		method.EventType = strings.TrimSpace(method.EventType)
		method.Method = strings.TrimSpace(method.Method)
		out = append(out, method)
	}
	return out
}

// OwnerName resolves the owner name for instance, ignoring instance
// suffixes.
func OwnerName(instance any) string {
	if name, ok := namedOwner(instance); ok {
		return name
	}
	return typeOwner(instance)
}

func namedOwner(instance any) (string, bool) {
	named, ok := instance.(Named)
	if !ok || named == nil {
		return "", false
	}
	name := strings.TrimSpace(named.WebhookOwner())
	return name, name != ""
}

func typeOwner(instance any) string {
	return strings.TrimPrefix(fmt.Sprintf("%T", instance), "*")
}

// ownerNames assigns owners within one container scan. The same instance
// always resolves to the same name, so listing it twice is still a
// duplicate registration.
type ownerNames struct {
	byType map[string][]any
}

func newOwnerNames() *ownerNames {
	return &ownerNames{byType: map[string][]any{}}
}

func (o *ownerNames) resolve(instance any) string {
	if name, ok := namedOwner(instance); ok {
		return name
	}
	base := typeOwner(instance)
	seen := o.byType[base]
	position := -1
	for index, previous := range seen {
		if sameInstance(previous, instance) {
			position = index
			break
		}
	}
	if position < 0 {
		position = len(seen)
		o.byType[base] = append(seen, instance)
	}
	if position == 0 {
		return base
	}
	return fmt.Sprintf("%s#%d", base, position+1)
}

// sameInstance compares pointers by address and comparable values by
// equality. Values of non-comparable types are always distinct.
func sameInstance(a any, b any) bool {
	if !reflect.TypeOf(a).Comparable() || !reflect.TypeOf(b).Comparable() {
		return false
	}
	return a == b
}
