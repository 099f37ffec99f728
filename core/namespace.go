package core

import "strings"

// Namespace selects one of the two isolated webhook universes. Each
// namespace has its own secret, handler set and dispatch table.
type Namespace string

const (
	NamespacePrimary Namespace = "primary"
	NamespaceConnect Namespace = "connect"
)

// Namespaces returns every supported namespace in discovery order.
func Namespaces() []Namespace {
	return []Namespace{NamespacePrimary, NamespaceConnect}
}

func NamespaceNames() []string {
	names := make([]string, 0, 2)
	for _, namespace := range Namespaces() {
		names = append(names, namespace.String())
	}
	return names
}

func ParseNamespace(value string) (Namespace, error) {
	namespace := Namespace(strings.TrimSpace(strings.ToLower(value)))
	if !namespace.Valid() {
		return "", UnsupportedNamespaceError(namespace)
	}
	return namespace, nil
}

func (n Namespace) Valid() bool {
	switch n {
	case NamespacePrimary, NamespaceConnect:
		return true
	default:
		return false
	}
}

func (n Namespace) String() string {
	return string(n)
}
