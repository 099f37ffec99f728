// Package core contains the webhook domain contracts shared by the registry,
// router and entry point packages: namespaces, events, handler bindings,
// dispatch tables and the initialization guard. Adapters depend on core;
// core must not depend on transport or container specific packages.
package core
