// Package registry discovers webhook handlers on application components and
// seals them into per-namespace dispatch tables.
//
// Components opt in by implementing Component and returning tagged method
// values for a namespace. Method values are bound to their receiver, so each
// resulting binding is self contained. Discovery runs once at boot; the
// tables it produces are read only.
package registry
