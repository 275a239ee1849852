// Package schema introspects the Go types a mapping spec talks about.
//
// A Registry resolves type names and type expressions such as
// "[]warehouse.Line" or "map[string]*store.Item". A FieldCache memoizes
// field lookups per (declaring type, field name) and is safe to share
// between concurrent compilations. An Introspector combines both and
// derives accessor and mutator names and collection shapes.
package schema
