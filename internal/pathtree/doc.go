// Package pathtree compiles path chains into a per-schema tree of nodes.
//
// Rules that share a prefix share nodes: a field token is a node keyed by
// the Go field name under its parent, and a bracketed token adds a member
// node keyed "[]", "[K]" or "[V]" below the field node. Nodes live in an
// arena and refer to their parent by id.
//
// Compiling a chain resolves each new node against the schema (field,
// accessor and mutator, collection shape, overrides). A failed chain leaves
// the tree exactly as it was before the chain was compiled.
package pathtree
