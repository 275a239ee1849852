// Package chain parses path chains: dotted field paths whose tokens may
// carry collection, map and anchor notation.
//
//	orders[].items[<K>].code
//	tags[2]
//	catalog[0V].sku
//
// A bracketed token is a collection member ("[]", "[3]") or a map key or
// value ("[K]", "[V]", "[2K]"). A leading '<' inside the brackets marks a
// pre-anchor, a trailing '>' a post-anchor; "<K>" and "<V>" mark the
// key-correlated map anchor. A chain has at most one anchor.
package chain
