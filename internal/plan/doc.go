// Package plan turns a compiled rule into a flat operation sequence.
//
// Generation for one rule:
//  1. Read the source chain: load the root, descend field by field, guard
//     every value that may be null and open an iteration per bracketed
//     token. A seek-index op before each collection segment lets the
//     runtime jump straight to a pre-indexed collection.
//  2. Run the execute pipeline, when the rule has one, collecting the
//     iterated source values first or distributing the result over the
//     target afterwards.
//  3. Descend the target chain, allocating what is absent and selecting
//     collection positions by the alignment policy of each level, and write
//     the value.
//  4. Close the iterations innermost first.
//
// Plans are recorded in an Artifact that serializes both path trees and
// every rule's ops to YAML.
package plan
