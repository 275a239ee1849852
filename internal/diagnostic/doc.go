// Package diagnostic provides the error kinds and the report produced while
// compiling a mapping spec.
//
// Rule failures are typed errors:
//   - SyntaxError for malformed chain notation
//   - SemanticError for chains that do not fit the schema
//   - GenerationError for rules whose alignment cannot be planned
//
// Non-fatal findings (override conflicts, disabled rules, lint results) are
// collected as Diagnostics.
package diagnostic
