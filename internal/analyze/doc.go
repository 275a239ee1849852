// Package analyze provides package loading, type graph extraction and
// static linting of mapping specs.
//
// It uses golang.org/x/tools/go/packages with go/types to build an
// in-memory model of the structs a spec maps between, without importing
// them into the running program.
//
// Key types:
//   - TypeID: package import path + type name
//   - TypeInfo: describes kind (struct/basic/alias/pointer/slice/array/map/interface/external)
//   - FieldInfo: describes field name, type, export and embedding
//
// Lint walks the chains of a document through the graph and reports what
// compiling it against the real types would reject.
package analyze
