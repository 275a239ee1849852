// Package mapper compiles mapping documents into executable specs.
//
// An Engine knows the schema types by name and the converter functions of
// execute rules. Compiling a document builds one source and one target path
// tree, compiles every rule into them, aligns the collection levels of its
// chains and generates the rule plan. A failing rule is reported and left
// out; its siblings still compile.
//
//	e := mapper.New(mapper.DefaultOptions())
//	e.Register(store.Order{}, warehouse.Shipment{})
//
//	spec, report, err := e.CompileFile("orders.yaml")
//	if err != nil {
//		return err
//	}
//	if !report.OK() {
//		log.Print(report)
//	}
//
//	out, err := spec.Execute(order) // *warehouse.Shipment
//
// Compiled specs are kept by namespace; an execute rule names one as its
// module to map a value into that spec's target type.
package mapper
