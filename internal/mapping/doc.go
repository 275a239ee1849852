// Package mapping provides the YAML document model of a mapping
// specification, its parsing and structural validation, and the converter
// registry used by execute rules.
//
// # Document Overview
//
//	version: "1"
//	namespace: orders.shipment
//	name: OrderToShipment
//	source: store.Order
//	target: warehouse.Shipment
//	helper: warehouse.Helper
//	rules:
//	  - copy:
//	      id: name
//	      to: name
//	      from: fullName
//	  - copy:
//	      to: tags[]
//	      from:
//	        values: [a, b, c]
//	  - copy:
//	      to: catalog[<K>].sku
//	      from: items[<K>].code
//	  - copy:
//	      to: note
//	      from: memo
//	      to_overrides:
//	        - {at: 0, mutator: WriteNote, helper: true}
//	  - execute:
//	      to: total
//	      from: lines[].qty
//	      converter: Sum
//
// # Rules
//
// A copy rule writes a source chain or a literal values list into a target
// chain. An execute rule hands the source value to a pipeline made of a
// registered converter and/or a module, the namespace of another compiled
// document, and writes the result. Order fixes the pipeline sequence; the
// default runs the converter first.
//
// Rules without an id are numbered rule1, rule2, ... skipping the ids in use.
//
// # Chains
//
// Chains are dotted field paths. Collection members are selected with "[]",
// map keys and values with "[K]" and "[V]"; see package chain for anchors
// and literal indices.
package mapping
