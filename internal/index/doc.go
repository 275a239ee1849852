// Package index builds the runtime collection index of a source value.
//
// An index entry stands for one container reached by a path of the source
// tree at one coordinate: "Orders" for a top-level collection,
// "Orders[2].Items" for the items of the third order, "ByCode[0V].Flags"
// for the flags of the value of the first map entry in key order. Entries
// are resolved on first use from the nearest enclosing entry and cached, so
// rules sharing a collection walk it once.
package index
