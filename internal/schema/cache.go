package schema

import (
	"reflect"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"
)

type fieldKey struct {
	owner reflect.Type
	name  string
}

type fieldEntry struct {
	field reflect.StructField
	found bool
}

// FieldCache memoizes field lookups by declaring type and requested name.
// Entries are written once and never change, so concurrent readers only
// contend on the first insert of a key.
type FieldCache struct {
	entries sync.Map // fieldKey -> *fieldEntry
}

func NewFieldCache() *FieldCache {
	return &FieldCache{}
}

// Lookup resolves name on the struct type owner, including fields promoted
// from embedded structs. A name not found as written is retried with its
// first letter upper-cased, so "fullName" finds FullName, and finally
// matched case-insensitively when exactly one field fits ("sku" finds SKU).
func (c *FieldCache) Lookup(owner reflect.Type, name string) (reflect.StructField, bool) {
	key := fieldKey{owner: owner, name: name}
	if e, ok := c.entries.Load(key); ok {
		entry := e.(*fieldEntry)
		return entry.field, entry.found
	}

	field, found := owner.FieldByName(name)
	if !found {
		if exported := exportName(name); exported != name {
			field, found = owner.FieldByName(exported)
		}
	}

	if !found {
		field, found = foldField(owner, name)
	}

	e, _ := c.entries.LoadOrStore(key, &fieldEntry{field: field, found: found})
	entry := e.(*fieldEntry)

	return entry.field, entry.found
}

// Len counts the cached entries.
func (c *FieldCache) Len() int {
	n := 0
	c.entries.Range(func(_, _ any) bool {
		n++
		return true
	})

	return n
}

func foldField(owner reflect.Type, name string) (reflect.StructField, bool) {
	var (
		match reflect.StructField
		n     int
	)

	for _, f := range reflect.VisibleFields(owner) {
		if f.Anonymous || !strings.EqualFold(f.Name, name) {
			continue
		}

		match = f
		n++
	}

	if n != 1 {
		return reflect.StructField{}, false
	}

	return match, true
}

func exportName(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError || unicode.IsUpper(r) {
		return name
	}

	return string(unicode.ToUpper(r)) + name[size:]
}
