package index

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"chain-mapper/internal/pathtree"
)

// Coord holds the ordinals of the enclosing iterations of a collection,
// outermost first.
type Coord []int

// Index is a lazily built position index over the collections of one
// source value. It belongs to a single execution and is not safe for
// concurrent use.
type Index struct {
	tree    *pathtree.Tree
	root    reflect.Value
	helper  reflect.Value
	fields  map[pathtree.NodeID]struct{}
	entries map[string]*entry
}

type entry struct {
	container reflect.Value
	ok        bool
	members   map[pathtree.NodeID][]pathtree.Member
}

// Build indexes root for the collection field nodes of tree. It returns nil
// when none of them holds a member, e.g. every collection is empty or sits
// behind a nil.
func Build(tree *pathtree.Tree, fields []pathtree.NodeID, root, helper reflect.Value) (*Index, error) {
	idx := &Index{
		tree:    tree,
		root:    root,
		helper:  helper,
		fields:  make(map[pathtree.NodeID]struct{}, len(fields)),
		entries: make(map[string]*entry),
	}

	data := false

	for _, f := range fields {
		idx.fields[f] = struct{}{}

		outer := idx.outermost(f)

		e, err := idx.resolve(outer, nil)
		if err != nil {
			return nil, err
		}

		if e.ok && idx.hasMembers(e, outer) {
			data = true
		}
	}

	if !data {
		return nil, nil
	}

	return idx, nil
}

// Collection returns the container of field node field at coord.
func (idx *Index) Collection(field pathtree.NodeID, coord Coord) (reflect.Value, bool, error) {
	if _, ok := idx.fields[field]; !ok {
		return reflect.Value{}, false, fmt.Errorf("collection %s is not indexed", idx.tree.Path(field))
	}

	e, err := idx.resolve(field, coord)
	if err != nil || !e.ok {
		return reflect.Value{}, false, err
	}

	return e.container, true, nil
}

// Members lists the members that member node member selects in the
// container of field at coord. The list is computed once per container.
func (idx *Index) Members(field, member pathtree.NodeID, coord Coord) ([]pathtree.Member, error) {
	e, err := idx.resolve(field, coord)
	if err != nil || !e.ok {
		return nil, err
	}

	return idx.members(e, member), nil
}

// IDs lists the resolved entries, sorted.
func (idx *Index) IDs() []string {
	ids := make([]string, 0, len(idx.entries))
	for id, e := range idx.entries {
		if e.ok {
			ids = append(ids, id)
		}
	}

	sort.Strings(ids)

	return ids
}

func (idx *Index) members(e *entry, member pathtree.NodeID) []pathtree.Member {
	if ms, ok := e.members[member]; ok {
		return ms
	}

	ms := idx.tree.Members(e.container, member)
	e.members[member] = ms

	return ms
}

func (idx *Index) hasMembers(e *entry, field pathtree.NodeID) bool {
	for _, key := range idx.tree.Node(field).ChildKeys() {
		member, _ := idx.tree.Node(field).Child(key)
		if len(idx.members(e, member)) > 0 {
			return true
		}
	}

	return false
}

// outermost is the first collection field on the way from the root to f.
func (idx *Index) outermost(f pathtree.NodeID) pathtree.NodeID {
	for id := f; id != pathtree.RootID; id = idx.tree.Node(id).Parent {
		n := idx.tree.Node(id)
		if n.IsMember() {
			f = n.Parent
		}
	}

	return f
}

// resolve walks to field from its nearest enclosing member, resolving
// that member's container first.
func (idx *Index) resolve(field pathtree.NodeID, coord Coord) (*entry, error) {
	id := ID(idx.tree, field, coord)
	if e, ok := idx.entries[id]; ok {
		return e, nil
	}

	var (
		fields []pathtree.NodeID
		member = pathtree.NoNode
	)

	for cur := field; cur != pathtree.RootID; cur = idx.tree.Node(cur).Parent {
		if idx.tree.Node(cur).IsMember() {
			member = cur
			break
		}

		fields = append(fields, cur)
	}

	if member != pathtree.NoNode && len(coord) == 0 {
		return nil, fmt.Errorf("collection %s needs %d ordinals", idx.tree.Path(field), depth(idx.tree, field))
	}

	e := &entry{members: make(map[pathtree.NodeID][]pathtree.Member)}
	idx.entries[id] = e

	v := idx.root

	if member != pathtree.NoNode {
		outer, err := idx.resolve(idx.tree.Node(member).Parent, coord[:len(coord)-1])
		if err != nil || !outer.ok {
			return e, err
		}

		ms := idx.members(outer, member)

		ord := coord[len(coord)-1]
		if ord < 0 || ord >= len(ms) {
			return e, nil
		}

		v = ms[ord].Value
	}

	for i := len(fields) - 1; i >= 0; i-- {
		next, ok, err := idx.tree.Read(v, fields[i], idx.helper)
		if err != nil {
			delete(idx.entries, id)
			return nil, err
		}

		if !ok {
			return e, nil
		}

		v = next
	}

	d, ok := pathtree.Deref(v)
	if !ok {
		return e, nil
	}

	e.container, e.ok = d, true

	return e, nil
}

// ID names the container of field at coord: the tree path with every
// member's ordinal filled in, e.g. "Orders[2].Items" or "ByCode[0V].Flags".
func ID(tree *pathtree.Tree, field pathtree.NodeID, coord Coord) string {
	var chain []*pathtree.Node
	for id := field; id != pathtree.RootID && id != pathtree.NoNode; id = tree.Node(id).Parent {
		chain = append(chain, tree.Node(id))
	}

	var b strings.Builder

	k := 0

	for i := len(chain) - 1; i >= 0; i-- {
		n := chain[i]

		if !n.IsMember() {
			if b.Len() > 0 {
				b.WriteByte('.')
			}

			b.WriteString(n.Key)

			continue
		}

		b.WriteByte('[')

		if k < len(coord) {
			b.WriteString(strconv.Itoa(coord[k]))
		}

		k++

		b.WriteString(strings.Trim(n.Key, "[]"))
		b.WriteByte(']')
	}

	return b.String()
}

func depth(tree *pathtree.Tree, field pathtree.NodeID) int {
	d := 0
	for id := field; id != pathtree.RootID; id = tree.Node(id).Parent {
		if tree.Node(id).IsMember() {
			d++
		}
	}

	return d
}
