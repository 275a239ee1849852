package pathtree

import (
	"reflect"
	"sort"
	"strings"

	"chain-mapper/internal/schema"
)

// NodeID addresses a node in its tree.
type NodeID int

const (
	RootID NodeID = 0
	NoNode NodeID = -1
)

// Node is the compiled form of one token, or of the member a bracketed
// token selects.
type Node struct {
	ID         NodeID
	Parent     NodeID
	Key        string // key in the parent's children
	Index      int    // token index in the chain that created the node
	Field      string // Go field name, empty for the root and member nodes
	FieldIndex []int
	Owner      reflect.Type // declaring type the field was resolved on
	Type       reflect.Type // field type, or member type for member nodes
	Concrete   reflect.Type // concrete type overriding an interface field
	Shape      schema.Shape
	Notated    bool // Shape was fixed by collection or map notation
	Accessor   string
	Mutator    string
	Helper     bool

	children map[string]NodeID
	rules    []string
}

// Effective is the concrete override when set, the declared type otherwise.
func (n *Node) Effective() reflect.Type {
	if n.Concrete != nil {
		return n.Concrete
	}

	return n.Type
}

// Direct reports a field read and written without accessor methods.
func (n *Node) Direct() bool {
	return n.Accessor == "" && n.Mutator == ""
}

// IsMember reports member nodes.
func (n *Node) IsMember() bool {
	return n.Shape.IsMember()
}

// Rules returns the ids of the rules reaching this node, in first-use order.
func (n *Node) Rules() []string {
	return append([]string(nil), n.rules...)
}

// HasRule reports whether rule reached this node.
func (n *Node) HasRule(rule string) bool {
	for _, r := range n.rules {
		if r == rule {
			return true
		}
	}

	return false
}

// Child looks a child up by key.
func (n *Node) Child(key string) (NodeID, bool) {
	id, ok := n.children[key]
	return id, ok
}

// ChildKeys lists the child keys, sorted.
func (n *Node) ChildKeys() []string {
	keys := make([]string, 0, len(n.children))
	for k := range n.children {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

// Tree is the node arena of one schema root type. It is not safe for
// concurrent mutation.
type Tree struct {
	root  reflect.Type
	nodes []*Node
	txn   *txn
}

type txn struct {
	first     NodeID
	snapshots map[NodeID]Node
}

// NewTree creates a tree whose root node stands for a whole root value.
func NewTree(root reflect.Type) *Tree {
	root = schema.Indirect(root)

	return &Tree{
		root: root,
		nodes: []*Node{{
			ID:       RootID,
			Parent:   NoNode,
			Key:      "$",
			Index:    -1,
			Type:     root,
			Shape:    schema.ShapePlain,
			children: make(map[string]NodeID),
		}},
	}
}

func (t *Tree) RootType() reflect.Type { return t.root }
func (t *Tree) Root() *Node            { return t.nodes[RootID] }
func (t *Tree) Len() int               { return len(t.nodes) }

// Node returns the node with the given id.
func (t *Tree) Node(id NodeID) *Node {
	return t.nodes[id]
}

// Nodes returns the nodes in id order.
func (t *Tree) Nodes() []*Node {
	return append([]*Node(nil), t.nodes...)
}

// Path renders the sanitized chain leading to a node: "orders[].items[K]".
func (t *Tree) Path(id NodeID) string {
	var parts []string
	for ; id != RootID && id != NoNode; id = t.nodes[id].Parent {
		parts = append(parts, t.nodes[id].Key)
	}

	var b strings.Builder
	for i := len(parts) - 1; i >= 0; i-- {
		if b.Len() > 0 && !strings.HasPrefix(parts[i], "[") {
			b.WriteByte('.')
		}

		b.WriteString(parts[i])
	}

	return b.String()
}

// Begin opens a transaction. It reports false when one is already open, in
// which case the caller must leave Commit and Rollback to its opener.
func (t *Tree) Begin() bool {
	if t.txn != nil {
		return false
	}

	t.txn = &txn{first: NodeID(len(t.nodes)), snapshots: make(map[NodeID]Node)}

	return true
}

// Commit keeps every change made since Begin.
func (t *Tree) Commit() {
	t.txn = nil
}

// Rollback drops the nodes created and restores the nodes changed since
// Begin.
func (t *Tree) Rollback() {
	if t.txn == nil {
		return
	}

	for i := len(t.nodes) - 1; i >= int(t.txn.first); i-- {
		n := t.nodes[i]
		delete(t.nodes[n.Parent].children, n.Key)
		t.nodes[i] = nil
	}

	t.nodes = t.nodes[:t.txn.first]

	for id, snap := range t.txn.snapshots {
		*t.nodes[id] = snap
	}

	t.txn = nil
}

// add links a new node under its parent.
func (t *Tree) add(n *Node) NodeID {
	n.ID = NodeID(len(t.nodes))
	n.children = make(map[string]NodeID)
	t.nodes = append(t.nodes, n)
	t.nodes[n.Parent].children[n.Key] = n.ID

	return n.ID
}

// touch snapshots a pre-existing node before its first change within the
// open transaction.
func (t *Tree) touch(id NodeID) *Node {
	n := t.nodes[id]
	if t.txn == nil || id >= t.txn.first {
		return n
	}

	if _, ok := t.txn.snapshots[id]; !ok {
		snap := *n
		snap.rules = append([]string(nil), n.rules...)
		snap.FieldIndex = append([]int(nil), n.FieldIndex...)
		t.txn.snapshots[id] = snap
	}

	return n
}

// addRule records rule on the node once.
func (t *Tree) addRule(id NodeID, rule string) {
	if t.nodes[id].HasRule(rule) {
		return
	}

	n := t.touch(id)
	n.rules = append(n.rules, rule)
}
