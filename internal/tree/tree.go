// Package tree provides the ordered, id-addressable outline tree that the
// YAML store keeps in sync with its files.
//
// Nodes live in an arena owned by the Tree and are addressed by NodeID
// handles. Every structural change is reported synchronously to the
// registered observers, in registration order, after the tree has taken
// its new shape.
package tree

import (
	"fmt"
	"sort"
)

// NodeID addresses a node inside a Tree. IDs are never reused within one Tree.
type NodeID int

// None is the zero handle; it never addresses a node.
const None NodeID = 0

// Payload is the content of a node: plain text, or a record of named
// properties that always includes "text".
type Payload struct {
	Text  string
	Props map[string]any // nil for a bare text node
}

// IsText reports whether the payload is bare text without properties.
func (p Payload) IsText() bool {
	return p.Props == nil
}

// Record returns the payload as a property record, with "text" set.
func (p Payload) Record() map[string]any {
	rec := make(map[string]any, len(p.Props)+1)
	for k, v := range p.Props {
		rec[k] = v
	}
	rec["text"] = p.Text
	return rec
}

type node struct {
	id       NodeID
	parent   NodeID
	children []NodeID
	payload  Payload
	attached bool
}

// Tree is an ordered tree of outline nodes.
// A Tree is not safe for concurrent mutation.
type Tree struct {
	nodes     map[NodeID]*node
	root      NodeID
	next      NodeID
	ids       map[string]NodeID
	observers []Observer
}

// New creates an empty tree that notifies the given observers.
func New(observers ...Observer) *Tree {
	return &Tree{
		nodes:     make(map[NodeID]*node),
		ids:       make(map[string]NodeID),
		observers: observers,
	}
}

// Observers returns the observers registered on the tree.
func (t *Tree) Observers() []Observer {
	return t.observers
}

// Root returns the root node, or None if no root was inserted yet.
func (t *Tree) Root() NodeID {
	return t.root
}

func (t *Tree) alloc(p Payload) *node {
	t.next++
	n := &node{id: t.next, payload: p}
	t.nodes[n.id] = n
	return n
}

func (t *Tree) get(id NodeID) (*node, error) {
	n, ok := t.nodes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrNoNode, id)
	}
	return n, nil
}

// CreateRoot creates the root node and inserts it into the tree. init runs
// after the node exists but before observers are notified of the insertion.
func (t *Tree) CreateRoot(init func(NodeID)) (NodeID, error) {
	if t.root != None {
		return None, ErrRootExists
	}
	n := t.alloc(Payload{})
	if init != nil {
		init(n.id)
	}
	n.attached = true
	t.root = n.id
	for _, o := range t.observers {
		o.Inserted(t, n.id)
	}
	return n.id, nil
}

// CreateChild creates a node with the given text and properties and inserts
// it as the index-th child of parent. An index past the end appends.
// init runs before observers are notified of the insertion.
func (t *Tree) CreateChild(parent NodeID, index int, text string, props map[string]any, init func(NodeID)) (NodeID, error) {
	p, err := t.get(parent)
	if err != nil {
		return None, err
	}
	if index < 0 {
		return None, fmt.Errorf("%w: %d", ErrInvalidIndex, index)
	}
	var rec map[string]any
	if props != nil {
		rec = make(map[string]any, len(props))
		for k, v := range props {
			if k == "text" {
				continue
			}
			rec[k] = v
		}
	}
	n := t.alloc(Payload{Text: text, Props: rec})
	if init != nil {
		init(n.id)
	}
	if index > len(p.children) {
		index = len(p.children)
	}
	t.attach(p, n, index)
	for _, o := range t.observers {
		o.Inserted(t, n.id)
	}
	return n.id, nil
}

func (t *Tree) attach(p, n *node, index int) {
	p.children = append(p.children, None)
	copy(p.children[index+1:], p.children[index:])
	p.children[index] = n.id
	n.parent = p.id
	n.attached = true
}

func (t *Tree) detach(n *node) (NodeID, int) {
	p := t.nodes[n.parent]
	index := indexOf(p.children, n.id)
	p.children = append(p.children[:index], p.children[index+1:]...)
	n.parent = None
	n.attached = false
	return p.id, index
}

func indexOf(ids []NodeID, id NodeID) int {
	for i, c := range ids {
		if c == id {
			return i
		}
	}
	return -1
}

// Remove detaches a node and its subtree from the tree. Observers are
// notified while the detached subtree is still addressable; afterwards the
// subtree is discarded.
func (t *Tree) Remove(id NodeID) error {
	n, err := t.get(id)
	if err != nil {
		return err
	}
	if n.parent == None {
		return fmt.Errorf("%w: cannot remove root", ErrInvalidIndex)
	}
	oldParent, oldIndex := t.detach(n)
	for _, o := range t.observers {
		o.Removed(t, id, oldParent, oldIndex)
	}
	for _, d := range t.Walk(id) {
		delete(t.nodes, d)
	}
	for ext, target := range t.ids {
		if _, ok := t.nodes[target]; !ok {
			delete(t.ids, ext)
		}
	}
	return nil
}

// Move re-parents a node so that it becomes the index-th child of newParent.
// The index is interpreted after the node has been detached.
func (t *Tree) Move(id, newParent NodeID, index int) error {
	n, err := t.get(id)
	if err != nil {
		return err
	}
	p, err := t.get(newParent)
	if err != nil {
		return err
	}
	if n.parent == None {
		return fmt.Errorf("%w: cannot move root", ErrInvalidIndex)
	}
	for a := newParent; a != None; a = t.nodes[a].parent {
		if a == id {
			return ErrCycle
		}
	}
	oldParent, oldIndex := t.detach(n)
	if index < 0 || index > len(p.children) {
		t.attach(t.nodes[oldParent], n, oldIndex)
		return fmt.Errorf("%w: %d", ErrInvalidIndex, index)
	}
	t.attach(p, n, index)
	for _, o := range t.observers {
		o.Moved(t, id, oldParent, oldIndex)
	}
	return nil
}

// SetProperty updates a property of a node. Setting "text" changes the
// node's text; any other key promotes a bare text node to a record.
func (t *Tree) SetProperty(id NodeID, key string, value any) error {
	n, err := t.get(id)
	if err != nil {
		return err
	}
	if key == "text" {
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("text must be a string, got %T", value)
		}
		n.payload.Text = s
	} else {
		if n.payload.Props == nil {
			n.payload.Props = make(map[string]any)
		}
		n.payload.Props[key] = value
	}
	for _, o := range t.observers {
		o.PropertyUpdated(t, id, key, value)
	}
	return nil
}

// Payload returns a copy of the node's payload.
func (t *Tree) Payload(id NodeID) Payload {
	n, ok := t.nodes[id]
	if !ok {
		return Payload{}
	}
	p := n.payload
	if p.Props != nil {
		p.Props = make(map[string]any, len(n.payload.Props))
		for k, v := range n.payload.Props {
			p.Props[k] = v
		}
	}
	return p
}

// Text returns the node's text.
func (t *Tree) Text(id NodeID) string {
	if n, ok := t.nodes[id]; ok {
		return n.payload.Text
	}
	return ""
}

// Property returns a property of the node. "text" is always present.
func (t *Tree) Property(id NodeID, key string) (any, bool) {
	n, ok := t.nodes[id]
	if !ok {
		return nil, false
	}
	if key == "text" {
		return n.payload.Text, true
	}
	v, ok := n.payload.Props[key]
	return v, ok
}

// Keys returns the sorted property keys of the node, excluding "text".
func (t *Tree) Keys(id NodeID) []string {
	n, ok := t.nodes[id]
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(n.payload.Props))
	for k := range n.payload.Props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Parent returns the node's parent, or None for the root and detached nodes.
func (t *Tree) Parent(id NodeID) NodeID {
	if n, ok := t.nodes[id]; ok {
		return n.parent
	}
	return None
}

// Index returns the node's position among its siblings, or -1.
func (t *Tree) Index(id NodeID) int {
	n, ok := t.nodes[id]
	if !ok || n.parent == None {
		return -1
	}
	return indexOf(t.nodes[n.parent].children, id)
}

// Children returns a copy of the node's ordered children.
func (t *Tree) Children(id NodeID) []NodeID {
	n, ok := t.nodes[id]
	if !ok {
		return nil
	}
	return append([]NodeID(nil), n.children...)
}

// Child returns the index-th child of the node, or None.
func (t *Tree) Child(id NodeID, index int) NodeID {
	n, ok := t.nodes[id]
	if !ok || index < 0 || index >= len(n.children) {
		return None
	}
	return n.children[index]
}

// Contains reports whether the node exists in the tree.
func (t *Tree) Contains(id NodeID) bool {
	n, ok := t.nodes[id]
	return ok && n.attached
}

// Walk returns the node and all its descendants in depth-first pre-order.
func (t *Tree) Walk(id NodeID) []NodeID {
	var out []NodeID
	var visit func(NodeID)
	visit = func(id NodeID) {
		n, ok := t.nodes[id]
		if !ok {
			return
		}
		out = append(out, id)
		for _, c := range n.children {
			visit(c)
		}
	}
	visit(id)
	return out
}

// RegisterID associates an external id with a node. Later registrations of
// the same id win.
func (t *Tree) RegisterID(ext string, id NodeID) {
	t.ids[ext] = id
}

// UnregisterID removes ext if it still refers to id.
func (t *Tree) UnregisterID(ext string, id NodeID) {
	if t.ids[ext] == id {
		delete(t.ids, ext)
	}
}

// Lookup resolves an external id registered with RegisterID.
func (t *Tree) Lookup(ext string) (NodeID, bool) {
	id, ok := t.ids[ext]
	return id, ok
}
