package store

import (
	"gopkg.in/yaml.v3"

	"github.com/steveyegge/outline/internal/tree"
	"github.com/steveyegge/outline/internal/yamldoc"
)

// The Store observes its tree and applies every change to the documents
// before the mutating call returns.
var _ tree.Observer = (*Store)(nil)

// Inserted binds a node created after loading and splices its syntax into
// the parent's sequence.
func (s *Store) Inserted(t *tree.Tree, id tree.NodeID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t != s.tree {
		return
	}

	if _, ok := s.bindings[id]; ok {
		return
	}
	parent := t.Parent(id)
	if parent == tree.None {
		return
	}
	pb, ok := s.bindings[parent]
	if !ok {
		s.logger.Printf("WARNING: inserted node %d under unbound parent %d", id, parent)
		return
	}

	payload := t.Payload(id)
	var b *ChildBinding
	if payload.IsText() {
		b = &ChildBinding{sx: newSyntax(yamldoc.NewString(payload.Text), TextPlain), file: pb.Owner()}
	} else {
		n, err := yamldoc.NewRecord(payload.Text, payload.Props)
		if err != nil {
			s.logger.Printf("WARNING: cannot encode node %d: %v", id, err)
			return
		}
		b = &ChildBinding{sx: newSyntax(n, TextProperty), file: pb.Owner()}
	}
	s.bindings[id] = b

	seq := pb.syntax().children()
	yamldoc.Insert(seq, s.position(t, id, seq), b.entry())
	s.markDirty(b.Owner())
}

// Removed drops the bindings of a removed subtree and splices its entry out
// of the old parent's sequence.
func (s *Store) Removed(t *tree.Tree, id, oldParent tree.NodeID, oldIndex int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t != s.tree {
		return
	}

	b, ok := s.bindings[id]
	if !ok {
		return
	}
	for _, d := range t.Walk(id) {
		delete(s.bindings, d)
	}

	pb, ok := s.bindings[oldParent]
	if !ok {
		return
	}
	s.spliceOut(pb.syntax().children(), b.entry(), oldIndex)
	s.markDirty(pb.Owner())
}

// PropertyUpdated writes a changed property to the node's document. Edits
// to included text are buffered on the included file instead.
func (s *Store) PropertyUpdated(t *tree.Tree, id tree.NodeID, key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t != s.tree {
		return
	}

	b, ok := s.bindings[id]
	if !ok {
		return
	}
	sx := b.syntax()

	if key == "text" {
		text, _ := value.(string)
		switch sx.text {
		case TextPlain:
			sx.setText(text)
		case TextIncluded:
			sx.display = text
			if inc, ok := s.units[sx.included].(*IncludedFile); ok {
				inc.next = text
				s.markDirty(sx.included)
			}
		case TextProperty:
			yamldoc.Set(sx.mapping(), sx.textKey, yamldoc.NewString(text))
		}
	} else {
		n, err := yamldoc.FromValue(value)
		if err != nil {
			s.logger.Printf("WARNING: cannot encode property %s of node %d: %v", key, id, err)
			return
		}
		yamldoc.Set(sx.mapping(), key, n)
	}

	s.markDirty(b.Owner())
}

// Moved relocates a node's entry from the old parent's sequence to the new
// one. Child bindings follow the file of their new parent; a file binding
// keeps its own file and only its reference entry moves.
func (s *Store) Moved(t *tree.Tree, id, oldParent tree.NodeID, oldIndex int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t != s.tree {
		return
	}

	b, ok := s.bindings[id]
	if !ok {
		return
	}
	opb, ok := s.bindings[oldParent]
	if !ok {
		return
	}
	npb, ok := s.bindings[t.Parent(id)]
	if !ok {
		return
	}

	if fb, ok := b.(*FileBinding); ok {
		s.logger.Printf("WARNING: moved node %d owns file %s; the file is not renamed", id, fb.filename)
	}

	entry := b.entry()
	s.spliceOut(opb.syntax().children(), entry, oldIndex)
	seq := npb.syntax().children()
	yamldoc.Insert(seq, s.position(t, id, seq), entry)

	// Descendants of a file binding stay in its own document.
	if _, ok := b.(*ChildBinding); ok {
		s.rebind(t, id, npb.Owner())
	}

	s.markDirty(opb.Owner())
	s.markDirty(npb.Owner())
}

// rebind points the child bindings of a subtree at file, stopping at nodes
// that own their file.
func (s *Store) rebind(t *tree.Tree, id tree.NodeID, file UnitID) {
	cb, ok := s.bindings[id].(*ChildBinding)
	if !ok {
		return
	}
	cb.file = file
	for _, c := range t.Children(id) {
		s.rebind(t, c, file)
	}
}

// position returns where the entry of node id belongs in seq: before the
// entry of its next bound sibling, or after the entry of its previous one.
// Entries skipped during load stay where they are.
func (s *Store) position(t *tree.Tree, id tree.NodeID, seq *yaml.Node) int {
	siblings := t.Children(t.Parent(id))
	index := t.Index(id)

	for _, sib := range siblings[index+1:] {
		if b, ok := s.bindings[sib]; ok {
			if i := yamldoc.IndexOf(seq, b.entry()); i >= 0 {
				return i
			}
		}
	}
	for j := index - 1; j >= 0; j-- {
		if b, ok := s.bindings[siblings[j]]; ok {
			if i := yamldoc.IndexOf(seq, b.entry()); i >= 0 {
				return i + 1
			}
		}
	}
	return min(index, len(seq.Content))
}

// spliceOut removes entry from seq, falling back to index when the entry
// cannot be found.
func (s *Store) spliceOut(seq, entry *yaml.Node, index int) {
	i := yamldoc.IndexOf(seq, entry)
	if i < 0 {
		i = index
	}
	if err := yamldoc.RemoveAt(seq, i); err != nil {
		s.logger.Printf("WARNING: %v", err)
	}
}
