// Package store keeps an outline tree in sync with YAML files.
//
// Overview
//
// An outline is stored as a root YAML file holding a sequence of entries
// under "items" or "notes". Entries are bare strings, or mappings with a
// text field, an optional id and an optional nested list under "notes",
// "items" or "children":
//
//	items:
//	  - Buy milk
//	  - text: Call Bob
//	    id: bob
//	    notes:
//	      - Leave message
//	  - text: !!include letter.md
//	  - __include__: projects.yaml
//
// "!!include" sources a node's text from a raw file; "__include__" sources
// the whole entry from another YAML file, which then becomes a separate
// persistable unit.
//
// Bindings
//
// Every tree node is bound to its location in a parsed document. A
// *FileBinding is the root mapping of its own file; a *ChildBinding is a
// scalar or mapping inside the document of its nearest file ancestor. Tree
// mutations are mirrored onto these documents by the Store, which
// implements tree.Observer.
//
// Usage
//
//	s, err := store.NewWithConfig(storage.NewDir("notes"), &store.Config{
//	    Throttle: 500 * time.Millisecond,
//	})
//	if err != nil {
//	    return err
//	}
//	problems, err := s.Load(ctx, "outline.yaml")
//	if err != nil {
//	    return err
//	}
//	t := s.Tree()
//	t.CreateChild(t.Root(), 0, "New item", nil, nil)
//
//	// Flush now instead of waiting for the throttle.
//	if err := s.Save(ctx); err != nil {
//	    return err
//	}
package store
