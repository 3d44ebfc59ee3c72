package store

import (
	"context"
	"fmt"

	"github.com/steveyegge/outline/internal/tree"
)

// Save writes every dirty unit, in registration order, and cancels any
// scheduled save. Units that are not dirty are never rewritten.
func (s *Store) Save(ctx context.Context) error {
	s.sched.Cancel()

	s.notify(func(o tree.Observer) {
		if h, ok := o.(tree.SavingObserver); ok {
			h.Saving()
		}
	})

	if err := s.flush(ctx); err != nil {
		return err
	}

	s.notify(func(o tree.Observer) {
		if h, ok := o.(tree.SavedObserver); ok {
			h.Saved()
		}
	})
	return nil
}

func (s *Store) flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	written := 0
	for _, u := range s.units {
		st := u.state()
		if !st.dirty {
			continue
		}

		contents, err := serialize(u)
		if err != nil {
			return fmt.Errorf("failed to serialize %s: %w", st.filename, err)
		}
		if err := s.fs.Write(ctx, st.filename, contents); err != nil {
			return fmt.Errorf("failed to save %s: %w", st.filename, err)
		}

		st.contents = contents
		st.dirty = false
		written++
		s.logger.Printf("Saved %s", st.filename)
	}

	if written > 0 {
		s.logger.Printf("Save complete: %d file(s) written", written)
	}
	return nil
}

func serialize(u Unit) (string, error) {
	switch u := u.(type) {
	case *FileBinding:
		b, err := u.doc.Encode()
		if err != nil {
			return "", err
		}
		return string(b), nil
	case *IncludedFile:
		return u.next, nil
	default:
		return "", fmt.Errorf("unknown unit type %T", u)
	}
}
