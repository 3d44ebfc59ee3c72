package store

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/steveyegge/outline/internal/storage"
	"github.com/steveyegge/outline/internal/tree"
)

// Never disables automatic saves; changes are written by explicit Save
// calls only.
const Never time.Duration = -1

// Config holds configuration for a Store.
type Config struct {
	// Throttle is the quiet period after the last change before changes
	// are saved automatically. Never disables automatic saves.
	Throttle time.Duration

	// Observers are notified of tree changes before the store itself, and
	// of the Loading/Loaded/Saving/Saved lifecycle hooks they implement.
	Observers []tree.Observer

	// Logger for store activity
	Logger *log.Logger
}

// DefaultConfig returns a configuration that never saves automatically.
func DefaultConfig() *Config {
	return &Config{
		Throttle: Never,
		Logger:   log.New(os.Stderr, "[store] ", log.LstdFlags),
	}
}

// Store keeps an outline tree in sync with a set of YAML files.
//
// Load builds the tree from a root file. Afterwards the store observes the
// tree: every insert, remove, move and property change is applied to the
// parsed documents and the affected files are marked dirty. Dirty files are
// written by Save, or automatically once changes settle for the configured
// throttle.
type Store struct {
	fs        storage.FS
	observers []tree.Observer
	logger    *log.Logger
	sched     *scheduler

	mu       sync.Mutex
	root     string
	tree     *tree.Tree
	bindings map[tree.NodeID]Binding
	units    []Unit
	// refs holds the root file and every include target named by the
	// outline, including targets that were rejected.
	refs map[string]bool
}

// New creates a Store over fsys with the default configuration.
func New(fsys storage.FS) (*Store, error) {
	return NewWithConfig(fsys, DefaultConfig())
}

// NewWithConfig creates a Store with custom configuration.
func NewWithConfig(fsys storage.FS, config *Config) (*Store, error) {
	if fsys == nil {
		return nil, fmt.Errorf("fsys cannot be nil")
	}
	if config == nil {
		config = DefaultConfig()
	}
	logger := config.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "[store] ", log.LstdFlags)
	}

	s := &Store{
		fs:        fsys,
		observers: append([]tree.Observer(nil), config.Observers...),
		logger:    logger,
		bindings:  make(map[tree.NodeID]Binding),
	}
	s.sched = newScheduler(config.Throttle, s.autosave)
	s.tree = s.newTree()
	return s, nil
}

func (s *Store) newTree() *tree.Tree {
	return tree.New(append(append([]tree.Observer(nil), s.observers...), s)...)
}

// Tree returns the tree built by the last Load.
func (s *Store) Tree() *tree.Tree {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree
}

// Filename returns the root file of the last Load.
func (s *Store) Filename() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.root
}

// Lookup resolves a node by the id field of its entry.
func (s *Store) Lookup(id string) (tree.NodeID, bool) {
	return s.Tree().Lookup(id)
}

// Binding returns the syntax binding of a node.
func (s *Store) Binding(id tree.NodeID) (Binding, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bindings[id]
	return b, ok
}

// FileOf returns the file a node is stored in: its own file for a node
// bound to one, otherwise the file of its nearest file ancestor.
func (s *Store) FileOf(id tree.NodeID) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bindings[id]
	if !ok {
		return "", fmt.Errorf("%w: %d", ErrUnbound, id)
	}
	owner := b.Owner()
	if owner < 0 || int(owner) >= len(s.units) {
		return "", fmt.Errorf("%w: %d", ErrUnbound, id)
	}
	return s.units[owner].Filename(), nil
}

// Units returns the persistable units in registration order.
func (s *Store) Units() []Unit {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Unit(nil), s.units...)
}

// Unit returns the unit addressed by id, or nil.
func (s *Store) Unit(id UnitID) Unit {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id < 0 || int(id) >= len(s.units) {
		return nil
	}
	return s.units[id]
}

// Dirty reports whether any unit has unsaved changes.
func (s *Store) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.units {
		if u.Dirty() {
			return true
		}
	}
	return false
}

// Owns reports whether name is one of the loaded units.
func (s *Store) Owns(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unitByName(name) != nil
}

// Refers reports whether name is the root file or is named by an include in
// the loaded outline, whether or not the include was accepted. A change to
// such a file can change the result of the next Load.
func (s *Store) Refers(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refs[name]
}

// Stale reports whether contents differ from what the store last read or
// wrote for the unit name. Unknown names are never stale.
func (s *Store) Stale(name, contents string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.unitByName(name)
	return u != nil && u.state().contents != contents
}

func (s *Store) unitByName(name string) Unit {
	for _, u := range s.units {
		if u.Filename() == name {
			return u
		}
	}
	return nil
}

// Pending reports whether an automatic save is scheduled.
func (s *Store) Pending() bool {
	return s.sched.Pending()
}

// Close cancels any scheduled save. Unsaved changes are kept in memory.
func (s *Store) Close() {
	s.sched.Cancel()
}

// register appends a unit and returns its handle. Caller holds s.mu.
func (s *Store) register(u Unit) UnitID {
	s.units = append(s.units, u)
	return UnitID(len(s.units) - 1)
}

// markDirty flags a unit for the next save and schedules one.
// Caller holds s.mu.
func (s *Store) markDirty(id UnitID) {
	if id < 0 || int(id) >= len(s.units) {
		return
	}
	s.units[id].state().dirty = true
	s.sched.Schedule()
}

func (s *Store) autosave() {
	if err := s.Save(context.Background()); err != nil {
		s.logger.Printf("WARNING: scheduled save failed: %v", err)
	}
}

func (s *Store) notify(hook func(tree.Observer)) {
	for _, o := range s.observers {
		hook(o)
	}
}
