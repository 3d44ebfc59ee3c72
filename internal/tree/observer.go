package tree

import "errors"

// Observer is notified synchronously of every structural change of a Tree.
type Observer interface {
	// Inserted is called after a node has been attached to the tree.
	Inserted(t *Tree, id NodeID)

	// Removed is called after a node has been detached from oldParent,
	// where it used to be the oldIndex-th child.
	Removed(t *Tree, id, oldParent NodeID, oldIndex int)

	// PropertyUpdated is called after a property of a node changed.
	PropertyUpdated(t *Tree, id NodeID, key string, value any)

	// Moved is called after a node has been re-attached. oldParent and
	// oldIndex describe its previous position.
	Moved(t *Tree, id, oldParent NodeID, oldIndex int)
}

// Lifecycle hooks. An observer implements any subset of them.
type (
	LoadingObserver interface{ Loading() }
	LoadedObserver  interface{ Loaded() }
	SavingObserver  interface{ Saving() }
	SavedObserver   interface{ Saved() }
)

// NopObserver implements Observer with no-ops. Embed it to observe only
// lifecycle hooks or a subset of structural changes.
type NopObserver struct{}

func (NopObserver) Inserted(*Tree, NodeID)                     {}
func (NopObserver) Removed(*Tree, NodeID, NodeID, int)         {}
func (NopObserver) PropertyUpdated(*Tree, NodeID, string, any) {}
func (NopObserver) Moved(*Tree, NodeID, NodeID, int)           {}

var (
	// ErrNoNode is returned when a NodeID does not address a node.
	ErrNoNode = errors.New("no such node")

	// ErrInvalidIndex is returned for out-of-range child positions.
	ErrInvalidIndex = errors.New("invalid index")

	// ErrRootExists is returned when a second root is created.
	ErrRootExists = errors.New("root already exists")

	// ErrCycle is returned when a node would be moved below itself.
	ErrCycle = errors.New("cannot move a node below itself")
)
