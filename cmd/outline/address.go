package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/steveyegge/outline/internal/store"
	"github.com/steveyegge/outline/internal/tree"
)

var errNoSuchNode = errors.New("no such node")

// resolveNode finds the node addressed by ref: "#id" for a node with that
// id, an index path such as "0/2/1" counted from the root, or "/" (or the
// empty string) for the root itself.
func resolveNode(t *tree.Tree, ref string) (tree.NodeID, error) {
	if t.Root() == tree.None {
		return tree.None, store.ErrNotLoaded
	}

	ref = strings.TrimSpace(ref)
	if id, ok := strings.CutPrefix(ref, "#"); ok {
		n, found := t.Lookup(id)
		if !found {
			return tree.None, fmt.Errorf("%w: %s", errNoSuchNode, ref)
		}
		return n, nil
	}

	n := t.Root()
	for _, part := range strings.Split(strings.Trim(ref, "/"), "/") {
		if part == "" {
			continue
		}
		i, err := strconv.Atoi(part)
		if err != nil {
			return tree.None, fmt.Errorf("invalid node path %q", ref)
		}
		c := t.Child(n, i)
		if c == tree.None {
			return tree.None, fmt.Errorf("%w: %s", errNoSuchNode, ref)
		}
		n = c
	}
	return n, nil
}

// nodePath returns the index path of a node, "/" for the root.
func nodePath(t *tree.Tree, id tree.NodeID) string {
	var parts []string
	for n := id; t.Parent(n) != tree.None; n = t.Parent(n) {
		parts = append(parts, strconv.Itoa(t.Index(n)))
	}
	if len(parts) == 0 {
		return "/"
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "/")
}
