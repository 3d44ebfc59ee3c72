package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/steveyegge/outline/internal/tree"
	"github.com/steveyegge/outline/internal/ui"
)

var (
	addParent string
	addIndex  int
	addID     string

	rmForce bool
)

var errCanceled = errors.New("canceled")

// dateKeys are properties whose values are read as dates.
var dateKeys = map[string]bool{"due": true, "start": true}

var dateParser = func() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}()

var addCmd = &cobra.Command{
	Use:     "add <text>...",
	GroupID: "edit",
	Short:   "Add a node",
	Long: `Add a node with the given text. The node is appended to the root list
unless --parent and --index say otherwise.

  outline add "Buy milk"
  outline add --parent '#bob' --id msg "Leave message"
  outline add --parent 0 --index 0 "First step"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openForEdit(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		id, err := addNode(s.Tree(), addParent, addIndex, strings.Join(args, " "), addID)
		if err != nil {
			return err
		}
		if err := s.Save(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s Added %s %s\n", ui.RenderPass("✓"), ui.RenderMuted(nodePath(s.Tree(), id)), s.Tree().Text(id))
		return nil
	},
}

var setCmd = &cobra.Command{
	Use:     "set <node> <key> <value>...",
	GroupID: "edit",
	Short:   "Set the text or a property of a node",
	Long: `Set a property of a node. The key "text" changes the node's text, which
for a node with included text rewrites the included file. Other values are
parsed as YAML scalars, so "true" and "3" are stored as a boolean and a number.
Ids are always stored as text, and the previous id stops resolving.
The due and start properties take dates, written as YYYY-MM-DD or in words.

  outline set '#bob' text "Call Bob today"
  outline set 0/1 done true
  outline set 0/1 due next friday`,
	Args: cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openForEdit(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		id, err := setProperty(s.Tree(), args[0], args[1], strings.Join(args[2:], " "))
		if err != nil {
			return err
		}
		if err := s.Save(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s Updated %s %s\n", ui.RenderPass("✓"), ui.RenderMuted(nodePath(s.Tree(), id)), args[1])
		return nil
	},
}

var rmCmd = &cobra.Command{
	Use:     "rm <node>",
	GroupID: "edit",
	Short:   "Remove a node and its children",
	Long: `Remove a node and everything below it. A node stored in its own file is
unlinked from its parent; the file itself is left on disk.

When run in a terminal, removing a node that has children asks for
confirmation unless --force is given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openForEdit(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		if !rmForce && ui.IsTerminal(cmd.InOrStdin()) {
			if err := confirmRemove(s.Tree(), args[0]); err != nil {
				return err
			}
		}

		text, err := removeNode(s.Tree(), args[0])
		if err != nil {
			return err
		}
		if err := s.Save(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s Removed %s\n", ui.RenderPass("✓"), text)
		return nil
	},
}

var mvCmd = &cobra.Command{
	Use:     "mv <node> <parent> [index]",
	GroupID: "edit",
	Short:   "Move a node under another parent",
	Long: `Move a node and its children so that it becomes the index-th child of
parent, or its last child when no index is given. Moving a node into a
subtree stored in another file moves its entry into that file.`,
	Args: cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		index := -1
		if len(args) == 3 {
			i, err := strconv.Atoi(args[2])
			if err != nil || i < 0 {
				return fmt.Errorf("invalid index %q", args[2])
			}
			index = i
		}

		s, err := openForEdit(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		id, err := moveNode(s.Tree(), args[0], args[1], index)
		if err != nil {
			return err
		}
		if err := s.Save(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s Moved %s to %s\n", ui.RenderPass("✓"), s.Tree().Text(id), ui.RenderMuted(nodePath(s.Tree(), id)))
		return nil
	},
}

func init() {
	addCmd.Flags().StringVarP(&addParent, "parent", "p", "/", "Parent node (#id or index path)")
	addCmd.Flags().IntVarP(&addIndex, "index", "i", -1, "Position among the parent's children (default: last)")
	addCmd.Flags().StringVar(&addID, "id", "", "Id of the new node")
	rmCmd.Flags().BoolVarP(&rmForce, "force", "F", false, "Remove without asking for confirmation")

	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(mvCmd)
}

// addNode creates a node under parentRef. A negative index appends.
func addNode(t *tree.Tree, parentRef string, index int, text, id string) (tree.NodeID, error) {
	parent, err := resolveNode(t, parentRef)
	if err != nil {
		return tree.None, err
	}
	if index < 0 {
		index = len(t.Children(parent))
	}
	var props map[string]any
	if id != "" {
		props = map[string]any{"id": id}
	}
	n, err := t.CreateChild(parent, index, text, props, nil)
	if err != nil {
		return tree.None, err
	}
	if id != "" {
		t.RegisterID(id, n)
	}
	return n, nil
}

func setProperty(t *tree.Tree, ref, key, raw string) (tree.NodeID, error) {
	id, err := resolveNode(t, ref)
	if err != nil {
		return tree.None, err
	}
	if id == t.Root() {
		return tree.None, fmt.Errorf("the root node has no properties")
	}

	var value any = raw
	switch {
	case dateKeys[key]:
		d, err := parseDate(raw, time.Now())
		if err != nil {
			return tree.None, err
		}
		value = d
	case key != "text" && key != "id":
		value = parseValue(raw)
	}

	prev, _ := t.Property(id, "id")
	if err := t.SetProperty(id, key, value); err != nil {
		return tree.None, err
	}
	if key == "id" {
		if old, ok := prev.(string); ok {
			t.UnregisterID(old, id)
		}
		t.RegisterID(raw, id)
	}
	return id, nil
}

// parseValue reads raw as a YAML scalar, falling back to the raw string.
func parseValue(raw string) any {
	var v any
	if err := yaml.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	switch v.(type) {
	case nil, map[string]any, []any:
		return raw
	}
	return v
}

// parseDate reads a date written as YYYY-MM-DD or in words ("tomorrow",
// "next friday") relative to now, and returns it as YYYY-MM-DD.
func parseDate(raw string, now time.Time) (string, error) {
	raw = strings.TrimSpace(raw)
	if d, err := time.Parse(time.DateOnly, raw); err == nil {
		return d.Format(time.DateOnly), nil
	}
	r, err := dateParser.Parse(raw, now)
	if err != nil {
		return "", fmt.Errorf("failed to parse date %q: %w", raw, err)
	}
	if r == nil {
		return "", fmt.Errorf("invalid date %q", raw)
	}
	return r.Time.Format(time.DateOnly), nil
}

// confirmRemove asks before removing a node with children.
func confirmRemove(t *tree.Tree, ref string) error {
	id, err := resolveNode(t, ref)
	if err != nil {
		return err
	}
	n := len(t.Walk(id)) - 1
	if n == 0 {
		return nil
	}

	confirmed := false
	err = huh.NewConfirm().
		Title(fmt.Sprintf("Remove %q and %d node(s) below it?", t.Text(id), n)).
		Affirmative("Remove").
		Negative("Cancel").
		Value(&confirmed).
		Run()
	if err != nil {
		return err
	}
	if !confirmed {
		return errCanceled
	}
	return nil
}

func removeNode(t *tree.Tree, ref string) (string, error) {
	id, err := resolveNode(t, ref)
	if err != nil {
		return "", err
	}
	text := t.Text(id)
	if err := t.Remove(id); err != nil {
		return "", err
	}
	return text, nil
}

// moveNode moves the node at ref under parentRef. A negative index makes it
// the last child.
func moveNode(t *tree.Tree, ref, parentRef string, index int) (tree.NodeID, error) {
	id, err := resolveNode(t, ref)
	if err != nil {
		return tree.None, err
	}
	parent, err := resolveNode(t, parentRef)
	if err != nil {
		return tree.None, err
	}
	if index < 0 {
		index = len(t.Children(parent))
		if t.Parent(id) == parent {
			index--
		}
	}
	if err := t.Move(id, parent, index); err != nil {
		return tree.None, err
	}
	return id, nil
}
