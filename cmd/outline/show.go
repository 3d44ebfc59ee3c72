package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/steveyegge/outline/internal/storage"
	"github.com/steveyegge/outline/internal/store"
	"github.com/steveyegge/outline/internal/tree"
	"github.com/steveyegge/outline/internal/ui"
)

var errCheckFailed = errors.New("outline has problems")

var showPaths bool

var showCmd = &cobra.Command{
	Use:     "show [node]",
	GroupID: "view",
	Short:   "Print the outline or a subtree",
	Long: `Print the outline as an indented list.

Nodes stored in their own file are followed by the file name in brackets,
nodes whose text comes from a raw file by the file name in angle brackets,
and nodes with an id by #id. With --paths every line starts with the index
path that addresses the node.

Problems found while loading are printed to stderr; the rest of the outline
is still shown.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, problems, err := openStore(cmd.Context(), storage.NewDir(cfg.Dir), cfg.StoreThrottle())
		if err != nil {
			return err
		}
		defer s.Close()
		reportProblems(cmd.ErrOrStderr(), problems)

		t := s.Tree()
		if t.Root() == tree.None {
			return fmt.Errorf("cannot show %s: %w", cfg.RootPath(), store.ErrNotLoaded)
		}

		ref := ""
		if len(args) == 1 {
			ref = args[0]
		}
		id, err := resolveNode(t, ref)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		depth := 0
		if id == t.Root() {
			fmt.Fprintln(out, ui.RenderBold(cfg.Root))
		} else {
			fmt.Fprintln(out, renderNode(s, id, 0))
			depth = 1
		}
		renderChildren(out, s, id, depth)
		return nil
	},
}

var checkCmd = &cobra.Command{
	Use:     "check",
	GroupID: "view",
	Short:   "Report problems in the outline files",
	Long: `Load the outline and list every problem found: missing or recursive
includes, included files that are not outlines, and entries without text.

Exits with a non-zero status when any problem is found.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, problems, err := openStore(cmd.Context(), storage.NewDir(cfg.Dir), cfg.StoreThrottle())
		if err != nil {
			return err
		}
		defer s.Close()

		out := cmd.OutOrStdout()
		if len(problems) > 0 {
			reportProblems(out, problems)
			fmt.Fprintf(out, "\n%s %s: %d problem(s)\n", ui.RenderFail("✗"), cfg.Root, len(problems))
			return errCheckFailed
		}

		t := s.Tree()
		nodes := len(t.Walk(t.Root())) - 1
		fmt.Fprintf(out, "%s %s: %d node(s) in %d file(s)\n", ui.RenderPass("✓"), cfg.Root, nodes, len(s.Units()))
		return nil
	},
}

func init() {
	showCmd.Flags().BoolVar(&showPaths, "paths", false, "Prefix every node with its index path")

	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(checkCmd)
}

func renderChildren(w io.Writer, s *store.Store, id tree.NodeID, depth int) {
	t := s.Tree()
	for _, c := range t.Children(id) {
		fmt.Fprintln(w, renderNode(s, c, depth))
		renderChildren(w, s, c, depth+1)
	}
}

// renderNode formats one line of the outline. Only the first line of a
// multi-line text is shown.
func renderNode(s *store.Store, id tree.NodeID, depth int) string {
	t := s.Tree()

	text := t.Text(id)
	if first, _, multi := strings.Cut(text, "\n"); multi {
		text = first + " …"
	}

	var b strings.Builder
	b.WriteString(strings.Repeat("  ", depth))
	if showPaths {
		b.WriteString(ui.RenderMuted(nodePath(t, id)))
		b.WriteString(" ")
	}
	b.WriteString("- ")
	b.WriteString(text)

	if v, ok := t.Property(id, "id"); ok {
		if ext, ok := v.(string); ok {
			b.WriteString(" ")
			b.WriteString(ui.RenderAccent("#" + ext))
		}
	}
	if binding, ok := s.Binding(id); ok {
		if fb, ok := binding.(*store.FileBinding); ok {
			b.WriteString(" ")
			b.WriteString(ui.RenderMuted("[" + fb.Filename() + "]"))
		}
		if binding.TextKind() == store.TextIncluded {
			if u := s.Unit(store.Included(binding)); u != nil {
				b.WriteString(" ")
				b.WriteString(ui.RenderMuted("<" + u.Filename() + ">"))
			}
		}
	}
	return b.String()
}
