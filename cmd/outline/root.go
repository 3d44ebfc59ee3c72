package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/steveyegge/outline/internal/config"
	"github.com/steveyegge/outline/internal/logging"
	"github.com/steveyegge/outline/internal/storage"
	"github.com/steveyegge/outline/internal/store"
	"github.com/steveyegge/outline/internal/tree"
	"github.com/steveyegge/outline/internal/ui"
)

var (
	cfg    *config.Config
	logger *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "outline",
	Short: "Edit YAML outlines from the command line",
	Long: `outline reads and edits outlines stored as YAML files.

An outline is a root file with an items (or notes) list. Entries are plain
strings or mappings with a text field, an optional id and nested notes.
Entries can live in their own files through __include__, and a node's text
can come from a raw file through the !!include tag:

  items:
    - Buy milk
    - text: Call Bob
      id: bob
      notes:
        - Leave message
    - text: !!include letter.md
    - __include__: projects.yaml

Nodes are addressed by id (#bob) or by index path from the root (1/0).
Edits rewrite only the files they touch and keep comments intact.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		v := config.New()
		if err := config.BindFlags(v, cmd.Flags()); err != nil {
			return err
		}
		c, err := config.Load(v)
		if err != nil {
			return err
		}
		cfg = c

		if logger != nil {
			_ = logger.Close()
		}
		logger = logging.New("[outline] ", logging.Options{
			Verbose:   cfg.Verbose,
			File:      cfg.LogFile,
			MaxSizeMB: cfg.LogMaxSizeMB,
			Stderr:    cmd.ErrOrStderr(),
		})
		ui.Setup(cmd.OutOrStdout())
		return nil
	},
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: "view", Title: "Viewing:"},
		&cobra.Group{ID: "edit", Title: "Editing:"},
	)

	flags := rootCmd.PersistentFlags()
	flags.StringP("dir", "C", ".", "Outline directory")
	flags.StringP("root", "f", "outline.yaml", "Root file of the outline, relative to the directory")
	flags.String("throttle", config.ThrottleNever, "Quiet period before edits are saved automatically (duration or \"never\")")
	flags.String("watch-throttle", "500ms", "Save throttle used by watch")
	flags.String("log-file", "", "Write logs to this file, rotated by size")
	flags.BoolP("verbose", "v", false, "Log to stderr")
}

// openStore loads the configured outline. Problems found while loading are
// returned alongside the store; the tree is empty when the root file is not
// a valid outline.
func openStore(ctx context.Context, fsys storage.FS, throttle time.Duration) (*store.Store, []string, error) {
	s, err := store.NewWithConfig(fsys, &store.Config{
		Throttle: throttle,
		Logger:   logger.Named("[store] "),
	})
	if err != nil {
		return nil, nil, err
	}
	problems, err := s.Load(ctx, cfg.Root)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load %s: %w", cfg.RootPath(), err)
	}
	return s, problems, nil
}

// openForEdit loads the outline for a command that changes it. Problems are
// reported as warnings; edits leave the rejected entries in place.
func openForEdit(cmd *cobra.Command) (*store.Store, error) {
	s, problems, err := openStore(cmd.Context(), storage.NewDir(cfg.Dir), cfg.StoreThrottle())
	if err != nil {
		return nil, err
	}
	if s.Tree().Root() == tree.None {
		reportProblems(cmd.ErrOrStderr(), problems)
		return nil, fmt.Errorf("cannot edit %s: %w", cfg.RootPath(), store.ErrNotLoaded)
	}
	for _, p := range problems {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s %s\n", ui.RenderWarn("⚠"), p)
	}
	return s, nil
}

func reportProblems(w io.Writer, problems []string) {
	for _, p := range problems {
		fmt.Fprintf(w, "%s %s\n", ui.RenderFail("✗"), p)
	}
}
