package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/steveyegge/outline/internal/storage"
	"github.com/steveyegge/outline/internal/ui"
	"github.com/steveyegge/outline/internal/yamldoc"
)

var lsAll bool

var lsCmd = &cobra.Command{
	Use:     "ls",
	GroupID: "view",
	Short:   "List the files in the outline directory",
	Long: `List the outline files in the outline directory: YAML documents and the
raw text files they can include. Files that are part of the loaded outline
are marked with a check.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fsys := storage.NewDir(cfg.Dir)
		files, err := fsys.Files(cmd.Context())
		if err != nil {
			return err
		}

		owns := func(string) bool { return false }
		if s, _, err := openStore(cmd.Context(), fsys, cfg.StoreThrottle()); err == nil {
			defer s.Close()
			owns = s.Owns
		} else if !errors.Is(err, storage.ErrNotExist) {
			return err
		}

		out := cmd.OutOrStdout()
		for _, name := range files {
			if !lsAll && !storage.IsOutlineFile(name) {
				continue
			}
			mark := " "
			if owns(name) {
				mark = ui.RenderPass("✓")
			}
			line := fmt.Sprintf("%s %s", mark, name)
			if name == cfg.Root {
				line += " " + ui.RenderMuted("(root)")
			}
			fmt.Fprintln(out, line)
		}
		return nil
	},
}

var initCmd = &cobra.Command{
	Use:   "init [item...]",
	Short: "Create a new outline file",
	Long: `Create the root outline file with the given items. Fails if the file
already exists.

  outline init "Buy milk" "Call Bob"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		items := yamldoc.NewSequence()
		for _, text := range args {
			yamldoc.Insert(items, len(items.Content), yamldoc.NewString(text))
		}
		root := yamldoc.NewMapping()
		yamldoc.Set(root, "items", items)

		contents, err := yamldoc.New(root).Encode()
		if err != nil {
			return err
		}
		if err := storage.NewDir(cfg.Dir).Create(cmd.Context(), cfg.Root, string(contents)); err != nil {
			if errors.Is(err, storage.ErrExist) {
				return fmt.Errorf("%s already exists", cfg.RootPath())
			}
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s Created %s\n", ui.RenderPass("✓"), cfg.RootPath())
		return nil
	},
}

func init() {
	lsCmd.Flags().BoolVarP(&lsAll, "all", "a", false, "List all files, not only outline files")

	rootCmd.AddCommand(lsCmd)
	rootCmd.AddCommand(initCmd)
}
