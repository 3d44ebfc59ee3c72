package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/steveyegge/outline/internal/storage"
	"github.com/steveyegge/outline/internal/store"
	"github.com/steveyegge/outline/internal/tree"
	"github.com/steveyegge/outline/internal/ui"
)

var errUnknownCommand = errors.New("unknown command")

var watchCmd = &cobra.Command{
	Use:     "watch",
	GroupID: "edit",
	Short:   "Keep the outline loaded, reloading on external changes",
	Long: `Keep the outline loaded and reload it whenever one of its files is
changed by another program. Changes written by watch itself are ignored.

Edit commands can be typed on stdin, one per line:

  add <parent> <text>          append a node under parent
  set <node> <key> <value>     set the text or a property
  rm <node>                    remove a node
  mv <node> <parent> [index]   move a node
  save                         write pending changes now
  show                         print the outline

Edits are saved once they settle for the watch throttle. Pending changes are
written when watch stops.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		fsys := storage.NewDir(cfg.Dir)
		s, problems, err := openStore(ctx, fsys, cfg.WatchStoreThrottle())
		if err != nil {
			return err
		}
		defer s.Close()

		out := cmd.OutOrStdout()
		reportProblems(cmd.ErrOrStderr(), problems)

		w, err := storage.NewWatcher()
		if err != nil {
			return err
		}
		if err := w.Start(cfg.Dir); err != nil {
			return err
		}
		defer w.Stop()

		lines := make(chan string)
		go readLines(ctx, cmd.InOrStdin(), lines)

		fmt.Fprintf(out, "%s Watching %s\n", ui.RenderAccent("👀"), cfg.RootPath())
		fmt.Fprintf(out, "Press Ctrl+C to stop\n\n")

		for {
			select {
			case <-ctx.Done():
				return shutdown(out, s)

			case line, ok := <-lines:
				if !ok {
					lines = nil
					continue
				}
				if err := runLine(out, s, line); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s %v\n", ui.RenderFail("✗"), err)
				}

			case ev, ok := <-w.Events():
				if !ok {
					return shutdown(out, s)
				}
				if !needsReload(ctx, s, fsys, ev) {
					continue
				}
				if s.Dirty() {
					logger.Printf("WARNING: %s changed on disk; discarding unsaved edits", ev.Name)
				}
				problems, err := s.Load(ctx, cfg.Root)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s %v\n", ui.RenderFail("✗"), err)
					continue
				}
				fmt.Fprintf(out, "%s Reloaded after %s of %s\n", ui.RenderAccent("↻"), ev.Op, ev.Name)
				reportProblems(cmd.ErrOrStderr(), problems)

			case err, ok := <-w.Errors():
				if ok {
					logger.Printf("WARNING: watcher: %v", err)
				}
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func readLines(ctx context.Context, r io.Reader, lines chan<- string) {
	defer close(lines)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		select {
		case lines <- sc.Text():
		case <-ctx.Done():
			return
		}
	}
}

// needsReload reports whether an event changed a file of the outline in a
// way the store has not seen. Files named by includes that failed to load
// are considered too, so that fixing them loads them.
func needsReload(ctx context.Context, s *store.Store, fsys storage.FS, ev storage.FileEvent) bool {
	if !s.Owns(ev.Name) {
		return s.Refers(ev.Name) && ev.Op != storage.OpDelete
	}
	if ev.Op == storage.OpDelete {
		return true
	}
	contents, err := fsys.Read(ctx, ev.Name)
	if err != nil {
		return true
	}
	return s.Stale(ev.Name, contents)
}

func shutdown(out io.Writer, s *store.Store) error {
	if !s.Dirty() {
		return nil
	}
	if err := s.Save(context.Background()); err != nil {
		return err
	}
	fmt.Fprintf(out, "%s Saved pending changes\n", ui.RenderPass("✓"))
	return nil
}

// runLine applies one edit command typed while watching.
func runLine(out io.Writer, s *store.Store, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	t := s.Tree()
	if t.Root() == tree.None && fields[0] != "save" {
		return store.ErrNotLoaded
	}

	switch cmd, args := fields[0], fields[1:]; cmd {
	case "add":
		if len(args) < 2 {
			return fmt.Errorf("usage: add <parent> <text>")
		}
		id, err := addNode(t, args[0], -1, strings.Join(args[1:], " "), "")
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s Added %s\n", ui.RenderPass("✓"), ui.RenderMuted(nodePath(t, id)))
	case "set":
		if len(args) < 3 {
			return fmt.Errorf("usage: set <node> <key> <value>")
		}
		if _, err := setProperty(t, args[0], args[1], strings.Join(args[2:], " ")); err != nil {
			return err
		}
	case "rm":
		if len(args) != 1 {
			return fmt.Errorf("usage: rm <node>")
		}
		if _, err := removeNode(t, args[0]); err != nil {
			return err
		}
	case "mv":
		if len(args) < 2 || len(args) > 3 {
			return fmt.Errorf("usage: mv <node> <parent> [index]")
		}
		index := -1
		if len(args) == 3 {
			i, err := strconv.Atoi(args[2])
			if err != nil || i < 0 {
				return fmt.Errorf("invalid index %q", args[2])
			}
			index = i
		}
		if _, err := moveNode(t, args[0], args[1], index); err != nil {
			return err
		}
	case "save":
		if err := s.Save(context.Background()); err != nil {
			return err
		}
		fmt.Fprintf(out, "%s Saved\n", ui.RenderPass("✓"))
	case "show":
		fmt.Fprintln(out, ui.RenderBold(cfg.Root))
		renderChildren(out, s, t.Root(), 0)
	default:
		return fmt.Errorf("%w: %s", errUnknownCommand, cmd)
	}
	return nil
}
