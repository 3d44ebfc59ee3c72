package main

import (
	"bytes"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"golang.org/x/tools/txtar"
	"rsc.io/script"
	"rsc.io/script/scripttest"
)

// outlineCommand runs the outline CLI in-process against the script's
// working directory.
func outlineCommand() script.Cmd {
	return script.Command(
		script.CmdUsage{
			Summary: "run the outline command",
			Args:    "args...",
		},
		func(s *script.State, args ...string) (script.WaitFunc, error) {
			resetFlags(rootCmd)

			var stdout, stderr bytes.Buffer
			rootCmd.SetOut(&stdout)
			rootCmd.SetErr(&stderr)
			rootCmd.SetIn(strings.NewReader(""))
			rootCmd.SetArgs(slices.Concat(args, []string{"-C", s.Getwd()}))
			err := rootCmd.Execute()

			return func(*script.State) (string, string, error) {
				return stdout.String(), stderr.String(), err
			}, nil
		},
	)
}

// TestScripts runs the scripts in testdata. Each script is a txtar archive
// whose files are extracted into a fresh directory. Scripts run one at a
// time since the commands share flag state.
func TestScripts(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "*.txt"))
	if err != nil {
		t.Fatalf("failed to list scripts: %v", err)
	}
	if len(files) == 0 {
		t.Fatal("no scripts in testdata")
	}

	engine := &script.Engine{
		Cmds:  script.DefaultCmds(),
		Conds: script.DefaultConds(),
	}
	engine.Cmds["outline"] = outlineCommand()
	t.Cleanup(func() { resetFlags(rootCmd) })

	for _, file := range files {
		name := strings.TrimSuffix(filepath.Base(file), ".txt")
		t.Run(name, func(t *testing.T) {
			a, err := txtar.ParseFile(file)
			if err != nil {
				t.Fatalf("failed to parse %s: %v", file, err)
			}
			s, err := script.NewState(t.Context(), t.TempDir(), nil)
			if err != nil {
				t.Fatalf("failed to create script state: %v", err)
			}
			if err := s.ExtractFiles(a); err != nil {
				t.Fatalf("failed to extract files: %v", err)
			}
			scripttest.Run(t, engine, s, file, bytes.NewReader(a.Comment))
		})
	}
}
