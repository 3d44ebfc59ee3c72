package ui

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestSetup_PlainOutputOffTerminal(t *testing.T) {
	var buf bytes.Buffer
	Setup(&buf)

	for name, render := range map[string]func(string) string{
		"accent": RenderAccent,
		"pass":   RenderPass,
		"warn":   RenderWarn,
		"fail":   RenderFail,
		"muted":  RenderMuted,
		"bold":   RenderBold,
	} {
		if got := render("x"); got != "x" {
			t.Errorf("%s rendered %q off a terminal, want plain text", name, got)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "out")
	if err != nil {
		t.Fatalf("CreateTemp() failed: %v", err)
	}
	defer f.Close()

	for name, v := range map[string]any{
		"writer": &bytes.Buffer{},
		"reader": strings.NewReader("x"),
		"file":   f,
		"nil":    nil,
	} {
		if IsTerminal(v) {
			t.Errorf("IsTerminal(%s) = true, want false", name)
		}
	}
}
