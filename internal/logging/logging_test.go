package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew_Discard(t *testing.T) {
	var stderr bytes.Buffer
	l := New("[test] ", Options{Stderr: &stderr})
	defer l.Close()

	l.Printf("hidden")
	if stderr.Len() != 0 {
		t.Errorf("quiet logger wrote %q", stderr.String())
	}
}

func TestNew_Verbose(t *testing.T) {
	var stderr bytes.Buffer
	l := New("[test] ", Options{Verbose: true, Stderr: &stderr})
	defer l.Close()

	l.Printf("Saved %s", "outline.yaml")
	if !strings.Contains(stderr.String(), "[test] ") || !strings.Contains(stderr.String(), "Saved outline.yaml") {
		t.Errorf("unexpected output %q", stderr.String())
	}

	stderr.Reset()
	l.Named("[store] ").Printf("WARNING: x")
	if !strings.HasPrefix(stderr.String(), "[store] ") {
		t.Errorf("named logger output %q lacks its prefix", stderr.String())
	}
}

func TestNew_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "outline.log")
	var stderr bytes.Buffer
	l := New("", Options{File: path, Stderr: &stderr})

	l.Printf("to file")
	if err := l.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), "to file") {
		t.Errorf("log file = %q, want the message", data)
	}
	if stderr.Len() != 0 {
		t.Errorf("non-verbose logger wrote to stderr: %q", stderr.String())
	}
}
