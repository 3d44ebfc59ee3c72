package yamldoc

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

func mustParse(t *testing.T, src string) *Document {
	t.Helper()

	doc, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return doc
}

func TestParseEncodeRoundTrip(t *testing.T) {
	src := "# outline\nitems:\n  - Buy milk # today\n  - text: Call Bob\n    notes:\n      - Leave message\n"

	doc := mustParse(t, src)
	got := doc.String()
	if got != src {
		t.Errorf("round trip mismatch:\n%s", cmp.Diff(src, got))
	}
}

func TestIncludeTag(t *testing.T) {
	src := "items:\n  - text: !!include body.md\n  - !!include sub.yaml\n"
	doc := mustParse(t, src)

	items, _ := Get(doc.Root(), "items")
	if !IsSequence(items) {
		t.Fatalf("items is not a sequence")
	}

	text, key := Get(items.Content[0], TextKeys...)
	if key != "text" {
		t.Fatalf("text key = %q, want text", key)
	}
	path, ok, err := IncludePath(text)
	if err != nil || !ok || path != "body.md" {
		t.Errorf("IncludePath() = %q, %v, %v; want body.md, true, nil", path, ok, err)
	}

	path, ok, err = WholeInclude(items.Content[1])
	if err != nil || !ok || path != "sub.yaml" {
		t.Errorf("WholeInclude() = %q, %v, %v; want sub.yaml, true, nil", path, ok, err)
	}

	if got := doc.String(); got != src {
		t.Errorf("include tag not preserved:\n%s", cmp.Diff(src, got))
	}
}

func TestIncludeTagRejectsNonPlain(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"quoted", "x: !!include \"a.md\"\n"},
		{"sequence", "x: !!include [a.md]\n"},
		{"mapping", "x: !!include {a: b}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := mustParse(t, tt.src)
			v, _ := Get(doc.Root(), "x")
			if _, _, err := IncludePath(v); !errors.Is(err, ErrInvalidInclude) {
				t.Errorf("IncludePath() error = %v, want ErrInvalidInclude", err)
			}
		})
	}
}

func TestWholeIncludeMapping(t *testing.T) {
	tests := []struct {
		src    string
		path   string
		wantOK bool
	}{
		{"__include__: a.yaml\n", "a.yaml", true},
		{"__include__: !!include a.yaml\n", "a.yaml", true},
		{"text: hello\n", "", false},
		{"plain\n", "", false},
	}

	for _, tt := range tests {
		doc := mustParse(t, tt.src)
		path, ok, err := WholeInclude(doc.Root())
		if err != nil {
			t.Fatalf("WholeInclude(%q) error = %v", tt.src, err)
		}
		if ok != tt.wantOK || path != tt.path {
			t.Errorf("WholeInclude(%q) = %q, %v; want %q, %v", tt.src, path, ok, tt.path, tt.wantOK)
		}
	}
}

func TestGetPriority(t *testing.T) {
	doc := mustParse(t, "children: [c]\nitems: [i]\nnotes: [n]\n")

	v, key := Get(doc.Root(), ChildrenKeys...)
	if key != "notes" || v.Content[0].Value != "n" {
		t.Errorf("Get() key = %q, want notes", key)
	}

	first := GetFunc(doc.Root(), func(k string) bool { return k == "items" || k == "children" })
	if first.Content[0].Value != "c" {
		t.Errorf("GetFunc() picked %q, want document order", first.Content[0].Value)
	}
}

func TestSetUpdatesOrAppends(t *testing.T) {
	doc := mustParse(t, "text: a\nid: x\n")
	m := doc.Root()

	Set(m, "text", NewString("b"))
	Set(m, "status", NewString("open"))

	want := "text: b\nid: x\nstatus: open\n"
	if got := doc.String(); got != want {
		t.Errorf("Set() result:\n%s", cmp.Diff(want, got))
	}
}

func TestSequenceSplice(t *testing.T) {
	doc := mustParse(t, "- a\n- b\n- c\n")
	seq := doc.Root()

	Insert(seq, 1, NewString("x"))
	Insert(seq, 99, NewString("z"))
	if err := RemoveAt(seq, 0); err != nil {
		t.Fatalf("RemoveAt() error = %v", err)
	}
	if err := RemoveAt(seq, 10); err == nil {
		t.Errorf("RemoveAt() out of range succeeded")
	}

	var got []string
	for _, c := range seq.Content {
		got = append(got, c.Value)
	}
	if diff := cmp.Diff([]string{"x", "b", "c", "z"}, got); diff != "" {
		t.Errorf("sequence mismatch (-want +got):\n%s", diff)
	}
	if IndexOf(seq, seq.Content[2]) != 2 {
		t.Errorf("IndexOf() did not find entry")
	}
}

func TestInsertIntoEmptyFlowSequence(t *testing.T) {
	doc := mustParse(t, "items: []\n")
	seq, _ := Get(doc.Root(), "items")

	Insert(seq, 0, NewString("a"))
	if got, want := doc.String(), "items:\n  - a\n"; got != want {
		t.Errorf("encoded = %q, want %q", got, want)
	}

	doc = mustParse(t, "items: [a]\n")
	seq, _ = Get(doc.Root(), "items")
	Insert(seq, 1, NewString("b"))
	if got, want := doc.String(), "items: [a, b]\n"; got != want {
		t.Errorf("non-empty flow sequence changed style: %q, want %q", got, want)
	}
}

func TestNewRecord(t *testing.T) {
	m, err := NewRecord("Call Bob", map[string]any{"id": "bob", "done": true, "text": "ignored"})
	if err != nil {
		t.Fatalf("NewRecord() error = %v", err)
	}

	got := New(m).String()
	want := "text: Call Bob\ndone: true\nid: bob\n"
	if got != want {
		t.Errorf("NewRecord() encoded:\n%s", cmp.Diff(want, got))
	}
}

func TestStringValue(t *testing.T) {
	doc := mustParse(t, "a: hello\nb: 42\nc: '42'\nd: !!include x.md\n")
	m := doc.Root()

	tests := map[string]bool{"a": true, "b": false, "c": true, "d": false}
	for key, want := range tests {
		v, _ := Get(m, key)
		if _, ok := StringValue(v); ok != want {
			t.Errorf("StringValue(%s) ok = %v, want %v", key, ok, want)
		}
	}
}

func TestValue(t *testing.T) {
	doc := mustParse(t, "id: x\ntags: [a, b]\ntext: !!include t.md\nn: 3\n")

	v, err := Value(doc.Root())
	if err != nil {
		t.Fatalf("Value() error = %v", err)
	}
	want := map[string]any{
		"id":   "x",
		"tags": []any{"a", "b"},
		"text": Include{Path: "t.md"},
		"n":    3,
	}
	if diff := cmp.Diff(want, v); diff != "" {
		t.Errorf("Value() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseErrors(t *testing.T) {
	if _, err := Parse([]byte("items: [a\n")); err == nil {
		t.Errorf("Parse() accepted malformed YAML")
	}

	doc, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse(nil) error = %v", err)
	}
	if doc.Root() != nil {
		t.Errorf("empty document has a root")
	}
	if b, _ := doc.Encode(); len(b) != 0 {
		t.Errorf("empty document encodes to %q", b)
	}
}

func TestNewIncludeEncodes(t *testing.T) {
	m := NewMapping()
	Set(m, "text", NewInclude("body.md"))

	got := New(m).String()
	if !strings.Contains(got, "!!include body.md") {
		t.Errorf("encoded include = %q", got)
	}

	var back yaml.Node
	if err := yaml.Unmarshal([]byte(got), &back); err != nil {
		t.Fatalf("re-parse error = %v", err)
	}
}
