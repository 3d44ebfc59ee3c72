package yamldoc

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// Key lists in lookup priority.
var (
	TextKeys     = []string{"text", "title", "note"}
	ChildrenKeys = []string{"notes", "items", "children"}
)

// Get returns the value stored under the first of keys present in the
// mapping m, together with the matching key. Keys are tried in the given
// order, not in document order.
func Get(m *yaml.Node, keys ...string) (*yaml.Node, string) {
	m = resolve(m)
	if m == nil || m.Kind != yaml.MappingNode {
		return nil, ""
	}
	for _, key := range keys {
		for i := 0; i+1 < len(m.Content); i += 2 {
			if m.Content[i].Value == key {
				return resolve(m.Content[i+1]), key
			}
		}
	}
	return nil, ""
}

// GetFunc returns the first value in document order whose key satisfies pred.
func GetFunc(m *yaml.Node, pred func(key string) bool) *yaml.Node {
	m = resolve(m)
	if m == nil || m.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if pred(m.Content[i].Value) {
			return resolve(m.Content[i+1])
		}
	}
	return nil
}

// Set stores value under key in the mapping m, replacing the existing value
// in place or appending a new entry.
func Set(m *yaml.Node, key string, value *yaml.Node) {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			m.Content[i+1] = value
			return
		}
	}
	m.Content = append(m.Content, NewString(key), value)
}

// Keys returns the keys of the mapping m in document order.
func Keys(m *yaml.Node) []string {
	m = resolve(m)
	if m == nil || m.Kind != yaml.MappingNode {
		return nil
	}
	keys := make([]string, 0, len(m.Content)/2)
	for i := 0; i+1 < len(m.Content); i += 2 {
		keys = append(keys, m.Content[i].Value)
	}
	return keys
}

// Insert splices n into the sequence seq at index i. An index past the end
// appends. An empty flow sequence such as "[]" switches to block style.
func Insert(seq *yaml.Node, i int, n *yaml.Node) {
	if len(seq.Content) == 0 {
		seq.Style &^= yaml.FlowStyle
	}
	if i < 0 {
		i = 0
	}
	if i > len(seq.Content) {
		i = len(seq.Content)
	}
	seq.Content = append(seq.Content, nil)
	copy(seq.Content[i+1:], seq.Content[i:])
	seq.Content[i] = n
}

// RemoveAt removes the i-th entry of the sequence seq.
func RemoveAt(seq *yaml.Node, i int) error {
	if i < 0 || i >= len(seq.Content) {
		return fmt.Errorf("sequence index %d out of range [0,%d)", i, len(seq.Content))
	}
	seq.Content = append(seq.Content[:i], seq.Content[i+1:]...)
	return nil
}

// IndexOf returns the position of n among the entries of seq, or -1.
func IndexOf(seq *yaml.Node, n *yaml.Node) int {
	for i, c := range seq.Content {
		if c == n {
			return i
		}
	}
	return -1
}

// NewString returns a string scalar node.
func NewString(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

// NewSequence returns an empty block sequence node.
func NewSequence() *yaml.Node {
	return &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
}

// NewMapping returns an empty block mapping node.
func NewMapping() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
}

// FromValue converts a Go value into a node. Strings become string scalars;
// other values are encoded by yaml.v3.
func FromValue(v any) (*yaml.Node, error) {
	switch v := v.(type) {
	case string:
		return NewString(v), nil
	case *yaml.Node:
		return v, nil
	}
	var n yaml.Node
	if err := n.Encode(v); err != nil {
		return nil, fmt.Errorf("failed to encode %T: %w", v, err)
	}
	return &n, nil
}

// NewRecord builds a mapping with "text" first followed by the remaining
// properties in sorted key order.
func NewRecord(text string, props map[string]any) (*yaml.Node, error) {
	m := NewMapping()
	m.Content = append(m.Content, NewString("text"), NewString(text))
	keys := make([]string, 0, len(props))
	for k := range props {
		if k != "text" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		v, err := FromValue(props[k])
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", k, err)
		}
		m.Content = append(m.Content, NewString(k), v)
	}
	return m, nil
}

// Value converts a node into plain Go values: map[string]any, []any and
// scalars. Include markers become an Include value.
func Value(n *yaml.Node) (any, error) {
	n = resolve(n)
	if n == nil {
		return nil, nil
	}
	if path, ok, err := IncludePath(n); err != nil {
		return nil, err
	} else if ok {
		return Include{Path: path}, nil
	}
	switch n.Kind {
	case yaml.MappingNode:
		out := make(map[string]any, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			v, err := Value(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			out[n.Content[i].Value] = v
		}
		return out, nil
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := Value(c)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return v, nil
	}
	return nil, nil
}
