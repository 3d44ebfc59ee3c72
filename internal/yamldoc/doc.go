// Package yamldoc implements round-trip editing of YAML documents on top of
// the gopkg.in/yaml.v3 node API.
//
// A Document keeps the parsed node graph of one file. Callers query and
// mutate mapping and sequence nodes in place and serialize the document back
// with Encode; comments and the layout of untouched nodes survive the round
// trip. The "!!include <path>" tag is recognized on parse and emitted
// unchanged on encode.
package yamldoc

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Indent is the indentation used when encoding documents.
const Indent = 2

// Document is a parsed, mutable YAML document.
type Document struct {
	node *yaml.Node
}

// Parse parses YAML text into a Document. Empty input yields a document
// without a root value.
func Parse(data []byte) (*Document, error) {
	var n yaml.Node
	if err := yaml.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if n.Kind == 0 {
		n = yaml.Node{Kind: yaml.DocumentNode}
	}
	return &Document{node: &n}, nil
}

// New returns a document whose root value is root.
func New(root *yaml.Node) *Document {
	return &Document{node: &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}}}
}

// Root returns the top-level value of the document, or nil.
func (d *Document) Root() *yaml.Node {
	if d == nil || len(d.node.Content) == 0 {
		return nil
	}
	return resolve(d.node.Content[0])
}

// Encode serializes the document.
func (d *Document) Encode() ([]byte, error) {
	if len(d.node.Content) == 0 {
		return nil, nil
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(Indent)
	if err := enc.Encode(d.node); err != nil {
		return nil, fmt.Errorf("failed to encode YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode YAML: %w", err)
	}
	return buf.Bytes(), nil
}

// String returns the encoded document, or an empty string on failure.
func (d *Document) String() string {
	b, err := d.Encode()
	if err != nil {
		return ""
	}
	return string(b)
}

func resolve(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

// IsMapping reports whether n is a mapping node.
func IsMapping(n *yaml.Node) bool {
	n = resolve(n)
	return n != nil && n.Kind == yaml.MappingNode
}

// IsSequence reports whether n is a sequence node.
func IsSequence(n *yaml.Node) bool {
	n = resolve(n)
	return n != nil && n.Kind == yaml.SequenceNode
}

// StringValue returns the value of a plain string scalar. Scalars tagged
// with anything other than !!str, including !!include, do not qualify.
func StringValue(n *yaml.Node) (string, bool) {
	n = resolve(n)
	if n == nil || n.Kind != yaml.ScalarNode || n.ShortTag() != "!!str" {
		return "", false
	}
	return n.Value, true
}
