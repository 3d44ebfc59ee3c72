package yamldoc

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

const (
	// IncludeTag marks a plain scalar holding the path of another file.
	IncludeTag = "!!include"

	// IncludeKey is the mapping key that sources a whole entry from
	// another YAML file.
	IncludeKey = "__include__"
)

// ErrInvalidInclude is returned when the include tag is applied to anything
// but a plain scalar.
var ErrInvalidInclude = errors.New("!!include must tag a plain scalar path")

// Include is the Go value of an include marker.
type Include struct {
	Path string
}

func isIncludeTag(tag string) bool {
	return tag == IncludeTag || tag == "tag:yaml.org,2002:include"
}

// IncludePath reports whether n is an include marker and returns its path.
// An include tag on a quoted scalar, a mapping or a sequence is an error.
func IncludePath(n *yaml.Node) (string, bool, error) {
	n = resolve(n)
	if n == nil || !isIncludeTag(n.Tag) {
		return "", false, nil
	}
	if n.Kind != yaml.ScalarNode || n.Style&^yaml.TaggedStyle != 0 {
		return "", false, fmt.Errorf("%w (line %d)", ErrInvalidInclude, n.Line)
	}
	return n.Value, true, nil
}

// NewInclude returns an include marker node for path.
func NewInclude(path string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: IncludeTag, Style: yaml.TaggedStyle, Value: path}
}

// WholeInclude reports whether a sequence entry sources its whole content
// from another file: either a bare include marker, or a mapping whose
// __include__ key holds a string or an include marker.
func WholeInclude(entry *yaml.Node) (string, bool, error) {
	entry = resolve(entry)
	if path, ok, err := IncludePath(entry); err != nil || ok {
		return path, ok, err
	}
	v, key := Get(entry, IncludeKey)
	if key == "" {
		return "", false, nil
	}
	if path, ok := StringValue(v); ok {
		return path, true, nil
	}
	return IncludePath(v)
}
