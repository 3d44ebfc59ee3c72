package store

import (
	"gopkg.in/yaml.v3"

	"github.com/steveyegge/outline/internal/yamldoc"
)

// TextKind tells where the text of a bound node is stored.
type TextKind int

const (
	// TextPlain is a bare scalar list entry without properties.
	TextPlain TextKind = iota
	// TextProperty is a mapping entry with an inline text field.
	TextProperty
	// TextIncluded is text sourced from a separate raw file.
	TextIncluded
)

// String returns a human-readable representation of the text kind.
func (k TextKind) String() string {
	switch k {
	case TextPlain:
		return "plain"
	case TextProperty:
		return "property"
	case TextIncluded:
		return "included"
	default:
		return "unknown"
	}
}

// UnitID addresses a persistable unit of a Store. Handles are valid until
// the next Load.
type UnitID int

// NoUnit is the UnitID of a missing unit.
const NoUnit UnitID = -1

type shape int

const (
	shapeBare shape = iota
	shapeMapping
)

// syntax is the location of a tree node inside a document. The node pointer
// is the same *yaml.Node held by the parent sequence, so in-place changes
// are visible to the document.
type syntax struct {
	node    *yaml.Node
	shape   shape
	seq     *yaml.Node
	text    TextKind
	textKey string

	// included and display are set for TextIncluded only.
	included UnitID
	display  string
}

func newSyntax(n *yaml.Node, text TextKind) syntax {
	sx := syntax{node: n, text: text, textKey: "text", included: NoUnit}
	if yamldoc.IsMapping(n) {
		sx.shape = shapeMapping
		if _, key := yamldoc.Get(n, yamldoc.TextKeys...); key != "" {
			sx.textKey = key
		}
	}
	return sx
}

// mapping returns the mapping node of the binding. A bare scalar is turned
// into {text: <scalar>} in place the first time it is needed, and its text
// becomes a property.
func (sx *syntax) mapping() *yaml.Node {
	if sx.shape == shapeMapping {
		return sx.node
	}
	old := *sx.node
	head, foot := old.HeadComment, old.FootComment
	old.HeadComment, old.FootComment = "", ""
	*sx.node = yaml.Node{
		Kind:        yaml.MappingNode,
		Tag:         "!!map",
		Content:     []*yaml.Node{yamldoc.NewString("text"), &old},
		HeadComment: head,
		FootComment: foot,
	}
	sx.shape = shapeMapping
	sx.textKey = "text"
	if sx.text == TextPlain {
		sx.text = TextProperty
	}
	return sx.node
}

// children returns the sequence holding the bound node's children, adding
// an empty "children" sequence on first need.
func (sx *syntax) children() *yaml.Node {
	if sx.seq != nil {
		return sx.seq
	}
	m := sx.mapping()
	if seq, _ := yamldoc.Get(m, yamldoc.ChildrenKeys...); yamldoc.IsSequence(seq) {
		sx.seq = seq
		return seq
	}
	sx.seq = yamldoc.NewSequence()
	yamldoc.Set(m, "children", sx.seq)
	return sx.seq
}

// setText stores text in the document, keeping the current shape.
func (sx *syntax) setText(text string) {
	if sx.shape == shapeBare {
		sx.node.Kind = yaml.ScalarNode
		sx.node.Tag = "!!str"
		sx.node.Style = 0
		sx.node.Value = text
		return
	}
	yamldoc.Set(sx.node, sx.textKey, yamldoc.NewString(text))
}

// Binding associates a tree node with its location in a document. It is
// either a *FileBinding or a *ChildBinding.
type Binding interface {
	// Owner is the unit whose document holds the binding's children and
	// properties.
	Owner() UnitID
	// TextKind reports where the node's text is stored.
	TextKind() TextKind

	syntax() *syntax
	// entry is the node held by the parent sequence.
	entry() *yaml.Node
}

// unitState is the persisted state shared by all units.
type unitState struct {
	filename string
	contents string
	dirty    bool
}

// Unit is a persistable file: a *FileBinding or an *IncludedFile.
type Unit interface {
	Filename() string
	Dirty() bool

	state() *unitState
}

func (u *unitState) Filename() string { return u.filename }
func (u *unitState) Dirty() bool { return u.dirty }
func (u *unitState) state() *unitState { return u }

// FileBinding binds a node that is the root of its own file.
type FileBinding struct {
	unitState
	sx  syntax
	id  UnitID
	doc *yamldoc.Document
	// ref is the entry referencing this file in the parent document;
	// nil for the root file.
	ref *yaml.Node
}

func (b *FileBinding) Owner() UnitID { return b.id }
func (b *FileBinding) TextKind() TextKind { return b.sx.text }
func (b *FileBinding) syntax() *syntax { return &b.sx }
func (b *FileBinding) entry() *yaml.Node { return b.ref }

// Document returns the parsed document of the file.
func (b *FileBinding) Document() *yamldoc.Document { return b.doc }

// ChildBinding binds a node to a mapping or scalar inside the document of
// its nearest file ancestor.
type ChildBinding struct {
	sx   syntax
	file UnitID
}

func (b *ChildBinding) Owner() UnitID { return b.file }
func (b *ChildBinding) TextKind() TextKind { return b.sx.text }
func (b *ChildBinding) syntax() *syntax { return &b.sx }
func (b *ChildBinding) entry() *yaml.Node { return b.sx.node }

// IncludedFile is a unit whose whole content is the text of one node.
type IncludedFile struct {
	unitState
	next string
}

// Included returns the unit backing a TextIncluded binding, or NoUnit.
func Included(b Binding) UnitID {
	return b.syntax().included
}

// DisplayText returns the text shown for an included binding after edits.
func DisplayText(b Binding) string {
	return b.syntax().display
}
