package store

import (
	"context"
	"errors"
	"fmt"
	"path"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/steveyegge/outline/internal/storage"
	"github.com/steveyegge/outline/internal/tree"
	"github.com/steveyegge/outline/internal/yamldoc"
)

// Load replaces the tree with the outline stored in filename and the files
// it includes.
//
// Malformed entries are skipped and reported in the returned list, in
// document order; their siblings load normally. A root file that is not a
// mapping with an items or notes sequence yields a single error and an
// empty tree. The returned error is reserved for failures that abort the
// whole load: an unreadable root file, I/O errors, and !!include tags on
// anything but a plain scalar.
func (s *Store) Load(ctx context.Context, filename string) ([]string, error) {
	s.sched.Cancel()

	t := s.newTree()
	s.mu.Lock()
	s.root = filename
	s.tree = t
	s.units = nil
	s.refs = map[string]bool{filename: true}
	s.bindings = make(map[tree.NodeID]Binding)
	s.mu.Unlock()

	s.notify(func(o tree.Observer) {
		if h, ok := o.(tree.LoadingObserver); ok {
			h.Loading()
		}
	})

	contents, err := s.fs.Read(ctx, filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}

	doc, err := yamldoc.Parse([]byte(contents))
	if err != nil {
		s.logger.Printf("WARNING: %s: %v", filename, err)
		return []string{msgInvalidDocument}, nil
	}
	items, _ := yamldoc.Get(doc.Root(), "items", "notes")
	if !yamldoc.IsMapping(doc.Root()) || !yamldoc.IsSequence(items) {
		return []string{msgInvalidDocument}, nil
	}

	sx := newSyntax(doc.Root(), TextProperty)
	sx.seq = items
	root := &FileBinding{
		unitState: unitState{filename: filename, contents: contents},
		sx:        sx,
		doc:       doc,
	}
	s.mu.Lock()
	root.id = s.register(root)
	s.mu.Unlock()

	rootID, err := t.CreateRoot(func(id tree.NodeID) { s.bind(id, root) })
	if err != nil {
		return nil, err
	}

	l := &loader{s: s, ctx: ctx, tree: t, files: map[string]bool{filename: true}}
	if err := l.visit(rootID, root.id, items, []string{filename}); err != nil {
		return nil, err
	}

	s.notify(func(o tree.Observer) {
		if h, ok := o.(tree.LoadedObserver); ok {
			h.Loaded()
		}
	})

	s.logger.Printf("Loaded %s: %d unit(s), %d error(s)", filename, len(s.Units()), len(l.errors))
	return l.errors, nil
}

func (s *Store) bind(id tree.NodeID, b Binding) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bindings[id] = b
}

type loader struct {
	s      *Store
	ctx    context.Context
	tree   *tree.Tree
	errors []string

	// files holds the names of the units registered so far. A file backs at
	// most one unit.
	files map[string]bool
}

func (l *loader) fail(msg string) {
	l.errors = append(l.errors, msg)
}

// reference records an include target, whether or not it loads.
func (l *loader) reference(filename string) {
	l.s.mu.Lock()
	l.s.refs[filename] = true
	l.s.mu.Unlock()
}

// entry is a sequence entry resolved to the mapping that describes it.
type entry struct {
	node *yaml.Node
	// file is set when the entry is sourced from its own YAML file.
	file *FileBinding
}

// visit creates children of parent for every entry of seq. file is the unit
// holding seq; chain lists the files on the current include path.
func (l *loader) visit(parent tree.NodeID, file UnitID, seq *yaml.Node, chain []string) error {
	for _, raw := range slices.Clone(seq.Content) {
		if text, ok := yamldoc.StringValue(raw); ok {
			b := &ChildBinding{sx: newSyntax(raw, TextPlain), file: file}
			if _, err := l.create(parent, text, nil, b); err != nil {
				return err
			}
			continue
		}

		e, ok, err := l.resolve(raw, chain)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if err := l.visitEntry(parent, file, e, chain); err != nil {
			return err
		}
	}
	return nil
}

// resolve follows a whole-file include. ok is false when the entry was
// rejected and an error recorded.
func (l *loader) resolve(raw *yaml.Node, chain []string) (entry, bool, error) {
	filename, whole, err := yamldoc.WholeInclude(raw)
	if err != nil {
		return entry{}, false, err
	}
	if !whole {
		return entry{node: raw}, true, nil
	}
	l.reference(filename)

	if slices.Contains(chain, filename) {
		l.fail(errRecursiveImport(filename))
		return entry{}, false, nil
	}
	if l.files[filename] {
		l.fail(errAlreadyIncluded(filename))
		return entry{}, false, nil
	}
	if !isYAML(filename) {
		l.fail(errNotYAML(filename))
		return entry{}, false, nil
	}

	contents, ok, err := l.read(filename)
	if err != nil || !ok {
		return entry{}, false, err
	}

	doc, err := yamldoc.Parse([]byte(contents))
	if err != nil {
		l.s.logger.Printf("WARNING: %s: %v", filename, err)
		l.fail(errInvalidContent(filename))
		return entry{}, false, nil
	}
	if !yamldoc.IsMapping(doc.Root()) {
		l.fail(errInvalidContent(filename))
		return entry{}, false, nil
	}

	fb := &FileBinding{
		unitState: unitState{filename: filename, contents: contents},
		doc:       doc,
		ref:       raw,
	}
	return entry{node: doc.Root(), file: fb}, true, nil
}

func (l *loader) visitEntry(parent tree.NodeID, file UnitID, e entry, chain []string) error {
	if !yamldoc.IsMapping(e.node) {
		l.fail(msgInvalidDocument)
		return nil
	}

	textNode, textKey := yamldoc.Get(e.node, yamldoc.TextKeys...)
	includePath, included, err := yamldoc.IncludePath(textNode)
	if err != nil {
		return err
	}

	var (
		text string
		kind TextKind
	)
	switch {
	case included:
		l.reference(includePath)
		if l.files[includePath] {
			l.fail(errAlreadyIncluded(includePath))
			return nil
		}
		contents, ok, err := l.read(includePath)
		if err != nil || !ok {
			return err
		}
		text, kind = contents, TextIncluded
	default:
		s, ok := yamldoc.StringValue(textNode)
		if !ok {
			l.fail(msgNoText)
			return nil
		}
		text, kind = s, TextProperty
	}

	props, err := properties(e.node, textKey)
	if err != nil {
		return err
	}

	sx := newSyntax(e.node, kind)
	if seq, _ := yamldoc.Get(e.node, yamldoc.ChildrenKeys...); yamldoc.IsSequence(seq) {
		sx.seq = seq
	}

	var b Binding
	owner := file
	l.s.mu.Lock()
	if e.file != nil {
		e.file.sx = sx
		e.file.id = l.s.register(e.file)
		l.files[e.file.filename] = true
		owner = e.file.id
		b = e.file
	} else {
		b = &ChildBinding{sx: sx, file: file}
	}
	if kind == TextIncluded {
		inc := &IncludedFile{
			unitState: unitState{filename: includePath, contents: text},
			next:      text,
		}
		b.syntax().included = l.s.register(inc)
		l.files[includePath] = true
		b.syntax().display = text
	}
	l.s.mu.Unlock()

	child, err := l.create(parent, text, props, b)
	if err != nil {
		return err
	}

	idNode, _ := yamldoc.Get(e.node, "id")
	if id, ok := yamldoc.StringValue(idNode); ok {
		l.tree.RegisterID(id, child)
	}

	if sx.seq == nil {
		return nil
	}
	if e.file != nil {
		chain = append(slices.Clone(chain), e.file.filename)
	}
	return l.visit(child, owner, sx.seq, chain)
}

func (l *loader) create(parent tree.NodeID, text string, props map[string]any, b Binding) (tree.NodeID, error) {
	index := len(l.tree.Children(parent))
	return l.tree.CreateChild(parent, index, text, props, func(id tree.NodeID) {
		l.s.bind(id, b)
	})
}

// read returns the contents of an included file. ok is false when the file
// is missing and an error was recorded.
func (l *loader) read(filename string) (string, bool, error) {
	contents, err := l.s.fs.Read(l.ctx, filename)
	if errors.Is(err, storage.ErrNotExist) {
		l.fail(errMissingFile(filename))
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	return contents, true, nil
}

// properties returns the entry's fields other than its text, children and
// include reference.
func properties(m *yaml.Node, textKey string) (map[string]any, error) {
	props := make(map[string]any)
	for _, key := range yamldoc.Keys(m) {
		if key == textKey || key == yamldoc.IncludeKey || slices.Contains(yamldoc.ChildrenKeys, key) {
			continue
		}
		v, _ := yamldoc.Get(m, key)
		value, err := yamldoc.Value(v)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", key, err)
		}
		props[key] = value
	}
	return props, nil
}

func isYAML(filename string) bool {
	switch strings.ToLower(path.Ext(filename)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
