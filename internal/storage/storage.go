// Package storage provides the file access layer used by the outline store.
//
// Files are addressed by slash-separated names relative to the outline
// directory. The default implementation, Dir, is backed by an afero
// filesystem so that tests can run against memory.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// ErrNotExist is returned by Read when the named file does not exist.
var ErrNotExist = errors.New("file does not exist")

// ErrExist is returned by Create when the named file already exists.
var ErrExist = errors.New("file already exists")

// FS is the storage collaborator of the outline store.
type FS interface {
	// Read returns the contents of the named file. It fails with an error
	// wrapping ErrNotExist if the file is absent.
	Read(ctx context.Context, name string) (string, error)

	// Write replaces the contents of the named file, creating it if needed.
	Write(ctx context.Context, name, contents string) error

	// Files lists the names of all files, sorted.
	Files(ctx context.Context) ([]string, error)

	// Create creates a new file with the given contents. It fails with an
	// error wrapping ErrExist if the file is already present.
	Create(ctx context.Context, name, contents string) error
}

// Dir is an FS rooted at a directory of an afero filesystem.
type Dir struct {
	fs afero.Fs
}

// NewDir returns an FS over the directory root of the host filesystem.
func NewDir(root string) *Dir {
	return &Dir{fs: afero.NewBasePathFs(afero.NewOsFs(), root)}
}

// NewMemory returns an FS held entirely in memory.
func NewMemory() *Dir {
	return &Dir{fs: afero.NewMemMapFs()}
}

// FromAfero wraps an arbitrary afero filesystem.
func FromAfero(fsys afero.Fs) *Dir {
	return &Dir{fs: fsys}
}

func clean(name string) (string, error) {
	n := path.Clean("/" + strings.ReplaceAll(name, "\\", "/"))
	if n == "/" {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	return n, nil
}

// Read implements FS.Read.
func (d *Dir) Read(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p, err := clean(name)
	if err != nil {
		return "", err
	}
	data, err := afero.ReadFile(d.fs, p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNotExist, name)
		}
		return "", fmt.Errorf("failed to read %s: %w", name, err)
	}
	return string(data), nil
}

// Write implements FS.Write.
func (d *Dir) Write(ctx context.Context, name, contents string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := clean(name)
	if err != nil {
		return err
	}
	if err := d.fs.MkdirAll(path.Dir(p), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", name, err)
	}
	if err := afero.WriteFile(d.fs, p, []byte(contents), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

// Files implements FS.Files.
func (d *Dir) Files(ctx context.Context) ([]string, error) {
	var names []string
	err := afero.Walk(d.fs, "/", func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if info.IsDir() {
			if p != "/" && strings.HasPrefix(info.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		names = append(names, strings.TrimPrefix(p, "/"))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

// Create implements FS.Create.
func (d *Dir) Create(ctx context.Context, name, contents string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := clean(name)
	if err != nil {
		return err
	}
	exists, err := afero.Exists(d.fs, p)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", name, err)
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrExist, name)
	}
	return d.Write(ctx, name, contents)
}

// IsOutlineFile reports whether name is a file the store may read: YAML
// documents and the raw text files they include.
func IsOutlineFile(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".yaml", ".yml", ".md", ".txt":
		return true
	}
	return false
}
