// Package world embeds the default filesystem tree, file contents and puzzles
package world

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"

	"gopkg.in/yaml.v3"

	"codeterm/pkg/persist"
	"codeterm/pkg/puzzle"
)

//go:embed data
var data embed.FS

const (
	treeFile    = "data/tree.yaml"
	puzzlesFile = "data/puzzles.yaml"
	filesDir    = "data/files"
)

// Seed returns the default tree document, fully locked as shipped
func Seed() (*persist.Document, error) {
	raw, err := data.ReadFile(treeFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed tree: %w", err)
	}
	var doc persist.Document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse seed tree: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid seed tree: %w", err)
	}
	return &doc, nil
}

// Puzzles returns the default puzzle catalog
func Puzzles() (*puzzle.Catalog, error) {
	return puzzle.LoadCatalog(data, puzzlesFile)
}

// Content serves file contents by their node path from a filesystem
type Content struct {
	fsys fs.FS
}

// NewContent serves contents from fsys
func NewContent(fsys fs.FS) *Content {
	return &Content{fsys: fsys}
}

// DefaultContent serves the embedded file contents
func DefaultContent() *Content {
	sub, err := fs.Sub(data, filesDir)
	if err != nil {
		panic(err)
	}
	return NewContent(sub)
}

// DirContent serves contents from a directory on disk, falling back to the
// embedded files when dir is empty.
func DirContent(dir string) *Content {
	if dir == "" {
		return DefaultContent()
	}
	return NewContent(os.DirFS(dir))
}

// ReadContent returns the text stored at p
func (c *Content) ReadContent(p string) (string, error) {
	clean := path.Clean(p)
	if !fs.ValidPath(clean) {
		return "", fmt.Errorf("invalid content path: %s", p)
	}
	raw, err := fs.ReadFile(c.fsys, clean)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
