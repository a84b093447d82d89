// Package persist round-trips the virtual filesystem tree to and from its saved document form
package persist

import (
	"errors"
	"fmt"

	"codeterm/pkg/vfs"
)

// ErrNotFound is returned by a Store that holds no saved document yet
var ErrNotFound = errors.New("no saved document")

// ErrNodeNotFound is returned when a name path does not resolve inside a document
var ErrNodeNotFound = errors.New("node not found in saved document")

// FileDocument is the saved form of a file
type FileDocument struct {
	FileName      string `json:"fileName" yaml:"fileName"`
	Path          string `json:"path" yaml:"path"`
	Question      string `json:"question" yaml:"question"`
	UnlockKeyword string `json:"unlockKeyword" yaml:"unlockKeyword"`
	Unlocked      bool   `json:"unlocked" yaml:"unlocked"`
}

// Document is the saved form of a directory and everything below it
type Document struct {
	DirName       string         `json:"dirName" yaml:"dirName"`
	Path          string         `json:"path" yaml:"path"`
	UnlockKeyword string         `json:"unlockKeyword" yaml:"unlockKeyword"`
	Unlocked      bool           `json:"unlocked" yaml:"unlocked"`
	Files         []FileDocument `json:"files" yaml:"files"`
	Directories   []Document     `json:"directories" yaml:"directories"`
}

// Validate checks that every directory and file in the document has a name
func (d *Document) Validate() error {
	if d.DirName == "" {
		return fmt.Errorf("directory name cannot be empty (path %q)", d.Path)
	}
	for _, f := range d.Files {
		if f.FileName == "" {
			return fmt.Errorf("file name cannot be empty in directory %q", d.DirName)
		}
	}
	for i := range d.Directories {
		if err := d.Directories[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Clone returns a deep copy of the document
func (d *Document) Clone() *Document {
	out := *d
	out.Files = append([]FileDocument(nil), d.Files...)
	out.Directories = make([]Document, len(d.Directories))
	for i := range d.Directories {
		out.Directories[i] = *d.Directories[i].Clone()
	}
	if d.Directories == nil {
		out.Directories = nil
	}
	return &out
}

// Build constructs the in-memory tree for a document
func Build(doc *Document) (*vfs.Tree, error) {
	if doc == nil {
		return nil, fmt.Errorf("document cannot be nil")
	}
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid document: %w", err)
	}
	return vfs.NewTree(buildDir(doc))
}

func buildDir(doc *Document) *vfs.DirectoryNode {
	d := &vfs.DirectoryNode{
		Name:          doc.DirName,
		Path:          doc.Path,
		UnlockKeyword: doc.UnlockKeyword,
		Unlocked:      doc.Unlocked,
	}
	for _, f := range doc.Files {
		d.Files = append(d.Files, &vfs.FileNode{
			Name:          f.FileName,
			Path:          f.Path,
			Question:      f.Question,
			UnlockKeyword: f.UnlockKeyword,
			Unlocked:      f.Unlocked,
		})
	}
	for i := range doc.Directories {
		d.Children = append(d.Children, buildDir(&doc.Directories[i]))
	}
	return d
}

// Snapshot returns the document form of a tree
func Snapshot(tree *vfs.Tree) *Document {
	return snapshotDir(tree.Root())
}

func snapshotDir(d *vfs.DirectoryNode) *Document {
	doc := &Document{
		DirName:       d.Name,
		Path:          d.Path,
		UnlockKeyword: d.UnlockKeyword,
		Unlocked:      d.Unlocked,
	}
	for _, f := range d.Files {
		doc.Files = append(doc.Files, FileDocument{
			FileName:      f.Name,
			Path:          f.Path,
			Question:      f.Question,
			UnlockKeyword: f.UnlockKeyword,
			Unlocked:      f.Unlocked,
		})
	}
	for _, c := range d.Children {
		doc.Directories = append(doc.Directories, *snapshotDir(c))
	}
	return doc
}

// FindDirectory resolves a name path (root name first) depth-first. When
// several siblings share a name, each is tried in order.
func (d *Document) FindDirectory(namePath []string) *Document {
	if len(namePath) == 0 || d.DirName != namePath[0] {
		return nil
	}
	if len(namePath) == 1 {
		return d
	}
	for i := range d.Directories {
		if found := d.Directories[i].FindDirectory(namePath[1:]); found != nil {
			return found
		}
	}
	return nil
}

// FindFile resolves the file called fileName inside the directory at namePath
func (d *Document) FindFile(namePath []string, fileName string) *FileDocument {
	dir := d.FindDirectory(namePath)
	if dir == nil {
		return nil
	}
	for i := range dir.Files {
		if dir.Files[i].FileName == fileName {
			return &dir.Files[i]
		}
	}
	return nil
}
