package persist

import (
	"errors"
	"fmt"

	"codeterm/pkg/vfs"
)

// LoadTree builds the tree held by store. When the store is empty, seed is
// saved first and becomes the tree.
func LoadTree(store Store, seed *Document) (*vfs.Tree, error) {
	doc, err := store.Load()
	if errors.Is(err, ErrNotFound) {
		if seed == nil {
			return nil, err
		}
		if err := store.Save(seed); err != nil {
			return nil, fmt.Errorf("failed to save seed document: %w", err)
		}
		doc = seed.Clone()
	} else if err != nil {
		return nil, err
	}
	return Build(doc)
}

// Reset overwrites the store with seed
func Reset(store Store, seed *Document) error {
	if seed == nil {
		return fmt.Errorf("seed document cannot be nil")
	}
	if err := seed.Validate(); err != nil {
		return fmt.Errorf("invalid seed document: %w", err)
	}
	return store.Save(seed)
}

// SetFileUnlocked reloads the saved document, locates the file by the name
// path of its directory and rewrites its unlocked flag. The in-memory tree
// and the saved document are separate object graphs, so the node is resolved
// by name rather than by reference.
func SetFileUnlocked(store Store, namePath []string, fileName string, unlocked bool) error {
	doc, err := store.Load()
	if err != nil {
		return fmt.Errorf("failed to reload document: %w", err)
	}
	f := doc.FindFile(namePath, fileName)
	if f == nil {
		return fmt.Errorf("file %q in %v: %w", fileName, namePath, ErrNodeNotFound)
	}
	f.Unlocked = unlocked
	if err := store.Save(doc); err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}
	return nil
}

// SetDirectoryUnlocked is SetFileUnlocked for a directory
func SetDirectoryUnlocked(store Store, namePath []string, unlocked bool) error {
	doc, err := store.Load()
	if err != nil {
		return fmt.Errorf("failed to reload document: %w", err)
	}
	d := doc.FindDirectory(namePath)
	if d == nil {
		return fmt.Errorf("directory %v: %w", namePath, ErrNodeNotFound)
	}
	d.Unlocked = unlocked
	if err := store.Save(doc); err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}
	return nil
}

// SaveFile persists the unlocked flag of f, which lives in dir of tree
func SaveFile(store Store, tree *vfs.Tree, dir *vfs.DirectoryNode, f *vfs.FileNode) error {
	return SetFileUnlocked(store, tree.NamePath(dir), f.Name, f.Unlocked)
}

// SaveDirectory persists the unlocked flag of d
func SaveDirectory(store Store, tree *vfs.Tree, d *vfs.DirectoryNode) error {
	return SetDirectoryUnlocked(store, tree.NamePath(d), d.Unlocked)
}
