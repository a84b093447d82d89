// Package vfs provides the lock-gated virtual filesystem tree the terminal navigates
package vfs

import (
	"fmt"
	"strings"
)

// FileNode is a file in the virtual filesystem. Path references externally
// stored content; it is not read by the tree itself.
type FileNode struct {
	Name          string
	Path          string
	Question      string
	UnlockKeyword string
	Unlocked      bool
}

// MatchesKeyword compares a guess with the file's secret, ignoring case
func (f *FileNode) MatchesKeyword(guess string) bool {
	return strings.EqualFold(strings.TrimSpace(guess), strings.TrimSpace(f.UnlockKeyword))
}

// DisplayName returns the file name as listed by the terminal
func (f *FileNode) DisplayName() string {
	if strings.HasSuffix(f.Name, ".txt") {
		return f.Name
	}
	return f.Name + ".txt"
}

// DirectoryNode is a directory in the virtual filesystem. It owns its
// children and files; the parent relation is kept by the Tree.
type DirectoryNode struct {
	Name          string
	Path          string
	UnlockKeyword string
	Unlocked      bool
	Children      []*DirectoryNode
	Files         []*FileNode

	id int
}

// ID returns the node's identifier within its tree
func (d *DirectoryNode) ID() int {
	return d.id
}

// Child returns the direct child directory called name
func (d *DirectoryNode) Child(name string) *DirectoryNode {
	for _, c := range d.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// File returns the file called name in this directory. The ".txt" suffix is
// optional on both the query and the stored name.
func (d *DirectoryNode) File(name string) *FileNode {
	want := strings.TrimSuffix(name, ".txt")
	for _, f := range d.Files {
		if strings.TrimSuffix(f.Name, ".txt") == want {
			return f
		}
	}
	return nil
}

// LockedFiles counts the locked files in this directory and below
func (d *DirectoryNode) LockedFiles() int {
	n := 0
	for _, f := range d.Files {
		if !f.Unlocked {
			n++
		}
	}
	for _, c := range d.Children {
		n += c.LockedFiles()
	}
	return n
}

// Tree is a directory tree with exactly one root. Parent relations are an
// id-to-id table so that the only owning pointers run from parent to child.
type Tree struct {
	root    *DirectoryNode
	nodes   []*DirectoryNode
	parents []int
}

// NewTree indexes the tree rooted at root, assigning ids and parent relations
// by a depth-first traversal.
func NewTree(root *DirectoryNode) (*Tree, error) {
	if root == nil {
		return nil, fmt.Errorf("tree root cannot be nil")
	}

	t := &Tree{root: root}
	seen := make(map[*DirectoryNode]bool)

	var index func(d *DirectoryNode, parent int) error
	index = func(d *DirectoryNode, parent int) error {
		if seen[d] {
			return fmt.Errorf("directory %q appears more than once in the tree", d.Name)
		}
		seen[d] = true

		d.id = len(t.nodes)
		t.nodes = append(t.nodes, d)
		t.parents = append(t.parents, parent)

		for _, c := range d.Children {
			if c == nil {
				return fmt.Errorf("directory %q has a nil child", d.Name)
			}
			if err := index(c, d.id); err != nil {
				return err
			}
		}
		return nil
	}

	if err := index(root, -1); err != nil {
		return nil, err
	}
	return t, nil
}

// Root returns the root directory
func (t *Tree) Root() *DirectoryNode {
	return t.root
}

// Parent returns the parent of d, or nil for the root
func (t *Tree) Parent(d *DirectoryNode) *DirectoryNode {
	if !t.owns(d) {
		return nil
	}
	p := t.parents[d.id]
	if p < 0 {
		return nil
	}
	return t.nodes[p]
}

// Node returns the directory with the given id
func (t *Tree) Node(id int) *DirectoryNode {
	if id < 0 || id >= len(t.nodes) {
		return nil
	}
	return t.nodes[id]
}

// Len returns the number of directories in the tree
func (t *Tree) Len() int {
	return len(t.nodes)
}

// NamePath returns the directory names from the root down to d, root included
func (t *Tree) NamePath(d *DirectoryNode) []string {
	var names []string
	for n := d; n != nil; n = t.Parent(n) {
		names = append([]string{n.Name}, names...)
	}
	return names
}

// FindDirectory returns the first directory called name in depth-first order
func (t *Tree) FindDirectory(name string) *DirectoryNode {
	for _, d := range t.nodes {
		if d.Name == name {
			return d
		}
	}
	return nil
}

// FindFile returns the first file called name in depth-first order, with its directory
func (t *Tree) FindFile(name string) (*DirectoryNode, *FileNode) {
	for _, d := range t.nodes {
		if f := d.File(name); f != nil {
			return d, f
		}
	}
	return nil, nil
}

// Walk calls fn for every directory in depth-first order
func (t *Tree) Walk(fn func(d *DirectoryNode, depth int)) {
	var walk func(d *DirectoryNode, depth int)
	walk = func(d *DirectoryNode, depth int) {
		fn(d, depth)
		for _, c := range d.Children {
			walk(c, depth+1)
		}
	}
	walk(t.root, 0)
}

// LockedFiles counts the locked files in the whole tree
func (t *Tree) LockedFiles() int {
	return t.root.LockedFiles()
}

func (t *Tree) owns(d *DirectoryNode) bool {
	return d != nil && d.id >= 0 && d.id < len(t.nodes) && t.nodes[d.id] == d
}
