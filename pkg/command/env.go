// Package command implements the terminal's command language over the virtual filesystem
package command

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"codeterm/pkg/persist"
	"codeterm/pkg/vfs"
)

// Output receives the lines a command prints
type Output interface {
	Println(line string)
	Clear()
}

// ContentSource reads the text a file's Path refers to
type ContentSource interface {
	ReadContent(path string) (string, error)
}

// PuzzleOpener opens the code editor on a named puzzle
type PuzzleOpener interface {
	HasPuzzle(name string) bool
	OpenPuzzle(name string) error
}

// History records submitted lines
type History interface {
	Record(line string)
	Commands() []string
}

// Env is the session state command handlers operate on. One Env belongs to
// one terminal session and is never shared between goroutines.
type Env struct {
	Tree    *vfs.Tree
	Cwd     *vfs.DirectoryNode
	Store   persist.Store
	Content ContentSource
	Puzzles PuzzleOpener
	Out     Output
	History History
	Logger  *log.Logger

	// Remaining counts the locked files left in the tree
	Remaining int

	// OnExtract is called after a successful extract
	OnExtract func()
}

// NewEnv creates an environment positioned at the root of tree
func NewEnv(tree *vfs.Tree, store persist.Store, out Output) *Env {
	return &Env{
		Tree:      tree,
		Cwd:       tree.Root(),
		Store:     store,
		Out:       out,
		Remaining: tree.LockedFiles(),
	}
}

func (e *Env) logger() *log.Logger {
	if e.Logger == nil {
		e.Logger = log.New(io.Discard)
	}
	return e.Logger
}

func (e *Env) println(format string, args ...interface{}) {
	if e.Out != nil {
		e.Out.Println(fmt.Sprintf(format, args...))
	}
}

// WorkingPath returns the display path of the current directory
func (e *Env) WorkingPath() string {
	return DisplayPath(e.Tree, e.Cwd)
}

// DisplayPath returns the display path of d
func DisplayPath(tree *vfs.Tree, d *vfs.DirectoryNode) string {
	if d.Path != "" {
		return d.Path
	}
	names := tree.NamePath(d)
	if len(names) <= 1 {
		return "/"
	}
	return "/" + strings.Join(names[1:], "/")
}

// PuzzleSolved unlocks the directory called name and persists the change.
// It returns true when the directory was locked before.
func (e *Env) PuzzleSolved(name string) (bool, error) {
	d := e.Tree.FindDirectory(name)
	if d == nil {
		return false, NewCommandError(ErrorLookup, "solve", "no such puzzle: "+name, nil)
	}
	if d.Unlocked {
		return false, nil
	}
	d.Unlocked = true
	e.logger().Info("directory unlocked", "name", name)
	e.persistDirectory(d)
	return true, nil
}

// persistFile writes the lock state of f. Failures are logged; the in-memory
// flag is kept either way.
func (e *Env) persistFile(dir *vfs.DirectoryNode, f *vfs.FileNode) {
	if e.Store == nil {
		return
	}
	if err := persist.SaveFile(e.Store, e.Tree, dir, f); err != nil {
		cerr := NewCommandError(ErrorPersistence, "unlock", "failed to save unlock state", err)
		e.logger().Error(cerr.Error(), "file", f.Name)
	}
}

func (e *Env) persistDirectory(d *vfs.DirectoryNode) {
	if e.Store == nil {
		return
	}
	if err := persist.SaveDirectory(e.Store, e.Tree, d); err != nil {
		cerr := NewCommandError(ErrorPersistence, "solve", "failed to save unlock state", err)
		e.logger().Error(cerr.Error(), "directory", d.Name)
	}
}
