package world

import (
	"testing"

	"codeterm/pkg/persist"
	"codeterm/pkg/vfs"
)

func TestSeed_BuildsTree(t *testing.T) {
	doc, err := Seed()
	if err != nil {
		t.Fatalf("Seed() error = %v", err)
	}
	tree, err := persist.Build(doc)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if !tree.Root().Unlocked {
		t.Error("root must start unlocked")
	}
	if tree.LockedFiles() == 0 {
		t.Error("seed should contain locked files")
	}
}

func TestSeed_EveryFileHasContent(t *testing.T) {
	doc, _ := Seed()
	tree, _ := persist.Build(doc)
	content := DefaultContent()

	tree.Walk(func(d *vfs.DirectoryNode, depth int) {
		for _, f := range d.Files {
			if _, err := content.ReadContent(f.Path); err != nil {
				t.Errorf("content of %s (%s): %v", f.Name, f.Path, err)
			}
			if !f.Unlocked && (f.Question == "" || f.UnlockKeyword == "") {
				t.Errorf("locked file %s needs a question and a keyword", f.Name)
			}
		}
	})
}

func TestSeed_LockedDirectoriesHavePuzzles(t *testing.T) {
	doc, _ := Seed()
	tree, _ := persist.Build(doc)
	catalog, err := Puzzles()
	if err != nil {
		t.Fatalf("Puzzles() error = %v", err)
	}

	tree.Walk(func(d *vfs.DirectoryNode, depth int) {
		if d.Unlocked {
			return
		}
		if _, ok := catalog.Get(d.Name); !ok {
			t.Errorf("locked directory %s has no puzzle", d.Name)
		}
	})
}

func TestContent_RejectsEscapes(t *testing.T) {
	if _, err := DefaultContent().ReadContent("../tree.yaml"); err == nil {
		t.Error("ReadContent() should reject paths leaving the content root")
	}
	if _, err := DefaultContent().ReadContent("missing.txt"); err == nil {
		t.Error("ReadContent(missing.txt) should fail")
	}
}

func TestDirContent(t *testing.T) {
	if DirContent("") == nil {
		t.Fatal("DirContent(\"\") returned nil")
	}
	if _, err := DirContent(t.TempDir()).ReadContent("readme.txt"); err == nil {
		t.Error("ReadContent() from an empty directory should fail")
	}
}
