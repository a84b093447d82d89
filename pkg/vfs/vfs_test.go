package vfs

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func sampleTree(t *testing.T) *Tree {
	t.Helper()
	root := &DirectoryNode{
		Name:     "root",
		Path:     "/",
		Unlocked: true,
		Files: []*FileNode{
			{Name: "readme", Path: "files/readme.txt", Unlocked: true},
			{Name: "secret.txt", Path: "files/secret.txt", Question: "What is fun?", UnlockKeyword: "Fun"},
		},
		Children: []*DirectoryNode{
			{
				Name:     "logs",
				Path:     "/logs",
				Unlocked: true,
				Files:    []*FileNode{{Name: "day1", Path: "files/day1.txt", UnlockKeyword: "one"}},
				Children: []*DirectoryNode{{Name: "deep", Path: "/logs/deep"}},
			},
			{Name: "vault", Path: "/vault"},
		},
	}
	tree, err := NewTree(root)
	if err != nil {
		t.Fatalf("NewTree() error = %v", err)
	}
	return tree
}

func TestNewTree_Parents(t *testing.T) {
	tree := sampleTree(t)
	root := tree.Root()
	logs := root.Child("logs")
	deep := logs.Child("deep")

	if tree.Parent(root) != nil {
		t.Error("root should have no parent")
	}
	if tree.Parent(logs) != root {
		t.Error("logs parent should be root")
	}
	if tree.Parent(deep) != logs {
		t.Error("deep parent should be logs")
	}
	if tree.Len() != 4 {
		t.Errorf("Len() = %d, want 4", tree.Len())
	}
	if diff := cmp.Diff([]string{"root", "logs", "deep"}, tree.NamePath(deep)); diff != "" {
		t.Errorf("NamePath() mismatch (-want +got):\n%s", diff)
	}
}

func TestNewTree_Errors(t *testing.T) {
	if _, err := NewTree(nil); err == nil {
		t.Error("NewTree(nil) should fail")
	}

	shared := &DirectoryNode{Name: "shared"}
	root := &DirectoryNode{Name: "root", Children: []*DirectoryNode{shared, shared}}
	if _, err := NewTree(root); err == nil {
		t.Error("NewTree() should reject a directory listed twice")
	}
}

func TestTree_ParentOfForeignNode(t *testing.T) {
	tree := sampleTree(t)
	if tree.Parent(&DirectoryNode{Name: "stranger"}) != nil {
		t.Error("Parent() of a node outside the tree should be nil")
	}
}

func TestDirectoryNode_File(t *testing.T) {
	tree := sampleTree(t)
	root := tree.Root()

	tests := []struct {
		query string
		want  string
	}{
		{"readme", "readme"},
		{"readme.txt", "readme"},
		{"secret", "secret.txt"},
		{"secret.txt", "secret.txt"},
		{"missing", ""},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := ""
			if f := root.File(tt.query); f != nil {
				got = f.Name
			}
			if got != tt.want {
				t.Errorf("File(%q) = %q, want %q", tt.query, got, tt.want)
			}
		})
	}
}

func TestFileNode_MatchesKeyword(t *testing.T) {
	f := &FileNode{UnlockKeyword: "Fun"}
	for _, guess := range []string{"fun", "FUN", "Fun", " fun "} {
		if !f.MatchesKeyword(guess) {
			t.Errorf("MatchesKeyword(%q) = false, want true", guess)
		}
	}
	if f.MatchesKeyword("funny") {
		t.Error("MatchesKeyword(funny) = true, want false")
	}
}

func TestTree_Find(t *testing.T) {
	tree := sampleTree(t)

	if d := tree.FindDirectory("deep"); d == nil || d.Path != "/logs/deep" {
		t.Errorf("FindDirectory(deep) = %+v", d)
	}
	if d := tree.FindDirectory("nowhere"); d != nil {
		t.Errorf("FindDirectory(nowhere) = %+v, want nil", d)
	}
	dir, f := tree.FindFile("day1")
	if f == nil || dir.Name != "logs" {
		t.Errorf("FindFile(day1) = %v, %v", dir, f)
	}
}

func TestTree_LockedFiles(t *testing.T) {
	tree := sampleTree(t)
	if got := tree.LockedFiles(); got != 2 {
		t.Errorf("LockedFiles() = %d, want 2", got)
	}
	tree.Root().File("secret").Unlocked = true
	if got := tree.LockedFiles(); got != 1 {
		t.Errorf("LockedFiles() = %d, want 1", got)
	}
}

func TestTree_Walk(t *testing.T) {
	tree := sampleTree(t)
	var visited []string
	tree.Walk(func(d *DirectoryNode, depth int) {
		visited = append(visited, d.Name)
	})
	if diff := cmp.Diff([]string{"root", "logs", "deep", "vault"}, visited); diff != "" {
		t.Errorf("Walk() order mismatch (-want +got):\n%s", diff)
	}
}
