package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"
	"github.com/spf13/cobra"

	"codeterm/pkg/app"
	"codeterm/pkg/persist"
	"codeterm/pkg/vfs"
	"codeterm/pkg/world"
)

var resetHistory bool

// treeCmd represents the tree command
var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Show the saved filesystem and what is still locked",
	Long: `Print the saved filesystem as a tree. Locked directories are shown
without their contents.`,
	Args: cobra.NoArgs,
	RunE: runTree,
}

// resetCmd represents the reset command
var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Lock everything again",
	Long: `Replace the saved filesystem with the default one, locking every file
and directory again. With --history the command history is cleared too.`,
	Args: cobra.NoArgs,
	RunE: runReset,
}

func init() {
	resetCmd.Flags().BoolVar(&resetHistory, "history", false, "also clear the command history")
}

func runTree(cmd *cobra.Command, args []string) error {
	return withResources(func(r *app.Resources) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, renderTree(r.Tree, newTreeStyles(isTerminal(out))))
		fmt.Fprintf(out, "\n%d locked file(s) remaining\n", r.Tree.LockedFiles())
		return nil
	})
}

func runReset(cmd *cobra.Command, args []string) error {
	return withResources(func(r *app.Resources) error {
		seed, err := world.Seed()
		if err != nil {
			return err
		}
		if err := persist.Reset(r.Store, seed); err != nil {
			return fmt.Errorf("failed to reset progress: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Progress reset.")

		if resetHistory {
			if err := r.History.Clear(); err != nil {
				return fmt.Errorf("failed to clear history: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "History cleared.")
		}
		return nil
	})
}

type treeStyles struct {
	dir    lipgloss.Style
	open   lipgloss.Style
	locked lipgloss.Style
	branch lipgloss.Style
}

func newTreeStyles(color bool) treeStyles {
	s := treeStyles{
		dir:    lipgloss.NewStyle(),
		open:   lipgloss.NewStyle(),
		locked: lipgloss.NewStyle(),
		branch: lipgloss.NewStyle().PaddingRight(1),
	}
	if color {
		s.dir = s.dir.Foreground(lipgloss.Color("12")).Bold(true)
		s.open = s.open.Foreground(lipgloss.Color("10"))
		s.locked = s.locked.Foreground(lipgloss.Color("9"))
		s.branch = s.branch.Foreground(lipgloss.Color("8"))
	}
	return s
}

func renderTree(t *vfs.Tree, styles treeStyles) string {
	return buildTree(t.Root(), styles).String()
}

func buildTree(d *vfs.DirectoryNode, styles treeStyles) *tree.Tree {
	node := tree.Root(dirLabel(d, styles)).
		EnumeratorStyle(styles.branch)
	if !d.Unlocked {
		return node
	}
	for _, c := range d.Children {
		node.Child(buildTree(c, styles))
	}
	for _, f := range d.Files {
		if f.Unlocked {
			node.Child(styles.open.Render(f.DisplayName()))
		} else {
			node.Child(styles.locked.Render(f.DisplayName() + " (locked)"))
		}
	}
	return node
}

func dirLabel(d *vfs.DirectoryNode, styles treeStyles) string {
	label := styles.dir.Render(d.Name + "/")
	if !d.Unlocked {
		label += styles.locked.Render(" (locked)")
	}
	return label
}
