package command

import (
	"fmt"
	"strings"

	"codeterm/pkg/vfs"
)

func builtinCommands(d *Dispatcher) []Command {
	return []Command{
		{Name: "help", Args: 0, Usage: "help", Summary: "show this command reference", Run: d.help},
		{Name: "ls", Args: 0, Usage: "ls", Summary: "list directories and files", Run: list},
		{Name: "cd", Args: 1, Usage: "cd <directory|..>", Summary: "change directory", Run: changeDir},
		{Name: "cat", Args: 1, Usage: "cat <file>", Summary: "print an unlocked file", Run: cat},
		{Name: "hint", Args: 1, Usage: "hint <file>", Summary: "show the question guarding a file", Run: hint},
		{Name: "unlock", Args: 2, Usage: "unlock <file> <keyword>", Summary: "unlock a file with its keyword", Run: unlock},
		{Name: "solve", Args: 1, Usage: "solve <directory>", Summary: "open the puzzle guarding a directory", Run: solve},
		{Name: "extract", Args: 0, Usage: "extract", Summary: "extract once every file is unlocked", Run: extract},
		{Name: "clear", Args: 0, Usage: "clear", Summary: "clear the screen", Run: clearScreen},
		{Name: "history", Args: 0, Usage: "history", Summary: "list previous commands", Run: showHistory},
		{Name: "pwd", Args: 0, Usage: "pwd", Summary: "print the current directory", Run: pwd},
	}
}

func lockState(unlocked bool) string {
	if unlocked {
		return "unlocked"
	}
	return "locked"
}

func (d *Dispatcher) help(env *Env, _ []string) error {
	env.println("available commands:")
	for _, cmd := range d.Commands() {
		env.println("  %-26s %s", cmd.Usage, cmd.Summary)
	}
	return nil
}

func list(env *Env, _ []string) error {
	dir := env.Cwd
	if len(dir.Children) == 0 && len(dir.Files) == 0 {
		env.println("(empty)")
		return nil
	}
	for _, c := range dir.Children {
		env.println("%-24s %s", c.Name+"/", lockState(c.Unlocked))
	}
	for _, f := range dir.Files {
		env.println("%-24s %s", f.DisplayName(), lockState(f.Unlocked))
	}
	return nil
}

func changeDir(env *Env, args []string) error {
	name := args[0]
	if name == ".." {
		// the root has no parent; stay put
		if parent := env.Tree.Parent(env.Cwd); parent != nil {
			env.Cwd = parent
		}
		return nil
	}

	child := env.Cwd.Child(name)
	if child == nil {
		return NewCommandError(ErrorLookup, "cd", "no such directory: "+name, nil)
	}
	if !child.Unlocked {
		return NewCommandError(ErrorLocked, "cd", fmt.Sprintf("%s is locked; try solve %s", name, name), nil)
	}
	env.Cwd = child
	return nil
}

func findFile(env *Env, command, name string) (*vfs.FileNode, error) {
	f := env.Cwd.File(name)
	if f == nil {
		return nil, NewCommandError(ErrorLookup, command, "no such file: "+name, nil)
	}
	return f, nil
}

func cat(env *Env, args []string) error {
	f, err := findFile(env, "cat", args[0])
	if err != nil {
		return err
	}
	if !f.Unlocked {
		return NewCommandError(ErrorLocked, "cat", fmt.Sprintf("%s is locked; try hint %s", f.DisplayName(), args[0]), nil)
	}
	if env.Content == nil {
		return NewCommandError(ErrorLookup, "cat", "no content for "+f.DisplayName(), nil)
	}

	text, err := env.Content.ReadContent(f.Path)
	if err != nil {
		return NewCommandError(ErrorLookup, "cat", "cannot read "+f.DisplayName(), err)
	}
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		env.println("%s", strings.TrimRight(line, "\r"))
	}
	return nil
}

func hint(env *Env, args []string) error {
	f, err := findFile(env, "hint", args[0])
	if err != nil {
		return err
	}
	if f.Unlocked {
		env.println("%s is already unlocked", f.DisplayName())
		return nil
	}
	if f.Question == "" {
		env.println("%s has no hint", f.DisplayName())
		return nil
	}
	env.println("%s", f.Question)
	return nil
}

func unlock(env *Env, args []string) error {
	f, err := findFile(env, "unlock", args[0])
	if err != nil {
		return err
	}
	if f.Unlocked {
		env.println("%s is already unlocked", f.DisplayName())
		return nil
	}
	if !f.MatchesKeyword(args[1]) {
		return NewCommandError(ErrorKeyword, "unlock", "incorrect keyword for "+f.DisplayName(), nil)
	}

	f.Unlocked = true
	if env.Remaining > 0 {
		env.Remaining--
	}
	env.println("%s unlocked", f.DisplayName())
	env.logger().Info("file unlocked", "file", f.Name, "remaining", env.Remaining)
	env.persistFile(env.Cwd, f)
	return nil
}

func solve(env *Env, args []string) error {
	name := args[0]
	d := env.Cwd.Child(name)
	if d == nil {
		return NewCommandError(ErrorLookup, "solve", "no such puzzle: "+name, nil)
	}
	if d.Unlocked {
		env.println("%s is already solved", name)
		return nil
	}
	if env.Puzzles == nil || !env.Puzzles.HasPuzzle(name) {
		return NewCommandError(ErrorLookup, "solve", "no such puzzle: "+name, nil)
	}
	if err := env.Puzzles.OpenPuzzle(name); err != nil {
		return NewCommandError(ErrorLookup, "solve", "cannot open puzzle "+name, err)
	}
	env.println("opening puzzle %s", name)
	return nil
}

func extract(env *Env, _ []string) error {
	if env.Remaining > 0 {
		msg := fmt.Sprintf("cannot extract: %d locked file(s) remaining", env.Remaining)
		return NewCommandError(ErrorLocked, "extract", msg, nil)
	}
	env.println("extraction complete")
	if env.OnExtract != nil {
		env.OnExtract()
	}
	return nil
}

func clearScreen(env *Env, _ []string) error {
	if env.Out != nil {
		env.Out.Clear()
	}
	return nil
}

func showHistory(env *Env, _ []string) error {
	if env.History == nil {
		return nil
	}
	for i, line := range env.History.Commands() {
		env.println("%4d  %s", i+1, line)
	}
	return nil
}

func pwd(env *Env, _ []string) error {
	env.println("%s", env.WorkingPath())
	return nil
}
