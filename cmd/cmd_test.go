package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

// workspace returns a data directory and a config file inside it
func workspace(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := filepath.Join(dir, "codeterm.yaml")
	if err := os.WriteFile(cfg, []byte("store: json\n"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return dir, cfg
}

// run executes the root command with args and returns what it printed
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	verbose, configPath, dataDir = false, "", ""
	configJSON, configForce = false, false
	resetHistory = false
	highlightStyle, highlightMarkup = "", false

	out := &bytes.Buffer{}
	rootCmd.SetOut(out)
	rootCmd.SetErr(out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// runIn runs a command against the workspace's config and data directory
func runIn(t *testing.T, dir, cfg string, args ...string) (string, error) {
	t.Helper()
	return run(t, append([]string{"--config", cfg, "--data-dir", dir}, args...)...)
}

func TestRootCommand(t *testing.T) {
	if rootCmd.Use != "codeterm" {
		t.Errorf("rootCmd.Use = %s, want codeterm", rootCmd.Use)
	}

	expected := []string{"play", "exec", "check", "tree", "reset", "highlight", "config"}
	for _, name := range expected {
		found := false
		for _, c := range rootCmd.Commands() {
			if c.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Expected subcommand '%s' not found", name)
		}
	}
}

func TestCommandStructure(t *testing.T) {
	commands := []*cobra.Command{
		rootCmd, playCmd, execCmd, checkCmd, treeCmd, resetCmd, highlightCmd,
		configCmd, configShowCmd, configPathCmd, configInitCmd,
	}
	for _, c := range commands {
		if c.Use == "" {
			t.Errorf("Command %v has empty Use field", c)
		}
		if c.Short == "" {
			t.Errorf("Command %s has empty Short description", c.Use)
		}
	}
}

func TestExecCommand(t *testing.T) {
	dir, cfg := workspace(t)

	out, err := runIn(t, dir, cfg, "exec", "pwd", "cd logs", "pwd")
	if err != nil {
		t.Fatalf("exec failed: %v", err)
	}
	if want := "/\n/logs\n"; out != want {
		t.Errorf("exec output = %q, want %q", out, want)
	}

	out, err = runIn(t, dir, cfg, "exec", "cd fizzbuzz")
	if err == nil {
		t.Error("exec into a locked directory should fail")
	}
	if !strings.Contains(out, "fizzbuzz is locked") {
		t.Errorf("exec output = %q", out)
	}

	if _, err := runIn(t, dir, cfg, "exec"); err == nil {
		t.Error("exec without a command line should fail")
	}
}

func TestTreeAndReset(t *testing.T) {
	dir, cfg := workspace(t)

	out, err := runIn(t, dir, cfg, "tree")
	if err != nil {
		t.Fatalf("tree failed: %v", err)
	}
	for _, want := range []string{"root/", "logs/", "day1.txt (locked)", "fizzbuzz/ (locked)", "locked file(s) remaining"} {
		if !strings.Contains(out, want) {
			t.Errorf("tree output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "report.txt") {
		t.Errorf("tree shows the contents of a locked directory:\n%s", out)
	}

	if _, err := runIn(t, dir, cfg, "exec", "cd logs", "unlock day1 one"); err != nil {
		t.Fatalf("unlock failed: %v", err)
	}
	out, _ = runIn(t, dir, cfg, "tree")
	if strings.Contains(out, "day1.txt (locked)") {
		t.Errorf("day1 still locked after unlock:\n%s", out)
	}

	out, err = runIn(t, dir, cfg, "reset", "--history")
	if err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	if !strings.Contains(out, "Progress reset.") || !strings.Contains(out, "History cleared.") {
		t.Errorf("reset output = %q", out)
	}
	out, _ = runIn(t, dir, cfg, "tree")
	if !strings.Contains(out, "day1.txt (locked)") {
		t.Errorf("day1 should be locked after reset:\n%s", out)
	}
}

func TestHighlightCommand(t *testing.T) {
	dir, cfg := workspace(t)
	script := filepath.Join(dir, "solution.py")
	if err := os.WriteFile(script, []byte("def twice(x):\n\treturn twice(x) # loop\n"), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := runIn(t, dir, cfg, "highlight", script)
	if err != nil {
		t.Fatalf("highlight failed: %v", err)
	}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("highlight printed %d lines, want 2:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "<color=") || !strings.Contains(lines[1], "twice</color>") {
		t.Errorf("highlight output = %q", out)
	}

	if _, err := runIn(t, dir, cfg, "highlight", script, "--style", "no-such-style"); err == nil {
		t.Error("highlight with an unknown style should fail")
	}
	if _, err := runIn(t, dir, cfg, "highlight", filepath.Join(dir, "missing.py")); err == nil {
		t.Error("highlight of a missing file should fail")
	}
}

func TestCheckCommandErrors(t *testing.T) {
	dir, cfg := workspace(t)
	script := filepath.Join(dir, "solution.py")
	if err := os.WriteFile(script, []byte("def main(n):\n\treturn n\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := runIn(t, dir, cfg, "check", "nope", script); err == nil || !strings.Contains(err.Error(), "no such puzzle") {
		t.Errorf("check of an unknown puzzle: err = %v", err)
	}
	if _, err := runIn(t, dir, cfg, "check", "fizzbuzz", filepath.Join(dir, "missing.py")); err == nil {
		t.Error("check of a missing file should fail")
	}
}

func TestConfigCommands(t *testing.T) {
	dir, cfg := workspace(t)

	out, err := runIn(t, dir, cfg, "config", "show")
	if err != nil {
		t.Fatalf("config show failed: %v", err)
	}
	if !strings.Contains(out, "store: json") || !strings.Contains(out, "data_dir: "+dir) {
		t.Errorf("config show = %q", out)
	}

	out, err = runIn(t, dir, cfg, "config", "show", "--json")
	if err != nil {
		t.Fatalf("config show --json failed: %v", err)
	}
	if !strings.Contains(out, `"store": "json"`) {
		t.Errorf("config show --json = %q", out)
	}

	out, _ = run(t, "--config", cfg, "config", "path")
	if strings.TrimSpace(out) != cfg {
		t.Errorf("config path = %q, want %q", out, cfg)
	}
}

func TestConfigInit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "codeterm.yaml")

	out, err := run(t, "--config", path, "--data-dir", dir, "config", "init")
	if err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	if !strings.Contains(out, path) {
		t.Errorf("config init output = %q", out)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not written: %v", err)
	}

	if _, err := run(t, "--config", path, "config", "init"); err == nil {
		t.Error("config init over an existing file should fail")
	}
	if _, err := run(t, "--config", path, "config", "init", "--force"); err != nil {
		t.Errorf("config init --force failed: %v", err)
	}

	out, err = run(t, "--config", path, "--data-dir", dir, "config", "show")
	if err != nil {
		t.Fatalf("config show of the written file failed: %v", err)
	}
	if !strings.Contains(out, "palette: monokai") {
		t.Errorf("config show = %q", out)
	}
}

func TestMissingConfigFile(t *testing.T) {
	dir := t.TempDir()
	if _, err := run(t, "--config", filepath.Join(dir, "nope.yaml"), "--data-dir", dir, "tree"); err == nil {
		t.Error("an explicit missing config file should be an error")
	}
}
