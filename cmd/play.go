package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"codeterm/pkg/app"
)

// playCmd represents the play command
var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Start the interactive terminal",
	Long: `Start the interactive terminal. This is what codeterm does when no
command is given.

Keys:
  F1        key help         F2   switch between terminal and editor
  F5        run puzzle tests F10  menu
  Ctrl+S    save transcript  Ctrl+Q quit`,
	Args: cobra.NoArgs,
	RunE: runPlay,
}

// execCmd represents the exec command
var execCmd = &cobra.Command{
	Use:   "exec <command line>...",
	Short: "Run terminal commands without the interactive screen",
	Long: `Run each argument as one terminal command line against the saved
filesystem and print what it prints. Stops at the first failing command.

Example:
  codeterm exec "cd logs" "hint day1" "unlock day1 one"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExec,
}

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check <puzzle> <file|->",
	Short: "Test a solution file against a puzzle",
	Long: `Run the tests of a puzzle against a solution read from a file, or from
standard input when the file is "-". A passing solution unlocks the
puzzle's directory.

Example:
  codeterm check fizzbuzz solution.py`,
	Args: cobra.ExactArgs(2),
	RunE: runCheck,
}

func runPlay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if verbose {
		fmt.Fprintf(cmd.ErrOrStderr(), "Data directory: %s\n", cfg.DataDir)
		fmt.Fprintf(cmd.ErrOrStderr(), "Log file:       %s\n", cfg.LogPath())
	}
	return app.RunInteractive(cfg)
}

func runExec(cmd *cobra.Command, args []string) error {
	return withResources(func(r *app.Resources) error {
		return app.RunHeadless(r, args, cmd.OutOrStdout())
	})
}

func runCheck(cmd *cobra.Command, args []string) error {
	name, file := args[0], args[1]
	source, err := readSource(cmd.InOrStdin(), file)
	if err != nil {
		return err
	}

	return withResources(func(r *app.Resources) error {
		passed, err := app.CheckSource(context.Background(), r, name, source, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		if !passed {
			return fmt.Errorf("%s: tests failed", name)
		}
		return nil
	})
}

func readSource(stdin io.Reader, file string) (string, error) {
	var data []byte
	var err error
	if file == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(file)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read solution: %w", err)
	}
	return string(data), nil
}
