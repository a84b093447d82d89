package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"codeterm/pkg/app"
	"codeterm/pkg/config"
)

var (
	// Root command flags
	verbose    bool
	configPath string
	dataDir    string

	// Root command
	rootCmd = &cobra.Command{
		Use:   "codeterm",
		Short: "A locked virtual filesystem explored through a terminal and a code editor",
		Long: `codeterm drops you into a small virtual filesystem where most files and
directories are locked. Unlock files with keywords found in the ones you
can read, and unlock directories by solving their coding puzzles in the
built-in editor.

Progress and command history are saved in the data directory.`,
		Version:           "1.0.0",
		RunE:              runPlay,
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
)

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default "+config.DefaultConfigPath()+")")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "directory for saves, history and logs")

	// Add subcommands
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(execCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(treeCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(highlightCmd)
	rootCmd.AddCommand(configCmd)
}

// loadConfig layers the command line flags over the file and environment
// configuration
func loadConfig() (config.AppConfig, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.AppConfig{}, err
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, cfg.Validate()
}

// withResources opens the saved world for the duration of fn
func withResources(fn func(r *app.Resources) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	r, err := app.OpenResources(cfg)
	if err != nil {
		return err
	}
	defer r.Close()
	return fn(r)
}

// isTerminal reports whether w writes to a terminal, which decides between
// styled and plain output
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
