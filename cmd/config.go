package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"codeterm/pkg/config"
)

var (
	// Config command flags
	configJSON  bool
	configForce bool
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and create the configuration file",
	Long: `Inspect the effective configuration and create a configuration file.

Settings are layered: built-in defaults, then the config file, then
CODETERM_* environment variables, then command line flags.`,
}

// configShowCmd prints the effective configuration
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

// configPathCmd prints the config file location
var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

// configInitCmd writes the default configuration
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the default settings",
	Long: `Write the default configuration to the config file. A .json path is
written as JSON, anything else as YAML.

Example:
  codeterm config init --config ~/codeterm.yaml`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configInitCmd)

	configShowCmd.Flags().BoolVar(&configJSON, "json", false, "print as JSON")
	configInitCmd.Flags().BoolVarP(&configForce, "force", "f", false, "overwrite an existing file")
}

func effectiveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultConfigPath()
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	data, err := cfg.Marshal(configJSON)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	fmt.Fprintln(cmd.OutOrStdout(), effectiveConfigPath())
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := effectiveConfigPath()
	if _, err := os.Stat(path); err == nil && !configForce {
		return fmt.Errorf("%s already exists; use --force to overwrite it", path)
	}

	cfg := config.DefaultAppConfig()
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if err := cfg.Save(path); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", path)
	return nil
}
