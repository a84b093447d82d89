// Package config provides configuration management functionality
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"codeterm/pkg/editor"
	"codeterm/pkg/highlight"
	"codeterm/pkg/history"
	"codeterm/pkg/persist"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "CODETERM_"

const (
	appDirName         = "codeterm"
	defaultInterpreter = "python3"
	maxTabWidth        = 16
	maxHistoryEntries  = 100000
)

// Duration is a time.Duration written as a string such as "500ms" in
// config files.
type Duration time.Duration

// MarshalJSON writes the duration as a string
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON accepts a duration string or a number of nanoseconds
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return err
		}
		*d = Duration(parsed)
		return nil
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("duration must be a string or an integer: %w", err)
	}
	*d = Duration(n)
	return nil
}

// MarshalYAML writes the duration as a string
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML reads a duration string
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

// AppConfig contains application configuration
type AppConfig struct {
	DataDir         string            `json:"data_dir" yaml:"data_dir"`
	Store           string            `json:"store" yaml:"store"`
	LogLevel        string            `json:"log_level" yaml:"log_level"`
	LogFile         string            `json:"log_file" yaml:"log_file"`
	Palette         string            `json:"palette" yaml:"palette"`
	TabWidth        int               `json:"tab_width" yaml:"tab_width"`
	RepeatDelay     Duration          `json:"repeat_delay" yaml:"repeat_delay"`
	RepeatInterval  Duration          `json:"repeat_interval" yaml:"repeat_interval"`
	Interpreter     string            `json:"interpreter" yaml:"interpreter"`
	InterpreterArgs []string          `json:"interpreter_args" yaml:"interpreter_args"`
	ScriptTimeout   Duration          `json:"script_timeout" yaml:"script_timeout"`
	HistoryMax      int               `json:"history_max" yaml:"history_max"`
	HistoryFormat   string            `json:"history_format" yaml:"history_format"`
	ContentDir      string            `json:"content_dir" yaml:"content_dir"`
	Keys            map[string]string `json:"keys,omitempty" yaml:"keys,omitempty"`
}

// DefaultAppConfig returns default application configuration
func DefaultAppConfig() AppConfig {
	return AppConfig{
		DataDir:         DefaultDataDir(),
		Store:           persist.BackendJSON,
		LogLevel:        "info",
		Palette:         highlight.DefaultStyleName,
		TabWidth:        editor.DefaultTabWidth,
		RepeatDelay:     Duration(500 * time.Millisecond),
		RepeatInterval:  Duration(50 * time.Millisecond),
		Interpreter:     defaultInterpreter,
		InterpreterArgs: []string{"-"},
		ScriptTimeout:   Duration(3 * time.Second),
		HistoryMax:      history.DefaultMaxEntries,
		HistoryFormat:   history.FormatTimestamped.String(),
	}
}

// DefaultDataDir returns the per-user directory for saves, history and logs
func DefaultDataDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "." + appDirName
	}
	return filepath.Join(dir, appDirName)
}

// DefaultConfigPath returns the config file looked for when none is named
func DefaultConfigPath() string {
	return filepath.Join(DefaultDataDir(), "config.yaml")
}

// Validate checks if the configuration is valid
func (c AppConfig) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data directory cannot be empty")
	}
	switch c.Store {
	case persist.BackendJSON, persist.BackendYAML, persist.BackendBolt:
	default:
		return fmt.Errorf("unknown store backend: %s", c.Store)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	if c.Palette != "" && !highlight.StyleExists(c.Palette) {
		return fmt.Errorf("unknown palette style: %s", c.Palette)
	}
	if c.TabWidth < 1 || c.TabWidth > maxTabWidth {
		return fmt.Errorf("tab width must be between 1 and %d", maxTabWidth)
	}
	if c.RepeatDelay <= 0 || c.RepeatInterval <= 0 {
		return fmt.Errorf("repeat delay and interval must be greater than 0")
	}
	if c.Interpreter == "" {
		return fmt.Errorf("interpreter cannot be empty")
	}
	if c.ScriptTimeout <= 0 {
		return fmt.Errorf("script timeout must be greater than 0")
	}
	if c.HistoryMax < 1 || c.HistoryMax > maxHistoryEntries {
		return fmt.Errorf("history max must be between 1 and %d", maxHistoryEntries)
	}
	if _, err := history.ParseFileFormat(c.HistoryFormat); err != nil {
		return fmt.Errorf("invalid history format: %w", err)
	}
	if _, err := c.Keymap(); err != nil {
		return err
	}
	return nil
}

// Keymap returns the default key bindings with the configured ones applied
func (c AppConfig) Keymap() (*editor.Keymap, error) {
	k := editor.DefaultKeymap()
	for desc, action := range c.Keys {
		if err := k.BindKey(desc, action); err != nil {
			return nil, fmt.Errorf("invalid key binding %q: %w", desc, err)
		}
	}
	return k, nil
}

// StorePath returns the save file of the configured backend
func (c AppConfig) StorePath() string {
	name := "tree.json"
	switch c.Store {
	case persist.BackendYAML:
		name = "tree.yaml"
	case persist.BackendBolt:
		name = "tree.db"
	}
	return filepath.Join(c.DataDir, name)
}

// HistoryPath returns the command history database
func (c AppConfig) HistoryPath() string {
	return filepath.Join(c.DataDir, "history.db")
}

// LogPath returns the log file, defaulting to one in the data directory
func (c AppConfig) LogPath() string {
	if c.LogFile != "" {
		return c.LogFile
	}
	return filepath.Join(c.DataDir, "codeterm.log")
}

// TranscriptPath returns a fresh transcript file name in the data directory
func (c AppConfig) TranscriptPath(now time.Time) string {
	format, _ := history.ParseFileFormat(c.HistoryFormat)
	ext := "log"
	if format == history.FormatJSON {
		ext = "json"
	}
	return filepath.Join(c.DataDir, fmt.Sprintf("transcript_%s.%s", now.Format("20060102_150405"), ext))
}

// Load builds the configuration from defaults, the file at path and the
// environment, in that order. A missing file is not an error when path is
// the default location.
func Load(path string) (AppConfig, error) {
	cfg := DefaultAppConfig()

	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath()
	}
	if err := cfg.readFile(path); err != nil {
		if explicit || !os.IsNotExist(err) {
			return AppConfig{}, err
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return AppConfig{}, err
	}
	if err := cfg.Validate(); err != nil {
		return AppConfig{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *AppConfig) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return err
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, c)
	case ".yaml", ".yml", "":
		err = yaml.Unmarshal(data, c)
	default:
		return fmt.Errorf("unsupported config file type: %s", path)
	}
	if err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// ApplyEnv overrides fields from CODETERM_* environment variables
func (c *AppConfig) ApplyEnv() error {
	var err error
	strs := []struct {
		key string
		dst *string
	}{
		{"DATA_DIR", &c.DataDir},
		{"STORE", &c.Store},
		{"LOG_LEVEL", &c.LogLevel},
		{"LOG_FILE", &c.LogFile},
		{"PALETTE", &c.Palette},
		{"INTERPRETER", &c.Interpreter},
		{"HISTORY_FORMAT", &c.HistoryFormat},
		{"CONTENT_DIR", &c.ContentDir},
	}
	for _, s := range strs {
		if *s.dst, err = readString(EnvPrefix+s.key, *s.dst); err != nil {
			return err
		}
	}

	if c.TabWidth, err = readInt(EnvPrefix+"TAB_WIDTH", c.TabWidth, 1, maxTabWidth); err != nil {
		return err
	}
	if c.HistoryMax, err = readInt(EnvPrefix+"HISTORY_MAX", c.HistoryMax, 1, maxHistoryEntries); err != nil {
		return err
	}

	durations := []struct {
		key string
		dst *Duration
	}{
		{"REPEAT_DELAY", &c.RepeatDelay},
		{"REPEAT_INTERVAL", &c.RepeatInterval},
		{"SCRIPT_TIMEOUT", &c.ScriptTimeout},
	}
	for _, d := range durations {
		v, err := readDuration(EnvPrefix+d.key, time.Duration(*d.dst))
		if err != nil {
			return err
		}
		*d.dst = Duration(v)
	}
	return nil
}

// Save writes the configuration to path, as JSON for a .json path and YAML otherwise
func (c AppConfig) Save(path string) error {
	if path == "" {
		return fmt.Errorf("config path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := c.Marshal(strings.ToLower(filepath.Ext(path)) == ".json")
	if err != nil {
		return err
	}

	// Write to temporary file first, then rename for atomic operation
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temporary config file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename temporary config file: %w", err)
	}
	return nil
}

// Marshal encodes the configuration as YAML, or indented JSON when asJSON is set
func (c AppConfig) Marshal(asJSON bool) ([]byte, error) {
	if asJSON {
		data, err := json.MarshalIndent(c, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal config data: %w", err)
		}
		return append(data, '\n'), nil
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config data: %w", err)
	}
	return data, nil
}

func readString(key, fallback string) (string, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}
	if raw == "" {
		return "", fmt.Errorf("%s must not be empty", key)
	}
	return raw, nil
}

func readInt(key string, fallback, min, max int) (int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}

	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	if parsed < min || parsed > max {
		return 0, fmt.Errorf("%s must be between %d and %d", key, min, max)
	}
	return parsed, nil
}

func readDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid duration: %w", key, err)
	}
	if parsed <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", key)
	}
	return parsed, nil
}
