package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/1broseidon/monlayout/internal/layout"
	"gopkg.in/yaml.v3"
)

// EnumeratorKind selects how connected outputs are discovered.
type EnumeratorKind string

const (
	EnumeratorXrandr EnumeratorKind = "xrandr" // Parse the query command's text output.
	EnumeratorRandR  EnumeratorKind = "randr"  // Ask the X server through the RandR extension.
)

const (
	DefaultMoveStep       = 10
	DefaultCommandTimeout = 10 * time.Second
)

// Config is the effective monlayout configuration.
type Config struct {
	// LayoutFile is where Save writes and Load reads. "~" is expanded.
	LayoutFile string `yaml:"layout_file"`

	QueryCommand     string `yaml:"query_command"`
	ConfigureCommand string `yaml:"configure_command"`

	Enumerator     EnumeratorKind        `yaml:"enumerator"`
	PositionSource layout.PositionSource `yaml:"position_source"`

	DefaultPosition   layout.Position `yaml:"default_position"`
	DefaultResolution string          `yaml:"default_resolution"`

	// ApplyOnStart queues an apply of the enumerated layout at startup.
	ApplyOnStart bool `yaml:"apply_on_start"`
	// HotplugApply makes the daemon load and apply the saved layout whenever
	// the set of connected outputs changes.
	HotplugApply bool `yaml:"hotplug_apply"`
	// ApplyHotkey is a global key sequence such as "Mod4-Shift-l" that
	// loads and applies the saved layout. Empty disables it.
	ApplyHotkey string `yaml:"apply_hotkey"`

	MoveStep       int           `yaml:"move_step"`
	CommandTimeout time.Duration `yaml:"command_timeout"`
	LogLevel       string        `yaml:"log_level"`
}

func DefaultConfig() *Config {
	return &Config{
		LayoutFile:        layout.DefaultLayoutFile,
		QueryCommand:      "xrandr",
		ConfigureCommand:  "xrandr",
		Enumerator:        EnumeratorXrandr,
		PositionSource:    layout.PositionFromDefaults,
		DefaultPosition:   layout.Position{X: 100, Y: 100},
		DefaultResolution: layout.DefaultResolution.String(),
		ApplyOnStart:      true,
		HotplugApply:      false,
		MoveStep:          DefaultMoveStep,
		CommandTimeout:    DefaultCommandTimeout,
		LogLevel:          "info",
	}
}

// Defaults returns the values enumerators give to new outputs.
func (c *Config) Defaults() layout.Defaults {
	res, err := layout.ParseResolution(c.DefaultResolution)
	if err != nil {
		res = layout.DefaultResolution
	}
	return layout.Defaults{
		Position:   c.DefaultPosition,
		Resolution: res,
	}
}

// SlogLevel maps LogLevel onto a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ResolvedLayoutFile returns LayoutFile with "~" expanded.
func (c *Config) ResolvedLayoutFile() (string, error) {
	return layout.ExpandPath(c.LayoutFile)
}

// Save writes the config to the default location.
func (c *Config) Save() error {
	if err := c.Validate(); err != nil {
		return err
	}

	path, err := DefaultConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.LayoutFile) == "" {
		return &ValidationError{Path: "layout_file", Err: fmt.Errorf("layout_file is required")}
	}
	if strings.TrimSpace(c.QueryCommand) == "" {
		return &ValidationError{Path: "query_command", Err: fmt.Errorf("query_command is required")}
	}
	if strings.TrimSpace(c.ConfigureCommand) == "" {
		return &ValidationError{Path: "configure_command", Err: fmt.Errorf("configure_command is required")}
	}
	switch c.Enumerator {
	case EnumeratorXrandr, EnumeratorRandR:
	default:
		return &ValidationError{Path: "enumerator", Err: fmt.Errorf("enumerator must be one of: xrandr, randr")}
	}
	if !c.PositionSource.Valid() {
		return &ValidationError{Path: "position_source", Err: fmt.Errorf("position_source must be one of: default, server")}
	}
	if _, err := layout.ParseResolution(c.DefaultResolution); err != nil {
		return &ValidationError{Path: "default_resolution", Err: err}
	}
	if strings.ContainsAny(c.ApplyHotkey, " \t") {
		return &ValidationError{Path: "apply_hotkey", Err: fmt.Errorf("apply_hotkey must be a key sequence like Mod4-Shift-l")}
	}
	if c.MoveStep <= 0 {
		return &ValidationError{Path: "move_step", Err: fmt.Errorf("move_step must be > 0")}
	}
	if c.CommandTimeout <= 0 {
		return &ValidationError{Path: "command_timeout", Err: fmt.Errorf("command_timeout must be > 0")}
	}
	if c.LogLevel != "debug" && c.LogLevel != "info" && c.LogLevel != "warning" && c.LogLevel != "error" {
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warning, error")}
	}
	return nil
}

// ValidationError ties a validation failure to a config key and, when known,
// the file position that set it.
type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }
