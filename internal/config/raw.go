package config

import (
	"time"

	"github.com/1broseidon/monlayout/internal/layout"
)

// RawConfig mirrors the YAML file. Nil fields were not set and keep their
// defaults.
type RawConfig struct {
	LayoutFile        *string                `yaml:"layout_file"`
	QueryCommand      *string                `yaml:"query_command"`
	ConfigureCommand  *string                `yaml:"configure_command"`
	Enumerator        *EnumeratorKind        `yaml:"enumerator"`
	PositionSource    *layout.PositionSource `yaml:"position_source"`
	DefaultPosition   *layout.Position       `yaml:"default_position"`
	DefaultResolution *string                `yaml:"default_resolution"`
	ApplyOnStart      *bool                  `yaml:"apply_on_start"`
	HotplugApply      *bool                  `yaml:"hotplug_apply"`
	ApplyHotkey       *string                `yaml:"apply_hotkey"`
	MoveStep          *int                   `yaml:"move_step"`
	CommandTimeout    *time.Duration         `yaml:"command_timeout"`
	LogLevel          *string                `yaml:"log_level"`
}

// BuildEffectiveConfig applies raw on top of DefaultConfig.
func BuildEffectiveConfig(raw RawConfig) *Config {
	cfg := DefaultConfig()

	if raw.LayoutFile != nil {
		cfg.LayoutFile = *raw.LayoutFile
	}
	if raw.QueryCommand != nil {
		cfg.QueryCommand = *raw.QueryCommand
	}
	if raw.ConfigureCommand != nil {
		cfg.ConfigureCommand = *raw.ConfigureCommand
	}
	if raw.Enumerator != nil {
		cfg.Enumerator = *raw.Enumerator
	}
	if raw.PositionSource != nil {
		cfg.PositionSource = *raw.PositionSource
	}
	if raw.DefaultPosition != nil {
		cfg.DefaultPosition = *raw.DefaultPosition
	}
	if raw.DefaultResolution != nil {
		cfg.DefaultResolution = *raw.DefaultResolution
	}
	if raw.ApplyOnStart != nil {
		cfg.ApplyOnStart = *raw.ApplyOnStart
	}
	if raw.HotplugApply != nil {
		cfg.HotplugApply = *raw.HotplugApply
	}
	if raw.ApplyHotkey != nil {
		cfg.ApplyHotkey = *raw.ApplyHotkey
	}
	if raw.MoveStep != nil {
		cfg.MoveStep = *raw.MoveStep
	}
	if raw.CommandTimeout != nil {
		cfg.CommandTimeout = *raw.CommandTimeout
	}
	if raw.LogLevel != nil {
		cfg.LogLevel = *raw.LogLevel
	}
	return cfg
}
