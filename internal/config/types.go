// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"time"
)

const (
	// RuntimeVirtual runs scripts in the embedded mvdan/sh interpreter.
	RuntimeVirtual RuntimeMode = "virtual"
	// RuntimeNative runs scripts with the host shell.
	RuntimeNative RuntimeMode = "native"

	// ColorSchemeAuto detects the terminal background.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces the dark style.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces the light style.
	ColorSchemeLight ColorScheme = "light"

	// DefaultTasksDir is the project directory holding task files.
	DefaultTasksDir = ".grove"
	// DefaultCallTimeout bounds a single tool call.
	DefaultCallTimeout = 10 * time.Minute
	// DefaultServerName is the tool server name announced to clients.
	DefaultServerName = "grove"
)

var (
	// ErrInvalidRuntimeMode is returned for an unknown default_runtime.
	ErrInvalidRuntimeMode = errors.New("invalid runtime mode")
	// ErrInvalidColorScheme is returned for an unknown ui.color_scheme.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidConfig wraps every validation failure.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// RuntimeMode names the runtime used by tasks that do not pick one.
	RuntimeMode string

	// ColorScheme is the terminal color preference.
	ColorScheme string

	// Config is the decoded configuration.
	Config struct {
		DefaultRuntime RuntimeMode  `json:"default_runtime" mapstructure:"default_runtime"`
		TasksDir       string       `json:"tasks_dir" mapstructure:"tasks_dir"`
		UI             UIConfig     `json:"ui" mapstructure:"ui"`
		Tools          ToolsConfig  `json:"tools" mapstructure:"tools"`
		Native         NativeConfig `json:"native" mapstructure:"native"`
	}

	// UIConfig configures terminal output.
	UIConfig struct {
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
		Verbose     bool        `json:"verbose" mapstructure:"verbose"`
	}

	// ToolsConfig configures the tool server.
	ToolsConfig struct {
		CallTimeout time.Duration `json:"call_timeout" mapstructure:"call_timeout"`
		ServerName  string        `json:"server_name" mapstructure:"server_name"`
	}

	// NativeConfig configures the native runtime.
	NativeConfig struct {
		// Shell overrides shell detection when set.
		Shell string `json:"shell" mapstructure:"shell"`
	}
)

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		DefaultRuntime: RuntimeVirtual,
		TasksDir:       DefaultTasksDir,
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
		},
		Tools: ToolsConfig{
			CallTimeout: DefaultCallTimeout,
			ServerName:  DefaultServerName,
		},
	}
}

func (m RuntimeMode) String() string { return string(m) }

// Validate reports whether m is a known runtime.
func (m RuntimeMode) Validate() error {
	switch m {
	case RuntimeVirtual, RuntimeNative:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidRuntimeMode, string(m))
	}
}

func (c ColorScheme) String() string { return string(c) }

// Validate reports whether c is a known color scheme.
func (c ColorScheme) Validate() error {
	switch c {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidColorScheme, string(c))
	}
}

// Validate checks the values the schema cannot (environment overrides skip
// the schema).
func (c *Config) Validate() error {
	var errs []error
	if err := c.DefaultRuntime.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.UI.ColorScheme.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.TasksDir == "" {
		errs = append(errs, errors.New("tasks_dir must not be empty"))
	}
	if c.Tools.CallTimeout <= 0 {
		errs = append(errs, fmt.Errorf("tools.call_timeout must be positive, got %s", c.Tools.CallTimeout))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}
