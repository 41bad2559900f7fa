// SPDX-License-Identifier: MPL-2.0

package config

import "context"

type (
	// LoadOptions selects the configuration source.
	LoadOptions struct {
		// ConfigFilePath loads exactly this file when set.
		ConfigFilePath string
		// ConfigDirPath replaces the config directory lookup when set.
		ConfigDirPath string
	}

	// Loaded is a configuration together with the file it came from. Path is
	// empty when only defaults and environment variables applied.
	Loaded struct {
		Config *Config
		Path   string
	}

	// Provider loads configuration.
	Provider interface {
		Load(ctx context.Context, opts LoadOptions) (*Loaded, error)
	}

	fileProvider struct{}

	// StaticProvider always returns the same configuration.
	StaticProvider struct {
		Config *Config
	}
)

// NewProvider creates a provider that reads config.cue files.
func NewProvider() Provider {
	return &fileProvider{}
}

// Load reads configuration from the requested source.
func (p *fileProvider) Load(ctx context.Context, opts LoadOptions) (*Loaded, error) {
	cfg, path, err := loadWithOptions(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Loaded{Config: cfg, Path: path}, nil
}

// Load returns the static configuration, or the defaults when it is nil.
func (p StaticProvider) Load(context.Context, LoadOptions) (*Loaded, error) {
	if p.Config == nil {
		return &Loaded{Config: DefaultConfig()}, nil
	}
	return &Loaded{Config: p.Config}, nil
}
