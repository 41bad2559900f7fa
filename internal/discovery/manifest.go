// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

const (
	// ManifestFileName is the optional project manifest.
	ManifestFileName = "grove.toml"
	// DotEnvFileName is the optional project env file.
	DotEnvFileName = ".env"
)

// Manifest is the decoded grove.toml.
//
//	name = "site"
//
//	[env]
//	HUGO_ENV = "production"
type Manifest struct {
	Name string            `toml:"name"`
	Env  map[string]string `toml:"env"`
}

// LoadManifest reads grove.toml from dir. A missing file yields an empty
// manifest.
func LoadManifest(dir string) (*Manifest, error) {
	path := filepath.Join(dir, ManifestFileName)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Manifest{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		var decErr *toml.DecodeError
		if errors.As(err, &decErr) {
			row, col := decErr.Position()
			return nil, fmt.Errorf("%s:%d:%d: %w", path, row, col, err)
		}
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &m, nil
}

// LoadDotEnv reads .env from dir. A missing file yields no variables.
func LoadDotEnv(dir string) (map[string]string, error) {
	path := filepath.Join(dir, DotEnvFileName)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	env, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return env, nil
}
