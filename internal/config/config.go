package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ConfigFile is the name of the repository list file in the home directory.
const ConfigFile = ".multigit.yaml"

// ErrConfigLoad wraps any failure while loading or validating the
// repository list. It is fatal to the whole process.
var ErrConfigLoad = errors.New("cannot load configuration")

// Paths holds the filesystem locations the tool depends on, resolved once
// at startup and injected everywhere below main.
type Paths struct {
	ConfigPath string
	SSHKeyPath string
}

// DefaultPaths resolves the config file and SSH private key under the
// invoking user's home directory.
func DefaultPaths() (Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Paths{}, fmt.Errorf("%w: %w", ErrConfigLoad, err)
	}
	return Paths{
		ConfigPath: filepath.Join(home, ConfigFile),
		SSHKeyPath: filepath.Join(home, ".ssh", "id_rsa"),
	}, nil
}

// Repository describes one managed working copy.
type Repository struct {
	Name        string `yaml:"name,omitempty"`
	Location    string `yaml:"location"`
	Description string `yaml:"description,omitempty"`
}

// DisplayName returns the configured name, falling back to the final path
// segment of the location. Empty when no name can be derived.
func (r Repository) DisplayName() string {
	if r.Name != "" {
		return r.Name
	}
	base := filepath.Base(r.Location)
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	return base
}

func (r Repository) validate() error {
	if r.Location == "" {
		return errors.New("location is required")
	}
	if r.DisplayName() == "" {
		return fmt.Errorf("cannot derive a name from location %q", r.Location)
	}
	return nil
}

// Config is the startup repository list.
type Config struct {
	Repositories []Repository `yaml:"repositories"`
}

// Load reads and validates the repository list from path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfigLoad, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfigLoad, err)
	}
	for i, repo := range cfg.Repositories {
		if err := repo.validate(); err != nil {
			return nil, fmt.Errorf("%w: repository %d: %w", ErrConfigLoad, i+1, err)
		}
	}
	return &cfg, nil
}
