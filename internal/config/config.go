package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/cassandra-bootstrap/internal/strategy"
)

// Config holds the filesystem and process-control parameters of the bootstrap.
type Config struct {
	// DataDir is the Cassandra data directory cleared before every install.
	DataDir string `yaml:"data_dir"`
	// InstallDir is where downloaded archives are extracted.
	InstallDir string `yaml:"install_dir"`
	// ServiceName is the host service-manager unit stopped before install.
	ServiceName string `yaml:"service_name"`
	// DownloadTimeout bounds the single archive download attempt.
	DownloadTimeout time.Duration `yaml:"download_timeout"`
	// Privileged launches the server through sudo on Unix hosts.
	Privileged bool `yaml:"privileged"`
	// Overrides maps exact version strings to install strategies,
	// shadowing the built-in strategy table.
	Overrides map[string]strategy.Strategy `yaml:"overrides,omitempty"`
}

const (
	// DefaultConfigFilename is the default filename for bootstrap settings.
	DefaultConfigFilename = "bootstrap-settings.yaml"

	// DefaultDataDir is where stock Cassandra packages keep their data.
	DefaultDataDir = "/var/lib/cassandra"

	// DefaultInstallDir is the extraction target relative to the working directory.
	DefaultInstallDir = "cassandra-dist"

	// DefaultServiceName is the service unit stock CI images register Cassandra under.
	DefaultServiceName = "cassandra"

	// DefaultDownloadTimeout bounds the archive download. The archives are
	// large and CI mirrors are slow, so this is generous.
	DefaultDownloadTimeout = 5 * time.Minute

	// DefaultFilePermissions is the permission for settings files written by Save.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errDataDirRequired is returned when the data directory is blank.
	errDataDirRequired = errors.New("data directory must be provided")
	// errInstallDirRequired is returned when the install directory is blank.
	errInstallDirRequired = errors.New("install directory must be provided")
)

// Default returns the configuration used when no settings file exists.
// CI images rarely ship one, so every field has a workable default.
func Default() *Config {
	return &Config{
		DataDir:         DefaultDataDir,
		InstallDir:      DefaultInstallDir,
		ServiceName:     DefaultServiceName,
		DownloadTimeout: DefaultDownloadTimeout,
	}
}

// Load reads configuration from the provided path and validates essential fields.
// A missing file is not an error: defaults apply.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}

		return nil, fmt.Errorf("read settings: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(contents, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks required fields and fills in defaults for optional ones.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.DataDir == "" {
		return errDataDirRequired
	}

	if cfg.InstallDir == "" {
		return errInstallDirRequired
	}

	if cfg.ServiceName == "" {
		cfg.ServiceName = DefaultServiceName
	}

	if cfg.DownloadTimeout <= 0 {
		cfg.DownloadTimeout = DefaultDownloadTimeout
	}

	for v, override := range cfg.Overrides {
		if override.DownloadURL == "" {
			continue
		}

		if _, err := url.ParseRequestURI(override.DownloadURL); err != nil {
			return fmt.Errorf("override %s: invalid download URL: %w", v, err)
		}
	}

	return nil
}
