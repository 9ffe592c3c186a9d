package shared

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Client    ClientConfig    `toml:"client"`
	Downloads DownloadsConfig `toml:"downloads"`
	Updater   UpdaterConfig   `toml:"updater"`
}

// ClientConfig contains HTTP client settings for talking to the media server.
type ClientConfig struct {
	Product        string  `toml:"product"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
	RateLimit      float64 `toml:"rate_limit"`
	RateBurst      int     `toml:"rate_burst"`
}

// DownloadsConfig contains defaults for the download command.
type DownloadsConfig struct {
	Directory  string `toml:"directory"`
	LedgerPath string `toml:"ledger_path"`
}

// UpdaterConfig contains settings for the server update watcher.
type UpdaterConfig struct {
	Container string `toml:"container"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrMissingConfig, path, err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", ErrInvalidConfig, path, err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: config file already exists at %s", ErrInvalidConfig, path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, exampleConf, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LedgerPath resolves the download ledger location: the configured path when
// set, otherwise downloads.db in the tool's config directory.
func (c *Config) LedgerPath() (string, error) {
	if c.Downloads.LedgerPath != "" {
		return c.Downloads.LedgerPath, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "downloads.db"), nil
}
