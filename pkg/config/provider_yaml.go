package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// YAMLProvider implements ConfigProvider for YAML configuration files
type YAMLProvider struct {
	filename string
	config   *ConfigData
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// LoadConfig reads and parses the YAML configuration file
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	raw, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", y.filename, err)
	}

	cfg := &ConfigData{}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file %s: %w", y.filename, err)
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}

	y.config = cfg
	return cfg, nil
}

// GetCollections returns the configured sensor collections
func (y *YAMLProvider) GetCollections() ([]CollectionData, error) {
	if err := y.ensureLoaded(); err != nil {
		return nil, err
	}
	return y.config.Collections, nil
}

// GetServerConfig returns the REST server configuration, if any
func (y *YAMLProvider) GetServerConfig() (*ServerData, error) {
	if err := y.ensureLoaded(); err != nil {
		return nil, err
	}
	return y.config.Server, nil
}

// GetStorageConfig returns the storage backend configuration, if any
func (y *YAMLProvider) GetStorageConfig() (*StorageData, error) {
	if err := y.ensureLoaded(); err != nil {
		return nil, err
	}
	return y.config.Storage, nil
}

// Close is a no-op for file-backed configuration
func (y *YAMLProvider) Close() error {
	return nil
}

func (y *YAMLProvider) ensureLoaded() error {
	if y.config != nil {
		return nil
	}
	_, err := y.LoadConfig()
	return err
}

func validate(cfg *ConfigData) error {
	seen := make(map[string]bool)
	for i, c := range cfg.Collections {
		if c.Name == "" {
			return fmt.Errorf("collection %d has no name", i)
		}
		if seen[c.Name] {
			return fmt.Errorf("duplicate collection name %q", c.Name)
		}
		seen[c.Name] = true
		if c.BaseURL == "" || c.Feed == "" {
			return fmt.Errorf("collection %q needs base_url and feed", c.Name)
		}
		switch c.Cadence {
		case "latest", "daily":
		case "annual":
			if c.Year == 0 {
				return fmt.Errorf("annual collection %q needs a year", c.Name)
			}
		default:
			return fmt.Errorf("collection %q has unknown cadence %q", c.Name, c.Cadence)
		}
	}
	return nil
}
