// Package config defines the daemon configuration model and its providers.
package config

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	// Get specific configuration sections
	GetCollections() ([]CollectionData, error)
	GetServerConfig() (*ServerData, error)
	GetStorageConfig() (*StorageData, error)

	Close() error
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Collections []CollectionData `yaml:"collections" json:"collections"`
	Server      *ServerData      `yaml:"server,omitempty" json:"server,omitempty"`
	Storage     *StorageData     `yaml:"storage,omitempty" json:"storage,omitempty"`
}

// CollectionData describes one sensor dataset the daemon keeps loaded:
// which feed to pull, at what cadence, and how its metadata is shaped.
type CollectionData struct {
	Name    string `yaml:"name" json:"name"`
	BaseURL string `yaml:"base_url" json:"base_url"`
	Feed    string `yaml:"feed" json:"feed"`

	// Cadence is "latest", "daily", or "annual".
	Cadence string `yaml:"cadence" json:"cadence"`

	// Year applies to annual collections only.
	Year int `yaml:"year,omitempty" json:"year,omitempty"`

	// RefreshMinutes overrides the cadence's default refresh interval.
	RefreshMinutes int `yaml:"refresh_minutes,omitempty" json:"refresh_minutes,omitempty"`

	// AllColumns retains every metadata column instead of the core subset.
	// Ignored for annual collections, which have their own column set.
	AllColumns bool `yaml:"all_columns,omitempty" json:"all_columns,omitempty"`

	// Timezone, when set, trims each refresh to whole local calendar days.
	Timezone string `yaml:"timezone,omitempty" json:"timezone,omitempty"`

	// DropEmpty removes series with zero valid observations after load.
	DropEmpty bool `yaml:"drop_empty,omitempty" json:"drop_empty,omitempty"`
}

// ServerData holds the configuration for the REST API server
type ServerData struct {
	ListenAddr string `yaml:"listen_addr,omitempty" json:"listen_addr,omitempty"`
	Port       int    `yaml:"port" json:"port"`
}

// StorageData holds the configuration for the storage backends
type StorageData struct {
	SQLite      *SQLiteData      `yaml:"sqlite,omitempty" json:"sqlite,omitempty"`
	TimescaleDB *TimescaleDBData `yaml:"timescaledb,omitempty" json:"timescaledb,omitempty"`
}

// SQLiteData configures the status snapshot store.
type SQLiteData struct {
	Path string `yaml:"path" json:"path"`
}

// TimescaleDBData configures the Postgres/TimescaleDB observation archive.
type TimescaleDBData struct {
	ConnectionString string `yaml:"connection_string" json:"connection_string"`
}
