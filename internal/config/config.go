// Package config loads the YAML configuration files: server.yaml for the
// process and generation.yaml for the course generator.
package config

import (
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds server-wide configuration settings.
type ServerConfig struct {
	// Joining disables new runs when false; existing runs continue.
	Joining bool `yaml:"joining"`

	// DataDir is the folder holding leaderboards/, players/ and schematics/.
	DataDir string `yaml:"data_dir"`

	// Mode is the leaderboard mode that runs are recorded under.
	Mode string `yaml:"mode"`

	Storage    StorageConfig    `yaml:"storage"`
	Schematics SchematicsConfig `yaml:"schematics"`
	Feed       FeedConfig       `yaml:"feed"`
	WebSocket  WebSocketConfig  `yaml:"websocket"`
}

// StorageConfig selects where leaderboards and player settings are kept.
type StorageConfig struct {
	// Driver is "disk" (JSON files), "sqlite" or "postgres".
	Driver string `yaml:"driver"`

	// SQLitePath is the database file used by the sqlite driver.
	SQLitePath string `yaml:"sqlite_path"`

	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`

	MaxOpenConns           int `yaml:"max_open_conns"`
	MaxIdleConns           int `yaml:"max_idle_conns"`
	ConnMaxLifetimeSeconds int `yaml:"conn_max_lifetime_seconds"`
}

// ConnMaxLifetime returns the pool lifetime as a duration.
func (c PostgresConfig) ConnMaxLifetime() time.Duration {
	return time.Duration(c.ConnMaxLifetimeSeconds) * time.Second
}

// SchematicsConfig locates the schematic files.
type SchematicsConfig struct {
	// Dir holds *.nbt schematic files. Relative paths resolve against DataDir.
	Dir string `yaml:"dir"`

	// FetchURL, when set, is downloaded into Dir before loading (any go-getter
	// source: git::, https://..., s3::).
	FetchURL string `yaml:"fetch_url"`

	// Spawn names the schematic pasted as the starting island.
	Spawn string `yaml:"spawn"`
}

// FeedConfig configures the live score websocket feed.
type FeedConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`

	// TopSize is the number of leaderboard entries sent on connect.
	TopSize int `yaml:"top_size"`

	// Connection limits. Zero means unlimited.
	MaxPerIP int `yaml:"max_per_ip"`
	MaxTotal int `yaml:"max_total"`
}

// WebSocketConfig holds WebSocket-specific settings.
type WebSocketConfig struct {
	// AllowedOrigins is a list of origins allowed to connect via WebSocket.
	// Empty list enforces same-origin policy.
	// Use "*" to allow all origins (not recommended for production).
	AllowedOrigins []string `yaml:"allowed_origins"`

	// MaxMessageSize is the maximum WebSocket message size in bytes.
	MaxMessageSize int64 `yaml:"max_message_size"`
}

// DefaultConfig returns a ServerConfig with disk storage and the feed off.
func DefaultConfig() *ServerConfig {
	return &ServerConfig{
		Joining: true,
		DataDir: "data",
		Mode:    "default",
		Storage: StorageConfig{
			Driver:     "disk",
			SQLitePath: "data/parkour.db",
			Postgres: PostgresConfig{
				Host:                   "localhost",
				Port:                   5432,
				SSLMode:                "disable",
				MaxOpenConns:           25,
				MaxIdleConns:           5,
				ConnMaxLifetimeSeconds: 300,
			},
		},
		Schematics: SchematicsConfig{
			Dir:   "schematics",
			Spawn: "spawn-island",
		},
		Feed: FeedConfig{
			Enabled:  false,
			Address:  ":8081",
			TopSize:  10,
			MaxPerIP: 5,
			MaxTotal: 200,
		},
		WebSocket: WebSocketConfig{
			AllowedOrigins: []string{},
			MaxMessageSize: 4096,
		},
	}
}

// LoadConfig loads server configuration from a YAML file.
// If the file doesn't exist, returns default config.
func LoadConfig(path string) (*ServerConfig, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return config, err
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return DefaultConfig(), err
	}

	return config, nil
}

// IsOriginAllowed checks if the given origin is allowed based on the config.
// Returns true if:
// - AllowedOrigins contains "*" (allow all)
// - AllowedOrigins contains the exact origin
// - AllowedOrigins is empty and origin matches the request host (same-origin)
func (c *WebSocketConfig) IsOriginAllowed(origin, requestHost string) bool {
	if len(c.AllowedOrigins) == 0 {
		return isSameOrigin(origin, requestHost)
	}

	for _, allowed := range c.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}

	return false
}

// isSameOrigin checks if the origin matches the request host (same-origin policy).
func isSameOrigin(origin, requestHost string) bool {
	if origin == "" {
		return true // non-browser clients send no Origin header
	}

	originHost := origin
	if idx := strings.Index(origin, "://"); idx != -1 {
		originHost = origin[idx+3:]
	}
	originHost = strings.TrimSuffix(originHost, "/")

	return originHost == requestHost
}
