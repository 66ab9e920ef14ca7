// Package config loads the split pipeline's deployment configuration from
// a YAML file, with environment variables overriding the secrets that
// should not live on disk.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the full pipeline configuration.
type Config struct {
	Database   DatabaseConfig   `yaml:"database"`
	Provenance ProvenanceConfig `yaml:"provenance"`
	// TaskDeviceMap, when set, points at a YAML task-to-device map used
	// in place of the database lookup.
	TaskDeviceMap string        `yaml:"task_device_map,omitempty"`
	Archive       ArchiveConfig `yaml:"archive"`
	Backlog       BacklogConfig `yaml:"backlog"`
}

// DatabaseConfig locates the operations database.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password,omitempty"`
	SSLMode  string `yaml:"sslmode,omitempty"`
}

// DSN renders a lib/pq connection string.
func (c DatabaseConfig) DSN() string {
	sslmode := c.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	dsn := fmt.Sprintf("host=%s port=%d dbname=%s user=%s sslmode=%s",
		c.Host, c.Port, c.Name, c.User, sslmode)
	if c.Password != "" {
		dsn += " password=" + c.Password
	}
	return dsn
}

// ProvenanceConfig selects where split provenance rows go.
type ProvenanceConfig struct {
	// Driver is "postgres" (shares the database config above) or
	// "sqlite" (single-machine deployments).
	Driver string `yaml:"driver"`
	// Path is the SQLite database file; ignored for postgres.
	Path string `yaml:"path,omitempty"`
}

// ArchiveConfig selects where produced device files are copied.
type ArchiveConfig struct {
	// Kind is "none", "dir", "s3", or "gcs".
	Kind   string `yaml:"kind"`
	Dir    string `yaml:"dir,omitempty"`
	Bucket string `yaml:"bucket,omitempty"`
	Prefix string `yaml:"prefix,omitempty"`
	Region string `yaml:"region,omitempty"`
}

// BacklogConfig controls the queue of containers awaiting a split.
type BacklogConfig struct {
	// Kind is "fs" or "redis".
	Kind          string `yaml:"kind"`
	Dir           string `yaml:"dir,omitempty"`
	RedisAddr     string `yaml:"redis_addr,omitempty"`
	RedisPassword string `yaml:"redis_password,omitempty"`
	RedisDB       int    `yaml:"redis_db,omitempty"`
	// SplitsPerMinute throttles the backlog runner; 0 disables the
	// throttle.
	SplitsPerMinute float64 `yaml:"splits_per_minute,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Database: DatabaseConfig{
			Host: "localhost",
			Port: 5432,
			Name: "neurobooth",
			User: "neurobooth",
		},
		Provenance: ProvenanceConfig{Driver: "postgres"},
		Archive:    ArchiveConfig{Kind: "none"},
		Backlog:    BacklogConfig{Kind: "fs", Dir: "backlog"},
	}
}

// Load reads a YAML config file over the defaults and applies environment
// overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	}
	if pw := os.Getenv("XDFSPLIT_DB_PASSWORD"); pw != "" {
		cfg.Database.Password = pw
	}
	if pw := os.Getenv("XDFSPLIT_REDIS_PASSWORD"); pw != "" {
		cfg.Backlog.RedisPassword = pw
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the pipeline cannot run with.
func (c Config) Validate() error {
	switch c.Provenance.Driver {
	case "postgres":
	case "sqlite":
		if c.Provenance.Path == "" {
			return fmt.Errorf("config: provenance driver sqlite requires a path")
		}
	default:
		return fmt.Errorf("config: unknown provenance driver %q", c.Provenance.Driver)
	}
	switch c.Archive.Kind {
	case "", "none":
	case "dir":
		if c.Archive.Dir == "" {
			return fmt.Errorf("config: archive kind dir requires a dir")
		}
	case "s3", "gcs":
		if c.Archive.Bucket == "" {
			return fmt.Errorf("config: archive kind %s requires a bucket", c.Archive.Kind)
		}
	default:
		return fmt.Errorf("config: unknown archive kind %q", c.Archive.Kind)
	}
	switch c.Backlog.Kind {
	case "fs":
		if c.Backlog.Dir == "" {
			return fmt.Errorf("config: backlog kind fs requires a dir")
		}
	case "redis":
		if c.Backlog.RedisAddr == "" {
			return fmt.Errorf("config: backlog kind redis requires redis_addr")
		}
	default:
		return fmt.Errorf("config: unknown backlog kind %q", c.Backlog.Kind)
	}
	if c.Backlog.SplitsPerMinute < 0 {
		return fmt.Errorf("config: splits_per_minute must not be negative")
	}
	return nil
}
