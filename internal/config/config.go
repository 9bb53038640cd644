// Package config loads nodebucket settings from a YAML file, an optional
// .env file and the process environment, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

// Config holds all nodebucket settings.
type Config struct {
	// Listen is the address the API server binds to.
	Listen string      `yaml:"listen"`
	Store  StoreConfig `yaml:"store"`
	Cache  CacheConfig `yaml:"cache"`
	Log    LogConfig   `yaml:"log"`
	API    APIConfig   `yaml:"api"`
	// Debug forces debug logging. It is only read from the environment.
	Debug bool `yaml:"-"`
}

// StoreConfig selects and configures the document store.
type StoreConfig struct {
	Driver        string `yaml:"driver"`
	SQLitePath    string `yaml:"sqlite_path"`
	MongoURI      string `yaml:"mongo_uri"`
	MongoDatabase string `yaml:"mongo_database"`
}

// CacheConfig configures the optional Redis read cache. An empty RedisURL
// disables it.
type CacheConfig struct {
	RedisURL string        `yaml:"redis_url"`
	TTL      time.Duration `yaml:"ttl"`
}

// LogConfig configures logrus.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// APIConfig configures clients of the REST API.
type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// Dir returns ~/.nodebucket, falling back to the working directory.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".nodebucket"
	}
	return filepath.Join(home, ".nodebucket")
}

// DefaultPath is the config file used when --config is not given.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// DefaultConfig returns a configuration that runs locally on SQLite.
func DefaultConfig() *Config {
	return &Config{
		Listen: "127.0.0.1:7466",
		Store: StoreConfig{
			Driver:        DriverSQLite,
			SQLitePath:    filepath.Join(Dir(), "nodebucket.db"),
			MongoDatabase: "nodebucket",
		},
		Cache: CacheConfig{
			TTL: 5 * time.Minute,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		API: APIConfig{
			BaseURL: "http://127.0.0.1:7466",
			Timeout: 10 * time.Second,
		},
	}
}

// Load reads path (a missing file yields defaults), loads .env from the
// working directory when present, applies environment overrides and
// validates the result.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides settings from environment variables.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	overrides := map[string]*string{
		"NODEBUCKET_LISTEN":       &c.Listen,
		"NODEBUCKET_STORE_DRIVER": &c.Store.Driver,
		"NODEBUCKET_SQLITE_PATH":  &c.Store.SQLitePath,
		"MONGO_URI":               &c.Store.MongoURI,
		"MONGO_DATABASE":          &c.Store.MongoDatabase,
		"REDIS_URL":               &c.Cache.RedisURL,
		"LOG_LEVEL":               &c.Log.Level,
		"LOG_FORMAT":              &c.Log.Format,
		"NODEBUCKET_API":          &c.API.BaseURL,
	}
	for key, dst := range overrides {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	if v, ok := lookup("CACHE_TTL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid CACHE_TTL: %w", err)
		}
		c.Cache.TTL = d
	}
	if v, ok := lookup("DEBUG"); ok && v != "" {
		dbg, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid DEBUG: %w", err)
		}
		c.Debug = dbg
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen must not be empty")
	}

	switch c.Store.Driver {
	case DriverSQLite:
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("store.sqlite_path is required for the sqlite driver")
		}
	case DriverMongo:
		if c.Store.MongoURI == "" {
			return fmt.Errorf("store.mongo_uri is required for the mongo driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("invalid store.driver %q, must be: sqlite, mongo, or memory", c.Store.Driver)
	}

	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative")
	}

	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log.level: %w", err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("invalid log.format %q, must be: text or json", c.Log.Format)
	}

	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url must not be empty")
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive")
	}
	return nil
}

// NewLogger builds a logrus logger from the log settings.
func (c *Config) NewLogger() *log.Logger {
	logger := log.New()
	if lvl, err := log.ParseLevel(c.Log.Level); err == nil {
		logger.SetLevel(lvl)
	}
	if c.Debug {
		logger.SetLevel(log.DebugLevel)
	}
	if c.Log.Format == "json" {
		logger.SetFormatter(&log.JSONFormatter{})
	} else {
		logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return logger
}
