package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default config should be valid: %v", err)
	}
	if cfg.Store.Driver != DriverSQLite {
		t.Errorf("Expected sqlite driver, got %q", cfg.Store.Driver)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Listen != DefaultConfig().Listen {
		t.Errorf("Expected default listen, got %q", cfg.Listen)
	}
}

func TestLoadYAML(t *testing.T) {
	chdir(t, t.TempDir())
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
listen: 0.0.0.0:9000
store:
  driver: mongo
  mongo_uri: mongodb://localhost:27017
cache:
  redis_url: redis://localhost:6379/0
  ttl: 30s
log:
  level: debug
  format: json
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Listen != "0.0.0.0:9000" || cfg.Store.Driver != DriverMongo {
		t.Errorf("Unexpected config %+v", cfg)
	}
	if cfg.Cache.TTL != 30*time.Second {
		t.Errorf("Expected 30s TTL, got %v", cfg.Cache.TTL)
	}
	if cfg.Store.MongoDatabase != "nodebucket" {
		t.Errorf("Expected default database to survive, got %q", cfg.Store.MongoDatabase)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("NODEBUCKET_LISTEN=127.0.0.1:9999\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Setenv("NODEBUCKET_LISTEN", "")
	os.Unsetenv("NODEBUCKET_LISTEN")

	cfg, err := Load(filepath.Join(dir, "missing.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Listen != "127.0.0.1:9999" {
		t.Errorf("Expected listen from .env, got %q", cfg.Listen)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	chdir(t, t.TempDir())
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("listen: [unterminated"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("Expected parse error")
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.ApplyEnv(envMap(map[string]string{
		"NODEBUCKET_STORE_DRIVER": "memory",
		"REDIS_URL":               "redis://cache:6379",
		"CACHE_TTL":               "1m",
		"DEBUG":                   "true",
		"NODEBUCKET_API":          "http://api:8080",
		"LOG_LEVEL":               "",
	}))
	if err != nil {
		t.Fatalf("ApplyEnv failed: %v", err)
	}
	if cfg.Store.Driver != DriverMemory || cfg.Cache.RedisURL != "redis://cache:6379" {
		t.Errorf("Unexpected store/cache %+v %+v", cfg.Store, cfg.Cache)
	}
	if cfg.Cache.TTL != time.Minute || !cfg.Debug || cfg.API.BaseURL != "http://api:8080" {
		t.Errorf("Unexpected overrides %+v", cfg)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Empty env values must not override, got %q", cfg.Log.Level)
	}

	if err := cfg.ApplyEnv(envMap(map[string]string{"CACHE_TTL": "soon"})); err == nil {
		t.Error("Expected error for invalid CACHE_TTL")
	}
	if err := cfg.ApplyEnv(envMap(map[string]string{"DEBUG": "maybe"})); err == nil {
		t.Error("Expected error for invalid DEBUG")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"unknown driver", func(c *Config) { c.Store.Driver = "postgres" }, "invalid store.driver"},
		{"mongo without uri", func(c *Config) { c.Store.Driver = DriverMongo }, "mongo_uri"},
		{"sqlite without path", func(c *Config) { c.Store.SQLitePath = "" }, "sqlite_path"},
		{"negative ttl", func(c *Config) { c.Cache.TTL = -time.Second }, "cache.ttl"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"empty listen", func(c *Config) { c.Listen = "" }, "listen"},
		{"zero timeout", func(c *Config) { c.API.Timeout = 0 }, "api.timeout"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("Expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Log.Format = "json"
	logger := cfg.NewLogger()
	if logger.GetLevel() != log.InfoLevel {
		t.Errorf("Expected info level, got %v", logger.GetLevel())
	}
	if _, ok := logger.Formatter.(*log.JSONFormatter); !ok {
		t.Errorf("Expected JSON formatter, got %T", logger.Formatter)
	}

	cfg.Debug = true
	if cfg.NewLogger().GetLevel() != log.DebugLevel {
		t.Error("Expected DEBUG to force debug level")
	}
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, added in Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatalf("restore working directory: %v", err)
		}
	})
}
