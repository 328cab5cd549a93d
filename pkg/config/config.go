// Package config loads cratedeps settings.
//
// Settings come from four layers, later layers winning:
//
//  1. built-in defaults ([Default])
//  2. a TOML file (--config, or $XDG_CONFIG_HOME/cratedeps/config.toml)
//  3. environment variables, including a .env file found by walking up from
//     the working directory
//  4. command-line flags, applied by the CLI
//
// Example config.toml:
//
//	[registry]
//	backend = "postgres"
//	database_url = "postgres://localhost/crates"
//
//	[build]
//	max_depth = 0
//	kinds = ["normal", "build"]
//
//	[cache]
//	ttl = "24h"
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	errs "github.com/matzehuels/cratedeps/pkg/errors"
	"github.com/matzehuels/cratedeps/pkg/registry"
)

const appName = "cratedeps"

// Registry backends.
const (
	BackendPostgres = "postgres"
	BackendAPI      = "api"
	BackendIndex    = "index"
)

// Backends lists the valid registry backends.
var Backends = []string{BackendPostgres, BackendAPI, BackendIndex}

// Duration is a time.Duration written as a Go duration string ("24h").
type Duration struct{ time.Duration }

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// Config is the full settings tree.
type Config struct {
	Registry RegistryConfig `toml:"registry"`
	Build    BuildConfig    `toml:"build"`
	Cache    CacheConfig    `toml:"cache"`
	HTTP     HTTPConfig     `toml:"http"`
	Store    StoreConfig    `toml:"store"`
	Server   ServerConfig   `toml:"server"`
	Export   ExportConfig   `toml:"export"`
}

// RegistryConfig selects and configures the registry backend.
type RegistryConfig struct {
	Backend       string `toml:"backend"`        // postgres, api or index
	DatabaseURL   string `toml:"database_url"`   // postgres DSN
	Index         string `toml:"index"`          // local checkout path or sparse index URL
	APIURL        string `toml:"api_url"`        // crates.io API root
	IncludeYanked bool   `toml:"include_yanked"` // api and index backends only
}

// BuildConfig holds graph build defaults.
type BuildConfig struct {
	MaxDepth         int      `toml:"max_depth"`
	Kinds            []string `toml:"kinds"`
	SkipUnresolvable bool     `toml:"skip_unresolvable"`
	StableOnly       bool     `toml:"stable_only"`
}

// CacheConfig configures the registry response cache.
type CacheConfig struct {
	Disabled bool     `toml:"disabled"`
	Dir      string   `toml:"dir"`
	RedisURL string   `toml:"redis_url"` // takes precedence over Dir when set
	TTL      Duration `toml:"ttl"`
}

// HTTPConfig tunes the HTTP registry clients.
type HTTPConfig struct {
	Attempts int      `toml:"attempts"`
	Delay    Duration `toml:"delay"`
	Timeout  Duration `toml:"timeout"`
}

// StoreConfig configures where runs are persisted.
type StoreConfig struct {
	MongoURI string `toml:"mongo_uri"`
	Database string `toml:"database"`
	Dir      string `toml:"dir"`
}

// ServerConfig configures the serve command.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// ExportConfig holds DOT rendering defaults.
type ExportConfig struct {
	RankDir    string `toml:"rankdir"`
	MarkCycles bool   `toml:"mark_cycles"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Registry: RegistryConfig{
			Backend: BackendAPI,
			APIURL:  "https://crates.io/api/v1",
			Index:   "https://index.crates.io",
		},
		Build: BuildConfig{
			Kinds: registry.DefaultKinds().Strings(),
		},
		Cache: CacheConfig{
			Dir: defaultCacheDir(),
			TTL: Duration{24 * time.Hour},
		},
		HTTP: HTTPConfig{
			Attempts: 3,
			Delay:    Duration{time.Second},
			Timeout:  Duration{10 * time.Second},
		},
		Server: ServerConfig{Addr: ":8080"},
		Export: ExportConfig{RankDir: "TB"},
	}
}

// Load builds a Config from defaults, the file at path and the environment.
// An empty path reads [DefaultPath] if it exists; an explicit path must exist.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		if err := cfg.decodeFile(path); err != nil {
			if explicit || !errors.Is(err, fs.ErrNotExist) {
				return cfg, errs.Wrap(errs.ErrCodeInvalidConfig, err, "load config %s", path)
			}
		}
	}

	cfg.ApplyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) decodeFile(path string) error {
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

// ApplyEnv overrides settings from environment variables read via getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	set(&c.Registry.DatabaseURL, "DATABASE_URL")
	set(&c.Registry.Backend, "CRATEDEPS_REGISTRY")
	set(&c.Registry.Index, "CRATEDEPS_INDEX")
	set(&c.Cache.RedisURL, "REDIS_URL")
	set(&c.Store.MongoURI, "MONGODB_URI")
	set(&c.Server.Addr, "CRATEDEPS_ADDR")

	if v := getenv("CRATEDEPS_MAX_DEPTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Build.MaxDepth = n
		}
	}
	if v := getenv("CRATEDEPS_KINDS"); v != "" {
		c.Build.Kinds = strings.Split(v, ",")
	}
}

// Validate reports the first invalid setting as INVALID_CONFIG.
func (c *Config) Validate() error {
	if !slices.Contains(Backends, c.Registry.Backend) {
		return errs.New(errs.ErrCodeInvalidConfig, "unknown registry backend %q (want %s)",
			c.Registry.Backend, strings.Join(Backends, ", "))
	}
	switch c.Registry.Backend {
	case BackendAPI:
		if err := errs.ValidateURL(c.Registry.APIURL); err != nil {
			return errs.Wrap(errs.ErrCodeInvalidConfig, err, "registry.api_url")
		}
	case BackendIndex:
		if c.Registry.Index == "" {
			return errs.New(errs.ErrCodeInvalidConfig, "registry.index is required for the index backend")
		}
	}
	if c.Build.MaxDepth < 0 {
		return errs.New(errs.ErrCodeInvalidConfig, "max_depth must be >= 0, got %d", c.Build.MaxDepth)
	}
	if _, err := c.Kinds(); err != nil {
		return err
	}
	if c.HTTP.Attempts < 1 {
		return errs.New(errs.ErrCodeInvalidConfig, "http.attempts must be >= 1, got %d", c.HTTP.Attempts)
	}
	return nil
}

// Kinds parses Build.Kinds.
func (c *Config) Kinds() (registry.Kinds, error) {
	kinds, err := registry.ParseKinds(strings.Join(c.Build.Kinds, ","))
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidConfig, err, "build.kinds")
	}
	return kinds, nil
}

// DefaultPath returns $XDG_CONFIG_HOME/cratedeps/config.toml, falling back
// to ~/.config. It returns "" if neither can be determined.
func DefaultPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appName, "config.toml")
}

func defaultCacheDir() string {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".cache", appName)
}

// LoadDotenv walks up from dir looking for a .env file and loads the first
// one found. Variables already set in the environment are kept. It returns
// the loaded path, or "" if there was none.
func LoadDotenv(dir string) (string, error) {
	for {
		envFile := filepath.Join(dir, ".env")
		if _, err := os.Stat(envFile); err == nil {
			return envFile, godotenv.Load(envFile)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}
