package cli

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/cratedeps/pkg/cache"
	"github.com/matzehuels/cratedeps/pkg/config"
	"github.com/matzehuels/cratedeps/pkg/httputil"
	"github.com/matzehuels/cratedeps/pkg/integrations"
	"github.com/matzehuels/cratedeps/pkg/integrations/crates"
	"github.com/matzehuels/cratedeps/pkg/registry"
	"github.com/matzehuels/cratedeps/pkg/registry/cratesio"
	"github.com/matzehuels/cratedeps/pkg/registry/index"
	"github.com/matzehuels/cratedeps/pkg/registry/postgres"
	"github.com/matzehuels/cratedeps/pkg/store"
	"github.com/matzehuels/cratedeps/pkg/store/mongo"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "cratedeps"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	cfg        config.Config
}

// New creates a new CLI instance with a default logger and default settings.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		cfg:    config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// loadConfig reads .env, the config file and the environment into c.cfg.
func (c *CLI) loadConfig() error {
	if wd, err := os.Getwd(); err == nil {
		path, err := config.LoadDotenv(wd)
		if err != nil {
			c.Logger.Warn("could not load .env", "path", path, "err", err)
		} else if path != "" {
			c.Logger.Debug("loaded environment", "path", path)
		}
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.cfg = cfg
	return nil
}

// =============================================================================
// Backend Factory
// =============================================================================

// registryFlags are the per-invocation overrides of the [registry] and
// [cache] config sections.
type registryFlags struct {
	backend       string
	databaseURL   string
	index         string
	includeYanked bool
	noCache       bool
}

// backend is an opened registry together with the cache it writes to.
type backend struct {
	registry.Registry
	cache cache.Cache
}

func (b *backend) Close() error {
	return errors.Join(b.Registry.Close(), b.cache.Close())
}

// openRegistry builds the configured registry, instrumented for metrics and
// wrapped in the response cache.
func (c *CLI) openRegistry(ctx context.Context, f registryFlags) (*backend, error) {
	rc := c.cfg.Registry
	if f.backend != "" {
		rc.Backend = f.backend
	}
	if f.databaseURL != "" {
		rc.DatabaseURL = f.databaseURL
	}
	if f.index != "" {
		rc.Index = f.index
	}
	rc.IncludeYanked = rc.IncludeYanked || f.includeYanked

	cfg := c.cfg
	cfg.Registry = rc
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	base, err := c.openBase(ctx, rc)
	if err != nil {
		return nil, err
	}

	ch, err := c.newCache(ctx, f.noCache)
	if err != nil {
		base.Close()
		return nil, err
	}
	reg := registry.Cached(registry.Instrument(base), ch, c.cfg.Cache.TTL.Duration)
	c.Logger.Debug("registry ready", "backend", base.Name())
	return &backend{Registry: reg, cache: ch}, nil
}

func (c *CLI) openBase(ctx context.Context, rc config.RegistryConfig) (registry.Registry, error) {
	switch rc.Backend {
	case config.BackendPostgres:
		return postgres.Open(ctx, rc.DatabaseURL)
	case config.BackendIndex:
		client := c.httpClient("index")
		return index.Open(rc.Index, client, index.Options{IncludeYanked: rc.IncludeYanked, Logger: c.Logger})
	default:
		client := crates.NewClient(cache.NewNullCache(), 0).WithBaseURL(rc.APIURL)
		c.tuneHTTP(client.Client)
		return cratesio.New(client, cratesio.Options{IncludeYanked: rc.IncludeYanked, Logger: c.Logger}), nil
	}
}

// httpClient returns an uncached registry HTTP client; responses are cached
// one level up by the registry decorator.
func (c *CLI) httpClient(namespace string) *integrations.Client {
	headers := map[string]string{"User-Agent": integrations.UserAgent}
	return c.tuneHTTP(integrations.NewClient(cache.NewNullCache(), namespace, 0, headers))
}

func (c *CLI) tuneHTTP(client *integrations.Client) *integrations.Client {
	hc := c.cfg.HTTP
	client.WithRetry(httputil.Policy{
		Attempts: hc.Attempts,
		Delay:    hc.Delay.Duration,
		MaxDelay: 30 * hc.Delay.Duration,
	})
	if hc.Timeout.Duration > 0 {
		h := integrations.NewHTTPClient()
		h.Timeout = hc.Timeout.Duration
		client.WithHTTPClient(h)
	}
	return client
}

// newCache opens the configured cache: Redis when a URL is set, otherwise
// the file cache directory.
func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	cc := c.cfg.Cache
	if noCache || cc.Disabled {
		return cache.NewNullCache(), nil
	}
	if cc.RedisURL != "" {
		return cache.NewRedisCache(ctx, cc.RedisURL)
	}
	if cc.Dir == "" {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(cc.Dir)
}

// openStore opens MongoDB when configured, otherwise the run directory.
func (c *CLI) openStore(ctx context.Context) (store.Store, error) {
	sc := c.cfg.Store
	if sc.MongoURI != "" {
		return mongo.Open(ctx, sc.MongoURI, sc.Database)
	}
	return store.NewFileStore(sc.Dir)
}
