package cli

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/musclegraph/pkg/errors"
	"github.com/matzehuels/musclegraph/pkg/store"
)

const configFile = "config.toml"

// Cache backends accepted by [cache] backend.
const (
	cacheBackendFile   = "file"
	cacheBackendMemory = "memory"
	cacheBackendRedis  = "redis"
	cacheBackendNone   = "none"
)

const defaultAddr = ":8080"

// Config is the on-disk configuration. Flags override every field.
type Config struct {
	// Catalog is a file path, sqlite://path or mongodb:// URL. A relative
	// file path is resolved against the config file's directory.
	Catalog string       `toml:"catalog"`
	Cache   CacheConfig  `toml:"cache"`
	Layout  LayoutConfig `toml:"layout"`
	Server  ServerConfig `toml:"server"`
}

// CacheConfig selects where derived views are memoized.
type CacheConfig struct {
	Backend  string `toml:"backend"`
	RedisURL string `toml:"redis_url"`
	TTL      string `toml:"ttl"`
}

func (c CacheConfig) ttl() time.Duration {
	d, _ := time.ParseDuration(c.TTL)
	return d
}

// LayoutConfig holds default layout spacing.
type LayoutConfig struct {
	LevelWidth float64 `toml:"level_width"`
	NodeHeight float64 `toml:"node_height"`
}

// ServerConfig configures serve.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// loadConfig reads path, or the default config file when path is empty. A
// missing default file yields the zero Config; a missing explicit file is
// an error.
func loadConfig(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		dir, err := configDir()
		if err != nil {
			return Config{}, nil
		}
		path = filepath.Join(dir, configFile)
	}

	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if os.IsNotExist(err) {
			if !explicit {
				return Config{}, nil
			}
			return Config{}, errors.Wrap(errors.ErrCodeInvalidPath, err, "config %s", path)
		}
		return Config{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "read config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, errors.New(errors.ErrCodeInvalidFormat, "config %s: unknown key %q", path, undecoded[0].String())
	}

	return cfg, cfg.resolve(path)
}

// resolve validates cfg and anchors a relative catalog path at the config
// file's directory.
func (cfg *Config) resolve(path string) error {
	if cfg.Cache.TTL != "" {
		if d, err := time.ParseDuration(cfg.Cache.TTL); err != nil || d < 0 {
			return errors.New(errors.ErrCodeInvalidInput, "config %s: invalid cache ttl %q", path, cfg.Cache.TTL)
		}
	}
	switch cfg.Cache.Backend {
	case "", cacheBackendFile, cacheBackendMemory, cacheBackendNone:
	case cacheBackendRedis:
		if cfg.Cache.RedisURL == "" {
			return errors.New(errors.ErrCodeInvalidInput, "config %s: redis cache needs redis_url", path)
		}
	default:
		return errors.New(errors.ErrCodeInvalidInput, "config %s: unknown cache backend %q", path, cfg.Cache.Backend)
	}
	if cfg.Layout.LevelWidth < 0 || cfg.Layout.NodeHeight < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "config %s: layout spacing must not be negative", path)
	}

	if cfg.Catalog != "" && !filepath.IsAbs(cfg.Catalog) && store.IsFile(cfg.Catalog) {
		cfg.Catalog = filepath.Join(filepath.Dir(path), cfg.Catalog)
	}
	return nil
}

func (cfg Config) addr() string {
	if cfg.Server.Addr != "" {
		return cfg.Server.Addr
	}
	return defaultAddr
}
