// Package config loads the service configuration from a TOML file and
// applies defaults and validation in one place, so the rest of the code
// never re-checks settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Defaults.
const (
	DefaultDataDir         = ""
	DefaultLogLevel        = "info"
	DefaultSyncInterval    = 5 * time.Minute
	DefaultSyncWorkers     = 4
	DefaultWindowSize      = 1000
	DefaultOverlapFraction = 0.15
	DefaultEmbeddingModel  = "text-embedding-004"
	DefaultDimensions      = 768
	DefaultCacheSize       = 4096
	DefaultListenAddr      = ":8080"
)

// Config is the root configuration.
type Config struct {
	// DataDir is where SQLite state lives. Empty means ~/.mirador/data.
	DataDir string `toml:"data_dir"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `toml:"log_level"`

	Sync      SyncConfig      `toml:"sync"`
	Chunker   ChunkerConfig   `toml:"chunker"`
	Embedding EmbeddingConfig `toml:"embedding"`
	Vector    VectorConfig    `toml:"vector"`
	API       APIConfig       `toml:"api"`
}

// Duration is a time.Duration that unmarshals from TOML strings
// like "5m" or "90s".
type Duration time.Duration

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) String() string { return time.Duration(d).String() }

// SyncConfig controls the scheduler and the per-run worker pool.
type SyncConfig struct {
	// Interval is the time between scheduled sync ticks. Zero disables
	// periodic ticks: only the startup sync and watch-driven syncs run.
	Interval Duration `toml:"interval"`

	// Workers bounds concurrent document processing within one run.
	Workers int `toml:"workers"`

	// UseContentHash enables hash confirmation during change detection,
	// for sources whose timestamps are coarse.
	UseContentHash bool `toml:"use_content_hash"`
}

// ChunkerConfig controls text splitting.
type ChunkerConfig struct {
	WindowSize      int     `toml:"window_size"`
	OverlapFraction float64 `toml:"overlap_fraction"`
}

// EmbeddingConfig configures the Gemini embedder.
type EmbeddingConfig struct {
	// APIKey authenticates embedding calls. Falls back to the
	// GEMINI_API_KEY environment variable.
	APIKey string `toml:"api_key"`

	Model      string `toml:"model"`
	Dimensions int    `toml:"dimensions"`

	// CacheSize is the in-process embedding LRU size. Zero uses the
	// default; negative disables caching.
	CacheSize int `toml:"cache_size"`
}

// VectorConfig configures the PostgreSQL vector store.
type VectorConfig struct {
	// DSN is the PostgreSQL connection string (required).
	DSN string `toml:"dsn"`
}

// APIConfig configures the HTTP control API.
type APIConfig struct {
	Addr string `toml:"addr"`
}

// Default returns a config with every default applied.
func Default() Config {
	return Config{
		DataDir:  DefaultDataDir,
		LogLevel: DefaultLogLevel,
		Sync: SyncConfig{
			Interval: Duration(DefaultSyncInterval),
			Workers:  DefaultSyncWorkers,
		},
		Chunker: ChunkerConfig{
			WindowSize:      DefaultWindowSize,
			OverlapFraction: DefaultOverlapFraction,
		},
		Embedding: EmbeddingConfig{
			Model:      DefaultEmbeddingModel,
			Dimensions: DefaultDimensions,
			CacheSize:  DefaultCacheSize,
		},
		API: APIConfig{
			Addr: DefaultListenAddr,
		},
	}
}

// Load reads the TOML file at path, layering it over defaults. A missing
// file returns pure defaults; a malformed file is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// fall through to defaults
		case err != nil:
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		default:
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
			}
		}
	}

	if cfg.Embedding.APIKey == "" {
		cfg.Embedding.APIKey = os.Getenv("GEMINI_API_KEY")
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DefaultPath returns the default config file location,
// ~/.mirador/config.toml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".mirador", "config.toml")
}

func (c *Config) validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	if c.Sync.Interval < 0 {
		return fmt.Errorf("sync.interval must not be negative, got %s", c.Sync.Interval)
	}
	if c.Sync.Workers <= 0 {
		return fmt.Errorf("sync.workers must be positive, got %d", c.Sync.Workers)
	}
	if c.Chunker.WindowSize <= 0 {
		return fmt.Errorf("chunker.window_size must be positive, got %d", c.Chunker.WindowSize)
	}
	if c.Chunker.OverlapFraction < 0 || c.Chunker.OverlapFraction >= 1 {
		return fmt.Errorf("chunker.overlap_fraction must be in [0, 1), got %g", c.Chunker.OverlapFraction)
	}
	if c.Embedding.Dimensions <= 0 {
		return fmt.Errorf("embedding.dimensions must be positive, got %d", c.Embedding.Dimensions)
	}
	return nil
}
