// Package config loads CLI configuration from YAML and the environment.
package config

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

// DefaultPath is read when no path is given and ZHUYIN_CONFIG is unset.
const DefaultPath = "./zhuyin.yaml"

// Config is the root configuration.
type Config struct {
	Corpus CorpusConfig `yaml:"corpus"`
	Store  StoreConfig  `yaml:"store"`
	Log    LogConfig    `yaml:"log"`
}

// CorpusConfig selects the static corpus and sampling defaults.
type CorpusConfig struct {
	// Path of a corpus text file. Empty means the embedded corpus.
	Path         string `yaml:"path"          env:"ZHUYIN_CORPUS_PATH"`
	DefaultCount int    `yaml:"default_count" env:"ZHUYIN_DEFAULT_COUNT" env-default:"10"`
}

// StoreConfig holds custom entry persistence settings.
type StoreConfig struct {
	Path string `yaml:"path" env:"ZHUYIN_DB_PATH"   env-default:"zhuyin.db"`
	// Key defaults to custom.DefaultKey and must be kept in sync with it.
	Key  string `yaml:"key"  env:"ZHUYIN_STORE_KEY" env-default:"zhuyin_custom_vocab_v1"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"ZHUYIN_LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"ZHUYIN_LOG_FORMAT" env-default:"text"`
}

var logFormats = []string{"text", "json"}

// Load reads configuration from a YAML file and environment variables.
// Priority: ENV > YAML > defaults (via env-default tags).
// The file is path, else ZHUYIN_CONFIG, else DefaultPath. A missing file is
// an error only when it was named explicitly.
func Load(path string) (*Config, error) {
	var cfg Config

	explicitPath := path != ""
	if !explicitPath {
		path = os.Getenv("ZHUYIN_CONFIG")
		explicitPath = path != ""
	}
	if !explicitPath {
		path = DefaultPath
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if explicitPath {
		return nil, fmt.Errorf("config: file %s: %w", path, err)
	} else {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config: read env: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

// Validate checks values cleanenv cannot.
func (c *Config) Validate() error {
	if c.Corpus.DefaultCount <= 0 {
		return fmt.Errorf("corpus.default_count must be > 0 (got %d)", c.Corpus.DefaultCount)
	}
	if strings.TrimSpace(c.Store.Key) == "" {
		return fmt.Errorf("store.key must be non-empty")
	}
	if strings.TrimSpace(c.Store.Path) == "" {
		return fmt.Errorf("store.path must be non-empty")
	}
	if !slices.Contains(logFormats, strings.ToLower(c.Log.Format)) {
		return fmt.Errorf("log.format must be one of %v (got %q)", logFormats, c.Log.Format)
	}
	return nil
}
