package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japaniel/zhuyin/pkg/custom"
)

func writeYAML(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "zhuyin.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// chdirEmpty moves into a directory without zhuyin.yaml.
func chdirEmpty(t *testing.T) {
	t.Helper()
	origDir, err := os.Getwd()
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.Chdir(origDir) })
	require.NoError(t, os.Chdir(t.TempDir()))
}

const validYAML = `
corpus:
  path: "lessons.txt"
  default_count: 25
store:
  path: "/tmp/custom.db"
  key: "vocab"
log:
  level: "debug"
  format: "json"
`

func TestLoadDefaults(t *testing.T) {
	chdirEmpty(t)
	t.Setenv("ZHUYIN_CONFIG", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "", cfg.Corpus.Path)
	assert.Equal(t, 10, cfg.Corpus.DefaultCount)
	assert.Equal(t, "zhuyin.db", cfg.Store.Path)
	assert.Equal(t, custom.DefaultKey, cfg.Store.Key)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoadYAML(t *testing.T) {
	path := writeYAML(t, t.TempDir(), validYAML)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "lessons.txt", cfg.Corpus.Path)
	assert.Equal(t, 25, cfg.Corpus.DefaultCount)
	assert.Equal(t, "/tmp/custom.db", cfg.Store.Path)
	assert.Equal(t, "vocab", cfg.Store.Key)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadEnvOverridesYAML(t *testing.T) {
	path := writeYAML(t, t.TempDir(), validYAML)
	t.Setenv("ZHUYIN_DEFAULT_COUNT", "3")
	t.Setenv("ZHUYIN_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Corpus.DefaultCount)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadPathFromEnv(t *testing.T) {
	chdirEmpty(t)
	path := writeYAML(t, t.TempDir(), validYAML)
	t.Setenv("ZHUYIN_CONFIG", path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "vocab", cfg.Store.Key)
}

func TestLoadDefaultFileInWorkingDir(t *testing.T) {
	chdirEmpty(t)
	t.Setenv("ZHUYIN_CONFIG", "")
	wd, err := os.Getwd()
	require.NoError(t, err)
	writeYAML(t, wd, "corpus:\n  default_count: 7\n")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Corpus.DefaultCount)
	assert.Equal(t, custom.DefaultKey, cfg.Store.Key)
}

func TestLoadExplicitPathNotFound(t *testing.T) {
	_, err := Load("/nonexistent/zhuyin.yaml")
	require.Error(t, err)

	t.Setenv("ZHUYIN_CONFIG", "/nonexistent/zhuyin.yaml")
	_, err = Load("")
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Corpus: CorpusConfig{DefaultCount: 10},
			Store:  StoreConfig{Path: "zhuyin.db", Key: "k"},
			Log:    LogConfig{Level: "info", Format: "text"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"json upper case", func(c *Config) { c.Log.Format = "JSON" }, false},
		{"zero count", func(c *Config) { c.Corpus.DefaultCount = 0 }, true},
		{"negative count", func(c *Config) { c.Corpus.DefaultCount = -1 }, true},
		{"empty key", func(c *Config) { c.Store.Key = " " }, true},
		{"empty db path", func(c *Config) { c.Store.Path = "" }, true},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := writeYAML(t, t.TempDir(), "corpus:\n  default_count: -2\n")
	_, err := Load(path)
	require.Error(t, err)
}
