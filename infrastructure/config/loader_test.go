package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonesrussell/storetrust/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Name    string        `yaml:"name"`
	Port    int           `env:"TEST_STORETRUST_PORT"    yaml:"port"`
	Timeout time.Duration `env:"TEST_STORETRUST_TIMEOUT" yaml:"timeout"`
	Cache   struct {
		Backend string   `env:"TEST_STORETRUST_BACKEND" yaml:"backend"`
		Hosts   []string `env:"TEST_STORETRUST_HOSTS"   yaml:"hosts"`
		Enabled bool     `env:"TEST_STORETRUST_ENABLED" yaml:"enabled"`
	} `yaml:"cache"`
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_ReadsYAML(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	path := writeConfig(t, "name: storetrust\nport: 8095\ntimeout: 3s\ncache:\n  backend: memory\n")

	cfg, err := config.Load[testConfig](path)
	require.NoError(t, err)

	assert.Equal(t, "storetrust", cfg.Name)
	assert.Equal(t, 8095, cfg.Port)
	assert.Equal(t, 3*time.Second, cfg.Timeout)
	assert.Equal(t, "memory", cfg.Cache.Backend)
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("TEST_STORETRUST_PORT", "9000")
	t.Setenv("TEST_STORETRUST_TIMEOUT", "250ms")
	t.Setenv("TEST_STORETRUST_BACKEND", "redis")
	t.Setenv("TEST_STORETRUST_HOSTS", "a.example, b.example")
	t.Setenv("TEST_STORETRUST_ENABLED", "yes")
	path := writeConfig(t, "port: 8095\ncache:\n  backend: memory\n")

	cfg, err := config.Load[testConfig](path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, 250*time.Millisecond, cfg.Timeout)
	assert.Equal(t, "redis", cfg.Cache.Backend)
	assert.Equal(t, []string{"a.example", "b.example"}, cfg.Cache.Hosts)
	assert.True(t, cfg.Cache.Enabled)
}

func TestLoad_MissingFileUsesZeroValue(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))

	cfg, err := config.Load[testConfig](filepath.Join(t.TempDir(), "nope.yml"))
	require.NoError(t, err)
	assert.Zero(t, cfg.Port)
}

func TestLoad_InvalidYAML(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	path := writeConfig(t, "port: [not-an-int\n")

	_, err := config.Load[testConfig](path)
	assert.Error(t, err)
}

func TestLoad_InvalidEnvValue(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("TEST_STORETRUST_TIMEOUT", "soon")
	t.Setenv("TEST_STORETRUST_ENABLED", "maybe")
	path := writeConfig(t, "port: 8095\n")

	_, err := config.Load[testConfig](path)
	require.Error(t, err)
	assert.ErrorContains(t, err, "TEST_STORETRUST_TIMEOUT")
	assert.ErrorContains(t, err, "TEST_STORETRUST_ENABLED")
}

func TestApplyEnv_RequiresPointer(t *testing.T) {
	t.Parallel()

	assert.Error(t, config.ApplyEnv(testConfig{}))
}

func TestLoadWithDefaults_EnvBeatsDefaults(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("TEST_STORETRUST_PORT", "7000")
	path := writeConfig(t, "name: storetrust\n")

	cfg, err := config.LoadWithDefaults[testConfig](path, func(c *testConfig) {
		if c.Port == 0 {
			c.Port = 8095
		}
		c.Cache.Backend = "memory"
	})
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Port)
	assert.Equal(t, "memory", cfg.Cache.Backend)
}

func TestValidateOneOf(t *testing.T) {
	t.Parallel()

	require.NoError(t, config.ValidateOneOf("cache.backend", "redis", "memory", "redis", "none"))

	err := config.ValidateOneOf("cache.backend", "memcached", "memory", "redis", "none")
	require.Error(t, err)

	var vErr *config.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "cache.backend", vErr.Field)
}
