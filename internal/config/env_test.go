package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envTestConfig struct {
	Port int `env:"POC_TEST_PORT" envDefault:"123"`
}

func TestParseEnvDefaults(t *testing.T) {
	var cfg envTestConfig

	require.NoError(t, ParseEnv(&cfg))
	assert.Equal(t, 123, cfg.Port)
}

func TestParseEnvError(t *testing.T) {
	var cfg envTestConfig
	t.Setenv("POC_TEST_PORT", "not-an-int")

	err := ParseEnv(&cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env:")
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "text", cfg.Format)
	assert.False(t, cfg.Verbose)
	assert.Empty(t, cfg.DB)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, DefaultInclude(), cfg.Include)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("POC_FORMAT", "json")
	t.Setenv("POC_VERBOSE", "true")
	t.Setenv("POC_DB", "/tmp/poc.db")
	t.Setenv("POC_CONCURRENCY", "8")
	t.Setenv("POC_INCLUDE", "*.rules")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.Format)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, "/tmp/poc.db", cfg.DB)
	assert.Equal(t, 8, cfg.Concurrency)
	assert.Equal(t, []string{"*.rules"}, cfg.Include)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		key, value, wantErr string
	}{
		{"POC_FORMAT", "yaml", "invalid format"},
		{"POC_CONCURRENCY", "0", "must be at least 1"},
		{"POC_CONCURRENCY", "four", "parse env:"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
