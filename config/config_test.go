package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpmforge/bpmgen/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "microsoft/mai-ds-r1:free", cfg.Model)
	assert.Equal(t, 0.7, cfg.Temperature)
	assert.Equal(t, 1024, cfg.MaxTokens)
	assert.Equal(t, 1, cfg.RetryBudget)
	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.Equal(t, "DATABASE_URL", cfg.Store.URLEnv)

	require.Len(t, cfg.Levels, 4)
	assert.Equal(t, "process_definitions", cfg.Levels[0].Name)
	assert.True(t, cfg.Levels[0].Required)
	assert.Equal(t, "subparts", cfg.Levels[3].Name)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bpmgen.yaml")
	content := `product_description: "solar panel assembly"
model: test-model
retry_budget: 2
levels:
  - name: process_definitions
    table: process_definitions
    required: true
  - name: modules
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "solar panel assembly", cfg.ProductDescription)
	assert.Equal(t, "test-model", cfg.Model)
	assert.Equal(t, 2, cfg.RetryBudget)
	require.Len(t, cfg.Levels, 2)
	assert.Equal(t, "modules", cfg.Levels[1].Name)
	// Unset values still fall back to defaults.
	assert.Equal(t, 1024, cfg.MaxTokens)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() *config.Config {
		return &config.Config{
			ProductDescription: "coffee machine",
			Levels:             config.DefaultLevels(),
			Model:              "m",
			Temperature:        0.7,
			MaxTokens:          512,
			RetryBudget:        1,
			Store:              config.Store{Backend: "memory"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{"valid", func(*config.Config) {}, ""},
		{"empty product", func(c *config.Config) { c.ProductDescription = "" }, "product_description"},
		{"temperature out of range", func(c *config.Config) { c.Temperature = 1.5 }, "temperature"},
		{"negative retry budget", func(c *config.Config) { c.RetryBudget = -1 }, "retry_budget"},
		{"zero max tokens", func(c *config.Config) { c.MaxTokens = 0 }, "max_tokens"},
		{"nameless level", func(c *config.Config) { c.Levels[1].Name = "" }, "no name"},
		{"unknown backend", func(c *config.Config) { c.Store.Backend = "redis" }, "store backend"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
