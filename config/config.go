package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

// Level is one stage of the hierarchical generation order. A level whose
// Table exists in the loaded schema generates that table directly; any
// other level is treated as a hierarchical sub-level producing generic
// process elements plus phase children. Required levels abort the run
// when their generation fails.
type Level struct {
	Name     string `mapstructure:"name"`
	Table    string `mapstructure:"table"`
	Required bool   `mapstructure:"required"`
}

// BatchSizes controls how many rows each stage asks the model for.
type BatchSizes struct {
	Phases       int `mapstructure:"phases"`
	Processes    int `mapstructure:"processes"`
	Elements     int `mapstructure:"elements"`
	Flows        int `mapstructure:"flows"`
	Resources    int `mapstructure:"resources"`
	Pools        int `mapstructure:"pools"`
	LanesPerPool int `mapstructure:"lanes_per_pool"`
}

// Store selects the persistence backend. URLEnv names the environment
// variable holding the connection string for the postgres backend.
type Store struct {
	Backend string `mapstructure:"backend"` // "memory" or "postgres"
	URLEnv  string `mapstructure:"url_env"`
}

// Config is the full run configuration, read from bpmgen.yaml plus
// environment overrides.
type Config struct {
	ProductDescription string     `mapstructure:"product_description"`
	SchemaPath         string     `mapstructure:"schema_path"`
	Levels             []Level    `mapstructure:"levels"`
	BatchSizes         BatchSizes `mapstructure:"batch_sizes"`
	Model              string     `mapstructure:"model"`
	Temperature        float64    `mapstructure:"temperature"`
	MaxTokens          int        `mapstructure:"max_tokens"`
	RetryBudget        int        `mapstructure:"retry_budget"`
	Debug              bool       `mapstructure:"debug"`
	OutputDir          string     `mapstructure:"output_dir"`
	Store              Store      `mapstructure:"store"`
}

// DefaultLevels is the hierarchy used when the config file declares none.
func DefaultLevels() []Level {
	return []Level{
		{Name: "process_definitions", Table: "process_definitions", Required: true},
		{Name: "modules"},
		{Name: "parts"},
		{Name: "subparts"},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("product_description", "generic manufacturing process")
	v.SetDefault("schema_path", "schema.md")
	v.SetDefault("model", "microsoft/mai-ds-r1:free")
	v.SetDefault("temperature", 0.7)
	v.SetDefault("max_tokens", 1024)
	v.SetDefault("retry_budget", 1)
	v.SetDefault("debug", false)
	v.SetDefault("output_dir", "output")
	v.SetDefault("batch_sizes.phases", 5)
	v.SetDefault("batch_sizes.processes", 1)
	v.SetDefault("batch_sizes.elements", 10)
	v.SetDefault("batch_sizes.flows", 15)
	v.SetDefault("batch_sizes.resources", 5)
	v.SetDefault("batch_sizes.pools", 2)
	v.SetDefault("batch_sizes.lanes_per_pool", 3)
	v.SetDefault("store.backend", "memory")
	v.SetDefault("store.url_env", "DATABASE_URL")
}

// Load reads bpmgen.yaml from the working directory when present and
// falls back to defaults otherwise. BPMGEN_-prefixed environment
// variables override file values.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("bpmgen")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix("BPMGEN")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %v", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %v", err)
	}
	if len(cfg.Levels) == 0 {
		cfg.Levels = DefaultLevels()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.ProductDescription == "" {
		return fmt.Errorf("product_description must not be empty")
	}
	if c.Temperature < 0 || c.Temperature > 1 {
		return fmt.Errorf("temperature must be between 0.0 and 1.0, got %v", c.Temperature)
	}
	if c.RetryBudget < 0 {
		return fmt.Errorf("retry_budget must not be negative, got %d", c.RetryBudget)
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("max_tokens must be positive, got %d", c.MaxTokens)
	}
	for i, lvl := range c.Levels {
		if lvl.Name == "" {
			return fmt.Errorf("level %d has no name", i)
		}
	}
	switch c.Store.Backend {
	case "memory", "postgres":
	default:
		return fmt.Errorf("unknown store backend '%s' (expected memory or postgres)", c.Store.Backend)
	}
	return nil
}
