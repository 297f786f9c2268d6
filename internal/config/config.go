// Package config loads solver configuration from file, environment and
// defaults.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config combines all sub-configs.
type Config struct {
	Search    SearchConfig    `mapstructure:"search" yaml:"search"`
	Removal   RemovalConfig   `mapstructure:"removal" yaml:"removal"`
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`
	Watch     WatchConfig     `mapstructure:"watch" yaml:"watch"`
}

type SearchConfig struct {
	Runs             int     `mapstructure:"runs" yaml:"runs"`
	MaxIterations    int     `mapstructure:"max_iterations" yaml:"max_iterations"`
	SegmentLength    int     `mapstructure:"segment_length" yaml:"segment_length"`
	Rho              float64 `mapstructure:"rho" yaml:"rho"`
	FinalTemperature float64 `mapstructure:"final_temperature" yaml:"final_temperature"`
	DestroyFraction  float64 `mapstructure:"destroy_fraction" yaml:"destroy_fraction"`
	TimeLimit        float64 `mapstructure:"time_limit" yaml:"time_limit"`
	Seed             int64   `mapstructure:"seed" yaml:"seed"`
}

type RemovalConfig struct {
	SelectionRatio float64 `mapstructure:"selection_ratio" yaml:"selection_ratio"`
	Randomness     float64 `mapstructure:"randomness" yaml:"randomness"`
	CostBias       float64 `mapstructure:"cost_bias" yaml:"cost_bias"`
	AssignmentBias float64 `mapstructure:"assignment_bias" yaml:"assignment_bias"`
	MinRemovals    int     `mapstructure:"min_removals" yaml:"min_removals"`
	MaxRemovals    int     `mapstructure:"max_removals" yaml:"max_removals"`
}

type TelemetryConfig struct {
	CSVDir      string `mapstructure:"csv_dir" yaml:"csv_dir"`
	PostgresURL string `mapstructure:"postgres_url" yaml:"postgres_url"`
}

type WatchConfig struct {
	Addr     string `mapstructure:"addr" yaml:"addr"`
	RedisURL string `mapstructure:"redis_url" yaml:"redis_url"`
}

// Load reads configuration with priority: environment variables, then
// the config file, then defaults. A missing config file is not an error.
func Load(configPath string) (*Config, error) {
	// Load .env if it exists (doesn't error if missing)
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("drones")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/drones")
	}

	v.SetEnvPrefix("DRONES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// DATABASE_URL works without the DRONES_ prefix.
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		v.Set("telemetry.postgres_url", dbURL)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Dump renders the effective configuration as YAML, suitable as a
// starting drones.yaml.
func (c *Config) Dump() ([]byte, error) {
	return yaml.Marshal(c)
}

// MustLoad loads configuration and panics on error, for use in main.
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("search.runs", 10)
	v.SetDefault("search.max_iterations", 10_000)
	v.SetDefault("search.segment_length", 100)
	v.SetDefault("search.rho", 0.2)
	v.SetDefault("search.final_temperature", 0.1)
	v.SetDefault("search.destroy_fraction", 0.5)
	v.SetDefault("search.time_limit", 60.0)
	v.SetDefault("search.seed", 0)

	v.SetDefault("removal.selection_ratio", 0.10)
	v.SetDefault("removal.randomness", 0.0)
	v.SetDefault("removal.cost_bias", 0.5)
	v.SetDefault("removal.assignment_bias", 0.25)
	v.SetDefault("removal.min_removals", 2)
	v.SetDefault("removal.max_removals", 12)

	v.SetDefault("watch.addr", ":9090")
}

func validate(cfg *Config) error {
	if cfg.Search.MaxIterations <= 0 {
		return fmt.Errorf("search.max_iterations must be positive, got %d", cfg.Search.MaxIterations)
	}
	if cfg.Search.SegmentLength <= 0 {
		return fmt.Errorf("search.segment_length must be positive, got %d", cfg.Search.SegmentLength)
	}
	if cfg.Search.Rho < 0 || cfg.Search.Rho > 1 {
		return fmt.Errorf("search.rho must be in [0,1], got %g", cfg.Search.Rho)
	}
	if cfg.Search.DestroyFraction <= 0 || cfg.Search.DestroyFraction > 1 {
		return fmt.Errorf("search.destroy_fraction must be in (0,1], got %g", cfg.Search.DestroyFraction)
	}
	if cfg.Removal.MinRemovals > cfg.Removal.MaxRemovals {
		return fmt.Errorf("removal.min_removals %d exceeds max_removals %d",
			cfg.Removal.MinRemovals, cfg.Removal.MaxRemovals)
	}
	return nil
}
