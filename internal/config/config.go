package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Events     EventsConfig     `yaml:"events"`
	Catalog    CatalogConfig    `yaml:"catalog"`
	Simulation SimulationConfig `yaml:"simulation"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type ServerConfig struct {
	Port        int    `yaml:"port"`
	MetricsPort int    `yaml:"metrics_port"`
	AdminToken  string `yaml:"admin_token"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type EventsConfig struct {
	URL string `yaml:"url"`
}

type CatalogConfig struct {
	Path string `yaml:"path"`
}

type SimulationConfig struct {
	DefaultTrials int     `yaml:"default_trials"`
	MaxTrials     int     `yaml:"max_trials"`
	DefaultAlpha  float64 `yaml:"default_alpha"`
	Workers       int     `yaml:"workers"`
	BatchSize     int     `yaml:"batch_size"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Load(path string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:        8700,
			MetricsPort: 8701,
		},
		Catalog: CatalogConfig{
			Path: "catalog.yaml",
		},
		Simulation: SimulationConfig{
			DefaultTrials: 10000,
			MaxTrials:     1000000,
			DefaultAlpha:  1.0,
			BatchSize:     512,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("VEGVISIR_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}
	if v := os.Getenv("VEGVISIR_METRICS_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.MetricsPort = n
		}
	}
	if v := os.Getenv("VEGVISIR_ADMIN_TOKEN"); v != "" {
		cfg.Server.AdminToken = v
	}
	if v := os.Getenv("VEGVISIR_DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("VEGVISIR_EVENTS_URL"); v != "" {
		cfg.Events.URL = v
	}
	if v := os.Getenv("VEGVISIR_CATALOG_PATH"); v != "" {
		cfg.Catalog.Path = v
	}
	if v := os.Getenv("VEGVISIR_DEFAULT_TRIALS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Simulation.DefaultTrials = n
		}
	}
	if v := os.Getenv("VEGVISIR_MAX_TRIALS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Simulation.MaxTrials = n
		}
	}
	if v := os.Getenv("VEGVISIR_DEFAULT_ALPHA"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Simulation.DefaultAlpha = f
		}
	}
	if v := os.Getenv("VEGVISIR_SIM_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Simulation.Workers = n
		}
	}
	if v := os.Getenv("VEGVISIR_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
