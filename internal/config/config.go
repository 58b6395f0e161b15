// Package config loads the engine's YAML configuration and applies
// defaults so a minimal file is enough to run.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"codelab/internal/execution"
	"codelab/internal/executor/pybox"
	"codelab/internal/storage"
	"codelab/pkg/utils/logger"
)

const (
	DefaultCacheDir    = "cache/runtimes"
	DefaultBucket      = "runtimes"
	DefaultExerciseDir = "exercises"
)

// Config holds engine configuration.
type Config struct {
	Logger      logger.Config       `yaml:"logger"`
	Limits      execution.Limits    `yaml:"limits"`
	MinIO       storage.MinIOConfig `yaml:"minio"`
	CacheDir    string              `yaml:"cacheDir"`
	ExerciseDir string              `yaml:"exerciseDir"`
	Python      pybox.Config        `yaml:"python"`
}

// Load reads and validates the config file at path.
func Load(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file failed: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config file failed: %w", err)
	}
	applyDefaults(&cfg)
	if err := cfg.Limits.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid limits: %w", err)
	}
	return cfg, nil
}

// Default returns a ready-to-use configuration for running without a
// config file. Python execution stays unavailable until a bundle and
// object store are configured.
func Default() Config {
	var cfg Config
	applyDefaults(&cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Logger.Level == "" {
		cfg.Logger.Level = "info"
	}
	if cfg.Logger.Format == "" {
		cfg.Logger.Format = "console"
	}
	if cfg.Logger.OutputPath == "" {
		cfg.Logger.OutputPath = "stdout"
	}
	cfg.Limits = cfg.Limits.Normalize()
	if cfg.CacheDir == "" {
		cfg.CacheDir = DefaultCacheDir
	}
	if cfg.ExerciseDir == "" {
		cfg.ExerciseDir = DefaultExerciseDir
	}
	if cfg.MinIO.Bucket == "" {
		cfg.MinIO.Bucket = DefaultBucket
	}
}
