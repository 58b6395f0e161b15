package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"codelab/internal/config"
	"codelab/internal/execution"
)

const sampleConfig = `
logger:
  level: debug
limits:
  timeoutMs: 10000
minio:
  endpoint: localhost:9000
  accessKey: dev
  secretKey: devsecret
python:
  bundle:
    key: runtimes/python-3.12.wasm.zst
    sha256: abc123
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "engine.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Logger.Level != "debug" {
		t.Fatalf("explicit level lost: %q", cfg.Logger.Level)
	}
	if cfg.Logger.Format != "console" || cfg.Logger.OutputPath != "stdout" {
		t.Fatalf("logger defaults not applied: %+v", cfg.Logger)
	}

	if cfg.Limits.TimeoutMs != 10000 {
		t.Fatalf("timeout override lost: %d", cfg.Limits.TimeoutMs)
	}
	if cfg.Limits.MemoryBytes != execution.DefaultMemoryBytes {
		t.Fatalf("memory default not applied: %d", cfg.Limits.MemoryBytes)
	}

	if cfg.CacheDir != config.DefaultCacheDir || cfg.ExerciseDir != config.DefaultExerciseDir {
		t.Fatalf("directory defaults not applied: %+v", cfg)
	}
	if cfg.MinIO.Bucket != config.DefaultBucket {
		t.Fatalf("bucket default not applied: %q", cfg.MinIO.Bucket)
	}
	if cfg.Python.Bundle.Key != "runtimes/python-3.12.wasm.zst" {
		t.Fatalf("bundle spec lost: %+v", cfg.Python)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("missing config must error")
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	if _, err := config.Load(writeConfig(t, "logger: [")); err == nil {
		t.Fatal("malformed config must error")
	}
}

func TestDefault(t *testing.T) {
	cfg := config.Default()
	if cfg.Limits != execution.DefaultLimits() {
		t.Fatalf("default limits wrong: %+v", cfg.Limits)
	}
	if cfg.Logger.Level != "info" {
		t.Fatalf("default level wrong: %q", cfg.Logger.Level)
	}
	if cfg.MinIO.Endpoint != "" {
		t.Fatalf("default config must not point at a store: %+v", cfg.MinIO)
	}
}
