package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"codelab/internal/cli"
	"codelab/internal/config"
	"codelab/internal/execution"
	"codelab/internal/executor"
	"codelab/internal/executor/luabox"
	"codelab/internal/executor/pybox"
	"codelab/internal/grading"
	rt "codelab/internal/runtime"
	"codelab/internal/storage"
	"codelab/pkg/utils/logger"
)

const defaultConfigPath = "configs/gradecli.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to config file")
	exerciseDir := flag.String("exercises", "", "Override exercise directory")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		// A missing default config is fine; anything else is fatal.
		if !errors.Is(err, os.ErrNotExist) || *configPath != defaultConfigPath {
			fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
			os.Exit(1)
		}
		cfg = config.Default()
	}
	if *exerciseDir != "" {
		cfg.ExerciseDir = *exerciseDir
	}

	if err := logger.Init(cfg.Logger); err != nil {
		fmt.Fprintf(os.Stderr, "init logger failed: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	registry := executor.NewRegistry()
	registry.Register(luabox.LanguageID, func() executor.CodeExecutor {
		return luabox.New()
	})

	var loader *rt.Loader
	if cfg.MinIO.Endpoint != "" && cfg.Python.Bundle.Key != "" {
		store, err := storage.NewMinIOStorage(cfg.MinIO)
		if err != nil {
			fmt.Fprintf(os.Stderr, "init object storage failed: %v\n", err)
			os.Exit(1)
		}
		loader, err = rt.NewLoader(store, cfg.MinIO.Bucket, cfg.CacheDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "init runtime loader failed: %v\n", err)
			os.Exit(1)
		}
		pyCfg := cfg.Python
		registry.Register(pybox.LanguageID, func() executor.CodeExecutor {
			return pybox.New(loader, pyCfg, printProgress)
		})
	}

	runner := grading.NewRunner(registry)
	session := cli.New(registry, runner, loader, cfg.ExerciseDir)

	err = session.Run(context.Background())
	registry.DisposeAll()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func printProgress(p execution.LoadProgress) {
	switch p.Stage {
	case execution.StageDownloading:
		if p.TotalBytes > 0 {
			fmt.Printf("\r[runtime] downloading %d%% (%.1f / %.1f MB)",
				p.Progress, mb(p.DownloadedBytes), mb(p.TotalBytes))
			return
		}
		fmt.Printf("\r[runtime] downloading %d%%", p.Progress)
	case execution.StageError:
		fmt.Printf("\n[runtime] error: %s\n", p.Message)
	default:
		fmt.Printf("\n[runtime] %s: %s\n", p.Stage, p.Message)
	}
}

func mb(n int64) float64 {
	return float64(n) / (1 << 20)
}
