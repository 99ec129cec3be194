package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"industrymap/internal/bse"
	"industrymap/internal/config"
	"industrymap/internal/nse"
	"industrymap/internal/retry"
	"industrymap/internal/store"
	"industrymap/internal/sync"
	"industrymap/internal/version"
)

func main() {
	refresh := flag.Bool("refresh", false, "refresh missing/incomplete classifications")
	fullRefresh := flag.Bool("full-refresh", false, "rebuild the classification store from scratch")
	frequency := flag.String("frequency", "", "run frequency selecting the retry profile: daily, weekly, or monthly")
	configPath := flag.String("config", "configs/industrymap.yaml", "path to config file")
	flag.Parse()

	if *refresh == *fullRefresh {
		fmt.Fprintln(os.Stderr, "exactly one of -refresh or -full-refresh is required")
		flag.Usage()
		os.Exit(2)
	}

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("starting industry mapper",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	cfg, err := loadConfig(*configPath, logger)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *frequency != "" {
		cfg.Frequency = *frequency
		if err := cfg.Validate(); err != nil {
			logger.Error("invalid configuration", "error", err)
			os.Exit(1)
		}
	}

	policy := retry.ProfileFor(retry.Frequency(cfg.Frequency))
	logger.Info("configuration loaded",
		"store", cfg.Store.Path,
		"frequency", cfg.Frequency,
		"max_attempts", policy.MaxAttempts,
		"max_wait", policy.MaxWait,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Hosted CI runners need the alternate transport profile.
	serverMode := os.Getenv("GITHUB_ACTIONS") == "true"
	if serverMode {
		logger.Info("server mode detected, using CI transport profile")
	}

	nseClient := nse.NewClient(policy,
		nse.WithBaseURL(cfg.NSE.BaseURL),
		nse.WithArchivesURL(cfg.NSE.ArchivesURL),
		nse.WithTimeout(cfg.HTTP.Timeout),
		nse.WithServerMode(serverMode),
		nse.WithLogger(logger),
	)
	bseClient := bse.NewClient(policy,
		bse.WithBaseURL(cfg.BSE.BaseURL),
		bse.WithTimeout(cfg.HTTP.Timeout),
		bse.WithLogger(logger),
	)

	st := store.New(cfg.Store.Path, logger)
	engine := sync.New(sync.Config{
		CheckpointEvery: cfg.Sync.CheckpointEvery,
		Pacing:          cfg.Sync.Pacing,
	}, st, nseClient, bseClient, logger)

	var sum *sync.Summary
	if *fullRefresh {
		sum, err = engine.FullRebuild(ctx)
	} else {
		sum, err = engine.Refresh(ctx)
	}
	if err != nil {
		logger.Error("run aborted", "error", err)
		os.Exit(1)
	}

	logger.Info("run finished",
		"run_id", sum.RunID,
		"workflow", sum.Workflow,
		"updated", sum.Updated,
		"missed", sum.Missed,
		"skipped", sum.Skipped,
		"duration", sum.Duration,
	)
}

// loadConfig reads the config file, falling back to defaults when it does
// not exist so the mapper runs without any setup.
func loadConfig(path string, logger *slog.Logger) (*config.Config, error) {
	cfg, err := config.LoadAndValidate(path)
	if err == nil {
		return cfg, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		logger.Info("config file not found, using defaults", "path", path)
		return config.Default(), nil
	}
	return nil, err
}
