package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/byroncevallos1986/repo-xtwitter/internal/bigquery"
	"github.com/byroncevallos1986/repo-xtwitter/internal/config"
	"github.com/byroncevallos1986/repo-xtwitter/internal/credential"
	"github.com/byroncevallos1986/repo-xtwitter/internal/domain"
	"github.com/byroncevallos1986/repo-xtwitter/internal/sqlstore"
	"github.com/byroncevallos1986/repo-xtwitter/internal/twitter"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var interval time.Duration
	flag.DurationVar(&interval, "interval", 0, "re-run interval; 0 runs once and exits (the scheduled deployment)")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closer, err := newStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("create store: %w", err)
	}
	defer closer.Close()
	logger.Info("connected to store", "backend", cfg.Backend)

	opts := domain.Options{
		Query:        cfg.Query,
		Lookback:     cfg.Lookback,
		SafetyMargin: cfg.SafetyMargin,
		MaxResults:   cfg.MaxResults,
		RecentIDs:    cfg.RecentIDs,
	}

	newSearch := func(token string) domain.SearchClient {
		return twitter.NewClient("", token)
	}
	probe := func(ctx context.Context, token string) error {
		return twitter.NewClient("", token).Probe(ctx)
	}

	runOnce := func() error {
		runLogger := logger.With("run_id", uuid.NewString())

		// The selector is consumed as credentials fail, so each run gets
		// a fresh one.
		selector := credential.NewSelector(credential.DefaultSources(), probe, runLogger)
		pipeline := domain.NewPipeline(selector, newSearch, store, opts, runLogger)

		result, err := pipeline.Run(ctx)
		if err != nil {
			return err
		}
		runLogger.Info("run complete", "status", string(result.Status), "loaded", result.Loaded, "credential", result.Credential)
		return nil
	}

	if err := runOnce(); err != nil {
		return err
	}
	if interval <= 0 {
		return nil
	}

	logger.Info("running on interval", "interval", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down", "reason", ctx.Err())
			return nil
		case <-ticker.C:
			if err := runOnce(); err != nil {
				// In interval mode a failed run waits for the next tick.
				logger.Error("run failed", "error", err)
			}
		}
	}
}

func newStore(ctx context.Context, cfg *config.Config) (domain.RecordStore, io.Closer, error) {
	switch cfg.Backend {
	case config.BackendBigQuery:
		s, err := bigquery.NewStore(ctx, cfg.TableID)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	case config.BackendPostgres:
		s, err := sqlstore.Open("postgres", cfg.DatabaseURL, cfg.SQLTable)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	case config.BackendSQLite:
		s, err := sqlstore.Open("sqlite", cfg.DatabaseURL, cfg.SQLTable)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
