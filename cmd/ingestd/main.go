// Command ingestd runs the job-posting ingestion engine: the periodic
// worker, the record store, the search index and the HTTP API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/vagahub/engine/internal/api"
	"github.com/vagahub/engine/internal/clock/system"
	"github.com/vagahub/engine/internal/config"
	"github.com/vagahub/engine/internal/fetch"
	"github.com/vagahub/engine/internal/ingest"
	"github.com/vagahub/engine/internal/jobs"
	"github.com/vagahub/engine/internal/logging"
	"github.com/vagahub/engine/internal/search"
	bleveindex "github.com/vagahub/engine/internal/search/bleve"
	"github.com/vagahub/engine/internal/search/meili"
	"github.com/vagahub/engine/internal/source"
	"github.com/vagahub/engine/internal/storage/memory"
	"github.com/vagahub/engine/internal/storage/postgres"
	"github.com/vagahub/engine/internal/store"
	"github.com/vagahub/engine/internal/worker"
)

func main() {
	configPath := flag.String("config", "", "path to the config file")
	once := flag.Bool("once", false, "run one sweep and exit instead of serving")
	sourceFilter := flag.String("source", "", "with -once, run only this source")
	maxItems := flag.Int("max-items", 0, "override ingest.max_items_per_run")
	maxDetail := flag.Int("max-detail", 0, "override ingest.max_detail_fetch")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck // best-effort flush

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, runFlags{
		once:      *once,
		source:    *sourceFilter,
		maxItems:  *maxItems,
		maxDetail: *maxDetail,
	}); err != nil {
		logger.Error("engine exited with error", zap.Error(err))
		os.Exit(1)
	}
}

// runFlags carries the invocation-level overrides parsed in main.
type runFlags struct {
	once      bool
	source    string
	maxItems  int
	maxDetail int
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger, flags runFlags) error {
	postings, sources, runs, closeStores, err := buildStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStores()

	index, err := buildIndex(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer index.Close() //nolint:errcheck // close on shutdown

	client := fetch.New(fetch.Config{
		UserAgent:       cfg.Fetch.UserAgent,
		Timeout:         cfg.Fetch.Timeout(),
		MaxRetries:      cfg.Fetch.MaxRetries,
		InitialBackoff:  cfg.Fetch.InitialBackoff(),
		MinHostInterval: cfg.Fetch.MinHostInterval(),
	}, logger)

	targets := buildSources(cfg, client, logger)
	// Invocation flags override both the per-source and the global budgets.
	for i := range targets {
		if flags.maxItems > 0 {
			targets[i].Options.MaxItems = flags.maxItems
		}
		if flags.maxDetail > 0 {
			targets[i].Options.MaxDetailFetch = flags.maxDetail
		}
	}
	// Register sources up front so the API can list and trigger them
	// before the first sweep finishes.
	for _, t := range targets {
		src := t.Source
		if _, err := sources.Ensure(ctx, src.Name(), src.Vendor(), src.BaseURL()); err != nil {
			return fmt.Errorf("register source %s: %w", src.Name(), err)
		}
	}

	pipeline := ingest.New(
		ingest.Config{ExpireAfter: cfg.Ingest.ExpireAfter()},
		postings, sources, runs, index, system.New(), logger)

	w := worker.New(worker.Config{
		Interval: cfg.Ingest.Interval(),
		Options: source.Options{
			MaxItems:       cfg.Ingest.MaxItemsPerRun,
			MaxDetailFetch: cfg.Ingest.MaxDetailFetch,
		},
	}, pipeline, targets, logger)

	if flags.once {
		return w.Sweep(ctx, flags.source)
	}

	server := api.NewServer(api.Config{}, postings, runs, sources, index, w, logger)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go w.Run(ctx)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.Int("port", cfg.Server.Port))
		serveErr <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	logger.Info("shutdown complete")
	return nil
}

func buildStores(ctx context.Context, cfg config.Config, logger *zap.Logger) (
	store.PostingStore, store.SourceStore, store.RunStore, func(), error,
) {
	switch cfg.Storage.Driver {
	case "postgres":
		pool, err := postgres.Connect(ctx, postgres.Config{
			DSN:             cfg.Storage.DSN,
			MaxConns:        int32(cfg.Storage.MaxConns),
			MinConns:        int32(cfg.Storage.MinConns),
			MaxConnLifetime: time.Duration(cfg.Storage.ConnLifetimeMin) * time.Minute,
		})
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, nil, nil, fmt.Errorf("ensure schema: %w", err)
		}
		logger.Info("postgres store ready")
		return postgres.NewPostingStore(pool), postgres.NewSourceStore(pool),
			postgres.NewRunStore(pool), pool.Close, nil
	default:
		logger.Info("using in-memory store")
		return memory.NewPostingStore(), memory.NewSourceStore(),
			memory.NewRunStore(), func() {}, nil
	}
}

func buildIndex(ctx context.Context, cfg config.Config, logger *zap.Logger) (search.Index, error) {
	switch cfg.Search.Provider {
	case "bleve":
		idx, err := bleveindex.Open(cfg.Search.Path)
		if err != nil {
			return nil, fmt.Errorf("open bleve index: %w", err)
		}
		logger.Info("bleve index ready", zap.String("path", cfg.Search.Path))
		return idx, nil
	case "meili":
		client, err := meili.New(meili.Config{
			Host:    cfg.Search.Host,
			APIKey:  cfg.Search.APIKey,
			IndexID: cfg.Search.IndexID,
		})
		if err != nil {
			return nil, fmt.Errorf("build meili client: %w", err)
		}
		if err := client.EnsureReady(ctx); err != nil {
			return nil, fmt.Errorf("prepare meili index: %w", err)
		}
		logger.Info("meili index ready", zap.String("host", cfg.Search.Host))
		return client, nil
	default:
		logger.Info("search indexing disabled")
		return search.Noop{}, nil
	}
}

func buildSources(cfg config.Config, client *fetch.Client, logger *zap.Logger) []worker.Target {
	var targets []worker.Target
	for _, sc := range cfg.Sources {
		if !sc.Enabled {
			logger.Info("source disabled", zap.String("source", sc.Name))
			continue
		}
		adapter, err := source.New(source.Config{
			Name:       sc.Name,
			Vendor:     jobs.VendorType(sc.Vendor),
			BaseURL:    sc.BaseURL,
			FixtureDir: sc.FixtureDir,
		}, client, logger)
		if err != nil {
			// A broken source entry must not take the others down.
			logger.Warn("skipping misconfigured source",
				zap.String("source", sc.Name), zap.Error(err))
			continue
		}
		targets = append(targets, worker.Target{
			Source: adapter,
			Options: source.Options{
				MaxItems:       sc.MaxItemsPerRun,
				MaxDetailFetch: sc.MaxDetailFetch,
			},
		})
	}
	logger.Info("sources configured", zap.Int("count", len(targets)))
	return targets
}
