package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vietddude/recipefetch/internal/core/config"
	"github.com/vietddude/recipefetch/internal/core/domain"
	"github.com/vietddude/recipefetch/internal/core/worker"
	"github.com/vietddude/recipefetch/internal/infra/endpoint"
	"github.com/vietddude/recipefetch/internal/infra/imagecache"
	"github.com/vietddude/recipefetch/internal/infra/preview"
	redisclient "github.com/vietddude/recipefetch/internal/infra/redis"
	"github.com/vietddude/recipefetch/internal/infra/storage"
	"github.com/vietddude/recipefetch/internal/infra/storage/memory"
	"github.com/vietddude/recipefetch/internal/infra/storage/postgres"
	"github.com/vietddude/recipefetch/internal/infra/transport"
	"github.com/vietddude/recipefetch/internal/pipeline/fetch"
	"github.com/vietddude/recipefetch/internal/pipeline/health"
	"github.com/vietddude/recipefetch/internal/pipeline/present"
)

// App wires the fetch pipeline to its storage, presentation and servers.
type App struct {
	cfg *config.AppConfig

	client      *transport.HTTPClient
	assets      *transport.HTTPClient
	coordinator *fetch.Coordinator
	model       *present.Model
	runs        storage.RunRepository
	images      *imagecache.Cache
	previews    *preview.Scraper
	pruner      *worker.Pruner

	monitor    *health.Monitor
	server     *health.Server
	grpcServer *health.GRPCServer

	db          *postgres.DB
	redisClient *redisclient.Client
	log         *slog.Logger

	group  *errgroup.Group
	cancel context.CancelFunc
}

// New creates an App with all dependencies initialized. cfg must already
// have defaults applied.
func New(ctx context.Context, cfg *config.AppConfig) (*App, error) {
	log := slog.Default().With("component", "app")

	route, err := endpoint.ParseRoute(cfg.Source.Route)
	if err != nil {
		return nil, err
	}

	a := &App{cfg: cfg, log: log}

	// 1. Run journal
	if cfg.Database.Enabled() {
		a.db, err = postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}
		if err := a.db.Migrate(ctx); err != nil {
			_ = a.db.Close()
			return nil, fmt.Errorf("failed to migrate db: %w", err)
		}
		a.runs = postgres.NewRunRepo(a.db)
		log.Info("Using PostgreSQL run journal")
	} else {
		a.runs = memory.NewRunRepo(memory.NewMemoryStorage(cfg.History.Keep))
		log.Info("Using memory run journal")
	}
	a.pruner = worker.NewPruner(cfg.History, a.runs)

	// 2. Transport
	a.client = transport.NewHTTPClient(transport.Options{
		Timeout:             cfg.Source.RequestTimeout,
		WaitForConnectivity: cfg.Source.WaitsForConnectivity(),
	})
	a.assets = transport.NewHTTPClient(transport.Options{Timeout: cfg.Source.RequestTimeout})

	// 3. Fetch coordinator
	opts := []fetch.Option{fetch.WithRunRecorder(a.runs)}
	if cfg.Redis.Enabled() {
		a.redisClient, err = redisclient.NewClient(cfg.Redis)
		if err != nil {
			log.Warn("Failed to connect to Redis, fetch lease disabled", "error", err)
		} else {
			opts = append(opts, fetch.WithLease(
				redisclient.NewFetchLease(a.redisClient, cfg.Redis.LeaseKey, cfg.Redis.LeaseTTL),
			))
		}
	}

	a.coordinator = fetch.NewCoordinator(fetch.Config{
		BaseURL:            cfg.Source.BaseURL,
		Route:              route,
		MaxAttempts:        cfg.Source.MaxAttempts,
		BaseDelay:          cfg.Source.BaseDelay,
		RequestTimeout:     cfg.Source.RequestTimeout,
		DebounceDelay:      cfg.Source.DebounceDelay,
		MaxDebounceRetries: cfg.Source.DebounceRetries(),
	}, a.client, opts...)

	// 4. Presentation
	a.model = present.NewModel(a.coordinator)
	a.previews = preview.NewScraper(a.assets)
	if cfg.Images.MaxEntries > 0 {
		a.images, err = imagecache.New(a.assets, cfg.Images.MaxEntries)
		if err != nil {
			a.closeBackends()
			return nil, fmt.Errorf("failed to init image cache: %w", err)
		}
	}

	// 5. Health
	a.monitor = health.NewMonitor(a.client)
	if a.redisClient != nil {
		a.monitor.AddChecker("redis", a.redisClient.Ping)
	}
	if a.db != nil {
		a.monitor.AddChecker("postgres", a.db.Health)
	}

	api := &health.API{
		Model:      a.model,
		Refresher:  a.coordinator,
		Previews:   a.previews,
		RetryAfter: cfg.Source.DebounceDelay,
		Logger:     log,
	}
	if a.images != nil {
		api.Photos = a.images
	}
	a.server = health.NewServer(a.monitor, api, cfg.Server.Port)

	if cfg.Server.GRPCPort > 0 {
		a.grpcServer = health.NewGRPCServer(cfg.Server.GRPCPort)
	}

	// 6. Observers
	a.coordinator.Observe(a.model.HandleEvent)
	a.coordinator.Observe(a.monitor.RecordFetch)
	if a.grpcServer != nil {
		a.coordinator.Observe(a.grpcServer.RecordFetch)
	}

	return a, nil
}

// Model returns the presentation model fed by fetch events.
func (a *App) Model() *present.Model { return a.model }

// Runs returns the fetch run journal.
func (a *App) Runs() storage.RunRepository { return a.runs }

// Handler returns the HTTP handler serving health and recipe endpoints.
func (a *App) Handler() http.Handler { return a.server.Handler() }

// Refresh runs one fetch. The model is updated through fetch events.
func (a *App) Refresh(ctx context.Context) error {
	_, err := a.coordinator.Fetch(ctx)
	return err
}

// Preview loads the source page preview for a recipe.
func (a *App) Preview(ctx context.Context, r domain.Recipe) (domain.SourcePreview, error) {
	return a.previews.Preview(ctx, r)
}

// Start launches the servers and background workers. It does not block.
func (a *App) Start(ctx context.Context) error {
	ctx, a.cancel = context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)
	a.group = g

	g.Go(a.server.Start)
	if a.grpcServer != nil {
		g.Go(a.grpcServer.Start)
	}

	if a.db != nil {
		a.db.StartMetricsCollector(gctx)
	}
	go a.pruner.Start(gctx)
	go a.refreshLoop(gctx)

	a.log.Info("App started", "port", a.cfg.Server.Port, "grpc_port", a.cfg.Server.GRPCPort,
		"source", a.cfg.Source.BaseURL, "route", a.cfg.Source.Route)
	return nil
}

// Wait blocks until a server fails or the servers are stopped.
func (a *App) Wait() error {
	if a.group == nil {
		return nil
	}
	return a.group.Wait()
}

// Stop stops servers and workers and closes backends.
func (a *App) Stop(ctx context.Context) error {
	a.log.Info("Stopping app...")

	if a.cancel != nil {
		a.cancel()
	}

	var errs []error
	if err := a.server.Stop(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http server: %w", err))
	}
	if a.grpcServer != nil {
		a.grpcServer.Stop()
	}
	a.closeBackends()

	return errors.Join(errs...)
}

func (a *App) refreshLoop(ctx context.Context) {
	a.refreshOnce(ctx)

	if a.cfg.Server.RefreshInterval <= 0 {
		return
	}
	ticker := time.NewTicker(a.cfg.Server.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.refreshOnce(ctx)
		}
	}
}

func (a *App) refreshOnce(ctx context.Context) {
	if err := a.Refresh(ctx); err != nil {
		if errors.Is(err, domain.ErrThrottled) {
			a.log.Debug("Refresh skipped, fetch already running")
			return
		}
		a.log.Warn("Refresh failed", "error", err)
	}
}

func (a *App) closeBackends() {
	if a.client != nil {
		_ = a.client.Close()
	}
	if a.assets != nil {
		_ = a.assets.Close()
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.log.Warn("Failed to close Redis", "error", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Warn("Failed to close database", "error", err)
		}
	}
}
