package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/vadim/asset-qc/internal/cache"
	"github.com/vadim/asset-qc/internal/config"
	httpcontroller "github.com/vadim/asset-qc/internal/controller/http"
	"github.com/vadim/asset-qc/internal/database"
	assetdao "github.com/vadim/asset-qc/internal/domain/asset/dao"
	"github.com/vadim/asset-qc/internal/domain/asset/policy"
	assetservice "github.com/vadim/asset-qc/internal/domain/asset/service"
	usagedao "github.com/vadim/asset-qc/internal/domain/usage/dao"
	"github.com/vadim/asset-qc/internal/domain/usage/scheduler"
	usageservice "github.com/vadim/asset-qc/internal/domain/usage/service"
	appmiddleware "github.com/vadim/asset-qc/internal/httpx/middleware"
	"github.com/vadim/asset-qc/internal/httpx/response"
	"github.com/vadim/asset-qc/internal/metrics"
	"github.com/vadim/asset-qc/internal/storage"
)

// pinger reports whether a backing store is reachable
type pinger interface {
	Ping(ctx context.Context) error
}

// App is the main application container
type App struct {
	cfg        config.Config
	httpServer *http.Server
	router     *chi.Mux
	logger     *zap.Logger

	pool     *pgxpool.Pool
	redis    *redis.Client
	registry *prometheus.Registry

	// readiness checks, keyed by component name
	checks map[string]pinger

	// Domain policies (interfaces for HTTP handlers)
	assetPolicy  *policy.Policy
	usageService *usageservice.Service

	// Scheduler for rolling up engagement metrics
	scheduler *scheduler.Scheduler
}

// NewApp creates and initializes the application
func NewApp(ctx context.Context, cfg config.Config) (*App, error) {
	logger, err := NewLogger(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(appmiddleware.Logging(logger))
	r.Use(middleware.Timeout(cfg.Server.WriteTimeout))

	app := &App{
		cfg:      cfg,
		router:   r,
		logger:   logger,
		registry: prometheus.NewRegistry(),
		checks:   make(map[string]pinger),
	}
	app.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	if err := app.initInfrastructure(ctx); err != nil {
		app.closeInfrastructure()
		return nil, fmt.Errorf("initializing infrastructure: %w", err)
	}

	if err := app.initDomains(ctx); err != nil {
		app.closeInfrastructure()
		return nil, fmt.Errorf("initializing domains: %w", err)
	}

	if err := app.registerRoutes(); err != nil {
		app.closeInfrastructure()
		return nil, fmt.Errorf("registering routes: %w", err)
	}

	app.httpServer = &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      app.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return app, nil
}

// initInfrastructure connects to Postgres and, when configured, Redis
func (a *App) initInfrastructure(ctx context.Context) error {
	pool, err := database.NewPostgresPool(ctx, a.cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	a.pool = pool
	a.checks["postgres"] = pool

	if a.cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, pool); err != nil {
			return fmt.Errorf("migrating database: %w", err)
		}
		a.logger.Info("database migrations applied")
	}

	rdb, err := cache.NewRedisClient(ctx, a.cfg.Redis)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	if rdb != nil {
		a.redis = rdb
		a.checks["redis"] = redisPinger{rdb}
	} else {
		a.logger.Info("redis not configured, statistics cache disabled")
	}

	return nil
}

// initDomains initializes domain layers (DAO, Service, Policy)
func (a *App) initDomains(_ context.Context) error {
	assetRepo := assetdao.NewAssetPostgres(a.pool)
	assetSvc := assetservice.New(assetRepo)

	var statsCache policy.StatisticsCache
	if a.redis != nil {
		statsCache = cache.NewStatisticsCache(a.redis, a.cfg.Cache.StatsTTL)
	}

	var files policy.FileStorage
	if a.cfg.S3.Enabled {
		files = &s3StorageAdapter{storage.NewS3Storage(a.cfg.S3)}
	} else {
		a.logger.Info("s3 storage disabled, file uploads unavailable")
	}

	a.assetPolicy = policy.New(
		assetSvc,
		statsCache,
		files,
		metrics.NewQCMetrics(a.registry),
		a.logger.Named("asset"),
	)

	a.usageService = usageservice.New(
		assetRepo,
		usagedao.NewUsagePostgres(a.pool),
		usagedao.NewMetricsPostgres(a.pool),
	)

	if a.cfg.Rollup.Enabled {
		a.scheduler = scheduler.New(
			a.usageService,
			metrics.NewJobMetrics(a.registry, "rollup"),
			a.cfg.Rollup.Interval,
			a.logger.Named("rollup"),
		)
	}

	return nil
}

// registerRoutes registers all HTTP routes
func (a *App) registerRoutes() error {
	a.router.Get("/healthz", a.healthHandler)
	a.router.Get("/readyz", a.readyHandler)
	a.router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))

	// Swagger UI documentation
	swaggerHandler, err := httpcontroller.NewSwaggerHandler("Asset QC API", OpenAPISpec)
	if err != nil {
		return fmt.Errorf("loading openapi spec: %w", err)
	}
	swaggerHandler.RegisterRoutes(a.router)

	a.router.Route("/api/v1", func(r chi.Router) {
		httpcontroller.NewAssetHandler(a.assetPolicy, a.logger).RegisterRoutes(r)
		httpcontroller.NewQCReviewHandler(a.assetPolicy, a.logger).RegisterRoutes(r)
		httpcontroller.NewUsageHandler(a.usageService, a.logger).RegisterRoutes(r)
	})
	return nil
}

// healthHandler handles health check requests
func (a *App) healthHandler(w http.ResponseWriter, _ *http.Request) {
	response.OK(w, map[string]string{"status": "ok"})
}

// readyHandler reports ready only when every backing store answers a ping
func (a *App) readyHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	for name, c := range a.checks {
		if err := c.Ping(ctx); err != nil {
			a.logger.Warn("readiness check failed", zap.String("component", name), zap.Error(err))
			response.ServiceUnavailable(w, name+" unavailable")
			return
		}
	}
	response.OK(w, map[string]string{"status": "ready"})
}

// Run starts the application and blocks until shutdown signal
func (a *App) Run(ctx context.Context) error {
	if a.scheduler != nil {
		a.scheduler.Start(ctx)
	}

	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server", zap.String("addr", a.cfg.Server.Address()))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		a.closeInfrastructure()
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		a.logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	case <-ctx.Done():
		a.logger.Info("context cancelled")
	}

	return a.Shutdown(context.Background())
}

// Shutdown gracefully shuts down the application
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down...")

	if a.scheduler != nil {
		a.scheduler.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()

	err := a.httpServer.Shutdown(shutdownCtx)
	a.closeInfrastructure()
	if err != nil {
		return fmt.Errorf("shutting down HTTP server: %w", err)
	}

	a.logger.Info("shutdown complete")
	_ = a.logger.Sync()
	return nil
}

func (a *App) closeInfrastructure() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("closing redis", zap.Error(err))
		}
		a.redis = nil
	}
	if a.pool != nil {
		a.pool.Close()
		a.pool = nil
	}
}

// redisPinger adapts *redis.Client to pinger
type redisPinger struct {
	client *redis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// s3StorageAdapter adapts storage.S3Storage to policy.FileStorage
type s3StorageAdapter struct {
	storage *storage.S3Storage
}

func (a *s3StorageAdapter) Upload(ctx context.Context, in policy.FileUpload) (*policy.StoredFile, error) {
	out, err := a.storage.Upload(ctx, storage.UploadInput{
		Reader:      in.Reader,
		ContentType: in.ContentType,
		Size:        in.Size,
		Filename:    in.Filename,
	})
	if err != nil {
		return nil, err
	}
	return &policy.StoredFile{
		Key: out.Key,
		URL: out.URL,
	}, nil
}

func (a *s3StorageAdapter) Delete(ctx context.Context, key string) error {
	return a.storage.Delete(ctx, key)
}
