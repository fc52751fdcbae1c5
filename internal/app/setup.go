package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/time/rate"

	"github.com/finch-ai/finch/db"
	"github.com/finch-ai/finch/internal/api"
	"github.com/finch-ai/finch/internal/config"
	"github.com/finch-ai/finch/internal/memory"
	"github.com/finch-ai/finch/internal/observability"
	"github.com/finch-ai/finch/internal/rag"
	"github.com/finch-ai/finch/internal/session"
	"github.com/finch-ai/finch/internal/sqlc"
)

// Setup creates and initializes the application. Returns an App with
// embedded cleanup — call Close() to release.
func Setup(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *App, retErr error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Config: cfg, Logger: logger}

	// On error, clean up everything already initialized.
	defer func() {
		if retErr != nil {
			a.Close()
		}
	}()

	a.otelCleanup = provideOtelShutdown(ctx, cfg, logger)

	pool, dbCleanup, err := provideDBPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.dbCleanup = dbCleanup
	a.DBPool = pool

	g, err := provideGenkit(ctx)
	if err != nil {
		return nil, err
	}
	a.Genkit = g

	embedder := googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)
	if embedder == nil {
		return nil, fmt.Errorf("embedder %q not found", cfg.EmbedderModel)
	}
	a.Embedder = embedder

	queries := sqlc.New(pool)
	a.Sessions = session.New(queries, logger)
	a.Vector = rag.NewVector(queries, embedder, logger)

	model := rag.NewGenkitModel(g, cfg.FullModelName(),
		rate.NewLimiter(rate.Limit(cfg.ModelRateLimit), cfg.ModelRateBurst), logger)

	pipeline, err := rag.NewPipeline(rag.Config{
		Sessions:            a.Sessions,
		Structured:          rag.NewStructured(queries, logger),
		Vector:              a.Vector,
		Model:               model,
		Extractor:           memory.NewHeuristic(logger),
		Projects:            queries,
		MaxResultsPerSource: cfg.MaxResultsPerSource,
		Logger:              logger,
	})
	if err != nil {
		return nil, fmt.Errorf("building pipeline: %w", err)
	}
	a.Pipeline = pipeline

	server, err := api.NewServer(api.ServerConfig{
		Pipeline: pipeline,
		Sessions: a.Sessions,
		DB:       pool,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("building server: %w", err)
	}
	a.Server = server

	return a, nil
}

// provideOtelShutdown sets up Datadog tracing. Must run before
// provideGenkit so the TracerProvider is ready.
func provideOtelShutdown(ctx context.Context, cfg *config.Config, logger *slog.Logger) func() {
	shutdown := observability.SetupDatadog(ctx, observability.Config{
		AgentHost:   cfg.Datadog.AgentHost,
		Environment: cfg.Datadog.Environment,
		ServiceName: cfg.Datadog.ServiceName,
	}, logger)

	//nolint:contextcheck // independent context: shutdown runs during teardown when parent is canceled
	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			logger.Warn("shutting down tracer provider", "error", err)
		}
	}
}

// provideGenkit initializes Genkit with the Google AI plugin. The plugin
// reads GEMINI_API_KEY / GOOGLE_API_KEY from the environment.
func provideGenkit(ctx context.Context) (*genkit.Genkit, error) {
	g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
	if g == nil {
		return nil, errors.New("initializing genkit with gemini provider")
	}
	return g, nil
}

// provideDBPool runs migrations and creates the PostgreSQL connection pool.
func provideDBPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, func(), error) {
	if err := db.Migrate(cfg.PostgresURL()); err != nil {
		return nil, nil, fmt.Errorf("running migrations: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, nil, fmt.Errorf("parsing connection config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("pinging database: %w", err)
	}

	return pool, pool.Close, nil
}
