// Package app assembles the application: configuration, storage, the Genkit
// runtime, the query pipeline, and the HTTP server. Every component receives
// its collaborators at construction time; there are no package-level
// singletons.
package app

import (
	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finch-ai/finch/internal/api"
	"github.com/finch-ai/finch/internal/config"
	"github.com/finch-ai/finch/internal/rag"
	"github.com/finch-ai/finch/internal/session"
)

// App holds the application's long-lived components.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	DBPool   *pgxpool.Pool
	Genkit   *genkit.Genkit
	Embedder ai.Embedder

	Sessions *session.Store
	Vector   *rag.Vector
	Pipeline *rag.Pipeline
	Server   *api.Server

	otelCleanup func()
	dbCleanup   func()
}

// Close releases resources in reverse initialization order: pending
// persistence tasks first, then the pool, then the trace exporter flush.
// Safe to call on a partially initialized App.
func (a *App) Close() {
	if a.Pipeline != nil {
		a.Pipeline.Wait()
	}
	if a.dbCleanup != nil {
		a.dbCleanup()
	}
	if a.otelCleanup != nil {
		a.otelCleanup()
	}
}
