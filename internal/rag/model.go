package rag

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"golang.org/x/time/rate"
)

// StreamFunc receives one incremental text chunk. Returning an error stops
// generation; the error propagates out of the model call.
type StreamFunc func(ctx context.Context, text string) error

// ModelClient abstracts the language-model provider so the pipeline can be
// exercised with a fake in tests. Generate performs one streaming model
// invocation: chunks are forwarded to onChunk as they arrive and the full
// concatenated answer is returned once the stream is exhausted.
type ModelClient interface {
	Generate(ctx context.Context, prompt string, onChunk StreamFunc) (string, error)
}

// GenkitModel is the production ModelClient backed by a Genkit model with
// proactive rate limiting.
type GenkitModel struct {
	g         *genkit.Genkit
	modelName string
	limiter   *rate.Limiter
	logger    *slog.Logger
}

// NewGenkitModel creates a streaming model client. A nil limiter disables
// rate limiting; a nil logger uses slog.Default().
func NewGenkitModel(g *genkit.Genkit, modelName string, limiter *rate.Limiter, logger *slog.Logger) *GenkitModel {
	if logger == nil {
		logger = slog.Default()
	}
	return &GenkitModel{
		g:         g,
		modelName: modelName,
		limiter:   limiter,
		logger:    logger,
	}
}

// Generate invokes the model in streaming mode. The returned string is the
// complete answer text; onChunk has already seen every piece of it.
func (m *GenkitModel) Generate(ctx context.Context, prompt string, onChunk StreamFunc) (string, error) {
	if m.limiter != nil {
		if err := m.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limiter wait failed: %w", err)
		}
	}

	opts := []ai.GenerateOption{
		ai.WithModelName(m.modelName),
		ai.WithPrompt(prompt),
	}
	if onChunk != nil {
		opts = append(opts, ai.WithStreaming(func(ctx context.Context, chunk *ai.ModelResponseChunk) error {
			return onChunk(ctx, chunk.Text())
		}))
	}

	resp, err := genkit.Generate(ctx, m.g, opts...)
	if err != nil {
		return "", fmt.Errorf("model generation failed: %w", err)
	}

	m.logger.Debug("generation complete",
		"model", m.modelName,
		"prompt_length", len(prompt),
		"answer_length", len(resp.Text()))
	return resp.Text(), nil
}
