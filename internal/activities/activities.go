// Package activities implements the Temporal activities behind a query run:
// routing, chart generation, tenant-scoped retrieval, and synthesis.
// External collaborators are injected behind small interfaces so tests can
// substitute fakes.
package activities

import (
	"context"

	"go.uber.org/zap"

	"github.com/fathomdata/fathom/go/orchestrator/internal/charts"
	"github.com/fathomdata/fathom/go/orchestrator/internal/llm"
	"github.com/fathomdata/fathom/go/orchestrator/internal/references"
	"github.com/fathomdata/fathom/go/orchestrator/internal/router"
)

// Completer is the LLM completion surface used for synthesis
type Completer interface {
	Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error)
}

// Embedder generates query vectors
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string, model string) ([]float32, error)
}

// Searcher is the tenant-scoped document search surface
type Searcher interface {
	Search(ctx context.Context, embedding []float32, tenantID string, limit int) ([]references.Hit, error)
	ListRecent(ctx context.Context, tenantID string, limit int) ([]references.Hit, error)
}

// SpecGenerator produces chart specs
type SpecGenerator interface {
	GenerateSpec(ctx context.Context, kind charts.Kind, description string) (charts.Spec, error)
}

// Activities struct holds dependencies for activities
type Activities struct {
	router   *router.Router
	llm      Completer
	charts   SpecGenerator
	embedder Embedder
	search   Searcher
	logger   *zap.Logger
}

// NewActivities creates a new activities instance with dependencies
func NewActivities(rt *router.Router, completer Completer, specGen SpecGenerator, embedder Embedder, search Searcher, logger *zap.Logger) *Activities {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Activities{
		router:   rt,
		llm:      completer,
		charts:   specGen,
		embedder: embedder,
		search:   search,
		logger:   logger,
	}
}
