package activities

import (
	"context"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	ometrics "github.com/fathomdata/fathom/go/orchestrator/internal/metrics"
	"github.com/fathomdata/fathom/go/orchestrator/internal/references"
)

const defaultTopK = 3

// NoResultsAnswer is returned when a tenant-scoped search yields zero hits.
const NoResultsAnswer = "No relevant information was found in your documents."

// RetrievalErrorAnswer is returned when retrieval fails internally. The run
// continues; the failure never propagates to the workflow.
const RetrievalErrorAnswer = "Document retrieval is temporarily unavailable, so this answer does not include your documents."

// RetrieveDocuments performs tenant-scoped semantic retrieval and builds the
// combined answer plus deduplicated reference list.
//
// A missing tenant is the single typed failure (MissingTenant, non-retryable);
// every other failure degrades inside the activity and returns a usable result.
func (a *Activities) RetrieveDocuments(ctx context.Context, in RetrieveDocumentsInput) (RetrievalResult, error) {
	logger := activity.GetLogger(ctx)
	start := time.Now()

	if in.TenantID == "" {
		ometrics.WorkerRuns.WithLabelValues("retrieval", "missing_tenant").Inc()
		return RetrievalResult{}, temporal.NewNonRetryableApplicationError("tenant required for retrieval", "MissingTenant", nil)
	}

	k := in.TopK
	if k <= 0 {
		k = defaultTopK
	}

	hits, degraded := a.fetchHits(ctx, in.Query, in.TenantID, k)
	ometrics.WorkerDuration.WithLabelValues("retrieval").Observe(float64(time.Since(start).Milliseconds()))
	if hits == nil && degraded {
		logger.Warn("Retrieval failed on all paths", "tenant_id", in.TenantID)
		ometrics.WorkerRuns.WithLabelValues("retrieval", "error").Inc()
		return RetrievalResult{
			Answer:     RetrievalErrorAnswer,
			References: []references.Reference{},
		}, nil
	}

	if len(hits) == 0 {
		logger.Info("No documents matched", "tenant_id", in.TenantID)
		ometrics.WorkerRuns.WithLabelValues("retrieval", "no_results").Inc()
		return RetrievalResult{
			Answer:     NoResultsAnswer,
			References: []references.Reference{},
		}, nil
	}

	ometrics.WorkerRuns.WithLabelValues("retrieval", "ok").Inc()
	return RetrievalResult{
		Answer:     references.BuildAnswer(hits),
		References: references.Aggregate(hits),
		Hits:       hits,
	}, nil
}

// fetchHits runs the embedding plus semantic search path, falling back to an
// unranked tenant-scoped listing when either step fails. Returns (nil, true)
// when both paths failed.
func (a *Activities) fetchHits(ctx context.Context, query, tenantID string, k int) ([]references.Hit, bool) {
	logger := activity.GetLogger(ctx)

	vec, err := a.embedder.GenerateEmbedding(ctx, query, "")
	if err == nil {
		hits, serr := a.search.Search(ctx, vec, tenantID, k)
		if serr == nil {
			return hits, false
		}
		logger.Warn("Semantic search failed, listing recent documents", "error", serr)
	} else {
		logger.Warn("Embedding generation failed, listing recent documents", "error", err)
	}

	hits, err := a.search.ListRecent(ctx, tenantID, k)
	if err != nil {
		return nil, true
	}
	return hits, false
}
