package activities

import (
	"context"

	"go.temporal.io/sdk/activity"

	"github.com/fathomdata/fathom/go/orchestrator/internal/router"
)

// RouteQuery classifies the query into a routing decision. It never fails:
// classifier errors degrade to the deterministic fallback inside the router.
func (a *Activities) RouteQuery(ctx context.Context, in RouteQueryInput) (router.Decision, error) {
	logger := activity.GetLogger(ctx)

	d := a.router.Decide(ctx, in.Query)

	logger.Info("Query routed",
		"path", d.Path,
		"needs_chart", d.NeedsChart,
		"needs_rag", d.NeedsRAG,
		"direct", d.DirectAnswer != "",
	)
	return d, nil
}
