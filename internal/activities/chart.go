package activities

import (
	"context"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/fathomdata/fathom/go/orchestrator/internal/charts"
	ometrics "github.com/fathomdata/fathom/go/orchestrator/internal/metrics"
)

// GenerateChart detects the wanted chart kind from the query and delegates
// spec generation to the chart service. A generator error surfaces as a typed
// ChartGenerationFailed application error; the workflow records it and keeps going.
func (a *Activities) GenerateChart(ctx context.Context, in GenerateChartInput) (ChartResult, error) {
	logger := activity.GetLogger(ctx)
	start := time.Now()

	kind := charts.DetectKind(in.Query)
	logger.Info("Generating chart", "kind", string(kind))

	spec, err := a.charts.GenerateSpec(ctx, kind, in.Query)
	ometrics.WorkerDuration.WithLabelValues("chart").Observe(float64(time.Since(start).Milliseconds()))
	if err != nil {
		ometrics.WorkerRuns.WithLabelValues("chart", "error").Inc()
		ometrics.ChartGenerations.WithLabelValues(string(kind), "error").Inc()
		return ChartResult{}, temporal.NewApplicationError("chart generation failed: "+err.Error(), "ChartGenerationFailed")
	}

	ometrics.WorkerRuns.WithLabelValues("chart", "ok").Inc()
	ometrics.ChartGenerations.WithLabelValues(string(kind), "ok").Inc()
	return ChartResult{
		Kind:        string(kind),
		Spec:        spec,
		Description: in.Query,
	}, nil
}
