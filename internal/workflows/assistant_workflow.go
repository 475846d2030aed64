// Package workflows contains the assistant run state machine. A run routes
// the query, fans out to the chart and retrieval workers in parallel, and
// synthesizes a final answer from whatever they gathered. No worker failure
// is fatal to the run.
package workflows

import (
	"errors"
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/fathomdata/fathom/go/orchestrator/internal/activities"
	"github.com/fathomdata/fathom/go/orchestrator/internal/constants"
	"github.com/fathomdata/fathom/go/orchestrator/internal/references"
	"github.com/fathomdata/fathom/go/orchestrator/internal/router"
)

// MissingTenantAnswer stands in for retrieval output when the run has no
// tenant to scope the search to.
const MissingTenantAnswer = "I could not search your documents because no workspace was provided with this request."

// WorkerErrorAnswer stands in for retrieval output when the worker failed
// outright before producing its own degraded result.
const WorkerErrorAnswer = "Document retrieval failed for this request, so this answer does not include your documents."

// AssistantWorkflow runs a single query end to end:
// route, fan out to workers, join, synthesize.
func AssistantWorkflow(ctx workflow.Context, input QueryInput) (RunResult, error) {
	logger := workflow.GetLogger(ctx)
	wfID := workflow.GetInfo(ctx).WorkflowExecution.ID
	startedAt := workflow.Now(ctx)
	logger.Info("Starting assistant run",
		"query", input.Query,
		"tenant_id", input.TenantID,
		"session_id", input.SessionID,
	)
	emitRunUpdate(ctx, wfID, activities.RunEventStarted, "", "")

	activityOptions := workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 2,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, activityOptions)

	var decision router.Decision
	if err := workflow.ExecuteActivity(ctx, constants.RouteQueryActivity,
		activities.RouteQueryInput{Query: input.Query}).Get(ctx, &decision); err != nil {
		// Routing itself degrades internally; this only fires on activity
		// infrastructure failure. The fallback is deterministic, so it is
		// safe to run inline in workflow code.
		logger.Warn("Routing activity failed, classifying inline", "error", err)
		decision = router.Fallback(input.Query)
	}
	emitRunUpdate(ctx, wfID, activities.RunEventRouted, "",
		fmt.Sprintf("chart=%t rag=%t direct=%t path=%s",
			decision.NeedsChart, decision.NeedsRAG, decision.DirectAnswer != "", decision.Path))

	state := RunState{Query: input.Query, Decision: decision}

	// A direct answer short-circuits the entire run.
	if decision.DirectAnswer != "" {
		emitRunUpdate(ctx, wfID, activities.RunEventDirectAnswer, "", decision.DirectAnswer)
		emitRunCompleted(ctx, wfID, "direct", startedAt)
		logger.Info("Run completed with direct answer")
		return RunResult{
			Answer:   decision.DirectAnswer,
			Payloads: []Payload{},
			Direct:   true,
			Path:     decision.Path,
		}, nil
	}

	// Fan out. Both futures are created before either is joined so the
	// workers run concurrently when both are needed.
	var chartFut, ragFut workflow.Future
	if decision.NeedsChart {
		emitRunUpdate(ctx, wfID, activities.RunEventWorkerStarted, "chart", "")
		chartFut = workflow.ExecuteActivity(ctx, constants.GenerateChartActivity,
			activities.GenerateChartInput{Query: input.Query})
	}
	if decision.NeedsRAG {
		emitRunUpdate(ctx, wfID, activities.RunEventWorkerStarted, "retrieval", "")
		ragFut = workflow.ExecuteActivity(ctx, constants.RetrieveDocumentsActivity,
			activities.RetrieveDocumentsInput{Query: input.Query, TenantID: input.TenantID})
	}

	// Unconditional join: one worker failing never cancels its sibling.
	if chartFut != nil {
		var chart activities.ChartResult
		if err := chartFut.Get(ctx, &chart); err != nil {
			logger.Warn("Chart worker failed", "error", err)
			state.ChartError = err.Error()
			emitRunUpdate(ctx, wfID, activities.RunEventWorkerFailed, "chart", err.Error())
		} else {
			state.Chart = &chart
			emitRunUpdate(ctx, wfID, activities.RunEventWorkerCompleted, "chart", chart.Kind)
		}
	}
	if ragFut != nil {
		var retrieval activities.RetrievalResult
		if err := ragFut.Get(ctx, &retrieval); err != nil {
			logger.Warn("Retrieval worker failed", "error", err)
			state.RetrievalError = err.Error()
			state.Retrieval = &activities.RetrievalResult{
				Answer:     retrievalPlaceholder(err),
				References: []references.Reference{},
			}
			emitRunUpdate(ctx, wfID, activities.RunEventWorkerFailed, "retrieval", err.Error())
		} else {
			state.Retrieval = &retrieval
			emitRunUpdate(ctx, wfID, activities.RunEventWorkerCompleted, "retrieval",
				fmt.Sprintf("%d references", len(retrieval.References)))
		}
	}

	emitRunUpdate(ctx, wfID, activities.RunEventSynthesisStarted, "", "")
	var synthesis activities.SynthesizeAnswerResult
	if err := workflow.ExecuteActivity(ctx, constants.SynthesizeAnswerActivity,
		activities.SynthesizeAnswerInput{
			Query:     input.Query,
			Chart:     state.Chart,
			Retrieval: state.Retrieval,
		}).Get(ctx, &synthesis); err != nil {
		// The activity degrades internally; this is infrastructure failure.
		logger.Warn("Synthesis activity failed", "error", err)
		synthesis.Answer = activities.SynthesisApology
	}
	emitRunUpdate(ctx, wfID, activities.RunEventSynthesisCompleted, "", "")

	result := RunResult{
		Answer:   synthesis.Answer,
		Payloads: buildPayloads(state),
		Path:     decision.Path,
	}
	outcome := "ok"
	if state.ChartError != "" || state.RetrievalError != "" {
		outcome = "degraded"
	}
	emitRunCompleted(ctx, wfID, outcome, startedAt)
	logger.Info("Run completed",
		"payloads", len(result.Payloads),
		"chart_error", state.ChartError != "",
		"retrieval_error", state.RetrievalError != "",
	)
	return result, nil
}

// retrievalPlaceholder maps a retrieval worker failure to the placeholder
// answer synthesized in its place.
func retrievalPlaceholder(err error) string {
	var appErr *temporal.ApplicationError
	if errors.As(err, &appErr) && appErr.Type() == "MissingTenant" {
		return MissingTenantAnswer
	}
	return WorkerErrorAnswer
}

// buildPayloads collects the structured artifacts gathered during the run.
func buildPayloads(state RunState) []Payload {
	payloads := []Payload{}
	if state.Chart != nil {
		payloads = append(payloads, Payload{Kind: PayloadChart, Chart: state.Chart})
	}
	if state.Retrieval != nil && len(state.Retrieval.References) > 0 {
		payloads = append(payloads, Payload{Kind: PayloadReferences, References: state.Retrieval.References})
	}
	return payloads
}

// emitRunUpdate schedules a best-effort run-state event without waiting on it.
func emitRunUpdate(ctx workflow.Context, wfID string, eventType activities.RunEventType, worker, message string) {
	emitEvent(ctx, activities.EmitRunUpdateInput{
		WorkflowID: wfID,
		EventType:  eventType,
		Worker:     worker,
		Message:    message,
		Timestamp:  workflow.Now(ctx),
	})
}

// emitRunCompleted emits the terminal event with the run outcome and its
// wall-clock duration for the completion metrics. Unlike intermediate
// events it is waited on: an activity still unscheduled when the workflow
// returns is canceled, which would drop the terminal event.
func emitRunCompleted(ctx workflow.Context, wfID, outcome string, startedAt time.Time) {
	now := workflow.Now(ctx)
	fut := emitEvent(ctx, activities.EmitRunUpdateInput{
		WorkflowID:     wfID,
		EventType:      activities.RunEventCompleted,
		Timestamp:      now,
		Outcome:        outcome,
		ElapsedSeconds: now.Sub(startedAt).Seconds(),
	})
	_ = fut.Get(ctx, nil)
}

func emitEvent(ctx workflow.Context, in activities.EmitRunUpdateInput) workflow.Future {
	opts := workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Second,
		RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 1},
	}
	ectx := workflow.WithActivityOptions(ctx, opts)
	return workflow.ExecuteActivity(ectx, constants.EmitRunUpdateActivity, in)
}
