package activities

import (
	"context"
	"time"

	"go.temporal.io/sdk/activity"

	ometrics "github.com/fathomdata/fathom/go/orchestrator/internal/metrics"
	"github.com/fathomdata/fathom/go/orchestrator/internal/streaming"
)

// RunEventType identifies a run-state transition for streaming consumers
type RunEventType string

const (
	RunEventStarted            RunEventType = "RUN_STARTED"
	RunEventRouted             RunEventType = "ROUTED"
	RunEventDirectAnswer       RunEventType = "DIRECT_ANSWER"
	RunEventWorkerStarted      RunEventType = "WORKER_STARTED"
	RunEventWorkerCompleted    RunEventType = "WORKER_COMPLETED"
	RunEventWorkerFailed       RunEventType = "WORKER_FAILED"
	RunEventSynthesisStarted   RunEventType = "SYNTHESIS_STARTED"
	RunEventSynthesisCompleted RunEventType = "SYNTHESIS_COMPLETED"
	RunEventCompleted          RunEventType = "RUN_COMPLETED"
)

// EmitRunUpdateInput carries minimal event data for run-state streaming.
// Outcome and ElapsedSeconds are set only on RUN_COMPLETED events.
type EmitRunUpdateInput struct {
	WorkflowID     string       `json:"workflow_id"`
	EventType      RunEventType `json:"event_type"`
	Worker         string       `json:"worker,omitempty"`
	Message        string       `json:"message,omitempty"`
	Timestamp      time.Time    `json:"timestamp"`
	Outcome        string       `json:"outcome,omitempty"`
	ElapsedSeconds float64      `json:"elapsed_seconds,omitempty"`
}

// EmitRunUpdate publishes a run-state event to the in-process stream manager (best-effort).
func EmitRunUpdate(ctx context.Context, in EmitRunUpdateInput) error {
	logger := activity.GetLogger(ctx)
	logger.Info("run event",
		"workflow_id", in.WorkflowID,
		"type", string(in.EventType),
		"worker", in.Worker,
		"message", in.Message,
		"ts", in.Timestamp,
	)
	streaming.Get().Publish(in.WorkflowID, streaming.Event{
		WorkflowID: in.WorkflowID,
		Type:       string(in.EventType),
		Worker:     in.Worker,
		Message:    in.Message,
		Timestamp:  in.Timestamp,
	})
	ometrics.StreamEventsPublished.Inc()

	if in.EventType == RunEventCompleted {
		outcome := in.Outcome
		if outcome == "" {
			outcome = "ok"
		}
		ometrics.RunsCompleted.WithLabelValues(outcome).Inc()
		if in.ElapsedSeconds > 0 {
			ometrics.RunDuration.Observe(in.ElapsedSeconds)
		}
	}
	return nil
}
