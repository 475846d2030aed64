package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"

	ometrics "github.com/fathomdata/fathom/go/orchestrator/internal/metrics"
	"github.com/fathomdata/fathom/go/orchestrator/internal/workflows"
)

// WorkflowStarter is the slice of the Temporal client used to launch and
// fetch runs. client.Client satisfies it.
type WorkflowStarter interface {
	ExecuteWorkflow(ctx context.Context, options client.StartWorkflowOptions, workflow interface{}, args ...interface{}) (client.WorkflowRun, error)
	GetWorkflow(ctx context.Context, workflowID string, runID string) client.WorkflowRun
}

// RunsHandler submits queries as workflow runs and serves their results.
type RunsHandler struct {
	tc        WorkflowStarter
	taskQueue string
	logger    *zap.Logger
}

func NewRunsHandler(tc WorkflowStarter, taskQueue string, logger *zap.Logger) *RunsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RunsHandler{tc: tc, taskQueue: taskQueue, logger: logger}
}

// RegisterRoutes registers run routes on the provided mux.
func (h *RunsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/runs", h.handleSubmit)
	mux.HandleFunc("/runs/", h.handleResult)
}

type submitRunResponse struct {
	RunID      string `json:"run_id"`
	WorkflowID string `json:"workflow_id"`
}

// handleSubmit starts an assistant run.
// POST /runs {"query": "...", "tenant_id": "...", "session_id": "..."}
func (h *RunsHandler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, `{"error":"method not allowed"}`, http.StatusMethodNotAllowed)
		return
	}
	var in workflows.QueryInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, `{"error":"invalid json body"}`, http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(in.Query) == "" {
		http.Error(w, `{"error":"query required"}`, http.StatusBadRequest)
		return
	}

	workflowID := "run-" + uuid.New().String()
	run, err := h.tc.ExecuteWorkflow(r.Context(), client.StartWorkflowOptions{
		ID:                       workflowID,
		TaskQueue:                h.taskQueue,
		WorkflowExecutionTimeout: 10 * time.Minute,
	}, workflows.AssistantWorkflow, in)
	if err != nil {
		h.logger.Error("Failed to start run", zap.Error(err))
		http.Error(w, `{"error":"failed to start run"}`, http.StatusInternalServerError)
		return
	}
	ometrics.RunsStarted.Inc()
	h.logger.Info("Run started",
		zap.String("workflow_id", run.GetID()),
		zap.String("tenant_id", in.TenantID),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(submitRunResponse{RunID: run.GetRunID(), WorkflowID: run.GetID()})
}

// handleResult blocks until the run completes and returns its result.
// GET /runs/{workflow_id}
func (h *RunsHandler) handleResult(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, `{"error":"method not allowed"}`, http.StatusMethodNotAllowed)
		return
	}
	workflowID := strings.TrimPrefix(r.URL.Path, "/runs/")
	if workflowID == "" || strings.Contains(workflowID, "/") {
		http.Error(w, `{"error":"workflow id required"}`, http.StatusBadRequest)
		return
	}

	var out workflows.RunResult
	if err := h.tc.GetWorkflow(r.Context(), workflowID, "").Get(r.Context(), &out); err != nil {
		h.logger.Warn("Run result fetch failed", zap.String("workflow_id", workflowID), zap.Error(err))
		http.Error(w, `{"error":"run not found or failed"}`, http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}
