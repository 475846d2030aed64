// Package router classifies incoming queries into routing decisions.
// The primary path asks the LLM service for a structured classification;
// any failure there degrades to a deterministic keyword fallback, so
// Decide never returns an error.
package router

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/fathomdata/fathom/go/orchestrator/internal/llm"
	ometrics "github.com/fathomdata/fathom/go/orchestrator/internal/metrics"
)

const (
	PathPrimary  = "primary"
	PathFallback = "fallback"
)

// Decision is the routing outcome for a single query
type Decision struct {
	NeedsChart   bool   `json:"needs_chart"`
	NeedsRAG     bool   `json:"needs_rag"`
	DirectAnswer string `json:"direct_answer,omitempty"`
	// Path records which classification path produced the decision
	Path string `json:"path"`
}

// Classifier is the LLM completion surface the router depends on
type Classifier interface {
	Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error)
}

// Router produces routing decisions
type Router struct {
	classifier Classifier
	log        *zap.Logger
}

// New creates a router. classifier may be nil, in which case only the
// deterministic fallback runs.
func New(classifier Classifier, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{classifier: classifier, log: logger}
}

const decisionPrompt = `Classify the user query below. Respond with only a JSON object:
{"needs_chart": <bool: the user wants a chart, graph, or other visualization>,
 "needs_rag": <bool: answering requires looking up the user's documents>,
 "direct_answer": <string: the complete answer if it is trivially computable from the query alone, else "">}
The two boolean dimensions are independent and may both be true.

Query: %s`

// primaryDecision holds the classifier's raw JSON. Booleans are decoded
// into json.RawMessage first so a string "true" can be rejected.
type primaryDecision struct {
	NeedsChart   json.RawMessage `json:"needs_chart"`
	NeedsRAG     json.RawMessage `json:"needs_rag"`
	DirectAnswer string          `json:"direct_answer"`
}

func parseBool(raw json.RawMessage) (bool, error) {
	var b bool
	if raw == nil {
		return false, fmt.Errorf("missing boolean field")
	}
	if err := json.Unmarshal(raw, &b); err != nil {
		return false, fmt.Errorf("field is not boolean-typed: %w", err)
	}
	return b, nil
}

// Decide classifies the query. It never returns an error: any primary
// path failure falls through to Fallback.
func (r *Router) Decide(ctx context.Context, query string) Decision {
	d, err := r.primary(ctx, query)
	if err != nil {
		r.log.Debug("Primary classifier unavailable, using fallback",
			zap.String("reason", err.Error()),
		)
		d = Fallback(query)
	}
	ometrics.RoutingDecisions.WithLabelValues(d.Path, decisionLabel(d)).Inc()
	return d
}

func (r *Router) primary(ctx context.Context, query string) (Decision, error) {
	if r.classifier == nil {
		ometrics.ClassifierFailures.WithLabelValues("unconfigured").Inc()
		return Decision{}, fmt.Errorf("no classifier configured")
	}
	resp, err := r.classifier.Complete(ctx, llm.CompletionRequest{
		Prompt:      fmt.Sprintf(decisionPrompt, query),
		MaxTokens:   200,
		Temperature: 0,
		Purpose:     "classify",
	})
	if err != nil {
		ometrics.ClassifierFailures.WithLabelValues("request_error").Inc()
		return Decision{}, err
	}
	var pd primaryDecision
	if err := json.Unmarshal([]byte(stripCodeFences(resp.Text)), &pd); err != nil {
		ometrics.ClassifierFailures.WithLabelValues("malformed_json").Inc()
		return Decision{}, fmt.Errorf("classifier returned malformed JSON: %w", err)
	}
	needsChart, err := parseBool(pd.NeedsChart)
	if err != nil {
		ometrics.ClassifierFailures.WithLabelValues("invalid_fields").Inc()
		return Decision{}, err
	}
	needsRAG, err := parseBool(pd.NeedsRAG)
	if err != nil {
		ometrics.ClassifierFailures.WithLabelValues("invalid_fields").Inc()
		return Decision{}, err
	}
	return Decision{
		NeedsChart:   needsChart,
		NeedsRAG:     needsRAG,
		DirectAnswer: pd.DirectAnswer,
		Path:         PathPrimary,
	}, nil
}

func decisionLabel(d Decision) string {
	switch {
	case d.DirectAnswer != "":
		return "direct"
	case d.NeedsChart && d.NeedsRAG:
		return "chart_and_rag"
	case d.NeedsChart:
		return "chart"
	case d.NeedsRAG:
		return "rag"
	default:
		return "synthesis_only"
	}
}
