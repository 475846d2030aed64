package workflows

import (
	"github.com/fathomdata/fathom/go/orchestrator/internal/activities"
	"github.com/fathomdata/fathom/go/orchestrator/internal/references"
	"github.com/fathomdata/fathom/go/orchestrator/internal/router"
)

// QueryInput starts an assistant run
type QueryInput struct {
	Query     string `json:"query"`
	TenantID  string `json:"tenant_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// PayloadKind discriminates the structured payload union
type PayloadKind string

const (
	PayloadChart      PayloadKind = "chart"
	PayloadReferences PayloadKind = "references"
)

// Payload is one structured artifact gathered during a run. Exactly one of
// Chart or References is set, per Kind.
type Payload struct {
	Kind       PayloadKind             `json:"kind"`
	Chart      *activities.ChartResult `json:"chart,omitempty"`
	References []references.Reference  `json:"references,omitempty"`
}

// RunState accumulates worker outputs as the run progresses. Worker writes
// are disjoint fields, so concurrent completion needs no coordination.
type RunState struct {
	Query          string                      `json:"query"`
	Decision       router.Decision             `json:"decision"`
	Chart          *activities.ChartResult     `json:"chart,omitempty"`
	ChartError     string                      `json:"chart_error,omitempty"`
	Retrieval      *activities.RetrievalResult `json:"retrieval,omitempty"`
	RetrievalError string                      `json:"retrieval_error,omitempty"`
}

// RunResult is the terminal output of an assistant run
type RunResult struct {
	Answer   string    `json:"answer"`
	Payloads []Payload `json:"payloads"`
	// Direct marks runs short-circuited by a routing direct answer
	Direct bool `json:"direct,omitempty"`
	// Path records which classification path routed the run
	Path string `json:"path,omitempty"`
}
