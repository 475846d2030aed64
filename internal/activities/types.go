package activities

import (
	"github.com/fathomdata/fathom/go/orchestrator/internal/charts"
	"github.com/fathomdata/fathom/go/orchestrator/internal/references"
)

// RouteQueryInput carries the query to classify
type RouteQueryInput struct {
	Query string `json:"query"`
}

// GenerateChartInput carries the query a chart is wanted for
type GenerateChartInput struct {
	Query string `json:"query"`
}

// ChartResult is the chart worker output
type ChartResult struct {
	Kind        string      `json:"kind"`
	Spec        charts.Spec `json:"spec"`
	Description string      `json:"description"`
}

// RetrieveDocumentsInput carries the query and tenant scope for retrieval
type RetrieveDocumentsInput struct {
	Query    string `json:"query"`
	TenantID string `json:"tenant_id"`
	TopK     int    `json:"top_k,omitempty"`
}

// RetrievalResult is the retrieval worker output
type RetrievalResult struct {
	Answer     string                 `json:"answer"`
	References []references.Reference `json:"references"`
	Hits       []references.Hit       `json:"hits,omitempty"`
}

// SynthesizeAnswerInput carries the query plus whatever the workers gathered
type SynthesizeAnswerInput struct {
	Query     string           `json:"query"`
	Chart     *ChartResult     `json:"chart,omitempty"`
	Retrieval *RetrievalResult `json:"retrieval,omitempty"`
}

// SynthesizeAnswerResult is the synthesized final answer text
type SynthesizeAnswerResult struct {
	Answer string `json:"answer"`
}
