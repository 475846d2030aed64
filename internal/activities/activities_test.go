package activities

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/testsuite"

	"github.com/fathomdata/fathom/go/orchestrator/internal/charts"
	"github.com/fathomdata/fathom/go/orchestrator/internal/llm"
	"github.com/fathomdata/fathom/go/orchestrator/internal/references"
)

// Shared fakes for activity tests.

type fakeCompleter struct {
	text    string
	err     error
	prompts []string
}

func (f *fakeCompleter) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.prompts = append(f.prompts, req.Prompt)
	if f.err != nil {
		return nil, f.err
	}
	return &llm.CompletionResponse{Text: f.text}, nil
}

type fakeEmbedder struct {
	vec []float32
	err error
}

func (f *fakeEmbedder) GenerateEmbedding(_ context.Context, _ string, _ string) ([]float32, error) {
	return f.vec, f.err
}

type fakeSearcher struct {
	hits        []references.Hit
	recent      []references.Hit
	searchErr   error
	listErr     error
	searchCalls int
	listCalls   int
	lastTenant  string
}

func (f *fakeSearcher) Search(_ context.Context, _ []float32, tenantID string, _ int) ([]references.Hit, error) {
	f.searchCalls++
	f.lastTenant = tenantID
	return f.hits, f.searchErr
}

func (f *fakeSearcher) ListRecent(_ context.Context, tenantID string, _ int) ([]references.Hit, error) {
	f.listCalls++
	f.lastTenant = tenantID
	return f.recent, f.listErr
}

type fakeSpecGen struct {
	spec     charts.Spec
	err      error
	lastKind charts.Kind
}

func (f *fakeSpecGen) GenerateSpec(_ context.Context, kind charts.Kind, _ string) (charts.Spec, error) {
	f.lastKind = kind
	if f.err != nil {
		return nil, f.err
	}
	return f.spec, nil
}

var errBoom = fmt.Errorf("boom")

func newActivityEnv() *testsuite.TestActivityEnvironment {
	suite := &testsuite.WorkflowTestSuite{}
	return suite.NewTestActivityEnvironment()
}
