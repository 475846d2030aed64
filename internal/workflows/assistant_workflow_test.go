package workflows

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"

	"github.com/fathomdata/fathom/go/orchestrator/internal/activities"
	"github.com/fathomdata/fathom/go/orchestrator/internal/charts"
	"github.com/fathomdata/fathom/go/orchestrator/internal/constants"
	"github.com/fathomdata/fathom/go/orchestrator/internal/references"
	"github.com/fathomdata/fathom/go/orchestrator/internal/router"
)

// stubs holds per-test activity behavior and call counts
type stubs struct {
	decision      router.Decision
	routeErr      error
	chart         activities.ChartResult
	chartErr      error
	retrieval     activities.RetrievalResult
	retrievalErr  error
	synthesis     string
	synthesisIn   *activities.SynthesizeAnswerInput
	chartCalls    int
	retrieveCalls int
	synthCalls    int
	events        []activities.EmitRunUpdateInput
}

func (s *stubs) completedEvent() *activities.EmitRunUpdateInput {
	for i := range s.events {
		if s.events[i].EventType == activities.RunEventCompleted {
			return &s.events[i]
		}
	}
	return nil
}

func newEnv(t *testing.T, s *stubs) *testsuite.TestWorkflowEnvironment {
	t.Helper()
	suite := &testsuite.WorkflowTestSuite{}
	env := suite.NewTestWorkflowEnvironment()

	env.RegisterActivityWithOptions(func(ctx context.Context, in activities.RouteQueryInput) (router.Decision, error) {
		if s.routeErr != nil {
			return router.Decision{}, s.routeErr
		}
		return s.decision, nil
	}, activity.RegisterOptions{Name: constants.RouteQueryActivity})

	env.RegisterActivityWithOptions(func(ctx context.Context, in activities.GenerateChartInput) (activities.ChartResult, error) {
		s.chartCalls++
		return s.chart, s.chartErr
	}, activity.RegisterOptions{Name: constants.GenerateChartActivity})

	env.RegisterActivityWithOptions(func(ctx context.Context, in activities.RetrieveDocumentsInput) (activities.RetrievalResult, error) {
		s.retrieveCalls++
		return s.retrieval, s.retrievalErr
	}, activity.RegisterOptions{Name: constants.RetrieveDocumentsActivity})

	env.RegisterActivityWithOptions(func(ctx context.Context, in activities.SynthesizeAnswerInput) (activities.SynthesizeAnswerResult, error) {
		s.synthCalls++
		s.synthesisIn = &in
		return activities.SynthesizeAnswerResult{Answer: s.synthesis}, nil
	}, activity.RegisterOptions{Name: constants.SynthesizeAnswerActivity})

	env.RegisterActivityWithOptions(func(ctx context.Context, in activities.EmitRunUpdateInput) error {
		s.events = append(s.events, in)
		return nil
	}, activity.RegisterOptions{Name: constants.EmitRunUpdateActivity})

	return env
}

func runWorkflow(t *testing.T, env *testsuite.TestWorkflowEnvironment, input QueryInput) RunResult {
	t.Helper()
	env.ExecuteWorkflow(AssistantWorkflow, input)
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())
	var out RunResult
	require.NoError(t, env.GetWorkflowResult(&out))
	return out
}

func TestAssistantWorkflow_ChartAndRetrieval(t *testing.T) {
	s := &stubs{
		decision: router.Decision{NeedsChart: true, NeedsRAG: true, Path: router.PathPrimary},
		chart:    activities.ChartResult{Kind: "bar", Spec: charts.Spec(`{"type":"bar"}`), Description: "q"},
		retrieval: activities.RetrievalResult{
			Answer:     "1- Page 3: The limit is 5.",
			References: []references.Reference{{Source: "handbook.pdf", Pages: []string{"3"}}},
		},
		synthesis: "The limit is 5, see the chart.",
	}
	env := newEnv(t, s)

	out := runWorkflow(t, env, QueryInput{Query: "what is the limit, chart it", TenantID: "tenant-a"})

	assert.Equal(t, "The limit is 5, see the chart.", out.Answer)
	assert.False(t, out.Direct)
	require.Len(t, out.Payloads, 2)
	assert.Equal(t, PayloadChart, out.Payloads[0].Kind)
	assert.Equal(t, "bar", out.Payloads[0].Chart.Kind)
	assert.Equal(t, PayloadReferences, out.Payloads[1].Kind)
	assert.Equal(t, "handbook.pdf", out.Payloads[1].References[0].Source)

	assert.Equal(t, 1, s.chartCalls)
	assert.Equal(t, 1, s.retrieveCalls)
	assert.Equal(t, 1, s.synthCalls)

	require.NotNil(t, s.synthesisIn)
	assert.Equal(t, "1- Page 3: The limit is 5.", s.synthesisIn.Retrieval.Answer)
	assert.Equal(t, "bar", s.synthesisIn.Chart.Kind)
}

func TestAssistantWorkflow_DirectAnswerShortCircuits(t *testing.T) {
	s := &stubs{
		decision: router.Decision{DirectAnswer: "The answer is 42.", Path: router.PathFallback},
	}
	env := newEnv(t, s)

	out := runWorkflow(t, env, QueryInput{Query: "6 * 7"})

	assert.Equal(t, "The answer is 42.", out.Answer)
	assert.True(t, out.Direct)
	assert.Empty(t, out.Payloads)
	assert.Equal(t, 0, s.chartCalls, "workers are skipped on direct answers")
	assert.Equal(t, 0, s.retrieveCalls)
	assert.Equal(t, 0, s.synthCalls, "synthesizer is skipped on direct answers")
}

func TestAssistantWorkflow_ChartFailureIsolated(t *testing.T) {
	s := &stubs{
		decision: router.Decision{NeedsChart: true, NeedsRAG: true, Path: router.PathFallback},
		chartErr: temporal.NewApplicationError("chart generation failed", "ChartGenerationFailed"),
		retrieval: activities.RetrievalResult{
			Answer:     "1- Page 3: The limit is 5.",
			References: []references.Reference{{Source: "handbook.pdf", Pages: []string{"3"}}},
		},
		synthesis: "The limit is 5.",
	}
	env := newEnv(t, s)

	out := runWorkflow(t, env, QueryInput{Query: "q", TenantID: "tenant-a"})

	assert.Equal(t, "The limit is 5.", out.Answer)
	require.Len(t, out.Payloads, 1, "failed chart contributes no payload")
	assert.Equal(t, PayloadReferences, out.Payloads[0].Kind)
	assert.Equal(t, 1, s.retrieveCalls, "sibling worker still ran")
	assert.Equal(t, 1, s.synthCalls)
	require.NotNil(t, s.synthesisIn)
	assert.Nil(t, s.synthesisIn.Chart)
}

func TestAssistantWorkflow_MissingTenantPlaceholder(t *testing.T) {
	s := &stubs{
		decision:     router.Decision{NeedsChart: true, NeedsRAG: true, Path: router.PathFallback},
		chart:        activities.ChartResult{Kind: "line", Spec: charts.Spec(`{}`), Description: "q"},
		retrievalErr: temporal.NewNonRetryableApplicationError("tenant required for retrieval", "MissingTenant", nil),
		synthesis:    "Here is the chart; documents were unavailable.",
	}
	env := newEnv(t, s)

	out := runWorkflow(t, env, QueryInput{Query: "q"})

	assert.Equal(t, "Here is the chart; documents were unavailable.", out.Answer)
	require.Len(t, out.Payloads, 1, "placeholder retrieval has no references payload")
	assert.Equal(t, PayloadChart, out.Payloads[0].Kind)
	assert.Equal(t, 1, s.chartCalls, "chart worker unaffected by retrieval failure")

	require.NotNil(t, s.synthesisIn)
	require.NotNil(t, s.synthesisIn.Retrieval)
	assert.Equal(t, MissingTenantAnswer, s.synthesisIn.Retrieval.Answer)
}

func TestAssistantWorkflow_SynthesisOnly(t *testing.T) {
	s := &stubs{
		decision:  router.Decision{Path: router.PathFallback},
		synthesis: "General knowledge answer.",
	}
	env := newEnv(t, s)

	out := runWorkflow(t, env, QueryInput{Query: "hello there"})

	assert.Equal(t, "General knowledge answer.", out.Answer)
	assert.Empty(t, out.Payloads)
	assert.Equal(t, 0, s.chartCalls)
	assert.Equal(t, 0, s.retrieveCalls)
	require.NotNil(t, s.synthesisIn)
	assert.Nil(t, s.synthesisIn.Chart)
	assert.Nil(t, s.synthesisIn.Retrieval)
}

func TestAssistantWorkflow_CompletionEventCarriesOutcome(t *testing.T) {
	cases := []struct {
		name    string
		s       *stubs
		query   string
		outcome string
	}{
		{
			name: "clean run",
			s: &stubs{
				decision:  router.Decision{NeedsRAG: true, Path: router.PathPrimary},
				retrieval: activities.RetrievalResult{Answer: "1- Page 3: ok."},
				synthesis: "ok",
			},
			query:   "q",
			outcome: "ok",
		},
		{
			name: "worker failure degrades the run",
			s: &stubs{
				decision:  router.Decision{NeedsChart: true, Path: router.PathFallback},
				chartErr:  temporal.NewApplicationError("chart generation failed", "ChartGenerationFailed"),
				synthesis: "no chart available",
			},
			query:   "chart it",
			outcome: "degraded",
		},
		{
			name: "direct answer",
			s: &stubs{
				decision: router.Decision{DirectAnswer: "The answer is 42.", Path: router.PathFallback},
			},
			query:   "6 * 7",
			outcome: "direct",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newEnv(t, tc.s)
			runWorkflow(t, env, QueryInput{Query: tc.query, TenantID: "tenant-a"})

			evt := tc.s.completedEvent()
			require.NotNil(t, evt, "terminal event was emitted")
			assert.Equal(t, tc.outcome, evt.Outcome)
			assert.GreaterOrEqual(t, evt.ElapsedSeconds, 0.0)
		})
	}
}

func TestAssistantWorkflow_RoutingInfraFailureFallsBack(t *testing.T) {
	s := &stubs{
		routeErr: fmt.Errorf("worker crashed"),
	}
	env := newEnv(t, s)

	out := runWorkflow(t, env, QueryInput{Query: "6 * 7"})

	assert.Equal(t, "The answer is 42.", out.Answer, "inline deterministic fallback classified the query")
	assert.True(t, out.Direct)
}
