package activities

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ometrics "github.com/fathomdata/fathom/go/orchestrator/internal/metrics"
	"github.com/fathomdata/fathom/go/orchestrator/internal/streaming"
)

func TestEmitRunUpdate_PublishesToStream(t *testing.T) {
	mgr := streaming.Get()
	ch := mgr.Subscribe("wf-evt-1", 4)
	defer mgr.Unsubscribe("wf-evt-1", ch)

	env := newActivityEnv()
	env.RegisterActivity(EmitRunUpdate)
	_, err := env.ExecuteActivity(EmitRunUpdate, EmitRunUpdateInput{
		WorkflowID: "wf-evt-1",
		EventType:  RunEventRouted,
		Timestamp:  time.Now(),
	})
	require.NoError(t, err)

	select {
	case ev := <-ch:
		assert.Equal(t, "ROUTED", ev.Type)
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}
}

func TestEmitRunUpdate_RecordsCompletionMetrics(t *testing.T) {
	before := testutil.ToFloat64(ometrics.RunsCompleted.WithLabelValues("degraded"))

	env := newActivityEnv()
	env.RegisterActivity(EmitRunUpdate)
	_, err := env.ExecuteActivity(EmitRunUpdate, EmitRunUpdateInput{
		WorkflowID:     "wf-evt-2",
		EventType:      RunEventCompleted,
		Timestamp:      time.Now(),
		Outcome:        "degraded",
		ElapsedSeconds: 1.5,
	})
	require.NoError(t, err)

	after := testutil.ToFloat64(ometrics.RunsCompleted.WithLabelValues("degraded"))
	assert.Equal(t, before+1, after)
}

func TestEmitRunUpdate_NonTerminalEventDoesNotCountCompletion(t *testing.T) {
	before := testutil.ToFloat64(ometrics.RunsCompleted.WithLabelValues("ok"))

	env := newActivityEnv()
	env.RegisterActivity(EmitRunUpdate)
	_, err := env.ExecuteActivity(EmitRunUpdate, EmitRunUpdateInput{
		WorkflowID: "wf-evt-3",
		EventType:  RunEventWorkerStarted,
		Worker:     "chart",
		Timestamp:  time.Now(),
	})
	require.NoError(t, err)

	after := testutil.ToFloat64(ometrics.RunsCompleted.WithLabelValues("ok"))
	assert.Equal(t, before, after)
}
