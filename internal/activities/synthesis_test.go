package activities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSynthesizeAnswer_CombinesContext(t *testing.T) {
	completer := &fakeCompleter{text: "The limit is 5, shown in the chart."}
	a := NewActivities(nil, completer, nil, nil, nil, nil)

	env := newActivityEnv()
	env.RegisterActivity(a.SynthesizeAnswer)

	in := SynthesizeAnswerInput{
		Query:     "what is the limit, chart it",
		Chart:     &ChartResult{Kind: "bar", Description: "what is the limit, chart it"},
		Retrieval: &RetrievalResult{Answer: "1- Page 3: The limit is 5."},
	}
	val, err := env.ExecuteActivity(a.SynthesizeAnswer, in)
	require.NoError(t, err)
	var out SynthesizeAnswerResult
	require.NoError(t, val.Get(&out))

	assert.Equal(t, "The limit is 5, shown in the chart.", out.Answer)
	require.Len(t, completer.prompts, 1)
	prompt := completer.prompts[0]
	assert.Contains(t, prompt, "what is the limit, chart it")
	assert.Contains(t, prompt, "1- Page 3: The limit is 5.")
	assert.Contains(t, prompt, "bar chart")
}

func TestSynthesizeAnswer_QueryOnly(t *testing.T) {
	completer := &fakeCompleter{text: "ok"}
	a := NewActivities(nil, completer, nil, nil, nil, nil)

	env := newActivityEnv()
	env.RegisterActivity(a.SynthesizeAnswer)

	val, err := env.ExecuteActivity(a.SynthesizeAnswer, SynthesizeAnswerInput{Query: "hello"})
	require.NoError(t, err)
	var out SynthesizeAnswerResult
	require.NoError(t, val.Get(&out))
	assert.Equal(t, "ok", out.Answer)

	prompt := completer.prompts[0]
	assert.NotContains(t, prompt, "Retrieved context")
	assert.NotContains(t, prompt, "chart was generated")
}

func TestSynthesizeAnswer_GenerationFailure(t *testing.T) {
	a := NewActivities(nil, &fakeCompleter{err: errBoom}, nil, nil, nil, nil)

	env := newActivityEnv()
	env.RegisterActivity(a.SynthesizeAnswer)

	val, err := env.ExecuteActivity(a.SynthesizeAnswer, SynthesizeAnswerInput{Query: "q"})
	require.NoError(t, err, "generation failure never propagates")
	var out SynthesizeAnswerResult
	require.NoError(t, val.Get(&out))
	assert.Equal(t, SynthesisApology, out.Answer)
}
