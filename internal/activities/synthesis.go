package activities

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.temporal.io/sdk/activity"

	"github.com/fathomdata/fathom/go/orchestrator/internal/llm"
	ometrics "github.com/fathomdata/fathom/go/orchestrator/internal/metrics"
)

// SynthesisApology is returned when the generation call fails. It tells the
// caller the gathered data is still attached to the run payload.
const SynthesisApology = "I'm sorry, I was unable to compose a final answer. The data gathered for your request is still included below."

// SynthesizeAnswer produces the final answer text from the query and whatever
// the workers gathered. Generation failure degrades to a fixed apology; the
// activity never returns an error.
func (a *Activities) SynthesizeAnswer(ctx context.Context, in SynthesizeAnswerInput) (SynthesizeAnswerResult, error) {
	logger := activity.GetLogger(ctx)
	start := time.Now()

	prompt := buildSynthesisPrompt(in)

	resp, err := a.llm.Complete(ctx, llm.CompletionRequest{
		Prompt:      prompt,
		MaxTokens:   1024,
		Temperature: 0.3,
		Purpose:     "synthesize",
	})
	ometrics.WorkerDuration.WithLabelValues("synthesis").Observe(float64(time.Since(start).Milliseconds()))
	if err != nil {
		logger.Warn("Synthesis generation failed", "error", err)
		ometrics.WorkerRuns.WithLabelValues("synthesis", "error").Inc()
		ometrics.SynthesisFallbacks.Inc()
		return SynthesizeAnswerResult{Answer: SynthesisApology}, nil
	}

	ometrics.WorkerRuns.WithLabelValues("synthesis", "ok").Inc()
	return SynthesizeAnswerResult{Answer: resp.Text}, nil
}

func buildSynthesisPrompt(in SynthesizeAnswerInput) string {
	var b strings.Builder
	b.WriteString("Answer the user's question using the context gathered below.\n\n")
	b.WriteString("Question: ")
	b.WriteString(in.Query)
	b.WriteString("\n")
	if in.Retrieval != nil && in.Retrieval.Answer != "" {
		b.WriteString("\nRetrieved context:\n")
		b.WriteString(in.Retrieval.Answer)
		b.WriteString("\n")
	}
	if in.Chart != nil {
		fmt.Fprintf(&b, "\nA %s chart was generated for: %s\n", in.Chart.Kind, in.Chart.Description)
	}
	b.WriteString("\nAnswer concisely. If the context is empty, answer from general knowledge.")
	return b.String()
}
