package llm

import "time"

// Config controls the LLM service client.
type Config struct {
	// BaseURL points to the LLM sidecar service (e.g. http://llm-service:8000)
	BaseURL string
	// Provider name for rate limiting (openai, anthropic, ...)
	Provider string
	// Timeout for outbound HTTP calls
	Timeout time.Duration
	// MaxTokens default completion budget
	MaxTokens int
}

// CompletionRequest is a single prompt-in/text-out request.
type CompletionRequest struct {
	Prompt      string
	AgentID     string
	MaxTokens   int
	Temperature float64
	// Purpose labels the call for metrics and rate limiting
	// (classify, synthesize).
	Purpose string
}

// CompletionResponse carries the generated text and usage accounting.
type CompletionResponse struct {
	Text       string `json:"response"`
	TokensUsed int    `json:"tokens_used"`
	ModelUsed  string `json:"model_used"`
}
