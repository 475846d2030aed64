// Package llm is the HTTP client for the natural-language service used by the
// router's primary classifier and the answer synthesizer. The service may time
// out, hit quota, or return malformed output; callers own the fallback.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fathomdata/fathom/go/orchestrator/internal/circuitbreaker"
	"github.com/fathomdata/fathom/go/orchestrator/internal/interceptors"
	ometrics "github.com/fathomdata/fathom/go/orchestrator/internal/metrics"
	"github.com/fathomdata/fathom/go/orchestrator/internal/ratecontrol"
	"github.com/fathomdata/fathom/go/orchestrator/internal/tracing"
)

// Client talks to the LLM sidecar service over HTTP.
type Client struct {
	cfg     Config
	httpw   *circuitbreaker.HTTPWrapper
	limiter *rate.Limiter
	log     *zap.Logger
}

// NewClient creates a client with circuit breaker and provider rate limiting.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = os.Getenv("LLM_SERVICE_URL")
		if cfg.BaseURL == "" {
			cfg.BaseURL = "http://llm-service:8000"
		}
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 2048
	}
	if cfg.Provider == "" {
		cfg.Provider = "unknown"
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	httpClient := &http.Client{
		Timeout:   cfg.Timeout,
		Transport: interceptors.NewWorkflowHTTPRoundTripper(nil),
	}
	httpw := circuitbreaker.NewHTTPWrapper(httpClient, "llm", "llm-service", logger)

	limiter := rate.NewLimiter(rate.Inf, 1)
	if limit := ratecontrol.LimitForProvider(cfg.Provider); limit.RPM > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(limit.RPM)/60.0), limit.RPM)
	}

	return &Client{cfg: cfg, httpw: httpw, limiter: limiter, log: logger}
}

type completionRequestBody struct {
	Query       string  `json:"query"`
	AgentID     string  `json:"agent_id,omitempty"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

// Complete sends one prompt to the LLM service and returns the generated text.
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if c == nil {
		return nil, fmt.Errorf("llm client not initialized")
	}
	purpose := req.Purpose
	if purpose == "" {
		purpose = "generate"
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	if delay := ratecontrol.DelayForRequest(c.cfg.Provider, purpose, req.MaxTokens); delay > 0 {
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	start := time.Now()

	url := fmt.Sprintf("%s/agent/query", c.cfg.BaseURL)
	ctx, span := tracing.StartHTTPSpan(ctx, "POST", url)
	defer span.End()

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.cfg.MaxTokens
	}
	body := completionRequestBody{
		Query:       req.Prompt,
		AgentID:     req.AgentID,
		MaxTokens:   maxTokens,
		Temperature: req.Temperature,
	}
	buf, _ := json.Marshal(body)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	tracing.InjectTraceparent(ctx, httpReq)

	resp, err := c.httpw.Do(httpReq)
	if err != nil {
		ometrics.RecordLLMMetrics(purpose, "error", time.Since(start).Seconds())
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		ometrics.RecordLLMMetrics(purpose, "error", time.Since(start).Seconds())
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("llm service status %d: %s", resp.StatusCode, string(b))
	}

	var out CompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		ometrics.RecordLLMMetrics(purpose, "error", time.Since(start).Seconds())
		return nil, err
	}
	if out.Text == "" {
		ometrics.RecordLLMMetrics(purpose, "empty", time.Since(start).Seconds())
		return nil, fmt.Errorf("llm service returned empty response")
	}
	ometrics.RecordLLMMetrics(purpose, "ok", time.Since(start).Seconds())
	return &out, nil
}
