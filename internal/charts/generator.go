// Package charts is the HTTP client for the external chart-spec generator.
// The generated spec is opaque to the orchestrator; only kind and description
// are interpreted here.
package charts

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

	"github.com/fathomdata/fathom/go/orchestrator/internal/circuitbreaker"
	"github.com/fathomdata/fathom/go/orchestrator/internal/interceptors"
	ometrics "github.com/fathomdata/fathom/go/orchestrator/internal/metrics"
	"github.com/fathomdata/fathom/go/orchestrator/internal/tracing"
)

// Config controls the chart generator client.
type Config struct {
	// BaseURL points to the chart generator service
	BaseURL string
	// Timeout for outbound HTTP calls
	Timeout time.Duration
}

// Spec is the opaque chart configuration produced by the generator.
type Spec = json.RawMessage

// Generator talks to the chart generator service over HTTP.
type Generator struct {
	cfg   Config
	httpw *circuitbreaker.HTTPWrapper
	log   *zap.Logger
}

// NewGenerator creates a chart generator client.
func NewGenerator(cfg Config, logger *zap.Logger) *Generator {
	if cfg.BaseURL == "" {
		cfg.BaseURL = os.Getenv("CHART_SERVICE_URL")
		if cfg.BaseURL == "" {
			cfg.BaseURL = "http://chart-service:8300"
		}
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	httpClient := &http.Client{
		Timeout:   cfg.Timeout,
		Transport: interceptors.NewWorkflowHTTPRoundTripper(nil),
	}
	httpw := circuitbreaker.NewHTTPWrapper(httpClient, "charts", "chart-service", logger)

	return &Generator{cfg: cfg, httpw: httpw, log: logger}
}

type generateRequest struct {
	ChartType   string `json:"chart_type"`
	Description string `json:"description"`
}

type generateResponse struct {
	Config json.RawMessage `json:"config"`
}

// GenerateSpec asks the generator for a chart spec of the given kind built
// from the description text.
func (g *Generator) GenerateSpec(ctx context.Context, kind Kind, description string) (Spec, error) {
	if g == nil {
		return nil, fmt.Errorf("chart generator not initialized")
	}
	start := time.Now()

	url := fmt.Sprintf("%s/charts/generate", g.cfg.BaseURL)
	ctx, span := tracing.StartHTTPSpan(ctx, "POST", url)
	defer span.End()

	buf, _ := json.Marshal(generateRequest{ChartType: string(kind), Description: description})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	tracing.InjectTraceparent(ctx, req)

	resp, err := g.httpw.Do(req)
	if err != nil {
		ometrics.ChartGenerations.WithLabelValues(string(kind), "error").Inc()
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		ometrics.ChartGenerations.WithLabelValues(string(kind), "error").Inc()
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("chart service status %d: %s", resp.StatusCode, string(b))
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		ometrics.ChartGenerations.WithLabelValues(string(kind), "error").Inc()
		return nil, err
	}
	if len(out.Config) == 0 {
		ometrics.ChartGenerations.WithLabelValues(string(kind), "empty").Inc()
		return nil, fmt.Errorf("chart service returned empty spec")
	}

	ometrics.ChartGenerations.WithLabelValues(string(kind), "ok").Inc()
	g.log.Debug("Chart spec generated",
		zap.String("kind", string(kind)),
		zap.Duration("duration", time.Since(start)),
	)
	return Spec(out.Config), nil
}
