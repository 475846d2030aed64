// Package vectordb is a minimal Qdrant HTTP client scoped to the
// document_chunks collection. Every read path carries a mandatory
// tenant filter; there is no unscoped retrieval.
package vectordb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/fathomdata/fathom/go/orchestrator/internal/circuitbreaker"
	"github.com/fathomdata/fathom/go/orchestrator/internal/interceptors"
	ometrics "github.com/fathomdata/fathom/go/orchestrator/internal/metrics"
	"github.com/fathomdata/fathom/go/orchestrator/internal/references"
	"github.com/fathomdata/fathom/go/orchestrator/internal/tracing"
)

// Client is a minimal Qdrant HTTP client
type Client struct {
	cfg   Config
	http  *http.Client
	base  string
	httpw *circuitbreaker.HTTPWrapper
	log   *zap.Logger
}

// NewClient creates a Qdrant client from config
func NewClient(cfg Config, logger *zap.Logger) *Client {
	c := cfg
	if c.Port == 0 {
		c.Port = 6333
	}
	if c.TopK == 0 {
		c.TopK = 3
	}
	if c.Timeout == 0 {
		c.Timeout = 5 * time.Second
	}
	if c.DocumentChunks == "" {
		c.DocumentChunks = "document_chunks"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	httpClient := &http.Client{
		Timeout:   c.Timeout,
		Transport: interceptors.NewWorkflowHTTPRoundTripper(nil),
	}
	httpw := circuitbreaker.NewHTTPWrapper(httpClient, "qdrant", "vectordb", logger)
	return &Client{cfg: c, http: httpClient, base: fmt.Sprintf("http://%s:%d", c.Host, c.Port), httpw: httpw, log: logger}
}

// GetConfig returns the current configuration
func (c *Client) GetConfig() Config {
	if c == nil {
		return Config{DocumentChunks: "document_chunks", TopK: 3}
	}
	return c.cfg
}

// qdrant search request/response (simplified)
type qdrantQueryRequest struct {
	Query          []float32              `json:"query"`
	Limit          int                    `json:"limit"`
	ScoreThreshold *float64               `json:"score_threshold,omitempty"`
	WithPayload    bool                   `json:"with_payload"`
	Filter         map[string]interface{} `json:"filter,omitempty"`
}

type qdrantPoint struct {
	ID      interface{}            `json:"id"`
	Score   float64                `json:"score"`
	Payload map[string]interface{} `json:"payload"`
}

type qdrantSearchResponse struct {
	Result []qdrantPoint `json:"result"`
	Status string        `json:"status"`
}

// qdrantQueryResponse for the /points/query endpoint which has nested structure
type qdrantQueryResponse struct {
	Result struct {
		Points []qdrantPoint `json:"points"`
	} `json:"result"`
	Status string `json:"status"`
}

func tenantFilter(tenantID string) map[string]interface{} {
	return map[string]interface{}{
		"must": []map[string]interface{}{
			{"key": "tenant_id", "match": map[string]interface{}{"value": tenantID}},
		},
	}
}

func (c *Client) search(ctx context.Context, collection string, vec []float32, limit int, threshold float64, filter map[string]interface{}) ([]qdrantPoint, error) {
	if c == nil || !c.cfg.Enabled {
		return nil, fmt.Errorf("vectordb: search called while disabled")
	}
	start := time.Now()

	ctx, span := tracing.StartHTTPSpan(ctx, "POST", fmt.Sprintf("%s/collections/%s/points/query", c.base, collection))
	defer span.End()

	// Prefer modern /points/query; on failure, fallback to /points/search for compatibility
	var thr *float64
	if threshold > 0 {
		thr = &threshold
	}
	reqBody := qdrantQueryRequest{Query: vec, Limit: limit, ScoreThreshold: thr, WithPayload: true, Filter: filter}
	buf, _ := json.Marshal(reqBody)

	call := func(url string, body []byte) (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		tracing.InjectTraceparent(ctx, req)
		return c.httpw.Do(req)
	}

	urlQuery := fmt.Sprintf("%s/collections/%s/points/query", c.base, collection)
	resp, err := call(urlQuery, buf)
	if err != nil {
		ometrics.RecordVectorSearchMetrics(collection, "error", time.Since(start).Seconds())
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		// fallback to /points/search
		urlSearch := fmt.Sprintf("%s/collections/%s/points/search", c.base, collection)
		legacy := map[string]interface{}{"vector": vec, "limit": limit, "with_payload": true}
		if threshold > 0 {
			legacy["score_threshold"] = threshold
		}
		if filter != nil {
			legacy["filter"] = filter
		}
		buf2, _ := json.Marshal(legacy)
		resp2, err2 := call(urlSearch, buf2)
		if err2 != nil {
			ometrics.RecordVectorSearchMetrics(collection, "error", time.Since(start).Seconds())
			return nil, fmt.Errorf("qdrant query/search failed: %w", err2)
		}
		defer resp2.Body.Close()
		if resp2.StatusCode != http.StatusOK {
			ometrics.RecordVectorSearchMetrics(collection, "error", time.Since(start).Seconds())
			return nil, fmt.Errorf("qdrant status %d", resp2.StatusCode)
		}
		var qr qdrantSearchResponse
		if err := json.NewDecoder(resp2.Body).Decode(&qr); err != nil {
			ometrics.RecordVectorSearchMetrics(collection, "error", time.Since(start).Seconds())
			return nil, err
		}
		ometrics.RecordVectorSearchMetrics(collection, "ok", time.Since(start).Seconds())
		return qr.Result, nil
	}
	var qr qdrantQueryResponse
	if err := json.NewDecoder(resp.Body).Decode(&qr); err != nil {
		ometrics.RecordVectorSearchMetrics(collection, "error", time.Since(start).Seconds())
		return nil, err
	}
	ometrics.RecordVectorSearchMetrics(collection, "ok", time.Since(start).Seconds())
	return qr.Result.Points, nil
}

// Search performs a tenant-scoped semantic search over document chunks.
// tenantID must be non-empty; the filter is applied on every request.
func (c *Client) Search(ctx context.Context, embedding []float32, tenantID string, limit int) ([]references.Hit, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("vectordb: tenant id required")
	}
	if limit <= 0 {
		limit = c.cfg.TopK
	}
	pts, err := c.search(ctx, c.cfg.DocumentChunks, embedding, limit, c.cfg.Threshold, tenantFilter(tenantID))
	if err != nil {
		return nil, err
	}
	return pointsToHits(pts), nil
}

// ListRecent returns document chunks for a tenant without semantic ranking.
// Used as a degraded retrieval path when embedding generation is unavailable.
func (c *Client) ListRecent(ctx context.Context, tenantID string, limit int) ([]references.Hit, error) {
	if c == nil || !c.cfg.Enabled {
		return nil, fmt.Errorf("vectordb: scroll called while disabled")
	}
	if tenantID == "" {
		return nil, fmt.Errorf("vectordb: tenant id required")
	}
	if limit <= 0 {
		limit = c.cfg.TopK
	}
	url := fmt.Sprintf("%s/collections/%s/points/scroll", c.base, c.cfg.DocumentChunks)

	ctx, span := tracing.StartHTTPSpan(ctx, "POST", url)
	defer span.End()

	body := map[string]interface{}{
		"limit":        limit,
		"with_payload": true,
		"filter":       tenantFilter(tenantID),
	}
	buf, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	tracing.InjectTraceparent(ctx, req)
	resp, err := c.httpw.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("qdrant scroll status %d", resp.StatusCode)
	}
	var r struct {
		Result struct {
			Points []qdrantPoint `json:"points"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return nil, err
	}
	return pointsToHits(r.Result.Points), nil
}

func pointsToHits(pts []qdrantPoint) []references.Hit {
	hits := make([]references.Hit, 0, len(pts))
	for _, p := range pts {
		h := references.Hit{}
		if s, ok := p.Payload["source"].(string); ok {
			h.Source = s
		}
		if t, ok := p.Payload["text"].(string); ok {
			h.Text = t
		}
		h.Pages = payloadPages(p.Payload["pages"])
		hits = append(hits, h)
	}
	return hits
}

// payloadPages normalizes the pages payload field. Qdrant returns JSON
// numbers as float64, so both ["3","8"] and [3, 8] are accepted.
func payloadPages(v interface{}) []string {
	raw, ok := v.([]interface{})
	if !ok {
		return nil
	}
	pages := make([]string, 0, len(raw))
	for _, p := range raw {
		switch t := p.(type) {
		case string:
			pages = append(pages, t)
		case float64:
			pages = append(pages, fmt.Sprintf("%d", int64(t)))
		}
	}
	sort.Strings(pages)
	return pages
}
