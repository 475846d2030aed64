package health

import (
	"fmt"
	"net/http"
	"time"

	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fathomdata/fathom/go/orchestrator/internal/circuitbreaker"
)

// RedisHealthChecker checks Redis connectivity
type RedisHealthChecker struct {
	client  redis.UniversalClient
	wrapper *circuitbreaker.RedisWrapper
	logger  *zap.Logger
	timeout time.Duration
}

// NewRedisHealthChecker creates a Redis health checker
func NewRedisHealthChecker(client redis.UniversalClient, wrapper *circuitbreaker.RedisWrapper, logger *zap.Logger) *RedisHealthChecker {
	return &RedisHealthChecker{
		client:  client,
		wrapper: wrapper,
		logger:  logger,
		timeout: 5 * time.Second,
	}
}

func (r *RedisHealthChecker) Name() string           { return "redis" }
func (r *RedisHealthChecker) IsCritical() bool       { return false }
func (r *RedisHealthChecker) Timeout() time.Duration { return r.timeout }

func (r *RedisHealthChecker) Check(ctx context.Context) CheckResult {
	startTime := time.Now()
	result := CheckResult{
		Component: "redis",
		Critical:  false,
		Timestamp: startTime,
	}

	if r.wrapper != nil && r.wrapper.IsCircuitBreakerOpen() {
		result.Status = StatusUnhealthy
		result.Error = "circuit breaker open"
		result.Message = "Redis circuit breaker is open"
		result.Duration = time.Since(startTime)
		return result
	}

	err := r.client.Ping(ctx).Err()
	result.Duration = time.Since(startTime)

	if err != nil {
		result.Status = StatusUnhealthy
		result.Error = err.Error()
		result.Message = "Redis ping failed"
		return result
	}

	if result.Duration > 100*time.Millisecond {
		result.Status = StatusDegraded
		result.Message = "Redis responding but with high latency"
	} else {
		result.Status = StatusHealthy
		result.Message = "Redis healthy"
	}
	result.Details = map[string]interface{}{
		"latency_ms": result.Duration.Milliseconds(),
	}
	return result
}

// HTTPServiceHealthChecker checks a collaborator over HTTP (LLM service,
// chart service, Qdrant). The probe is a GET against the given URL; any
// 2xx or 3xx response counts as up.
type HTTPServiceHealthChecker struct {
	name     string
	url      string
	critical bool
	client   *http.Client
	timeout  time.Duration
}

// NewHTTPServiceHealthChecker creates an HTTP collaborator health checker
func NewHTTPServiceHealthChecker(name, url string, critical bool) *HTTPServiceHealthChecker {
	timeout := 5 * time.Second
	return &HTTPServiceHealthChecker{
		name:     name,
		url:      url,
		critical: critical,
		client:   &http.Client{Timeout: timeout},
		timeout:  timeout,
	}
}

func (c *HTTPServiceHealthChecker) Name() string           { return c.name }
func (c *HTTPServiceHealthChecker) IsCritical() bool       { return c.critical }
func (c *HTTPServiceHealthChecker) Timeout() time.Duration { return c.timeout }

func (c *HTTPServiceHealthChecker) Check(ctx context.Context) CheckResult {
	startTime := time.Now()
	result := CheckResult{
		Component: c.name,
		Critical:  c.critical,
		Timestamp: startTime,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		result.Status = StatusUnhealthy
		result.Error = err.Error()
		result.Duration = time.Since(startTime)
		return result
	}
	resp, err := c.client.Do(req)
	result.Duration = time.Since(startTime)
	if err != nil {
		result.Status = StatusUnhealthy
		result.Error = err.Error()
		result.Message = fmt.Sprintf("%s unreachable", c.name)
		return result
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		result.Status = StatusUnhealthy
		result.Message = fmt.Sprintf("%s returned status %d", c.name, resp.StatusCode)
		return result
	}
	if result.Duration > 500*time.Millisecond {
		result.Status = StatusDegraded
		result.Message = fmt.Sprintf("%s responding but with high latency", c.name)
	} else {
		result.Status = StatusHealthy
		result.Message = fmt.Sprintf("%s healthy", c.name)
	}
	result.Details = map[string]interface{}{
		"latency_ms":  result.Duration.Milliseconds(),
		"status_code": resp.StatusCode,
	}
	return result
}
