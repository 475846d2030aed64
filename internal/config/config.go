// Package config loads the service configuration file (features.yaml) and
// watches it for changes.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type ObservabilityConfig struct {
	Metrics struct {
		Enabled bool `mapstructure:"enabled"`
		Port    int  `mapstructure:"port"`
	} `mapstructure:"metrics"`
	Logging struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"logging"`
	Tracing struct {
		Enabled      bool   `mapstructure:"enabled"`
		OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	} `mapstructure:"tracing"`
}

// ServicesConfig holds the external collaborator endpoints
type ServicesConfig struct {
	LLMServiceURL   string `mapstructure:"llm_service_url"`
	ChartServiceURL string `mapstructure:"chart_service_url"`
	RedisAddr       string `mapstructure:"redis_addr"`
}

type VectorDBConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	Host           string  `mapstructure:"host"`
	Port           int     `mapstructure:"port"`
	DocumentChunks string  `mapstructure:"document_chunks"`
	TopK           int     `mapstructure:"top_k"`
	Threshold      float64 `mapstructure:"threshold"`
	TimeoutMs      int     `mapstructure:"timeout_ms"`
}

type EmbeddingsConfig struct {
	DefaultModel string `mapstructure:"default_model"`
	CacheTTLSec  int    `mapstructure:"cache_ttl_sec"`
	MaxLRU       int    `mapstructure:"max_lru"`
	EnableRedis  bool   `mapstructure:"enable_redis"`
}

type StreamingConfig struct {
	RingCapacity int `mapstructure:"ring_capacity"`
}

type TemporalConfig struct {
	HostPort  string `mapstructure:"host_port"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
}

type Features struct {
	Observability ObservabilityConfig `mapstructure:"observability"`
	Services      ServicesConfig      `mapstructure:"services"`
	VectorDB      VectorDBConfig      `mapstructure:"vectordb"`
	Embeddings    EmbeddingsConfig    `mapstructure:"embeddings"`
	Streaming     StreamingConfig     `mapstructure:"streaming"`
	Temporal      TemporalConfig      `mapstructure:"temporal"`
}

// Load loads features.yaml from CONFIG_PATH or /app/config/features.yaml
func Load() (*Features, error) {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "/app/config/features.yaml"
	}
	return LoadFile(cfgPath)
}

// LoadFile loads a features config from an explicit path
func LoadFile(path string) (*Features, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var f Features
	if err := v.Unmarshal(&f); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	f.applyDefaults()
	return &f, nil
}

// Default returns a config with defaults applied, for running without a file
func Default() *Features {
	f := &Features{}
	f.applyDefaults()
	return f
}

func (f *Features) applyDefaults() {
	if f.Services.LLMServiceURL == "" {
		f.Services.LLMServiceURL = envOr("LLM_SERVICE_URL", "http://llm-service:8000")
	}
	if f.Services.ChartServiceURL == "" {
		f.Services.ChartServiceURL = envOr("CHART_SERVICE_URL", "http://chart-service:8300")
	}
	if f.Services.RedisAddr == "" {
		f.Services.RedisAddr = envOr("REDIS_ADDR", "redis:6379")
	}
	if f.VectorDB.Host == "" {
		f.VectorDB.Host = envOr("QDRANT_HOST", "qdrant")
	}
	if f.VectorDB.Port == 0 {
		f.VectorDB.Port = 6333
	}
	if f.VectorDB.DocumentChunks == "" {
		f.VectorDB.DocumentChunks = "document_chunks"
	}
	if f.VectorDB.TopK == 0 {
		f.VectorDB.TopK = 3
	}
	if f.VectorDB.TimeoutMs == 0 {
		f.VectorDB.TimeoutMs = 5000
	}
	if f.Embeddings.DefaultModel == "" {
		f.Embeddings.DefaultModel = "text-embedding-3-small"
	}
	if f.Embeddings.CacheTTLSec == 0 {
		f.Embeddings.CacheTTLSec = 3600
	}
	if f.Embeddings.MaxLRU == 0 {
		f.Embeddings.MaxLRU = 2048
	}
	if f.Streaming.RingCapacity == 0 {
		f.Streaming.RingCapacity = 256
	}
	if f.Temporal.HostPort == "" {
		f.Temporal.HostPort = envOr("TEMPORAL_HOST_PORT", "temporal:7233")
	}
	if f.Temporal.Namespace == "" {
		f.Temporal.Namespace = envOr("TEMPORAL_NAMESPACE", "default")
	}
	if f.Temporal.TaskQueue == "" {
		f.Temporal.TaskQueue = envOr("TEMPORAL_TASK_QUEUE", "assistant-queue")
	}
	if f.Observability.Logging.Level == "" {
		f.Observability.Logging.Level = "info"
	}
	if f.Observability.Metrics.Port == 0 {
		f.Observability.Metrics.Port = 2112
	}
}

// VectorDBTimeout returns the vectordb timeout as a duration
func (f *Features) VectorDBTimeout() time.Duration {
	return time.Duration(f.VectorDB.TimeoutMs) * time.Millisecond
}

// EmbeddingCacheTTL returns the embedding cache TTL as a duration
func (f *Features) EmbeddingCacheTTL() time.Duration {
	return time.Duration(f.Embeddings.CacheTTLSec) * time.Second
}

// MetricsPort returns port from config or an env override METRICS_PORT
func (f *Features) MetricsPort() int {
	if p := os.Getenv("METRICS_PORT"); p != "" {
		var v int
		_, _ = fmt.Sscanf(p, "%d", &v)
		if v > 0 {
			return v
		}
	}
	return f.Observability.Metrics.Port
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
