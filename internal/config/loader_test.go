package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "features.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
observability:
  metrics:
    enabled: true
    port: 9090
  logging:
    level: debug
services:
  llm_service_url: http://localhost:8000
vectordb:
  enabled: true
  host: localhost
  top_k: 5
  threshold: 0.7
temporal:
  task_queue: custom-queue
`)

	f, err := LoadFile(path)
	require.NoError(t, err)

	assert.True(t, f.Observability.Metrics.Enabled)
	assert.Equal(t, 9090, f.Observability.Metrics.Port)
	assert.Equal(t, "debug", f.Observability.Logging.Level)
	assert.Equal(t, "http://localhost:8000", f.Services.LLMServiceURL)
	assert.True(t, f.VectorDB.Enabled)
	assert.Equal(t, 5, f.VectorDB.TopK)
	assert.InDelta(t, 0.7, f.VectorDB.Threshold, 1e-9)
	assert.Equal(t, "custom-queue", f.Temporal.TaskQueue)

	// defaults fill the gaps
	assert.Equal(t, "document_chunks", f.VectorDB.DocumentChunks)
	assert.Equal(t, "text-embedding-3-small", f.Embeddings.DefaultModel)
	assert.Equal(t, 256, f.Streaming.RingCapacity)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestDefault(t *testing.T) {
	f := Default()
	assert.Equal(t, 3, f.VectorDB.TopK)
	assert.Equal(t, 5*time.Second, f.VectorDBTimeout())
	assert.Equal(t, time.Hour, f.EmbeddingCacheTTL())
	assert.Equal(t, "assistant-queue", f.Temporal.TaskQueue)
}

func TestWatcher_ReloadOnChange(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "vectordb:\n  top_k: 3\n")

	w, err := NewWatcher(path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Stop() })

	reloaded := make(chan *Features, 1)
	w.OnChange(func(f *Features) {
		select {
		case reloaded <- f:
		default:
		}
	})
	require.NoError(t, w.Start())

	time.Sleep(50 * time.Millisecond)
	writeConfig(t, dir, "vectordb:\n  top_k: 7\n")

	select {
	case f := <-reloaded:
		assert.Equal(t, 7, f.VectorDB.TopK)
	case <-time.After(3 * time.Second):
		t.Fatal("config change was not observed")
	}
}

func TestWatcher_BadReloadKeepsRunning(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "vectordb:\n  top_k: 3\n")

	w, err := NewWatcher(path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Stop() })

	reloaded := make(chan *Features, 2)
	w.OnChange(func(f *Features) { reloaded <- f })
	require.NoError(t, w.Start())

	time.Sleep(50 * time.Millisecond)
	writeConfig(t, dir, ":\tnot yaml {{{")
	time.Sleep(400 * time.Millisecond)

	// invalid write produced no handler call; a valid write still does
	writeConfig(t, dir, "vectordb:\n  top_k: 9\n")
	select {
	case f := <-reloaded:
		assert.Equal(t, 9, f.VectorDB.TopK)
	case <-time.After(3 * time.Second):
		t.Fatal("watcher stopped after invalid config")
	}
}
