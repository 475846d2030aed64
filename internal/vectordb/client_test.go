package vectordb

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	host, portStr, err := net.SplitHostPort(srv.Listener.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return NewClient(Config{Enabled: true, Host: host, Port: port}, nil)
}

func TestSearch_TenantFilterApplied(t *testing.T) {
	var gotFilter map[string]interface{}
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/collections/document_chunks/points/query", r.URL.Path)
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotFilter, _ = body["filter"].(map[string]interface{})
		json.NewEncoder(w).Encode(map[string]interface{}{
			"result": map[string]interface{}{
				"points": []map[string]interface{}{
					{"id": "p1", "score": 0.91, "payload": map[string]interface{}{
						"source": "handbook.pdf", "text": "The limit is 5.", "pages": []interface{}{"3", "8"},
					}},
				},
			},
			"status": "ok",
		})
	}))

	hits, err := c.Search(context.Background(), []float32{0.1, 0.2}, "tenant-a", 3)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "handbook.pdf", hits[0].Source)
	assert.Equal(t, "The limit is 5.", hits[0].Text)
	assert.Equal(t, []string{"3", "8"}, hits[0].Pages)

	require.NotNil(t, gotFilter)
	must, _ := gotFilter["must"].([]interface{})
	require.Len(t, must, 1)
	clause := must[0].(map[string]interface{})
	assert.Equal(t, "tenant_id", clause["key"])
}

func TestSearch_MissingTenant(t *testing.T) {
	c := NewClient(Config{Enabled: true, Host: "localhost"}, nil)
	_, err := c.Search(context.Background(), []float32{0.1}, "", 3)
	assert.Error(t, err)
}

func TestSearch_NumericPages(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"result": map[string]interface{}{
				"points": []map[string]interface{}{
					{"id": 1, "score": 0.8, "payload": map[string]interface{}{
						"source": "doc.pdf", "text": "x", "pages": []interface{}{float64(12), float64(3)},
					}},
				},
			},
		})
	}))
	hits, err := c.Search(context.Background(), []float32{0.1}, "t", 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"12", "3"}, hits[0].Pages)
}

func TestSearch_LegacyFallback(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/collections/document_chunks/points/query" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		assert.Equal(t, "/collections/document_chunks/points/search", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"result": []map[string]interface{}{
				{"id": "p1", "score": 0.7, "payload": map[string]interface{}{"source": "a.pdf", "text": "legacy"}},
			},
		})
	}))
	hits, err := c.Search(context.Background(), []float32{0.1}, "t", 3)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "legacy", hits[0].Text)
}

func TestListRecent(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/collections/document_chunks/points/scroll", r.URL.Path)
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.NotNil(t, body["filter"], "scroll must carry the tenant filter")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"result": map[string]interface{}{
				"points": []map[string]interface{}{
					{"id": "p1", "payload": map[string]interface{}{"source": "b.pdf", "text": "recent", "pages": []interface{}{"1"}}},
				},
			},
		})
	}))
	hits, err := c.ListRecent(context.Background(), "tenant-a", 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "b.pdf", hits[0].Source)
}

func TestClientDisabled(t *testing.T) {
	c := NewClient(Config{Enabled: false}, nil)
	_, err := c.Search(context.Background(), []float32{0.1, 0.2}, "tenant-a", 3)
	assert.Error(t, err)
	_, err = c.ListRecent(context.Background(), "tenant-a", 3)
	assert.Error(t, err)
}
