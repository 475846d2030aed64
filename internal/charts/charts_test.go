package charts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestDetectKind(t *testing.T) {
	cases := []struct {
		query string
		want  Kind
	}{
		{"Create a bar chart showing quarterly revenue from Q1 to Q4", KindBar},
		{"plot a LINE chart of daily active users", KindLine},
		{"pie chart of market share", KindPie},
		{"make me a doughnut chart", KindDoughnut},
		{"visualize the revenue", KindBar},
		{"", KindBar},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, DetectKind(tc.query), "query: %s", tc.query)
	}
}

func TestGenerateSpec(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "bar", req["chart_type"])
		assert.Contains(t, req["description"], "revenue")

		w.Write([]byte(`{"config":{"type":"bar","data":{"labels":["Q1","Q2"]}}}`))
	}))
	defer srv.Close()

	g := NewGenerator(Config{BaseURL: srv.URL}, zaptest.NewLogger(t))
	spec, err := g.GenerateSpec(context.Background(), KindBar, "quarterly revenue")
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(spec, &decoded))
	assert.Equal(t, "bar", decoded["type"])
}

func TestGenerateSpecError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "generator exploded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	g := NewGenerator(Config{BaseURL: srv.URL}, zaptest.NewLogger(t))
	_, err := g.GenerateSpec(context.Background(), KindPie, "anything")
	require.Error(t, err)
}
