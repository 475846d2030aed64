package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fathomdata/fathom/go/orchestrator/internal/streaming"
)

// Registers every handler on one mux the way the service bootstrap does.
// ServeMux panics on a duplicate pattern, so overlapping registration
// between RegisterRoutes calls fails this test outright.
func TestAllHandlersShareOneMux(t *testing.T) {
	mux := http.NewServeMux()

	NewStreamingHandler(streaming.Get(), nil).RegisterRoutes(mux)
	NewRunsHandler(&fakeStarter{}, "test-queue", nil).RegisterRoutes(mux)

	for _, path := range []string{"/stream/sse", "/stream/ws", "/runs"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		_, pattern := mux.Handler(req)
		assert.NotEmpty(t, pattern, "no handler registered for %s", path)
	}
}
