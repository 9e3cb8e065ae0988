package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewServer_Defaults(t *testing.T) {
	s := NewServer(ServerConfig{})
	assert.Equal(t, ":9090", s.Addr())
}

func TestNewServer_MetricsDisabled(t *testing.T) {
	// No test in this package initializes the global registry.
	s := NewServer(ServerConfig{Listen: "127.0.0.1:0"})

	rec := httptest.NewRecorder()
	s.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "disabled")
}
