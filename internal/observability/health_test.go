package observability

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHealthzAlwaysOK(t *testing.T) {
	hs := NewHealthServer(":0", nil, nil, zap.NewNop())

	rec := httptest.NewRecorder()
	hs.handleHealthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzFollowsReadiness(t *testing.T) {
	ready := false
	hs := NewHealthServer(":0", func() bool { return ready }, nil, zap.NewNop())

	rec := httptest.NewRecorder()
	hs.handleReadyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	ready = true
	rec = httptest.NewRecorder()
	hs.handleReadyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStatuszReturnsSnapshot(t *testing.T) {
	hs := NewHealthServer(":0", nil, func() map[string]any {
		return map[string]any{"symbols": 3}
	}, zap.NewNop())

	rec := httptest.NewRecorder()
	hs.handleStatusz(rec, httptest.NewRequest(http.MethodGet, "/statusz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var snapshot map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snapshot))
	assert.Equal(t, float64(3), snapshot["symbols"])
}
