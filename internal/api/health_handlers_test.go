package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthCheck_Success(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)

	health := decode[HealthResponse](t, resp.Body.Bytes()).Data
	assert.Equal(t, statusHealthy, health.Status)
	require.Contains(t, health.Components, "database")
	assert.Equal(t, statusHealthy, health.Components["database"].Status)
	assert.NotEmpty(t, health.Components["database"].Latency)
}

func TestHealthCheck_ClosedDatabase(t *testing.T) {
	ts := setupTestServer(t)
	require.NoError(t, ts.store.Close())

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)

	health := decode[HealthResponse](t, resp.Body.Bytes()).Data
	assert.Equal(t, statusUnhealthy, health.Status)
	assert.Equal(t, "database ping failed", health.Components["database"].Message)
}
