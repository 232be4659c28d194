package daemon

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nomadcxx/parsevideo/internal/api"
	"github.com/Nomadcxx/parsevideo/internal/database"
	"github.com/Nomadcxx/parsevideo/internal/scanner"
	"github.com/Nomadcxx/parsevideo/internal/watcher"
)

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestServerHealth(t *testing.T) {
	server := NewServer(":0", nil, nil, nil, nil)

	w := get(t, server.Handler(), "/healthz")
	require.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Nil(t, resp.ScannerStatus)
}

func TestServerHealthUnhealthy(t *testing.T) {
	server := NewServer(":0", nil, nil, nil, nil)
	server.SetHealthy(false)

	w := get(t, server.Handler(), "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp HealthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "unhealthy", resp.Status)

	w = get(t, server.Handler(), "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "not ready", w.Body.String())
}

func TestServerReady(t *testing.T) {
	server := NewServer(":0", nil, nil, nil, nil)

	w := get(t, server.Handler(), "/ready")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ready", w.Body.String())
}

func TestServerMetrics(t *testing.T) {
	db, err := database.OpenPath(filepath.Join(t.TempDir(), "metrics.db"))
	require.NoError(t, err)
	defer db.Close()

	root := t.TempDir()
	s := scanner.New(db, nil, nil, scanner.Options{Extensions: []string{"mkv"}})
	handler := scanner.NewWatchHandler(s, []string{root})
	require.NoError(t, handler.HandleFileEvent(watcher.FileEvent{Type: watcher.EventDelete, Path: filepath.Join(root, "gone.mkv")}))

	server := NewServer(":0", nil, nil, handler, nil)
	w := get(t, server.Handler(), "/metrics")
	require.Equal(t, http.StatusOK, w.Code)

	var resp MetricsResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, int64(1), resp.FilesRemoved)
	assert.Zero(t, resp.FilesParsed)
	assert.NotEmpty(t, resp.LastEvent)
}

func TestServerMountsAPI(t *testing.T) {
	server := NewServer(":0", api.NewServer(api.Options{}).Handler(), nil, nil, nil)

	w := get(t, server.Handler(), "/api/v1/roman/XIV")
	require.Equal(t, http.StatusOK, w.Code)

	var resp api.RomanResult
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, 14, resp.Value)
}
