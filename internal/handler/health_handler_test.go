package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prohmpiriya/seat-reservation/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChecker struct{ err error }

func (f fakeChecker) HealthCheck(ctx context.Context) error { return f.err }

type fakeOutboxStats struct {
	repository.OutboxRepository
	stats *repository.OutboxStats
	err   error
}

func (f *fakeOutboxStats) Stats(ctx context.Context) (*repository.OutboxStats, error) {
	return f.stats, f.err
}

func serve(h gin.HandlerFunc) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/", h)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	return w
}

func TestHealthHandler_Health(t *testing.T) {
	w := serve(NewHealthHandler(nil, nil, nil, nil).Health)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"healthy"`)
}

func TestHealthHandler_Ready(t *testing.T) {
	tests := []struct {
		name       string
		db         HealthChecker
		redis      HealthChecker
		wantStatus int
		wantState  string
		wantRedis  string
	}{
		{"all healthy", fakeChecker{}, fakeChecker{}, http.StatusOK, "ready", "healthy"},
		{"redis disabled", fakeChecker{}, nil, http.StatusOK, "ready", "not configured"},
		{"database down", fakeChecker{err: errors.New("refused")}, fakeChecker{}, http.StatusServiceUnavailable, "not ready", "healthy"},
		{"redis down", fakeChecker{}, fakeChecker{err: errors.New("refused")}, http.StatusServiceUnavailable, "not ready", "unhealthy: refused"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(NewHealthHandler(tt.db, tt.redis, nil, nil).Ready)
			assert.Equal(t, tt.wantStatus, w.Code)

			var resp ReadyResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantState, resp.Status)
			assert.Equal(t, tt.wantRedis, resp.Components["redis"])
		})
	}
}

func TestHealthHandler_Metrics(t *testing.T) {
	outbox := &fakeOutboxStats{stats: &repository.OutboxStats{Pending: 3, Failed: 1}}
	w := serve(NewHealthHandler(nil, nil, nil, outbox).Metrics)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp MetricsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Nil(t, resp.Pool)
	assert.Equal(t, &repository.OutboxStats{Pending: 3, Failed: 1}, resp.Outbox)

	outbox.err = errors.New("timeout")
	w = serve(NewHealthHandler(nil, nil, nil, outbox).Metrics)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"outbox":"timeout"`)
}
