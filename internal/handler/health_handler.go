package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prohmpiriya/seat-reservation/internal/repository"
)

// HealthChecker is a dependency whose health gates readiness
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// PoolStater exposes connection pool statistics
type PoolStater interface {
	Stats() *pgxpool.Stat
}

// HealthHandler handles health check endpoints
type HealthHandler struct {
	db     HealthChecker
	redis  HealthChecker
	pool   PoolStater
	outbox repository.OutboxRepository
}

// NewHealthHandler creates a new HealthHandler. Any dependency may be nil.
func NewHealthHandler(db HealthChecker, redis HealthChecker, pool PoolStater, outbox repository.OutboxRepository) *HealthHandler {
	return &HealthHandler{
		db:     db,
		redis:  redis,
		pool:   pool,
		outbox: outbox,
	}
}

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// ReadyResponse represents readiness check response
type ReadyResponse struct {
	Status     string            `json:"status"`
	Timestamp  string            `json:"timestamp"`
	Components map[string]string `json:"components"`
}

// PoolMetrics mirrors pgxpool.Stat
type PoolMetrics struct {
	TotalConns        int32  `json:"total_conns"`
	AcquiredConns     int32  `json:"acquired_conns"`
	IdleConns         int32  `json:"idle_conns"`
	MaxConns          int32  `json:"max_conns"`
	AcquireCount      int64  `json:"acquire_count"`
	EmptyAcquireCount int64  `json:"empty_acquire_count"`
	AcquireDuration   string `json:"acquire_duration"`
}

// MetricsResponse represents the /metrics body
type MetricsResponse struct {
	Timestamp string                  `json:"timestamp"`
	Pool      *PoolMetrics            `json:"pool,omitempty"`
	Outbox    *repository.OutboxStats `json:"outbox,omitempty"`
	Errors    map[string]string       `json:"errors,omitempty"`
}

// Health returns a simple health check (liveness probe)
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready returns a readiness check (readiness probe)
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	components := make(map[string]string)
	allHealthy := true

	check := func(name string, dep HealthChecker) {
		if dep == nil {
			components[name] = "not configured"
			return
		}
		if err := dep.HealthCheck(ctx); err != nil {
			components[name] = "unhealthy: " + err.Error()
			allHealthy = false
			return
		}
		components[name] = "healthy"
	}
	check("database", h.db)
	check("redis", h.redis)

	resp := ReadyResponse{
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Components: components,
	}

	if allHealthy {
		resp.Status = "ready"
		c.JSON(http.StatusOK, resp)
	} else {
		resp.Status = "not ready"
		c.JSON(http.StatusServiceUnavailable, resp)
	}
}

// Metrics reports connection pool and outbox backlog statistics
func (h *HealthHandler) Metrics(c *gin.Context) {
	resp := MetricsResponse{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	if h.pool != nil {
		if s := h.pool.Stats(); s != nil {
			resp.Pool = &PoolMetrics{
				TotalConns:        s.TotalConns(),
				AcquiredConns:     s.AcquiredConns(),
				IdleConns:         s.IdleConns(),
				MaxConns:          s.MaxConns(),
				AcquireCount:      s.AcquireCount(),
				EmptyAcquireCount: s.EmptyAcquireCount(),
				AcquireDuration:   s.AcquireDuration().String(),
			}
		}
	}

	if h.outbox != nil {
		stats, err := h.outbox.Stats(c.Request.Context())
		if err != nil {
			resp.Errors = map[string]string{"outbox": err.Error()}
		} else {
			resp.Outbox = stats
		}
	}

	c.JSON(http.StatusOK, resp)
}
