package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRedis is an in-memory RedisClient
type fakeRedis struct {
	mu   sync.Mutex
	data map[string]string
	err  error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: make(map[string]string)}
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value.(string)
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.data[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.data[key] = value.(string)
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func setupIdempotencyRouter(rc RedisClient, status int, calls *int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(IdempotencyMiddleware(DefaultIdempotencyConfig(rc)))

	handler := func(c *gin.Context) {
		*calls++
		c.JSON(status, gin.H{"reservation_id": *calls, "status": "confirmed"})
	}
	router.POST("/api/v1/reservations/reserve", handler)
	router.GET("/api/v1/reservations/user/:id", handler)
	return router
}

func doRequest(router *gin.Engine, method, body, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/api/v1/reservations/reserve", strings.NewReader(body))
	if method == http.MethodGet {
		req = httptest.NewRequest(method, "/api/v1/reservations/user/1", nil)
	}
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

const reserveBody = `{"event_id":1,"seat_id":10,"user_id":5}`

func TestIdempotency_NoKeyPassesThrough(t *testing.T) {
	calls := 0
	router := setupIdempotencyRouter(newFakeRedis(), http.StatusCreated, &calls)

	doRequest(router, http.MethodPost, reserveBody, "")
	doRequest(router, http.MethodPost, reserveBody, "")

	assert.Equal(t, 2, calls)
}

func TestIdempotency_ReplaysCompletedResponse(t *testing.T) {
	calls := 0
	rc := newFakeRedis()
	router := setupIdempotencyRouter(rc, http.StatusCreated, &calls)

	first := doRequest(router, http.MethodPost, reserveBody, "key-1")
	second := doRequest(router, http.MethodPost, reserveBody, "key-1")

	assert.Equal(t, 1, calls)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))

	var rec IdempotencyRecord
	require.NoError(t, json.Unmarshal([]byte(rc.data[IdempotencyKeyPrefix+"key-1"]), &rec))
	assert.Equal(t, StatusCompleted, rec.Status)
	assert.Equal(t, http.StatusCreated, rec.ResponseCode)
}

func TestIdempotency_KeyReusedWithDifferentBody(t *testing.T) {
	calls := 0
	router := setupIdempotencyRouter(newFakeRedis(), http.StatusCreated, &calls)

	doRequest(router, http.MethodPost, reserveBody, "key-2")
	w := doRequest(router, http.MethodPost, `{"event_id":1,"seat_id":11,"user_id":5}`, "key-2")

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), `"detail"`)
	assert.Equal(t, 1, calls)
}

func TestIdempotency_InProgress(t *testing.T) {
	calls := 0
	rc := newFakeRedis()
	router := setupIdempotencyRouter(rc, http.StatusCreated, &calls)

	rec := IdempotencyRecord{
		Key:         "key-3",
		Status:      StatusProcessing,
		RequestHash: hashRequest(http.MethodPost, "/api/v1/reservations/reserve", []byte(reserveBody)),
	}
	data, _ := json.Marshal(rec)
	rc.data[IdempotencyKeyPrefix+"key-3"] = string(data)

	w := doRequest(router, http.MethodPost, reserveBody, "key-3")

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, 0, calls)
}

func TestIdempotency_FailsOpenOnRedisError(t *testing.T) {
	calls := 0
	rc := newFakeRedis()
	rc.err = errors.New("connection refused")
	router := setupIdempotencyRouter(rc, http.StatusCreated, &calls)

	doRequest(router, http.MethodPost, reserveBody, "key-4")
	doRequest(router, http.MethodPost, reserveBody, "key-4")

	assert.Equal(t, 2, calls)
}

func TestIdempotency_ServerErrorNotCached(t *testing.T) {
	calls := 0
	rc := newFakeRedis()
	router := setupIdempotencyRouter(rc, http.StatusInternalServerError, &calls)

	doRequest(router, http.MethodPost, reserveBody, "key-5")
	doRequest(router, http.MethodPost, reserveBody, "key-5")

	assert.Equal(t, 2, calls)
	assert.Empty(t, rc.data)
}

func TestIdempotency_GetIgnored(t *testing.T) {
	calls := 0
	rc := newFakeRedis()
	router := setupIdempotencyRouter(rc, http.StatusOK, &calls)

	doRequest(router, http.MethodGet, "", "key-6")
	doRequest(router, http.MethodGet, "", "key-6")

	assert.Equal(t, 2, calls)
	assert.Empty(t, rc.data)
}
