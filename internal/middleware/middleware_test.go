package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/convodoc/internal/domain/artifacts"
)

func TestTokenBucketExhausts(t *testing.T) {
	tb := NewTokenBucket(2, 0)
	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())
}

func TestTokenBucketRefillsFractionally(t *testing.T) {
	now := time.Unix(0, 0)
	tb := newBucket(1, 2, func() time.Time { return now })
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())

	now = now.Add(250 * time.Millisecond) // half a token
	assert.False(t, tb.Allow())
	now = now.Add(250 * time.Millisecond)
	assert.True(t, tb.Allow())
}

func TestRateLimiterSweepsIdleBuckets(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	defer rl.Stop()
	now := time.Unix(0, 0)
	rl.now = func() time.Time { return now }

	rl.Allow("a")
	now = now.Add(idleTTL + time.Second)
	rl.Allow("b")
	rl.sweep()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.NotContains(t, rl.buckets, "a")
	assert.Contains(t, rl.buckets, "b")
}

func TestRateLimitMiddlewareKeysByIP(t *testing.T) {
	rl := NewRateLimiter(1, 0)
	defer rl.Stop()
	h := RateLimitMiddleware(rl)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	do := func(remote string) int {
		req := httptest.NewRequest(http.MethodPost, "/v1/runs", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusAccepted, do("10.0.0.1:1234"))
	assert.Equal(t, http.StatusTooManyRequests, do("10.0.0.1:5678"))
	assert.Equal(t, http.StatusAccepted, do("10.0.0.2:1234"))
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.7:4000"
	assert.Equal(t, "192.0.2.7", ClientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", ClientIP(req))
}

func TestHealthHandler(t *testing.T) {
	ok := CheckFunc(func(context.Context) error { return nil })
	down := CheckFunc(func(context.Context) error { return errors.New("connection refused") })

	rec := httptest.NewRecorder()
	HealthHandler(map[string]HealthChecker{"store": ok})(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	HealthHandler(map[string]HealthChecker{"store": ok, "minio": down})(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "unhealthy", body.Status)
	assert.Equal(t, "healthy", body.Checks["store"].Status)
	assert.Equal(t, "connection refused", body.Checks["minio"].Message)
}

func TestReadinessHandler(t *testing.T) {
	down := CheckFunc(func(context.Context) error { return errors.New("no") })

	rec := httptest.NewRecorder()
	ReadinessHandler(nil)(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ready"`)

	rec = httptest.NewRecorder()
	ReadinessHandler(map[string]HealthChecker{"store": down})(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "not_ready")
}

func TestLoggingWritesStructuredLine(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	h := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("missing"))
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/runs/x", nil))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "http request", line["msg"])
	assert.Equal(t, "/v1/runs/x", line["path"])
	assert.EqualValues(t, 404, line["status"])
	assert.EqualValues(t, 7, line["bytes"])
}

func TestMetricsMiddlewareCounts(t *testing.T) {
	before := GetMetrics()
	h := MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	IncrementRuns()
	IncrementRunsRunning()
	DecrementRunsRunning()
	IncrementDocuments()

	after := GetMetrics()
	assert.Equal(t, before.Requests.Failed+1, after.Requests.Failed)
	assert.Equal(t, before.Runs.Started+1, after.Runs.Started)
	assert.Equal(t, before.Runs.Running, after.Runs.Running)
	assert.Equal(t, before.DocumentsImported+1, after.DocumentsImported)

	rec := httptest.NewRecorder()
	MetricsHandler(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body, "runs")
	assert.Contains(t, body, "documents_imported")
}

func TestValidators(t *testing.T) {
	assert.NoError(t, ValidateUUID("run id", "7f8c0f7e-3c1a-4d55-9ad4-1d2b3c4d5e6f"))
	var verr *ValidationError
	assert.ErrorAs(t, ValidateUUID("run id", "nope"), &verr)
	assert.Equal(t, "run id", verr.Field)
	assert.Error(t, ValidateUUID("run id", ""))

	assert.NoError(t, ValidateAgentID("agent-meta"))
	assert.Error(t, ValidateAgentID("Agent Meta"))

	f, err := ValidateFormat("HTML")
	require.NoError(t, err)
	assert.Equal(t, artifacts.FormatHTML, f)
	_, err = ValidateFormat("pdf")
	assert.ErrorAs(t, err, &verr)

	title, err := ValidateTitle("  Sprint\x00 review\x07 ")
	require.NoError(t, err)
	assert.Equal(t, "Sprint review", title)
	_, err = ValidateTitle(string(bytes.Repeat([]byte("a"), MaxTitleLength+1)))
	assert.Error(t, err)

	assert.Equal(t, 20, ValidateLimit(0))
	assert.Equal(t, 100, ValidateLimit(500))
	assert.Equal(t, 7, ValidateLimit(7))
}

func TestSharedCheckerCaches(t *testing.T) {
	var calls atomic.Int32
	shared := NewSharedChecker(CheckFunc(func(context.Context) error {
		calls.Add(1)
		return errors.New("down")
	}), time.Minute)

	assert.EqualError(t, shared.Check(context.Background()), "down")
	assert.EqualError(t, shared.Check(context.Background()), "down")
	assert.Equal(t, int32(1), calls.Load())
}
