package middleware

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"
)

// counters are process-wide request and pipeline gauges served on /metrics.
type counters struct {
	requests  atomic.Int64
	inFlight  atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64

	runs        atomic.Int64
	runsRunning atomic.Int64
	runsFailed  atomic.Int64
	documents   atomic.Int64

	started time.Time
}

var stats = &counters{started: time.Now()}

func IncrementRuns()        { stats.runs.Add(1) }
func IncrementRunsRunning() { stats.runsRunning.Add(1) }
func DecrementRunsRunning() { stats.runsRunning.Add(-1) }
func IncrementRunsFailed()  { stats.runsFailed.Add(1) }
func IncrementDocuments()   { stats.documents.Add(1) }

// Snapshot is the JSON body of /metrics.
type Snapshot struct {
	Requests struct {
		Total     int64 `json:"total"`
		InFlight  int64 `json:"in_flight"`
		Succeeded int64 `json:"succeeded"`
		Failed    int64 `json:"failed"`
	} `json:"requests"`
	Runs struct {
		Started int64 `json:"started"`
		Running int64 `json:"running"`
		Failed  int64 `json:"failed"`
	} `json:"runs"`
	DocumentsImported int64   `json:"documents_imported"`
	UptimeSeconds     float64 `json:"uptime_seconds"`
	Goroutines        int     `json:"goroutines"`
	Memory            struct {
		AllocBytes uint64 `json:"alloc_bytes"`
		SysBytes   uint64 `json:"sys_bytes"`
		NumGC      uint32 `json:"num_gc"`
	} `json:"memory"`
}

// GetMetrics returns current metrics
func GetMetrics() Snapshot {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	var s Snapshot
	s.Requests.Total = stats.requests.Load()
	s.Requests.InFlight = stats.inFlight.Load()
	s.Requests.Succeeded = stats.succeeded.Load()
	s.Requests.Failed = stats.failed.Load()
	s.Runs.Started = stats.runs.Load()
	s.Runs.Running = stats.runsRunning.Load()
	s.Runs.Failed = stats.runsFailed.Load()
	s.DocumentsImported = stats.documents.Load()
	s.UptimeSeconds = time.Since(stats.started).Seconds()
	s.Goroutines = runtime.NumGoroutine()
	s.Memory.AllocBytes = m.Alloc
	s.Memory.SysBytes = m.Sys
	s.Memory.NumGC = m.NumGC
	return s
}

// MetricsMiddleware tracks request metrics
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stats.requests.Add(1)
		stats.inFlight.Add(1)
		defer stats.inFlight.Add(-1)

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		// 4xx/5xx dihitung gagal
		if wrapped.statusCode < 400 {
			stats.succeeded.Add(1)
		} else {
			stats.failed.Add(1)
		}
	})
}

// MetricsHandler returns metrics as JSON
func MetricsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(GetMetrics())
}
