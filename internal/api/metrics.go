package api

import (
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics holds lightweight counters for HTTP activity, shown in the
// stats footer of the TUI.
type Metrics struct {
	TotalRequests     atomic.Int64
	TotalRetries      atomic.Int64
	TotalBackoffNanos atomic.Int64

	ReadRequests  atomic.Int64 // GET
	WriteRequests atomic.Int64 // POST/PATCH/PUT/DELETE

	mu        sync.Mutex
	status2xx int64
	status4xx int64
	status429 int64
	status5xx int64
}

// NewMetrics creates a metrics collector.
func NewMetrics() *Metrics { return &Metrics{} }

// IncRequest counts a request by method.
func (m *Metrics) IncRequest(method string) {
	m.TotalRequests.Add(1)
	switch strings.ToUpper(method) {
	case http.MethodGet:
		m.ReadRequests.Add(1)
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		m.WriteRequests.Add(1)
	}
}

// IncRetry counts one retry.
func (m *Metrics) IncRetry() { m.TotalRetries.Add(1) }

// AddBackoff accumulates backoff sleep time.
func (m *Metrics) AddBackoff(d time.Duration) { m.TotalBackoffNanos.Add(d.Nanoseconds()) }

// IncStatus tracks status buckets.
func (m *Metrics) IncStatus(code int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch {
	case code == 429:
		m.status429++
	case code >= 200 && code < 300:
		m.status2xx++
	case code >= 400 && code < 500:
		m.status4xx++
	case code >= 500:
		m.status5xx++
	}
}

// MetricsSnapshot is a read-only copy of the counters.
type MetricsSnapshot struct {
	TotalRequests     int64
	TotalRetries      int64
	TotalBackoffNanos int64
	ReadRequests      int64
	WriteRequests     int64
	Status2xx         int64
	Status4xx         int64
	Status429         int64
	Status5xx         int64
}

// Snapshot returns a copy of the metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return MetricsSnapshot{
		TotalRequests:     m.TotalRequests.Load(),
		TotalRetries:      m.TotalRetries.Load(),
		TotalBackoffNanos: m.TotalBackoffNanos.Load(),
		ReadRequests:      m.ReadRequests.Load(),
		WriteRequests:     m.WriteRequests.Load(),
		Status2xx:         m.status2xx,
		Status4xx:         m.status4xx,
		Status429:         m.status429,
		Status5xx:         m.status5xx,
	}
}
