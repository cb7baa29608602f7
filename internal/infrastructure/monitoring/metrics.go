package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Window metrics
	WindowsActive  prometheus.Gauge
	WindowsCreated prometheus.Counter

	// Workspace metrics
	WorkspacesSaved    prometheus.Counter
	WorkspacesRestored prometheus.Counter
	RestoreDuration    prometheus.Histogram
	DecodeErrors       prometheus.Counter

	// Catalog metrics
	CatalogEntries prometheus.Gauge

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time

	// Snapshot for JSON API - track current values
	snapshot MetricsSnapshot

	mu sync.RWMutex
}

// MetricsSnapshot holds current metric values for JSON API
type MetricsSnapshot struct {
	TotalRequests int64
	TotalErrors   int64
	ActiveWindows int64
	TotalDuration float64 // sum of all request durations
	RequestCount  int64   // count for averaging
}

// NewMetrics creates a new metrics collector
func NewMetrics() *Metrics {
	m := &Metrics{
		startTime: time.Now(),

		// HTTP metrics
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "workspace_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "workspace_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),

		// Window metrics
		WindowsActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "workspace_windows_active",
				Help: "Number of live windows in the registry",
			},
		),
		WindowsCreated: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "workspace_windows_created_total",
				Help: "Total number of windows created",
			},
		),

		// Workspace metrics
		WorkspacesSaved: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "workspace_saved_total",
				Help: "Total number of workspace documents saved",
			},
		),
		WorkspacesRestored: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "workspace_restored_total",
				Help: "Total number of workspace restores completed",
			},
		),
		RestoreDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "workspace_restore_duration_seconds",
				Help:    "Restore duration in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
		),
		DecodeErrors: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "workspace_decode_errors_total",
				Help: "Total number of recoverable decode errors",
			},
		),

		// Catalog metrics
		CatalogEntries: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "workspace_catalog_entries",
				Help: "Number of workspace descriptors in the catalog",
			},
		),

		// WebSocket metrics
		WSConnections: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "workspace_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSMessages: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "workspace_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),

		// System metrics
		Uptime: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "workspace_uptime_seconds",
				Help: "Backend uptime in seconds",
			},
		),
	}

	// Start uptime updater
	go m.updateUptime()

	return m
}

// updateUptime continuously updates the uptime metric
func (m *Metrics) updateUptime() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for range ticker.C {
		m.Uptime.Set(time.Since(m.startTime).Seconds())
	}
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())

	// Update snapshot
	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.TotalDuration += duration.Seconds()
	m.snapshot.RequestCount++
	if len(status) > 0 && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// SetWindowsActive sets the number of live windows
func (m *Metrics) SetWindowsActive(count int) {
	m.WindowsActive.Set(float64(count))
	m.mu.Lock()
	m.snapshot.ActiveWindows = int64(count)
	m.mu.Unlock()
}

// IncWindowsCreated increments the windows created counter
func (m *Metrics) IncWindowsCreated() {
	m.WindowsCreated.Inc()
}

// IncWorkspacesSaved increments the workspaces saved counter
func (m *Metrics) IncWorkspacesSaved() {
	m.WorkspacesSaved.Inc()
}

// RecordRestore records a completed restore
func (m *Metrics) RecordRestore(duration time.Duration) {
	m.WorkspacesRestored.Inc()
	m.RestoreDuration.Observe(duration.Seconds())
}

// AddDecodeErrors adds to the decode error counter
func (m *Metrics) AddDecodeErrors(count int) {
	if count > 0 {
		m.DecodeErrors.Add(float64(count))
	}
}

// SetCatalogEntries sets the number of catalog descriptors
func (m *Metrics) SetCatalogEntries(count int) {
	m.CatalogEntries.Set(float64(count))
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
}

// Snapshot returns current aggregate values for the JSON metrics endpoint
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}
