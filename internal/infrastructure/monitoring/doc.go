// Package monitoring provides Prometheus metrics for the workspace engine:
// HTTP request counters, registry gauges, restore histograms and WebSocket
// connection tracking. Metrics are exposed on /metrics in the standard
// exposition format.
package monitoring
