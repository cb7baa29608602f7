// Package main is the entry point for the SpatialDeck workspace server.
//
// The server fronts the workspace persistence engine: a registry of live
// window state, a notebook-document codec, a catalog over saved workspaces
// and a restore orchestrator that re-creates windows from documents.
//
// The server provides:
//   - REST API for window and workspace management
//   - WebSocket streaming of restore progress and window events
//   - Prometheus metrics on /metrics
//   - Rate limiting and CORS
//
// Configuration is environment-driven (12-factor): PORT, HOST, STORAGE_ROOT,
// STORAGE_COMPRESS, STORAGE_WATCH, LOG_LEVEL, LOG_DEV, RATE_LIMIT_*.
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
