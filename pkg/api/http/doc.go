// Package http provides the HTTP REST API implementation.
//
// The HTTP server exposes endpoints for:
//   - Model prediction (POST /predict)
//   - Health checks
//   - Prometheus metrics, when enabled
package http
