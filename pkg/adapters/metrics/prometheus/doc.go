// Package prometheus exposes prediction metrics through the Prometheus
// client library.
package prometheus
