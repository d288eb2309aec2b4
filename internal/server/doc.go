// Package server exposes the HTTP monitoring API: health, queue statistics
// and Prometheus metrics.
package server
