// Package middleware provides observability wrappers for ebb servers:
// Prometheus render metrics and OpenTelemetry request tracing.
package middleware
