// Package metrics registers the Prometheus metrics of the storage engine:
// executed statements, backing store failures, connection status and the
// number of registered categories.
package metrics
