/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "statstore"
	subsystem = "storage"
)

// Statement labels.
const (
	StatementQuery     = "query"
	StatementAggregate = "aggregate"
	StatementAdd       = "add"
	StatementReplace   = "replace"
	StatementUpdate    = "update"
	StatementRemove    = "remove"
)

var (
	statementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "statements_total",
			Help:      "Total number of executed statements by kind and category",
		},
		[]string{"statement", "category"},
	)

	errorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "errors_total",
			Help:      "Total number of backing store failures by operation",
		},
		[]string{"operation"},
	)

	connectionStatus = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "connection_status",
			Help:      "Current connection status (0=Disconnected, 1=Connecting, 2=Connected, 3=FailedToConnect)",
		},
	)

	registeredCategories = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "registered_categories",
			Help:      "Number of categories registered with the storage engine",
		},
	)
)

// IncStatement counts one executed statement.
func IncStatement(statement, category string) {
	statementsTotal.WithLabelValues(statement, category).Inc()
}

// IncError counts one backing store failure.
func IncError(operation string) {
	errorsTotal.WithLabelValues(operation).Inc()
}

// SetConnectionStatus records the connection status code.
func SetConnectionStatus(code int) {
	connectionStatus.Set(float64(code))
}

// AddRegisteredCategories adjusts the registered category gauge.
func AddRegisteredCategories(delta int) {
	registeredCategories.Add(float64(delta))
}

// StatementCount returns the current statement counter value.
func StatementCount(statement, category string) float64 {
	return counterValue(statementsTotal.WithLabelValues(statement, category))
}

// ErrorCount returns the current error counter value.
func ErrorCount(operation string) float64 {
	return counterValue(errorsTotal.WithLabelValues(operation))
}

// Collectors exposes the metrics for custom registries and tests.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{statementsTotal, errorsTotal, connectionStatus, registeredCategories}
}
