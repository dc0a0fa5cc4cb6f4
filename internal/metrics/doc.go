// Package metrics registers and exposes the engine's Prometheus counters.
// All helpers are nil-safe so code paths work whether or not Init ran.
package metrics
