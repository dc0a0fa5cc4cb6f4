// Package httpapi exposes the engine's operations to the UI over a small
// JSON API, plus health and metrics endpoints.
package httpapi
