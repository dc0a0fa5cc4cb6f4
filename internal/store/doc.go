// Package store implements the REST client for the remote alarm store.
// The engine seeds its registry from here at startup and mirrors mutations
// back best-effort; the store's persistence format is not owned by this core.
package store
