// Package registry holds the insertion-ordered, in-memory alarm set that
// forms the scheduler's view of what to watch.
package registry
