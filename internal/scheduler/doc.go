// Package scheduler implements the per-tick matching of active alarms
// against the current minute, with at-most-once-per-minute fire dedup.
package scheduler
