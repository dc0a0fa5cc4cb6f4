// Package engine orchestrates the alarm firing cycle: scheduler ticks,
// alert session lifecycle, mission-gated dismissal and the engine-level
// operations the UI surface calls.
package engine
