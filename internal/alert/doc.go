// Package alert owns the live audio and vibration state of a firing alarm.
// A Session scopes both acquisitions and guarantees their release; acquisition
// failure degrades the alert instead of silencing it.
package alert
