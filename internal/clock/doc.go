// Package clock abstracts wall-clock time at minute precision.
package clock
