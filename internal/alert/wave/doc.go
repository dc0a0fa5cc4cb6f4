// Package wave implements the looping WAV Sounder on top of oto,
// the engine's production audio backend.
package wave
