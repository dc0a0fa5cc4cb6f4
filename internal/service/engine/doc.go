// Package engine wires configuration, collaborators, the engine loop and the
// HTTP API into the alarm-engine daemon process.
package engine
