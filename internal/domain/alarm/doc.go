// Package alarm defines the core domain model: the Alarm record and its
// minute-precision TimeOfDay, with parsing and validation helpers.
package alarm
