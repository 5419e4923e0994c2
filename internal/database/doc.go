// Package database provides SQLite-based storage of sweep reports so
// that runs can be compared over time: which images became unused since
// the last sweep, and which were cleaned up.
package database
