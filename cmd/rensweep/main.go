// Package main provides the entry point for the rensweep CLI.
//
// Rensweep finds image files in a Ren'Py-style visual novel project that
// no script references, and optionally deletes them.
//
// Usage:
//
//	rensweep scan <project-dir>
//	rensweep clean --dry-run <project-dir>
//
// See --help for all available options.
package main

// main is the entry point for rensweep.
func main() {
	Execute()
}
