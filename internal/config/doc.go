// Package config provides configuration structures and utilities for
// rensweep. It defines run options, default image and script extensions,
// the YAML configuration file with its reference-pattern table, and the
// XDG directory helpers used for the sweep history database.
package config
