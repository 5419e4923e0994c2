// Package sweep applies keep/delete decisions to the unused set.
// It is the only package in the module that mutates the file system,
// and it only ever removes files the indexer itself enumerated.
package sweep
