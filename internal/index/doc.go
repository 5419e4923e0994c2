// Package index walks an images root and builds a mapping from normalized
// identifier to the concrete image files carrying that identifier,
// reporting collisions and optionally content-hash duplicates.
package index
