// Package pipeline orchestrates the steps of a sweep run: indexing the
// images root, extracting script references, resolving the unused set,
// and optionally grouping duplicate images. It also provides a batch
// processor for sweeping multiple projects concurrently.
package pipeline
