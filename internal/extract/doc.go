// Package extract scans script files for image references using a
// configurable pattern table. The extractor deliberately over-matches:
// flagging a non-image as "used" only keeps an unused file around, while
// missing a real reference would delete an asset the game still needs.
// Every ambiguity in this package is resolved toward "used".
package extract
