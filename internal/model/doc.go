// Package model defines the data structures shared across a sweep run:
// image assets, extracted references, the usage index, the unused set,
// warnings, and the final sweep report.
package model
