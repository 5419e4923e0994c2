// Package resolve computes the unused set: indexed images whose
// normalized identifier never appears among the extracted script
// references under any enabled fallback rule.
package resolve
