// Package normalize canonicalizes file paths and script reference tokens
// into comparable identifiers. The same normalizer instance is shared by
// the image indexer and the reference extractor so that both sides of the
// comparison apply identical rules.
package normalize
