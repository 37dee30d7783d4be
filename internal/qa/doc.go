// Package qa answers natural-language questions about the catalog using
// a fixed set of question templates. Track-scoped questions go through
// the resolution engine and can hand back an ambiguous result for
// disambiguation; artist-scoped questions answer directly.
package qa
