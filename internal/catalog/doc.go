// Package catalog provides the SQLite-backed track store that resolution
// queries run against.
//
// It handles:
//   - Exact (artist, title) lookup
//   - Title search with exact-before-prefix ordering
//   - Tiered fuzzy (artist, title) search
//   - Corpus occurrence counts used as an offline popularity proxy
//   - Artist-scoped queries for question answering
//   - Edit-distance title suggestions
//
// The catalog uses WAL mode and is read-only at agent runtime; population
// happens through Ingest, driven by the musiccrsctl build tool.
package catalog
