// Package playlist is the in-memory per-session playlist store. Each
// session owns named playlists with a current pointer; mutations keep
// insertion order, deduplicate by track identifier, and refresh the
// playlist cover best-effort.
package playlist
