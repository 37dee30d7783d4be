// Package dialog tracks per-session disambiguation state. A session
// holds at most one pending selection; a numeric reply consumes it and
// dispatches the chosen track to exactly one continuation.
package dialog
