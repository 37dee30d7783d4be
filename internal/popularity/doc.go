// Package popularity provides external popularity scores used as a
// ranking signal, plus full track details for playback links. The
// Spotify-backed provider is optional; without credentials the agent
// falls back to a no-op provider, ranking relies on corpus occurrence
// counts alone, and playback commands report themselves unavailable.
package popularity
