// Package handlers implements the MusicCRS HTTP surface: the chat
// endpoint, session state, playlist covers, and health/version probes.
package handlers
