// Package startup handles environment configuration, the startup banner,
// and structured startup/shutdown logging for the MusicCRS agent.
package startup
