// Package middleware provides HTTP middleware for the MusicCRS agent:
// W3C request logging, Prometheus metrics, and gzip compression.
package middleware
