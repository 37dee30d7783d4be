// Package cover renders playlist cover images. Covers are deterministic
// mosaics hashed from playlist contents, written to disk when possible
// and returned inline as data URLs otherwise.
package cover
