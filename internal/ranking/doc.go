// Package ranking orders candidate tracks for disambiguation prompts,
// blending corpus occurrence counts with external popularity.
package ranking
