// Package agent is the conversational dispatcher. It routes utterances
// to commands, question answering, and pending disambiguation
// selections, and formats replies as HTML chat fragments.
package agent
