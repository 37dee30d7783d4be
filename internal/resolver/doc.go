// Package resolver turns raw user track references into catalog tracks.
//
// A reference like "Queen: Bohemian Rhapsody", "Yesterday by The Beatles",
// "Toto - Africa", or a bare title is parsed by structural matchers in a
// fixed priority order, then resolved against the catalog. A resolution
// is unique, empty, or ambiguous; ambiguous results carry a ranked
// candidate list the caller presents for disambiguation.
package resolver
