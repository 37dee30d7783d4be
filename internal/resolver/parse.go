package resolver

import (
	"errors"
	"strings"
)

// ErrInvalidReference indicates a track reference that cannot be parsed,
// such as an empty string or a separator with nothing after it.
var ErrInvalidReference = errors.New("invalid track reference")

// Reference is a parsed user track reference. TitleOnly is set when the
// input carried no artist part and Title is the entire query.
type Reference struct {
	Artist    string
	Title     string
	TitleOnly bool
}

// ParseReference splits a raw track reference into artist and title.
// Matchers apply in fixed priority order, first structural match wins:
//
//	"Artist: Title"     colon separator
//	"Title by Artist"   the word "by" (case-insensitive, last occurrence)
//	"Artist - Title"    hyphen with surrounding spaces
//	"Title"             everything else is a title-only query
//
// The order is semantically significant: "Adele: Someone by the Window"
// must split at the colon, not at "by". A separator with a blank title
// side yields ErrInvalidReference; a blank artist side degrades to a
// title-only reference.
func ParseReference(raw string) (Reference, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Reference{}, ErrInvalidReference
	}

	if idx := strings.Index(raw, ":"); idx >= 0 {
		return newReference(raw[:idx], raw[idx+1:])
	}

	if idx := lastByIndex(raw); idx >= 0 {
		return newReference(raw[idx+len(bySeparator):], raw[:idx])
	}

	if idx := strings.Index(raw, " - "); idx >= 0 {
		return newReference(raw[:idx], raw[idx+3:])
	}

	return Reference{Title: raw, TitleOnly: true}, nil
}

const bySeparator = " by "

// lastByIndex finds the last case-insensitive " by " so that titles
// containing "by" still parse ("Stand by Me by Ben E. King").
func lastByIndex(raw string) int {
	return strings.LastIndex(strings.ToLower(raw), bySeparator)
}

func newReference(artist, title string) (Reference, error) {
	artist = strings.TrimSpace(artist)
	title = strings.TrimSpace(title)
	if title == "" {
		return Reference{}, ErrInvalidReference
	}
	if artist == "" {
		return Reference{Title: title, TitleOnly: true}, nil
	}
	return Reference{Artist: artist, Title: title}, nil
}
