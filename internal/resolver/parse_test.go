package resolver

import (
	"errors"
	"testing"
)

func TestParseReference(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  Reference
	}{
		{
			"colon separator",
			"Queen: Bohemian Rhapsody",
			Reference{Artist: "Queen", Title: "Bohemian Rhapsody"},
		},
		{
			"by separator",
			"Yesterday by The Beatles",
			Reference{Artist: "The Beatles", Title: "Yesterday"},
		},
		{
			"by separator case insensitive",
			"Yesterday BY The Beatles",
			Reference{Artist: "The Beatles", Title: "Yesterday"},
		},
		{
			"by inside title uses last occurrence",
			"Stand by Me by Ben E. King",
			Reference{Artist: "Ben E. King", Title: "Stand by Me"},
		},
		{
			"hyphen separator",
			"Toto - Africa",
			Reference{Artist: "Toto", Title: "Africa"},
		},
		{
			"title only",
			"Africa",
			Reference{Title: "Africa", TitleOnly: true},
		},
		{
			"colon wins over by",
			"Adele: Someone by the Window",
			Reference{Artist: "Adele", Title: "Someone by the Window"},
		},
		{
			"by wins over hyphen",
			"Under Pressure - Live by Queen",
			Reference{Artist: "Queen", Title: "Under Pressure - Live"},
		},
		{
			"hyphen without spaces is not a separator",
			"T-Rex",
			Reference{Title: "T-Rex", TitleOnly: true},
		},
		{
			"whitespace trimmed",
			"  Queen :  Bohemian Rhapsody  ",
			Reference{Artist: "Queen", Title: "Bohemian Rhapsody"},
		},
		{
			"blank artist side degrades to title only",
			": Bohemian Rhapsody",
			Reference{Title: "Bohemian Rhapsody", TitleOnly: true},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseReference(tt.input)
			if err != nil {
				t.Fatalf("ParseReference(%q) error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseReference(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseReferenceInvalid(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"", "   ", "Queen:", "Queen:   "} {
		if _, err := ParseReference(input); !errors.Is(err, ErrInvalidReference) {
			t.Errorf("ParseReference(%q) error = %v, want ErrInvalidReference", input, err)
		}
	}
}
