package popularity

import (
	"context"
	"testing"
)

func TestBuildQuery(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		artist string
		title  string
		want   string
	}{
		{"plain", "Queen", "Bohemian Rhapsody", "track:Bohemian Rhapsody artist:Queen"},
		{"version suffix stripped", "The Beatles", "Hey Jude - Remastered 2015", "track:Hey Jude artist:The Beatles"},
		{"blank artist", "", "Yesterday", "track:Yesterday"},
		{"dash inside title kept when leading", "Halsey", "- start", "track:- start artist:Halsey"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := buildQuery(tt.artist, tt.title); got != tt.want {
				t.Errorf("buildQuery(%q, %q) = %q, want %q", tt.artist, tt.title, got, tt.want)
			}
		})
	}
}

func TestNoopProvider(t *testing.T) {
	t.Parallel()

	var p Noop
	if got := p.TrackPopularity(context.Background(), "Queen", "Bohemian Rhapsody"); got != 0 {
		t.Errorf("Noop.TrackPopularity = %d, want 0", got)
	}
}
