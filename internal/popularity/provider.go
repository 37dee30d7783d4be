package popularity

import (
	"context"
	"time"
)

// Provider reports how popular a track is on an external streaming
// service, on a 0-100 scale. Implementations must treat lookup failure
// as zero popularity rather than returning an error: ranking degrades
// to corpus-only signals when the external service is unavailable.
type Provider interface {
	TrackPopularity(ctx context.Context, artist, title string) int
}

// TrackDetails describes a streaming-service track well enough to link
// to it and embed a player for it.
type TrackDetails struct {
	Artist     string
	Title      string
	URL        string
	EmbedID    string
	Popularity int
	Duration   time.Duration
}

// DetailsProvider looks up full track records for playback links. A
// lookup that finds nothing returns nil with no error; unlike ranking
// enrichment, callers surface lookup failures to the user.
type DetailsProvider interface {
	TrackDetails(ctx context.Context, artist, title string) (*TrackDetails, error)
}

// Noop is a Provider that always reports zero popularity. It is used
// when no external service credentials are configured.
type Noop struct{}

func (Noop) TrackPopularity(_ context.Context, _, _ string) int { return 0 }
