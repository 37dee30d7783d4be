package popularity

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2/clientcredentials"

	"musiccrs/internal/logging"
	"musiccrs/internal/metrics"
)

// SpotifyProvider looks up track popularity through the Spotify Web API
// using the client credentials flow. Results are cached for the lifetime
// of the provider; every lookup is bounded by the configured timeout so a
// slow or unreachable API never stalls ranking.
type SpotifyProvider struct {
	clientID     string
	clientSecret string
	timeout      time.Duration

	mu     sync.Mutex
	client *spotify.Client
	cache  map[string]int
}

// NewSpotifyProvider creates a provider with the given client credentials.
// The Spotify client itself is created lazily on first lookup.
func NewSpotifyProvider(clientID, clientSecret string, timeout time.Duration) *SpotifyProvider {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &SpotifyProvider{
		clientID:     clientID,
		clientSecret: clientSecret,
		timeout:      timeout,
		cache:        make(map[string]int),
	}
}

// TrackPopularity returns Spotify's 0-100 popularity score for the track,
// or 0 if the track cannot be found or the lookup fails.
func (p *SpotifyProvider) TrackPopularity(ctx context.Context, artist, title string) int {
	key := strings.ToLower(artist) + "\x00" + strings.ToLower(title)

	p.mu.Lock()
	if score, ok := p.cache[key]; ok {
		p.mu.Unlock()
		metrics.PopularityLookupsTotal.WithLabelValues("cached").Inc()
		return score
	}
	p.mu.Unlock()

	start := time.Now()
	score, err := p.lookup(ctx, artist, title)
	metrics.PopularityLookupDuration.Observe(time.Since(start).Seconds())

	switch {
	case err != nil:
		metrics.PopularityLookupsTotal.WithLabelValues("error").Inc()
		logging.Debug("Popularity lookup failed for %q / %q: %v", artist, title, err)
		score = 0
	case score > 0:
		metrics.PopularityLookupsTotal.WithLabelValues("hit").Inc()
	default:
		metrics.PopularityLookupsTotal.WithLabelValues("miss").Inc()
	}

	p.mu.Lock()
	p.cache[key] = score
	p.mu.Unlock()
	return score
}

func (p *SpotifyProvider) lookup(ctx context.Context, artist, title string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	client, err := p.getClient(ctx)
	if err != nil {
		return 0, err
	}

	query := buildQuery(artist, title)
	results, err := client.Search(ctx, query, spotify.SearchTypeTrack, spotify.Limit(1))
	if err != nil {
		return 0, fmt.Errorf("spotify search: %w", err)
	}

	if results.Tracks == nil || len(results.Tracks.Tracks) == 0 {
		return 0, nil
	}
	return int(results.Tracks.Tracks[0].Popularity), nil
}

// TrackDetails returns the full Spotify record for the track's top
// search hit, or nil when Spotify has no match.
func (p *SpotifyProvider) TrackDetails(ctx context.Context, artist, title string) (*TrackDetails, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	client, err := p.getClient(ctx)
	if err != nil {
		return nil, err
	}

	results, err := client.Search(ctx, buildQuery(artist, title), spotify.SearchTypeTrack, spotify.Limit(1))
	if err != nil {
		return nil, fmt.Errorf("spotify search: %w", err)
	}
	if results.Tracks == nil || len(results.Tracks.Tracks) == 0 {
		return nil, nil
	}

	t := results.Tracks.Tracks[0]
	details := &TrackDetails{
		Title:      t.Name,
		URL:        t.ExternalURLs["spotify"],
		EmbedID:    string(t.ID),
		Popularity: int(t.Popularity),
		Duration:   t.TimeDuration(),
	}
	if len(t.Artists) > 0 {
		details.Artist = t.Artists[0].Name
	}
	return details, nil
}

// getClient lazily authenticates with the client credentials flow and
// reuses the authenticated client for subsequent lookups.
func (p *SpotifyProvider) getClient(ctx context.Context) (*spotify.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client != nil {
		return p.client, nil
	}

	config := &clientcredentials.Config{
		ClientID:     p.clientID,
		ClientSecret: p.clientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}
	token, err := config.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("spotify token: %w", err)
	}

	httpClient := spotifyauth.New().Client(ctx, token)
	p.client = spotify.New(httpClient)
	logging.Info("Spotify popularity provider authenticated")
	return p.client, nil
}

// buildQuery strips version suffixes like "Song - Acoustic" before
// querying so remasters and live takes match their canonical recording.
func buildQuery(artist, title string) string {
	if idx := strings.Index(title, " - "); idx > 0 {
		title = title[:idx]
	}
	title = strings.TrimSpace(title)

	if strings.TrimSpace(artist) == "" {
		return fmt.Sprintf("track:%s", title)
	}
	return fmt.Sprintf("track:%s artist:%s", title, artist)
}
