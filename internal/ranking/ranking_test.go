package ranking

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"musiccrs/internal/catalog"
	"musiccrs/internal/popularity"
)

type stubProvider struct {
	mu     sync.Mutex
	scores map[string]int
	calls  int
}

func (s *stubProvider) TrackPopularity(_ context.Context, artist, title string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.scores[strings.ToLower(artist+"/"+title)]
}

func testCatalog(t *testing.T, tracks []catalog.Track) *catalog.Catalog {
	t.Helper()
	ctx := context.Background()

	cat, err := catalog.Open(ctx, filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("failed to open catalog: %v", err)
	}
	t.Cleanup(func() { cat.Close() })

	if _, err := cat.Ingest(ctx, tracks); err != nil {
		t.Fatalf("failed to ingest tracks: %v", err)
	}
	return cat
}

func ids(tracks []catalog.Track) []string {
	out := make([]string, len(tracks))
	for i, t := range tracks {
		out[i] = t.ID
	}
	return out
}

func TestRankByOccurrences(t *testing.T) {
	ctx := context.Background()

	// t2 ingested three times, t1 once.
	cat := testCatalog(t, []catalog.Track{
		{ID: "t1", Artist: "Aerosmith", Title: "Crazy"},
		{ID: "t2", Artist: "Seal", Title: "Crazy"},
		{ID: "t2", Artist: "Seal", Title: "Crazy"},
		{ID: "t2", Artist: "Seal", Title: "Crazy"},
	})

	r := New(cat, popularity.Noop{}, 5)
	ranked := r.Rank(ctx, []catalog.Track{
		{ID: "t1", Artist: "Aerosmith", Title: "Crazy"},
		{ID: "t2", Artist: "Seal", Title: "Crazy"},
	}, nil)

	got := ids(ranked)
	if got[0] != "t2" || got[1] != "t1" {
		t.Errorf("Rank order = %v, want [t2 t1]", got)
	}
}

func TestRankPopularityBreaksTies(t *testing.T) {
	ctx := context.Background()

	cat := testCatalog(t, []catalog.Track{
		{ID: "t1", Artist: "Aerosmith", Title: "Crazy"},
		{ID: "t2", Artist: "Seal", Title: "Crazy"},
	})

	provider := &stubProvider{scores: map[string]int{
		"seal/crazy": 80,
	}}
	r := New(cat, provider, 5)
	ranked := r.Rank(ctx, []catalog.Track{
		{ID: "t1", Artist: "Aerosmith", Title: "Crazy"},
		{ID: "t2", Artist: "Seal", Title: "Crazy"},
	}, nil)

	if got := ids(ranked); got[0] != "t2" {
		t.Errorf("Rank order = %v, want t2 first", got)
	}
}

func TestRankExistingArtistFirst(t *testing.T) {
	ctx := context.Background()

	// t2 would win on occurrences but t1's artist is already on the playlist.
	cat := testCatalog(t, []catalog.Track{
		{ID: "t1", Artist: "Aerosmith", Title: "Crazy"},
		{ID: "t2", Artist: "Seal", Title: "Crazy"},
		{ID: "t2", Artist: "Seal", Title: "Crazy"},
	})

	r := New(cat, popularity.Noop{}, 5)
	ranked := r.Rank(ctx, []catalog.Track{
		{ID: "t1", Artist: "Aerosmith", Title: "Crazy"},
		{ID: "t2", Artist: "Seal", Title: "Crazy"},
	}, map[string]bool{"aerosmith": true})

	if got := ids(ranked); got[0] != "t1" {
		t.Errorf("Rank order = %v, want t1 first", got)
	}
}

func TestRankDeterministicTieBreak(t *testing.T) {
	ctx := context.Background()

	cat := testCatalog(t, []catalog.Track{
		{ID: "t1", Artist: "Zed", Title: "Same"},
		{ID: "t2", Artist: "Abba", Title: "Same"},
	})

	r := New(cat, popularity.Noop{}, 0)
	ranked := r.Rank(ctx, []catalog.Track{
		{ID: "t1", Artist: "Zed", Title: "Same"},
		{ID: "t2", Artist: "Abba", Title: "Same"},
	}, nil)

	if got := ids(ranked); got[0] != "t2" {
		t.Errorf("Rank order = %v, want artist-ascending tie break (t2 first)", got)
	}
}

func TestRankBudgetLimitsLookups(t *testing.T) {
	ctx := context.Background()

	tracks := []catalog.Track{
		{ID: "t1", Artist: "A", Title: "X"},
		{ID: "t2", Artist: "B", Title: "X"},
		{ID: "t3", Artist: "C", Title: "X"},
	}
	cat := testCatalog(t, tracks)

	provider := &stubProvider{scores: map[string]int{}}
	r := New(cat, provider, 2)
	r.Rank(ctx, tracks, nil)

	if provider.calls != 2 {
		t.Errorf("provider calls = %d, want 2", provider.calls)
	}
}
