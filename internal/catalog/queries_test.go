package catalog

import (
	"context"
	"path/filepath"
	"testing"
)

func testCatalog(t *testing.T, tracks []Track) *Catalog {
	t.Helper()
	ctx := context.Background()

	c, err := Open(ctx, filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("failed to open catalog: %v", err)
	}
	t.Cleanup(func() { c.Close() })

	if len(tracks) > 0 {
		if _, err := c.Ingest(ctx, tracks); err != nil {
			t.Fatalf("failed to ingest tracks: %v", err)
		}
	}
	return c
}

func trackIDs(tracks []Track) []string {
	out := make([]string, len(tracks))
	for i, t := range tracks {
		out[i] = t.ID
	}
	return out
}

func TestFindExact(t *testing.T) {
	ctx := context.Background()
	c := testCatalog(t, []Track{
		{ID: "t1", Artist: "Queen", Title: "Bohemian Rhapsody", Album: "A Night at the Opera"},
	})

	tests := []struct {
		name   string
		artist string
		title  string
		wantID string
	}{
		{"exact case", "Queen", "Bohemian Rhapsody", "t1"},
		{"lower case", "queen", "bohemian rhapsody", "t1"},
		{"upper case", "QUEEN", "BOHEMIAN RHAPSODY", "t1"},
		{"wrong artist", "Toto", "Bohemian Rhapsody", ""},
		{"partial title", "Queen", "Bohemian", ""},
		{"blank artist", "", "Bohemian Rhapsody", ""},
		{"blank title", "Queen", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.FindExact(ctx, tt.artist, tt.title)
			if err != nil {
				t.Fatalf("FindExact error: %v", err)
			}
			if tt.wantID == "" {
				if got != nil {
					t.Errorf("FindExact = %+v, want nil", got)
				}
				return
			}
			if got == nil || got.ID != tt.wantID {
				t.Errorf("FindExact = %+v, want %s", got, tt.wantID)
			}
		})
	}
}

func TestTrackByID(t *testing.T) {
	ctx := context.Background()
	c := testCatalog(t, []Track{
		{ID: "t1", Artist: "Queen", Title: "Bohemian Rhapsody", Album: "A Night at the Opera"},
	})

	got, err := c.TrackByID(ctx, "t1")
	if err != nil {
		t.Fatalf("TrackByID error: %v", err)
	}
	if got == nil || got.Album != "A Night at the Opera" {
		t.Errorf("TrackByID = %+v, want the full track row", got)
	}

	got, err = c.TrackByID(ctx, "missing")
	if err != nil {
		t.Fatalf("TrackByID error: %v", err)
	}
	if got != nil {
		t.Errorf("TrackByID(missing) = %+v, want nil", got)
	}
}

func TestFindByTitleExactBeforePrefix(t *testing.T) {
	ctx := context.Background()
	c := testCatalog(t, []Track{
		{ID: "t1", Artist: "The Beatles", Title: "Hey Jude"},
		{ID: "t2", Artist: "The Beatles", Title: "Hey Jude - Live"},
		{ID: "t3", Artist: "Wilco", Title: "Hey Jude (cover)"},
	})

	got, err := c.FindByTitle(ctx, "hey jude", 10)
	if err != nil {
		t.Fatalf("FindByTitle error: %v", err)
	}

	// All three titles start with "hey jude", exact match first.
	if len(got) != 3 {
		t.Fatalf("FindByTitle returned %d tracks, want 3: %v", len(got), trackIDs(got))
	}
	if got[0].ID != "t1" {
		t.Errorf("first result = %s, want exact match t1", got[0].ID)
	}
}

func TestFindByTitleShorterTitleWins(t *testing.T) {
	ctx := context.Background()
	c := testCatalog(t, []Track{
		{ID: "t1", Artist: "Queen", Title: "Bohemian Rhapsody - Remastered 2011"},
		{ID: "t2", Artist: "Queen", Title: "Bohemian Rhapsody - Live"},
	})

	got, err := c.FindByTitle(ctx, "bohemian rhapsody", 10)
	if err != nil {
		t.Fatalf("FindByTitle error: %v", err)
	}
	if len(got) != 2 || got[0].ID != "t2" {
		t.Errorf("FindByTitle order = %v, want shorter title (t2) first", trackIDs(got))
	}
}

func TestFindByTitleNoSubstringMatches(t *testing.T) {
	ctx := context.Background()
	c := testCatalog(t, []Track{
		{ID: "t1", Artist: "The Beatles", Title: "Hey Jude"},
		{ID: "t2", Artist: "Someone", Title: "Not Hey Jude"},
	})

	got, err := c.FindByTitle(ctx, "hey jude", 10)
	if err != nil {
		t.Fatalf("FindByTitle error: %v", err)
	}
	// Prefix only: "Not Hey Jude" must not appear.
	if len(got) != 1 || got[0].ID != "t1" {
		t.Errorf("FindByTitle = %v, want [t1]", trackIDs(got))
	}
}

func TestFindByTitleEscapesWildcards(t *testing.T) {
	ctx := context.Background()
	c := testCatalog(t, []Track{
		{ID: "t1", Artist: "Prince", Title: "100% Pure"},
		{ID: "t2", Artist: "Prince", Title: "1000 Ways"},
	})

	got, err := c.FindByTitle(ctx, "100%", 10)
	if err != nil {
		t.Fatalf("FindByTitle error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "t1" {
		t.Errorf("FindByTitle = %v, want only the literal %% match", trackIDs(got))
	}
}

func TestFindFuzzyTiers(t *testing.T) {
	ctx := context.Background()
	c := testCatalog(t, []Track{
		{ID: "exact", Artist: "Queen", Title: "Bohemian Rhapsody"},
		{ID: "prefix", Artist: "Queen", Title: "Bohemian Rhapsody - Live Aid"},
		{ID: "substr", Artist: "Queen", Title: "The Bohemian Rhapsody Story"},
		{ID: "artist-sub", Artist: "Queensryche", Title: "Bohemian Rhapsody"},
	})

	got, err := c.FindFuzzy(ctx, "queen", "bohemian rhapsody", 10)
	if err != nil {
		t.Fatalf("FindFuzzy error: %v", err)
	}

	want := []string{"exact", "prefix", "substr", "artist-sub"}
	if len(got) != len(want) {
		t.Fatalf("FindFuzzy returned %v, want %v", trackIDs(got), want)
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("FindFuzzy order = %v, want %v", trackIDs(got), want)
		}
	}
}

func TestFindFuzzyConjunctive(t *testing.T) {
	ctx := context.Background()
	c := testCatalog(t, []Track{
		{ID: "t1", Artist: "Queen", Title: "Bohemian Rhapsody"},
		{ID: "t2", Artist: "Queen", Title: "Under Pressure"},
		{ID: "t3", Artist: "Toto", Title: "Bohemian Rhapsody"},
	})

	// Artist matches but title doesn't, and vice versa: both excluded.
	got, err := c.FindFuzzy(ctx, "queen", "bohemian", 10)
	if err != nil {
		t.Fatalf("FindFuzzy error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "t1" {
		t.Errorf("FindFuzzy = %v, want [t1] only", trackIDs(got))
	}
}

func TestFindFuzzyBlankInputs(t *testing.T) {
	ctx := context.Background()
	c := testCatalog(t, []Track{{ID: "t1", Artist: "Queen", Title: "Bohemian Rhapsody"}})

	got, err := c.FindFuzzy(ctx, "", "Bohemian Rhapsody", 10)
	if err != nil {
		t.Fatalf("FindFuzzy error: %v", err)
	}
	if got != nil {
		t.Errorf("FindFuzzy with blank artist = %v, want nil", trackIDs(got))
	}
}

func TestIngestAccumulatesOccurrences(t *testing.T) {
	ctx := context.Background()
	c := testCatalog(t, nil)

	batch := []Track{
		{ID: "t1", Artist: "Toto", Title: "Africa"},
		{ID: "t1", Artist: "Toto", Title: "Africa"},
		{ID: "t2", Artist: "Queen", Title: "Bohemian Rhapsody"},
		{ID: "", Artist: "Nobody", Title: "Skipped"},
	}
	n, err := c.Ingest(ctx, batch)
	if err != nil {
		t.Fatalf("Ingest error: %v", err)
	}
	if n != 3 {
		t.Errorf("Ingest recorded %d occurrences, want 3", n)
	}

	count, err := c.OccurrenceCount(ctx, "t1")
	if err != nil {
		t.Fatalf("OccurrenceCount error: %v", err)
	}
	if count != 2 {
		t.Errorf("OccurrenceCount(t1) = %d, want 2", count)
	}

	count, err = c.OccurrenceCount(ctx, "missing")
	if err != nil {
		t.Fatalf("OccurrenceCount error: %v", err)
	}
	if count != 0 {
		t.Errorf("OccurrenceCount(missing) = %d, want 0", count)
	}
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	c := testCatalog(t, []Track{
		{ID: "t1", Artist: "Toto", Title: "Africa", Album: "Toto IV"},
		{ID: "t2", Artist: "Toto", Title: "Rosanna", Album: "Toto IV"},
		{ID: "t3", Artist: "Queen", Title: "Bohemian Rhapsody", Album: "A Night at the Opera"},
	})

	stats, err := c.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats error: %v", err)
	}
	if stats.TotalTracks != 3 || stats.TotalArtists != 2 || stats.TotalAlbums != 2 {
		t.Errorf("Stats = %+v, want 3 tracks, 2 artists, 2 albums", stats)
	}
}

func TestArtistQueries(t *testing.T) {
	ctx := context.Background()
	c := testCatalog(t, []Track{
		{ID: "t1", Artist: "Toto", Title: "Africa", Album: "Toto IV"},
		{ID: "t1", Artist: "Toto", Title: "Africa", Album: "Toto IV"},
		{ID: "t2", Artist: "Toto", Title: "Rosanna", Album: "Toto IV"},
		{ID: "t3", Artist: "Toto", Title: "Hold the Line", Album: "Toto"},
	})

	count, err := c.CountByArtist(ctx, "toto")
	if err != nil {
		t.Fatalf("CountByArtist error: %v", err)
	}
	if count != 3 {
		t.Errorf("CountByArtist = %d, want 3", count)
	}

	albums, err := c.AlbumsByArtist(ctx, "Toto")
	if err != nil {
		t.Fatalf("AlbumsByArtist error: %v", err)
	}
	if len(albums) != 2 {
		t.Errorf("AlbumsByArtist = %v, want 2 albums", albums)
	}

	top, err := c.TopTracksByArtist(ctx, "Toto", 2)
	if err != nil {
		t.Fatalf("TopTracksByArtist error: %v", err)
	}
	if len(top) != 2 || top[0].ID != "t1" {
		t.Errorf("TopTracksByArtist = %v, want t1 (most occurrences) first", trackIDs(top))
	}
}

func TestSuggestTitles(t *testing.T) {
	ctx := context.Background()
	c := testCatalog(t, []Track{
		{ID: "t1", Artist: "Toto", Title: "Africa"},
		{ID: "t2", Artist: "Queen", Title: "Bohemian Rhapsody"},
	})

	got, err := c.SuggestTitles(ctx, "Afrika", 3)
	if err != nil {
		t.Fatalf("SuggestTitles error: %v", err)
	}
	if len(got) != 1 || got[0] != "Africa" {
		t.Errorf("SuggestTitles = %v, want [Africa]", got)
	}

	got, err = c.SuggestTitles(ctx, "zzzzzz", 3)
	if err != nil {
		t.Fatalf("SuggestTitles error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("SuggestTitles for distant query = %v, want none", got)
	}
}
