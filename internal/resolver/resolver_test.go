package resolver

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"musiccrs/internal/catalog"
	"musiccrs/internal/popularity"
	"musiccrs/internal/ranking"
)

func testEngine(t *testing.T, tracks []catalog.Track) *Engine {
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
	return New(cat, ranking.New(cat, popularity.Noop{}, 0), 60)
}

func TestResolveForAddExactMatch(t *testing.T) {
	ctx := context.Background()
	e := testEngine(t, []catalog.Track{
		{ID: "t1", Artist: "Queen", Title: "Bohemian Rhapsody", Album: "A Night at the Opera"},
		{ID: "t2", Artist: "Queen", Title: "Bohemian Rhapsody - Live Aid"},
	})

	// Exact equality beats the live variant regardless of letter case.
	for _, input := range []string{
		"Queen: Bohemian Rhapsody",
		"queen: bohemian rhapsody",
		"QUEEN: BOHEMIAN RHAPSODY",
		"Bohemian Rhapsody by Queen",
		"Queen - Bohemian Rhapsody",
	} {
		res, err := e.ResolveForAdd(ctx, input, nil)
		if err != nil {
			t.Fatalf("ResolveForAdd(%q) error: %v", input, err)
		}
		if res.Outcome != OutcomeUnique {
			t.Fatalf("ResolveForAdd(%q) outcome = %v, want unique", input, res.Outcome)
		}
		if res.Track.ID != "t1" {
			t.Errorf("ResolveForAdd(%q) track = %s, want t1", input, res.Track.ID)
		}
	}
}

func TestResolveForAddFuzzyFallback(t *testing.T) {
	ctx := context.Background()
	e := testEngine(t, []catalog.Track{
		{ID: "t1", Artist: "Queen", Title: "Bohemian Rhapsody - Remastered 2011"},
	})

	res, err := e.ResolveForAdd(ctx, "Queen: Bohemian Rhapsody", nil)
	if err != nil {
		t.Fatalf("ResolveForAdd error: %v", err)
	}
	if res.Outcome != OutcomeUnique || res.Track.ID != "t1" {
		t.Errorf("ResolveForAdd = %v/%v, want unique t1", res.Outcome, res.Track)
	}
}

func TestResolveForAddAmbiguous(t *testing.T) {
	ctx := context.Background()
	e := testEngine(t, []catalog.Track{
		{ID: "t1", Artist: "Queen", Title: "Bohemian Rhapsody - Remastered 2011"},
		{ID: "t2", Artist: "Queen", Title: "Bohemian Rhapsody - Live Aid"},
	})

	res, err := e.ResolveForAdd(ctx, "Queen: Bohemian Rhapsody", nil)
	if err != nil {
		t.Fatalf("ResolveForAdd error: %v", err)
	}
	if res.Outcome != OutcomeAmbiguous {
		t.Fatalf("outcome = %v, want ambiguous", res.Outcome)
	}
	if res.Total != 2 || len(res.Candidates) != 2 {
		t.Errorf("total = %d, candidates = %d, want 2 and 2", res.Total, len(res.Candidates))
	}
}

func TestResolveForAddEmpty(t *testing.T) {
	ctx := context.Background()
	e := testEngine(t, []catalog.Track{
		{ID: "t1", Artist: "Queen", Title: "Bohemian Rhapsody"},
	})

	res, err := e.ResolveForAdd(ctx, "Nobody: Nothing At All", nil)
	if err != nil {
		t.Fatalf("ResolveForAdd error: %v", err)
	}
	if res.Outcome != OutcomeEmpty {
		t.Errorf("outcome = %v, want empty", res.Outcome)
	}
}

func TestResolveForAddInvalidReference(t *testing.T) {
	ctx := context.Background()
	e := testEngine(t, nil)

	if _, err := e.ResolveForAdd(ctx, "Queen:", nil); !errors.Is(err, ErrInvalidReference) {
		t.Errorf("error = %v, want ErrInvalidReference", err)
	}
}

func TestResolveTitleOnlyExactBeforePrefix(t *testing.T) {
	ctx := context.Background()
	e := testEngine(t, []catalog.Track{
		{ID: "t1", Artist: "The Beatles", Title: "Hey Jude"},
		{ID: "t2", Artist: "The Beatles", Title: "Hey Jude - Live"},
	})

	res, err := e.ResolveForAdd(ctx, "hey jude", nil)
	if err != nil {
		t.Fatalf("ResolveForAdd error: %v", err)
	}
	if res.Outcome != OutcomeAmbiguous {
		t.Fatalf("outcome = %v, want ambiguous", res.Outcome)
	}
	if res.Total != 2 {
		t.Fatalf("total = %d, want 2", res.Total)
	}
}

func TestResolveTitleOnlyExistingArtistBoost(t *testing.T) {
	ctx := context.Background()
	e := testEngine(t, []catalog.Track{
		{ID: "t1", Artist: "Aerosmith", Title: "Crazy"},
		{ID: "t2", Artist: "Seal", Title: "Crazy"},
	})

	res, err := e.ResolveForAdd(ctx, "Crazy", map[string]bool{"seal": true})
	if err != nil {
		t.Fatalf("ResolveForAdd error: %v", err)
	}
	if res.Outcome != OutcomeAmbiguous {
		t.Fatalf("outcome = %v, want ambiguous", res.Outcome)
	}
	if res.Candidates[0].ID != "t2" {
		t.Errorf("first candidate = %s, want t2 (existing artist)", res.Candidates[0].ID)
	}
}

func TestResolveForQuestion(t *testing.T) {
	ctx := context.Background()
	e := testEngine(t, []catalog.Track{
		{ID: "t1", Artist: "The Beatles", Title: "Hey Jude", Album: "Past Masters"},
		{ID: "t2", Artist: "The Beatles", Title: "Hey Jude - Live"},
	})

	res, err := e.ResolveForQuestion(ctx, "The Beatles", "Hey Jude")
	if err != nil {
		t.Fatalf("ResolveForQuestion error: %v", err)
	}
	if res.Outcome != OutcomeUnique || res.Track.ID != "t1" {
		t.Errorf("ResolveForQuestion = %v, want unique t1", res.Outcome)
	}

	// A blank artist degrades to a title-only lookup.
	res, err = e.ResolveForQuestion(ctx, "", "Hey Jude")
	if err != nil {
		t.Fatalf("ResolveForQuestion error: %v", err)
	}
	if res.Outcome != OutcomeAmbiguous || res.Total != 2 {
		t.Errorf("ResolveForQuestion blank artist = %v total %d, want ambiguous with 2", res.Outcome, res.Total)
	}
}
