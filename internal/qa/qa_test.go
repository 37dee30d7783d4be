package qa

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"musiccrs/internal/catalog"
	"musiccrs/internal/popularity"
	"musiccrs/internal/ranking"
	"musiccrs/internal/resolver"
)

func testService(t *testing.T) *Service {
	t.Helper()
	ctx := context.Background()

	cat, err := catalog.Open(ctx, filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("failed to open catalog: %v", err)
	}
	t.Cleanup(func() { cat.Close() })

	tracks := []catalog.Track{
		{ID: "t1", Artist: "Toto", Title: "Africa", Album: "Toto IV"},
		{ID: "t2", Artist: "Toto", Title: "Rosanna", Album: "Toto IV"},
		{ID: "t3", Artist: "Toto", Title: "Hold the Line", Album: "Toto"},
		{ID: "t4", Artist: "The Beatles", Title: "Hey Jude", Album: "Past Masters"},
		{ID: "t5", Artist: "The Beatles", Title: "Hey Jude - Live"},
	}
	if _, err := cat.Ingest(ctx, tracks); err != nil {
		t.Fatalf("failed to ingest tracks: %v", err)
	}

	engine := resolver.New(cat, ranking.New(cat, popularity.Noop{}, 0), 60)
	return New(cat, engine)
}

func TestAnswerTrackAlbum(t *testing.T) {
	ctx := context.Background()
	s := testService(t)

	res, matched, err := s.Answer(ctx, "what album is Africa by Toto on?")
	if err != nil {
		t.Fatalf("Answer error: %v", err)
	}
	if !matched {
		t.Fatal("question should match the album template")
	}
	if !strings.Contains(res.Text, "Toto IV") {
		t.Errorf("answer = %q, want mention of Toto IV", res.Text)
	}
}

func TestAnswerTrackArtist(t *testing.T) {
	ctx := context.Background()
	s := testService(t)

	res, matched, err := s.Answer(ctx, "who sings Rosanna?")
	if err != nil {
		t.Fatalf("Answer error: %v", err)
	}
	if !matched {
		t.Fatal("question should match the artist template")
	}
	if !strings.Contains(res.Text, "Toto") {
		t.Errorf("answer = %q, want mention of Toto", res.Text)
	}
}

func TestAnswerAmbiguousHandsBackPending(t *testing.T) {
	ctx := context.Background()
	s := testService(t)

	res, matched, err := s.Answer(ctx, "who sings Hey Jude?")
	if err != nil {
		t.Fatalf("Answer error: %v", err)
	}
	if !matched {
		t.Fatal("question should match the artist template")
	}
	if res.Pending == nil {
		t.Fatal("ambiguous title should hand back a pending question")
	}
	if res.Pending.Template != TemplateTrackArtist {
		t.Errorf("pending template = %q, want track_artist", res.Pending.Template)
	}
	if res.Pending.Resolution.Total != 2 {
		t.Errorf("pending total = %d, want 2", res.Pending.Resolution.Total)
	}
}

func TestAnswerTrackNotFound(t *testing.T) {
	ctx := context.Background()
	s := testService(t)

	res, matched, err := s.Answer(ctx, "who sings Nonexistent Song Title?")
	if err != nil {
		t.Fatalf("Answer error: %v", err)
	}
	if !matched {
		t.Fatal("question should match the artist template")
	}
	if !strings.Contains(res.Text, "couldn't find") {
		t.Errorf("answer = %q, want a not-found message", res.Text)
	}
}

func TestAnswerArtistQuestions(t *testing.T) {
	ctx := context.Background()
	s := testService(t)

	tests := []struct {
		question string
		want     string
	}{
		{"how many songs does Toto have?", "3 tracks"},
		{"what albums does Toto have?", "Toto IV"},
		{"what are the top songs by Toto?", "Top tracks"},
	}

	for _, tt := range tests {
		res, matched, err := s.Answer(ctx, tt.question)
		if err != nil {
			t.Fatalf("Answer(%q) error: %v", tt.question, err)
		}
		if !matched {
			t.Fatalf("Answer(%q) did not match any template", tt.question)
		}
		if !strings.Contains(res.Text, tt.want) {
			t.Errorf("Answer(%q) = %q, want substring %q", tt.question, res.Text, tt.want)
		}
	}
}

func TestAnswerUnmatchedQuestion(t *testing.T) {
	ctx := context.Background()
	s := testService(t)

	_, matched, err := s.Answer(ctx, "what is the meaning of life?")
	if err != nil {
		t.Fatalf("Answer error: %v", err)
	}
	if matched {
		t.Error("unrelated question should not match any template")
	}
}

func TestFormatAnswerAfterSelection(t *testing.T) {
	ctx := context.Background()
	s := testService(t)

	text, err := s.FormatAnswer(ctx, TemplateTrackArtist, catalog.Track{
		ID: "t4", Artist: "The Beatles", Title: "Hey Jude",
	})
	if err != nil {
		t.Fatalf("FormatAnswer error: %v", err)
	}
	if !strings.Contains(text, "The Beatles") {
		t.Errorf("answer = %q, want mention of The Beatles", text)
	}
}
