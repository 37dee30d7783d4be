package resolver

import (
	"context"

	"musiccrs/internal/catalog"
	"musiccrs/internal/metrics"
	"musiccrs/internal/ranking"
)

// Outcome classifies a resolution result.
type Outcome int

const (
	// OutcomeUnique means exactly one track matched.
	OutcomeUnique Outcome = iota
	// OutcomeEmpty means nothing matched.
	OutcomeEmpty
	// OutcomeAmbiguous means multiple tracks matched and the caller
	// must ask the user to pick one.
	OutcomeAmbiguous
)

func (o Outcome) String() string {
	switch o {
	case OutcomeUnique:
		return "unique"
	case OutcomeEmpty:
		return "empty"
	case OutcomeAmbiguous:
		return "ambiguous"
	default:
		return "unknown"
	}
}

// Resolution is the result of resolving a track reference. On
// OutcomeUnique, Track is set. On OutcomeAmbiguous, Candidates holds
// the full ordered match list and Total its length; callers cap the
// list for display but selections index into the full list.
type Resolution struct {
	Outcome    Outcome
	Track      *catalog.Track
	Candidates []catalog.Track
	Total      int
}

// Engine turns user track references into catalog tracks. It is
// stateless; disambiguation state lives with the caller.
type Engine struct {
	catalog     *catalog.Catalog
	ranker      *ranking.Ranker
	searchLimit int
}

// New creates an Engine. searchLimit bounds how many candidates a
// single lookup retrieves from the catalog.
func New(cat *catalog.Catalog, ranker *ranking.Ranker, searchLimit int) *Engine {
	if searchLimit < 1 {
		searchLimit = 60
	}
	return &Engine{catalog: cat, ranker: ranker, searchLimit: searchLimit}
}

// ResolveForAdd resolves a raw reference typed after an add command.
// existingArtists holds lowercased artists already on the target
// playlist; it only influences ordering for title-only references.
func (e *Engine) ResolveForAdd(ctx context.Context, raw string, existingArtists map[string]bool) (Resolution, error) {
	ref, err := ParseReference(raw)
	if err != nil {
		return Resolution{}, err
	}

	var res Resolution
	if ref.TitleOnly {
		res, err = e.resolveTitleOnly(ctx, ref.Title, existingArtists)
	} else {
		res, err = e.resolveArtistTitle(ctx, ref.Artist, ref.Title)
	}
	if err != nil {
		return Resolution{}, err
	}

	metrics.ResolutionsTotal.WithLabelValues("add", res.Outcome.String()).Inc()
	return res, nil
}

// ResolveForQuestion resolves the track a question refers to. A blank
// artist degrades to a title-only lookup without the existing-artist
// boost; otherwise exact lookup falls back to fuzzy search.
func (e *Engine) ResolveForQuestion(ctx context.Context, artist, title string) (Resolution, error) {
	ref, err := newReference(artist, title)
	if err != nil {
		return Resolution{}, err
	}

	var res Resolution
	if ref.TitleOnly {
		res, err = e.resolveTitleOnly(ctx, ref.Title, nil)
	} else {
		res, err = e.resolveArtistTitle(ctx, ref.Artist, ref.Title)
	}
	if err != nil {
		return Resolution{}, err
	}

	metrics.ResolutionsTotal.WithLabelValues("question", res.Outcome.String()).Inc()
	return res, nil
}

// resolveArtistTitle tries an exact match first, then the tiered fuzzy
// search. Fuzzy results keep the catalog's relevance-tier order.
func (e *Engine) resolveArtistTitle(ctx context.Context, artist, title string) (Resolution, error) {
	track, err := e.catalog.FindExact(ctx, artist, title)
	if err != nil {
		return Resolution{}, err
	}
	if track != nil {
		return Resolution{Outcome: OutcomeUnique, Track: track, Total: 1}, nil
	}

	matches, err := e.catalog.FindFuzzy(ctx, artist, title, e.searchLimit)
	if err != nil {
		return Resolution{}, err
	}
	return fromMatches(matches), nil
}

// resolveTitleOnly searches by title and ranks the matches.
func (e *Engine) resolveTitleOnly(ctx context.Context, title string, existingArtists map[string]bool) (Resolution, error) {
	matches, err := e.catalog.FindByTitle(ctx, title, e.searchLimit)
	if err != nil {
		return Resolution{}, err
	}
	if len(matches) > 1 {
		matches = e.ranker.Rank(ctx, matches, existingArtists)
	}
	return fromMatches(matches), nil
}

func fromMatches(matches []catalog.Track) Resolution {
	switch len(matches) {
	case 0:
		return Resolution{Outcome: OutcomeEmpty}
	case 1:
		return Resolution{Outcome: OutcomeUnique, Track: &matches[0], Total: 1}
	default:
		return Resolution{Outcome: OutcomeAmbiguous, Candidates: matches, Total: len(matches)}
	}
}
