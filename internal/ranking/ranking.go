package ranking

import (
	"context"
	"sort"
	"strings"
	"sync"

	"musiccrs/internal/catalog"
	"musiccrs/internal/logging"
	"musiccrs/internal/popularity"
	"musiccrs/internal/workers"
)

// Ranker orders candidate tracks by relevance. The ordering combines
// three signals, strongest first:
//
//  1. Tracks by an artist already on the active playlist (only when the
//     caller supplies existing artists, i.e. title-only lookups).
//  2. A relevance score: 10x the corpus occurrence count plus the
//     external popularity score. The heavy weight on occurrences keeps
//     the corpus signal dominant; external popularity breaks ties
//     between tracks the corpus has seen equally often.
//  3. Artist, then title, ascending, for a deterministic order.
type Ranker struct {
	catalog  *catalog.Catalog
	provider popularity.Provider
	budget   int
}

// New creates a Ranker. budget caps how many candidates get an external
// popularity lookup per call; the rest score on corpus occurrences alone.
func New(cat *catalog.Catalog, provider popularity.Provider, budget int) *Ranker {
	if provider == nil {
		provider = popularity.Noop{}
	}
	if budget < 0 {
		budget = 0
	}
	return &Ranker{catalog: cat, provider: provider, budget: budget}
}

// Rank returns the tracks in relevance order. existingArtists holds the
// lowercased names of artists already on the caller's playlist; pass nil
// to disable the existing-artist boost. The input slice is not modified.
func (r *Ranker) Rank(ctx context.Context, tracks []catalog.Track, existingArtists map[string]bool) []catalog.Track {
	if len(tracks) <= 1 {
		out := make([]catalog.Track, len(tracks))
		copy(out, tracks)
		return out
	}

	occ := make([]int, len(tracks))
	for i, t := range tracks {
		n, err := r.catalog.OccurrenceCount(ctx, t.ID)
		if err != nil {
			logging.Debug("Rank: occurrence count for %q failed: %v", t.ID, err)
			n = 0
		}
		occ[i] = n
	}

	pop := r.fetchPopularity(ctx, tracks, occ)

	score := make([]int, len(tracks))
	boosted := make([]bool, len(tracks))
	for i, t := range tracks {
		score[i] = 10*occ[i] + pop[i]
		boosted[i] = existingArtists[strings.ToLower(t.Artist)]
	}

	idx := make([]int, len(tracks))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		i, j := idx[a], idx[b]
		if boosted[i] != boosted[j] {
			return boosted[i]
		}
		if score[i] != score[j] {
			return score[i] > score[j]
		}
		if ai, aj := strings.ToLower(tracks[i].Artist), strings.ToLower(tracks[j].Artist); ai != aj {
			return ai < aj
		}
		return strings.ToLower(tracks[i].Title) < strings.ToLower(tracks[j].Title)
	})

	ranked := make([]catalog.Track, len(tracks))
	for i, j := range idx {
		ranked[i] = tracks[j]
	}
	return ranked
}

// fetchPopularity looks up external popularity for the budget candidates
// the corpus already considers strongest. Lookups run concurrently; a
// failed or skipped lookup contributes zero.
func (r *Ranker) fetchPopularity(ctx context.Context, tracks []catalog.Track, occ []int) []int {
	pop := make([]int, len(tracks))
	if r.budget == 0 {
		return pop
	}
	if _, noop := r.provider.(popularity.Noop); noop {
		return pop
	}

	order := make([]int, len(tracks))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return occ[order[a]] > occ[order[b]]
	})

	n := r.budget
	if n > len(order) {
		n = len(order)
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, workers.ForIO(n))
	for _, i := range order[:n] {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			pop[i] = r.provider.TrackPopularity(ctx, tracks[i].Artist, tracks[i].Title)
		}(i)
	}
	wg.Wait()
	return pop
}
