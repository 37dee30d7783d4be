package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"
)

// maxSuggestDistance is the largest edit distance still offered as a
// "did you mean" suggestion.
const maxSuggestDistance = 3

// suggestScanCap bounds how many candidate titles are pulled from the
// database for distance scoring.
const suggestScanCap = 2000

// SuggestTitles returns up to limit catalog titles closest to query by edit
// distance, for "did you mean" hints after an empty resolution. Only titles
// within maxSuggestDistance qualify; candidates are pre-filtered by length
// so the edit distance can plausibly stay within that bound.
func (c *Catalog) SuggestTitles(ctx context.Context, query string, limit int) ([]string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if limit < 1 {
		limit = 3
	}

	start := time.Now()
	var err error
	defer func() { recordQuery("suggest_titles", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := c.db.QueryContext(ctx, `
		SELECT DISTINCT title FROM tracks
		WHERE length(title) BETWEEN ? AND ?
		LIMIT ?
	`, len(query)-maxSuggestDistance, len(query)+maxSuggestDistance, suggestScanCap)
	if err != nil {
		return nil, fmt.Errorf("suggestion scan failed: %w", err)
	}
	defer rows.Close()

	type scored struct {
		title    string
		distance int
	}
	lowered := strings.ToLower(query)
	var candidates []scored
	for rows.Next() {
		var title string
		if err = rows.Scan(&title); err != nil {
			return nil, fmt.Errorf("suggestion scan failed: %w", err)
		}
		d := levenshtein.ComputeDistance(lowered, strings.ToLower(title))
		if d > 0 && d <= maxSuggestDistance {
			candidates = append(candidates, scored{title: title, distance: d})
		}
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("suggestion rows error: %w", err)
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].distance != candidates[j].distance {
			return candidates[i].distance < candidates[j].distance
		}
		return candidates[i].title < candidates[j].title
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	titles := make([]string, 0, len(candidates))
	for _, c := range candidates {
		titles = append(titles, c.title)
	}
	return titles, nil
}
