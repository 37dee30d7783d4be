package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// FindExact returns the track whose artist and title both match the query
// case-insensitively, or nil when there is no such track. Blank inputs after
// trimming yield nil without touching the database.
func (c *Catalog) FindExact(ctx context.Context, artist, title string) (*Track, error) {
	artist = strings.TrimSpace(artist)
	title = strings.TrimSpace(title)
	if artist == "" || title == "" {
		return nil, nil
	}

	start := time.Now()
	var err error
	defer func() { recordQuery("find_exact", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	row := c.db.QueryRowContext(ctx, `
		SELECT track_id, artist, title, album
		FROM tracks
		WHERE lower(artist) = ? AND lower(title) = ?
		LIMIT 1
	`, strings.ToLower(artist), strings.ToLower(title))

	t, scanErr := scanTrack(row)
	if scanErr != nil {
		if errors.Is(scanErr, sql.ErrNoRows) {
			return nil, nil
		}
		err = scanErr
		return nil, fmt.Errorf("exact lookup failed: %w", scanErr)
	}
	return t, nil
}

// TrackByID returns the track with the given identifier, or nil.
func (c *Catalog) TrackByID(ctx context.Context, id string) (*Track, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("track_by_id", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	row := c.db.QueryRowContext(ctx, `
		SELECT track_id, artist, title, album
		FROM tracks
		WHERE track_id = ?
	`, id)

	t, scanErr := scanTrack(row)
	if scanErr != nil {
		if errors.Is(scanErr, sql.ErrNoRows) {
			return nil, nil
		}
		err = scanErr
		return nil, fmt.Errorf("id lookup failed: %w", scanErr)
	}
	return t, nil
}

// FindByTitle matches tracks whose lowered title equals the query or starts
// with it. Exact matches sort before prefix matches; ties break on shorter
// title so the canonical song outranks "Title - Remastered" variants.
func (c *Catalog) FindByTitle(ctx context.Context, title string, limit int) ([]Track, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, nil
	}
	if limit < 1 {
		limit = 20
	}

	start := time.Now()
	var err error
	defer func() { recordQuery("find_by_title", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	lowered := strings.ToLower(title)
	rows, err := c.db.QueryContext(ctx, `
		SELECT track_id, artist, title, album, 0 AS priority, length(title) AS title_len
		FROM tracks WHERE lower(title) = ?
		UNION
		SELECT track_id, artist, title, album, 1 AS priority, length(title) AS title_len
		FROM tracks WHERE lower(title) LIKE ? ESCAPE '\' AND lower(title) != ?
		ORDER BY priority, title_len ASC, artist ASC
		LIMIT ?
	`, lowered, escapeLike(lowered)+"%", lowered, limit)
	if err != nil {
		return nil, fmt.Errorf("title search failed: %w", err)
	}
	defer rows.Close()

	var out []Track
	for rows.Next() {
		var t Track
		var album sql.NullString
		var priority, titleLen int
		if err = rows.Scan(&t.ID, &t.Artist, &t.Title, &album, &priority, &titleLen); err != nil {
			return nil, fmt.Errorf("title search scan failed: %w", err)
		}
		if album.Valid {
			t.Album = album.String
		}
		out = append(out, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("title search rows error: %w", err)
	}
	return out, nil
}

// FindFuzzy performs the tiered artist+title relevance search. Both fields
// must match at least as a substring (conjunctive filter); results order by
// (artist tier, title tier, title length), where artist tiers are
// exact < substring and title tiers are exact < prefix < substring.
func (c *Catalog) FindFuzzy(ctx context.Context, artist, title string, limit int) ([]Track, error) {
	artist = strings.TrimSpace(artist)
	title = strings.TrimSpace(title)
	if artist == "" || title == "" {
		return nil, nil
	}
	if limit < 1 {
		limit = 10
	}

	start := time.Now()
	var err error
	defer func() { recordQuery("find_fuzzy", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	artistLower := strings.ToLower(artist)
	titleLower := strings.ToLower(title)
	artistSub := "%" + escapeLike(artistLower) + "%"
	titlePrefix := escapeLike(titleLower) + "%"
	titleSub := "%" + escapeLike(titleLower) + "%"

	rows, err := c.db.QueryContext(ctx, `
		SELECT track_id, artist, title, album,
			CASE
				WHEN lower(artist) = ? THEN 0
				WHEN lower(artist) LIKE ? ESCAPE '\' THEN 1
				ELSE 2
			END AS artist_tier,
			CASE
				WHEN lower(title) = ? THEN 0
				WHEN lower(title) LIKE ? ESCAPE '\' THEN 1
				WHEN lower(title) LIKE ? ESCAPE '\' THEN 2
				ELSE 3
			END AS title_tier,
			length(title) AS title_len
		FROM tracks
		WHERE (lower(artist) = ? OR lower(artist) LIKE ? ESCAPE '\')
		  AND (lower(title) = ? OR lower(title) LIKE ? ESCAPE '\')
		ORDER BY artist_tier ASC, title_tier ASC, title_len ASC, artist ASC, title ASC
		LIMIT ?
	`,
		artistLower, artistSub,
		titleLower, titlePrefix, titleSub,
		artistLower, artistSub,
		titleLower, titleSub,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("fuzzy search failed: %w", err)
	}
	defer rows.Close()

	var out []Track
	for rows.Next() {
		var t Track
		var album sql.NullString
		var artistTier, titleTier, titleLen int
		if err = rows.Scan(&t.ID, &t.Artist, &t.Title, &album, &artistTier, &titleTier, &titleLen); err != nil {
			return nil, fmt.Errorf("fuzzy search scan failed: %w", err)
		}
		if album.Valid {
			t.Album = album.String
		}
		out = append(out, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("fuzzy search rows error: %w", err)
	}
	return out, nil
}

// OccurrenceCount returns how many times the track identifier appeared in
// the source corpus the catalog was built from. Unknown identifiers count 0.
func (c *Catalog) OccurrenceCount(ctx context.Context, id string) (int, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("occurrence_count", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var count int
	err = c.db.QueryRowContext(ctx, `
		SELECT occurrences FROM tracks WHERE track_id = ?
	`, id).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		err = nil
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("occurrence lookup failed: %w", err)
	}
	return count, nil
}

// CountByArtist returns the number of catalog tracks credited to artist.
func (c *Catalog) CountByArtist(ctx context.Context, artist string) (int, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("count_by_artist", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var count int
	err = c.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM tracks WHERE lower(artist) = ?
	`, strings.ToLower(strings.TrimSpace(artist))).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("artist count failed: %w", err)
	}
	return count, nil
}

// AlbumsByArtist returns the distinct known albums for artist, sorted.
func (c *Catalog) AlbumsByArtist(ctx context.Context, artist string) ([]string, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("albums_by_artist", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := c.db.QueryContext(ctx, `
		SELECT DISTINCT album FROM tracks
		WHERE lower(artist) = ? AND album IS NOT NULL AND album != ''
		ORDER BY album
	`, strings.ToLower(strings.TrimSpace(artist)))
	if err != nil {
		return nil, fmt.Errorf("album listing failed: %w", err)
	}
	defer rows.Close()

	var albums []string
	for rows.Next() {
		var a string
		if err = rows.Scan(&a); err != nil {
			return nil, fmt.Errorf("album scan failed: %w", err)
		}
		albums = append(albums, a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("album rows error: %w", err)
	}
	return albums, nil
}

// TopTracksByArtist returns up to limit tracks by artist ordered by corpus
// occurrence count, then title.
func (c *Catalog) TopTracksByArtist(ctx context.Context, artist string, limit int) ([]Track, error) {
	if limit < 1 {
		limit = 10
	}

	start := time.Now()
	var err error
	defer func() { recordQuery("top_tracks_by_artist", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := c.db.QueryContext(ctx, `
		SELECT track_id, artist, title, album
		FROM tracks
		WHERE lower(artist) = ?
		ORDER BY occurrences DESC, title ASC
		LIMIT ?
	`, strings.ToLower(strings.TrimSpace(artist)), limit)
	if err != nil {
		return nil, fmt.Errorf("top tracks query failed: %w", err)
	}
	defer rows.Close()

	return collectTracks(rows)
}

// SimilarArtists finds artists sharing albums with the given artist, or
// with a common name prefix, ordered by how many tracks they have.
func (c *Catalog) SimilarArtists(ctx context.Context, artist string, limit int) ([]string, error) {
	artist = strings.TrimSpace(artist)
	if artist == "" {
		return nil, nil
	}
	if limit < 1 {
		limit = 5
	}

	start := time.Now()
	var err error
	defer func() { recordQuery("similar_artists", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	lowered := strings.ToLower(artist)
	prefix := lowered
	if len(prefix) > 3 {
		prefix = prefix[:3]
	}

	rows, err := c.db.QueryContext(ctx, `
		SELECT artist, COUNT(*) AS track_count
		FROM tracks
		WHERE lower(artist) != ?
		  AND (
			album IN (SELECT album FROM tracks WHERE lower(artist) = ? AND album IS NOT NULL)
			OR lower(artist) LIKE ? ESCAPE '\'
		  )
		GROUP BY artist
		ORDER BY track_count DESC, artist ASC
		LIMIT ?
	`, lowered, lowered, escapeLike(prefix)+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("similar artists query failed: %w", err)
	}
	defer rows.Close()

	var artists []string
	for rows.Next() {
		var name string
		var count int
		if err = rows.Scan(&name, &count); err != nil {
			return nil, fmt.Errorf("similar artists scan failed: %w", err)
		}
		artists = append(artists, name)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("similar artists rows error: %w", err)
	}
	return artists, nil
}

func collectTracks(rows *sql.Rows) ([]Track, error) {
	var out []Track
	for rows.Next() {
		var t Track
		var album sql.NullString
		if err := rows.Scan(&t.ID, &t.Artist, &t.Title, &album); err != nil {
			return nil, fmt.Errorf("track scan failed: %w", err)
		}
		if album.Valid {
			t.Album = album.String
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("track rows error: %w", err)
	}
	return out, nil
}

func scanTrack(row *sql.Row) (*Track, error) {
	var t Track
	var album sql.NullString
	if err := row.Scan(&t.ID, &t.Artist, &t.Title, &album); err != nil {
		return nil, err
	}
	if album.Valid {
		t.Album = album.String
	}
	return &t, nil
}

// escapeLike escapes LIKE wildcards in user input so a title such as
// "100%" matches literally.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}
