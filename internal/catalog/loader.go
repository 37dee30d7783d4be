package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"musiccrs/internal/logging"
)

// Ingest bulk-loads tracks into the catalog inside a single transaction.
// Repeated identifiers bump the occurrence counter instead of duplicating
// the row, which is how the corpus popularity proxy accumulates. Rows with
// a blank identifier, artist, or title are skipped. Returns the number of
// occurrences recorded.
//
// Population is a build-time concern (musiccrsctl); the agent never calls
// this at runtime.
func (c *Catalog) Ingest(ctx context.Context, tracks []Track) (int, error) {
	if len(tracks) == 0 {
		return 0, nil
	}

	start := time.Now()
	var err error
	defer func() { recordQuery("ingest", start, err) }()

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin ingest transaction: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO tracks (track_id, artist, title, album, occurrences)
		VALUES (?, ?, ?, ?, 1)
		ON CONFLICT(track_id) DO UPDATE SET occurrences = occurrences + 1
	`)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("failed to prepare ingest statement: %w", err)
	}
	defer stmt.Close()

	count := 0
	for _, t := range tracks {
		if strings.TrimSpace(t.ID) == "" || strings.TrimSpace(t.Artist) == "" || strings.TrimSpace(t.Title) == "" {
			logging.Debug("Ingest: skipping incomplete row %q", t.ID)
			continue
		}
		var album interface{}
		if strings.TrimSpace(t.Album) != "" {
			album = t.Album
		}
		if _, err = stmt.ExecContext(ctx, t.ID, t.Artist, t.Title, album); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("failed to ingest track %q: %w", t.ID, err)
		}
		count++
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit ingest: %w", err)
	}
	return count, nil
}
