// Command musiccrsctl builds and inspects the MusicCRS track catalog.
//
// The build command ingests Million Playlist Dataset style JSON slices:
// each file holds {"playlists": [{"tracks": [{"track_uri", "artist_name",
// "track_name", "album_name"}, ...]}, ...]}. Repeated track URIs across
// playlists accumulate occurrence counts, which the agent uses as its
// offline popularity signal.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"musiccrs/internal/catalog"
	"musiccrs/internal/workers"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type mpdTrack struct {
	TrackURI   string `json:"track_uri"`
	ArtistName string `json:"artist_name"`
	TrackName  string `json:"track_name"`
	AlbumName  string `json:"album_name"`
}

type mpdPlaylist struct {
	Tracks []mpdTrack `json:"tracks"`
}

type mpdSlice struct {
	Playlists []mpdPlaylist `json:"playlists"`
}

func main() {
	root := &cobra.Command{
		Use:           "musiccrsctl",
		Short:         "Build and inspect the MusicCRS track catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var dbPath string
	root.PersistentFlags().StringVar(&dbPath, "db", "catalog.db", "path to the catalog database")

	buildCmd := &cobra.Command{
		Use:   "build <slice-dir-or-file>...",
		Short: "Ingest playlist JSON slices into the catalog",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd.Context(), dbPath, args)
		},
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Print catalog statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStats(cmd.Context(), dbPath)
		},
	}

	trackCmd := &cobra.Command{
		Use:   "track <track-id>",
		Short: "Look up a single track by identifier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrack(cmd.Context(), dbPath, args[0])
		},
	}

	root.AddCommand(buildCmd, statsCmd, trackCmd)

	if err := root.Execute(); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func runBuild(ctx context.Context, dbPath string, args []string) error {
	files, err := collectSliceFiles(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no JSON slice files found")
	}

	cat, err := catalog.Open(ctx, dbPath)
	if err != nil {
		return err
	}
	defer cat.Close()

	start := time.Now()

	// Decode slices concurrently; ingestion stays sequential so the
	// sqlite writer never contends with itself.
	batches := make([][]catalog.Track, len(files))
	errs := make([]error, len(files))
	sem := make(chan struct{}, workers.ForCPU(len(files)))
	var wg sync.WaitGroup
	for i, file := range files {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, file string) {
			defer wg.Done()
			defer func() { <-sem }()
			batches[i], errs[i] = parseSlice(file)
		}(i, file)
	}
	wg.Wait()

	totalOccurrences := 0
	for i, file := range files {
		if errs[i] != nil {
			return fmt.Errorf("%s: %w", file, errs[i])
		}
		n, err := cat.Ingest(ctx, batches[i])
		if err != nil {
			return fmt.Errorf("%s: %w", file, err)
		}
		totalOccurrences += n
		fmt.Printf("  %s: %d track occurrences\n", filepath.Base(file), n)
	}

	stats, err := cat.Stats(ctx)
	if err != nil {
		return err
	}

	color.Green("Ingested %d occurrences from %d files in %v", totalOccurrences, len(files), time.Since(start).Round(time.Millisecond))
	fmt.Printf("Catalog now holds %d tracks by %d artists across %d albums\n",
		stats.TotalTracks, stats.TotalArtists, stats.TotalAlbums)
	return nil
}

func parseSlice(file string) ([]catalog.Track, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}

	var slice mpdSlice
	if err := json.Unmarshal(data, &slice); err != nil {
		return nil, fmt.Errorf("failed to parse slice: %w", err)
	}

	// Some exports are a bare track array rather than a full slice.
	if len(slice.Playlists) == 0 {
		var tracks []mpdTrack
		if err := json.Unmarshal(data, &tracks); err == nil && len(tracks) > 0 {
			slice.Playlists = []mpdPlaylist{{Tracks: tracks}}
		}
	}

	var batch []catalog.Track
	for _, pl := range slice.Playlists {
		for _, t := range pl.Tracks {
			batch = append(batch, catalog.Track{
				ID:     t.TrackURI,
				Artist: t.ArtistName,
				Title:  t.TrackName,
				Album:  t.AlbumName,
			})
		}
	}
	return batch, nil
}

func collectSliceFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.HasSuffix(strings.ToLower(path), ".json") {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

func runTrack(ctx context.Context, dbPath, id string) error {
	cat, err := catalog.Open(ctx, dbPath)
	if err != nil {
		return err
	}
	defer cat.Close()

	track, err := cat.TrackByID(ctx, id)
	if err != nil {
		return err
	}
	if track == nil {
		return fmt.Errorf("no track with id %s", id)
	}

	occurrences, err := cat.OccurrenceCount(ctx, id)
	if err != nil {
		return err
	}

	color.Cyan("%s", track.Label())
	if track.Album != "" {
		fmt.Printf("  Album:       %s\n", track.Album)
	}
	fmt.Printf("  Occurrences: %d\n", occurrences)
	return nil
}

func runStats(ctx context.Context, dbPath string) error {
	cat, err := catalog.Open(ctx, dbPath)
	if err != nil {
		return err
	}
	defer cat.Close()

	stats, err := cat.Stats(ctx)
	if err != nil {
		return err
	}

	color.Cyan("Catalog: %s", dbPath)
	fmt.Printf("  Tracks:  %d\n", stats.TotalTracks)
	fmt.Printf("  Artists: %d\n", stats.TotalArtists)
	fmt.Printf("  Albums:  %d\n", stats.TotalAlbums)
	return nil
}
