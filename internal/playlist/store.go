package playlist

import (
	"errors"
	"strings"
	"sync"

	"musiccrs/internal/catalog"
	"musiccrs/internal/logging"
	"musiccrs/internal/metrics"
)

var (
	// ErrAlreadyExists indicates a playlist name collision on create.
	ErrAlreadyExists = errors.New("playlist already exists")

	// ErrPlaylistNotFound indicates a named playlist that does not exist.
	ErrPlaylistNotFound = errors.New("playlist not found")

	// ErrIndexOutOfRange indicates a 1-based removal position outside
	// the playlist.
	ErrIndexOutOfRange = errors.New("position out of range")

	// ErrNotInPlaylist indicates a track identifier absent from the
	// playlist on removal.
	ErrNotInPlaylist = errors.New("track not in playlist")
)

// DefaultName is the playlist created lazily for every new session.
const DefaultName = "default"

// Playlist is an ordered, named track sequence. Insertion order is
// playback order; no two entries share an identifier.
type Playlist struct {
	Name     string          `json:"name"`
	Tracks   []catalog.Track `json:"tracks"`
	CoverURL string          `json:"coverUrl,omitempty"`
}

// CoverRenderer produces a playlist's derived cover artifact and
// returns an opaque image reference. Render failures never fail the
// mutation that triggered them.
type CoverRenderer interface {
	RenderCover(session, name string, tracks []catalog.Track) (string, error)
}

type sessionState struct {
	playlists map[string]*Playlist
	order     []string
	current   string
}

// Store keeps per-session named playlists in memory. Every session
// lazily gets a default playlist on first touch.
type Store struct {
	mu       sync.Mutex
	renderer CoverRenderer
	sessions map[string]*sessionState
}

// NewStore creates a Store. renderer may be nil to disable covers.
func NewStore(renderer CoverRenderer) *Store {
	return &Store{
		renderer: renderer,
		sessions: make(map[string]*sessionState),
	}
}

func (s *Store) session(session string) *sessionState {
	st, ok := s.sessions[session]
	if !ok {
		st = &sessionState{
			playlists: map[string]*Playlist{DefaultName: {Name: DefaultName}},
			order:     []string{DefaultName},
			current:   DefaultName,
		}
		s.sessions[session] = st
		metrics.ActiveSessions.Set(float64(len(s.sessions)))
	}
	return st
}

// Create adds an empty playlist and makes it current. Fails with
// ErrAlreadyExists if the name is taken; the current pointer is then
// left unchanged.
func (s *Store) Create(session, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.session(session)
	if _, ok := st.playlists[name]; ok {
		return ErrAlreadyExists
	}
	st.playlists[name] = &Playlist{Name: name}
	st.order = append(st.order, name)
	st.current = name
	return nil
}

// Switch sets the current playlist. Fails with ErrPlaylistNotFound if
// the name is absent.
func (s *Store) Switch(session, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.session(session)
	if _, ok := st.playlists[name]; !ok {
		return ErrPlaylistNotFound
	}
	st.current = name
	return nil
}

// Clear empties the named playlist, or the current one if name is
// blank.
func (s *Store) Clear(session, name string) error {
	s.mu.Lock()
	st := s.session(session)
	if name == "" {
		name = st.current
	}
	pl, ok := st.playlists[name]
	if !ok {
		s.mu.Unlock()
		return ErrPlaylistNotFound
	}
	pl.Tracks = nil
	s.mu.Unlock()

	s.refreshCover(session, name, nil)
	return nil
}

// AddResolved appends the track to the current playlist. Adding a
// track whose identifier is already present is a silent no-op; the
// track is returned either way so callers report success uniformly.
func (s *Store) AddResolved(session string, track catalog.Track) catalog.Track {
	s.mu.Lock()
	st := s.session(session)
	pl := st.playlists[st.current]
	for _, t := range pl.Tracks {
		if t.ID == track.ID {
			s.mu.Unlock()
			return track
		}
	}
	pl.Tracks = append(pl.Tracks, track)
	name, tracks := pl.Name, cloneTracks(pl.Tracks)
	s.mu.Unlock()

	s.refreshCover(session, name, tracks)
	return track
}

// Remove deletes a track from the current playlist. identifier is a
// 1-based position when all characters are digits, otherwise a track
// identifier. Returns the removed track.
func (s *Store) Remove(session, identifier string) (catalog.Track, error) {
	s.mu.Lock()
	st := s.session(session)
	pl := st.playlists[st.current]

	idx := -1
	if isDigits(identifier) {
		pos := 0
		for _, r := range identifier {
			pos = pos*10 + int(r-'0')
		}
		if pos < 1 || pos > len(pl.Tracks) {
			s.mu.Unlock()
			return catalog.Track{}, ErrIndexOutOfRange
		}
		idx = pos - 1
	} else {
		for i, t := range pl.Tracks {
			if t.ID == identifier {
				idx = i
				break
			}
		}
		if idx < 0 {
			s.mu.Unlock()
			return catalog.Track{}, ErrNotInPlaylist
		}
	}

	removed := pl.Tracks[idx]
	pl.Tracks = append(pl.Tracks[:idx], pl.Tracks[idx+1:]...)
	name, tracks := pl.Name, cloneTracks(pl.Tracks)
	s.mu.Unlock()

	s.refreshCover(session, name, tracks)
	return removed, nil
}

// Names returns the session's playlist names in creation order.
func (s *Store) Names(session string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.session(session)
	names := make([]string, len(st.order))
	copy(names, st.order)
	return names
}

// CurrentName returns the name of the session's current playlist.
func (s *Store) CurrentName(session string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session(session).current
}

// Current returns a snapshot of the session's current playlist.
func (s *Store) Current(session string) Playlist {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.session(session)
	return snapshot(st.playlists[st.current])
}

// All returns snapshots of the session's playlists in creation order.
func (s *Store) All(session string) []Playlist {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.session(session)
	out := make([]Playlist, 0, len(st.order))
	for _, name := range st.order {
		out = append(out, snapshot(st.playlists[name]))
	}
	return out
}

// ExistingArtists returns the lowercased artists on the current
// playlist, for use as ranking context.
func (s *Store) ExistingArtists(session string) map[string]bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.session(session)
	pl := st.playlists[st.current]
	if len(pl.Tracks) == 0 {
		return nil
	}
	artists := make(map[string]bool, len(pl.Tracks))
	for _, t := range pl.Tracks {
		artists[strings.ToLower(t.Artist)] = true
	}
	return artists
}

// refreshCover recomputes a playlist's cover after a mutation. The
// render runs outside the store lock so a slow render in one session
// never blocks operations in another. Failure is logged and swallowed.
func (s *Store) refreshCover(session, name string, tracks []catalog.Track) {
	if s.renderer == nil {
		return
	}
	url, err := s.renderer.RenderCover(session, name, tracks)
	if err != nil {
		logging.Warn("Cover render failed for %s/%s: %v", session, name, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if pl, ok := s.session(session).playlists[name]; ok {
		pl.CoverURL = url
	}
}

func snapshot(pl *Playlist) Playlist {
	return Playlist{Name: pl.Name, CoverURL: pl.CoverURL, Tracks: cloneTracks(pl.Tracks)}
}

func cloneTracks(tracks []catalog.Track) []catalog.Track {
	if len(tracks) == 0 {
		return nil
	}
	out := make([]catalog.Track, len(tracks))
	copy(out, tracks)
	return out
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
