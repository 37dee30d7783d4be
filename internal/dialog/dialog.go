package dialog

import (
	"errors"
	"sync"

	"musiccrs/internal/catalog"
	"musiccrs/internal/metrics"
)

var (
	// ErrNoPendingSelection indicates a numeric reply arrived with
	// nothing awaiting selection.
	ErrNoPendingSelection = errors.New("no selection is pending")

	// ErrIndexOutOfRange indicates a numeric reply outside the stored
	// candidate list. The pending slot is cleared anyway.
	ErrIndexOutOfRange = errors.New("selection index out of range")
)

// Kind identifies which continuation a completed selection feeds.
type Kind string

const (
	// KindAddTrack resumes an interrupted playlist add.
	KindAddTrack Kind = "add-track"
	// KindAnswerQuestion resumes an interrupted question answer.
	KindAnswerQuestion Kind = "answer-question"
)

// Pending is a stored disambiguation awaiting a numeric reply. Context
// carries kind-specific data, such as the question template to resume.
type Pending struct {
	Kind       Kind
	Candidates []catalog.Track
	Total      int
	Context    map[string]string
}

// Store holds at most one Pending per session. Storing a new Pending
// replaces any previous one; a session is never awaiting two selections.
type Store struct {
	mu      sync.Mutex
	pending map[string]Pending
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{pending: make(map[string]Pending)}
}

// Put stores a pending selection for the session, replacing any
// previous one.
func (s *Store) Put(session string, p Pending) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pending[session]; !ok {
		metrics.PendingSelections.Inc()
	}
	s.pending[session] = p
}

// Has reports whether the session is awaiting a selection.
func (s *Store) Has(session string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[session]
	return ok
}

// Take consumes the session's pending selection with a 1-based choice.
// Any numeric reply clears the slot, valid or not: a wrong number must
// not leave the user trapped in a stale pending state. Returns
// ErrNoPendingSelection if nothing is pending, ErrIndexOutOfRange if
// choice falls outside the candidate list.
func (s *Store) Take(session string, choice int) (Pending, *catalog.Track, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pending[session]
	if !ok {
		metrics.SelectionsTotal.WithLabelValues("no_pending").Inc()
		return Pending{}, nil, ErrNoPendingSelection
	}

	delete(s.pending, session)
	metrics.PendingSelections.Dec()

	if choice < 1 || choice > len(p.Candidates) {
		metrics.SelectionsTotal.WithLabelValues("out_of_range").Inc()
		return p, nil, ErrIndexOutOfRange
	}

	metrics.SelectionsTotal.WithLabelValues("applied").Inc()
	return p, &p.Candidates[choice-1], nil
}

// Clear abandons the session's pending selection, if any. Used when a
// non-numeric command arrives while a selection is pending.
func (s *Store) Clear(session string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pending[session]; ok {
		delete(s.pending, session)
		metrics.PendingSelections.Dec()
	}
}
