package filter

import (
	"log/slog"
	"sync"
	"time"
)

// Store owns the filter state of one session. Dispatch is the only writer;
// readers get copies.
type Store struct {
	mu      sync.RWMutex
	reducer Reducer
	state   State
	version uint64

	subMu   sync.Mutex
	subs    map[int]func(State)
	nextSub int
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithClock sets the clock used by the month actions.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.reducer.Now = now
	}
}

// NewStore creates a store holding a copy of initial.
func NewStore(initial State, opts ...StoreOption) *Store {
	s := &Store{
		state: initial.Clone(),
		subs:  make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dispatch applies actions in order and notifies subscribers once with the
// resulting state.
func (s *Store) Dispatch(actions ...Action) State {
	if len(actions) == 0 {
		return s.State()
	}

	s.mu.Lock()
	for _, a := range actions {
		s.state = s.reducer.Reduce(s.state, a)
		s.version++
		slog.Debug("Filter action applied", "action", a.Type(), "version", s.version)
	}
	snapshot := s.state.Clone()
	s.mu.Unlock()

	s.subMu.Lock()
	subs := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subMu.Unlock()

	for _, fn := range subs {
		fn(snapshot.Clone())
	}
	return snapshot
}

// State returns a copy of the current state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Version counts applied actions. Callers compare versions taken before
// and after a fetch to drop responses for a filter that has since changed.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Snapshot returns the state together with its version.
func (s *Store) Snapshot() (State, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone(), s.version
}

// Subscribe registers fn to be called after every Dispatch. The returned
// func removes it.
func (s *Store) Subscribe(fn func(State)) (cancel func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}
