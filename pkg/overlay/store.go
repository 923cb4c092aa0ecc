package overlay

import (
	"crypto/rand"
	"io"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
)

// Store holds the latest published snapshot. Publish is called from a single
// producer; any number of readers may Load concurrently without blocking it.
type Store struct {
	current atomic.Pointer[State]
	entropy io.Reader
	notify  chan struct{}
	now     func() time.Time
}

// NewStore creates a store holding an empty snapshot.
func NewStore() *Store {
	s := &Store{
		entropy: ulid.Monotonic(rand.Reader, 0),
		notify:  make(chan struct{}, 1),
		now:     time.Now,
	}
	s.current.Store(&State{Zoom: 1})
	return s
}

// Publish stamps st with a fresh ID and publish time and makes it the current
// snapshot. The caller must not modify st afterwards.
func (s *Store) Publish(st *State) *State {
	now := s.now()
	if id, err := ulid.New(ulid.Timestamp(now), s.entropy); err == nil {
		st.ID = id
	} else {
		st.ID = ulid.Make()
	}
	st.PublishedAt = now
	s.current.Store(st)

	select {
	case s.notify <- struct{}{}:
	default:
	}
	return st
}

// Load returns the latest snapshot. It is never nil.
func (s *Store) Load() *State {
	return s.current.Load()
}

// Updated is signalled after each publish. Signals coalesce, so a slow reader
// sees one pending signal and then reads the latest snapshot.
func (s *Store) Updated() <-chan struct{} {
	return s.notify
}
