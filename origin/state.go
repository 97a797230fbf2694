// Package origin implements self-origination of every LSA type a router
// produces, per §4.3: sequence-number bookkeeping, MinLSInterval pacing,
// sequence-wrap reincarnation, AS-External overflow, NSSA translation, and
// stub/NSSA default-route transitions.
package origin

import (
	"math"
	"sync"
	"time"

	"github.com/openospfd/ospfd/wire"
)

// A Sequencer tracks the next sequence number to use for each
// self-originated LSA identity, and the last time it was originated, so
// builders can enforce MinLSInterval without consulting the database.
// Grounded on XORP area_router.hh's per-LSA sequence-number field plus
// last-origination timestamp.
type Sequencer struct {
	mu    sync.Mutex
	state map[wire.LSA]*seqState
}

type seqState struct {
	next     int32
	lastSent time.Time
}

// NewSequencer constructs an empty Sequencer.
func NewSequencer() *Sequencer {
	return &Sequencer{state: make(map[wire.LSA]*seqState)}
}

// Next returns the sequence number to use for the next origination of id,
// and whether that origination is still within MinLSInterval of the
// previous one (in which case the caller should defer, per §4.3).
func (s *Sequencer) Next(id wire.LSA, now time.Time) (seq int32, tooSoon bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.state[id]
	if !ok {
		st = &seqState{next: wire.InitialSequenceNumber}
		s.state[id] = st
	}

	if !st.lastSent.IsZero() && now.Sub(st.lastSent) < wire.MinLSInterval {
		return st.next, true
	}

	return st.next, false
}

// Commit records that id was originated with sequence seq at time now,
// advancing the next sequence number to use.
func (s *Sequencer) Commit(id wire.LSA, seq int32, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.state[id]
	if !ok {
		st = &seqState{}
		s.state[id] = st
	}
	st.next = seq + 1
	st.lastSent = now
}

// Reset clears the tracked state for id, used after a flush-to-MaxAge
// reincarnation completes and InitialSequenceNumber becomes valid again.
func (s *Sequencer) Reset(id wire.LSA) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.state, id)
}

// AtMaxSequence reports whether id's next sequence number would exceed
// wire.MaxSequenceNumber, meaning a reincarnation cycle is required before
// any further origination (§4.3).
func (s *Sequencer) AtMaxSequence(id wire.LSA) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.state[id]
	if !ok {
		return false
	}
	// Committing wire.MaxSequenceNumber wraps the int32 next to MinInt32.
	return st.next == math.MinInt32
}
