package origin

import (
	"sync"

	"github.com/openospfd/ospfd/wire"
)

// A Reincarnator tracks self-originated LSAs whose sequence number has hit
// wire.MaxSequenceNumber and must be flushed to MaxAge and withheld until
// every neighbor's database no longer holds the old instance, before being
// reissued at wire.InitialSequenceNumber. Grounded on XORP area_router.hh's
// reincarnate/max_sequence_number_reached/increment_sequence_number flow.
type Reincarnator struct {
	mu      sync.Mutex
	waiting map[wire.LSA]struct{}
}

// NewReincarnator constructs an empty Reincarnator.
func NewReincarnator() *Reincarnator {
	return &Reincarnator{waiting: make(map[wire.LSA]struct{})}
}

// Enqueue marks id as needing reincarnation. Callers should respond by
// issuing lsdb.Store.MaxAgeNow for id and waiting for the drain.
func (r *Reincarnator) Enqueue(id wire.LSA) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.waiting[id] = struct{}{}
}

// Ready is called once id's MaxAge instance has drained from every
// neighbor's database (lsdb.Store.Drain has fully cleared it). It resets
// the identity's Sequencer state so the next origination starts again at
// wire.InitialSequenceNumber, and reports whether id was actually pending
// reincarnation.
func (r *Reincarnator) Ready(seq *Sequencer, id wire.LSA) bool {
	r.mu.Lock()
	_, ok := r.waiting[id]
	delete(r.waiting, id)
	r.mu.Unlock()

	if ok {
		seq.Reset(id)
	}
	return ok
}

// Pending reports whether id is currently withheld awaiting reincarnation.
func (r *Reincarnator) Pending(id wire.LSA) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.waiting[id]
	return ok
}
