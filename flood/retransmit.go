package flood

import (
	"time"

	"github.com/openospfd/ospfd/lsdb"
	"github.com/openospfd/ospfd/wire"
)

// blockSize is the number of retransmit-list nodes allocated at a time, per
// §5's "list nodes are allocated in blocks of 256 and freelisted." Grounded
// on XORP lsalist.C's LsaListElement::operator new.
const blockSize = 256

type node struct {
	id       wire.LSA
	ref      lsdb.Ref
	deadline time.Time
	next     *node
}

// slab is a block-allocated freelist of retransmit-list nodes, avoiding a
// per-insert heap allocation under the single-threaded event loop model.
type slab struct {
	free *node
}

func (s *slab) alloc() *node {
	if s.free == nil {
		block := make([]node, blockSize)
		for i := 0; i < blockSize-1; i++ {
			block[i].next = &block[i+1]
		}
		s.free = &block[0]
	}
	n := s.free
	s.free = n.next
	*n = node{}
	return n
}

func (s *slab) release(n *node) {
	n.ref.Release()
	n.id = wire.LSA{}
	n.next = s.free
	s.free = n
}

// A RetransmitList is one neighbor's set of LSAs pending (re)transmission,
// indexed by identity with a next-retransmit deadline, per §4.4.
// Ownership of each entry transfers to the list at insert and to the slab
// freelist at delete, matching §5's shared-resource note.
type RetransmitList struct {
	slab    slab
	entries map[wire.LSA]*node
	rxmt    time.Duration

	// rxmtCount is the XORP-style per-neighbor retransmit counter
	// ([SUPPLEMENTED FEATURES] 5), incremented on every retransmit sweep
	// and reset on any received acknowledgement. It is exposed through
	// RxmtCount and ResetRxmtCount; nothing in the daemon acts on its value.
	rxmtCount int
}

// NewRetransmitList constructs an empty RetransmitList with the given
// rxmt_interval.
func NewRetransmitList(rxmtInterval time.Duration) *RetransmitList {
	return &RetransmitList{entries: make(map[wire.LSA]*node), rxmt: rxmtInterval}
}

// Add places ref on the list, replacing any existing entry for the same
// identity, with its first retransmit deadline at now+rxmt_interval.
func (l *RetransmitList) Add(ref lsdb.Ref, now time.Time) {
	id := ref.Header().Identity()
	if existing, ok := l.entries[id]; ok {
		l.slab.release(existing)
	}

	n := l.slab.alloc()
	n.id = id
	n.ref = ref
	n.deadline = now.Add(l.rxmt)
	l.entries[id] = n
}

// Remove deletes id from the list, releasing its reference. It reports
// whether id was present.
func (l *RetransmitList) Remove(id wire.LSA) bool {
	n, ok := l.entries[id]
	if !ok {
		return false
	}
	delete(l.entries, id)
	l.slab.release(n)
	return true
}

// Contains reports whether id is currently on the list.
func (l *RetransmitList) Contains(id wire.LSA) bool {
	_, ok := l.entries[id]
	return ok
}

// Len reports the number of entries on the list.
func (l *RetransmitList) Len() int { return len(l.entries) }

// Due returns every entry whose deadline has passed as of now, and resets
// their deadlines to now+rxmt_interval (the caller is expected to actually
// retransmit them). It also increments rxmtCount once per call if any
// entries were due, matching the "per neighbor timer wakes" idiom of one
// counter tick per retransmit sweep, not per LSA.
func (l *RetransmitList) Due(now time.Time) []lsdb.Ref {
	var out []lsdb.Ref
	for _, n := range l.entries {
		if !n.deadline.After(now) {
			out = append(out, n.ref)
			n.deadline = now.Add(l.rxmt)
		}
	}
	if len(out) > 0 {
		l.rxmtCount++
	}
	return out
}

// RxmtCount returns the number of retransmit sweeps since the last
// ResetRxmtCount call.
func (l *RetransmitList) RxmtCount() int { return l.rxmtCount }

// ResetRxmtCount zeroes the retransmit counter, called on any received
// acknowledgement per [SUPPLEMENTED FEATURES] 5.
func (l *RetransmitList) ResetRxmtCount() { l.rxmtCount = 0 }

// Clear empties the list, releasing every held reference, used when a
// neighbor falls out of Full.
func (l *RetransmitList) Clear() {
	for id, n := range l.entries {
		delete(l.entries, id)
		l.slab.release(n)
	}
}
