package lsdb

import (
	"fmt"
	"sync"
	"time"

	"github.com/openospfd/ospfd/wire"
)

// A ScopeKind names which of the three LSDB partitions a Store holds, per
// §4.2: link-local, per-area, or AS-wide.
type ScopeKind uint8

// Possible ScopeKind values.
const (
	LinkScope ScopeKind = iota
	AreaScope
	ASScope
)

func (k ScopeKind) String() string {
	switch k {
	case LinkScope:
		return "link"
	case AreaScope:
		return "area"
	case ASScope:
		return "as"
	default:
		return "unknown"
	}
}

// A maxAgeWait tracks a flushed LSA awaiting acknowledgement from every
// neighbor before it can be removed from the map, per §4.2's "MaxAge list".
// Reinstallation of the same identity is deferred while this is present.
type maxAgeWait struct {
	ent    *entry
	waitOn map[string]struct{} // Opaque neighbor keys supplied by the flood package.
}

// A Store is one scope's link-state database: an identity-keyed map plus
// the aging-bin wheel driving its eviction and refresh schedule. One Store
// exists per link (per interface), per area, and one for the AS scope;
// callers own the mapping from interface/area identifiers to Store
// instances. Grounded on XORP's per-area/per-interface LSA table plus
// dbage.h's bin-wheel aging; kept as a single Go type parameterized by
// ScopeKind rather than XORP's separate per-scope C++ classes.
type Store struct {
	mu sync.Mutex

	kind ScopeKind
	name string // Opaque label (interface name, area ID string, "as") for logging/FatalError.

	version wire.Version

	byIdentity map[wire.LSA]*entry
	maxAge     map[wire.LSA]*maxAgeWait
	deferred   map[wire.LSA]*entry // Inserts blocked behind a MaxAge wait, per I10.

	wheel *agingWheel

	checksum uint16 // Running XOR of every stored LSA's wire.LSAHeader.Checksum.
}

// NewStore constructs an empty Store for the given scope and label.
func NewStore(kind ScopeKind, name string, v wire.Version) *Store {
	return &Store{
		kind:       kind,
		name:       name,
		version:    v,
		byIdentity: make(map[wire.LSA]*entry),
		maxAge:     make(map[wire.LSA]*maxAgeWait),
		deferred:   make(map[wire.LSA]*entry),
		wheel:      newAgingWheel(),
	}
}

// Checksum returns the scope's running XOR checksum, used for the Database
// Description "more" optimization and for operator visibility.
func (s *Store) Checksum() uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checksum
}

// Find looks up the LSA instance for identity id, if any is currently
// installed (not counting entries only present on the MaxAge list).
func (s *Store) Find(id wire.LSA) (Ref, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.byIdentity[id]
	if !ok {
		return Ref{}, false
	}
	return newRef(e), true
}

// Insert installs header/body/raw as the current instance of its identity.
// If the identity is currently on the MaxAge list (I10), the insert is
// deferred: it is recorded and will actually be installed once Drain clears
// that identity's MaxAge wait.
func (s *Store) Insert(h wire.LSAHeader, body wire.Body, raw []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := h.Identity()
	raw = append([]byte(nil), raw...)
	e := &entry{header: h, body: body, raw: raw}

	if _, waiting := s.maxAge[id]; waiting {
		s.deferred[id] = e
		return nil
	}

	s.installLocked(id, e)
	return nil
}

func (s *Store) installLocked(id wire.LSA, e *entry) {
	if old, ok := s.byIdentity[id]; ok {
		s.checksum ^= old.header.Checksum
		s.wheel.remove(id, int(old.header.Age/time.Second), old.header.DoNotAge)
	}

	s.byIdentity[id] = e
	s.checksum ^= e.header.Checksum
	s.wheel.place(id, int(e.header.Age/time.Second), e.header.DoNotAge)
}

// Remove deletes an identity from the map, the aging wheel, and any pending
// deferred insert. It does not consult the MaxAge list; callers that need
// the "flood to all and wait for acks" flow must use MaxAgeNow/Drain
// instead.
func (s *Store) Remove(id wire.LSA) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(id)
}

func (s *Store) removeLocked(id wire.LSA) {
	e, ok := s.byIdentity[id]
	if !ok {
		return
	}
	delete(s.byIdentity, id)
	delete(s.deferred, id)
	s.checksum ^= e.header.Checksum
	s.wheel.remove(id, int(e.header.Age/time.Second), e.header.DoNotAge)
}

// MaxAgeNow sets the identity's age to MaxAge, floods it (the caller is
// responsible for the actual flood, using the returned Ref), and places it
// on the MaxAge list: it remains visible to Find until every neighbor
// tracked in waitOn has called Drain for it, at which point it is removed
// from the map. Reinstallation of the same identity blocks until then
// (I10).
func (s *Store) MaxAgeNow(id wire.LSA, waitOn []string) (Ref, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.byIdentity[id]
	if !ok {
		return Ref{}, fmt.Errorf("lsdb: MaxAgeNow: identity %s not present in scope %s", id, s.name)
	}

	s.checksum ^= e.header.Checksum
	s.wheel.remove(id, int(e.header.Age/time.Second), e.header.DoNotAge)

	e.header.Age = wire.MaxAge
	e.header.DoNotAge = false
	s.checksum ^= e.header.Checksum
	s.wheel.place(id, int(wire.MaxAge/time.Second), false)

	wait := make(map[string]struct{}, len(waitOn))
	for _, n := range waitOn {
		wait[n] = struct{}{}
	}
	s.maxAge[id] = &maxAgeWait{ent: e, waitOn: wait}

	return newRef(e), nil
}

// Drain records that neighbor has acknowledged identity id's MaxAge
// instance. Once every tracked neighbor has drained, the identity is
// removed from the map and any deferred insert queued behind it (I10) is
// installed.
func (s *Store) Drain(id wire.LSA, neighbor string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.maxAge[id]
	if !ok {
		return
	}
	delete(w.waitOn, neighbor)
	if len(w.waitOn) > 0 {
		return
	}

	delete(s.maxAge, id)
	// removeLocked also drops the deferred insert, so take it first.
	deferred, hasDeferred := s.deferred[id]
	s.removeLocked(id)

	if hasDeferred {
		delete(s.deferred, id)
		s.installLocked(id, deferred)
	}
}

// OnMaxAgeList reports whether identity id is currently flushed and
// awaiting neighbor acknowledgement.
func (s *Store) OnMaxAgeList(id wire.LSA) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.maxAge[id]
	return ok
}

// Iterate returns a snapshot-safe Cursor over every LSA currently installed
// in the scope (MaxAge-list entries included, since they are still present
// in the map until Drain completes), used by Database Description exchange
// and by SPF (§4.2).
func (s *Store) Iterate() *Cursor {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := make([]Ref, 0, len(s.byIdentity))
	for _, e := range s.byIdentity {
		snap = append(snap, newRef(e))
	}
	return newCursor(snap)
}

// Tick advances the scope's aging-bin wheel by one second and returns the
// identities now due for deferred-origination release, self-originated
// refresh, and MaxAge eviction, per §4.2. Eviction here means the entries
// whose age bin has reached MaxAge; callers (origin/flood) are expected to
// drive MaxAgeNow for self-originated LSAs or otherwise handle received
// LSAs reaching MaxAge on their own, since store.Tick only reports bin
// membership and does not itself flood or remove anything.
func (s *Store) Tick() (releaseDue, refreshDue, evictDue []wire.LSA) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wheel.advance()
}

// Len returns the number of LSAs currently installed in the scope.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byIdentity)
}

// Kind returns the Store's ScopeKind.
func (s *Store) Kind() ScopeKind { return s.kind }

// Name returns the Store's opaque scope label.
func (s *Store) Name() string { return s.name }
