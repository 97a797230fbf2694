package lsdb

import "github.com/openospfd/ospfd/wire"

// numBins is the aging-bin wheel size, indexed 0..MaxAge inclusive, per
// §4.2.
const numBins = 3601

// minLSIntervalSeconds and lsRefreshTimeSeconds mirror wire.MinLSInterval
// and wire.LSRefreshTime in whole seconds, for bin offset arithmetic.
const (
	minLSIntervalSeconds = int(wire.MinLSInterval / 1e9)
	lsRefreshTimeSeconds = int(wire.LSRefreshTime / 1e9)
	maxAgeSeconds        = int(wire.MaxAge / 1e9)
)

// An agingWheel tracks, for each LSA identity in a scope, which bin its age
// currently occupies, letting the store avoid touching every LSA's age
// field on every one-second tick. Grounded on XORP dbage.h's Age2Bin/Bin2Age
// bin-cursor scheme: an LSA's age is (cursor - bin) mod (MaxAge+1), so aging
// an entire database by one second is a single cursor increment.
type agingWheel struct {
	cursor int
	bins   [numBins]map[wire.LSA]struct{}
}

func newAgingWheel() *agingWheel {
	w := &agingWheel{}
	for i := range w.bins {
		w.bins[i] = make(map[wire.LSA]struct{})
	}
	return w
}

// bin returns the wheel bin an LSA of age a (seconds, clamped to MaxAge) is
// placed into given the current cursor.
func (w *agingWheel) bin(ageSeconds int) int {
	if ageSeconds > maxAgeSeconds {
		ageSeconds = maxAgeSeconds
	}
	return ((w.cursor-ageSeconds)%numBins + numBins) % numBins
}

// age returns the current age, in seconds, of an LSA stored in bin b.
func (w *agingWheel) age(b int) int {
	return ((w.cursor-b)%numBins + numBins) % numBins
}

// place inserts identity id into the bin corresponding to ageSeconds, or into
// bin zero (the cursor's current position) if doNotAge is set, per §4.2.
func (w *agingWheel) place(id wire.LSA, ageSeconds int, doNotAge bool) {
	if doNotAge {
		w.bins[w.cursor][id] = struct{}{}
		return
	}
	w.bins[w.bin(ageSeconds)][id] = struct{}{}
}

// remove deletes identity id from the bin corresponding to ageSeconds (or
// the zero bin, for a DoNotAge LSA).
func (w *agingWheel) remove(id wire.LSA, ageSeconds int, doNotAge bool) {
	if doNotAge {
		delete(w.bins[w.cursor], id)
		return
	}
	delete(w.bins[w.bin(ageSeconds)], id)
}

// advance moves the cursor forward by one second and returns the set of
// identities now due for deferred-origination release (MinLSInterval bin),
// self-originated refresh (LSRefreshTime bin), and MaxAge eviction, per
// §4.2's "once per second, on cursor advance" scan.
func (w *agingWheel) advance() (releaseDue, refreshDue, evictDue []wire.LSA) {
	w.cursor = (w.cursor + 1) % numBins

	releaseBin := (w.cursor - minLSIntervalSeconds%numBins + numBins) % numBins
	refreshBin := (w.cursor - lsRefreshTimeSeconds%numBins + numBins) % numBins
	evictBin := (w.cursor - maxAgeSeconds%numBins + numBins) % numBins

	for id := range w.bins[releaseBin] {
		releaseDue = append(releaseDue, id)
	}
	for id := range w.bins[refreshBin] {
		refreshDue = append(refreshDue, id)
	}
	for id := range w.bins[evictBin] {
		evictDue = append(evictDue, id)
	}
	return releaseDue, refreshDue, evictDue
}
