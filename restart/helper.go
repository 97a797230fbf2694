package restart

import (
	"time"

	"github.com/openospfd/ospfd/wire"
)

// A HelperState is this router's helper-mode status for one restarting
// neighbor, §4.7's helper side.
type HelperState uint8

// Possible HelperState values.
const (
	HelperInactive HelperState = iota
	HelperActive
)

// A Helper tracks one neighbor this router is helping through its
// graceful restart: the neighbor is held at Full and topology-change
// reactions that would otherwise tear it down are suppressed until grace
// expires, the neighbor itself exits restart, or an inconsistency is
// detected.
type Helper struct {
	Neighbor wire.ID
	state    HelperState
	deadline time.Time
}

// EnterHelperMode begins helping neighbor through a grace period starting
// now, on receipt of a valid Grace-LSA naming it, §4.7.
func EnterHelperMode(neighbor wire.ID, now time.Time, gracePeriod time.Duration) *Helper {
	return &Helper{Neighbor: neighbor, state: HelperActive, deadline: now.Add(gracePeriod)}
}

// State reports whether helper mode is active for this neighbor.
func (h *Helper) State() HelperState { return h.state }

// SuppressesTopologyChange reports whether a neighbor-down reaction
// should be held back because this neighbor is being helped, §4.7
// ("suppress topology-change reactions that would otherwise tear it
// down").
func (h *Helper) SuppressesTopologyChange() bool {
	return h.state == HelperActive
}

// CheckExpiry ends helper mode if now has reached the grace deadline,
// §4.7 condition (a) on the helper side ("grace expires"), reporting
// whether helper mode is now inactive.
func (h *Helper) CheckExpiry(now time.Time) bool {
	if h.state == HelperInactive {
		return true
	}
	if !now.Before(h.deadline) {
		h.state = HelperInactive
	}
	return h.state == HelperInactive
}

// NeighborExitedRestart ends helper mode because the restarting neighbor
// itself signaled it has left graceful restart (no further Grace-LSA, or
// a Hello/DD exchange outside the restart procedure), §4.7 condition (b).
func (h *Helper) NeighborExitedRestart() {
	h.state = HelperInactive
}

// DetectInconsistency ends helper mode because an LSA change was observed
// that affects the restarting neighbor's reachability, §4.7 condition (c):
// helping further would risk black-holing traffic through a neighbor
// whose forwarding state may no longer match this router's view.
func (h *Helper) DetectInconsistency() {
	h.state = HelperInactive
}
