package restart

import (
	"time"

	"github.com/openospfd/ospfd/spf"
)

// A RestartingState is one phase of this router's own graceful restart,
// §4.7.
type RestartingState uint8

// Possible RestartingState values.
const (
	// RestartPreparing floods Grace-LSAs and waits for every interface to
	// ack before the outage begins.
	RestartPreparing RestartingState = iota
	// RestartInProgress is the hitless-restart window itself: the prior
	// FIB's remnants are installed and adjacencies are being rebuilt.
	RestartInProgress
	// RestartTerminated means the restart has ended, successfully or not;
	// see Reason.
	RestartTerminated
)

func (s RestartingState) String() string {
	switch s {
	case RestartPreparing:
		return "Preparing"
	case RestartInProgress:
		return "InProgress"
	case RestartTerminated:
		return "Terminated"
	default:
		return "unknown"
	}
}

// A TerminationReason explains why a RestartingRouter left
// RestartInProgress, §4.7.
type TerminationReason uint8

// Possible TerminationReason values.
const (
	TerminatedNone TerminationReason = iota
	TerminatedAdjacencyConverged
	TerminatedGraceExpired
	TerminatedTopologyChanged
)

// A RemnantRoute is one route installed before the restart began, kept in
// the FIB until superseded or the restart ends, §4.7 ("install prior FIB
// as remnants").
type RemnantRoute struct {
	Key      spf.RouteKey
	NextHops []spf.NextHop
	Metric   uint32
}

// A RestartingRouter tracks this router's own graceful-restart attempt
// from Grace-LSA flood through termination, §4.7.
type RestartingRouter struct {
	state    RestartingState
	reason   TerminationReason
	deadline time.Time
	remnants []RemnantRoute
}

// NewRestartingRouter begins a restart attempt: gracePeriod bounds how
// long the remnant FIB may stand before the restart is abandoned, and
// remnants is the FIB snapshot taken just before the process restarted.
func NewRestartingRouter(now time.Time, gracePeriod time.Duration, remnants []RemnantRoute) *RestartingRouter {
	return &RestartingRouter{
		state:    RestartPreparing,
		deadline: now.Add(gracePeriod),
		remnants: remnants,
	}
}

// State returns the restart's current phase.
func (r *RestartingRouter) State() RestartingState { return r.state }

// Reason returns why the restart terminated; TerminatedNone while still
// in progress or preparing.
func (r *RestartingRouter) Reason() TerminationReason { return r.reason }

// Remnants returns the FIB entries installed before the restart, to be
// withdrawn once superseded by a freshly computed route or the restart
// terminates.
func (r *RestartingRouter) Remnants() []RemnantRoute { return r.remnants }

// EnterRestart transitions from RestartPreparing (Grace-LSAs acked on
// every interface) to RestartInProgress. It only changes the state; it does
// not install the routes that Remnants returns.
func (r *RestartingRouter) EnterRestart() {
	if r.state == RestartPreparing {
		r.state = RestartInProgress
	}
}

// AdjacencyConverged terminates the restart successfully: every neighbor
// that was Full before the restart has reached Full again with no
// intervening topology change, §4.7 condition (a).
func (r *RestartingRouter) AdjacencyConverged() {
	r.terminate(TerminatedAdjacencyConverged)
}

// TopologyChanged terminates the restart: an LSA change during the
// restart window indicates the topology moved on without this router,
// §4.7 condition (c).
func (r *RestartingRouter) TopologyChanged() {
	r.terminate(TerminatedTopologyChanged)
}

// CheckExpiry terminates the restart if now has reached the grace
// deadline, §4.7 condition (b), reporting whether the restart is now
// terminated (by expiry or otherwise).
func (r *RestartingRouter) CheckExpiry(now time.Time) bool {
	if r.state == RestartTerminated {
		return true
	}
	if !now.Before(r.deadline) {
		r.terminate(TerminatedGraceExpired)
	}
	return r.state == RestartTerminated
}

func (r *RestartingRouter) terminate(reason TerminationReason) {
	if r.state == RestartTerminated {
		return
	}
	r.state = RestartTerminated
	r.reason = reason
}
