// Package fsm implements the interface and neighbor finite state machines
// of §4.5: interface state transitions and DR/BDR election, neighbor
// adjacency bring-up through database exchange, and authentication.
package fsm

import (
	"github.com/openospfd/ospfd/wire"
)

// An InterfaceState is one state of the interface FSM, RFC 2328 §9.1 /
// RFC 5340 §4.4.1.
type InterfaceState uint8

// Possible InterfaceState values.
const (
	IfDown InterfaceState = iota
	IfLoopback
	IfWaiting
	IfPointToPoint
	IfDROther
	IfBackup
	IfDR
)

func (s InterfaceState) String() string {
	switch s {
	case IfDown:
		return "Down"
	case IfLoopback:
		return "Loopback"
	case IfWaiting:
		return "Waiting"
	case IfPointToPoint:
		return "Point-to-Point"
	case IfDROther:
		return "DROther"
	case IfBackup:
		return "Backup"
	case IfDR:
		return "DR"
	default:
		return "unknown"
	}
}

// A NetworkType classifies an interface's link layer, which governs
// whether DR election applies and whether adjacencies form with every
// neighbor or only the DR/BDR.
type NetworkType uint8

// Possible NetworkType values.
const (
	Broadcast NetworkType = iota
	NBMA
	PointToPoint
	PointToMultipoint
	VirtualLink
)

// electable reports whether net requires DR/BDR election.
func (n NetworkType) electable() bool {
	return n == Broadcast || n == NBMA
}

// Electable reports whether net requires DR/BDR election, for callers
// outside this package deciding whether to re-trigger one on neighbor
// change.
func (n NetworkType) Electable() bool {
	return n.electable()
}

// An InterfaceEvent drives the interface FSM, RFC 2328 §9.2.
type InterfaceEvent uint8

// Possible InterfaceEvent values.
const (
	InterfaceUp InterfaceEvent = iota
	WaitTimer
	BackupSeen
	NeighborChange
	LoopInd
	UnloopInd
	InterfaceDown
)

// A DRCandidate is one router eligible to be elected DR/BDR: either a
// neighbor in at least TwoWay with nonzero priority, or the local router
// itself.
type DRCandidate struct {
	RouterID      wire.ID
	InterfaceAddr wire.ID // Neighbor's or our own interface/link-local identifier.
	Priority      uint8
	DeclaredDR    wire.ID
	DeclaredBDR   wire.ID
}

// Interface holds the mutable interface-FSM state for one OSPF interface.
type Interface struct {
	Type     NetworkType
	Priority uint8
	RouterID wire.ID

	state InterfaceState
	dr    wire.ID
	bdr   wire.ID
}

// NewInterface constructs an Interface in the Down state.
func NewInterface(t NetworkType, routerID wire.ID, priority uint8) *Interface {
	return &Interface{Type: t, RouterID: routerID, Priority: priority, state: IfDown}
}

// State returns the interface's current FSM state.
func (ifc *Interface) State() InterfaceState { return ifc.state }

// DR returns the currently elected Designated Router, zero ID if none.
func (ifc *Interface) DR() wire.ID { return ifc.dr }

// BDR returns the currently elected Backup Designated Router, zero ID if
// none.
func (ifc *Interface) BDR() wire.ID { return ifc.bdr }

// IsDR reports whether this router is the elected DR on the interface.
func (ifc *Interface) IsDR() bool { return ifc.dr == ifc.RouterID }

// IsBDR reports whether this router is the elected BDR on the interface.
func (ifc *Interface) IsBDR() bool { return ifc.bdr == ifc.RouterID }

// Step applies event to the interface FSM, returning whether the election
// result changed (Network-LSA and adjacency re-examination are owed to the
// caller on a true return, per §4.5).
func (ifc *Interface) Step(event InterfaceEvent, candidates []DRCandidate) bool {
	switch event {
	case InterfaceUp:
		switch {
		case ifc.Type == PointToPoint || ifc.Type == PointToMultipoint || ifc.Type == VirtualLink:
			ifc.state = IfPointToPoint
			return false
		case ifc.Type.electable() && ifc.Priority > 0:
			ifc.state = IfWaiting
			return false
		default:
			ifc.state = IfDROther
			return false
		}

	case InterfaceDown, LoopInd:
		ifc.state = IfDown
		if event == LoopInd {
			ifc.state = IfLoopback
		}
		changed := ifc.dr != wire.ID{} || ifc.bdr != wire.ID{}
		ifc.dr, ifc.bdr = wire.ID{}, wire.ID{}
		return changed

	case UnloopInd:
		if ifc.state == IfLoopback {
			ifc.state = IfDown
		}
		return false

	case WaitTimer, BackupSeen:
		if ifc.state != IfWaiting && event == WaitTimer {
			return false
		}
		return ifc.elect(candidates)

	case NeighborChange:
		if ifc.state == IfDown || ifc.state == IfLoopback || ifc.state == IfWaiting {
			return false
		}
		return ifc.elect(candidates)
	}

	return false
}

// elect runs the deterministic RFC 2328 §9.4 two-pass DR/BDR algorithm over
// candidates (which must include this router as one entry) and updates the
// interface's state and dr/bdr fields. It reports whether the DR or BDR
// changed.
func (ifc *Interface) elect(candidates []DRCandidate) bool {
	prevDR, prevBDR := ifc.dr, ifc.bdr

	eligible := make([]DRCandidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Priority > 0 {
			eligible = append(eligible, c)
		}
	}

	if len(eligible) == 0 {
		ifc.dr, ifc.bdr = wire.ID{}, wire.ID{}
		ifc.settleState()
		return prevDR != ifc.dr || prevBDR != ifc.bdr
	}

	dr, bdr := runElectionPass(eligible, ifc.RouterID, false, false)

	// RFC 2328 §9.4: if this router's own role as DR or BDR changed as a
	// result of the first pass, the whole calculation repeats once more,
	// this time with the router's newly-determined role taken into
	// account for its own declared fields (a new DR is no longer eligible
	// to also be elected BDR, and vice versa).
	becameDR := dr == ifc.RouterID
	becameBDR := bdr == ifc.RouterID
	if becameDR != (prevDR == ifc.RouterID) || becameBDR != (prevBDR == ifc.RouterID) {
		dr, bdr = runElectionPass(eligible, ifc.RouterID, becameDR, becameBDR)
	}

	ifc.dr, ifc.bdr = dr, bdr
	ifc.settleState()

	return prevDR != ifc.dr || prevBDR != ifc.bdr
}

// runElectionPass runs one pass of the RFC 2328 §9.4 two-step calculation.
// selfDeclaresDR/selfDeclaresBDR override what the self candidate is
// considered to declare, used on the repeat pass to reflect the router's
// own just-determined role rather than its last-advertised Hello fields.
func runElectionPass(candidates []DRCandidate, self wire.ID, selfDeclaresDR, selfDeclaresBDR bool) (dr, bdr wire.ID) {
	declares := func(c DRCandidate) (declaresDR, declaresBDR bool) {
		if c.RouterID == self {
			return selfDeclaresDR, selfDeclaresBDR
		}
		return c.DeclaredDR == c.RouterID, c.DeclaredBDR == c.RouterID
	}

	bdr = electBDR(candidates, declares)
	dr = electDR(candidates, bdr, declares)
	return dr, bdr
}

// settleState sets the interface's visible state (DR/Backup/DROther) once
// dr/bdr have been decided, for an electable network.
func (ifc *Interface) settleState() {
	switch {
	case ifc.IsDR():
		ifc.state = IfDR
	case ifc.IsBDR():
		ifc.state = IfBackup
	default:
		ifc.state = IfDROther
	}
}

// electBDR elects a BDR from candidates that do not declare themselves DR,
// preferring those who declare themselves BDR, breaking ties by priority
// then by higher router ID.
func electBDR(candidates []DRCandidate, declares func(DRCandidate) (bool, bool)) wire.ID {
	notDR := make([]DRCandidate, 0, len(candidates))
	for _, c := range candidates {
		if declaresDR, _ := declares(c); !declaresDR {
			notDR = append(notDR, c)
		}
	}
	if len(notDR) == 0 {
		return wire.ID{}
	}

	declaring := make([]DRCandidate, 0, len(notDR))
	for _, c := range notDR {
		if _, declaresBDR := declares(c); declaresBDR {
			declaring = append(declaring, c)
		}
	}

	pool := notDR
	if len(declaring) > 0 {
		pool = declaring
	}

	return highestPriority(pool).RouterID
}

// electDR elects a DR: any candidate declaring itself DR wins (by
// priority/router-id tie-break among those); failing that, bdr becomes DR.
func electDR(candidates []DRCandidate, bdr wire.ID, declares func(DRCandidate) (bool, bool)) wire.ID {
	declaring := make([]DRCandidate, 0, len(candidates))
	for _, c := range candidates {
		if declaresDR, _ := declares(c); declaresDR {
			declaring = append(declaring, c)
		}
	}

	if len(declaring) > 0 {
		return highestPriority(declaring).RouterID
	}

	return bdr
}

// highestPriority returns the candidate with the greatest priority,
// breaking ties with the numerically greater router ID.
func highestPriority(candidates []DRCandidate) DRCandidate {
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Priority > best.Priority || (c.Priority == best.Priority && idLess(best.RouterID, c.RouterID)) {
			best = c
		}
	}
	return best
}

func idLess(a, b wire.ID) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// AdjacencyWanted reports whether this interface should attempt full
// adjacency with a neighbor declaring the given router ID, per §4.5: always
// on P2P/P2MP/VL, otherwise only with the DR, the BDR, or when this router
// itself is DR or BDR.
func (ifc *Interface) AdjacencyWanted(neighborID wire.ID) bool {
	if !ifc.Type.electable() {
		return true
	}
	if ifc.IsDR() || ifc.IsBDR() {
		return true
	}
	return neighborID == ifc.dr || neighborID == ifc.bdr
}
