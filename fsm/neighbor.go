package fsm

import (
	"errors"
	"time"

	"github.com/openospfd/ospfd/flood"
	"github.com/openospfd/ospfd/wire"
)

// A NeighborState is one state of the neighbor FSM, RFC 2328 §10.1.
type NeighborState uint8

// Possible NeighborState values.
const (
	NbrDown NeighborState = iota
	NbrAttempt
	NbrInit
	NbrTwoWay
	NbrExStart
	NbrExchange
	NbrLoading
	NbrFull
)

func (s NeighborState) String() string {
	switch s {
	case NbrDown:
		return "Down"
	case NbrAttempt:
		return "Attempt"
	case NbrInit:
		return "Init"
	case NbrTwoWay:
		return "2-Way"
	case NbrExStart:
		return "ExStart"
	case NbrExchange:
		return "Exchange"
	case NbrLoading:
		return "Loading"
	case NbrFull:
		return "Full"
	default:
		return "unknown"
	}
}

// A NeighborEvent drives the neighbor FSM, RFC 2328 §10.2.
type NeighborEvent uint8

// Possible NeighborEvent values.
const (
	HelloReceived NeighborEvent = iota
	Start
	TwoWayReceived
	NegotiationDone
	ExchangeDone
	BadLSReq
	LoadingDone
	AdjOK
	SeqNumberMismatch
	OneWayReceived
	KillNbr
	InactivityTimer
	LLDown
)

// ErrBadSequence reports an out-of-window DD or MD5 sequence number,
// carrying the prescribed FSM action (reset to ExStart) for the caller.
var ErrBadSequence = errors.New("fsm: bad sequence number")

// Neighbor holds the mutable neighbor-FSM state for one OSPF neighbor,
// including its four-part exchange lists per XORP's SpfNbr.
type Neighbor struct {
	RouterID wire.ID
	Priority uint8

	state  NeighborState
	master bool
	ddSeq  uint32

	// summaryList is this side's remaining database-summary headers to
	// send during Exchange (XORP's n_ddlst).
	summaryList []wire.LSAHeader

	// requestList is the set of identities requested from this neighbor
	// during Loading (XORP's n_rqlst), in request order.
	requestList []wire.LSA

	// retransmit holds LSAs flooded to this neighbor pending
	// acknowledgement, shared with the flood package's assembly and
	// retransmit-due logic.
	retransmit *flood.RetransmitList

	lastDD wire.DatabaseDescription
	gotDD  bool

	adjacencyWanted bool
}

// NewNeighbor constructs a Neighbor in the Down state.
func NewNeighbor(routerID wire.ID, rxmtInterval time.Duration) *Neighbor {
	return &Neighbor{
		RouterID:   routerID,
		state:      NbrDown,
		retransmit: flood.NewRetransmitList(rxmtInterval),
	}
}

// State returns the neighbor's current FSM state.
func (n *Neighbor) State() NeighborState { return n.state }

// IsMaster reports whether this router, rather than the neighbor, is the
// master of the pending or completed database exchange.
func (n *Neighbor) IsMaster() bool { return n.master }

// Retransmit returns the neighbor's shared retransmit list.
func (n *Neighbor) Retransmit() *flood.RetransmitList { return n.retransmit }

// RequestList returns the neighbor's pending Link State Request identities.
func (n *Neighbor) RequestList() []wire.LSA { return n.requestList }

// Step applies a non-adjacency-negotiation event to the neighbor FSM:
// Down/Init/TwoWay transitions and the universal teardown events. Mastership
// is decided separately, by NegotiateMastership and AcceptNegotiation.
func (n *Neighbor) Step(event NeighborEvent, adjacencyWanted bool) {
	switch event {
	case HelloReceived:
		if n.state == NbrDown || n.state == NbrAttempt {
			n.state = NbrInit
		}

	case Start:
		n.state = NbrAttempt

	case TwoWayReceived:
		if n.state != NbrInit {
			return
		}
		n.adjacencyWanted = adjacencyWanted
		if adjacencyWanted {
			n.BeginExStart()
		} else {
			n.state = NbrTwoWay
		}

	case OneWayReceived:
		if n.state > NbrTwoWay {
			n.clearLists()
		}
		if n.state >= NbrTwoWay {
			n.state = NbrInit
		}

	case KillNbr, LLDown, InactivityTimer:
		n.clearLists()
		n.state = NbrDown

	case BadLSReq, SeqNumberMismatch:
		n.clearLists()
		n.BeginExStart()

	case AdjOK:
		switch {
		case n.state == NbrTwoWay && adjacencyWanted:
			n.BeginExStart()
		case n.state > NbrTwoWay && !adjacencyWanted:
			n.clearLists()
			n.state = NbrTwoWay
		}

	case NegotiationDone:
		if n.state == NbrExStart {
			n.state = NbrExchange
		}

	case ExchangeDone:
		if n.state != NbrExchange {
			return
		}
		if len(n.requestList) == 0 {
			n.state = NbrFull
		} else {
			n.state = NbrLoading
		}

	case LoadingDone:
		if n.state == NbrLoading {
			n.state = NbrFull
		}
	}
}

// BeginExStart resets the exchange lists and moves to ExStart, as happens
// both on the initial TwoWayReceived+adjacencyWanted transition and on
// re-adjacency after BadLSReq/SeqNumberMismatch.
func (n *Neighbor) BeginExStart() {
	n.clearLists()
	n.state = NbrExStart
}

// clearLists empties the summary, request, and retransmit lists, per the
// "clear lists" action associated with every transition out of Exchange or
// later back toward Down/TwoWay/ExStart.
func (n *Neighbor) clearLists() {
	n.summaryList = nil
	n.requestList = nil
	n.gotDD = false
	n.retransmit.Clear()
}

// NegotiateMastership decides mastership and the initial DD sequence
// number for an ExStart DD exchange, per §4.5: master is the neighbor with
// the higher router ID. selfID is this router's own router ID and
// initialSeq should be a locally unpredictable starting sequence number.
func (n *Neighbor) NegotiateMastership(selfID wire.ID, initialSeq uint32) {
	n.master = idLess(n.RouterID, selfID)
	n.ddSeq = initialSeq
}

// AcceptNegotiation finalizes mastership from a peer's initial empty DD
// packet (I/M/MS all set) during ExStart, per RFC 2328 §10.6. It returns
// whether negotiation succeeded; on success the caller should issue
// NegotiationDone.
func (n *Neighbor) AcceptNegotiation(selfID wire.ID, peerFlags wire.DDFlags, peerSeq uint32) bool {
	if n.state != NbrExStart {
		return false
	}

	allSet := peerFlags&wire.IBit != 0 && peerFlags&wire.MBit != 0 && peerFlags&wire.MSBit != 0
	if allSet && idLess(selfID, n.RouterID) {
		// Peer has the higher router ID and is declaring itself master;
		// we are slave and adopt its sequence number.
		n.master = false
		n.ddSeq = peerSeq
		return true
	}

	if !allSet && peerFlags&wire.MSBit == 0 && idLess(n.RouterID, selfID) {
		// We are master (our router ID is higher) and the peer has
		// accepted slave status by echoing our sequence number.
		n.master = true
		return peerSeq == n.ddSeq
	}

	return false
}

// NextDDSequence returns the sequence number for the next DD packet this
// side sends. As master it advances the sequence first; as slave it returns
// the current sequence unchanged, echoing the master's.
func (n *Neighbor) NextDDSequence() uint32 {
	if n.master {
		n.ddSeq++
	}
	return n.ddSeq
}

// AcceptSlaveSequence validates a slave's echoed DD sequence number against
// what this (master) side sent, wrapping ErrBadSequence on mismatch so
// callers can errors.Is it into a SeqNumberMismatch event.
func (n *Neighbor) AcceptSlaveSequence(seq uint32) error {
	if !n.master {
		return nil
	}
	if seq != n.ddSeq {
		return ErrBadSequence
	}
	return nil
}

// AcceptMasterSequence validates and adopts a master's DD sequence number
// on the slave side, incrementing to match for the next round.
func (n *Neighbor) AcceptMasterSequence(seq uint32) error {
	if n.master {
		return nil
	}
	if seq != n.ddSeq+1 && seq != n.ddSeq {
		return ErrBadSequence
	}
	n.ddSeq = seq
	return nil
}

// SetSummaryList installs the database-summary list to drain to this
// neighbor during Exchange, called once on entering ExStart->Exchange.
func (n *Neighbor) SetSummaryList(headers []wire.LSAHeader) {
	n.summaryList = append([]wire.LSAHeader(nil), headers...)
}

// NextSummaryBatch pops up to max headers from the summary list for the
// next DD packet, reporting whether more remain (the M-bit).
func (n *Neighbor) NextSummaryBatch(max int) (batch []wire.LSAHeader, more bool) {
	if max > len(n.summaryList) {
		max = len(n.summaryList)
	}
	batch = n.summaryList[:max]
	n.summaryList = n.summaryList[max:]
	return batch, len(n.summaryList) > 0
}

// ProcessPeerSummary folds one received DD packet's headers into the
// request list: any identity absent locally or for which the peer's
// instance is newer is queued for a Link State Request, per §4.5.
func (n *Neighbor) ProcessPeerSummary(headers []wire.LSAHeader, local func(wire.LSA) (wire.LSAHeader, bool)) {
	for _, h := range headers {
		id := h.Identity()
		if lh, ok := local(id); ok && wire.CompareInstance(lh, h) != wire.BNewer {
			continue
		}
		n.requestList = append(n.requestList, id)
	}
}

// FulfillRequest removes id from the request list once its Link State
// Update has arrived, reporting whether the list is now empty (callers
// issue LoadingDone on the Loading->Full transition when so).
func (n *Neighbor) FulfillRequest(id wire.LSA) (drained bool) {
	for i, want := range n.requestList {
		if want == id {
			n.requestList = append(n.requestList[:i], n.requestList[i+1:]...)
			break
		}
	}
	return len(n.requestList) == 0
}

// AdjacencyWanted reports whether the last TwoWayReceived/AdjOK evaluation
// decided this neighbor should form a full adjacency.
func (n *Neighbor) AdjacencyWanted() bool { return n.adjacencyWanted }

// IsDuplicateDD reports whether dd repeats the last DD packet received
// from this neighbor's master (RFC 2328 §10.8: a duplicate is discarded by
// the slave, or triggers retransmission by the master), and records dd as
// the new last-seen packet.
func (n *Neighbor) IsDuplicateDD(dd wire.DatabaseDescription) bool {
	dup := n.gotDD && n.lastDD.SequenceNumber == dd.SequenceNumber && n.lastDD.Flags == dd.Flags
	n.lastDD = dd
	n.gotDD = true
	return dup
}
