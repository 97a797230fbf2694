package fsm

import (
	"testing"
	"time"

	"github.com/openospfd/ospfd/wire"
)

func TestInterfaceUpP2P(t *testing.T) {
	ifc := NewInterface(PointToPoint, wire.ID{1, 1, 1, 1}, 1)
	ifc.Step(InterfaceUp, nil)
	if ifc.State() != IfPointToPoint {
		t.Fatalf("State() = %v, want %v", ifc.State(), IfPointToPoint)
	}
	if !ifc.AdjacencyWanted(wire.ID{2, 2, 2, 2}) {
		t.Fatal("AdjacencyWanted() = false on P2P, want true")
	}
}

func TestInterfaceUpBroadcastWaiting(t *testing.T) {
	ifc := NewInterface(Broadcast, wire.ID{1, 1, 1, 1}, 1)
	ifc.Step(InterfaceUp, nil)
	if ifc.State() != IfWaiting {
		t.Fatalf("State() = %v, want %v", ifc.State(), IfWaiting)
	}
}

func TestInterfaceDROtherWhenPriorityZero(t *testing.T) {
	ifc := NewInterface(Broadcast, wire.ID{1, 1, 1, 1}, 0)
	ifc.Step(InterfaceUp, nil)
	if ifc.State() != IfDROther {
		t.Fatalf("State() = %v, want %v", ifc.State(), IfDROther)
	}
}

func TestElectionTieBrokenByRouterID(t *testing.T) {
	ifc := NewInterface(Broadcast, wire.ID{10, 0, 0, 10}, 5)
	ifc.Step(InterfaceUp, nil)

	candidates := []DRCandidate{
		{RouterID: wire.ID{10, 0, 0, 10}, Priority: 5},
		{RouterID: wire.ID{10, 0, 0, 20}, Priority: 3},
		{RouterID: wire.ID{10, 0, 0, 30}, Priority: 3},
	}

	ifc.Step(WaitTimer, candidates)

	if ifc.DR() != (wire.ID{10, 0, 0, 10}) {
		t.Fatalf("DR() = %v, want 10.0.0.10", ifc.DR())
	}
	if ifc.BDR() != (wire.ID{10, 0, 0, 30}) {
		t.Fatalf("BDR() = %v, want 10.0.0.30 (tie broken by higher router id)", ifc.BDR())
	}
}

func TestElectionStableWhenCandidateDeclaresSelf(t *testing.T) {
	self := wire.ID{1, 1, 1, 1}
	ifc := NewInterface(Broadcast, self, 1)
	ifc.Step(InterfaceUp, nil)

	candidates := []DRCandidate{
		{RouterID: self, Priority: 1},
		{RouterID: wire.ID{2, 2, 2, 2}, Priority: 1, DeclaredDR: wire.ID{2, 2, 2, 2}},
	}
	ifc.Step(WaitTimer, candidates)

	if ifc.DR() != (wire.ID{2, 2, 2, 2}) {
		t.Fatalf("DR() = %v, want the declaring candidate to win", ifc.DR())
	}
	if ifc.IsDR() {
		t.Fatal("IsDR() = true, want false")
	}
}

func TestNeighborAdjacencyFlow(t *testing.T) {
	n := NewNeighbor(wire.ID{2, 2, 2, 2}, 5*time.Second)

	n.Step(HelloReceived, false)
	if n.State() != NbrInit {
		t.Fatalf("State() after HelloReceived = %v, want Init", n.State())
	}

	n.Step(TwoWayReceived, true)
	if n.State() != NbrExStart {
		t.Fatalf("State() after TwoWayReceived(adjacency wanted) = %v, want ExStart", n.State())
	}

	n.Step(NegotiationDone, false)
	if n.State() != NbrExchange {
		t.Fatalf("State() after NegotiationDone = %v, want Exchange", n.State())
	}

	n.requestList = []wire.LSA{{Type: wire.RouterLSA}}
	n.Step(ExchangeDone, false)
	if n.State() != NbrLoading {
		t.Fatalf("State() after ExchangeDone with pending requests = %v, want Loading", n.State())
	}

	n.Step(LoadingDone, false)
	if n.State() != NbrFull {
		t.Fatalf("State() after LoadingDone = %v, want Full", n.State())
	}
}

func TestNeighborExchangeDoneFullWhenNoRequests(t *testing.T) {
	n := NewNeighbor(wire.ID{2, 2, 2, 2}, 5*time.Second)
	n.Step(HelloReceived, false)
	n.Step(TwoWayReceived, true)
	n.Step(NegotiationDone, false)
	n.Step(ExchangeDone, false)
	if n.State() != NbrFull {
		t.Fatalf("State() = %v, want Full when request list empty", n.State())
	}
}

func TestNeighborBadLSReqResetsToExStart(t *testing.T) {
	n := NewNeighbor(wire.ID{2, 2, 2, 2}, 5*time.Second)
	n.Step(HelloReceived, false)
	n.Step(TwoWayReceived, true)
	n.Step(NegotiationDone, false)

	n.Step(BadLSReq, false)
	if n.State() != NbrExStart {
		t.Fatalf("State() after BadLSReq = %v, want ExStart", n.State())
	}
}

func TestNeighborMastershipByRouterID(t *testing.T) {
	n := NewNeighbor(wire.ID{2, 2, 2, 2}, 5*time.Second)
	n.NegotiateMastership(wire.ID{1, 1, 1, 1}, 100)
	if n.IsMaster() {
		t.Fatal("IsMaster() = true, want false when self router id is lower")
	}
}

func TestProcessPeerSummaryQueuesNewerOnly(t *testing.T) {
	n := NewNeighbor(wire.ID{2, 2, 2, 2}, 5*time.Second)

	id := wire.LSA{Type: wire.RouterLSA, AdvertisingRouter: wire.ID{2, 2, 2, 2}}
	local := map[wire.LSA]wire.LSAHeader{
		id: {LSA: id, SequenceNumber: 5},
	}

	headers := []wire.LSAHeader{
		{LSA: id, SequenceNumber: 6},
	}
	n.ProcessPeerSummary(headers, func(want wire.LSA) (wire.LSAHeader, bool) {
		h, ok := local[want]
		return h, ok
	})

	if len(n.RequestList()) != 1 {
		t.Fatalf("RequestList() len = %d, want 1 for a newer peer instance", len(n.RequestList()))
	}
}

func TestFulfillRequestDrains(t *testing.T) {
	n := NewNeighbor(wire.ID{2, 2, 2, 2}, 5*time.Second)
	id := wire.LSA{Type: wire.RouterLSA}
	n.requestList = []wire.LSA{id}

	if drained := n.FulfillRequest(id); !drained {
		t.Fatal("FulfillRequest() = false, want true once list empties")
	}
}

func TestKeyRingMD5RoundTrip(t *testing.T) {
	ring := NewKeyRing(AuthMD5)
	ring.Keys = []Key{{KeyID: 1, Key: []byte("secret")}}

	now := time.Unix(1000, 0)
	h := &wire.Header{}
	packet := []byte("hello world")

	digest, err := ring.Sign(h, packet, now)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if h.AuthSeq != 1 {
		t.Fatalf("AuthSeq = %d, want 1", h.AuthSeq)
	}

	if err := ring.Verify(*h, packet, digest, wire.ID{9, 9, 9, 9}, now); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestKeyRingMD5RejectsReplayedSequence(t *testing.T) {
	ring := NewKeyRing(AuthMD5)
	ring.Keys = []Key{{KeyID: 1, Key: []byte("secret")}}
	src := wire.ID{9, 9, 9, 9}
	now := time.Unix(1000, 0)

	h := &wire.Header{}
	packet := []byte("hello world")
	digest, _ := ring.Sign(h, packet, now)

	if err := ring.Verify(*h, packet, digest, src, now); err != nil {
		t.Fatalf("first Verify: %v", err)
	}
	if err := ring.Verify(*h, packet, digest, src, now); err == nil {
		t.Fatal("second Verify with same sequence = nil error, want ErrAuthFailed")
	}
}

func TestKeyRingSimplePasswordMismatch(t *testing.T) {
	ring := NewKeyRing(AuthSimple)
	ring.Keys = []Key{{Key: []byte("letmein")}}
	now := time.Unix(1000, 0)

	h := &wire.Header{}
	if err := ring.Verify(*h, nil, []byte("wrongpw0"), wire.ID{}, now); err == nil {
		t.Fatal("Verify with wrong password = nil error, want ErrAuthFailed")
	}
}
