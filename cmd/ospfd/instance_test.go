package main

import (
	"net"
	"testing"
	"time"

	"github.com/openospfd/ospfd/config"
	"github.com/openospfd/ospfd/flood"
	"github.com/openospfd/ospfd/fsm"
	"github.com/openospfd/ospfd/lsdb"
	"github.com/openospfd/ospfd/timer"
	"github.com/openospfd/ospfd/wire"
)

func TestParseVersion(t *testing.T) {
	if v, err := parseVersion("v2"); err != nil || v != wire.Version2 {
		t.Fatalf("parseVersion(v2) = %v, %v", v, err)
	}
	if v, err := parseVersion("v3"); err != nil || v != wire.Version3 {
		t.Fatalf("parseVersion(v3) = %v, %v", v, err)
	}
	if _, err := parseVersion("v1"); err == nil {
		t.Fatal("parseVersion(v1) should fail")
	}
}

func newTestInstance() (*Instance, *boundInterface) {
	store := config.NewStore()
	store.RouterID = wire.ID{1, 1, 1, 1}
	in := NewInstance(store, nil, nil, nil, wire.Version2)

	cfg := &config.InterfaceConfig{Name: "eth0", Type: fsm.Broadcast, Priority: 1, DeadInterval: 0}
	b := &boundInterface{
		index:      0,
		cfg:        cfg,
		fsm:        fsm.NewInterface(cfg.Type, store.RouterID, cfg.Priority),
		neighbors:  make(map[wire.ID]*fsm.Neighbor),
		addrs:      make(map[wire.ID]*net.IPAddr),
		deadTimers: make(map[wire.ID]timer.EventID),
		acks:       flood.NewAckBundle(),
	}
	in.byIndex[0] = b
	return in, b
}

func TestHandleHelloCreatesNeighborAndTracksPriority(t *testing.T) {
	in, b := newTestInstance()
	neighborID := wire.ID{2, 2, 2, 2}

	in.handleHello(b, wire.Header{RouterID: neighborID}, &wire.Hello{RouterPriority: 5})

	nb, ok := b.neighbors[neighborID]
	if !ok {
		t.Fatal("neighbor not created on first Hello")
	}
	if nb.Priority != 5 {
		t.Fatalf("neighbor priority = %d, want 5", nb.Priority)
	}
	if nb.State() != fsm.NbrInit {
		t.Fatalf("neighbor state = %s, want Init (self not yet listed)", nb.State())
	}
}

func TestHandleHelloReachesTwoWayWhenSelfListed(t *testing.T) {
	in, b := newTestInstance()
	neighborID := wire.ID{2, 2, 2, 2}

	in.handleHello(b, wire.Header{RouterID: neighborID}, &wire.Hello{
		RouterPriority: 1,
		NeighborIDs:    []wire.ID{in.store.RouterID},
	})

	nb := b.neighbors[neighborID]
	if nb.State() != fsm.NbrTwoWay {
		t.Fatalf("neighbor state = %s, want TwoWay", nb.State())
	}
}

func TestHandleDispatchesByIfIndex(t *testing.T) {
	in, b := newTestInstance()
	other := &boundInterface{
		index:      1,
		cfg:        &config.InterfaceConfig{Name: "eth1", Type: fsm.PointToPoint},
		fsm:        fsm.NewInterface(fsm.PointToPoint, in.store.RouterID, 0),
		neighbors:  make(map[wire.ID]*fsm.Neighbor),
		addrs:      make(map[wire.ID]*net.IPAddr),
		deadTimers: make(map[wire.ID]timer.EventID),
		acks:       flood.NewAckBundle(),
	}
	in.byIndex[1] = other

	neighborID := wire.ID{3, 3, 3, 3}
	in.handle(timer.Received{IfIndex: 1, Header: wire.Header{RouterID: neighborID}, Message: &wire.Hello{}})

	if _, ok := b.neighbors[neighborID]; ok {
		t.Fatal("Hello on index 1 must not land on index 0's neighbor table")
	}
	if _, ok := other.neighbors[neighborID]; !ok {
		t.Fatal("Hello on index 1 did not reach index 1's bound interface")
	}
}

func TestDRCandidatesExcludesNeighborsBelowTwoWay(t *testing.T) {
	in, b := newTestInstance()
	init := fsm.NewNeighbor(wire.ID{4, 4, 4, 4}, 0)
	b.neighbors[wire.ID{4, 4, 4, 4}] = init

	cands := in.drCandidates(b)
	for _, c := range cands {
		if c.RouterID == (wire.ID{4, 4, 4, 4}) {
			t.Fatal("a neighbor stuck below TwoWay must not be a DR candidate")
		}
	}
}

// TestHandleDatabaseDescriptionNegotiatesAndCompletesEmptyExchange drives a
// neighbor with no LSAs to exchange from ExStart through to Full, covering
// the negotiation and zero-summary completion path.
func TestHandleDatabaseDescriptionNegotiatesAndCompletesEmptyExchange(t *testing.T) {
	in, b := newTestInstance()
	neighborID := wire.ID{2, 2, 2, 2} // higher than store.RouterID, so the neighbor is master.

	nb := fsm.NewNeighbor(neighborID, time.Minute)
	nb.Step(fsm.HelloReceived, true)
	nb.Step(fsm.TwoWayReceived, true)
	b.neighbors[neighborID] = nb
	if nb.State() != fsm.NbrExStart {
		t.Fatalf("setup: neighbor state = %s, want ExStart", nb.State())
	}

	in.handleDatabaseDescription(b, wire.Header{RouterID: neighborID}, &wire.DatabaseDescription{
		Flags:          wire.IBit | wire.MBit | wire.MSBit,
		SequenceNumber: 777,
	})
	if nb.State() != fsm.NbrExchange {
		t.Fatalf("neighbor state after negotiation = %s, want Exchange", nb.State())
	}
	if nb.IsMaster() {
		t.Fatal("local router has the lower router ID and should be slave")
	}

	in.handleDatabaseDescription(b, wire.Header{RouterID: neighborID}, &wire.DatabaseDescription{
		Flags:          wire.MSBit,
		SequenceNumber: 778,
	})
	if nb.State() != fsm.NbrFull {
		t.Fatalf("neighbor state after empty exchange = %s, want Full", nb.State())
	}
}

// TestHandleLinkStateRequestResetsAdjacencyOnMiss covers RFC 2328 §10.9:
// a request for an identity not actually in the database forces BadLSReq.
func TestHandleLinkStateRequestResetsAdjacencyOnMiss(t *testing.T) {
	in, b := newTestInstance()
	neighborID := wire.ID{2, 2, 2, 2}

	nb := fsm.NewNeighbor(neighborID, time.Minute)
	nb.Step(fsm.HelloReceived, true)
	nb.Step(fsm.TwoWayReceived, true)
	if !nb.AcceptNegotiation(in.store.RouterID, wire.IBit|wire.MBit|wire.MSBit, 1) {
		t.Fatal("setup: negotiation should succeed")
	}
	nb.Step(fsm.NegotiationDone, true)
	b.neighbors[neighborID] = nb

	in.handleLinkStateRequest(b, wire.Header{RouterID: neighborID}, &wire.LinkStateRequest{
		LSAs: []wire.LSA{{Type: wire.RouterLSAv2, LinkStateID: wire.ID{9, 9, 9, 9}, AdvertisingRouter: wire.ID{9, 9, 9, 9}}},
	})

	if nb.State() != fsm.NbrExStart {
		t.Fatalf("neighbor state after bad request = %s, want ExStart", nb.State())
	}
}

// TestHandleLinkStateUpdateInstallsNewerInstance covers §4.2's install path:
// a newer instance than anything on record is installed into the area scope.
func TestHandleLinkStateUpdateInstallsNewerInstance(t *testing.T) {
	in, b := newTestInstance()
	in.areaLSDBs[b.cfg.Area] = lsdb.NewStore(lsdb.AreaScope, "area0", wire.Version2)
	neighborID := wire.ID{2, 2, 2, 2}

	nb := fsm.NewNeighbor(neighborID, time.Minute)
	nb.Step(fsm.HelloReceived, true)
	nb.Step(fsm.TwoWayReceived, true)
	if !nb.AcceptNegotiation(in.store.RouterID, wire.IBit|wire.MBit|wire.MSBit, 1) {
		t.Fatal("setup: negotiation should succeed")
	}
	nb.Step(fsm.NegotiationDone, true)
	b.neighbors[neighborID] = nb

	var bld wire.Builder
	raw, err := bld.Build(wire.LSAHeader{
		LSA: wire.LSA{Type: wire.RouterLSAv2, LinkStateID: wire.ID{5, 5, 5, 5}, AdvertisingRouter: wire.ID{5, 5, 5, 5}},
	}, &wire.RouterLSABody{}, wire.Version2)
	if err != nil {
		t.Fatalf("setup: failed to build LSA: %v", err)
	}
	full, err := wire.ParseLSA(raw, wire.Version2)
	if err != nil {
		t.Fatalf("setup: failed to parse built LSA: %v", err)
	}

	in.handleLinkStateUpdate(b, wire.Header{RouterID: neighborID}, &wire.LinkStateUpdate{LSAs: []wire.FullLSA{full}})

	ref, ok := in.areaLSDBs[b.cfg.Area].Find(full.Header.Identity())
	if !ok {
		t.Fatal("newer LSA instance was not installed")
	}
	if ref.Header().SequenceNumber != full.Header.SequenceNumber {
		t.Fatalf("installed sequence number = %#x, want %#x", ref.Header().SequenceNumber, full.Header.SequenceNumber)
	}
}

// TestHandleLinkStateAcknowledgementClearsRetransmit covers §4.4's ack
// handling: an acknowledged identity is dropped from the retransmit list.
func TestHandleLinkStateAcknowledgementClearsRetransmit(t *testing.T) {
	in, b := newTestInstance()
	neighborID := wire.ID{7, 7, 7, 7}
	nb := fsm.NewNeighbor(neighborID, time.Minute)
	b.neighbors[neighborID] = nb

	store := lsdb.NewStore(lsdb.AreaScope, "area0", wire.Version2)
	h := wire.LSAHeader{LSA: wire.LSA{Type: wire.RouterLSAv2, LinkStateID: wire.ID{8, 8, 8, 8}, AdvertisingRouter: wire.ID{8, 8, 8, 8}}}
	if err := store.Insert(h, &wire.RouterLSABody{}, make([]byte, 24)); err != nil {
		t.Fatalf("setup: %v", err)
	}
	ref, ok := store.Find(h.Identity())
	if !ok {
		t.Fatal("setup: LSA not found after insert")
	}
	nb.Retransmit().Add(ref, time.Now())

	in.handleLinkStateAcknowledgement(b, wire.Header{RouterID: neighborID}, &wire.LinkStateAcknowledgement{LSAs: []wire.LSAHeader{h}})

	if nb.Retransmit().Contains(h.Identity()) {
		t.Fatal("acked identity still on retransmit list")
	}
}

// TestExpireNeighborDeclaresDown covers the timer.Wheel-driven inactivity
// path: a neighbor whose RouterDeadInterval has elapsed is torn down and its
// per-neighbor bookkeeping released.
func TestExpireNeighborDeclaresDown(t *testing.T) {
	in, b := newTestInstance()
	neighborID := wire.ID{6, 6, 6, 6}

	nb := fsm.NewNeighbor(neighborID, 0)
	nb.Step(fsm.HelloReceived, false)
	b.neighbors[neighborID] = nb
	b.addrs[neighborID] = &net.IPAddr{IP: net.ParseIP("10.0.0.6")}
	b.deadTimers[neighborID] = in.wheel.After(time.Hour, func() {})

	in.expireNeighbor(b, neighborID)

	if nb.State() != fsm.NbrDown {
		t.Fatalf("neighbor state = %s, want Down", nb.State())
	}
	if _, ok := b.deadTimers[neighborID]; ok {
		t.Fatal("dead timer entry not cleared on expiry")
	}
	if _, ok := b.addrs[neighborID]; ok {
		t.Fatal("address entry not cleared on expiry")
	}
}
