package main

import (
	"context"
	"fmt"
	"math/rand"
	"net"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/openospfd/ospfd/config"
	"github.com/openospfd/ospfd/flood"
	"github.com/openospfd/ospfd/fsm"
	"github.com/openospfd/ospfd/internal/ospflog"
	"github.com/openospfd/ospfd/lsdb"
	"github.com/openospfd/ospfd/metrics"
	"github.com/openospfd/ospfd/origin"
	"github.com/openospfd/ospfd/restart"
	"github.com/openospfd/ospfd/timer"
	"github.com/openospfd/ospfd/wire"
)

// lsaHeaderWireLen is the fixed wire length of an LSA header (RFC 2328
// appendix A.4.1 / RFC 5340 appendix A.4.2.1), used to size Database
// Description batches by MTU since wire's own constant is unexported.
const lsaHeaderWireLen = 20

// An Instance wires every long-lived collaborator together: the
// configuration store, the per-scope LSDBs, one fsm.Interface and packet
// Conn per configured interface, and the dispatch loop feeding received
// packets into the interface/neighbor FSMs. It is the "Instance" the
// module layout names as cmd/ospfd's one job to build.
type Instance struct {
	store   *config.Store
	log     ospflog.Logger
	metrics *metrics.Metrics
	restart *restart.Store
	version wire.Version

	asLSDB    *lsdb.Store
	areaLSDBs map[wire.ID]*lsdb.Store

	dispatcher *timer.Dispatcher
	wheel      *timer.Wheel
	expiry     chan expiryEvent
	byIndex    map[int]*boundInterface
}

type boundInterface struct {
	index     int
	cfg       *config.InterfaceConfig
	conn      *timer.Conn
	fsm       *fsm.Interface
	neighbors map[wire.ID]*fsm.Neighbor // keyed by source identity: router-id on P2P/VL, else the neighbor's own router-id as reported in Hello

	addrs      map[wire.ID]*net.IPAddr   // last seen source address per neighbor, for unicast replies
	deadTimers map[wire.ID]timer.EventID // per-neighbor RouterDeadInterval watchdog
	acks       *flood.AckBundle
}

// An expiryEvent is a neighbor inactivity timeout delivered back onto the
// single event-loop goroutine, mirroring timer.Received's fan-in so
// Instance's shared maps are never touched from the Wheel's own goroutine.
type expiryEvent struct {
	ifIndex int
	id      wire.ID
}

// NewInstance constructs an Instance over an already-loaded config.Store.
func NewInstance(store *config.Store, log ospflog.Logger, m *metrics.Metrics, restartStore *restart.Store, v wire.Version) *Instance {
	return &Instance{
		store:     store,
		log:       log,
		metrics:   m,
		restart:   restartStore,
		version:   v,
		asLSDB:    lsdb.NewStore(lsdb.ASScope, "as", v),
		areaLSDBs: make(map[wire.ID]*lsdb.Store),
		wheel:     timer.NewWheel(),
		expiry:    make(chan expiryEvent, 64),
		byIndex:   make(map[int]*boundInterface),
	}
}

// Start builds the per-area LSDBs and opens a packet Conn plus interface
// FSM for every configured interface, bringing each one to InterfaceUp.
func (in *Instance) Start(ctx context.Context, dispatchBuf int) error {
	for _, a := range in.store.Areas() {
		in.areaLSDBs[a.ID] = lsdb.NewStore(lsdb.AreaScope, a.ID.String(), in.version)
	}

	in.dispatcher = timer.NewDispatcher(dispatchBuf)

	for i, cfg := range in.store.Interfaces() {
		ifi, err := net.InterfaceByName(cfg.Name)
		if err != nil {
			return fmt.Errorf("ospfd: interface %s: %w", cfg.Name, err)
		}
		conn, err := timer.Listen(ifi, in.version)
		if err != nil {
			return fmt.Errorf("ospfd: listen on %s: %w", cfg.Name, err)
		}

		ifc := fsm.NewInterface(cfg.Type, in.store.RouterID, cfg.Priority)
		b := &boundInterface{
			index:      i,
			cfg:        cfg,
			conn:       conn,
			fsm:        ifc,
			neighbors:  make(map[wire.ID]*fsm.Neighbor),
			addrs:      make(map[wire.ID]*net.IPAddr),
			deadTimers: make(map[wire.ID]timer.EventID),
			acks:       flood.NewAckBundle(),
		}
		in.byIndex[i] = b
		in.wheel.Every(time.Second, 0, func() { in.flushAcks(b) })

		if cfg.Passive {
			continue
		}
		ifc.Step(fsm.InterfaceUp, in.drCandidates(b))
		if in.log != nil {
			in.log.WithField("iface", cfg.Name).Infof("interface up, state=%s", ifc.State())
		}
	}
	return nil
}

// Run starts every interface's receive loop, the timer wheel driving
// delayed acks and neighbor inactivity, and the single dispatch loop that
// feeds received packets and expiry events to the interface/neighbor FSMs.
// It blocks until ctx is canceled or a receive loop fails permanently.
func (in *Instance) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	for _, b := range in.byIndex {
		g.Go(in.dispatcher.Add(gctx, b.index, b.conn))
	}

	stop := make(chan struct{})
	g.Go(func() error {
		<-gctx.Done()
		close(stop)
		return nil
	})
	g.Go(func() error {
		in.wheel.Run(stop)
		return nil
	})

	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case r := <-in.dispatcher.Received():
				in.handle(r)
			case e := <-in.expiry:
				if b, ok := in.byIndex[e.ifIndex]; ok {
					in.expireNeighbor(b, e.id)
				}
			}
		}
	})

	return g.Wait()
}

func (in *Instance) drCandidates(b *boundInterface) []fsm.DRCandidate {
	candidates := []fsm.DRCandidate{{
		RouterID: in.store.RouterID,
		Priority: b.cfg.Priority,
	}}
	for id, n := range b.neighbors {
		if n.State() < fsm.NbrTwoWay {
			continue
		}
		candidates = append(candidates, fsm.DRCandidate{
			RouterID: id,
			Priority: n.Priority,
		})
	}
	return candidates
}

// handle processes one received packet, dispatching it by interface and
// message type to the matching Neighbor/flood collaborators: Hello drives
// the interface/neighbor FSMs directly, and DatabaseDescription,
// LinkStateRequest, LinkStateUpdate, and LinkStateAcknowledgement drive
// database exchange and flooding.
func (in *Instance) handle(r timer.Received) {
	b, ok := in.byIndex[r.IfIndex]
	if !ok {
		return
	}
	b.addrs[r.Header.RouterID] = r.Src

	switch m := r.Message.(type) {
	case *wire.Hello:
		in.handleHello(b, r.Header, m)
	case *wire.DatabaseDescription:
		in.handleDatabaseDescription(b, r.Header, m)
	case *wire.LinkStateRequest:
		in.handleLinkStateRequest(b, r.Header, m)
	case *wire.LinkStateUpdate:
		in.handleLinkStateUpdate(b, r.Header, m)
	case *wire.LinkStateAcknowledgement:
		in.handleLinkStateAcknowledgement(b, r.Header, m)
	default:
		if in.log != nil {
			in.log.Debugf("received unhandled packet type from %s", r.Src)
		}
	}
}

func (in *Instance) handleHello(b *boundInterface, h wire.Header, m *wire.Hello) {
	nb, ok := b.neighbors[h.RouterID]
	if !ok {
		nb = fsm.NewNeighbor(h.RouterID, b.cfg.RetransmitDelay)
		b.neighbors[h.RouterID] = nb
		if in.metrics != nil {
			in.metrics.RecordNeighborTransition("Init")
		}
	}
	nb.Priority = m.RouterPriority
	in.resetDeadTimer(b, h.RouterID)

	selfSeen := false
	for _, id := range m.NeighborIDs {
		if id == in.store.RouterID {
			selfSeen = true
			break
		}
	}

	prev := nb.State()
	nb.Step(fsm.HelloReceived, b.fsm.AdjacencyWanted(h.RouterID))
	if selfSeen {
		nb.Step(fsm.TwoWayReceived, b.fsm.AdjacencyWanted(h.RouterID))
	} else {
		nb.Step(fsm.OneWayReceived, b.fsm.AdjacencyWanted(h.RouterID))
	}

	if prev != fsm.NbrExStart && nb.State() == fsm.NbrExStart {
		in.beginExchange(b, nb, h.RouterID)
	}

	if in.metrics != nil {
		in.metrics.RecordNeighborTransition(nb.State().String())
	}

	if b.fsm.Type.Electable() {
		b.fsm.Step(fsm.NeighborChange, in.drCandidates(b))
	}
}

// resetDeadTimer (re)schedules neighborID's RouterDeadInterval watchdog,
// canceling any timer already pending for it. Called on every Hello, per
// §9.5.3: receipt of a Hello is what keeps a neighbor alive.
func (in *Instance) resetDeadTimer(b *boundInterface, neighborID wire.ID) {
	if id, ok := b.deadTimers[neighborID]; ok {
		in.wheel.Cancel(id)
	}
	ifIndex := b.index
	b.deadTimers[neighborID] = in.wheel.After(b.cfg.DeadInterval, func() {
		select {
		case in.expiry <- expiryEvent{ifIndex: ifIndex, id: neighborID}:
		default:
		}
	})
}

// expireNeighbor tears a neighbor down once its RouterDeadInterval has
// elapsed without a Hello, per §9.5.3/§4.5.
func (in *Instance) expireNeighbor(b *boundInterface, id wire.ID) {
	nb, ok := b.neighbors[id]
	if !ok {
		return
	}
	nb.Step(fsm.InactivityTimer, false)
	delete(b.deadTimers, id)
	delete(b.addrs, id)

	if in.log != nil {
		in.log.WithField("iface", b.cfg.Name).Infof("neighbor %s declared dead", id)
	}
	if in.metrics != nil {
		in.metrics.RecordNeighborTransition(nb.State().String())
	}
	if b.fsm.Type.Electable() {
		b.fsm.Step(fsm.NeighborChange, in.drCandidates(b))
	}
}

// beginExchange sends the initial empty Database Description probe (I/M/MS
// all set) on entering ExStart, per RFC 2328 §10.6. Called both on the
// initial TwoWayReceived+adjacencyWanted transition and on re-adjacency
// after BadLSReq/SeqNumberMismatch.
func (in *Instance) beginExchange(b *boundInterface, nb *fsm.Neighbor, id wire.ID) {
	nb.NegotiateMastership(in.store.RouterID, rand.Uint32())
	dd := &wire.DatabaseDescription{
		InterfaceMTU:   uint16(b.cfg.MTU),
		Flags:          wire.IBit | wire.MBit | wire.MSBit,
		SequenceNumber: nb.NextDDSequence(),
	}
	in.sendTo(b, id, dd)
}

func (in *Instance) handleDatabaseDescription(b *boundInterface, h wire.Header, m *wire.DatabaseDescription) {
	nb, ok := b.neighbors[h.RouterID]
	if !ok {
		return
	}

	switch nb.State() {
	case fsm.NbrExStart:
		if !nb.AcceptNegotiation(in.store.RouterID, m.Flags, m.SequenceNumber) {
			return
		}
		nb.Step(fsm.NegotiationDone, b.fsm.AdjacencyWanted(h.RouterID))
		nb.SetSummaryList(in.localSummary(b.cfg.Area))
		in.sendNextDDBatch(b, nb, h.RouterID)
		if in.metrics != nil {
			in.metrics.RecordNeighborTransition(nb.State().String())
		}

	case fsm.NbrExchange:
		if nb.IsDuplicateDD(*m) {
			return
		}

		var seqErr error
		if nb.IsMaster() {
			seqErr = nb.AcceptSlaveSequence(m.SequenceNumber)
		} else {
			seqErr = nb.AcceptMasterSequence(m.SequenceNumber)
		}
		if seqErr != nil {
			nb.Step(fsm.SeqNumberMismatch, b.fsm.AdjacencyWanted(h.RouterID))
			in.beginExchange(b, nb, h.RouterID)
			return
		}

		nb.ProcessPeerSummary(m.LSAs, func(id wire.LSA) (wire.LSAHeader, bool) {
			return in.localHeader(b.cfg.Area, id)
		})

		peerMore := m.Flags&wire.MBit != 0
		ourMore := in.sendNextDDBatch(b, nb, h.RouterID)

		if !ourMore && !peerMore {
			nb.Step(fsm.ExchangeDone, b.fsm.AdjacencyWanted(h.RouterID))
			if nb.State() == fsm.NbrLoading {
				in.sendRequests(b, nb, h.RouterID)
			}
			if in.metrics != nil {
				in.metrics.RecordNeighborTransition(nb.State().String())
			}
		}
	}
}

// sendNextDDBatch pops and sends this side's next Database Description
// batch to neighbor id, reporting whether further batches remain (this
// side's M-bit for the round just sent).
func (in *Instance) sendNextDDBatch(b *boundInterface, nb *fsm.Neighbor, id wire.ID) bool {
	batch, more := nb.NextSummaryBatch(ddBatchSize(b.cfg.MTU))

	flags := wire.DDFlags(0)
	if more {
		flags |= wire.MBit
	}
	if nb.IsMaster() {
		flags |= wire.MSBit
	}

	dd := &wire.DatabaseDescription{
		InterfaceMTU:   uint16(b.cfg.MTU),
		Flags:          flags,
		SequenceNumber: nb.NextDDSequence(),
		LSAs:           batch,
	}
	in.sendTo(b, id, dd)
	return more
}

// ddBatchSize bounds a Database Description round to roughly mtu bytes of
// trailing LSA headers.
func ddBatchSize(mtu int) int {
	n := (mtu - 64) / lsaHeaderWireLen
	if n < 1 {
		n = 1
	}
	return n
}

func (in *Instance) sendRequests(b *boundInterface, nb *fsm.Neighbor, id wire.ID) {
	for _, req := range flood.AssembleRequests(nb.RequestList(), b.cfg.MTU) {
		in.sendTo(b, id, req)
	}
}

func (in *Instance) handleLinkStateRequest(b *boundInterface, h wire.Header, m *wire.LinkStateRequest) {
	nb, ok := b.neighbors[h.RouterID]
	if !ok || nb.State() < fsm.NbrExchange {
		return
	}

	refs := make([]lsdb.Ref, 0, len(m.LSAs))
	for _, id := range m.LSAs {
		ref, ok := in.localRef(b.cfg.Area, id)
		if !ok {
			for _, r := range refs {
				r.Release()
			}
			nb.Step(fsm.BadLSReq, b.fsm.AdjacencyWanted(h.RouterID))
			in.beginExchange(b, nb, h.RouterID)
			return
		}
		refs = append(refs, ref)
	}

	for _, upd := range flood.AssembleUpdates(refs, b.cfg.MTU) {
		in.sendTo(b, h.RouterID, upd)
	}
	for _, ref := range refs {
		ref.Release()
	}
}

func (in *Instance) handleLinkStateUpdate(b *boundInterface, h wire.Header, m *wire.LinkStateUpdate) {
	nb, ok := b.neighbors[h.RouterID]
	if !ok || nb.State() < fsm.NbrExchange {
		return
	}

	isDR := b.fsm.IsDR()
	var directAck []wire.LSAHeader

	for _, full := range m.LSAs {
		id := full.Header.Identity()
		local, hasLocal := in.localHeader(b.cfg.Area, id)

		duplicate := hasLocal && wire.CompareInstance(local, full.Header) == wire.Same
		newer := !hasLocal || wire.CompareInstance(local, full.Header) == wire.BNewer

		onRequestList := false
		for _, want := range nb.RequestList() {
			if want == id {
				onRequestList = true
				break
			}
		}
		onRetransmit := nb.Retransmit().Contains(id)

		installed := false
		if newer {
			if store := in.scopeStore(b.cfg.Area, id); store != nil {
				if err := store.Insert(full.Header, full.Body, full.Raw); err == nil {
					installed = true
				}
			}
		}

		switch flood.DecideAck(installed, duplicate, onRequestList, isDR, onRetransmit) {
		case flood.DirectAck:
			directAck = append(directAck, full.Header)
		case flood.DelayedAck:
			b.acks.Add(full.Header)
		}

		if onRequestList {
			if drained := nb.FulfillRequest(id); drained {
				nb.Step(fsm.LoadingDone, b.fsm.AdjacencyWanted(h.RouterID))
				if in.metrics != nil {
					in.metrics.RecordNeighborTransition(nb.State().String())
				}
			}
		}

		if installed {
			in.reflood(b, full, h.RouterID)
		}
	}

	for _, ack := range flood.AssembleAcks(directAck, b.cfg.MTU) {
		in.sendTo(b, h.RouterID, ack)
	}
}

func (in *Instance) handleLinkStateAcknowledgement(b *boundInterface, h wire.Header, m *wire.LinkStateAcknowledgement) {
	nb, ok := b.neighbors[h.RouterID]
	if !ok {
		return
	}
	for _, ack := range m.LSAs {
		nb.Retransmit().Remove(ack.Identity())
	}
	nb.Retransmit().ResetRxmtCount()
}

// reflood propagates a newly installed LSA to every other interface within
// its flooding scope, per §4.4, applying standard back-door suppression and
// placing the LSA on each flooded neighbor's retransmit list pending ack.
func (in *Instance) reflood(receivedOn *boundInterface, full wire.FullLSA, fromNeighbor wire.ID) {
	kind := full.Header.LSA.Type.Kind(in.version)
	originIfc := in.floodInterface(receivedOn)

	all := make([]flood.Interface, 0, len(in.byIndex))
	for _, b := range in.byIndex {
		all = append(all, in.floodInterface(b))
	}

	id := full.Header.Identity()
	for _, cand := range flood.Candidates(kind, in.version, originIfc, all) {
		target := in.interfaceByName(cand.ID)
		if target == nil {
			continue
		}
		if target == receivedOn && flood.BackDoorSuppressed(originIfc, cand, originIfc.IsDROrBDR) {
			continue
		}

		ref, ok := in.localRef(target.cfg.Area, id)
		if !ok {
			continue
		}

		any := false
		for nid, nb := range target.neighbors {
			if nb.State() < fsm.NbrExchange {
				continue
			}
			if target == receivedOn && nid == fromNeighbor {
				continue
			}
			nb.Retransmit().Add(ref.Clone(), time.Now())
			any = true
		}

		if any {
			for _, upd := range flood.AssembleUpdates([]lsdb.Ref{ref}, target.cfg.MTU) {
				in.broadcastUpdate(target, upd)
			}
		}
		ref.Release()
	}
}

func (in *Instance) interfaceByName(name string) *boundInterface {
	for _, b := range in.byIndex {
		if b.cfg.Name == name {
			return b
		}
	}
	return nil
}

func (in *Instance) floodInterface(b *boundInterface) flood.Interface {
	area, _ := in.store.Area(b.cfg.Area)
	return flood.Interface{
		ID:        b.cfg.Name,
		AreaID:    b.cfg.Area,
		Stub:      area != nil && area.Type == origin.StubArea,
		NSSA:      area != nil && area.Type == origin.NSSAArea,
		IsDROrBDR: b.fsm.IsDR() || b.fsm.IsBDR(),
	}
}

// flushAcks sends b's accumulated delayed acknowledgements, per §4.4's
// 1-second delayed-ack timer.
func (in *Instance) flushAcks(b *boundInterface) {
	if b.acks.Empty() {
		return
	}
	for _, ack := range flood.AssembleAcks(b.acks.Flush(), b.cfg.MTU) {
		in.broadcastAck(b, ack)
	}
}

func (in *Instance) broadcastAck(b *boundInterface, ack *wire.LinkStateAcknowledgement) {
	in.multicast(b, ack)
}

func (in *Instance) broadcastUpdate(b *boundInterface, upd *wire.LinkStateUpdate) {
	in.multicast(b, upd)
}

// multicast sends m out b to the AllSPFRouters group for the protocol
// version, used for delayed acks and reflooded updates (§4.4's group-wide
// flooding path, as opposed to the unicast replies sendTo makes to a single
// neighbor).
func (in *Instance) multicast(b *boundInterface, m wire.Message) {
	dst := timer.AllSPFRoutersV4
	if in.version == wire.Version3 {
		dst = timer.AllSPFRoutersV6
	}
	h := wire.Header{Version: in.version, RouterID: in.store.RouterID, AreaID: b.cfg.Area}
	if err := b.conn.WriteTo(h, m, dst); err != nil && in.log != nil {
		in.log.WithField("iface", b.cfg.Name).Errorf("failed to flood: %v", err)
	}
}

// sendTo unicasts m to neighbor id's last known source address on b, a
// no-op if no address has been recorded yet for it.
func (in *Instance) sendTo(b *boundInterface, id wire.ID, m wire.Message) {
	dst, ok := b.addrs[id]
	if !ok {
		return
	}
	h := wire.Header{Version: in.version, RouterID: in.store.RouterID, AreaID: b.cfg.Area}
	if err := b.conn.WriteTo(h, m, dst); err != nil && in.log != nil {
		in.log.WithField("iface", b.cfg.Name).Errorf("failed to send to %s: %v", id, err)
	}
}

// localSummary collects the database-summary headers (area scope plus AS
// scope) sent to a neighbor during Exchange, per §4.5.
func (in *Instance) localSummary(areaID wire.ID) []wire.LSAHeader {
	var out []wire.LSAHeader
	if store, ok := in.areaLSDBs[areaID]; ok {
		out = append(out, drainHeaders(store)...)
	}
	out = append(out, drainHeaders(in.asLSDB)...)
	return out
}

func drainHeaders(store *lsdb.Store) []wire.LSAHeader {
	c := store.Iterate()
	out := c.Headers()
	c.Close()
	return out
}

// scopeStore returns the LSDB Store holding identity id's scope for areaID:
// the AS-wide store for AS-scoped kinds, otherwise the area's store.
func (in *Instance) scopeStore(areaID wire.ID, id wire.LSA) *lsdb.Store {
	if id.Type.Kind(in.version).Scope(in.version) == wire.ASScoping {
		return in.asLSDB
	}
	return in.areaLSDBs[areaID]
}

func (in *Instance) localRef(areaID wire.ID, id wire.LSA) (lsdb.Ref, bool) {
	store := in.scopeStore(areaID, id)
	if store == nil {
		return lsdb.Ref{}, false
	}
	return store.Find(id)
}

func (in *Instance) localHeader(areaID wire.ID, id wire.LSA) (wire.LSAHeader, bool) {
	ref, ok := in.localRef(areaID, id)
	if !ok {
		return wire.LSAHeader{}, false
	}
	defer ref.Release()
	return ref.Header(), true
}
