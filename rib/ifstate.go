// Package rib holds the collaborator interfaces the core consumes rather
// than implements itself, §6.2/§6.3: the RIB client routes are published
// through (spf.RibClient, which lives alongside the route table it diffs
// against) and the FEA/interface-state mirror queried and watched here.
package rib

import "net"

// A VifAddress is one IP address bound to a vif, with its subnet mask.
type VifAddress struct {
	Addr net.IP
	Mask net.IPMask
}

// InterfaceSnapshot is one physical interface's state as the FEA currently
// reports it, per §6.3.
type InterfaceSnapshot struct {
	Name      string
	Enabled   bool
	Addresses []VifAddress
	MTU       int
}

// An InterfaceState is the FEA/interface mirror the core queries for
// current state and watches for up/down transitions, per §6.3. A vif or
// physical interface coming up or down triggers the corresponding peer
// up/down event on the interface FSM, §4.5.
type InterfaceState interface {
	// Snapshot returns the current state of the named interface, or
	// ok=false if it is unknown to the FEA.
	Snapshot(name string) (InterfaceSnapshot, bool)
	// Events returns the channel InterfaceState delivers up/down
	// transitions on. The channel is never closed while the
	// InterfaceState is in use.
	Events() <-chan InterfaceEvent
}

// An InterfaceEventKind is the kind of transition reported by an
// InterfaceEvent.
type InterfaceEventKind uint8

// Possible InterfaceEventKind values.
const (
	InterfaceUp InterfaceEventKind = iota
	InterfaceDown
	VifAddressChanged
)

// An InterfaceEvent reports a single FEA-observed transition.
type InterfaceEvent struct {
	Name string
	Kind InterfaceEventKind
	// Snapshot is the interface's state as of this event; for
	// InterfaceDown, only Name/Enabled are meaningful.
	Snapshot InterfaceSnapshot
}

// A MemoryInterfaceState is an in-memory InterfaceState, for tests and for
// standalone operation without an external FEA.
type MemoryInterfaceState struct {
	byName map[string]InterfaceSnapshot
	eventC chan InterfaceEvent
}

// NewMemoryInterfaceState constructs an empty MemoryInterfaceState with the
// given event channel buffer depth.
func NewMemoryInterfaceState(buf int) *MemoryInterfaceState {
	return &MemoryInterfaceState{
		byName: make(map[string]InterfaceSnapshot),
		eventC: make(chan InterfaceEvent, buf),
	}
}

// Snapshot implements InterfaceState.
func (m *MemoryInterfaceState) Snapshot(name string) (InterfaceSnapshot, bool) {
	s, ok := m.byName[name]
	return s, ok
}

// Events implements InterfaceState.
func (m *MemoryInterfaceState) Events() <-chan InterfaceEvent {
	return m.eventC
}

// SetUp records name as enabled with the given addresses/MTU and emits an
// InterfaceUp event. Intended for tests driving the oracle directly.
func (m *MemoryInterfaceState) SetUp(name string, addrs []VifAddress, mtu int) {
	snap := InterfaceSnapshot{Name: name, Enabled: true, Addresses: addrs, MTU: mtu}
	m.byName[name] = snap
	m.eventC <- InterfaceEvent{Name: name, Kind: InterfaceUp, Snapshot: snap}
}

// SetDown records name as disabled and emits an InterfaceDown event.
func (m *MemoryInterfaceState) SetDown(name string) {
	snap := m.byName[name]
	snap.Name = name
	snap.Enabled = false
	m.byName[name] = snap
	m.eventC <- InterfaceEvent{Name: name, Kind: InterfaceDown, Snapshot: snap}
}

// SetAddresses replaces name's address set and emits a VifAddressChanged
// event, leaving Enabled/MTU unchanged.
func (m *MemoryInterfaceState) SetAddresses(name string, addrs []VifAddress) {
	snap := m.byName[name]
	snap.Name = name
	snap.Addresses = addrs
	m.byName[name] = snap
	m.eventC <- InterfaceEvent{Name: name, Kind: VifAddressChanged, Snapshot: snap}
}
