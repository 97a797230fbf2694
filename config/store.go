// Package config implements the idempotent, round-based configuration
// surface of §6.4: every mutating call marks the item it touches as seen
// in the current round, and CommitRound removes whatever was not
// mentioned since the matching BeginRound.
package config

import (
	"time"

	"github.com/openospfd/ospfd/fsm"
	"github.com/openospfd/ospfd/origin"
	"github.com/openospfd/ospfd/spf"
	"github.com/openospfd/ospfd/wire"
)

// An InterfaceConfig holds one interface's configured attributes, §3.2.
type InterfaceConfig struct {
	Name     string
	Area     wire.ID
	Type     fsm.NetworkType
	Address  [4]byte
	Mask     [4]byte
	MTU      int
	Priority uint8

	HelloInterval    time.Duration
	DeadInterval     time.Duration
	RetransmitDelay  time.Duration
	TransmitDelay    time.Duration
	DemandCircuit    bool
	Passive          bool

	Auth fsm.KeyRing

	seen bool
}

// A VirtualLinkConfig configures one virtual link through a transit area,
// RFC 2328 §15.
type VirtualLinkConfig struct {
	TransitArea wire.ID
	Endpoint    wire.ID

	HelloInterval   time.Duration
	DeadInterval    time.Duration
	RetransmitDelay time.Duration
	TransmitDelay   time.Duration

	Auth fsm.KeyRing

	seen bool
}

// A StaticNeighborConfig configures a manually-declared neighbor on an NBMA
// or point-to-multipoint interface, §6.4.
type StaticNeighborConfig struct {
	Interface string
	Address   [4]byte
	Priority  uint8

	seen bool
}

// An AreaConfig holds one area's configuration, §3.4.
type AreaConfig struct {
	ID          wire.ID
	Type        origin.AreaType
	DefaultCost uint32
	Summaries   bool

	Ranges      map[string]*rangeConfig
	VirtualLinks map[wire.ID]*VirtualLinkConfig

	seen bool
}

type rangeConfig struct {
	r    spf.Range
	seen bool
}

func newAreaConfig(id wire.ID) *AreaConfig {
	return &AreaConfig{
		ID:           id,
		Summaries:    true,
		Ranges:       make(map[string]*rangeConfig),
		VirtualLinks: make(map[wire.ID]*VirtualLinkConfig),
	}
}

// A PolicyTag is a redistribution tag attached to routes crossing the
// redistribute-in / redistribute-out boundary, §6.4.
type PolicyTag uint32

// A Store holds the live configuration surface and its round bookkeeping.
// It is not safe for concurrent use; callers serialize configuration
// changes through a single goroutine (the same one driving the rest of
// the core, per §5).
type Store struct {
	RouterID wire.ID

	GracefulRestartEnabled bool
	GracefulRestartReason  origin.RestartReason
	GracefulRestartPeriod  time.Duration

	RedistributeIn  []PolicyTag
	RedistributeOut []PolicyTag

	areas      map[wire.ID]*AreaConfig
	interfaces map[string]*InterfaceConfig
	neighbors  map[string]map[[4]byte]*StaticNeighborConfig

	inRound bool
}

// NewStore constructs an empty Store.
func NewStore() *Store {
	return &Store{
		areas:      make(map[wire.ID]*AreaConfig),
		interfaces: make(map[string]*InterfaceConfig),
		neighbors:  make(map[string]map[[4]byte]*StaticNeighborConfig),
	}
}

// SetRouterID sets the router-id, §6.4.
func (s *Store) SetRouterID(id wire.ID) {
	s.RouterID = id
}

// BeginRound marks every currently configured item as unseen. Calls made
// before the matching CommitRound mark their target seen; CommitRound then
// removes whatever is still unseen.
func (s *Store) BeginRound() {
	s.inRound = true
	for _, a := range s.areas {
		a.seen = false
		for _, r := range a.Ranges {
			r.seen = false
		}
		for _, vl := range a.VirtualLinks {
			vl.seen = false
		}
	}
	for _, ifc := range s.interfaces {
		ifc.seen = false
	}
	for _, byAddr := range s.neighbors {
		for _, n := range byAddr {
			n.seen = false
		}
	}
}

// CommitRound removes every area, range, virtual link, interface binding,
// and static neighbor not touched since BeginRound, per §6.4's "unseen
// items after commit are removed".
func (s *Store) CommitRound() {
	for id, a := range s.areas {
		if !a.seen {
			delete(s.areas, id)
			continue
		}
		for k, r := range a.Ranges {
			if !r.seen {
				delete(a.Ranges, k)
			}
		}
		for k, vl := range a.VirtualLinks {
			if !vl.seen {
				delete(a.VirtualLinks, k)
			}
		}
	}
	for name, ifc := range s.interfaces {
		if !ifc.seen {
			delete(s.interfaces, name)
		}
	}
	for ifcName, byAddr := range s.neighbors {
		for addr, n := range byAddr {
			if !n.seen {
				delete(byAddr, addr)
			}
		}
		if len(byAddr) == 0 {
			delete(s.neighbors, ifcName)
		}
	}
	s.inRound = false
}

// AddArea adds or updates an area, marking it seen for the current round.
func (s *Store) AddArea(id wire.ID, areaType origin.AreaType, defaultCost uint32) *AreaConfig {
	a, ok := s.areas[id]
	if !ok {
		a = newAreaConfig(id)
		s.areas[id] = a
	}
	a.Type = areaType
	a.DefaultCost = defaultCost
	a.seen = true
	return a
}

// RemoveArea removes an area immediately, outside of round bookkeeping.
func (s *Store) RemoveArea(id wire.ID) {
	delete(s.areas, id)
}

// Area returns the configuration for area id, if any.
func (s *Store) Area(id wire.ID) (*AreaConfig, bool) {
	a, ok := s.areas[id]
	return a, ok
}

// Areas returns every configured area.
func (s *Store) Areas() []*AreaConfig {
	out := make([]*AreaConfig, 0, len(s.areas))
	for _, a := range s.areas {
		out = append(out, a)
	}
	return out
}

// SetAreaType updates areaID's type without altering anything else, §6.4
// "set area type".
func (s *Store) SetAreaType(areaID wire.ID, areaType origin.AreaType) bool {
	a, ok := s.areas[areaID]
	if !ok {
		return false
	}
	a.Type = areaType
	a.seen = true
	return true
}

// AddAreaRange adds or updates an address range in areaID, §6.4.
func (s *Store) AddAreaRange(areaID wire.ID, key string, r spf.Range) bool {
	a, ok := s.areas[areaID]
	if !ok {
		return false
	}
	a.Ranges[key] = &rangeConfig{r: r, seen: true}
	a.seen = true
	return true
}

// RemoveAreaRange removes an address range immediately.
func (s *Store) RemoveAreaRange(areaID wire.ID, key string) {
	if a, ok := s.areas[areaID]; ok {
		delete(a.Ranges, key)
	}
}

// Ranges returns areaID's configured ranges.
func (s *Store) Ranges(areaID wire.ID) []spf.Range {
	a, ok := s.areas[areaID]
	if !ok {
		return nil
	}
	out := make([]spf.Range, 0, len(a.Ranges))
	for _, r := range a.Ranges {
		out = append(out, r.r)
	}
	return out
}

// AddVirtualLink adds or updates a virtual link in areaID (the transit
// area), §6.4.
func (s *Store) AddVirtualLink(areaID, endpoint wire.ID, vl VirtualLinkConfig) bool {
	a, ok := s.areas[areaID]
	if !ok {
		return false
	}
	vl.TransitArea = areaID
	vl.Endpoint = endpoint
	vl.seen = true
	a.VirtualLinks[endpoint] = &vl
	a.seen = true
	return true
}

// RemoveVirtualLink removes a virtual link immediately.
func (s *Store) RemoveVirtualLink(areaID, endpoint wire.ID) {
	if a, ok := s.areas[areaID]; ok {
		delete(a.VirtualLinks, endpoint)
	}
}

// AddInterface adds or updates an interface binding, §6.4 "add/remove
// interface binding" plus "set interface parameters" (both go through this
// one call; a round that re-declares an interface without changing a field
// simply repeats its current value).
func (s *Store) AddInterface(cfg InterfaceConfig) {
	cfg.seen = true
	s.interfaces[cfg.Name] = &cfg
	if a, ok := s.areas[cfg.Area]; ok {
		a.seen = true
	}
}

// RemoveInterface removes an interface binding immediately.
func (s *Store) RemoveInterface(name string) {
	delete(s.interfaces, name)
	delete(s.neighbors, name)
}

// Interface returns the configuration for the named interface, if any.
func (s *Store) Interface(name string) (*InterfaceConfig, bool) {
	ifc, ok := s.interfaces[name]
	return ifc, ok
}

// Interfaces returns every configured interface.
func (s *Store) Interfaces() []*InterfaceConfig {
	out := make([]*InterfaceConfig, 0, len(s.interfaces))
	for _, ifc := range s.interfaces {
		out = append(out, ifc)
	}
	return out
}

// AddMD5Key adds or replaces a rotation-window key on the named interface's
// KeyRing, §6.4.
func (s *Store) AddMD5Key(ifcName string, key fsm.Key) bool {
	ifc, ok := s.interfaces[ifcName]
	if !ok {
		return false
	}
	for i, k := range ifc.Auth.Keys {
		if k.KeyID == key.KeyID {
			ifc.Auth.Keys[i] = key
			ifc.seen = true
			return true
		}
	}
	ifc.Auth.Keys = append(ifc.Auth.Keys, key)
	ifc.Auth.Type = fsm.AuthMD5
	ifc.seen = true
	return true
}

// RemoveMD5Key removes a key by id from the named interface's KeyRing.
func (s *Store) RemoveMD5Key(ifcName string, keyID uint8) bool {
	ifc, ok := s.interfaces[ifcName]
	if !ok {
		return false
	}
	for i, k := range ifc.Auth.Keys {
		if k.KeyID == keyID {
			ifc.Auth.Keys = append(ifc.Auth.Keys[:i], ifc.Auth.Keys[i+1:]...)
			return true
		}
	}
	return false
}

// AddStaticNeighbor declares a manually-configured neighbor on an NBMA or
// point-to-multipoint interface, §6.4.
func (s *Store) AddStaticNeighbor(ifcName string, addr [4]byte, priority uint8) {
	byAddr, ok := s.neighbors[ifcName]
	if !ok {
		byAddr = make(map[[4]byte]*StaticNeighborConfig)
		s.neighbors[ifcName] = byAddr
	}
	byAddr[addr] = &StaticNeighborConfig{Interface: ifcName, Address: addr, Priority: priority, seen: true}
}

// RemoveStaticNeighbor removes a declared neighbor immediately.
func (s *Store) RemoveStaticNeighbor(ifcName string, addr [4]byte) {
	if byAddr, ok := s.neighbors[ifcName]; ok {
		delete(byAddr, addr)
	}
}

// StaticNeighbors returns the neighbors declared on the named interface.
func (s *Store) StaticNeighbors(ifcName string) []StaticNeighborConfig {
	byAddr, ok := s.neighbors[ifcName]
	if !ok {
		return nil
	}
	out := make([]StaticNeighborConfig, 0, len(byAddr))
	for _, n := range byAddr {
		out = append(out, *n)
	}
	return out
}

// SetGracefulRestart enables or disables graceful restart and its
// parameters, §6.4.
func (s *Store) SetGracefulRestart(enabled bool, reason origin.RestartReason, period time.Duration) {
	s.GracefulRestartEnabled = enabled
	s.GracefulRestartReason = reason
	s.GracefulRestartPeriod = period
}

// SetRedistributePolicy replaces the redistribute-in/out policy tag sets,
// §6.4.
func (s *Store) SetRedistributePolicy(in, out []PolicyTag) {
	s.RedistributeIn = in
	s.RedistributeOut = out
}
