package spf

import (
	iradix "github.com/hashicorp/go-immutable-radix"

	"github.com/openospfd/ospfd/wire"
)

// A PathType orders candidate routes to the same destination best-to-worst,
// per §3.5/§4.6.
type PathType uint8

// Possible PathType values, in best-to-worst order (the zero value is the
// best path type).
const (
	IntraArea PathType = iota
	InterArea
	ExternalType1
	ExternalType2
)

func (t PathType) String() string {
	switch t {
	case IntraArea:
		return "IntraArea"
	case InterArea:
		return "InterArea"
	case ExternalType1:
		return "ExternalType1"
	case ExternalType2:
		return "ExternalType2"
	default:
		return "unknown"
	}
}

// A RouteKey identifies one routing table destination: a network prefix,
// or (when Router is set) an AS boundary router reached by router-id
// rather than prefix, per §3.5.
type RouteKey struct {
	Router      bool
	Destination Destination
	RouterID    wire.ID
}

func (k RouteKey) bytes() []byte {
	b := make([]byte, 0, 26)
	if k.Router {
		b = append(b, 1)
		return append(b, k.RouterID[:]...)
	}
	b = append(b, 0)
	b = append(b, k.Destination.NetworkAddr[:]...)
	b = append(b, k.Destination.NetworkMask[:]...)
	b = append(b, k.Destination.PrefixLength)
	return append(b, k.Destination.Prefix[:]...)
}

// A RouteEntry is one candidate (or installed) route to a RouteKey, per
// §3.5: path-type, cost (plus, for type-2 externals, the type-2/type-1
// cost pair), the originating area, and an ECMP next-hop set. Key is
// filled in by RouteTable.Offer so a RouteTable.Walk callback can recover
// a destination's identity without decoding the table's internal key
// bytes.
type RouteEntry struct {
	Key        RouteKey
	PathType   PathType
	Cost       uint32 // Type-1 cost for external routes; the path's only cost otherwise.
	Type2Cost  uint32 // Meaningful only when PathType is ExternalType2.
	AreaID     wire.ID
	NextHops   []NextHop
	PolicyTags []uint32
}

// better reports whether candidate should replace incumbent for the same
// destination, per §3.5's ordering: path-type first, then cost (the
// (type-2, type-1) pair for type-2 externals), then larger area-id.
func (candidate RouteEntry) better(incumbent RouteEntry) bool {
	if candidate.PathType != incumbent.PathType {
		return candidate.PathType < incumbent.PathType
	}

	if candidate.PathType == ExternalType2 {
		if candidate.Type2Cost != incumbent.Type2Cost {
			return candidate.Type2Cost < incumbent.Type2Cost
		}
	}
	if candidate.Cost != incumbent.Cost {
		return candidate.Cost < incumbent.Cost
	}
	return idGreater(candidate.AreaID, incumbent.AreaID)
}

// equalRank reports whether candidate and incumbent tie on every
// ordering criterion (so their next-hops should merge as ECMP rather than
// one replacing the other).
func (candidate RouteEntry) equalRank(incumbent RouteEntry) bool {
	return candidate.PathType == incumbent.PathType &&
		candidate.Cost == incumbent.Cost &&
		candidate.Type2Cost == incumbent.Type2Cost &&
		candidate.AreaID == incumbent.AreaID
}

func idGreater(a, b wire.ID) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] > b[i]
		}
	}
	return false
}

// A RouteTable is an immutable-radix-backed snapshot of the best known
// route per destination, cheap to keep a "previous" copy of for the
// RIB-publication diff in rib.go (§4.6).
type RouteTable struct {
	tree *iradix.Tree
}

// NewRouteTable constructs an empty RouteTable.
func NewRouteTable() *RouteTable {
	return &RouteTable{tree: iradix.New()}
}

// Offer proposes candidate for key: it installs outright if key is
// unknown or candidate is strictly better than the current entry, merges
// next-hops if the two tie in rank, and is a no-op if candidate is worse.
func (t *RouteTable) Offer(key RouteKey, candidate RouteEntry) {
	candidate.Key = key
	k := key.bytes()
	if raw, ok := t.tree.Get(k); ok {
		existing := raw.(RouteEntry)
		switch {
		case candidate.better(existing):
			// falls through to install below
		case existing.better(candidate):
			return
		case candidate.equalRank(existing):
			existing.NextHops = mergeNextHops(existing.NextHops, candidate.NextHops)
			t.tree, _, _ = t.tree.Insert(k, existing)
			return
		default:
			return
		}
	}
	t.tree, _, _ = t.tree.Insert(k, candidate)
}

// Get returns the installed entry for key, if any.
func (t *RouteTable) Get(key RouteKey) (RouteEntry, bool) {
	raw, ok := t.tree.Get(key.bytes())
	if !ok {
		return RouteEntry{}, false
	}
	return raw.(RouteEntry), true
}

// Delete removes key's entry, if present.
func (t *RouteTable) Delete(key RouteKey) {
	t.tree, _, _ = t.tree.Delete(key.bytes())
}

// Len reports the number of installed destinations.
func (t *RouteTable) Len() int { return t.tree.Len() }

// Walk calls fn for every installed entry in lexicographic key order,
// stopping early if fn returns true.
func (t *RouteTable) Walk(fn func(entry RouteEntry) bool) {
	t.tree.Root().Walk(func(_ []byte, v interface{}) bool {
		return fn(v.(RouteEntry))
	})
}
