package spf

import (
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/openospfd/ospfd/wire"
)

// A RibClient is the injected collaborator routes are pushed through,
// per §6.2. Failures are the caller's responsibility to log and retry on
// a later reconciliation pass; RibClient itself does not retry.
type RibClient interface {
	AddRoute(key RouteKey, nextHops []NextHop, metric uint32, isDiscard bool) error
	ReplaceRoute(key RouteKey, nextHops []NextHop, metric uint32, isDiscard bool) error
	DeleteRoute(key RouteKey) error
}

// A MemoryRib is an in-memory RibClient, for tests and for a standalone
// router with no external FEA to program.
type MemoryRib struct {
	Routes map[RouteKey]MemoryRoute
}

// A MemoryRoute is one route as installed into a MemoryRib.
type MemoryRoute struct {
	NextHops  []NextHop
	Metric    uint32
	IsDiscard bool
}

// NewMemoryRib constructs an empty MemoryRib.
func NewMemoryRib() *MemoryRib {
	return &MemoryRib{Routes: make(map[RouteKey]MemoryRoute)}
}

func (m *MemoryRib) AddRoute(key RouteKey, nextHops []NextHop, metric uint32, isDiscard bool) error {
	m.Routes[key] = MemoryRoute{NextHops: nextHops, Metric: metric, IsDiscard: isDiscard}
	return nil
}

func (m *MemoryRib) ReplaceRoute(key RouteKey, nextHops []NextHop, metric uint32, isDiscard bool) error {
	m.Routes[key] = MemoryRoute{NextHops: nextHops, Metric: metric, IsDiscard: isDiscard}
	return nil
}

func (m *MemoryRib) DeleteRoute(key RouteKey) error {
	delete(m.Routes, key)
	return nil
}

// routeMetric is the single comparable cost a RouteEntry publishes to the
// RIB: the type-2 metric for ExternalType2 routes (the type-1 cost is an
// SPF tiebreaker only, not something the FEA needs), Cost otherwise.
func routeMetric(e RouteEntry) uint32 {
	if e.PathType == ExternalType2 {
		return e.Type2Cost
	}
	return e.Cost
}

// Publish compares cur against prev (the RouteTable published on the
// previous SPF run) and pushes only the differences through rib, per
// §4.6's "RIB publication": destinations new in cur are added, changed
// destinations are replaced, and destinations dropped from cur are
// deleted. isDiscard marks the area-range discard routes produced by
// ApplyAreaRanges; the caller is responsible for having installed those
// into cur with that flag meaningful to the FEA (area ranges carry no
// NextHops of their own).
func Publish(rib RibClient, prev, cur *RouteTable, isDiscard func(RouteKey) bool, log func(string)) {
	if isDiscard == nil {
		isDiscard = func(RouteKey) bool { return false }
	}

	cur.Walk(func(entry RouteEntry) bool {
		key := entry.Key
		discard := isDiscard(key)
		metric := routeMetric(entry)

		prevEntry, existed := prev.Get(key)
		switch {
		case !existed:
			if err := rib.AddRoute(key, entry.NextHops, metric, discard); err != nil && log != nil {
				log("spf: add_route failed for " + describeKey(key) + ": " + err.Error())
			}
		case !sameInstallation(prevEntry, entry):
			if err := rib.ReplaceRoute(key, entry.NextHops, metric, discard); err != nil && log != nil {
				log("spf: replace_route failed for " + describeKey(key) + ": " + err.Error())
			}
		}
		return false
	})

	prev.Walk(func(entry RouteEntry) bool {
		if _, stillPresent := cur.Get(entry.Key); !stillPresent {
			if err := rib.DeleteRoute(entry.Key); err != nil && log != nil {
				log("spf: delete_route failed for " + describeKey(entry.Key) + ": " + err.Error())
			}
		}
		return false
	})
}

func describeKey(key RouteKey) string {
	if key.Router {
		return "asbr " + key.RouterID.String()
	}
	return "net " + wire.ID(key.Destination.NetworkAddr).String()
}

// sameInstallation reports whether two entries for the same destination
// would result in the identical RIB programming (cost and next-hop set),
// ignoring bookkeeping fields (AreaID, PathType, PolicyTags) that matter
// for SPF's own path selection but not to the FEA.
func sameInstallation(a, b RouteEntry) bool {
	if routeMetric(a) != routeMetric(b) {
		return false
	}
	return cmp.Equal(a.NextHops, b.NextHops, cmpopts.SortSlices(func(x, y NextHop) bool {
		if x.Interface != y.Interface {
			return x.Interface < y.Interface
		}
		return x.Gateway.String() < y.Gateway.String()
	}))
}
