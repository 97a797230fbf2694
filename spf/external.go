package spf

import (
	"net"

	"github.com/openospfd/ospfd/wire"
)

// An ASBRReachability is the best known cost/next-hop set to reach an AS
// boundary router, whether by an intra-area path or an imported
// ASBR-Summary-LSA/Inter-Area-Router-LSA (§4.6's "ASBR routing table").
type ASBRReachability struct {
	Cost     uint32
	NextHops []NextHop
}

// An ExternalAdvertisement is one AS-External-LSA or Type-7 LSA under
// consideration for route computation.
type ExternalAdvertisement struct {
	AdvertisingRouter wire.ID
	LinkStateID       wire.ID
	Body              *wire.ExternalLSABody
}

// A ForwardingAddressResolver resolves an AS-External-LSA's nonzero
// forwarding address to an intra-AS route, per §4.6 ("resolve the
// forwarding address to an intra-AS route; drop if unreachable").
type ForwardingAddressResolver func(addr net.IP) (cost uint32, nextHops []NextHop, ok bool)

func destinationFromExternal(linkStateID wire.ID, body *wire.ExternalLSABody, v wire.Version) Destination {
	if v == wire.Version3 {
		var d Destination
		d.PrefixLength = body.PrefixLength
		copy(d.Prefix[:], body.Prefix)
		return d
	}
	d := Destination{NetworkMask: body.NetworkMask}
	for i := range d.NetworkAddr {
		d.NetworkAddr[i] = linkStateID[i] & body.NetworkMask[i]
	}
	return d
}

// An ExternalRoute is one AS-External or Type-7 route selected for
// installation: Type2 selects type-2 comparison (LSA cost only, Type1Cost
// as tiebreaker) over type-1 (ASBR/forwarding cost plus LSA cost), per
// §4.6.
type ExternalRoute struct {
	Destination Destination
	Type2       bool
	Type1Cost   uint32
	Cost        uint32 // Type-1 cost if Type2 is false, else the LSA's type-2 cost.
	NextHops    []NextHop
	Via         wire.ID
	RouteTag    uint32
}

// better reports whether candidate should replace incumbent under §4.6's
// external path selection: type-1 always beats type-2; within a type,
// lower cost wins; type-2 ties break on the lower type-1 cost.
func (candidate ExternalRoute) better(incumbent ExternalRoute) bool {
	if candidate.Type2 != incumbent.Type2 {
		return !candidate.Type2
	}
	if candidate.Cost != incumbent.Cost {
		return candidate.Cost < incumbent.Cost
	}
	if candidate.Type2 && candidate.Type1Cost != incumbent.Type1Cost {
		return candidate.Type1Cost < incumbent.Type1Cost
	}
	return false
}

// ExternalRoutes computes routes for a set of AS-External/Type-7
// advertisements, per §4.6. asbrs supplies the ASBR routing table (merged
// intra-area and imported inter-area ASBR reachability); resolveForwarding
// resolves a nonzero forwarding address. Advertisements with an
// unreachable ASBR or forwarding address are dropped. Equal-cost paths to
// the same destination accumulate into an ECMP set; a strictly better path
// (per better) replaces the incumbent.
func ExternalRoutes(ads []ExternalAdvertisement, asbrs map[wire.ID]ASBRReachability, resolveForwarding ForwardingAddressResolver, v wire.Version) []ExternalRoute {
	routes := make(map[Destination]*ExternalRoute)

	for _, ad := range ads {
		var asbrCost uint32
		var nextHops []NextHop

		if ad.Body.HasForwardingAddress {
			if resolveForwarding == nil {
				continue
			}
			cost, nh, ok := resolveForwarding(ad.Body.ForwardingAddress)
			if !ok {
				continue
			}
			asbrCost, nextHops = cost, nh
		} else {
			reach, ok := asbrs[ad.AdvertisingRouter]
			if !ok {
				continue
			}
			asbrCost, nextHops = reach.Cost, reach.NextHops
		}

		type1Cost := asbrCost + ad.Body.Metric
		candidate := ExternalRoute{
			Destination: destinationFromExternal(ad.LinkStateID, ad.Body, v),
			Type2:       ad.Body.Type2,
			Type1Cost:   type1Cost,
			Cost:        type1Cost,
			NextHops:    append([]NextHop(nil), nextHops...),
			Via:         ad.AdvertisingRouter,
			RouteTag:    ad.Body.RouteTag,
		}
		if ad.Body.Type2 {
			candidate.Cost = ad.Body.Metric
		}

		existing, ok := routes[candidate.Destination]
		switch {
		case !ok:
			routes[candidate.Destination] = &candidate
		case candidate.better(*existing):
			*existing = candidate
		case existing.better(candidate):
			// Keep the incumbent; candidate loses outright.
		default:
			existing.NextHops = mergeNextHops(existing.NextHops, candidate.NextHops)
		}
	}

	out := make([]ExternalRoute, 0, len(routes))
	for _, r := range routes {
		out = append(out, *r)
	}
	return out
}

// TranslateType7 reports whether a Type-7 LSA should be re-originated as
// AS-External by an NSSA border router, per §4.6: the P-bit must be set,
// the advertise bit (carried by the caller, derived from the RIB
// redistribution policy rather than wire state) must be set, and the
// advertising router must not be self.
func TranslateType7(body *wire.ExternalLSABody, propagateBit bool, advertisingRouter, self wire.ID, advertise bool) bool {
	return propagateBit && advertise && advertisingRouter != self
}
