package spf

import (
	"github.com/openospfd/ospfd/wire"
)

// A Destination identifies one routable network prefix in whichever of
// OSPFv2's (address, mask) or OSPFv3's (length, prefix) forms its version
// uses. It is comparable and safe as a map key.
type Destination struct {
	NetworkAddr [4]byte // OSPFv2.
	NetworkMask [4]byte // OSPFv2.

	PrefixLength uint8    // OSPFv3.
	Prefix       [16]byte // OSPFv3, zero-padded to the full address width.
}

// destinationFromSummary builds a Destination from a network Summary-LSA:
// for OSPFv2 the network address is the LSA's link-state-id masked by the
// body's NetworkMask (RFC 2328 §12.4.3); for OSPFv3 the prefix travels in
// the body directly.
func destinationFromSummary(linkStateID wire.ID, body *wire.SummaryLSABody, v wire.Version) Destination {
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

// A SummaryAdvertisement is one area's Summary-LSA/Inter-Area-Prefix-LSA
// (network destination) or ASBR-Summary-LSA/Inter-Area-Router-LSA (router
// destination), as received from an area border router reachable in this
// area's intra-area tree.
type SummaryAdvertisement struct {
	AdvertisingRouter wire.ID
	LinkStateID       wire.ID
	Body              *wire.SummaryLSABody
}

// An InterAreaRoute is one network destination reached across an area
// boundary, per §4.6: cost is the Summary-LSA's advertised metric plus the
// intra-area cost to the advertising ABR, and the route is built only when
// no intra-area path to the same destination already exists.
type InterAreaRoute struct {
	Destination Destination
	Cost        uint32
	NextHops    []NextHop
	Via         wire.ID // The best (lowest-cost) advertising ABR.
}

// An ASBRRoute is the cost to reach an AS boundary router through this
// area, built from ASBR-Summary-LSAs/Inter-Area-Router-LSAs the same way as
// InterAreaRoute, keyed by the ASBR's own router ID rather than a network
// prefix.
type ASBRRoute struct {
	RouterID wire.ID
	Cost     uint32
	NextHops []NextHop
	Via      wire.ID
}

// ImportSummaryNetworks folds a set of network Summary-LSAs into inter-area
// routes using tree, the area's already-computed intra-area shortest-path
// tree. haveIntraArea reports whether an intra-area route to a destination
// is already known (by this or any other area), in which case the
// Summary-LSA is ignored per §4.6. Multiple ABRs advertising the same
// destination at equal cost merge into one ECMP route; a strictly cheaper
// ABR replaces a costlier one.
func ImportSummaryNetworks(tree map[Vertex]*TreeNode, ads []SummaryAdvertisement, v wire.Version, haveIntraArea func(Destination) bool) []InterAreaRoute {
	routes := make(map[Destination]*InterAreaRoute)

	for _, ad := range ads {
		if ad.Body.Router {
			continue
		}
		parent, ok := tree[routerVertex(ad.AdvertisingRouter)]
		if !ok {
			continue
		}
		dest := destinationFromSummary(ad.LinkStateID, ad.Body, v)
		if haveIntraArea != nil && haveIntraArea(dest) {
			continue
		}

		cost := ad.Body.Metric + parent.Cost
		if existing, ok := routes[dest]; ok {
			switch {
			case cost < existing.Cost:
				existing.Cost = cost
				existing.NextHops = parent.NextHops
				existing.Via = ad.AdvertisingRouter
			case cost == existing.Cost:
				existing.NextHops = mergeNextHops(existing.NextHops, parent.NextHops)
			}
			continue
		}
		routes[dest] = &InterAreaRoute{
			Destination: dest,
			Cost:        cost,
			NextHops:    append([]NextHop(nil), parent.NextHops...),
			Via:         ad.AdvertisingRouter,
		}
	}

	out := make([]InterAreaRoute, 0, len(routes))
	for _, r := range routes {
		out = append(out, *r)
	}
	return out
}

// ImportSummaryRouters folds a set of router Summary-LSAs into ASBR
// reachability the same way ImportSummaryNetworks does for networks,
// keyed by the destination router ID named in each LSA rather than a
// network prefix.
func ImportSummaryRouters(tree map[Vertex]*TreeNode, ads []SummaryAdvertisement) map[wire.ID]*ASBRRoute {
	routes := make(map[wire.ID]*ASBRRoute)

	for _, ad := range ads {
		if !ad.Body.Router {
			continue
		}
		parent, ok := tree[routerVertex(ad.AdvertisingRouter)]
		if !ok {
			continue
		}

		dst := ad.Body.DestinationRouter
		cost := ad.Body.Metric + parent.Cost
		if existing, ok := routes[dst]; ok {
			switch {
			case cost < existing.Cost:
				existing.Cost = cost
				existing.NextHops = parent.NextHops
				existing.Via = ad.AdvertisingRouter
			case cost == existing.Cost:
				existing.NextHops = mergeNextHops(existing.NextHops, parent.NextHops)
			}
			continue
		}
		routes[dst] = &ASBRRoute{
			RouterID: dst,
			Cost:     cost,
			NextHops: append([]NextHop(nil), parent.NextHops...),
			Via:      ad.AdvertisingRouter,
		}
	}

	return routes
}
