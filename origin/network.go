package origin

import (
	"time"

	"github.com/openospfd/ospfd/wire"
)

// NetworkLSA builds a self-originated Network-LSA for a transit network the
// local router is Designated Router on, listing every fully-adjacent
// neighbor's router ID. Grounded on XORP area_router.hh's
// generate_network_lsa, triggered on full-adjacency-set changes (§4.3).
func (b *Builder) NetworkLSA(routerID, interfaceLinkStateID wire.ID, options wire.Options, networkMask [4]byte, attached []wire.ID, v wire.Version, now time.Time) (wire.LSAHeader, []byte, error) {
	id := wire.LSA{Type: networkLSAType(v), LinkStateID: interfaceLinkStateID, AdvertisingRouter: routerID}

	body := &wire.NetworkLSABody{Options: options, NetworkMask: networkMask, AttachedRouters: attached}
	return b.build(id, 0, body, v, now)
}

func networkLSAType(v wire.Version) wire.LSType {
	if v == wire.Version3 {
		return wire.NetworkLSA
	}
	return wire.NetworkLSAv2
}
