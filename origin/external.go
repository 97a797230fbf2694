package origin

import (
	"net"
	"time"

	"github.com/openospfd/ospfd/wire"
)

// ExternalRoute describes one RIB-redistributed route to be originated as
// an AS-External-LSA (or, via NSSAExternalLSA, a Type-7 LSA).
type ExternalRoute struct {
	LinkStateID       wire.ID
	NetworkMask       [4]byte
	PrefixLength      uint8
	PrefixOptions     wire.PrefixOptions
	Prefix            []byte
	Type2             bool
	Metric            uint32
	ForwardingAddress net.IP
	RouteTag          uint32
}

// ExternalLSA builds a self-originated AS-External-LSA for route r,
// triggered by RIB redistribution events (§4.3). Grounded on XORP
// area_router.hh's external_announce.
func (b *Builder) ExternalLSA(routerID wire.ID, r ExternalRoute, v wire.Version, now time.Time) (wire.LSAHeader, []byte, error) {
	id := wire.LSA{Type: asExternalType(v), LinkStateID: r.LinkStateID, AdvertisingRouter: routerID}

	body := &wire.ExternalLSABody{
		Type2:                r.Type2,
		Metric:               r.Metric,
		NetworkMask:          r.NetworkMask,
		ForwardingAddress:    r.ForwardingAddress,
		HasForwardingAddress: len(r.ForwardingAddress) > 0 && !r.ForwardingAddress.IsUnspecified(),
		RouteTag:             r.RouteTag,
		PrefixLength:         r.PrefixLength,
		PrefixOptions:        r.PrefixOptions,
		Prefix:               r.Prefix,
	}
	return b.build(id, 0, body, v, now)
}

func asExternalType(v wire.Version) wire.LSType {
	if v == wire.Version3 {
		return wire.ASExternalLSA
	}
	return wire.ASExternalLSAv2
}
