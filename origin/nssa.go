package origin

import (
	"time"

	"github.com/openospfd/ospfd/wire"
)

// NSSAExternalLSA builds a self-originated Type-7 (NSSA) LSA for route r,
// scoped to one NSSA area. The P bit controls whether an NSSA border
// router should translate this instance to an AS-External-LSA (§4.3);
// propagate is the caller's decision based on area/route configuration.
func (b *Builder) NSSAExternalLSA(routerID wire.ID, r ExternalRoute, propagate bool, v wire.Version, now time.Time) (wire.LSAHeader, []byte, error) {
	id := wire.LSA{Type: nssaExternalType(v), LinkStateID: r.LinkStateID, AdvertisingRouter: routerID}

	prefixOptions := r.PrefixOptions
	if propagate {
		prefixOptions |= wire.PBit
	}

	body := &wire.ExternalLSABody{
		NSSA:                 true,
		Type2:                r.Type2,
		Metric:               r.Metric,
		NetworkMask:          r.NetworkMask,
		ForwardingAddress:    r.ForwardingAddress,
		HasForwardingAddress: len(r.ForwardingAddress) > 0 && !r.ForwardingAddress.IsUnspecified(),
		RouteTag:             r.RouteTag,
		PrefixLength:         r.PrefixLength,
		PrefixOptions:        prefixOptions,
		Prefix:               r.Prefix,
	}

	return b.build(id, 0, body, v, now)
}

func nssaExternalType(v wire.Version) wire.LSType {
	if v == wire.Version3 {
		return wire.NSSALSA
	}
	return wire.NSSALSAv2
}
