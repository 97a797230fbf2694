package origin

import (
	"time"

	"github.com/openospfd/ospfd/wire"
)

// SummaryLSA builds a self-originated Summary-LSA (OSPFv2) or
// Inter-Area-Prefix-LSA (OSPFv3) advertising a prefix reachable from
// another area, per §4.6's inter-area import. Grounded on XORP
// area_router.hh's summary_announce.
func (b *Builder) SummaryLSA(routerID, linkStateID wire.ID, metric uint32, networkMask [4]byte, prefixLength uint8, prefixOptions wire.PrefixOptions, prefix []byte, v wire.Version, now time.Time) (wire.LSAHeader, []byte, error) {
	id := wire.LSA{Type: summaryNetworkType(v), LinkStateID: linkStateID, AdvertisingRouter: routerID}

	body := &wire.SummaryLSABody{
		Metric:        metric,
		NetworkMask:   networkMask,
		PrefixLength:  prefixLength,
		PrefixOptions: prefixOptions,
		Prefix:        prefix,
	}
	return b.build(id, 0, body, v, now)
}

// ASBRSummaryLSA builds a self-originated ASBR-Summary-LSA (OSPFv2) or
// Inter-Area-Router-LSA (OSPFv3) advertising the cost to reach an ASBR in
// another area.
func (b *Builder) ASBRSummaryLSA(routerID, linkStateID wire.ID, metric uint32, options wire.Options, destinationRouter wire.ID, v wire.Version, now time.Time) (wire.LSAHeader, []byte, error) {
	id := wire.LSA{Type: summaryASBRType(v), LinkStateID: linkStateID, AdvertisingRouter: routerID}

	body := &wire.SummaryLSABody{Router: true, Metric: metric, Options: options, DestinationRouter: destinationRouter}
	return b.build(id, 0, body, v, now)
}

func summaryNetworkType(v wire.Version) wire.LSType {
	if v == wire.Version3 {
		return wire.InterAreaPrefixLSA
	}
	return wire.SummaryNetworkLSAv2
}

func summaryASBRType(v wire.Version) wire.LSType {
	if v == wire.Version3 {
		return wire.InterAreaRouterLSA
	}
	return wire.SummaryASBRLSAv2
}
