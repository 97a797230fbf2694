package origin

import (
	"time"

	"github.com/openospfd/ospfd/wire"
)

// IntraAreaPrefixLSA builds a self-originated OSPFv3 Intra-Area-Prefix-LSA
// referencing a Router-LSA or Network-LSA and carrying the prefixes that
// instance's older OSPFv2 equivalent would have folded directly into the
// Router/Network-LSA body. Grounded on RFC 5340 §4.4.3.9 and spec.md §4.3.
func (b *Builder) IntraAreaPrefixLSA(routerID, linkStateID wire.ID, referencedType wire.LSType, referencedLinkStateID, referencedAdvertisingRouter wire.ID, prefixes []wire.PrefixEntry, now time.Time) (wire.LSAHeader, []byte, error) {
	id := wire.LSA{Type: wire.IntraAreaPrefixLSA, LinkStateID: linkStateID, AdvertisingRouter: routerID}

	body := &wire.IntraAreaPrefixLSABody{
		ReferencedLSType:            referencedType,
		ReferencedLinkStateID:       referencedLinkStateID,
		ReferencedAdvertisingRouter: referencedAdvertisingRouter,
		Prefixes:                    prefixes,
	}
	return b.build(id, 0, body, wire.Version3, now)
}
