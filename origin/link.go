package origin

import (
	"time"

	"github.com/openospfd/ospfd/wire"
)

// LinkLSA builds a self-originated OSPFv3 Link-LSA for one interface,
// advertising the router's link-local address and the set of prefixes
// configured on the link. Grounded on RFC 5340 §4.4.3.2 and spec.md §4.3.
func (b *Builder) LinkLSA(routerID, interfaceLinkStateID wire.ID, priority uint8, options wire.Options, linkLocal [16]byte, prefixes []wire.PrefixEntry, now time.Time) (wire.LSAHeader, []byte, error) {
	id := wire.LSA{Type: wire.LinkLSA, LinkStateID: interfaceLinkStateID, AdvertisingRouter: routerID}

	body := &wire.LinkLSABody{RouterPriority: priority, Options: options, LinkLocalAddress: linkLocal, Prefixes: prefixes}
	return b.build(id, 0, body, wire.Version3, now)
}
