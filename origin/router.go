package origin

import (
	"time"

	"github.com/openospfd/ospfd/wire"
)

// RouterLSA builds a self-originated Router-LSA for one area, from the
// caller-supplied set of links describing every interface attached to that
// area in its current FSM state. Grounded on XORP area_router.hh's
// new_router_links/build_rtrlsa per-area Router-LSA assembly, driven here
// by whatever topology source (fsm package) computes the link set.
func (b *Builder) RouterLSA(routerID, areaID wire.ID, flags wire.RouterLSAFlags, options wire.Options, links []wire.RouterLink, v wire.Version, now time.Time) (wire.LSAHeader, []byte, error) {
	id := wire.LSA{Type: routerLSAType(v), LinkStateID: routerID, AdvertisingRouter: routerID}

	body := &wire.RouterLSABody{Flags: flags, Options: options, Links: links}
	return b.build(id, 0, body, v, now)
}

func routerLSAType(v wire.Version) wire.LSType {
	if v == wire.Version3 {
		return wire.RouterLSA
	}
	return wire.RouterLSAv2
}
