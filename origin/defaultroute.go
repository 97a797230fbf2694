package origin

import "github.com/openospfd/ospfd/wire"

// An AreaType is the configured stub-ness of an area, affecting whether a
// default route is originated into it and whether externals are permitted.
type AreaType uint8

// Possible AreaType values.
const (
	NormalArea AreaType = iota
	StubArea
	NSSAArea
)

// A DefaultRouteTransition tracks the default route a router has installed
// into one area under its previous AreaType, so that when the area's type
// is reconfigured the old default route can be cleanly withdrawn (if the
// new type no longer wants one) or left alone (if both old and new type
// call for one). Grounded on XORP area_router.hh's
// generate_default_route/save_default_route/restore_default_route, per
// [SUPPLEMENTED FEATURES] 3.
type DefaultRouteTransition struct {
	installed bool
	areaType  AreaType
	metric    uint32
}

// Transition updates the tracked state for a change from the area's
// previous type to newType/newMetric, reporting whether a default route
// should be (re)originated and whether the previously-installed one should
// be withdrawn.
func (d *DefaultRouteTransition) Transition(newType AreaType, newMetric uint32) (originate, withdraw bool) {
	wantsDefault := newType == StubArea || newType == NSSAArea

	switch {
	case wantsDefault && !d.installed:
		originate = true
	case wantsDefault && d.installed && (d.areaType != newType || d.metric != newMetric):
		originate = true
	case !wantsDefault && d.installed:
		withdraw = true
	}

	d.installed = wantsDefault
	d.areaType = newType
	d.metric = newMetric

	return originate, withdraw
}

// DefaultRouteIdentity returns the LSA identity a default-route Summary-LSA
// (OSPFv2) or Inter-Area-Prefix-LSA (OSPFv3) for area would use.
func DefaultRouteIdentity(routerID wire.ID, v wire.Version) wire.LSA {
	t := wire.SummaryNetworkLSAv2
	if v == wire.Version3 {
		t = wire.InterAreaPrefixLSA
	}
	return wire.LSA{Type: t, LinkStateID: wire.ID{0, 0, 0, 0}, AdvertisingRouter: routerID}
}
