package spf

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/openospfd/ospfd/wire"
)

func TestDijkstraPointToPointAndStub(t *testing.T) {
	root := wire.ID{1, 1, 1, 1}
	neighbor := wire.ID{2, 2, 2, 2}

	g := NewGraph(wire.Version2)
	g.AddRouter(root, &wire.RouterLSABody{
		Links: []wire.RouterLink{
			{Type: wire.PointToPointLink, LinkID: neighbor, Metric: 10},
			{Type: wire.StubLink, LinkID: wire.ID{10, 0, 0, 0}, LinkData: wire.ID{255, 255, 255, 0}, Metric: 5},
		},
	})
	g.AddRouter(neighbor, &wire.RouterLSABody{
		Links: []wire.RouterLink{
			{Type: wire.PointToPointLink, LinkID: root, Metric: 10},
		},
	})

	tree := g.Run(root, nil)

	rootNode, ok := tree[routerVertex(root)]
	if !ok || rootNode.Cost != 0 {
		t.Fatalf("root tree node = %+v, ok=%v, want cost 0", rootNode, ok)
	}
	nbrNode, ok := tree[routerVertex(neighbor)]
	if !ok || nbrNode.Cost != 10 {
		t.Fatalf("neighbor tree node = %+v, ok=%v, want cost 10", nbrNode, ok)
	}

	stubs := g.StubRoutes(tree)
	if len(stubs) != 1 {
		t.Fatalf("StubRoutes() len = %d, want 1", len(stubs))
	}
	if stubs[0].Cost != 5 {
		t.Fatalf("stub cost = %d, want 5", stubs[0].Cost)
	}
}

func TestDijkstraRejectsOneWayLink(t *testing.T) {
	root := wire.ID{1, 1, 1, 1}
	neighbor := wire.ID{2, 2, 2, 2}

	g := NewGraph(wire.Version2)
	g.AddRouter(root, &wire.RouterLSABody{
		Links: []wire.RouterLink{{Type: wire.PointToPointLink, LinkID: neighbor, Metric: 10}},
	})
	// neighbor does not declare a reverse link back to root.
	g.AddRouter(neighbor, &wire.RouterLSABody{})

	tree := g.Run(root, nil)
	if _, ok := tree[routerVertex(neighbor)]; ok {
		t.Fatal("tree contains neighbor despite missing reverse link")
	}
}

func TestDijkstraECMPMergesNextHops(t *testing.T) {
	root := wire.ID{1, 1, 1, 1}
	a := wire.ID{2, 2, 2, 2}
	b := wire.ID{3, 3, 3, 3}
	dst := wire.ID{4, 4, 4, 4}

	g := NewGraph(wire.Version2)
	g.AddRouter(root, &wire.RouterLSABody{Links: []wire.RouterLink{
		{Type: wire.PointToPointLink, LinkID: a, Metric: 5},
		{Type: wire.PointToPointLink, LinkID: b, Metric: 5},
	}})
	g.AddRouter(a, &wire.RouterLSABody{Links: []wire.RouterLink{
		{Type: wire.PointToPointLink, LinkID: root, Metric: 5},
		{Type: wire.PointToPointLink, LinkID: dst, Metric: 5},
	}})
	g.AddRouter(b, &wire.RouterLSABody{Links: []wire.RouterLink{
		{Type: wire.PointToPointLink, LinkID: root, Metric: 5},
		{Type: wire.PointToPointLink, LinkID: dst, Metric: 5},
	}})
	g.AddRouter(dst, &wire.RouterLSABody{Links: []wire.RouterLink{
		{Type: wire.PointToPointLink, LinkID: a, Metric: 5},
		{Type: wire.PointToPointLink, LinkID: b, Metric: 5},
	}})

	resolver := stubResolver{
		a: {Interface: "eth0", Gateway: nil},
		b: {Interface: "eth1", Gateway: nil},
	}
	tree := g.Run(root, resolver)

	dstNode, ok := tree[routerVertex(dst)]
	if !ok {
		t.Fatal("dst not in tree")
	}
	if dstNode.Cost != 10 {
		t.Fatalf("dst cost = %d, want 10", dstNode.Cost)
	}
	if len(dstNode.NextHops) != 2 {
		t.Fatalf("dst NextHops = %v, want 2 ECMP entries", dstNode.NextHops)
	}
}

type stubResolver map[wire.ID]NextHop

func (r stubResolver) ResolveRouterLink(link wire.RouterLink, v wire.Version) (NextHop, bool) {
	nh, ok := r[link.LinkID]
	return nh, ok
}

func (r stubResolver) ResolveTransitLink(link wire.RouterLink, neighborRouter wire.ID, v wire.Version) (NextHop, bool) {
	nh, ok := r[neighborRouter]
	return nh, ok
}

func TestImportSummaryNetworksSkipsIntraArea(t *testing.T) {
	abr := wire.ID{5, 5, 5, 5}
	tree := map[Vertex]*TreeNode{
		routerVertex(abr): {Vertex: routerVertex(abr), Cost: 10, NextHops: []NextHop{{Interface: "eth0"}}},
	}

	ad := SummaryAdvertisement{
		AdvertisingRouter: abr,
		LinkStateID:       wire.ID{10, 0, 0, 0},
		Body:              &wire.SummaryLSABody{Metric: 20, NetworkMask: [4]byte{255, 255, 255, 0}},
	}

	always := func(Destination) bool { return true }
	if routes := ImportSummaryNetworks(tree, []SummaryAdvertisement{ad}, wire.Version2, always); len(routes) != 0 {
		t.Fatalf("ImportSummaryNetworks() = %v, want none when intra-area path exists", routes)
	}

	never := func(Destination) bool { return false }
	routes := ImportSummaryNetworks(tree, []SummaryAdvertisement{ad}, wire.Version2, never)
	if len(routes) != 1 {
		t.Fatalf("ImportSummaryNetworks() len = %d, want 1", len(routes))
	}
	if routes[0].Cost != 30 {
		t.Fatalf("route cost = %d, want 30 (20 + 10)", routes[0].Cost)
	}
	want := Destination{NetworkAddr: [4]byte{10, 0, 0, 0}, NetworkMask: [4]byte{255, 255, 255, 0}}
	if diff := cmp.Diff(want, routes[0].Destination); diff != "" {
		t.Fatalf("unexpected destination (-want +got):\n%s", diff)
	}
}

func TestImportSummaryNetworksMergesEqualCostABRs(t *testing.T) {
	abr1 := wire.ID{5, 5, 5, 5}
	abr2 := wire.ID{6, 6, 6, 6}
	tree := map[Vertex]*TreeNode{
		routerVertex(abr1): {Vertex: routerVertex(abr1), Cost: 10, NextHops: []NextHop{{Interface: "eth0"}}},
		routerVertex(abr2): {Vertex: routerVertex(abr2), Cost: 20, NextHops: []NextHop{{Interface: "eth1"}}},
	}
	linkStateID := wire.ID{10, 0, 0, 0}
	mask := [4]byte{255, 255, 255, 0}
	ads := []SummaryAdvertisement{
		{AdvertisingRouter: abr1, LinkStateID: linkStateID, Body: &wire.SummaryLSABody{Metric: 20, NetworkMask: mask}},
		{AdvertisingRouter: abr2, LinkStateID: linkStateID, Body: &wire.SummaryLSABody{Metric: 10, NetworkMask: mask}},
	}

	routes := ImportSummaryNetworks(tree, ads, wire.Version2, nil)
	if len(routes) != 1 {
		t.Fatalf("ImportSummaryNetworks() len = %d, want 1", len(routes))
	}
	if routes[0].Cost != 30 {
		t.Fatalf("route cost = %d, want 30 (both ABRs tie)", routes[0].Cost)
	}
	if len(routes[0].NextHops) != 2 {
		t.Fatalf("NextHops = %v, want 2 merged ECMP entries", routes[0].NextHops)
	}
}

func TestExternalRoutesType1ViaASBR(t *testing.T) {
	asbr := wire.ID{7, 7, 7, 7}
	asbrs := map[wire.ID]ASBRReachability{asbr: {Cost: 5, NextHops: []NextHop{{Interface: "eth0"}}}}

	ad := ExternalAdvertisement{
		AdvertisingRouter: asbr,
		LinkStateID:       wire.ID{192, 168, 0, 0},
		Body:              &wire.ExternalLSABody{Metric: 20, NetworkMask: [4]byte{255, 255, 0, 0}},
	}

	routes := ExternalRoutes([]ExternalAdvertisement{ad}, asbrs, nil, wire.Version2)
	if len(routes) != 1 {
		t.Fatalf("ExternalRoutes() len = %d, want 1", len(routes))
	}
	if routes[0].Cost != 25 {
		t.Fatalf("type-1 cost = %d, want 25 (5 + 20)", routes[0].Cost)
	}
}

func TestExternalRoutesType2TiebreakOnType1(t *testing.T) {
	asbrCheap := wire.ID{7, 7, 7, 7}
	asbrExpensive := wire.ID{8, 8, 8, 8}
	asbrs := map[wire.ID]ASBRReachability{
		asbrCheap:     {Cost: 5, NextHops: []NextHop{{Interface: "eth0"}}},
		asbrExpensive: {Cost: 15, NextHops: []NextHop{{Interface: "eth1"}}},
	}

	dest := wire.ID{10, 1, 0, 0}
	mask := [4]byte{255, 255, 0, 0}
	ads := []ExternalAdvertisement{
		{AdvertisingRouter: asbrCheap, LinkStateID: dest, Body: &wire.ExternalLSABody{Type2: true, Metric: 20, NetworkMask: mask}},
		{AdvertisingRouter: asbrExpensive, LinkStateID: dest, Body: &wire.ExternalLSABody{Type2: true, Metric: 20, NetworkMask: mask}},
	}

	routes := ExternalRoutes(ads, asbrs, nil, wire.Version2)
	if len(routes) != 1 {
		t.Fatalf("ExternalRoutes() len = %d, want 1", len(routes))
	}
	if routes[0].Cost != 20 {
		t.Fatalf("type-2 cost = %d, want 20", routes[0].Cost)
	}
	if routes[0].Type1Cost != 25 {
		t.Fatalf("type-1 tiebreak cost = %d, want 25 (the cheaper ASBR)", routes[0].Type1Cost)
	}
	if routes[0].Via != asbrCheap {
		t.Fatalf("Via = %v, want the cheaper ASBR", routes[0].Via)
	}
}

func TestApplyAreaRangesAggregatesAndSuppresses(t *testing.T) {
	r := Range{NetworkAddr: [4]byte{10, 0, 0, 0}, NetworkMask: [4]byte{255, 255, 0, 0}, Advertise: true}
	components := []ComponentRoute{
		{Destination: Destination{NetworkAddr: [4]byte{10, 0, 0, 0}, NetworkMask: [4]byte{255, 255, 255, 0}}, Cost: 10},
		{Destination: Destination{NetworkAddr: [4]byte{10, 0, 1, 0}, NetworkMask: [4]byte{255, 255, 255, 0}}, Cost: 20},
		{Destination: Destination{NetworkAddr: [4]byte{192, 168, 0, 0}, NetworkMask: [4]byte{255, 255, 255, 0}}, Cost: 5},
	}

	aggregated, uncovered := ApplyAreaRanges([]Range{r}, components, wire.Version2)
	if len(aggregated) != 1 {
		t.Fatalf("ApplyAreaRanges() aggregated len = %d, want 1", len(aggregated))
	}
	if aggregated[0].DiscardCost != 20 {
		t.Fatalf("DiscardCost = %d, want 20 (max of components)", aggregated[0].DiscardCost)
	}
	if len(aggregated[0].Components) != 2 {
		t.Fatalf("aggregated components = %v, want 2", aggregated[0].Components)
	}
	if len(uncovered) != 1 {
		t.Fatalf("uncovered len = %d, want 1", len(uncovered))
	}
}

func TestRouteTableOfferPrefersBetterPathType(t *testing.T) {
	rt := NewRouteTable()
	key := RouteKey{Destination: Destination{NetworkAddr: [4]byte{10, 0, 0, 0}, NetworkMask: [4]byte{255, 255, 255, 0}}}

	rt.Offer(key, RouteEntry{PathType: ExternalType2, Cost: 5, NextHops: []NextHop{{Interface: "eth0"}}})
	rt.Offer(key, RouteEntry{PathType: IntraArea, Cost: 100, NextHops: []NextHop{{Interface: "eth1"}}})

	got, ok := rt.Get(key)
	if !ok {
		t.Fatal("Get() after Offer = not found")
	}
	if got.PathType != IntraArea {
		t.Fatalf("PathType = %v, want IntraArea to win over a worse path-type regardless of cost", got.PathType)
	}
}

func TestPublishDiffsAddReplaceDelete(t *testing.T) {
	destA := RouteKey{Destination: Destination{NetworkAddr: [4]byte{10, 0, 0, 0}, NetworkMask: [4]byte{255, 255, 255, 0}}}
	destB := RouteKey{Destination: Destination{NetworkAddr: [4]byte{10, 0, 1, 0}, NetworkMask: [4]byte{255, 255, 255, 0}}}

	prev := NewRouteTable()
	prev.Offer(destA, RouteEntry{PathType: IntraArea, Cost: 10, NextHops: []NextHop{{Interface: "eth0"}}})
	prev.Offer(destB, RouteEntry{PathType: IntraArea, Cost: 10, NextHops: []NextHop{{Interface: "eth0"}}})

	cur := NewRouteTable()
	cur.Offer(destA, RouteEntry{PathType: IntraArea, Cost: 20, NextHops: []NextHop{{Interface: "eth1"}}}) // changed
	// destB dropped entirely.
	destC := RouteKey{Destination: Destination{NetworkAddr: [4]byte{10, 0, 2, 0}, NetworkMask: [4]byte{255, 255, 255, 0}}}
	cur.Offer(destC, RouteEntry{PathType: IntraArea, Cost: 5, NextHops: []NextHop{{Interface: "eth2"}}}) // new

	rib := NewMemoryRib()
	Publish(rib, prev, cur, nil, nil)

	if len(rib.Routes) != 2 {
		t.Fatalf("rib.Routes = %v, want 2 entries (A replaced, C added, B deleted)", rib.Routes)
	}
	if _, ok := rib.Routes[destB]; ok {
		t.Fatal("destB still present, want deleted")
	}
	if route := rib.Routes[destA]; route.Metric != 20 {
		t.Fatalf("destA metric = %d, want 20 after replace", route.Metric)
	}
	if route, ok := rib.Routes[destC]; !ok || route.Metric != 5 {
		t.Fatalf("destC = %+v, ok=%v, want added at metric 5", route, ok)
	}
}
