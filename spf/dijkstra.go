// Package spf computes intra-area and inter-area shortest paths from the
// link-state database and publishes the resulting routes, per §4.6.
package spf

import (
	"container/heap"
	"net"

	"github.com/openospfd/ospfd/wire"
)

// A VertexKind distinguishes router and transit-network (pseudo-node)
// vertices in the SPF graph.
type VertexKind uint8

// Possible VertexKind values.
const (
	RouterVertex VertexKind = iota
	NetworkVertex
)

// A Vertex identifies one node in an area's directed SPF graph: a router
// by its router ID, or a transit network pseudo-node by its Network-LSA's
// (link-state-id, advertising-router) identity.
type Vertex struct {
	Kind               VertexKind
	RouterID           wire.ID
	NetworkLinkStateID wire.ID
	NetworkAdvRouter   wire.ID
}

// A NextHop is one outgoing path a route may use.
type NextHop struct {
	Interface string
	Gateway   net.IP // Zero for a next-hop reachable without a gateway (e.g. P2P).
}

// A NextHopResolver supplies interface/gateway information for an edge
// directly out of the root, which the LSDB alone doesn't carry (it knows
// link costs and identities, not local interface addressing).
type NextHopResolver interface {
	// ResolveRouterLink resolves the next hop reached by following a
	// point-to-point or virtual-link RouterLink out of the root.
	ResolveRouterLink(link wire.RouterLink, v wire.Version) (NextHop, bool)

	// ResolveTransitLink resolves the next hop reached by following a
	// transit RouterLink (root directly attached to a transit network)
	// toward neighborRouter, a router attached to that same network.
	ResolveTransitLink(link wire.RouterLink, neighborRouter wire.ID, v wire.Version) (NextHop, bool)
}

// A TreeNode is one vertex's result in a computed shortest-path tree.
type TreeNode struct {
	Vertex   Vertex
	Cost     uint32
	NextHops []NextHop
}

// A Graph is the set of Router-LSAs and Network-LSAs for one area, indexed
// for Dijkstra.
type Graph struct {
	Version  wire.Version
	routers  map[wire.ID]*wire.RouterLSABody
	networks map[Vertex]*wire.NetworkLSABody
}

// NewGraph constructs an empty Graph for the given protocol version.
func NewGraph(v wire.Version) *Graph {
	return &Graph{
		Version:  v,
		routers:  make(map[wire.ID]*wire.RouterLSABody),
		networks: make(map[Vertex]*wire.NetworkLSABody),
	}
}

// AddRouter installs routerID's Router-LSA body into the graph.
func (g *Graph) AddRouter(routerID wire.ID, body *wire.RouterLSABody) {
	g.routers[routerID] = body
}

// AddNetwork installs a transit network's Network-LSA body into the graph,
// identified by the LSA's link-state-id/advertising-router (the network's
// designated router, per RFC 2328 §12.4/RFC 5340 §4.4.3.2).
func (g *Graph) AddNetwork(linkStateID, advRouter wire.ID, body *wire.NetworkLSABody) {
	g.networks[networkVertex(linkStateID, advRouter)] = body
}

func networkVertex(linkStateID, advRouter wire.ID) Vertex {
	return Vertex{Kind: NetworkVertex, NetworkLinkStateID: linkStateID, NetworkAdvRouter: advRouter}
}

func routerVertex(id wire.ID) Vertex {
	return Vertex{Kind: RouterVertex, RouterID: id}
}

// candidate is one entry in the Dijkstra priority queue.
type candidate struct {
	vertex   Vertex
	cost     uint32
	nextHops []NextHop
	index    int
}

type candidateQueue []*candidate

func (q candidateQueue) Len() int           { return len(q) }
func (q candidateQueue) Less(i, j int) bool { return q[i].cost < q[j].cost }
func (q candidateQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i]; q[i].index, q[j].index = i, j }
func (q *candidateQueue) Push(x interface{}) {
	c := x.(*candidate)
	c.index = len(*q)
	*q = append(*q, c)
}
func (q *candidateQueue) Pop() interface{} {
	old := *q
	n := len(old)
	c := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return c
}

// Run computes the shortest-path tree rooted at root, per §4.6: point-to-
// point, transit, and virtual-link edges are relaxed by Dijkstra; stub
// links are attached in a second pass as leaves at their parent's tree
// cost plus the stub's own cost. A candidate edge is accepted only if the
// neighbor's LSA contains a matching reverse edge back to its source
// (bidirectionality check); transit-network edges additionally require the
// neighbor's router ID to appear in the Network-LSA's attached-router list.
func (g *Graph) Run(root wire.ID, resolver NextHopResolver) map[Vertex]*TreeNode {
	tree := make(map[Vertex]*TreeNode)
	visited := make(map[Vertex]bool)

	pq := &candidateQueue{}
	heap.Init(pq)
	heap.Push(pq, &candidate{vertex: routerVertex(root), cost: 0})

	// best tracks the lowest-cost candidate seen so far for each vertex,
	// so that a cheaper path found later updates rather than duplicates.
	best := map[Vertex]*candidate{routerVertex(root): (*pq)[0]}

	for pq.Len() > 0 {
		cur := heap.Pop(pq).(*candidate)
		if visited[cur.vertex] {
			continue
		}
		visited[cur.vertex] = true
		tree[cur.vertex] = &TreeNode{Vertex: cur.vertex, Cost: cur.cost, NextHops: cur.nextHops}

		g.relax(cur, root, pq, best, resolver)
	}

	return tree
}

// A StubRoute is one OSPFv2 stub-network leaf attached to the tree by
// StubRoutes' second Dijkstra pass.
type StubRoute struct {
	Router      wire.ID
	NetworkAddr [4]byte
	NetworkMask [4]byte
	Cost        uint32
	NextHops    []NextHop
}

// StubRoutes runs the OSPFv2-only second Dijkstra pass over a tree already
// computed by Run: every stub link (a leaf network with no transit
// capability) is attached at its owning router's tree cost plus the
// stub's own cost, per §4.6. OSPFv3 has no stub RouterLink; stub-network
// reachability instead lives in Intra-Area-Prefix-LSAs, handled outside
// this graph.
func (g *Graph) StubRoutes(tree map[Vertex]*TreeNode) []StubRoute {
	if g.Version == wire.Version3 {
		return nil
	}

	var out []StubRoute
	for routerID, body := range g.routers {
		parent, ok := tree[routerVertex(routerID)]
		if !ok {
			continue
		}
		for _, link := range body.Links {
			if link.Type != wire.StubLink {
				continue
			}
			out = append(out, StubRoute{
				Router:      routerID,
				NetworkAddr: link.LinkID,
				NetworkMask: link.LinkData,
				Cost:        parent.Cost + uint32(link.Metric),
				NextHops:    parent.NextHops,
			})
		}
	}
	return out
}

// relax examines every outgoing edge of cur's vertex and offers improved or
// equal-cost (ECMP) paths to the candidate queue.
func (g *Graph) relax(cur *candidate, root wire.ID, pq *candidateQueue, best map[Vertex]*candidate, resolver NextHopResolver) {
	switch cur.vertex.Kind {
	case RouterVertex:
		body, ok := g.routers[cur.vertex.RouterID]
		if !ok {
			return
		}
		for _, link := range body.Links {
			switch link.Type {
			case wire.PointToPointLink, wire.VirtualLink:
				neighbor := g.linkTarget(link)
				if neighbor == (wire.ID{}) || !g.hasReverseRouterLink(neighbor, cur.vertex.RouterID, link) {
					continue
				}
				nh := g.inheritedNextHops(cur, root, link, neighbor, resolver)
				g.offer(pq, best, routerVertex(neighbor), cur.cost+uint32(link.Metric), nh)

			case wire.TransitLink:
				netV := g.transitNetworkVertex(link)
				netBody, ok := g.networks[netV]
				if !ok {
					continue
				}
				nh := g.inheritedTransitNextHops(cur, root, link, netBody, resolver)
				g.offer(pq, best, netV, cur.cost+uint32(link.Metric), nh)
			}
		}

	case NetworkVertex:
		netBody := g.networks[cur.vertex]
		if netBody == nil {
			return
		}
		for _, attached := range netBody.AttachedRouters {
			rbody, ok := g.routers[attached]
			if !ok {
				continue
			}
			if !g.hasReverseTransitLink(rbody, cur.vertex) {
				continue
			}
			g.offer(pq, best, routerVertex(attached), cur.cost, append([]NextHop(nil), cur.nextHops...))
		}
	}
}

// linkTarget returns the router ID a point-to-point or virtual-link
// RouterLink points at, per version.
func (g *Graph) linkTarget(link wire.RouterLink) wire.ID {
	if g.Version == wire.Version3 {
		return link.NeighborRouterID
	}
	return link.LinkID
}

// hasReverseRouterLink reports whether neighbor's Router-LSA contains a
// point-to-point/virtual-link edge back to from.
func (g *Graph) hasReverseRouterLink(neighbor, from wire.ID, fwd wire.RouterLink) bool {
	body, ok := g.routers[neighbor]
	if !ok {
		return false
	}
	for _, l := range body.Links {
		if l.Type != fwd.Type {
			continue
		}
		if g.linkTarget(l) == from {
			return true
		}
	}
	return false
}

// transitNetworkVertex computes the Vertex of the transit network a
// TransitLink attaches to: identified by the network's designated router,
// which for OSPFv2 is encoded in LinkID (the DR's interface address acting
// as the Network-LSA's link-state-id) and for OSPFv3 is recovered via the
// neighbor router ID paired with the DR's own identity carried in the link.
func (g *Graph) transitNetworkVertex(link wire.RouterLink) Vertex {
	if g.Version == wire.Version3 {
		return networkVertex(link.NeighborRouterID, link.NeighborRouterID)
	}
	return networkVertex(link.LinkID, link.LinkID)
}

// hasReverseTransitLink reports whether a router attached to net declares a
// TransitLink back to that same network's pseudo-node.
func (g *Graph) hasReverseTransitLink(body *wire.RouterLSABody, net Vertex) bool {
	for _, l := range body.Links {
		if l.Type != wire.TransitLink {
			continue
		}
		if g.transitNetworkVertex(l) == net {
			return true
		}
	}
	return false
}

// inheritedNextHops computes the next-hop set for an edge directly out of
// root (resolved via resolver) or inherited unchanged from the parent
// (indirect), per §4.6.
func (g *Graph) inheritedNextHops(cur *candidate, root wire.ID, link wire.RouterLink, neighbor wire.ID, resolver NextHopResolver) []NextHop {
	if cur.vertex.Kind == RouterVertex && cur.vertex.RouterID == root && resolver != nil {
		if nh, ok := resolver.ResolveRouterLink(link, g.Version); ok {
			return []NextHop{nh}
		}
	}
	return append([]NextHop(nil), cur.nextHops...)
}

func (g *Graph) inheritedTransitNextHops(cur *candidate, root wire.ID, link wire.RouterLink, netBody *wire.NetworkLSABody, resolver NextHopResolver) []NextHop {
	if cur.vertex.Kind == RouterVertex && cur.vertex.RouterID == root && resolver != nil {
		// The root is directly attached to this transit network; the
		// actual next hop depends on which neighbor on the network is
		// ultimately reached, so resolution is deferred to the
		// network->router relaxation step for each attached router.
		var hops []NextHop
		for _, attached := range netBody.AttachedRouters {
			if attached == root {
				continue
			}
			if nh, ok := resolver.ResolveTransitLink(link, attached, g.Version); ok {
				hops = append(hops, nh)
			}
		}
		if len(hops) > 0 {
			return hops
		}
	}
	return append([]NextHop(nil), cur.nextHops...)
}

// offer proposes a path to vertex at the given cost. A strictly cheaper
// path replaces any existing candidate; an equal-cost path merges next
// hops into the existing candidate's ECMP set, per §4.6.
func (g *Graph) offer(pq *candidateQueue, best map[Vertex]*candidate, vertex Vertex, cost uint32, nextHops []NextHop) {
	if existing, ok := best[vertex]; ok {
		switch {
		case cost < existing.cost:
			existing.cost = cost
			existing.nextHops = nextHops
			heap.Fix(pq, existing.index)
		case cost == existing.cost:
			existing.nextHops = mergeNextHops(existing.nextHops, nextHops)
		}
		return
	}

	c := &candidate{vertex: vertex, cost: cost, nextHops: nextHops}
	best[vertex] = c
	heap.Push(pq, c)
}

// mergeNextHops unions two next-hop sets, deduplicating by
// (interface, gateway).
func mergeNextHops(a, b []NextHop) []NextHop {
	seen := make(map[string]bool, len(a))
	out := append([]NextHop(nil), a...)
	for _, nh := range a {
		seen[nh.Interface+"|"+nh.Gateway.String()] = true
	}
	for _, nh := range b {
		key := nh.Interface + "|" + nh.Gateway.String()
		if !seen[key] {
			seen[key] = true
			out = append(out, nh)
		}
	}
	return out
}

