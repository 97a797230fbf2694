package spf

import "github.com/openospfd/ospfd/wire"

// A VirtualLinkPath is the effective cost and next-hop set to reach a
// configured virtual-link endpoint through its transit area's own
// shortest-path tree, per RFC 2328 §15: a virtual link's cost is exactly
// this intra-area path, not a configured or advertised metric.
type VirtualLinkPath struct {
	Endpoint wire.ID
	Cost     uint32
	NextHops []NextHop
}

// ResolveVirtualLinks looks up each configured virtual-link endpoint in
// its transit area's already-computed tree, producing the cost/next-hop
// pairs the backbone area's VirtualLink RouterLinks need, per §4.6's
// "transit-area (virtual next-hop) case": when the backbone is reachable
// only through a transit area, the backbone SPF re-examines summaries
// using these paths in place of a direct backbone adjacency.
func ResolveVirtualLinks(transitTree map[Vertex]*TreeNode, endpoints []wire.ID) []VirtualLinkPath {
	var out []VirtualLinkPath
	for _, id := range endpoints {
		node, ok := transitTree[routerVertex(id)]
		if !ok {
			continue
		}
		out = append(out, VirtualLinkPath{Endpoint: id, Cost: node.Cost, NextHops: node.NextHops})
	}
	return out
}

// A VirtualLinkResolver answers ResolveRouterLink for VirtualLink edges
// out of the root using paths computed by ResolveVirtualLinks, and
// delegates every other edge (point-to-point, transit) to Inner. Plug
// this in as the backbone Graph's resolver once the transit area's tree
// is known.
type VirtualLinkResolver struct {
	Inner NextHopResolver
	paths map[wire.ID][]NextHop
}

// NewVirtualLinkResolver builds a VirtualLinkResolver from the resolved
// virtual-link paths, falling back to inner for anything it doesn't cover.
func NewVirtualLinkResolver(inner NextHopResolver, vlPaths []VirtualLinkPath) *VirtualLinkResolver {
	m := make(map[wire.ID][]NextHop, len(vlPaths))
	for _, p := range vlPaths {
		m[p.Endpoint] = p.NextHops
	}
	return &VirtualLinkResolver{Inner: inner, paths: m}
}

func (r *VirtualLinkResolver) ResolveRouterLink(link wire.RouterLink, v wire.Version) (NextHop, bool) {
	if link.Type != wire.VirtualLink {
		if r.Inner == nil {
			return NextHop{}, false
		}
		return r.Inner.ResolveRouterLink(link, v)
	}

	target := link.LinkID
	if v == wire.Version3 {
		target = link.NeighborRouterID
	}
	hops, ok := r.paths[target]
	if !ok || len(hops) == 0 {
		return NextHop{}, false
	}
	return hops[0], true
}

func (r *VirtualLinkResolver) ResolveTransitLink(link wire.RouterLink, neighborRouter wire.ID, v wire.Version) (NextHop, bool) {
	if r.Inner == nil {
		return NextHop{}, false
	}
	return r.Inner.ResolveTransitLink(link, neighborRouter, v)
}
