// Package flood implements reliable LSA flooding, per §4.4: scope-based
// candidate interface selection, per-neighbor retransmit lists, ack rules,
// and MTU-greedy packet assembly.
package flood

import "github.com/openospfd/ospfd/wire"

// An Interface is the minimal view flood needs of one OSPF interface: its
// opaque identifier, the area it belongs to (ignored for link/AS scope),
// whether the area is a stub or NSSA (AS-scope/Type-7 exclusion), and
// whether the local router is DR or BDR on it (back-door flood
// suppression).
type Interface struct {
	ID        string
	AreaID    wire.ID
	Stub      bool
	NSSA      bool
	IsDROrBDR bool
}

// Candidates returns the set of interfaces an LSA of the given Kind,
// originating on (or received via) origin, should be flooded out of, per
// §4.4's scope rules. ifaces is every interface on the router.
func Candidates(kind wire.Kind, v wire.Version, origin Interface, ifaces []Interface) []Interface {
	switch kind.Scope(v) {
	case wire.LinkScoping:
		return []Interface{origin}

	case wire.AreaScoping:
		var out []Interface
		for _, ifc := range ifaces {
			if ifc.AreaID == origin.AreaID {
				out = append(out, ifc)
			}
		}
		return out

	default: // wire.ASScoping
		var out []Interface
		for _, ifc := range ifaces {
			if kind == wire.KindNSSAExternal {
				// Type-7 stays within the originating NSSA; translation to
				// AS-External at the border is origin's job, not flood's.
				if ifc.AreaID == origin.AreaID {
					out = append(out, ifc)
				}
				continue
			}
			if ifc.Stub || ifc.NSSA {
				continue
			}
			out = append(out, ifc)
		}
		return out
	}
}

// BackDoorSuppressed reports whether an LSA received on receivedOn should
// be withheld from neighbor on candidateIfc, per §4.4's "standard back-door
// flood suppression": on broadcast/NBMA networks, a non-DR/BDR router does
// not re-flood back out the interface it heard the LSA on toward neighbors
// on that same interface, since the DR already floods it there.
func BackDoorSuppressed(receivedOn, candidateIfc Interface, selfIsDROrBDR bool) bool {
	return !selfIsDROrBDR && receivedOn.ID == candidateIfc.ID
}
