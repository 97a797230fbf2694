package spf

import "github.com/openospfd/ospfd/wire"

// A Range is one configured area range: component intra-area destinations
// falling within it are suppressed from individual Summary-LSA
// advertisement and replaced by one aggregate discard route, per §4.6.
type Range struct {
	NetworkAddr [4]byte // OSPFv2.
	NetworkMask [4]byte // OSPFv2.

	PrefixLength uint8    // OSPFv3.
	Prefix       [16]byte // OSPFv3.

	Advertise bool
}

// covers reports whether d falls within r: d's prefix must be at least as
// specific as r's, and must share r's leading bits.
func covers(r Range, d Destination, v wire.Version) bool {
	if v == wire.Version3 {
		if d.PrefixLength < r.PrefixLength {
			return false
		}
		return samePrefix(d.Prefix, r.Prefix, r.PrefixLength)
	}

	for i := range r.NetworkMask {
		// d's mask must carry every bit r's mask carries (d at least as
		// specific), and the masked address must match r's.
		if r.NetworkMask[i]&^d.NetworkMask[i] != 0 {
			return false
		}
		if d.NetworkAddr[i]&r.NetworkMask[i] != r.NetworkAddr[i] {
			return false
		}
	}
	return true
}

// samePrefix reports whether a and b agree on their leading bits bits.
func samePrefix(a, b [16]byte, bits uint8) bool {
	fullBytes := bits / 8
	for i := uint8(0); i < fullBytes; i++ {
		if a[i] != b[i] {
			return false
		}
	}
	if rem := bits % 8; rem != 0 {
		mask := byte(0xff << (8 - rem))
		if a[fullBytes]&mask != b[fullBytes]&mask {
			return false
		}
	}
	return true
}

// A ComponentRoute is one intra-area destination and its tree cost,
// considered for area-range aggregation.
type ComponentRoute struct {
	Destination Destination
	Cost        uint32
}

// An AggregatedRange is one configured range covering at least one
// component route: DiscardCost is the maximum of the covered components'
// costs, the cost at which §4.6 installs the range's discard route and
// advertises its Summary-LSA.
type AggregatedRange struct {
	Range       Range
	DiscardCost uint32
	Components  []Destination
}

// ApplyAreaRanges partitions component intra-area routes by configured
// range: ranges covering at least one component are returned as
// AggregatedRange entries (discard route plus, if Range.Advertise, one
// Summary-LSA at DiscardCost); components matching no range are returned
// unchanged in the second slice and advertise individually, per §4.6.
func ApplyAreaRanges(ranges []Range, components []ComponentRoute, v wire.Version) ([]AggregatedRange, []ComponentRoute) {
	matches := make(map[int]*AggregatedRange)
	var uncovered []ComponentRoute

	for _, c := range components {
		matched := -1
		for i, r := range ranges {
			if covers(r, c.Destination, v) {
				matched = i
				break
			}
		}
		if matched < 0 {
			uncovered = append(uncovered, c)
			continue
		}

		a, ok := matches[matched]
		if !ok {
			a = &AggregatedRange{Range: ranges[matched]}
			matches[matched] = a
		}
		if c.Cost > a.DiscardCost {
			a.DiscardCost = c.Cost
		}
		a.Components = append(a.Components, c.Destination)
	}

	out := make([]AggregatedRange, 0, len(matches))
	for i := range ranges {
		if a, ok := matches[i]; ok {
			out = append(out, *a)
		}
	}
	return out, uncovered
}
