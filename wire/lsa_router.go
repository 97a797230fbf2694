package wire

import (
	"encoding/binary"
	"fmt"
)

// RouterLinkType classifies a single link described in a RouterLSABody,
// RFC 2328 appendix A.4.2 / RFC 5340 appendix A.4.3.
type RouterLinkType uint8

// Possible RouterLinkType values.
const (
	PointToPointLink RouterLinkType = 1
	TransitLink       RouterLinkType = 2
	StubLink          RouterLinkType = 3 // OSPFv2 only: no OSPFv3 equivalent.
	VirtualLink       RouterLinkType = 4
)

func (t RouterLinkType) String() string {
	switch t {
	case PointToPointLink:
		return "PointToPoint"
	case TransitLink:
		return "Transit"
	case StubLink:
		return "Stub"
	case VirtualLink:
		return "Virtual"
	default:
		return fmt.Sprintf("RouterLinkType(%d)", uint8(t))
	}
}

// RouterLSAFlags are the V/E/B bits of a Router-LSA, RFC 2328 appendix A.4.2 /
// RFC 5340 appendix A.4.3.
type RouterLSAFlags uint8

// Possible RouterLSAFlags bits.
const (
	VirtualLinkEndpointFlag RouterLSAFlags = 1 << 2 // V-bit.
	ASBoundaryFlag          RouterLSAFlags = 1 << 1 // E-bit.
	AreaBorderFlag          RouterLSAFlags = 1 << 0 // B-bit.
)

func (f RouterLSAFlags) String() string {
	return flagsString(uint(f), []string{"B-bit", "E-bit", "V-bit"})
}

// A RouterLink describes one of a router's links, generalizing OSPFv2's
// (link ID, link data, type, #TOS, metric) tuple and OSPFv3's (type, metric,
// interface ID, neighbor interface ID, neighbor router ID) tuple. TOS-based
// metrics are a Non-goal and are dropped on parse.
type RouterLink struct {
	Type   RouterLinkType
	Metric uint16

	// OSPFv2 fields; meaning of LinkID/LinkData depends on Type (RFC 2328
	// table 19).
	LinkID   ID
	LinkData [4]byte

	// OSPFv3 fields.
	InterfaceID         uint32
	NeighborInterfaceID uint32
	NeighborRouterID    ID
}

// RouterLSABody is a Router-LSA body (RFC 2328 appendix A.4.2, RFC 5340
// appendix A.4.3), originated once per router per area (§3.2, C3).
type RouterLSABody struct {
	Flags   RouterLSAFlags
	Options Options // OSPFv3 only; OSPFv2 carries Options in the LSA header.
	Links   []RouterLink
}

func (*RouterLSABody) kind() Kind { return KindRouter }

func (b *RouterLSABody) len(v Version) int {
	if v == Version3 {
		return 4 + 16*len(b.Links)
	}
	return 4 + 12*len(b.Links)
}

func (b *RouterLSABody) marshal(buf []byte, v Version) error {
	if len(buf) < b.len(v) {
		return fmt.Errorf("router LSA body buffer too small: %w", ErrMarshal)
	}

	if v == Version3 {
		buf[0] = byte(b.Flags)
		buf[1], buf[2], buf[3] = byte(b.Options>>16), byte(b.Options>>8), byte(b.Options)

		off := 4
		for _, l := range b.Links {
			buf[off] = byte(l.Type)
			buf[off+1] = 0 // Reserved.
			binary.BigEndian.PutUint16(buf[off+2:off+4], l.Metric)
			binary.BigEndian.PutUint32(buf[off+4:off+8], l.InterfaceID)
			binary.BigEndian.PutUint32(buf[off+8:off+12], l.NeighborInterfaceID)
			copy(buf[off+12:off+16], l.NeighborRouterID[:])
			off += 16
		}
		return nil
	}

	buf[0] = 0 // Reserved.
	buf[1] = byte(b.Flags)
	binary.BigEndian.PutUint16(buf[2:4], uint16(len(b.Links)))

	off := 4
	for _, l := range b.Links {
		copy(buf[off:off+4], l.LinkID[:])
		copy(buf[off+4:off+8], l.LinkData[:])
		buf[off+8] = byte(l.Type)
		buf[off+9] = 0 // #TOS: TOS-based metrics are a Non-goal.
		binary.BigEndian.PutUint16(buf[off+10:off+12], l.Metric)
		off += 12
	}
	return nil
}

func (b *RouterLSABody) unmarshal(buf []byte, v Version) error {
	if len(buf) < 4 {
		return fmt.Errorf("router LSA body too short: %d bytes: %w", len(buf), ErrParse)
	}

	if v == Version3 {
		b.Flags = RouterLSAFlags(buf[0])
		b.Options = optionsV3(append([]byte{0}, buf[1:4]...))

		rest := buf[4:]
		if len(rest)%16 != 0 {
			return fmt.Errorf("router LSA v3 link area is not a multiple of 16 bytes: %d: %w", len(rest), ErrParse)
		}
		b.Links = make([]RouterLink, 0, len(rest)/16)
		for off := 0; off+16 <= len(rest); off += 16 {
			var l RouterLink
			l.Type = RouterLinkType(rest[off])
			l.Metric = binary.BigEndian.Uint16(rest[off+2 : off+4])
			l.InterfaceID = binary.BigEndian.Uint32(rest[off+4 : off+8])
			l.NeighborInterfaceID = binary.BigEndian.Uint32(rest[off+8 : off+12])
			copy(l.NeighborRouterID[:], rest[off+12:off+16])
			b.Links = append(b.Links, l)
		}
		return nil
	}

	b.Flags = RouterLSAFlags(buf[1])
	n := int(binary.BigEndian.Uint16(buf[2:4]))

	rest := buf[4:]
	if len(rest) < n*12 {
		return fmt.Errorf("router LSA v2 declares %d links but only %d bytes remain: %w", n, len(rest), ErrParse)
	}
	b.Links = make([]RouterLink, 0, n)
	for i := 0; i < n; i++ {
		off := i * 12
		var l RouterLink
		copy(l.LinkID[:], rest[off:off+4])
		copy(l.LinkData[:], rest[off+4:off+8])
		l.Type = RouterLinkType(rest[off+8])
		l.Metric = binary.BigEndian.Uint16(rest[off+10 : off+12])
		b.Links = append(b.Links, l)
	}
	return nil
}
