package wire

import "fmt"

// NetworkLSABody is a Network-LSA body, originated by the DR on a transit
// network (RFC 2328 appendix A.4.3, RFC 5340 appendix A.4.4). OSPFv3 carries
// no netmask here; prefixes live in the Intra-Area-Prefix-LSA instead.
type NetworkLSABody struct {
	Options         Options  // OSPFv3 only.
	NetworkMask     [4]byte // OSPFv2 only.
	AttachedRouters []ID
}

func (*NetworkLSABody) kind() Kind { return KindNetwork }

func (b *NetworkLSABody) len(Version) int { return 4 + 4*len(b.AttachedRouters) }

func (b *NetworkLSABody) marshal(buf []byte, v Version) error {
	if len(buf) < b.len(v) {
		return fmt.Errorf("network LSA body buffer too small: %w", ErrMarshal)
	}

	if v == Version3 {
		buf[0] = 0
		buf[1], buf[2], buf[3] = byte(b.Options>>16), byte(b.Options>>8), byte(b.Options)
	} else {
		copy(buf[0:4], b.NetworkMask[:])
	}

	off := 4
	for _, r := range b.AttachedRouters {
		copy(buf[off:off+4], r[:])
		off += 4
	}
	return nil
}

func (b *NetworkLSABody) unmarshal(buf []byte, v Version) error {
	if len(buf) < 4 {
		return fmt.Errorf("network LSA body too short: %d bytes: %w", len(buf), ErrParse)
	}

	if v == Version3 {
		b.Options = optionsV3(append([]byte{0}, buf[1:4]...))
	} else {
		copy(b.NetworkMask[:], buf[0:4])
	}

	rest := buf[4:]
	if len(rest)%4 != 0 {
		return fmt.Errorf("network LSA attached router area is not a multiple of 4 bytes: %d: %w", len(rest), ErrParse)
	}
	b.AttachedRouters = make([]ID, 0, len(rest)/4)
	for off := 0; off+4 <= len(rest); off += 4 {
		var r ID
		copy(r[:], rest[off:off+4])
		b.AttachedRouters = append(b.AttachedRouters, r)
	}
	return nil
}
