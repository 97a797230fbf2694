package wire

import (
	"encoding/binary"
	"fmt"
)

// A PrefixEntry is one advertised prefix, shared by Link-LSAs and
// Intra-Area-Prefix-LSAs (RFC 5340 appendix A.4.1.1). Metric is only
// meaningful within an Intra-Area-Prefix-LSA.
type PrefixEntry struct {
	Length  uint8
	Options PrefixOptions
	Metric  uint16
	Prefix  []byte
}

// LinkLSABody is a Link-LSA body (RFC 5340 appendix A.4.9), originated per
// link by every router on it to advertise its link-local address and the
// prefixes it wants associated with the attached network (OSPFv3 only).
type LinkLSABody struct {
	RouterPriority   uint8
	Options          Options
	LinkLocalAddress [16]byte
	Prefixes         []PrefixEntry
}

func (*LinkLSABody) kind() Kind { return KindLink }

func (b *LinkLSABody) len(Version) int {
	n := 4 + 16 + 4
	for _, p := range b.Prefixes {
		n += prefixWireLen(int(p.Length))
	}
	return n
}

func (b *LinkLSABody) marshal(buf []byte, v Version) error {
	if len(buf) < b.len(v) {
		return fmt.Errorf("link LSA body buffer too small: %w", ErrMarshal)
	}

	buf[0] = b.RouterPriority
	buf[1], buf[2], buf[3] = byte(b.Options>>16), byte(b.Options>>8), byte(b.Options)
	copy(buf[4:20], b.LinkLocalAddress[:])
	binary.BigEndian.PutUint32(buf[20:24], uint32(len(b.Prefixes)))

	off := 24
	for _, p := range b.Prefixes {
		marshalPrefix(buf[off:], p.Length, p.Options, 0, nil)
		n := prefixByteWords(int(p.Length))
		copy(buf[off+4:off+4+n], p.Prefix)
		off += 4 + n
	}
	return nil
}

func (b *LinkLSABody) unmarshal(buf []byte, v Version) error {
	if len(buf) < 24 {
		return fmt.Errorf("link LSA body too short: %d bytes: %w", len(buf), ErrParse)
	}

	b.RouterPriority = buf[0]
	b.Options = optionsV3(append([]byte{0}, buf[1:4]...))
	copy(b.LinkLocalAddress[:], buf[4:20])
	n := binary.BigEndian.Uint32(buf[20:24])

	rest := buf[24:]
	b.Prefixes = make([]PrefixEntry, 0, n)
	for i := uint32(0); i < n; i++ {
		plen, popt, _, prefix, err := parsePrefix(rest)
		if err != nil {
			return fmt.Errorf("link LSA prefix %d: %w", i, err)
		}
		b.Prefixes = append(b.Prefixes, PrefixEntry{Length: plen, Options: popt, Prefix: prefix})
		rest = rest[prefixWireLen(int(plen)):]
	}
	return nil
}
