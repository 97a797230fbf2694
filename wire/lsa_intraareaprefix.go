package wire

import (
	"encoding/binary"
	"fmt"
)

// IntraAreaPrefixLSABody is an Intra-Area-Prefix-LSA body (RFC 5340 appendix
// A.4.10), OSPFv3 only. It carries the prefixes that OSPFv2 would have
// carried inline in a Router-LSA or Network-LSA, referencing back to the
// LSA whose topology they attach to.
type IntraAreaPrefixLSABody struct {
	ReferencedLSType          LSType
	ReferencedLinkStateID     ID
	ReferencedAdvertisingRouter ID
	Prefixes                  []PrefixEntry
}

func (*IntraAreaPrefixLSABody) kind() Kind { return KindIntraAreaPrefix }

func (b *IntraAreaPrefixLSABody) len(Version) int {
	n := 12
	for _, p := range b.Prefixes {
		n += prefixWireLen(int(p.Length))
	}
	return n
}

func (b *IntraAreaPrefixLSABody) marshal(buf []byte, v Version) error {
	if len(buf) < b.len(v) {
		return fmt.Errorf("intra-area-prefix LSA body buffer too small: %w", ErrMarshal)
	}

	binary.BigEndian.PutUint16(buf[0:2], uint16(len(b.Prefixes)))
	binary.BigEndian.PutUint16(buf[2:4], uint16(b.ReferencedLSType))
	copy(buf[4:8], b.ReferencedLinkStateID[:])
	copy(buf[8:12], b.ReferencedAdvertisingRouter[:])

	off := 12
	for _, p := range b.Prefixes {
		marshalPrefix(buf[off:], p.Length, p.Options, p.Metric, nil)
		n := prefixByteWords(int(p.Length))
		copy(buf[off+4:off+4+n], p.Prefix)
		off += 4 + n
	}
	return nil
}

func (b *IntraAreaPrefixLSABody) unmarshal(buf []byte, v Version) error {
	if len(buf) < 12 {
		return fmt.Errorf("intra-area-prefix LSA body too short: %d bytes: %w", len(buf), ErrParse)
	}

	n := binary.BigEndian.Uint16(buf[0:2])
	b.ReferencedLSType = LSType(binary.BigEndian.Uint16(buf[2:4]))
	copy(b.ReferencedLinkStateID[:], buf[4:8])
	copy(b.ReferencedAdvertisingRouter[:], buf[8:12])

	rest := buf[12:]
	b.Prefixes = make([]PrefixEntry, 0, n)
	for i := uint16(0); i < n; i++ {
		plen, popt, met, prefix, err := parsePrefix(rest)
		if err != nil {
			return fmt.Errorf("intra-area-prefix %d: %w", i, err)
		}
		b.Prefixes = append(b.Prefixes, PrefixEntry{Length: plen, Options: popt, Metric: met, Prefix: prefix})
		rest = rest[prefixWireLen(int(plen)):]
	}
	return nil
}
