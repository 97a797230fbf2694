package wire

import "fmt"

// PrefixOptions is the one byte PrefixOptions field carried alongside every
// OSPFv3 prefix (RFC 5340 appendix A.4.1.1).
type PrefixOptions uint8

// Possible PrefixOptions bits.
const (
	NUBit PrefixOptions = 1 << 0 // No-unicast.
	LABit PrefixOptions = 1 << 1 // Local address.
	MCBitPrefix PrefixOptions = 1 << 2 // Multicast.
	PBit  PrefixOptions = 1 << 3 // Propagate (NSSA).
	DNBit PrefixOptions = 1 << 4 // Downward (VPN loop prevention).
)

func (o PrefixOptions) String() string {
	return flagsString(uint(o), []string{"NU-bit", "LA-bit", "MC-bit", "P-bit", "DN-bit"})
}

// prefixWireLen returns the on-wire length, in bytes, of an OSPFv3 prefix
// encoding of the given bit length: a 4 byte fixed part (length, options,
// metric/reserved) plus ceil(bits/32) 4 byte words.
func prefixWireLen(bits int) int {
	return 4 + prefixByteWords(bits)
}

func prefixByteWords(bits int) int {
	return ((bits + 31) / 32) * 4
}

// marshalPrefix packs an OSPFv3 prefix's fixed part and address bytes into
// b. metricOrRefType carries the trailing 2 bytes of the fixed part, whose
// meaning (a metric, or a referenced LS type) depends on the containing LSA.
func marshalPrefix(b []byte, plen uint8, popt PrefixOptions, metricOrRefType uint16, addr []byte) {
	b[0] = plen
	b[1] = byte(popt)
	b[2] = byte(metricOrRefType >> 8)
	b[3] = byte(metricOrRefType)
	copy(b[4:], addr)
}

// parsePrefix unpacks an OSPFv3 prefix from the front of b, returning the
// prefix length, options, trailing fixed-part field, and address bytes
// (padded to a 4 byte boundary, per RFC 5340 appendix A.4.1.1).
func parsePrefix(b []byte) (plen uint8, popt PrefixOptions, metricOrRefType uint16, addr []byte, err error) {
	if len(b) < 4 {
		return 0, 0, 0, nil, fmt.Errorf("prefix too short: %d bytes: %w", len(b), ErrParse)
	}

	plen = b[0]
	popt = PrefixOptions(b[1])
	metricOrRefType = uint16(b[2])<<8 | uint16(b[3])

	n := prefixByteWords(int(plen))
	if len(b) < 4+n {
		return 0, 0, 0, nil, fmt.Errorf("prefix declares %d bits but only %d address bytes remain: %w", plen, len(b)-4, ErrParse)
	}

	addr = append([]byte(nil), b[4:4+n]...)
	return plen, popt, metricOrRefType, addr, nil
}
