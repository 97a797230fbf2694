package wire

import (
	"encoding/binary"
	"fmt"
)

// SummaryLSABody is a Summary-LSA (v2, KindSummaryNetwork/KindSummaryASBR) or
// Inter-Area-Prefix-LSA/Inter-Area-Router-LSA (v3) body, originated by an
// area border router to advertise a route across an area boundary (RFC 2328
// appendix A.4.4/A.4.5, RFC 5340 appendix A.4.5/A.4.6). TOS-based metrics are
// a Non-goal and are dropped on parse.
type SummaryLSABody struct {
	// Router reports whether this body describes a destination router
	// (ASBR-Summary-LSA / Inter-Area-Router-LSA) rather than a destination
	// network (Summary-LSA / Inter-Area-Prefix-LSA). newBody sets this from
	// the LSA header's Kind before unmarshal runs.
	Router bool

	Metric uint32 // Low 24 bits significant.

	NetworkMask [4]byte // OSPFv2 Summary-LSA only.

	// OSPFv3 Inter-Area-Prefix-LSA fields.
	PrefixLength  uint8
	PrefixOptions PrefixOptions
	Prefix        []byte // Variable length, padded to a 4 byte boundary on the wire.

	// OSPFv3 Inter-Area-Router-LSA fields.
	Options           Options
	DestinationRouter ID
}

func (b *SummaryLSABody) kind() Kind {
	if b.Router {
		return KindSummaryASBR
	}
	return KindSummaryNetwork
}

func (b *SummaryLSABody) len(v Version) int {
	if v == Version3 {
		if b.Router {
			return 4 + 8
		}
		return 4 + prefixWireLen(int(b.PrefixLength))
	}
	return 4 + 4
}

func (b *SummaryLSABody) marshal(buf []byte, v Version) error {
	if len(buf) < b.len(v) {
		return fmt.Errorf("summary LSA body buffer too small: %w", ErrMarshal)
	}

	putMetric(buf[0:4], b.Metric)

	if v == Version3 {
		if b.Router {
			buf[4] = 0
			buf[5], buf[6], buf[7] = byte(b.Options>>16), byte(b.Options>>8), byte(b.Options)
			copy(buf[8:12], b.DestinationRouter[:])
			return nil
		}
		marshalPrefix(buf[4:], b.PrefixLength, b.PrefixOptions, 0, b.Prefix)
		return nil
	}

	copy(buf[4:8], b.NetworkMask[:])
	return nil
}

func (b *SummaryLSABody) unmarshal(buf []byte, v Version) error {
	if len(buf) < 8 {
		return fmt.Errorf("summary LSA body too short: %d bytes: %w", len(buf), ErrParse)
	}

	b.Metric = metric(buf[0:4])

	if v == Version3 {
		if b.Router {
			if len(buf) < 12 {
				return fmt.Errorf("inter-area-router LSA body too short: %d bytes: %w", len(buf), ErrParse)
			}
			b.Options = optionsV3(buf[4:8])
			copy(b.DestinationRouter[:], buf[8:12])
			return nil
		}

		plen, popt, _, prefix, err := parsePrefix(buf[4:])
		if err != nil {
			return err
		}
		b.PrefixLength, b.PrefixOptions, b.Prefix = plen, popt, prefix
		return nil
	}

	copy(b.NetworkMask[:], buf[4:8])
	return nil
}

// metric reads a 24 bit (OSPFv2) or 32 bit (OSPFv3) metric field, masking
// off the reserved high byte used by OSPFv2's TOS bit.
func metric(b []byte) uint32 {
	return binary.BigEndian.Uint32(b) & 0x00ffffff
}

func putMetric(b []byte, m uint32) {
	binary.BigEndian.PutUint32(b, m&0x00ffffff)
}
