// Package restart implements graceful (hitless) restart, §4.7: the
// restarting-side procedure of flooding Grace-LSAs and installing a
// remnant FIB, and the helper-side procedure of keeping a restarting
// neighbor's adjacency up across the outage.
package restart

import (
	"encoding/binary"
	"errors"
	"net"
	"time"

	"github.com/openospfd/ospfd/origin"
)

// ErrMalformedGrace reports a Grace-LSA whose TLVs could not be parsed.
var ErrMalformedGrace = errors.New("restart: malformed grace-lsa")

// Grace-LSA TLV types, RFC 3623 §2 / RFC 5187 §3, mirroring
// origin.GraceLSA's (unexported) encoder.
const (
	tlvGracePeriod     = 1
	tlvRestartReason   = 2
	tlvInterfaceAddrV2 = 3
)

// A GraceAnnouncement is a parsed Grace-LSA, read by either the helper
// side (on receipt from a neighbor) or the restarting side (to confirm
// its own announcement echoed back through the LSDB).
type GraceAnnouncement struct {
	GracePeriod   time.Duration
	Reason        origin.RestartReason
	InterfaceAddr net.IP // OSPFv2 only; zero for OSPFv3, which keys by interface ID out of band.
}

// ParseGrace decodes a Grace-LSA's opaque TLV payload (the Raw field of
// the wire.OpaqueBody origin.GraceLSA produces).
func ParseGrace(raw []byte) (GraceAnnouncement, error) {
	var g GraceAnnouncement
	for len(raw) >= 4 {
		t := binary.BigEndian.Uint16(raw[0:2])
		l := int(binary.BigEndian.Uint16(raw[2:4]))
		padded := l
		if rem := padded % 4; rem != 0 {
			padded += 4 - rem
		}
		if len(raw) < 4+padded {
			return GraceAnnouncement{}, ErrMalformedGrace
		}
		v := raw[4 : 4+l]

		switch t {
		case tlvGracePeriod:
			if len(v) < 4 {
				return GraceAnnouncement{}, ErrMalformedGrace
			}
			g.GracePeriod = time.Duration(binary.BigEndian.Uint32(v)) * time.Second
		case tlvRestartReason:
			if len(v) < 1 {
				return GraceAnnouncement{}, ErrMalformedGrace
			}
			g.Reason = origin.RestartReason(v[0])
		case tlvInterfaceAddrV2:
			if len(v) < 4 {
				return GraceAnnouncement{}, ErrMalformedGrace
			}
			g.InterfaceAddr = net.IP(append([]byte(nil), v[:4]...))
		}

		raw = raw[4+padded:]
	}
	return g, nil
}

// An AnnounceTracker follows the restarting side's own Grace-LSA flood on
// each interface: built, sent, and waiting on an ack before the restart
// can be considered under way on that interface.
type AnnounceTracker struct {
	pending map[uint32]bool // interface ID -> ack outstanding
}

// NewAnnounceTracker constructs a tracker for the given set of interfaces
// about to receive a Grace-LSA.
func NewAnnounceTracker(interfaceIDs []uint32) *AnnounceTracker {
	t := &AnnounceTracker{pending: make(map[uint32]bool, len(interfaceIDs))}
	for _, id := range interfaceIDs {
		t.pending[id] = true
	}
	return t
}

// Ack records that interfaceID acknowledged the Grace-LSA.
func (t *AnnounceTracker) Ack(interfaceID uint32) {
	delete(t.pending, interfaceID)
}

// Done reports whether every tracked interface has acked.
func (t *AnnounceTracker) Done() bool {
	return len(t.pending) == 0
}

// Pending returns the interfaces still awaiting an ack.
func (t *AnnounceTracker) Pending() []uint32 {
	out := make([]uint32, 0, len(t.pending))
	for id := range t.pending {
		out = append(out, id)
	}
	return out
}
