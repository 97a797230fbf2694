package origin

import (
	"encoding/binary"
	"net"
	"time"

	"github.com/openospfd/ospfd/wire"
)

// Grace-LSA TLV types, RFC 3623 §2 / RFC 5187 §3.
const (
	tlvGracePeriod     = 1
	tlvRestartReason   = 2
	tlvInterfaceAddrV2 = 3
)

// A RestartReason is the RFC 3623 §2 restart-reason TLV value.
type RestartReason uint8

// Possible RestartReason values.
const (
	ReasonUnknown RestartReason = iota
	ReasonSoftwareRestart
	ReasonSoftwareUpgrade
	ReasonSwitchToRedundant
)

// GraceLSA builds a self-originated, link-scope Grace-LSA announcing a
// graceful-restart grace period on one interface, per §4.7. For OSPFv2 the
// body is carried in the generic Opaque-LSA mechanism (RFC 2370) with
// opaque type "Grace"; for OSPFv3 it uses the dedicated GraceLSA LSType
// (RFC 5187). Grounded on RFC 3623/5187's TLV layout; no pack repo
// implements opaque-LSA TLVs, so this is new code in the teacher's
// byte-slice-building idiom (cf. wire's marshal helpers).
func (b *Builder) GraceLSA(routerID wire.ID, linkStateID wire.ID, gracePeriod time.Duration, reason RestartReason, interfaceAddr net.IP, v wire.Version, now time.Time) (wire.LSAHeader, []byte, error) {
	var buf []byte
	buf = appendTLV(buf, tlvGracePeriod, encodeUint32(uint32(gracePeriod/time.Second)))
	buf = appendTLV(buf, tlvRestartReason, []byte{byte(reason), 0, 0, 0})
	if v == wire.Version2 && interfaceAddr != nil {
		if ip4 := interfaceAddr.To4(); ip4 != nil {
			buf = appendTLV(buf, tlvInterfaceAddrV2, ip4)
		}
	}

	kind := wire.KindOpaqueLink
	if v == wire.Version3 {
		kind = wire.KindGrace
	}

	id := wire.LSA{Type: kindTypeFor(kind, v), LinkStateID: linkStateID, AdvertisingRouter: routerID}
	body := &wire.OpaqueBody{K: kind, Raw: buf}

	return b.build(id, 0, body, v, now)
}

// kindTypeFor gives the wire LS type that GraceLSA puts in the identity it
// builds; it mirrors wire's own unexported kindType mapping for the two kinds
// this file uses. The link-state-id is used exactly as the caller passes it.
func kindTypeFor(k wire.Kind, v wire.Version) wire.LSType {
	if v == wire.Version3 {
		return wire.GraceLSA
	}
	return wire.OpaqueLinkLSAv2
}

func appendTLV(buf []byte, t uint16, v []byte) []byte {
	head := make([]byte, 4)
	binary.BigEndian.PutUint16(head[0:2], t)
	binary.BigEndian.PutUint16(head[2:4], uint16(len(v)))
	buf = append(buf, head...)
	buf = append(buf, v...)
	if pad := len(v) % 4; pad != 0 {
		buf = append(buf, make([]byte, 4-pad)...)
	}
	return buf
}

func encodeUint32(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}
