package wire

import (
	"encoding/binary"
	"fmt"
	"time"
)

// InitialSequenceNumber is the first sequence number used for a newly
// originated LSA, per spec.
const InitialSequenceNumber int32 = -0x7fffffff // 0x80000001 as a signed int32.

// MaxSequenceNumber is the terminal sequence number; an LSA holding it must
// be flushed (aged to MaxAge) before a new instance may reuse
// InitialSequenceNumber.
const MaxSequenceNumber int32 = 0x7fffffff

// MaxAge is the age, in seconds, at which an LSA is considered terminal and
// must be flushed from the database once every neighbor has acknowledged it.
const MaxAge = 3600 * time.Second

// MaxAgeDiff is the minimum age difference, per the instance comparison rule,
// above which the LSA with the smaller age is considered newer regardless of
// sequence number or checksum.
const MaxAgeDiff = 15 * time.Minute

// MinLSInterval is the minimum time between two originations of the same
// self-originated LSA.
const MinLSInterval = 5 * time.Second

// MinLSArrival is the minimum time between two installations of the same LSA
// identity received from the network.
const MinLSArrival = 1 * time.Second

// LSRefreshTime is the interval at which a self-originated LSA is refreshed
// even if nothing about it changed.
const LSRefreshTime = 1800 * time.Second

// doNotAgeBit is the high bit of the wire Age field (RFC 2328bis / demand
// circuit extensions) indicating the LSA is exempt from aging.
const doNotAgeBit = 1 << 15

// An LSType is the 16-bit wire representation of an LSA's type. For OSPFv2
// the low byte carries the RFC 2328/1587/5250 type code (1-11) and the high
// byte is always zero; for OSPFv3 the full 16 bits follow RFC 5340 appendix
// A.4.2.1's U/S2/S1/function-code layout (mirroring the teacher package's
// original OSPFv3-only LSType).
type LSType uint16

// Possible OSPFv3 LSType values (RFC 5340 appendix A.4.2.1).
const (
	RouterLSA          LSType = 0x2001
	NetworkLSA         LSType = 0x2002
	InterAreaPrefixLSA LSType = 0x2003
	InterAreaRouterLSA LSType = 0x2004
	ASExternalLSA      LSType = 0x4005
	groupMembershipLSA LSType = 0x2006 // Deprecated MOSPF carryover.
	NSSALSA            LSType = 0x2007
	LinkLSA            LSType = 0x0008
	IntraAreaPrefixLSA LSType = 0x2009
	GraceLSA           LSType = 0x800b // RFC 5187: U-bit set, link-local scope, function code 11.
)

// Possible OSPFv2 LSType values (RFC 2328 appendix A.4.1, RFC 1587, RFC 5250).
const (
	RouterLSAv2             LSType = 1
	NetworkLSAv2            LSType = 2
	SummaryNetworkLSAv2     LSType = 3
	SummaryASBRLSAv2        LSType = 4
	ASExternalLSAv2         LSType = 5
	GroupMembershipLSAv2    LSType = 6
	NSSALSAv2               LSType = 7
	OpaqueLinkLSAv2         LSType = 9
	OpaqueAreaLSAv2         LSType = 10
	OpaqueASLSAv2           LSType = 11
)

// LSAHandling returns the value of the U-bit in an OSPFv3 LSType. False
// indicates the LSA should be treated as if it had link-local flooding
// scope when unrecognized. True indicates a router should store and flood
// the LSA as if the type were understood (§4.2, I11) even without being
// able to interpret its body.
func (t LSType) LSAHandling() bool {
	return (t & 0xf000) != 0
}

// FloodingScope returns the LSA flooding scope encoded in an OSPFv3 LSType's
// S1/S2 bits (RFC 5340 appendix A.4.2.1). For OSPFv2 types, use Kind(Version2
// ).FloodingScope instead, since OSPFv2 encodes scope by type number alone.
func (t LSType) FloodingScope() FloodingScope {
	return FloodingScope((t & 0x6000) >> 13)
}

// A FloodingScope is the flooding reach of an LSA, per §4.4.
type FloodingScope uint8

// Possible FloodingScope values.
const (
	LinkScoping FloodingScope = iota
	AreaScoping
	ASScoping
	reservedScoping
)

// A Kind is a version-independent classification of an LSA's function,
// letting lsdb/origin/flood/spf switch on "what this LSA is" without caring
// whether it arrived as an OSPFv2 numeric type or an OSPFv3 hybrid type.
type Kind uint8

// Possible Kind values.
const (
	KindUnknown Kind = iota
	KindRouter
	KindNetwork
	KindSummaryNetwork // Summary-LSA (v2) / Inter-Area-Prefix-LSA (v3).
	KindSummaryASBR    // ASBR-Summary-LSA (v2) / Inter-Area-Router-LSA (v3).
	KindASExternal
	KindNSSAExternal
	KindGroupMembership
	KindOpaqueLink
	KindOpaqueArea
	KindOpaqueAS
	KindLink            // OSPFv3 only.
	KindIntraAreaPrefix // OSPFv3 only.
	KindGrace           // Opaque link-scope LSA carrying graceful-restart TLVs, both versions.
)

func (k Kind) String() string {
	switch k {
	case KindRouter:
		return "Router"
	case KindNetwork:
		return "Network"
	case KindSummaryNetwork:
		return "SummaryNetwork"
	case KindSummaryASBR:
		return "SummaryASBR"
	case KindASExternal:
		return "ASExternal"
	case KindNSSAExternal:
		return "NSSAExternal"
	case KindGroupMembership:
		return "GroupMembership"
	case KindOpaqueLink:
		return "OpaqueLink"
	case KindOpaqueArea:
		return "OpaqueArea"
	case KindOpaqueAS:
		return "OpaqueAS"
	case KindLink:
		return "Link"
	case KindIntraAreaPrefix:
		return "IntraAreaPrefix"
	case KindGrace:
		return "Grace"
	default:
		return "Unknown"
	}
}

// Kind classifies t for the given protocol Version.
func (t LSType) Kind(v Version) Kind {
	if v == Version3 {
		switch t {
		case RouterLSA:
			return KindRouter
		case NetworkLSA:
			return KindNetwork
		case InterAreaPrefixLSA:
			return KindSummaryNetwork
		case InterAreaRouterLSA:
			return KindSummaryASBR
		case ASExternalLSA:
			return KindASExternal
		case NSSALSA:
			return KindNSSAExternal
		case groupMembershipLSA:
			return KindGroupMembership
		case LinkLSA:
			return KindLink
		case IntraAreaPrefixLSA:
			return KindIntraAreaPrefix
		case GraceLSA:
			return KindGrace
		default:
			return KindUnknown
		}
	}

	switch t {
	case RouterLSAv2:
		return KindRouter
	case NetworkLSAv2:
		return KindNetwork
	case SummaryNetworkLSAv2:
		return KindSummaryNetwork
	case SummaryASBRLSAv2:
		return KindSummaryASBR
	case ASExternalLSAv2:
		return KindASExternal
	case NSSALSAv2:
		return KindNSSAExternal
	case GroupMembershipLSAv2:
		return KindGroupMembership
	case OpaqueLinkLSAv2:
		return KindOpaqueLink
	case OpaqueAreaLSAv2:
		return KindOpaqueArea
	case OpaqueASLSAv2:
		return KindOpaqueAS
	default:
		return KindUnknown
	}
}

// Scope returns the flooding scope (§4.4) of an LSA of Kind k under Version
// v.
func (k Kind) Scope(v Version) FloodingScope {
	switch k {
	case KindLink, KindOpaqueLink, KindGrace:
		return LinkScoping
	case KindASExternal, KindNSSAExternal, KindOpaqueAS:
		// Type-7 is area-scoped in the sense that it stays within the NSSA,
		// but flooding treats it like an area-scoped LSA with a special
		// destination area set rather than "every non-stub area"; callers in
		// package flood special-case KindNSSAExternal accordingly.
		if k == KindNSSAExternal {
			return AreaScoping
		}
		return ASScoping
	default:
		return AreaScoping
	}
}

// Options is a bitmask of OSPF options, RFC 2328 appendix A.2 (8 bits) or
// RFC 5340 appendix A.2 (24 bits); the low bits are shared between versions.
type Options uint32

// Possible Options bits (RFC 5340 appendix A.2 numbering; the low 7 bits
// match RFC 2328 appendix A.2 for OSPFv2).
const (
	V6Bit    Options = 1 << 0
	EBit     Options = 1 << 1
	MCBit    Options = 1 << 2 // x-bit in OSPFv3; MC-bit (multicast) in OSPFv2.
	NBit     Options = 1 << 3 // NP-bit: NSSA propagate.
	RBit     Options = 1 << 4
	DCBit    Options = 1 << 5
	star1Bit Options = 1 << 6
	star2Bit Options = 1 << 7
	AFBit    Options = 1 << 8
	LBit     Options = 1 << 9
	ATBit    Options = 1 << 10
)

// optionsV3 parses a 32-bit buffer as OSPFv3 Options (24 significant bits).
func optionsV3(b []byte) Options {
	return Options(binary.BigEndian.Uint32(b) & 0x00ffffff)
}

// valid checks if the Options bitmask only has bits set in the lower 24
// bits of the backing uint32.
func (o Options) valid() bool { return (o & 0xff000000) == 0 }

func (o Options) String() string {
	return flagsString(uint(o), []string{
		"V6-bit", "E-bit", "MC/x-bit", "N/P-bit", "R-bit", "DC-bit",
		"*-bit", "*-bit", "AF-bit", "L-bit", "AT-bit",
	})
}

// An LSA is the version-independent identity triple of a Link State
// Advertisement: (type, link-state-id, advertising-router), per §3.1. Options
// only applies to the OSPFv2 LSA header encoding and is ignored for OSPFv3.
type LSA struct {
	Type              LSType
	Options           Options
	LinkStateID       ID
	AdvertisingRouter ID
}

// marshal packs an LSA identity's bytes into b for use in an LS-Request
// entry: 4 bytes of type (only the low bits significant, the rest reserved)
// plus the 8 byte LinkStateID/AdvertisingRouter pair (lsaLen total). It
// assumes b has allocated enough space to avoid a panic.
func (l LSA) marshal(b []byte, v Version) {
	if v == Version3 {
		binary.BigEndian.PutUint16(b[2:4], uint16(l.Type))
	} else {
		binary.BigEndian.PutUint32(b[0:4], uint32(l.Type))
	}
	copy(b[4:8], l.LinkStateID[:])
	copy(b[8:12], l.AdvertisingRouter[:])
}

// parseLSA unpacks an LSA identity from an LS-Request entry.
func parseLSA(b []byte, v Version) LSA {
	var l LSA
	if v == Version3 {
		l.Type = LSType(binary.BigEndian.Uint16(b[2:4]))
	} else {
		l.Type = LSType(binary.BigEndian.Uint32(b[0:4]))
	}
	copy(l.LinkStateID[:], b[4:8])
	copy(l.AdvertisingRouter[:], b[8:12])
	return l
}

// An LSAHeader is an LSA header as described in §3.1/§6.1: the identity
// triple plus the instance triple (sequence, age, checksum) and the wire
// length of the full LSA (header + body).
type LSAHeader struct {
	Age            time.Duration
	DoNotAge       bool
	LSA            LSA
	SequenceNumber int32
	Checksum       uint16
	Length         uint16
}

// marshal stores the LSAHeader bytes into b. It assumes b has allocated
// enough space (lsaHeaderLen) for an LSAHeader to avoid a panic.
func (h LSAHeader) marshal(b []byte, v Version) {
	age := uint16(h.Age.Round(time.Second).Seconds())
	if age > 0x7fff {
		age = 0x7fff
	}
	if h.DoNotAge {
		age |= doNotAgeBit
	}
	binary.BigEndian.PutUint16(b[0:2], age)

	if v == Version3 {
		binary.BigEndian.PutUint16(b[2:4], uint16(h.LSA.Type))
		copy(b[4:8], h.LSA.LinkStateID[:])
		copy(b[8:12], h.LSA.AdvertisingRouter[:])
	} else {
		b[2] = byte(h.LSA.Options)
		b[3] = byte(h.LSA.Type)
		copy(b[4:8], h.LSA.LinkStateID[:])
		copy(b[8:12], h.LSA.AdvertisingRouter[:])
	}

	binary.BigEndian.PutUint32(b[12:16], uint32(h.SequenceNumber))
	binary.BigEndian.PutUint16(b[16:18], h.Checksum)
	binary.BigEndian.PutUint16(b[18:20], h.Length)
}

// parseLSAHeader unpacks an LSAHeader from a byte slice.
func parseLSAHeader(b []byte, v Version) LSAHeader {
	raw := binary.BigEndian.Uint16(b[0:2])
	h := LSAHeader{
		Age:            time.Duration(raw&^doNotAgeBit) * time.Second,
		DoNotAge:       raw&doNotAgeBit != 0,
		SequenceNumber: int32(binary.BigEndian.Uint32(b[12:16])),
		Checksum:       binary.BigEndian.Uint16(b[16:18]),
		Length:         binary.BigEndian.Uint16(b[18:20]),
	}

	if v == Version3 {
		h.LSA.Type = LSType(binary.BigEndian.Uint16(b[2:4]))
	} else {
		h.LSA.Options = Options(b[2])
		h.LSA.Type = LSType(b[3])
	}
	copy(h.LSA.LinkStateID[:], b[4:8])
	copy(h.LSA.AdvertisingRouter[:], b[8:12])

	return h
}

// Identity reports the (type, link-state-id, advertising-router) triple
// used as an LSDB map key, per I2.
func (h LSAHeader) Identity() LSA {
	return LSA{Type: h.LSA.Type, LinkStateID: h.LSA.LinkStateID, AdvertisingRouter: h.LSA.AdvertisingRouter}
}

func (h LSAHeader) String() string {
	return fmt.Sprintf("%s lsid=%s adv=%s seq=%#x age=%s",
		h.LSA.Type, h.LSA.LinkStateID, h.LSA.AdvertisingRouter, uint32(h.SequenceNumber), h.Age)
}

// uint16Seconds interprets big endian uint16 bytes as a number of seconds.
func uint16Seconds(b []byte) time.Duration {
	return time.Duration(binary.BigEndian.Uint16(b)) * time.Second
}

// putUint16Seconds stores d in b as big endian uint16 bytes, rounded to the
// nearest whole second.
func putUint16Seconds(b []byte, d time.Duration) {
	binary.BigEndian.PutUint16(b, uint16(d.Round(time.Second).Seconds()))
}

// flagsString generates a pretty-printed flags bitmask using the input value
// and sequence of names.
func flagsString(f uint, names []string) string {
	var s string
	left := f
	for i, name := range names {
		if f&(1<<uint(i)) != 0 {
			if s != "" {
				s += "|"
			}

			s += name

			left ^= (1 << uint(i))
		}
	}

	if s == "" && left == 0 {
		s = "0"
	}

	if left > 0 {
		if s != "" {
			s += "|"
		}
		s += fmt.Sprintf("%#x", left)
	}

	return s
}
