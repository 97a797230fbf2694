package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Version is an OSPF protocol version.
type Version uint8

// Supported Versions.
const (
	Version2 Version = 2 // OSPFv2, IPv4, RFC 2328.
	Version3 Version = 3 // OSPFv3, IPv6, RFC 5340.
)

func (v Version) String() string {
	switch v {
	case Version2:
		return "OSPFv2"
	case Version3:
		return "OSPFv3"
	default:
		return fmt.Sprintf("Version(%d)", uint8(v))
	}
}

// Fixed length structures. Some messages have no constant here because they
// only contain trailing variable length data.
const (
	headerLenV2 = 24 // version..authentication, RFC 2328 appendix A.3.1.
	headerLenV3 = 16 // version..instance ID, RFC 5340 appendix A.3.1.

	lsaLen       = 12
	lsaHeaderLen = 20

	helloLenV2 = 20 // No trailing array of neighbor IDs.
	helloLenV3 = 20 // No trailing array of neighbor IDs.

	ddLenV2 = 8 // No trailing array of LSA headers.
	ddLenV3 = 12
)

// Sentinel errors used to differentiate various types of errors in tests and
// by callers using errors.Is.
var (
	ErrMarshal = errors.New("wire: failed to marshal bytes")
	ErrParse   = errors.New("wire: failed to parse bytes")
)

// A PacketType is the type of an OSPF packet, shared between versions.
type PacketType uint8

// Possible OSPF packet types.
const (
	PacketHello                    PacketType = 1
	PacketDatabaseDescription      PacketType = 2
	PacketLinkStateRequest         PacketType = 3
	PacketLinkStateUpdate          PacketType = 4
	PacketLinkStateAcknowledgement PacketType = 5
)

func (t PacketType) String() string {
	switch t {
	case PacketHello:
		return "Hello"
	case PacketDatabaseDescription:
		return "DatabaseDescription"
	case PacketLinkStateRequest:
		return "LinkStateRequest"
	case PacketLinkStateUpdate:
		return "LinkStateUpdate"
	case PacketLinkStateAcknowledgement:
		return "LinkStateAcknowledgement"
	default:
		return fmt.Sprintf("PacketType(%d)", uint8(t))
	}
}

// An ID is a four byte identifier typically used for OSPF router and/or area
// IDs in a dotted-decimal IPv4-shaped format.
type ID [4]byte

func (id ID) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", id[0], id[1], id[2], id[3])
}

// IsZero reports whether id is the zero ID (used for "no DR"/"no BDR").
func (id ID) IsZero() bool {
	return id == ID{}
}

// AuthType is an OSPFv2 authentication type, carried in the packet header.
type AuthType uint16

// Possible AuthType values, RFC 2328 appendix D.3.
const (
	AuthNone   AuthType = 0
	AuthSimple AuthType = 1
	AuthMD5    AuthType = 2
)

// A Header is the OSPF packet header shared by every packet type. It carries
// both the OSPFv2 and OSPFv3 fields; only the fields relevant to Version are
// marshaled/parsed. Version, packet type, and packet length are computed
// automatically by MarshalMessage/ParseMessage and need not be set directly.
type Header struct {
	Version  Version
	RouterID ID
	AreaID   ID
	Checksum uint16

	// OSPFv2 authentication (ignored for OSPFv3).
	AuthType    AuthType
	AuthKeyID   uint8  // MD5 only.
	AuthDataLen uint8  // MD5 only: length of the trailing digest, normally 16.
	AuthSeq     uint32 // MD5 only: monotonically increasing sequence number.

	// OSPFv3 instance ID (ignored for OSPFv2).
	InstanceID uint8
}

// marshal packs a Header's bytes into b while also setting packet type and
// length. It assumes b has allocated enough space for a Header of the
// appropriate Version to avoid a panic.
func (h *Header) marshal(b []byte, ptyp PacketType, plen uint16) {
	switch h.Version {
	case Version3:
		b[0] = byte(Version3)
		b[1] = byte(ptyp)
		binary.BigEndian.PutUint16(b[2:4], plen)
		copy(b[4:8], h.RouterID[:])
		copy(b[8:12], h.AreaID[:])
		binary.BigEndian.PutUint16(b[12:14], h.Checksum)
		b[14] = h.InstanceID
		// b[15] is reserved.
	default:
		b[0] = byte(Version2)
		b[1] = byte(ptyp)
		binary.BigEndian.PutUint16(b[2:4], plen)
		copy(b[4:8], h.RouterID[:])
		copy(b[8:12], h.AreaID[:])
		binary.BigEndian.PutUint16(b[12:14], h.Checksum)
		binary.BigEndian.PutUint16(b[14:16], uint16(h.AuthType))
		// Authentication field, RFC 2328 appendix D.3: for MD5 this holds
		// reserved(2)+keyID(1)+authDataLen(1)+sequence(4); the 16 byte
		// digest itself trails the packet body and is handled by the auth
		// package, not this Header.
		b[16], b[17] = 0, 0
		if h.AuthType == AuthMD5 {
			b[18] = h.AuthKeyID
			b[19] = h.AuthDataLen
			binary.BigEndian.PutUint32(b[20:24], h.AuthSeq)
		} else {
			b[18], b[19], b[20], b[21], b[22], b[23] = 0, 0, 0, 0, 0, 0
		}
	}
}

// parseHeader parses an OSPF Header and the offset of the end of an OSPF
// packet from bytes.
func parseHeader(b []byte) (Header, PacketType, int, error) {
	if l := len(b); l < 4 {
		return Header{}, 0, 0, fmt.Errorf("not enough bytes for an OSPF header: %d: %w", l, ErrParse)
	}

	switch v := Version(b[0]); v {
	case Version2:
		return parseHeaderV2(b)
	case Version3:
		return parseHeaderV3(b)
	default:
		return Header{}, 0, 0, fmt.Errorf("unrecognized OSPF version: %d: %w", v, ErrParse)
	}
}

func parseHeaderV3(b []byte) (Header, PacketType, int, error) {
	if l := len(b); l < headerLenV3 {
		return Header{}, 0, 0, fmt.Errorf("not enough bytes for OSPFv3 header: %d: %w", l, ErrParse)
	}

	h := Header{
		Version:    Version3,
		Checksum:   binary.BigEndian.Uint16(b[12:14]),
		InstanceID: b[14],
		// b[15] is reserved.
	}
	copy(h.RouterID[:], b[4:8])
	copy(h.AreaID[:], b[8:12])

	plen := int(binary.BigEndian.Uint16(b[2:4]))
	if plen < headerLenV3 {
		return Header{}, 0, 0, fmt.Errorf("header packet length %d is too short for a valid packet: %w", plen, ErrParse)
	}
	if l := len(b); l < plen {
		return Header{}, 0, 0, fmt.Errorf("header packet length is %d bytes but only %d bytes are available: %w",
			plen, l, ErrParse)
	}

	return h, PacketType(b[1]), plen, nil
}

func parseHeaderV2(b []byte) (Header, PacketType, int, error) {
	if l := len(b); l < headerLenV2 {
		return Header{}, 0, 0, fmt.Errorf("not enough bytes for OSPFv2 header: %d: %w", l, ErrParse)
	}

	h := Header{
		Version:  Version2,
		Checksum: binary.BigEndian.Uint16(b[12:14]),
		AuthType: AuthType(binary.BigEndian.Uint16(b[14:16])),
	}
	copy(h.RouterID[:], b[4:8])
	copy(h.AreaID[:], b[8:12])

	if h.AuthType == AuthMD5 {
		h.AuthKeyID = b[18]
		h.AuthDataLen = b[19]
		h.AuthSeq = binary.BigEndian.Uint32(b[20:24])
	}

	plen := int(binary.BigEndian.Uint16(b[2:4]))
	if plen < headerLenV2 {
		return Header{}, 0, 0, fmt.Errorf("header packet length %d is too short for a valid packet: %w", plen, ErrParse)
	}
	if l := len(b); l < plen {
		return Header{}, 0, 0, fmt.Errorf("header packet length is %d bytes but only %d bytes are available: %w",
			plen, l, ErrParse)
	}

	return h, PacketType(b[1]), plen, nil
}

// headerLen returns the fixed header length for v.
func headerLen(v Version) int {
	if v == Version3 {
		return headerLenV3
	}
	return headerLenV2
}
