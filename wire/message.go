package wire

import (
	"encoding/binary"
	"fmt"
	"time"
)

// A Message is the version-independent body of an OSPF packet, following the
// common Header.
type Message interface {
	len(v Version) int
	marshal(b []byte, v Version) error
	unmarshal(b []byte, v Version) error
}

// MarshalMessage turns a Header and Message into OSPF packet bytes.
func MarshalMessage(h Header, m Message) ([]byte, error) {
	if m == nil {
		return nil, fmt.Errorf("wire: cannot marshal nil Message: %w", ErrMarshal)
	}

	ptyp, err := packetTypeOf(m)
	if err != nil {
		return nil, err
	}

	n := headerLen(h.Version)
	b := make([]byte, n+m.len(h.Version))
	h.marshal(b[:n], ptyp, uint16(len(b)))
	if err := m.marshal(b[n:], h.Version); err != nil {
		return nil, fmt.Errorf("wire: failed to marshal Message: %w", err)
	}

	return b, nil
}

func packetTypeOf(m Message) (PacketType, error) {
	switch m.(type) {
	case *Hello:
		return PacketHello, nil
	case *DatabaseDescription:
		return PacketDatabaseDescription, nil
	case *LinkStateRequest:
		return PacketLinkStateRequest, nil
	case *LinkStateUpdate:
		return PacketLinkStateUpdate, nil
	case *LinkStateAcknowledgement:
		return PacketLinkStateAcknowledgement, nil
	default:
		return 0, fmt.Errorf("wire: unrecognized Message type %T: %w", m, ErrMarshal)
	}
}

// ParseMessage parses an OSPF Header and trailing Message from bytes.
func ParseMessage(b []byte) (Header, Message, error) {
	h, ptyp, plen, err := parseHeader(b)
	if err != nil {
		return Header{}, nil, fmt.Errorf("wire: failed to parse Header: %w", err)
	}

	var m Message
	switch ptyp {
	case PacketHello:
		m = &Hello{}
	case PacketDatabaseDescription:
		m = &DatabaseDescription{}
	case PacketLinkStateRequest:
		m = &LinkStateRequest{}
	case PacketLinkStateUpdate:
		m = &LinkStateUpdate{}
	case PacketLinkStateAcknowledgement:
		m = &LinkStateAcknowledgement{}
	default:
		return Header{}, nil, fmt.Errorf("wire: parsing not implemented for message type %d: %w", ptyp, ErrParse)
	}

	n := headerLen(h.Version)
	if err := m.unmarshal(b[n:plen], h.Version); err != nil {
		return Header{}, nil, fmt.Errorf("wire: failed to parse Message: %w", err)
	}

	return h, m, nil
}

var _ Message = &Hello{}

// A Hello is an OSPF Hello message (RFC 2328 appendix A.3.2, RFC 5340
// appendix A.3.2).
type Hello struct {
	// InterfaceID is set for OSPFv3 only.
	InterfaceID uint32
	// NetworkMask is set for OSPFv2 only.
	NetworkMask              [4]byte
	RouterPriority           uint8
	Options                  Options
	HelloInterval            time.Duration
	RouterDeadInterval       time.Duration
	DesignatedRouterID       ID
	BackupDesignatedRouterID ID
	NeighborIDs              []ID
}

func (h *Hello) len(v Version) int {
	n := helloLenV3
	if v != Version3 {
		n = helloLenV2
	}
	return n + (4 * len(h.NeighborIDs))
}

func (h *Hello) marshal(b []byte, v Version) error {
	if !h.Options.valid() {
		return fmt.Errorf("Hello Options bitmask is not valid: %w", ErrMarshal)
	}

	var nn int
	if v == Version3 {
		binary.BigEndian.PutUint32(b[0:4], h.InterfaceID)
		// Router priority is 8 bits, Options is 24 bits immediately following.
		binary.BigEndian.PutUint32(b[4:8], uint32(h.RouterPriority)<<24|uint32(h.Options))
		putUint16Seconds(b[8:10], h.HelloInterval)
		putUint16Seconds(b[10:12], h.RouterDeadInterval)
		copy(b[12:16], h.DesignatedRouterID[:])
		copy(b[16:20], h.BackupDesignatedRouterID[:])
		nn = 20
	} else {
		copy(b[0:4], h.NetworkMask[:])
		putUint16Seconds(b[4:6], h.HelloInterval)
		b[6] = byte(h.Options)
		b[7] = h.RouterPriority
		putUint32Seconds(b[8:12], h.RouterDeadInterval)
		copy(b[12:16], h.DesignatedRouterID[:])
		copy(b[16:20], h.BackupDesignatedRouterID[:])
		nn = 20
	}

	for i := range h.NeighborIDs {
		copy(b[nn:nn+4], h.NeighborIDs[i][:])
		nn += 4
	}

	return nil
}

func (h *Hello) unmarshal(b []byte, v Version) error {
	minLen := helloLenV3
	if v != Version3 {
		minLen = helloLenV2
	}

	if l := len(b); l < minLen {
		return fmt.Errorf("not enough bytes for Hello: %d: %w", l, ErrParse)
	}
	if l := len(b); l%4 != 0 {
		return fmt.Errorf("Hello message must end on a 4 byte boundary, got %d bytes: %w", l, ErrParse)
	}

	if v == Version3 {
		h.InterfaceID = binary.BigEndian.Uint32(b[0:4])
		h.RouterPriority = b[4]
		h.Options = optionsV3(b[4:8])
		h.HelloInterval = uint16Seconds(b[8:10])
		h.RouterDeadInterval = uint16Seconds(b[10:12])
	} else {
		copy(h.NetworkMask[:], b[0:4])
		h.HelloInterval = uint16Seconds(b[4:6])
		h.Options = Options(b[6])
		h.RouterPriority = b[7]
		h.RouterDeadInterval = time.Duration(binary.BigEndian.Uint32(b[8:12])) * time.Second
	}
	copy(h.DesignatedRouterID[:], b[12:16])
	copy(h.BackupDesignatedRouterID[:], b[16:20])

	h.NeighborIDs = make([]ID, 0, len(b[minLen:])/4)
	for i := minLen; i < len(b); i += 4 {
		var id ID
		copy(id[:], b[i:i+4])
		h.NeighborIDs = append(h.NeighborIDs, id)
	}

	return nil
}

// putUint32Seconds stores d in b as big endian uint32 bytes, rounded to the
// nearest whole second (OSPFv2's RouterDeadInterval is 4 bytes, unlike
// OSPFv3's 2).
func putUint32Seconds(b []byte, d time.Duration) {
	binary.BigEndian.PutUint32(b, uint32(d.Round(time.Second).Seconds()))
}

// DDFlags are flags which may appear in a Database Description message
// (RFC 2328 appendix A.3.3, RFC 5340 appendix A.3.3).
type DDFlags uint16

// Possible DDFlags values.
const (
	MSBit DDFlags = 1 << 0
	MBit  DDFlags = 1 << 1
	IBit  DDFlags = 1 << 2
)

func (f DDFlags) String() string {
	return flagsString(uint(f), []string{"MS-bit", "M-bit", "I-bit"})
}

var _ Message = &DatabaseDescription{}

// A DatabaseDescription is a Database Description message.
type DatabaseDescription struct {
	Options        Options
	InterfaceMTU   uint16
	Flags          DDFlags
	SequenceNumber uint32
	LSAs           []LSAHeader
}

func (dd *DatabaseDescription) len(v Version) int {
	n := ddLenV3
	if v != Version3 {
		n = ddLenV2
	}
	return n + (lsaHeaderLen * len(dd.LSAs))
}

func (dd *DatabaseDescription) marshal(b []byte, v Version) error {
	if !dd.Options.valid() {
		return fmt.Errorf("DatabaseDescription Options bitmask is not valid: %w", ErrMarshal)
	}

	var lsaOff int
	if v == Version3 {
		binary.BigEndian.PutUint32(b[0:4], uint32(dd.Options))
		binary.BigEndian.PutUint16(b[4:6], dd.InterfaceMTU)
		// b[6] is reserved.
		b[7] = byte(dd.Flags)
		binary.BigEndian.PutUint32(b[8:12], dd.SequenceNumber)
		lsaOff = 12
	} else {
		binary.BigEndian.PutUint16(b[0:2], dd.InterfaceMTU)
		b[2] = byte(dd.Options)
		b[3] = byte(dd.Flags)
		binary.BigEndian.PutUint32(b[4:8], dd.SequenceNumber)
		lsaOff = 8
	}

	nn := lsaOff
	for i := range dd.LSAs {
		dd.LSAs[i].marshal(b[nn:nn+lsaHeaderLen], v)
		nn += lsaHeaderLen
	}

	return nil
}

func (dd *DatabaseDescription) unmarshal(b []byte, v Version) error {
	lsaOff := ddLenV3
	if v != Version3 {
		lsaOff = ddLenV2
	}

	if l := len(b); l < lsaOff {
		return fmt.Errorf("not enough bytes for DatabaseDescription: %d: %w", l, ErrParse)
	}

	if v == Version3 {
		dd.Options = optionsV3(b[0:4])
		dd.InterfaceMTU = binary.BigEndian.Uint16(b[4:6])
		dd.Flags = DDFlags(b[7])
		dd.SequenceNumber = binary.BigEndian.Uint32(b[8:12])
	} else {
		dd.InterfaceMTU = binary.BigEndian.Uint16(b[0:2])
		dd.Options = Options(b[2])
		dd.Flags = DDFlags(b[3])
		dd.SequenceNumber = binary.BigEndian.Uint32(b[4:8])
	}

	if l := len(b[lsaOff:]); l%lsaHeaderLen != 0 {
		return fmt.Errorf("DatabaseDescription message must end on a %d byte boundary for trailing LSA headers, got %d bytes: %w", lsaHeaderLen, l, ErrParse)
	}

	n := len(b[lsaOff:]) / lsaHeaderLen
	dd.LSAs = make([]LSAHeader, 0, n)
	for i := 0; i < n; i++ {
		start := lsaOff + (i * lsaHeaderLen)
		end := start + lsaHeaderLen
		dd.LSAs = append(dd.LSAs, parseLSAHeader(b[start:end], v))
	}

	return nil
}

var _ Message = &LinkStateRequest{}

// A LinkStateRequest is a Link State Request message.
type LinkStateRequest struct {
	LSAs []LSA
}

func (lsr *LinkStateRequest) len(Version) int {
	return lsaLen * len(lsr.LSAs)
}

func (lsr *LinkStateRequest) marshal(b []byte, v Version) error {
	nn := 0
	for i := range lsr.LSAs {
		lsr.LSAs[i].marshal(b[nn:nn+lsaLen], v)
		nn += lsaLen
	}
	return nil
}

func (lsr *LinkStateRequest) unmarshal(b []byte, v Version) error {
	if l := len(b); l%lsaLen != 0 {
		return fmt.Errorf("LinkStateRequest message must end on a %d byte boundary, got %d bytes: %w", lsaLen, l, ErrParse)
	}

	n := len(b) / lsaLen
	lsr.LSAs = make([]LSA, 0, n)
	for i := 0; i < n; i++ {
		start := i * lsaLen
		end := start + lsaLen
		lsr.LSAs = append(lsr.LSAs, parseLSA(b[start:end], v))
	}

	return nil
}

var _ Message = &LinkStateAcknowledgement{}

// A LinkStateAcknowledgement is a Link State Acknowledgement message.
type LinkStateAcknowledgement struct {
	LSAs []LSAHeader
}

func (lsa *LinkStateAcknowledgement) len(Version) int {
	return lsaHeaderLen * len(lsa.LSAs)
}

func (lsa *LinkStateAcknowledgement) marshal(b []byte, v Version) error {
	nn := 0
	for i := range lsa.LSAs {
		lsa.LSAs[i].marshal(b[nn:nn+lsaHeaderLen], v)
		nn += lsaHeaderLen
	}
	return nil
}

func (lsa *LinkStateAcknowledgement) unmarshal(b []byte, v Version) error {
	if l := len(b); l%lsaHeaderLen != 0 {
		return fmt.Errorf("LinkStateAcknowledgement message must end on a %d byte boundary, got %d bytes: %w", lsaHeaderLen, l, ErrParse)
	}

	n := len(b) / lsaHeaderLen
	lsa.LSAs = make([]LSAHeader, 0, n)
	for i := 0; i < n; i++ {
		start := i * lsaHeaderLen
		end := start + lsaHeaderLen
		lsa.LSAs = append(lsa.LSAs, parseLSAHeader(b[start:end], v))
	}

	return nil
}

var _ Message = &LinkStateUpdate{}

// A LinkStateUpdate is a Link State Update message carrying full LSAs
// (header plus body bytes). The teacher package's snapshot did not include
// this message type; it is added here per §4.4/§6.1 since flooding cannot
// function without it.
type LinkStateUpdate struct {
	LSAs []FullLSA
}

func (lsu *LinkStateUpdate) len(Version) int {
	n := 4 // LSA count field.
	for _, l := range lsu.LSAs {
		n += len(l.Raw)
	}
	return n
}

func (lsu *LinkStateUpdate) marshal(b []byte, v Version) error {
	binary.BigEndian.PutUint32(b[0:4], uint32(len(lsu.LSAs)))
	nn := 4
	for _, l := range lsu.LSAs {
		copy(b[nn:nn+len(l.Raw)], l.Raw)
		nn += len(l.Raw)
	}
	return nil
}

func (lsu *LinkStateUpdate) unmarshal(b []byte, v Version) error {
	if len(b) < 4 {
		return fmt.Errorf("not enough bytes for LinkStateUpdate count: %d: %w", len(b), ErrParse)
	}
	count := binary.BigEndian.Uint32(b[0:4])
	rest := b[4:]

	lsu.LSAs = make([]FullLSA, 0, count)
	for i := uint32(0); i < count; i++ {
		if len(rest) < lsaHeaderLen {
			return fmt.Errorf("not enough bytes for LSA %d header: %w", i, ErrParse)
		}
		h := parseLSAHeader(rest, v)
		if int(h.Length) > len(rest) || int(h.Length) < lsaHeaderLen {
			return fmt.Errorf("LSA %d has invalid length %d: %w", i, h.Length, ErrParse)
		}
		raw := make([]byte, h.Length)
		copy(raw, rest[:h.Length])
		lsu.LSAs = append(lsu.LSAs, FullLSA{Header: h, Raw: raw})
		rest = rest[h.Length:]
	}

	return nil
}
