package wire

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var (
	bufTrailing = []byte{0xff, 0xff, 0xff, 0xff}

	hdrCommon = Header{
		Version:    Version3,
		RouterID:   ID{192, 0, 2, 1},
		InstanceID: 1,
	}

	bufHeaderCommon = []byte{
		192, 0, 2, 1, // Router ID
		0, 0, 0, 0, // Area ID
		0x00, 0x00, // Checksum
		0x01, // InstanceID
		0x00, // Reserved
	}

	bufRouterLSA = []byte{
		byte(RouterLSA >> 8), byte(RouterLSA & 0x00ff), // Type
		0, 0, 0, 0, // Link state ID
		192, 0, 2, 1, // Advertising router
	}

	bufLinkLSA = []byte{
		byte(LinkLSA >> 8), byte(LinkLSA & 0x00ff), // Type
		0, 0, 0, 5, // Link state ID
		192, 0, 2, 1, // Advertising router
	}

	bufRouterLSAHeader = merge(
		[]byte{0x00, 0x01}, // Age
		bufRouterLSA,
		[]byte{
			0x00, 0x00, 0x00, 0xff, // Sequence number
			0x00, 0x00, // Checksum
			0x00, lsaHeaderLen, // Length
		},
	)

	bufLinkLSAHeader = merge(
		[]byte{0x00, 0x02}, // Age
		bufLinkLSA,
		[]byte{
			0x00, 0x00, 0x01, 0xff, // Sequence number
			0x00, 0x00, // Checksum
			0x00, lsaHeaderLen, // Length
		},
	)

	bufHello = merge(
		[]byte{
			byte(Version3), byte(PacketHello),
			0x00, 44, // PacketLength
		},
		bufHeaderCommon,
		[]byte{
			0x00, 0x00, 0x00, 0x01, // Interface ID
			0x01,                                 // Router priority
			0x00, 0x00, byte(V6Bit) | byte(EBit), // Options
			0x00, 0x05, // Hello interval
			0x00, 0x0a, // Router dead interval
			192, 0, 2, 1, // Designated router ID
			192, 0, 2, 2, // Backup designated router ID
			192, 0, 2, 2, // Neighbor ID
			192, 0, 2, 3, // Neighbor ID
		},
		bufTrailing,
	)

	msgHello = &Hello{
		InterfaceID:              1,
		RouterPriority:           1,
		Options:                  V6Bit | EBit,
		HelloInterval:            5 * time.Second,
		RouterDeadInterval:       10 * time.Second,
		DesignatedRouterID:       ID{192, 0, 2, 1},
		BackupDesignatedRouterID: ID{192, 0, 2, 2},
		NeighborIDs: []ID{
			{192, 0, 2, 2},
			{192, 0, 2, 3},
		},
	}

	bufDatabaseDescription = merge(
		[]byte{
			byte(Version3), byte(PacketDatabaseDescription),
			0x00, 68, // PacketLength
		},
		bufHeaderCommon,
		[]byte{
			0x00, 0x00, 0x01, byte(V6Bit) | byte(EBit) | byte(RBit), // Options (includes AFBit, bit 8)
			0x05, 0xdc, // Interface MTU
			0x00,                    // Reserved
			byte(IBit) | byte(MBit), // Flags
			0x00, 0x00, 0x00, 0x01,  // Sequence number
		},
		bufRouterLSAHeader,
		bufLinkLSAHeader,
		bufTrailing,
	)

	msgDatabaseDescription = &DatabaseDescription{
		Options:        V6Bit | EBit | RBit | AFBit,
		InterfaceMTU:   1500,
		Flags:          IBit | MBit,
		SequenceNumber: 1,
		LSAs: []LSAHeader{
			{
				Age:            1 * time.Second,
				LSA:            LSA{Type: RouterLSA, AdvertisingRouter: ID{192, 0, 2, 1}},
				SequenceNumber: 255,
				Length:         20,
			},
			{
				Age:            2 * time.Second,
				LSA:            LSA{Type: LinkLSA, LinkStateID: ID{0, 0, 0, 5}, AdvertisingRouter: ID{192, 0, 2, 1}},
				SequenceNumber: 511,
				Length:         20,
			},
		},
	}

	bufLinkStateRequest = merge(
		[]byte{
			byte(Version3), byte(PacketLinkStateRequest),
			0x00, 40, // PacketLength
		},
		bufHeaderCommon,
		[]byte{0x00, 0x00},
		bufRouterLSA,
		[]byte{0x00, 0x00},
		bufLinkLSA,
		bufTrailing,
	)

	msgLinkStateRequest = &LinkStateRequest{
		LSAs: []LSA{
			{Type: RouterLSA, AdvertisingRouter: ID{192, 0, 2, 1}},
			{Type: LinkLSA, LinkStateID: ID{0, 0, 0, 5}, AdvertisingRouter: ID{192, 0, 2, 1}},
		},
	}

	bufLinkStateAcknowledgement = merge(
		[]byte{
			byte(Version3), byte(PacketLinkStateAcknowledgement),
			0x00, 56, // PacketLength
		},
		bufHeaderCommon,
		bufRouterLSAHeader,
		bufLinkLSAHeader,
		bufTrailing,
	)

	msgLinkStateAcknowledgement = &LinkStateAcknowledgement{
		LSAs: []LSAHeader{
			{
				Age:            1 * time.Second,
				LSA:            LSA{Type: RouterLSA, AdvertisingRouter: ID{192, 0, 2, 1}},
				SequenceNumber: 255,
				Length:         20,
			},
			{
				Age:            2 * time.Second,
				LSA:            LSA{Type: LinkLSA, LinkStateID: ID{0, 0, 0, 5}, AdvertisingRouter: ID{192, 0, 2, 1}},
				SequenceNumber: 511,
				Length:         20,
			},
		},
	}
)

func merge(bs ...[]byte) []byte {
	var out []byte
	for _, b := range bs {
		out = append(out, b...)
	}
	return out
}

func TestParseMessageErrors(t *testing.T) {
	tests := []struct {
		name string
		b    []byte
	}{
		{name: "empty"},
		{
			name: "unknown message type",
			b:    append([]byte{byte(Version3), 0xff}, bytes.Repeat([]byte{0x00}, 14)...),
		},
		{
			name: "short header",
			b: []byte{
				byte(Version3), byte(PacketHello),
				0x00, 0x00, // Zero length
				0x00, 0x00,
				192, 0, 2, 1,
				0, 0, 0, 0,
				0x01,
				0x00,
			},
		},
		{
			name: "bad packet length",
			b: []byte{
				byte(Version3), byte(PacketHello),
				0xff, 0xff, // Max length
				0x00, 0x00,
				192, 0, 2, 1,
				0, 0, 0, 0,
				0x01,
				0x00,
			},
		},
		{
			name: "short hello",
			b: []byte{
				byte(Version3), byte(PacketHello),
				0x00, 17, // Header + 1 trailing byte
				0x00, 0x00,
				192, 0, 2, 1,
				0, 0, 0, 0,
				0x01,
				0x00,
				0xff, // Truncated Hello
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseMessage(tt.b)
			if diff := cmp.Diff(ErrParse, err, cmpopts.EquateErrors()); diff != "" {
				t.Fatalf("unexpected error (-want +got):\n%s", diff)
			}

			t.Logf("err: %v", err)
		})
	}
}

func TestMarshalMessageErrors(t *testing.T) {
	tests := []struct {
		name string
		h    Header
		m    Message
	}{
		{name: "untyped nil", h: Header{Version: Version3}},
		{
			name: "Hello Options",
			h:    Header{Version: Version3},
			m:    &Hello{Options: 0xf0000000 | V6Bit},
		},
		{
			name: "DatabaseDescription Options",
			h:    Header{Version: Version3},
			m:    &DatabaseDescription{Options: 0xf0000000 | V6Bit},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MarshalMessage(tt.h, tt.m)
			if diff := cmp.Diff(ErrMarshal, err, cmpopts.EquateErrors()); diff != "" {
				t.Fatalf("unexpected error (-want +got):\n%s", diff)
			}

			t.Logf("err: %v", err)
		})
	}
}

func TestMessageRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		b    []byte
		m    Message
	}{
		{name: "hello", b: bufHello, m: msgHello},
		{name: "database description", b: bufDatabaseDescription, m: msgDatabaseDescription},
		{name: "link state request", b: bufLinkStateRequest, m: msgLinkStateRequest},
		{name: "link state acknowledgement", b: bufLinkStateAcknowledgement, m: msgLinkStateAcknowledgement},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h1, m1, err := ParseMessage(tt.b)
			if err != nil {
				t.Fatalf("failed to parse first Message: %v", err)
			}

			if diff := cmp.Diff(hdrCommon, h1); diff != "" {
				t.Fatalf("unexpected initial Header (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.m, m1); diff != "" {
				t.Fatalf("unexpected initial Message (-want +got):\n%s", diff)
			}

			b, err := MarshalMessage(h1, m1)
			if err != nil {
				t.Fatalf("failed to marshal: %v", err)
			}

			if diff := cmp.Diff(tt.b[:len(b)], b); diff != "" {
				t.Fatalf("unexpected bytes (-want +got):\n%s", diff)
			}

			h2, m2, err := ParseMessage(b)
			if err != nil {
				t.Fatalf("failed to parse second Message: %v", err)
			}

			if diff := cmp.Diff(h1, h2); diff != "" {
				t.Fatalf("unexpected final Header (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(m1, m2); diff != "" {
				t.Fatalf("unexpected final Message (-want +got):\n%s", diff)
			}
		})
	}
}

func Test_flagsString(t *testing.T) {
	tests := []struct {
		name  string
		f     uint
		names []string
		s     string
	}{
		{name: "empty", f: 1, s: "0x1"},
		{
			name:  "known",
			f:     1<<0 | 1<<1 | 1<<2,
			names: []string{"A", "B", "C"},
			s:     "A|B|C",
		},
		{
			name:  "unknown",
			f:     1<<1 | 1<<3 | 1<<10,
			names: []string{"foo", "bar", "baz", "qux"},
			s:     "bar|qux|0x400",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.s, flagsString(tt.f, tt.names)); diff != "" {
				t.Fatalf("unexpected string (-want +got):\n%s", diff)
			}
		})
	}
}

func BenchmarkMarshalMessage(b *testing.B) {
	tests := []struct {
		name string
		m    Message
	}{
		{name: "hello", m: msgHello},
		{name: "database description", m: msgDatabaseDescription},
		{name: "link state request", m: msgLinkStateRequest},
		{name: "link state acknowledgement", m: msgLinkStateAcknowledgement},
	}

	h := hdrCommon
	for _, tt := range tests {
		b.Run(tt.name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := MarshalMessage(h, tt.m); err != nil {
					b.Fatalf("failed to marshal: %v", err)
				}
			}
		})
	}
}

func BenchmarkParseMessage(b *testing.B) {
	tests := []struct {
		name string
		b    []byte
	}{
		{name: "hello", b: bufHello},
		{name: "database description", b: bufDatabaseDescription},
		{name: "link state request", b: bufLinkStateRequest},
		{name: "link state acknowledgement", b: bufLinkStateAcknowledgement},
	}

	for _, tt := range tests {
		b.Run(tt.name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, _, err := ParseMessage(tt.b); err != nil {
					b.Fatalf("failed to parse: %v", err)
				}
			}
		})
	}
}
