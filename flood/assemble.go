package flood

import (
	"time"

	"github.com/openospfd/ospfd/lsdb"
	"github.com/openospfd/ospfd/wire"
)

// packetOverhead is the OSPF common header size plus a safety margin left
// for the outer IP header, so MTU-greedy assembly never targets the raw
// link MTU exactly. The 16 is the OSPFv3 header length, used for both
// versions (the OSPFv2 header is 24 bytes), plus the margin the teacher's
// conn.go leaves for ipv4/ipv6 framing.
const packetOverhead = 16 + 40

// AssembleUpdates packs refs into one or more LinkStateUpdate messages, each
// no larger than mtu bytes including the OSPF header, per §4.4's "built
// greedily to MTU." An LSA header whose stored age has reached MaxAge is
// clamped to MaxAge on transmit regardless of its exact stored value.
func AssembleUpdates(refs []lsdb.Ref, mtu int) []*wire.LinkStateUpdate {
	budget := mtu - packetOverhead
	if budget <= 0 {
		budget = mtu
	}

	var (
		out  []*wire.LinkStateUpdate
		cur  *wire.LinkStateUpdate
		size int
	)

	flush := func() {
		if cur != nil {
			out = append(out, cur)
		}
		cur = nil
		size = 0
	}

	for _, r := range refs {
		raw := clampedRaw(r)
		if cur != nil && size+len(raw) > budget {
			flush()
		}
		if cur == nil {
			cur = &wire.LinkStateUpdate{}
		}
		cur.LSAs = append(cur.LSAs, wire.FullLSA{Header: r.Header(), Body: r.Body(), Raw: raw})
		size += len(raw)
	}
	flush()

	return out
}

// clampedRaw returns r's raw bytes, rewriting the age field to MaxAge if
// the header reports an age at or beyond MaxAge (§4.4's transmit clamp).
// The checksum is unaffected since the Age field is excluded from it.
func clampedRaw(r lsdb.Ref) []byte {
	raw := r.Raw()
	if r.Header().Age < wire.MaxAge {
		return raw
	}

	clamped := append([]byte(nil), raw...)
	age := uint16(wire.MaxAge / time.Second)
	clamped[0] = byte(age >> 8)
	clamped[1] = byte(age)
	return clamped
}

// AssembleRequests packs identities into one or more LinkStateRequest
// messages bounded by mtu.
func AssembleRequests(ids []wire.LSA, mtu int) []*wire.LinkStateRequest {
	const entryLen = 12
	budget := (mtu - packetOverhead) / entryLen
	if budget <= 0 {
		budget = 1
	}

	var out []*wire.LinkStateRequest
	for len(ids) > 0 {
		n := budget
		if n > len(ids) {
			n = len(ids)
		}
		out = append(out, &wire.LinkStateRequest{LSAs: append([]wire.LSA(nil), ids[:n]...)})
		ids = ids[n:]
	}
	return out
}

// AssembleAcks packs headers into one or more LinkStateAcknowledgement
// messages bounded by mtu.
func AssembleAcks(headers []wire.LSAHeader, mtu int) []*wire.LinkStateAcknowledgement {
	const entryLen = 20
	budget := (mtu - packetOverhead) / entryLen
	if budget <= 0 {
		budget = 1
	}

	var out []*wire.LinkStateAcknowledgement
	for len(headers) > 0 {
		n := budget
		if n > len(headers) {
			n = len(headers)
		}
		out = append(out, &wire.LinkStateAcknowledgement{LSAs: append([]wire.LSAHeader(nil), headers[:n]...)})
		headers = headers[n:]
	}
	return out
}
