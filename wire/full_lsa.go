package wire

import "fmt"

// A Body is a parsed LSA body. Each LSA type in package wire implements
// Body so that lsdb/origin/flood/spf can walk the decoded fields they need
// (§3.1: "Opaque body bytes plus decoded fields for LSAs the SPF needs to
// walk") without re-parsing raw bytes.
type Body interface {
	// kind identifies which concrete LSA type this Body decodes, so Build
	// can select the right LSType for the wire.
	kind() Kind
	marshal(b []byte, v Version) error
	unmarshal(b []byte, v Version) error
	// len returns the wire length of the body only (excluding the 20 byte
	// LSA header).
	len(v Version) int
}

// OpaqueBody is used for LSA types this router does not understand the
// body of but must still store and flood per I11 ("treat opaque").
type OpaqueBody struct {
	K   Kind
	Raw []byte
}

func (o *OpaqueBody) kind() Kind { return o.K }
func (o *OpaqueBody) len(Version) int { return len(o.Raw) }
func (o *OpaqueBody) marshal(b []byte, v Version) error {
	copy(b, o.Raw)
	return nil
}
func (o *OpaqueBody) unmarshal(b []byte, v Version) error {
	o.Raw = append([]byte(nil), b...)
	return nil
}

// A FullLSA is a complete LSA: its header, parsed body, and the single owned
// wire-format byte vector for it (Design Note §9: "retain a single owned
// byte vector per LSA alongside the parsed view" rather than attempting
// zero-copy builds).
type FullLSA struct {
	Header LSAHeader
	Body   Body
	Raw    []byte
}

// ParseLSA parses a complete wire-format LSA (20 byte header plus body),
// validating its length and Fletcher checksum, per C1's parse operation.
// An LSA whose type is unrecognized is still accepted with an OpaqueBody,
// per I11, whatever its age.
func ParseLSA(raw []byte, v Version) (FullLSA, error) {
	if len(raw) < lsaHeaderLen {
		return FullLSA{}, fmt.Errorf("LSA too short: %d bytes: %w", len(raw), ErrParse)
	}

	h := parseLSAHeader(raw, v)
	if int(h.Length) != len(raw) {
		return FullLSA{}, fmt.Errorf("LSA length field %d does not match %d available bytes: %w", h.Length, len(raw), ErrParse)
	}

	if !h.DoNotAge {
		if err := verifyChecksum(raw); err != nil {
			return FullLSA{}, err
		}
	}

	kind := h.LSA.Type.Kind(v)
	body, err := newBody(kind)
	if err != nil {
		// Unknown type: keep it opaque rather than rejecting it, per I11;
		// the age is not checked here.
		body = &OpaqueBody{K: KindUnknown}
	}

	if err := body.unmarshal(raw[lsaHeaderLen:], v); err != nil {
		return FullLSA{}, fmt.Errorf("failed to parse %s LSA body: %w", kind, err)
	}

	return FullLSA{Header: h, Body: body, Raw: append([]byte(nil), raw...)}, nil
}

func newBody(k Kind) (Body, error) {
	switch k {
	case KindRouter:
		return &RouterLSABody{}, nil
	case KindNetwork:
		return &NetworkLSABody{}, nil
	case KindSummaryNetwork:
		return &SummaryLSABody{}, nil
	case KindSummaryASBR:
		return &SummaryLSABody{Router: true}, nil
	case KindASExternal:
		return &ExternalLSABody{}, nil
	case KindNSSAExternal:
		return &ExternalLSABody{NSSA: true}, nil
	case KindLink:
		return &LinkLSABody{}, nil
	case KindIntraAreaPrefix:
		return &IntraAreaPrefixLSABody{}, nil
	case KindGrace:
		return &OpaqueBody{K: KindGrace}, nil
	default:
		return nil, fmt.Errorf("unrecognized LSA kind %s: %w", k, ErrParse)
	}
}

// A Builder assembles wire-format LSAs into a router-wide scratch buffer
// that grows monotonically, per C1: "uses a router-wide scratch buffer that
// grows monotonically; not reentrant." The returned byte slice aliases the
// Builder's internal buffer and is only valid until the next call to Build;
// callers that need to retain it (origin does, into FullLSA.Raw) must copy
// it before yielding control, per §5 ("any handler using it must not yield
// before consuming it").
type Builder struct {
	buf []byte
}

// Build marshals h and body into the Builder's scratch buffer and returns
// the resulting bytes, with Header.Length and the Fletcher checksum filled
// in. The returned slice aliases b.buf.
func (b *Builder) Build(h LSAHeader, body Body, v Version) ([]byte, error) {
	n := lsaHeaderLen + body.len(v)
	if cap(b.buf) < n {
		b.buf = make([]byte, n)
	} else {
		b.buf = b.buf[:n]
	}

	h.Length = uint16(n)
	h.LSA.Type = kindType(body.kind(), v)
	h.marshal(b.buf[:lsaHeaderLen], v)

	if err := body.marshal(b.buf[lsaHeaderLen:], v); err != nil {
		return nil, fmt.Errorf("failed to marshal %s LSA body: %w", body.kind(), err)
	}

	if !h.DoNotAge {
		fletcherChecksum(b.buf)
	}

	return b.buf, nil
}

// kindType maps a version-independent Kind back to its wire LSType for v.
func kindType(k Kind, v Version) LSType {
	if v == Version3 {
		switch k {
		case KindRouter:
			return RouterLSA
		case KindNetwork:
			return NetworkLSA
		case KindSummaryNetwork:
			return InterAreaPrefixLSA
		case KindSummaryASBR:
			return InterAreaRouterLSA
		case KindASExternal:
			return ASExternalLSA
		case KindNSSAExternal:
			return NSSALSA
		case KindLink:
			return LinkLSA
		case KindIntraAreaPrefix:
			return IntraAreaPrefixLSA
		case KindGrace:
			return GraceLSA
		}
		return 0
	}

	switch k {
	case KindRouter:
		return RouterLSAv2
	case KindNetwork:
		return NetworkLSAv2
	case KindSummaryNetwork:
		return SummaryNetworkLSAv2
	case KindSummaryASBR:
		return SummaryASBRLSAv2
	case KindASExternal:
		return ASExternalLSAv2
	case KindNSSAExternal:
		return NSSALSAv2
	case KindOpaqueLink, KindGrace:
		return OpaqueLinkLSAv2
	case KindOpaqueArea:
		return OpaqueAreaLSAv2
	case KindOpaqueAS:
		return OpaqueASLSAv2
	}
	return 0
}
