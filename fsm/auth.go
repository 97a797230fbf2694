package fsm

import (
	"crypto/md5"
	"errors"
	"time"

	"github.com/openospfd/ospfd/wire"
)

// ErrAuthFailed reports a packet that failed authentication: wrong type,
// missing key, bad digest, or a stale MD5 sequence number.
var ErrAuthFailed = errors.New("fsm: authentication failed")

// A Key is one configured authentication key with its rotation window, per
// §6.4/§4.5. Simple-password keys use only Key and ignore the digest
// fields; MD5 keys use KeyID and the four timestamps to allow overlapping
// accept/generate windows during a rollover.
type Key struct {
	KeyID uint8
	Key   []byte

	StartAccept   time.Time
	StopAccept    time.Time
	StartGenerate time.Time
	StopGenerate  time.Time
}

func (k Key) acceptsAt(now time.Time) bool {
	return !now.Before(k.StartAccept) && (k.StopAccept.IsZero() || now.Before(k.StopAccept))
}

func (k Key) generatesAt(now time.Time) bool {
	return !now.Before(k.StartGenerate) && (k.StopGenerate.IsZero() || now.Before(k.StopGenerate))
}

// A KeyRing holds an interface's configured authentication keys and the
// per-neighbor MD5 sequence watermark, RFC 2328 appendix D.3.
type KeyRing struct {
	Type AuthType
	Keys []Key

	// AllowSeqRollover, if set, accepts a received sequence number that
	// has wrapped below the last seen value once it has dropped by more
	// than half the 32-bit space, instead of always rejecting decreases.
	AllowSeqRollover bool

	lastSeq map[wire.ID]uint32
}

// An AuthType selects the authentication scheme for a KeyRing.
type AuthType uint8

// Possible AuthType values, mirroring wire.AuthType but scoped to fsm's
// configuration surface.
const (
	AuthNone AuthType = iota
	AuthSimple
	AuthMD5
)

// NewKeyRing constructs an empty KeyRing of the given type.
func NewKeyRing(t AuthType) *KeyRing {
	return &KeyRing{Type: t, lastSeq: make(map[wire.ID]uint32)}
}

// generatingKey returns the key currently valid for signing outbound
// packets, or false if none is active.
func (r *KeyRing) generatingKey(now time.Time) (Key, bool) {
	for _, k := range r.Keys {
		if k.generatesAt(now) {
			return k, true
		}
	}
	return Key{}, false
}

func (r *KeyRing) acceptingKey(keyID uint8, now time.Time) (Key, bool) {
	for _, k := range r.Keys {
		if k.KeyID == keyID && k.acceptsAt(now) {
			return k, true
		}
	}
	return Key{}, false
}

// Sign computes the authentication data for an outbound packet: for
// AuthSimple, the configured password padded/truncated to 8 bytes; for
// AuthMD5, the RFC 2328 appendix D.3 digest (MD5 over the packet with the
// key appended) plus the key ID and next sequence number to place in the
// header. It returns a zero-length digest for AuthNone.
func (r *KeyRing) Sign(h *wire.Header, packet []byte, now time.Time) ([]byte, error) {
	switch r.Type {
	case AuthNone:
		return nil, nil

	case AuthSimple:
		k, ok := r.generatingKey(now)
		if !ok {
			return nil, ErrAuthFailed
		}
		pw := make([]byte, 8)
		copy(pw, k.Key)
		return pw, nil

	case AuthMD5:
		k, ok := r.generatingKey(now)
		if !ok {
			return nil, ErrAuthFailed
		}
		h.AuthType = wire.AuthMD5
		h.AuthKeyID = k.KeyID
		h.AuthDataLen = md5.Size
		h.AuthSeq++

		sum := md5.Sum(append(append([]byte(nil), packet...), k.Key...))
		return sum[:], nil

	default:
		return nil, ErrAuthFailed
	}
}

// Verify checks a received packet's authentication: password match for
// AuthSimple, or digest plus sequence watermark for AuthMD5. src identifies
// the sending neighbor for the per-neighbor sequence watermark.
func (r *KeyRing) Verify(h wire.Header, packet, digest []byte, src wire.ID, now time.Time) error {
	switch r.Type {
	case AuthNone:
		return nil

	case AuthSimple:
		var k Key
		var ok bool
		for _, cand := range r.Keys {
			if cand.acceptsAt(now) {
				k, ok = cand, true
				break
			}
		}
		if !ok {
			return ErrAuthFailed
		}
		pw := make([]byte, 8)
		copy(pw, k.Key)
		if string(pw) != string(digest) {
			return ErrAuthFailed
		}
		return nil

	case AuthMD5:
		k, ok := r.acceptingKey(h.AuthKeyID, now)
		if !ok {
			return ErrAuthFailed
		}

		want := md5.Sum(append(append([]byte(nil), packet...), k.Key...))
		if len(digest) != md5.Size || string(want[:]) != string(digest) {
			return ErrAuthFailed
		}

		if !r.acceptSequence(src, h.AuthSeq) {
			return ErrAuthFailed
		}
		return nil

	default:
		return ErrAuthFailed
	}
}

// acceptSequence applies the monotonic MD5 sequence watermark: a packet is
// accepted if its sequence number is strictly greater than the last one
// accepted from src, or, when AllowSeqRollover is set, if it appears to
// have wrapped (dropped by more than half the uint32 space).
func (r *KeyRing) acceptSequence(src wire.ID, seq uint32) bool {
	last, seen := r.lastSeq[src]
	if !seen || seq > last {
		r.lastSeq[src] = seq
		return true
	}
	if r.AllowSeqRollover && last-seq > 1<<31 {
		r.lastSeq[src] = seq
		return true
	}
	return false
}
