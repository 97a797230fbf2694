package origin

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/openospfd/ospfd/wire"
)

// A Builder assembles and sequences self-originated LSAs. It owns the
// wire.Builder scratch buffer (not reentrant, per §5) and a Sequencer, so
// every per-type file in this package shares one buffer and one sequence
// bookkeeping table instead of each keeping their own.
type Builder struct {
	wb  wire.Builder
	seq *Sequencer
}

// NewBuilder constructs a Builder with a fresh Sequencer.
func NewBuilder() *Builder {
	return &Builder{seq: NewSequencer()}
}

// build finalizes a self-originated LSA: it assigns the next sequence
// number for the identity (or reports tooSoon if MinLSInterval hasn't
// elapsed), marshals it via the shared wire.Builder, and commits the
// sequence advance.
func (b *Builder) build(id wire.LSA, age time.Duration, body wire.Body, v wire.Version, now time.Time) (wire.LSAHeader, []byte, error) {
	seq, tooSoon := b.seq.Next(id, now)
	if tooSoon {
		return wire.LSAHeader{}, nil, errTooSoon
	}
	// After wire.MaxSequenceNumber is committed, the int32 next wraps to MinInt32.
	if seq == math.MinInt32 {
		return wire.LSAHeader{}, nil, fmt.Errorf("origin: identity %s needs reincarnation before reorigination: %w", id, errSequenceExhausted)
	}

	h := wire.LSAHeader{LSA: id, SequenceNumber: seq, Age: age}
	raw, err := b.wb.Build(h, body, v)
	if err != nil {
		return wire.LSAHeader{}, nil, err
	}
	raw = append([]byte(nil), raw...)

	b.seq.Commit(id, seq, now)

	full, err := wire.ParseLSA(raw, v)
	if err != nil {
		return wire.LSAHeader{}, nil, err
	}
	return full.Header, raw, nil
}

// errTooSoon is returned when an origination request arrives within
// MinLSInterval of the previous one for the same identity; callers should
// queue the request in the deferred-origination bin (§4.3) rather than
// treat it as a failure.
var errTooSoon = fmt.Errorf("origin: origination deferred, within MinLSInterval")

// errSequenceExhausted indicates the identity must be reincarnated (flushed
// to MaxAge and withheld) before it can be originated again.
var errSequenceExhausted = fmt.Errorf("origin: sequence number exhausted")

// TooSoon reports whether err indicates a MinLSInterval deferral.
func TooSoon(err error) bool { return errors.Is(err, errTooSoon) }

// SequenceExhausted reports whether err indicates the identity needs
// reincarnation.
func SequenceExhausted(err error) bool { return errors.Is(err, errSequenceExhausted) }
