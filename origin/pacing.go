package origin

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/openospfd/ospfd/wire"
)

// A Pacer enforces the two origination rate limits in §4.3: per-identity
// MinLSInterval (delegated to the Sequencer's deferred-bin check) and a
// global new_flood_rate cap on newly originated AS-External-LSAs.
// Grounded on the teacher corpus's token-bucket idiom for outbound rate
// limiting (golang.org/x/time/rate), wired per SPEC_FULL domain stack
// rather than a hand-rolled counter.
type Pacer struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	pending []wire.LSA
}

// NewPacer constructs a Pacer allowing newFloodRate new AS-External
// originations per second, with a burst of the same size.
func NewPacer(newFloodRate int) *Pacer {
	if newFloodRate <= 0 {
		newFloodRate = 1
	}
	return &Pacer{limiter: rate.NewLimiter(rate.Limit(newFloodRate), newFloodRate)}
}

// Admit reports whether id may be originated as a new AS-External-LSA right
// now. If the rate limit is currently exhausted, id is queued in the
// pending list for Drain to retry later instead of being dropped.
func (p *Pacer) Admit(id wire.LSA) bool {
	if p.limiter.Allow() {
		return true
	}

	p.mu.Lock()
	p.pending = append(p.pending, id)
	p.mu.Unlock()
	return false
}

// Drain removes up to max identities queued by Admit from the pending list,
// in queue order, and returns them. For each one it waits on the limiter,
// holding the Pacer's lock while it waits, and stops early once ctx ends.
func (p *Pacer) Drain(ctx context.Context, max int) []wire.LSA {
	p.mu.Lock()
	defer p.mu.Unlock()

	var out []wire.LSA
	for len(p.pending) > 0 && len(out) < max {
		if err := p.limiter.WaitN(ctx, 1); err != nil {
			break
		}
		out = append(out, p.pending[0])
		p.pending = p.pending[1:]
	}
	return out
}

// Pending reports how many originations are queued behind the rate limit.
func (p *Pacer) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

// minLSIntervalRemaining returns how long the caller must wait before
// reoriginating id, given the Sequencer's last-sent bookkeeping, or zero if
// it may originate immediately. It exists so callers computing the
// deferred-origination bin placement (delegated to lsdb) don't need to poke
// at Sequencer internals directly.
func minLSIntervalRemaining(seq *Sequencer, id wire.LSA, now time.Time) time.Duration {
	seq.mu.Lock()
	defer seq.mu.Unlock()

	st, ok := seq.state[id]
	if !ok || st.lastSent.IsZero() {
		return 0
	}

	elapsed := now.Sub(st.lastSent)
	if elapsed >= wire.MinLSInterval {
		return 0
	}
	return wire.MinLSInterval - elapsed
}
