package origin

import (
	"sync"
	"time"
)

// ExitOverflowInterval is the minimum time a router must remain in overflow
// state, with the AS-External count back below ExtLsdbLimit, before it may
// resume originating non-default externals, per §4.3.
const ExitOverflowInterval = 5 * time.Minute

// An OverflowState tracks the router's AS-External-LSDB-overflow condition:
// once the database-wide count of non-default AS-External-LSAs exceeds a
// configured limit, the router withdraws its own non-default externals and
// refuses to originate new ones until the count has been below the limit
// continuously for ExitOverflowInterval.
type OverflowState struct {
	mu sync.Mutex

	limit        int
	inOverflow   bool
	belowSince   time.Time
	hasBelowMark bool
}

// NewOverflowState constructs an OverflowState with the given ExtLsdbLimit.
// A non-positive limit disables overflow tracking entirely (unlimited).
func NewOverflowState(limit int) *OverflowState {
	return &OverflowState{limit: limit}
}

// Observe updates overflow state given the current AS-wide non-default
// AS-External-LSA count, at time now. It returns true the instant overflow
// is entered (the caller must flush its own non-default externals to
// MaxAge), and reports whether the router is currently in overflow.
func (o *OverflowState) Observe(count int, now time.Time) (entered, inOverflow bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.limit <= 0 {
		return false, false
	}

	over := count > o.limit
	if over {
		o.hasBelowMark = false
		if !o.inOverflow {
			o.inOverflow = true
			return true, true
		}
		return false, true
	}

	if !o.inOverflow {
		return false, false
	}

	if !o.hasBelowMark {
		o.hasBelowMark = true
		o.belowSince = now
		return false, true
	}

	if now.Sub(o.belowSince) >= ExitOverflowInterval {
		o.inOverflow = false
		o.hasBelowMark = false
		return false, false
	}

	return false, true
}

// InOverflow reports whether the router is currently refusing to originate
// new non-default AS-External-LSAs.
func (o *OverflowState) InOverflow() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.inOverflow
}
