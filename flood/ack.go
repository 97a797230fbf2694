package flood

import "github.com/openospfd/ospfd/wire"

// An AckDecision tells the caller how to acknowledge a received LSA, per
// §4.4's ack rules.
type AckDecision uint8

// Possible AckDecision values.
const (
	NoAck AckDecision = iota
	DirectAck
	DelayedAck
	ImplicitAck
)

// DecideAck implements §4.4's per-LSA acknowledgement rule table for one
// received instance compared against the install outcome.
//
//   - installed: the received instance was newer and has just been
//     installed (§4.2).
//   - duplicate: the received instance is identical (same Ordering == Same)
//     to what's already stored.
//   - onRequestList: the identity is on this neighbor's LS-Request list
//     (about to be served separately).
//   - isDR: the local router is DR on the interface the LSA arrived on.
//   - onRetransmitList: the identity is currently on this neighbor's
//     retransmit list (an implicit ack candidate for a duplicate).
func DecideAck(installed, duplicate, onRequestList, isDR, onRetransmitList bool) AckDecision {
	if duplicate {
		if onRetransmitList {
			return ImplicitAck
		}
		return DirectAck
	}

	if onRequestList {
		return DirectAck
	}

	if installed {
		if !isDR {
			return DirectAck
		}
		return DelayedAck
	}

	return NoAck
}

// An AckBundle accumulates delayed acknowledgements for one interface
// between 1-second timer fires, per §4.4.
type AckBundle struct {
	headers []wire.LSAHeader
	seen    map[wire.LSA]bool
}

// NewAckBundle constructs an empty AckBundle.
func NewAckBundle() *AckBundle {
	return &AckBundle{seen: make(map[wire.LSA]bool)}
}

// Add queues h for the next delayed-ack flush, deduplicating by identity so
// a burst of installs for the same LSA within one tick produces one ack.
func (a *AckBundle) Add(h wire.LSAHeader) {
	id := h.Identity()
	if a.seen[id] {
		return
	}
	a.seen[id] = true
	a.headers = append(a.headers, h)
}

// Flush returns and clears the accumulated headers, called on the
// per-interface 1s delayed-ack timer.
func (a *AckBundle) Flush() []wire.LSAHeader {
	out := a.headers
	a.headers = nil
	a.seen = make(map[wire.LSA]bool)
	return out
}

// Empty reports whether the bundle currently has nothing to flush.
func (a *AckBundle) Empty() bool { return len(a.headers) == 0 }
