package lsdb

import "github.com/openospfd/ospfd/wire"

// A Cursor is a resumable snapshot iteration handle over a Store scope, used
// by Database Description exchange and by SPF to walk a scope's contents
// across multiple event-loop turns without holding the store's lock for the
// whole walk. Grounded on the XORP area_router.hh DataBaseHandle /
// subsequent / close_database pattern: open takes a stable snapshot, each
// subsequent call advances a position, and close releases held references.
type Cursor struct {
	snapshot []Ref
	pos      int
}

func newCursor(snapshot []Ref) *Cursor {
	return &Cursor{snapshot: snapshot}
}

// Next returns the next Ref in the snapshot, or a zero Ref and false once
// the snapshot is exhausted.
func (c *Cursor) Next() (Ref, bool) {
	if c == nil || c.pos >= len(c.snapshot) {
		return Ref{}, false
	}
	r := c.snapshot[c.pos]
	c.pos++
	return r, true
}

// Remaining reports how many entries Next has not yet returned.
func (c *Cursor) Remaining() int {
	if c == nil {
		return 0
	}
	return len(c.snapshot) - c.pos
}

// Reset rewinds the cursor to the start of its snapshot without re-reading
// the store, matching the "subsequent" restart semantics used when a
// Database Description exchange is abandoned and retried from scratch.
func (c *Cursor) Reset() {
	if c != nil {
		c.pos = 0
	}
}

// Close releases every Ref still held by the snapshot, including ones Next
// never returned. Callers that consume the whole cursor via Next need not
// call Close first, but it is always safe to do so.
func (c *Cursor) Close() {
	if c == nil {
		return
	}
	for _, r := range c.snapshot {
		r.Release()
	}
	c.snapshot = nil
	c.pos = 0
}

// Headers drains the remaining entries of the cursor as a plain header
// slice, useful for callers that only need identity/instance information
// (e.g. building an LS-Request list) and not the LSA bytes themselves.
func (c *Cursor) Headers() []wire.LSAHeader {
	if c == nil {
		return nil
	}
	out := make([]wire.LSAHeader, 0, c.Remaining())
	for {
		r, ok := c.Next()
		if !ok {
			break
		}
		out = append(out, r.Header())
	}
	return out
}
