package lsdb

import (
	"sync/atomic"

	"github.com/openospfd/ospfd/wire"
)

// A Ref is a reference-counted handle to a stored LSA. Multiple retransmit
// lists, the MaxAge list, and SPF's working copy can all hold a Ref to the
// same instance without the database needing to track who's using what;
// the underlying bytes are only released once every holder has called
// Release. Grounded on the XORP LsaListElement/ref_ptr pattern (an LSA's
// refcount goes up whenever it's placed on a list, down when the list
// element is destroyed).
type Ref struct {
	entry *entry
}

type entry struct {
	header wire.LSAHeader
	body   wire.Body
	raw    []byte
	refs   int32
}

func newRef(e *entry) Ref {
	atomic.AddInt32(&e.refs, 1)
	return Ref{entry: e}
}

// Header returns the LSA header of the referenced instance.
func (r Ref) Header() wire.LSAHeader { return r.entry.header }

// Body returns the LSA body of the referenced instance.
func (r Ref) Body() wire.Body { return r.entry.body }

// Raw returns the raw wire bytes of the referenced instance. Callers must
// not modify the returned slice.
func (r Ref) Raw() []byte { return r.entry.raw }

// Valid reports whether r still refers to a live entry.
func (r Ref) Valid() bool { return r.entry != nil }

// Clone increments the reference count and returns a second independent
// handle to the same instance.
func (r Ref) Clone() Ref {
	if r.entry == nil {
		return Ref{}
	}
	return newRef(r.entry)
}

// Release decrements the reference count. It does not free anything, and
// the store does not consult the count: an entry's memory is reclaimed by
// the garbage collector once no map or Ref points at it.
func (r Ref) Release() {
	if r.entry == nil {
		return
	}
	atomic.AddInt32(&r.entry.refs, -1)
}

func (e *entry) refcount() int32 {
	return atomic.LoadInt32(&e.refs)
}
