package lsdb

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/openospfd/ospfd/wire"
)

func testHeader(seq int32, checksum uint16) wire.LSAHeader {
	return wire.LSAHeader{
		LSA:            wire.LSA{Type: wire.RouterLSA, LinkStateID: wire.ID{0, 0, 0, 1}, AdvertisingRouter: wire.ID{192, 0, 2, 1}},
		SequenceNumber: seq,
		Checksum:       checksum,
	}
}

func TestStoreInsertFind(t *testing.T) {
	s := NewStore(AreaScope, "0.0.0.0", wire.Version3)

	h := testHeader(wire.InitialSequenceNumber, 0x1234)
	if err := s.Insert(h, &wire.RouterLSABody{}, []byte{0, 1, 2, 3}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	got, ok := s.Find(h.Identity())
	if !ok {
		t.Fatal("Find: not found after Insert")
	}
	if diff := cmp.Diff(h, got.Header()); diff != "" {
		t.Fatalf("unexpected header (-want +got):\n%s", diff)
	}

	if got := s.Checksum(); got != h.Checksum {
		t.Fatalf("Checksum() = %#04x, want %#04x", got, h.Checksum)
	}
}

func TestStoreInsertReplace(t *testing.T) {
	s := NewStore(AreaScope, "0.0.0.0", wire.Version3)
	id := testHeader(0, 0).Identity()

	h1 := testHeader(wire.InitialSequenceNumber, 0x1111)
	h1.LSA = id
	if err := s.Insert(h1, &wire.RouterLSABody{}, []byte{0}); err != nil {
		t.Fatalf("Insert 1: %v", err)
	}

	h2 := testHeader(wire.InitialSequenceNumber+1, 0x2222)
	h2.LSA = id
	if err := s.Insert(h2, &wire.RouterLSABody{}, []byte{1}); err != nil {
		t.Fatalf("Insert 2: %v", err)
	}

	got, ok := s.Find(id)
	if !ok {
		t.Fatal("Find: not found")
	}
	if diff := cmp.Diff(h2, got.Header()); diff != "" {
		t.Fatalf("unexpected header (-want +got):\n%s", diff)
	}

	if got := s.Checksum(); got != h2.Checksum {
		t.Fatalf("Checksum() after replace = %#04x, want %#04x (stale XOR term not cleared)", got, h2.Checksum)
	}

	if s.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", s.Len())
	}
}

func TestStoreMaxAgeDeferredInsert(t *testing.T) {
	s := NewStore(AreaScope, "0.0.0.0", wire.Version3)
	id := testHeader(0, 0).Identity()

	h1 := testHeader(wire.InitialSequenceNumber, 0x1111)
	h1.LSA = id
	if err := s.Insert(h1, &wire.RouterLSABody{}, []byte{0}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	if _, err := s.MaxAgeNow(id, []string{"n1", "n2"}); err != nil {
		t.Fatalf("MaxAgeNow: %v", err)
	}
	if !s.OnMaxAgeList(id) {
		t.Fatal("OnMaxAgeList() = false, want true")
	}

	h2 := testHeader(wire.InitialSequenceNumber+1, 0x3333)
	h2.LSA = id
	if err := s.Insert(h2, &wire.RouterLSABody{}, []byte{2}); err != nil {
		t.Fatalf("deferred Insert: %v", err)
	}

	if got, ok := s.Find(id); ok && got.Header().SequenceNumber == h2.SequenceNumber {
		t.Fatal("deferred insert installed before MaxAge list drained")
	}

	s.Drain(id, "n1")
	if !s.OnMaxAgeList(id) {
		t.Fatal("OnMaxAgeList() = false after partial drain, want true")
	}

	s.Drain(id, "n2")
	if s.OnMaxAgeList(id) {
		t.Fatal("OnMaxAgeList() = true after full drain, want false")
	}

	got, ok := s.Find(id)
	if !ok {
		t.Fatal("Find: deferred insert was not installed after drain")
	}
	if diff := cmp.Diff(h2, got.Header(), cmpopts.EquateComparable()); diff != "" {
		t.Fatalf("unexpected header after drain (-want +got):\n%s", diff)
	}
}

func TestStoreIterate(t *testing.T) {
	s := NewStore(ASScope, "as", wire.Version3)

	ids := []wire.ID{{192, 0, 2, 1}, {192, 0, 2, 2}, {192, 0, 2, 3}}
	for _, rtr := range ids {
		h := testHeader(wire.InitialSequenceNumber, 1)
		h.LSA.AdvertisingRouter = rtr
		if err := s.Insert(h, &wire.RouterLSABody{}, []byte{0}); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	c := s.Iterate()
	defer c.Close()

	if got := c.Remaining(); got != len(ids) {
		t.Fatalf("Remaining() = %d, want %d", got, len(ids))
	}

	seen := make(map[wire.ID]bool)
	for {
		r, ok := c.Next()
		if !ok {
			break
		}
		seen[r.Header().LSA.AdvertisingRouter] = true
	}
	if len(seen) != len(ids) {
		t.Fatalf("iterated %d distinct identities, want %d", len(seen), len(ids))
	}
}

func TestAgingWheelTick(t *testing.T) {
	w := newAgingWheel()
	id := testHeader(0, 0).Identity()

	w.place(id, minLSIntervalSeconds-2, false)

	var releaseDue []wire.LSA
	for i := 0; i < 2; i++ {
		releaseDue, _, _ = w.advance()
	}

	found := false
	for _, got := range releaseDue {
		if got == id {
			found = true
		}
	}
	if !found {
		t.Fatalf("identity not released at MinLSInterval bin after %ds", minLSIntervalSeconds)
	}
}

func TestCompareInstanceUsesCheckedAge(t *testing.T) {
	// Sanity check that the store keeps ages in sync with how
	// wire.CompareInstance expects them, since MaxAgeNow rewrites Age
	// directly rather than going through the wheel's own clock.
	a := testHeader(1, 1)
	a.Age = wire.MaxAge
	b := testHeader(1, 1)
	b.Age = 10 * time.Second

	if got := wire.CompareInstance(a, b); got != wire.ANewer {
		t.Fatalf("CompareInstance() = %v, want ANewer", got)
	}
}
