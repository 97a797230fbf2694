package origin

import (
	"testing"
	"time"

	"github.com/openospfd/ospfd/wire"
)

func TestBuilderRouterLSASequencing(t *testing.T) {
	b := NewBuilder()
	routerID := wire.ID{192, 0, 2, 1}
	now := time.Unix(1000, 0)

	h1, raw1, err := b.RouterLSA(routerID, routerID, wire.AreaBorderFlag, 0, nil, wire.Version3, now)
	if err != nil {
		t.Fatalf("first RouterLSA: %v", err)
	}
	if h1.SequenceNumber != wire.InitialSequenceNumber {
		t.Fatalf("first sequence = %#x, want InitialSequenceNumber", uint32(h1.SequenceNumber))
	}
	if len(raw1) == 0 {
		t.Fatal("expected non-empty raw bytes")
	}

	if _, _, err := b.RouterLSA(routerID, routerID, wire.AreaBorderFlag, 0, nil, wire.Version3, now.Add(time.Second)); !TooSoon(err) {
		t.Fatalf("expected TooSoon error within MinLSInterval, got %v", err)
	}

	h2, _, err := b.RouterLSA(routerID, routerID, wire.AreaBorderFlag, 0, nil, wire.Version3, now.Add(wire.MinLSInterval+time.Second))
	if err != nil {
		t.Fatalf("second RouterLSA: %v", err)
	}
	if h2.SequenceNumber != wire.InitialSequenceNumber+1 {
		t.Fatalf("second sequence = %#x, want InitialSequenceNumber+1", uint32(h2.SequenceNumber))
	}
}

func TestOverflowStateTransitions(t *testing.T) {
	o := NewOverflowState(2)
	now := time.Unix(0, 0)

	if entered, in := o.Observe(1, now); entered || in {
		t.Fatalf("Observe(1) = (%v, %v), want (false, false)", entered, in)
	}

	entered, in := o.Observe(3, now)
	if !entered || !in {
		t.Fatalf("Observe(3) = (%v, %v), want (true, true)", entered, in)
	}

	if entered, in := o.Observe(3, now.Add(time.Minute)); entered || !in {
		t.Fatalf("Observe(3) again = (%v, %v), want (false, true)", entered, in)
	}

	if entered, in := o.Observe(1, now.Add(2*time.Minute)); entered || !in {
		t.Fatalf("Observe(1) just below limit = (%v, %v), want (false, true)", entered, in)
	}

	if entered, in := o.Observe(1, now.Add(2*time.Minute+ExitOverflowInterval+time.Second)); entered || in {
		t.Fatalf("Observe(1) after ExitOverflowInterval = (%v, %v), want (false, false)", entered, in)
	}
}

func TestTranslatorElectionLowestIDWins(t *testing.T) {
	self := wire.ID{192, 0, 2, 5}
	lower := wire.ID{192, 0, 2, 1}
	higher := wire.ID{192, 0, 2, 9}

	te := NewTranslatorElection(TranslatorCandidate)
	if got := te.Evaluate(self, []wire.ID{higher}); got != TranslatorElected {
		t.Fatalf("Evaluate with only a higher candidate = %v, want Elected", got)
	}

	if got := te.Evaluate(self, []wire.ID{lower, higher}); got != TranslatorDisabled {
		t.Fatalf("Evaluate with a lower candidate present = %v, want Disabled", got)
	}

	teAlways := NewTranslatorElection(TranslatorAlways)
	if got := teAlways.Evaluate(self, []wire.ID{lower}); got != TranslatorElected {
		t.Fatalf("Always-role Evaluate = %v, want Elected regardless of candidates", got)
	}
}

func TestDefaultRouteTransition(t *testing.T) {
	var d DefaultRouteTransition

	originate, withdraw := d.Transition(StubArea, 10)
	if !originate || withdraw {
		t.Fatalf("Normal->Stub: (%v, %v), want (true, false)", originate, withdraw)
	}

	originate, withdraw = d.Transition(StubArea, 10)
	if originate || withdraw {
		t.Fatalf("Stub->Stub unchanged: (%v, %v), want (false, false)", originate, withdraw)
	}

	originate, withdraw = d.Transition(NormalArea, 0)
	if originate || !withdraw {
		t.Fatalf("Stub->Normal: (%v, %v), want (false, true)", originate, withdraw)
	}
}

func TestReincarnatorRoundTrip(t *testing.T) {
	seq := NewSequencer()
	r := NewReincarnator()

	id := wire.LSA{Type: wire.RouterLSA, LinkStateID: wire.ID{0, 0, 0, 1}, AdvertisingRouter: wire.ID{192, 0, 2, 1}}

	seq.Commit(id, wire.MaxSequenceNumber, time.Unix(0, 0))
	if !seq.AtMaxSequence(id) {
		t.Fatal("AtMaxSequence() = false after committing MaxSequenceNumber")
	}

	r.Enqueue(id)
	if !r.Pending(id) {
		t.Fatal("Pending() = false after Enqueue")
	}

	if !r.Ready(seq, id) {
		t.Fatal("Ready() = false, want true")
	}
	if r.Pending(id) {
		t.Fatal("Pending() = true after Ready")
	}
	if seq.AtMaxSequence(id) {
		t.Fatal("AtMaxSequence() = true after Ready reset sequence state")
	}
}
