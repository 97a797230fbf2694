package origin

import (
	"sort"

	"github.com/openospfd/ospfd/wire"
)

// A TranslatorRole is an NSSA area border router's configured role in
// Type-7-to-AS-External translation, per [SUPPLEMENTED FEATURES] 2 /
// RFC 3101 §3.2.
type TranslatorRole uint8

// Possible TranslatorRole values.
const (
	TranslatorCandidate TranslatorRole = iota
	TranslatorAlways
)

// A TranslatorState is the result of an NSSA border router's translator
// election.
type TranslatorState uint8

// Possible TranslatorState values.
const (
	TranslatorDisabled TranslatorState = iota
	TranslatorElected
)

// TranslatorElection tracks one NSSA area's translator role/state,
// resolving the RFC 3101 Candidate tie-break (lowest router ID among
// candidate ABRs currently attached to the area translates). Grounded on
// XORP area_router.hh's _translator_role/_translator_state fields.
type TranslatorElection struct {
	role  TranslatorRole
	state TranslatorState
}

// NewTranslatorElection constructs a TranslatorElection with the given
// configured role.
func NewTranslatorElection(role TranslatorRole) *TranslatorElection {
	return &TranslatorElection{role: role}
}

// Evaluate recomputes the translator state given selfID (this router's ID)
// and candidates (every other NSSA ABR currently attached to the area, as
// reported by the area's Router-LSAs with the NP-bit... i.e. every other
// router whose own Router-LSA marks it both area-border and NSSA-capable).
// It returns the resulting state; Elected means this router should
// translate.
func (t *TranslatorElection) Evaluate(selfID wire.ID, candidates []wire.ID) TranslatorState {
	if t.role == TranslatorAlways {
		t.state = TranslatorElected
		return t.state
	}

	lowest := selfID
	for _, c := range candidates {
		if less(c, lowest) {
			lowest = c
		}
	}

	if lowest == selfID {
		t.state = TranslatorElected
	} else {
		t.state = TranslatorDisabled
	}
	return t.state
}

// State returns the last-computed TranslatorState.
func (t *TranslatorElection) State() TranslatorState { return t.state }

func less(a, b wire.ID) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// sortIDs sorts ids in ascending order to produce deterministic candidate
// orderings; Evaluate itself does not require sorted input.
func sortIDs(ids []wire.ID) {
	sort.Slice(ids, func(i, j int) bool { return less(ids[i], ids[j]) })
}
