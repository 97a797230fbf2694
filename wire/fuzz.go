package wire

import (
	"fmt"

	"github.com/google/go-cmp/cmp"
)

// fuzz is a shared function for fuzz tests that verify round-trip bugs stay
// fixed: parse, marshal, parse again, and check for equality at each step.
func fuzz(b1 []byte) int {
	h1, m1, err := ParseMessage(b1)
	if err != nil {
		return 0
	}

	b2, err := MarshalMessage(h1, m1)
	if err != nil {
		panicf("failed to marshal: %v", err)
	}

	h2, m2, err := ParseMessage(b2)
	if err != nil {
		panicf("failed to parse: %v", err)
	}

	if diff := cmp.Diff(h1, h2); diff != "" {
		panicf("unexpected Header (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(m1, m2); diff != "" {
		panicf("unexpected Message (-want +got):\n%s", diff)
	}

	// Marshal again and compare b2 and b3 (b1 may have reserved bytes set
	// which are ignored and filled with zeros when marshaling) for equality.
	b3, err := MarshalMessage(h2, m2)
	if err != nil {
		panicf("failed to marshal again: %v", err)
	}

	if diff := cmp.Diff(b2, b3); diff != "" {
		panicf("unexpected bytes (-want +got):\n%s", diff)
	}

	return 1
}

func panicf(format string, a ...interface{}) {
	panic(fmt.Sprintf(format, a...))
}
