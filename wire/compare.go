package wire

// An Ordering is the result of comparing two instances of the same LSA
// identity, per §4.1.
type Ordering uint8

// Possible Ordering values.
const (
	Same Ordering = iota
	ANewer
	BNewer
)

// CompareInstance orders two instances (sequence, age, checksum) of the same
// LSA identity, per §4.1:
//
//  1. the instance with the greater signed sequence number is newer;
//  2. otherwise the instance with the greater checksum is newer;
//  3. otherwise if exactly one instance's age is MaxAge, it is newer;
//  4. otherwise if the ages differ by more than MaxAgeDiff, the instance
//     with the smaller age is newer;
//  5. otherwise the instances are equivalent.
//
// Open Question resolved (§9, DESIGN.md): sequence is compared as signed
// int32, matching RFC 2328's description of the sequence number space.
func CompareInstance(a, b LSAHeader) Ordering {
	if a.SequenceNumber != b.SequenceNumber {
		if a.SequenceNumber > b.SequenceNumber {
			return ANewer
		}
		return BNewer
	}

	if a.Checksum != b.Checksum {
		if a.Checksum > b.Checksum {
			return ANewer
		}
		return BNewer
	}

	aMax := a.Age >= MaxAge
	bMax := b.Age >= MaxAge
	if aMax != bMax {
		if aMax {
			return ANewer
		}
		return BNewer
	}

	diff := a.Age - b.Age
	if diff < 0 {
		diff = -diff
	}
	if diff > MaxAgeDiff {
		if a.Age < b.Age {
			return ANewer
		}
		return BNewer
	}

	return Same
}
