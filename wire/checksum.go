package wire

import "fmt"

// checksumOffset is the byte offset of the Fletcher checksum field within an
// LSA, relative to the start of the LSA (i.e. including the 2 byte Age
// field that the checksum computation itself skips).
const checksumOffset = 16

// fletcherChecksum computes the OSPF LSA Fletcher checksum (RFC 2328
// appendix C.1) over lsa[2:], i.e. every byte of the LSA except the 2 byte
// Age field, and writes the result into lsa[checksumOffset:checksumOffset+2].
// lsa must be the full wire-format LSA (header + body), age field included at
// offset 0, with the checksum field's current contents ignored (zeroed
// before computing).
func fletcherChecksum(lsa []byte) {
	data := lsa[2:]
	off := checksumOffset - 2 // Offset of the checksum field within data.

	data[off], data[off+1] = 0, 0

	var c0, c1 int
	for _, b := range data {
		c0 += int(b)
		if c0 >= 255 {
			c0 -= 255
		}
		c1 += c0
		if c1 >= 255 {
			c1 -= 255
		}
	}

	x := ((len(data) - off - 1) * c0 - c1) % 255
	if x <= 0 {
		x += 255
	}
	y := 510 - c0 - x
	if y > 255 {
		y -= 255
	}

	data[off] = byte(x)
	data[off+1] = byte(y)
}

// verifyChecksum reports whether lsa's stored Fletcher checksum matches its
// recomputed value. lsa is left unmodified; a scratch copy is checksummed.
func verifyChecksum(lsa []byte) error {
	if len(lsa) < checksumOffset+2 {
		return fmt.Errorf("LSA too short to carry a checksum: %d bytes: %w", len(lsa), ErrParse)
	}

	want := uint16(lsa[checksumOffset])<<8 | uint16(lsa[checksumOffset+1])

	scratch := make([]byte, len(lsa))
	copy(scratch, lsa)
	fletcherChecksum(scratch)
	got := uint16(scratch[checksumOffset])<<8 | uint16(scratch[checksumOffset+1])

	if want != got {
		return fmt.Errorf("LSA checksum mismatch: stored %#04x, computed %#04x: %w", want, got, ErrParse)
	}

	return nil
}
