// Package priority provides the priority-match encoder.
//
// Given a vector of per-entry match flags, the encoder resolves the set of
// candidates to a single deterministic winner: the lowest-indexed matching
// entry. Lowest index wins is the defining TCAM semantic — entries written
// at lower addresses take precedence on overlapping matches.
package priority

import (
	"math/bits"

	"github.com/bits-and-blooms/bitset"
)

// NoMatch is the reserved result word meaning "no entry matched".
//
// The encoding is inherited from the device protocol and collides with a
// legitimate match at entry 0; callers that need the distinction must carry
// the found flag from Encode alongside the word.
const NoMatch uint32 = 0

// Encode returns the smallest index whose flag is set. It is pure and total:
// the all-zero vector returns found == false.
func Encode(flags *bitset.BitSet) (index uint, found bool) {
	return flags.NextSet(0)
}

// Width returns the number of bits needed to encode a match address for the
// given entry count, ceil(log2(entries)).
func Width(entries int) int {
	if entries <= 1 {
		return 1
	}
	return bits.Len(uint(entries - 1))
}
