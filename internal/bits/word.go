// Package bits treats fixed-width numeric values as addressable bit-strings.
//
// Bit index arguments are preconditions, not checked errors: every index must be
// smaller than the word width, and Substring additionally requires
// 0 <= from <= to <= width. Violations produce wrong bits, never a panic or an error.
package bits

import "unsafe"

// Word is an unsigned buffer used purely as a bit-string.
type Word interface {
	~uint32 | ~uint64
}

// Width returns the number of addressable bits in W.
func Width[W Word]() int {
	var w W
	return int(unsafe.Sizeof(w)) * 8
}

// Flip toggles bit i of w.
func Flip[W Word](w *W, i int) {
	*w ^= W(1) << i
}

// FlipGet toggles bit i of w and reports whether the bit was set before the toggle.
func FlipGet[W Word](w *W, i int) bool {
	mask := W(1) << i
	*w ^= mask
	return *w&mask == 0
}

// Substring keeps the bits of w in [from, to) and zeroes every other bit.
// to == width selects up to and including the top bit; from == to yields 0.
func Substring[W Word](w W, from, to int) W {
	return w & (lowMask[W](to) ^ lowMask[W](from))
}

// lowMask returns a word with the n lowest bits set. For n == width the shift
// overflows to 0 and the subtraction wraps to all ones.
func lowMask[W Word](n int) W {
	return W(1)<<n - 1
}
