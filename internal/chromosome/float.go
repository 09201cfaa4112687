package chromosome

import "helix/internal/bits"

const (
	// floatCrossoverSpan covers split points 0..64; 0 is a no-op and 64
	// exchanges every bit.
	floatCrossoverSpan = 65
	// floatNegateIndex is the mutation index reserved for negation.
	floatNegateIndex = 53
)

// Float is a bare float64 gene.
type Float float64

var _ Chromosome[Float] = Float(0)

func (f Float) Swap(other Float) (Float, Float) {
	return other, f
}

func (f Float) Crossover(other Float, rng Rand) (Float, Float) {
	return f.CrossoverAt(other, int(rng.Uint64()%floatCrossoverSpan))
}

// CrossoverAt exchanges bits [0,k) of the two values. k must be in [0,64].
func (f Float) CrossoverAt(other Float, k int) (Float, Float) {
	a, b := f, other
	va, vb := bits.Of(&a), bits.Of(&b)
	x := va.Substring(0, k) ^ vb.Substring(0, k)
	va.Xor(x)
	vb.Xor(x)
	return a, b
}

func (f Float) Mutate(rng Rand) Float {
	return f.MutateAt(int(rng.Uint64() % (floatNegateIndex + 1)))
}

// MutateAt applies the mutation selected by index i in [0,53]. Index 53 negates
// the value. Any other index flips bit i and then scales the value by
// 1 - 2^-i when the bit was switched off, or 1 + 2^-i when it was switched on,
// so low-significance bits produce proportionally small moves.
func (f Float) MutateAt(i int) Float {
	if i == floatNegateIndex {
		return -f
	}

	x := f
	wasSet := bits.Of(&x).FlipGet(i)
	scale := 1 / float64(uint64(1)<<i)
	if wasSet {
		scale = -scale
	}
	return x + x*Float(scale)
}
