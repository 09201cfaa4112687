// Package chromosome defines the per-locus genetic operators.
package chromosome

import "math"

// Rand is the random source the operators draw from. *math/rand.Rand and
// *math/rand/v2.Rand both satisfy it.
type Rand interface {
	Float32() float32
	Float64() float64
	Uint64() uint64
}

// Chromosome is the operator contract for one locus. Operations use value
// semantics: they return the updated locus (or homologous pair) and leave the
// receiver untouched.
type Chromosome[L any] interface {
	// Swap exchanges the values of two homologous loci.
	Swap(other L) (L, L)
	// Crossover exchanges a randomly sized low-order bit segment.
	Crossover(other L, rng Rand) (L, L)
	// Mutate applies a single point mutation.
	Mutate(rng Rand) L
}

// WeightedIndex maps a uniform sample in [0,1) to a bit index in [0,width)
// skewed by weight: 1 is uniform, >1 favours low-order bits, <1 favours
// high-order bits. The result is clamped so float rounding near 1 can never
// select index width.
func WeightedIndex(sample, weight float32, width int) int {
	skewed := float32(math.Pow(float64(sample), float64(weight)))
	i := int(skewed * float32(width))
	if i >= width {
		return width - 1
	}
	if i < 0 {
		return 0
	}
	return i
}
