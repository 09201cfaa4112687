package chromosome

import "helix/internal/bits"

// Ordered pairs a numeric value with a weight that skews which bit the
// operators target. The zero value behaves as an unweighted locus.
type Ordered[T bits.Number] struct {
	Value  T
	weight float32
}

var _ Chromosome[Ordered[int64]] = Ordered[int64]{}

func Unweighted[T bits.Number](value T) Ordered[T] {
	return Ordered[T]{Value: value, weight: 1}
}

func Weighted[T bits.Number](value T, weight float32) Ordered[T] {
	return Ordered[T]{Value: value, weight: weight}
}

func (o Ordered[T]) Weight() float32 {
	if o.weight == 0 {
		return 1
	}
	return o.weight
}

// Swap exchanges values only; each locus keeps its own weight.
func (o Ordered[T]) Swap(other Ordered[T]) (Ordered[T], Ordered[T]) {
	o.Value, other.Value = other.Value, o.Value
	return o, other
}

func (o Ordered[T]) Crossover(other Ordered[T], rng Rand) (Ordered[T], Ordered[T]) {
	return o.CrossoverAt(other, o.bitIndex(rng))
}

// CrossoverAt exchanges bits [0,k) of the two values. k must not exceed the
// value width.
func (o Ordered[T]) CrossoverAt(other Ordered[T], k int) (Ordered[T], Ordered[T]) {
	va, vb := bits.Of(&o.Value), bits.Of(&other.Value)
	x := va.Substring(0, k) ^ vb.Substring(0, k)
	va.Xor(x)
	vb.Xor(x)
	return o, other
}

func (o Ordered[T]) Mutate(rng Rand) Ordered[T] {
	return o.MutateAt(o.bitIndex(rng))
}

// MutateAt flips bit i of the value.
func (o Ordered[T]) MutateAt(i int) Ordered[T] {
	bits.Of(&o.Value).Flip(i)
	return o
}

func (o Ordered[T]) bitIndex(rng Rand) int {
	return WeightedIndex(rng.Float32(), o.Weight(), bits.Of(&o.Value).Len())
}
