package scape

import (
	"math"
	mathbits "math/bits"

	"helix/internal/bits"
	"helix/internal/chromosome"
	"helix/internal/genotype"
	"helix/internal/model"
)

// OrderedScape scores genomes of chromosome.Ordered[T] loci.
type OrderedScape[T bits.Number] struct {
	name        string
	description string
	kind        model.LocusKind
	dims        int
	draw        func(rng chromosome.Rand) T
	eval        func(values []T) float64
}

func (s OrderedScape[T]) Name() string          { return s.name }
func (s OrderedScape[T]) Description() string   { return s.description }
func (s OrderedScape[T]) Kind() model.LocusKind { return s.kind }
func (s OrderedScape[T]) Dimensions() int       { return s.dims }

func (s OrderedScape[T]) Loss(g genotype.Genome[chromosome.Ordered[T]]) float64 {
	values := make([]T, g.Size())
	for i := range values {
		v, _ := g.Get(i)
		values[i] = v.Value
	}
	return s.eval(values)
}

// Genesis draws a random genome whose loci mutate and cross over with the
// given bit-position weight. A weight of 0 or 1 is unbiased.
func (s OrderedScape[T]) Genesis(rng chromosome.Rand, weight float32) genotype.Genome[chromosome.Ordered[T]] {
	g := genotype.New[chromosome.Ordered[T]](s.dims)
	for i := 0; i < s.dims; i++ {
		*g.At(i) = chromosome.Weighted(s.draw(rng), weight)
	}
	return g
}

const oneMaxWords = 4

// OneMax counts the zero bits across four 64-bit words.
var OneMax = OrderedScape[uint64]{
	name:        "onemax",
	description: "number of clear bits across 4 x 64-bit words, minimum 0",
	kind:        model.LocusOrderedU64,
	dims:        oneMaxWords,
	draw: func(rng chromosome.Rand) uint64 {
		return rng.Uint64()
	},
	eval: func(values []uint64) float64 {
		zeros := 0
		for _, v := range values {
			zeros += 64 - mathbits.OnesCount64(v)
		}
		return float64(zeros)
	},
}

// TargetIntGoal is the point TargetInt is minimised at.
var TargetIntGoal = []int64{42, -1337, 65536}

const targetIntSpan = 1 << 20

// TargetInt sums the absolute distances of three integers to TargetIntGoal.
var TargetInt = OrderedScape[int64]{
	name:        "target-int",
	description: "L1 distance of 3 x int64 to (42, -1337, 65536), minimum 0",
	kind:        model.LocusOrderedI64,
	dims:        len(TargetIntGoal),
	draw: func(rng chromosome.Rand) int64 {
		return int64(rng.Uint64()%(2*targetIntSpan)) - targetIntSpan
	},
	eval: func(values []int64) float64 {
		sum := 0.0
		for i, v := range values {
			sum += math.Abs(float64(v) - float64(TargetIntGoal[i]))
		}
		return sum
	},
}
