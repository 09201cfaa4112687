package scape

import (
	"math"

	"helix/internal/chromosome"
	"helix/internal/genotype"
	"helix/internal/model"
)

// FloatScape scores genomes of chromosome.Float loci. Initial values are
// drawn uniformly from [Low, High). Optimum is a known global minimiser.
type FloatScape struct {
	name        string
	description string
	dims        int
	Low         float64
	High        float64
	Optimum     []float64
	eval        func(x []float64) float64
}

func (s FloatScape) Name() string          { return s.name }
func (s FloatScape) Description() string   { return s.description }
func (s FloatScape) Kind() model.LocusKind { return model.LocusFloat }
func (s FloatScape) Dimensions() int       { return s.dims }

// Loss evaluates the landscape at the genome's values.
func (s FloatScape) Loss(g genotype.Genome[chromosome.Float]) float64 {
	x := make([]float64, g.Size())
	for i := range x {
		v, _ := g.Get(i)
		x[i] = float64(v)
	}
	return s.Evaluate(x)
}

// Evaluate scores a raw point. len(x) must equal Dimensions.
func (s FloatScape) Evaluate(x []float64) float64 {
	return s.eval(x)
}

// Genesis draws a random genome for the initial population.
func (s FloatScape) Genesis(rng chromosome.Rand) genotype.Genome[chromosome.Float] {
	g := genotype.New[chromosome.Float](s.dims)
	for i := 0; i < s.dims; i++ {
		*g.At(i) = chromosome.Float(s.Low + rng.Float64()*(s.High-s.Low))
	}
	return g
}

var (
	Sphere = FloatScape{
		name:        "sphere",
		description: "sum of squares, minimum 0 at the origin",
		dims:        2,
		Low:         -2,
		High:        2,
		Optimum:     []float64{0, 0},
		eval: func(x []float64) float64 {
			sum := 0.0
			for _, v := range x {
				sum += v * v
			}
			return sum
		},
	}

	Rosenbrock = FloatScape{
		name:        "rosenbrock",
		description: "banana valley, minimum 0 at (1, 1)",
		dims:        2,
		Low:         -2,
		High:        2,
		Optimum:     []float64{1, 1},
		eval: func(x []float64) float64 {
			sum := 0.0
			for i := 0; i+1 < len(x); i++ {
				a := x[i+1] - x[i]*x[i]
				b := 1 - x[i]
				sum += 100*a*a + b*b
			}
			return sum
		},
	}

	Rastrigin = FloatScape{
		name:        "rastrigin",
		description: "highly multimodal, minimum 0 at the origin",
		dims:        2,
		Low:         -5.12,
		High:        5.12,
		Optimum:     []float64{0, 0},
		eval: func(x []float64) float64 {
			sum := 10 * float64(len(x))
			for _, v := range x {
				sum += v*v - 10*math.Cos(2*math.Pi*v)
			}
			return sum
		},
	}

	Booth = FloatScape{
		name:        "booth",
		description: "plate-shaped, minimum 0 at (1, 3)",
		dims:        2,
		Low:         -10,
		High:        10,
		Optimum:     []float64{1, 3},
		eval: func(x []float64) float64 {
			a := x[0] + 2*x[1] - 7
			b := 2*x[0] + x[1] - 5
			return a*a + b*b
		},
	}

	Himmelblau = FloatScape{
		name:        "himmelblau",
		description: "four equal minima of 0, one at (3, 2)",
		dims:        2,
		Low:         -5,
		High:        5,
		Optimum:     []float64{3, 2},
		eval: func(x []float64) float64 {
			a := x[0]*x[0] + x[1] - 11
			b := x[0] + x[1]*x[1] - 7
			return a*a + b*b
		},
	}

	// TwinValley has minima of 0 at (1, 1) and (1, -1).
	TwinValley = FloatScape{
		name:        "twin-valley",
		description: "quartic valley 100(x^2-y^2)^2+(1-x)^2, minima 0 at (1, +-1)",
		dims:        2,
		Low:         -2,
		High:        2,
		Optimum:     []float64{1, 1},
		eval: func(x []float64) float64 {
			a := x[0]*x[0] - x[1]*x[1]
			b := 1 - x[0]
			return 100*a*a + b*b
		},
	}
)

var floatScapes = []FloatScape{Sphere, Rosenbrock, Rastrigin, Booth, Himmelblau, TwinValley}
