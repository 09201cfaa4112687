package evo

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"slices"

	"helix/internal/chromosome"
	"helix/internal/env"
	"helix/internal/genotype"
)

var (
	ErrCapacityExceeded = errors.New("population capacity exceeded")
	ErrNilLoss          = errors.New("loss function is required")
	ErrNilSpawn         = errors.New("spawn function is required")
)

// LossFunc scores an individual; lower is better. It must be pure and cheap:
// a single generation calls it once per individual while ranking. NaN results
// are tolerated and rank last.
type LossFunc[I any] func(I) float64

type Option func(*options)

type options struct {
	rng chromosome.Rand
}

// WithRand sets the random source. The population takes exclusive use of it.
func WithRand(rng chromosome.Rand) Option {
	return func(o *options) {
		o.rng = rng
	}
}

// WithSeed uses a math/rand source seeded with seed.
func WithSeed(seed int64) Option {
	return func(o *options) {
		o.rng = rand.New(rand.NewSource(seed))
	}
}

// Population evolves a fixed number of individuals against a loss function.
// It is not safe for concurrent use.
type Population[L chromosome.Chromosome[L], I genotype.Individual[L]] struct {
	settings    env.Settings
	capacity    int
	individuals []I
	loss        LossFunc[I]
	spawn       genotype.SpawnFunc[L, I]
	rng         chromosome.Rand
}

func New[L chromosome.Chromosome[L], I genotype.Individual[L]](
	capacity int,
	settings env.Settings,
	loss LossFunc[I],
	spawn genotype.SpawnFunc[L, I],
	opts ...Option,
) (*Population[L, I], error) {
	if capacity < 0 {
		return nil, fmt.Errorf("population capacity must be >= 0, got %d", capacity)
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if loss == nil {
		return nil, ErrNilLoss
	}
	if spawn == nil {
		return nil, ErrNilSpawn
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.rng == nil {
		o.rng = rand.New(rand.NewSource(1))
	}

	return &Population[L, I]{
		settings:    settings,
		capacity:    capacity,
		individuals: make([]I, 0, capacity),
		loss:        loss,
		spawn:       spawn,
		rng:         o.rng,
	}, nil
}

// NewOwned builds a population whose individuals own their genomes.
func NewOwned[L chromosome.Chromosome[L]](
	capacity int,
	settings env.Settings,
	loss LossFunc[*genotype.Owned[L]],
	opts ...Option,
) (*Population[L, *genotype.Owned[L]], error) {
	return New[L, *genotype.Owned[L]](capacity, settings, loss, genotype.SpawnOwned[L], opts...)
}

// NewBorrowed builds a population whose individuals write into caller-owned
// genomes. Seed it with Adopt.
func NewBorrowed[L chromosome.Chromosome[L]](
	capacity int,
	settings env.Settings,
	loss LossFunc[*genotype.Borrowed[L]],
	opts ...Option,
) (*Population[L, *genotype.Borrowed[L]], error) {
	return New[L, *genotype.Borrowed[L]](capacity, settings, loss, genotype.SpawnBorrowed[L], opts...)
}

// Initialize fills every empty slot with a genome produced by gen.
func (p *Population[L, I]) Initialize(gen func(rng chromosome.Rand) genotype.Genome[L]) {
	var empty I
	for len(p.individuals) < p.capacity {
		p.individuals = append(p.individuals, p.spawn(empty, gen(p.rng)))
	}
}

// Adopt appends caller-built individuals, such as borrowed ones.
func (p *Population[L, I]) Adopt(individuals ...I) error {
	if len(p.individuals)+len(individuals) > p.capacity {
		return fmt.Errorf("%w: have %d, adding %d, capacity %d",
			ErrCapacityExceeded, len(p.individuals), len(individuals), p.capacity)
	}
	p.individuals = append(p.individuals, individuals...)
	return nil
}

// Evolve runs one generation and returns the best loss observed while
// ranking, before this generation's breeding and mutation were applied.
//
// The best-ranked individual is never bred into or mutated. The next ranks
// are paired to breed replacements for the worst ranks, and everything in
// between receives background mutation.
func (p *Population[L, I]) Evolve() float64 {
	best := p.rank()
	n := len(p.individuals)
	spawn := SpawnCount(n, p.settings.SpawnPercentage)

	for i := 0; i < spawn; i += 2 {
		a := p.individuals[i+1].Genotype()
		b := p.individuals[i+2].Genotype()
		p.breed(a, b)
		p.individuals[n-i-1] = p.spawn(p.individuals[n-i-1], a)
		p.individuals[n-i-2] = p.spawn(p.individuals[n-i-2], b)
	}

	for i := 1; i < n-spawn; i++ {
		g := p.individuals[i].Genotype()
		p.mutate(g)
		p.individuals[i].SetGenotype(g)
	}

	return best
}

// EvolveUntil evolves until a generation reports a loss <= threshold and
// returns the number of generations run. It never gives up: an unreachable
// threshold loops forever. Use Monitor to bound a run.
func (p *Population[L, I]) EvolveUntil(threshold float64) int {
	generations := 1
	for !(p.Evolve() <= threshold) {
		generations++
	}
	return generations
}

// Loss returns the lowest loss in the population from a fresh scan. NaN
// losses are ignored; an empty or all-NaN population reports MaxFloat64.
func (p *Population[L, I]) Loss() float64 {
	best := math.MaxFloat64
	for _, ind := range p.individuals {
		if l := p.loss(ind); l < best {
			best = l
		}
	}
	return best
}

// Losses returns every individual's loss sorted ascending, NaN last.
func (p *Population[L, I]) Losses() []float64 {
	losses := make([]float64, len(p.individuals))
	for i, ind := range p.individuals {
		losses[i] = p.loss(ind)
	}
	SortLosses(losses)
	return losses
}

// Best returns the individual with the lowest loss from a fresh scan.
func (p *Population[L, I]) Best() (I, float64, bool) {
	var best I
	if len(p.individuals) == 0 {
		return best, 0, false
	}
	best, bestLoss := p.individuals[0], p.loss(p.individuals[0])
	for _, ind := range p.individuals[1:] {
		if l := p.loss(ind); compareLoss(l, bestLoss) < 0 {
			best, bestLoss = ind, l
		}
	}
	return best, bestLoss, true
}

// Individuals returns a copy of the current slots. After Evolve they follow
// that step's ranking, except that the last SpawnCount slots hold the newly
// bred children and every slot between the elite and the children may have
// been mutated since it was ranked.
func (p *Population[L, I]) Individuals() []I {
	return slices.Clone(p.individuals)
}

func (p *Population[L, I]) Len() int { return len(p.individuals) }

func (p *Population[L, I]) Cap() int { return p.capacity }

func (p *Population[L, I]) Settings() env.Settings { return p.settings }

type scored[I any] struct {
	ind  I
	loss float64
}

// rank sorts individuals ascending by loss and returns the best loss, or 0
// for an empty population. Each loss is computed once.
func (p *Population[L, I]) rank() float64 {
	if len(p.individuals) == 0 {
		return 0
	}

	ranked := make([]scored[I], len(p.individuals))
	for i, ind := range p.individuals {
		ranked[i] = scored[I]{ind: ind, loss: p.loss(ind)}
	}
	slices.SortStableFunc(ranked, func(a, b scored[I]) int {
		return compareLoss(a.loss, b.loss)
	})
	for i := range ranked {
		p.individuals[i] = ranked[i].ind
	}
	return ranked[0].loss
}

// breed recombines two cloned parent genomes in place, locus by locus.
func (p *Population[L, I]) breed(a, b genotype.Genome[L]) {
	if a.Size() != b.Size() {
		panic(fmt.Sprintf("evo: genotype locus counts differ: %d != %d", a.Size(), b.Size()))
	}

	for j := 0; j < a.Size(); j++ {
		x, y := a.At(j), b.At(j)

		if p.roll(p.settings.MutateProb) {
			*x = (*x).Mutate(p.rng)
		}
		if p.roll(p.settings.MutateProb) {
			*y = (*y).Mutate(p.rng)
		}
		if p.roll(p.settings.CrossoverProb) {
			*x, *y = (*x).Crossover(*y, p.rng)
		}
		if p.roll(p.settings.SwapHomologousProb) {
			*x, *y = (*x).Swap(*y)
		}
	}
}

func (p *Population[L, I]) mutate(g genotype.Genome[L]) {
	for j := 0; j < g.Size(); j++ {
		if p.roll(p.settings.MutateProb) {
			x := g.At(j)
			*x = (*x).Mutate(p.rng)
		}
	}
}

func (p *Population[L, I]) roll(probability float32) bool {
	return p.rng.Float32() < probability
}
