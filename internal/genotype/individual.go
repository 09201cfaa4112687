package genotype

// Individual is a candidate solution wrapping exactly one genome.
type Individual[L any] interface {
	// Genotype returns an independent copy of the genome.
	Genotype() Genome[L]
	// SetGenotype replaces the genome. The individual takes ownership of g.
	SetGenotype(g Genome[L])
}

// SpawnFunc places genome g into a population slot currently held by prev.
// prev is the zero value when the slot is being filled for the first time.
type SpawnFunc[L any, I Individual[L]] func(prev I, g Genome[L]) I

// Owned holds its genome by value.
type Owned[L any] struct {
	genome Genome[L]
}

func NewOwned[L any](g Genome[L]) *Owned[L] {
	return &Owned[L]{genome: g}
}

func (o *Owned[L]) Genotype() Genome[L] {
	return o.genome.Clone()
}

func (o *Owned[L]) SetGenotype(g Genome[L]) {
	o.genome = g
}

// Genome returns the held genome without copying. Callers must treat it as
// read-only; it is meant for loss functions.
func (o *Owned[L]) Genome() Genome[L] {
	return o.genome
}

// SpawnOwned always builds a fresh owned individual, discarding prev.
func SpawnOwned[L any](_ *Owned[L], g Genome[L]) *Owned[L] {
	return NewOwned(g)
}

// Borrowed mutates a caller-owned genome in place.
type Borrowed[L any] struct {
	genome *Genome[L]
}

func NewBorrowed[L any](g *Genome[L]) *Borrowed[L] {
	return &Borrowed[L]{genome: g}
}

func (b *Borrowed[L]) Genotype() Genome[L] {
	return b.genome.Clone()
}

// SetGenotype writes g into the caller's storage. Same-size genomes are copied
// into the existing backing array so outstanding views observe the update.
func (b *Borrowed[L]) SetGenotype(g Genome[L]) {
	if b.genome.Size() == g.Size() {
		copy(b.genome.loci, g.loci)
		return
	}
	*b.genome = g
}

// Genome returns the borrowed genome without copying.
func (b *Borrowed[L]) Genome() Genome[L] {
	return *b.genome
}

// SpawnBorrowed writes g into the storage prev already borrows. A nil prev
// gets storage of its own.
func SpawnBorrowed[L any](prev *Borrowed[L], g Genome[L]) *Borrowed[L] {
	if prev == nil {
		return NewBorrowed(&g)
	}
	prev.SetGenotype(g)
	return prev
}
