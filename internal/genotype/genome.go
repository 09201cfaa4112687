// Package genotype holds the fixed-size locus containers and the individuals
// that wrap them.
package genotype

// Genome is a fixed-size ordered collection of loci. Its size is set at
// construction and never changes; loci at the same index in two genomes are
// homologous.
type Genome[L any] struct {
	loci []L
}

// New returns a genome of n zero-valued loci.
func New[L any](n int) Genome[L] {
	return Genome[L]{loci: make([]L, n)}
}

// Of copies loci into a new genome. Fixed-size arrays convert with arr[:].
func Of[L any](loci ...L) Genome[L] {
	return Genome[L]{loci: append([]L(nil), loci...)}
}

func (g Genome[L]) Size() int {
	return len(g.loci)
}

// Get returns the locus at i, or false when i is out of range.
func (g Genome[L]) Get(i int) (L, bool) {
	if i < 0 || i >= len(g.loci) {
		var zero L
		return zero, false
	}
	return g.loci[i], true
}

// At returns a pointer to the locus at i for in-place updates, or nil when i
// is out of range.
func (g Genome[L]) At(i int) *L {
	if i < 0 || i >= len(g.loci) {
		return nil
	}
	return &g.loci[i]
}

// Clone returns an independent copy. Loci are copied by value.
func (g Genome[L]) Clone() Genome[L] {
	return Of(g.loci...)
}

// Loci returns a copy of the loci in order.
func (g Genome[L]) Loci() []L {
	return append([]L(nil), g.loci...)
}
