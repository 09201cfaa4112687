package scape

import (
	"errors"
	"fmt"
	"slices"

	"helix/internal/model"
)

var ErrUnknownScape = errors.New("unknown scape")

// Scape is a benchmark landscape: a loss function over a fixed-size genome
// together with the distribution its initial population is drawn from.
// Concrete scapes are FloatScape and OrderedScape.
type Scape interface {
	Name() string
	Description() string
	Kind() model.LocusKind
	Dimensions() int
}

var registry = map[string]Scape{}

func register(s Scape) {
	if _, exists := registry[s.Name()]; exists {
		panic(fmt.Sprintf("scape %q registered twice", s.Name()))
	}
	registry[s.Name()] = s
}

// Lookup returns the registered scape called name, after Normalize.
func Lookup(name string) (Scape, error) {
	s, ok := registry[Normalize(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownScape, name)
	}
	return s, nil
}

// Names lists registered scapes in lexical order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func init() {
	for _, s := range floatScapes {
		register(s)
	}
	register(OneMax)
	register(TargetInt)
	indexCompactNames()
}
