// Package env holds the tunable probabilities of an evolution run.
package env

import (
	"errors"
	"fmt"
	"math"
)

var ErrInvalidSettings = errors.New("invalid env settings")

const (
	DefaultCrossoverProb      float32 = 0.5
	DefaultSwapHomologousProb float32 = 0.25
	DefaultMutateProb         float32 = 0.1
	DefaultSpawnPercentage    float32 = 0.25
)

// Settings are fixed once a population is built.
type Settings struct {
	// CrossoverProb is the per-locus chance of single-point crossover while breeding.
	CrossoverProb float32 `json:"crossover_prob"`
	// SwapHomologousProb is the per-locus chance of swapping homologous loci while breeding.
	SwapHomologousProb float32 `json:"swap_homologous_prob"`
	// MutateProb is the per-locus chance of a point mutation.
	MutateProb float32 `json:"mutate_prob"`
	// SpawnPercentage is the fraction of the population replaced each generation.
	SpawnPercentage float32 `json:"spawn_percentage"`
}

func Default() Settings {
	return Settings{
		CrossoverProb:      DefaultCrossoverProb,
		SwapHomologousProb: DefaultSwapHomologousProb,
		MutateProb:         DefaultMutateProb,
		SpawnPercentage:    DefaultSpawnPercentage,
	}
}

func (s Settings) Validate() error {
	fields := []struct {
		name  string
		value float32
	}{
		{"crossover_prob", s.CrossoverProb},
		{"swap_homologous_prob", s.SwapHomologousProb},
		{"mutate_prob", s.MutateProb},
		{"spawn_percentage", s.SpawnPercentage},
	}
	for _, f := range fields {
		if math.IsNaN(float64(f.value)) || f.value < 0 || f.value > 1 {
			return fmt.Errorf("%w: %s must be in [0, 1], got %v", ErrInvalidSettings, f.name, f.value)
		}
	}
	return nil
}

// Builder starts from Default and overrides individual fields.
type Builder struct {
	settings Settings
}

func NewBuilder() *Builder {
	return &Builder{settings: Default()}
}

func (b *Builder) CrossoverProb(p float32) *Builder {
	b.settings.CrossoverProb = p
	return b
}

func (b *Builder) SwapHomologousProb(p float32) *Builder {
	b.settings.SwapHomologousProb = p
	return b
}

func (b *Builder) MutateProb(p float32) *Builder {
	b.settings.MutateProb = p
	return b
}

func (b *Builder) SpawnPercentage(p float32) *Builder {
	b.settings.SpawnPercentage = p
	return b
}

// Build validates and returns the settings.
func (b *Builder) Build() (Settings, error) {
	if err := b.settings.Validate(); err != nil {
		return Settings{}, err
	}
	return b.settings, nil
}
