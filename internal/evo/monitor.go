package evo

import (
	"context"
	"errors"
	"fmt"

	"helix/internal/chromosome"
	"helix/internal/genotype"
	"helix/internal/logging"
	"helix/internal/model"
	"helix/internal/stats"
)

var ErrGenerationLimit = errors.New("generation limit reached before convergence")

type MonitorConfig struct {
	// Threshold stops the run once a generation reports a loss <= Threshold.
	Threshold float64
	// MaxGenerations caps the run; 0 means unbounded.
	MaxGenerations int
	Logger         *logging.Logger
	// OnGeneration, when set, observes every generation's diagnostics.
	OnGeneration func(model.GenerationDiagnostics)
}

type RunResult struct {
	Generations      int
	Converged        bool
	FinalLoss        float64
	BestByGeneration []float64
	Diagnostics      []model.GenerationDiagnostics
}

// Monitor drives a population to convergence with a generation cap and
// cancellation, recording per-generation diagnostics.
type Monitor[L chromosome.Chromosome[L], I genotype.Individual[L]] struct {
	pop *Population[L, I]
	cfg MonitorConfig
}

func NewMonitor[L chromosome.Chromosome[L], I genotype.Individual[L]](pop *Population[L, I], cfg MonitorConfig) (*Monitor[L, I], error) {
	if pop == nil {
		return nil, fmt.Errorf("population is required")
	}
	if cfg.MaxGenerations < 0 {
		return nil, fmt.Errorf("max generations must be >= 0")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Noop()
	}
	return &Monitor[L, I]{pop: pop, cfg: cfg}, nil
}

// Run evolves until convergence, the generation cap, or ctx is done. The
// partial result is returned alongside ErrGenerationLimit or the context error.
func (m *Monitor[L, I]) Run(ctx context.Context) (RunResult, error) {
	result := RunResult{}
	if m.cfg.MaxGenerations > 0 {
		result.BestByGeneration = make([]float64, 0, m.cfg.MaxGenerations)
		result.Diagnostics = make([]model.GenerationDiagnostics, 0, m.cfg.MaxGenerations)
	}

	var runErr error
	for {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		if m.cfg.MaxGenerations > 0 && result.Generations >= m.cfg.MaxGenerations {
			runErr = fmt.Errorf("%w: %d generations", ErrGenerationLimit, m.cfg.MaxGenerations)
			break
		}

		best := m.pop.Evolve()
		diag := stats.Summarize(result.Generations, best, m.pop.Losses())
		result.Generations++
		result.BestByGeneration = append(result.BestByGeneration, best)
		result.Diagnostics = append(result.Diagnostics, diag)

		m.cfg.Logger.LogGeneration(ctx, diag.Generation, best, float64(diag.MeanLoss))
		if m.cfg.OnGeneration != nil {
			m.cfg.OnGeneration(diag)
		}

		if best <= m.cfg.Threshold {
			result.Converged = true
			break
		}
	}

	result.FinalLoss = m.pop.Loss()
	m.cfg.Logger.LogRunFinished(ctx, result.Generations, result.Converged, result.FinalLoss, runErr)
	return result, runErr
}
