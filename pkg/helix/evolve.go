package helix

import (
	"context"
	"errors"
	"math/rand"

	"helix/internal/bits"
	"helix/internal/chromosome"
	"helix/internal/evo"
	"helix/internal/genotype"
	"helix/internal/logging"
	"helix/internal/model"
	"helix/internal/scape"
	"helix/internal/storage"
)

type outcome struct {
	result   evo.RunResult
	champion model.Champion
}

// evolveScape builds the population for one run and drives it through a
// Monitor. Owned and borrowed runs draw their initial genomes and every
// later decision from the same seeded source, so a seed reproduces the
// same trajectory under either storage policy.
func evolveScape[L chromosome.Chromosome[L]](
	ctx context.Context,
	req RunRequest,
	logger *logging.Logger,
	loss func(genotype.Genome[L]) float64,
	genesis func(chromosome.Rand) genotype.Genome[L],
	encode func(L) (float64, uint64),
) (outcome, error) {
	cfg := evo.MonitorConfig{
		Threshold:      req.Threshold,
		MaxGenerations: req.MaxGenerations,
		Logger:         logger,
		OnGeneration:   req.OnGeneration,
	}
	rng := rand.New(rand.NewSource(req.Seed))

	if req.GenomeStorage == StorageBorrowed {
		genomes := make([]genotype.Genome[L], req.Population)
		for i := range genomes {
			genomes[i] = genesis(rng)
		}
		pop, err := evo.NewBorrowed[L](req.Population, req.Settings, func(ind *genotype.Borrowed[L]) float64 {
			return loss(ind.Genome())
		}, evo.WithRand(rng))
		if err != nil {
			return outcome{}, err
		}
		for i := range genomes {
			if err := pop.Adopt(genotype.NewBorrowed(&genomes[i])); err != nil {
				return outcome{}, err
			}
		}
		return monitor(ctx, pop, cfg, encode)
	}

	pop, err := evo.NewOwned[L](req.Population, req.Settings, func(ind *genotype.Owned[L]) float64 {
		return loss(ind.Genome())
	}, evo.WithRand(rng))
	if err != nil {
		return outcome{}, err
	}
	pop.Initialize(genesis)
	return monitor(ctx, pop, cfg, encode)
}

func monitor[L chromosome.Chromosome[L], I genotype.Individual[L]](
	ctx context.Context,
	pop *evo.Population[L, I],
	cfg evo.MonitorConfig,
	encode func(L) (float64, uint64),
) (outcome, error) {
	mon, err := evo.NewMonitor(pop, cfg)
	if err != nil {
		return outcome{}, err
	}
	result, err := mon.Run(ctx)
	if err != nil && !errors.Is(err, evo.ErrGenerationLimit) {
		return outcome{}, err
	}

	champion := model.Champion{
		VersionedRecord: storage.Versioned(),
		Values:          []model.Float{},
		Bits:            []uint64{},
	}
	if best, loss, ok := pop.Best(); ok {
		champion.Loss = model.Float(loss)
		for _, locus := range best.Genotype().Loci() {
			value, pattern := encode(locus)
			champion.Values = append(champion.Values, model.Float(value))
			champion.Bits = append(champion.Bits, pattern)
		}
	}
	return outcome{result: result, champion: champion}, nil
}

func encodeFloat(locus chromosome.Float) (float64, uint64) {
	return float64(locus), bits.Bits64(locus)
}

func encodeOrdered[T bits.Number](locus chromosome.Ordered[T]) (float64, uint64) {
	v := locus.Value
	return float64(v), bits.Of(&v).Uint64()
}

func weightedGenesis[T bits.Number](s scape.OrderedScape[T], weight float32) func(chromosome.Rand) genotype.Genome[chromosome.Ordered[T]] {
	return func(rng chromosome.Rand) genotype.Genome[chromosome.Ordered[T]] {
		return s.Genesis(rng, weight)
	}
}
