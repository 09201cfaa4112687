package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"helix/internal/model"
)

// Summarize builds the diagnostics for one generation. losses must be sorted
// ascending with NaN last, as returned by Population.Losses. Mean, median and
// spread are taken over the non-NaN prefix.
func Summarize(generation int, best float64, losses []float64) model.GenerationDiagnostics {
	ranked := losses
	for len(ranked) > 0 && math.IsNaN(ranked[len(ranked)-1]) {
		ranked = ranked[:len(ranked)-1]
	}

	d := model.GenerationDiagnostics{
		Generation: generation,
		BestLoss:   model.Float(best),
		NaNCount:   len(losses) - len(ranked),
	}
	if len(ranked) == 0 {
		nan := model.Float(math.NaN())
		d.MeanLoss, d.MedianLoss, d.StdDevLoss, d.WorstLoss = nan, nan, nan, nan
		return d
	}

	d.MeanLoss = model.Float(stat.Mean(ranked, nil))
	d.MedianLoss = model.Float(stat.Quantile(0.5, stat.Empirical, ranked, nil))
	d.WorstLoss = model.Float(ranked[len(ranked)-1])
	if len(ranked) > 1 {
		d.StdDevLoss = model.Float(stat.StdDev(ranked, nil))
	}
	return d
}
