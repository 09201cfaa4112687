package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

type PlotPoint struct {
	Index int     `json:"index"`
	Value float64 `json:"value"`
}

// BuildAveragePlot averages per-generation values across runs of different
// lengths. Point k averages the k-th value of every run that reached it.
func BuildAveragePlot(lists [][]float64, startIndex, step int) []PlotPoint {
	if step <= 0 {
		step = 1
	}
	if startIndex < 0 {
		startIndex = 0
	}

	longest := 0
	for _, list := range lists {
		longest = max(longest, len(list))
	}

	points := make([]PlotPoint, 0, longest)
	values := make([]float64, 0, len(lists))
	for k := 0; k < longest; k++ {
		values = values[:0]
		for _, list := range lists {
			if k < len(list) && !math.IsNaN(list[k]) {
				values = append(values, list[k])
			}
		}
		if len(values) == 0 {
			continue
		}
		points = append(points, PlotPoint{Index: startIndex + k*step, Value: stat.Mean(values, nil)})
	}
	return points
}

// BuildBestPlot returns the lowest value of each run, one point per run.
func BuildBestPlot(lists [][]float64, startIndex, step int) []PlotPoint {
	if step <= 0 {
		step = 1
	}
	if startIndex < 0 {
		startIndex = 0
	}
	points := make([]PlotPoint, 0, len(lists))
	index := startIndex
	for _, list := range lists {
		if len(list) == 0 {
			continue
		}
		points = append(points, PlotPoint{Index: index, Value: minFloat(list)})
		index += step
	}
	return points
}

func minFloat(values []float64) float64 {
	best := math.Inf(1)
	for _, v := range values {
		if v < best {
			best = v
		}
	}
	return best
}
