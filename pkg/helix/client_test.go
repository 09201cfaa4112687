package helix

import (
	"context"
	"math"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"helix/internal/env"
	"helix/internal/model"
	"helix/internal/scape"
	"helix/internal/stats"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	client, err := New(Options{StoreKind: "memory"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	var tick atomic.Int64
	client.now = func() time.Time {
		return time.UnixMilli(1_700_000_000_000 + tick.Add(1000))
	}
	return client
}

func TestRunConvergesAndPersists(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	summary, err := client.Run(ctx, RunRequest{Scape: "sphere", Threshold: 0.001, Seed: 3})
	require.NoError(t, err)
	assert.True(t, summary.Converged)
	assert.NotEmpty(t, summary.RunID)
	assert.Len(t, summary.BestByGeneration, summary.Generations)
	assert.LessOrEqual(t, summary.BestByGeneration[len(summary.BestByGeneration)-1], 0.001)
	assert.LessOrEqual(t, summary.FinalLoss, 0.001)

	runs, err := client.Runs(ctx, RunsRequest{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	run := runs[0]
	assert.Equal(t, summary.RunID, run.ID)
	assert.Equal(t, model.LocusFloat, run.LocusKind)
	assert.Equal(t, defaultPopulation, run.PopulationSize)
	assert.Equal(t, env.DefaultMutateProb, run.MutateProb)
	assert.Equal(t, StorageOwned, run.GenomeStorage)

	history, err := client.LossHistory(ctx, LookupRequest{RunID: summary.RunID})
	require.NoError(t, err)
	assert.Equal(t, summary.BestByGeneration, history)

	diagnostics, err := client.Diagnostics(ctx, LookupRequest{Latest: true})
	require.NoError(t, err)
	require.Len(t, diagnostics, summary.Generations)
	assert.Equal(t, 0, diagnostics[0].Generation)

	champion, err := client.Champion(ctx, LookupRequest{Latest: true})
	require.NoError(t, err)
	require.Len(t, champion.Values, 2)
	assert.LessOrEqual(t, float64(champion.Loss), 0.001)
	assert.InDelta(t, scape.Sphere.Evaluate(model.Float64s(champion.Values)), float64(champion.Loss), 1e-12)
	for i, v := range champion.Values {
		assert.Equal(t, math.Float64bits(float64(v)), champion.Bits[i])
	}
}

func TestRunStopsAtGenerationCapWithoutError(t *testing.T) {
	client := newTestClient(t)
	summary, err := client.Run(context.Background(), RunRequest{
		Scape:          "onemax",
		Threshold:      -1,
		MaxGenerations: 3,
		Weight:         2,
	})
	require.NoError(t, err)
	assert.False(t, summary.Converged)
	assert.Equal(t, 3, summary.Generations)
	assert.Len(t, summary.Champion, 4)
}

func TestRunReportsEachGeneration(t *testing.T) {
	client := newTestClient(t)

	var seen []model.GenerationDiagnostics
	summary, err := client.Run(context.Background(), RunRequest{
		Scape:          "rastrigin",
		Threshold:      -1,
		MaxGenerations: 9,
		OnGeneration: func(d model.GenerationDiagnostics) {
			seen = append(seen, d)
		},
	})
	require.NoError(t, err)
	require.Len(t, seen, summary.Generations)
	for i, d := range seen {
		assert.Equal(t, i, d.Generation)
		assert.Equal(t, summary.BestByGeneration[i], float64(d.BestLoss))
	}
}

func TestRunOrderedIntegerChampionBits(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)
	_, err := client.Run(ctx, RunRequest{Scape: "target-int", Threshold: -1, MaxGenerations: 20, Seed: 9})
	require.NoError(t, err)

	champion, err := client.Champion(ctx, LookupRequest{Latest: true})
	require.NoError(t, err)
	require.Len(t, champion.Values, len(scape.TargetIntGoal))
	for i, v := range champion.Values {
		assert.Equal(t, uint64(int64(v)), champion.Bits[i])
	}
}

func TestOwnedAndBorrowedRunsMatchForSeed(t *testing.T) {
	client := newTestClient(t)
	req := RunRequest{Scape: "rosenbrock", Threshold: -1, MaxGenerations: 60, Seed: 21}

	owned, err := client.Run(context.Background(), req)
	require.NoError(t, err)

	req.GenomeStorage = StorageBorrowed
	borrowed, err := client.Run(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, owned.BestByGeneration, borrowed.BestByGeneration)
	assert.Equal(t, owned.Champion, borrowed.Champion)
	assert.NotEqual(t, owned.RunID, borrowed.RunID)
}

func TestRunRejectsBadRequests(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	_, err := client.Run(ctx, RunRequest{Scape: "nope"})
	assert.ErrorIs(t, err, scape.ErrUnknownScape)

	_, err = client.Run(ctx, RunRequest{GenomeStorage: "shared"})
	assert.Error(t, err)

	_, err = client.Run(ctx, RunRequest{Settings: env.Settings{CrossoverProb: 1.5}})
	assert.ErrorIs(t, err, env.ErrInvalidSettings)

	_, err = client.Run(ctx, RunRequest{Population: -3})
	assert.Error(t, err)
}

func TestRunHonoursCancellation(t *testing.T) {
	client := newTestClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Run(ctx, RunRequest{Scape: "sphere", Threshold: -1})
	require.ErrorIs(t, err, context.Canceled)

	runs, err := client.Runs(context.Background(), RunsRequest{})
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestLookupResolution(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	_, err := client.LossHistory(ctx, LookupRequest{Latest: true})
	assert.ErrorIs(t, err, ErrNoRuns)
	_, err = client.LossHistory(ctx, LookupRequest{RunID: "x", Latest: true})
	assert.Error(t, err)
	_, err = client.Diagnostics(ctx, LookupRequest{})
	assert.Error(t, err)
	_, err = client.Champion(ctx, LookupRequest{RunID: "missing"})
	assert.Error(t, err)

	first, err := client.Run(ctx, RunRequest{Scape: "booth", Threshold: -1, MaxGenerations: 5})
	require.NoError(t, err)
	second, err := client.Run(ctx, RunRequest{Scape: "himmelblau", Threshold: -1, MaxGenerations: 7})
	require.NoError(t, err)

	history, err := client.LossHistory(ctx, LookupRequest{Latest: true})
	require.NoError(t, err)
	assert.Len(t, history, 7)

	history, err = client.LossHistory(ctx, LookupRequest{RunID: first.RunID, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, first.BestByGeneration[:2], history)

	runs, err := client.Runs(ctx, RunsRequest{Limit: 1})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, second.RunID, runs[0].ID)
}

func TestBenchmarkRunsSeedsConcurrently(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	summary, err := client.Benchmark(ctx, BenchmarkRequest{
		RunRequest:  RunRequest{Scape: "sphere", Threshold: 0.001, Seed: 100},
		Seeds:       4,
		Parallelism: 2,
	})
	require.NoError(t, err)
	require.Len(t, summary.Runs, 4)
	assert.Equal(t, 4, summary.ConvergedCount)
	assert.Len(t, summary.BestPlot, 4)
	assert.NotEmpty(t, summary.AveragePlot)

	seeds := map[int64]bool{}
	for _, run := range summary.Runs {
		seeds[run.Seed] = true
	}
	assert.Equal(t, map[int64]bool{100: true, 101: true, 102: true, 103: true}, seeds)

	runs, err := client.Runs(ctx, RunsRequest{})
	require.NoError(t, err)
	require.Len(t, runs, 4)
	for _, run := range runs {
		assert.Equal(t, summary.BenchmarkID, run.BenchmarkID)
	}
}

func TestExportWritesRunArtifacts(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	_, err := client.Export(ctx, ExportRequest{Latest: true})
	assert.Error(t, err, "output directory is required")
	_, err = client.Export(ctx, ExportRequest{Latest: true, OutDir: t.TempDir()})
	assert.ErrorIs(t, err, ErrNoRuns)

	summary, err := client.Run(ctx, RunRequest{Scape: "booth", Threshold: -1, MaxGenerations: 6})
	require.NoError(t, err)

	out := t.TempDir()
	exported, err := client.Export(ctx, ExportRequest{Latest: true, OutDir: out})
	require.NoError(t, err)
	assert.Equal(t, summary.RunID, exported.RunID)
	assert.Equal(t, filepath.Join(out, summary.RunID), exported.Dir)

	series, ok, err := stats.ReadLossSeries(exported.Dir)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, summary.BestByGeneration, series)
}

func TestScapesListsRegistry(t *testing.T) {
	client := newTestClient(t)
	items := client.Scapes()
	require.Len(t, items, len(scape.Names()))

	byName := map[string]ScapeItem{}
	for _, item := range items {
		byName[item.Name] = item
	}
	assert.Equal(t, model.LocusOrderedI64, byName["target-int"].Kind)
	assert.Equal(t, 2, byName["sphere"].Dimensions)
}
