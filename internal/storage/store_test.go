package storage

import (
	"context"
	"math"
	"testing"

	"helix/internal/model"
)

func sampleRun(id string, createdAt int64) model.RunRecord {
	return model.RunRecord{
		VersionedRecord:    Versioned(),
		ID:                 id,
		CreatedAtUnixMilli: createdAt,
		Scape:              "sphere",
		LocusKind:          model.LocusFloat,
		PopulationSize:     40,
		Seed:               7,
		Threshold:          0.001,
		MaxGenerations:     500,
		CrossoverProb:      0.5,
		SwapHomologousProb: 0.25,
		MutateProb:         0.1,
		SpawnPercentage:    0.25,
		Generations:        12,
		Converged:          true,
		FinalLoss:          0.0004,
	}
}

// exerciseStore checks the Store contract against an initialized store.
func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := store.GetRun(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected missing run, got ok=%v err=%v", ok, err)
	}

	for _, run := range []model.RunRecord{
		sampleRun("run-b", 2000),
		sampleRun("run-a", 1000),
		sampleRun("run-c", 2000),
	} {
		if err := store.SaveRun(ctx, run); err != nil {
			t.Fatalf("save run %s: %v", run.ID, err)
		}
	}

	updated := sampleRun("run-a", 3000)
	updated.FinalLoss = model.Float(math.Inf(1))
	updated.Converged = false
	if err := store.SaveRun(ctx, updated); err != nil {
		t.Fatalf("overwrite run: %v", err)
	}

	run, ok, err := store.GetRun(ctx, "run-a")
	if err != nil || !ok {
		t.Fatalf("get run: ok=%v err=%v", ok, err)
	}
	if !math.IsInf(float64(run.FinalLoss), 1) || run.Converged {
		t.Fatalf("expected overwritten run, got %+v", run)
	}

	runs, err := store.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	gotIDs := make([]string, 0, len(runs))
	for _, r := range runs {
		gotIDs = append(gotIDs, r.ID)
	}
	want := []string{"run-a", "run-b", "run-c"}
	if len(gotIDs) != len(want) {
		t.Fatalf("unexpected run ids: %v", gotIDs)
	}
	for i := range want {
		if gotIDs[i] != want[i] {
			t.Fatalf("unexpected run order: got %v want %v", gotIDs, want)
		}
	}

	limited, err := store.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("list limited: %v", err)
	}
	if len(limited) != 2 || limited[0].ID != "run-a" {
		t.Fatalf("unexpected limited runs: %+v", limited)
	}

	history := []float64{3.5, 1.25, math.NaN(), 0.0004}
	if err := store.SaveLossHistory(ctx, "run-a", history); err != nil {
		t.Fatalf("save history: %v", err)
	}
	history[0] = 99
	loaded, ok, err := store.GetLossHistory(ctx, "run-a")
	if err != nil || !ok {
		t.Fatalf("get history: ok=%v err=%v", ok, err)
	}
	if len(loaded) != 4 || loaded[0] != 3.5 || !math.IsNaN(loaded[2]) || loaded[3] != 0.0004 {
		t.Fatalf("unexpected history: %v", loaded)
	}
	if _, ok, err := store.GetLossHistory(ctx, "run-z"); err != nil || ok {
		t.Fatalf("expected missing history, got ok=%v err=%v", ok, err)
	}

	diagnostics := []model.GenerationDiagnostics{
		{Generation: 0, BestLoss: 3.5, MeanLoss: 5, MedianLoss: 4.5, StdDevLoss: 1, WorstLoss: 9, NaNCount: 1},
		{Generation: 1, BestLoss: 1.25, MeanLoss: model.Float(math.NaN()), NaNCount: 40},
	}
	if err := store.SaveGenerationDiagnostics(ctx, "run-a", diagnostics); err != nil {
		t.Fatalf("save diagnostics: %v", err)
	}
	gotDiag, ok, err := store.GetGenerationDiagnostics(ctx, "run-a")
	if err != nil || !ok {
		t.Fatalf("get diagnostics: ok=%v err=%v", ok, err)
	}
	if len(gotDiag) != 2 || gotDiag[0].MedianLoss != 4.5 || gotDiag[1].NaNCount != 40 || !math.IsNaN(float64(gotDiag[1].MeanLoss)) {
		t.Fatalf("unexpected diagnostics: %+v", gotDiag)
	}

	champion := model.Champion{
		VersionedRecord: Versioned(),
		RunID:           "run-a",
		Loss:            0.0004,
		Values:          []model.Float{0.01, -0.02},
		Bits:            []uint64{math.Float64bits(0.01), math.Float64bits(-0.02)},
	}
	if err := store.SaveChampion(ctx, champion); err != nil {
		t.Fatalf("save champion: %v", err)
	}
	gotChampion, ok, err := store.GetChampion(ctx, "run-a")
	if err != nil || !ok {
		t.Fatalf("get champion: ok=%v err=%v", ok, err)
	}
	if gotChampion.Loss != 0.0004 || len(gotChampion.Values) != 2 || gotChampion.Bits[1] != math.Float64bits(-0.02) {
		t.Fatalf("unexpected champion: %+v", gotChampion)
	}
	if _, ok, err := store.GetChampion(ctx, "run-b"); err != nil || ok {
		t.Fatalf("expected missing champion, got ok=%v err=%v", ok, err)
	}

	exerciseBundle(t, store)
}

func sampleBundle(id string, createdAt int64) RunBundle {
	return RunBundle{
		Run:         sampleRun(id, createdAt),
		LossHistory: []float64{2, 1, 0.0004},
		Diagnostics: []model.GenerationDiagnostics{{Generation: 0, BestLoss: 2}},
		Champion: model.Champion{
			VersionedRecord: Versioned(),
			RunID:           id,
			Loss:            0.0004,
			Values:          []model.Float{0.02},
			Bits:            []uint64{math.Float64bits(0.02)},
		},
	}
}

// exerciseBundle checks that SaveRunBundle writes everything or nothing.
func exerciseBundle(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	if err := store.SaveRunBundle(ctx, sampleBundle("bundle-ok", 5000)); err != nil {
		t.Fatalf("save bundle: %v", err)
	}
	if _, ok, err := store.GetRun(ctx, "bundle-ok"); err != nil || !ok {
		t.Fatalf("get bundled run: ok=%v err=%v", ok, err)
	}
	history, ok, err := store.GetLossHistory(ctx, "bundle-ok")
	if err != nil || !ok || len(history) != 3 {
		t.Fatalf("get bundled history: %v ok=%v err=%v", history, ok, err)
	}
	if _, ok, err := store.GetGenerationDiagnostics(ctx, "bundle-ok"); err != nil || !ok {
		t.Fatalf("get bundled diagnostics: ok=%v err=%v", ok, err)
	}
	if champion, ok, err := store.GetChampion(ctx, "bundle-ok"); err != nil || !ok || champion.Loss != 0.0004 {
		t.Fatalf("get bundled champion: %+v ok=%v err=%v", champion, ok, err)
	}

	mismatched := sampleBundle("bundle-bad", 6000)
	mismatched.Champion.Bits = nil
	if err := store.SaveRunBundle(ctx, mismatched); err == nil {
		t.Fatal("expected mismatched champion to be rejected")
	}
	foreign := sampleBundle("bundle-foreign", 6000)
	foreign.Champion.RunID = "someone-else"
	if err := store.SaveRunBundle(ctx, foreign); err == nil {
		t.Fatal("expected champion of another run to be rejected")
	}
	for _, id := range []string{"bundle-bad", "bundle-foreign"} {
		if _, ok, err := store.GetRun(ctx, id); err != nil || ok {
			t.Fatalf("rejected bundle %s left a run behind: ok=%v err=%v", id, ok, err)
		}
		if _, ok, err := store.GetLossHistory(ctx, id); err != nil || ok {
			t.Fatalf("rejected bundle %s left history behind: ok=%v err=%v", id, ok, err)
		}
	}

	latest, err := store.ListRuns(ctx, 1)
	if err != nil || len(latest) != 1 || latest[0].ID != "bundle-ok" {
		t.Fatalf("latest run should be the committed bundle, got %+v err=%v", latest, err)
	}
}
