package storage

import (
	"context"
	"errors"
	"fmt"

	"helix/internal/model"
)

var ErrNotInitialized = errors.New("store is not initialized")

// Store persists finished runs and their artifacts, keyed by run ID.
// Get methods report a missing record with ok=false and a nil error.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, id string) (model.RunRecord, bool, error)
	// ListRuns returns runs newest first. limit <= 0 returns all of them.
	ListRuns(ctx context.Context, limit int) ([]model.RunRecord, error)
	SaveLossHistory(ctx context.Context, runID string, history []float64) error
	GetLossHistory(ctx context.Context, runID string) ([]float64, bool, error)
	SaveGenerationDiagnostics(ctx context.Context, runID string, diagnostics []model.GenerationDiagnostics) error
	GetGenerationDiagnostics(ctx context.Context, runID string) ([]model.GenerationDiagnostics, bool, error)
	SaveChampion(ctx context.Context, champion model.Champion) error
	GetChampion(ctx context.Context, runID string) (model.Champion, bool, error)
	// SaveRunBundle stores a run and its artifacts together: either all of
	// them become visible or none do.
	SaveRunBundle(ctx context.Context, bundle RunBundle) error
}

// RunBundle is a finished run with everything recorded about it.
type RunBundle struct {
	Run         model.RunRecord
	LossHistory []float64
	Diagnostics []model.GenerationDiagnostics
	Champion    model.Champion
}

func (b RunBundle) validate() error {
	if b.Run.ID == "" {
		return errors.New("run id is required")
	}
	if b.Champion.RunID != b.Run.ID {
		return fmt.Errorf("champion run id %q does not match run %q", b.Champion.RunID, b.Run.ID)
	}
	if len(b.Champion.Values) != len(b.Champion.Bits) {
		return fmt.Errorf("champion for run %s has %d values and %d bit patterns",
			b.Run.ID, len(b.Champion.Values), len(b.Champion.Bits))
	}
	return nil
}

// newerFirst orders runs by creation time descending, then by ID.
func newerFirst(a, b model.RunRecord) int {
	switch {
	case a.CreatedAtUnixMilli > b.CreatedAtUnixMilli:
		return -1
	case a.CreatedAtUnixMilli < b.CreatedAtUnixMilli:
		return 1
	case a.ID < b.ID:
		return -1
	case a.ID > b.ID:
		return 1
	default:
		return 0
	}
}
