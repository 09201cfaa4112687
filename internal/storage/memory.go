package storage

import (
	"context"
	"slices"
	"sync"

	"helix/internal/model"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	runs        map[string]model.RunRecord
	history     map[string][]float64
	diagnostics map[string][]model.GenerationDiagnostics
	champions   map[string]model.Champion
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.runs = make(map[string]model.RunRecord)
	s.history = make(map[string][]float64)
	s.diagnostics = make(map[string][]model.GenerationDiagnostics)
	s.champions = make(map[string]model.Champion)
	return nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run model.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	s.runs[run.ID] = run
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (model.RunRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return model.RunRecord{}, false, ErrNotInitialized
	}
	run, ok := s.runs[id]
	return run, ok, nil
}

func (s *MemoryStore) ListRuns(_ context.Context, limit int) ([]model.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, ErrNotInitialized
	}
	runs := make([]model.RunRecord, 0, len(s.runs))
	for _, run := range s.runs {
		runs = append(runs, run)
	}
	slices.SortFunc(runs, newerFirst)
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

func (s *MemoryStore) SaveLossHistory(_ context.Context, runID string, history []float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	s.history[runID] = slices.Clone(history)
	return nil
}

func (s *MemoryStore) GetLossHistory(_ context.Context, runID string) ([]float64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, false, ErrNotInitialized
	}
	history, ok := s.history[runID]
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(history), true, nil
}

func (s *MemoryStore) SaveGenerationDiagnostics(_ context.Context, runID string, diagnostics []model.GenerationDiagnostics) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	s.diagnostics[runID] = slices.Clone(diagnostics)
	return nil
}

func (s *MemoryStore) GetGenerationDiagnostics(_ context.Context, runID string) ([]model.GenerationDiagnostics, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, false, ErrNotInitialized
	}
	diagnostics, ok := s.diagnostics[runID]
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(diagnostics), true, nil
}

func (s *MemoryStore) SaveChampion(_ context.Context, champion model.Champion) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	champion.Values = slices.Clone(champion.Values)
	champion.Bits = slices.Clone(champion.Bits)
	s.champions[champion.RunID] = champion
	return nil
}

func (s *MemoryStore) GetChampion(_ context.Context, runID string) (model.Champion, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return model.Champion{}, false, ErrNotInitialized
	}
	champion, ok := s.champions[runID]
	if !ok {
		return model.Champion{}, false, nil
	}
	champion.Values = slices.Clone(champion.Values)
	champion.Bits = slices.Clone(champion.Bits)
	return champion, true, nil
}

func (s *MemoryStore) SaveRunBundle(_ context.Context, bundle RunBundle) error {
	if err := bundle.validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	id := bundle.Run.ID
	champion := bundle.Champion
	champion.Values = slices.Clone(champion.Values)
	champion.Bits = slices.Clone(champion.Bits)

	s.runs[id] = bundle.Run
	s.history[id] = slices.Clone(bundle.LossHistory)
	s.diagnostics[id] = slices.Clone(bundle.Diagnostics)
	s.champions[id] = champion
	return nil
}
