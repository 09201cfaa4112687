// Package helix runs evolutionary searches over the built-in scapes and
// keeps their results in a store.
package helix

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"helix/internal/env"
	"helix/internal/logging"
	"helix/internal/model"
	"helix/internal/scape"
	"helix/internal/stats"
	"helix/internal/storage"
)

const (
	defaultDBPath         = "helix.db"
	defaultScape          = "sphere"
	defaultPopulation     = 40
	defaultMaxGenerations = 5000
	defaultSeeds          = 4
)

// Genome storage policies.
const (
	StorageOwned    = "owned"
	StorageBorrowed = "borrowed"
)

var ErrNoRuns = errors.New("no runs available")

type Options struct {
	StoreKind string
	DBPath    string
	Logger    *logging.Logger
}

type Client struct {
	store  storage.Store
	logger *logging.Logger
	now    func() time.Time

	initMu      sync.Mutex
	initialized bool
}

type RunRequest struct {
	Scape      string
	Population int
	// Threshold ends the run once a generation's best loss is <= Threshold.
	Threshold float64
	// MaxGenerations caps the run; <= 0 selects the default cap.
	MaxGenerations int
	Seed           int64
	// Settings left at the zero value select env.Default().
	Settings env.Settings
	// Weight biases bit selection on ordered scapes; 0 is unbiased.
	Weight float32
	// GenomeStorage is StorageOwned (default) or StorageBorrowed.
	GenomeStorage string
	// OnGeneration, when set, sees each generation's diagnostics as the run
	// progresses. Benchmark calls it from several goroutines at once.
	OnGeneration func(model.GenerationDiagnostics)

	benchmarkID string
}

type RunSummary struct {
	RunID            string
	Scape            string
	Seed             int64
	Generations      int
	Converged        bool
	FinalLoss        float64
	BestByGeneration []float64
	Champion         []float64
}

type BenchmarkRequest struct {
	RunRequest
	// Seeds is the number of independent runs, seeded Seed, Seed+1, ...
	Seeds int
	// Parallelism bounds concurrent runs; <= 0 uses GOMAXPROCS.
	Parallelism int
}

type BenchmarkSummary struct {
	BenchmarkID     string
	Runs            []RunSummary
	ConvergedCount  int
	MeanGenerations float64
	AveragePlot     []stats.PlotPoint
	BestPlot        []stats.PlotPoint
}

type RunsRequest struct {
	Limit int
}

// LookupRequest selects one stored run, either by ID or the most recent.
type LookupRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

// ExportRequest selects a stored run and the directory its artifacts are
// written under.
type ExportRequest struct {
	RunID  string
	Latest bool
	OutDir string
}

type ExportSummary struct {
	RunID string
	Dir   string
}

type ScapeItem struct {
	Name        string
	Description string
	Kind        model.LocusKind
	Dimensions  int
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Noop()
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:  store,
		logger: logger,
		now:    time.Now,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	c.initMu.Lock()
	defer c.initMu.Unlock()

	if c.initialized {
		return nil
	}
	if err := c.store.Init(ctx); err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	c.initialized = true
	return nil
}

// Run evolves one population on req.Scape and persists the run record, its
// loss history, diagnostics and champion. Hitting the generation cap is not
// an error: the run is stored with Converged false.
func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	req, err := normalizeRunRequest(req)
	if err != nil {
		return RunSummary{}, err
	}
	sc, err := scape.Lookup(req.Scape)
	if err != nil {
		return RunSummary{}, err
	}
	req.Scape = sc.Name()
	if err := c.Init(ctx); err != nil {
		return RunSummary{}, err
	}

	runID := model.NewRunID()
	logger := c.logger.WithRun(runID)
	logger.InfoContext(ctx, "run started",
		"scape", req.Scape,
		"population", req.Population,
		"seed", req.Seed,
		"storage", req.GenomeStorage,
	)

	var out outcome
	switch s := sc.(type) {
	case scape.FloatScape:
		out, err = evolveScape(ctx, req, logger, s.Loss, s.Genesis, encodeFloat)
	case scape.OrderedScape[uint64]:
		out, err = evolveScape(ctx, req, logger, s.Loss, weightedGenesis(s, req.Weight), encodeOrdered[uint64])
	case scape.OrderedScape[int64]:
		out, err = evolveScape(ctx, req, logger, s.Loss, weightedGenesis(s, req.Weight), encodeOrdered[int64])
	default:
		return RunSummary{}, fmt.Errorf("scape %s has unsupported locus kind %s", sc.Name(), sc.Kind())
	}
	if err != nil {
		return RunSummary{}, err
	}

	record := model.RunRecord{
		VersionedRecord:    storage.Versioned(),
		ID:                 runID,
		CreatedAtUnixMilli: c.now().UTC().UnixMilli(),
		Scape:              req.Scape,
		LocusKind:          sc.Kind(),
		PopulationSize:     req.Population,
		Seed:               req.Seed,
		Threshold:          req.Threshold,
		MaxGenerations:     req.MaxGenerations,
		CrossoverProb:      req.Settings.CrossoverProb,
		SwapHomologousProb: req.Settings.SwapHomologousProb,
		MutateProb:         req.Settings.MutateProb,
		SpawnPercentage:    req.Settings.SpawnPercentage,
		Weight:             req.Weight,
		GenomeStorage:      req.GenomeStorage,
		Generations:        out.result.Generations,
		Converged:          out.result.Converged,
		FinalLoss:          model.Float(out.result.FinalLoss),
		BenchmarkID:        req.benchmarkID,
	}
	out.champion.RunID = runID

	if err := c.persist(ctx, record, out); err != nil {
		return RunSummary{}, err
	}

	return RunSummary{
		RunID:            runID,
		Scape:            req.Scape,
		Seed:             req.Seed,
		Generations:      out.result.Generations,
		Converged:        out.result.Converged,
		FinalLoss:        out.result.FinalLoss,
		BestByGeneration: out.result.BestByGeneration,
		Champion:         model.Float64s(out.champion.Values),
	}, nil
}

// Benchmark runs the same request under Seeds consecutive seeds, each on
// its own population and goroutine, and aggregates their loss curves.
func (c *Client) Benchmark(ctx context.Context, req BenchmarkRequest) (BenchmarkSummary, error) {
	if req.Seeds < 0 {
		return BenchmarkSummary{}, errors.New("seeds must be >= 0")
	}
	if req.Seeds == 0 {
		req.Seeds = defaultSeeds
	}
	if req.Parallelism <= 0 {
		req.Parallelism = runtime.GOMAXPROCS(0)
	}
	if err := c.Init(ctx); err != nil {
		return BenchmarkSummary{}, err
	}

	benchmarkID := model.NewRunID()
	runs := make([]RunSummary, req.Seeds)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(req.Parallelism)
	for i := 0; i < req.Seeds; i++ {
		i := i
		runReq := req.RunRequest
		runReq.Seed = req.Seed + int64(i)
		runReq.benchmarkID = benchmarkID
		g.Go(func() error {
			summary, err := c.Run(gctx, runReq)
			if err != nil {
				return fmt.Errorf("seed %d: %w", runReq.Seed, err)
			}
			runs[i] = summary
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return BenchmarkSummary{}, err
	}

	out := BenchmarkSummary{BenchmarkID: benchmarkID, Runs: runs}
	curves := make([][]float64, 0, len(runs))
	totalGenerations := 0
	for _, run := range runs {
		if run.Converged {
			out.ConvergedCount++
		}
		totalGenerations += run.Generations
		curves = append(curves, run.BestByGeneration)
	}
	out.MeanGenerations = float64(totalGenerations) / float64(len(runs))
	out.AveragePlot = stats.BuildAveragePlot(curves, 0, 1)
	out.BestPlot = stats.BuildBestPlot(curves, 0, 1)

	c.logger.InfoContext(ctx, "benchmark finished",
		"benchmark_id", benchmarkID,
		"scape", req.Scape,
		"seeds", req.Seeds,
		"converged", out.ConvergedCount,
		"mean_generations", out.MeanGenerations,
	)
	return out, nil
}

func (c *Client) Runs(ctx context.Context, req RunsRequest) ([]model.RunRecord, error) {
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	if err := c.Init(ctx); err != nil {
		return nil, err
	}
	return c.store.ListRuns(ctx, req.Limit)
}

func (c *Client) LossHistory(ctx context.Context, req LookupRequest) ([]float64, error) {
	runID, err := c.resolveRunID(ctx, req, "loss history")
	if err != nil {
		return nil, err
	}
	history, ok, err := c.store.GetLossHistory(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("loss history not found for run id: %s", runID)
	}
	if req.Limit > 0 && len(history) > req.Limit {
		history = history[:req.Limit]
	}
	return history, nil
}

func (c *Client) Diagnostics(ctx context.Context, req LookupRequest) ([]model.GenerationDiagnostics, error) {
	runID, err := c.resolveRunID(ctx, req, "diagnostics")
	if err != nil {
		return nil, err
	}
	diagnostics, ok, err := c.store.GetGenerationDiagnostics(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("diagnostics not found for run id: %s", runID)
	}
	if req.Limit > 0 && len(diagnostics) > req.Limit {
		diagnostics = diagnostics[:req.Limit]
	}
	return diagnostics, nil
}

func (c *Client) Champion(ctx context.Context, req LookupRequest) (model.Champion, error) {
	runID, err := c.resolveRunID(ctx, req, "champion")
	if err != nil {
		return model.Champion{}, err
	}
	champion, ok, err := c.store.GetChampion(ctx, runID)
	if err != nil {
		return model.Champion{}, err
	}
	if !ok {
		return model.Champion{}, fmt.Errorf("champion not found for run id: %s", runID)
	}
	return champion, nil
}

// Export copies a stored run, its loss history, diagnostics and champion
// into OutDir/<run id>.
func (c *Client) Export(ctx context.Context, req ExportRequest) (ExportSummary, error) {
	if req.OutDir == "" {
		return ExportSummary{}, errors.New("output directory is required")
	}
	runID, err := c.resolveRunID(ctx, LookupRequest{RunID: req.RunID, Latest: req.Latest}, "export")
	if err != nil {
		return ExportSummary{}, err
	}

	run, ok, err := c.store.GetRun(ctx, runID)
	if err != nil {
		return ExportSummary{}, err
	}
	if !ok {
		return ExportSummary{}, fmt.Errorf("run not found: %s", runID)
	}
	history, _, err := c.store.GetLossHistory(ctx, runID)
	if err != nil {
		return ExportSummary{}, err
	}
	diagnostics, _, err := c.store.GetGenerationDiagnostics(ctx, runID)
	if err != nil {
		return ExportSummary{}, err
	}
	champion, _, err := c.store.GetChampion(ctx, runID)
	if err != nil {
		return ExportSummary{}, err
	}

	dir, err := stats.WriteRunArtifacts(req.OutDir, stats.RunArtifacts{
		Run:         run,
		LossHistory: history,
		Diagnostics: diagnostics,
		Champion:    champion,
	})
	if err != nil {
		return ExportSummary{}, fmt.Errorf("export run %s: %w", runID, err)
	}
	c.logger.InfoContext(ctx, "run exported", "run_id", runID, "dir", dir)
	return ExportSummary{RunID: runID, Dir: dir}, nil
}

func (c *Client) Scapes() []ScapeItem {
	names := scape.Names()
	out := make([]ScapeItem, 0, len(names))
	for _, name := range names {
		s, err := scape.Lookup(name)
		if err != nil {
			continue
		}
		out = append(out, ScapeItem{
			Name:        s.Name(),
			Description: s.Description(),
			Kind:        s.Kind(),
			Dimensions:  s.Dimensions(),
		})
	}
	return out
}

func (c *Client) resolveRunID(ctx context.Context, req LookupRequest, what string) (string, error) {
	if req.RunID != "" && req.Latest {
		return "", errors.New("use either run id or latest")
	}
	if req.Limit < 0 {
		return "", errors.New("limit must be >= 0")
	}
	if err := c.Init(ctx); err != nil {
		return "", err
	}
	if !req.Latest {
		if req.RunID == "" {
			return "", fmt.Errorf("%s requires run id or latest", what)
		}
		return req.RunID, nil
	}

	runs, err := c.store.ListRuns(ctx, 1)
	if err != nil {
		return "", err
	}
	if len(runs) == 0 {
		return "", ErrNoRuns
	}
	return runs[0].ID, nil
}

// persist stores the run and its artifacts as one bundle, so a run is never
// listed without its history, diagnostics and champion.
func (c *Client) persist(ctx context.Context, record model.RunRecord, out outcome) error {
	err := c.store.SaveRunBundle(ctx, storage.RunBundle{
		Run:         record,
		LossHistory: out.result.BestByGeneration,
		Diagnostics: out.result.Diagnostics,
		Champion:    out.champion,
	})
	if err != nil {
		return fmt.Errorf("save run %s: %w", record.ID, err)
	}
	return nil
}

func normalizeRunRequest(req RunRequest) (RunRequest, error) {
	if req.Scape == "" {
		req.Scape = defaultScape
	}
	if req.Population == 0 {
		req.Population = defaultPopulation
	}
	if req.Population < 0 {
		return RunRequest{}, errors.New("population must be > 0")
	}
	if req.MaxGenerations <= 0 {
		req.MaxGenerations = defaultMaxGenerations
	}
	if req.Settings == (env.Settings{}) {
		req.Settings = env.Default()
	}
	if err := req.Settings.Validate(); err != nil {
		return RunRequest{}, err
	}
	if req.Weight < 0 {
		return RunRequest{}, errors.New("weight must be >= 0")
	}
	switch req.GenomeStorage {
	case "":
		req.GenomeStorage = StorageOwned
	case StorageOwned, StorageBorrowed:
	default:
		return RunRequest{}, fmt.Errorf("unsupported genome storage: %s", req.GenomeStorage)
	}
	return req, nil
}
