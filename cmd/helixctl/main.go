package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/ncruces/go-strftime"

	"helix/internal/logging"
	"helix/internal/model"
	"helix/internal/storage"
	"helix/pkg/helix"
)

const (
	defaultDBPath  = "helix.db"
	timestampStyle = "%Y-%m-%d %H:%M:%S"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, os.Args[1:])
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "run":
		return runRun(ctx, args[1:])
	case "benchmark":
		return runBenchmark(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "history":
		return runHistory(ctx, args[1:])
	case "diagnostics":
		return runDiagnostics(ctx, args[1:])
	case "champion":
		return runChampion(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	case "scapes":
		return runScapes(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

type clientFlags struct {
	storeKind *string
	dbPath    *string
	logLevel  *string
}

func bindClientFlags(fs *flag.FlagSet) clientFlags {
	return clientFlags{
		storeKind: fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite"),
		dbPath:    fs.String("db-path", defaultDBPath, "sqlite database path"),
		logLevel:  fs.String("log-level", "info", "log level: debug|info|warn|error"),
	}
}

func (f clientFlags) open() (*helix.Client, error) {
	level, err := logging.ParseLevel(*f.logLevel)
	if err != nil {
		return nil, err
	}
	return helix.New(helix.Options{
		StoreKind: *f.storeKind,
		DBPath:    *f.dbPath,
		Logger:    logging.ForTerminal(os.Stderr, level),
	})
}

type runFlags struct {
	configPath     *string
	scape          *string
	population     *int
	threshold      *float64
	maxGenerations *int
	seed           *int64
	crossover      *float64
	swap           *float64
	mutate         *float64
	spawn          *float64
	weight         *float64
	storage        *string
}

func bindRunFlags(fs *flag.FlagSet) runFlags {
	d := defaultRunConfig()
	return runFlags{
		configPath:     fs.String("config", "", "optional run config JSON path"),
		scape:          fs.String("scape", d.Scape, "scape name (see the scapes command)"),
		population:     fs.Int("pop", d.Population, "population size"),
		threshold:      fs.Float64("threshold", d.Threshold, "stop once a generation's best loss is <= threshold"),
		maxGenerations: fs.Int("max-gens", d.MaxGenerations, "generation cap"),
		seed:           fs.Int64("seed", d.Seed, "rng seed"),
		crossover:      fs.Float64("crossover", d.CrossoverProb, "per-locus crossover probability"),
		swap:           fs.Float64("swap", d.SwapHomologousProb, "per-locus homologous swap probability"),
		mutate:         fs.Float64("mutate", d.MutateProb, "per-locus mutation probability"),
		spawn:          fs.Float64("spawn", d.SpawnPercentage, "fraction of the population replaced each generation"),
		weight:         fs.Float64("weight", d.Weight, "bit-position weight for ordered scapes (0 or 1 is unbiased)"),
		storage:        fs.String("storage", d.GenomeStorage, "genome storage: owned|borrowed"),
	}
}

// request merges defaults, the optional config file and the flags given
// explicitly on the command line, in that order of precedence.
func (f runFlags) request(fs *flag.FlagSet) (helix.RunRequest, error) {
	cfg := defaultRunConfig()
	if *f.configPath != "" {
		loaded, err := loadRunConfig(*f.configPath, cfg)
		if err != nil {
			return helix.RunRequest{}, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	setFlags := make(map[string]bool)
	fs.Visit(func(fl *flag.Flag) {
		setFlags[fl.Name] = true
	})
	err := overrideFromFlags(&cfg, setFlags, map[string]any{
		"scape":     *f.scape,
		"pop":       *f.population,
		"threshold": *f.threshold,
		"max-gens":  *f.maxGenerations,
		"seed":      *f.seed,
		"crossover": *f.crossover,
		"swap":      *f.swap,
		"mutate":    *f.mutate,
		"spawn":     *f.spawn,
		"weight":    *f.weight,
		"storage":   *f.storage,
	})
	if err != nil {
		return helix.RunRequest{}, err
	}
	return cfg.request()
}

func runRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	rf := bindRunFlags(fs)
	cf := bindClientFlags(fs)
	jsonOut := fs.Bool("json", false, "emit run summary as JSON")
	progressEvery := fs.Int("progress-every", 0, "report diagnostics every N generations on stderr (0 disables)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *progressEvery < 0 {
		return errors.New("progress-every must be >= 0")
	}
	req, err := rf.request(fs)
	if err != nil {
		return err
	}
	if *progressEvery > 0 {
		req.OnGeneration = progressReporter(progressOut, *progressEvery)
	}

	client, err := cf.open()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Run(ctx, req)
	if err != nil {
		return err
	}
	if *jsonOut {
		return writeJSON(struct {
			RunID       string        `json:"run_id"`
			Scape       string        `json:"scape"`
			Seed        int64         `json:"seed"`
			Generations int           `json:"generations"`
			Converged   bool          `json:"converged"`
			FinalLoss   model.Float   `json:"final_loss"`
			Champion    []model.Float `json:"champion"`
		}{
			RunID:       summary.RunID,
			Scape:       summary.Scape,
			Seed:        summary.Seed,
			Generations: summary.Generations,
			Converged:   summary.Converged,
			FinalLoss:   model.Float(summary.FinalLoss),
			Champion:    model.Floats(summary.Champion),
		})
	}
	fmt.Printf("run_id=%s scape=%s seed=%d generations=%s converged=%t final_loss=%g champion=%v\n",
		summary.RunID,
		summary.Scape,
		summary.Seed,
		humanize.Comma(int64(summary.Generations)),
		summary.Converged,
		summary.FinalLoss,
		summary.Champion,
	)
	return nil
}

// progressOut receives run progress lines.
var progressOut io.Writer = os.Stderr

func progressReporter(w io.Writer, every int) func(model.GenerationDiagnostics) {
	return func(d model.GenerationDiagnostics) {
		if d.Generation%every != 0 {
			return
		}
		fmt.Fprintf(w, "progress gen=%s best=%g mean=%g nan=%d\n",
			humanize.Comma(int64(d.Generation)),
			float64(d.BestLoss),
			float64(d.MeanLoss),
			d.NaNCount,
		)
	}
}

func runBenchmark(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("benchmark", flag.ContinueOnError)
	rf := bindRunFlags(fs)
	cf := bindClientFlags(fs)
	seeds := fs.Int("seeds", 4, "number of seeds, starting at -seed")
	parallelism := fs.Int("parallelism", 0, "max concurrent runs (<=0 uses GOMAXPROCS)")
	plotEvery := fs.Int("plot-every", 0, "print every n-th point of the averaged loss curve (0 disables)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *seeds <= 0 {
		return errors.New("seeds must be > 0")
	}
	req, err := rf.request(fs)
	if err != nil {
		return err
	}

	client, err := cf.open()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Benchmark(ctx, helix.BenchmarkRequest{
		RunRequest:  req,
		Seeds:       *seeds,
		Parallelism: *parallelism,
	})
	if err != nil {
		return err
	}

	fmt.Printf("benchmark_id=%s scape=%s seeds=%d converged=%d/%d mean_generations=%.1f\n",
		summary.BenchmarkID,
		req.Scape,
		len(summary.Runs),
		summary.ConvergedCount,
		len(summary.Runs),
		summary.MeanGenerations,
	)
	for _, r := range summary.Runs {
		fmt.Printf("run_id=%s seed=%d generations=%s converged=%t final_loss=%g\n",
			r.RunID, r.Seed, humanize.Comma(int64(r.Generations)), r.Converged, r.FinalLoss)
	}
	if *plotEvery > 0 {
		for i, point := range summary.AveragePlot {
			if i%*plotEvery == 0 || i == len(summary.AveragePlot)-1 {
				fmt.Printf("gen=%d avg_best=%g\n", point.Index, point.Value)
			}
		}
	}
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "max runs to list")
	jsonOut := fs.Bool("json", false, "emit runs list as JSON")
	cf := bindClientFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit <= 0 {
		return errors.New("limit must be > 0")
	}

	client, err := cf.open()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	runs, err := client.Runs(ctx, helix.RunsRequest{Limit: *limit})
	if err != nil {
		return err
	}
	if *jsonOut {
		return writeJSON(runs)
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}
	for _, r := range runs {
		created := time.UnixMilli(r.CreatedAtUnixMilli).UTC()
		fmt.Printf("run_id=%s created=%q (%s) scape=%s seed=%d pop=%d generations=%s converged=%t final_loss=%g\n",
			r.ID,
			strftime.Format(timestampStyle, created),
			humanize.Time(created),
			r.Scape,
			r.Seed,
			r.PopulationSize,
			humanize.Comma(int64(r.Generations)),
			r.Converged,
			float64(r.FinalLoss),
		)
	}
	return nil
}

type lookupFlags struct {
	runID  *string
	latest *bool
}

func bindLookupFlags(fs *flag.FlagSet) lookupFlags {
	return lookupFlags{
		runID:  fs.String("run-id", "", "run id"),
		latest: fs.Bool("latest", false, "use the most recent run"),
	}
}

func (f lookupFlags) validate(command string) error {
	if *f.runID != "" && *f.latest {
		return errors.New("use either --run-id or --latest, not both")
	}
	if *f.runID == "" && !*f.latest {
		return fmt.Errorf("%s requires --run-id or --latest", command)
	}
	return nil
}

func runHistory(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	lf := bindLookupFlags(fs)
	limit := fs.Int("limit", 50, "max generations to print (<=0 for all)")
	jsonOut := fs.Bool("json", false, "emit loss history as JSON")
	cf := bindClientFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := lf.validate("history"); err != nil {
		return err
	}
	if *limit < 0 {
		*limit = 0
	}

	client, err := cf.open()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	history, err := client.LossHistory(ctx, helix.LookupRequest{RunID: *lf.runID, Latest: *lf.latest, Limit: *limit})
	if err != nil {
		return err
	}
	if *jsonOut {
		return writeJSON(model.Floats(history))
	}
	if len(history) == 0 {
		fmt.Println("no loss history")
		return nil
	}
	for i, loss := range history {
		fmt.Printf("gen=%d best=%g\n", i, loss)
	}
	return nil
}

func runDiagnostics(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("diagnostics", flag.ContinueOnError)
	lf := bindLookupFlags(fs)
	limit := fs.Int("limit", 50, "max generations to print (<=0 for all)")
	jsonOut := fs.Bool("json", false, "emit diagnostics as JSON")
	cf := bindClientFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := lf.validate("diagnostics"); err != nil {
		return err
	}
	if *limit < 0 {
		*limit = 0
	}

	client, err := cf.open()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	diagnostics, err := client.Diagnostics(ctx, helix.LookupRequest{RunID: *lf.runID, Latest: *lf.latest, Limit: *limit})
	if err != nil {
		return err
	}
	if *jsonOut {
		return writeJSON(diagnostics)
	}
	for _, d := range diagnostics {
		fmt.Printf("gen=%d best=%g mean=%g median=%g stddev=%g worst=%g nan=%d\n",
			d.Generation,
			float64(d.BestLoss),
			float64(d.MeanLoss),
			float64(d.MedianLoss),
			float64(d.StdDevLoss),
			float64(d.WorstLoss),
			d.NaNCount,
		)
	}
	return nil
}

func runChampion(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("champion", flag.ContinueOnError)
	lf := bindLookupFlags(fs)
	jsonOut := fs.Bool("json", false, "emit champion as JSON")
	cf := bindClientFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := lf.validate("champion"); err != nil {
		return err
	}

	client, err := cf.open()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	champion, err := client.Champion(ctx, helix.LookupRequest{RunID: *lf.runID, Latest: *lf.latest})
	if err != nil {
		return err
	}
	if *jsonOut {
		return writeJSON(champion)
	}
	fmt.Printf("run_id=%s loss=%g loci=%d\n", champion.RunID, float64(champion.Loss), len(champion.Values))
	for i, v := range champion.Values {
		fmt.Printf("locus=%d value=%g bits=%#016x\n", i, float64(v), champion.Bits[i])
	}
	return nil
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	lf := bindLookupFlags(fs)
	outDir := fs.String("out", "exports", "directory to write run artifacts under")
	cf := bindClientFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := lf.validate("export"); err != nil {
		return err
	}

	client, err := cf.open()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	exported, err := client.Export(ctx, helix.ExportRequest{RunID: *lf.runID, Latest: *lf.latest, OutDir: *outDir})
	if err != nil {
		return err
	}
	fmt.Printf("exported run_id=%s dir=%s\n", exported.RunID, exported.Dir)
	return nil
}

func runScapes(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("scapes", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := helix.New(helix.Options{StoreKind: "memory"})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	for _, s := range client.Scapes() {
		fmt.Printf("name=%s kind=%s dims=%d description=%q\n", s.Name, s.Kind, s.Dimensions, s.Description)
	}
	return nil
}

func writeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: helixctl <run|benchmark|runs|history|diagnostics|champion|export|scapes> [flags]", msg)
}
