package stats

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"helix/internal/model"
)

const (
	runFile         = "run.json"
	lossSeriesFile  = "loss_series.csv"
	diagnosticsFile = "diagnostics.json"
	championFile    = "champion.json"
)

// RunArtifacts is everything stored about one run.
type RunArtifacts struct {
	Run         model.RunRecord
	LossHistory []float64
	Diagnostics []model.GenerationDiagnostics
	Champion    model.Champion
}

// WriteRunArtifacts writes a run into baseDir/<run id> and returns that
// directory.
func WriteRunArtifacts(baseDir string, artifacts RunArtifacts) (string, error) {
	if artifacts.Run.ID == "" {
		return "", errors.New("run id is required")
	}
	runDir := filepath.Join(baseDir, artifacts.Run.ID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, runFile), artifacts.Run); err != nil {
		return "", err
	}
	if err := WriteLossSeries(runDir, artifacts.LossHistory); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, diagnosticsFile), artifacts.Diagnostics); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, championFile), artifacts.Champion); err != nil {
		return "", err
	}
	return runDir, nil
}

// WriteLossSeries writes the best loss per generation as CSV. Generations
// are numbered from 0.
func WriteLossSeries(runDir string, bestByGeneration []float64) error {
	path := filepath.Join(runDir, lossSeriesFile)
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"generation", "best_loss"}); err != nil {
		return err
	}
	for i, best := range bestByGeneration {
		if err := writer.Write([]string{
			strconv.Itoa(i),
			strconv.FormatFloat(best, 'g', -1, 64),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// ReadLossSeries reads a series written by WriteLossSeries. ok is false
// when runDir holds no series. Rows must number generations 0, 1, 2, ...
func ReadLossSeries(runDir string) (series []float64, ok bool, err error) {
	file, err := os.Open(filepath.Join(runDir, lossSeriesFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = 2
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, false, fmt.Errorf("read loss series: %w", err)
	}
	if len(rows) == 0 {
		return []float64{}, true, nil
	}

	series = make([]float64, 0, len(rows)-1)
	for i, row := range rows[1:] {
		generation, err := strconv.Atoi(row[0])
		if err != nil {
			return nil, false, fmt.Errorf("loss series row %d: %w", i+1, err)
		}
		if generation != i {
			return nil, false, fmt.Errorf("loss series row %d: generation %d out of sequence", i+1, generation)
		}
		// ParseFloat accepts the NaN and ±Inf spellings FormatFloat emits.
		best, err := strconv.ParseFloat(row[1], 64)
		if err != nil {
			return nil, false, fmt.Errorf("loss series row %d: %w", i+1, err)
		}
		series = append(series, best)
	}
	return series, true, nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}
