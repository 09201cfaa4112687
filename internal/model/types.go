package model

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/google/uuid"
)

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// LocusKind names the gene encoding a run evolved.
type LocusKind string

const (
	LocusFloat      LocusKind = "float"
	LocusOrderedU64 LocusKind = "ordered_u64"
	LocusOrderedI64 LocusKind = "ordered_i64"
)

type RunRecord struct {
	VersionedRecord
	ID                 string    `json:"id"`
	CreatedAtUnixMilli int64     `json:"created_at_unix_milli"`
	Scape              string    `json:"scape"`
	LocusKind          LocusKind `json:"locus_kind"`
	PopulationSize     int       `json:"population_size"`
	Seed               int64     `json:"seed"`
	Threshold          float64   `json:"threshold"`
	MaxGenerations     int       `json:"max_generations"`
	CrossoverProb      float32   `json:"crossover_prob"`
	SwapHomologousProb float32   `json:"swap_homologous_prob"`
	MutateProb         float32   `json:"mutate_prob"`
	SpawnPercentage    float32   `json:"spawn_percentage"`
	Weight             float32   `json:"weight,omitempty"`
	GenomeStorage      string    `json:"genome_storage,omitempty"`
	Generations        int       `json:"generations"`
	Converged          bool      `json:"converged"`
	FinalLoss          Float     `json:"final_loss"`
	BenchmarkID        string    `json:"benchmark_id,omitempty"`
}

// GenerationDiagnostics summarises the loss distribution after one generation.
type GenerationDiagnostics struct {
	Generation int   `json:"generation"`
	BestLoss   Float `json:"best_loss"`
	MeanLoss   Float `json:"mean_loss"`
	MedianLoss Float `json:"median_loss"`
	StdDevLoss Float `json:"stddev_loss"`
	WorstLoss  Float `json:"worst_loss"`
	NaNCount   int   `json:"nan_count"`
}

// Champion is the best genome of a finished run. Values holds each locus as a
// float64 and Bits its raw bit pattern.
type Champion struct {
	VersionedRecord
	RunID  string   `json:"run_id"`
	Loss   Float    `json:"loss"`
	Values []Float  `json:"values"`
	Bits   []uint64 `json:"bits"`
}

// NewRunID returns a random run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// Float is a float64 whose JSON form survives NaN and infinities, which
// encoding/json rejects. Non-finite values are written as strings.
type Float float64

func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	switch {
	case math.IsNaN(v):
		return []byte(`"NaN"`), nil
	case math.IsInf(v, 1):
		return []byte(`"+Inf"`), nil
	case math.IsInf(v, -1):
		return []byte(`"-Inf"`), nil
	}
	return json.Marshal(v)
}

func (f *Float) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		switch s {
		case "NaN":
			*f = Float(math.NaN())
		case "+Inf":
			*f = Float(math.Inf(1))
		case "-Inf":
			*f = Float(math.Inf(-1))
		default:
			return fmt.Errorf("invalid float literal %q", s)
		}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = Float(v)
	return nil
}

// Floats converts values for persistence.
func Floats(values []float64) []Float {
	out := make([]Float, len(values))
	for i, v := range values {
		out[i] = Float(v)
	}
	return out
}

// Float64s converts persisted values back.
func Float64s(values []Float) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out
}
