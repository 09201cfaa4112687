package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"helix/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

// Versioned stamps a record with the current schema and codec versions.
func Versioned() model.VersionedRecord {
	return model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion}
}

func EncodeRun(r model.RunRecord) ([]byte, error) {
	return json.Marshal(r)
}

func DecodeRun(data []byte) (model.RunRecord, error) {
	var run model.RunRecord
	if err := json.Unmarshal(data, &run); err != nil {
		return model.RunRecord{}, err
	}
	if err := checkVersion(run.VersionedRecord); err != nil {
		return model.RunRecord{}, err
	}
	return run, nil
}

func EncodeChampion(c model.Champion) ([]byte, error) {
	return json.Marshal(c)
}

func DecodeChampion(data []byte) (model.Champion, error) {
	var champion model.Champion
	if err := json.Unmarshal(data, &champion); err != nil {
		return model.Champion{}, err
	}
	if err := checkVersion(champion.VersionedRecord); err != nil {
		return model.Champion{}, err
	}
	if len(champion.Values) != len(champion.Bits) {
		return model.Champion{}, fmt.Errorf("champion %s: %d values but %d bit patterns",
			champion.RunID, len(champion.Values), len(champion.Bits))
	}
	return champion, nil
}

// EncodeLossHistory keeps NaN and infinite losses, which plain float64 JSON
// cannot represent.
func EncodeLossHistory(history []float64) ([]byte, error) {
	return json.Marshal(model.Floats(history))
}

func DecodeLossHistory(data []byte) ([]float64, error) {
	var history []model.Float
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, err
	}
	return model.Float64s(history), nil
}

func EncodeGenerationDiagnostics(diagnostics []model.GenerationDiagnostics) ([]byte, error) {
	return json.Marshal(diagnostics)
}

func DecodeGenerationDiagnostics(data []byte) ([]model.GenerationDiagnostics, error) {
	var diagnostics []model.GenerationDiagnostics
	if err := json.Unmarshal(data, &diagnostics); err != nil {
		return nil, err
	}
	return diagnostics, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return fmt.Errorf("%w: schema %d codec %d", ErrVersionMismatch, v.SchemaVersion, v.CodecVersion)
	}
	return nil
}
