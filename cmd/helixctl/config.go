package main

import (
	"encoding/json"
	"fmt"
	"os"

	"helix/internal/env"
	"helix/pkg/helix"
)

// runConfig is the flat form of a run request shared by the -config file and
// the command-line flags.
type runConfig struct {
	Scape              string
	Population         int
	Threshold          float64
	MaxGenerations     int
	Seed               int64
	CrossoverProb      float64
	SwapHomologousProb float64
	MutateProb         float64
	SpawnPercentage    float64
	Weight             float64
	GenomeStorage      string
}

func defaultRunConfig() runConfig {
	d := env.Default()
	return runConfig{
		Scape:              "sphere",
		Population:         40,
		Threshold:          0.001,
		MaxGenerations:     5000,
		Seed:               1,
		CrossoverProb:      float64(d.CrossoverProb),
		SwapHomologousProb: float64(d.SwapHomologousProb),
		MutateProb:         float64(d.MutateProb),
		SpawnPercentage:    float64(d.SpawnPercentage),
		Weight:             0,
		GenomeStorage:      helix.StorageOwned,
	}
}

// loadRunConfig overlays the keys present in the JSON file at path onto base.
func loadRunConfig(path string, base runConfig) (runConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return runConfig{}, err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return runConfig{}, err
	}

	cfg := base
	if v, ok := asString(raw["scape"]); ok {
		cfg.Scape = v
	}
	if v, ok := asInt(raw["population"]); ok {
		cfg.Population = v
	}
	if v, ok := asFloat64(raw["threshold"]); ok {
		cfg.Threshold = v
	}
	if v, ok := asInt(raw["max_generations"]); ok {
		cfg.MaxGenerations = v
	}
	if v, ok := asInt64(raw["seed"]); ok {
		cfg.Seed = v
	}
	if v, ok := asFloat64(raw["weight"]); ok {
		cfg.Weight = v
	}
	if v, ok := asString(raw["genome_storage"]); ok {
		cfg.GenomeStorage = v
	}

	if settings, ok := raw["settings"].(map[string]any); ok {
		if v, ok := asFloat64(settings["crossover_prob"]); ok {
			cfg.CrossoverProb = v
		}
		if v, ok := asFloat64(settings["swap_homologous_prob"]); ok {
			cfg.SwapHomologousProb = v
		}
		if v, ok := asFloat64(settings["mutate_prob"]); ok {
			cfg.MutateProb = v
		}
		if v, ok := asFloat64(settings["spawn_percentage"]); ok {
			cfg.SpawnPercentage = v
		}
	}
	return cfg, nil
}

func (c runConfig) request() (helix.RunRequest, error) {
	settings, err := env.NewBuilder().
		CrossoverProb(float32(c.CrossoverProb)).
		SwapHomologousProb(float32(c.SwapHomologousProb)).
		MutateProb(float32(c.MutateProb)).
		SpawnPercentage(float32(c.SpawnPercentage)).
		Build()
	if err != nil {
		return helix.RunRequest{}, err
	}
	if c.Population <= 0 {
		return helix.RunRequest{}, fmt.Errorf("population must be > 0, got %d", c.Population)
	}
	if c.MaxGenerations <= 0 {
		return helix.RunRequest{}, fmt.Errorf("max generations must be > 0, got %d", c.MaxGenerations)
	}
	return helix.RunRequest{
		Scape:          c.Scape,
		Population:     c.Population,
		Threshold:      c.Threshold,
		MaxGenerations: c.MaxGenerations,
		Seed:           c.Seed,
		Settings:       settings,
		Weight:         float32(c.Weight),
		GenomeStorage:  c.GenomeStorage,
	}, nil
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case float64:
		return int(x), true
	default:
		return 0, false
	}
}

func asInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case float64:
		return int64(x), true
	default:
		return 0, false
	}
}

func asFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	default:
		return 0, false
	}
}

func overrideFromFlags(cfg *runConfig, set map[string]bool, flagValue map[string]any) error {
	for name := range set {
		v, ok := flagValue[name]
		if !ok {
			continue
		}
		switch name {
		case "scape":
			cfg.Scape = v.(string)
		case "pop":
			cfg.Population = v.(int)
		case "threshold":
			cfg.Threshold = v.(float64)
		case "max-gens":
			cfg.MaxGenerations = v.(int)
		case "seed":
			cfg.Seed = v.(int64)
		case "crossover":
			cfg.CrossoverProb = v.(float64)
		case "swap":
			cfg.SwapHomologousProb = v.(float64)
		case "mutate":
			cfg.MutateProb = v.(float64)
		case "spawn":
			cfg.SpawnPercentage = v.(float64)
		case "weight":
			cfg.Weight = v.(float64)
		case "storage":
			cfg.GenomeStorage = v.(string)
		default:
			return fmt.Errorf("unsupported override flag: %s", name)
		}
	}
	return nil
}
