package excitable

import "strconv"

// Params holds the firing probabilities of the excitable medium.
type Params struct {
	// RecoveryChance is the per-neighbor chance that a refractory cell
	// advances one stage.
	RecoveryChance float64
	// ReexciteChance holds the chance that a cell in relative refractory
	// stage 3..6 re-fires next to an excited neighbor.
	ReexciteChance [4]float64
	// Reexcite keeps the re-excitation rules in place. When false the
	// recovery rules, registered later for the same pairs, replace them.
	Reexcite bool
}

// Config controls the excitable simulation.
type Config struct {
	Width  int
	Height int

	Seed    int64
	Workers int

	Params Params
}

// DefaultConfig returns the standard configuration.
func DefaultConfig() Config {
	return Config{
		Width:  20,
		Height: 20,
		Seed:   1337,
		Params: Params{
			RecoveryChance: 0.5,
			ReexciteChance: [4]float64{0.1, 0.2, 0.3, 0.4},
		},
	}
}

// FromMap populates the config from a string map (flag-style key/value pairs).
func FromMap(cfg map[string]string) Config {
	c := DefaultConfig()
	if cfg == nil {
		return c
	}
	if v, ok := cfg["w"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			c.Width = parsed
		}
	}
	if v, ok := cfg["h"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			c.Height = parsed
		}
	}
	if v, ok := cfg["seed"]; ok {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Seed = parsed
		}
	}
	if v, ok := cfg["workers"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			c.Workers = parsed
		}
	}
	if v, ok := cfg["recovery_chance"]; ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed >= 0 && parsed <= 1 {
			c.Params.RecoveryChance = parsed
		}
	}
	if v, ok := cfg["reexcite"]; ok {
		if parsed, err := strconv.ParseBool(v); err == nil {
			c.Params.Reexcite = parsed
		}
	}
	for i, key := range reexciteKeys {
		if v, ok := cfg[key]; ok {
			if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed >= 0 && parsed <= 1 {
				c.Params.ReexciteChance[i] = parsed
			}
		}
	}
	return c
}

var reexciteKeys = [4]string{"reexcite_chance_3", "reexcite_chance_4", "reexcite_chance_5", "reexcite_chance_6"}
