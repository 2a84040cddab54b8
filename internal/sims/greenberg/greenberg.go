package greenberg

import (
	"strconv"

	"cells/internal/core"
	"cells/internal/rulebook"
	"cells/internal/stepper"
)

const (
	stateResting    core.State = 0
	stateExcited    core.State = 1
	stateRefractory core.State = 2
)

// Config holds parameters for the Greenberg-Hastings medium.
type Config struct {
	Width  int
	Height int
	// SeedDensity is the fraction of cells excited by Reset.
	SeedDensity float64
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{Width: 256, Height: 256, SeedDensity: 0.125}
}

// FromMap populates a Config from a string map.
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
	if v, ok := cfg["density"]; ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed >= 0 && parsed <= 1 {
			c.SeedDensity = parsed
		}
	}
	return c
}

// Rules returns the deterministic Greenberg-Hastings rule table: a resting
// cell fires next to a firing neighbor, firing cells become refractory and
// refractory cells rest again.
func Rules() *rulebook.Rulebook {
	rb := rulebook.New(core.SourceFunc(func() float64 { return 0 }))
	rb.MustRegister(stateResting, stateExcited, stateExcited, 1, 1)
	for _, n := range []core.State{stateResting, stateExcited, stateRefractory} {
		rb.MustRegister(stateExcited, n, stateRefractory, 1, 1)
		rb.MustRegister(stateRefractory, n, stateResting, 1, 1)
	}
	rb.Freeze()
	return rb
}

// Medium implements the Greenberg-Hastings automaton.
type Medium struct {
	cfg  Config
	grid *core.Grid
	book *rulebook.Rulebook
}

// New creates a Medium with the provided configuration.
func New(cfg Config) *Medium {
	return &Medium{cfg: cfg, grid: core.NewGrid(cfg.Height, cfg.Width), book: Rules()}
}

// Name identifies the simulation.
func (m *Medium) Name() string { return "greenberg" }

// Size returns the grid dimensions.
func (m *Medium) Size() core.Size { return m.grid.Size() }

// Grid exposes the current generation.
func (m *Medium) Grid() *core.Grid { return m.grid }

// Reset excites a random fraction of cells and rests the others.
func (m *Medium) Reset(seed int64) {
	rng := core.NewRNG(seed)
	cells := m.grid.Cells()
	for i := range cells {
		if rng.Float64() < m.cfg.SeedDensity {
			cells[i] = stateExcited
			continue
		}
		cells[i] = stateResting
	}
}

// Step advances the automaton by one tick.
func (m *Medium) Step() {
	m.grid = stepper.Step(m.grid, m.book)
}

// Paint sets a cell to one of the three states.
func (m *Medium) Paint(row, col int, s core.State) bool {
	if s > stateRefractory {
		return false
	}
	return m.grid.Set(row, col, s)
}

// Parameters describes the current configuration.
func (m *Medium) Parameters() core.ParameterSnapshot {
	return core.ParameterSnapshot{Groups: []core.ParameterGroup{{
		Name: "World",
		Params: []core.Parameter{
			core.IntParam("w", "Width", m.cfg.Width),
			core.IntParam("h", "Height", m.cfg.Height),
			core.FloatParam("density", "Seed density", m.cfg.SeedDensity),
		},
	}}}
}

func init() {
	core.Register("greenberg", func(cfg map[string]string) (core.Sim, error) {
		return New(FromMap(cfg)), nil
	})
}
