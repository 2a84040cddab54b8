// Package excitable implements a probabilistic excitable medium built
// entirely from pairwise rules: resting cells fire next to a firing
// neighbor, then pass through refractory stages before resting again.
package excitable

import (
	"context"

	"cells/internal/core"
	"cells/internal/rulebook"
	"cells/internal/stepper"
)

const (
	StateResting core.State = iota
	StateExcited
	StateRefractory
	StateRecovering3
	StateRecovering4
	StateRecovering5
	StateRecovering6
	StateDormant
	StateBarrier

	// NumStates is the number of states used by Reset.
	NumStates = 9
)

// cycleLen is the length of the resting -> excited -> ... -> resting loop.
const cycleLen = 7

// NewRulebook builds the medium's rule table drawing from src.
func NewRulebook(p Params, src core.Source) *rulebook.Rulebook {
	rb := rulebook.New(src)

	// Excitation.
	rb.MustRegister(StateResting, StateExcited, StateExcited, 0, 1)
	for i, chance := range p.ReexciteChance {
		rb.MustRegister(StateRecovering3+core.State(i), StateExcited, StateExcited, 0, chance)
	}

	// Absolute refractory period.
	for _, n := range []core.State{StateResting, StateExcited, StateRefractory, StateRecovering3} {
		rb.MustRegister(StateExcited, n, StateRefractory, 0, 1)
	}

	// Relative refractory period.
	for s := StateRefractory; s < cycleLen; s++ {
		for n := core.State(0); n < cycleLen; n++ {
			if p.Reexcite && s >= StateRecovering3 && n == StateExcited {
				continue
			}
			rb.MustRegister(s, n, (s+1)%cycleLen, 0, p.RecoveryChance)
		}
	}

	rb.Freeze()
	return rb
}

// Medium is the excitable-medium simulation.
type Medium struct {
	cfg  Config
	seed int64

	grid *core.Grid
	book *rulebook.Rulebook
	rng  *core.RNG
	gen  uint64
}

// New returns a Medium with the provided dimensions using defaults.
func New(w, h int) *Medium {
	cfg := DefaultConfig()
	cfg.Width = w
	cfg.Height = h
	return NewWithConfig(cfg)
}

// NewWithConfig returns a Medium configured from the provided options.
func NewWithConfig(cfg Config) *Medium {
	m := &Medium{
		cfg:  cfg,
		seed: cfg.Seed,
		grid: core.NewGrid(cfg.Height, cfg.Width),
		rng:  core.NewRNG(cfg.Seed),
	}
	m.book = NewRulebook(cfg.Params, m.rng)
	return m
}

// Name returns the simulation identifier.
func (m *Medium) Name() string { return "excitable" }

// Size reports the grid dimensions.
func (m *Medium) Size() core.Size { return m.grid.Size() }

// Grid exposes the current generation.
func (m *Medium) Grid() *core.Grid { return m.grid }

// Rulebook exposes the rule table in use.
func (m *Medium) Rulebook() *rulebook.Rulebook { return m.book }

// Generation returns the number of steps taken since the last Reset.
func (m *Medium) Generation() uint64 { return m.gen }

// Reset fills the grid with uniformly random states. A zero seed falls back
// to the configured one.
func (m *Medium) Reset(seed int64) {
	if seed == 0 {
		seed = m.cfg.Seed
	}
	m.seed = seed
	m.rng = core.NewRNG(seed)
	m.book = NewRulebook(m.cfg.Params, m.rng)
	m.gen = 0
	cells := m.grid.Cells()
	for i := range cells {
		cells[i] = m.rng.StateN(NumStates)
	}
}

// Step advances the medium by one generation.
func (m *Medium) Step() {
	if m.cfg.Workers > 0 {
		// Background never cancels, so StepParallel cannot fail here.
		next, _ := stepper.StepParallel(context.Background(), m.grid, m.book, stepper.Options{
			Workers:    m.cfg.Workers,
			Seed:       m.seed,
			Generation: m.gen,
		})
		m.grid = next
	} else {
		m.grid = stepper.Step(m.grid, m.book)
	}
	m.gen++
}

// Paint sets a cell between steps. Any state below NumStates is accepted.
func (m *Medium) Paint(row, col int, s core.State) bool {
	if s >= NumStates {
		return false
	}
	return m.grid.Set(row, col, s)
}

// Excite marks a cell as firing.
func (m *Medium) Excite(row, col int) bool {
	return m.Paint(row, col, StateExcited)
}

// Parameters describes the current configuration.
func (m *Medium) Parameters() core.ParameterSnapshot {
	p := m.cfg.Params
	reexcite := 0
	if p.Reexcite {
		reexcite = 1
	}
	groups := []core.ParameterGroup{
		{
			Name: "World",
			Params: []core.Parameter{
				core.IntParam("w", "Width", m.cfg.Width),
				core.IntParam("h", "Height", m.cfg.Height),
				core.Int64Param("seed", "Seed", m.seed),
				core.IntParam("workers", "Workers", m.cfg.Workers),
			},
		},
		{
			Name: "Rules",
			Params: []core.Parameter{
				core.FloatParam("recovery_chance", "Recovery chance", p.RecoveryChance),
				core.IntParam("reexcite", "Keep re-excitation", reexcite),
				core.FloatParam(reexciteKeys[0], "Re-excite chance (3)", p.ReexciteChance[0]),
				core.FloatParam(reexciteKeys[1], "Re-excite chance (4)", p.ReexciteChance[1]),
				core.FloatParam(reexciteKeys[2], "Re-excite chance (5)", p.ReexciteChance[2]),
				core.FloatParam(reexciteKeys[3], "Re-excite chance (6)", p.ReexciteChance[3]),
			},
		},
	}
	return core.ParameterSnapshot{Groups: groups}
}

func init() {
	core.Register("excitable", func(cfg map[string]string) (core.Sim, error) {
		return NewWithConfig(FromMap(cfg)), nil
	})
}
