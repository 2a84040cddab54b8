// Package rulefile runs an automaton whose rules come from a YAML rule-set
// document.
package rulefile

import (
	"errors"
	"fmt"
	"strconv"

	"cells/internal/core"
	"cells/internal/rulebook"
	"cells/internal/stepper"
)

// SimName is the registry name of the rule-file simulation.
const SimName = "rulefile"

// ErrNoRules is returned when the factory is not given a rule-set path.
var ErrNoRules = errors.New("rulefile: no rule set given (set the rules key)")

// Config controls the rule-file simulation.
type Config struct {
	Path   string
	Width  int
	Height int
	Seed   int64
}

// DefaultConfig returns the standard configuration without a rule set.
func DefaultConfig() Config {
	return Config{Width: 64, Height: 64, Seed: 1}
}

// FromMap populates the config from a string map.
func FromMap(cfg map[string]string) Config {
	c := DefaultConfig()
	if cfg == nil {
		return c
	}
	c.Path = cfg["rules"]
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
	return c
}

// Sim steps a grid with a rulebook built from a Document.
type Sim struct {
	cfg  Config
	doc  *rulebook.Document
	grid *core.Grid
	book *rulebook.Rulebook
	cdf  []float64
}

// New builds a Sim from an already parsed document.
func New(cfg Config, doc *rulebook.Document) (*Sim, error) {
	s := &Sim{cfg: cfg, doc: doc, grid: core.NewGrid(cfg.Height, cfg.Width)}
	cdf, err := initialCDF(doc)
	if err != nil {
		return nil, err
	}
	s.cdf = cdf
	if err := s.rebuild(core.NewRNG(cfg.Seed)); err != nil {
		return nil, err
	}
	return s, nil
}

// Open loads cfg.Path and builds a Sim from it.
func Open(cfg Config) (*Sim, error) {
	if cfg.Path == "" {
		return nil, ErrNoRules
	}
	doc, err := rulebook.Load(cfg.Path)
	if err != nil {
		return nil, err
	}
	return New(cfg, doc)
}

func (s *Sim) rebuild(src core.Source) error {
	book, err := s.doc.Build(src)
	if err != nil {
		return err
	}
	s.book = book
	return nil
}

// initialCDF turns the document's initial weights into a cumulative table.
// Without weights every declared state is equally likely.
func initialCDF(doc *rulebook.Document) ([]float64, error) {
	weights := doc.Initial
	if len(weights) == 0 {
		weights = make([]float64, doc.States)
		for i := range weights {
			weights[i] = 1
		}
	}
	if len(weights) > doc.States {
		return nil, fmt.Errorf("rulefile: %d initial weights for %d states", len(weights), doc.States)
	}
	cdf := make([]float64, len(weights))
	total := 0.0
	for i, w := range weights {
		total += w
		cdf[i] = total
	}
	if total <= 0 {
		return nil, errors.New("rulefile: initial weights sum to zero")
	}
	for i := range cdf {
		cdf[i] /= total
	}
	return cdf, nil
}

// Name returns the rule set's name.
func (s *Sim) Name() string {
	if s.doc.Name != "" {
		return s.doc.Name
	}
	return SimName
}

// Size reports the grid dimensions.
func (s *Sim) Size() core.Size { return s.grid.Size() }

// Grid exposes the current generation.
func (s *Sim) Grid() *core.Grid { return s.grid }

// Rulebook exposes the rule table in use.
func (s *Sim) Rulebook() *rulebook.Rulebook { return s.book }

// Reset draws every cell from the initial distribution. A zero seed falls
// back to the configured one.
func (s *Sim) Reset(seed int64) {
	if seed == 0 {
		seed = s.cfg.Seed
	}
	rng := core.NewRNG(seed)
	// The document validated at construction, so rebuilding cannot fail.
	_ = s.rebuild(rng)
	cells := s.grid.Cells()
	for i := range cells {
		u := rng.Float64()
		st := len(s.cdf) - 1
		for j, c := range s.cdf {
			if u < c {
				st = j
				break
			}
		}
		cells[i] = core.State(st)
	}
}

// Step advances the grid by one generation.
func (s *Sim) Step() {
	s.grid = stepper.Step(s.grid, s.book)
}

// Paint sets a cell to any state the document declares.
func (s *Sim) Paint(row, col int, st core.State) bool {
	if int(st) >= s.doc.States {
		return false
	}
	return s.grid.Set(row, col, st)
}

// Parameters describes the current configuration.
func (s *Sim) Parameters() core.ParameterSnapshot {
	return core.ParameterSnapshot{Groups: []core.ParameterGroup{
		{
			Name: "World",
			Params: []core.Parameter{
				core.IntParam("w", "Width", s.cfg.Width),
				core.IntParam("h", "Height", s.cfg.Height),
				core.Int64Param("seed", "Seed", s.cfg.Seed),
			},
		},
		{
			Name: "Rule set",
			Params: []core.Parameter{
				core.StringParam("rules", "Path", s.cfg.Path),
				core.IntParam("states", "States", s.doc.States),
				core.IntParam("rule_count", "Rules", s.book.Len()),
			},
		},
	}}
}

func init() {
	core.Register(SimName, func(cfg map[string]string) (core.Sim, error) {
		s, err := Open(FromMap(cfg))
		if err != nil {
			return nil, err
		}
		return s, nil
	})
}
