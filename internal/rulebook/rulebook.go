// Package rulebook maps ordered (current, neighbor) state pairs to
// prioritised, probabilistic transitions and resolves a cell's next state
// against its neighbors.
package rulebook

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"cells/internal/core"
)

var (
	// ErrProbability is returned when a rule's probability lies outside [0, 1].
	ErrProbability = errors.New("rule probability must be within [0, 1]")
	// ErrFrozen is returned when registering into a frozen rulebook.
	ErrFrozen = errors.New("rulebook is frozen")
)

// Pair is the ordered key of a rule: the state of the cell being resolved and
// the state of one of its neighbors.
type Pair struct {
	Current  core.State
	Neighbor core.State
}

// Rule is the transition applied to Pair.Current when it fires.
type Rule struct {
	Result      core.State
	Priority    int
	Probability float64
}

// Entry is a registered rule together with its key.
type Entry struct {
	Pair
	Rule
}

// Sentinel is returned for unregistered pairs. Its priority is below every
// registerable priority and it never fires.
var Sentinel = Rule{Result: 0, Priority: math.MinInt, Probability: 0}

// Rulebook is a sparse rule table plus the randomness source used to decide
// whether a qualifying rule fires. Register every rule before the first
// Resolve; the table must not change while steps are running.
type Rulebook struct {
	rules  map[Pair]Rule
	src    core.Source
	frozen bool
}

// New returns an empty rulebook drawing from src.
func New(src core.Source) *Rulebook {
	return &Rulebook{rules: make(map[Pair]Rule), src: src}
}

// Register adds or overwrites the rule for the ordered pair (a, b).
func (rb *Rulebook) Register(a, b, result core.State, priority int, probability float64) error {
	if rb.frozen {
		return fmt.Errorf("register (%d, %d): %w", a, b, ErrFrozen)
	}
	if math.IsNaN(probability) || probability < 0 || probability > 1 {
		return fmt.Errorf("register (%d, %d): %w, got %v", a, b, ErrProbability, probability)
	}
	if priority == math.MinInt {
		// Reserved for Sentinel so a real rule always outranks it.
		priority++
	}
	rb.rules[Pair{Current: a, Neighbor: b}] = Rule{Result: result, Priority: priority, Probability: probability}
	return nil
}

// MustRegister is like Register but panics on error. It is meant for
// built-in rule sets whose values are known to be valid.
func (rb *Rulebook) MustRegister(a, b, result core.State, priority int, probability float64) {
	if err := rb.Register(a, b, result, priority, probability); err != nil {
		panic(err)
	}
}

// Freeze makes the rulebook read-only.
func (rb *Rulebook) Freeze() { rb.frozen = true }

// Frozen reports whether Freeze has been called.
func (rb *Rulebook) Frozen() bool { return rb.frozen }

// Lookup returns the rule registered for (a, b), if any.
func (rb *Rulebook) Lookup(a, b core.State) (Rule, bool) {
	r, ok := rb.rules[Pair{Current: a, Neighbor: b}]
	return r, ok
}

// RuleFor returns the rule registered for (a, b) or Sentinel.
func (rb *Rulebook) RuleFor(a, b core.State) Rule {
	if r, ok := rb.Lookup(a, b); ok {
		return r
	}
	return Sentinel
}

// Resolve returns the next state of a cell given its neighbors, drawing from
// the rulebook's own source.
func (rb *Rulebook) Resolve(cell core.State, neighbors []core.State) core.State {
	return rb.ResolveWith(rb.src, cell, neighbors)
}

// ResolveWith runs the resolution scan using src for probability draws.
//
// The candidate starts as "no change" at priority 0. Neighbors are visited in
// the order given; a rule whose priority is at least the candidate's consumes
// one draw and replaces the candidate when the draw is below its probability.
// Equal priorities therefore let the later neighbor win, and a failed draw
// does not fall back to an earlier neighbor.
func (rb *Rulebook) ResolveWith(src core.Source, cell core.State, neighbors []core.State) core.State {
	result, priority := cell, 0
	for _, n := range neighbors {
		r := rb.RuleFor(cell, n)
		if r.Priority < priority {
			continue
		}
		if src.Float64() < r.Probability {
			result, priority = r.Result, r.Priority
		}
	}
	return result
}

// Len returns the number of registered rules.
func (rb *Rulebook) Len() int { return len(rb.rules) }

// Rules lists the registered rules ordered by current then neighbor state.
func (rb *Rulebook) Rules() []Entry {
	out := make([]Entry, 0, len(rb.rules))
	for p, r := range rb.rules {
		out = append(out, Entry{Pair: p, Rule: r})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Current != out[j].Current {
			return out[i].Current < out[j].Current
		}
		return out[i].Neighbor < out[j].Neighbor
	})
	return out
}

// States returns every state mentioned by a rule, sorted ascending.
func (rb *Rulebook) States() []core.State {
	seen := make(map[core.State]struct{})
	for p, r := range rb.rules {
		seen[p.Current] = struct{}{}
		seen[p.Neighbor] = struct{}{}
		seen[r.Result] = struct{}{}
	}
	out := make([]core.State, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
