package rulebook

import (
	"errors"
	"math"
	"slices"
	"testing"

	"cells/internal/core"
)

func TestUnregisteredPairsLeaveCellUnchanged(t *testing.T) {
	seq := core.NewSequence(0)
	rb := New(seq)
	rb.MustRegister(2, 1, 3, 1, 1)

	cases := [][]core.State{nil, {}, {0}, {0, 4, 9}, {1, 1, 1, 1}}
	for _, neighbors := range cases {
		if got := rb.Resolve(7, neighbors); got != 7 {
			t.Fatalf("Resolve(7, %v) = %d, want 7", neighbors, got)
		}
	}
	if seq.Drawn() != 0 {
		t.Fatalf("sentinel lookups consumed %d draws", seq.Drawn())
	}
}

func TestSentinelNeverWins(t *testing.T) {
	rb := New(core.NewSequence(0))
	r, ok := rb.Lookup(4, 5)
	if ok {
		t.Fatalf("unexpected rule %v", r)
	}
	if got := rb.RuleFor(4, 5); got != Sentinel {
		t.Fatalf("RuleFor unregistered = %v, want sentinel", got)
	}
	if Sentinel.Priority >= 0 || Sentinel.Probability != 0 {
		t.Fatalf("sentinel must rank below the no-change baseline: %v", Sentinel)
	}
}

func TestProbabilityOneIgnoresDraws(t *testing.T) {
	draws := []float64{0, 0.25, 0.5, 0.75, math.Nextafter(1, 0)}
	for _, d := range draws {
		rb := New(core.SourceFunc(func() float64 { return d }))
		rb.MustRegister(0, 1, 1, 3, 1)
		if got := rb.Resolve(0, []core.State{2, 1, 2}); got != 1 {
			t.Fatalf("draw %v: Resolve = %d, want 1", d, got)
		}
	}
}

func TestProbabilityZeroNeverFires(t *testing.T) {
	rb := New(core.SourceFunc(func() float64 { return 0 }))
	rb.MustRegister(0, 1, 1, 3, 0)
	if got := rb.Resolve(0, []core.State{1}); got != 0 {
		t.Fatalf("Resolve = %d, want 0", got)
	}
}

// The scan compares with >=, so among equal priorities the last neighbor to
// fire wins. A strict comparison would keep the first one instead; this test
// pins the current behaviour.
func TestEqualPriorityLaterNeighborWins(t *testing.T) {
	rb := New(core.NewSequence(0))
	rb.MustRegister(1, 3, 2, 5, 1)
	rb.MustRegister(1, 5, 4, 5, 1)

	if got := rb.Resolve(1, []core.State{3, 5}); got != 4 {
		t.Fatalf("Resolve(1, [3 5]) = %d, want 4", got)
	}
	if got := rb.Resolve(1, []core.State{5, 3}); got != 2 {
		t.Fatalf("Resolve(1, [5 3]) = %d, want 2", got)
	}
}

func TestLowerPriorityNeverOverridesCandidate(t *testing.T) {
	seq := core.NewSequence(0)
	rb := New(seq)
	rb.MustRegister(1, 3, 2, 5, 1)
	rb.MustRegister(1, 5, 4, 3, 1)

	if got := rb.Resolve(1, []core.State{3, 5}); got != 2 {
		t.Fatalf("Resolve = %d, want 2", got)
	}
	if seq.Drawn() != 1 {
		t.Fatalf("lower priority rule consumed a draw: drawn=%d", seq.Drawn())
	}
}

func TestHigherPriorityOverridesEarlierCandidate(t *testing.T) {
	rb := New(core.NewSequence(0))
	rb.MustRegister(1, 3, 2, 1, 1)
	rb.MustRegister(1, 5, 4, 9, 1)

	if got := rb.Resolve(1, []core.State{3, 5}); got != 4 {
		t.Fatalf("Resolve = %d, want 4", got)
	}
}

func TestFailedDrawKeepsCandidate(t *testing.T) {
	// First neighbor fires, second qualifies by priority but its draw fails.
	seq := core.NewSequence(0, 0.9)
	rb := New(seq)
	rb.MustRegister(1, 3, 2, 5, 1)
	rb.MustRegister(1, 5, 4, 5, 0.5)

	if got := rb.Resolve(1, []core.State{3, 5}); got != 2 {
		t.Fatalf("Resolve = %d, want 2", got)
	}
	if seq.Drawn() != 2 {
		t.Fatalf("expected both qualifying rules to draw, drawn=%d", seq.Drawn())
	}
}

func TestDrawMustBeStrictlyBelowProbability(t *testing.T) {
	rb := New(core.SourceFunc(func() float64 { return 0.5 }))
	rb.MustRegister(0, 1, 1, 0, 0.5)
	if got := rb.Resolve(0, []core.State{1}); got != 0 {
		t.Fatalf("draw equal to probability fired: got %d", got)
	}
}

func TestNegativePriorityNeverFires(t *testing.T) {
	rb := New(core.NewSequence(0))
	rb.MustRegister(1, 3, 2, -1, 1)
	if got := rb.Resolve(1, []core.State{3}); got != 1 {
		t.Fatalf("Resolve = %d, want 1", got)
	}
}

func TestResultMayEqualCurrentState(t *testing.T) {
	// A no-op rule at a high priority blocks lower rules from later neighbors.
	rb := New(core.NewSequence(0))
	rb.MustRegister(1, 3, 1, 8, 1)
	rb.MustRegister(1, 5, 4, 2, 1)
	if got := rb.Resolve(1, []core.State{3, 5}); got != 1 {
		t.Fatalf("Resolve = %d, want 1", got)
	}
}

func TestRegisterOverwrites(t *testing.T) {
	rb := New(core.NewSequence(0))
	rb.MustRegister(0, 1, 1, 0, 1)
	rb.MustRegister(0, 1, 5, 2, 0.25)

	r, ok := rb.Lookup(0, 1)
	if !ok {
		t.Fatal("rule missing after overwrite")
	}
	if r != (Rule{Result: 5, Priority: 2, Probability: 0.25}) {
		t.Fatalf("unexpected rule %v", r)
	}
	if rb.Len() != 1 {
		t.Fatalf("Len = %d, want 1", rb.Len())
	}
}

func TestRegisterIsOrdered(t *testing.T) {
	rb := New(core.NewSequence(0))
	rb.MustRegister(0, 1, 1, 0, 1)
	if _, ok := rb.Lookup(1, 0); ok {
		t.Fatal("rule keyed by (0, 1) must not match (1, 0)")
	}
}

func TestRegisterRejectsBadProbability(t *testing.T) {
	rb := New(core.NewSequence(0))
	for _, p := range []float64{-0.01, 1.01, math.NaN(), math.Inf(1)} {
		if err := rb.Register(0, 1, 1, 0, p); !errors.Is(err, ErrProbability) {
			t.Fatalf("probability %v: expected ErrProbability, got %v", p, err)
		}
	}
	if rb.Len() != 0 {
		t.Fatalf("rejected rules were stored: %d", rb.Len())
	}
	for _, p := range []float64{0, 1} {
		if err := rb.Register(0, 1, 1, 0, p); err != nil {
			t.Fatalf("probability %v rejected: %v", p, err)
		}
	}
}

func TestFrozenRejectsRegister(t *testing.T) {
	rb := New(core.NewSequence(0))
	rb.MustRegister(0, 1, 1, 0, 1)
	rb.Freeze()
	if !rb.Frozen() {
		t.Fatal("Frozen = false after Freeze")
	}
	if err := rb.Register(0, 2, 1, 0, 1); !errors.Is(err, ErrFrozen) {
		t.Fatalf("expected ErrFrozen, got %v", err)
	}
	if got := rb.Resolve(0, []core.State{1}); got != 1 {
		t.Fatalf("frozen rulebook must still resolve, got %d", got)
	}
}

func TestMinIntPriorityStillOutranksSentinel(t *testing.T) {
	rb := New(core.NewSequence(0))
	rb.MustRegister(0, 1, 1, math.MinInt, 1)
	r, _ := rb.Lookup(0, 1)
	if r.Priority <= Sentinel.Priority {
		t.Fatalf("registered priority %d does not outrank sentinel", r.Priority)
	}
}

func TestResolveWithUsesGivenSource(t *testing.T) {
	own := core.NewSequence(0.99)
	rb := New(own)
	rb.MustRegister(0, 1, 1, 0, 0.5)

	other := core.NewSequence(0.1)
	if got := rb.ResolveWith(other, 0, []core.State{1}); got != 1 {
		t.Fatalf("ResolveWith = %d, want 1", got)
	}
	if own.Drawn() != 0 || other.Drawn() != 1 {
		t.Fatalf("draws went to the wrong source: own=%d other=%d", own.Drawn(), other.Drawn())
	}
}

func TestRulesAndStatesListing(t *testing.T) {
	rb := New(core.NewSequence(0))
	rb.MustRegister(3, 1, 4, 0, 1)
	rb.MustRegister(0, 2, 1, 0, 1)
	rb.MustRegister(0, 1, 1, 0, 1)

	var pairs []Pair
	for _, e := range rb.Rules() {
		pairs = append(pairs, e.Pair)
	}
	want := []Pair{{0, 1}, {0, 2}, {3, 1}}
	if !slices.Equal(pairs, want) {
		t.Fatalf("Rules order = %v, want %v", pairs, want)
	}
	if got := rb.States(); !slices.Equal(got, []core.State{0, 1, 2, 3, 4}) {
		t.Fatalf("States = %v", got)
	}
}
