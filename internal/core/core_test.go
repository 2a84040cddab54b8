package core

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"
)

func TestGridSetAndBounds(t *testing.T) {
	g := NewGrid(2, 3)
	if g.H() != 2 || g.W() != 3 {
		t.Fatalf("dimensions = %dx%d, want 2x3", g.H(), g.W())
	}
	if !g.Set(1, 2, 7) {
		t.Fatal("expected in-bounds set to succeed")
	}
	if g.At(1, 2) != 7 {
		t.Fatalf("At(1,2) = %d, want 7", g.At(1, 2))
	}
	if g.Cells()[g.Index(1, 2)] != 7 {
		t.Fatal("Index disagrees with At")
	}
	for _, c := range [][2]int{{-1, 0}, {0, -1}, {2, 0}, {0, 3}} {
		if g.Set(c[0], c[1], 1) {
			t.Fatalf("Set(%d,%d) should be rejected", c[0], c[1])
		}
	}
}

func TestGridCloneIsIndependent(t *testing.T) {
	g := GridFromRows([][]State{{1, 2}, {3, 4}})
	c := g.Clone()
	if !g.Equal(c) {
		t.Fatal("clone should equal original")
	}
	c.Set(0, 0, 9)
	if g.At(0, 0) != 1 {
		t.Fatal("mutating the clone changed the original")
	}
	if g.Equal(c) {
		t.Fatal("grids with different contents reported equal")
	}
	if g.Equal(NewGrid(4, 1)) {
		t.Fatal("grids with different shapes reported equal")
	}
}

func TestGridHistogram(t *testing.T) {
	g := GridFromRows([][]State{{0, 1, 1}, {2, 1, 0}})
	h := g.Histogram()
	if h[0] != 2 || h[1] != 3 || h[2] != 1 {
		t.Fatalf("unexpected histogram %v", h)
	}
}

func TestNewGridRejectsNegativeDimensions(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for negative dimensions")
		}
	}()
	NewGrid(-1, 3)
}

func TestZeroSizedGrid(t *testing.T) {
	g := NewGrid(0, 0)
	if len(g.Cells()) != 0 {
		t.Fatalf("expected no cells, got %d", len(g.Cells()))
	}
}

func TestRNGDeterministic(t *testing.T) {
	a := NewRNG(42)
	b := NewRNG(42)
	for i := 0; i < 100; i++ {
		x, y := a.Float64(), b.Float64()
		if x != y {
			t.Fatalf("draw %d differs: %v vs %v", i, x, y)
		}
		if x < 0 || x >= 1 {
			t.Fatalf("draw %d out of range: %v", i, x)
		}
	}
	if NewRNG(1).IntN(0) != 0 {
		t.Fatal("IntN(0) should return 0")
	}
}

func TestStreamRNGsDiffer(t *testing.T) {
	a := NewStreamRNG(7, 0)
	b := NewStreamRNG(7, 1)
	same := 0
	for i := 0; i < 16; i++ {
		if a.Float64() == b.Float64() {
			same++
		}
	}
	if same == 16 {
		t.Fatal("independent streams produced identical draws")
	}
}

func TestSequenceCycles(t *testing.T) {
	s := NewSequence(0.1, 0.9)
	got := []float64{s.Float64(), s.Float64(), s.Float64()}
	if !slices.Equal(got, []float64{0.1, 0.9, 0.1}) {
		t.Fatalf("sequence = %v", got)
	}
	if s.Drawn() != 3 {
		t.Fatalf("Drawn = %d, want 3", s.Drawn())
	}
	if NewSequence().Float64() != 0 {
		t.Fatal("empty sequence should yield 0")
	}
}

func TestRegistry(t *testing.T) {
	Register("test-registry", func(map[string]string) (Sim, error) { return nil, nil })
	defer delete(sims, "test-registry")

	if !slices.Contains(Names(), "test-registry") {
		t.Fatal("registered sim missing from Names")
	}
	if _, err := New("does-not-exist", nil); !errors.Is(err, ErrUnknownSim) {
		t.Fatalf("expected ErrUnknownSim, got %v", err)
	}
}

func TestFixedStepUnpacedNeverWaits(t *testing.T) {
	fs := NewFixedStep(0)
	if fs.Interval() != 0 {
		t.Fatalf("interval = %v, want 0", fs.Interval())
	}
	for i := 0; i < 3; i++ {
		if err := fs.Wait(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
}

func TestFixedStepSchedulesTicks(t *testing.T) {
	base := time.Unix(0, 0)
	now := base
	fs := NewFixedStep(10)
	fs.now = func() time.Time { return now }

	if err := fs.Wait(context.Background()); err != nil {
		t.Fatalf("first wait: %v", err)
	}
	if want := base.Add(100 * time.Millisecond); !fs.next.Equal(want) {
		t.Fatalf("next tick = %v, want %v", fs.next, want)
	}

	// Falling behind resets the schedule instead of bursting.
	now = base.Add(time.Second)
	if err := fs.Wait(context.Background()); err != nil {
		t.Fatalf("late wait: %v", err)
	}
	if want := now.Add(100 * time.Millisecond); !fs.next.Equal(want) {
		t.Fatalf("next tick after stall = %v, want %v", fs.next, want)
	}
}

func TestFixedStepHonoursCancellation(t *testing.T) {
	fs := NewFixedStep(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := fs.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
