package core

import "math/rand/v2"

// Source yields uniform random values in [0, 1).
type Source interface {
	Float64() float64
}

// SourceFunc adapts a plain function to the Source interface.
type SourceFunc func() float64

// Float64 calls f.
func (f SourceFunc) Float64() float64 { return f() }

// RNG is a thin convenience wrapper around math/rand/v2 for deterministic seeding.
// It is not safe for concurrent use.
type RNG struct {
	r *rand.Rand
}

// NewRNG creates a deterministic RNG using the provided seed.
func NewRNG(seed int64) *RNG {
	return &RNG{r: rand.New(rand.NewPCG(uint64(seed), 0))}
}

// NewStreamRNG creates an RNG on one of many independent streams sharing a
// seed, e.g. one stream per grid row.
func NewStreamRNG(seed int64, stream uint64) *RNG {
	return &RNG{r: rand.New(rand.NewPCG(uint64(seed), stream))}
}

// Float64 returns a value in [0, 1).
func (r *RNG) Float64() float64 { return r.r.Float64() }

// IntN returns a value in [0, n). It returns 0 when n <= 0.
func (r *RNG) IntN(n int) int {
	if n <= 0 {
		return 0
	}
	return r.r.IntN(n)
}

// StateN returns a random state in [0, n).
func (r *RNG) StateN(n int) State {
	return State(r.IntN(n))
}

// Source exposes the underlying rand.Rand for advanced use.
func (r *RNG) Source() *rand.Rand { return r.r }

// Sequence replays a fixed list of draws, starting over once exhausted.
// An empty Sequence always returns 0.
type Sequence struct {
	values []float64
	next   int
	drawn  int
}

// NewSequence returns a Sequence over values.
func NewSequence(values ...float64) *Sequence {
	return &Sequence{values: append([]float64(nil), values...)}
}

// Float64 returns the next recorded value.
func (s *Sequence) Float64() float64 {
	s.drawn++
	if len(s.values) == 0 {
		return 0
	}
	v := s.values[s.next]
	s.next = (s.next + 1) % len(s.values)
	return v
}

// Drawn reports how many values have been consumed.
func (s *Sequence) Drawn() int { return s.drawn }
