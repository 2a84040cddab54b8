// Package runner drives a simulation generation by generation, applying
// queued cell edits between steps and publishing each new grid.
package runner

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"cells/internal/core"
	"cells/internal/streamproto"
)

// Publisher receives every generation, including the initial one.
type Publisher interface {
	Publish(frame streamproto.FrameMsg) error
}

// Options configures a Runner.
type Options struct {
	// TPS caps generations per second; zero runs as fast as possible.
	TPS int
	// LogEvery logs a state histogram every LogEvery generations; zero
	// disables it.
	LogEvery int
	// PaintBuffer bounds the number of queued paints. Defaults to 256.
	PaintBuffer int
	RunID       string
	Logger      *log.Logger
	Publisher   Publisher
}

// Runner owns a Sim for the duration of a run.
type Runner struct {
	sim    core.Sim
	name   string
	size   core.Size
	opts   Options
	log    *log.Logger
	pacer  *core.FixedStep
	tracer trace.Tracer
	paints chan streamproto.PaintMsg

	mu  sync.RWMutex
	gen uint64
}

// New returns a runner for sim. The sim must already be Reset.
func New(sim core.Sim, opts Options) *Runner {
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	if opts.PaintBuffer <= 0 {
		opts.PaintBuffer = 256
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		sim:    sim,
		name:   sim.Name(),
		size:   sim.Size(),
		opts:   opts,
		log:    logger,
		pacer:  core.NewFixedStep(opts.TPS),
		tracer: otel.Tracer("cells/internal/runner"),
		paints: make(chan streamproto.PaintMsg, opts.PaintBuffer),
	}
}

// RunID identifies this run in logs and bootstrap responses.
func (r *Runner) RunID() string { return r.opts.RunID }

// Generation returns the number of completed steps.
func (r *Runner) Generation() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.gen
}

// Run advances the sim steps times, or until ctx is done when steps <= 0.
func (r *Runner) Run(ctx context.Context, steps int) error {
	r.log.Printf("run %s: %s %dx%d, steps=%d tps=%d", r.opts.RunID, r.name, r.size.W, r.size.H, steps, r.opts.TPS)
	r.publish()

	for i := 0; steps <= 0 || i < steps; i++ {
		if err := r.pacer.Wait(ctx); err != nil {
			return err
		}
		r.applyPaints()

		gen := r.Generation() + 1
		_, span := r.tracer.Start(ctx, "cells.step", trace.WithAttributes(
			attribute.String("cells.sim", r.name),
			attribute.Int64("cells.generation", int64(gen)),
		))
		prev := r.sim.Grid().Clone()
		r.sim.Step()
		span.SetAttributes(attribute.Int("cells.changed", changed(prev, r.sim.Grid())))
		span.End()

		r.mu.Lock()
		r.gen = gen
		r.mu.Unlock()

		r.publish()
		if r.opts.LogEvery > 0 && gen%uint64(r.opts.LogEvery) == 0 {
			r.log.Printf("run %s: generation %d: %s", r.opts.RunID, gen, FormatHistogram(r.sim.Grid().Histogram()))
		}
	}
	r.log.Printf("run %s: finished after %d generations", r.opts.RunID, r.Generation())
	return nil
}

// QueuePaint schedules a cell edit for the start of the next generation. It
// reports false when the queue is full.
func (r *Runner) QueuePaint(p streamproto.PaintMsg) bool {
	select {
	case r.paints <- p:
		return true
	default:
		return false
	}
}

func (r *Runner) applyPaints() {
	for {
		select {
		case p := <-r.paints:
			painter, ok := r.sim.(core.Painter)
			if !ok {
				r.log.Printf("run %s: %s does not accept paints", r.opts.RunID, r.name)
				continue
			}
			if !painter.Paint(p.Row, p.Col, p.State) {
				r.log.Printf("run %s: rejected paint (%d,%d)=%d", r.opts.RunID, p.Row, p.Col, p.State)
			}
		default:
			return
		}
	}
}

// Bootstrap describes the run for stream clients. It is safe to call while
// Run is in progress.
func (r *Runner) Bootstrap() streamproto.BootstrapResponse {
	resp := streamproto.BootstrapResponse{
		RunID:      r.opts.RunID,
		Sim:        r.name,
		Width:      r.size.W,
		Height:     r.size.H,
		Generation: r.Generation(),
	}
	if pp, ok := r.sim.(core.ParameterProvider); ok {
		params := pp.Parameters()
		resp.Parameters = &params
	}
	return resp
}

func (r *Runner) publish() {
	if r.opts.Publisher == nil {
		return
	}
	g := r.sim.Grid()
	err := r.opts.Publisher.Publish(streamproto.FrameMsg{
		Generation: r.Generation(),
		Width:      g.W(),
		Height:     g.H(),
		Cells:      g.Cells(),
	})
	if err != nil {
		r.log.Printf("run %s: publish: %v", r.opts.RunID, err)
	}
}

func changed(prev, next *core.Grid) int {
	a, b := prev.Cells(), next.Cells()
	if len(a) != len(b) {
		return len(b)
	}
	n := 0
	for i := range a {
		if a[i] != b[i] {
			n++
		}
	}
	return n
}

// FormatHistogram renders state counts as "state:count" pairs in state order.
func FormatHistogram(h map[core.State]int) string {
	states := make([]core.State, 0, len(h))
	for s := range h {
		states = append(states, s)
	}
	sort.Slice(states, func(i, j int) bool { return states[i] < states[j] })
	parts := make([]string, len(states))
	for i, s := range states {
		parts[i] = fmt.Sprintf("%d:%d", s, h[s])
	}
	return strings.Join(parts, " ")
}
