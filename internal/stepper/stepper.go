// Package stepper advances a grid by one synchronous generation.
package stepper

import (
	"fmt"

	"cells/internal/core"
)

// Coord addresses a cell by row and column.
type Coord struct {
	Row, Col int
}

// Resolver decides the next state of a cell from its neighbors' states.
type Resolver interface {
	Resolve(cell core.State, neighbors []core.State) core.State
}

// offsets lists north, west, east, south. The order feeds the rulebook's
// tie-break and must not change.
var offsets = [4]Coord{{-1, 0}, {0, -1}, {0, 1}, {1, 0}}

// NeighborsOf returns the in-bounds orthogonal neighbors of (row, col) in the
// order north, west, east, south. The grid does not wrap.
func NeighborsOf(row, col, height, width int) []Coord {
	if height < 0 || width < 0 {
		panic(fmt.Sprintf("stepper: invalid dimensions %dx%d", height, width))
	}
	out := make([]Coord, 0, len(offsets))
	for _, d := range offsets {
		r, c := row+d.Row, col+d.Col
		if r < 0 || r >= height || c < 0 || c >= width {
			continue
		}
		out = append(out, Coord{Row: r, Col: c})
	}
	return out
}

// neighborStates appends the states of (row, col)'s neighbors to buf.
func neighborStates(g *core.Grid, row, col int, buf []core.State) []core.State {
	cells := g.Cells()
	h, w := g.H(), g.W()
	for _, d := range offsets {
		r, c := row+d.Row, col+d.Col
		if r < 0 || r >= h || c < 0 || c >= w {
			continue
		}
		buf = append(buf, cells[r*w+c])
	}
	return buf
}

// Step computes the next generation of g. Every cell is resolved against the
// states in g; results go to a newly allocated grid of the same shape, so g
// is left untouched.
func Step(g *core.Grid, r Resolver) *core.Grid {
	next := core.NewGrid(g.H(), g.W())
	stepRows(g, next, 0, g.H(), r.Resolve)
	return next
}

func stepRows(cur, next *core.Grid, from, to int, resolve func(core.State, []core.State) core.State) {
	src, dst := cur.Cells(), next.Cells()
	w := cur.W()
	buf := make([]core.State, 0, len(offsets))
	for row := from; row < to; row++ {
		for col := 0; col < w; col++ {
			idx := row*w + col
			buf = neighborStates(cur, row, col, buf[:0])
			dst[idx] = resolve(src[idx], buf)
		}
	}
}
