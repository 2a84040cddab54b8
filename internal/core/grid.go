package core

import "fmt"

// State is the discriminant of a single cell. The engine never assumes how
// many distinct states an automaton uses.
type State uint16

// Grid stores a 2D snapshot of cell states in row-major order.
type Grid struct {
	h, w int
	data []State
}

// NewGrid allocates a grid with h rows and w columns, all cells in state 0.
func NewGrid(h, w int) *Grid {
	if h < 0 || w < 0 {
		panic(fmt.Sprintf("core: invalid grid dimensions %dx%d", h, w))
	}
	return &Grid{h: h, w: w, data: make([]State, h*w)}
}

// GridFromRows builds a grid from a slice of equally sized rows.
func GridFromRows(rows [][]State) *Grid {
	h := len(rows)
	w := 0
	if h > 0 {
		w = len(rows[0])
	}
	g := NewGrid(h, w)
	for r, row := range rows {
		if len(row) != w {
			panic(fmt.Sprintf("core: row %d has %d cells, want %d", r, len(row), w))
		}
		copy(g.data[r*w:(r+1)*w], row)
	}
	return g
}

// H returns the number of rows.
func (g *Grid) H() int { return g.h }

// W returns the number of columns.
func (g *Grid) W() int { return g.w }

// Size reports the grid dimensions.
func (g *Grid) Size() Size { return Size{W: g.w, H: g.h} }

// Cells exposes the backing slice so callers can read/write values directly.
func (g *Grid) Cells() []State { return g.data }

// Index returns the linear slice index for (row, col).
func (g *Grid) Index(row, col int) int { return row*g.w + col }

// InBounds reports whether (row, col) addresses a cell of the grid.
func (g *Grid) InBounds(row, col int) bool {
	return row >= 0 && row < g.h && col >= 0 && col < g.w
}

// At returns the state at (row, col).
func (g *Grid) At(row, col int) State { return g.data[row*g.w+col] }

// Set overwrites the state at (row, col). It reports false when the
// coordinates fall outside the grid.
func (g *Grid) Set(row, col int, s State) bool {
	if !g.InBounds(row, col) {
		return false
	}
	g.data[row*g.w+col] = s
	return true
}

// Clone returns an independent copy of the grid.
func (g *Grid) Clone() *Grid {
	c := NewGrid(g.h, g.w)
	copy(c.data, g.data)
	return c
}

// Equal reports whether both grids have the same shape and contents.
func (g *Grid) Equal(o *Grid) bool {
	if g.h != o.h || g.w != o.w {
		return false
	}
	for i, v := range g.data {
		if o.data[i] != v {
			return false
		}
	}
	return true
}

// Fill sets every cell to s.
func (g *Grid) Fill(s State) {
	for i := range g.data {
		g.data[i] = s
	}
}

// Histogram counts how many cells hold each state.
func (g *Grid) Histogram() map[State]int {
	counts := make(map[State]int)
	for _, v := range g.data {
		counts[v]++
	}
	return counts
}
