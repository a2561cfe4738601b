// Package engine computes Game of Life generations.
package engine

import (
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/R3E-Network/gameoflife/internal/app/domain/board"
)

// Cells per worker below which a generation is computed on the calling goroutine.
const minChunk = 256

// Engine applies the Game of Life rules to a board snapshot.
type Engine struct {
	resolver Resolver
	workers  int
}

// Option customises an Engine.
type Option func(*Engine)

// WithWorkers bounds the number of goroutines evaluating cells. Values below
// one select runtime.NumCPU.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// New builds an engine for the given neighbour window.
func New(w board.Window, opts ...Option) *Engine {
	e := &Engine{resolver: NewResolver(w), workers: runtime.NumCPU()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Neighbors returns how many offsets the engine's window contains.
func (e *Engine) Neighbors() int {
	return e.resolver.Size()
}

// Calculate returns the next generation. A board without live cells is
// returned unchanged. The output keeps the input coordinate set and order and
// carries no id.
func (e *Engine) Calculate(current board.Board) board.Board {
	if !current.HasLife() {
		return current
	}

	alive := make(map[Coordinate]bool, len(current.Cells))
	for _, c := range current.Cells {
		alive[Coordinate{Column: c.ColumnNumber, Row: c.RowNumber}] = c.IsAlive
	}

	next := make([]board.Cell, len(current.Cells))
	evaluate := func(from, to int) {
		for i := from; i < to; i++ {
			c := current.Cells[i]
			n := e.liveNeighbors(alive, c.ColumnNumber, c.RowNumber)
			next[i] = board.Cell{
				RowNumber:    c.RowNumber,
				ColumnNumber: c.ColumnNumber,
				IsAlive:      nextStatus(c.IsAlive, n),
			}
		}
	}

	chunks := e.chunks(len(next))
	if chunks <= 1 {
		evaluate(0, len(next))
	} else {
		size := (len(next) + chunks - 1) / chunks
		var g errgroup.Group
		g.SetLimit(e.workers)
		for from := 0; from < len(next); from += size {
			from, to := from, min(from+size, len(next))
			g.Go(func() error {
				evaluate(from, to)
				return nil
			})
		}
		_ = g.Wait()
	}

	return board.Board{Cells: next}
}

func (e *Engine) chunks(cells int) int {
	if e.workers <= 1 || cells < 2*minChunk {
		return 1
	}
	return min(e.workers, cells/minChunk)
}

// Coordinates missing from the lookup count as dead.
func (e *Engine) liveNeighbors(alive map[Coordinate]bool, column, row int) int {
	n := 0
	for c := range e.resolver.NeighborCoordinates(column, row) {
		if alive[c] {
			n++
		}
	}
	return n
}

func nextStatus(isAlive bool, liveNeighbors int) bool {
	switch {
	case isAlive && liveNeighbors < 2:
		// underpopulation
		return false
	case isAlive && (liveNeighbors == 2 || liveNeighbors == 3):
		return true
	case isAlive && liveNeighbors > 3:
		// overpopulation
		return false
	case !isAlive && liveNeighbors == 3:
		// reproduction
		return true
	default:
		return false
	}
}
