package engine

import (
	"iter"

	"github.com/R3E-Network/gameoflife/internal/app/domain/board"
)

// Coordinate addresses a cell by column and row.
type Coordinate struct {
	Column int
	Row    int
}

// Resolver enumerates neighbour coordinates for a configured offset window.
type Resolver struct {
	offsets []Coordinate
}

// NewResolver precomputes the offsets of the window, skipping (0,0).
func NewResolver(w board.Window) Resolver {
	var offsets []Coordinate
	for dc := w.ColumnStart; dc <= w.ColumnEnd; dc++ {
		for dr := w.RowStart; dr <= w.RowEnd; dr++ {
			if dc == 0 && dr == 0 {
				continue
			}
			offsets = append(offsets, Coordinate{Column: dc, Row: dr})
		}
	}
	return Resolver{offsets: offsets}
}

// Size is the number of neighbours every cell has.
func (r Resolver) Size() int {
	return len(r.offsets)
}

// NeighborCoordinates yields the neighbours of (column, row). The sequence can
// be ranged over any number of times.
func (r Resolver) NeighborCoordinates(column, row int) iter.Seq[Coordinate] {
	return func(yield func(Coordinate) bool) {
		for _, off := range r.offsets {
			if !yield(Coordinate{Column: column + off.Column, Row: row + off.Row}) {
				return
			}
		}
	}
}
