package board

import (
	"fmt"
	"time"
)

// Cell is one position on a board. Row and column identify it within a snapshot.
type Cell struct {
	RowNumber    int  `json:"rowNumber"`
	ColumnNumber int  `json:"columnNumber"`
	IsAlive      bool `json:"isAlive"`
}

// Board is an immutable generation snapshot. ID is assigned when the snapshot
// is persisted and ParentID points at the snapshot it was computed from.
type Board struct {
	ID        string
	ParentID  string
	Cells     []Cell
	CreatedAt time.Time
}

// Window is the range of relative offsets that count as neighbours. The
// (0,0) offset is always excluded.
type Window struct {
	ColumnStart int
	ColumnEnd   int
	RowStart    int
	RowEnd      int
}

// DefaultWindow is the Moore neighbourhood.
func DefaultWindow() Window {
	return Window{ColumnStart: -1, ColumnEnd: 1, RowStart: -1, RowEnd: 1}
}

// Validate rejects inverted ranges.
func (w Window) Validate() error {
	if w.ColumnStart > w.ColumnEnd {
		return fmt.Errorf("column offset start %d is after end %d", w.ColumnStart, w.ColumnEnd)
	}
	if w.RowStart > w.RowEnd {
		return fmt.Errorf("row offset start %d is after end %d", w.RowStart, w.RowEnd)
	}
	return nil
}

// AliveCount returns the number of live cells.
func (b Board) AliveCount() int {
	n := 0
	for _, c := range b.Cells {
		if c.IsAlive {
			n++
		}
	}
	return n
}

// HasLife reports whether any cell is alive.
func (b Board) HasLife() bool {
	for _, c := range b.Cells {
		if c.IsAlive {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so stores never share cell slices with callers.
func (b Board) Clone() Board {
	out := b
	if b.Cells != nil {
		out.Cells = make([]Cell, len(b.Cells))
		copy(out.Cells, b.Cells)
	}
	return out
}

// ValidateCells checks the snapshot invariants a client can break: at least
// one cell, no negative coordinates and unique coordinates.
func (b Board) ValidateCells() error {
	if len(b.Cells) == 0 {
		return fmt.Errorf("board has no cells")
	}
	seen := make(map[[2]int]struct{}, len(b.Cells))
	for _, c := range b.Cells {
		if c.RowNumber < 0 || c.ColumnNumber < 0 {
			return fmt.Errorf("cell (%d,%d) has a negative coordinate", c.RowNumber, c.ColumnNumber)
		}
		key := [2]int{c.RowNumber, c.ColumnNumber}
		if _, dup := seen[key]; dup {
			return fmt.Errorf("cell (%d,%d) appears more than once", c.RowNumber, c.ColumnNumber)
		}
		seen[key] = struct{}{}
	}
	return nil
}
