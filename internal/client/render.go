package client

import (
	"bufio"
	"fmt"
	"io"
	"math/rand"
	"strings"

	"github.com/R3E-Network/gameoflife/pkg/api"
)

const (
	aliveGlyph = '#'
	deadGlyph  = '.'
)

// Largest area Render draws. Boards spanning more are cropped.
const (
	MaxRenderRows    = 200
	MaxRenderColumns = 200
)

type span struct{ minRow, maxRow, minCol, maxCol int }

func bounds(cells []api.BoardCellModel, aliveOnly bool) (span, bool) {
	var s span
	found := false
	for _, c := range cells {
		if aliveOnly && !c.IsAlive {
			continue
		}
		if !found {
			s = span{c.RowNumber, c.RowNumber, c.ColumnNumber, c.ColumnNumber}
			found = true
			continue
		}
		s.minRow, s.maxRow = min(s.minRow, c.RowNumber), max(s.maxRow, c.RowNumber)
		s.minCol, s.maxCol = min(s.minCol, c.ColumnNumber), max(s.maxCol, c.ColumnNumber)
	}
	return s, found
}

func (s span) rows() int    { return s.maxRow - s.minRow + 1 }
func (s span) columns() int { return s.maxCol - s.minCol + 1 }

func (s span) fits() bool {
	return s.rows() <= MaxRenderRows && s.columns() <= MaxRenderColumns
}

// Render draws cells as text rows spanning their bounding box. Positions
// without a cell are drawn dead. A box larger than MaxRenderRows by
// MaxRenderColumns is narrowed to the live cells and then cropped, and a
// trailing line reports the full size.
func Render(cells []api.BoardCellModel) string {
	full, ok := bounds(cells, false)
	if !ok {
		return ""
	}
	view := full
	if !view.fits() {
		if live, ok := bounds(cells, true); ok {
			view = live
		}
		view.maxRow = min(view.maxRow, view.minRow+MaxRenderRows-1)
		view.maxCol = min(view.maxCol, view.minCol+MaxRenderColumns-1)
	}

	width := view.columns()
	grid := make([][]byte, view.rows())
	for i := range grid {
		grid[i] = []byte(strings.Repeat(string(deadGlyph), width))
	}
	for _, c := range cells {
		if !c.IsAlive || c.RowNumber < view.minRow || c.RowNumber > view.maxRow ||
			c.ColumnNumber < view.minCol || c.ColumnNumber > view.maxCol {
			continue
		}
		grid[c.RowNumber-view.minRow][c.ColumnNumber-view.minCol] = aliveGlyph
	}

	var b strings.Builder
	for _, row := range grid {
		b.Write(row)
		b.WriteByte('\n')
	}
	if view != full {
		fmt.Fprintf(&b, "(showing rows %d-%d, columns %d-%d of a %dx%d board)\n",
			view.minRow, view.maxRow, view.minCol, view.maxCol, full.rows(), full.columns())
	}
	return b.String()
}

// ParsePattern reads rows of '#' or 'O' (alive) and '.' (dead). Lines
// starting with '!' are comments. Short rows are padded with dead cells so
// the board is rectangular.
func ParsePattern(r io.Reader) ([]api.BoardCellModel, error) {
	var rows []string
	width := 0
	scanner := bufio.NewScanner(r)
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimRight(scanner.Text(), " \t\r")
		if strings.HasPrefix(text, "!") {
			continue
		}
		for col, ch := range text {
			if ch != '#' && ch != 'O' && ch != '.' {
				return nil, fmt.Errorf("line %d column %d: unexpected %q", line, col+1, ch)
			}
		}
		rows = append(rows, text)
		width = max(width, len(text))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	// trailing blank lines carry no cells
	for len(rows) > 0 && rows[len(rows)-1] == "" {
		rows = rows[:len(rows)-1]
	}
	if len(rows) == 0 || width == 0 {
		return nil, fmt.Errorf("pattern has no cells")
	}

	cells := make([]api.BoardCellModel, 0, len(rows)*width)
	for row, text := range rows {
		for col := 0; col < width; col++ {
			alive := col < len(text) && (text[col] == '#' || text[col] == 'O')
			cells = append(cells, api.BoardCellModel{RowNumber: row, ColumnNumber: col, IsAlive: alive})
		}
	}
	return cells, nil
}

// Random fills a width x height board, each cell alive with the given
// probability.
func Random(width, height int, density float64, rng *rand.Rand) ([]api.BoardCellModel, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("board size %dx%d must be positive", width, height)
	}
	if density < 0 || density > 1 {
		return nil, fmt.Errorf("density %v must be between 0 and 1", density)
	}
	cells := make([]api.BoardCellModel, 0, width*height)
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			cells = append(cells, api.BoardCellModel{RowNumber: row, ColumnNumber: col, IsAlive: rng.Float64() < density})
		}
	}
	return cells, nil
}
