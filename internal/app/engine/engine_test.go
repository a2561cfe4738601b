package engine

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/R3E-Network/gameoflife/internal/app/domain/board"
	"github.com/R3E-Network/gameoflife/internal/app/metrics"
)

func cellAt(t *testing.T, b board.Board, row, column int) board.Cell {
	t.Helper()
	for _, c := range b.Cells {
		if c.RowNumber == row && c.ColumnNumber == column {
			return c
		}
	}
	t.Fatalf("cell (%d,%d) missing from board", row, column)
	return board.Cell{}
}

// grid builds a rows x columns board of dead cells with the listed cells alive.
func grid(rows, columns int, alive ...[2]int) board.Board {
	live := make(map[[2]int]bool, len(alive))
	for _, a := range alive {
		live[a] = true
	}
	b := board.Board{ID: "source"}
	for r := 0; r < rows; r++ {
		for c := 0; c < columns; c++ {
			b.Cells = append(b.Cells, board.Cell{RowNumber: r, ColumnNumber: c, IsAlive: live[[2]int{r, c}]})
		}
	}
	return b
}

func TestCalculateReturnsSameBoardWhenNothingIsAlive(t *testing.T) {
	e := New(board.DefaultWindow())
	b := board.Board{ID: "b1", ParentID: "p", Cells: []board.Cell{
		{RowNumber: 0, ColumnNumber: 0},
		{RowNumber: 0, ColumnNumber: 1},
		{RowNumber: 1, ColumnNumber: 0},
		{RowNumber: 1, ColumnNumber: 1},
	}}

	got := e.Calculate(b)
	assert.Equal(t, b, got)
	assert.Same(t, &b.Cells[0], &got.Cells[0])

	for i := 0; i < 5; i++ {
		got = e.Calculate(got)
	}
	assert.Equal(t, b, got)
}

func TestCalculateRuleOneUnderpopulation(t *testing.T) {
	e := New(board.DefaultWindow())
	b := board.Board{Cells: []board.Cell{
		{RowNumber: 0, ColumnNumber: 0, IsAlive: true},
		{RowNumber: 1, ColumnNumber: 1, IsAlive: true},
	}}
	next := e.Calculate(b)
	assert.False(t, cellAt(t, next, 1, 1).IsAlive)

	lonely := e.Calculate(grid(3, 3, [2]int{1, 1}))
	assert.False(t, cellAt(t, lonely, 1, 1).IsAlive)
}

func TestCalculateRuleTwoSurvival(t *testing.T) {
	e := New(board.DefaultWindow())

	two := board.Board{Cells: []board.Cell{
		{RowNumber: 0, ColumnNumber: 0, IsAlive: true},
		{RowNumber: 1, ColumnNumber: 0, IsAlive: true},
		{RowNumber: 1, ColumnNumber: 1, IsAlive: true},
	}}
	assert.True(t, cellAt(t, e.Calculate(two), 1, 1).IsAlive)

	three := board.Board{Cells: []board.Cell{
		{RowNumber: 0, ColumnNumber: 0, IsAlive: true},
		{RowNumber: 1, ColumnNumber: 0, IsAlive: true},
		{RowNumber: 2, ColumnNumber: 0, IsAlive: true},
		{RowNumber: 1, ColumnNumber: 1, IsAlive: true},
	}}
	assert.True(t, cellAt(t, e.Calculate(three), 1, 1).IsAlive)
}

func TestCalculateRuleThreeOverpopulation(t *testing.T) {
	e := New(board.DefaultWindow())
	b := board.Board{Cells: []board.Cell{
		{RowNumber: 0, ColumnNumber: 0, IsAlive: true},
		{RowNumber: 1, ColumnNumber: 0, IsAlive: true},
		{RowNumber: 2, ColumnNumber: 0, IsAlive: true},
		{RowNumber: 0, ColumnNumber: 1, IsAlive: true},
		{RowNumber: 1, ColumnNumber: 1, IsAlive: true},
	}}
	assert.False(t, cellAt(t, e.Calculate(b), 1, 1).IsAlive)
}

func TestCalculateRuleFourReproduction(t *testing.T) {
	e := New(board.DefaultWindow())
	for neighbours := 0; neighbours <= 8; neighbours++ {
		ring := [][2]int{{0, 0}, {0, 1}, {0, 2}, {1, 0}, {1, 2}, {2, 0}, {2, 1}, {2, 2}}
		b := grid(3, 3, ring[:neighbours]...)
		// the centre starts dead; a board with no life is returned unchanged, which also leaves it dead
		got := cellAt(t, e.Calculate(b), 1, 1).IsAlive
		assert.Equal(t, neighbours == 3, got, "dead cell with %d live neighbours", neighbours)
	}
}

func TestCalculateBlinkerOscillates(t *testing.T) {
	e := New(board.DefaultWindow())
	horizontal := grid(3, 5, [2]int{1, 1}, [2]int{1, 2}, [2]int{1, 3})

	vertical := e.Calculate(horizontal)
	for _, c := range vertical.Cells {
		want := c.ColumnNumber == 2 && c.RowNumber >= 0 && c.RowNumber <= 2
		assert.Equal(t, want, c.IsAlive, "after one step cell (%d,%d)", c.RowNumber, c.ColumnNumber)
	}

	back := e.Calculate(vertical)
	for i, c := range back.Cells {
		assert.Equal(t, horizontal.Cells[i].IsAlive, c.IsAlive, "after two steps cell (%d,%d)", c.RowNumber, c.ColumnNumber)
	}
}

func TestCalculateKeepsCoordinatesAndDropsIdentity(t *testing.T) {
	e := New(board.DefaultWindow())
	in := grid(4, 4, [2]int{1, 1}, [2]int{1, 2}, [2]int{2, 1})
	in.ParentID = "parent"

	out := e.Calculate(in)
	require.Len(t, out.Cells, len(in.Cells))
	assert.Empty(t, out.ID)
	assert.Empty(t, out.ParentID)
	for i := range in.Cells {
		assert.Equal(t, in.Cells[i].RowNumber, out.Cells[i].RowNumber)
		assert.Equal(t, in.Cells[i].ColumnNumber, out.Cells[i].ColumnNumber)
	}
	// the input snapshot is never mutated
	assert.True(t, cellAt(t, in, 1, 1).IsAlive)
}

func TestCalculateParallelMatchesSequential(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	var alive [][2]int
	for r := 0; r < 60; r++ {
		for c := 0; c < 60; c++ {
			if rng.Intn(3) == 0 {
				alive = append(alive, [2]int{r, c})
			}
		}
	}
	b := grid(60, 60, alive...)

	sequential := New(board.DefaultWindow(), WithWorkers(1))
	parallel := New(board.DefaultWindow(), WithWorkers(8))

	want, got := b, b
	for i := 0; i < 10; i++ {
		want = sequential.Calculate(want)
		got = parallel.Calculate(got)
		require.Equal(t, want.Cells, got.Cells, "generation %d", i+1)
	}
}

func TestCalculateHonoursCustomWindow(t *testing.T) {
	// A window looking only at the cell to the left and right.
	e := New(board.Window{ColumnStart: -1, ColumnEnd: 1, RowStart: 0, RowEnd: 0})
	b := grid(3, 3, [2]int{0, 1}, [2]int{1, 0}, [2]int{1, 2})

	// (1,1) has two live neighbours in this window but three in Moore.
	assert.False(t, cellAt(t, e.Calculate(b), 1, 1).IsAlive)
	assert.True(t, cellAt(t, New(board.DefaultWindow()).Calculate(b), 1, 1).IsAlive)
}

func TestNextStatusRules(t *testing.T) {
	for n := 0; n <= 8; n++ {
		assert.Equal(t, n == 2 || n == 3, nextStatus(true, n), "alive with %d", n)
		assert.Equal(t, n == 3, nextStatus(false, n), "dead with %d", n)
	}
}

func TestCalculateLeavesMetricsUntouched(t *testing.T) {
	gather := func() map[string]string {
		families, err := metrics.Registry.Gather()
		require.NoError(t, err)
		out := make(map[string]string)
		for _, mf := range families {
			if strings.HasPrefix(mf.GetName(), "gameoflife_") {
				out[mf.GetName()] = mf.String()
			}
		}
		return out
	}

	before := gather()
	e := New(board.DefaultWindow(), WithWorkers(4))
	b := grid(40, 40, [2]int{1, 1}, [2]int{1, 2}, [2]int{1, 3})
	for i := 0; i < 3; i++ {
		b = e.Calculate(b)
	}
	assert.Equal(t, before, gather())
}
