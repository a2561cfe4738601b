package boards

import (
	"context"
	stderrors "errors"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/R3E-Network/gameoflife/internal/app/domain/board"
	"github.com/R3E-Network/gameoflife/internal/app/engine"
	"github.com/R3E-Network/gameoflife/internal/app/metrics"
	"github.com/R3E-Network/gameoflife/internal/app/storage"
	"github.com/R3E-Network/gameoflife/internal/app/storage/memory"
	"github.com/R3E-Network/gameoflife/internal/errors"
	"github.com/R3E-Network/gameoflife/pkg/logger"
)

// countingStore wraps a store and can fail inserts after a number of
// successful ones.
type countingStore struct {
	storage.BoardStore
	mu        sync.Mutex
	inserts   int
	failAfter int // zero never fails
}

func (c *countingStore) InsertBoard(ctx context.Context, b board.Board) (board.Board, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failAfter > 0 && c.inserts >= c.failAfter {
		return board.Board{}, stderrors.New("disk full")
	}
	c.inserts++
	return c.BoardStore.InsertBoard(ctx, b)
}

func (c *countingStore) insertCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inserts
}

type brokenStore struct{ storage.BoardStore }

func (brokenStore) GetBoard(context.Context, string) (board.Board, error) {
	return board.Board{}, stderrors.New("connection reset")
}

func (brokenStore) DeleteBoard(context.Context, string) (int64, error) {
	return 0, stderrors.New("connection reset")
}

func quietLogger() *logger.Logger {
	l := logger.NewDefault("boards")
	l.SetOutput(io.Discard)
	return l
}

func blinker() board.Board {
	var cells []board.Cell
	for row := 0; row < 5; row++ {
		for col := 0; col < 5; col++ {
			cells = append(cells, board.Cell{RowNumber: row, ColumnNumber: col, IsAlive: row == 2 && col >= 1 && col <= 3})
		}
	}
	return board.Board{Cells: cells}
}

func newService(t *testing.T, limit int) (*Service, *countingStore) {
	t.Helper()
	store := &countingStore{BoardStore: memory.New()}
	svc := New(store, engine.New(board.DefaultWindow(), engine.WithWorkers(2)), Config{StatesIncrementLimit: limit}, quietLogger())
	return svc, store
}

func seed(t *testing.T, svc *Service) board.Board {
	t.Helper()
	b, err := svc.NewGame(context.Background(), blinker())
	require.NoError(t, err)
	return b
}

// chain walks parent links from b and returns the ids visited, newest first.
func chain(t *testing.T, svc *Service, b board.Board) []string {
	t.Helper()
	ids := []string{b.ID}
	for b.ParentID != "" {
		parent, err := svc.LoadGame(context.Background(), b.ParentID)
		require.NoError(t, err)
		ids = append(ids, parent.ID)
		b = parent
	}
	return ids
}

func TestNewGame(t *testing.T) {
	svc, _ := newService(t, 10)
	ctx := context.Background()

	in := blinker()
	in.ID = "client-id"
	in.ParentID = "client-parent"
	created, err := svc.NewGame(ctx, in)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.NotEqual(t, "client-id", created.ID)
	assert.Empty(t, created.ParentID)
	assert.Len(t, created.Cells, 25)

	_, err = svc.NewGame(ctx, board.Board{})
	assert.True(t, errors.IsValidation(err))

	dup := board.Board{Cells: []board.Cell{{RowNumber: 1, ColumnNumber: 1}, {RowNumber: 1, ColumnNumber: 1, IsAlive: true}}}
	_, err = svc.NewGame(ctx, dup)
	assert.True(t, errors.IsValidation(err))
}

func TestLoadGame(t *testing.T) {
	svc, _ := newService(t, 10)
	created := seed(t, svc)

	loaded, err := svc.LoadGame(context.Background(), " "+created.ID+" ")
	require.NoError(t, err)
	assert.Equal(t, created.Cells, loaded.Cells)

	_, err = svc.LoadGame(context.Background(), "missing")
	assert.True(t, errors.IsNotFound(err))

	_, err = svc.LoadGame(context.Background(), "  ")
	assert.True(t, errors.IsValidation(err))
}

func TestEndGame(t *testing.T) {
	svc, _ := newService(t, 10)
	created := seed(t, svc)
	next, err := svc.NextState(context.Background(), created.ID)
	require.NoError(t, err)

	n, err := svc.EndGame(context.Background(), created.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	// history is not cascaded
	_, err = svc.LoadGame(context.Background(), next.Board.ID)
	assert.NoError(t, err)

	_, err = svc.EndGame(context.Background(), created.ID)
	svcErr := errors.From(err)
	require.NotNil(t, svcErr)
	assert.Equal(t, errors.CodeBadRequest, svcErr.Code)
}

func TestNextStateAdvancesOneGenerationWithoutCeiling(t *testing.T) {
	svc, store := newService(t, 1)
	created := seed(t, svc)
	before := store.insertCount()

	res, err := svc.NextState(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Generations)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, created.ID, res.Board.ParentID)
	assert.NotEqual(t, created.ID, res.Board.ID)
	assert.Equal(t, before+1, store.insertCount())

	// vertical blinker
	alive := map[[2]int]bool{}
	for _, c := range res.Board.Cells {
		if c.IsAlive {
			alive[[2]int{c.RowNumber, c.ColumnNumber}] = true
		}
	}
	assert.Equal(t, map[[2]int]bool{{1, 2}: true, {2, 2}: true, {3, 2}: true}, alive)
}

func TestNextStateUnknownBoardPersistsNothing(t *testing.T) {
	svc, store := newService(t, 10)
	_, err := svc.NextState(context.Background(), "nope")
	assert.True(t, errors.IsNotFound(err))
	assert.Zero(t, store.insertCount())
}

func TestIncrementStateWithinLimit(t *testing.T) {
	svc, store := newService(t, 10)
	created := seed(t, svc)
	before := store.insertCount()

	res, err := svc.IncrementState(context.Background(), created.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Generations)
	assert.False(t, res.Limited())
	assert.Empty(t, res.Warnings)
	assert.Equal(t, before+4, store.insertCount())

	ids := chain(t, svc, res.Board)
	require.Len(t, ids, 5)
	assert.Equal(t, created.ID, ids[4])

	// period two: four steps lands back on the seed pattern
	assert.Equal(t, created.Cells, res.Board.Cells)
}

func cellsEvaluated(t *testing.T) float64 {
	t.Helper()
	families, err := metrics.Registry.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == "gameoflife_engine_cells_evaluated_total" {
			return mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	t.Fatalf("cells evaluated counter not registered")
	return 0
}

func TestAdvanceCountsEvaluatedCells(t *testing.T) {
	svc, _ := newService(t, 10)
	created := seed(t, svc)

	before := cellsEvaluated(t)
	_, err := svc.IncrementState(context.Background(), created.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, before+float64(3*len(created.Cells)), cellsEvaluated(t))

	// dead boards skip the rules entirely
	dead, err := svc.NewGame(context.Background(), board.Board{Cells: []board.Cell{{RowNumber: 0, ColumnNumber: 0}}})
	require.NoError(t, err)
	before = cellsEvaluated(t)
	_, err = svc.IncrementState(context.Background(), dead.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, before, cellsEvaluated(t))
}

func TestIncrementStateExactlyAtLimitHasNoWarning(t *testing.T) {
	svc, _ := newService(t, 3)
	created := seed(t, svc)

	res, err := svc.IncrementState(context.Background(), created.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Generations)
	assert.Empty(t, res.Warnings)
}

func TestIncrementStateAboveLimitIsClipped(t *testing.T) {
	svc, store := newService(t, 3)
	created := seed(t, svc)
	before := store.insertCount()

	res, err := svc.IncrementState(context.Background(), created.ID, 50)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Generations)
	assert.Equal(t, []errors.Code{errors.CodeIncrementLimit}, res.Warnings)
	assert.True(t, res.Limited())
	assert.Equal(t, before+3, store.insertCount())
	assert.Len(t, chain(t, svc, res.Board), 4)
}

func TestIncrementStateRejectsNonPositiveSteps(t *testing.T) {
	svc, store := newService(t, 3)
	created := seed(t, svc)
	before := store.insertCount()

	for _, n := range []int{0, -1} {
		_, err := svc.IncrementState(context.Background(), created.ID, n)
		assert.True(t, errors.IsValidation(err), "steps %d", n)
	}
	assert.Equal(t, before, store.insertCount())
}

func TestIncrementStateUnknownBoard(t *testing.T) {
	svc, store := newService(t, 3)
	_, err := svc.IncrementState(context.Background(), "ghost", 2)
	assert.True(t, errors.IsNotFound(err))
	assert.Zero(t, store.insertCount())
}

func TestIncrementTillTheLimit(t *testing.T) {
	svc, store := newService(t, 5)

	// a dead board still runs the full ceiling
	dead, err := svc.NewGame(context.Background(), board.Board{Cells: []board.Cell{{RowNumber: 0, ColumnNumber: 0}}})
	require.NoError(t, err)
	before := store.insertCount()

	res, err := svc.IncrementTillTheLimit(context.Background(), dead.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, res.Generations)
	assert.Equal(t, []errors.Code{errors.CodeIncrementLimit}, res.Warnings)
	assert.Equal(t, before+5, store.insertCount())
	assert.Len(t, chain(t, svc, res.Board), 6)
	assert.Equal(t, dead.Cells, res.Board.Cells)

	_, err = svc.IncrementTillTheLimit(context.Background(), "ghost")
	assert.True(t, errors.IsNotFound(err))
}

func TestPersistenceFailureKeepsPartialProgress(t *testing.T) {
	svc, store := newService(t, 10)
	created := seed(t, svc)
	store.failAfter = store.insertCount() + 2

	res, err := svc.IncrementState(context.Background(), created.ID, 5)
	require.Error(t, err)
	svcErr := errors.From(err)
	assert.Equal(t, errors.KindInternal, svcErr.Kind)
	assert.Equal(t, 2, res.Generations)

	// the two persisted generations remain
	stored, err := svc.LoadGame(context.Background(), res.Board.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, chain(t, svc, stored)[2])
}

func TestStoreReadFailureIsInternal(t *testing.T) {
	svc := New(brokenStore{memory.New()}, engine.New(board.DefaultWindow()), Config{StatesIncrementLimit: 2}, quietLogger())

	_, err := svc.NextState(context.Background(), "any")
	require.Error(t, err)
	assert.Equal(t, errors.KindInternal, errors.From(err).Kind)
	assert.False(t, errors.IsNotFound(err))

	_, err = svc.EndGame(context.Background(), "any")
	assert.Equal(t, errors.KindInternal, errors.From(err).Kind)
}

func TestStreamStateObservesEachGeneration(t *testing.T) {
	svc, _ := newService(t, 3)
	created := seed(t, svc)

	var seen []int
	parent := created.ID
	res, err := svc.StreamState(context.Background(), created.ID, 7, func(ctx context.Context, gen int, b board.Board) error {
		seen = append(seen, gen)
		assert.Equal(t, parent, b.ParentID)
		parent = b.ID
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, seen)
	assert.True(t, res.Limited())
	assert.Equal(t, parent, res.Board.ID)
}

func TestStreamStateStopsOnObserverError(t *testing.T) {
	svc, store := newService(t, 10)
	created := seed(t, svc)
	before := store.insertCount()

	res, err := svc.StreamState(context.Background(), created.ID, 5, func(ctx context.Context, gen int, b board.Board) error {
		if gen == 2 {
			return stderrors.New("client went away")
		}
		return nil
	})
	require.Error(t, err)
	assert.Equal(t, 2, res.Generations)
	assert.Equal(t, before+2, store.insertCount())
}

func TestStreamStateStopsOnCancel(t *testing.T) {
	svc, store := newService(t, 10)
	created := seed(t, svc)
	before := store.insertCount()

	ctx, cancel := context.WithCancel(context.Background())
	res, err := svc.StreamState(ctx, created.ID, 5, func(ctx context.Context, gen int, b board.Board) error {
		if gen == 1 {
			cancel()
		}
		return nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, res.Generations)
	assert.Equal(t, before+1, store.insertCount())
}

func TestNewDefaultsLimit(t *testing.T) {
	svc := New(memory.New(), engine.New(board.DefaultWindow()), Config{}, nil)
	assert.Equal(t, DefaultStatesIncrementLimit, svc.Limit())
}
