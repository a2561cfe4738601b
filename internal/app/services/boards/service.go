// Package boards runs the game lifecycle: creating, loading and ending games
// and advancing them generation by generation. Every generation is persisted
// as a new snapshot whose parent is the snapshot it was computed from.
package boards

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/R3E-Network/gameoflife/internal/app/domain/board"
	"github.com/R3E-Network/gameoflife/internal/app/metrics"
	"github.com/R3E-Network/gameoflife/internal/app/storage"
	"github.com/R3E-Network/gameoflife/internal/errors"
	"github.com/R3E-Network/gameoflife/pkg/logger"
)

// DefaultStatesIncrementLimit is used when Config leaves the ceiling unset.
const DefaultStatesIncrementLimit = 100

// Operation names used for logs and metrics labels.
const (
	OpNextState             = "next_state"
	OpIncrementState        = "increment_state"
	OpIncrementTillTheLimit = "increment_till_the_limit"
	OpStreamState           = "stream_state"
)

// Calculator computes the generation that follows a snapshot.
type Calculator interface {
	Calculate(current board.Board) board.Board
}

// Config carries the progression policy.
type Config struct {
	// StatesIncrementLimit bounds the generations one request may compute.
	StatesIncrementLimit int
}

// Result is a successful advance. Warnings holds informational codes such as
// errors.CodeIncrementLimit; they never make the operation fail.
type Result struct {
	Board       board.Board
	Generations int
	Warnings    []errors.Code
}

// Limited reports whether the ceiling clipped the request.
func (r Result) Limited() bool {
	for _, w := range r.Warnings {
		if w == errors.CodeIncrementLimit {
			return true
		}
	}
	return false
}

// Observer is told about every generation right after it is persisted.
// Returning an error stops the advance.
type Observer func(ctx context.Context, generation int, b board.Board) error

// Service orchestrates board snapshots and generation advances.
type Service struct {
	store  storage.BoardStore
	engine Calculator
	limit  int
	log    *logger.Logger
}

// New constructs a board service.
func New(store storage.BoardStore, engine Calculator, cfg Config, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("boards")
	}
	limit := cfg.StatesIncrementLimit
	if limit <= 0 {
		limit = DefaultStatesIncrementLimit
	}
	return &Service{store: store, engine: engine, limit: limit, log: log}
}

// Limit returns the configured generation ceiling.
func (s *Service) Limit() int {
	return s.limit
}

// NewGame validates and persists a fresh board. Any id or parent supplied by
// the caller is discarded.
func (s *Service) NewGame(ctx context.Context, b board.Board) (board.Board, error) {
	if err := b.ValidateCells(); err != nil {
		return board.Board{}, errors.Validation(err.Error())
	}
	b.ID = ""
	b.ParentID = ""
	b.CreatedAt = time.Time{}

	created, err := s.store.InsertBoard(ctx, b)
	if err != nil {
		s.log.WithContext(ctx).WithError(err).Error("persist new board")
		return board.Board{}, errors.Internal(err)
	}
	s.log.WithContext(ctx).
		WithField("board_id", created.ID).
		WithField("cells", len(created.Cells)).
		WithField("alive", created.AliveCount()).
		Info("game created")
	return created, nil
}

// LoadGame returns a stored snapshot.
func (s *Service) LoadGame(ctx context.Context, boardID string) (board.Board, error) {
	return s.load(ctx, boardID)
}

// EndGame deletes a single snapshot. Its ancestors and descendants are kept.
// Deleting nothing is reported as a bad request.
func (s *Service) EndGame(ctx context.Context, boardID string) (int64, error) {
	boardID = strings.TrimSpace(boardID)
	if boardID == "" {
		return 0, errors.Validation("board id is required")
	}
	deleted, err := s.store.DeleteBoard(ctx, boardID)
	if err != nil {
		s.log.WithContext(ctx).WithError(err).WithField("board_id", boardID).Error("delete board")
		return 0, errors.Internal(err)
	}
	if deleted == 0 {
		return 0, errors.Validationf("board %q was not deleted", boardID)
	}
	s.log.WithContext(ctx).WithField("board_id", boardID).Info("game ended")
	return deleted, nil
}

// NextState advances exactly one generation. The ceiling does not apply.
func (s *Service) NextState(ctx context.Context, boardID string) (Result, error) {
	current, err := s.load(ctx, boardID)
	if err != nil {
		return Result{}, err
	}
	return s.advance(ctx, OpNextState, current, 1, false, nil)
}

// IncrementState advances min(requested, limit) generations. When the
// request exceeds the limit the result carries the increment limit warning.
func (s *Service) IncrementState(ctx context.Context, boardID string, requested int) (Result, error) {
	return s.clipped(ctx, OpIncrementState, boardID, requested, nil)
}

// IncrementTillTheLimit always advances exactly limit generations and always
// carries the increment limit warning.
func (s *Service) IncrementTillTheLimit(ctx context.Context, boardID string) (Result, error) {
	current, err := s.load(ctx, boardID)
	if err != nil {
		return Result{}, err
	}
	return s.advance(ctx, OpIncrementTillTheLimit, current, s.limit, true, nil)
}

// StreamState behaves like IncrementState and reports each persisted
// generation to observe as it happens.
func (s *Service) StreamState(ctx context.Context, boardID string, requested int, observe Observer) (Result, error) {
	return s.clipped(ctx, OpStreamState, boardID, requested, observe)
}

func (s *Service) clipped(ctx context.Context, op, boardID string, requested int, observe Observer) (Result, error) {
	if requested < 1 {
		return Result{}, errors.Validationf("states to increment must be at least 1, got %d", requested)
	}
	current, err := s.load(ctx, boardID)
	if err != nil {
		return Result{}, err
	}
	steps := min(requested, s.limit)
	return s.advance(ctx, op, current, steps, requested > s.limit, observe)
}

func (s *Service) load(ctx context.Context, boardID string) (board.Board, error) {
	boardID = strings.TrimSpace(boardID)
	if boardID == "" {
		return board.Board{}, errors.Validation("board id is required")
	}
	b, err := s.store.GetBoard(ctx, boardID)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return board.Board{}, errors.NotFound("board", boardID)
		}
		s.log.WithContext(ctx).WithError(err).WithField("board_id", boardID).Error("load board")
		return board.Board{}, errors.Internal(err)
	}
	return b, nil
}

// advance runs the generation loop. On failure the returned Result still
// describes the last persisted generation; nothing already stored is undone.
func (s *Service) advance(ctx context.Context, op string, current board.Board, steps int, limited bool, observe Observer) (Result, error) {
	start := time.Now()
	res := Result{Board: current}
	if limited {
		res.Warnings = append(res.Warnings, errors.CodeIncrementLimit)
	}
	evaluated := 0
	defer func() {
		metrics.RecordCellsEvaluated(evaluated)
		metrics.RecordAdvance(op, res.Generations, time.Since(start), limited)
	}()

	entry := s.log.WithContext(ctx).WithField("operation", op).WithField("board_id", current.ID)

	for i := 1; i <= steps; i++ {
		if err := ctx.Err(); err != nil {
			entry.WithError(err).WithField("generations", res.Generations).Warn("advance interrupted")
			return res, errors.Internal(fmt.Errorf("advance interrupted after %d generations: %w", res.Generations, err))
		}

		if current.HasLife() {
			evaluated += len(current.Cells)
		}
		next := s.engine.Calculate(current)
		next.ID = ""
		next.ParentID = current.ID
		next.CreatedAt = time.Time{}

		persisted, err := s.store.InsertBoard(ctx, next)
		if err != nil {
			entry.WithError(err).WithField("generations", res.Generations).Error("persist generation")
			return res, errors.Internal(fmt.Errorf("persist generation %d: %w", i, err))
		}
		current = persisted
		res.Board = persisted
		res.Generations = i

		if observe != nil {
			if err := observe(ctx, i, persisted); err != nil {
				entry.WithError(err).WithField("generations", res.Generations).Warn("observer stopped advance")
				return res, errors.Internal(fmt.Errorf("observe generation %d: %w", i, err))
			}
		}
	}

	entry.WithField("result_id", res.Board.ID).
		WithField("generations", res.Generations).
		WithField("limited", limited).
		Info("generations advanced")
	return res, nil
}
