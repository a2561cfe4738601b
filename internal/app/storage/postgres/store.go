package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/R3E-Network/gameoflife/internal/app/domain/board"
	"github.com/R3E-Network/gameoflife/internal/app/storage"
)

// Store implements the storage interfaces backed by PostgreSQL.
type Store struct {
	db *sqlx.DB
}

var _ storage.BoardStore = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

type boardRow struct {
	ID        string         `db:"id"`
	ParentID  sql.NullString `db:"parent_id"`
	Cells     []byte         `db:"cells"`
	CreatedAt time.Time      `db:"created_at"`
}

func (s *Store) InsertBoard(ctx context.Context, b board.Board) (board.Board, error) {
	b = b.Clone()
	b.ID = uuid.NewString()
	b.CreatedAt = time.Now().UTC()

	row, err := toRow(b)
	if err != nil {
		return board.Board{}, err
	}

	_, err = s.db.NamedExecContext(ctx, `
		INSERT INTO game_boards (id, parent_id, cells, created_at)
		VALUES (:id, :parent_id, :cells, :created_at)
	`, row)
	if err != nil {
		return board.Board{}, fmt.Errorf("insert board: %w", err)
	}
	return b, nil
}

func (s *Store) GetBoard(ctx context.Context, id string) (board.Board, error) {
	var row boardRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id, parent_id, cells, created_at
		FROM game_boards
		WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return board.Board{}, storage.ErrNotFound
	}
	if err != nil {
		return board.Board{}, fmt.Errorf("get board: %w", err)
	}
	return fromRow(row)
}

func (s *Store) DeleteBoard(ctx context.Context, id string) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM game_boards WHERE id = $1
	`, id)
	if err != nil {
		return 0, fmt.Errorf("delete board: %w", err)
	}
	return result.RowsAffected()
}

func toRow(b board.Board) (boardRow, error) {
	cells := b.Cells
	if cells == nil {
		cells = []board.Cell{}
	}
	raw, err := json.Marshal(cells)
	if err != nil {
		return boardRow{}, fmt.Errorf("encode cells: %w", err)
	}
	return boardRow{
		ID:        b.ID,
		ParentID:  sql.NullString{String: b.ParentID, Valid: b.ParentID != ""},
		Cells:     raw,
		CreatedAt: b.CreatedAt,
	}, nil
}

func fromRow(row boardRow) (board.Board, error) {
	b := board.Board{
		ID:        row.ID,
		ParentID:  row.ParentID.String,
		CreatedAt: row.CreatedAt.UTC(),
	}
	if len(row.Cells) > 0 {
		if err := json.Unmarshal(row.Cells, &b.Cells); err != nil {
			return board.Board{}, fmt.Errorf("decode cells of board %s: %w", row.ID, err)
		}
	}
	return b, nil
}
