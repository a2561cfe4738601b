// Package storage defines the persistence contract for board snapshots.
package storage

import (
	"context"
	"errors"

	"github.com/R3E-Network/gameoflife/internal/app/domain/board"
)

// ErrNotFound is returned by GetBoard when the id does not resolve.
var ErrNotFound = errors.New("board not found")

// BoardStore persists immutable board snapshots.
type BoardStore interface {
	// InsertBoard assigns a fresh id and creation time and stores the snapshot.
	InsertBoard(ctx context.Context, b board.Board) (board.Board, error)
	GetBoard(ctx context.Context, id string) (board.Board, error)
	// DeleteBoard removes a single snapshot and reports how many were deleted.
	DeleteBoard(ctx context.Context, id string) (int64, error)
}
