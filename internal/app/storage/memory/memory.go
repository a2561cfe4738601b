package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/R3E-Network/gameoflife/internal/app/domain/board"
	"github.com/R3E-Network/gameoflife/internal/app/storage"
)

// Store is an in-memory implementation of the storage interfaces. It is safe
// for concurrent use and is primarily intended for tests and local development.
type Store struct {
	mu     sync.RWMutex
	boards map[string]board.Board
}

var _ storage.BoardStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{boards: make(map[string]board.Board)}
}

func (s *Store) InsertBoard(_ context.Context, b board.Board) (board.Board, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b = b.Clone()
	b.ID = uuid.NewString()
	b.CreatedAt = time.Now().UTC()

	s.boards[b.ID] = b
	return b.Clone(), nil
}

func (s *Store) GetBoard(_ context.Context, id string) (board.Board, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.boards[strings.TrimSpace(id)]
	if !ok {
		return board.Board{}, storage.ErrNotFound
	}
	return b.Clone(), nil
}

func (s *Store) DeleteBoard(_ context.Context, id string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id = strings.TrimSpace(id)
	if _, ok := s.boards[id]; !ok {
		return 0, nil
	}
	delete(s.boards, id)
	return 1, nil
}

// Len returns the number of stored snapshots.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.boards)
}
