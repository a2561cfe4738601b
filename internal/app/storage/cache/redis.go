// Package cache provides a redis read-through decorator for board stores.
// Snapshots are immutable, so a cached entry never goes stale; only deletes
// evict.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/R3E-Network/gameoflife/internal/app/domain/board"
	"github.com/R3E-Network/gameoflife/internal/app/storage"
	"github.com/R3E-Network/gameoflife/pkg/logger"
)

const keyPrefix = "gameoflife:board:"

// Store caches snapshots of the wrapped store in redis. Cache failures are
// logged and bypassed.
type Store struct {
	next   storage.BoardStore
	client redis.UniversalClient
	ttl    time.Duration
	log    *logger.Logger
}

var _ storage.BoardStore = (*Store)(nil)

// New wraps next. A zero ttl keeps entries until evicted by redis itself.
func New(next storage.BoardStore, client redis.UniversalClient, ttl time.Duration, log *logger.Logger) *Store {
	if log == nil {
		log = logger.NewDefault("board-cache")
	}
	return &Store{next: next, client: client, ttl: ttl, log: log}
}

// Key returns the redis key for a board id.
func Key(id string) string {
	return keyPrefix + id
}

type entry struct {
	ID        string       `json:"id"`
	ParentID  string       `json:"parentId,omitempty"`
	Cells     []board.Cell `json:"cells"`
	CreatedAt time.Time    `json:"createdAt"`
}

func (s *Store) InsertBoard(ctx context.Context, b board.Board) (board.Board, error) {
	created, err := s.next.InsertBoard(ctx, b)
	if err != nil {
		return board.Board{}, err
	}
	s.put(ctx, created)
	return created, nil
}

func (s *Store) GetBoard(ctx context.Context, id string) (board.Board, error) {
	raw, err := s.client.Get(ctx, Key(id)).Bytes()
	switch {
	case err == nil:
		var e entry
		if jsonErr := json.Unmarshal(raw, &e); jsonErr == nil {
			return board.Board{ID: e.ID, ParentID: e.ParentID, Cells: e.Cells, CreatedAt: e.CreatedAt}, nil
		} else {
			s.log.WithError(jsonErr).WithField("board_id", id).Warn("discarding undecodable cache entry")
		}
	case !errors.Is(err, redis.Nil):
		s.log.WithError(err).WithField("board_id", id).Warn("board cache read failed")
	}

	b, err := s.next.GetBoard(ctx, id)
	if err != nil {
		return board.Board{}, err
	}
	s.put(ctx, b)
	return b, nil
}

func (s *Store) DeleteBoard(ctx context.Context, id string) (int64, error) {
	n, err := s.next.DeleteBoard(ctx, id)
	if err != nil {
		return 0, err
	}
	if err := s.client.Del(ctx, Key(id)).Err(); err != nil {
		s.log.WithError(err).WithField("board_id", id).Warn("board cache evict failed")
	}
	return n, nil
}

func (s *Store) put(ctx context.Context, b board.Board) {
	raw, err := json.Marshal(entry{ID: b.ID, ParentID: b.ParentID, Cells: b.Cells, CreatedAt: b.CreatedAt})
	if err != nil {
		s.log.WithError(err).WithField("board_id", b.ID).Warn("encode board for cache")
		return
	}
	if err := s.client.Set(ctx, Key(b.ID), raw, s.ttl).Err(); err != nil {
		s.log.WithError(err).WithField("board_id", b.ID).Warn("board cache write failed")
	}
}
