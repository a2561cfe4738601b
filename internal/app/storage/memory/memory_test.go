package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/R3E-Network/gameoflife/internal/app/domain/board"
	"github.com/R3E-Network/gameoflife/internal/app/storage"
)

func TestStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := New()

	in := board.Board{ID: "client-supplied", ParentID: "parent", Cells: []board.Cell{{RowNumber: 1, ColumnNumber: 2, IsAlive: true}}}
	created, err := store.InsertBoard(ctx, in)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if created.ID == "" || created.ID == "client-supplied" {
		t.Fatalf("expected a fresh id, got %q", created.ID)
	}
	if created.CreatedAt.IsZero() {
		t.Fatalf("expected created_at to be set")
	}
	if created.ParentID != "parent" {
		t.Fatalf("parent id not kept: %q", created.ParentID)
	}

	// mutating the caller's slice must not leak into the store
	in.Cells[0].IsAlive = false
	loaded, err := store.GetBoard(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !loaded.Cells[0].IsAlive {
		t.Fatalf("stored snapshot was mutated through the input slice")
	}

	n, err := store.DeleteBoard(ctx, created.ID)
	if err != nil || n != 1 {
		t.Fatalf("delete: n=%d err=%v", n, err)
	}
	n, err = store.DeleteBoard(ctx, created.ID)
	if err != nil || n != 0 {
		t.Fatalf("second delete: n=%d err=%v", n, err)
	}
	if _, err := store.GetBoard(ctx, created.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreConcurrentInserts(t *testing.T) {
	ctx := context.Background()
	store := New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.InsertBoard(ctx, board.Board{Cells: []board.Cell{{}}}); err != nil {
				t.Errorf("insert: %v", err)
			}
		}()
	}
	wg.Wait()

	if store.Len() != 50 {
		t.Fatalf("expected 50 snapshots, got %d", store.Len())
	}
}
