package board

import "testing"

func TestValidateCells(t *testing.T) {
	tests := []struct {
		name  string
		cells []Cell
		ok    bool
	}{
		{"valid", []Cell{{RowNumber: 0, ColumnNumber: 0}, {RowNumber: 0, ColumnNumber: 1, IsAlive: true}}, true},
		{"empty", nil, false},
		{"negative", []Cell{{RowNumber: -1, ColumnNumber: 0}}, false},
		{"duplicate", []Cell{{RowNumber: 2, ColumnNumber: 3}, {RowNumber: 2, ColumnNumber: 3, IsAlive: true}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Board{Cells: tt.cells}.ValidateCells()
			if tt.ok && err != nil {
				t.Fatalf("expected valid board, got %v", err)
			}
			if !tt.ok && err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestWindowValidate(t *testing.T) {
	if err := DefaultWindow().Validate(); err != nil {
		t.Fatalf("default window: %v", err)
	}
	if err := (Window{ColumnStart: 1, ColumnEnd: 0}).Validate(); err == nil {
		t.Fatalf("expected inverted column range to fail")
	}
	if err := (Window{RowStart: 2, RowEnd: -2}).Validate(); err == nil {
		t.Fatalf("expected inverted row range to fail")
	}
}

func TestCloneDoesNotShareCells(t *testing.T) {
	b := Board{ID: "a", Cells: []Cell{{IsAlive: true}}}
	c := b.Clone()
	c.Cells[0].IsAlive = false
	if !b.Cells[0].IsAlive {
		t.Fatalf("clone mutated the original cells")
	}
	if b.AliveCount() != 1 || c.HasLife() {
		t.Fatalf("unexpected alive counts: original=%d clone=%v", b.AliveCount(), c.HasLife())
	}
}
