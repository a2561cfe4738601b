package httpapi

import (
	"github.com/R3E-Network/gameoflife/internal/app/domain/board"
	boardsvc "github.com/R3E-Network/gameoflife/internal/app/services/boards"
	"github.com/R3E-Network/gameoflife/internal/errors"
	"github.com/R3E-Network/gameoflife/pkg/api"
)

func toBoard(req api.BoardModelRequest) board.Board {
	cells := make([]board.Cell, len(req.Cells))
	for i, c := range req.Cells {
		cells[i] = board.Cell{RowNumber: c.RowNumber, ColumnNumber: c.ColumnNumber, IsAlive: c.IsAlive}
	}
	return board.Board{Cells: cells}
}

func fromBoard(b board.Board, warnings []errors.Code) api.BoardModelResponse {
	cells := make([]api.BoardCellModel, len(b.Cells))
	for i, c := range b.Cells {
		cells[i] = api.BoardCellModel{RowNumber: c.RowNumber, ColumnNumber: c.ColumnNumber, IsAlive: c.IsAlive}
	}

	out := api.BoardModelResponse{
		ID:     b.ID,
		Cells:  cells,
		Errors: make([]api.ErrorModel, 0, len(warnings)),
	}
	if b.ParentID != "" {
		parent := b.ParentID
		out.ParentID = &parent
	}
	for _, w := range warnings {
		out.Errors = append(out.Errors, api.ErrorModel{Code: string(w), Message: w.Message()})
	}
	return out
}

func fromResult(res boardsvc.Result) api.BoardModelResponse {
	return fromBoard(res.Board, res.Warnings)
}
