// Package api holds the JSON shapes exchanged between the game server and
// its clients.
package api

// BoardCellModel is one cell on the wire.
type BoardCellModel struct {
	RowNumber    int  `json:"rowNumber"`
	ColumnNumber int  `json:"columnNumber"`
	IsAlive      bool `json:"isAlive"`
}

// BoardModelRequest is the body of a new game request.
type BoardModelRequest struct {
	Cells []BoardCellModel `json:"cells"`
}

// BoardModelResponse is a persisted snapshot. Errors carries warnings such as
// ERR_0003 on an otherwise successful response.
type BoardModelResponse struct {
	ID       string           `json:"id"`
	ParentID *string          `json:"parentId"`
	Cells    []BoardCellModel `json:"cells"`
	Errors   []ErrorModel     `json:"errors"`
}

// ErrorModel is one coded message.
type ErrorModel struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse is the envelope returned with every failed request.
type ErrorResponse struct {
	Errors []ErrorModel `json:"errors"`
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status string `json:"status"`
}
