package httputil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/R3E-Network/gameoflife/internal/errors"
	"github.com/R3E-Network/gameoflife/pkg/api"
)

// MaxBodyBytes caps request bodies decoded by DecodeJSON.
const MaxBodyBytes = 4 << 20

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// WriteServiceError writes the error envelope for err. Causes of internal
// errors stay out of the body.
func WriteServiceError(w http.ResponseWriter, err error) {
	svcErr := errors.From(err)
	if svcErr == nil {
		svcErr = errors.Internal(fmt.Errorf("unknown error"))
	}
	WriteJSON(w, svcErr.HTTPStatus, ErrorEnvelope(svcErr.Code))
}

// ErrorEnvelope builds the error envelope for the given codes.
func ErrorEnvelope(codes ...errors.Code) api.ErrorResponse {
	out := api.ErrorResponse{Errors: make([]api.ErrorModel, 0, len(codes))}
	for _, c := range codes {
		out.Errors = append(out.Errors, api.ErrorModel{Code: string(c), Message: c.Message()})
	}
	return out
}

// DecodeJSON reads a JSON request body into dst. Unknown fields, trailing
// data and bodies over MaxBodyBytes are validation errors.
func DecodeJSON(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return errors.Validation("request body is required")
	}
	body, truncated, err := ReadAllWithLimit(r.Body, MaxBodyBytes)
	if err != nil {
		return errors.Validationf("read request body: %v", err)
	}
	if truncated {
		return errors.Validationf("request body exceeds %d bytes", MaxBodyBytes)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return errors.Validation("request body is required")
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.Validationf("decode request body: %v", err)
	}
	if dec.More() {
		return errors.Validation("request body has trailing data")
	}
	return nil
}

// ReadAllWithLimit reads up to limit bytes and reports whether more remained.
func ReadAllWithLimit(r io.Reader, limit int64) ([]byte, bool, error) {
	body, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, false, err
	}
	if int64(len(body)) > limit {
		return body[:limit], true, nil
	}
	return body, false, nil
}

// ReadAllStrict reads the whole body and fails when it exceeds limit.
func ReadAllStrict(r io.Reader, limit int64) ([]byte, error) {
	body, truncated, err := ReadAllWithLimit(r, limit)
	if err != nil {
		return nil, err
	}
	if truncated {
		return nil, fmt.Errorf("body exceeds %d bytes", limit)
	}
	return body, nil
}
