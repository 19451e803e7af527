package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	apperrors "github.com/tropicaldog17/coinbasis/internal/errors"
)

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
	Code  string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	var (
		ve *apperrors.ErrValidation
		de *apperrors.DomainError
	)
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Field: ve.Field})
	case errors.Is(err, apperrors.ErrSameSymbols):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Code: apperrors.ErrSameSymbols.Code})
	case errors.As(err, &de):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error(), Code: de.Code})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
}
