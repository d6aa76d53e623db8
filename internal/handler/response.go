package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"rpg/internal/domain"
)

// statusFor maps an error class to the HTTP status reporting it
func statusFor(err error) int {
	switch domain.Classify(err) {
	case domain.ClassNone:
		return http.StatusOK
	case domain.ClassNotFound, domain.ClassWrongBrickKind:
		return http.StatusNotFound
	case domain.ClassAlreadyExists:
		return http.StatusConflict
	case domain.ClassInvalidArgument:
		return http.StatusBadRequest
	case domain.ClassCapability:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Warn("failed to encode response", "error", err)
	}
}

func writeResult(w http.ResponseWriter, statusCode int, res domain.Result) {
	writeJSON(w, res, statusCode)
}

// writeOutcome answers a mutation: the ok envelope with okStatus, or the
// error envelope with the status of its class
func writeOutcome(w http.ResponseWriter, err error, okStatus int) {
	if err == nil {
		writeResult(w, okStatus, domain.OK())
		return
	}
	writeError(w, err)
}

func writeError(w http.ResponseWriter, err error) {
	writeResult(w, statusFor(err), domain.ResultFromError(err))
}

// decode reads a JSON body into v, rejecting unknown fields
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.NewError(domain.ErrInvalidArgument, "request body is required")
		}
		var syntax *json.SyntaxError
		if errors.As(err, &syntax) || errors.Is(err, io.ErrUnexpectedEOF) {
			return domain.NewError(domain.ErrInvalidArgument, "malformed request body")
		}
		return domain.NewError(domain.ErrInvalidArgument, "invalid request body: "+err.Error())
	}
	return nil
}
