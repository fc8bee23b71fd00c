package server

import (
	"encoding/json"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/splitdelegation/pkg/errors"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps error codes to HTTP statuses.
func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidAddress,
		errors.ErrCodeInvalidScore, errors.ErrCodeMalformedAction:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeMissingScore, errors.ErrCodeDepthExceeded:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeNetwork:
		return http.StatusBadGateway
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// writeError writes err as a JSON error body. Uncoded errors and broken
// invariants are logged and answered with a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, logger *log.Logger, err error) {
	code := errors.GetCode(err)
	if code == "" || errors.IsInternal(err) {
		logger.Error("request failed", "path", r.URL.Path, "request_id", RequestID(r.Context()), "err", err)
		if code == "" {
			code = errors.ErrCodeInternal
		}
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: errorDetail{Code: code, Message: "internal error"}})
		return
	}
	writeJSON(w, statusFor(code), errorBody{Error: errorDetail{Code: code, Message: errors.UserMessage(err)}})
}
