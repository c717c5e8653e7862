package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dgallion1/todotree/internal/store"
	"github.com/dgallion1/todotree/internal/todolist"
)

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, todolist.ErrOutOfRange), errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, todolist.ErrMalformedDocument):
		return http.StatusUnprocessableEntity
	case errors.Is(err, todolist.ErrRemoveRoot), errors.Is(err, todolist.ErrInvalidLabel),
		errors.Is(err, store.ErrInvalidID):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// writeError reports err with its mapped status. Server-side failures are
// logged; their details stay in the log.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code >= 500 {
		s.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		if code == http.StatusServiceUnavailable {
			jsonError(w, "storage unavailable", code)
			return
		}
		jsonError(w, "internal error", code)
		return
	}
	jsonError(w, err.Error(), code)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
