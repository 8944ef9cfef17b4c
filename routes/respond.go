package routes

import (
	"net/http"

	"github.com/goccy/go-json"
	"github.com/obsidianempire/aoc-map/logging"
)

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("encode response")
	}
}

// WriteError renders err as {"error": message}. Server-side failures are
// logged with their cause.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	e := AsError(err)
	status := e.Kind.Status()
	if status >= http.StatusInternalServerError {
		logging.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	} else if e.Err != nil {
		logging.Ctx(r.Context()).Warn().Err(e.Err).Str("path", r.URL.Path).Msg(e.Message)
	}
	WriteJSON(w, r, status, map[string]string{"error": e.Message})
}

// DecodeJSON reads the request body into v.
func DecodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return ValidationError("invalid request body")
	}
	return nil
}
