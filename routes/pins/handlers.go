package routes_pins

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/obsidianempire/aoc-map/middlewares"
	"github.com/obsidianempire/aoc-map/routes"
)

// GET /pins
func ListPinsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pins, err := svc.List(r.Context())
		if err != nil {
			routes.WriteError(w, r, err)
			return
		}
		routes.WriteJSON(w, r, http.StatusOK, pins)
	}
}

// POST /pins
func CreatePinHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreatePinRequest
		if err := routes.DecodeJSON(r, &req); err != nil {
			routes.WriteError(w, r, err)
			return
		}

		pin, err := svc.Create(r.Context(), middlewares.IdentityFromContext(r.Context()), req)
		if err != nil {
			routes.WriteError(w, r, err)
			return
		}
		routes.WriteJSON(w, r, http.StatusCreated, pin)
	}
}

// PUT /pins/{id}
func UpdatePinHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pinID(r)
		if err != nil {
			routes.WriteError(w, r, err)
			return
		}

		var req UpdatePinRequest
		if err := routes.DecodeJSON(r, &req); err != nil {
			routes.WriteError(w, r, err)
			return
		}

		pin, err := svc.Update(r.Context(), middlewares.IdentityFromContext(r.Context()), id, req)
		if err != nil {
			routes.WriteError(w, r, err)
			return
		}
		routes.WriteJSON(w, r, http.StatusOK, pin)
	}
}

// DELETE /pins/{id}
func DeletePinHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pinID(r)
		if err != nil {
			routes.WriteError(w, r, err)
			return
		}

		if err := svc.Delete(r.Context(), middlewares.IdentityFromContext(r.Context()), id); err != nil {
			routes.WriteError(w, r, err)
			return
		}
		routes.WriteJSON(w, r, http.StatusOK, map[string]string{"message": "Pin deleted successfully"})
	}
}

// pinID parses {id}. Anything that is not a positive integer cannot name a pin.
func pinID(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id == 0 {
		return 0, routes.NotFoundError("Pin not found")
	}
	return uint(id), nil
}
