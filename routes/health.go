package routes

import (
	"net/http"
)

type healthResponse struct {
	Status            string `json:"status"`
	Message           string `json:"message"`
	Database          string `json:"database"`
	DiscordConfigured bool   `json:"discord_configured"`
}

// HealthHandler reports liveness plus which backend and auth setup are active.
func HealthHandler(backend string, discordConfigured bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, r, http.StatusOK, healthResponse{
			Status:            "healthy",
			Message:           "Map API is running",
			Database:          backend,
			DiscordConfigured: discordConfigured,
		})
	}
}
