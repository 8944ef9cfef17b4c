package routes_auth

import (
	"net/http"

	"github.com/obsidianempire/aoc-map/middlewares"
	"github.com/obsidianempire/aoc-map/routes"
)

type verifyResponse struct {
	Authenticated bool   `json:"authenticated"`
	DiscordID     string `json:"discord_id,omitempty"`
	Username      string `json:"username,omitempty"`
	Error         string `json:"error,omitempty"`
}

// VerifyHandler lets the map page restore a session from a stored token.
func (c *Controller) VerifyHandler(w http.ResponseWriter, r *http.Request) {
	identity, err := middlewares.Authenticate(r, c.tokens)
	if err != nil {
		e := routes.AsError(err)
		routes.WriteJSON(w, r, e.Kind.Status(), verifyResponse{Error: e.Message})
		return
	}

	routes.WriteJSON(w, r, http.StatusOK, verifyResponse{
		Authenticated: true,
		DiscordID:     identity.DiscordID,
		Username:      identity.Username,
	})
}
