package routes_auth

import (
	"context"
	"net/http"

	"github.com/obsidianempire/aoc-map/logging"
	"github.com/obsidianempire/aoc-map/metrics"
	"golang.org/x/oauth2"
)

// CallbackHandler finishes the OAuth exchange and posts a session token back
// to the window that opened the popup.
func (c *Controller) CallbackHandler(w http.ResponseWriter, r *http.Request) {
	log := logging.Ctx(r.Context())

	if !c.configured {
		metrics.RecordLogin("failed")
		renderError(w, r, http.StatusInternalServerError, "Discord login is not configured on this server.")
		return
	}

	if reason := r.URL.Query().Get("error"); reason != "" {
		metrics.RecordLogin("failed")
		renderError(w, r, http.StatusBadRequest, "Discord did not authorize the login: "+reason)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		metrics.RecordLogin("failed")
		renderError(w, r, http.StatusBadRequest, "No authorization code was provided.")
		return
	}

	// exchange code for token
	ctx := context.WithValue(r.Context(), oauth2.HTTPClient, c.httpClient)
	token, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		log.Warn().Err(err).Msg("discord token exchange failed")
		metrics.RecordLogin("failed")
		renderError(w, r, http.StatusBadRequest, "Failed to get an access token from Discord.")
		return
	}

	// fetch user info from Discord
	user, err := c.discord.FetchUser(ctx, token.AccessToken)
	if err != nil {
		log.Warn().Err(err).Msg("discord user lookup failed")
		metrics.RecordLogin("failed")
		renderError(w, r, http.StatusBadRequest, "Failed to fetch your Discord profile.")
		return
	}

	if c.guildID != "" {
		member, err := c.discord.IsGuildMember(ctx, token.AccessToken, c.guildID)
		switch {
		case err != nil && c.guildCheckFailOpen:
			log.Warn().Err(err).Str("discord_id", user.ID).Msg("guild lookup failed, allowing login")
		case err != nil:
			log.Warn().Err(err).Str("discord_id", user.ID).Msg("guild lookup failed, refusing login")
			metrics.RecordLogin("failed")
			renderError(w, r, http.StatusBadRequest, "Could not verify your guild membership. Please try again.")
			return
		case !member:
			log.Info().Str("discord_id", user.ID).Str("username", user.Username).Msg("login denied, not a guild member")
			metrics.RecordLogin("denied")
			renderDenied(w, r)
			return
		}
	}

	sessionToken, err := c.tokens.Create(user.ID, user.Username)
	if err != nil {
		log.Error().Err(err).Msg("sign session token")
		metrics.RecordLogin("failed")
		renderError(w, r, http.StatusInternalServerError, "Could not create a session.")
		return
	}

	log.Info().Str("discord_id", user.ID).Str("username", user.Username).Msg("discord login")
	metrics.RecordLogin("success")
	renderSuccess(w, r, sessionToken, user.Username, c.messageOrigin)
}
