package routes_auth

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/obsidianempire/aoc-map/logging"
	"github.com/obsidianempire/aoc-map/routes"
	"github.com/obsidianempire/aoc-map/sessions"
	"github.com/obsidianempire/aoc-map/storage"
	"golang.org/x/oauth2"
)

// TokenService issues and checks session tokens.
type TokenService interface {
	Create(discordID, username string) (string, error)
	Verify(token string) (*sessions.Identity, error)
}

// Controller drives the Discord login popup: /login, /callback and /verify.
type Controller struct {
	oauth              *oauth2.Config
	discord            *DiscordClient
	httpClient         *http.Client
	tokens             TokenService
	configured         bool
	guildID            string
	guildCheckFailOpen bool
	messageOrigin      string
}

// NewController builds the login flow from cfg. All outbound Discord calls
// share one client bounded by cfg.HTTPTimeout.
func NewController(cfg *storage.Configuration, tokens TokenService) *Controller {
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	return &Controller{
		oauth:              cfg.OAuthConfig(),
		discord:            NewDiscordClient(cfg.DiscordAPIBase, httpClient),
		httpClient:         httpClient,
		tokens:             tokens,
		configured:         cfg.DiscordConfigured(),
		guildID:            cfg.DiscordGuildID,
		guildCheckFailOpen: cfg.GuildCheckFailOpen,
		messageOrigin:      messageOrigin(cfg.CORSAllowedOrigins),
	}
}

// messageOrigin is the map page origin the popup posts its token to: the
// first explicit CORS origin, or "*" when every origin is allowed.
func messageOrigin(allowed []string) string {
	for _, origin := range allowed {
		if origin = strings.TrimSpace(origin); origin != "" && origin != "*" {
			return origin
		}
	}
	return "*"
}

// LoginHandler returns the Discord authorization URL for the popup to open.
func (c *Controller) LoginHandler(w http.ResponseWriter, r *http.Request) {
	if !c.configured {
		routes.WriteError(w, r, routes.ConfigurationError("Discord OAuth not configured"))
		return
	}

	// state is echoed back by Discord but not checked: the popup has no
	// server-side session to bind it to.
	state := generateSecureState()
	url := c.oauth.AuthCodeURL(state)
	logging.Ctx(r.Context()).Debug().Msg("issued discord authorization url")

	routes.WriteJSON(w, r, http.StatusOK, map[string]string{"auth_url": url})
}

func generateSecureState() string {
	return uuid.NewString()
}
