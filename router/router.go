package router

import (
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/obsidianempire/aoc-map/middlewares"
	"github.com/obsidianempire/aoc-map/routes"
	routes_auth "github.com/obsidianempire/aoc-map/routes/auth"
	routes_pins "github.com/obsidianempire/aoc-map/routes/pins"
	"github.com/obsidianempire/aoc-map/sessions"
	"github.com/obsidianempire/aoc-map/storage"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dependencies are the components the router wires to paths.
type Dependencies struct {
	Config  *storage.Configuration
	Backend string
	Pins    *routes_pins.Service
	Tokens  *sessions.TokenService
	Auth    *routes_auth.Controller
}

func CreateRouter(deps Dependencies) chi.Router {
	cfg := deps.Config
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middlewares.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", routes.HealthHandler(deps.Backend, cfg.DiscordConfigured()))
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if cfg.AuthRateLimit > 0 {
			r.Use(httprate.LimitByIP(cfg.AuthRateLimit, time.Minute))
		}
		r.Get("/login", deps.Auth.LoginHandler)
		r.Get("/callback", deps.Auth.CallbackHandler)
	})
	r.Get("/verify", deps.Auth.VerifyHandler)

	r.Route("/pins", func(r chi.Router) {
		r.Get("/", routes_pins.ListPinsHandler(deps.Pins))
		r.Group(func(r chi.Router) {
			r.Use(middlewares.AuthMiddleware(deps.Tokens))
			r.Post("/", routes_pins.CreatePinHandler(deps.Pins))
			r.Put("/{id}", routes_pins.UpdatePinHandler(deps.Pins))
			r.Delete("/{id}", routes_pins.DeletePinHandler(deps.Pins))
		})
	})

	if cfg.StaticDir != "" {
		mountStatic(r, cfg.StaticDir)
	}

	return r
}

// mountStatic serves the map page, its image and the tile pyramid as plain files.
func mountStatic(r chi.Router, dir string) {
	tiles := filepath.Join(dir, "tiles")
	if info, err := os.Stat(tiles); err == nil && info.IsDir() {
		r.Handle("/tiles/*", http.StripPrefix("/tiles/", http.FileServer(http.Dir(tiles))))
	}
	r.Handle("/*", http.FileServer(http.Dir(dir)))
}
