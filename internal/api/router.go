package api

import (
	"net/http"

	"github.com/dom/wedge-builds/internal/api/handlers"
	"github.com/dom/wedge-builds/internal/api/middleware"
	"github.com/dom/wedge-builds/internal/config"
	"github.com/dom/wedge-builds/internal/ratelimit"
	"github.com/dom/wedge-builds/internal/service"
	"github.com/dom/wedge-builds/internal/websocket"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// NewRouter wires every HTTP route. limiter throttles vote and view
// endpoints; the caller owns its lifecycle.
func NewRouter(services *service.Services, hub *websocket.Hub, limiter *ratelimit.Limiter, cfg *config.Config, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Content-Disposition", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	authHandler := handlers.NewAuthHandler(services.Auth, logger)
	buildHandler := handlers.NewBuildHandler(services.Build, logger)
	draftHandler := handlers.NewDraftHandler(services.Draft, logger)
	notificationHandler := handlers.NewNotificationHandler(services.Notification, logger)
	teamHandler := handlers.NewTeamHandler(services.Team, logger)
	catalogHandler := handlers.NewCatalogHandler(services.Catalog)
	profileHandler := handlers.NewProfileHandler(services.Profile, logger)
	wsHandler := handlers.NewWebSocketHandler(hub, services.Auth, cfg.CORSOrigins, logger)

	requireAuth := middleware.Auth(services.Auth, logger)
	optionalAuth := middleware.OptionalAuth(services.Auth)
	throttle := middleware.RateLimit(limiter)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Get("/me", authHandler.Me)
				r.Post("/logout", authHandler.Logout)
			})
		})

		// Static game data
		r.Route("/catalog", func(r chi.Router) {
			r.Get("/characters", catalogHandler.Characters)
			r.Get("/characters/{id}", catalogHandler.Character)
			r.Get("/weapons", catalogHandler.Weapons)
			r.Get("/weapons/{id}", catalogHandler.Weapon)
			r.Get("/mods", catalogHandler.Mods)
			r.Get("/mods/{name}", catalogHandler.Mod)
		})

		r.Post("/teams/evaluate", teamHandler.Evaluate)

		r.Route("/builds", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(optionalAuth)
				r.Get("/", buildHandler.List)
				r.Get("/{id}", buildHandler.Get)
				r.With(throttle).Post("/{id}/views", buildHandler.RecordView)
			})

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/", buildHandler.Create)
				r.Patch("/{id}", buildHandler.Update)
				r.Delete("/{id}", buildHandler.Delete)

				r.With(throttle).Post("/{id}/vote", buildHandler.Upvote)
				r.With(throttle).Delete("/{id}/vote", buildHandler.Retract)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Get("/users/me/builds", buildHandler.Mine)
			r.Get("/profile", profileHandler.GetProfile)

			r.Route("/drafts", func(r chi.Router) {
				r.Get("/", draftHandler.List)
				r.Post("/", draftHandler.Create)
				r.Get("/export", draftHandler.Export)
				r.Post("/import", draftHandler.Import)
				r.Get("/{id}", draftHandler.Get)
				r.Patch("/{id}", draftHandler.Update)
				r.Delete("/{id}", draftHandler.Delete)
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", notificationHandler.List)
				r.Post("/", notificationHandler.Create)
				r.Delete("/{id}", notificationHandler.Delete)
			})
		})

		// WebSocket endpoint; authenticates with ?token=
		r.Get("/ws", wsHandler.Handle)
	})

	return r
}
