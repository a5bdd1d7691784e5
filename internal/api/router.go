package api

import (
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/go-chi/chi/v5"

	"github.com/teamdeck/teamdeck/internal/api/handler"
	"github.com/teamdeck/teamdeck/internal/api/middleware"
	"github.com/teamdeck/teamdeck/internal/auth"
	"github.com/teamdeck/teamdeck/internal/team"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	Manager     *team.Manager
	AuthService *auth.Service
	Pinger      handler.BackendPinger
	Version     string
}

// NewRouter creates and configures a Chi router with all middleware and routes.
func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery)
	r.Use(chimiddleware.Logger)

	healthHandler := handler.NewHealthHandler(deps.Pinger, deps.Version)
	r.Get("/health", healthHandler.ServeHTTP)

	teamHandler := handler.NewTeamHandler(deps.Manager)
	memberHandler := handler.NewMemberHandler(deps.Manager)
	sessionHandler := handler.NewSessionHandler(deps.Manager)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(deps.AuthService))

		r.Post("/session/initialize", sessionHandler.Initialize)

		r.Route("/teams", func(r chi.Router) {
			r.Get("/", teamHandler.List)
			r.Post("/", teamHandler.Create)
			r.Get("/current", sessionHandler.Current)
			r.Put("/current", sessionHandler.Switch)
			r.Patch("/{id}", teamHandler.Update)
			r.Delete("/{id}", teamHandler.Delete)
			r.Post("/{id}/leave", teamHandler.Leave)
			r.Get("/{id}/members", memberHandler.List)
			r.Post("/{id}/members", memberHandler.Add)
		})

		r.Route("/members", func(r chi.Router) {
			r.Patch("/{id}", memberHandler.UpdateRole)
			r.Delete("/{id}", memberHandler.Remove)
		})
	})

	return r
}
