package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/lmoren/listly-be/internal/api/handlers"
	"github.com/lmoren/listly-be/internal/auth"
	"github.com/lmoren/listly-be/internal/services"
	"github.com/lmoren/listly-be/internal/websocket"
)

// NewRouter creates and configures a new Chi router.
func NewRouter(
	hub *websocket.Hub,
	userService services.UserServiceProvider,
	listService services.ListServiceProvider,
	sharingService services.SharingServiceProvider,
	eventService services.EventServiceProvider,
	stats handlers.StatsProvider,
	corsOrigin string,
) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{corsOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService)
	listHandler := handlers.NewListHandler(listService)
	sharingHandler := handlers.NewSharingHandler(sharingService, listService)
	eventHandler := handlers.NewEventHandler(eventService)
	systemHandler := handlers.NewSystemHandler(stats)
	wsHandler := handlers.NewWebSocketHandler(hub)

	// API versioning
	r.Route("/api/v1", func(r chi.Router) {
		// Public endpoints
		r.Post("/auth/onboard", authHandler.Onboard)
		r.Post("/auth/login", authHandler.Login)
		r.Get("/system/stats", systemHandler.GetStats)

		// WebSocket connection endpoints
		r.Get("/ws", wsHandler.Serve)
		r.Get("/ws/lists/{id}", wsHandler.Serve)

		// Authenticated endpoints
		r.Group(func(r chi.Router) {
			r.Use(auth.JWTMiddleware())

			r.Get("/auth/me", authHandler.GetMe)
			r.Put("/users/{id}", authHandler.Rename)

			r.Route("/lists", func(r chi.Router) {
				r.Get("/", listHandler.GetMine)
				r.Post("/", listHandler.Create)
				r.Get("/shared", sharingHandler.GetShared)
				r.Post("/join", sharingHandler.Join)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", listHandler.Get)
					r.Put("/", listHandler.Rename)
					r.Delete("/", listHandler.Delete)
					r.Post("/share", sharingHandler.Convert)
					r.Post("/members", sharingHandler.AddMember)
					r.Post("/items", listHandler.AddItem)
					r.Route("/items/{itemID}", func(r chi.Router) {
						r.Put("/", listHandler.UpdateItem)
						r.Delete("/", listHandler.DeleteItem)
						r.Post("/toggle", listHandler.ToggleItem)
					})
				})
			})

			r.Get("/events", eventHandler.GetRecent)
		})
	})

	return r
}
