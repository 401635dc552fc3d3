package routes

import (
	"github.com/courtside/club-games/handlers"
	"github.com/courtside/club-games/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

func SetupRoutes(
	router *chi.Mux,
	auth *middleware.Authenticator,
	gameHandler *handlers.GameHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/swagger/*", httpSwagger.Handler())

	router.Route("/games", func(r chi.Router) {
		// Public read endpoints
		r.Get("/", gameHandler.List)
		r.Get("/{id}", gameHandler.Get)

		// State-changing endpoints require an authenticated actor
		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)

			r.Post("/", gameHandler.Create)
			r.Post("/{id}/join", gameHandler.Join)
			r.Post("/{id}/leave", gameHandler.Leave)
			r.Post("/{id}/participants/{userID}/approve", gameHandler.Approve)
			r.Post("/{id}/participants/{userID}/reject", gameHandler.Reject)
			r.Patch("/{id}/status", gameHandler.UpdateStatus)
		})
	})

	router.Get("/ws/games/{id}", webSocketHandler.ServeWs)
}
