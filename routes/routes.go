package routes

import (
	"net/http"
	"time"

	"github.com/campusboard/server/app"
	mw "github.com/campusboard/server/middleware"
	"github.com/campusboard/server/utils"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.RequestLogger(deps.Logger))
	r.Use(mw.Recoverer(deps.Logger))
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Location", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Resolve the caller once per request; never rejects
	r.Use(deps.AuthMiddleware.Authenticate)

	// Health check endpoints
	r.Get("/healthz", deps.HealthHandler.HandleHealth)
	r.Get("/readyz", deps.HealthHandler.HandleReadiness)

	r.Route("/api", func(r chi.Router) {
		// Supabase auth proxy (public)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", deps.AuthHandler.HandleSignUp)
			r.Post("/login", deps.AuthHandler.HandleLogin)
			r.Post("/refresh", deps.AuthHandler.HandleRefresh)
			r.Post("/logout", deps.AuthHandler.HandleLogout)
		})

		// Everything else requires a verified identity
		r.Group(func(r chi.Router) {
			r.Use(deps.AuthMiddleware.RequireAuth)

			r.Route("/board/posts", func(r chi.Router) {
				r.Get("/", deps.BoardHandler.HandleListPosts)
				r.Post("/", deps.BoardHandler.HandleCreatePost)

				r.Route("/{postId}", func(r chi.Router) {
					r.Get("/", deps.BoardHandler.HandleGetPost)
					r.Put("/", deps.BoardHandler.HandleUpdatePost)
					r.Delete("/", deps.BoardHandler.HandleDeletePost)

					r.Get("/comments", deps.BoardHandler.HandleListComments)
					r.Post("/comments", deps.BoardHandler.HandleCreateComment)
					r.Put("/comments/{commentId}", deps.BoardHandler.HandleUpdateComment)
					r.Delete("/comments/{commentId}", deps.BoardHandler.HandleDeleteComment)
				})
			})

			r.Get("/users/me", deps.UserHandler.HandleGetMe)
			r.Patch("/users/me", deps.UserHandler.HandleUpdateMe)

			r.Post("/images/analyze", deps.ImageHandler.HandleAnalyze)
		})
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteNotFound(w, "Endpoint not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	return r
}
