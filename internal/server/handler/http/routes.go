// Package http provides HTTP routing and middleware configuration for
// the marketplace service.
package http

import (
	"net/http"

	"github.com/atinyakov/lotmarket/internal/middleware"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter constructs and returns an HTTP handler serving the
// marketplace API.
//
// Routes:
//
//	POST   /api/register        → authHandler.Register (JSON)
//	POST   /api/login           → authHandler.Login (JSON)
//	GET    /api/lots            → lotHandler.List
//	POST   /api/lots            → lotHandler.Create (multipart)
//	GET    /api/lots/{id}       → lotHandler.Get
//	PATCH  /api/lots/{id}       → lotHandler.Update (multipart)
//	DELETE /api/lots/{id}       → lotHandler.Delete
//	GET    /static/uploads/*    → staged image blobs
//
// Every request passes through request logging and bearer-token
// identity resolution; the auth endpoints additionally require a JSON
// content type. Staged blobs are served straight from the uploads
// directory so the references the API returns resolve.
func NewRouter(
	authHandler *AuthHandler,
	lotHandler *LotHandler,
	tokens middleware.TokenVerifier,
	uploadsDir string,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Log each request and its metadata
	r.Use(middleware.WithRequestLogging(logger))
	// Resolve the caller's identity from the bearer token, if any
	r.Use(middleware.TokenAuth(tokens))

	r.Route("/api", func(r chi.Router) {
		// Auth endpoints are JSON-only
		r.Group(func(r chi.Router) {
			r.Use(chiMiddleware.AllowContentType("application/json"))
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
		})

		r.Route("/lots", func(r chi.Router) {
			r.Get("/", lotHandler.List)
			r.Post("/", lotHandler.Create)
			r.Get("/{id}", lotHandler.Get)
			r.Patch("/{id}", lotHandler.Update)
			r.Delete("/{id}", lotHandler.Delete)
		})
	})

	r.Handle("/static/uploads/*", http.StripPrefix("/static/uploads/",
		http.FileServer(http.Dir(uploadsDir))))

	return r
}
