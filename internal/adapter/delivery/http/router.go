// Package http exposes the shortener over HTTP: the public redirect and
// peek endpoints, URL creation and listing, and the secret-key admin routes.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/go-playground/validator/v10"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/vadimbarashkov/redirector/docs"
	"github.com/vadimbarashkov/redirector/pkg/middleware/recoverer"
)

// ReservedKeys are the first path segments taken by fixed routes. A short URL
// key equal to one of them would be shadowed, e.g. key "admin" makes
// GET /admin/peek an admin lookup.
var ReservedKeys = []string{"admin", "list", "url", "docs", "swagger"}

// NewRouter returns a chi router serving the shortener API backed by urlUseCase.
func NewRouter(logger *httplog.Logger, urlUseCase urlUseCase) *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Accept"},
		AllowCredentials: false,
		MaxAge:           84600,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(logger))
	r.Use(recoverer.New)

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/swagger.yml"),
	))

	r.Get("/docs/swagger.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFileFS(w, r, docs.FS, "swagger.yml")
	})

	h := newURLHandler(urlUseCase, validator.New())

	r.Get("/", handleBanner)
	r.Get("/list", h.listURLs)
	r.Post("/url", h.createURL)

	r.Route("/admin/{secretKey}", func(r chi.Router) {
		r.Get("/", h.getAdminInfo)
		r.Patch("/", h.updateTargetURL)
		r.Delete("/", h.deactivateURL)
	})

	r.Route("/{key}", func(r chi.Router) {
		r.Get("/", h.forwardToTargetURL)
		r.Get("/peek", h.peekTargetURL)
	})

	return r
}
