package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/portal/internal/httpserver/deps"
	"github.com/MrSnakeDoc/portal/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/portal/internal/httpserver/mw"
)

func init() { Register("routes", registerRoutes) }

func registerRoutes(r chi.Router, d deps.Deps) {
	r.Route("/routes", func(r chi.Router) {
		r.Get("/", handlers.ListRoutes(d))
		r.Get("/{id}", handlers.GetRoute(d))

		r.Group(func(r chi.Router) {
			r.Use(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger))
			r.Post("/", handlers.CreateRoute(d))
			r.Delete("/{id}", handlers.DeleteRoute(d))
		})
	})
}
