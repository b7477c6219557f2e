package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/localpub/localpub/internal/httpserver/deps"
	"github.com/localpub/localpub/internal/httpserver/handlers"
)

func init() { Register(registerProbes) }

func registerProbes(r chi.Router, d deps.Deps) {
	r.Get("/api/healthz", handlers.Healthz(d))
	r.Get("/api/readyz", handlers.Readyz(d))
}
