package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/localpub/localpub/internal/httpserver/deps"
	"github.com/localpub/localpub/internal/httpserver/handlers"
	"github.com/localpub/localpub/internal/httpserver/mw"
)

func init() { Register(registerPublications) }

func registerPublications(r chi.Router, d deps.Deps) {
	r.With(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.Logger)).
		Get("/api/publications", handlers.Publications(d))
}
