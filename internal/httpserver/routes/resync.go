package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/localpub/localpub/internal/httpserver/deps"
	"github.com/localpub/localpub/internal/httpserver/handlers"
	"github.com/localpub/localpub/internal/httpserver/mw"
)

func init() { Register(registerResync) }

func registerResync(r chi.Router, d deps.Deps) {
	r.With(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.Logger)).
		Post("/api/resync", handlers.Resync(d))
}
