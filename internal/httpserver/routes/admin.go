package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/tidymark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tidymark/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/tidymark/internal/httpserver/mw"
)

func init() { Register("admin", registerAdmin) }

func registerAdmin(r chi.Router, d deps.Deps) {
	admin := r.With(mw.AllowOnlyCIDRS(d.AdminCIDRS, d.TrustProxy, d.Logger))
	admin.Post("/api/index/rebuild", handlers.RebuildIndex(d))
	admin.Post("/api/similar/precompute", handlers.Precompute(d))
	admin.Post("/api/reload", handlers.Reload(d))
}
