package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/tidymark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tidymark/internal/httpserver/handlers"
)

func init() { Register("search", registerSearch) }

func registerSearch(r chi.Router, d deps.Deps) {
	r.Get("/api/search", handlers.Search(d))
	r.Post("/api/stats", handlers.Stats(d))
}
