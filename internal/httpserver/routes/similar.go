package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/tidymark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tidymark/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/tidymark/internal/httpserver/mw"
)

func init() { Register("similar", registerSimilar) }

// Corpus-wide scans share one rate limit per client.
func registerSimilar(r chi.Router, d deps.Deps) {
	r.Group(func(scan chi.Router) {
		scan.Use(mw.RateLimit(d.ScanLimit))
		scan.Get("/api/similar", handlers.SimilarPairs(d))
		scan.Get("/api/similar/fuzzy", handlers.FuzzyPairs(d))
		scan.Get("/api/duplicates", handlers.Duplicates(d))
	})
	r.Get("/api/bookmarks/{id}/similar", handlers.BookmarkSimilar(d))
	r.Post("/api/bookmarks/{id}/similar", handlers.RecomputeBookmarkSimilar(d))
}
