package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/MrSnakeDoc/tidymark/internal/httpserver/deps"
)

const maxStatsBody = 1 << 20

// Stats aggregates facet counts over the bookmarks named in the body, a
// JSON array of IDs. An empty body means the whole corpus.
func Stats(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var ids []string
		dec := json.NewDecoder(io.LimitReader(r.Body, maxStatsBody))
		if err := dec.Decode(&ids); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, badRequest("body must be a JSON array of bookmark ids"))
			return
		}

		bookmarks, err := d.Engine.ResolveBookmarks(r.Context(), ids)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, d.Engine.ComputeSearchResultStats(bookmarks))
	}
}
