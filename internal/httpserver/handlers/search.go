package handlers

import (
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/tidymark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tidymark/internal/index"
	"github.com/MrSnakeDoc/tidymark/internal/logger"
	"github.com/MrSnakeDoc/tidymark/internal/search"
)

// Search runs the search pipeline. A degraded outcome is still a 200; the
// mode field tells clients the index was bypassed.
func Search(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := newParams(r.URL.Query())
		raw := p.v.Get("q")

		filters := search.Filters{
			Domain:         p.str("domain"),
			Folder:         p.str("folder"),
			Topic:          p.str("topic"),
			ContentType:    p.str("type"),
			Creator:        p.str("creator"),
			Tag:            p.str("tag"),
			DateFrom:       p.date("from"),
			DateTo:         p.date("to"),
			MinReadingTime: p.optInt("minReading"),
			MaxReadingTime: p.optInt("maxReading"),
			MinQuality:     p.optFloat("minQuality"),
			MaxQuality:     p.optFloat("maxQuality"),
			Dead:           p.optBool("dead"),
			Stale:          p.optBool("stale"),
		}
		opts := search.Options{
			Limit:        p.integer("limit", 0),
			Offset:       p.integer("offset", 0),
			SortBy:       search.SortOrder(strings.ToLower(p.str("sort"))),
			TieBreak:     search.SortOrder(strings.ToLower(p.str("tieBreak"))),
			ComputeStats: p.boolean("stats", false),
		}
		if fields := p.str("fields"); fields != "" {
			for _, name := range strings.Split(fields, ",") {
				f, ok := index.ParseField(strings.TrimSpace(name))
				if !ok {
					writeError(w, badRequest("unknown field %q", name))
					return
				}
				opts.Fields = append(opts.Fields, f)
			}
		}
		if p.err != nil {
			writeError(w, p.err)
			return
		}

		out, err := d.Engine.SearchBookmarks(r.Context(), raw, filters, opts)
		if err != nil {
			d.Logger.Warn("search failed", logger.String("query", raw), logger.Error(err))
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}
