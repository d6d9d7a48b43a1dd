package handlers

import (
	"net/http"
	"time"

	"github.com/MrSnakeDoc/tidymark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tidymark/internal/logger"
)

type rebuildResponse struct {
	Documents int     `json:"documents"`
	ElapsedMS float64 `json:"elapsedMs"`
}

// RebuildIndex re-indexes the whole corpus synchronously.
func RebuildIndex(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		n, err := d.Engine.RebuildIndex(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		d.Logger.Info("index rebuilt via endpoint",
			logger.Int("documents", n),
			logger.String("remote_ip", r.RemoteAddr))
		writeJSON(w, http.StatusOK, rebuildResponse{
			Documents: n,
			ElapsedMS: float64(time.Since(start).Microseconds()) / 1000,
		})
	}
}
