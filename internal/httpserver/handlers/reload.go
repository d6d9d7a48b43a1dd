package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/tidymark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tidymark/internal/logger"
)

type triggerResponse struct {
	Triggered bool   `json:"triggered"`
	Message   string `json:"message"`
}

// Reload triggers a manual import of the bookmarks export file.
func Reload(d deps.Deps) http.HandlerFunc {
	return trigger(d, "bookmark import", d.ReloadTrigger)
}

// Precompute triggers a manual similarity precompute pass.
func Precompute(d deps.Deps) http.HandlerFunc {
	return trigger(d, "similarity precompute", d.PrecomputeTrigger)
}

func trigger(d deps.Deps, job string, ch chan<- struct{}) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ch == nil {
			writeJSON(w, http.StatusNotFound, triggerResponse{Message: job + " is disabled"})
			return
		}

		select {
		case ch <- struct{}{}:
			d.Logger.Info("manual "+job+" triggered via endpoint",
				logger.String("remote_ip", r.RemoteAddr))
			writeJSON(w, http.StatusAccepted, triggerResponse{Triggered: true, Message: job + " triggered"})
		default:
			d.Logger.Warn(job+" already in progress",
				logger.String("remote_ip", r.RemoteAddr))
			writeJSON(w, http.StatusTooManyRequests, triggerResponse{Message: job + " already in progress, please wait"})
		}
	}
}
