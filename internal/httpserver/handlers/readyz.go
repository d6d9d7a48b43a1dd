package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/tidymark/internal/engine"
	"github.com/MrSnakeDoc/tidymark/internal/httpserver/deps"
)

const storePingTimeout = 2 * time.Second

type componentStatus struct {
	OK        bool   `json:"ok"`
	Kind      string `json:"kind,omitempty"`
	Documents *int   `json:"documents,omitempty"`
	BuiltAt   string `json:"built_at,omitempty"`
	Impact    string `json:"impact,omitempty"`
	Error     string `json:"error,omitempty"`
}

type readyzResponse struct {
	Ready      bool                       `json:"ready"`
	Mode       string                     `json:"mode"`
	Components map[string]componentStatus `json:"components"`
}

// Readyz returns 200 once the index is built and the store answers.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		components := map[string]componentStatus{
			"index": indexStatus(d.Engine.IndexStatus()),
			"store": checkStore(r.Context(), d),
		}
		mode := determineMode(components)

		status := http.StatusOK
		if mode != "ok" {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, readyzResponse{
			Ready:      mode == "ok",
			Mode:       mode,
			Components: components,
		})
	}
}

func indexStatus(st engine.IndexStatus) componentStatus {
	docs := st.Documents
	c := componentStatus{OK: st.Ready, Documents: &docs}
	if st.Ready {
		c.BuiltAt = st.BuiltAt.UTC().Format(time.RFC3339)
	} else {
		c.Impact = "searches fall back to linear scan"
	}
	return c
}

func checkStore(ctx context.Context, d deps.Deps) componentStatus {
	if d.Store == nil {
		return componentStatus{OK: false, Kind: d.StoreKind, Error: "store not initialized"}
	}

	ctx, cancel := context.WithTimeout(ctx, storePingTimeout)
	defer cancel()
	if err := d.Store.Ping(ctx); err != nil {
		return componentStatus{OK: false, Kind: d.StoreKind, Impact: "all operations fail", Error: err.Error()}
	}
	return componentStatus{OK: true, Kind: d.StoreKind}
}

// determineMode: store down is critical, an unbuilt index only degrades.
func determineMode(components map[string]componentStatus) string {
	if store, ok := components["store"]; ok && !store.OK {
		return "critical"
	}
	if idx, ok := components["index"]; ok && !idx.OK {
		return "degraded"
	}
	return "ok"
}
