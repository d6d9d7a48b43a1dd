package routes

import (
	"net/http"
	"sort"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/tidymark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tidymark/internal/logger"
)

func TestRegisterAll(t *testing.T) {
	r := chi.NewRouter()
	RegisterAll(r, deps.Deps{Logger: logger.NewNop()})

	var got []string
	err := chi.Walk(r, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		got = append(got, method+" "+route)
		return nil
	})
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}
	sort.Strings(got)

	want := []string{
		"GET /api/bookmarks/{id}/similar",
		"GET /api/duplicates",
		"GET /api/search",
		"GET /api/similar",
		"GET /api/similar/fuzzy",
		"GET /healthz",
		"GET /readyz",
		"POST /api/bookmarks/{id}/similar",
		"POST /api/index/rebuild",
		"POST /api/reload",
		"POST /api/similar/precompute",
		"POST /api/stats",
	}
	if len(got) != len(want) {
		t.Fatalf("routes = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("route[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	names := make([]string, 0, len(groups))
	for _, g := range groups {
		names = append(names, g.name)
	}
	sort.Strings(names)
	wantNames := []string{"admin", "health", "search", "similar"}
	for i := range wantNames {
		if i >= len(names) || names[i] != wantNames[i] {
			t.Errorf("groups = %v, want %v", names, wantNames)
			break
		}
	}
}
