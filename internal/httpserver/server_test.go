package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MrSnakeDoc/tidymark/internal/domain"
	"github.com/MrSnakeDoc/tidymark/internal/engine"
	"github.com/MrSnakeDoc/tidymark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tidymark/internal/httpserver/mw"
	"github.com/MrSnakeDoc/tidymark/internal/logger"
	"github.com/MrSnakeDoc/tidymark/internal/store/memory"
)

var now = time.Date(2025, time.June, 20, 12, 0, 0, 0, time.UTC)

var errDown = errors.New("store down")

// downStore fails every corpus read and ping.
type downStore struct{ *memory.Store }

func (downStore) GetAllBookmarks(context.Context) ([]*domain.Bookmark, error) {
	return nil, errDown
}

func (downStore) Ping(context.Context) error { return errDown }

func newTestRouter(t *testing.T, built bool) (http.Handler, *memory.Store, deps.Deps) {
	t.Helper()
	ctx := context.Background()
	log := logger.NewNop()
	store := memory.New()
	enriched := now.Add(-time.Hour)
	err := store.SaveBookmarksMany(ctx, []*domain.Bookmark{
		{ID: "1", URL: "https://rust-lang.org/learn", Title: "Learn Rust", Category: "docs",
			Keywords: []string{"rust"}, EnrichedAt: &enriched, DateAdded: now.Add(-time.Hour)},
		{ID: "2", URL: "https://rust-lang.org/learn/", Title: "Learn Rust again", Category: "docs",
			Keywords: []string{"rust"}, DateAdded: now.Add(-2 * time.Hour)},
		{ID: "3", URL: "https://python.org", Title: "Python tutorial", Category: "video",
			IsAlive: domain.False, DateAdded: now.Add(-3 * time.Hour)},
	})
	if err != nil {
		t.Fatal(err)
	}

	eng := engine.New(store, log, engine.Config{})
	if built {
		if _, err := eng.RebuildIndex(ctx); err != nil {
			t.Fatal(err)
		}
	}
	d := deps.Deps{
		Logger:             log,
		StartTime:          now,
		TimeNow:            func() time.Time { return now.Add(time.Minute) },
		Engine:             eng,
		Store:              store,
		StoreKind:          "memory",
		AdminCIDRS:         []string{"192.0.2.1"},
		ScanLimit:          mw.RateLimitConfig{Burst: 100, RefillPerIPPerMin: 100},
		SimilarThreshold:   0.3,
		FuzzyMinSimilarity: 0.5,
		PrecomputeTrigger:  make(chan struct{}, 1),
	}
	return NewRouter(time.Second, log, d), store, d
}

func do(t *testing.T, h http.Handler, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(method, target, bytes.NewReader(body))
	r.RemoteAddr = "192.0.2.1:1234"
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestSearchEndpoint(t *testing.T) {
	h, _, _ := newTestRouter(t, true)

	tests := []struct {
		name      string
		target    string
		wantCode  int
		wantTotal int
	}{
		{"term", "/api/search?q=rust", http.StatusOK, 2},
		{"special filters", "/api/search?q=dead:yes%20category:video", http.StatusOK, 1},
		{"structural filter", "/api/search?domain=python.org", http.StatusOK, 1},
		{"bad limit", "/api/search?q=rust&limit=abc", http.StatusBadRequest, 0},
		{"limit out of range", "/api/search?q=rust&limit=5000", http.StatusBadRequest, 0},
		{"unknown sort", "/api/search?q=rust&sort=random", http.StatusBadRequest, 0},
		{"unknown field", "/api/search?q=rust&fields=title,colour", http.StatusBadRequest, 0},
		{"bad date", "/api/search?from=yesterday", http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodGet, tt.target, nil)
			if w.Code != tt.wantCode {
				t.Fatalf("GET %s = %v, want %v (%s)", tt.target, w.Code, tt.wantCode, w.Body)
			}
			if tt.wantCode != http.StatusOK {
				return
			}
			var out struct {
				Total int    `json:"total"`
				Mode  string `json:"mode"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
				t.Fatal(err)
			}
			if out.Total != tt.wantTotal || out.Mode != "ok" {
				t.Errorf("GET %s total = %v mode = %v, want %v ok", tt.target, out.Total, out.Mode, tt.wantTotal)
			}
		})
	}
}

func TestSearchEndpoint_DegradedWithoutIndex(t *testing.T) {
	h, _, _ := newTestRouter(t, false)
	w := do(t, h, http.MethodGet, "/api/search?q=rust", nil)
	var out struct {
		Total int    `json:"total"`
		Mode  string `json:"mode"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	if w.Code != http.StatusOK || out.Mode != "degraded_fallback" || out.Total != 2 {
		t.Errorf("GET /api/search = %v %+v, want 200 degraded_fallback with 2 results", w.Code, out)
	}
}

func TestStoreFaultMapsTo503(t *testing.T) {
	log := logger.NewNop()
	store := downStore{memory.New()}
	d := deps.Deps{Logger: log, Engine: engine.New(store, log, engine.Config{}), Store: store}
	h := NewRouter(0, log, d)

	for _, target := range []string{"/api/search?q=rust", "/api/duplicates", "/readyz"} {
		if w := do(t, h, http.MethodGet, target, nil); w.Code != http.StatusServiceUnavailable {
			t.Errorf("GET %s = %v, want 503", target, w.Code)
		}
	}
}

func TestSimilarityEndpoints(t *testing.T) {
	h, _, _ := newTestRouter(t, true)

	tests := []struct {
		method   string
		target   string
		wantCode int
	}{
		{http.MethodGet, "/api/similar", http.StatusOK},
		{http.MethodGet, "/api/similar?threshold=2", http.StatusBadRequest},
		{http.MethodGet, "/api/similar?threshold=0", http.StatusBadRequest},
		{http.MethodGet, "/api/similar?threshold=1", http.StatusOK},
		{http.MethodGet, "/api/similar/fuzzy?min=0.4&cross=false", http.StatusOK},
		{http.MethodGet, "/api/similar/fuzzy?min=0", http.StatusBadRequest},
		{http.MethodGet, "/api/similar/fuzzy?min=-0.1", http.StatusBadRequest},
		{http.MethodGet, "/api/similar/fuzzy?cross=maybe", http.StatusBadRequest},
		{http.MethodGet, "/api/duplicates", http.StatusOK},
		{http.MethodGet, "/api/bookmarks/1/similar", http.StatusOK},
		{http.MethodGet, "/api/bookmarks/missing/similar", http.StatusNotFound},
		{http.MethodPost, "/api/bookmarks/1/similar?top=1", http.StatusOK},
		{http.MethodPost, "/api/bookmarks/1/similar?top=0", http.StatusBadRequest},
	}
	for _, tt := range tests {
		if w := do(t, h, tt.method, tt.target, nil); w.Code != tt.wantCode {
			t.Errorf("%s %s = %v, want %v (%s)", tt.method, tt.target, w.Code, tt.wantCode, w.Body)
		}
	}

	w := do(t, h, http.MethodGet, "/api/duplicates", nil)
	var dups struct {
		Similar []struct {
			Key string `json:"key"`
		} `json:"similar"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &dups)
	if len(dups.Similar) != 1 || dups.Similar[0].Key != "rust-lang.org/learn" {
		t.Errorf("duplicates = %+v, want the rust-lang.org/learn group", dups)
	}
}

func TestStatsEndpoint(t *testing.T) {
	h, _, _ := newTestRouter(t, true)

	tests := []struct {
		name      string
		body      string
		wantCode  int
		wantTotal int
	}{
		{"whole corpus", "", http.StatusOK, 3},
		{"selected ids", `["1","3","nope"]`, http.StatusOK, 2},
		{"not an array", `{"ids":1}`, http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodPost, "/api/stats", []byte(tt.body))
			if w.Code != tt.wantCode {
				t.Fatalf("POST /api/stats = %v, want %v", w.Code, tt.wantCode)
			}
			if tt.wantCode != http.StatusOK {
				return
			}
			var out struct {
				Total int `json:"total"`
			}
			_ = json.Unmarshal(w.Body.Bytes(), &out)
			if out.Total != tt.wantTotal {
				t.Errorf("total = %v, want %v", out.Total, tt.wantTotal)
			}
		})
	}
}

func TestAdminEndpoints(t *testing.T) {
	h, store, d := newTestRouter(t, true)
	_ = store.SaveBookmark(context.Background(), &domain.Bookmark{ID: "4", URL: "https://go.dev", Title: "Go"})

	w := do(t, h, http.MethodPost, "/api/index/rebuild", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("rebuild = %v, want 200", w.Code)
	}
	if got := d.Engine.IndexStatus().Documents; got != 4 {
		t.Errorf("documents after rebuild = %v, want 4", got)
	}

	if w := do(t, h, http.MethodPost, "/api/similar/precompute", nil); w.Code != http.StatusAccepted {
		t.Errorf("first precompute trigger = %v, want 202", w.Code)
	}
	if w := do(t, h, http.MethodPost, "/api/similar/precompute", nil); w.Code != http.StatusTooManyRequests {
		t.Errorf("second precompute trigger = %v, want 429", w.Code)
	}
	if w := do(t, h, http.MethodPost, "/api/reload", nil); w.Code != http.StatusNotFound {
		t.Errorf("reload without import = %v, want 404", w.Code)
	}

	r := httptest.NewRequest(http.MethodPost, "/api/index/rebuild", nil)
	r.RemoteAddr = "203.0.113.9:1"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	if rec.Code != http.StatusForbidden {
		t.Errorf("rebuild from outside admin CIDRs = %v, want 403", rec.Code)
	}
}

func TestAdminRoutes_DeniedWithoutCIDRs(t *testing.T) {
	_, _, d := newTestRouter(t, true)
	d.AdminCIDRS = nil
	h := NewRouter(time.Second, d.Logger, d)

	for _, path := range []string{"/api/index/rebuild", "/api/similar/precompute", "/api/reload"} {
		if w := do(t, h, http.MethodPost, path, nil); w.Code != http.StatusForbidden {
			t.Errorf("POST %s without admin CIDRs = %v, want 403", path, w.Code)
		}
	}
	if w := do(t, h, http.MethodGet, "/api/search?q=rust", nil); w.Code != http.StatusOK {
		t.Errorf("search without admin CIDRs = %v, want 200", w.Code)
	}
}

func TestHealthAndReady(t *testing.T) {
	h, _, _ := newTestRouter(t, false)
	if w := do(t, h, http.MethodGet, "/healthz", nil); w.Code != http.StatusOK {
		t.Errorf("healthz = %v, want 200", w.Code)
	}

	w := do(t, h, http.MethodGet, "/readyz", nil)
	var out struct {
		Ready bool   `json:"ready"`
		Mode  string `json:"mode"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	if w.Code != http.StatusServiceUnavailable || out.Mode != "degraded" {
		t.Errorf("readyz before build = %v %+v, want 503 degraded", w.Code, out)
	}

	h, _, _ = newTestRouter(t, true)
	if w := do(t, h, http.MethodGet, "/readyz", nil); w.Code != http.StatusOK {
		t.Errorf("readyz after build = %v, want 200", w.Code)
	}
}
