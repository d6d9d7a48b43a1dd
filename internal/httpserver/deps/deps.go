package deps

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/tidymark/internal/engine"
	"github.com/MrSnakeDoc/tidymark/internal/httpserver/mw"
	"github.com/MrSnakeDoc/tidymark/internal/logger"
)

// Pinger reports whether the Bookmark Store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Logger    logger.Logger
	StartTime time.Time
	Version   string
	Commit    string
	BuildDate string
	GoVersion string
	TimeNow   func() time.Time // for testing, defaults to time.Now

	Engine    *engine.Engine
	Store     Pinger
	StoreKind string // "memory" | "redis"

	AdminCIDRS []string             // IPs allowed to trigger rebuild/reload/precompute
	TrustProxy bool                 // true if running behind a trusted reverse proxy (e.g., cloudflared)
	ScanLimit  mw.RateLimitConfig   // limits corpus-wide similarity scans per client

	SimilarThreshold   float64 // default threshold of /api/similar
	FuzzyMinSimilarity float64 // default minimum of /api/similar/fuzzy

	ReloadTrigger     chan struct{} // manual bookmark import (nil if import disabled)
	PrecomputeTrigger chan struct{} // manual similarity precompute
}

// Now returns TimeNow() or time.Now().
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
