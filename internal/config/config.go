package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s
	RequestTimeout  time.Duration // per-request timeout, corpus-wide scans included

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	Store string // "memory" | "redis"

	// Bookmark import
	BookmarkFile      string        // path to the bookmarks export YAML (optional, empty = import disabled)
	ReloadInterval    time.Duration // interval to re-import the export file (default: 1h)
	WatchBookmarkFile bool          // re-import as soon as the export file changes on disk

	// Engine
	StemTerms          bool          // apply the snowball stemmer when tokenizing
	StaleAfter         time.Duration // default age for the stale filters (default: 180 days)
	PairCacheTTL       time.Duration // lifetime of cached TF-IDF pair lists (default: 5m)
	RecordTTL          time.Duration // age after which similarity records are recomputed (default: 24h)
	SimilarThreshold   float64       // default TF-IDF threshold of /api/similar (default: 0.3)
	FuzzyMinSimilarity float64       // default minimum of /api/similar/fuzzy (default: 0.5)
	PrecomputeWorkers  int           // parallel workers of the precompute job (default: 4)
	PrecomputeInterval time.Duration // interval of the precompute job (default: 6h, 0 = disabled)
	SnapshotInterval   time.Duration // interval of index snapshot persistence (default: 15m, 0 = disabled)

	// Redis
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts

	// Access restrictions
	AdminCIDRS     []string // IPs/CIDRs allowed on rebuild/reload/precompute; empty denies all
	TrustProxy     bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)
	ScanBurst      int      // rate limit burst for corpus-wide similarity scans
	ScanRefillRate int      // scan tokens refilled per client per minute
}

// LoadEnvFile loads KEY=VALUE pairs from path into the process environment.
// Variables that are already set win. An empty path loads ".env" when it
// exists.
func LoadEnvFile(path string) error {
	if path == "" {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("TIDYMARK_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("TIDYMARK_SHUTDOWN_TIMEOUT", 5*time.Second),
		RequestTimeout:  mustDuration("TIDYMARK_REQUEST_TIMEOUT", 30*time.Second),

		// Logging
		LogLevel:  getenv("TIDYMARK_LOG_LEVEL", "info"),
		PrettyLog: mustBool("TIDYMARK_PRETTY_LOG", true),

		Store: strings.ToLower(getenv("TIDYMARK_STORE", StoreMemory)),

		// Import
		BookmarkFile:      getenv("TIDYMARK_BOOKMARK_FILE", ""),
		ReloadInterval:    mustDuration("TIDYMARK_RELOAD_INTERVAL", time.Hour),
		WatchBookmarkFile: mustBool("TIDYMARK_WATCH_BOOKMARK_FILE", false),

		// Engine
		StemTerms:          mustBool("TIDYMARK_STEM_TERMS", false),
		StaleAfter:         mustDuration("TIDYMARK_STALE_AFTER", 180*24*time.Hour),
		PairCacheTTL:       mustDuration("TIDYMARK_PAIR_CACHE_TTL", 5*time.Minute),
		RecordTTL:          mustDuration("TIDYMARK_RECORD_TTL", 24*time.Hour),
		SimilarThreshold:   getenvFloat("TIDYMARK_SIMILAR_THRESHOLD", 0.3),
		FuzzyMinSimilarity: getenvFloat("TIDYMARK_FUZZY_MIN_SIMILARITY", 0.5),
		PrecomputeWorkers:  getenvInt("TIDYMARK_PRECOMPUTE_WORKERS", 4),
		PrecomputeInterval: mustDuration("TIDYMARK_PRECOMPUTE_INTERVAL", 6*time.Hour),
		SnapshotInterval:   mustDuration("TIDYMARK_SNAPSHOT_INTERVAL", 15*time.Minute),

		// Access restrictions
		AdminCIDRS:     splitAndTrim(getenv("TIDYMARK_ADMIN_CIDRS", "")),
		TrustProxy:     mustBool("TIDYMARK_TRUST_PROXY", false),
		ScanBurst:      getenvInt("TIDYMARK_SCAN_BURST", 5),
		ScanRefillRate: getenvInt("TIDYMARK_SCAN_REFILL_PER_MIN", 10),
	}

	switch cfg.Store {
	case StoreMemory:
	case StoreRedis:
		loadRedis(cfg)
	default:
		panic(fmt.Sprintf("❌ FATAL: TIDYMARK_STORE must be %q or %q, got %q", StoreMemory, StoreRedis, cfg.Store))
	}

	for key, v := range map[string]float64{
		"TIDYMARK_SIMILAR_THRESHOLD":    cfg.SimilarThreshold,
		"TIDYMARK_FUZZY_MIN_SIMILARITY": cfg.FuzzyMinSimilarity,
	} {
		if !(v > 0 && v <= 1) {
			panic(fmt.Sprintf("❌ FATAL: %s must be within (0,1], got %v", key, v))
		}
	}

	if cfg.PrecomputeWorkers < 1 {
		panic(fmt.Sprintf("❌ FATAL: TIDYMARK_PRECOMPUTE_WORKERS must be >= 1, got %d", cfg.PrecomputeWorkers))
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.RedisPassword = "***REDACTED***"
		if cfg.RedisUser != "" {
			cfgCopy.RedisUser = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// loadRedis reads the settings that only matter for the Redis store.
func loadRedis(cfg *Config) {
	cfg.RedisAddr = requireEnv("TIDYMARK_REDIS_ADDR")
	cfg.RedisUser = getenv("TIDYMARK_REDIS_USERNAME", "default")
	cfg.RedisPasswordRequired = mustBool("TIDYMARK_REDIS_PASSWORD_REQUIRED", true)
	cfg.RedisPassword = getenv("TIDYMARK_REDIS_PASSWORD", "")
	cfg.RedisDB = requireEnvInt("TIDYMARK_REDIS_DB")
	cfg.RedisDT = mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second)
	cfg.RedisRT = mustDuration("REDIS_READ_TIMEOUT", 3*time.Second)
	cfg.RedisWT = mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second)
	cfg.RedisMaxWait = mustDuration("REDIS_MAX_WAIT", 10*time.Second)
	cfg.RedisPingTimeout = mustDuration("REDIS_PING_TIMEOUT", 5*time.Second)
	cfg.RedisPoolSize = getenvInt("REDIS_POOL_SIZE", 10)
	cfg.RedisConnectTimeout = mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second)
	cfg.RedisRetryInterval = mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second)
	cfg.RedisWarnThreshold = getenvInt("REDIS_WARN_THRESHOLD", 3)

	if cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
		panic("❌ FATAL: TIDYMARK_REDIS_PASSWORD is required when TIDYMARK_REDIS_PASSWORD_REQUIRED=true")
	}
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func requireEnvInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		panic(fmt.Sprintf("❌ FATAL: Invalid integer value for %s: %s", key, v))
	}
	return i
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
