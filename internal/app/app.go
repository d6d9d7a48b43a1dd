package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/tidymark/internal/config"
	"github.com/MrSnakeDoc/tidymark/internal/engine"
	"github.com/MrSnakeDoc/tidymark/internal/httpserver"
	"github.com/MrSnakeDoc/tidymark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tidymark/internal/httpserver/mw"
	"github.com/MrSnakeDoc/tidymark/internal/logger"
	"github.com/MrSnakeDoc/tidymark/internal/redis"
	"github.com/MrSnakeDoc/tidymark/internal/scheduler"
	"github.com/MrSnakeDoc/tidymark/internal/store/memory"
	redisstore "github.com/MrSnakeDoc/tidymark/internal/store/redis"
	"github.com/MrSnakeDoc/tidymark/internal/textproc"
	"github.com/MrSnakeDoc/tidymark/internal/version"
)

// Options are the command line switches that change startup.
type Options struct {
	RebuildIndex bool // ignore the persisted snapshot and re-index the corpus
	FlushCache   bool // drop every engine cache entry before warm start
}

// Store is everything the app needs from a Bookmark Store backend.
type Store interface {
	engine.BookmarkStore
	scheduler.ImportStore
	deps.Pinger
	FlushCache(ctx context.Context) error
}

type App struct {
	cfg         *config.Config
	opts        Options
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	store       Store
	engine      *engine.Engine
	reloader    *scheduler.BookmarkReloader
	watcher     *scheduler.ExportWatcher
	precompute  *scheduler.PrecomputeScheduler
	snapshot    *scheduler.SnapshotScheduler
}

func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	store, redisClient, err := openStore(ctx, cfg, loggerClient)
	if err != nil {
		return nil, err
	}

	eng := engine.New(store, loggerClient, engine.Config{
		Analyzer:          textproc.Analyzer{Stem: cfg.StemTerms},
		PairCacheTTL:      cfg.PairCacheTTL,
		RecordTTL:         cfg.RecordTTL,
		StaleAfter:        cfg.StaleAfter,
		PrecomputeWorkers: cfg.PrecomputeWorkers,
	})

	precomputeTrigger := make(chan struct{}, 1)
	precompute := scheduler.NewPrecomputeScheduler(eng, loggerClient, cfg.PrecomputeInterval, precomputeTrigger)
	snapshot := scheduler.NewSnapshotScheduler(eng, loggerClient, cfg.SnapshotInterval)

	// Initialize bookmark reloader (if bookmark file is configured)
	var reloader *scheduler.BookmarkReloader
	var watcher *scheduler.ExportWatcher
	var reloadTrigger chan struct{}
	if cfg.BookmarkFile != "" {
		loggerClient.Info("bookmark file configured, initializing bookmark reloader",
			logger.String("file", cfg.BookmarkFile))
		reloadTrigger = make(chan struct{}, 1)
		reloader = scheduler.NewBookmarkReloader(
			cfg.BookmarkFile,
			store,
			eng,
			loggerClient,
			cfg.ReloadInterval,
			reloadTrigger,
		)
		if cfg.WatchBookmarkFile {
			watcher, err = scheduler.NewExportWatcher(cfg.BookmarkFile, reloadTrigger, 0, loggerClient)
			if err != nil {
				if redisClient != nil {
					_ = redisClient.Close()
				}
				return nil, fmt.Errorf("failed to watch bookmark file: %w", err)
			}
		}
	} else {
		loggerClient.Info("bookmark file not configured, serving the stored corpus only")
	}

	d := deps.Deps{
		Logger:    loggerClient,
		StartTime: time.Now(),
		Version:   version.Version,
		Commit:    version.Commit,
		BuildDate: version.BuildDate,
		GoVersion: version.GoVersion,
		TimeNow:   time.Now,
		Engine:    eng,
		Store:     store,
		StoreKind: cfg.Store,

		AdminCIDRS: cfg.AdminCIDRS,
		TrustProxy: cfg.TrustProxy,
		ScanLimit: mw.RateLimitConfig{
			Burst:             cfg.ScanBurst,
			RefillPerIPPerMin: cfg.ScanRefillRate,
			TrustProxy:        cfg.TrustProxy,
		},

		SimilarThreshold:   cfg.SimilarThreshold,
		FuzzyMinSimilarity: cfg.FuzzyMinSimilarity,
		ReloadTrigger:      reloadTrigger,
		PrecomputeTrigger:  precomputeTrigger,
	}

	return &App{
		cfg:         cfg,
		opts:        opts,
		logger:      loggerClient,
		server:      httpserver.New(cfg, loggerClient, d),
		redisClient: redisClient,
		store:       store,
		engine:      eng,
		reloader:    reloader,
		watcher:     watcher,
		precompute:  precompute,
		snapshot:    snapshot,
	}, nil
}

func openStore(ctx context.Context, cfg *config.Config, log logger.Logger) (Store, *goredis.Client, error) {
	if cfg.Store != config.StoreRedis {
		log.Warn("using the in-memory store, bookmarks are lost on restart")
		return memory.New(), nil, nil
	}

	// Fail fast if Redis stays unavailable
	log.Infof("Connecting to Redis at %s", cfg.RedisAddr)
	client, err := redis.New(ctx, redis.ConnectOptions{
		Addr:           cfg.RedisAddr,
		User:           cfg.RedisUser,
		Password:       cfg.RedisPassword,
		RedisDB:        cfg.RedisDB,
		DialTimeout:    cfg.RedisDT,
		ReadTimeout:    cfg.RedisRT,
		WriteTimeout:   cfg.RedisWT,
		PoolSize:       cfg.RedisPoolSize,
		ConnectTimeout: cfg.RedisConnectTimeout,
		RetryInterval:  cfg.RedisRetryInterval,
		MaxWait:        cfg.RedisMaxWait,
		PingTimeout:    cfg.RedisPingTimeout,
		WarnThreshold:  cfg.RedisWarnThreshold,
	}, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	log.Info("Redis initialized successfully")
	return redisstore.NewStore(client), client, nil
}

// warmUp brings the index to a ready state before traffic is served.
func (a *App) warmUp(ctx context.Context) error {
	if a.opts.FlushCache {
		if err := a.store.FlushCache(ctx); err != nil {
			return fmt.Errorf("failed to flush cache: %w", err)
		}
		a.logger.Info("engine cache flushed")
	}

	if a.opts.RebuildIndex {
		// RebuildIndex persists the fresh snapshot itself.
		n, err := a.engine.RebuildIndex(ctx)
		if err != nil {
			return fmt.Errorf("failed to rebuild index: %w", err)
		}
		a.logger.Info("index rebuilt on request", logger.Int("documents", n))
		return nil
	}

	if err := a.engine.WarmStart(ctx); err != nil {
		// The index stays not ready, so searches scan linearly until the
		// snapshot job or an admin rebuild builds it.
		a.logger.Warn("index warm start failed, serving degraded", logger.Error(err))
	}
	return nil
}

func (a *App) Run(ctx context.Context) error {
	a.logger.Infof("🚀 Starting tidymark v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Info(version.String())

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.warmUp(ctx); err != nil {
		return errors.Join(err, a.shutdown())
	}

	// The import runs once synchronously, then on its interval.
	if a.reloader != nil {
		if err := a.reloader.Start(ctx); err != nil {
			return errors.Join(fmt.Errorf("failed to start bookmark reloader: %w", err), a.shutdown())
		}
		a.logger.Info("bookmark reloader started",
			logger.Duration("interval", a.cfg.ReloadInterval))
	}

	a.precompute.Start(ctx)
	a.logger.Info("similarity precompute started",
		logger.Duration("interval", a.cfg.PrecomputeInterval),
		logger.Int("workers", a.cfg.PrecomputeWorkers))

	a.snapshot.Start(ctx)
	a.logger.Info("index snapshots started",
		logger.Duration("interval", a.cfg.SnapshotInterval))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case runErr = <-errCh:
	}

	return errors.Join(runErr, a.shutdown())
}

func (a *App) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.server.Stop(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("failed to stop server: %w", err))
	}

	if a.watcher != nil {
		if err := a.watcher.Stop(); err != nil {
			a.logger.Warn("failed to close export watcher", logger.Error(err))
		}
	}
	if a.reloader != nil {
		a.reloader.Stop()
	}
	a.precompute.Stop()
	// Writes a final snapshot so the next start skips the rebuild.
	a.snapshot.Stop(shutdownCtx)

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}

	a.logger.Info("✅ tidymark stopped cleanly")
	_ = a.logger.Sync()
	return errors.Join(errs...)
}
