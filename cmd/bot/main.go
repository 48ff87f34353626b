package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/dealpulse/dealpulse-bot/internal/bot"
	"github.com/dealpulse/dealpulse-bot/internal/catalog"
	"github.com/dealpulse/dealpulse-bot/internal/health"
	"github.com/dealpulse/dealpulse-bot/internal/i18n"
	"github.com/dealpulse/dealpulse-bot/internal/idempotency"
	"github.com/dealpulse/dealpulse-bot/internal/jobs"
	jobhandlers "github.com/dealpulse/dealpulse-bot/internal/jobs/handlers"
	"github.com/dealpulse/dealpulse-bot/internal/lifecycle"
	"github.com/dealpulse/dealpulse-bot/internal/middleware"
	"github.com/dealpulse/dealpulse-bot/internal/prefs"
	"github.com/dealpulse/dealpulse-bot/internal/ratelimit"
	"github.com/dealpulse/dealpulse-bot/internal/relay"
	"github.com/dealpulse/dealpulse-bot/pkg/config"
	"github.com/dealpulse/dealpulse-bot/pkg/graceful"
	"github.com/dealpulse/dealpulse-bot/pkg/logger"
	"github.com/dealpulse/dealpulse-bot/pkg/metrics"
	pkgredis "github.com/dealpulse/dealpulse-bot/pkg/redis"

	_ "github.com/lib/pq"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, _, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	log := logger.New(cfg.Log, cfg.Sentry.Enabled)
	slog.SetDefault(log)

	log.Info("starting dealpulse bot",
		slog.String("env", cfg.AppEnv),
		slog.String("mode", cfg.Bot.Mode))

	if cfg.Sentry.Enabled {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.AppEnv,
		}); err != nil {
			log.Error("failed to init sentry", slog.Any("error", err))
			os.Exit(1)
		}
		defer sentry.Flush(2 * time.Second)
	}

	shutdown := lifecycle.NewShutdown(log)

	// Redis backs the profile cache, relay sessions, rate limits, dedupe
	// records, and the jobs queue. Everything degrades to in-process
	// fallbacks when it is disabled.
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		client, err := pkgredis.New(ctx, cfg.Redis)
		if err != nil {
			log.Error("failed to connect to redis", slog.Any("error", err))
			os.Exit(1)
		}
		redisClient = client
		shutdown.Register("redis", func(context.Context) error { return client.Close() })
	}

	var db *sql.DB
	userRepo := prefs.Repository(prefs.NewMemoryRepository())
	if cfg.Database.Enabled {
		db, err = sql.Open("postgres", cfg.Database.DSN())
		if err != nil {
			log.Error("failed to open database", slog.Any("error", err))
			os.Exit(1)
		}
		if err := db.PingContext(ctx); err != nil {
			log.Error("failed to ping database", slog.Any("error", err))
			os.Exit(1)
		}
		shutdown.Register("database", func(context.Context) error { return db.Close() })

		pgRepo := prefs.NewPostgresRepository(db, log)
		if err := pgRepo.EnsureSchema(ctx); err != nil {
			log.Error("failed to ensure database schema", slog.Any("error", err))
			os.Exit(1)
		}
		userRepo = pgRepo
	}

	prefsService := prefs.NewService(userRepo, prefs.NewCache(redisClient), log)

	locales, err := i18n.LoadFromDir(cfg.Locale.Dir, cfg.Locale.DefaultLang)
	if err != nil {
		log.Error("failed to load locales", slog.Any("error", err))
		os.Exit(1)
	}
	if cfg.Locale.HotReload {
		watcher := i18n.NewWatcher(locales, log)
		go func() {
			if err := watcher.Run(ctx); err != nil {
				log.Error("locale watcher stopped", slog.Any("error", err))
			}
		}()
	}

	var provider catalog.Provider
	var cachedProvider *catalog.CachedProvider
	if cfg.Catalog.FeedURL != "" {
		feed := catalog.NewFeedProvider(cfg.Catalog.FeedURL, log)
		cachedProvider = catalog.NewCachedProvider(feed, redisClient, cfg.Catalog.SnapshotTTL, log)
		provider = cachedProvider
	} else {
		log.Warn("no catalog feed configured, starting with an empty catalog")
		provider = catalog.NewStaticProvider(nil)
	}

	relayStorage := relay.Storage(relay.NewMemoryStorage())
	if redisClient != nil {
		relayStorage = relay.NewRedisStorage(redisClient, log)
	}
	relayManager := relay.NewManager(relayStorage, log, redisClient)

	cleaner := relay.NewCleaner(relayManager, log, cfg.Relay.SessionTTL, cfg.Relay.SweepInterval)
	go cleaner.Run(ctx)
	go metrics.NewSessionCollector(relayManager).Run(ctx)

	var rateLimitMw *middleware.RateLimitMiddleware
	if cfg.RateLimit.Enabled {
		limiter := ratelimit.NewMemoryLimiter(log)
		if redisClient != nil {
			limiter = ratelimit.NewRedisLimiter(redisClient, log)
		}
		rateLimitMw = middleware.NewRateLimitMiddleware(limiter, ratelimit.NewRules(cfg.RateLimit), log)
	}

	dedupeStore := idempotency.Store(idempotency.NewMemoryStore())
	if redisClient != nil {
		dedupeStore = idempotency.NewRedisStore(redisClient, log)
	}
	dedupeManager := idempotency.NewManager(dedupeStore, log)

	botInstance, err := bot.New(*cfg, log, locales, prefsService, provider, relayManager, dedupeManager, rateLimitMw)
	if err != nil {
		log.Error("failed to initialize bot", slog.Any("error", err))
		os.Exit(1)
	}
	shutdown.Register("telegram-bot", func(context.Context) error {
		botInstance.Stop()
		return nil
	})

	if cfg.Jobs.Enabled && cfg.Redis.Enabled {
		redisOpt := asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}

		jobsManager := jobs.NewManager(redisOpt, log)
		shutdown.Register("jobs-client", func(context.Context) error { return jobsManager.Close() })

		// Warm the catalog snapshot right away instead of waiting for the
		// first cron tick.
		if warmup, err := jobs.NewCatalogRefreshTask(true); err != nil {
			log.Warn("failed to build warmup refresh task", slog.Any("error", err))
		} else if _, err := jobsManager.Enqueue(ctx, warmup); err != nil {
			log.Warn("failed to enqueue warmup refresh", slog.Any("error", err))
		}

		scheduler := jobs.NewScheduler(redisOpt, log)
		if err := scheduler.RegisterTasks(cfg.Catalog.RefreshCron); err != nil {
			log.Error("failed to register scheduled tasks", slog.Any("error", err))
			os.Exit(1)
		}
		scheduler.Run()
		shutdown.Register("jobs-scheduler", func(context.Context) error {
			scheduler.Shutdown()
			return nil
		})

		worker := jobs.NewWorker(redisOpt, cfg.Jobs.Concurrency, log)
		worker.RegisterHandler(jobs.TaskTypeCatalogRefresh, jobhandlers.NewCatalogRefreshHandler(cachedProvider, log))
		worker.RegisterHandler(jobs.TaskTypeDealAlerts, jobhandlers.NewDealAlertsHandler(provider, prefsService, botInstance, log))
		go func() {
			if err := worker.Run(); err != nil {
				log.Error("jobs worker failed", slog.Any("error", err))
			}
		}()
		shutdown.Register("jobs-worker", func(context.Context) error {
			worker.Shutdown()
			return nil
		})
	}

	checker := health.NewChecker(log)
	checker.AddCheck("telegram", health.NewTelegramChecker(botInstance.Telebot()))
	if redisClient != nil {
		checker.AddCheck("redis", health.NewRedisChecker(redisClient))
	}
	if db != nil {
		checker.AddCheck("database", health.NewDBChecker(db))
	}
	if cachedProvider != nil {
		checker.AddCheck("catalog", cachedProvider)
	}

	srv := newHTTPServer(cfg, checker, log)

	go botInstance.Start()

	if err := graceful.NewServer(log, srv, cfg.Server.ShutdownTimeout).ListenAndServe(ctx); err != nil {
		log.Error("http server exited with error", slog.Any("error", err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := shutdown.Execute(shutdownCtx); err != nil {
		log.Error("shutdown finished with errors", slog.Any("error", err))
	}

	log.Info("dealpulse bot stopped")
}

func newHTTPServer(cfg *config.Config, checker *health.Checker, log *slog.Logger) *http.Server {
	mux := http.NewServeMux()

	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		report := checker.Check(r.Context())

		status := http.StatusOK
		if !report.Healthy {
			status = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(status)
		for name, state := range report.Components {
			_, _ = w.Write([]byte(name + ": " + state + "\n"))
		}
	})

	handler := logger.Middleware(middleware.HTTPLogging(log)(mux))

	return &http.Server{
		Addr:    cfg.Server.Port,
		Handler: handler,
	}
}
