package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2/adapters/humaecho"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/Sadat41/Empire-Enhanced-sub001/internal/api/handlers"
	"github.com/Sadat41/Empire-Enhanced-sub001/internal/api/middleware"
	"github.com/Sadat41/Empire-Enhanced-sub001/internal/charm"
	"github.com/Sadat41/Empire-Enhanced-sub001/internal/config"
	"github.com/Sadat41/Empire-Enhanced-sub001/internal/dedup"
	"github.com/Sadat41/Empire-Enhanced-sub001/internal/engine"
	"github.com/Sadat41/Empire-Enhanced-sub001/internal/feed"
	"github.com/Sadat41/Empire-Enhanced-sub001/internal/notify"
	"github.com/Sadat41/Empire-Enhanced-sub001/internal/pricing"
	"github.com/Sadat41/Empire-Enhanced-sub001/internal/rules"
	"github.com/Sadat41/Empire-Enhanced-sub001/internal/store"
	"github.com/Sadat41/Empire-Enhanced-sub001/pkg/logger"
	domain "github.com/Sadat41/Empire-Enhanced-sub001/pkg/types"
)

const (
	shutdownTimeout = 10 * time.Second

	// staleJobAge marks 'running' job rows older than this as crashed on
	// boot; anything that old belongs to a previous process.
	staleJobAge = 24 * time.Hour
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the feed monitor, scheduler, and API server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	startedAt := time.Now()

	// Storage.
	st, err := store.NewPostgresStore(ctx, cfg.Database.DSN(), int32(cfg.Database.PoolSize))
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	if n, err := st.RecoverStaleJobRuns(ctx, staleJobAge); err != nil {
		log.Error("recovering stale job runs failed", "error", err)
	} else if n > 0 {
		log.Warn("marked stale job runs as crashed", "count", n)
	}

	// Ruleset, hydrated from persisted state.
	table := charm.NewTable()
	ruleStore := rules.NewStore(table)

	settings, err := st.EnsureSettings(ctx, &domain.Settings{
		Band: domain.PriceBand{
			Min: cfg.Matching.DefaultBandMin,
			Max: cfg.Matching.DefaultBandMax,
		},
		KeychainThreshold: cfg.Matching.DefaultKeychainThreshold,
		EnabledKeychains:  table.Names(),
	})
	if err != nil {
		return fmt.Errorf("ensuring settings row: %w", err)
	}

	entries, err := st.ListTargetEntries(ctx)
	if err != nil {
		return fmt.Errorf("loading target entries: %w", err)
	}

	snap, err := ruleStore.Load(*settings, entries)
	if err != nil {
		return fmt.Errorf("hydrating ruleset: %w", err)
	}
	log.Info("ruleset hydrated",
		"version", snap.Version,
		"entries", len(snap.Entries),
		"enabled_keychains", len(snap.EnabledKeychains),
	)

	// Reference pricing.
	limiter := pricing.NewLimiter(
		cfg.Pricing.RateLimit.PerSecond,
		cfg.Pricing.RateLimit.Burst,
		cfg.Pricing.RateLimit.DailyLimit,
	)
	fetcher := pricing.NewFetcher(cfg.Pricing.SourceURL,
		pricing.WithFetcherHTTPClient(&http.Client{Timeout: cfg.Pricing.RequestTimeout}),
		pricing.WithFetcherLimiter(limiter),
		pricing.WithFetcherLogger(log),
	)
	comparator := pricing.NewComparator(fetcher, pricing.WithComparatorLogger(log))

	// Engine.
	eng := engine.NewEngine(ruleStore, table, comparator, buildNotifier(cfg, log), st,
		engine.WithLogger(log),
		engine.WithLedger(dedup.New(cfg.Matching.LedgerCapacity)),
	)

	// The first refresh runs inline so classification has reference prices
	// from the start. A failure leaves the table empty; the comparator
	// degrades to nil percentages until the next scheduled run.
	if err := engine.RunReferenceRefresh(ctx, fetcher, st, log); err != nil {
		log.Warn("initial reference refresh failed", "error", err)
	}

	sched, err := engine.NewScheduler(fetcher, st, cfg.Pricing.RefreshInterval, log)
	if err != nil {
		return fmt.Errorf("building scheduler: %w", err)
	}
	sched.Start()

	// Feed.
	feedClient := feed.NewClient(cfg.Feed.URL, eng,
		feed.WithAPIKey(cfg.Feed.APIKey),
		feed.WithHandshakeTimeout(cfg.Feed.HandshakeTimeout),
		feed.WithHeartbeatInterval(cfg.Feed.HeartbeatInterval),
		feed.WithReconnectDelay(cfg.Feed.ReconnectDelay),
		feed.WithJobRecorder(st),
		feed.WithLogger(log),
	)
	go func() {
		if err := feedClient.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("feed client stopped", "error", err)
		}
	}()

	// HTTP.
	e := newRouter(routerDeps{
		log:       log,
		store:     st,
		feed:      feedClient,
		rules:     ruleStore,
		engine:    eng,
		scheduler: sched,
		table:     table,
		startedAt: startedAt,
	})
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info("starting server", "addr", addr)

	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
		}
	}()

	<-ctx.Done()
	stop()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}

	select {
	case <-sched.Stop().Done():
	case <-shutdownCtx.Done():
		log.Warn("scheduler jobs still running at shutdown deadline")
	}

	log.Info("server stopped")
	return nil
}

func buildNotifier(cfg *config.Config, log *slog.Logger) notify.Notifier {
	if !cfg.Notify.Discord.Enabled {
		log.Warn("no notification backend configured, matches are logged only")
		return notify.NewNoOpNotifier(log)
	}
	log.Info("discord notifications enabled", "username", cfg.Notify.Discord.Username)
	return notify.NewDiscordNotifier(cfg.Notify.Discord.WebhookURL,
		notify.WithUsername(cfg.Notify.Discord.Username),
		notify.WithHTTPClient(&http.Client{Timeout: cfg.Notify.Discord.Timeout}),
	)
}

type routerDeps struct {
	log       *slog.Logger
	store     *store.PostgresStore
	feed      *feed.Client
	rules     *rules.Store
	engine    *engine.Engine
	scheduler *engine.Scheduler
	table     *charm.Table
	startedAt time.Time
}

// newRouter assembles the echo shell (probes, metrics, middleware) and
// registers the domain API through huma under /api/v1.
func newRouter(d routerDeps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestLog(d.log))
	e.Use(middleware.Recovery(d.log))
	e.Use(middleware.Metrics())

	probes := handlers.NewHealthHandler(d.store)
	e.GET("/healthz", probes.Healthz)
	e.GET("/readyz", probes.Readyz)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := humaecho.New(e, handlers.NewAPIConfig(Version))

	handlers.RegisterHealthRoutes(api,
		handlers.NewServiceHealthHandler(d.startedAt, d.feed, d.rules, d.engine))
	handlers.RegisterSettingsRoutes(api, handlers.NewSettingsHandler(d.store, d.rules))
	handlers.RegisterTargetRoutes(api, handlers.NewTargetsHandler(d.store, d.rules))
	handlers.RegisterCharmRoutes(api, handlers.NewCharmsHandler(d.table))
	handlers.RegisterNotificationRoutes(api, handlers.NewNotificationsHandler(d.store))
	handlers.RegisterJobRoutes(api, handlers.NewJobsHandler(d.store))
	handlers.RegisterStatsRoutes(api, handlers.NewStatsHandler(d.engine, d.rules))
	handlers.RegisterTriggerRoutes(api, handlers.NewTriggerHandler(d.scheduler, d.log))

	return e
}
