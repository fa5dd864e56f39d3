package application

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"buybox_tracker/internal/config"
	"buybox_tracker/internal/domain/entity"
	"buybox_tracker/internal/domain/service/tracker"
	"buybox_tracker/internal/infrastructure/marketplace"
	"buybox_tracker/internal/infrastructure/notifier"
	"buybox_tracker/internal/infrastructure/persistence"
	"buybox_tracker/internal/server"
	"buybox_tracker/internal/worker"
	"buybox_tracker/pkg/application/connectors"
	"buybox_tracker/pkg/application/modules"
	"buybox_tracker/pkg/logx"
	"buybox_tracker/pkg/metrics"
	"buybox_tracker/pkg/middlewarex"
)

func Run(ctx context.Context, log *slog.Logger) error {
	// 1. Config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config.Load: %w", err)
	}

	// 2. Database
	pg := &connectors.Postgres{
		DSN:             cfg.Postgres.DSN,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
	}
	db := pg.Client(ctx)
	defer pg.Close(ctx)

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("db.PingContext: %w", err)
	}
	log.Info("database connection OK")

	// 3. Repositories
	subjectRepo := persistence.NewSubjectRepository(db)
	sellerRepo := persistence.NewSellerRepository(db)
	itemRepo := persistence.NewTrackedItemRepository(db)
	offerStateRepo := persistence.NewOfferStateRepository(db)
	saleEventRepo := persistence.NewSaleEventRepository(db)

	// 4. Metrics
	registry := prometheus.NewRegistry()
	trackerMetrics := metrics.NewTracker(registry)

	// 5. Marketplace provider
	provider := marketplace.NewClient(cfg.Provider)

	// 6. Notification pipeline
	events := make(chan entity.Event, cfg.Tracker.EventBuffer)

	webhookSink := notifier.NewWebhook(
		&http.Client{Timeout: cfg.Notifier.WebhookTimeout},
		subjectRepo,
	)

	sinks := []notifier.Sink{webhookSink}

	if cfg.Notifier.TelegramToken != "" {
		telegramSink, err := notifier.NewTelegramBot(cfg.Notifier.TelegramToken, cfg.Notifier.TelegramChatID)
		if err != nil {
			return fmt.Errorf("notifier.NewTelegramBot: %w", err)
		}

		if err := telegramSink.SendText(ctx, "buybox tracker starting"); err != nil {
			log.Warn("telegram startup check failed", logx.Error(err))
		}

		sinks = append(sinks, telegramSink)
	}

	dispatcher := notifier.NewDispatcher(sinks...)

	// 7. Diff engine and scheduler
	engine := tracker.NewService(provider, offerStateRepo, saleEventRepo, sellerRepo, events).
		WithSellerCacheTTL(cfg.Tracker.SellerCacheTTL).
		WithMetrics(trackerMetrics)

	scheduler := worker.NewScheduler(
		engine,
		subjectRepo,
		itemRepo,
		cfg.Tracker.Period,
		cfg.Tracker.ItemDelay,
	).WithMetrics(trackerMetrics)

	// 8. HTTP API
	srv := server.NewServer(
		server.NewTrackerServer(scheduler),
		server.NewSubjectServer(subjectRepo, sellerRepo, itemRepo, saleEventRepo, engine),
	)

	masker := logx.NewSensitiveDataMasker()

	router := chi.NewRouter()
	router.Use(
		middlewarex.Recovery,
		middlewarex.TraceID,
		middlewarex.Logger,
		middlewarex.RequestLogging(masker, cfg.Server.LogFieldMaxLen),
		middlewarex.ResponseLogging(masker, cfg.Server.LogFieldMaxLen),
	)
	srv.RegisterRoutes(router)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := dispatcher.Run(ctx, events); err != nil && ctx.Err() == nil {
			return fmt.Errorf("dispatcher.Run: %w", err)
		}
		return nil
	})

	modules.HTTPServer{ShutdownTimeout: cfg.Server.ShutdownTimeout}.Run(ctx, g, &http.Server{
		Addr:    cfg.Server.ListenAddress,
		Handler: router,
	})

	modules.ProbeServer{
		ListenAddress: cfg.Server.ProbeListenAddress,
		AppName:       cfg.App.Name,
		AppVersion:    cfg.App.Version,
	}.Run(ctx, g)

	modules.MetricServer{
		ListenAddress: cfg.Server.MetricsListenAddress,
		Gatherer:      registry,
	}.Run(ctx, g)

	if cfg.Tracker.Autostart {
		scheduler.Start(ctx)
	}
	defer scheduler.Stop()

	log.Info("application started",
		slog.String("address", cfg.Server.ListenAddress),
		slog.Bool("tracker_autostart", cfg.Tracker.Autostart),
	)

	return g.Wait()
}
