package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/nourishhq/dietitian-platform/internal/api/router"
	"github.com/nourishhq/dietitian-platform/internal/availability"
	"github.com/nourishhq/dietitian-platform/internal/bookings"
	appconfig "github.com/nourishhq/dietitian-platform/internal/config"
	"github.com/nourishhq/dietitian-platform/internal/events"
	"github.com/nourishhq/dietitian-platform/internal/eventtypes"
	"github.com/nourishhq/dietitian-platform/internal/mealplans"
	"github.com/nourishhq/dietitian-platform/internal/notify"
	"github.com/nourishhq/dietitian-platform/internal/observability/metrics"
	"github.com/nourishhq/dietitian-platform/internal/outofoffice"
	"github.com/nourishhq/dietitian-platform/internal/realtime"
	"github.com/nourishhq/dietitian-platform/internal/sessionrequests"
	"github.com/nourishhq/dietitian-platform/internal/slots"
	"github.com/nourishhq/dietitian-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting dietitian-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create pgx pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	redisOpts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
	if cfg.RedisTLS {
		redisOpts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	schedMetrics := metrics.NewSchedulingMetrics(registry)

	// Stores
	availabilityStore := availability.NewStore(pool)
	oooStore := outofoffice.NewStore(pool)
	eventTypeStore := eventtypes.NewStore(pool)
	bookingRepo := bookings.NewRepository(pool)
	requestRepo := sessionrequests.NewRepository(pool)
	mealPlanStore := mealplans.NewStore(pool)
	outbox := events.NewOutboxStore(pool)

	// Notifications
	var emailSender notify.EmailSender = notify.NewStubEmailSender(logger)
	if sg := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger); sg != nil {
		emailSender = sg
	}
	notifier := notify.NewService(emailSender, logger)

	// Live updates: outbox -> redis -> hub
	recorder := events.NewRecorder(outbox, logger)
	snapshots := snapshotSource{requests: requestRepo, plans: mealPlanStore}
	hub := realtime.NewHub(rdb, snapshots, cfg.KeepaliveInterval, logger)
	deliverer := events.NewDeliverer(outbox, realtime.NewRedisBridge(rdb), logger)
	go hub.Run(ctx)
	go deliverer.Start(ctx)

	// Services and handlers
	requestSvc := sessionrequests.NewService(requestRepo, eventTypeStore, logger).
		WithMetrics(schedMetrics).
		WithNotifier(notifier).
		WithPublisher(recorder)
	generator := slots.NewGenerator(availabilityStore, oooStore, bookingRepo, cfg.SlotLeadTime, logger)

	routerCfg := &router.Config{
		Logger:              logger,
		AuthSecret:          cfg.AuthJWTSecret,
		AvailabilityHandler: availability.NewHandler(availabilityStore, logger),
		OutOfOfficeHandler:  outofoffice.NewHandler(oooStore, logger),
		EventTypesHandler:   eventtypes.NewHandler(eventTypeStore, logger),
		SlotsHandler:        slots.NewHandler(generator, eventTypeStore, cfg.DefaultTimezone, schedMetrics, logger),
		RequestsHandler:     sessionrequests.NewHandler(requestSvc, logger),
		BookingsHandler:     bookings.NewHandler(bookingRepo, logger),
		MealPlansHandler:    mealplans.NewHandler(mealPlanStore, logger),
		Hub:                 hub,
		MetricsHandler:      promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
		RateLimitPerSecond:  10,
		RateLimitBurst:      30,
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router.New(routerCfg),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

// snapshotSource builds the live-update payload for one audience. Client
// audiences are email addresses; dietitian audiences are opaque ids.
type snapshotSource struct {
	requests *sessionrequests.Repository
	plans    *mealplans.Store
}

func (s snapshotSource) Snapshot(ctx context.Context, audience string) (any, error) {
	if strings.Contains(audience, "@") {
		reqs, err := s.requests.ListForClient(ctx, audience)
		if err != nil {
			return nil, err
		}
		plans, err := s.plans.ListForClient(ctx, audience)
		if err != nil {
			return nil, err
		}
		return map[string]any{"requests": reqs, "mealPlans": plans}, nil
	}
	reqs, err := s.requests.ListForDietitian(ctx, audience)
	if err != nil {
		return nil, err
	}
	return map[string]any{"requests": reqs}, nil
}
