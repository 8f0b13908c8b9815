package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gobwas/ws"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Laxmikant2002/trading-demo/cmd/server/internal/api"
	"github.com/Laxmikant2002/trading-demo/cmd/server/internal/export"
	"github.com/Laxmikant2002/trading-demo/cmd/server/internal/gateway"
	"github.com/Laxmikant2002/trading-demo/cmd/server/internal/hub"
	"github.com/Laxmikant2002/trading-demo/cmd/server/internal/marketdata"
	"github.com/Laxmikant2002/trading-demo/cmd/server/internal/notification"
	"github.com/Laxmikant2002/trading-demo/cmd/server/internal/repository"
	"github.com/Laxmikant2002/trading-demo/cmd/server/internal/trading"
	"github.com/Laxmikant2002/trading-demo/pkg/config"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, err := config.NewLogger(cfg.Logger, cfg.App.Env)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Storage
	db, err := repository.Open(cfg.Postgres, nil)
	if err != nil {
		logger.Fatal("Failed to connect to Postgres", zap.Error(err))
	}
	if err := repository.AutoMigrate(db); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}

	quoteStore := repository.NewQuoteStore(db)
	notifStore := repository.NewNotificationStore(db)
	userStore := repository.NewUserStore(db)
	alertStore := repository.NewAlertStore(db)

	cache := marketdata.NewCache(rdb, cfg.Scheduler.CacheTTL)

	// Fan-out
	wsHub := hub.NewHub(logger)
	feed := marketdata.NewPriceFeed(cache, wsHub, logger)
	go feed.Run(ctx)

	// Notifications
	var mailer notification.Mailer
	if cfg.Email.APIKey != "" {
		mailer = notification.NewHTTPMailer(cfg.Email.APIURL, cfg.Email.APIKey, cfg.Email.From, nil)
	} else {
		mailer = notification.LogMailer{Logger: logger}
	}
	notifSvc := notification.NewService(userStore, notifStore, wsHub, mailer, cfg.Notification.CleanupDays, logger)

	// Market data pipeline
	fetcher := marketdata.NewHTTPFetcher(cfg.Market.BaseURL, cfg.Market.APIKey, &http.Client{Timeout: cfg.Market.Timeout}, logger)
	evaluator := marketdata.NewAlertEvaluator(alertStore, notifSvc, logger)

	var exporter marketdata.Exporter
	var tickExporter *export.TickExporter
	if cfg.Kafka.Enabled {
		tickExporter = export.NewTickExporter(export.NewKafkaWriter(cfg.Kafka, logger), logger)
		exporter = tickExporter
	}

	marketSvc := marketdata.NewService(
		fetcher,
		quoteStore,
		cache,
		evaluator,
		exporter,
		cfg.Market.Symbols,
		cfg.Scheduler.RetentionDays,
		logger,
	)

	heartbeat := hub.NewHeartbeat(wsHub, cache, marketSvc.Symbols(), cfg.Scheduler.HeartbeatInterval, logger)
	go heartbeat.Run(ctx)

	scheduler := marketdata.NewScheduler(
		marketSvc,
		cfg.Scheduler.RefreshInterval,
		cfg.Scheduler.CleanupHour,
		logger,
		notifSvc.CleanupOld,
	)
	go scheduler.Run(ctx)

	// Trading
	engine := trading.NewEngineClient(cfg.Engine.BaseURL, &http.Client{Timeout: cfg.Engine.Timeout})
	health := trading.NewHealthMonitor(notifSvc, cfg.Notification.LowBalanceThreshold, logger)
	tradeSvc := trading.NewService(engine, notifSvc, wsHub, health, logger)

	// HTTP surface
	wsHandler := gateway.NewHandler(wsHub, cache, marketSvc.Symbols(), logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, _, _, err := ws.UpgradeHTTP(r, w)
		if err != nil {
			logger.Warn("Websocket upgrade failed", zap.Error(err))
			return
		}
		client := gateway.NewClient(conn, wsHub, wsHandler, logger)
		client.Start()
	})
	api.NewHandler(cache, marketSvc.Symbols(), notifSvc, tradeSvc, alertStore, logger).Register(mux)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := &http.Server{Addr: cfg.App.Port, Handler: mux}

	go func() {
		logger.Info("Server started", zap.String("port", cfg.App.Port), zap.Strings("symbols", marketSvc.Symbols()))
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Fatal("HTTP error", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info("Shutdown signal received")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown error", zap.Error(err))
	}

	if tickExporter != nil {
		if err := tickExporter.Close(); err != nil {
			logger.Error("Error closing Kafka writer", zap.Error(err))
		}
	}
	_ = rdb.Close()

	logger.Info("Shutdown complete")
}
