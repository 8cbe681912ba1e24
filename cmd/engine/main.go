package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"signal-systemv1/config"
	"signal-systemv1/internal/api"
	"signal-systemv1/internal/events"
	"signal-systemv1/internal/execution"
	"signal-systemv1/internal/feed"
	"signal-systemv1/internal/ledger"
	"signal-systemv1/internal/logger"
	"signal-systemv1/internal/metrics"
	"signal-systemv1/internal/model"
	"signal-systemv1/internal/notification"
	"signal-systemv1/internal/portfolio"
	"signal-systemv1/internal/strategy"
	"signal-systemv1/pkg/broker"
)

const signalRingCapacity = 1000

func main() {
	configPath := flag.String("config", ".", "directory containing config.yaml")
	apiAddr := flag.String("api-addr", ":8080", "control API listen address")
	flag.Parse()

	log := logger.Init("signal-engine", slog.LevelInfo)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("config load failed", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("shutdown signal received")
		cancel()
	}()

	m := metrics.New()
	health := metrics.NewHealthStatus()

	// Shared measurement state.
	led := ledger.New()
	quotes := portfolio.NewQuotes()

	// The simulated executor checks affordability against a balance
	// snapshot: the real broker account when one is configured, otherwise
	// a paper account funded on both sides of every product.
	var balances portfolio.BalanceProvider = portfolio.NewMemoryBalances(cfg.PaperFunds())

	// Live executor, only when broker credentials are configured.
	var live execution.OrderExecutor
	if cfg.LiveEnabled() {
		client := broker.New(broker.Config{
			RootURL:    cfg.Broker.BaseURL,
			APIKey:     cfg.Broker.APIKey,
			ClientCode: cfg.Broker.ClientCode,
			Password:   cfg.Broker.Password,
			TOTPSecret: cfg.Broker.TOTPSecret,
		})
		if err := client.Login(ctx); err != nil {
			log.Error("broker login failed", slog.Any("error", err))
			os.Exit(1)
		}
		live = execution.NewLiveExecutor(client, 10*time.Second, log)
		balances = client
		log.Info("live execution enabled", slog.String("broker", cfg.Broker.BaseURL))
	} else {
		log.Info("live execution disabled, no broker credentials")
	}
	sim := execution.NewSimExecutor(balances, quotes, 0.001)

	// Trade journal (SQLite). Optional: the engine runs without persistence.
	var journal *execution.Journal
	if cfg.Journal.SQLitePath != "" {
		journal, err = execution.NewJournal(cfg.Journal.SQLitePath)
		if err != nil {
			log.Warn("journal disabled", slog.Any("error", err))
			journal = nil
		} else {
			defer journal.Close()
			health.SetJournalOK(true)
		}
	}

	// Emission fan-out: in-memory ring for the API, optional Redis pubsub,
	// optional webhook alerts.
	ring := events.NewSignalRing(signalRingCapacity)
	ringSink := &events.RingSink{Ring: ring, OnEvict: m.SignalRingEvicted.Inc}
	sinks := events.MultiSink{ringSink}

	if cfg.Redis.Addr != "" {
		redisSink, err := events.NewRedisSink(events.RedisSinkConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
		}, log)
		if err != nil {
			log.Warn("redis sink disabled", slog.Any("error", err))
		} else {
			defer redisSink.Close()
			health.SetRedisConnected(true)
			sinks = append(sinks, redisSink)
		}
	}
	var notifier notification.Notifier = &notification.LogNotifier{Log: log}
	if cfg.Webhook.URL != "" {
		notifier = notification.NewWebhookNotifier(cfg.Webhook.URL)
	}
	alertSink := notification.NewSignalSink(notifier, log)
	defer alertSink.Close()
	sinks = append(sinks, alertSink)

	manager, err := strategy.NewManager(cfg.StrategyParams(), strategy.Deps{
		Sink:    sinks,
		Sim:     sim,
		Live:    live,
		Ledger:  led,
		Quotes:  quotes,
		Journal: journal,
		Metrics: m,
		Log:     log,
	})
	if err != nil {
		log.Error("strategy setup failed", slog.Any("error", err))
		os.Exit(1)
	}

	feedClient, err := feed.NewClient(feed.Config{
		URL:      cfg.Feed.URL,
		Products: cfg.ProductIDs(),
	}, log)
	if err != nil {
		log.Error("feed setup failed", slog.Any("error", err))
		os.Exit(1)
	}
	feedClient.OnReconnect = m.FeedReconnects.Inc
	feedClient.OnDrop = m.DroppedTicks.Inc

	// Metrics and health endpoint.
	go func() {
		if err := metrics.Serve(cfg.Metrics.Addr, health); err != nil && err != http.ErrServerClosed {
			log.Error("metrics server failed", slog.Any("error", err))
		}
	}()

	// Control API.
	ctl := &api.Server{Manager: manager, Ring: ring, Ledger: led, Quotes: quotes}
	apiSrv := &http.Server{Addr: *apiAddr, Handler: ctl.NewRouter()}
	go func() {
		log.Info("control api listening", slog.String("addr", *apiAddr))
		if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("control api failed", slog.Any("error", err))
		}
	}()

	// Feed → health bookkeeping → dispatch. The feed goroutine reconnects
	// forever; the forwarder closes the dispatch channel when it exits so
	// the manager loop drains cleanly.
	feedCh := make(chan model.Tick, cfg.Feed.BufferSize)
	tickCh := make(chan model.Tick, cfg.Feed.BufferSize)
	go func() {
		health.SetFeedConnected(true)
		defer health.SetFeedConnected(false)
		if err := feedClient.Run(ctx, feedCh); err != nil && ctx.Err() == nil {
			log.Error("feed terminated", slog.Any("error", err))
			cancel()
		}
	}()
	go func() {
		defer close(tickCh)
		for {
			select {
			case <-ctx.Done():
				return
			case tick := <-feedCh:
				health.SetLastTickTime(tick.TS)
				tickCh <- tick
			}
		}
	}()

	log.Info("engine running",
		slog.Any("products", cfg.Products),
		slog.String("feed", cfg.Feed.URL))

	manager.Run(ctx, tickCh)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	apiSrv.Shutdown(shutdownCtx)
	log.Info("engine stopped")
}
