package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"CoinSentinel/internal/api"
	"CoinSentinel/internal/collector"
	"CoinSentinel/internal/config"
	"CoinSentinel/internal/holdings"
	"CoinSentinel/internal/logger"
	"CoinSentinel/internal/metrics"
	"CoinSentinel/internal/notifier"
	"CoinSentinel/internal/recorder"
	"CoinSentinel/internal/scheduler"
)

func main() {
	os.Exit(run())
}

// run wires the bot and blocks until shutdown. Failures after the store is open
// return a non-zero code so deferred cleanup still runs.
func run() int {
	if err := logger.Init(os.Getenv("LOG_LEVEL"), "console"); err != nil {
		panic(err)
	}

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Fatal("load config: %v", err)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		logger.Fatal("init logger: %v", err)
	}
	defer logger.Sync()
	logger.Info("CoinSentinel starting...")

	if err := cfg.Validate(); err != nil {
		logger.Fatal("config validation: %v", err)
	}

	m := metrics.NewMetrics()

	// Init fetcher
	fetcher, err := collector.NewFetcher(cfg.Exchange.Source, cfg.Exchange.BaseURL, cfg.Exchange.APIKey, cfg.Proxy)
	if err != nil {
		logger.Fatal("init fetcher: %v", err)
	}
	logger.Info("data source: %s", fetcher.Name())

	col := collector.NewCollector(fetcher)
	col.Pause = cfg.Exchange.RequestPause.Std()
	col.LookbackDays = cfg.Exchange.LookbackDays
	col.Policy.MaxAttempts = cfg.Exchange.MaxRetries
	col.Policy.BaseDelay = cfg.Exchange.RetryBaseDelay.Std()
	col.Metrics = m

	// Init holdings store
	store, closeStore, err := holdings.Open(cfg)
	if err != nil {
		logger.Fatal("init %s store: %v", cfg.Storage.Backend, err)
	}
	defer closeStore()
	logger.Info("holdings store: %s", store.Name())
	hm := holdings.NewManager(store)

	refresher := holdings.NewRefresher(hm, collector.NewCoinGeckoClient(cfg.CoinGecko.BaseURL, cfg.CoinGecko.APIKey, cfg.Proxy), col)
	refresher.PerPage = cfg.CoinGecko.PerPage
	refresher.MaxCoins = cfg.CoinGecko.MaxCoins
	if len(cfg.CoinGecko.ExcludedKeywords) > 0 {
		refresher.Excluded = cfg.CoinGecko.ExcludedKeywords
	}

	// Init notifier
	var n notifier.Notifier = notifier.LogNotifier{}
	var tn *notifier.TelegramNotifier
	if cfg.Telegram.Enabled {
		tn, err = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatIDs, cfg.Proxy)
		if err != nil {
			logger.Error("init telegram: %v", err)
			return 1
		}
		n = tn
	} else {
		logger.Warn("telegram disabled, notifications go to the log")
	}

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			logger.Warn("init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if coins, err := hm.Coins(ctx); err != nil {
		logger.Warn("load coin list: %v", err)
	} else {
		m.SetHoldings(len(coins), len(coins.Held()))
		if len(coins) == 0 {
			logger.Warn("coin list is empty, run /refresh or set RUN_REFRESH_ON_START=true")
		}
	}

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, col, hm, n, rec)
	sched.Refresher = refresher
	sched.Metrics = m

	if os.Getenv("RUN_ONCE") == "true" {
		logger.Info("RUN_ONCE enabled, executing daily task and exiting")
		if _, err := sched.RunDaily(ctx); err != nil {
			logger.Error("daily run: %v", err)
			return 1
		}
		return 0
	}

	if err := sched.RegisterAll(cfg.Schedule.DailyCron, cfg.Schedule.RefreshCron); err != nil {
		logger.Error("register cron tasks: %v", err)
		return 1
	}
	sched.Start()
	defer sched.Stop()

	// HTTP status surface
	if cfg.HTTP.ListenAddr != "" {
		srv := api.NewServer(cfg.HTTP.ListenAddr, hm, rec, m)
		srv.Start()
		defer func() {
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			if err := srv.Stop(shutdownCtx); err != nil {
				logger.Warn("http shutdown: %v", err)
			}
		}()
	}

	// Start Telegram polling
	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		logger.Info("telegram polling started")
	}

	if os.Getenv("RUN_REFRESH_ON_START") == "true" {
		logger.Info("RUN_REFRESH_ON_START enabled, refreshing coin universe now")
		if _, err := sched.RunRefresh(ctx); err != nil {
			logger.Error("startup refresh: %v", err)
		}
	}
	if os.Getenv("RUN_ON_START") == "true" {
		logger.Info("RUN_ON_START enabled, executing daily task now")
		go sched.RunDaily(ctx)
	}

	logger.Info("CoinSentinel is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutdown signal received, stopping...")
	cancel()
	logger.Info("CoinSentinel stopped")
	return 0
}
