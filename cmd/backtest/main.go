package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"CoinSentinel/internal/backtest"
	"CoinSentinel/internal/collector"
	"CoinSentinel/internal/config"
	"CoinSentinel/internal/holdings"
	"CoinSentinel/internal/logger"
	"CoinSentinel/internal/model"
	"CoinSentinel/internal/notifier"
	"CoinSentinel/internal/recorder"
	"CoinSentinel/internal/strategy"
)

func main() {
	cfgPath := flag.String("config", "configs/config.yaml", "path to the config file")
	symbols := flag.String("symbols", "", "comma separated tickers, defaults to the stored coin list")
	limit := flag.Int("limit", 0, "backtest at most this many coins, 0 for all")
	notify := flag.Bool("notify", false, "send a summary through Telegram")
	flag.Parse()

	if err := logger.Init(os.Getenv("LOG_LEVEL"), "console"); err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		logger.Fatal("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("config validation: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tickers, err := resolveSymbols(ctx, cfg, *symbols)
	if err != nil {
		logger.Fatal("resolve symbols: %v", err)
	}
	if *limit > 0 && len(tickers) > *limit {
		tickers = tickers[:*limit]
	}
	if len(tickers) == 0 {
		logger.Fatal("no symbols to backtest")
	}

	fetcher, err := collector.NewFetcher(cfg.Exchange.Source, cfg.Exchange.BaseURL, cfg.Exchange.APIKey, cfg.Proxy)
	if err != nil {
		logger.Fatal("init fetcher: %v", err)
	}
	col := collector.NewCollector(fetcher)
	col.Pause = cfg.Exchange.RequestPause.Std()
	col.LookbackDays = cfg.Exchange.LookbackDays
	col.Policy.MaxAttempts = cfg.Exchange.MaxRetries
	col.Policy.BaseDelay = cfg.Exchange.RetryBaseDelay.Std()

	started := time.Now()
	logger.Info("backtesting %d coins on %s", len(tickers), fetcher.Name())
	candles, err := col.CollectAll(ctx, tickers)
	if err != nil {
		logger.Fatal("collect candles: %v", err)
	}
	if len(candles) == 0 {
		logger.Fatal("no candles fetched")
	}

	results := strategy.Analyze(candles)
	report := backtest.Evaluate(backtest.EntriesFromAnalysis(results), decimal.NewFromFloat(cfg.Backtest.Notional))

	if err := backtest.WriteTable(os.Stdout, report); err != nil {
		logger.Fatal("write report: %v", err)
	}
	yesterday := model.Yesterday(time.Now())
	buys := backtest.BuysOn(report, yesterday)
	if len(buys) == 0 {
		fmt.Println("Coins to buy today: nothing to buy today, chill :)")
	} else {
		syms := make([]string, len(buys))
		for i, t := range buys {
			syms[i] = t.Symbol
		}
		fmt.Printf("Coins to buy today: %s\n", strings.Join(syms, ", "))
	}

	if cfg.Database.SQLitePath != "" {
		record(cfg.Database.SQLitePath, started, len(candles), len(results), report)
	}

	if *notify {
		if !cfg.Telegram.Enabled {
			logger.Warn("telegram disabled, skipping summary")
			return
		}
		tn, err := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatIDs, cfg.Proxy)
		if err != nil {
			logger.Fatal("init telegram: %v", err)
		}
		if err := tn.Send(ctx, notifier.FormatBacktestSummary(report, yesterday)); err != nil {
			logger.Error("send summary: %v", err)
		}
	}
}

// resolveSymbols parses the -symbols flag or falls back to the stored coin list.
func resolveSymbols(ctx context.Context, cfg *config.Config, flagValue string) ([]string, error) {
	if flagValue != "" {
		var out []string
		for _, s := range strings.Split(flagValue, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, strings.ToUpper(s))
			}
		}
		return out, nil
	}

	store, closeStore, err := holdings.Open(cfg)
	if err != nil {
		return nil, err
	}
	defer closeStore()
	coins, err := holdings.NewManager(store).Coins(ctx)
	if err != nil {
		return nil, err
	}
	return coins.Tickers(), nil
}

func record(path string, started time.Time, fetched, signals int, report backtest.Report) {
	rec, err := recorder.NewSQLiteRecorder(path)
	if err != nil {
		logger.Warn("open sqlite recorder: %v", err)
		return
	}
	defer rec.Close()

	run := recorder.NewRun("backtest", started)
	run.CoinsFetched = fetched
	run.Signals = signals
	for _, t := range report.Trades {
		if t.Action == model.ActionBuy {
			run.Buys++
		} else {
			run.Sells++
		}
	}
	run.Finish(time.Now(), nil)

	if err := rec.RecordRun(run); err != nil {
		logger.Warn("record backtest run: %v", err)
	}
	if err := rec.RecordBacktest(run.ID, report); err != nil {
		logger.Warn("record backtest trades: %v", err)
	}
	logger.Info("backtest %s recorded to %s", run.ID, path)
}
