package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"CoinSentinel/internal/holdings"
	"CoinSentinel/internal/logger"
	"CoinSentinel/internal/metrics"
	"CoinSentinel/internal/model"
	"CoinSentinel/internal/notifier"
	"CoinSentinel/internal/recorder"
	"CoinSentinel/internal/strategy"
)

// Job names used in run records and metrics.
const (
	JobDaily   = "daily"
	JobRefresh = "refresh"
)

var (
	// ErrBusy is returned when a run is requested while another one is in progress.
	ErrBusy = errors.New("another run is in progress")
	// ErrNoCandles is returned when no coin produced any candles.
	ErrNoCandles = errors.New("no candles fetched")
	// ErrEmptyUniverse is returned when the stored coin list is empty.
	ErrEmptyUniverse = errors.New("coin list is empty")
)

// CandleCollector fetches daily candles for a set of coins.
type CandleCollector interface {
	CollectAll(ctx context.Context, symbols []string) (map[string][]model.Candle, error)
}

// Scheduler manages the cron tasks and the daily signal pipeline.
type Scheduler struct {
	Cron      *cron.Cron
	Collector CandleCollector
	Holdings  *holdings.Manager
	Refresher *holdings.Refresher // nil disables universe refresh
	Notifier  notifier.Notifier
	Recorder  recorder.Recorder
	Metrics   *metrics.Metrics
	Ctx       context.Context
	Now       func() time.Time

	runMu sync.Mutex
}

// NewScheduler creates a new Scheduler. Cron expressions include seconds and are evaluated in UTC;
// a job that is still running when its next tick fires is skipped.
func NewScheduler(ctx context.Context, col CandleCollector, hm *holdings.Manager, n notifier.Notifier, rec recorder.Recorder) *Scheduler {
	cl := cronLogger{}
	return &Scheduler{
		Cron: cron.New(
			cron.WithSeconds(),
			cron.WithLocation(time.UTC),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		Collector: col,
		Holdings:  hm,
		Notifier:  n,
		Recorder:  rec,
		Ctx:       ctx,
		Now:       time.Now,
	}
}

// RegisterAll registers the daily pipeline and, when a refresher is set, the universe refresh.
func (s *Scheduler) RegisterAll(dailyCron, refreshCron string) error {
	if _, err := s.Cron.AddFunc(dailyCron, func() { s.RunDaily(s.Ctx) }); err != nil {
		return fmt.Errorf("register daily task: %w", err)
	}
	if s.Refresher != nil && refreshCron != "" {
		if _, err := s.Cron.AddFunc(refreshCron, func() { s.RunRefresh(s.Ctx) }); err != nil {
			return fmt.Errorf("register refresh task: %w", err)
		}
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	logger.Info("scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	logger.Info("scheduler stopped")
}

func (s *Scheduler) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// RunDaily executes the signal pipeline: collect candles, generate signals, reconcile holdings,
// record the run and announce the transitions. A failed run is logged and recorded but not announced.
func (s *Scheduler) RunDaily(ctx context.Context) (model.Transitions, error) {
	if !s.runMu.TryLock() {
		logger.Warn("daily run skipped: %v", ErrBusy)
		return nil, ErrBusy
	}
	defer s.runMu.Unlock()

	now := s.now()
	run := recorder.NewRun(JobDaily, now)
	logger.Info("running daily task %s for %s", run.ID, model.Yesterday(now).Format("2006-01-02"))
	s.recordRun(run)

	transitions, err := s.daily(ctx, run, now)
	run.Finish(s.now(), err)
	s.recordRun(run)
	s.Metrics.ObserveRun(JobDaily, run.Status, run.FinishedAt.Sub(run.StartedAt).Seconds())

	if err != nil {
		logger.Error("daily run %s failed: %v", run.ID, err)
		return nil, err
	}

	s.Metrics.MarkSuccess(run.FinishedAt.Unix())
	s.trySend(ctx, notifier.FormatTransitions(transitions))
	logger.Info("daily run %s finished: %d buys, %d sells", run.ID, run.Buys, run.Sells)
	return transitions, nil
}

func (s *Scheduler) daily(ctx context.Context, run *recorder.RunRecord, now time.Time) (model.Transitions, error) {
	drift, err := s.Holdings.Verify(ctx)
	if err != nil {
		return nil, err
	}
	if len(drift) > 0 {
		logger.Warn("held coins document out of sync for %v, repairing", drift)
		if err := s.Holdings.RepairHeld(ctx); err != nil {
			return nil, err
		}
	}

	coins, err := s.Holdings.Coins(ctx)
	if err != nil {
		return nil, err
	}
	if len(coins) == 0 {
		return nil, ErrEmptyUniverse
	}

	candles, err := s.Collector.CollectAll(ctx, coins.Tickers())
	if err != nil {
		return nil, fmt.Errorf("collect candles: %w", err)
	}
	run.CoinsFetched = len(candles)
	if len(candles) == 0 {
		return nil, ErrNoCandles
	}

	results := strategy.Analyze(candles)
	run.Signals = len(results)

	transitions, err := s.Holdings.Run(ctx, results, now)
	if err != nil {
		return nil, err
	}
	run.Buys = transitions.Count(model.ActionBuy)
	run.Sells = transitions.Count(model.ActionSell)

	for _, sym := range transitions.Symbols() {
		s.Metrics.Transition(string(transitions[sym]))
	}
	if updated, err := s.Holdings.Coins(ctx); err == nil {
		s.Metrics.SetHoldings(len(updated), len(updated.Held()))
	}

	if len(transitions) > 0 {
		if err := s.Recorder.RecordTransitions(run.ID, model.Yesterday(now), transitions, yesterdayPrices(results, now)); err != nil {
			logger.Error("record transitions: %v", err)
		}
	}
	return transitions, nil
}

// yesterdayPrices maps coin keys to their closing price on the reconciled day.
func yesterdayPrices(results []model.AnalysisResult, now time.Time) map[string]float64 {
	y := model.Yesterday(now)
	prices := make(map[string]float64)
	for _, r := range results {
		if model.Day(r.Date).Equal(y) {
			prices[model.Key(r.Symbol)] = r.Price
		}
	}
	return prices
}

// RunRefresh rebuilds the tracked coin universe.
func (s *Scheduler) RunRefresh(ctx context.Context) (model.CoinsDataMap, error) {
	if s.Refresher == nil {
		return nil, fmt.Errorf("coin refresh is not configured")
	}
	if !s.runMu.TryLock() {
		logger.Warn("refresh skipped: %v", ErrBusy)
		return nil, ErrBusy
	}
	defer s.runMu.Unlock()

	run := recorder.NewRun(JobRefresh, s.now())
	logger.Info("running coin refresh %s", run.ID)

	coins, err := s.Refresher.Refresh(ctx)
	if err == nil {
		run.CoinsFetched = len(coins)
	}
	run.Finish(s.now(), err)
	s.recordRun(run)
	s.Metrics.ObserveRun(JobRefresh, run.Status, run.FinishedAt.Sub(run.StartedAt).Seconds())

	if err != nil {
		logger.Error("coin refresh %s failed: %v", run.ID, err)
		return nil, err
	}
	s.Metrics.SetHoldings(len(coins), len(coins.Held()))
	return coins, nil
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	switch command {
	case "/run":
		if _, err := s.RunDaily(ctx); err != nil {
			return fmt.Sprintf("❌ Run failed: %v", err)
		}
		return ""
	case "/holdings":
		coins, err := s.Holdings.Coins(ctx)
		if err != nil {
			return fmt.Sprintf("❌ Could not load holdings: %v", err)
		}
		return notifier.FormatHoldings(coins, s.now())
	case "/refresh":
		coins, err := s.RunRefresh(ctx)
		if err != nil {
			return fmt.Sprintf("❌ Refresh failed: %v", err)
		}
		return fmt.Sprintf("🔄 Coin universe refreshed: %d coins tracked, %d held", len(coins), len(coins.Held()))
	default:
		return notifier.FormatHelp()
	}
}

func (s *Scheduler) recordRun(run *recorder.RunRecord) {
	if err := s.Recorder.RecordRun(run); err != nil {
		logger.Error("record run %s: %v", run.ID, err)
	}
}

func (s *Scheduler) trySend(ctx context.Context, text string) {
	if err := s.Notifier.Send(ctx, text); err != nil {
		s.Metrics.NotifyFailed()
		logger.Error("send notification: %v", err)
	}
}

// cronLogger routes cron's internal logging through the package logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Debug("cron: %s %v", msg, keysAndValues)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Error("cron: %s: %v %v", msg, err, keysAndValues)
}
