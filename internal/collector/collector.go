package collector

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"CoinSentinel/internal/logger"
	"CoinSentinel/internal/metrics"
	"CoinSentinel/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	mu      sync.Mutex
	Candles map[string][]model.Candle // keyed by upper-case symbol
	Errors  map[string][]error        // returned in order before Candles is served
	Calls   map[string]int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailyCandles(_ context.Context, symbol string, start, end time.Time) ([]model.Candle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	symbol = strings.ToUpper(symbol)
	if m.Calls == nil {
		m.Calls = map[string]int{}
	}
	m.Calls[symbol]++

	if errs := m.Errors[symbol]; len(errs) > 0 {
		m.Errors[symbol] = errs[1:]
		return nil, errs[0]
	}
	candles, ok := m.Candles[symbol]
	if !ok {
		return nil, fmt.Errorf("mock %s: %w", symbol, ErrNotFound)
	}
	out := make([]model.Candle, 0, len(candles))
	for _, c := range candles {
		if c.OpenTime.Before(start) || c.OpenTime.After(end) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// GenerateMockCandles builds count daily candles ending on last, walking linearly from base by step.
func GenerateMockCandles(last time.Time, count int, base, step float64) []model.Candle {
	last = model.Day(last)
	candles := make([]model.Candle, count)
	for i := 0; i < count; i++ {
		p := base + float64(i)*step
		candles[i] = model.Candle{
			OpenTime: last.AddDate(0, 0, -(count - 1 - i)),
			Open:     p * 0.999,
			High:     p * 1.005,
			Low:      p * 0.995,
			Close:    p,
			Volume:   1000000,
		}
	}
	return candles
}

// Collector fetches daily candles for a list of coins, one at a time.
type Collector struct {
	Fetcher      Fetcher
	Policy       RetryPolicy
	Pause        time.Duration // wait between coins
	LookbackDays int
	Metrics      *metrics.Metrics
	Now          func() time.Time
}

// NewCollector creates a Collector with the default retry policy, a 2s pause and 180 days of history.
func NewCollector(fetcher Fetcher) *Collector {
	return &Collector{
		Fetcher:      fetcher,
		Policy:       DefaultRetryPolicy(),
		Pause:        2 * time.Second,
		LookbackDays: 180,
		Now:          time.Now,
	}
}

// Window returns the fetch window [yesterday - lookback, yesterday] for now.
func (c *Collector) Window(now time.Time) (start, end time.Time) {
	end = model.Yesterday(now)
	start = end.AddDate(0, 0, -c.LookbackDays)
	return start, end
}

// Fetch returns the candles for one symbol in [start, end], retrying rate-limit responses.
func (c *Collector) Fetch(ctx context.Context, symbol string, start, end time.Time) ([]model.Candle, error) {
	policy := c.Policy
	source := c.Fetcher.Name()
	policy.OnRetry = func(int, time.Duration, error) { c.Metrics.Retry(source) }

	candles, err := WithRetry(ctx, policy, func(ctx context.Context) ([]model.Candle, error) {
		return c.Fetcher.FetchDailyCandles(ctx, symbol, start, end)
	})
	if err != nil {
		c.Metrics.FetchError(source, errorReason(err))
		return nil, err
	}
	c.Metrics.Candles(len(candles))
	return candles, nil
}

// CollectAll fetches every symbol over the default window. Coins that fail are logged and left out.
// Returns an error only if ctx is cancelled.
func (c *Collector) CollectAll(ctx context.Context, symbols []string) (map[string][]model.Candle, error) {
	start, end := c.Window(c.now())
	out := make(map[string][]model.Candle, len(symbols))

	for i, sym := range symbols {
		if i > 0 && c.Pause > 0 {
			select {
			case <-ctx.Done():
				return out, ctx.Err()
			case <-time.After(c.Pause):
			}
		}
		if err := ctx.Err(); err != nil {
			return out, err
		}

		sym = strings.ToUpper(sym)
		candles, err := c.Fetch(ctx, sym, start, end)
		if err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			logger.Warn("fetch candles for %s from %s: %v", sym, c.Fetcher.Name(), err)
			continue
		}
		if len(candles) == 0 {
			logger.Warn("no candles for %s in %s..%s", sym, start.Format("2006-01-02"), end.Format("2006-01-02"))
			continue
		}
		out[sym] = candles
		logger.Debug("fetched %d candles for %s", len(candles), sym)
	}

	logger.Info("collected candles for %d/%d coins from %s", len(out), len(symbols), c.Fetcher.Name())
	return out, nil
}

func (c *Collector) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func errorReason(err error) string {
	switch {
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "other"
	}
}
