package holdings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"CoinSentinel/internal/collector"
	"CoinSentinel/internal/logger"
	"CoinSentinel/internal/model"
)

// DefaultExcludedKeywords filters stablecoins and wrapped or staked derivatives by symbol substring.
var DefaultExcludedKeywords = []string{
	"wbtc", "usd", "usdt", "usdc", "dai", "busd", "tusd",
	"husd", "zusd", "usdp", "usdn", "steth", "bnsol", "wbeth", "weeth", "weth", "usds", "cbbtc",
}

// UniverseSource lists candidate coins ranked by market cap.
type UniverseSource interface {
	FetchTopCoins(ctx context.Context, perPage int) ([]collector.MarketCoin, error)
}

// CandleChecker confirms that candles can be fetched for a coin.
type CandleChecker interface {
	Fetch(ctx context.Context, symbol string, start, end time.Time) ([]model.Candle, error)
	Window(now time.Time) (start, end time.Time)
}

// Refresher rebuilds the tracked coin universe.
type Refresher struct {
	Manager  *Manager
	Source   UniverseSource
	Checker  CandleChecker
	PerPage  int
	MaxCoins int
	Excluded []string
	Pause    time.Duration
	Now      func() time.Time
}

// NewRefresher creates a Refresher with the default limits.
func NewRefresher(m *Manager, source UniverseSource, checker CandleChecker) *Refresher {
	return &Refresher{
		Manager:  m,
		Source:   source,
		Checker:  checker,
		PerPage:  50,
		MaxCoins: 20,
		Excluded: DefaultExcludedKeywords,
		Pause:    time.Second,
		Now:      time.Now,
	}
}

// Excluded reports whether symbol contains one of the keywords.
func Excluded(symbol string, keywords []string) bool {
	s := strings.ToLower(symbol)
	for _, k := range keywords {
		if k != "" && strings.Contains(s, strings.ToLower(k)) {
			return true
		}
	}
	return false
}

// Refresh replaces the coin list with the top coins that have candle data.
// Bought flags are carried over and held coins outside the new universe are kept.
func (r *Refresher) Refresh(ctx context.Context) (model.CoinsDataMap, error) {
	existing, err := r.Manager.Coins(ctx)
	if err != nil {
		return nil, err
	}

	candidates, err := r.Source.FetchTopCoins(ctx, r.PerPage)
	if err != nil {
		return nil, fmt.Errorf("fetch coin universe: %w", err)
	}

	now := time.Now()
	if r.Now != nil {
		now = r.Now()
	}
	start, end := r.Checker.Window(now)

	next := model.CoinsDataMap{}
	checked := 0
	for _, coin := range candidates {
		if len(next) >= r.MaxCoins {
			break
		}
		if Excluded(coin.Symbol, r.Excluded) {
			logger.Debug("skipping excluded coin %s", coin.Symbol)
			continue
		}

		if checked > 0 && r.Pause > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(r.Pause):
			}
		}
		checked++

		candles, err := r.Checker.Fetch(ctx, strings.ToUpper(coin.Symbol), start, end)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if errors.Is(err, collector.ErrNotFound) {
				logger.Info("%s not listed on the exchange, skipping", coin.Symbol)
			} else {
				logger.Warn("check candles for %s: %v", coin.Symbol, err)
			}
			continue
		}
		if len(candles) == 0 {
			logger.Info("%s has no recent candles, skipping", coin.Symbol)
			continue
		}

		key := model.Key(coin.Symbol)
		next[key] = model.CoinRecord{
			ID:            coin.ID,
			Symbol:        key,
			Name:          coin.Name,
			MarketCap:     coin.MarketCap,
			MarketCapRank: coin.MarketCapRank,
			ATH:           coin.ATH,
			Bought:        existing.IsHeld(key),
		}
	}

	for key, c := range existing.Held() {
		if _, ok := next[key]; ok {
			continue
		}
		if c.ID == "" {
			c.ID = key
		}
		if c.Name == "" {
			c.Name = key
		}
		c.Symbol = key
		next[key] = c
	}

	if err := r.Manager.ReplaceCoins(ctx, next); err != nil {
		return nil, err
	}
	logger.Info("coin universe refreshed: %d coins, %d held", len(next), len(next.Held()))
	return next, nil
}
