package holdings

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"CoinSentinel/internal/collector"
	"CoinSentinel/internal/model"
)

type fakeUniverse struct {
	coins []collector.MarketCoin
}

func (f fakeUniverse) FetchTopCoins(_ context.Context, perPage int) ([]collector.MarketCoin, error) {
	if perPage < len(f.coins) {
		return f.coins[:perPage], nil
	}
	return f.coins, nil
}

func market(id, symbol string, rank int) collector.MarketCoin {
	mcap := float64(1000 - rank)
	return collector.MarketCoin{ID: id, Symbol: symbol, Name: strings.ToUpper(symbol), MarketCap: &mcap, MarketCapRank: &rank}
}

func TestExcluded(t *testing.T) {
	tests := []struct {
		symbol string
		want   bool
	}{
		{"btc", false},
		{"usdt", true},
		{"USDC", true},
		{"wbtc", true},
		{"weeth", true},
		{"sol", false},
		{"fdusd", true},
	}
	for _, tt := range tests {
		if got := Excluded(tt.symbol, DefaultExcludedKeywords); got != tt.want {
			t.Errorf("Excluded(%q) = %v, want %v", tt.symbol, got, tt.want)
		}
	}
}

func TestRefresh_BuildsUniverse(t *testing.T) {
	refNow := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	yesterday := model.Yesterday(refNow)

	fetcher := &collector.MockFetcher{
		Candles: map[string][]model.Candle{
			"BTC":  collector.GenerateMockCandles(yesterday, 10, 100, 1),
			"ETH":  collector.GenerateMockCandles(yesterday, 10, 10, 1),
			"SOL":  collector.GenerateMockCandles(yesterday, 10, 5, 1),
			"DOGE": collector.GenerateMockCandles(yesterday, 10, 1, 0.01),
		},
		Errors: map[string][]error{
			"SOL": {fmt.Errorf("mock: %w", collector.ErrRateLimited)},
		},
	}
	col := collector.NewCollector(fetcher)
	col.Policy = collector.RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond}

	store := &memStore{
		coins: model.CoinsDataMap{
			"eth":  {ID: "ethereum", Symbol: "eth", Name: "Ethereum", Bought: true},
			"link": {ID: "chainlink", Symbol: "link", Name: "Chainlink", Bought: true},
			"xrp":  {ID: "ripple", Symbol: "xrp", Name: "XRP"},
		},
	}
	r := NewRefresher(NewManager(store), fakeUniverse{coins: []collector.MarketCoin{
		market("bitcoin", "btc", 1),
		market("ethereum", "eth", 2),
		market("tether", "usdt", 3),
		market("ripple", "xrp", 4), // no candles
		market("solana", "sol", 5),
		market("dogecoin", "doge", 6),
	}}, col)
	r.Pause = 0
	r.MaxCoins = 3
	r.Now = func() time.Time { return refNow }

	got, err := r.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	want := []string{"btc", "eth", "link", "sol"}
	if syms := got.Symbols(); strings.Join(syms, ",") != strings.Join(want, ",") {
		t.Fatalf("universe = %v, want %v", syms, want)
	}
	if !got["eth"].Bought || got["btc"].Bought || got["sol"].Bought {
		t.Errorf("bought flags not preserved: %+v", got)
	}
	if !got["link"].Bought || got["link"].Name != "Chainlink" {
		t.Errorf("held coin outside universe should be kept: %+v", got["link"])
	}
	if got["btc"].MarketCapRank == nil || *got["btc"].MarketCapRank != 1 {
		t.Errorf("market data not copied: %+v", got["btc"])
	}
	if fetcher.Calls["USDT"] != 0 {
		t.Error("excluded coin should not be checked")
	}
	if fetcher.Calls["DOGE"] != 0 {
		t.Error("checks should stop once the cap is reached")
	}
	if h := store.held.Symbols(); strings.Join(h, ",") != "eth,link" {
		t.Errorf("held projection = %v", h)
	}
}
