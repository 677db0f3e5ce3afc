package strategy

import (
	"testing"

	"CoinSentinel/internal/model"
)

func risingPrices(n int, start, step float64) []float64 {
	prices := make([]float64, n)
	for i := range prices {
		prices[i] = start + float64(i)*step
	}
	return prices
}

func TestAnalyze_MergesAndSortsByDate(t *testing.T) {
	in := map[string][]model.Candle{
		"SOL": makeCandles(risingPrices(60, 20, 0.5)),
		"BTC": makeCandles(risingPrices(55, 40000, 100)),
		"ETH": makeCandles(risingPrices(30, 2000, 10)), // not enough history
	}
	results := Analyze(in)

	// SOL: 60-49 = 11, BTC: 55-49 = 6, ETH: 0
	if len(results) != 17 {
		t.Fatalf("expected 17 results, got %d", len(results))
	}
	for i := 1; i < len(results); i++ {
		prev, cur := results[i-1], results[i]
		if cur.Date.Before(prev.Date) {
			t.Fatalf("results not sorted by date at %d", i)
		}
		if cur.Date.Equal(prev.Date) && cur.Symbol < prev.Symbol {
			t.Fatalf("same-day results not sorted by symbol at %d", i)
		}
	}
	counts := map[string]int{}
	for _, r := range results {
		counts[r.Symbol]++
	}
	if counts["SOL"] != 11 || counts["BTC"] != 6 || counts["ETH"] != 0 {
		t.Errorf("unexpected per-symbol counts: %v", counts)
	}
}

func TestAnalyzeSymbol_TagsSymbol(t *testing.T) {
	results, err := AnalyzeSymbol("ADA", makeCandles(risingPrices(52, 1, 0.01)))
	if err != nil {
		t.Fatalf("AnalyzeSymbol: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for _, r := range results {
		if r.Symbol != "ADA" {
			t.Errorf("expected symbol ADA, got %s", r.Symbol)
		}
		if r.Position != 1 {
			t.Errorf("expected in-position on a rising series, got %d", r.Position)
		}
	}
}
