package strategy

import (
	"fmt"
	"sort"

	"CoinSentinel/internal/calculator"
	"CoinSentinel/internal/logger"
	"CoinSentinel/internal/model"
)

// AnalyzeSymbol runs the EMA engine and the signal generator over one coin's candles.
func AnalyzeSymbol(symbol string, candles []model.Candle) ([]model.AnalysisResult, error) {
	closes := calculator.ExtractCloses(candles)
	dates := calculator.ExtractDates(candles)

	signals, err := GenerateSignals(
		calculator.CalculateEMA(closes, FastPeriod),
		calculator.CalculateEMA(closes, MediumPeriod),
		calculator.CalculateEMA(closes, SlowPeriod),
		closes,
		dates,
	)
	if err != nil {
		return nil, fmt.Errorf("generate signals for %s: %w", symbol, err)
	}

	results := make([]model.AnalysisResult, len(signals))
	for i, s := range signals {
		results[i] = model.AnalysisResult{
			Symbol:   symbol,
			Position: s.Position,
			Date:     s.Date,
			Price:    s.Price,
		}
	}
	return results, nil
}

// Analyze runs AnalyzeSymbol for every coin and merges the results by date.
// Results on the same day are ordered by symbol.
func Analyze(coinCandles map[string][]model.Candle) []model.AnalysisResult {
	var results []model.AnalysisResult
	for symbol, candles := range coinCandles {
		r, err := AnalyzeSymbol(symbol, candles)
		if err != nil {
			logger.Warn("skip %s: %v", symbol, err)
			continue
		}
		results = append(results, r...)
	}

	sort.SliceStable(results, func(i, j int) bool {
		if !results[i].Date.Equal(results[j].Date) {
			return results[i].Date.Before(results[j].Date)
		}
		return results[i].Symbol < results[j].Symbol
	})
	return results
}
