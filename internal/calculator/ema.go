package calculator

import (
	"time"

	"CoinSentinel/internal/model"
)

// CalculateEMA computes the exponential moving average of prices over the given period.
// The series is seeded with the first price, so the output has the same length as the input.
func CalculateEMA(prices []float64, period int) []float64 {
	if len(prices) == 0 {
		return []float64{}
	}
	alpha := 2.0 / float64(period+1)
	ema := make([]float64, len(prices))
	ema[0] = prices[0]
	for i := 1; i < len(prices); i++ {
		ema[i] = (prices[i]-ema[i-1])*alpha + ema[i-1]
	}
	return ema
}

// ExtractCloses returns the closing prices of the given candles.
func ExtractCloses(candles []model.Candle) []float64 {
	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}
	return closes
}

// ExtractDates returns the open time of each candle normalized to UTC midnight.
func ExtractDates(candles []model.Candle) []time.Time {
	dates := make([]time.Time, len(candles))
	for i, c := range candles {
		dates[i] = model.Day(c.OpenTime)
	}
	return dates
}
