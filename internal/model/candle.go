package model

import "time"

// Candle represents a single daily candlestick bar.
type Candle struct {
	OpenTime time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   float64
}

// Day truncates t to midnight UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Yesterday returns UTC midnight of the calendar day before now.
func Yesterday(now time.Time) time.Time {
	return Day(now).AddDate(0, 0, -1)
}
