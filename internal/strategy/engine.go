package strategy

import (
	"errors"
	"fmt"
	"time"

	"CoinSentinel/internal/calculator"
	"CoinSentinel/internal/model"
)

// EMA periods and breakout windows of the trend-following strategy.
const (
	FastPeriod   = 5
	MediumPeriod = 10
	SlowPeriod   = 50

	HighWindow = 28 // days, inclusive of the current day
	LowWindow  = 14 // days, inclusive of the current day

	// WarmUp is the first index that produces a signal; EMA-50 needs the history before it.
	WarmUp = 49
)

// ErrShapeMismatch is returned when the generator inputs have different lengths.
var ErrShapeMismatch = errors.New("input series length mismatch")

// GenerateSignals derives one SignalRecord per day from index WarmUp onward.
//
// A day is in position (1) only when EMA5 >= EMA10, EMA10 >= EMA50 and the latched
// breakout direction is up; any other combination is out of position (0).
func GenerateSignals(ema5, ema10, ema50, prices []float64, dates []time.Time) ([]model.SignalRecord, error) {
	n := len(prices)
	if len(ema5) != n || len(ema10) != n || len(ema50) != n || len(dates) != n {
		return nil, fmt.Errorf("%w: ema5=%d ema10=%d ema50=%d prices=%d dates=%d",
			ErrShapeMismatch, len(ema5), len(ema10), len(ema50), n, len(dates))
	}
	if n <= WarmUp {
		return []model.SignalRecord{}, nil
	}

	signals := make([]model.SignalRecord, 0, n-WarmUp)
	breakout := newBreakoutTracker()

	for i := WarmUp; i < n; i++ {
		price := prices[i]
		highest := calculator.HighestClose(prices, i, HighWindow)
		lowest := calculator.LowestClose(prices, i, LowWindow)
		direction := breakout.Observe(price, highest, lowest)

		position := 0
		if ema5[i] >= ema10[i] && ema10[i] >= ema50[i] && direction == model.BreakoutUp {
			position = 1
		}

		signals = append(signals, model.SignalRecord{
			Date:     dates[i],
			Price:    price,
			Position: position,
			Breakout: direction,
		})
	}
	return signals, nil
}
