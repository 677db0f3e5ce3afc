package holdings

import (
	"time"

	"CoinSentinel/internal/model"
)

// Reconcile applies yesterday's signals to the coin list and returns the transitions it made
// together with the updated list. The input map is left untouched.
//
// A buy is emitted only for a coin that is not held, a sell only for one that is held.
// Signals for any other day are ignored, so running twice for the same day is a no-op.
func Reconcile(signals []model.AnalysisResult, coins model.CoinsDataMap, now time.Time) (model.Transitions, model.CoinsDataMap) {
	yesterday := model.Yesterday(now)
	next := coins.Clone()
	transitions := model.Transitions{}

	for _, s := range signals {
		if !model.Day(s.Date).Equal(yesterday) {
			continue
		}
		key := model.Key(s.Symbol)
		coin, ok := next[key]
		if !ok {
			coin = model.CoinRecord{
				ID:     key,
				Symbol: key,
				Name:   key,
			}
		}

		switch {
		case s.Position == 1 && !coin.Bought:
			coin.Bought = true
			transitions[key] = model.ActionBuy
		case s.Position == 0 && coin.Bought:
			coin.Bought = false
			transitions[key] = model.ActionSell
		default:
			continue
		}
		next[key] = coin
	}
	return transitions, next
}
