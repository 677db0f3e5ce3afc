// Package backtest replays generated signals as a fixed-notional trade log.
package backtest

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"CoinSentinel/internal/model"
)

// Entry is one dated signal for a coin.
type Entry struct {
	Symbol string
	Action model.Action
	Date   time.Time
	Price  float64
}

// Trade is an executed buy or sell. ProfitLoss fields are set on sells only.
type Trade struct {
	Symbol            string
	Action            model.Action
	Date              time.Time
	Price             decimal.Decimal
	Quantity          decimal.Decimal
	ProfitLoss        decimal.Decimal
	ProfitLossPercent decimal.Decimal
}

// Report is the result of a backtest run.
type Report struct {
	Notional        decimal.Decimal
	Trades          []Trade
	TotalProfitLoss decimal.Decimal
	Open            []Trade // buys with no closing sell
}

var hundred = decimal.NewFromInt(100)

// EntriesFromAnalysis converts generator output into backtest entries.
func EntriesFromAnalysis(results []model.AnalysisResult) []Entry {
	entries := make([]Entry, 0, len(results))
	for _, r := range results {
		entries = append(entries, Entry{
			Symbol: strings.ToUpper(r.Symbol),
			Action: r.Action(),
			Date:   r.Date,
			Price:  r.Price,
		})
	}
	return entries
}

// Evaluate runs a one-position-per-coin simulation. A buy while flat opens a position worth
// notional; a sell while holding closes it. All other entries are ignored.
func Evaluate(entries []Entry, notional decimal.Decimal) Report {
	bySymbol := make(map[string][]Entry)
	var symbols []string
	for _, e := range entries {
		sym := strings.ToUpper(e.Symbol)
		if _, ok := bySymbol[sym]; !ok {
			symbols = append(symbols, sym)
		}
		bySymbol[sym] = append(bySymbol[sym], e)
	}
	sort.Strings(symbols)

	report := Report{Notional: notional, TotalProfitLoss: decimal.Zero}
	for _, sym := range symbols {
		list := bySymbol[sym]
		sort.SliceStable(list, func(i, j int) bool { return list[i].Date.Before(list[j].Date) })

		var open *Trade
		for _, e := range list {
			price := decimal.NewFromFloat(e.Price)
			switch e.Action {
			case model.ActionBuy:
				if open != nil || !price.IsPositive() {
					continue
				}
				open = &Trade{
					Symbol:   sym,
					Action:   model.ActionBuy,
					Date:     e.Date,
					Price:    price,
					Quantity: notional.Div(price),
				}
				report.Trades = append(report.Trades, *open)
			case model.ActionSell:
				if open == nil {
					continue
				}
				pl := price.Sub(open.Price).Mul(open.Quantity)
				pct := decimal.Zero
				if notional.IsPositive() {
					pct = pl.Div(notional).Mul(hundred)
				}
				report.Trades = append(report.Trades, Trade{
					Symbol:            sym,
					Action:            model.ActionSell,
					Date:              e.Date,
					Price:             price,
					Quantity:          open.Quantity,
					ProfitLoss:        pl,
					ProfitLossPercent: pct,
				})
				report.TotalProfitLoss = report.TotalProfitLoss.Add(pl)
				open = nil
			}
		}
		if open != nil {
			report.Open = append(report.Open, *open)
		}
	}

	sort.SliceStable(report.Trades, func(i, j int) bool {
		a, b := report.Trades[i], report.Trades[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		return a.Symbol < b.Symbol
	})
	return report
}

// BuysOn returns the buys opened on the UTC calendar day of day.
func BuysOn(report Report, day time.Time) []Trade {
	target := model.Day(day)
	var out []Trade
	for _, t := range report.Trades {
		if t.Action == model.ActionBuy && model.Day(t.Date).Equal(target) {
			out = append(out, t)
		}
	}
	return out
}
