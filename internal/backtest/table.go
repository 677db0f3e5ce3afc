package backtest

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"CoinSentinel/internal/model"
)

// WriteTable renders the trade log, the total and the open positions.
func WriteTable(w io.Writer, report Report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight|tabwriter.Debug)
	fmt.Fprintln(tw, "Coin\tDate\tPrice\tAction\tP/L ($)\tP/L (%)\t")
	for _, t := range report.Trades {
		pl, pct := "", ""
		if t.Action == model.ActionSell {
			pl = t.ProfitLoss.StringFixed(2)
			pct = t.ProfitLossPercent.StringFixed(2)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t\n",
			t.Symbol,
			t.Date.UTC().Format("2006-01-02"),
			t.Price.StringFixed(8),
			actionLabel(t.Action),
			pl,
			pct,
		)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("write trade table: %w", err)
	}

	if _, err := fmt.Fprintf(w, "\nTotal Profit/Loss: %s$\n", SignedFixed(report.TotalProfitLoss)); err != nil {
		return err
	}
	if len(report.Open) > 0 {
		syms := make([]string, len(report.Open))
		for i, t := range report.Open {
			syms[i] = t.Symbol
		}
		if _, err := fmt.Fprintf(w, "Open positions: %s\n", strings.Join(syms, ", ")); err != nil {
			return err
		}
	}
	return nil
}

// SignedFixed formats d with two decimals and a leading + when positive.
func SignedFixed(d decimal.Decimal) string {
	s := d.StringFixed(2)
	if d.IsPositive() {
		return "+" + s
	}
	return s
}

func actionLabel(a model.Action) string {
	if a == model.ActionBuy {
		return "Buy"
	}
	return "Sell"
}
