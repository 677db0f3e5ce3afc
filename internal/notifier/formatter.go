package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"CoinSentinel/internal/backtest"
	"CoinSentinel/internal/model"
)

// NoChangesMessage is sent when a run produced no transitions.
const NoChangesMessage = "🛌 <b>Trading Update</b>\n\nNothing to buy or sell today, chill :)"

// FormatTransitions formats the day's position changes, one line per coin in symbol order.
func FormatTransitions(t model.Transitions) string {
	if len(t) == 0 {
		return NoChangesMessage
	}
	var b strings.Builder
	b.WriteString("📊 <b>Trading Signals Today</b>\n\n")
	for _, sym := range t.Symbols() {
		emoji, label := "🔴", "SELL"
		if t[sym] == model.ActionBuy {
			emoji, label = "🟢", "BUY"
		}
		b.WriteString(fmt.Sprintf("%s <b>%s</b> — %s\n", emoji, html.EscapeString(strings.ToUpper(sym)), label))
	}
	return b.String()
}

// FormatHoldings lists the held coins and the size of the tracked universe.
func FormatHoldings(coins model.CoinsDataMap, now time.Time) string {
	var b strings.Builder
	b.WriteString("📦 <b>Holdings</b>\n\n")

	held := coins.Held()
	if len(held) == 0 {
		b.WriteString("No open positions.\n")
	}
	for _, key := range held.Symbols() {
		c := held[key]
		line := fmt.Sprintf("• <b>%s</b>", html.EscapeString(strings.ToUpper(key)))
		if c.Name != "" && !strings.EqualFold(c.Name, key) {
			line += " " + html.EscapeString(c.Name)
		}
		if c.MarketCapRank != nil {
			line += fmt.Sprintf(" (#%d)", *c.MarketCapRank)
		}
		b.WriteString(line + "\n")
	}

	b.WriteString(fmt.Sprintf("\nTracked coins: %d | Held: %d\n", len(coins), len(held)))
	b.WriteString(fmt.Sprintf("Updated: %s UTC\n", now.UTC().Format("2006-01-02 15:04")))
	return b.String()
}

// FormatBacktestSummary summarizes a backtest report and the buys opened on day.
func FormatBacktestSummary(report backtest.Report, day time.Time) string {
	var b strings.Builder
	b.WriteString("🧪 <b>Backtest Summary</b>\n\n")

	closed, wins := 0, 0
	for _, t := range report.Trades {
		if t.Action != model.ActionSell {
			continue
		}
		closed++
		if t.ProfitLoss.IsPositive() {
			wins++
		}
	}
	b.WriteString(fmt.Sprintf("Closed trades: %d (%d winning)\n", closed, wins))
	b.WriteString(fmt.Sprintf("Open positions: %d\n", len(report.Open)))
	b.WriteString(fmt.Sprintf("Total Profit/Loss: %s$ on %s$ per trade\n",
		backtest.SignedFixed(report.TotalProfitLoss), report.Notional.StringFixed(0)))

	buys := backtest.BuysOn(report, day)
	if len(buys) == 0 {
		b.WriteString("\nCoins to buy today: nothing to buy today, chill :)\n")
		return b.String()
	}
	syms := make([]string, len(buys))
	for i, t := range buys {
		syms[i] = html.EscapeString(t.Symbol)
	}
	b.WriteString(fmt.Sprintf("\nCoins to buy today: <b>%s</b>\n", strings.Join(syms, ", ")))
	return b.String()
}

// FormatHelp lists the bot commands.
func FormatHelp() string {
	return "🤖 <b>Commands</b>\n\n" +
		"/run - run today's signal check now\n" +
		"/holdings - show held coins\n" +
		"/refresh - rebuild the coin universe\n" +
		"/help - show this message\n"
}
