package notifier

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"CoinSentinel/internal/backtest"
	"CoinSentinel/internal/model"
)

func TestFormatTransitions(t *testing.T) {
	msg := FormatTransitions(model.Transitions{
		"eth": model.ActionSell,
		"btc": model.ActionBuy,
	})
	want := "📊 <b>Trading Signals Today</b>\n\n" +
		"🟢 <b>BTC</b> — BUY\n" +
		"🔴 <b>ETH</b> — SELL\n"
	if msg != want {
		t.Errorf("unexpected message:\n%q\nwant:\n%q", msg, want)
	}
}

func TestFormatTransitions_Empty(t *testing.T) {
	if got := FormatTransitions(model.Transitions{}); got != NoChangesMessage {
		t.Errorf("unexpected message %q", got)
	}
	if !strings.Contains(NoChangesMessage, "Nothing to buy or sell today, chill :)") {
		t.Error("no-change message lost its text")
	}
}

func TestFormatHoldings(t *testing.T) {
	rank := 2
	coins := model.CoinsDataMap{
		"eth":  {ID: "ethereum", Symbol: "eth", Name: "Ethereum", MarketCapRank: &rank, Bought: true},
		"btc":  {ID: "bitcoin", Symbol: "btc", Name: "Bitcoin"},
		"pepe": {ID: "pepe", Symbol: "pepe", Name: "pepe", Bought: true},
	}
	msg := FormatHoldings(coins, time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC))
	for _, want := range []string{"<b>ETH</b> Ethereum (#2)", "<b>PEPE</b>\n", "Tracked coins: 3 | Held: 2", "2025-03-10 08:00"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
	if strings.Contains(msg, "BTC") {
		t.Error("unheld coin listed")
	}
}

func TestFormatBacktestSummary(t *testing.T) {
	d := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	report := backtest.Evaluate([]backtest.Entry{
		{Symbol: "BTC", Action: model.ActionBuy, Date: d, Price: 100},
		{Symbol: "BTC", Action: model.ActionSell, Date: d.AddDate(0, 0, 1), Price: 110},
		{Symbol: "SOL", Action: model.ActionBuy, Date: d.AddDate(0, 0, 2), Price: 20},
	}, decimal.NewFromInt(100))

	msg := FormatBacktestSummary(report, d.AddDate(0, 0, 2))
	for _, want := range []string{"Closed trades: 1 (1 winning)", "Open positions: 1", "+10.00$ on 100$", "Coins to buy today: <b>SOL</b>"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}

	msg = FormatBacktestSummary(report, d.AddDate(0, 0, 5))
	if !strings.Contains(msg, "nothing to buy today") {
		t.Errorf("expected no-buy line:\n%s", msg)
	}
}

func TestParseChatIDs(t *testing.T) {
	ids, err := ParseChatIDs([]string{"379623218", " -100123 ", ""})
	if err != nil {
		t.Fatalf("ParseChatIDs: %v", err)
	}
	if len(ids) != 2 || ids[0] != 379623218 || ids[1] != -100123 {
		t.Errorf("unexpected ids %v", ids)
	}
	if _, err := ParseChatIDs([]string{"abc"}); err == nil {
		t.Error("expected error for invalid id")
	}
	if _, err := ParseChatIDs(nil); err == nil {
		t.Error("expected error for empty list")
	}
}

func TestLogNotifier(t *testing.T) {
	if err := (LogNotifier{}).Send(context.Background(), "hello"); err != nil {
		t.Errorf("LogNotifier.Send: %v", err)
	}
}
