package holdings

import (
	"testing"
	"time"

	"CoinSentinel/internal/model"
)

var now = time.Date(2025, 3, 10, 0, 1, 0, 0, time.UTC)

func yesterday() time.Time { return model.Yesterday(now) }

func signal(symbol string, position int, date time.Time) model.AnalysisResult {
	return model.AnalysisResult{Symbol: symbol, Position: position, Date: date, Price: 1}
}

func coinList() model.CoinsDataMap {
	return model.CoinsDataMap{
		"btc": {ID: "bitcoin", Symbol: "btc", Name: "Bitcoin"},
		"eth": {ID: "ethereum", Symbol: "eth", Name: "Ethereum", Bought: true},
		"sol": {ID: "solana", Symbol: "sol", Name: "Solana", Bought: true},
		"ada": {ID: "cardano", Symbol: "ada", Name: "Cardano"},
	}
}

func TestReconcile_Transitions(t *testing.T) {
	y := yesterday()
	signals := []model.AnalysisResult{
		signal("BTC", 1, y), // flat -> buy
		signal("ETH", 0, y), // held -> sell
		signal("SOL", 1, y), // held, stays
		signal("ADA", 0, y), // flat, stays
	}
	coins := coinList()
	transitions, next := Reconcile(signals, coins, now)

	if len(transitions) != 2 {
		t.Fatalf("expected 2 transitions, got %v", transitions)
	}
	if transitions["btc"] != model.ActionBuy || transitions["eth"] != model.ActionSell {
		t.Errorf("unexpected transitions %v", transitions)
	}
	if !next["btc"].Bought || next["eth"].Bought || !next["sol"].Bought || next["ada"].Bought {
		t.Errorf("unexpected bought flags: %+v", next)
	}
	if coins["btc"].Bought || !coins["eth"].Bought {
		t.Error("input map must not be mutated")
	}
}

func TestReconcile_IgnoresOtherDays(t *testing.T) {
	y := yesterday()
	signals := []model.AnalysisResult{
		signal("BTC", 1, y.AddDate(0, 0, -1)),
		signal("ETH", 0, y.AddDate(0, 0, -3)),
		signal("ADA", 1, now),
	}
	transitions, next := Reconcile(signals, coinList(), now)
	if len(transitions) != 0 {
		t.Errorf("expected no transitions, got %v", transitions)
	}
	if len(next.Held()) != 2 {
		t.Errorf("held set should be unchanged, got %v", next.Held().Symbols())
	}
}

func TestReconcile_SameDayDifferentTimeOfDay(t *testing.T) {
	sig := signal("BTC", 1, yesterday().Add(13*time.Hour))
	transitions, _ := Reconcile([]model.AnalysisResult{sig}, coinList(), now)
	if transitions["btc"] != model.ActionBuy {
		t.Errorf("signal dated later on yesterday should count, got %v", transitions)
	}
}

func TestReconcile_Idempotent(t *testing.T) {
	y := yesterday()
	signals := []model.AnalysisResult{
		signal("BTC", 1, y),
		signal("ETH", 0, y),
		signal("SOL", 0, y),
		signal("ADA", 1, y),
	}
	first, state := Reconcile(signals, coinList(), now)
	if len(first) != 4 {
		t.Fatalf("expected 4 transitions on first pass, got %v", first)
	}
	second, again := Reconcile(signals, state, now)
	if len(second) != 0 {
		t.Errorf("second pass should be a no-op, got %v", second)
	}
	for k, c := range state {
		if again[k].Bought != c.Bought {
			t.Errorf("%s changed on second pass", k)
		}
	}
}

func TestReconcile_NeverBuysHeldOrSellsUnheld(t *testing.T) {
	y := yesterday()
	coins := coinList()
	for _, sym := range coins.Tickers() {
		for _, pos := range []int{0, 1} {
			tr, _ := Reconcile([]model.AnalysisResult{signal(sym, pos, y)}, coins, now)
			action, changed := tr[model.Key(sym)]
			if !changed {
				continue
			}
			if action == model.ActionBuy && coins.IsHeld(sym) {
				t.Errorf("bought %s while already held", sym)
			}
			if action == model.ActionSell && !coins.IsHeld(sym) {
				t.Errorf("sold %s while not held", sym)
			}
		}
	}
}

func TestReconcile_UnknownCoinGetsMinimalRecord(t *testing.T) {
	transitions, next := Reconcile([]model.AnalysisResult{signal("PEPE", 1, yesterday())}, coinList(), now)
	if transitions["pepe"] != model.ActionBuy {
		t.Fatalf("expected buy for unknown coin, got %v", transitions)
	}
	rec := next["pepe"]
	if rec.ID != "pepe" || rec.Symbol != "pepe" || rec.Name != "pepe" || !rec.Bought {
		t.Errorf("unexpected record %+v", rec)
	}

	transitions, next = Reconcile([]model.AnalysisResult{signal("PEPE", 0, yesterday())}, coinList(), now)
	if len(transitions) != 0 {
		t.Errorf("sell signal for unknown coin should be ignored, got %v", transitions)
	}
	if _, ok := next["pepe"]; ok {
		t.Error("unknown coin with sell signal should not be added")
	}
}
