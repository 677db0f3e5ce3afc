package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestCoinsDataMap_HeldProjection(t *testing.T) {
	coins := CoinsDataMap{
		"btc": {ID: "bitcoin", Symbol: "btc", Name: "Bitcoin", Bought: true},
		"eth": {ID: "ethereum", Symbol: "eth", Name: "Ethereum"},
		"sol": {ID: "solana", Symbol: "sol", Name: "Solana", Bought: true},
	}
	held := coins.Held()
	if len(held) != 2 {
		t.Fatalf("expected 2 held coins, got %d", len(held))
	}
	if _, ok := held["eth"]; ok {
		t.Error("eth is not bought and must not be in the held projection")
	}
	if !coins.IsHeld("BTC") {
		t.Error("IsHeld should normalize the symbol")
	}
}

func TestCoinsDataMap_CloneIsDeep(t *testing.T) {
	mc := 100.0
	coins := CoinsDataMap{"btc": {Symbol: "btc", MarketCap: &mc}}
	clone := coins.Clone()

	*clone["btc"].MarketCap = 5
	c := clone["btc"]
	c.Bought = true
	clone["btc"] = c

	if *coins["btc"].MarketCap != 100 {
		t.Errorf("clone shares market cap pointer with original")
	}
	if coins["btc"].Bought {
		t.Errorf("clone mutation leaked into original")
	}
}

func TestCoinsDataMap_JSONRoundTrip(t *testing.T) {
	raw := `{
  "btc": {
    "id": "bitcoin",
    "symbol": "btc",
    "name": "Bitcoin",
    "market_cap": 1200000000000,
    "market_cap_rank": 1,
    "ath": 109000,
    "bought": true
  },
  "xyz": {
    "id": "xyz",
    "symbol": "xyz",
    "name": "xyz",
    "market_cap": null,
    "bought": false
  }
}`
	var coins CoinsDataMap
	if err := json.Unmarshal([]byte(raw), &coins); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	out, err := json.MarshalIndent(coins, "", "  ")
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != raw {
		t.Errorf("round trip changed bytes:\n%s", out)
	}
}

func TestYesterday_UTCMidnight(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	// 01:30 local on the 15th is 23:30 UTC on the 14th.
	now := time.Date(2024, 3, 15, 1, 30, 0, 0, loc)
	got := Yesterday(now)
	want := time.Date(2024, 3, 13, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Yesterday(%v) = %v, want %v", now, got, want)
	}
}

func TestTransitions_SymbolsSorted(t *testing.T) {
	tr := Transitions{"sol": ActionBuy, "btc": ActionSell, "eth": ActionBuy}
	syms := tr.Symbols()
	if syms[0] != "btc" || syms[1] != "eth" || syms[2] != "sol" {
		t.Errorf("unexpected order: %v", syms)
	}
	if tr.Count(ActionBuy) != 2 || tr.Count(ActionSell) != 1 {
		t.Errorf("unexpected counts")
	}
}

func TestCoinRecord_Equal(t *testing.T) {
	a, b := 10.0, 10.0
	c := 11.0
	base := CoinRecord{ID: "bitcoin", Symbol: "btc", Name: "Bitcoin", MarketCap: &a, Bought: true}

	same := base
	same.MarketCap = &b
	if !base.Equal(same) {
		t.Error("records with equal values behind different pointers should be equal")
	}
	changed := base
	changed.MarketCap = &c
	if base.Equal(changed) {
		t.Error("different market cap should not be equal")
	}
	renamed := base
	renamed.Name = "Bitcoin Cash"
	if base.Equal(renamed) {
		t.Error("different name should not be equal")
	}
	noCap := base
	noCap.MarketCap = nil
	if base.Equal(noCap) {
		t.Error("nil and set market cap should not be equal")
	}
}
