package model

import (
	"sort"
	"strings"
)

// CoinRecord is one tracked coin. Bought is the authoritative "position held" flag.
type CoinRecord struct {
	ID            string   `json:"id"`
	Symbol        string   `json:"symbol"`
	Name          string   `json:"name"`
	MarketCap     *float64 `json:"market_cap"`
	MarketCapRank *int     `json:"market_cap_rank,omitempty"`
	ATH           *float64 `json:"ath,omitempty"`
	Bought        bool     `json:"bought"`
}

// Equal reports whether both records carry the same values.
func (c CoinRecord) Equal(o CoinRecord) bool {
	return c.ID == o.ID && c.Symbol == o.Symbol && c.Name == o.Name && c.Bought == o.Bought &&
		equalPtr(c.MarketCap, o.MarketCap) && equalPtr(c.MarketCapRank, o.MarketCapRank) && equalPtr(c.ATH, o.ATH)
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// CoinsDataMap is the persisted coin list keyed by lower-case symbol.
type CoinsDataMap map[string]CoinRecord

// Key normalizes a ticker into a CoinsDataMap key.
func Key(symbol string) string {
	return strings.ToLower(symbol)
}

// Held returns the projection of coins whose Bought flag is set.
func (m CoinsDataMap) Held() CoinsDataMap {
	held := make(CoinsDataMap)
	for k, c := range m {
		if c.Bought {
			held[k] = c
		}
	}
	return held
}

// IsHeld reports whether symbol is currently held.
func (m CoinsDataMap) IsHeld(symbol string) bool {
	c, ok := m[Key(symbol)]
	return ok && c.Bought
}

// Clone returns a deep copy of the map.
func (m CoinsDataMap) Clone() CoinsDataMap {
	out := make(CoinsDataMap, len(m))
	for k, c := range m {
		if c.MarketCap != nil {
			v := *c.MarketCap
			c.MarketCap = &v
		}
		if c.MarketCapRank != nil {
			v := *c.MarketCapRank
			c.MarketCapRank = &v
		}
		if c.ATH != nil {
			v := *c.ATH
			c.ATH = &v
		}
		out[k] = c
	}
	return out
}

// Symbols returns the map keys in sorted order.
func (m CoinsDataMap) Symbols() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Tickers returns the upper-case exchange tickers of all coins, sorted.
func (m CoinsDataMap) Tickers() []string {
	keys := m.Symbols()
	for i, k := range keys {
		keys[i] = strings.ToUpper(k)
	}
	return keys
}
