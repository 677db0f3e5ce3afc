package model

import (
	"sort"
	"time"
)

// Action is a trade direction.
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
)

// Breakout is the latched direction of the last price breakout.
type Breakout string

const (
	BreakoutNone Breakout = "none"
	BreakoutUp   Breakout = "up"
	BreakoutDown Breakout = "down"
)

// SignalRecord is the generator output for one trading day.
// Position is 1 when the strategy wants to be in the market, 0 otherwise.
type SignalRecord struct {
	Date     time.Time
	Price    float64
	Position int
	Breakout Breakout
}

// Action maps the target position to a trade direction.
func (s SignalRecord) Action() Action {
	return positionAction(s.Position)
}

// AnalysisResult is a SignalRecord tagged with its coin symbol.
type AnalysisResult struct {
	Symbol   string
	Position int
	Date     time.Time
	Price    float64
}

func (r AnalysisResult) Action() Action {
	return positionAction(r.Position)
}

func positionAction(position int) Action {
	if position == 1 {
		return ActionBuy
	}
	return ActionSell
}

// Transitions maps a lower-case coin symbol to the state change applied in a run.
type Transitions map[string]Action

// Symbols returns the transition keys in sorted order.
func (t Transitions) Symbols() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Count returns the number of transitions with the given action.
func (t Transitions) Count(a Action) int {
	n := 0
	for _, v := range t {
		if v == a {
			n++
		}
	}
	return n
}
