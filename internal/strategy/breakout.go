package strategy

import "CoinSentinel/internal/model"

// breakoutTracker latches the direction of the most recent price breakout.
// Once it leaves none it only moves between up and down.
type breakoutTracker struct {
	state model.Breakout
}

func newBreakoutTracker() *breakoutTracker {
	return &breakoutTracker{state: model.BreakoutNone}
}

// Observe updates the state for one day. An upside breakout wins when both bounds are touched.
func (b *breakoutTracker) Observe(price, highest, lowest float64) model.Breakout {
	switch {
	case price >= highest:
		b.state = model.BreakoutUp
	case price <= lowest:
		b.state = model.BreakoutDown
	}
	return b.state
}

func (b *breakoutTracker) State() model.Breakout { return b.state }
