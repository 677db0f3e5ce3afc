package recorder

import (
	"sync"
	"time"

	"CoinSentinel/internal/backtest"
	"CoinSentinel/internal/model"
)

// NoopRecorder is used when SQLite is not configured. It keeps the last run per job in memory
// so the status endpoint still has something to show.
type NoopRecorder struct {
	mu   sync.Mutex
	last map[string]RunRecord
}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{last: map[string]RunRecord{}} }

func (n *NoopRecorder) RecordRun(run *RunRecord) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.last[run.Job] = *run
	return nil
}

func (n *NoopRecorder) RecordTransitions(string, time.Time, model.Transitions, map[string]float64) error {
	return nil
}

func (n *NoopRecorder) RecordBacktest(string, backtest.Report) error { return nil }

func (n *NoopRecorder) LastRun(job string) (*RunRecord, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	run, ok := n.last[job]
	if !ok {
		return nil, ErrNoRuns
	}
	return &run, nil
}

func (n *NoopRecorder) Close() error { return nil }
