package recorder

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"CoinSentinel/internal/backtest"
	"CoinSentinel/internal/model"
)

// Run statuses.
const (
	StatusRunning = "running"
	StatusOK      = "ok"
	StatusFailed  = "failed"
)

// ErrNoRuns is returned by LastRun when nothing has been recorded for the job yet.
var ErrNoRuns = errors.New("no runs recorded")

// RunRecord describes one pipeline execution.
type RunRecord struct {
	ID           string    `json:"id"`
	Job          string    `json:"job"` // "daily", "refresh" or "backtest"
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	Status       string    `json:"status"`
	CoinsFetched int       `json:"coins_fetched"`
	Signals      int       `json:"signals"`
	Buys         int       `json:"buys"`
	Sells        int       `json:"sells"`
	Error        string    `json:"error,omitempty"`
}

// NewRun starts a run record with a fresh id.
func NewRun(job string, startedAt time.Time) *RunRecord {
	return &RunRecord{
		ID:        uuid.NewString(),
		Job:       job,
		StartedAt: startedAt.UTC(),
		Status:    StatusRunning,
	}
}

// Finish stamps the outcome onto the run.
func (r *RunRecord) Finish(at time.Time, err error) {
	r.FinishedAt = at.UTC()
	if err != nil {
		r.Status = StatusFailed
		r.Error = err.Error()
		return
	}
	r.Status = StatusOK
}

// Recorder persists run history for later analysis.
type Recorder interface {
	RecordRun(run *RunRecord) error
	RecordTransitions(runID string, day time.Time, transitions model.Transitions, prices map[string]float64) error
	RecordBacktest(runID string, report backtest.Report) error
	LastRun(job string) (*RunRecord, error)
	Close() error
}
