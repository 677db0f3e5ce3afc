package holdings

import (
	"context"
	"fmt"
	"sync"
	"time"

	"CoinSentinel/internal/logger"
	"CoinSentinel/internal/model"
)

// Manager serializes reconciliation runs against a Store.
type Manager struct {
	mu    sync.Mutex
	store Store
}

// NewManager creates a Manager backed by store.
func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

// Run reconciles signals against the stored coin list and persists the result.
// The coin list is written first and is the commit point: once it is saved the transitions
// are returned even if rewriting the held document fails.
func (m *Manager) Run(ctx context.Context, signals []model.AnalysisResult, now time.Time) (model.Transitions, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	coins, err := m.store.LoadCoins(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: load coin list: %v", ErrPersistence, err)
	}

	transitions, next := Reconcile(signals, coins, now)
	if len(transitions) == 0 {
		logger.Info("no position changes for %s", model.Yesterday(now).Format("2006-01-02"))
	}

	if err := m.store.SaveCoins(ctx, next); err != nil {
		return nil, fmt.Errorf("%w: save coin list: %v", ErrPersistence, err)
	}
	if err := m.store.SaveHeld(ctx, next.Held()); err != nil {
		// The coin list is committed; Verify/RepairHeld rebuilds the held document on the next run.
		logger.Warn("save held coins, left for repair: %v", err)
	}

	logger.Info("reconciled %d signals: %d buys, %d sells, %d held",
		len(signals), transitions.Count(model.ActionBuy), transitions.Count(model.ActionSell), len(next.Held()))
	return transitions, nil
}

// Coins returns the stored coin list.
func (m *Manager) Coins(ctx context.Context) (model.CoinsDataMap, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	coins, err := m.store.LoadCoins(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: load coin list: %v", ErrPersistence, err)
	}
	return coins, nil
}

// Verify compares the persisted held document with the projection of the coin list
// and returns the symbols that are missing, extra or carry a different record, sorted.
func (m *Manager) Verify(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	coins, err := m.store.LoadCoins(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: load coin list: %v", ErrPersistence, err)
	}
	held, err := m.store.LoadHeld(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: load held coins: %v", ErrPersistence, err)
	}

	want := coins.Held()
	drift := model.CoinsDataMap{}
	for k, c := range want {
		if h, ok := held[k]; !ok || !h.Equal(c) {
			drift[k] = c
		}
	}
	for k, c := range held {
		if _, ok := want[k]; !ok {
			drift[k] = c
		}
	}
	return drift.Symbols(), nil
}

// RepairHeld rewrites the held document from the coin list.
func (m *Manager) RepairHeld(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	coins, err := m.store.LoadCoins(ctx)
	if err != nil {
		return fmt.Errorf("%w: load coin list: %v", ErrPersistence, err)
	}
	if err := m.store.SaveHeld(ctx, coins.Held()); err != nil {
		return fmt.Errorf("%w: save held coins: %v", ErrPersistence, err)
	}
	return nil
}

// ReplaceCoins stores a new coin list and its held projection.
func (m *Manager) ReplaceCoins(ctx context.Context, coins model.CoinsDataMap) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.SaveCoins(ctx, coins); err != nil {
		return fmt.Errorf("%w: save coin list: %v", ErrPersistence, err)
	}
	if err := m.store.SaveHeld(ctx, coins.Held()); err != nil {
		return fmt.Errorf("%w: save held coins: %v", ErrPersistence, err)
	}
	return nil
}
