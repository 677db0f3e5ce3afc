// Package holdings owns the persisted coin list, the derived held-coins document and the
// reconciliation of daily signals against them.
package holdings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"CoinSentinel/internal/model"
)

// ErrPersistence marks a read or write failure on the coin documents.
var ErrPersistence = errors.New("persistence failure")

// Store reads and writes the two coin documents.
// The coin list is authoritative; the held document is a projection of its bought flags.
type Store interface {
	LoadCoins(ctx context.Context) (model.CoinsDataMap, error)
	SaveCoins(ctx context.Context, coins model.CoinsDataMap) error
	LoadHeld(ctx context.Context) (model.CoinsDataMap, error)
	SaveHeld(ctx context.Context, held model.CoinsDataMap) error
	Name() string
}

func encodeDocument(coins model.CoinsDataMap) ([]byte, error) {
	if coins == nil {
		coins = model.CoinsDataMap{}
	}
	data, err := json.MarshalIndent(coins, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode coins: %w", err)
	}
	return data, nil
}

func decodeDocument(data []byte) (model.CoinsDataMap, error) {
	coins := model.CoinsDataMap{}
	if len(data) == 0 || string(data) == "null" {
		return coins, nil
	}
	if err := json.Unmarshal(data, &coins); err != nil {
		return nil, fmt.Errorf("decode coins: %w", err)
	}
	if coins == nil {
		coins = model.CoinsDataMap{}
	}
	return coins, nil
}
