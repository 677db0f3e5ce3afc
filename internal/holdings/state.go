package holdings

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"CoinSentinel/internal/model"
)

// FileStore keeps the coin documents as JSON files on local disk.
type FileStore struct {
	CoinsPath string
	HeldPath  string
}

// NewFileStore creates a FileStore, creating the parent directories if needed.
func NewFileStore(coinsPath, heldPath string) (*FileStore, error) {
	for _, p := range []string{coinsPath, heldPath} {
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}
	return &FileStore{CoinsPath: coinsPath, HeldPath: heldPath}, nil
}

func (s *FileStore) Name() string { return "file" }

func (s *FileStore) LoadCoins(_ context.Context) (model.CoinsDataMap, error) {
	return loadFile(s.CoinsPath)
}

func (s *FileStore) SaveCoins(_ context.Context, coins model.CoinsDataMap) error {
	return saveFile(s.CoinsPath, coins)
}

func (s *FileStore) LoadHeld(_ context.Context) (model.CoinsDataMap, error) {
	return loadFile(s.HeldPath)
}

func (s *FileStore) SaveHeld(_ context.Context, held model.CoinsDataMap) error {
	return saveFile(s.HeldPath, held)
}

// loadFile reads a coin document. Returns an empty map if the file doesn't exist.
func loadFile(path string) (model.CoinsDataMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.CoinsDataMap{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return decodeDocument(data)
}

// saveFile writes a coin document through a temp file and rename so readers never see a torn write.
func saveFile(path string, coins model.CoinsDataMap) error {
	data, err := encodeDocument(coins)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}
