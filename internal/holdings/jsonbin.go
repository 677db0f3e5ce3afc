package holdings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"CoinSentinel/internal/model"
)

// JSONBinStore keeps the coin documents in two jsonbin.io bins.
type JSONBinStore struct {
	BaseURL    string
	MasterKey  string
	CoinsBinID string
	HeldBinID  string
	Client     *http.Client
}

// NewJSONBinStore creates a jsonbin-backed store with optional proxy support.
func NewJSONBinStore(baseURL, masterKey, coinsBinID, heldBinID, proxyURL string) *JSONBinStore {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &JSONBinStore{
		BaseURL:    baseURL,
		MasterKey:  masterKey,
		CoinsBinID: coinsBinID,
		HeldBinID:  heldBinID,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

func (s *JSONBinStore) Name() string { return "jsonbin" }

func (s *JSONBinStore) LoadCoins(ctx context.Context) (model.CoinsDataMap, error) {
	return s.read(ctx, s.CoinsBinID)
}

func (s *JSONBinStore) SaveCoins(ctx context.Context, coins model.CoinsDataMap) error {
	return s.write(ctx, s.CoinsBinID, coins)
}

func (s *JSONBinStore) LoadHeld(ctx context.Context) (model.CoinsDataMap, error) {
	return s.read(ctx, s.HeldBinID)
}

func (s *JSONBinStore) SaveHeld(ctx context.Context, held model.CoinsDataMap) error {
	return s.write(ctx, s.HeldBinID, held)
}

// binEnvelope is the response shape of the jsonbin v3 API.
type binEnvelope struct {
	Record json.RawMessage `json:"record"`
}

func (s *JSONBinStore) read(ctx context.Context, binID string) (model.CoinsDataMap, error) {
	endpoint := fmt.Sprintf("%s/b/%s/latest", s.BaseURL, binID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Master-Key", s.MasterKey)

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("read bin %s: %w", binID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("read bin %s: status %d, body: %s", binID, resp.StatusCode, string(body))
	}

	var env binEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode bin %s: %w", binID, err)
	}
	return decodeDocument(env.Record)
}

func (s *JSONBinStore) write(ctx context.Context, binID string, coins model.CoinsDataMap) error {
	data, err := encodeDocument(coins)
	if err != nil {
		return err
	}
	endpoint := fmt.Sprintf("%s/b/%s", s.BaseURL, binID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Master-Key", s.MasterKey)

	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("write bin %s: %w", binID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("write bin %s: status %d, body: %s", binID, resp.StatusCode, string(body))
	}
	return nil
}
