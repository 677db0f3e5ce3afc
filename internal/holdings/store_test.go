package holdings

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileStore_MissingFilesAreEmpty(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(filepath.Join(dir, "data", "coins_list.json"), filepath.Join(dir, "data", "bought_coins_list.json"))
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	coins, err := s.LoadCoins(context.Background())
	if err != nil {
		t.Fatalf("LoadCoins: %v", err)
	}
	if coins == nil || len(coins) != 0 {
		t.Errorf("expected empty non-nil map, got %v", coins)
	}
}

func TestFileStore_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	coinsPath := filepath.Join(dir, "coins_list.json")
	s, err := NewFileStore(coinsPath, filepath.Join(dir, "bought_coins_list.json"))
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	ctx := context.Background()
	if err := s.SaveCoins(ctx, coinList()); err != nil {
		t.Fatalf("SaveCoins: %v", err)
	}
	if err := s.SaveHeld(ctx, coinList().Held()); err != nil {
		t.Fatalf("SaveHeld: %v", err)
	}

	coins, err := s.LoadCoins(ctx)
	if err != nil {
		t.Fatalf("LoadCoins: %v", err)
	}
	if len(coins) != 4 || coins["btc"].Name != "Bitcoin" || !coins["eth"].Bought {
		t.Errorf("unexpected coins %+v", coins)
	}
	held, err := s.LoadHeld(ctx)
	if err != nil {
		t.Fatalf("LoadHeld: %v", err)
	}
	if len(held) != 2 {
		t.Errorf("expected 2 held coins, got %v", held.Symbols())
	}

	if _, err := os.Stat(coinsPath + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file should be renamed away")
	}
	raw, _ := os.ReadFile(coinsPath)
	if !strings.Contains(string(raw), "\n  \"ada\": {") {
		t.Errorf("document should be indented with two spaces:\n%s", raw)
	}
}

func TestFileStore_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "coins.json")
	os.WriteFile(path, []byte("{not json"), 0o644)
	s := &FileStore{CoinsPath: path, HeldPath: filepath.Join(dir, "held.json")}
	if _, err := s.LoadCoins(context.Background()); err == nil {
		t.Error("expected decode error")
	}
}

func TestJSONBinStore(t *testing.T) {
	bins := map[string][]byte{
		"coins-bin": []byte(`{"btc":{"id":"bitcoin","symbol":"btc","name":"Bitcoin","market_cap":null,"bought":true}}`),
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Master-Key") != "master" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.Method {
		case http.MethodGet:
			id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/b/"), "/latest")
			record, ok := bins[id]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.Write([]byte(`{"record":` + string(record) + `,"metadata":{"id":"` + id + `","private":true}}`))
		case http.MethodPut:
			id := strings.TrimPrefix(r.URL.Path, "/b/")
			body, _ := io.ReadAll(r.Body)
			if !json.Valid(body) {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			bins[id] = body
			w.Write([]byte(`{"record":` + string(body) + `}`))
		}
	}))
	defer srv.Close()

	s := NewJSONBinStore(srv.URL, "master", "coins-bin", "held-bin", "")
	ctx := context.Background()

	coins, err := s.LoadCoins(ctx)
	if err != nil {
		t.Fatalf("LoadCoins: %v", err)
	}
	if !coins.IsHeld("BTC") || coins["btc"].MarketCap != nil {
		t.Errorf("unexpected coins %+v", coins)
	}

	if err := s.SaveHeld(ctx, coins.Held()); err != nil {
		t.Fatalf("SaveHeld: %v", err)
	}
	held, err := s.LoadHeld(ctx)
	if err != nil {
		t.Fatalf("LoadHeld: %v", err)
	}
	if len(held) != 1 || held["btc"].Name != "Bitcoin" {
		t.Errorf("unexpected held %+v", held)
	}

	bad := NewJSONBinStore(srv.URL, "wrong", "coins-bin", "held-bin", "")
	if _, err := bad.LoadCoins(ctx); err == nil {
		t.Error("expected error for rejected key")
	}
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	s, err := NewRedisStore(RedisConfig{Addr: addr, CoinsKey: "coinsentinel:test:coins", HeldKey: "coinsentinel:test:held"})
	if err != nil {
		t.Fatalf("NewRedisStore: %v", err)
	}
	defer s.Close()
	ctx := context.Background()
	defer s.client.Del(ctx, "coinsentinel:test:coins", "coinsentinel:test:held")

	if err := s.SaveCoins(ctx, coinList()); err != nil {
		t.Fatalf("SaveCoins: %v", err)
	}
	coins, err := s.LoadCoins(ctx)
	if err != nil {
		t.Fatalf("LoadCoins: %v", err)
	}
	if len(coins) != 4 {
		t.Errorf("expected 4 coins, got %d", len(coins))
	}
	held, err := s.LoadHeld(ctx)
	if err != nil {
		t.Fatalf("LoadHeld: %v", err)
	}
	if len(held) != 0 {
		t.Errorf("missing key should load as empty, got %v", held)
	}
}
