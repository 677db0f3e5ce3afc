package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"CoinSentinel/internal/model"
)

const defaultKrakenURL = "https://api.kraken.com"

// KrakenFetcher implements Fetcher using the Kraken public OHLC API.
type KrakenFetcher struct {
	BaseURL string
	Client  *http.Client
}

// NewKrakenFetcher creates a new Kraken fetcher with optional proxy support.
func NewKrakenFetcher(baseURL, proxyURL string) *KrakenFetcher {
	if baseURL == "" {
		baseURL = defaultKrakenURL
	}
	return &KrakenFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  newHTTPClient(proxyURL),
	}
}

func (f *KrakenFetcher) Name() string { return "kraken" }

// krakenOHLC is the response envelope. Result holds one pair key plus "last".
type krakenOHLC struct {
	Error  []string                   `json:"error"`
	Result map[string]json.RawMessage `json:"result"`
}

func (f *KrakenFetcher) FetchDailyCandles(ctx context.Context, symbol string, start, end time.Time) ([]model.Candle, error) {
	params := url.Values{}
	params.Set("pair", strings.ToUpper(symbol)+"/USD")
	params.Set("interval", "1440")
	params.Set("since", strconv.FormatInt(start.Unix(), 10))
	endpoint := fmt.Sprintf("%s/0/public/OHLC?%s", f.BaseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("kraken fetch %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("kraken %s: %w (status %d)", symbol, ErrRateLimited, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("kraken %s: status %d, body: %s", symbol, resp.StatusCode, string(body))
	}

	var env krakenOHLC
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("kraken decode: %w", err)
	}
	if len(env.Error) > 0 {
		msg := strings.Join(env.Error, ", ")
		switch {
		case strings.Contains(msg, "Unknown asset pair"):
			return nil, fmt.Errorf("kraken %s: %w: %s", symbol, ErrNotFound, msg)
		case strings.Contains(msg, "Too many requests"), strings.Contains(msg, "Rate limit exceeded"):
			return nil, fmt.Errorf("kraken %s: %w: %s", symbol, ErrRateLimited, msg)
		default:
			return nil, fmt.Errorf("kraken api error: %s", msg)
		}
	}

	var rowsRaw json.RawMessage
	for key, raw := range env.Result {
		if key != "last" {
			rowsRaw = raw
			break
		}
	}
	if rowsRaw == nil {
		return nil, fmt.Errorf("kraken %s: invalid response format", symbol)
	}

	var rows [][]json.RawMessage
	if err := json.Unmarshal(rowsRaw, &rows); err != nil {
		return nil, fmt.Errorf("kraken decode rows: %w", err)
	}

	candles := make([]model.Candle, 0, len(rows))
	for _, row := range rows {
		c, err := parseKrakenRow(row)
		if err != nil {
			return nil, fmt.Errorf("kraken %s: %w", symbol, err)
		}
		if c.OpenTime.Before(start) || c.OpenTime.After(end) {
			continue
		}
		candles = append(candles, c)
	}

	sort.Slice(candles, func(i, j int) bool { return candles[i].OpenTime.Before(candles[j].OpenTime) })
	return candles, nil
}

// parseKrakenRow decodes [time, open, high, low, close, vwap, volume, count].
func parseKrakenRow(row []json.RawMessage) (model.Candle, error) {
	if len(row) < 7 {
		return model.Candle{}, fmt.Errorf("ohlc row has %d fields", len(row))
	}
	var ts int64
	if err := json.Unmarshal(row[0], &ts); err != nil {
		return model.Candle{}, fmt.Errorf("ohlc time: %w", err)
	}
	var vals [6]float64
	for i := range vals {
		v, err := decimalString(row[i+1])
		if err != nil {
			return model.Candle{}, err
		}
		vals[i] = v
	}
	return model.Candle{
		OpenTime: time.Unix(ts, 0).UTC(),
		Open:     vals[0],
		High:     vals[1],
		Low:      vals[2],
		Close:    vals[3],
		Volume:   vals[5],
	}, nil
}
