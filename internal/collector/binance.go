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

const defaultBinanceURL = "https://api.binance.com"

// BinanceFetcher implements Fetcher using the Binance spot klines API.
type BinanceFetcher struct {
	BaseURL string
	APIKey  string
	Quote   string // quote asset appended to the symbol, USDT by default
	Client  *http.Client
}

// NewBinanceFetcher creates a new Binance fetcher with optional proxy support.
func NewBinanceFetcher(baseURL, apiKey, proxyURL string) *BinanceFetcher {
	if baseURL == "" {
		baseURL = defaultBinanceURL
	}
	return &BinanceFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Quote:   "USDT",
		Client:  newHTTPClient(proxyURL),
	}
}

func (f *BinanceFetcher) Name() string { return "binance" }

// binanceError is the error body Binance returns with 4xx responses.
type binanceError struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

func (f *BinanceFetcher) FetchDailyCandles(ctx context.Context, symbol string, start, end time.Time) ([]model.Candle, error) {
	params := url.Values{}
	params.Set("symbol", strings.ToUpper(symbol)+f.Quote)
	params.Set("interval", "1d")
	params.Set("startTime", strconv.FormatInt(start.UnixMilli(), 10))
	params.Set("endTime", strconv.FormatInt(end.UnixMilli(), 10))
	params.Set("limit", "1000")
	endpoint := fmt.Sprintf("%s/api/v3/klines?%s", f.BaseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if f.APIKey != "" {
		req.Header.Set("X-MBX-APIKEY", f.APIKey)
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("binance fetch %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("binance read body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusTeapot:
		return nil, fmt.Errorf("binance %s: %w (status %d)", symbol, ErrRateLimited, resp.StatusCode)
	case resp.StatusCode == http.StatusBadRequest:
		var be binanceError
		_ = json.Unmarshal(body, &be)
		return nil, fmt.Errorf("binance %s: %w: %s", symbol, ErrNotFound, be.Msg)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("binance %s: status %d, body: %s", symbol, resp.StatusCode, string(body))
	}

	var rows [][]json.RawMessage
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("binance decode: %w", err)
	}

	candles := make([]model.Candle, 0, len(rows))
	for _, row := range rows {
		c, err := parseKline(row)
		if err != nil {
			return nil, fmt.Errorf("binance %s: %w", symbol, err)
		}
		candles = append(candles, c)
	}

	sort.Slice(candles, func(i, j int) bool { return candles[i].OpenTime.Before(candles[j].OpenTime) })
	return candles, nil
}

// parseKline decodes [openTime, open, high, low, close, volume, ...].
func parseKline(row []json.RawMessage) (model.Candle, error) {
	if len(row) < 6 {
		return model.Candle{}, fmt.Errorf("kline has %d fields", len(row))
	}
	var openTime int64
	if err := json.Unmarshal(row[0], &openTime); err != nil {
		return model.Candle{}, fmt.Errorf("kline open time: %w", err)
	}
	vals := make([]float64, 5)
	for i := range vals {
		v, err := decimalString(row[i+1])
		if err != nil {
			return model.Candle{}, err
		}
		vals[i] = v
	}
	return model.Candle{
		OpenTime: time.UnixMilli(openTime).UTC(),
		Open:     vals[0],
		High:     vals[1],
		Low:      vals[2],
		Close:    vals[3],
		Volume:   vals[4],
	}, nil
}

// decimalString parses a JSON string holding a decimal number.
func decimalString(raw json.RawMessage) (float64, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("decode price field: %w", err)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse price %q: %w", s, err)
	}
	return v, nil
}
