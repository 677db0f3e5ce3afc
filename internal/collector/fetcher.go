package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"CoinSentinel/internal/model"
)

var (
	// ErrRateLimited is returned when the exchange asks the client to back off.
	ErrRateLimited = errors.New("rate limited")
	// ErrNotFound is returned when the exchange does not list the symbol.
	ErrNotFound = errors.New("symbol not found")
)

// Fetcher defines the interface for fetching daily candles.
type Fetcher interface {
	// FetchDailyCandles returns the daily candles opening within [start, end], oldest first.
	FetchDailyCandles(ctx context.Context, symbol string, start, end time.Time) ([]model.Candle, error)
	Name() string
}

// NewFetcher returns the fetcher for the named exchange ("binance" or "kraken").
func NewFetcher(source, baseURL, apiKey, proxyURL string) (Fetcher, error) {
	switch source {
	case "binance":
		return NewBinanceFetcher(baseURL, apiKey, proxyURL), nil
	case "kraken":
		return NewKrakenFetcher(baseURL, proxyURL), nil
	default:
		return nil, fmt.Errorf("unknown exchange %q", source)
	}
}

// newHTTPClient returns a client with a 30s timeout and an optional proxy.
func newHTTPClient(proxyURL string) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
	}
}
