package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveRun("daily", "ok", 1)
	m.FetchError("binance", "not_found")
	m.Retry("binance")
	m.Candles(10)
	m.Transition("buy")
	m.SetHoldings(20, 3)
	m.MarkSuccess(1)
	m.NotifyFailed()
}

func TestCounters(t *testing.T) {
	m := NewMetrics()
	m.Transition("buy")
	m.Transition("buy")
	m.Transition("sell")
	m.Retry("kraken")
	m.SetHoldings(20, 4)

	if got := testutil.ToFloat64(m.TransitionsTotal.WithLabelValues("buy")); got != 2 {
		t.Errorf("expected 2 buys, got %v", got)
	}
	if got := testutil.ToFloat64(m.TransitionsTotal.WithLabelValues("sell")); got != 1 {
		t.Errorf("expected 1 sell, got %v", got)
	}
	if got := testutil.ToFloat64(m.RetriesTotal.WithLabelValues("kraken")); got != 1 {
		t.Errorf("expected 1 retry, got %v", got)
	}
	if got := testutil.ToFloat64(m.HeldCoins); got != 4 {
		t.Errorf("expected held gauge 4, got %v", got)
	}
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := NewMetrics()
	m.ObserveRun("daily", "ok", 2)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `coinsentinel_runs_total{job="daily",status="ok"} 1`) {
		t.Errorf("runs counter missing from exposition:\n%s", body)
	}
}
