package marketdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Jakob-KB/financial-market-correlation-topology/pkg/config"
	"github.com/Jakob-KB/financial-market-correlation-topology/pkg/logger"
)

const sampleCSV = `Date,Open,High,Low,Close,Volume
2023-01-03,130.28,130.90,124.17,125.07,112117500
2023-01-04,126.89,128.66,125.08,126.36,89113600
2023-01-05,127.13,127.77,124.76,125.02,80962700
`

func testClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	cfg := &config.Config{
		MarketData: config.MarketDataConfig{
			BaseURL:        serverURL,
			SymbolsURL:     serverURL + "/sp500",
			RequestsPerSec: 1000,
			Timeout:        5 * time.Second,
		},
	}
	return NewClient(cfg, logger.NewNop())
}

func TestFetchHistory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("s"); got != "aapl.us" {
			t.Errorf("symbol query = %q, want aapl.us", got)
		}
		_, _ = w.Write([]byte(sampleCSV))
	}))
	defer server.Close()

	client := testClient(t, server.URL)
	from := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC)

	history, err := client.FetchHistory(context.Background(), "AAPL", from, to)
	if err != nil {
		t.Fatalf("FetchHistory() returned error: %v", err)
	}

	if history.Symbol != "AAPL" {
		t.Errorf("Symbol = %s, want AAPL", history.Symbol)
	}
	if len(history.Bars) != 3 {
		t.Fatalf("got %d bars, want 3", len(history.Bars))
	}
	wantClose := decimal.RequireFromString("125.07")
	if !history.Bars[0].Close.Equal(wantClose) {
		t.Errorf("first close = %s, want %s", history.Bars[0].Close, wantClose)
	}
	if history.Bars[0].Volume != 112117500 {
		t.Errorf("first volume = %d, want 112117500", history.Bars[0].Volume)
	}
}

func TestFetchHistory_MalformedCSV(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing close column", "Date,Open\n2023-01-03,130.28\n"},
		{"bad date", "Date,Close\nnot-a-date,125.07\n"},
		{"bad close", "Date,Close\n2023-01-03,not-a-number\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := testClient(t, server.URL)
			_, err := client.FetchHistory(context.Background(), "AAPL", time.Now().AddDate(0, -1, 0), time.Now())
			if err == nil {
				t.Error("FetchHistory() should reject malformed data instead of coercing it")
			}
		})
	}
}

func TestFetchHistoryBatch_SkipsFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("s") == "bad.us" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(sampleCSV))
	}))
	defer server.Close()

	client := testClient(t, server.URL)
	histories, err := client.FetchHistoryBatch(context.Background(),
		[]string{"AAPL", "BAD", "MSFT"},
		time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("FetchHistoryBatch() returned error: %v", err)
	}
	if len(histories) != 2 {
		t.Errorf("got %d histories, want 2 (failed symbol skipped)", len(histories))
	}
}

func TestToPriceSeries(t *testing.T) {
	history := &History{
		Symbol: "AAPL",
		Bars: []Bar{
			{Date: time.Date(2023, 1, 3, 0, 0, 0, 0, time.UTC), Close: decimal.RequireFromString("125.07")},
			{Date: time.Date(2023, 1, 4, 0, 0, 0, 0, time.UTC), Close: decimal.RequireFromString("126.36")},
		},
	}

	series := history.ToPriceSeries()
	if series.Symbol != "AAPL" {
		t.Errorf("Symbol = %s, want AAPL", series.Symbol)
	}
	if series.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", series.Len())
	}
	if series.Points[0].Close != 125.07 {
		t.Errorf("first close = %v, want 125.07", series.Points[0].Close)
	}
}

func TestFetchIndexSymbols(t *testing.T) {
	page := `<html><body><table><tbody>
		<tr><td>1</td><td>Apple</td><td><a href="/symbol/AAPL">AAPL</a></td></tr>
		<tr><td>2</td><td>Microsoft</td><td><a href="/symbol/MSFT">MSFT</a></td></tr>
		<tr><td>3</td><td>Apple again</td><td><a href="/symbol/AAPL">AAPL</a></td></tr>
	</tbody></table></body></html>`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(page))
	}))
	defer server.Close()

	cfg := &config.Config{
		MarketData: config.MarketDataConfig{
			BaseURL:        server.URL,
			SymbolsURL:     server.URL,
			RequestsPerSec: 1000,
			Timeout:        5 * time.Second,
		},
	}
	client := NewClient(cfg, logger.NewNop())

	symbols, err := client.FetchIndexSymbols(context.Background())
	if err != nil {
		t.Fatalf("FetchIndexSymbols() returned error: %v", err)
	}
	if len(symbols) != 2 {
		t.Fatalf("got %d symbols, want 2 (duplicates collapsed): %v", len(symbols), symbols)
	}
	if symbols[0] != "AAPL" || symbols[1] != "MSFT" {
		t.Errorf("symbols = %v, want [AAPL MSFT]", symbols)
	}
}

func TestSanitizeTicker(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"AAPL", "AAPL"},
		{" brk.b ", "BRK.B"},
		{"BF-B", "BF-B"},
		{"not a ticker", ""},
		{"TOOLONGNAME", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := sanitizeTicker(tt.in); got != tt.want {
			t.Errorf("sanitizeTicker(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
