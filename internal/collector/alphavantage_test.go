package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// Current upstream shape: one numbered field per column.
const dailyPayload = `{
  "Meta Data": {
    "1. Information": "Daily Prices and Volumes for Digital Currency",
    "2. Digital Currency Code": "BTC",
    "4. Market Code": "USD"
  },
  "Time Series (Digital Currency Daily)": {
    "2024-01-03": {
      "1. open": "45000.555",
      "2. high": "45500.104",
      "3. low": "42000.00",
      "4. close": "42850.125",
      "5. volume": "2345.6789"
    },
    "2024-01-01": {
      "1. open": "42280.23",
      "2. high": "44180.0",
      "3. low": "42175.99",
      "4. close": "44179.55",
      "5. volume": "1000"
    },
    "2024-01-02": {
      "1. open": "44179.55",
      "2. high": "45879.63",
      "3. low": "44148.34",
      "4. close": "44946.91",
      "5. volume": "1800.5"
    }
  }
}`

// Older upstream shape: "a" fields in the requested market, "b" duplicates
// in USD, plus market cap.
const legacyPayload = `{
  "Time Series (Digital Currency Daily)": {
    "2023-06-02": {
      "1a. open (EUR)": "25100.111",
      "1b. open (USD)": "27000.00",
      "2a. high (EUR)": "25400.00",
      "2b. high (USD)": "27300.00",
      "3a. low (EUR)": "24900.00",
      "3b. low (USD)": "26800.00",
      "4a. close (EUR)": "25300.499",
      "4b. close (USD)": "27200.00",
      "5. volume": "31000.2",
      "6. market cap (USD)": "31000.2"
    }
  }
}`

func TestParseDaily_PreservesDocumentOrderAndRounds(t *testing.T) {
	table, err := ParseDaily([]byte(dailyPayload), false)
	require.NoError(t, err)
	require.Equal(t, 3, table.Len())

	require.Equal(t, time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), table.Row(0).Date)
	require.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), table.Row(1).Date)
	require.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), table.Row(2).Date)

	r := table.Row(0)
	require.Equal(t, "45000.56", r.Open.StringFixed(2))
	require.Equal(t, "45500.1", r.High.String())
	require.Equal(t, "42850.12", r.Close.StringFixed(2)) // half to even
	require.Equal(t, "2345.68", r.Volume.StringFixed(2))
	require.True(t, r.MarketCap.IsZero())

	for _, row := range table.Rows() {
		for _, v := range []decimal.Decimal{row.Open, row.High, row.Low, row.Close, row.Volume} {
			require.LessOrEqual(t, -v.Exponent(), int32(2), "value %s has more than 2 decimals", v)
		}
	}
}

func TestParseDaily_LegacyFieldsAndMarketCap(t *testing.T) {
	table, err := ParseDaily([]byte(legacyPayload), true)
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())

	r := table.Row(0)
	require.Equal(t, "25100.11", r.Open.StringFixed(2))
	require.Equal(t, "25400", r.High.String())
	require.Equal(t, "25300.5", r.Close.String())
	require.Equal(t, "31000.2", r.MarketCap.String())
}

func TestParseDaily_Malformed(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"not json", `<html>oops</html>`, "not valid JSON"},
		{"array", `[1,2]`, "not an object"},
		{"rate limit note", `{"Note": "Thank you for using Alpha Vantage! Our standard API call frequency is 5 calls per minute."}`, "call frequency"},
		{"bad key", `{"Error Message": "Invalid API call."}`, "Invalid API call"},
		{"missing series", `{"Meta Data": {}}`, "missing"},
		{"empty series", `{"Time Series (Digital Currency Daily)": {}}`, "empty time series"},
		{"bad date", `{"Time Series (Digital Currency Daily)": {"yesterday": {}}}`, "bad date"},
		{"missing close", `{"Time Series (Digital Currency Daily)": {"2024-01-01": {"1. open": "1", "2. high": "1", "3. low": "1", "5. volume": "1"}}}`, `missing field "close"`},
		{"bad number", `{"Time Series (Digital Currency Daily)": {"2024-01-01": {"1. open": "abc", "2. high": "1", "3. low": "1", "4. close": "1", "5. volume": "1"}}}`, `field "open"`},
		{"negative", `{"Time Series (Digital Currency Daily)": {"2024-01-01": {"1. open": "1", "2. high": "1", "3. low": "-1", "4. close": "1", "5. volume": "1"}}}`, "negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDaily([]byte(tt.body), false)
			require.ErrorIs(t, err, ErrMalformedResponse)
			require.Contains(t, err.Error(), tt.want)
		})
	}

	_, err := ParseDaily([]byte(dailyPayload), true)
	require.ErrorIs(t, err, ErrMalformedResponse)
	require.Contains(t, err.Error(), "market cap")
}

func TestFieldName(t *testing.T) {
	tests := []struct {
		key  string
		name string
		rank int
	}{
		{"1. open", "open", 0},
		{"1a. open (USD)", "open", 0},
		{"1b. open (USD)", "open", 1},
		{"5. volume", "volume", 0},
		{"6. market cap (USD)", "market cap", 0},
		{"close", "close", 0},
	}
	for _, tt := range tests {
		name, rank := fieldName(tt.key)
		require.Equal(t, tt.name, name, tt.key)
		require.Equal(t, tt.rank, rank, tt.key)
	}
}

func TestAlphaVantageFetcher_FetchDaily(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/query", r.URL.Path)
		require.Equal(t, "DIGITAL_CURRENCY_DAILY", r.URL.Query().Get("function"))
		require.Equal(t, "BTC", r.URL.Query().Get("symbol"))
		require.Equal(t, "USD", r.URL.Query().Get("market"))
		require.Equal(t, "secret", r.URL.Query().Get("apikey"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(dailyPayload))
	}))
	defer srv.Close()

	f := NewAlphaVantageFetcher(srv.URL, "secret", "BTC", "USD", "")
	require.Equal(t, "alphavantage", f.Name())

	table, err := f.FetchDaily(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, table.Len())
}

func TestAlphaVantageFetcher_Errors(t *testing.T) {
	t.Parallel()

	t.Run("status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "upstream down", http.StatusBadGateway)
		}))
		defer srv.Close()

		_, err := NewAlphaVantageFetcher(srv.URL, "k", "BTC", "USD", "").FetchDaily(context.Background())
		require.ErrorIs(t, err, ErrNetwork)
		require.Contains(t, err.Error(), "status 502")
	})

	t.Run("connection refused", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		addr := srv.URL
		srv.Close()

		_, err := NewAlphaVantageFetcher(addr, "k", "BTC", "USD", "").FetchDaily(context.Background())
		require.ErrorIs(t, err, ErrNetwork)
	})

	t.Run("rate limited", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"Information": "rate limit reached"}`))
		}))
		defer srv.Close()

		_, err := NewAlphaVantageFetcher(srv.URL, "k", "BTC", "USD", "").FetchDaily(context.Background())
		require.ErrorIs(t, err, ErrMalformedResponse)
		require.Contains(t, err.Error(), "rate limit reached")
	})
}
