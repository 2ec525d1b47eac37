package collector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"CoinChart/internal/model"
)

const (
	// DefaultBaseURL is the public Alpha Vantage endpoint.
	DefaultBaseURL = "https://www.alphavantage.co"

	seriesKey  = "Time Series (Digital Currency Daily)"
	dateLayout = "2006-01-02"
	maxErrBody = 512
)

// Alpha Vantage answers rate limits and bad keys with 200 and one of these keys.
var notices = []string{"Error Message", "Note", "Information"}

// AlphaVantageFetcher implements Fetcher using the DIGITAL_CURRENCY_DAILY function.
type AlphaVantageFetcher struct {
	BaseURL   string
	APIKey    string
	Symbol    string
	Market    string
	MarketCap bool // also consume the market cap column
	Client    *http.Client
}

// NewAlphaVantageFetcher creates a new fetcher with optional proxy support.
func NewAlphaVantageFetcher(baseURL, apiKey, symbol, market, proxyURL string) *AlphaVantageFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &AlphaVantageFetcher{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Symbol:  symbol,
		Market:  market,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

func (f *AlphaVantageFetcher) Name() string { return "alphavantage" }

func (f *AlphaVantageFetcher) endpoint() (string, error) {
	u, err := url.Parse(f.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/query"
	q := u.Query()
	q.Set("function", "DIGITAL_CURRENCY_DAILY")
	q.Set("symbol", f.Symbol)
	q.Set("market", f.Market)
	q.Set("apikey", f.APIKey)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// FetchDaily issues one request and parses the whole daily series.
func (f *AlphaVantageFetcher) FetchDaily(ctx context.Context) (*model.PriceTable, error) {
	endpoint, err := f.endpoint()
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrNetwork, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d, body: %s", ErrNetwork, resp.StatusCode, truncate(body))
	}
	return ParseDaily(body, f.MarketCap)
}

// ParseDaily converts a DIGITAL_CURRENCY_DAILY payload into a table whose
// rows follow the document order of the series object.
func ParseDaily(body []byte, withMarketCap bool) (*model.PriceTable, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: body is not valid JSON: %s", ErrMalformedResponse, truncate(body))
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return nil, fmt.Errorf("%w: top level is not an object", ErrMalformedResponse)
	}

	series := member(root, seriesKey)
	if !series.Exists() {
		for _, k := range notices {
			if n := member(root, k); n.Exists() {
				return nil, fmt.Errorf("%w: missing %q: %s", ErrMalformedResponse, seriesKey, n.String())
			}
		}
		return nil, fmt.Errorf("%w: missing %q", ErrMalformedResponse, seriesKey)
	}
	if !series.IsObject() {
		return nil, fmt.Errorf("%w: %q is not an object", ErrMalformedResponse, seriesKey)
	}

	var (
		rows   []model.PriceRow
		rowErr error
	)
	series.ForEach(func(key, value gjson.Result) bool {
		r, err := parseRow(key.String(), value, withMarketCap)
		if err != nil {
			rowErr = err
			return false
		}
		rows = append(rows, r)
		return true
	})
	if rowErr != nil {
		return nil, rowErr
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: empty time series", ErrMalformedResponse)
	}
	return model.NewPriceTable(rows), nil
}

func parseRow(date string, fields gjson.Result, withMarketCap bool) (model.PriceRow, error) {
	d, err := time.ParseInLocation(dateLayout, date, time.UTC)
	if err != nil {
		return model.PriceRow{}, fmt.Errorf("%w: bad date %q", ErrMalformedResponse, date)
	}
	if !fields.IsObject() {
		return model.PriceRow{}, fmt.Errorf("%w: %s: entry is not an object", ErrMalformedResponse, date)
	}

	type pick struct {
		raw  string
		rank int
	}
	picked := map[string]pick{}
	fields.ForEach(func(key, value gjson.Result) bool {
		name, rank := fieldName(key.String())
		if prev, ok := picked[name]; !ok || rank < prev.rank {
			picked[name] = pick{raw: value.String(), rank: rank}
		}
		return true
	})

	row := model.PriceRow{Date: d}
	columns := []struct {
		name string
		dst  *decimal.Decimal
	}{
		{"open", &row.Open},
		{"high", &row.High},
		{"low", &row.Low},
		{"close", &row.Close},
		{"volume", &row.Volume},
	}
	if withMarketCap {
		columns = append(columns, struct {
			name string
			dst  *decimal.Decimal
		}{"market cap", &row.MarketCap})
	}
	for _, c := range columns {
		p, ok := picked[c.name]
		if !ok {
			return model.PriceRow{}, fmt.Errorf("%w: %s: missing field %q", ErrMalformedResponse, date, c.name)
		}
		v, err := decimal.NewFromString(strings.TrimSpace(p.raw))
		if err != nil {
			return model.PriceRow{}, fmt.Errorf("%w: %s: field %q: %v", ErrMalformedResponse, date, c.name, err)
		}
		if v.IsNegative() {
			return model.PriceRow{}, fmt.Errorf("%w: %s: field %q is negative", ErrMalformedResponse, date, c.name)
		}
		*c.dst = v.RoundBank(2)
	}
	return row, nil
}

// fieldName maps keys such as "1. open", "1a. open (USD)" or
// "6. market cap (USD)" to their bare column name. Rank 0 is the primary
// field; "b" and later letters are the secondary per-currency duplicates.
func fieldName(key string) (name string, rank int) {
	prefix, rest, found := strings.Cut(key, ". ")
	if !found {
		rest, prefix = key, ""
	}
	if i := strings.LastIndex(rest, " ("); i >= 0 && strings.HasSuffix(rest, ")") {
		rest = rest[:i]
	}
	letters := strings.TrimLeft(prefix, "0123456789")
	if letters != "" && letters != "a" {
		rank = 1
	}
	return strings.ToLower(strings.TrimSpace(rest)), rank
}

// member looks up a top-level key without gjson path syntax, since the
// series key contains spaces and parentheses.
func member(obj gjson.Result, key string) gjson.Result {
	var out gjson.Result
	obj.ForEach(func(k, v gjson.Result) bool {
		if k.String() == key {
			out = v
			return false
		}
		return true
	})
	return out
}

func truncate(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > maxErrBody {
		return s[:maxErrBody] + "..."
	}
	return s
}
