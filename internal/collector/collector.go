package collector

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"CoinChart/internal/model"
	"CoinChart/internal/recorder"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price float64
	Days  int
	Rows  []model.PriceRow
	Err   error
	Now   func() time.Time
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDaily(_ context.Context) (*model.PriceTable, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Rows != nil {
		return model.NewPriceTable(m.Rows), nil
	}
	now := time.Now
	if m.Now != nil {
		now = m.Now
	}
	return model.NewPriceTable(generateMockRows(m.Price, m.Days, now())), nil
}

// generateMockRows builds count daily rows ending at today, newest first as
// the upstream API orders them.
func generateMockRows(basePrice float64, count int, today time.Time) []model.PriceRow {
	y, mo, d := today.UTC().Date()
	end := time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
	rows := make([]model.PriceRow, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64((count-i)%30-15)*0.004)
		rows[i] = model.PriceRow{
			Date:      end.AddDate(0, 0, -i),
			Open:      decimal.NewFromFloat(p * 0.995).RoundBank(2),
			High:      decimal.NewFromFloat(p * 1.01).RoundBank(2),
			Low:       decimal.NewFromFloat(p * 0.99).RoundBank(2),
			Close:     decimal.NewFromFloat(p).RoundBank(2),
			Volume:    decimal.NewFromFloat(25000 + float64(i%7)*1250).RoundBank(2),
			MarketCap: decimal.NewFromFloat(p * 19_500_000).RoundBank(2),
		}
	}
	return rows
}

// Collector performs the one startup fetch and logs what it loaded.
type Collector struct {
	Fetcher  Fetcher
	Symbol   string
	Market   string
	Recorder recorder.Recorder
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, symbol, market string, rec recorder.Recorder) *Collector {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Collector{Fetcher: fetcher, Symbol: symbol, Market: market, Recorder: rec}
}

// Collect fetches the daily series once. The returned table is never mutated.
func (c *Collector) Collect(ctx context.Context) (*model.PriceTable, error) {
	start := time.Now()
	table, err := c.Fetcher.FetchDaily(ctx)
	evt := &recorder.FetchEvent{
		Source:  c.Fetcher.Name(),
		Symbol:  c.Symbol,
		Market:  c.Market,
		Elapsed: time.Since(start),
	}
	if err != nil {
		evt.Error = err.Error()
		c.record(evt)
		return nil, fmt.Errorf("fetch %s/%s daily prices: %w", c.Symbol, c.Market, err)
	}

	evt.Rows = table.Len()
	if first, last, ok := table.Span(); ok {
		evt.FirstDate, evt.LastDate = first, last
		log.Printf("[INFO] loaded %d daily rows for %s/%s from %s (%s .. %s) in %v",
			table.Len(), c.Symbol, c.Market, c.Fetcher.Name(),
			first.Format("2006-01-02"), last.Format("2006-01-02"), evt.Elapsed.Round(time.Millisecond))
	}
	c.record(evt)
	return table, nil
}

func (c *Collector) record(evt *recorder.FetchEvent) {
	if err := c.Recorder.RecordFetch(evt); err != nil {
		log.Printf("[ERROR] record fetch: %v", err)
	}
}
