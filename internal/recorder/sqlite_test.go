package recorder

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestRecorder(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "coinchart.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	r.now = func() time.Time { return time.Unix(1_700_000_000, 0) }
	return r
}

func TestSQLiteRecorder_Fetch(t *testing.T) {
	r := newTestRecorder(t)

	require.NoError(t, r.RecordFetch(&FetchEvent{
		Source:    "alphavantage",
		Symbol:    "BTC",
		Market:    "USD",
		Rows:      1000,
		FirstDate: time.Date(2021, 4, 1, 0, 0, 0, 0, time.UTC),
		LastDate:  time.Date(2023, 12, 26, 0, 0, 0, 0, time.UTC),
		Elapsed:   1500 * time.Millisecond,
	}))
	require.NoError(t, r.RecordFetch(&FetchEvent{Source: "alphavantage", Error: "rate limited"}))

	var (
		ts        int64
		rows      int
		first     string
		elapsedMS int64
	)
	err := r.db.QueryRow(`SELECT timestamp, row_count, first_date, elapsed_ms
		FROM fetch_events ORDER BY id LIMIT 1`).Scan(&ts, &rows, &first, &elapsedMS)
	require.NoError(t, err)
	require.Equal(t, int64(1_700_000_000), ts)
	require.Equal(t, 1000, rows)
	require.Equal(t, "2021-04-01", first)
	require.Equal(t, int64(1500), elapsedMS)

	var failed string
	err = r.db.QueryRow(`SELECT error FROM fetch_events ORDER BY id DESC LIMIT 1`).Scan(&failed)
	require.NoError(t, err)
	require.Equal(t, "rate limited", failed)
}

func TestSQLiteRecorder_RenderAndSummary(t *testing.T) {
	r := newTestRecorder(t)

	for _, p := range []string{"6m", "1w", "ytd"} {
		require.NoError(t, r.RecordRender(&RenderEvent{RequestID: "01HZ" + p, Period: p, Rows: 7}))
	}
	require.NoError(t, r.RecordSummary(&DailySummary{
		Rows:     3,
		LastDate: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		Close:    45123.45,
	}))

	var n int
	require.NoError(t, r.db.QueryRow(`SELECT COUNT(*) FROM render_events`).Scan(&n))
	require.Equal(t, 3, n)

	var (
		last       string
		first      string
		closePrice float64
	)
	err := r.db.QueryRow(`SELECT first_date, last_date, close FROM daily_summaries`).Scan(&first, &last, &closePrice)
	require.NoError(t, err)
	require.Equal(t, "", first)
	require.Equal(t, "2024-01-02", last)
	require.InDelta(t, 45123.45, closePrice, 1e-9)
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	require.NoError(t, r.RecordFetch(&FetchEvent{}))
	require.NoError(t, r.RecordRender(&RenderEvent{}))
	require.NoError(t, r.RecordSummary(&DailySummary{}))
	require.NoError(t, r.Close())
}
