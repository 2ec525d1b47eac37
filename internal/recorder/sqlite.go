package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists historical data to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	now func() time.Time
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets dashboards read while the server writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, now: time.Now}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS fetch_events (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp  INTEGER NOT NULL,
			source     TEXT,
			symbol     TEXT,
			market     TEXT,
			row_count  INTEGER,
			first_date TEXT,
			last_date  TEXT,
			elapsed_ms INTEGER,
			error      TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_fetch_ts ON fetch_events(timestamp)`,

		`CREATE TABLE IF NOT EXISTS render_events (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp  INTEGER NOT NULL,
			request_id TEXT,
			period     TEXT,
			row_count  INTEGER,
			elapsed_us INTEGER,
			error      TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_render_ts ON render_events(timestamp)`,

		`CREATE TABLE IF NOT EXISTS daily_summaries (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp  INTEGER NOT NULL,
			row_count  INTEGER,
			first_date TEXT,
			last_date  TEXT,
			open       REAL,
			high       REAL,
			low        REAL,
			close      REAL,
			volume     REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_summary_ts ON daily_summaries(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func (r *SQLiteRecorder) RecordFetch(evt *FetchEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO fetch_events
		(timestamp, source, symbol, market, row_count, first_date, last_date, elapsed_ms, error)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		r.now().Unix(), evt.Source, evt.Symbol, evt.Market, evt.Rows,
		formatDate(evt.FirstDate), formatDate(evt.LastDate),
		evt.Elapsed.Milliseconds(), evt.Error,
	)
	return err
}

func (r *SQLiteRecorder) RecordRender(evt *RenderEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO render_events
		(timestamp, request_id, period, row_count, elapsed_us, error)
		VALUES (?,?,?,?,?,?)`,
		r.now().Unix(), evt.RequestID, evt.Period, evt.Rows,
		evt.Elapsed.Microseconds(), evt.Error,
	)
	return err
}

func (r *SQLiteRecorder) RecordSummary(s *DailySummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO daily_summaries
		(timestamp, row_count, first_date, last_date, open, high, low, close, volume)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		r.now().Unix(), s.Rows, formatDate(s.FirstDate), formatDate(s.LastDate),
		s.Open, s.High, s.Low, s.Close, s.Volume,
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
