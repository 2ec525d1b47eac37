package recorder

import "time"

// FetchEvent records the startup load of the price table.
type FetchEvent struct {
	Source    string
	Symbol    string
	Market    string
	Rows      int
	FirstDate time.Time
	LastDate  time.Time
	Elapsed   time.Duration
	Error     string // empty on success
}

// RenderEvent records one chart request.
type RenderEvent struct {
	RequestID string
	Period    string
	Rows      int
	Elapsed   time.Duration
	Error     string
}

// DailySummary is a snapshot of the cached table taken by the scheduler.
type DailySummary struct {
	Rows      int
	FirstDate time.Time
	LastDate  time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// Recorder persists historical data for analysis.
type Recorder interface {
	RecordFetch(evt *FetchEvent) error
	RecordRender(evt *RenderEvent) error
	RecordSummary(s *DailySummary) error
	Close() error
}
