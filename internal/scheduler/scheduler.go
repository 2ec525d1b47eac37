package scheduler

import (
	"fmt"
	"log"

	"github.com/robfig/cron/v3"

	"CoinChart/internal/model"
	"CoinChart/internal/recorder"
)

// Scheduler manages the cron tasks that report on the cached table.
// It only reads the table; nothing here re-fetches market data.
type Scheduler struct {
	Cron     *cron.Cron
	Table    *model.PriceTable
	Recorder recorder.Recorder
}

// NewScheduler creates a new Scheduler.
func NewScheduler(table *model.PriceTable, rec recorder.Recorder) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Table:    table,
		Recorder: rec,
	}
}

// RegisterAll registers the daily summary task.
func (s *Scheduler) RegisterAll(summaryCron string) error {
	if _, err := s.Cron.AddFunc(summaryCron, s.summaryTask); err != nil {
		return fmt.Errorf("register summary task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for a running task to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunSummaryNow executes the summary task immediately (RUN_ON_START).
func (s *Scheduler) RunSummaryNow() {
	s.summaryTask()
}

// Summarize builds a snapshot of the latest row and the table's date span.
func Summarize(table *model.PriceTable) (*recorder.DailySummary, bool) {
	latest, ok := table.Latest()
	if !ok {
		return nil, false
	}
	first, last, _ := table.Span()
	return &recorder.DailySummary{
		Rows:      table.Len(),
		FirstDate: first,
		LastDate:  last,
		Open:      latest.Open.InexactFloat64(),
		High:      latest.High.InexactFloat64(),
		Low:       latest.Low.InexactFloat64(),
		Close:     latest.Close.InexactFloat64(),
		Volume:    latest.Volume.InexactFloat64(),
	}, true
}

func (s *Scheduler) summaryTask() {
	log.Println("[INFO] running daily summary")
	sum, ok := Summarize(s.Table)
	if !ok {
		log.Println("[WARN] daily summary skipped: price table is empty")
		return
	}
	log.Printf("[INFO] %d rows, latest %s close %.2f", sum.Rows, sum.LastDate.Format("2006-01-02"), sum.Close)
	if err := s.Recorder.RecordSummary(sum); err != nil {
		log.Printf("[ERROR] record summary: %v", err)
	}
}
