package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"CoinChart/internal/chart"
	"CoinChart/internal/collector"
	"CoinChart/internal/config"
	"CoinChart/internal/model"
	"CoinChart/internal/recorder"
	"CoinChart/internal/scheduler"
	"CoinChart/internal/web"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] CoinChart starting...")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.SQLitePath), 0o755); err != nil {
			log.Printf("[WARN] create sqlite dir: %v", err)
		}
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Init fetcher
	var fetcher collector.Fetcher
	switch cfg.DataSource.Provider {
	case config.ProviderMock:
		fetcher = &collector.MockFetcher{Price: 60000, Days: 1000}
	default:
		av := collector.NewAlphaVantageFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey,
			cfg.DataSource.Symbol, cfg.DataSource.Market, cfg.Proxy)
		av.MarketCap = cfg.Variant().TracksMarketCap()
		fetcher = av
	}
	log.Printf("[INFO] data source: %s", fetcher.Name())

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The table is loaded exactly once; without it there is nothing to serve.
	col := collector.NewCollector(fetcher, cfg.DataSource.Symbol, cfg.DataSource.Market, rec)
	table, err := col.Collect(ctx)
	if err != nil {
		rec.Close()
		log.Fatalf("[FATAL] %v", err)
	}

	// Init scheduler
	sched := scheduler.NewScheduler(table, rec)
	if err := sched.RegisterAll(cfg.Schedule.SummaryCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, writing daily summary now")
		go sched.RunSummaryNow()
	}

	// Init web server
	srv, err := web.NewServer(table, web.Options{
		Addr:          cfg.Addr(),
		Symbol:        cfg.DataSource.Symbol,
		Market:        cfg.DataSource.Market,
		Variant:       cfg.Variant(),
		DefaultPeriod: cfg.DefaultPeriod(),
		Layout: model.ChartLayout{
			Height:      cfg.Chart.Height,
			RangeSlider: chart.DefaultLayout.RangeSlider,
			Background:  cfg.Chart.Background,
		},
		Recorder: rec,
	})
	if err != nil {
		log.Fatalf("[FATAL] init web server: %v", err)
	}

	go func() {
		if err := srv.Start(); err != nil {
			log.Printf("[ERROR] web server: %v", err)
			cancel()
		}
	}()

	log.Println("[INFO] CoinChart is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		log.Println("[INFO] shutdown signal received, stopping...")
	case <-ctx.Done():
	}

	if err := srv.Shutdown(context.Background()); err != nil {
		log.Printf("[ERROR] shutdown web server: %v", err)
	}
	log.Println("[INFO] CoinChart stopped")
}
