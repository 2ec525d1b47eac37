package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"time"

	"CoinChart/internal/chart"
	"CoinChart/internal/filter"
	"CoinChart/internal/model"
	"CoinChart/internal/recorder"
)

//go:embed templates/index.html
var templates embed.FS

var indexTmpl = template.Must(template.ParseFS(templates, "templates/index.html"))

// Options configures the dashboard server.
type Options struct {
	Addr          string
	Symbol        string
	Market        string
	Variant       filter.Variant
	DefaultPeriod filter.Period
	Layout        model.ChartLayout
	Recorder      recorder.Recorder
	Now           func() time.Time // defaults to time.Now
}

// Server serves the dashboard page and the chart endpoint over one
// read-only price table.
type Server struct {
	opts    Options
	table   *model.PriceTable
	initial []byte
	server  *http.Server
}

// NewServer renders the default-period chart once and prepares the page.
// table must not be modified after this call.
func NewServer(table *model.PriceTable, opts Options) (*Server, error) {
	if !opts.Variant.Valid() {
		return nil, fmt.Errorf("unknown variant %q", opts.Variant)
	}
	if !opts.Variant.Allows(opts.DefaultPeriod) {
		return nil, fmt.Errorf("%w: %q is not offered by variant %q", filter.ErrInvalidPeriod, opts.DefaultPeriod, opts.Variant)
	}
	if opts.Recorder == nil {
		opts.Recorder = recorder.NewNoopRecorder()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Server{opts: opts, table: table}
	s.server = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	fig, _, err := s.figure(opts.DefaultPeriod)
	if err != nil {
		return nil, fmt.Errorf("render default chart: %w", err)
	}
	s.initial, err = json.Marshal(fig)
	if err != nil {
		return nil, fmt.Errorf("encode default chart: %w", err)
	}
	return s, nil
}

// figure filters the table for p relative to today and renders it.
func (s *Server) figure(p filter.Period) (chart.Figure, int, error) {
	if !s.opts.Variant.Allows(p) {
		return chart.Figure{}, 0, fmt.Errorf("%w: %q is not offered", filter.ErrInvalidPeriod, p)
	}
	view, err := filter.FilterByPeriod(s.table, p, s.opts.Now())
	if err != nil {
		return chart.Figure{}, 0, err
	}
	return chart.NewFigure(chart.Render(view, s.opts.Layout)), view.Len(), nil
}

// Handler returns the routes of the dashboard.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/api/chart", s.handleChart)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

// Start starts the HTTP server. It blocks until the server stops.
func (s *Server) Start() error {
	log.Printf("[INFO] dashboard listening on http://%s", s.opts.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}
