package web

import (
	"encoding/json"
	"errors"
	"html/template"
	"log"
	"net/http"
	"time"

	"github.com/oklog/ulid/v2"

	"CoinChart/internal/chart"
	"CoinChart/internal/filter"
	"CoinChart/internal/recorder"
)

type periodOption struct {
	Value   string
	Label   string
	Checked bool
}

type indexData struct {
	Title    string
	Subtitle string
	Options  []periodOption
	Figure   template.JS
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// json.Marshal escapes <, > and &, so the figure is safe inside <script>.
	data := indexData{
		Title:    "$" + s.opts.Symbol + " price in " + s.opts.Market,
		Subtitle: "All times in UTC",
		Figure:   template.JS(s.initial),
	}
	for _, p := range s.opts.Variant.Options() {
		data.Options = append(data.Options, periodOption{
			Value:   string(p),
			Label:   p.Label(),
			Checked: p == s.opts.DefaultPeriod,
		})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTmpl.Execute(w, data); err != nil {
		log.Printf("[ERROR] render index: %v", err)
	}
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := ulid.Make().String()
	w.Header().Set("X-Request-Id", id)
	start := time.Now()

	raw := r.URL.Query().Get("period")
	period := s.opts.DefaultPeriod
	var err error
	if raw != "" {
		period, err = filter.ParsePeriod(raw)
	}

	evt := &recorder.RenderEvent{RequestID: id, Period: string(period)}
	if err != nil {
		evt.Period = raw
	}
	defer func() {
		evt.Elapsed = time.Since(start)
		if rerr := s.opts.Recorder.RecordRender(evt); rerr != nil {
			log.Printf("[ERROR] record render %s: %v", id, rerr)
		}
	}()

	var fig chart.Figure
	if err == nil {
		fig, evt.Rows, err = s.figure(period)
	}
	if err != nil {
		evt.Error = err.Error()
		status := http.StatusInternalServerError
		if errors.Is(err, filter.ErrInvalidPeriod) {
			status = http.StatusBadRequest
		}
		log.Printf("[WARN] chart %s period=%q: %v", id, raw, err)
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}

	log.Printf("[INFO] chart %s period=%s rows=%d", id, period, evt.Rows)
	writeJSON(w, http.StatusOK, fig)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resp := map[string]any{
		"status":  "healthy",
		"rows":    s.table.Len(),
		"variant": s.opts.Variant,
	}
	if first, last, ok := s.table.Span(); ok {
		resp["first"] = first.Format("2006-01-02")
		resp["last"] = last.Format("2006-01-02")
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[ERROR] encode response: %v", err)
	}
}
