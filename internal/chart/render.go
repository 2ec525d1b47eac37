package chart

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"CoinChart/internal/model"
)

// DefaultLayout matches the dashboard's fixed chart presentation.
var DefaultLayout = model.ChartLayout{
	Height:      600,
	RangeSlider: false,
	Background:  "#cccccc",
}

// Render maps a table into a candlestick description. It is pure: the same
// table and layout always produce an equal ChartSpec.
func Render(table *model.PriceTable, layout model.ChartLayout) model.ChartSpec {
	n := table.Len()
	spec := model.ChartSpec{
		X:      make([]time.Time, n),
		Open:   make([]decimal.Decimal, n),
		High:   make([]decimal.Decimal, n),
		Low:    make([]decimal.Decimal, n),
		Close:  make([]decimal.Decimal, n),
		Layout: layout,
	}
	for i := 0; i < n; i++ {
		r := table.Row(i)
		spec.X[i] = r.Date
		spec.Open[i] = r.Open
		spec.High[i] = r.High
		spec.Low[i] = r.Low
		spec.Close[i] = r.Close
	}
	return spec
}

// Figure is a Plotly figure document.
type Figure struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

// Trace is one candlestick trace.
type Trace struct {
	Type  string        `json:"type"`
	X     []string      `json:"x"`
	Open  []json.Number `json:"open"`
	High  []json.Number `json:"high"`
	Low   []json.Number `json:"low"`
	Close []json.Number `json:"close"`
}

type Layout struct {
	Height      int    `json:"height"`
	XAxis       XAxis  `json:"xaxis"`
	PlotBGColor string `json:"plot_bgcolor"`
}

type XAxis struct {
	RangeSlider RangeSlider `json:"rangeslider"`
}

type RangeSlider struct {
	Visible bool `json:"visible"`
}

// NewFigure converts spec into the document the page hands to Plotly.
// Decimals are emitted as JSON numbers and dates as YYYY-MM-DD.
func NewFigure(spec model.ChartSpec) Figure {
	tr := Trace{
		Type:  "candlestick",
		X:     make([]string, len(spec.X)),
		Open:  numbers(spec.Open),
		High:  numbers(spec.High),
		Low:   numbers(spec.Low),
		Close: numbers(spec.Close),
	}
	for i, d := range spec.X {
		tr.X[i] = d.Format("2006-01-02")
	}
	return Figure{
		Data: []Trace{tr},
		Layout: Layout{
			Height:      spec.Layout.Height,
			XAxis:       XAxis{RangeSlider: RangeSlider{Visible: spec.Layout.RangeSlider}},
			PlotBGColor: spec.Layout.Background,
		},
	}
}

func numbers(ds []decimal.Decimal) []json.Number {
	out := make([]json.Number, len(ds))
	for i, d := range ds {
		out[i] = json.Number(d.StringFixed(2))
	}
	return out
}
