package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ChartLayout holds the fixed presentation options of the candlestick chart.
type ChartLayout struct {
	Height      int
	RangeSlider bool
	Background  string
}

// ChartSpec describes one candlestick chart. Index i of every series
// corresponds to the same source row.
type ChartSpec struct {
	X      []time.Time
	Open   []decimal.Decimal
	High   []decimal.Decimal
	Low    []decimal.Decimal
	Close  []decimal.Decimal
	Layout ChartLayout
}
