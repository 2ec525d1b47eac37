package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceRow is one trading day of a digital-currency daily series.
type PriceRow struct {
	Date      time.Time // UTC midnight
	Open      decimal.Decimal
	High      decimal.Decimal
	Low       decimal.Decimal
	Close     decimal.Decimal
	Volume    decimal.Decimal
	MarketCap decimal.Decimal // zero unless the source reports it
}

// PriceTable is an ordered, read-only sequence of daily rows.
// It is built once and never mutated; every derived view is a new table.
type PriceTable struct {
	rows []PriceRow
}

// NewPriceTable copies rows into a new table, keeping their order.
func NewPriceTable(rows []PriceRow) *PriceTable {
	cp := make([]PriceRow, len(rows))
	copy(cp, rows)
	return &PriceTable{rows: cp}
}

// Len returns the number of rows.
func (t *PriceTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// Row returns the i-th row.
func (t *PriceTable) Row(i int) PriceRow { return t.rows[i] }

// Rows returns a copy of all rows in order.
func (t *PriceTable) Rows() []PriceRow {
	cp := make([]PriceRow, t.Len())
	if t != nil {
		copy(cp, t.rows)
	}
	return cp
}

// Filter returns a new table holding the rows that satisfy keep, in order.
func (t *PriceTable) Filter(keep func(PriceRow) bool) *PriceTable {
	out := make([]PriceRow, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		if keep(t.rows[i]) {
			out = append(out, t.rows[i])
		}
	}
	return &PriceTable{rows: out}
}

// Span returns the earliest and latest dates in the table.
// Rows are in API order, which is not guaranteed to be chronological.
func (t *PriceTable) Span() (first, last time.Time, ok bool) {
	if t.Len() == 0 {
		return time.Time{}, time.Time{}, false
	}
	first, last = t.rows[0].Date, t.rows[0].Date
	for _, r := range t.rows[1:] {
		if r.Date.Before(first) {
			first = r.Date
		}
		if r.Date.After(last) {
			last = r.Date
		}
	}
	return first, last, true
}

// Latest returns the row with the most recent date.
func (t *PriceTable) Latest() (PriceRow, bool) {
	if t.Len() == 0 {
		return PriceRow{}, false
	}
	latest := t.rows[0]
	for _, r := range t.rows[1:] {
		if r.Date.After(latest.Date) {
			latest = r
		}
	}
	return latest, true
}
