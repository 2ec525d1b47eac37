package filter

import (
	"fmt"
	"time"

	"CoinChart/internal/model"
)

// Date truncates t to midnight UTC of its UTC calendar day.
func Date(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Cutoff returns the earliest date kept by a rolling-window period.
// ok is false for ytd and max, which do not use a cutoff.
func Cutoff(p Period, ref time.Time) (cutoff time.Time, ok bool, err error) {
	if _, known := labels[p]; !known {
		return time.Time{}, false, fmt.Errorf("%w: %q", ErrInvalidPeriod, p)
	}
	off, rolling := offsets[p]
	if !rolling {
		return time.Time{}, false, nil
	}
	return subtract(Date(ref), off), true, nil
}

// subtract moves back by whole years and months first, clamping the day to
// the end of the target month, then by days.
func subtract(ref time.Time, off offset) time.Time {
	y, m, d := ref.Date()
	total := y*12 + int(m-1) - off.years*12 - off.months
	ty, tm := total/12, time.Month(total%12+1)
	if last := daysIn(ty, tm); d > last {
		d = last
	}
	return time.Date(ty, tm, d, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -off.days)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// FilterByPeriod returns the rows of table selected by p relative to ref.
// The input table is never modified and row order is preserved.
func FilterByPeriod(table *model.PriceTable, p Period, ref time.Time) (*model.PriceTable, error) {
	switch p {
	case Max:
		return table.Filter(func(model.PriceRow) bool { return true }), nil
	case YearToDate:
		year := ref.UTC().Year()
		return table.Filter(func(r model.PriceRow) bool { return r.Date.UTC().Year() == year }), nil
	}

	cutoff, _, err := Cutoff(p, ref)
	if err != nil {
		return nil, err
	}
	return table.Filter(func(r model.PriceRow) bool { return !Date(r.Date).Before(cutoff) }), nil
}
