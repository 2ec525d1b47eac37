package filter

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidPeriod is returned for a period token outside the known set.
var ErrInvalidPeriod = errors.New("invalid time period")

// Period is a symbolic time-range token selected in the UI.
type Period string

const (
	OneDay      Period = "1d"
	OneWeek     Period = "1w"
	OneMonth    Period = "1m"
	ThreeMonths Period = "3m"
	SixMonths   Period = "6m"
	OneYear     Period = "1y"
	TwoYears    Period = "2y"
	YearToDate  Period = "ytd"
	Max         Period = "max"
)

// DefaultPeriod is selected when the page first loads.
const DefaultPeriod = SixMonths

// offset is a calendar delta subtracted from the reference date.
type offset struct {
	years, months, days int
}

var offsets = map[Period]offset{
	OneDay:      {},
	OneWeek:     {days: 7},
	OneMonth:    {months: 1},
	ThreeMonths: {months: 3},
	SixMonths:   {months: 6},
	OneYear:     {years: 1},
	TwoYears:    {years: 2},
}

var labels = map[Period]string{
	OneDay:      "1 Day",
	OneWeek:     "1 Week",
	OneMonth:    "1 Month",
	ThreeMonths: "3 Months",
	SixMonths:   "6 Months",
	OneYear:     "1 Year",
	TwoYears:    "2 Years",
	YearToDate:  "Year To Date",
	Max:         "Max",
}

// Label returns the human-readable name shown next to the radio option.
func (p Period) Label() string {
	if l, ok := labels[p]; ok {
		return l
	}
	return string(p)
}

// ParsePeriod validates a raw token.
func ParsePeriod(s string) (Period, error) {
	p := Period(strings.TrimSpace(strings.ToLower(s)))
	if _, ok := labels[p]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
	return p, nil
}

// Variant selects which period tokens and columns the dashboard offers.
type Variant string

const (
	// Standard offers 1d..6m and ytd, without market cap.
	Standard Variant = "standard"
	// Extended adds 1y, 2y and max, and tracks market cap.
	Extended Variant = "extended"
)

var variantOptions = map[Variant][]Period{
	Standard: {OneDay, OneWeek, OneMonth, ThreeMonths, SixMonths, YearToDate},
	Extended: {OneDay, OneWeek, OneMonth, ThreeMonths, SixMonths, OneYear, TwoYears, YearToDate, Max},
}

// Valid reports whether v is a known variant.
func (v Variant) Valid() bool {
	_, ok := variantOptions[v]
	return ok
}

// Options returns the ordered radio options for v.
func (v Variant) Options() []Period {
	opts := variantOptions[v]
	out := make([]Period, len(opts))
	copy(out, opts)
	return out
}

// Allows reports whether p is one of v's options.
func (v Variant) Allows(p Period) bool {
	for _, o := range variantOptions[v] {
		if o == p {
			return true
		}
	}
	return false
}

// TracksMarketCap reports whether v consumes the market-cap column.
func (v Variant) TracksMarketCap() bool { return v == Extended }
