package metrics

import (
	"encoding/json"
	"fmt"
	"time"
)

// Period is a calendar bucket used to group time-stamped rows.
type Period string

const (
	PeriodDay     Period = "day"
	PeriodWeek    Period = "week"
	PeriodMonth   Period = "month"
	PeriodQuarter Period = "quarter"
	PeriodYear    Period = "year"
)

// ParsePeriod normalizes a period string. Unrecognized values fall back to
// month, the default grouping everywhere.
func ParsePeriod(s string) Period {
	switch Period(s) {
	case PeriodDay, PeriodWeek, PeriodMonth, PeriodQuarter, PeriodYear:
		return Period(s)
	default:
		return PeriodMonth
	}
}

// orDefault resolves the zero value of Params.Period.
func (p Period) orDefault() Period {
	if p == "" {
		return PeriodMonth
	}
	return ParsePeriod(string(p))
}

// PeriodKey identifies one calendar bucket: the period kind plus the bucket's
// start instant. Carrying the start date instead of a pre-formatted string
// lets any display format be re-rendered downstream.
type PeriodKey struct {
	Period Period
	Start  time.Time
}

// NewPeriodKey snaps a timestamp to the start of its bucket.
func NewPeriodKey(t time.Time, p Period) PeriodKey {
	p = p.orDefault()
	var start time.Time
	switch p {
	case PeriodDay:
		start = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	case PeriodWeek:
		// Snap to Monday
		weekday := int(t.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		start = time.Date(t.Year(), t.Month(), t.Day()-(weekday-1), 0, 0, 0, 0, t.Location())
	case PeriodQuarter:
		quarterMonth := time.Month((int(t.Month())-1)/3*3 + 1)
		start = time.Date(t.Year(), quarterMonth, 1, 0, 0, 0, 0, t.Location())
	case PeriodYear:
		start = time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
	default: // month
		start = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	}
	return PeriodKey{Period: p, Start: start}
}

// Label renders the canonical label for the bucket: "2006-01-02" for days,
// "2006-W02" for ISO weeks, "2006-01" for months, "2006Q1" for quarters and
// "2006" for years.
func (k PeriodKey) Label() string {
	switch k.Period {
	case PeriodDay:
		return k.Start.Format("2006-01-02")
	case PeriodWeek:
		year, week := k.Start.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	case PeriodQuarter:
		return fmt.Sprintf("%dQ%d", k.Start.Year(), (int(k.Start.Month())-1)/3+1)
	case PeriodYear:
		return k.Start.Format("2006")
	default: // month
		return k.Start.Format("2006-01")
	}
}

// Next returns the key of the immediately following bucket.
func (k PeriodKey) Next() PeriodKey {
	var start time.Time
	switch k.Period {
	case PeriodDay:
		start = k.Start.AddDate(0, 0, 1)
	case PeriodWeek:
		start = k.Start.AddDate(0, 0, 7)
	case PeriodQuarter:
		start = k.Start.AddDate(0, 3, 0)
	case PeriodYear:
		start = k.Start.AddDate(1, 0, 0)
	default: // month
		start = k.Start.AddDate(0, 1, 0)
	}
	return PeriodKey{Period: k.Period, Start: start}
}

// Before reports chronological order between keys of the same period kind.
func (k PeriodKey) Before(other PeriodKey) bool {
	return k.Start.Before(other.Start)
}

// Point is one bucket of an aggregated time series.
type Point struct {
	Key   PeriodKey
	Value float64
}

// Series is an ordered (chronological) period-to-value mapping.
type Series []Point

// Get looks a bucket up by its rendered label.
func (s Series) Get(label string) (float64, bool) {
	for _, p := range s {
		if p.Key.Label() == label {
			return p.Value, true
		}
	}
	return 0, false
}

// Total sums all bucket values.
func (s Series) Total() float64 {
	var total float64
	for _, p := range s {
		total += p.Value
	}
	return total
}

// MarshalJSON renders the series as an ordered list of period/value pairs.
func (s Series) MarshalJSON() ([]byte, error) {
	type pair struct {
		Period string  `json:"period"`
		Value  float64 `json:"value"`
	}
	pairs := make([]pair, len(s))
	for i, p := range s {
		pairs[i] = pair{Period: p.Key.Label(), Value: p.Value}
	}
	return json.Marshal(pairs)
}
