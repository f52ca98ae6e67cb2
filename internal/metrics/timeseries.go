package metrics

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"time"

	"github.com/Hussain0327/echo-analytics-platform/internal/dataset"
)

// Aggregation selects how values inside one period bucket collapse to a
// single number.
type Aggregation string

const (
	AggSum    Aggregation = "sum"
	AggMean   Aggregation = "mean"
	AggCount  Aggregation = "count"
	AggMin    Aggregation = "min"
	AggMax    Aggregation = "max"
	AggMedian Aggregation = "median"
)

// ParseAggregation normalizes an aggregation name, falling back to sum.
func ParseAggregation(s string) Aggregation {
	switch Aggregation(s) {
	case AggSum, AggMean, AggCount, AggMin, AggMax, AggMedian:
		return Aggregation(s)
	default:
		return AggSum
	}
}

// Analyzer runs period-based time-series queries over one Dataset. The date
// column is parsed eagerly so a bad column fails at construction, before any
// query depends on it. Every method is an independent pure query; the
// Analyzer holds no other state.
type Analyzer struct {
	data       *dataset.Dataset
	dateColumn string
	dates      []time.Time
}

// NewAnalyzer binds a Dataset and its date column.
func NewAnalyzer(d *dataset.Dataset, dateColumn string) (*Analyzer, error) {
	dates, err := d.Times(dateColumn)
	if err != nil {
		return nil, fmt.Errorf("parse date column: %w", err)
	}
	return &Analyzer{data: d, dateColumn: dateColumn, dates: dates}, nil
}

// GroupByPeriod buckets rows into calendar periods and aggregates the value
// column, returning a chronologically ordered series.
func (a *Analyzer) GroupByPeriod(valueColumn string, period Period, agg Aggregation) (Series, error) {
	if !a.data.Has(valueColumn) {
		return nil, fmt.Errorf("column %q not found", valueColumn)
	}
	values := a.data.Numbers(valueColumn)
	return aggregateByPeriod(a.dates, values, period, agg), nil
}

// GrowthPoint records one period of a growth series: the period value, the
// value periods_back earlier, and the absolute and percent change.
type GrowthPoint struct {
	Period    string  `json:"period"`
	Value     float64 `json:"value"`
	Previous  float64 `json:"previous"`
	Change    float64 `json:"change"`
	GrowthPct float64 `json:"growth_pct"`
}

// Growth computes period-over-period change across the whole bucketed
// series. Buckets at the start of the series with no predecessor compare
// against 0, yielding 0 change instead of a gap; a zero predecessor likewise
// yields 0 percent rather than a division blow-up.
func (a *Analyzer) Growth(valueColumn string, period Period, periodsBack int) ([]GrowthPoint, error) {
	if periodsBack < 1 {
		periodsBack = 1
	}
	grouped, err := a.GroupByPeriod(valueColumn, period, AggSum)
	if err != nil {
		return nil, err
	}

	points := make([]GrowthPoint, len(grouped))
	for i, p := range grouped {
		gp := GrowthPoint{Period: p.Key.Label(), Value: p.Value}
		if i >= periodsBack {
			gp.Previous = grouped[i-periodsBack].Value
			gp.Change = gp.Value - gp.Previous
			if gp.Previous != 0 {
				gp.GrowthPct = round2(gp.Change / gp.Previous * 100)
			}
		}
		points[i] = gp
	}
	return points, nil
}

// MovingAverage computes a rolling mean over the period-bucketed series. The
// minimum window is 1, so early points are under-windowed instead of dropped.
func (a *Analyzer) MovingAverage(valueColumn string, window int, period Period) (Series, error) {
	if window < 1 {
		window = 7
	}
	grouped, err := a.GroupByPeriod(valueColumn, period, AggSum)
	if err != nil {
		return nil, err
	}

	out := make(Series, len(grouped))
	for i, p := range grouped {
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		var total float64
		for j := start; j <= i; j++ {
			total += grouped[j].Value
		}
		out[i] = Point{Key: p.Key, Value: total / float64(i-start+1)}
	}
	return out, nil
}

// Trend classifications.
const (
	TrendStrongUpward     = "strong_upward"
	TrendUpward           = "upward"
	TrendStable           = "stable"
	TrendDownward         = "downward"
	TrendStrongDownward   = "strong_downward"
	TrendInsufficientData = "insufficient_data"
)

// TrendResult classifies the overall direction of a bucketed series.
type TrendResult struct {
	Trend          string  `json:"trend"`
	Correlation    float64 `json:"correlation"`
	FirstValue     float64 `json:"first_value"`
	LastValue      float64 `json:"last_value"`
	TotalChangePct float64 `json:"total_change_pct"`
	DataPoints     int     `json:"data_points"`
}

// DetectTrend classifies direction from the Pearson correlation between the
// period index and the bucket values. Fewer than 3 periods is
// insufficient_data; a degenerate correlation counts as 0 and lands on
// stable.
func (a *Analyzer) DetectTrend(valueColumn string, period Period) (TrendResult, error) {
	grouped, err := a.GroupByPeriod(valueColumn, period, AggSum)
	if err != nil {
		return TrendResult{}, err
	}

	if len(grouped) < 3 {
		return TrendResult{Trend: TrendInsufficientData, DataPoints: len(grouped)}, nil
	}

	xs := make([]float64, len(grouped))
	ys := make([]float64, len(grouped))
	for i, p := range grouped {
		xs[i] = float64(i)
		ys[i] = p.Value
	}
	correlation := pearson(xs, ys)

	var trend string
	switch {
	case correlation > 0.7:
		trend = TrendStrongUpward
	case correlation > 0.3:
		trend = TrendUpward
	case correlation < -0.7:
		trend = TrendStrongDownward
	case correlation < -0.3:
		trend = TrendDownward
	default:
		trend = TrendStable
	}

	first, last := ys[0], ys[len(ys)-1]
	var totalChange float64
	if first != 0 {
		totalChange = (last - first) / first * 100
	}

	return TrendResult{
		Trend:          trend,
		Correlation:    round3(correlation),
		FirstValue:     round2(first),
		LastValue:      round2(last),
		TotalChangePct: round2(totalChange),
		DataPoints:     len(grouped),
	}, nil
}

// Comparison reports the current period against the previous one.
type Comparison struct {
	Current        float64 `json:"current"`
	CurrentPeriod  string  `json:"current_period,omitempty"`
	Previous       float64 `json:"previous"`
	PreviousPeriod string  `json:"previous_period,omitempty"`
	Change         float64 `json:"change"`
	ChangePct      float64 `json:"change_pct"`
	Periods        int     `json:"periods,omitempty"`
}

// PeriodComparison compares the two most recent buckets. With fewer than 2
// buckets the previous side reports 0; a zero previous with a positive
// current is 100 percent growth.
func (a *Analyzer) PeriodComparison(valueColumn string, period Period) (Comparison, error) {
	grouped, err := a.GroupByPeriod(valueColumn, period, AggSum)
	if err != nil {
		return Comparison{}, err
	}

	if len(grouped) < 2 {
		c := Comparison{Periods: len(grouped)}
		if len(grouped) == 1 {
			c.Current = grouped[0].Value
		}
		return c, nil
	}

	current := grouped[len(grouped)-1]
	previous := grouped[len(grouped)-2]
	change := current.Value - previous.Value

	var changePct float64
	switch {
	case previous.Value != 0:
		changePct = change / previous.Value * 100
	case current.Value > 0:
		changePct = 100
	}

	return Comparison{
		Current:        round2(current.Value),
		CurrentPeriod:  current.Key.Label(),
		Previous:       round2(previous.Value),
		PreviousPeriod: previous.Key.Label(),
		Change:         round2(change),
		ChangePct:      round2(changePct),
	}, nil
}

// DateRange summarizes the temporal extent of the dataset.
type DateRange struct {
	MinDate string `json:"min_date"`
	MaxDate string `json:"max_date"`
	Days    int    `json:"days"`
	Records int    `json:"records"`
}

// DateRange returns min date, max date, day span, and record count.
func (a *Analyzer) DateRange() DateRange {
	if len(a.dates) == 0 {
		return DateRange{}
	}
	lo, hi := a.dates[0], a.dates[0]
	for _, t := range a.dates[1:] {
		if t.Before(lo) {
			lo = t
		}
		if t.After(hi) {
			hi = t
		}
	}
	return DateRange{
		MinDate: lo.Format("2006-01-02"),
		MaxDate: hi.Format("2006-01-02"),
		Days:    int(hi.Sub(lo).Hours() / 24),
		Records: len(a.dates),
	}
}

// FillMissingPeriods reindexes the bucketed series over the full contiguous
// period range between its first and last bucket, inserting fillValue for
// gaps.
func (a *Analyzer) FillMissingPeriods(valueColumn string, period Period, fillValue float64) (Series, error) {
	grouped, err := a.GroupByPeriod(valueColumn, period, AggSum)
	if err != nil {
		return nil, err
	}
	if len(grouped) == 0 {
		return grouped, nil
	}

	existing := make(map[time.Time]float64, len(grouped))
	for _, p := range grouped {
		existing[p.Key.Start] = p.Value
	}

	var out Series
	last := grouped[len(grouped)-1].Key
	for key := grouped[0].Key; !key.Start.After(last.Start); key = key.Next() {
		value := fillValue
		if v, ok := existing[key.Start]; ok {
			value = v
		}
		out = append(out, Point{Key: key, Value: value})
	}
	return out, nil
}

// PatternPoint is one group of a seasonal pattern (a weekday, month, or
// hour) with the mean value observed in it.
type PatternPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// SeasonalPattern averages the value column grouped by day-of-week (the
// default, in calendar order), month name, or hour of day. Groups with no
// data are omitted.
func (a *Analyzer) SeasonalPattern(valueColumn string, by string) ([]PatternPoint, error) {
	if !a.data.Has(valueColumn) {
		return nil, fmt.Errorf("column %q not found", valueColumn)
	}
	values := a.data.Numbers(valueColumn)

	var labels []string
	labelFor := func(t time.Time) string { return t.Weekday().String() }

	switch by {
	case "month":
		labels = []string{
			"January", "February", "March", "April", "May", "June",
			"July", "August", "September", "October", "November", "December",
		}
		labelFor = func(t time.Time) string { return t.Month().String() }
	case "hour":
		for h := 0; h < 24; h++ {
			labels = append(labels, strconv.Itoa(h))
		}
		labelFor = func(t time.Time) string { return strconv.Itoa(t.Hour()) }
	default: // day_of_week
		labels = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}
	}

	groups := make(map[string][]float64)
	for i, t := range a.dates {
		label := labelFor(t)
		groups[label] = append(groups[label], values[i])
	}

	var out []PatternPoint
	for _, label := range labels {
		if vs, ok := groups[label]; ok {
			out = append(out, PatternPoint{Label: label, Value: round2(mean(vs))})
		}
	}
	return out, nil
}

// Outlier detection methods.
const (
	OutlierIQR    = "iqr"
	OutlierZScore = "zscore"
)

// Outliers returns the rows whose value column falls outside 1.5*IQR (the
// default) or beyond a z-score threshold. A zero-variance column never flags
// anything under the z-score method; an unknown method flags nothing.
func (a *Analyzer) Outliers(valueColumn string, method string, threshold float64) (*dataset.Dataset, error) {
	if !a.data.Has(valueColumn) {
		return nil, fmt.Errorf("column %q not found", valueColumn)
	}
	if threshold <= 0 {
		threshold = 1.5
	}
	values := a.data.Numbers(valueColumn)

	var flagged func(i int) bool
	switch method {
	case OutlierZScore:
		m := mean(values)
		sd := stddev(values)
		if sd == 0 {
			flagged = func(int) bool { return false }
		} else {
			flagged = func(i int) bool {
				return math.Abs((values[i]-m)/sd) > threshold
			}
		}
	case OutlierIQR, "":
		q1 := quantile(values, 0.25)
		q3 := quantile(values, 0.75)
		iqr := q3 - q1
		lower := q1 - threshold*iqr
		upper := q3 + threshold*iqr
		flagged = func(i int) bool {
			return values[i] < lower || values[i] > upper
		}
	default:
		flagged = func(int) bool { return false }
	}

	return a.data.Filter(flagged), nil
}

// ComparePeriods is a convenience wrapper that builds an Analyzer for a
// single period comparison.
func ComparePeriods(d *dataset.Dataset, valueColumn, dateColumn string, period Period) (Comparison, error) {
	a, err := NewAnalyzer(d, dateColumn)
	if err != nil {
		return Comparison{}, err
	}
	return a.PeriodComparison(valueColumn, period)
}

// CalculateTrend is a convenience wrapper that builds an Analyzer for a
// single trend query.
func CalculateTrend(d *dataset.Dataset, valueColumn, dateColumn string, period Period) (TrendResult, error) {
	a, err := NewAnalyzer(d, dateColumn)
	if err != nil {
		return TrendResult{}, err
	}
	return a.DetectTrend(valueColumn, period)
}

// aggregateByPeriod buckets timestamped values into calendar periods and
// collapses each bucket with the requested aggregation. Shared by the
// Analyzer and the period-grouping revenue metrics.
func aggregateByPeriod(dates []time.Time, values []float64, period Period, agg Aggregation) Series {
	period = period.orDefault()

	buckets := make(map[time.Time][]float64)
	for i, t := range dates {
		key := NewPeriodKey(t, period)
		buckets[key.Start] = append(buckets[key.Start], values[i])
	}

	starts := make([]time.Time, 0, len(buckets))
	for start := range buckets {
		starts = append(starts, start)
	}
	slices.SortFunc(starts, func(a, b time.Time) int { return a.Compare(b) })

	out := make(Series, len(starts))
	for i, start := range starts {
		vs := buckets[start]
		var v float64
		switch agg {
		case AggMean:
			v = mean(vs)
		case AggCount:
			v = float64(len(vs))
		case AggMin:
			v, _ = minMax(vs)
		case AggMax:
			_, v = minMax(vs)
		case AggMedian:
			v = median(vs)
		default:
			v = sum(vs)
		}
		out[i] = Point{Key: PeriodKey{Period: period, Start: start}, Value: v}
	}
	return out
}
