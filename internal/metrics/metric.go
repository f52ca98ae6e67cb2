// Package metrics computes business-analytics metrics (revenue, financial,
// marketing) and time-series statistics over tabular datasets. A fixed
// catalog of metric implementations is bound to one Dataset per Engine; each
// metric is a pure computation yielding one headline number plus supporting
// metadata.
package metrics

import (
	"fmt"
	"strings"
	"time"

	"github.com/Hussain0327/echo-analytics-platform/internal/dataset"
)

// Category tags a metric. The engine filters on exact string match.
type Category string

const (
	CategoryRevenue   Category = "revenue"
	CategoryFinancial Category = "financial"
	CategoryMarketing Category = "marketing"
)

// Definition is the static descriptor of a metric. One instance per metric
// type, independent of any dataset.
type Definition struct {
	Name            string   `json:"name"`
	DisplayName     string   `json:"display_name"`
	Description     string   `json:"description"`
	Category        Category `json:"category"`
	Unit            string   `json:"unit"`
	Formula         string   `json:"formula"`
	RequiredColumns []string `json:"required_columns"`
}

// Result is the outcome of one metric calculation. It is created fresh per
// call and never mutated afterwards.
type Result struct {
	Name         string           `json:"metric_name"`
	Value        float64          `json:"value"`
	Unit         string           `json:"unit"`
	Period       string           `json:"period"`
	Metadata     map[string]Value `json:"metadata"`
	CalculatedAt time.Time        `json:"calculated_at"`
}

// Params carries the optional knobs a metric or analyzer query accepts.
// Zero values fall back to each metric's documented default.
type Params struct {
	Period         Period   // grouping period, defaults to month
	PeriodsBack    int      // growth lookback, defaults to 1
	LifespanMonths int      // LTV assumed lifespan, defaults to 24
	CashBalance    float64  // runway input, no default
	Stages         []string // funnel stages, defaults to the standard five
}

// Metric is the calculation contract. Construction (via a Factory) validates
// required columns against the bound Dataset; Calculate performs the pure
// computation. Numeric edge cases resolve to 0 sentinels, never NaN/Inf;
// only genuine value errors (e.g. an unparsable date column) are returned.
type Metric interface {
	Definition() Definition
	Calculate(p Params) (Result, error)
}

// Factory binds a metric implementation to one Dataset. It fails with a
// MissingColumnsError when the Dataset is non-empty and lacks a required
// column.
type Factory func(d *dataset.Dataset) (Metric, error)

// MissingColumnsError reports that a metric's required columns are absent
// from a non-empty Dataset. Raised at metric construction.
type MissingColumnsError struct {
	Metric  string
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("missing columns for %s: %s", e.Metric, strings.Join(e.Columns, ", "))
}

// UnknownMetricError reports a metric name absent from the engine's catalog.
type UnknownMetricError struct {
	Name string
}

func (e *UnknownMetricError) Error() string {
	return fmt.Sprintf("unknown metric: %s", e.Name)
}

// validateColumns enforces the construction contract. Validation is skipped
// for an empty Dataset so that catalog introspection works without data.
func validateColumns(d *dataset.Dataset, def Definition) error {
	if d.Len() == 0 {
		return nil
	}
	var missing []string
	for _, col := range def.RequiredColumns {
		if !d.Has(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return &MissingColumnsError{Metric: def.Name, Columns: missing}
	}
	return nil
}

// newResult packages a headline value into a Result, rounding it to two
// decimals the way every metric reports monetary and percentage outputs.
func newResult(def Definition, value float64, period string, metadata map[string]Value) Result {
	if period == "" {
		period = "all_time"
	}
	if metadata == nil {
		metadata = map[string]Value{}
	}
	return Result{
		Name:         def.Name,
		Value:        round2(value),
		Unit:         def.Unit,
		Period:       period,
		Metadata:     metadata,
		CalculatedAt: time.Now(),
	}
}
