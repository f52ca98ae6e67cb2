package metrics

import (
	"github.com/Hussain0327/echo-analytics-platform/internal/dataset"
)

// catalogEntry binds a metric name and category to its factory. The catalog
// is fixed at compile time; only the dataset binding varies per engine.
type catalogEntry struct {
	name     string
	category Category
	factory  Factory
}

var catalog = []catalogEntry{
	{"total_revenue", CategoryRevenue, NewTotalRevenue},
	{"revenue_by_period", CategoryRevenue, NewRevenueByPeriod},
	{"revenue_growth", CategoryRevenue, NewRevenueGrowth},
	{"mrr", CategoryRevenue, NewMRR},
	{"arr", CategoryRevenue, NewARR},
	{"average_order_value", CategoryRevenue, NewAverageOrderValue},
	{"revenue_by_product", CategoryRevenue, NewRevenueByProduct},
	{"cac", CategoryFinancial, NewCAC},
	{"ltv", CategoryFinancial, NewLTV},
	{"ltv_cac_ratio", CategoryFinancial, NewLTVCACRatio},
	{"gross_margin", CategoryFinancial, NewGrossMargin},
	{"burn_rate", CategoryFinancial, NewBurnRate},
	{"runway", CategoryFinancial, NewRunway},
	{"conversion_rate", CategoryMarketing, NewConversionRate},
	{"channel_performance", CategoryMarketing, NewChannelPerformance},
	{"campaign_performance", CategoryMarketing, NewCampaignPerformance},
	{"cost_per_lead", CategoryMarketing, NewCostPerLead},
	{"roas", CategoryMarketing, NewROAS},
	{"lead_velocity", CategoryMarketing, NewLeadVelocity},
	{"funnel_analysis", CategoryMarketing, NewFunnelAnalysis},
}

// Engine resolves metric names against one dataset. Engines are cheap to
// build and meant to live for a single analysis pass.
type Engine struct {
	data    *dataset.Dataset
	entries []catalogEntry
}

// NewEngine builds an engine over the full metric catalog.
func NewEngine(d *dataset.Dataset) *Engine {
	return &Engine{data: d, entries: catalog}
}

// NewCategoryEngine builds an engine restricted to one category.
func NewCategoryEngine(d *dataset.Dataset, category Category) *Engine {
	entries := make([]catalogEntry, 0, len(catalog))
	for _, e := range catalog {
		if e.category == category {
			entries = append(entries, e)
		}
	}
	return &Engine{data: d, entries: entries}
}

// Calculate resolves and runs a single metric by name.
func (e *Engine) Calculate(name string, p Params) (Result, error) {
	for _, entry := range e.entries {
		if entry.name != name {
			continue
		}
		metric, err := entry.factory(e.data)
		if err != nil {
			return Result{}, err
		}
		return metric.Calculate(p)
	}
	return Result{}, &UnknownMetricError{Name: name}
}

// CalculateAll runs every applicable metric, optionally filtered by
// category. Metrics whose required columns are missing, or whose
// calculation fails on the data, are skipped rather than aborting the
// batch. Results follow catalog order.
func (e *Engine) CalculateAll(category Category) []Result {
	results := make([]Result, 0, len(e.entries))
	for _, entry := range e.entries {
		if category != "" && entry.category != category {
			continue
		}
		metric, err := entry.factory(e.data)
		if err != nil {
			continue
		}
		result, err := metric.Calculate(Params{})
		if err != nil {
			continue
		}
		results = append(results, result)
	}
	return results
}

// ListMetrics returns catalog definitions without touching the bound
// dataset; construction against an empty dataset skips column validation.
func (e *Engine) ListMetrics(category Category) []Definition {
	empty := dataset.Empty()
	defs := make([]Definition, 0, len(e.entries))
	for _, entry := range e.entries {
		metric, err := entry.factory(empty)
		if err != nil {
			continue
		}
		def := metric.Definition()
		if category != "" && def.Category != category {
			continue
		}
		defs = append(defs, def)
	}
	return defs
}

// AvailableMetrics returns the names of every registered metric in catalog
// order.
func (e *Engine) AvailableMetrics() []string {
	names := make([]string, len(e.entries))
	for i, entry := range e.entries {
		names[i] = entry.name
	}
	return names
}

// AvailableByCategory maps each category to its metric names.
func AvailableByCategory() map[Category][]string {
	out := make(map[Category][]string)
	for _, entry := range catalog {
		out[entry.category] = append(out[entry.category], entry.name)
	}
	return out
}
