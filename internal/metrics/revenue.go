package metrics

import (
	"slices"
	"strings"

	"github.com/Hussain0327/echo-analytics-platform/internal/dataset"
)

// paidStatuses qualifies a row as realized revenue when a status column is
// present.
var paidStatuses = map[string]bool{
	"paid":      true,
	"success":   true,
	"completed": true,
	"active":    true,
}

// recurringStatuses qualifies a row as an active subscription for MRR/ARR.
var recurringStatuses = map[string]bool{
	"active":  true,
	"paid":    true,
	"current": true,
}

// billingMultipliers normalize an amount to a monthly cadence. Unrecognized
// billing periods deliberately fall back to 1 (treated as monthly); changing
// that default would silently shift every MRR/ARR figure.
var billingMultipliers = map[string]float64{
	"monthly":   1,
	"month":     1,
	"annual":    1.0 / 12,
	"yearly":    1.0 / 12,
	"year":      1.0 / 12,
	"quarterly": 1.0 / 3,
	"quarter":   1.0 / 3,
	"weekly":    4.33,
	"week":      4.33,
}

// filterStatus keeps rows whose lowercased status is in the allowed set.
// Datasets without a status column pass through untouched.
func filterStatus(d *dataset.Dataset, allowed map[string]bool) *dataset.Dataset {
	if !d.Has("status") {
		return d
	}
	return d.Filter(func(row int) bool {
		v, _ := d.Value(row, "status")
		return allowed[strings.ToLower(strings.TrimSpace(v))]
	})
}

// TotalRevenue sums qualifying transaction amounts.
type TotalRevenue struct {
	data *dataset.Dataset
}

func NewTotalRevenue(d *dataset.Dataset) (Metric, error) {
	m := &TotalRevenue{data: d}
	if err := validateColumns(d, m.Definition()); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *TotalRevenue) Definition() Definition {
	return Definition{
		Name:            "total_revenue",
		DisplayName:     "Total Revenue",
		Description:     "Sum of all revenue from paid transactions",
		Category:        CategoryRevenue,
		Unit:            "$",
		Formula:         "SUM(amount) WHERE status IN (paid, success, completed)",
		RequiredColumns: []string{"amount"},
	}
}

func (m *TotalRevenue) Calculate(p Params) (Result, error) {
	d := filterStatus(m.data, paidStatuses)
	amounts := d.Numbers("amount")

	avg := 0.0
	if len(amounts) > 0 {
		avg = mean(amounts)
	}

	return newResult(m.Definition(), sum(amounts), "", map[string]Value{
		"transaction_count":   Num(float64(len(amounts))),
		"average_transaction": Num(round2(avg)),
	}), nil
}

// RevenueByPeriod groups qualifying revenue into calendar buckets.
type RevenueByPeriod struct {
	data *dataset.Dataset
}

func NewRevenueByPeriod(d *dataset.Dataset) (Metric, error) {
	m := &RevenueByPeriod{data: d}
	if err := validateColumns(d, m.Definition()); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *RevenueByPeriod) Definition() Definition {
	return Definition{
		Name:            "revenue_by_period",
		DisplayName:     "Revenue by Period",
		Description:     "Revenue grouped by time period",
		Category:        CategoryRevenue,
		Unit:            "$",
		Formula:         "SUM(amount) GROUP BY period",
		RequiredColumns: []string{"amount", "date"},
	}
}

func (m *RevenueByPeriod) Calculate(p Params) (Result, error) {
	period := p.Period.orDefault()

	d := filterStatus(m.data, paidStatuses)
	dates, err := d.Times("date")
	if err != nil {
		return Result{}, err
	}
	grouped := aggregateByPeriod(dates, d.Numbers("amount"), period, AggSum)

	return newResult(m.Definition(), grouped.Total(), string(period), map[string]Value{
		"breakdown":    SeriesValue(grouped),
		"period_count": Num(float64(len(grouped))),
	}), nil
}

// RevenueGrowth reports the percent change between the two most recent
// periods.
type RevenueGrowth struct {
	data *dataset.Dataset
}

func NewRevenueGrowth(d *dataset.Dataset) (Metric, error) {
	m := &RevenueGrowth{data: d}
	if err := validateColumns(d, m.Definition()); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *RevenueGrowth) Definition() Definition {
	return Definition{
		Name:            "revenue_growth",
		DisplayName:     "Revenue Growth Rate",
		Description:     "Period-over-period revenue growth percentage",
		Category:        CategoryRevenue,
		Unit:            "%",
		Formula:         "((current - previous) / previous) * 100",
		RequiredColumns: []string{"amount", "date"},
	}
}

func (m *RevenueGrowth) Calculate(p Params) (Result, error) {
	period := p.Period.orDefault()

	d := filterStatus(m.data, paidStatuses)
	dates, err := d.Times("date")
	if err != nil {
		return Result{}, err
	}
	grouped := aggregateByPeriod(dates, d.Numbers("amount"), period, AggSum)

	if len(grouped) < 2 {
		return newResult(m.Definition(), 0, string(period), map[string]Value{
			"message":           Str("Insufficient data for growth calculation"),
			"periods_available": Num(float64(len(grouped))),
		}), nil
	}

	current := grouped[len(grouped)-1]
	previous := grouped[len(grouped)-2]

	var growth float64
	switch {
	case previous.Value != 0:
		growth = (current.Value - previous.Value) / previous.Value * 100
	case current.Value > 0:
		growth = 100
	}

	return newResult(m.Definition(), growth, string(period), map[string]Value{
		"current_period":   Str(current.Key.Label()),
		"previous_period":  Str(previous.Key.Label()),
		"current_revenue":  Num(current.Value),
		"previous_revenue": Num(previous.Value),
	}), nil
}

// MRR sums subscription amounts normalized to a monthly cadence.
type MRR struct {
	data *dataset.Dataset
}

func NewMRR(d *dataset.Dataset) (Metric, error) {
	m := &MRR{data: d}
	if err := validateColumns(d, m.Definition()); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *MRR) Definition() Definition {
	return Definition{
		Name:            "mrr",
		DisplayName:     "Monthly Recurring Revenue",
		Description:     "Recurring revenue normalized to monthly amount",
		Category:        CategoryRevenue,
		Unit:            "$",
		Formula:         "SUM(amount normalized to monthly)",
		RequiredColumns: []string{"amount"},
	}
}

func (m *MRR) Calculate(p Params) (Result, error) {
	d := filterStatus(m.data, recurringStatuses)
	amounts := d.Numbers("amount")

	var mrr float64
	if d.Has("billing_period") {
		billing := d.Strings("billing_period")
		for i, amount := range amounts {
			multiplier := 1.0
			if mult, ok := billingMultipliers[strings.ToLower(strings.TrimSpace(billing[i]))]; ok {
				multiplier = mult
			}
			mrr += amount * multiplier
		}
	} else {
		mrr = sum(amounts)
	}

	subscribers := len(amounts)
	avgPerSub := 0.0
	if subscribers > 0 {
		avgPerSub = mrr / float64(subscribers)
	}

	return newResult(m.Definition(), mrr, "", map[string]Value{
		"subscriber_count":       Num(float64(subscribers)),
		"average_per_subscriber": Num(round2(avgPerSub)),
	}), nil
}

// ARR annualizes MRR.
type ARR struct {
	data *dataset.Dataset
}

func NewARR(d *dataset.Dataset) (Metric, error) {
	m := &ARR{data: d}
	if err := validateColumns(d, m.Definition()); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *ARR) Definition() Definition {
	return Definition{
		Name:            "arr",
		DisplayName:     "Annual Recurring Revenue",
		Description:     "Monthly recurring revenue annualized (MRR * 12)",
		Category:        CategoryRevenue,
		Unit:            "$",
		Formula:         "MRR * 12",
		RequiredColumns: []string{"amount"},
	}
}

func (m *ARR) Calculate(p Params) (Result, error) {
	mrrMetric, err := NewMRR(m.data)
	if err != nil {
		return Result{}, err
	}
	mrr, err := mrrMetric.Calculate(p)
	if err != nil {
		return Result{}, err
	}

	return newResult(m.Definition(), mrr.Value*12, "", map[string]Value{
		"mrr":              Num(mrr.Value),
		"subscriber_count": mrr.Metadata["subscriber_count"],
	}), nil
}

// AverageOrderValue reports the mean of qualifying transaction amounts.
type AverageOrderValue struct {
	data *dataset.Dataset
}

func NewAverageOrderValue(d *dataset.Dataset) (Metric, error) {
	m := &AverageOrderValue{data: d}
	if err := validateColumns(d, m.Definition()); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *AverageOrderValue) Definition() Definition {
	return Definition{
		Name:            "average_order_value",
		DisplayName:     "Average Order Value",
		Description:     "Average revenue per transaction",
		Category:        CategoryRevenue,
		Unit:            "$",
		Formula:         "SUM(amount) / COUNT(transactions)",
		RequiredColumns: []string{"amount"},
	}
}

func (m *AverageOrderValue) Calculate(p Params) (Result, error) {
	d := filterStatus(m.data, paidStatuses)
	amounts := d.Numbers("amount")

	if len(amounts) == 0 {
		return newResult(m.Definition(), 0, "", map[string]Value{
			"transaction_count": Num(0),
		}), nil
	}

	lo, hi := minMax(amounts)
	return newResult(m.Definition(), mean(amounts), "", map[string]Value{
		"transaction_count": Num(float64(len(amounts))),
		"total_revenue":     Num(round2(sum(amounts))),
		"min_order":         Num(round2(lo)),
		"max_order":         Num(round2(hi)),
	}), nil
}

// RevenueByProduct breaks qualifying revenue down by product.
type RevenueByProduct struct {
	data *dataset.Dataset
}

func NewRevenueByProduct(d *dataset.Dataset) (Metric, error) {
	m := &RevenueByProduct{data: d}
	if err := validateColumns(d, m.Definition()); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *RevenueByProduct) Definition() Definition {
	return Definition{
		Name:            "revenue_by_product",
		DisplayName:     "Revenue by Product",
		Description:     "Revenue breakdown by product or plan",
		Category:        CategoryRevenue,
		Unit:            "$",
		Formula:         "SUM(amount) GROUP BY product",
		RequiredColumns: []string{"amount", "product"},
	}
}

func (m *RevenueByProduct) Calculate(p Params) (Result, error) {
	d := filterStatus(m.data, paidStatuses)
	amounts := d.Numbers("amount")
	products := d.Strings("product")

	type productStats struct {
		name    string
		revenue float64
		count   int
	}
	byProduct := make(map[string]*productStats)
	for i, product := range products {
		s, ok := byProduct[product]
		if !ok {
			s = &productStats{name: product}
			byProduct[product] = s
		}
		s.revenue += amounts[i]
		s.count++
	}

	ranked := make([]*productStats, 0, len(byProduct))
	for _, s := range byProduct {
		ranked = append(ranked, s)
	}
	slices.SortFunc(ranked, func(a, b *productStats) int {
		switch {
		case a.revenue > b.revenue:
			return -1
		case a.revenue < b.revenue:
			return 1
		default:
			return strings.Compare(a.name, b.name)
		}
	})

	breakdown := make(map[string]Value, len(ranked))
	var total float64
	for _, s := range ranked {
		total += s.revenue
		breakdown[s.name] = Mapping(map[string]Value{
			"revenue":      Num(round2(s.revenue)),
			"transactions": Num(float64(s.count)),
			"avg_order":    Num(round2(s.revenue / float64(s.count))),
		})
	}

	metadata := map[string]Value{
		"breakdown":     Mapping(breakdown),
		"product_count": Num(float64(len(ranked))),
	}
	if len(ranked) > 0 {
		metadata["top_product"] = Str(ranked[0].name)
	}

	return newResult(m.Definition(), total, "", metadata), nil
}
