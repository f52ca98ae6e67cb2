package metrics

import (
	"github.com/Hussain0327/echo-analytics-platform/internal/dataset"
)

// CAC reports the average cost to acquire a customer.
type CAC struct {
	data *dataset.Dataset
}

func NewCAC(d *dataset.Dataset) (Metric, error) {
	m := &CAC{data: d}
	if err := validateColumns(d, m.Definition()); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *CAC) Definition() Definition {
	return Definition{
		Name:            "cac",
		DisplayName:     "Customer Acquisition Cost",
		Description:     "Average cost to acquire a new customer",
		Category:        CategoryFinancial,
		Unit:            "$",
		Formula:         "Total Marketing Spend / New Customers Acquired",
		RequiredColumns: []string{"spend", "conversions"},
	}
}

func (m *CAC) Calculate(p Params) (Result, error) {
	totalSpend := sum(m.data.Numbers("spend"))
	totalConversions := sum(m.data.Numbers("conversions"))

	var cac float64
	if totalConversions != 0 {
		cac = totalSpend / totalConversions
	}

	return newResult(m.Definition(), cac, "", map[string]Value{
		"total_spend":       Num(round2(totalSpend)),
		"total_conversions": Num(totalConversions),
	}), nil
}

// LTV projects per-customer revenue over an assumed lifespan.
type LTV struct {
	data *dataset.Dataset
}

func NewLTV(d *dataset.Dataset) (Metric, error) {
	m := &LTV{data: d}
	if err := validateColumns(d, m.Definition()); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *LTV) Definition() Definition {
	return Definition{
		Name:            "ltv",
		DisplayName:     "Customer Lifetime Value",
		Description:     "Predicted total revenue from a customer",
		Category:        CategoryFinancial,
		Unit:            "$",
		Formula:         "Average Revenue Per Customer * Avg Lifespan (months)",
		RequiredColumns: []string{"amount", "customer_id"},
	}
}

func (m *LTV) Calculate(p Params) (Result, error) {
	amounts := m.data.Numbers("amount")
	customers := m.data.Strings("customer_id")

	byCustomer := make(map[string]float64)
	for i, id := range customers {
		byCustomer[id] += amounts[i]
	}

	if len(byCustomer) == 0 {
		return newResult(m.Definition(), 0, "", map[string]Value{
			"customer_count": Num(0),
		}), nil
	}

	var total float64
	for _, revenue := range byCustomer {
		total += revenue
	}
	avgRevenue := total / float64(len(byCustomer))

	lifespan := p.LifespanMonths
	if lifespan <= 0 {
		lifespan = 24
	}

	months := m.estimateDataMonths()
	ltv := avgRevenue
	if months > 0 {
		ltv = avgRevenue / float64(months) * float64(lifespan)
	}

	return newResult(m.Definition(), ltv, "", map[string]Value{
		"avg_customer_revenue":    Num(round2(avgRevenue)),
		"customer_count":          Num(float64(len(byCustomer))),
		"assumed_lifespan_months": Num(float64(lifespan)),
		"data_months":             Num(float64(months)),
	}), nil
}

// estimateDataMonths derives how many months the dataset spans, so LTV can
// scale observed revenue to a monthly rate. One month is the floor.
func (m *LTV) estimateDataMonths() int {
	if !m.data.Has("date") {
		return 1
	}
	dates, err := m.data.Times("date")
	if err != nil || len(dates) == 0 {
		return 1
	}

	minDate, maxDate := dates[0], dates[0]
	for _, d := range dates[1:] {
		if d.Before(minDate) {
			minDate = d
		}
		if d.After(maxDate) {
			maxDate = d
		}
	}
	days := int(maxDate.Sub(minDate).Hours() / 24)
	months := days / 30
	if months < 1 {
		months = 1
	}
	return months
}

// LTVCACRatio relates lifetime value to acquisition cost.
type LTVCACRatio struct {
	data *dataset.Dataset
}

func NewLTVCACRatio(d *dataset.Dataset) (Metric, error) {
	m := &LTVCACRatio{data: d}
	if err := validateColumns(d, m.Definition()); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *LTVCACRatio) Definition() Definition {
	return Definition{
		Name:            "ltv_cac_ratio",
		DisplayName:     "LTV:CAC Ratio",
		Description:     "Ratio of customer lifetime value to acquisition cost",
		Category:        CategoryFinancial,
		Unit:            "ratio",
		Formula:         "LTV / CAC",
		RequiredColumns: []string{"amount", "customer_id", "spend", "conversions"},
	}
}

func (m *LTVCACRatio) Calculate(p Params) (Result, error) {
	ltvMetric, err := NewLTV(m.data)
	if err != nil {
		return Result{}, err
	}
	ltv, err := ltvMetric.Calculate(p)
	if err != nil {
		return Result{}, err
	}

	cacMetric, err := NewCAC(m.data)
	if err != nil {
		return Result{}, err
	}
	cac, err := cacMetric.Calculate(Params{})
	if err != nil {
		return Result{}, err
	}

	ratio := 0.0
	status := "unknown"
	if cac.Value != 0 {
		ratio = ltv.Value / cac.Value
		switch {
		case ratio >= 3:
			status = "healthy"
		case ratio >= 1:
			status = "acceptable"
		default:
			status = "concerning"
		}
	}

	return newResult(m.Definition(), ratio, "", map[string]Value{
		"ltv":    Num(ltv.Value),
		"cac":    Num(cac.Value),
		"status": Str(status),
	}), nil
}

// GrossMargin reports revenue minus cost as a percentage of revenue.
type GrossMargin struct {
	data *dataset.Dataset
}

func NewGrossMargin(d *dataset.Dataset) (Metric, error) {
	m := &GrossMargin{data: d}
	if err := validateColumns(d, m.Definition()); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *GrossMargin) Definition() Definition {
	return Definition{
		Name:            "gross_margin",
		DisplayName:     "Gross Margin",
		Description:     "Revenue minus cost of goods sold as percentage",
		Category:        CategoryFinancial,
		Unit:            "%",
		Formula:         "((Revenue - COGS) / Revenue) * 100",
		RequiredColumns: []string{"amount", "cost"},
	}
}

func (m *GrossMargin) Calculate(p Params) (Result, error) {
	revenue := sum(m.data.Numbers("amount"))
	cost := sum(m.data.Numbers("cost"))

	if revenue == 0 {
		return newResult(m.Definition(), 0, "", map[string]Value{
			"revenue": Num(0),
			"cost":    Num(0),
		}), nil
	}

	grossProfit := revenue - cost
	margin := grossProfit / revenue * 100

	return newResult(m.Definition(), margin, "", map[string]Value{
		"revenue":      Num(round2(revenue)),
		"cost":         Num(round2(cost)),
		"gross_profit": Num(round2(grossProfit)),
	}), nil
}

// BurnRate reports the mean monthly expense total.
type BurnRate struct {
	data *dataset.Dataset
}

func NewBurnRate(d *dataset.Dataset) (Metric, error) {
	m := &BurnRate{data: d}
	if err := validateColumns(d, m.Definition()); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *BurnRate) Definition() Definition {
	return Definition{
		Name:            "burn_rate",
		DisplayName:     "Burn Rate",
		Description:     "Average monthly cash outflow",
		Category:        CategoryFinancial,
		Unit:            "$/month",
		Formula:         "Total Expenses / Number of Months",
		RequiredColumns: []string{"expense", "date"},
	}
}

func (m *BurnRate) Calculate(p Params) (Result, error) {
	dates, err := m.data.Times("date")
	if err != nil {
		return Result{}, err
	}
	monthly := aggregateByPeriod(dates, m.data.Numbers("expense"), PeriodMonth, AggSum)

	if len(monthly) == 0 {
		return newResult(m.Definition(), 0, "", map[string]Value{
			"months": Num(0),
		}), nil
	}

	return newResult(m.Definition(), monthly.Total()/float64(len(monthly)), "", map[string]Value{
		"total_expenses":    Num(round2(monthly.Total())),
		"months":            Num(float64(len(monthly))),
		"monthly_breakdown": SeriesValue(monthly),
	}), nil
}

// Runway reports how many months of cash remain at the current burn rate.
type Runway struct {
	data *dataset.Dataset
}

func NewRunway(d *dataset.Dataset) (Metric, error) {
	m := &Runway{data: d}
	if err := validateColumns(d, m.Definition()); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Runway) Definition() Definition {
	return Definition{
		Name:            "runway",
		DisplayName:     "Runway",
		Description:     "Months of operation remaining at current burn rate",
		Category:        CategoryFinancial,
		Unit:            "months",
		Formula:         "Cash Balance / Monthly Burn Rate",
		RequiredColumns: []string{"expense", "date"},
	}
}

func (m *Runway) Calculate(p Params) (Result, error) {
	burnMetric, err := NewBurnRate(m.data)
	if err != nil {
		return Result{}, err
	}
	burn, err := burnMetric.Calculate(Params{})
	if err != nil {
		return Result{}, err
	}

	if burn.Value == 0 || p.CashBalance == 0 {
		return newResult(m.Definition(), 0, "", map[string]Value{
			"cash_balance": Num(p.CashBalance),
			"burn_rate":    Num(burn.Value),
			"message":      Str("Need cash_balance parameter and expense data"),
		}), nil
	}

	runway := p.CashBalance / burn.Value
	var status string
	switch {
	case runway >= 18:
		status = "healthy"
	case runway >= 6:
		status = "monitor"
	default:
		status = "critical"
	}

	return newResult(m.Definition(), runway, "", map[string]Value{
		"cash_balance": Num(p.CashBalance),
		"burn_rate":    Num(burn.Value),
		"status":       Str(status),
	}), nil
}
