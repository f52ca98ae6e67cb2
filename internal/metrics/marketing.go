package metrics

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Hussain0327/echo-analytics-platform/internal/dataset"
)

// ConversionRate reports conversions as a percentage of leads.
type ConversionRate struct {
	data *dataset.Dataset
}

func NewConversionRate(d *dataset.Dataset) (Metric, error) {
	m := &ConversionRate{data: d}
	if err := validateColumns(d, m.Definition()); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *ConversionRate) Definition() Definition {
	return Definition{
		Name:            "conversion_rate",
		DisplayName:     "Conversion Rate",
		Description:     "Percentage of leads that convert",
		Category:        CategoryMarketing,
		Unit:            "%",
		Formula:         "(Conversions / Total Leads) * 100",
		RequiredColumns: []string{"leads", "conversions"},
	}
}

func (m *ConversionRate) Calculate(p Params) (Result, error) {
	totalLeads := sum(m.data.Numbers("leads"))
	totalConversions := sum(m.data.Numbers("conversions"))

	var rate float64
	if totalLeads != 0 {
		rate = totalConversions / totalLeads * 100
	}

	return newResult(m.Definition(), rate, "", map[string]Value{
		"total_leads":       Num(totalLeads),
		"total_conversions": Num(totalConversions),
	}), nil
}

// groupStats accumulates per-group marketing figures for channel and
// campaign breakdowns.
type groupStats struct {
	name        string
	records     int
	leads       float64
	conversions float64
	spend       float64
}

// groupMarketing aggregates leads/conversions/spend by the values of the
// given grouping column. Columns absent from the dataset contribute zeros.
func groupMarketing(d *dataset.Dataset, groupColumn string) []*groupStats {
	groups := d.Strings(groupColumn)
	var leads, conversions, spend []float64
	if d.Has("leads") {
		leads = d.Numbers("leads")
	}
	if d.Has("conversions") {
		conversions = d.Numbers("conversions")
	}
	if d.Has("spend") {
		spend = d.Numbers("spend")
	}

	byGroup := make(map[string]*groupStats)
	order := make([]*groupStats, 0)
	for i, name := range groups {
		s, ok := byGroup[name]
		if !ok {
			s = &groupStats{name: name}
			byGroup[name] = s
			order = append(order, s)
		}
		s.records++
		if leads != nil {
			s.leads += leads[i]
		}
		if conversions != nil {
			s.conversions += conversions[i]
		}
		if spend != nil {
			s.spend += spend[i]
		}
	}
	return order
}

// marketingBreakdown renders groupStats as a metadata mapping, adding the
// derived conversion-rate and cost-per-conversion figures where the source
// columns exist. Cost per conversion treats zero conversions as one so the
// spend still surfaces instead of dividing away.
func marketingBreakdown(d *dataset.Dataset, groups []*groupStats, costKey string) map[string]Value {
	hasLeads := d.Has("leads")
	hasConversions := d.Has("conversions")
	hasSpend := d.Has("spend")

	out := make(map[string]Value, len(groups))
	for _, g := range groups {
		entry := map[string]Value{
			"records": Num(float64(g.records)),
		}
		if hasLeads {
			entry["leads"] = Num(g.leads)
		}
		if hasConversions {
			entry["conversions"] = Num(g.conversions)
		}
		if hasSpend {
			entry["spend"] = Num(round2(g.spend))
		}
		if hasLeads && hasConversions {
			rate := 0.0
			if g.leads != 0 {
				rate = g.conversions / g.leads * 100
			}
			entry["conversion_rate"] = Num(round2(rate))
		}
		if hasSpend && hasConversions {
			divisor := g.conversions
			if divisor == 0 {
				divisor = 1
			}
			entry[costKey] = Num(round2(g.spend / divisor))
		}
		out[g.name] = Mapping(entry)
	}
	return out
}

// sortGroups orders groups descending by conversions when that column
// exists, otherwise by the fallback figure. Ties break on name for stable
// output.
func sortGroups(groups []*groupStats, byConversions bool, fallback func(*groupStats) float64) {
	key := func(g *groupStats) float64 {
		if byConversions {
			return g.conversions
		}
		return fallback(g)
	}
	slices.SortFunc(groups, func(a, b *groupStats) int {
		switch {
		case key(a) > key(b):
			return -1
		case key(a) < key(b):
			return 1
		default:
			return strings.Compare(a.name, b.name)
		}
	})
}

// ChannelPerformance aggregates marketing figures by acquisition source.
type ChannelPerformance struct {
	data *dataset.Dataset
}

func NewChannelPerformance(d *dataset.Dataset) (Metric, error) {
	m := &ChannelPerformance{data: d}
	if err := validateColumns(d, m.Definition()); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *ChannelPerformance) Definition() Definition {
	return Definition{
		Name:            "channel_performance",
		DisplayName:     "Channel Performance",
		Description:     "Performance metrics by marketing channel",
		Category:        CategoryMarketing,
		Unit:            "$",
		Formula:         "Metrics grouped by source/channel",
		RequiredColumns: []string{"source"},
	}
}

func (m *ChannelPerformance) Calculate(p Params) (Result, error) {
	groups := groupMarketing(m.data, "source")
	sortGroups(groups, m.data.Has("conversions"), func(g *groupStats) float64 {
		return float64(g.records)
	})

	var totalSpend float64
	if m.data.Has("spend") {
		totalSpend = sum(m.data.Numbers("spend"))
	}

	metadata := map[string]Value{
		"channels":      Mapping(marketingBreakdown(m.data, groups, "cost_per_conversion")),
		"channel_count": Num(float64(len(groups))),
	}
	if len(groups) > 0 {
		metadata["top_channel"] = Str(groups[0].name)
	}

	return newResult(m.Definition(), totalSpend, "", metadata), nil
}

// CampaignPerformance aggregates marketing figures by campaign.
type CampaignPerformance struct {
	data *dataset.Dataset
}

func NewCampaignPerformance(d *dataset.Dataset) (Metric, error) {
	m := &CampaignPerformance{data: d}
	if err := validateColumns(d, m.Definition()); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *CampaignPerformance) Definition() Definition {
	return Definition{
		Name:            "campaign_performance",
		DisplayName:     "Campaign Performance",
		Description:     "Performance metrics by campaign",
		Category:        CategoryMarketing,
		Unit:            "$",
		Formula:         "Metrics grouped by campaign",
		RequiredColumns: []string{"campaign"},
	}
}

func (m *CampaignPerformance) Calculate(p Params) (Result, error) {
	groups := groupMarketing(m.data, "campaign")
	sortGroups(groups, m.data.Has("conversions"), func(g *groupStats) float64 {
		return g.leads
	})

	var totalConversions float64
	if m.data.Has("conversions") {
		totalConversions = sum(m.data.Numbers("conversions"))
	}

	metadata := map[string]Value{
		"campaigns":      Mapping(marketingBreakdown(m.data, groups, "cpa")),
		"campaign_count": Num(float64(len(groups))),
	}
	if len(groups) > 0 {
		metadata["top_campaign"] = Str(groups[0].name)
	}

	return newResult(m.Definition(), totalConversions, "", metadata), nil
}

// CostPerLead reports average spend per generated lead.
type CostPerLead struct {
	data *dataset.Dataset
}

func NewCostPerLead(d *dataset.Dataset) (Metric, error) {
	m := &CostPerLead{data: d}
	if err := validateColumns(d, m.Definition()); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *CostPerLead) Definition() Definition {
	return Definition{
		Name:            "cost_per_lead",
		DisplayName:     "Cost Per Lead",
		Description:     "Average cost to generate a lead",
		Category:        CategoryMarketing,
		Unit:            "$",
		Formula:         "Total Spend / Total Leads",
		RequiredColumns: []string{"spend", "leads"},
	}
}

func (m *CostPerLead) Calculate(p Params) (Result, error) {
	totalSpend := sum(m.data.Numbers("spend"))
	totalLeads := sum(m.data.Numbers("leads"))

	var cpl float64
	if totalLeads != 0 {
		cpl = totalSpend / totalLeads
	}

	return newResult(m.Definition(), cpl, "", map[string]Value{
		"total_spend": Num(round2(totalSpend)),
		"total_leads": Num(totalLeads),
	}), nil
}

// ROAS reports revenue generated per dollar of ad spend.
type ROAS struct {
	data *dataset.Dataset
}

func NewROAS(d *dataset.Dataset) (Metric, error) {
	m := &ROAS{data: d}
	if err := validateColumns(d, m.Definition()); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *ROAS) Definition() Definition {
	return Definition{
		Name:            "roas",
		DisplayName:     "Return on Ad Spend",
		Description:     "Revenue generated per dollar of ad spend",
		Category:        CategoryMarketing,
		Unit:            "ratio",
		Formula:         "Revenue / Ad Spend",
		RequiredColumns: []string{"spend", "revenue"},
	}
}

func (m *ROAS) Calculate(p Params) (Result, error) {
	totalSpend := sum(m.data.Numbers("spend"))
	totalRevenue := sum(m.data.Numbers("revenue"))

	roas := 0.0
	status := "unknown"
	if totalSpend != 0 {
		roas = totalRevenue / totalSpend
		switch {
		case roas >= 4:
			status = "excellent"
		case roas >= 2:
			status = "good"
		case roas >= 1:
			status = "break_even"
		default:
			status = "losing"
		}
	}

	return newResult(m.Definition(), roas, "", map[string]Value{
		"total_revenue": Num(round2(totalRevenue)),
		"total_spend":   Num(round2(totalSpend)),
		"status":        Str(status),
	}), nil
}

// LeadVelocity reports month-over-month growth in lead totals.
type LeadVelocity struct {
	data *dataset.Dataset
}

func NewLeadVelocity(d *dataset.Dataset) (Metric, error) {
	m := &LeadVelocity{data: d}
	if err := validateColumns(d, m.Definition()); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *LeadVelocity) Definition() Definition {
	return Definition{
		Name:            "lead_velocity",
		DisplayName:     "Lead Velocity Rate",
		Description:     "Month-over-month growth in qualified leads",
		Category:        CategoryMarketing,
		Unit:            "%",
		Formula:         "((Current Month Leads - Previous Month Leads) / Previous Month) * 100",
		RequiredColumns: []string{"leads", "date"},
	}
}

func (m *LeadVelocity) Calculate(p Params) (Result, error) {
	dates, err := m.data.Times("date")
	if err != nil {
		return Result{}, err
	}
	monthly := aggregateByPeriod(dates, m.data.Numbers("leads"), PeriodMonth, AggSum)

	if len(monthly) < 2 {
		return newResult(m.Definition(), 0, "", map[string]Value{
			"message":          Str("Need at least 2 months of data"),
			"months_available": Num(float64(len(monthly))),
		}), nil
	}

	current := monthly[len(monthly)-1]
	previous := monthly[len(monthly)-2]

	var velocity float64
	switch {
	case previous.Value != 0:
		velocity = (current.Value - previous.Value) / previous.Value * 100
	case current.Value > 0:
		velocity = 100
	}

	return newResult(m.Definition(), velocity, "", map[string]Value{
		"current_month":  Str(current.Key.Label()),
		"previous_month": Str(previous.Key.Label()),
		"current_leads":  Num(current.Value),
		"previous_leads": Num(previous.Value),
	}), nil
}

// defaultFunnelStages is the assumed stage progression when a caller does
// not supply one.
var defaultFunnelStages = []string{"lead", "qualified", "opportunity", "proposal", "customer"}

// FunnelAnalysis measures stage-to-stage conversion through an ordered
// funnel.
type FunnelAnalysis struct {
	data *dataset.Dataset
}

func NewFunnelAnalysis(d *dataset.Dataset) (Metric, error) {
	m := &FunnelAnalysis{data: d}
	if err := validateColumns(d, m.Definition()); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *FunnelAnalysis) Definition() Definition {
	return Definition{
		Name:            "funnel_analysis",
		DisplayName:     "Funnel Analysis",
		Description:     "Conversion rates through funnel stages",
		Category:        CategoryMarketing,
		Unit:            "%",
		Formula:         "Count and conversion at each stage",
		RequiredColumns: []string{"stage"},
	}
}

func (m *FunnelAnalysis) Calculate(p Params) (Result, error) {
	stages := p.Stages
	if len(stages) == 0 {
		stages = defaultFunnelStages
	}

	rows := m.data.Strings("stage")
	counts := make(map[string]int, len(stages))
	for _, stage := range stages {
		want := strings.ToLower(stage)
		for _, row := range rows {
			if strings.ToLower(strings.TrimSpace(row)) == want {
				counts[stage]++
			}
		}
	}

	stageCounts := make(map[string]Value, len(stages))
	for _, stage := range stages {
		stageCounts[stage] = Num(float64(counts[stage]))
	}

	stageConversions := make(map[string]Value, len(stages)-1)
	for i := 0; i < len(stages)-1; i++ {
		rate := 0.0
		if counts[stages[i]] > 0 {
			rate = float64(counts[stages[i+1]]) / float64(counts[stages[i]]) * 100
		}
		key := fmt.Sprintf("%s_to_%s", stages[i], stages[i+1])
		stageConversions[key] = Num(round2(rate))
	}

	first := counts[stages[0]]
	last := counts[stages[len(stages)-1]]
	var overall float64
	if first > 0 {
		overall = float64(last) / float64(first) * 100
	}

	return newResult(m.Definition(), overall, "", map[string]Value{
		"stage_counts":      Mapping(stageCounts),
		"stage_conversions": Mapping(stageConversions),
		"total_entered":     Num(float64(first)),
		"total_converted":   Num(float64(last)),
	}), nil
}
