package metrics

import (
	"testing"
)

func TestConversionRate(t *testing.T) {
	tests := []struct {
		name string
		rows [][]string
		want float64
	}{
		{"Basic", [][]string{{"100", "10"}, {"100", "30"}}, 20},
		{"ZeroLeads", [][]string{{"0", "0"}}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestData(t, []string{"leads", "conversions"}, tt.rows...)
			r := mustCalculate(t, NewConversionRate, d, Params{})
			if r.Value != tt.want {
				t.Errorf("rate = %v, want %v", r.Value, tt.want)
			}
		})
	}
}

func TestChannelPerformance(t *testing.T) {
	d := newTestData(t, []string{"source", "leads", "conversions", "spend"},
		[]string{"google", "100", "10", "500"},
		[]string{"google", "50", "5", "250"},
		[]string{"facebook", "200", "40", "1000"},
	)
	r := mustCalculate(t, NewChannelPerformance, d, Params{})

	if r.Value != 1750 {
		t.Errorf("total spend = %v, want 1750", r.Value)
	}
	if got := metaStr(t, r, "top_channel"); got != "facebook" {
		t.Errorf("top_channel = %q, want facebook", got)
	}
	if got := metaNum(t, r, "channel_count"); got != 2 {
		t.Errorf("channel_count = %v, want 2", got)
	}

	channels := r.Metadata["channels"].Mapping()
	google := channels["google"].Mapping()
	if got := google["records"].Number(); got != 2 {
		t.Errorf("google records = %v, want 2", got)
	}
	if got := google["conversion_rate"].Number(); got != 10 {
		t.Errorf("google conversion_rate = %v, want 10", got)
	}
	if got := google["cost_per_conversion"].Number(); got != 50 {
		t.Errorf("google cost_per_conversion = %v, want 50", got)
	}
}

func TestChannelPerformanceSourceOnly(t *testing.T) {
	// No leads/conversions/spend columns: ranking falls back to record
	// counts and no derived rates appear.
	d := newTestData(t, []string{"source"},
		[]string{"google"},
		[]string{"google"},
		[]string{"facebook"},
	)
	r := mustCalculate(t, NewChannelPerformance, d, Params{})

	if r.Value != 0 {
		t.Errorf("total spend = %v, want 0", r.Value)
	}
	if got := metaStr(t, r, "top_channel"); got != "google" {
		t.Errorf("top_channel = %q, want google", got)
	}
	google := r.Metadata["channels"].Mapping()["google"].Mapping()
	if _, ok := google["conversion_rate"]; ok {
		t.Error("conversion_rate should be absent without leads/conversions columns")
	}
}

func TestCampaignPerformance(t *testing.T) {
	d := newTestData(t, []string{"campaign", "leads", "conversions", "spend"},
		[]string{"spring_sale", "100", "20", "400"},
		[]string{"brand", "300", "5", "900"},
	)
	r := mustCalculate(t, NewCampaignPerformance, d, Params{})

	if r.Value != 25 {
		t.Errorf("total conversions = %v, want 25", r.Value)
	}
	if got := metaStr(t, r, "top_campaign"); got != "spring_sale" {
		t.Errorf("top_campaign = %q, want spring_sale", got)
	}

	spring := r.Metadata["campaigns"].Mapping()["spring_sale"].Mapping()
	if got := spring["cpa"].Number(); got != 20 {
		t.Errorf("spring_sale cpa = %v, want 20", got)
	}
}

func TestCampaignCostPerConversionZeroConversions(t *testing.T) {
	// Zero conversions divide by one instead, keeping the spend visible.
	d := newTestData(t, []string{"campaign", "conversions", "spend"},
		[]string{"dud", "0", "500"},
	)
	r := mustCalculate(t, NewCampaignPerformance, d, Params{})
	dud := r.Metadata["campaigns"].Mapping()["dud"].Mapping()
	if got := dud["cpa"].Number(); got != 500 {
		t.Errorf("dud cpa = %v, want 500", got)
	}
}

func TestCostPerLead(t *testing.T) {
	tests := []struct {
		name string
		rows [][]string
		want float64
	}{
		{"Basic", [][]string{{"500", "100"}, {"500", "100"}}, 5},
		{"ZeroLeads", [][]string{{"500", "0"}}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestData(t, []string{"spend", "leads"}, tt.rows...)
			r := mustCalculate(t, NewCostPerLead, d, Params{})
			if r.Value != tt.want {
				t.Errorf("cpl = %v, want %v", r.Value, tt.want)
			}
		})
	}
}

func TestROAS(t *testing.T) {
	tests := []struct {
		name       string
		spend      string
		revenue    string
		wantValue  float64
		wantStatus string
	}{
		{"Excellent", "1000", "5000", 5, "excellent"},
		{"Good", "1000", "2500", 2.5, "good"},
		{"BreakEven", "1000", "1200", 1.2, "break_even"},
		{"Losing", "1000", "500", 0.5, "losing"},
		{"UnknownZeroSpend", "0", "5000", 0, "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestData(t, []string{"spend", "revenue"}, []string{tt.spend, tt.revenue})
			r := mustCalculate(t, NewROAS, d, Params{})
			if r.Value != tt.wantValue {
				t.Errorf("roas = %v, want %v", r.Value, tt.wantValue)
			}
			if got := metaStr(t, r, "status"); got != tt.wantStatus {
				t.Errorf("status = %q, want %q", got, tt.wantStatus)
			}
		})
	}
}

func TestLeadVelocity(t *testing.T) {
	t.Run("TwoMonths", func(t *testing.T) {
		d := newTestData(t, []string{"leads", "date"},
			[]string{"100", "2024-01-15"},
			[]string{"130", "2024-02-15"},
		)
		r := mustCalculate(t, NewLeadVelocity, d, Params{})
		if r.Value != 30 {
			t.Errorf("velocity = %v, want 30", r.Value)
		}
		if got := metaStr(t, r, "current_month"); got != "2024-02" {
			t.Errorf("current_month = %q, want 2024-02", got)
		}
	})

	t.Run("SingleMonth", func(t *testing.T) {
		d := newTestData(t, []string{"leads", "date"}, []string{"100", "2024-01-15"})
		r := mustCalculate(t, NewLeadVelocity, d, Params{})
		if r.Value != 0 {
			t.Errorf("velocity = %v, want 0", r.Value)
		}
		if got := metaStr(t, r, "message"); got != "Need at least 2 months of data" {
			t.Errorf("message = %q", got)
		}
	})

	t.Run("ZeroPrevious", func(t *testing.T) {
		d := newTestData(t, []string{"leads", "date"},
			[]string{"0", "2024-01-15"},
			[]string{"50", "2024-02-15"},
		)
		r := mustCalculate(t, NewLeadVelocity, d, Params{})
		if r.Value != 100 {
			t.Errorf("velocity = %v, want 100", r.Value)
		}
	})
}

func TestFunnelAnalysis(t *testing.T) {
	rows := make([][]string, 0, 160)
	for i := 0; i < 100; i++ {
		rows = append(rows, []string{"lead"})
	}
	for i := 0; i < 50; i++ {
		rows = append(rows, []string{"Qualified"})
	}
	for i := 0; i < 10; i++ {
		rows = append(rows, []string{"customer"})
	}
	d := newTestData(t, []string{"stage"}, rows...)
	r := mustCalculate(t, NewFunnelAnalysis, d, Params{})

	if r.Value != 10 {
		t.Errorf("overall conversion = %v, want 10", r.Value)
	}
	if got := metaNum(t, r, "total_entered"); got != 100 {
		t.Errorf("total_entered = %v, want 100", got)
	}
	if got := metaNum(t, r, "total_converted"); got != 10 {
		t.Errorf("total_converted = %v, want 10", got)
	}

	conversions := r.Metadata["stage_conversions"].Mapping()
	if got := conversions["lead_to_qualified"].Number(); got != 50 {
		t.Errorf("lead_to_qualified = %v, want 50", got)
	}
	if got := conversions["qualified_to_opportunity"].Number(); got != 0 {
		t.Errorf("qualified_to_opportunity = %v, want 0", got)
	}

	counts := r.Metadata["stage_counts"].Mapping()
	if got := counts["qualified"].Number(); got != 50 {
		t.Errorf("qualified count = %v, want 50", got)
	}
}

func TestFunnelAnalysisCustomStages(t *testing.T) {
	t.Run("TwoStages", func(t *testing.T) {
		d := newTestData(t, []string{"stage"},
			[]string{"visit"}, []string{"visit"}, []string{"visit"}, []string{"visit"},
			[]string{"signup"},
		)
		r := mustCalculate(t, NewFunnelAnalysis, d, Params{Stages: []string{"visit", "signup"}})
		if r.Value != 25 {
			t.Errorf("overall conversion = %v, want 25", r.Value)
		}
	})

	t.Run("ThreeStages", func(t *testing.T) {
		rows := make([][]string, 0, 160)
		for i := 0; i < 100; i++ {
			rows = append(rows, []string{"lead"})
		}
		for i := 0; i < 50; i++ {
			rows = append(rows, []string{"qualified"})
		}
		for i := 0; i < 10; i++ {
			rows = append(rows, []string{"customer"})
		}
		d := newTestData(t, []string{"stage"}, rows...)
		r := mustCalculate(t, NewFunnelAnalysis, d, Params{Stages: []string{"lead", "qualified", "customer"}})

		conversions := r.Metadata["stage_conversions"].Mapping()
		if got := conversions["qualified_to_customer"].Number(); got != 20 {
			t.Errorf("qualified_to_customer = %v, want 20", got)
		}
		if r.Value != 10 {
			t.Errorf("overall conversion = %v, want 10", r.Value)
		}
	})
}
