package llm

import (
	"strings"
	"testing"

	"github.com/Hussain0327/echo-analytics-platform/internal/dataset"
	"github.com/Hussain0327/echo-analytics-platform/internal/metrics"
)

func salesData(t *testing.T) *dataset.Dataset {
	t.Helper()
	d, err := dataset.New(
		[]dataset.Column{
			{Name: "amount", Kind: dataset.KindNumber},
			{Name: "date", Kind: dataset.KindTime},
			{Name: "product", Kind: dataset.KindString},
		},
		[][]string{
			{"100", "2024-01-05", "basic"},
			{"250", "2024-02-10", "pro"},
			{"400", "2024-03-15", "pro"},
		},
	)
	if err != nil {
		t.Fatalf("dataset.New() error = %v", err)
	}
	return d
}

func TestBuildDataSummary(t *testing.T) {
	got := BuildDataSummary(salesData(t), "sales.csv")

	for _, want := range []string{
		"**Data Source**: sales.csv",
		"**Rows**: 3",
		"**Columns**: 3",
		"amount (number): 3 values",
		"**Date Range**: 2024-01-05 to 2024-03-15",
		"amount: min=100.00, max=400.00, avg=250.00",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("summary missing %q\n%s", want, got)
		}
	}
}

func TestBuildDataSummaryEmpty(t *testing.T) {
	if got := BuildDataSummary(dataset.Empty(), "x"); got != "No data loaded." {
		t.Errorf("summary = %q", got)
	}
	if got := BuildDataSummary(nil, "x"); got != "No data loaded." {
		t.Errorf("nil summary = %q", got)
	}
}

func TestBuildQuickStats(t *testing.T) {
	got := BuildQuickStats(salesData(t))

	for _, want := range []string{
		"Total amount: $750.00",
		"Average amount: $250.00",
		"Total records: 3",
		"Unique products: 2",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("quick stats missing %q\n%s", want, got)
		}
	}
}

func TestBuildMetricsSummary(t *testing.T) {
	d := salesData(t)
	results := metrics.NewEngine(d).CalculateAll(metrics.CategoryRevenue)
	got := BuildMetricsSummary(results)

	if !strings.Contains(got, "### Revenue") {
		t.Error("category heading missing")
	}
	if !strings.Contains(got, "**Total Revenue**: $750.00") {
		t.Errorf("total revenue line missing\n%s", got)
	}
	if !strings.Contains(got, "**Mrr**: $750.00") {
		t.Errorf("mrr line missing\n%s", got)
	}
}

func TestBuildMetricsSummaryEmpty(t *testing.T) {
	if got := BuildMetricsSummary(nil); got != "No metrics calculated yet." {
		t.Errorf("summary = %q", got)
	}
}

func TestBuildFullContext(t *testing.T) {
	d := salesData(t)
	results := metrics.NewEngine(d).CalculateAll("")

	dataSummary, metricsSummary := BuildFullContext(d, results, "sales.csv")
	if !strings.Contains(dataSummary, "**Quick Stats**:") {
		t.Error("quick stats not appended to data summary")
	}
	if !strings.Contains(metricsSummary, "**Calculated Metrics**:") {
		t.Error("metrics summary missing header")
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		unit  string
		want  string
	}{
		{"Dollars", 1234.5, "$", "$1234.50"},
		{"Percent", 42.25, "%", "42.2%"},
		{"Months", 18.5, "months", "18.5 months"},
		{"Ratio", 3.21, "ratio", "3.21x"},
		{"FreeForm", 7, "$/month", "7.00$/month"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatValue(tt.value, tt.unit); got != tt.want {
				t.Errorf("formatValue() = %q, want %q", got, tt.want)
			}
		})
	}
}
