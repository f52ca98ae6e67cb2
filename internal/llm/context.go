package llm

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Hussain0327/echo-analytics-platform/internal/dataset"
	"github.com/Hussain0327/echo-analytics-platform/internal/metrics"
)

// quickStatColumns are the grouping columns worth a distinct-count line in
// the quick stats block.
var quickStatColumns = []string{"customer_id", "product", "source", "channel", "campaign"}

// amountTerms mark a column as revenue-like for the quick stats block.
var amountTerms = []string{"amount", "revenue", "price", "total", "value"}

// BuildDataSummary renders a dataset overview in markdown for prompt
// injection: shape, per-column samples, date range, and numeric ranges.
func BuildDataSummary(d *dataset.Dataset, sourceName string) string {
	if d == nil || d.Len() == 0 {
		return "No data loaded."
	}
	if sourceName == "" {
		sourceName = "uploaded data"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**Data Source**: %s\n", sourceName)
	fmt.Fprintf(&b, "**Rows**: %d\n", d.Len())
	fmt.Fprintf(&b, "**Columns**: %d\n\n", len(d.Columns()))

	b.WriteString("**Columns Available**:\n")
	for _, col := range d.Columns() {
		sample := d.First(col.Name)
		if sample == "" {
			sample = "N/A"
		}
		if len(sample) > 30 {
			sample = sample[:30] + "..."
		}
		fmt.Fprintf(&b, "  - %s (%s): %d values, e.g. '%s'\n", col.Name, col.Kind, d.NonEmpty(col.Name), sample)
	}

	if dateCol := findDateColumn(d); dateCol != "" {
		if lo, hi, ok := dateBounds(d, dateCol); ok {
			fmt.Fprintf(&b, "\n**Date Range**: %s to %s\n", lo, hi)
		}
	}

	numeric := numericColumns(d)
	if len(numeric) > 5 {
		numeric = numeric[:5]
	}
	if len(numeric) > 0 {
		b.WriteString("\n**Numeric Column Ranges**:\n")
		for _, name := range numeric {
			values := d.Numbers(name)
			lo, hi := values[0], values[0]
			var total float64
			for _, v := range values {
				if v < lo {
					lo = v
				}
				if v > hi {
					hi = v
				}
				total += v
			}
			fmt.Fprintf(&b, "  - %s: min=%.2f, max=%.2f, avg=%.2f\n", name, lo, hi, total/float64(len(values)))
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

// BuildQuickStats renders headline figures: the first revenue-like column's
// total and average, the record count, and distinct counts of the usual
// grouping columns.
func BuildQuickStats(d *dataset.Dataset) string {
	if d == nil || d.Len() == 0 {
		return ""
	}

	var stats []string
	for _, col := range d.Columns() {
		if col.Kind != dataset.KindNumber || !isAmountColumn(col.Name) {
			continue
		}
		values := d.Numbers(col.Name)
		var total float64
		for _, v := range values {
			total += v
		}
		stats = append(stats,
			fmt.Sprintf("Total %s: $%.2f", col.Name, total),
			fmt.Sprintf("Average %s: $%.2f", col.Name, total/float64(len(values))),
		)
		break
	}

	stats = append(stats, fmt.Sprintf("Total records: %d", d.Len()))

	for _, name := range quickStatColumns {
		if d.Has(name) {
			stats = append(stats, fmt.Sprintf("Unique %ss: %d", name, d.Unique(name)))
		}
	}

	lines := make([]string, len(stats))
	for i, s := range stats {
		lines[i] = "- " + s
	}
	return "**Quick Stats**:\n" + strings.Join(lines, "\n")
}

// BuildMetricsSummary renders calculated metric results grouped by category,
// with unit-aware value formatting and a few metadata lines per metric.
func BuildMetricsSummary(results []metrics.Result) string {
	if len(results) == 0 {
		return "No metrics calculated yet."
	}

	categoryFor := make(map[string]metrics.Category)
	for category, names := range metrics.AvailableByCategory() {
		for _, name := range names {
			categoryFor[name] = category
		}
	}

	grouped := make(map[metrics.Category][]metrics.Result)
	var order []metrics.Category
	for _, r := range results {
		category, ok := categoryFor[r.Name]
		if !ok {
			category = "general"
		}
		if _, seen := grouped[category]; !seen {
			order = append(order, category)
		}
		grouped[category] = append(grouped[category], r)
	}

	var b strings.Builder
	b.WriteString("**Calculated Metrics**:\n")
	for _, category := range order {
		fmt.Fprintf(&b, "\n### %s\n", titleCase(string(category)))
		for _, r := range grouped[category] {
			fmt.Fprintf(&b, "- **%s**: %s\n", titleCase(r.Name), formatValue(r.Value, r.Unit))
			for _, key := range metadataKeys(r) {
				v := r.Metadata[key]
				switch v.Kind() {
				case metrics.ValueNumber:
					fmt.Fprintf(&b, "  - %s: %.2f\n", key, v.Number())
				case metrics.ValueString:
					fmt.Fprintf(&b, "  - %s: %s\n", key, v.Text())
				}
			}
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// BuildFullContext combines the dataset and metrics views into the two
// context blocks the consultant prompt expects.
func BuildFullContext(d *dataset.Dataset, results []metrics.Result, sourceName string) (dataSummary, metricsSummary string) {
	if d != nil && d.Len() > 0 {
		dataSummary = BuildDataSummary(d, sourceName)
		if quick := BuildQuickStats(d); quick != "" {
			dataSummary += "\n\n" + quick
		}
	}
	if len(results) > 0 {
		metricsSummary = BuildMetricsSummary(results)
	}
	return dataSummary, metricsSummary
}

// metadataKeys picks up to three scalar metadata keys, sorted for stable
// output.
func metadataKeys(r metrics.Result) []string {
	var keys []string
	for key, v := range r.Metadata {
		if v.Kind() == metrics.ValueNumber || v.Kind() == metrics.ValueString {
			keys = append(keys, key)
		}
	}
	slices.Sort(keys)
	if len(keys) > 3 {
		keys = keys[:3]
	}
	return keys
}

func formatValue(value float64, unit string) string {
	switch unit {
	case "$":
		return fmt.Sprintf("$%.2f", value)
	case "%":
		return fmt.Sprintf("%.1f%%", value)
	case "months":
		return fmt.Sprintf("%.1f months", value)
	case "ratio":
		return fmt.Sprintf("%.2fx", value)
	default:
		return fmt.Sprintf("%.2f%s", value, unit)
	}
}

func titleCase(s string) string {
	words := strings.Split(s, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func isAmountColumn(name string) bool {
	lower := strings.ToLower(name)
	for _, term := range amountTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

func findDateColumn(d *dataset.Dataset) string {
	for _, col := range d.Columns() {
		if col.Kind == dataset.KindTime {
			return col.Name
		}
	}
	for _, col := range d.Columns() {
		if strings.Contains(strings.ToLower(col.Name), "date") {
			return col.Name
		}
	}
	return ""
}

// dateBounds parses the column best-effort and reports the min and max
// dates; unparsable cells are skipped rather than failing the summary.
func dateBounds(d *dataset.Dataset, column string) (string, string, bool) {
	var lo, hi string
	found := false
	for _, cell := range d.Strings(column) {
		t, err := dataset.ParseDate(cell)
		if err != nil {
			continue
		}
		day := t.Format("2006-01-02")
		if !found {
			lo, hi = day, day
			found = true
			continue
		}
		if day < lo {
			lo = day
		}
		if day > hi {
			hi = day
		}
	}
	return lo, hi, found
}

func numericColumns(d *dataset.Dataset) []string {
	var out []string
	for _, col := range d.Columns() {
		if col.Kind == dataset.KindNumber {
			out = append(out, col.Name)
		}
	}
	return out
}
