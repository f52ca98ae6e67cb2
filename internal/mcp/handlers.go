package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"

	"github.com/Hussain0327/echo-analytics-platform/internal/dataset"
	"github.com/Hussain0327/echo-analytics-platform/internal/metrics"
)

type loadDatasetArgs struct {
	CSV  string `json:"csv"`
	Name string `json:"name,omitempty"`
}

type columnInfo struct {
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	NonEmpty int    `json:"non_empty"`
	Sample   string `json:"sample,omitempty"`
}

type datasetInfo struct {
	Source  string       `json:"source"`
	Rows    int          `json:"rows"`
	Columns []columnInfo `json:"columns"`
}

func (s *Server) loadDataset(ctx context.Context, req *mcp.CallToolRequest, args loadDatasetArgs) (*mcp.CallToolResult, any, error) {
	d, err := dataset.FromCSV(strings.NewReader(args.CSV))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse CSV: %w", err)
	}

	source := args.Name
	if source == "" {
		source = "uploaded data"
	}
	s.setData(d, source)
	log.Info().Str("source", source).Int("rows", d.Len()).Msg("Dataset loaded")

	return jsonResult(describe(d, source))
}

type emptyArgs struct{}

func (s *Server) describeDataset(ctx context.Context, req *mcp.CallToolRequest, args emptyArgs) (*mcp.CallToolResult, any, error) {
	d, source, err := s.requireData()
	if err != nil {
		return nil, nil, err
	}
	result := struct {
		datasetInfo
		DateRange *metrics.DateRange `json:"date_range,omitempty"`
	}{datasetInfo: describe(d, source)}

	if d.Has("date") {
		if a, err := metrics.NewAnalyzer(d, "date"); err == nil {
			r := a.DateRange()
			result.DateRange = &r
		}
	}
	return jsonResult(result)
}

type categoryArgs struct {
	Category string `json:"category,omitempty"`
}

func (s *Server) listMetrics(ctx context.Context, req *mcp.CallToolRequest, args categoryArgs) (*mcp.CallToolResult, any, error) {
	category, err := parseCategory(args.Category)
	if err != nil {
		return nil, nil, err
	}
	defs := metrics.NewEngine(dataset.Empty()).ListMetrics(category)
	return jsonResult(map[string]any{
		"metrics": defs,
		"count":   len(defs),
	})
}

type calculateMetricArgs struct {
	Metric         string   `json:"metric"`
	Period         string   `json:"period,omitempty"`
	LifespanMonths int      `json:"lifespan_months,omitempty"`
	CashBalance    float64  `json:"cash_balance,omitempty"`
	Stages         []string `json:"stages,omitempty"`
}

func (s *Server) calculateMetric(ctx context.Context, req *mcp.CallToolRequest, args calculateMetricArgs) (*mcp.CallToolResult, any, error) {
	d, _, err := s.requireData()
	if err != nil {
		return nil, nil, err
	}

	result, err := metrics.NewEngine(d).Calculate(args.Metric, metrics.Params{
		Period:         parsePeriodArg(args.Period),
		LifespanMonths: args.LifespanMonths,
		CashBalance:    args.CashBalance,
		Stages:         args.Stages,
	})
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(result)
}

func (s *Server) calculateAllMetrics(ctx context.Context, req *mcp.CallToolRequest, args categoryArgs) (*mcp.CallToolResult, any, error) {
	d, _, err := s.requireData()
	if err != nil {
		return nil, nil, err
	}
	category, err := parseCategory(args.Category)
	if err != nil {
		return nil, nil, err
	}
	results := metrics.NewEngine(d).CalculateAll(category)
	return jsonResult(map[string]any{
		"results": results,
		"count":   len(results),
	})
}

type analyzerArgs struct {
	ValueColumn string `json:"value_column"`
	DateColumn  string `json:"date_column,omitempty"`
	Period      string `json:"period,omitempty"`
}

func (s *Server) analyzeTrend(ctx context.Context, req *mcp.CallToolRequest, args analyzerArgs) (*mcp.CallToolResult, any, error) {
	a, err := s.analyzer(args.DateColumn)
	if err != nil {
		return nil, nil, err
	}
	trend, err := a.DetectTrend(args.ValueColumn, parsePeriodArg(args.Period))
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(trend)
}

type growthArgs struct {
	analyzerArgs
	PeriodsBack int `json:"periods_back,omitempty"`
}

func (s *Server) analyzeGrowth(ctx context.Context, req *mcp.CallToolRequest, args growthArgs) (*mcp.CallToolResult, any, error) {
	a, err := s.analyzer(args.DateColumn)
	if err != nil {
		return nil, nil, err
	}
	points, err := a.Growth(args.ValueColumn, parsePeriodArg(args.Period), args.PeriodsBack)
	if err != nil {
		return nil, nil, err
	}
	comparison, err := a.PeriodComparison(args.ValueColumn, parsePeriodArg(args.Period))
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(map[string]any{
		"growth":            points,
		"latest_comparison": comparison,
	})
}

type seasonalityArgs struct {
	ValueColumn string `json:"value_column"`
	DateColumn  string `json:"date_column,omitempty"`
	By          string `json:"by,omitempty"`
}

func (s *Server) analyzeSeasonality(ctx context.Context, req *mcp.CallToolRequest, args seasonalityArgs) (*mcp.CallToolResult, any, error) {
	a, err := s.analyzer(args.DateColumn)
	if err != nil {
		return nil, nil, err
	}
	pattern, err := a.SeasonalPattern(args.ValueColumn, args.By)
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(map[string]any{
		"by":      defaultString(args.By, "day_of_week"),
		"pattern": pattern,
	})
}

type outlierArgs struct {
	ValueColumn string  `json:"value_column"`
	DateColumn  string  `json:"date_column,omitempty"`
	Method      string  `json:"method,omitempty"`
	Threshold   float64 `json:"threshold,omitempty"`
}

func (s *Server) detectOutliers(ctx context.Context, req *mcp.CallToolRequest, args outlierArgs) (*mcp.CallToolResult, any, error) {
	a, err := s.analyzer(args.DateColumn)
	if err != nil {
		return nil, nil, err
	}
	flagged, err := a.Outliers(args.ValueColumn, defaultString(args.Method, metrics.OutlierIQR), args.Threshold)
	if err != nil {
		return nil, nil, err
	}

	names := flagged.ColumnNames()
	rows := make([]map[string]string, flagged.Len())
	for i := range rows {
		row := make(map[string]string, len(names))
		for j, name := range names {
			row[name] = flagged.Row(i)[j]
		}
		rows[i] = row
	}
	return jsonResult(map[string]any{
		"method":   defaultString(args.Method, metrics.OutlierIQR),
		"count":    len(rows),
		"outliers": rows,
	})
}

// analyzer builds a time-series analyzer over the active dataset.
func (s *Server) analyzer(dateColumn string) (*metrics.Analyzer, error) {
	d, _, err := s.requireData()
	if err != nil {
		return nil, err
	}
	return metrics.NewAnalyzer(d, defaultString(dateColumn, "date"))
}

func (s *Server) requireData() (*dataset.Dataset, string, error) {
	d, source := s.activeData()
	if d == nil {
		return nil, "", fmt.Errorf("no dataset loaded, call load_dataset first")
	}
	return d, source, nil
}

func describe(d *dataset.Dataset, source string) datasetInfo {
	info := datasetInfo{Source: source, Rows: d.Len()}
	for _, col := range d.Columns() {
		sample := d.First(col.Name)
		if len(sample) > 30 {
			sample = sample[:30] + "..."
		}
		info.Columns = append(info.Columns, columnInfo{
			Name:     col.Name,
			Kind:     col.Kind.String(),
			NonEmpty: d.NonEmpty(col.Name),
			Sample:   sample,
		})
	}
	return info
}

func parseCategory(s string) (metrics.Category, error) {
	switch metrics.Category(s) {
	case "", metrics.CategoryRevenue, metrics.CategoryFinancial, metrics.CategoryMarketing:
		return metrics.Category(s), nil
	default:
		return "", fmt.Errorf("unknown category %q, expected revenue, financial, or marketing", s)
	}
}

// parsePeriodArg keeps an empty argument empty so downstream defaults apply.
func parsePeriodArg(s string) metrics.Period {
	if s == "" {
		return ""
	}
	return metrics.ParsePeriod(s)
}

func defaultString(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// jsonResult packages a value as pretty-printed JSON text content alongside
// the structured payload.
func jsonResult(v any) (*mcp.CallToolResult, any, error) {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(raw)}},
	}, v, nil
}
