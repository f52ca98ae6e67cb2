package mcp

import (
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var periodSchema = &jsonschema.Schema{
	Type:        "string",
	Enum:        []any{"day", "week", "month", "quarter", "year"},
	Description: "Calendar bucket for grouping. Defaults to month.",
}

var categorySchema = &jsonschema.Schema{
	Type:        "string",
	Enum:        []any{"revenue", "financial", "marketing"},
	Description: "Metric category filter.",
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name: "load_dataset",
		Description: "Load a CSV dataset into the analysis session. Column headers are normalized " +
			"to snake_case and column types (text, number, date) are inferred. Replaces any " +
			"previously loaded dataset.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"csv":  {Type: "string", Description: "Raw CSV content including the header row"},
				"name": {Type: "string", Description: "Optional label for the data source (e.g. the file name)"},
			},
			Required: []string{"csv"},
		},
	}, s.loadDataset)

	mcp.AddTool(s.server, &mcp.Tool{
		Name: "describe_dataset",
		Description: "Describe the loaded dataset: row and column counts, per-column types and " +
			"samples, date range, and numeric ranges.",
	}, s.describeDataset)

	mcp.AddTool(s.server, &mcp.Tool{
		Name: "list_metrics",
		Description: "List the available business metrics with their descriptions, formulas, and " +
			"required columns, optionally filtered by category.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"category": categorySchema,
			},
		},
	}, s.listMetrics)

	mcp.AddTool(s.server, &mcp.Tool{
		Name: "calculate_metric",
		Description: "Calculate one metric by name against the loaded dataset. Fails if the " +
			"dataset lacks the metric's required columns.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"metric":          {Type: "string", Description: "Metric name, e.g. total_revenue or ltv_cac_ratio"},
				"period":          periodSchema,
				"lifespan_months": {Type: "integer", Description: "Assumed customer lifespan for LTV. Defaults to 24."},
				"cash_balance":    {Type: "number", Description: "Current cash balance, required for a meaningful runway"},
				"stages":          {Type: "array", Items: &jsonschema.Schema{Type: "string"}, Description: "Ordered funnel stages for funnel_analysis"},
			},
			Required: []string{"metric"},
		},
	}, s.calculateMetric)

	mcp.AddTool(s.server, &mcp.Tool{
		Name: "calculate_all_metrics",
		Description: "Calculate every metric the loaded dataset supports, optionally filtered by " +
			"category. Metrics missing their required columns are skipped, never errors.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"category": categorySchema,
			},
		},
	}, s.calculateAllMetrics)

	mcp.AddTool(s.server, &mcp.Tool{
		Name: "analyze_trend",
		Description: "Classify the overall direction of a value column over time (strong_upward, " +
			"upward, stable, downward, strong_downward) from the correlation between period " +
			"index and value. Needs at least 3 periods.",
		InputSchema: analyzerSchema(nil),
	}, s.analyzeTrend)

	mcp.AddTool(s.server, &mcp.Tool{
		Name: "analyze_growth",
		Description: "Compute period-over-period growth of a value column: per-period value, " +
			"previous value, absolute change, and percent change.",
		InputSchema: analyzerSchema(map[string]*jsonschema.Schema{
			"periods_back": {Type: "integer", Description: "How many periods back to compare against. Defaults to 1."},
		}),
	}, s.analyzeGrowth)

	mcp.AddTool(s.server, &mcp.Tool{
		Name: "analyze_seasonality",
		Description: "Average a value column by day of week, month, or hour of day to expose " +
			"seasonal patterns.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"value_column": {Type: "string", Description: "Numeric column to average"},
				"date_column":  {Type: "string", Description: "Date column. Defaults to 'date'."},
				"by": {
					Type:        "string",
					Enum:        []any{"day_of_week", "month", "hour"},
					Description: "Grouping dimension. Defaults to day_of_week.",
				},
			},
			Required: []string{"value_column"},
		},
	}, s.analyzeSeasonality)

	mcp.AddTool(s.server, &mcp.Tool{
		Name: "detect_outliers",
		Description: "Flag rows whose value column falls outside 1.5*IQR (default) or beyond a " +
			"z-score threshold, and return the flagged rows.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"value_column": {Type: "string", Description: "Numeric column to test"},
				"date_column":  {Type: "string", Description: "Date column. Defaults to 'date'."},
				"method": {
					Type:        "string",
					Enum:        []any{"iqr", "zscore"},
					Description: "Detection method. Defaults to iqr.",
				},
				"threshold": {Type: "number", Description: "IQR multiplier or z-score bound. Defaults to 1.5."},
			},
			Required: []string{"value_column"},
		},
	}, s.detectOutliers)
}

// analyzerSchema is the shared input shape of the time-series tools.
func analyzerSchema(extra map[string]*jsonschema.Schema) *jsonschema.Schema {
	properties := map[string]*jsonschema.Schema{
		"value_column": {Type: "string", Description: "Numeric column to analyze"},
		"date_column":  {Type: "string", Description: "Date column. Defaults to 'date'."},
		"period":       periodSchema,
	}
	for name, schema := range extra {
		properties[name] = schema
	}
	return &jsonschema.Schema{
		Type:       "object",
		Properties: properties,
		Required:   []string{"value_column"},
	}
}
