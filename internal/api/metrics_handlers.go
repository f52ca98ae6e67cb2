package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Hussain0327/echo-analytics-platform/internal/dataset"
	"github.com/Hussain0327/echo-analytics-platform/internal/metrics"
)

func (s *Server) handleAvailableMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, metrics.AvailableByCategory())
}

// handleCalculate runs named metrics (or all of them) against an uploaded
// CSV. Unknown or inapplicable requested metrics report a per-metric error
// instead of failing the call.
func (s *Server) handleCalculate(c *gin.Context) {
	d, filename, ok := s.readCSVUpload(c)
	if !ok {
		return
	}

	engine := metrics.NewEngine(d)
	requested := c.Query("metrics")

	var results []gin.H
	if requested != "" && requested != "all" {
		for _, name := range strings.Split(requested, ",") {
			name = strings.TrimSpace(name)
			result, err := engine.Calculate(name, metrics.Params{
				Period: parsePeriodQuery(c),
			})
			if err != nil {
				results = append(results, gin.H{"metric_name": name, "error": err.Error()})
				continue
			}
			results = append(results, resultJSON(result))
		}
	} else {
		category := metrics.Category(c.Query("category"))
		for _, result := range engine.CalculateAll(category) {
			results = append(results, resultJSON(result))
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"file":               filename,
		"rows":               d.Len(),
		"columns":            d.ColumnNames(),
		"metrics_calculated": len(results),
		"results":            results,
	})
}

func (s *Server) handleTrend(c *gin.Context) {
	d, filename, ok := s.readCSVUpload(c)
	if !ok {
		return
	}
	valueColumn, dateColumn, ok := s.analyzerColumns(c, d)
	if !ok {
		return
	}

	analyzer, err := metrics.NewAnalyzer(d, dateColumn)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	period := parsePeriodQuery(c)
	trend, err := analyzer.DetectTrend(valueColumn, period)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	comparison, err := analyzer.PeriodComparison(valueColumn, period)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"file":         filename,
		"value_column": valueColumn,
		"trend":        trend,
		"comparison":   comparison,
		"date_range":   analyzer.DateRange(),
	})
}

func (s *Server) handleGrowth(c *gin.Context) {
	d, filename, ok := s.readCSVUpload(c)
	if !ok {
		return
	}
	valueColumn, dateColumn, ok := s.analyzerColumns(c, d)
	if !ok {
		return
	}

	analyzer, err := metrics.NewAnalyzer(d, dateColumn)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	period := metrics.ParsePeriod(c.DefaultQuery("period", "month"))
	points, err := analyzer.Growth(valueColumn, period, 1)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"file":         filename,
		"value_column": valueColumn,
		"period":       string(period),
		"growth_data":  points,
	})
}

// readCSVUpload pulls the "file" form upload, insists on a .csv name, and
// parses it. Writes the 400 response itself on failure.
func (s *Server) readCSVUpload(c *gin.Context) (*dataset.Dataset, string, bool) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "File is required"})
		return nil, "", false
	}
	if !strings.HasSuffix(strings.ToLower(header.Filename), ".csv") {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "File must be CSV"})
		return nil, "", false
	}

	f, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Failed to read file"})
		return nil, "", false
	}
	defer f.Close()

	d, err := dataset.FromCSV(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "File is empty or invalid"})
		return nil, "", false
	}
	return d, header.Filename, true
}

// analyzerColumns validates the value/date column query params against the
// dataset. Writes the 400 response itself on failure.
func (s *Server) analyzerColumns(c *gin.Context, d *dataset.Dataset) (string, string, bool) {
	valueColumn := c.Query("value_column")
	if valueColumn == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "value_column is required"})
		return "", "", false
	}
	if !d.Has(valueColumn) {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Column '" + valueColumn + "' not found"})
		return "", "", false
	}

	dateColumn := c.DefaultQuery("date_column", "date")
	if !d.Has(dateColumn) {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Date column '" + dateColumn + "' not found"})
		return "", "", false
	}
	return valueColumn, dateColumn, true
}

func parsePeriodQuery(c *gin.Context) metrics.Period {
	if p := c.Query("period"); p != "" {
		return metrics.ParsePeriod(p)
	}
	return ""
}

// resultJSON flattens a metric result for the response body.
func resultJSON(r metrics.Result) gin.H {
	return gin.H{
		"metric_name":   r.Name,
		"value":         r.Value,
		"unit":          r.Unit,
		"period":        r.Period,
		"metadata":      r.Metadata,
		"calculated_at": r.CalculatedAt,
	}
}
