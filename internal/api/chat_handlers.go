package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/Hussain0327/echo-analytics-platform/internal/dataset"
	"github.com/Hussain0327/echo-analytics-platform/internal/llm"
	"github.com/Hussain0327/echo-analytics-platform/internal/metrics"
)

type chatRequest struct {
	Message   string `json:"message" binding:"required"`
	SessionID string `json:"session_id"`
}

func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	resp, err := s.conversations.Chat(c.Request.Context(), req.SessionID, req.Message, "", "")
	if err != nil {
		log.Error().Err(err).Msg("Chat service error")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Chat service error: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"response":   resp.Message,
		"session_id": resp.SessionID,
		"timestamp":  resp.Timestamp,
	})
}

// handleLoadData parses an uploaded CSV, calculates whatever metrics apply,
// and injects both summaries into the session context so the consultant can
// reference them in later turns.
func (s *Server) handleLoadData(c *gin.Context) {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "session_id is required"})
		return
	}

	d, filename, ok := s.readCSVUpload(c)
	if !ok {
		return
	}

	calculate := true
	if raw := c.Query("calculate_metrics"); raw != "" {
		if parsed, err := strconv.ParseBool(raw); err == nil {
			calculate = parsed
		}
	}

	var results []metrics.Result
	if calculate {
		results = calculateAllConcurrent(d)
	}

	dataSummary, metricsSummary := llm.BuildFullContext(d, results, filename)
	s.conversations.UpdateContext(sessionID, dataSummary, metricsSummary)

	c.JSON(http.StatusOK, gin.H{
		"session_id":         sessionID,
		"message":            "Data loaded successfully. Echo now has context about your " + filename + ".",
		"rows":               d.Len(),
		"columns":            d.ColumnNames(),
		"metrics_calculated": len(results),
	})
}

// calculateAllConcurrent fans the catalog out per category. The dataset is
// read-only under calculation, so the category engines can run in parallel;
// result order stays revenue, financial, marketing regardless of finish order.
func calculateAllConcurrent(d *dataset.Dataset) []metrics.Result {
	categories := []metrics.Category{
		metrics.CategoryRevenue,
		metrics.CategoryFinancial,
		metrics.CategoryMarketing,
	}

	perCategory := make([][]metrics.Result, len(categories))
	var g errgroup.Group
	for i, category := range categories {
		g.Go(func() error {
			perCategory[i] = metrics.NewEngine(d).CalculateAll(category)
			return nil
		})
	}
	g.Wait()

	var results []metrics.Result
	for _, batch := range perCategory {
		results = append(results, batch...)
	}
	return results
}

func (s *Server) handleHistory(c *gin.Context) {
	sessionID := c.Param("session_id")
	messages := s.conversations.History(sessionID)
	if messages == nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Session not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session_id": sessionID,
		"messages":   messages,
	})
}

func (s *Server) handleClearSession(c *gin.Context) {
	sessionID := c.Param("session_id")
	if !s.conversations.ClearSession(sessionID) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Session not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Session " + sessionID + " cleared successfully"})
}

func (s *Server) handleListSessions(c *gin.Context) {
	sessions := s.conversations.Sessions()
	c.JSON(http.StatusOK, gin.H{
		"sessions": sessions,
		"total":    len(sessions),
	})
}
