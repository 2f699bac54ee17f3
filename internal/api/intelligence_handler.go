package api

import (
	"net/http"
	"time"

	"ninebox/domain/employee"
	intel "ninebox/domain/intelligence"
	"ninebox/internal/errors"
	"ninebox/internal/intelligence"
	"ninebox/internal/metrics"

	"github.com/gin-gonic/gin"
)

// PopulationRequest carries an inline roster.
type PopulationRequest struct {
	Employees []employee.Record `json:"employees" validate:"dive"`
}

func (s *Server) bindPopulation(c *gin.Context) (employee.Population, bool) {
	var req PopulationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.InvalidInput("invalid request body: "+err.Error()))
		return employee.Population{}, false
	}
	if err := s.validate.Struct(req); err != nil {
		respondError(c, errors.ValidationError(err))
		return employee.Population{}, false
	}
	return employee.NewPopulation(req.Employees), true
}

// analyze runs one bounded analysis. Requests beyond the configured
// concurrency are rejected instead of queued.
func (s *Server) analyze(c *gin.Context, pop employee.Population) (*intel.Report, bool) {
	axis := s.analysis.Config().Axis
	if raw := c.Query("axis"); raw != "" {
		parsed, err := intel.ParseAxis(raw)
		if err != nil {
			respondError(c, errors.InvalidInput(err.Error()))
			return nil, false
		}
		axis = parsed
	}

	if !s.sem.TryAcquire(1) {
		respondError(c, errors.Busy("too many analyses in progress"))
		return nil, false
	}
	defer s.sem.Release(1)

	start := time.Now()
	report := s.analysis.AnalyzeAxis(pop, axis)
	metrics.ObserveReport(report, time.Since(start))
	s.events.Broadcast(reportEvent(report))
	return report, true
}

// handleAnalyzePosted analyzes the roster in the request body without
// touching the stored snapshot
func (s *Server) handleAnalyzePosted(c *gin.Context) {
	pop, ok := s.bindPopulation(c)
	if !ok {
		return
	}
	if report, ok := s.analyze(c, pop); ok {
		c.JSON(http.StatusOK, report)
	}
}

func (s *Server) handleAnalyzeCurrent(c *gin.Context) {
	pop, ok := s.currentPopulation(c)
	if !ok {
		return
	}
	if report, ok := s.analyze(c, pop); ok {
		c.JSON(http.StatusOK, report)
	}
}

// handleSummary renders the current roster's report as HTML
func (s *Server) handleSummary(c *gin.Context) {
	pop, ok := s.currentPopulation(c)
	if !ok {
		return
	}
	report, ok := s.analyze(c, pop)
	if !ok {
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", intelligence.RenderHTML(report))
}

func (s *Server) handleReplacePopulation(c *gin.Context) {
	pop, ok := s.bindPopulation(c)
	if !ok {
		return
	}
	s.SetPopulation(pop)
	c.JSON(http.StatusOK, gin.H{
		"employees":       pop.Len(),
		"population_hash": pop.Hash().String(),
	})
}

func (s *Server) handleReloadPopulation(c *gin.Context) {
	if err := s.Reload(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	pop, _ := s.Population()
	c.JSON(http.StatusOK, gin.H{
		"employees":       pop.Len(),
		"population_hash": pop.Hash().String(),
	})
}
