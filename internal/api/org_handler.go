package api

import (
	"net/http"
	"strconv"

	"ninebox/domain/core"
	"ninebox/internal/errors"
	"ninebox/internal/metrics"
	"ninebox/internal/orggraph"

	"github.com/gin-gonic/gin"
)

func (s *Server) graph(c *gin.Context) (*orggraph.Service, bool) {
	pop, ok := s.currentPopulation(c)
	if !ok {
		return nil, false
	}
	return s.analysis.Graph(pop), true
}

func orgFailure(c *gin.Context, operation string, err error) {
	result := "error"
	if statusFor(err) == http.StatusNotFound {
		result = "not_found"
	}
	metrics.ObserveOrgQuery(operation, result)
	respondError(c, err)
}

// handleManagers lists managers whose total team meets min_team_size
func (s *Server) handleManagers(c *gin.Context) {
	minTeam := 1
	if raw := c.Query("min_team_size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			orgFailure(c, "managers", errors.InvalidInput("min_team_size must be a non-negative integer"))
			return
		}
		minTeam = n
	}

	g, ok := s.graph(c)
	if !ok {
		return
	}
	managers := g.FindManagers(minTeam)
	metrics.ObserveOrgQuery("managers", "ok")
	c.JSON(http.StatusOK, gin.H{
		"min_team_size": minTeam,
		"managers":      managers,
		"count":         len(managers),
	})
}

// handleReports returns every direct and indirect report. A name that is
// neither an employee nor referenced as a manager is not found.
func (s *Server) handleReports(c *gin.Context) {
	name := c.Param("name")
	g, ok := s.graph(c)
	if !ok {
		return
	}
	if _, known := g.Lookup(name); !known && len(g.DirectReports(name)) == 0 {
		orgFailure(c, "reports", core.NewNotFoundError("manager", name))
		return
	}

	t := g.Traverse(name)
	metrics.ObserveOrgQuery("reports", "ok")
	c.JSON(http.StatusOK, gin.H{
		"manager":        name,
		"direct_reports": len(g.DirectReports(name)),
		"reports":        t.Reports,
		"count":          len(t.Reports),
		"cycles":         t.Cycles,
	})
}

func (s *Server) handleChain(c *gin.Context) {
	name := c.Param("name")
	g, ok := s.graph(c)
	if !ok {
		return
	}
	chain, err := g.ReportingChain(name)
	if err != nil {
		orgFailure(c, "chain", err)
		return
	}
	metrics.ObserveOrgQuery("chain", "ok")
	c.JSON(http.StatusOK, gin.H{
		"employee": name,
		"chain":    chain,
	})
}

func (s *Server) handleTree(c *gin.Context) {
	g, ok := s.graph(c)
	if !ok {
		return
	}
	tree, err := g.Subtree(c.Param("name"))
	if err != nil {
		orgFailure(c, "tree", err)
		return
	}
	metrics.ObserveOrgQuery("tree", "ok")
	c.JSON(http.StatusOK, tree)
}

func (s *Server) handleForest(c *gin.Context) {
	g, ok := s.graph(c)
	if !ok {
		return
	}
	metrics.ObserveOrgQuery("forest", "ok")
	c.JSON(http.StatusOK, gin.H{"roots": g.Forest()})
}

func (s *Server) handleValidate(c *gin.Context) {
	g, ok := s.graph(c)
	if !ok {
		return
	}
	metrics.ObserveOrgQuery("validate", "ok")
	c.JSON(http.StatusOK, g.ValidateStructure())
}
