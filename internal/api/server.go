// Package api exposes intelligence analysis and org hierarchy queries over HTTP.
package api

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"ninebox/domain/employee"
	"ninebox/internal/errors"
	"ninebox/internal/intelligence"
	"ninebox/ports"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
)

// Options configures a Server. Source and Events are optional.
type Options struct {
	Analysis      *intelligence.Service
	Source        ports.EmployeeSource
	Events        *EventHub
	MaxConcurrent int64
}

// Server holds the current roster snapshot and the gin router serving it.
type Server struct {
	router     *gin.Engine
	analysis   *intelligence.Service
	source     ports.EmployeeSource
	events     *EventHub
	sem        *semaphore.Weighted
	validate   *validator.Validate
	population atomic.Pointer[employee.Population]
}

// NewServer creates a server with every route registered
func NewServer(opts Options) *Server {
	if opts.MaxConcurrent < 1 {
		opts.MaxConcurrent = 1
	}
	if opts.Events == nil {
		opts.Events = NewEventHub()
	}

	s := &Server{
		router:   gin.New(),
		analysis: opts.Analysis,
		source:   opts.Source,
		events:   opts.Events,
		sem:      semaphore.NewWeighted(opts.MaxConcurrent),
		validate: validator.New(),
	}
	s.router.Use(gin.Recovery(), requestLogger())
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/healthz", s.handleHealth)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.router.Group("/api")
	{
		api.POST("/intelligence", s.handleAnalyzePosted)
		api.GET("/intelligence", s.handleAnalyzeCurrent)
		api.GET("/intelligence/summary", s.handleSummary)

		api.PUT("/population", s.handleReplacePopulation)
		api.POST("/population/reload", s.handleReloadPopulation)
		api.GET("/events", s.events.HandleSSE)

		org := api.Group("/org")
		org.GET("/managers", s.handleManagers)
		org.GET("/reports/:name", s.handleReports)
		org.GET("/chain/:name", s.handleChain)
		org.GET("/tree/:name", s.handleTree)
		org.GET("/tree", s.handleForest)
		org.GET("/validate", s.handleValidate)
	}
}

// Handler returns the HTTP handler for the server
func (s *Server) Handler() http.Handler {
	return s.router
}

// SetPopulation replaces the roster snapshot atomically. Requests already
// running keep the snapshot they started with.
func (s *Server) SetPopulation(pop employee.Population) {
	s.population.Store(&pop)
	s.events.Broadcast(populationEvent(pop))
	log.Info().
		Int("employees", pop.Len()).
		Str("population", pop.Hash().Short()).
		Msg("population replaced")
}

// Population returns the current snapshot, if one has been loaded.
func (s *Server) Population() (employee.Population, bool) {
	p := s.population.Load()
	if p == nil {
		return employee.Population{}, false
	}
	return *p, true
}

// Reload replaces the snapshot with a fresh read from the configured source.
func (s *Server) Reload(ctx context.Context) error {
	if s.source == nil {
		return errors.InvalidInput("no roster source configured")
	}
	start := time.Now()
	records, err := s.source.LoadEmployees(ctx)
	if err != nil {
		return err
	}
	s.SetPopulation(employee.NewPopulation(records))
	log.Debug().
		Str("source", s.source.Describe()).
		Dur("elapsed", time.Since(start)).
		Msg("roster reloaded")
	return nil
}

func (s *Server) currentPopulation(c *gin.Context) (employee.Population, bool) {
	pop, ok := s.Population()
	if !ok {
		respondError(c, errors.NotFound("population"))
		return employee.Population{}, false
	}
	return pop, true
}

func (s *Server) handleHealth(c *gin.Context) {
	pop, loaded := s.Population()
	c.JSON(http.StatusOK, gin.H{
		"status":            "ok",
		"population_loaded": loaded,
		"employees":         pop.Len(),
	})
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}
