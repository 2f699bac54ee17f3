package container

import (
	"context"
	"fmt"

	"ninebox/adapters/excel"
	"ninebox/adapters/postgres"
	"ninebox/internal/api"
	"ninebox/internal/config"
	"ninebox/internal/intelligence"
	"ninebox/internal/orggraph"
	"ninebox/ports"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config

	// Infrastructure
	DB *sqlx.DB

	// Roster input; nil until a database or roster file is configured
	Source ports.EmployeeSource

	// Analysis components
	Graphs       *orggraph.Cache
	Intelligence *intelligence.Service
	Events       *api.EventHub
}

// New creates a new dependency injection container
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	graphs := orggraph.NewCache(orggraph.DefaultCacheSize)
	c := &Container{
		Config:       cfg,
		Graphs:       graphs,
		Intelligence: intelligence.NewService(cfg.Analysis, graphs),
		Events:       api.NewEventHub(),
	}

	if cfg.Data.RosterFile != "" {
		c.Source = excel.NewDataReader(excel.RosterConfig{
			FilePath: cfg.Data.RosterFile,
			Sheet:    cfg.Data.RosterSheet,
		})
	}
	return c, nil
}

// InitWithDatabase switches the roster source to the employees table. A
// configured roster file is replaced.
func (c *Container) InitWithDatabase(db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}

	if err := db.Ping(); err != nil {
		return fmt.Errorf("database connection test failed: %w", err)
	}

	c.DB = db
	c.Source = postgres.NewEmployeeRepository(db)
	log.Info().Str("source", c.Source.Describe()).Msg("container initialized with database connection")
	return nil
}

// NewServer builds the HTTP server over the container's components
func (c *Container) NewServer() *api.Server {
	return api.NewServer(api.Options{
		Analysis:      c.Intelligence,
		Source:        c.Source,
		Events:        c.Events,
		MaxConcurrent: c.Config.Server.MaxConcurrentAnalyses,
	})
}

// Shutdown releases the event hub and database connection
func (c *Container) Shutdown(ctx context.Context) error {
	c.Events.Close()
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			return fmt.Errorf("failed to close database: %w", err)
		}
	}
	return nil
}
