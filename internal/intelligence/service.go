// Package intelligence runs the dimension and manager analyzers over a
// population and folds their results into one report.
package intelligence

import (
	"time"

	"ninebox/domain/core"
	"ninebox/domain/employee"
	intel "ninebox/domain/intelligence"
	"ninebox/internal/orggraph"

	"github.com/rs/zerolog/log"
)

// Service is safe for concurrent use; every call works on its own data.
type Service struct {
	cfg       Config
	analyzers []DimensionAnalyzer
	managers  *ManagerBiasAnalyzer
	graphs    *orggraph.Cache
}

// NewService wires the default analyzers. graphs may be nil, in which case
// the org graph is rebuilt on every call.
func NewService(cfg Config, graphs *orggraph.Cache) *Service {
	return &Service{
		cfg:       cfg,
		analyzers: DefaultAnalyzers(cfg.Thresholds),
		managers:  NewManagerBiasAnalyzer(cfg),
		graphs:    graphs,
	}
}

func (s *Service) Config() Config { return s.cfg }

// Graph returns the org graph for pop, from the cache when one is configured.
func (s *Service) Graph(pop employee.Population) *orggraph.Service {
	if s.graphs != nil {
		return s.graphs.Get(pop)
	}
	return orggraph.NewFromPopulation(pop)
}

// Analyze runs the full analysis on the configured axis.
func (s *Service) Analyze(pop employee.Population) *intel.Report {
	return s.AnalyzeAxis(pop, s.cfg.Axis)
}

// AnalyzeAxis runs the full analysis on the given rating axis. It never
// fails: dimensions that cannot be analyzed are reported as such.
func (s *Service) AnalyzeAxis(pop employee.Population, axis intel.Axis) *intel.Report {
	if axis == "" {
		axis = intel.AxisPerformance
	}
	start := time.Now()
	records := pop.Records()

	report := &intel.Report{
		ID:             core.NewReportID(),
		GeneratedAt:    start.UTC(),
		PopulationHash: pop.Hash(),
		PopulationSize: pop.Len(),
		Axis:           axis,
		Dimensions:     make(map[intel.Dimension]*intel.DimensionResult, len(s.analyzers)),
	}

	for _, a := range s.analyzers {
		report.Dimensions[a.Dimension()] = a.Analyze(records, axis)
	}
	report.Managers = s.managers.Analyze(s.Graph(pop), records, axis)

	Aggregate(report, s.cfg)

	log.Debug().
		Str("report", report.ID.String()).
		Str("population", pop.Hash().Short()).
		Int("employees", pop.Len()).
		Int("quality_score", report.QualityScore).
		Int("anomalies", report.AnomalyCounts.Total).
		Dur("elapsed", time.Since(start)).
		Msg("intelligence report built")
	return report
}
