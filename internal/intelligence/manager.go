package intelligence

import (
	"fmt"

	"ninebox/domain/employee"
	intel "ninebox/domain/intelligence"
	"ninebox/internal/orggraph"

	"github.com/rs/zerolog/log"
)

// ManagerBiasAnalyzer compares each manager's whole team (direct and
// indirect reports) against everyone else in the population.
type ManagerBiasAnalyzer struct {
	cfg Config
}

func NewManagerBiasAnalyzer(cfg Config) *ManagerBiasAnalyzer {
	return &ManagerBiasAnalyzer{cfg: cfg}
}

// Analyze returns one result per manager with a team of at least
// ManagerMinTeamSize, in FindManagers order.
func (a *ManagerBiasAnalyzer) Analyze(graph *orggraph.Service, records []employee.Record, axis intel.Axis) []intel.ManagerBiasResult {
	managers := graph.FindManagers(a.cfg.ManagerMinTeamSize)
	out := make([]intel.ManagerBiasResult, 0, len(managers))

	popTable := groupBy(records, axis, func(employee.Record) string { return "all" })
	popHigh := 0.0
	if len(popTable.counts) == 1 {
		popHigh = popTable.rate(0, len(popTable.buckets)-1)
	}

	for _, m := range managers {
		team := graph.AllReports(m.Name)
		res := a.analyzeTeam(m.Name, team, records, axis)
		res.ManagerID = m.EmployeeID
		res.Resolved = m.Resolved
		res.DirectReports = m.DirectReports
		res.PopulationHighRate = popHigh
		out = append(out, res)
	}
	return out
}

func (a *ManagerBiasAnalyzer) analyzeTeam(manager string, team, records []employee.Record, axis intel.Axis) intel.ManagerBiasResult {
	inTeam := make(map[int]bool, len(team))
	for _, r := range team {
		inTeam[r.ID] = true
	}

	// Rows are fixed: team first, rest second.
	buckets := axis.Buckets()
	col := make(map[string]int, len(buckets))
	for j, b := range buckets {
		col[b] = j
	}
	rows := [2][]int{make([]int, len(buckets)), make([]int, len(buckets))}
	for _, r := range records {
		j, ok := col[axis.Bucket(r)]
		if !ok {
			continue
		}
		if inTeam[r.ID] {
			rows[0][j]++
		} else {
			rows[1][j]++
		}
	}
	t := contingency{categories: []string{manager, "rest"}, buckets: buckets}
	t.addRow(rows[0])
	t.addRow(rows[1])
	top := len(buckets) - 1

	res := intel.ManagerBiasResult{
		Manager:      manager,
		TeamSize:     len(team),
		TeamHighRate: t.rate(0, top),
		TeamLowRate:  t.rate(0, 0),
		RestHighRate: t.rate(1, top),
		RestLowRate:  t.rate(1, 0),
	}

	ev := evaluate(t, a.cfg.Thresholds)
	res.Status = ev.status
	res.Method = ev.method
	res.PValue = ev.pValue
	res.CramersV = ev.cramersV
	res.Severity = ev.severity
	res.SampleSizeWarning = ev.warning
	if len(ev.cells) > 0 {
		res.HighZ = ev.cells[0][top].Z
	}

	if ev.err != nil {
		res.Error = ev.err.Error()
		res.Summary = fmt.Sprintf("%s: team could not be compared: %s", manager, ev.err)
		return res
	}

	if len(team) < a.cfg.SignificanceFloor {
		res.InsufficientSample = true
		res.SampleSizeWarning = true
		res.Status = intel.StatusInsufficientSample
		res.Method = intel.MethodDescriptive
		res.PValue = nil
		res.Severity = intel.SeverityNone
		res.Summary = fmt.Sprintf("%s: team of %d is below the %d-person floor; %.1f%% %s vs %.1f%% elsewhere (descriptive only)",
			manager, len(team), a.cfg.SignificanceFloor, res.TeamHighRate*100, buckets[top], res.RestHighRate*100)
		return res
	}

	switch {
	case res.Status == intel.StatusInsufficientSample:
		res.Summary = fmt.Sprintf("%s: expected counts too small for inference; %.1f%% %s vs %.1f%% elsewhere",
			manager, res.TeamHighRate*100, buckets[top], res.RestHighRate*100)
	case res.Severity == intel.SeverityNone:
		res.Summary = fmt.Sprintf("%s: team ratings in line with the rest (p=%.4g, n=%d)", manager, res.P(), len(team))
	default:
		res.Summary = fmt.Sprintf("%s: %s rating skew, %.1f%% %s vs %.1f%% elsewhere (p=%.4g, V=%.2f, n=%d)",
			manager, res.Severity, res.TeamHighRate*100, buckets[top], res.RestHighRate*100, res.P(), res.CramersV, len(team))
	}

	log.Debug().
		Str("manager", manager).
		Int("team", len(team)).
		Str("method", string(res.Method)).
		Str("severity", string(res.Severity)).
		Msg("manager analyzed")
	return res
}
