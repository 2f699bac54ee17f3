package intelligence

import (
	"sort"

	intel "ninebox/domain/intelligence"

	mstats "github.com/montanaflynn/stats"
)

// QualityScore starts at 100 and subtracts a penalty per anomaly, floored at 0.
func QualityScore(counts intel.SeverityCounts, cfg Config) int {
	score := 100 - counts.Moderate*cfg.ModeratePenalty - counts.Severe*cfg.SeverePenalty
	if score < 0 {
		return 0
	}
	return score
}

// Aggregate fills the report's cross-result fields from its dimension and
// manager results.
func Aggregate(report *intel.Report, cfg Config) {
	var anomalies []intel.Anomaly
	var effects, pvalues []float64
	report.FailedDimensions = []intel.Dimension{}

	for _, dim := range intel.DimensionOrder {
		res, ok := report.Dimensions[dim]
		if !ok {
			continue
		}
		if res.Failed() {
			report.FailedDimensions = append(report.FailedDimensions, dim)
			report.Summary.DimensionsFailed++
			continue
		}
		report.Summary.DimensionsAnalyzed++
		effects = append(effects, res.CramersV)
		if res.PValue != nil {
			pvalues = append(pvalues, *res.PValue)
		}
		if res.Severity == intel.SeverityNone {
			continue
		}
		anomalies = append(anomalies, intel.Anomaly{
			Source:   dim,
			Subject:  strongestCategory(res),
			Severity: res.Severity,
			PValue:   res.P(),
			CramersV: res.CramersV,
			Detail:   res.Summary,
		})
	}

	for _, m := range report.Managers {
		if m.Status == intel.StatusInsufficientData || m.Status == intel.StatusDegenerate {
			continue
		}
		report.Summary.ManagersAnalyzed++
		if m.PValue != nil {
			pvalues = append(pvalues, *m.PValue)
		}
		if m.InsufficientSample || m.Severity == intel.SeverityNone {
			continue
		}
		report.Summary.ManagersFlagged++
		anomalies = append(anomalies, intel.Anomaly{
			Source:   intel.DimensionManager,
			Subject:  m.Manager,
			Severity: m.Severity,
			PValue:   m.P(),
			CramersV: m.CramersV,
			Detail:   m.Summary,
		})
	}

	for _, a := range anomalies {
		switch a.Severity {
		case intel.SeveritySevere:
			report.AnomalyCounts.Severe++
		case intel.SeverityModerate:
			report.AnomalyCounts.Moderate++
		}
	}
	report.AnomalyCounts.Total = report.AnomalyCounts.Severe + report.AnomalyCounts.Moderate
	report.QualityScore = QualityScore(report.AnomalyCounts, cfg)

	rankAnomalies(anomalies)
	if len(anomalies) > cfg.TopN {
		anomalies = anomalies[:cfg.TopN]
	}
	if anomalies == nil {
		anomalies = []intel.Anomaly{}
	}
	report.TopAnomalies = anomalies

	if mean, err := mstats.Mean(effects); err == nil {
		report.Summary.MeanCramersV, _ = mstats.Round(mean, 4)
	}
	if median, err := mstats.Median(pvalues); err == nil {
		report.Summary.MedianPValue = median
	}
}

// rankAnomalies orders by effect size, then p-value, then subject.
func rankAnomalies(anomalies []intel.Anomaly) {
	sort.SliceStable(anomalies, func(i, j int) bool {
		a, b := anomalies[i], anomalies[j]
		if a.CramersV != b.CramersV {
			return a.CramersV > b.CramersV
		}
		if a.PValue != b.PValue {
			return a.PValue < b.PValue
		}
		if a.Subject != b.Subject {
			return a.Subject < b.Subject
		}
		return a.Source < b.Source
	})
}

// strongestCategory names the category holding the largest reliable residual.
func strongestCategory(res *intel.DimensionResult) string {
	best, bestZ := string(res.Dimension), -1.0
	for _, d := range res.Deviations {
		if d.MaxAbsZ > bestZ {
			best, bestZ = d.Category, d.MaxAbsZ
		}
	}
	return best
}
