package intelligence

import (
	"fmt"
	"time"

	"ninebox/domain/core"
	"ninebox/domain/employee"
)

// Dimension names an organizational attribute the engine compares ratings across.
type Dimension string

const (
	DimensionLocation Dimension = "location"
	DimensionFunction Dimension = "function"
	DimensionLevel    Dimension = "level"
	DimensionTenure   Dimension = "tenure"
	DimensionManager  Dimension = "manager"
)

// Attribute returns the categorical value a record contributes to the dimension.
// The manager dimension is resolved through the org graph instead.
func (d Dimension) Attribute(r employee.Record) string {
	switch d {
	case DimensionLocation:
		return r.Location
	case DimensionFunction:
		return r.JobFunction
	case DimensionLevel:
		return r.JobLevel
	case DimensionTenure:
		return r.Tenure
	}
	return ""
}

// Axis selects which rating the contingency tables are built over.
type Axis string

const (
	AxisPerformance Axis = "performance"
	AxisPotential   Axis = "potential"
	AxisGrid        Axis = "grid"
)

func ParseAxis(s string) (Axis, error) {
	switch Axis(s) {
	case AxisPerformance, AxisPotential, AxisGrid:
		return Axis(s), nil
	case "":
		return AxisPerformance, nil
	}
	return "", fmt.Errorf("unknown rating axis %q", s)
}

// Buckets lists the rating buckets of the axis, lowest first.
func (a Axis) Buckets() []string {
	if a == AxisGrid {
		out := make([]string, 0, 9)
		for _, perf := range employee.Ratings {
			for _, pot := range employee.Ratings {
				out = append(out, string(perf)+"/"+string(pot))
			}
		}
		return out
	}
	out := make([]string, len(employee.Ratings))
	for i, r := range employee.Ratings {
		out[i] = string(r)
	}
	return out
}

// Bucket returns the record's bucket label on this axis.
func (a Axis) Bucket(r employee.Record) string {
	switch a {
	case AxisPotential:
		return string(r.Potential)
	case AxisGrid:
		return r.GridPosition()
	}
	return string(r.Performance)
}

// Severity grades a deviation.
type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

func (s Severity) Rank() int {
	switch s {
	case SeveritySevere:
		return 2
	case SeverityModerate:
		return 1
	}
	return 0
}

// Max returns the more severe of s and other.
func (s Severity) Max(other Severity) Severity {
	if other.Rank() > s.Rank() {
		return other
	}
	return s
}

// Status records whether a result carries inferential statistics.
type Status string

const (
	StatusOK                 Status = "ok"
	StatusInsufficientData   Status = "insufficient_data"
	StatusDegenerate         Status = "degenerate"
	StatusInsufficientSample Status = "insufficient_sample"
)

// Method names the test that produced the p-value.
type Method string

const (
	MethodChiSquare   Method = "chi_square"
	MethodFisherExact Method = "fisher_exact"
	MethodDescriptive Method = "descriptive"
	MethodNone        Method = "none"
)

// Interpretation tells consumers how to frame a significant result.
type Interpretation string

const (
	// InterpretationDeviation: a differing distribution is an observation.
	InterpretationDeviation Interpretation = "deviation_observed"
	// InterpretationUniformity: ratings are calibrated within each group, so
	// uniformity is the healthy outcome and a deviation suggests miscalibration.
	InterpretationUniformity Interpretation = "uniformity_expected"
)

// Cell is one (category value x rating bucket) entry of a contingency table.
type Cell struct {
	Bucket       string   `json:"bucket"`
	Observed     int      `json:"observed"`
	Expected     float64  `json:"expected"`
	Z            float64  `json:"z"`
	AdjustedZ    float64  `json:"adjusted_z"`
	Reliable     bool     `json:"reliable"`
	Contribution float64  `json:"contribution"`
	Severity     Severity `json:"severity"`
}

// CategoryDeviation holds one category value's residuals and rates.
type CategoryDeviation struct {
	Category    string   `json:"category"`
	N           int      `json:"n"`
	Cells       []Cell   `json:"cells"`
	HighRate    float64  `json:"high_rate"`
	LowRate     float64  `json:"low_rate"`
	MaxAbsZ     float64  `json:"max_abs_z"`
	Severity    Severity `json:"severity"`
	SmallSample bool     `json:"small_sample"`
	Finding     string   `json:"finding,omitempty"`
}

// DimensionResult is the outcome of analyzing one dimension.
type DimensionResult struct {
	Dimension         Dimension           `json:"dimension"`
	Axis              Axis                `json:"axis"`
	Status            Status              `json:"status"`
	Method            Method              `json:"method"`
	Interpretation    Interpretation      `json:"interpretation"`
	ChiSquare         float64             `json:"chi_square"`
	DegreesOfFreedom  int                 `json:"degrees_of_freedom"`
	PValue            *float64            `json:"p_value"`
	CramersV          float64             `json:"cramers_v"`
	SampleSize        int                 `json:"sample_size"`
	BaselineHighRate  float64             `json:"baseline_high_rate"`
	BaselineLowRate   float64             `json:"baseline_low_rate"`
	Deviations        []CategoryDeviation `json:"deviations"`
	SampleSizeWarning bool                `json:"sample_size_warning"`
	Severity          Severity            `json:"severity"`
	Summary           string              `json:"summary"`
	Error             string              `json:"error,omitempty"`
}

// Failed reports whether the dimension could not be analyzed at all.
func (r *DimensionResult) Failed() bool {
	return r.Status == StatusInsufficientData || r.Status == StatusDegenerate
}

// P returns the p-value, or 1 when none was computed.
func (r *DimensionResult) P() float64 {
	if r.PValue == nil {
		return 1
	}
	return *r.PValue
}

// ManagerBiasResult compares one manager's team against the rest of the population.
type ManagerBiasResult struct {
	ManagerID          int      `json:"manager_id,omitempty"`
	Manager            string   `json:"manager"`
	Resolved           bool     `json:"resolved"`
	TeamSize           int      `json:"team_size"`
	DirectReports      int      `json:"direct_reports"`
	Status             Status   `json:"status"`
	Method             Method   `json:"method"`
	PValue             *float64 `json:"p_value"`
	CramersV           float64  `json:"cramers_v"`
	TeamHighRate       float64  `json:"team_high_rate"`
	TeamLowRate        float64  `json:"team_low_rate"`
	RestHighRate       float64  `json:"rest_high_rate"`
	RestLowRate        float64  `json:"rest_low_rate"`
	PopulationHighRate float64  `json:"population_high_rate"`
	HighZ              float64  `json:"high_z"`
	InsufficientSample bool     `json:"insufficient_sample"`
	SampleSizeWarning  bool     `json:"sample_size_warning"`
	Severity           Severity `json:"severity"`
	Summary            string   `json:"summary"`
	Error              string   `json:"error,omitempty"`
}

func (r *ManagerBiasResult) P() float64 {
	if r.PValue == nil {
		return 1
	}
	return *r.PValue
}

// Anomaly is a flattened, rankable entry for the report headline.
type Anomaly struct {
	Source   Dimension `json:"source"`
	Subject  string    `json:"subject"`
	Severity Severity  `json:"severity"`
	PValue   float64   `json:"p_value"`
	CramersV float64   `json:"cramers_v"`
	Detail   string    `json:"detail"`
}

// SeverityCounts tallies anomalies by severity.
type SeverityCounts struct {
	Moderate int `json:"moderate"`
	Severe   int `json:"severe"`
	Total    int `json:"total"`
}

// Summary carries aggregate statistics across results.
type Summary struct {
	DimensionsAnalyzed int     `json:"dimensions_analyzed"`
	DimensionsFailed   int     `json:"dimensions_failed"`
	ManagersAnalyzed   int     `json:"managers_analyzed"`
	ManagersFlagged    int     `json:"managers_flagged"`
	MeanCramersV       float64 `json:"mean_cramers_v"`
	MedianPValue       float64 `json:"median_p_value"`
}

// Report is the complete intelligence output for one population.
type Report struct {
	ID               core.ReportID                  `json:"id"`
	GeneratedAt      time.Time                      `json:"generated_at"`
	PopulationHash   core.PopulationHash            `json:"population_hash"`
	PopulationSize   int                            `json:"population_size"`
	Axis             Axis                           `json:"axis"`
	Dimensions       map[Dimension]*DimensionResult `json:"dimensions"`
	Managers         []ManagerBiasResult            `json:"managers"`
	QualityScore     int                            `json:"quality_score"`
	AnomalyCounts    SeverityCounts                 `json:"anomaly_counts"`
	TopAnomalies     []Anomaly                      `json:"top_anomalies"`
	FailedDimensions []Dimension                    `json:"failed_dimensions"`
	Summary          Summary                        `json:"summary"`
}

// DimensionOrder is the stable order dimensions are reported in.
var DimensionOrder = []Dimension{DimensionLocation, DimensionFunction, DimensionLevel, DimensionTenure}
