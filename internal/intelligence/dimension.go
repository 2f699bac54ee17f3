package intelligence

import (
	"fmt"
	"math"
	"strings"

	"ninebox/domain/employee"
	intel "ninebox/domain/intelligence"
	"ninebox/internal/stats"

	"github.com/rs/zerolog/log"
)

// notableZ marks a cell worth naming in a finding, roughly the 5% two-sided cut.
const notableZ = 2.0

// DimensionAnalyzer compares rating distributions across one attribute.
type DimensionAnalyzer interface {
	Dimension() intel.Dimension
	Description() string
	Analyze(records []employee.Record, axis intel.Axis) *intel.DimensionResult
}

// AttributeAnalyzer groups employees by a record attribute and tests the
// attribute x rating table for independence.
type AttributeAnalyzer struct {
	dimension      intel.Dimension
	description    string
	interpretation intel.Interpretation
	thresholds     stats.Thresholds
}

func NewLocationAnalyzer(th stats.Thresholds) *AttributeAnalyzer {
	return &AttributeAnalyzer{
		dimension:      intel.DimensionLocation,
		description:    "Rating distribution differences between office locations",
		interpretation: intel.InterpretationDeviation,
		thresholds:     th,
	}
}

func NewFunctionAnalyzer(th stats.Thresholds) *AttributeAnalyzer {
	return &AttributeAnalyzer{
		dimension:      intel.DimensionFunction,
		description:    "Rating distribution differences between job functions",
		interpretation: intel.InterpretationDeviation,
		thresholds:     th,
	}
}

func NewTenureAnalyzer(th stats.Thresholds) *AttributeAnalyzer {
	return &AttributeAnalyzer{
		dimension:      intel.DimensionTenure,
		description:    "Rating distribution differences between tenure bands",
		interpretation: intel.InterpretationDeviation,
		thresholds:     th,
	}
}

// NewLevelAnalyzer expects uniform distributions across job levels. Ratings
// are assessed against peers at the same level, so a significant deviation
// points at leniency or harshness in one band.
func NewLevelAnalyzer(th stats.Thresholds) *AttributeAnalyzer {
	return &AttributeAnalyzer{
		dimension:      intel.DimensionLevel,
		description:    "Calibration check: rating distributions should match across job levels",
		interpretation: intel.InterpretationUniformity,
		thresholds:     th,
	}
}

// DefaultAnalyzers returns the four attribute analyzers in report order.
func DefaultAnalyzers(th stats.Thresholds) []DimensionAnalyzer {
	return []DimensionAnalyzer{
		NewLocationAnalyzer(th),
		NewFunctionAnalyzer(th),
		NewLevelAnalyzer(th),
		NewTenureAnalyzer(th),
	}
}

func (a *AttributeAnalyzer) Dimension() intel.Dimension { return a.dimension }
func (a *AttributeAnalyzer) Description() string        { return a.description }

// Analyze never fails; unusable tables come back as a soft-failed result.
func (a *AttributeAnalyzer) Analyze(records []employee.Record, axis intel.Axis) *intel.DimensionResult {
	t := groupBy(records, axis, func(r employee.Record) string {
		return strings.TrimSpace(a.dimension.Attribute(r))
	})
	top := len(t.buckets) - 1

	res := &intel.DimensionResult{
		Dimension:        a.dimension,
		Axis:             axis,
		Interpretation:   a.interpretation,
		SampleSize:       t.n,
		BaselineHighRate: t.columnRate(top),
		BaselineLowRate:  t.columnRate(0),
		Deviations:       []intel.CategoryDeviation{},
	}

	ev := evaluate(t, a.thresholds)
	res.Status = ev.status
	res.Method = ev.method
	res.Severity = ev.severity
	res.SampleSizeWarning = ev.warning

	if ev.err != nil {
		res.Error = ev.err.Error()
		res.Summary = fmt.Sprintf("%s could not be analyzed: %s", a.dimension, ev.err)
		for i, cat := range t.categories {
			res.Deviations = append(res.Deviations, intel.CategoryDeviation{
				Category:    cat,
				N:           t.rowN[i],
				HighRate:    t.rate(i, top),
				LowRate:     t.rate(i, 0),
				Severity:    intel.SeverityNone,
				SmallSample: t.rowN[i] < a.thresholds.MinGroupSize,
			})
		}
		log.Debug().Str("dimension", string(a.dimension)).Err(ev.err).Msg("dimension skipped")
		return res
	}

	res.ChiSquare = ev.chi.Statistic
	res.DegreesOfFreedom = ev.chi.DegreesOfFreedom
	res.PValue = ev.pValue
	res.CramersV = ev.cramersV

	for i, cat := range t.categories {
		dev := intel.CategoryDeviation{
			Category:    cat,
			N:           t.rowN[i],
			Cells:       ev.cells[i],
			HighRate:    t.rate(i, top),
			LowRate:     t.rate(i, 0),
			Severity:    intel.SeverityNone,
			SmallSample: t.rowN[i] < a.thresholds.MinGroupSize,
		}
		for _, c := range dev.Cells {
			if c.Reliable {
				dev.MaxAbsZ = math.Max(dev.MaxAbsZ, math.Abs(c.Z))
			}
			dev.Severity = dev.Severity.Max(c.Severity)
		}
		dev.Finding = a.finding(dev, res, top)
		res.Deviations = append(res.Deviations, dev)
	}

	res.Summary = a.summarize(res)
	log.Debug().
		Str("dimension", string(a.dimension)).
		Str("method", string(res.Method)).
		Float64("p", res.P()).
		Float64("cramers_v", res.CramersV).
		Str("severity", string(res.Severity)).
		Msg("dimension analyzed")
	return res
}

func (a *AttributeAnalyzer) finding(dev intel.CategoryDeviation, res *intel.DimensionResult, top int) string {
	if len(dev.Cells) == 0 {
		return ""
	}
	high, low := dev.Cells[top], dev.Cells[0]

	if a.interpretation == intel.InterpretationUniformity {
		if res.Severity == intel.SeverityNone {
			return ""
		}
		switch {
		case high.Reliable && high.Z >= notableZ && high.Z >= low.Z:
			return fmt.Sprintf("possible leniency: %s rated %s %.1f%% vs %.1f%% baseline (z=%+.2f)",
				dev.Category, high.Bucket, dev.HighRate*100, res.BaselineHighRate*100, high.Z)
		case low.Reliable && low.Z >= notableZ:
			return fmt.Sprintf("possible harshness: %s rated %s %.1f%% vs %.1f%% baseline (z=%+.2f)",
				dev.Category, low.Bucket, dev.LowRate*100, res.BaselineLowRate*100, low.Z)
		}
		return ""
	}

	var strongest *intel.Cell
	for k := range dev.Cells {
		c := &dev.Cells[k]
		if !c.Reliable || math.Abs(c.Z) < notableZ {
			continue
		}
		if strongest == nil || math.Abs(c.Z) > math.Abs(strongest.Z) {
			strongest = c
		}
	}
	if strongest == nil {
		return ""
	}
	direction := "over"
	if strongest.Z < 0 {
		direction = "under"
	}
	return fmt.Sprintf("%s is %s-represented in %s: %d observed vs %.1f expected (z=%+.2f)",
		dev.Category, direction, strongest.Bucket, strongest.Observed, strongest.Expected, strongest.Z)
}

func (a *AttributeAnalyzer) summarize(res *intel.DimensionResult) string {
	switch res.Status {
	case intel.StatusInsufficientSample:
		return fmt.Sprintf("%s: expected counts too small for inference across %d groups; rates reported descriptively",
			a.dimension, len(res.Deviations))
	}

	stat := fmt.Sprintf("p=%.4g, V=%.2f, n=%d", res.P(), res.CramersV, res.SampleSize)
	if res.Method == intel.MethodChiSquare {
		stat = fmt.Sprintf("chi2=%.2f, df=%d, %s", res.ChiSquare, res.DegreesOfFreedom, stat)
	}

	if res.Severity == intel.SeverityNone {
		if a.interpretation == intel.InterpretationUniformity {
			return fmt.Sprintf("%s: ratings are consistent across groups (%s)", a.dimension, stat)
		}
		return fmt.Sprintf("%s: no significant deviation (%s)", a.dimension, stat)
	}
	if a.interpretation == intel.InterpretationUniformity {
		return fmt.Sprintf("%s: %s calibration gap between groups (%s)", a.dimension, res.Severity, stat)
	}
	return fmt.Sprintf("%s: %s deviation observed (%s)", a.dimension, res.Severity, stat)
}
