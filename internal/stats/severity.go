package stats

import (
	"math"

	"ninebox/domain/intelligence"
)

// Thresholds controls significance and sample-size safeguards.
type Thresholds struct {
	SevereP      float64 `yaml:"severe_p" validate:"gt=0,lt=1"`
	ModerateP    float64 `yaml:"moderate_p" validate:"gt=0,lt=1,gtefield=SevereP"`
	CellZ        float64 `yaml:"cell_z" validate:"gt=0"`
	MinExpected  float64 `yaml:"min_expected" validate:"gt=0"`
	MinGroupSize int     `yaml:"min_group_size" validate:"gte=1"`
}

// DefaultThresholds are the conventional cut-offs: p < 0.001 severe,
// p < 0.05 moderate, |z| > 3 for a single cell, expected >= 5 and N >= 30
// for the chi-square approximation to hold.
func DefaultThresholds() Thresholds {
	return Thresholds{
		SevereP:      0.001,
		ModerateP:    0.05,
		CellZ:        3.0,
		MinExpected:  5,
		MinGroupSize: 30,
	}
}

// ClassifyPValue grades an aggregate p-value.
func (t Thresholds) ClassifyPValue(p float64) intelligence.Severity {
	switch {
	case p < t.SevereP:
		return intelligence.SeveritySevere
	case p < t.ModerateP:
		return intelligence.SeverityModerate
	}
	return intelligence.SeverityNone
}

// ClassifyCell grades a single standardized residual. Unreliable residuals
// are never escalated.
func (t Thresholds) ClassifyCell(z float64, reliable bool) intelligence.Severity {
	if reliable && math.Abs(z) > t.CellZ {
		return intelligence.SeveritySevere
	}
	return intelligence.SeverityNone
}
