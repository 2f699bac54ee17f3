package stats

import (
	"math"

	"gonum.org/v1/gonum/stat/combin"
	"gonum.org/v1/gonum/stat/distuv"
)

// ChiSquarePValue computes the upper-tail p-value of the chi-square distribution.
// Survival is used instead of 1-CDF so tiny p-values keep their precision.
func ChiSquarePValue(chiSquare float64, degreesOfFreedom int) float64 {
	if degreesOfFreedom <= 0 || math.IsNaN(chiSquare) {
		return 1.0
	}
	if chiSquare <= 0 {
		return 1.0
	}

	chiDist := distuv.ChiSquared{K: float64(degreesOfFreedom)}
	return clampProbability(chiDist.Survival(chiSquare))
}

// hypergeometricLogPMF is log P(X = x) for X ~ Hypergeometric(total, successes, draws).
func hypergeometricLogPMF(x, total, successes, draws int) float64 {
	if x < 0 || x > successes || draws-x < 0 || draws-x > total-successes {
		return math.Inf(-1)
	}
	return combin.LogGeneralizedBinomial(float64(successes), float64(x)) +
		combin.LogGeneralizedBinomial(float64(total-successes), float64(draws-x)) -
		combin.LogGeneralizedBinomial(float64(total), float64(draws))
}

func clampProbability(p float64) float64 {
	switch {
	case math.IsNaN(p):
		return 1
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}
