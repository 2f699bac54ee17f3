package stats

import (
	"math"

	"ninebox/domain/core"
)

// fisherRelTolerance absorbs floating point noise when comparing table
// probabilities against the observed one.
const fisherRelTolerance = 1e-7

// FishersExact returns the two-sided p-value of Fisher's exact test on a 2x2
// table: the total probability of every table with the same margins that is
// no more likely than the observed one. Other shapes must be collapsed first.
func FishersExact(table [][]int) (float64, error) {
	if len(table) != 2 || len(table[0]) != 2 || len(table[1]) != 2 {
		cols := 0
		if len(table) > 0 {
			cols = len(table[0])
		}
		return 0, core.NewUnsupportedShapeError(len(table), cols)
	}
	a, b := table[0][0], table[0][1]
	c, d := table[1][0], table[1][1]
	if a < 0 || b < 0 || c < 0 || d < 0 {
		return 0, core.NewInsufficientDataError("negative count in 2x2 table")
	}

	n := a + b + c + d
	if n == 0 {
		return 0, core.NewInsufficientDataError("table has no observations")
	}

	row1 := a + b
	col1 := a + c
	// Fixed margins: the first cell ranges over [lo, hi].
	lo := col1 - (c + d)
	if lo < 0 {
		lo = 0
	}
	hi := row1
	if col1 < hi {
		hi = col1
	}

	observed := hypergeometricLogPMF(a, n, row1, col1)
	limit := observed + math.Log1p(fisherRelTolerance)

	p := 0.0
	for x := lo; x <= hi; x++ {
		lp := hypergeometricLogPMF(x, n, row1, col1)
		if lp <= limit {
			p += math.Exp(lp)
		}
	}
	return clampProbability(p), nil
}
