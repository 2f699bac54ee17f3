package stats

import (
	"fmt"
	"math"

	"ninebox/domain/core"

	"gonum.org/v1/gonum/floats"
)

// ChiSquareResult is the outcome of a Pearson test of independence.
type ChiSquareResult struct {
	Statistic        float64
	PValue           float64
	DegreesOfFreedom int
	N                int
	Expected         [][]float64
	RowTotals        []int
	ColTotals        []int
	// PopulatedRows and PopulatedCols count rows/columns with a nonzero total.
	PopulatedRows int
	PopulatedCols int
}

// MinExpected returns the smallest expected count over populated cells.
func (r ChiSquareResult) MinExpected() float64 {
	minExp := math.Inf(1)
	for i := range r.Expected {
		if r.RowTotals[i] == 0 {
			continue
		}
		for j, e := range r.Expected[i] {
			if r.ColTotals[j] == 0 {
				continue
			}
			minExp = math.Min(minExp, e)
		}
	}
	return minExp
}

// ChiSquareTest runs a Pearson chi-square test of independence on an r x c table.
// Rows or columns whose total is zero are ignored. The table needs at least two
// populated rows and two populated columns.
func ChiSquareTest(observed [][]int) (ChiSquareResult, error) {
	rows, cols, err := validateTable(observed)
	if err != nil {
		return ChiSquareResult{}, err
	}

	rowTotals := make([]int, rows)
	colTotals := make([]int, cols)
	total := 0
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			rowTotals[i] += observed[i][j]
			colTotals[j] += observed[i][j]
			total += observed[i][j]
		}
	}

	if total == 0 {
		return ChiSquareResult{}, core.NewInsufficientDataError("table has no observations")
	}

	populatedRows := countNonZero(rowTotals)
	populatedCols := countNonZero(colTotals)
	if populatedRows < 2 {
		return ChiSquareResult{}, core.NewInsufficientDataError(
			fmt.Sprintf("need at least 2 populated categories, got %d", populatedRows))
	}
	if populatedCols < 2 {
		return ChiSquareResult{}, fmt.Errorf("%w: %w", core.ErrInsufficientData,
			core.NewDegenerateTableError(populatedRows, populatedCols))
	}

	expected := make([][]float64, rows)
	contributions := make([]float64, 0, rows*cols)
	for i := 0; i < rows; i++ {
		expected[i] = make([]float64, cols)
		for j := 0; j < cols; j++ {
			e := float64(rowTotals[i]) * float64(colTotals[j]) / float64(total)
			expected[i][j] = e
			if e > 0 {
				d := float64(observed[i][j]) - e
				contributions = append(contributions, d*d/e)
			}
		}
	}

	chiSq := floats.Sum(contributions)
	df := (populatedRows - 1) * (populatedCols - 1)

	return ChiSquareResult{
		Statistic:        chiSq,
		PValue:           ChiSquarePValue(chiSq, df),
		DegreesOfFreedom: df,
		N:                total,
		Expected:         expected,
		RowTotals:        rowTotals,
		ColTotals:        colTotals,
		PopulatedRows:    populatedRows,
		PopulatedCols:    populatedCols,
	}, nil
}

// StandardizedResidual returns (observed - expected) / sqrt(expected). When
// expected < 1 the score is unreliable and reliable is false with z = 0.
func StandardizedResidual(observed, expected float64) (z float64, reliable bool) {
	if expected < 1 {
		return 0, false
	}
	return (observed - expected) / math.Sqrt(expected), true
}

// AdjustedResidual is the standardized residual divided by its standard error
// under independence, (o - e) / sqrt(e * (1 - row/n) * (1 - col/n)). It follows
// a standard normal distribution, so it is comparable across cells of different
// margins. Reliability follows StandardizedResidual.
func AdjustedResidual(observed, expected float64, rowTotal, colTotal, n int) (z float64, reliable bool) {
	if expected < 1 || n <= 0 {
		return 0, false
	}
	v := expected * (1 - float64(rowTotal)/float64(n)) * (1 - float64(colTotal)/float64(n))
	if v <= 0 {
		return 0, false
	}
	return (observed - expected) / math.Sqrt(v), true
}

// Contribution is the cell's share of the chi-square statistic.
func Contribution(observed, expected float64) float64 {
	if expected <= 0 {
		return 0
	}
	d := observed - expected
	return d * d / expected
}

// CramersV computes sqrt(chi2 / (n * (min(rows, cols) - 1))) clamped to [0, 1].
func CramersV(chi2 float64, n, rows, cols int) (float64, error) {
	k := rows
	if cols < k {
		k = cols
	}
	if k <= 1 {
		return 0, core.NewDegenerateTableError(rows, cols)
	}
	if n <= 0 {
		return 0, core.NewInsufficientDataError("cramer's V needs a positive sample size")
	}
	v := math.Sqrt(chi2 / (float64(n) * float64(k-1)))
	if math.IsNaN(v) || v < 0 {
		return 0, nil
	}
	return math.Min(v, 1), nil
}

// CollapseColumns folds an r x c table into r x 2: the chosen column against
// the sum of every other column.
func CollapseColumns(observed [][]int, keep int) [][]int {
	out := make([][]int, len(observed))
	for i, row := range observed {
		out[i] = make([]int, 2)
		for j, v := range row {
			if j == keep {
				out[i][0] += v
			} else {
				out[i][1] += v
			}
		}
	}
	return out
}

func validateTable(observed [][]int) (int, int, error) {
	rows := len(observed)
	if rows == 0 {
		return 0, 0, core.NewInsufficientDataError("empty table")
	}
	cols := len(observed[0])
	for i, row := range observed {
		if len(row) != cols {
			return 0, 0, fmt.Errorf("%w: row %d has %d columns, want %d",
				core.ErrUnsupportedShape, i, len(row), cols)
		}
		for j, v := range row {
			if v < 0 {
				return 0, 0, fmt.Errorf("%w: negative count %d at (%d,%d)",
					core.ErrInsufficientData, v, i, j)
			}
		}
	}
	return rows, cols, nil
}

func countNonZero(totals []int) int {
	n := 0
	for _, t := range totals {
		if t > 0 {
			n++
		}
	}
	return n
}
