package intelligence

import (
	"errors"
	"sort"

	"ninebox/domain/core"
	"ninebox/domain/employee"
	intel "ninebox/domain/intelligence"
	"ninebox/internal/stats"
)

// contingency is a category x rating-bucket count table.
type contingency struct {
	categories []string
	buckets    []string
	counts     [][]int
	rowN       []int
	n          int
}

// groupBy tabulates records by key (sorted category order) against the axis
// buckets. Records with an empty key or a rating outside the axis are skipped.
func groupBy(records []employee.Record, axis intel.Axis, key func(employee.Record) string) contingency {
	buckets := axis.Buckets()
	col := make(map[string]int, len(buckets))
	for j, b := range buckets {
		col[b] = j
	}

	byCat := map[string][]int{}
	for _, r := range records {
		k := key(r)
		if k == "" {
			continue
		}
		j, ok := col[axis.Bucket(r)]
		if !ok {
			continue
		}
		row, ok := byCat[k]
		if !ok {
			row = make([]int, len(buckets))
			byCat[k] = row
		}
		row[j]++
	}

	cats := make([]string, 0, len(byCat))
	for k := range byCat {
		cats = append(cats, k)
	}
	sort.Strings(cats)

	t := contingency{categories: cats, buckets: buckets}
	for _, k := range cats {
		t.addRow(byCat[k])
	}
	return t
}

func (t *contingency) addRow(row []int) {
	total := 0
	for _, v := range row {
		total += v
	}
	t.counts = append(t.counts, row)
	t.rowN = append(t.rowN, total)
	t.n += total
}

func (t contingency) rate(i, j int) float64 {
	if t.rowN[i] == 0 {
		return 0
	}
	return float64(t.counts[i][j]) / float64(t.rowN[i])
}

func (t contingency) columnRate(j int) float64 {
	if t.n == 0 {
		return 0
	}
	sum := 0
	for i := range t.counts {
		sum += t.counts[i][j]
	}
	return float64(sum) / float64(t.n)
}

// evaluation is the inferential outcome shared by every analyzer.
type evaluation struct {
	status   intel.Status
	method   intel.Method
	chi      stats.ChiSquareResult
	pValue   *float64
	cramersV float64
	severity intel.Severity
	warning  bool
	cells    [][]intel.Cell
	err      error
}

// evaluate runs the chi-square test and falls back to Fisher's exact test on
// 2x2 tables when expected counts are too small. Larger sparse tables stay
// descriptive.
func evaluate(t contingency, th stats.Thresholds) evaluation {
	res, err := stats.ChiSquareTest(t.counts)
	if err != nil {
		status := intel.StatusInsufficientData
		if errors.Is(err, core.ErrDegenerateTable) {
			status = intel.StatusDegenerate
		}
		return evaluation{status: status, method: intel.MethodNone, severity: intel.SeverityNone, err: err}
	}

	ev := evaluation{status: intel.StatusOK, chi: res, severity: intel.SeverityNone}
	ev.cells = make([][]intel.Cell, len(t.counts))
	anySevereCell := false
	for i, row := range t.counts {
		ev.cells[i] = make([]intel.Cell, len(row))
		for j, o := range row {
			e := res.Expected[i][j]
			z, reliable := stats.StandardizedResidual(float64(o), e)
			adj, _ := stats.AdjustedResidual(float64(o), e, res.RowTotals[i], res.ColTotals[j], res.N)
			sev := th.ClassifyCell(z, reliable)
			if sev == intel.SeveritySevere {
				anySevereCell = true
			}
			ev.cells[i][j] = intel.Cell{
				Bucket:       t.buckets[j],
				Observed:     o,
				Expected:     e,
				Z:            z,
				AdjustedZ:    adj,
				Reliable:     reliable,
				Contribution: stats.Contribution(float64(o), e),
				Severity:     sev,
			}
		}
	}

	smallGroup := false
	for _, n := range t.rowN {
		if n > 0 && n < th.MinGroupSize {
			smallGroup = true
		}
	}
	minExp := res.MinExpected()
	ev.warning = smallGroup || minExp < th.MinExpected

	// Both populated dimensions are >= 2 here.
	ev.cramersV, _ = stats.CramersV(res.Statistic, res.N, res.PopulatedRows, res.PopulatedCols)

	var p float64
	switch {
	case minExp >= th.MinExpected:
		ev.method = intel.MethodChiSquare
		p = res.PValue
	case res.PopulatedRows == 2 && (res.PopulatedCols == 2 || res.ColTotals[len(res.ColTotals)-1] > 0):
		fp, err := stats.FishersExact(twoByTwo(t.counts, res))
		if err != nil {
			ev.status = intel.StatusInsufficientData
			ev.method = intel.MethodNone
			ev.err = err
			return ev
		}
		ev.method = intel.MethodFisherExact
		p = fp
	default:
		ev.status = intel.StatusInsufficientSample
		ev.method = intel.MethodDescriptive
		return ev
	}

	ev.pValue = &p
	ev.severity = th.ClassifyPValue(p)
	if ev.severity != intel.SeverityNone && anySevereCell {
		ev.severity = intel.SeveritySevere
	}
	return ev
}

// twoByTwo reduces a table with two populated rows to 2x2. Two populated
// columns are used as-is; otherwise the top bucket is compared against the rest,
// which requires the top bucket to be populated.
func twoByTwo(counts [][]int, res stats.ChiSquareResult) [][]int {
	var rows [][]int
	for i, row := range counts {
		if res.RowTotals[i] > 0 {
			rows = append(rows, row)
		}
	}

	if res.PopulatedCols == 2 {
		var cols []int
		for j, total := range res.ColTotals {
			if total > 0 {
				cols = append(cols, j)
			}
		}
		out := make([][]int, len(rows))
		for i, row := range rows {
			out[i] = []int{row[cols[0]], row[cols[1]]}
		}
		return out
	}
	return stats.CollapseColumns(rows, len(res.ColTotals)-1)
}
