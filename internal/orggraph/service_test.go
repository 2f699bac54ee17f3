package orggraph

import (
	"fmt"
	"sync"
	"testing"

	"ninebox/domain/core"
	"ninebox/domain/employee"
	"ninebox/domain/orgchart"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(id int, name, manager string) employee.Record {
	return employee.Record{
		ID:          id,
		Name:        name,
		Manager:     manager,
		Performance: employee.RatingMedium,
		Potential:   employee.RatingMedium,
	}
}

func names(records []employee.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Name
	}
	return out
}

// CEO -> VP1, VP2; each VP has three reports.
func hierarchy() []employee.Record {
	return []employee.Record{
		rec(1, "CEO", ""),
		rec(2, "VP1", "CEO"),
		rec(3, "VP2", "CEO"),
		rec(4, "Ann", "VP1"),
		rec(5, "Bob", "VP1"),
		rec(6, "Cid", "VP1"),
		rec(7, "Dee", "VP2"),
		rec(8, "Eve", "VP2"),
		rec(9, "Fay", "VP2"),
	}
}

func TestBuildOrgTree_GroupsByManager(t *testing.T) {
	tree := BuildOrgTree(hierarchy())

	assert.Len(t, tree, 3)
	assert.Equal(t, []string{"VP1", "VP2"}, names(tree["CEO"]))
	assert.Equal(t, []string{"Ann", "Bob", "Cid"}, names(tree["VP1"]))
	_, hasRoot := tree[""]
	assert.False(t, hasRoot)
}

func TestDirectAndAllReports(t *testing.T) {
	svc := New(hierarchy())

	assert.Equal(t, []string{"VP1", "VP2"}, names(svc.DirectReports("CEO")))
	assert.Empty(t, svc.DirectReports("Ann"))
	assert.Empty(t, svc.DirectReports("Nobody"))

	all := svc.AllReports("CEO")
	assert.ElementsMatch(t, []string{"VP1", "VP2", "Ann", "Bob", "Cid", "Dee", "Eve", "Fay"}, names(all))
	assert.ElementsMatch(t, []string{"Dee", "Eve", "Fay"}, names(svc.AllReports("VP2")))
}

func TestReportingChain(t *testing.T) {
	svc := New(hierarchy())

	chain, err := svc.ReportingChain("Eve")
	require.NoError(t, err)
	assert.Equal(t, []string{"VP2", "CEO"}, chain)

	chain, err = svc.ReportingChain("CEO")
	require.NoError(t, err)
	assert.Empty(t, chain)

	_, err = svc.ReportingChain("Zed")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestFindManagers_SortedByTeamSize(t *testing.T) {
	svc := New(hierarchy())

	all := svc.FindManagers(0)
	require.Len(t, all, 3)
	assert.Equal(t, "CEO", all[0].Name)
	assert.Equal(t, 8, all[0].TeamSize)
	assert.Equal(t, 2, all[0].DirectReports)
	assert.True(t, all[0].Resolved)
	assert.Equal(t, 1, all[0].EmployeeID)
	assert.Equal(t, "VP1", all[1].Name)
	assert.Equal(t, "VP2", all[2].Name)

	big := svc.FindManagers(5)
	require.Len(t, big, 1)
	assert.Equal(t, "CEO", big[0].Name)
}

func TestTwoPersonCycle(t *testing.T) {
	svc := New([]employee.Record{
		rec(1, "A", "B"),
		rec(2, "B", "A"),
	})

	res := svc.ValidateStructure()
	assert.False(t, res.Valid)
	require.Len(t, res.Cycles, 1)
	assert.Equal(t, []string{"A", "B"}, res.Cycles[0])
	assert.Empty(t, res.SelfManaged)

	assert.Equal(t, []string{"B"}, names(svc.AllReports("A")))
	assert.Equal(t, []string{"A"}, names(svc.AllReports("B")))

	tr := svc.Traverse("A")
	require.Len(t, tr.Cycles, 1)
	assert.Equal(t, []string{"A", "B"}, tr.Cycles[0])

	chain, err := svc.ReportingChain("A")
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, chain)
}

func TestLargeRing_Terminates(t *testing.T) {
	const n = 50
	records := make([]employee.Record, n)
	for i := 0; i < n; i++ {
		records[i] = rec(i+1, fmt.Sprintf("e%02d", i), fmt.Sprintf("e%02d", (i+1)%n))
	}
	svc := New(records)

	chain, err := svc.ReportingChain("e00")
	require.NoError(t, err)
	assert.Len(t, chain, n-1)

	reports := svc.AllReports("e00")
	assert.Len(t, reports, n-1)
	seen := map[int]bool{}
	for _, r := range reports {
		assert.False(t, seen[r.ID], "employee %d returned twice", r.ID)
		seen[r.ID] = true
	}

	res := svc.ValidateStructure()
	require.Len(t, res.Cycles, 1)
	assert.Len(t, res.Cycles[0], n)
	assert.Equal(t, "e00", res.Cycles[0][0])

	// Everyone is on the ring, so nobody is a root.
	assert.Empty(t, svc.Roots())
	assert.Empty(t, svc.FindManagers(n))
	assert.Len(t, svc.FindManagers(n-1), n)
}

func TestSelfManagement(t *testing.T) {
	svc := New([]employee.Record{
		rec(1, "Solo", "Solo"),
		rec(2, "Kid", "Solo"),
	})

	assert.Equal(t, []string{"Kid"}, names(svc.DirectReports("Solo")))
	assert.Equal(t, []string{"Kid"}, names(svc.AllReports("Solo")))

	chain, err := svc.ReportingChain("Solo")
	require.NoError(t, err)
	assert.Empty(t, chain)

	res := svc.ValidateStructure()
	assert.Equal(t, []string{"Solo"}, res.SelfManaged)
	assert.Empty(t, res.Cycles)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, orgchart.WarningSelfManagement, res.Warnings[0].Kind)

	roots := svc.Roots()
	require.Len(t, roots, 1)
	assert.Equal(t, "Solo", roots[0].Name)
}

func TestDanglingManager(t *testing.T) {
	svc := New([]employee.Record{
		rec(1, "Xia", "Ghost"),
		rec(2, "Yan", "Ghost"),
		rec(3, "Zoe", "Xia"),
	})

	chain, err := svc.ReportingChain("Zoe")
	require.NoError(t, err)
	assert.Equal(t, []string{"Xia", "Ghost"}, chain)

	res := svc.ValidateStructure()
	require.Len(t, res.Dangling, 1)
	assert.Equal(t, "Ghost", res.Dangling[0].ManagerName)
	assert.Equal(t, []string{"Xia", "Yan"}, res.Dangling[0].ReferencedBy)

	node, ok := svc.Node(1)
	require.True(t, ok)
	assert.True(t, node.DanglingManager)
	assert.Zero(t, node.ManagerID)

	managers := svc.FindManagers(0)
	require.Len(t, managers, 2)
	assert.Equal(t, "Ghost", managers[0].Name)
	assert.False(t, managers[0].Resolved)
	assert.Equal(t, 3, managers[0].TeamSize)
}

func TestDuplicateNames_ResolveToFirst(t *testing.T) {
	svc := New([]employee.Record{
		rec(10, "Pat", ""),
		rec(11, "Pat", ""),
		rec(12, "Sam", "Pat"),
	})

	r, ok := svc.Lookup("Pat")
	require.True(t, ok)
	assert.Equal(t, 10, r.ID)

	node, ok := svc.Node(12)
	require.True(t, ok)
	assert.Equal(t, 10, node.ManagerID)

	first, _ := svc.Node(10)
	assert.Equal(t, []int{12}, first.DirectReportIDs)

	res := svc.ValidateStructure()
	assert.Equal(t, []string{"Pat"}, res.DuplicateNames)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, orgchart.WarningDuplicateName, res.Warnings[0].Kind)
	assert.Contains(t, res.Warnings[0].Message, "10, 11")
}

func TestDuplicateNameAsReport_IsNotACycle(t *testing.T) {
	svc := New([]employee.Record{
		rec(1, "John Smith", ""),
		rec(2, "Mary", "John Smith"),
		rec(3, "John Smith", "Mary"),
	})

	tr := svc.Traverse("John Smith")
	assert.Empty(t, tr.Cycles)
	ids := make([]int, len(tr.Reports))
	for i, r := range tr.Reports {
		ids[i] = r.ID
	}
	assert.Equal(t, []int{2, 3}, ids)
	assert.Empty(t, svc.ValidateStructure().Cycles)

	tree, err := svc.Subtree("John Smith")
	require.NoError(t, err)
	assert.Equal(t, 2, tree.TeamSize)
	assert.False(t, tree.Truncated)
	require.Len(t, tree.Children, 1)
	mary := tree.Children[0]
	assert.False(t, mary.Truncated)
	require.Len(t, mary.Children, 1)
	assert.Equal(t, 3, mary.Children[0].EmployeeID)
	assert.Empty(t, mary.Children[0].Children)
}

func TestValidateStructure_CleanTree(t *testing.T) {
	res := New(hierarchy()).ValidateStructure()

	assert.True(t, res.Valid)
	assert.Empty(t, res.Cycles)
	assert.Empty(t, res.Dangling)
	assert.Empty(t, res.Warnings)
}

func TestSubtreeAndForest(t *testing.T) {
	svc := New(hierarchy())

	root, err := svc.Subtree("CEO")
	require.NoError(t, err)
	assert.Equal(t, 8, root.TeamSize)
	require.Len(t, root.Children, 2)
	assert.Equal(t, "VP1", root.Children[0].Name)
	assert.Equal(t, 3, root.Children[0].TeamSize)
	assert.False(t, root.Truncated)

	_, err = svc.Subtree("Nobody")
	assert.ErrorIs(t, err, core.ErrNotFound)

	forest := svc.Forest()
	require.Len(t, forest, 1)
	assert.Equal(t, "CEO", forest[0].Name)
}

func TestSubtree_CycleIsTruncated(t *testing.T) {
	svc := New([]employee.Record{
		rec(1, "A", "B"),
		rec(2, "B", "A"),
	})

	root, err := svc.Subtree("A")
	require.NoError(t, err)
	assert.Equal(t, 1, root.TeamSize)
	require.Len(t, root.Children, 1)
	assert.True(t, root.Children[0].Truncated)
	assert.Empty(t, root.Children[0].Children)
}

func TestCache_ReusesGraphPerPopulation(t *testing.T) {
	cache := NewCache(2)
	pop := employee.NewPopulation(hierarchy())

	var wg sync.WaitGroup
	got := make([]*Service, 8)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i] = cache.Get(pop)
		}(i)
	}
	wg.Wait()
	for _, svc := range got[1:] {
		assert.Same(t, got[0], svc)
	}
	assert.Equal(t, 1, cache.Len())

	same := employee.NewPopulation(hierarchy())
	assert.Same(t, got[0], cache.Get(same))
}

func TestCache_EvictsOldest(t *testing.T) {
	cache := NewCache(2)
	p1 := employee.NewPopulation([]employee.Record{rec(1, "A", "")})
	p2 := employee.NewPopulation([]employee.Record{rec(2, "B", "")})
	p3 := employee.NewPopulation([]employee.Record{rec(3, "C", "")})

	first := cache.Get(p1)
	cache.Get(p2)
	cache.Get(p3)
	assert.Equal(t, 2, cache.Len())
	assert.NotSame(t, first, cache.Get(p1))
}
