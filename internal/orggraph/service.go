// Package orggraph builds the reporting graph implied by employee manager-name
// references and answers hierarchy queries over it. Every traversal is
// cycle-guarded, so malformed input (orphans, cycles, self-management,
// duplicate names) degrades into validation warnings instead of loops.
package orggraph

import (
	"sort"
	"strings"

	"ninebox/domain/core"
	"ninebox/domain/employee"
	"ninebox/domain/orgchart"

	"github.com/rs/zerolog/log"
)

// Service is an immutable org graph built from one employee collection.
type Service struct {
	records []employee.Record
	// nameIndex maps a name to the index of its first record.
	nameIndex map[string]int
	idIndex   map[int]int
	// duplicates lists every record index sharing a name, for names used more than once.
	duplicates map[string][]int
	tree       map[string][]employee.Record
	// children maps a manager name to the record indices naming it.
	children map[string][]int
	// managerIdx is the resolved manager record index per record, -1 when none.
	managerIdx []int
	nodes      []orgchart.Node
}

// BuildOrgTree groups employees by their manager-name field, preserving input
// order within each group. Employees without a manager are not listed.
func BuildOrgTree(records []employee.Record) map[string][]employee.Record {
	tree := make(map[string][]employee.Record)
	for _, r := range records {
		m := normalizeName(r.Manager)
		if m == "" {
			continue
		}
		tree[m] = append(tree[m], r)
	}
	return tree
}

// New indexes records and resolves manager references. Duplicate names
// resolve to the first record carrying that name.
func New(records []employee.Record) *Service {
	s := &Service{
		records:    records,
		nameIndex:  make(map[string]int, len(records)),
		idIndex:    make(map[int]int, len(records)),
		duplicates: make(map[string][]int),
		tree:       BuildOrgTree(records),
		children:   make(map[string][]int),
		managerIdx: make([]int, len(records)),
		nodes:      make([]orgchart.Node, len(records)),
	}

	for i, r := range records {
		name := normalizeName(r.Name)
		if first, ok := s.nameIndex[name]; ok {
			if len(s.duplicates[name]) == 0 {
				s.duplicates[name] = []int{first}
			}
			s.duplicates[name] = append(s.duplicates[name], i)
		} else {
			s.nameIndex[name] = i
		}
		if _, ok := s.idIndex[r.ID]; !ok {
			s.idIndex[r.ID] = i
		}
	}

	for i, r := range records {
		s.managerIdx[i] = -1
		node := orgchart.Node{EmployeeID: r.ID, Name: r.Name, ManagerName: normalizeName(r.Manager)}
		if node.ManagerName != "" {
			s.children[node.ManagerName] = append(s.children[node.ManagerName], i)
			if mi, ok := s.nameIndex[node.ManagerName]; ok {
				s.managerIdx[i] = mi
				node.ManagerID = records[mi].ID
			} else {
				node.DanglingManager = true
			}
		}
		s.nodes[i] = node
	}
	for i, mi := range s.managerIdx {
		if mi >= 0 && mi != i {
			s.nodes[mi].DirectReportIDs = append(s.nodes[mi].DirectReportIDs, records[i].ID)
		}
	}

	log.Debug().
		Int("employees", len(records)).
		Int("managers", len(s.tree)).
		Int("duplicate_names", len(s.duplicates)).
		Msg("org graph built")

	return s
}

// NewFromPopulation builds a graph over a population snapshot.
func NewFromPopulation(pop employee.Population) *Service {
	return New(pop.Records())
}

// Tree exposes the manager-name grouping. The map must not be modified.
func (s *Service) Tree() map[string][]employee.Record {
	return s.tree
}

// Size returns the number of employees in the graph.
func (s *Service) Size() int {
	return len(s.records)
}

// Lookup resolves a name to its first employee record.
func (s *Service) Lookup(name string) (employee.Record, bool) {
	i, ok := s.nameIndex[normalizeName(name)]
	if !ok {
		return employee.Record{}, false
	}
	return s.records[i], true
}

// Node returns the graph node for an employee ID.
func (s *Service) Node(id int) (orgchart.Node, bool) {
	i, ok := s.idIndex[id]
	if !ok {
		return orgchart.Node{}, false
	}
	return s.nodes[i], true
}

// holds reports whether record i is the one its name resolves to. Only that
// record owns the reports filed under the name.
func (s *Service) holds(i int) bool {
	h, ok := s.nameIndex[normalizeName(s.records[i].Name)]
	return ok && h == i
}

// isSelfManaged reports whether record i's manager resolves to itself.
func (s *Service) isSelfManaged(i int) bool {
	return s.managerIdx[i] == i
}

// DirectReports returns the employees naming manager as their manager.
// Self-managed employees are not their own reports.
func (s *Service) DirectReports(manager string) []employee.Record {
	idx := s.children[normalizeName(manager)]
	out := make([]employee.Record, 0, len(idx))
	for _, i := range idx {
		if s.isSelfManaged(i) {
			continue
		}
		out = append(out, s.records[i])
	}
	return out
}

// Traversal is the result of walking down from one manager.
type Traversal struct {
	Reports []employee.Record `json:"reports"`
	// Cycles lists the manager-name paths that looped back onto the active path.
	Cycles [][]string `json:"cycles,omitempty"`
}

type walkState struct {
	onPath   map[string]bool
	path     []string
	seen     map[int]bool
	expanded map[string]bool
	out      []employee.Record
	cycles   [][]string
}

// Traverse collects every direct and indirect report of manager. A report
// that resolves to a manager already on the active path halts that branch and
// is recorded as a cycle. A report sharing a name with an earlier employee is
// collected but not expanded, since the name's reports belong to that earlier
// employee. The manager itself is never part of the result and no employee is
// collected twice.
func (s *Service) Traverse(manager string) Traversal {
	root := normalizeName(manager)
	st := &walkState{
		onPath:   map[string]bool{},
		seen:     map[int]bool{},
		expanded: map[string]bool{},
	}
	if i, ok := s.nameIndex[root]; ok {
		st.seen[i] = true
	}
	s.walk(root, st)
	return Traversal{Reports: st.out, Cycles: st.cycles}
}

// AllReports returns every direct and indirect report of manager.
func (s *Service) AllReports(manager string) []employee.Record {
	return s.Traverse(manager).Reports
}

func (s *Service) walk(name string, st *walkState) {
	st.onPath[name] = true
	st.path = append(st.path, name)
	st.expanded[name] = true
	defer func() {
		delete(st.onPath, name)
		st.path = st.path[:len(st.path)-1]
	}()

	for _, i := range s.children[name] {
		if s.isSelfManaged(i) {
			continue
		}
		r := s.records[i]
		rn := normalizeName(r.Name)
		holder := s.holds(i)
		if holder && st.onPath[rn] {
			st.cycles = append(st.cycles, cycleFromPath(st.path, rn))
			continue
		}
		if st.seen[i] {
			continue
		}
		st.seen[i] = true
		st.out = append(st.out, r)
		if holder && !st.expanded[rn] {
			s.walk(rn, st)
		}
	}
}

func cycleFromPath(path []string, back string) []string {
	for k, n := range path {
		if n == back {
			cycle := make([]string, len(path)-k)
			copy(cycle, path[k:])
			return cycle
		}
	}
	return []string{back}
}

// ReportingChain walks upward from the employee, immediate manager first.
// The walk stops at an employee without a manager, at a manager name that
// resolves to nobody (that name is the last element), or when a name would
// repeat.
func (s *Service) ReportingChain(name string) ([]string, error) {
	start, ok := s.nameIndex[normalizeName(name)]
	if !ok {
		return nil, core.NewNotFoundError("employee", name)
	}

	chain := []string{}
	visited := map[string]bool{normalizeName(s.records[start].Name): true}
	cur := start
	for {
		m := normalizeName(s.records[cur].Manager)
		if m == "" || visited[m] {
			break
		}
		visited[m] = true
		chain = append(chain, m)

		next, ok := s.nameIndex[m]
		if !ok {
			break
		}
		cur = next
	}
	return chain, nil
}

// ManagerNames returns every name referenced as a manager, sorted.
func (s *Service) ManagerNames() []string {
	names := make([]string, 0, len(s.tree))
	for name := range s.tree {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FindManagers lists every name referenced as a manager whose total team is
// at least minTeamSize, largest team first and alphabetical within ties.
func (s *Service) FindManagers(minTeamSize int) []orgchart.ManagerInfo {
	var out []orgchart.ManagerInfo
	for _, name := range s.ManagerNames() {
		team := len(s.AllReports(name))
		if team < minTeamSize || team == 0 {
			continue
		}
		info := orgchart.ManagerInfo{
			Name:          name,
			DirectReports: len(s.DirectReports(name)),
			TeamSize:      team,
		}
		if r, ok := s.Lookup(name); ok {
			info.EmployeeID = r.ID
			info.Resolved = true
		}
		out = append(out, info)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TeamSize != out[j].TeamSize {
			return out[i].TeamSize > out[j].TeamSize
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func normalizeName(s string) string {
	return strings.TrimSpace(s)
}
