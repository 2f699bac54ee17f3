package orggraph

import (
	"fmt"
	"sort"
	"strings"

	"ninebox/domain/orgchart"

	"github.com/rs/zerolog/log"
)

// ValidateStructure reports cycles, dangling manager references, self-managed
// employees and duplicate names. It never fails; problems are informational.
func (s *Service) ValidateStructure() orgchart.ValidationResult {
	res := orgchart.ValidationResult{
		Cycles:         s.findCycles(),
		Dangling:       s.findDangling(),
		SelfManaged:    []string{},
		DuplicateNames: []string{},
		Warnings:       []orgchart.StructuralWarning{},
	}

	for i, r := range s.records {
		if s.isSelfManaged(i) {
			res.SelfManaged = append(res.SelfManaged, r.Name)
		}
	}
	sort.Strings(res.SelfManaged)

	for name := range s.duplicates {
		res.DuplicateNames = append(res.DuplicateNames, name)
	}
	sort.Strings(res.DuplicateNames)

	for _, c := range res.Cycles {
		res.Warnings = append(res.Warnings, orgchart.StructuralWarning{
			Kind:      orgchart.WarningCycle,
			Employees: c,
			Message:   fmt.Sprintf("reporting cycle: %s -> %s", strings.Join(c, " -> "), c[0]),
		})
	}
	for _, d := range res.Dangling {
		res.Warnings = append(res.Warnings, orgchart.StructuralWarning{
			Kind:      orgchart.WarningDangling,
			Employees: d.ReferencedBy,
			Message:   fmt.Sprintf("manager %q does not match any employee; treated as top of chain", d.ManagerName),
		})
	}
	for _, name := range res.SelfManaged {
		res.Warnings = append(res.Warnings, orgchart.StructuralWarning{
			Kind:      orgchart.WarningSelfManagement,
			Employees: []string{name},
			Message:   fmt.Sprintf("%s is listed as their own manager", name),
		})
	}
	for _, name := range res.DuplicateNames {
		ids := make([]string, 0, len(s.duplicates[name]))
		for _, i := range s.duplicates[name] {
			ids = append(ids, fmt.Sprintf("%d", s.records[i].ID))
		}
		res.Warnings = append(res.Warnings, orgchart.StructuralWarning{
			Kind:      orgchart.WarningDuplicateName,
			Employees: []string{name},
			Message: fmt.Sprintf("name %q is shared by employees %s; manager references resolve to employee %s",
				name, strings.Join(ids, ", "), ids[0]),
		})
	}

	res.Valid = len(res.Warnings) == 0
	if !res.Valid {
		log.Debug().
			Int("cycles", len(res.Cycles)).
			Int("dangling", len(res.Dangling)).
			Int("self_managed", len(res.SelfManaged)).
			Int("duplicate_names", len(res.DuplicateNames)).
			Msg("org structure has warnings")
	}
	return res
}

// findCycles walks each employee's resolved manager pointers. Each record has
// at most one outgoing edge, so every cycle is found exactly once. Self loops
// are reported as self-management instead.
func (s *Service) findCycles() [][]string {
	const (
		unvisited = iota
		active
		done
	)
	state := make([]int, len(s.records))
	cycles := [][]string{}

	for start := range s.records {
		if state[start] != unvisited {
			continue
		}
		var walk []int
		pos := map[int]int{}
		cur := start
		for cur >= 0 && state[cur] == unvisited {
			state[cur] = active
			pos[cur] = len(walk)
			walk = append(walk, cur)
			next := s.managerIdx[cur]
			if next == cur {
				next = -1
			}
			cur = next
		}
		if cur >= 0 && state[cur] == active {
			members := walk[pos[cur]:]
			names := make([]string, len(members))
			for k, idx := range members {
				names[k] = s.records[idx].Name
			}
			cycles = append(cycles, canonicalCycle(names))
		}
		for _, idx := range walk {
			state[idx] = done
		}
	}

	sort.Slice(cycles, func(i, j int) bool {
		return strings.Join(cycles[i], "\x00") < strings.Join(cycles[j], "\x00")
	})
	return cycles
}

// canonicalCycle rotates a cycle so its alphabetically smallest name is first.
func canonicalCycle(names []string) []string {
	if len(names) == 0 {
		return names
	}
	minAt := 0
	for i, n := range names {
		if n < names[minAt] {
			minAt = i
		}
	}
	out := make([]string, 0, len(names))
	out = append(out, names[minAt:]...)
	out = append(out, names[:minAt]...)
	return out
}

func (s *Service) findDangling() []orgchart.DanglingReference {
	out := []orgchart.DanglingReference{}
	for _, name := range s.ManagerNames() {
		if _, ok := s.nameIndex[name]; ok {
			continue
		}
		ref := orgchart.DanglingReference{ManagerName: name}
		for _, i := range s.children[name] {
			ref.ReferencedBy = append(ref.ReferencedBy, s.records[i].Name)
		}
		out = append(out, ref)
	}
	return out
}
