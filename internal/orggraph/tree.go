package orggraph

import (
	"ninebox/domain/core"
	"ninebox/domain/orgchart"
)

// Subtree returns the nested org chart rooted at the named employee.
func (s *Service) Subtree(name string) (*orgchart.TreeNode, error) {
	i, ok := s.nameIndex[normalizeName(name)]
	if !ok {
		return nil, core.NewNotFoundError("employee", name)
	}
	seen := map[int]bool{}
	return s.buildNode(i, map[string]bool{}, seen), nil
}

// Roots returns employees at the top of a chain: no manager, a manager name
// that resolves to nobody, or themselves as manager. Members of a pure cycle
// have no root and only show up in ValidateStructure.
func (s *Service) Roots() []orgchart.Node {
	var roots []orgchart.Node
	for i := range s.records {
		if s.managerIdx[i] < 0 || s.isSelfManaged(i) {
			roots = append(roots, s.nodes[i])
		}
	}
	return roots
}

// Forest returns the nested view of every root's subtree.
func (s *Service) Forest() []*orgchart.TreeNode {
	seen := map[int]bool{}
	var out []*orgchart.TreeNode
	for i := range s.records {
		if s.managerIdx[i] < 0 || s.isSelfManaged(i) {
			if seen[i] {
				continue
			}
			out = append(out, s.buildNode(i, map[string]bool{}, seen))
		}
	}
	return out
}

func (s *Service) buildNode(i int, onPath map[string]bool, seen map[int]bool) *orgchart.TreeNode {
	r := s.records[i]
	name := normalizeName(r.Name)
	seen[i] = true
	node := &orgchart.TreeNode{EmployeeID: r.ID, Name: r.Name, Title: r.Title}

	if !s.holds(i) {
		return node
	}

	onPath[name] = true
	defer delete(onPath, name)

	for _, c := range s.children[name] {
		if s.isSelfManaged(c) {
			continue
		}
		if (s.holds(c) && onPath[normalizeName(s.records[c].Name)]) || seen[c] {
			node.Truncated = true
			continue
		}
		child := s.buildNode(c, onPath, seen)
		node.TeamSize += child.TeamSize + 1
		node.Children = append(node.Children, child)
	}
	return node
}
