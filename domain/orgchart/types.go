package orgchart

// Node is one employee in the org graph. ManagerID is 0 when the employee has
// no manager or the manager name does not resolve.
type Node struct {
	EmployeeID      int    `json:"employee_id"`
	Name            string `json:"name"`
	ManagerName     string `json:"manager_name,omitempty"`
	ManagerID       int    `json:"manager_id,omitempty"`
	DanglingManager bool   `json:"dangling_manager,omitempty"`
	DirectReportIDs []int  `json:"direct_report_ids,omitempty"`
}

// ManagerInfo summarizes a name that appears as a manager reference.
type ManagerInfo struct {
	EmployeeID    int    `json:"employee_id,omitempty"`
	Name          string `json:"name"`
	Resolved      bool   `json:"resolved"`
	DirectReports int    `json:"direct_reports"`
	TeamSize      int    `json:"team_size"`
}

// TreeNode is the nested org-chart view used by UI collaborators.
type TreeNode struct {
	EmployeeID int         `json:"employee_id"`
	Name       string      `json:"name"`
	Title      string      `json:"job_title,omitempty"`
	TeamSize   int         `json:"team_size"`
	Children   []*TreeNode `json:"children,omitempty"`
	// Truncated marks a node whose children were cut to break a cycle.
	Truncated bool `json:"truncated,omitempty"`
}

// WarningKind classifies an org structural warning.
type WarningKind string

const (
	WarningCycle          WarningKind = "cycle"
	WarningDangling       WarningKind = "dangling_manager"
	WarningSelfManagement WarningKind = "self_management"
	WarningDuplicateName  WarningKind = "duplicate_name"
)

// StructuralWarning is informational; it never blocks analysis.
type StructuralWarning struct {
	Kind      WarningKind `json:"kind"`
	Employees []string    `json:"employees"`
	Message   string      `json:"message"`
}

// DanglingReference is a manager name that matches no employee.
type DanglingReference struct {
	ManagerName  string   `json:"manager_name"`
	ReferencedBy []string `json:"referenced_by"`
}

// ValidationResult gathers every structural problem found in one graph.
type ValidationResult struct {
	Valid          bool                `json:"valid"`
	Cycles         [][]string          `json:"cycles"`
	Dangling       []DanglingReference `json:"dangling"`
	SelfManaged    []string            `json:"self_managed"`
	DuplicateNames []string            `json:"duplicate_names"`
	Warnings       []StructuralWarning `json:"warnings"`
}
