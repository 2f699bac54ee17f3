package excel

// RosterConfig holds configuration for a file roster source
type RosterConfig struct {
	FilePath string `json:"file_path"`
	// Sheet is the xlsx sheet to read; empty selects the first sheet.
	Sheet string `json:"sheet,omitempty"`
}

// columnAliases maps normalized header spellings onto canonical columns.
var columnAliases = map[string]string{
	"employee_id":        colID,
	"id":                 colID,
	"emp_id":             colID,
	"name":               colName,
	"employee_name":      colName,
	"full_name":          colName,
	"job_title":          colTitle,
	"title":              colTitle,
	"location":           colLocation,
	"office":             colLocation,
	"job_function":       colFunction,
	"function":           colFunction,
	"department":         colFunction,
	"job_level":          colLevel,
	"level":              colLevel,
	"grade":              colLevel,
	"tenure_category":    colTenure,
	"tenure":             colTenure,
	"tenure_band":        colTenure,
	"manager":            colManager,
	"manager_name":       colManager,
	"performance":        colPerformance,
	"performance_rating": colPerformance,
	"potential":          colPotential,
	"potential_rating":   colPotential,
}

const (
	colID          = "employee_id"
	colName        = "name"
	colTitle       = "job_title"
	colLocation    = "location"
	colFunction    = "job_function"
	colLevel       = "job_level"
	colTenure      = "tenure_category"
	colManager     = "manager"
	colPerformance = "performance"
	colPotential   = "potential"
)

// requiredColumns must be present in every roster.
var requiredColumns = []string{colID, colName, colPerformance, colPotential}
