package excel

// RawRowData represents a row of raw roster data keyed by canonical column name
type RawRowData map[string]string

// RosterData represents the complete sheet
type RosterData struct {
	Headers []string     // Canonical column names, in sheet order
	Rows    []RawRowData // Data rows
}
