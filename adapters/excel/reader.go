package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"ninebox/domain/core"
	"ninebox/domain/employee"
	"ninebox/internal/errors"
	"ninebox/ports"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
)

// DataReader reads employee rosters from Excel and CSV files
type DataReader struct {
	config   RosterConfig
	fileType string // "xlsx" or "csv"
	validate *validator.Validate
}

// NewDataReader creates a roster reader; the file type follows the extension
func NewDataReader(config RosterConfig) *DataReader {
	ext := strings.ToLower(filepath.Ext(config.FilePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	return &DataReader{config: config, fileType: fileType, validate: validator.New()}
}

var _ ports.EmployeeSource = (*DataReader)(nil)

func (r *DataReader) Describe() string {
	return fmt.Sprintf("%s file %s", r.fileType, r.config.FilePath)
}

// LoadEmployees reads and validates every roster row
func (r *DataReader) LoadEmployees(ctx context.Context) ([]employee.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := r.ReadData()
	if err != nil {
		return nil, errors.RosterError(r.Describe(), err)
	}
	records, err := r.toRecords(data)
	if err != nil {
		return nil, errors.RosterError(r.Describe(), err)
	}
	return records, nil
}

// ReadData reads raw rows from Excel or CSV files
func (r *DataReader) ReadData() (*RosterData, error) {
	if _, err := os.Stat(r.config.FilePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s file not found: %s", strings.ToUpper(r.fileType), r.config.FilePath)
	}

	switch r.fileType {
	case "csv":
		return r.readCSVData()
	case "xlsx":
		return r.readExcelData()
	default:
		return nil, fmt.Errorf("unsupported file type: %s", r.fileType)
	}
}

// readExcelData reads the configured sheet, or the first one
func (r *DataReader) readExcelData() (*RosterData, error) {
	start := time.Now()
	f, err := excelize.OpenFile(r.config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := r.config.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	log.Debug().
		Str("file", r.config.FilePath).
		Str("sheet", sheet).
		Int("rows", len(rows)).
		Dur("elapsed", time.Since(start)).
		Msg("excel roster read")

	if len(rows) < 2 {
		return nil, fmt.Errorf("roster must have at least a header row and one data row")
	}
	return r.processRows(rows)
}

// readCSVData reads CSV rows
func (r *DataReader) readCSVData() (*RosterData, error) {
	file, err := os.Open(r.config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	log.Debug().Str("file", r.config.FilePath).Int("rows", len(rows)).Msg("csv roster read")

	if len(rows) < 2 {
		return nil, fmt.Errorf("roster must have at least a header row and one data row")
	}
	return r.processRows(rows)
}

// processRows maps header spellings onto canonical columns and keys each row by them
func (r *DataReader) processRows(rows [][]string) (*RosterData, error) {
	headerRow := rows[0]
	headers := make([]string, len(headerRow))
	seen := map[string]bool{}
	for i, h := range headerRow {
		col, ok := columnAliases[normalizeHeader(h)]
		if !ok || seen[col] {
			continue
		}
		headers[i] = col
		seen[col] = true
	}
	for _, col := range requiredColumns {
		if !seen[col] {
			return nil, fmt.Errorf("missing required column %q", col)
		}
	}

	var dataRows []RawRowData
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		rowData := make(RawRowData)
		blank := true
		for j, cell := range row {
			if j < len(headers) && headers[j] != "" {
				v := strings.TrimSpace(cell)
				rowData[headers[j]] = v
				if v != "" {
					blank = false
				}
			}
		}
		if blank {
			continue
		}
		dataRows = append(dataRows, rowData)
	}

	canonical := make([]string, 0, len(seen))
	for _, h := range headers {
		if h != "" {
			canonical = append(canonical, h)
		}
	}
	return &RosterData{Headers: canonical, Rows: dataRows}, nil
}

func (r *DataReader) toRecords(data *RosterData) ([]employee.Record, error) {
	records := make([]employee.Record, 0, len(data.Rows))
	for i, row := range data.Rows {
		line := i + 2 // header is line 1
		id, err := strconv.Atoi(row[colID])
		if err != nil {
			return nil, core.NewInvalidEmployeeError(line, fmt.Sprintf("employee_id %q is not an integer", row[colID]))
		}
		perf, err := employee.ParseRating(row[colPerformance])
		if err != nil {
			return nil, core.NewInvalidEmployeeError(line, err.Error())
		}
		pot, err := employee.ParseRating(row[colPotential])
		if err != nil {
			return nil, core.NewInvalidEmployeeError(line, err.Error())
		}

		rec := employee.Record{
			ID:          id,
			Name:        row[colName],
			Title:       row[colTitle],
			Location:    row[colLocation],
			JobFunction: row[colFunction],
			JobLevel:    row[colLevel],
			Tenure:      row[colTenure],
			Manager:     row[colManager],
			Performance: perf,
			Potential:   pot,
		}
		if err := r.validate.Struct(rec); err != nil {
			return nil, core.NewInvalidEmployeeError(line, err.Error())
		}
		records = append(records, rec)
	}
	return records, nil
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.NewReplacer(" ", "_", "-", "_", ".", "").Replace(h)
	return h
}
