// Package importer reads cutting plans and inventory lots from CSV and Excel
// files. It supports automatic delimiter detection, flexible column mapping,
// and case-insensitive header recognition.
package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/RollSlit/internal/model"
)

// ImportResult holds the results of a cutting plan import.
type ImportResult struct {
	Plans    []model.CuttingPlan
	Errors   []string
	Warnings []string
}

// ColumnMapping maps column roles to their indices in the data. A role that
// is absent maps to -1.
type ColumnMapping map[string]int

// Index returns the column of role, or -1.
func (m ColumnMapping) Index(role string) int {
	if i, ok := m[role]; ok {
		return i
	}
	return -1
}

// planAliases maps plan column roles to their accepted header names (all lowercase).
var planAliases = map[string][]string{
	"width":    {"width", "child width", "width mm", "width (mm)", "w", "size", "reel width"},
	"quantity": {"quantity", "qty", "count", "rolls", "nos", "pcs", "reels"},
}

// planRoles is the positional order used when a file has no header.
var planRoles = []string{"width", "quantity"}

// DetectCSVDelimiter reads the file content and determines the most likely CSV delimiter.
// It tries comma, semicolon, tab, and pipe. The delimiter that produces the most
// consistent (non-one) column count across lines wins.
func DetectCSVDelimiter(data []byte) rune {
	candidates := []rune{',', ';', '\t', '|'}
	bestDelimiter := ','
	bestScore := 0

	for _, delim := range candidates {
		reader := csv.NewReader(bytes.NewReader(data))
		reader.Comma = delim
		reader.LazyQuotes = true
		reader.FieldsPerRecord = -1

		records, err := reader.ReadAll()
		if err != nil || len(records) < 1 {
			continue
		}

		firstCols := len(records[0])
		if firstCols < 2 {
			continue
		}

		score := 0
		for _, row := range records {
			if len(row) == firstCols {
				score++
			}
		}

		weighted := score*10 + firstCols
		if weighted > bestScore {
			bestScore = weighted
			bestDelimiter = delim
		}
	}

	return bestDelimiter
}

// DetectColumns examines a header row against a set of role aliases.
// It returns the mapping and true if a header was detected, or a positional
// mapping built from positional and false if no header cell was recognized.
func DetectColumns(row []string, aliases map[string][]string, positional []string) (ColumnMapping, bool) {
	mapping := ColumnMapping{}
	for i, cell := range row {
		normalized := strings.ToLower(strings.TrimSpace(cell))
		for role, names := range aliases {
			if _, taken := mapping[role]; taken {
				continue
			}
			for _, name := range names {
				if normalized == name {
					mapping[role] = i
					break
				}
			}
		}
	}
	if len(mapping) > 0 {
		return mapping, true
	}

	for i, role := range positional {
		mapping[role] = i
	}
	return mapping, false
}

// getCell safely retrieves a cell value from a row by column index.
// Returns empty string if the index is out of range or negative.
func getCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseNumber accepts plain numbers and numbers with a trailing unit such as
// "600mm" or "70 gsm".
func parseNumber(s string) (float64, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimRight(s, "abcdefghijklmnopqrstuvwxyz² ")
	s = strings.ReplaceAll(s, ",", "")
	return strconv.ParseFloat(s, 64)
}

// isEmptyRow returns true if the row has no meaningful content.
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// parsePlanRow extracts a CuttingPlan from a row using the given column mapping.
func parsePlanRow(row []string, mapping ColumnMapping, rowLabel string) (model.CuttingPlan, string) {
	widthStr := getCell(row, mapping.Index("width"))
	if widthStr == "" {
		return model.CuttingPlan{}, fmt.Sprintf("%s: Missing width value", rowLabel)
	}
	width, err := parseNumber(widthStr)
	if err != nil {
		return model.CuttingPlan{}, fmt.Sprintf("%s: Invalid width '%s'", rowLabel, widthStr)
	}

	qtyStr := getCell(row, mapping.Index("quantity"))
	if qtyStr == "" {
		return model.CuttingPlan{}, fmt.Sprintf("%s: Missing quantity value", rowLabel)
	}
	qty, err := strconv.Atoi(qtyStr)
	if err != nil {
		return model.CuttingPlan{}, fmt.Sprintf("%s: Invalid quantity '%s'", rowLabel, qtyStr)
	}

	if width <= 0 || qty <= 0 {
		return model.CuttingPlan{}, fmt.Sprintf("%s: Width and quantity must be positive", rowLabel)
	}
	return model.NewCuttingPlan(width, qty), ""
}

// readCSV parses CSV data with a detected delimiter. A non-comma delimiter
// is reported as a warning.
func readCSV(data []byte) ([][]string, []string, error) {
	var warnings []string
	delimiter := DetectCSVDelimiter(data)
	if delimiter != ',' {
		delimName := map[rune]string{';': "semicolon", '\t': "tab", '|': "pipe"}[delimiter]
		warnings = append(warnings, fmt.Sprintf("Detected %s delimiter", delimName))
	}
	records, err := readCSVWith(bytes.NewReader(data), delimiter)
	return records, warnings, err
}

func readCSVWith(r io.Reader, delimiter rune) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	return reader.ReadAll()
}

// readExcel returns the rows of the first sheet of an Excel workbook.
func readExcel(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("Cannot open Excel file: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("Excel file has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("Cannot read Excel data: %v", err)
	}
	return rows, nil
}

// IsExcel reports whether path has a spreadsheet extension.
func IsExcel(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm", ".xls":
		return true
	}
	return false
}

// readRows loads rows from a CSV or Excel file, chosen by extension. The
// returned prefix names rows in messages.
func readRows(path string) (rows [][]string, prefix string, warnings []string, errMsg string) {
	if IsExcel(path) {
		rows, err := readExcel(path)
		if err != nil {
			return nil, "Row", nil, err.Error()
		}
		if len(rows) == 0 {
			return nil, "Row", nil, "Sheet is empty"
		}
		return rows, "Row", nil, ""
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "Line", nil, fmt.Sprintf("Cannot open file: %v", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, "Line", nil, "File is empty"
	}
	rows, warnings, err = readCSV(data)
	if err != nil {
		return nil, "Line", warnings, fmt.Sprintf("Cannot read CSV: %v", err)
	}
	if len(rows) == 0 {
		return nil, "Line", warnings, "File is empty"
	}
	return rows, "Line", warnings, ""
}

// ImportPlans imports cutting plan rows from a CSV or Excel file.
func ImportPlans(path string) ImportResult {
	rows, prefix, warnings, errMsg := readRows(path)
	if errMsg != "" {
		return ImportResult{Errors: []string{errMsg}, Warnings: warnings}
	}
	return plansFromRows(rows, prefix, warnings)
}

// ImportPlansFromReader imports cutting plans from CSV data with a known delimiter.
func ImportPlansFromReader(reader io.Reader, delimiter rune) ImportResult {
	records, err := readCSVWith(reader, delimiter)
	if err != nil {
		return ImportResult{Errors: []string{fmt.Sprintf("Cannot read CSV: %v", err)}}
	}
	if len(records) == 0 {
		return ImportResult{Errors: []string{"File is empty"}}
	}
	return plansFromRows(records, "Line", nil)
}

// plansFromRows detects headers, maps columns, and parses each row into a plan.
func plansFromRows(rows [][]string, rowPrefix string, initialWarnings []string) ImportResult {
	result := ImportResult{Warnings: initialWarnings}

	mapping, hasHeader := DetectColumns(rows[0], planAliases, planRoles)
	startRow := 0
	if hasHeader {
		startRow = 1
		result.Warnings = append(result.Warnings, "Detected header row, skipping")
		if missing := missingRoles(mapping, planRoles); len(missing) > 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("Required columns not found in header: %s", strings.Join(missing, ", ")))
			return result
		}
	} else if _, err := parseNumber(getCell(rows[0], 0)); err != nil {
		startRow = 1
		result.Warnings = append(result.Warnings, "Detected header row, skipping")
	}

	for i := startRow; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}
		rowLabel := fmt.Sprintf("%s %d", rowPrefix, i+1)
		plan, errMsg := parsePlanRow(row, mapping, rowLabel)
		if errMsg != "" {
			result.Errors = append(result.Errors, errMsg)
			continue
		}
		result.Plans = append(result.Plans, plan)
	}

	if len(result.Plans) == 0 && len(result.Errors) == 0 {
		result.Errors = append(result.Errors, "No data rows found")
	}
	return result
}

// missingRoles lists required roles absent from mapping, capitalized for display.
func missingRoles(mapping ColumnMapping, required []string) []string {
	var missing []string
	for _, role := range required {
		if mapping.Index(role) == -1 {
			missing = append(missing, strings.ToUpper(role[:1])+role[1:])
		}
	}
	return missing
}
