package importer

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/piwi3910/RollSlit/internal/model"
)

// LotImportResult holds the results of a lot import.
type LotImportResult struct {
	Lots     []model.Lot
	Errors   []string
	Warnings []string
}

// lotAliases maps lot column roles to their accepted header names (all lowercase).
var lotAliases = map[string][]string{
	"id":      {"lot", "lot id", "lot no", "lot number", "id"},
	"batch":   {"batch", "batch no", "batch number", "reel no", "roll no"},
	"item":    {"item", "item name", "name", "description", "material name"},
	"width":   {"width", "width mm", "width (mm)", "size", "deckle"},
	"gsm":     {"gsm", "basis weight", "grammage", "g/m2"},
	"micron":  {"micron", "thickness", "mic", "thickness micron"},
	"density": {"density", "g/cm3"},
	"kind":    {"kind", "material", "material kind", "type"},
	"kg":      {"kg", "weight", "mass", "net weight", "qty kg"},
	"length":  {"length", "length m", "metres", "meters", "mtr", "running metre"},
	"master":  {"master", "roll master", "master id"},
}

// lotRoles is the positional order used when a lot file has no header.
var lotRoles = []string{"id", "batch", "item", "width", "gsm", "kg", "length"}

// ImportLots imports inventory lots from a CSV or Excel file. Each lot gets
// its three quantities filled in by the caller when it is received; here only
// the values in the file are set. Lots without an id get a generated one.
func ImportLots(path string) LotImportResult {
	rows, prefix, warnings, errMsg := readRows(path)
	if errMsg != "" {
		return LotImportResult{Errors: []string{errMsg}, Warnings: warnings}
	}
	return lotsFromRows(rows, prefix, warnings)
}

func lotsFromRows(rows [][]string, rowPrefix string, initialWarnings []string) LotImportResult {
	result := LotImportResult{Warnings: initialWarnings}

	mapping, hasHeader := DetectColumns(rows[0], lotAliases, lotRoles)
	startRow := 0
	if hasHeader {
		startRow = 1
		if missing := missingRoles(mapping, []string{"width"}); len(missing) > 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("Required columns not found in header: %s", strings.Join(missing, ", ")))
			return result
		}
		if mapping.Index("kg") == -1 && mapping.Index("length") == -1 {
			result.Errors = append(result.Errors, "Required columns not found in header: Kg or Length")
			return result
		}
	}

	seen := make(map[string]bool)
	for i := startRow; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}
		rowLabel := fmt.Sprintf("%s %d", rowPrefix, i+1)
		lot, errMsg, warning := parseLotRow(row, mapping, rowLabel)
		if errMsg != "" {
			result.Errors = append(result.Errors, errMsg)
			continue
		}
		if warning != "" {
			result.Warnings = append(result.Warnings, warning)
		}
		if seen[lot.ID] {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: Duplicate lot id '%s'", rowLabel, lot.ID))
			continue
		}
		seen[lot.ID] = true
		result.Lots = append(result.Lots, lot)
	}
	return result
}

// optionalNumber parses a cell that may be blank. Blank cells yield 0.
func optionalNumber(row []string, idx int, rowLabel, name string) (float64, string) {
	s := getCell(row, idx)
	if s == "" {
		return 0, ""
	}
	v, err := parseNumber(s)
	if err != nil {
		return 0, fmt.Sprintf("%s: Invalid %s '%s'", rowLabel, name, s)
	}
	if v < 0 {
		return 0, fmt.Sprintf("%s: %s cannot be negative", rowLabel, strings.ToUpper(name[:1])+name[1:])
	}
	return v, ""
}

func parseLotRow(row []string, mapping ColumnMapping, rowLabel string) (model.Lot, string, string) {
	lot := model.Lot{
		ID:           getCell(row, mapping.Index("id")),
		BatchNo:      getCell(row, mapping.Index("batch")),
		ItemName:     getCell(row, mapping.Index("item")),
		RollMasterID: getCell(row, mapping.Index("master")),
	}
	if lot.ID == "" {
		lot.ID = "LOT-" + strings.ToUpper(uuid.New().String()[:8])
	}
	if lot.BatchNo == "" {
		lot.BatchNo = lot.ID
	}

	fields := []struct {
		role, name string
		dst        *float64
	}{
		{"width", "width", &lot.Spec.WidthMM},
		{"gsm", "GSM", &lot.Spec.BasisWeight},
		{"micron", "thickness", &lot.Spec.ThicknessMicron},
		{"density", "density", &lot.Spec.Density},
		{"kg", "weight", &lot.RemainingQty},
		{"length", "length", &lot.LengthM},
	}
	for _, f := range fields {
		v, errMsg := optionalNumber(row, mapping.Index(f.role), rowLabel, f.name)
		if errMsg != "" {
			return model.Lot{}, errMsg, ""
		}
		*f.dst = v
	}

	if lot.Spec.WidthMM <= 0 {
		return model.Lot{}, fmt.Sprintf("%s: Missing width value", rowLabel), ""
	}
	if lot.RemainingQty <= 0 && lot.LengthM <= 0 {
		return model.Lot{}, fmt.Sprintf("%s: Weight or length is required", rowLabel), ""
	}

	var warning string
	if kindStr := getCell(row, mapping.Index("kind")); kindStr != "" {
		kind, ok := model.ParseMaterialKind(kindStr)
		if !ok {
			warning = fmt.Sprintf("%s: Unknown material '%s', defaulting to Paper", rowLabel, kindStr)
		}
		lot.Spec.Kind = kind
	} else if lot.Spec.ThicknessMicron > 0 && lot.Spec.Density > 0 {
		lot.Spec.Kind = model.MaterialFilm
	}

	if !lot.Spec.MassComputable(lot.Spec.WidthMM) && warning == "" {
		warning = fmt.Sprintf("%s: No GSM or film data, mass cannot be derived", rowLabel)
	}
	return lot, "", warning
}
