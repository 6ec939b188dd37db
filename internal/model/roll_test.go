package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestRollSpec_UsesFilmFormula(t *testing.T) {
	tests := []struct {
		name string
		spec RollSpec
		want bool
	}{
		{"paper ignores thickness", RollSpec{Kind: MaterialPaper, ThicknessMicron: 12, Density: 0.9}, false},
		{"film with both", RollSpec{Kind: MaterialFilm, ThicknessMicron: 12, Density: 0.91}, true},
		{"film missing density", RollSpec{Kind: MaterialFilm, ThicknessMicron: 12}, false},
		{"film zero thickness", RollSpec{Kind: MaterialFilm, Density: 0.91}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.spec.UsesFilmFormula(); got != tt.want {
				t.Errorf("UsesFilmFormula() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRollSpec_MassComputable(t *testing.T) {
	if (RollSpec{Kind: MaterialPaper}).MassComputable(1000) {
		t.Error("paper without GSM should not be computable")
	}
	if !(RollSpec{Kind: MaterialPaper, BasisWeight: 40}).MassComputable(1000) {
		t.Error("paper with GSM should be computable")
	}
	if (RollSpec{Kind: MaterialPaper, BasisWeight: 40}).MassComputable(0) {
		t.Error("zero width should not be computable")
	}
	if !(RollSpec{Kind: MaterialFilm, ThicknessMicron: 20, Density: 0.9}).MassComputable(500) {
		t.Error("film with thickness and density should be computable")
	}
}

func TestMaterialKind_JSONByName(t *testing.T) {
	data, err := json.Marshal(RollSpec{WidthMM: 100, Kind: MaterialFilm})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back RollSpec
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Kind != MaterialFilm {
		t.Errorf("expected Film after decode, got %s", back.Kind)
	}
}

func TestLotStore_ParseRejectsUnknown(t *testing.T) {
	if _, err := ParseLotStore("warehouse"); err == nil {
		t.Error("expected error for unknown store")
	}
	s, err := ParseLotStore("STOCK")
	if err != nil || s != StoreStock {
		t.Errorf("expected StoreStock, got %v, %v", s, err)
	}
}

func TestStatusFor(t *testing.T) {
	if StatusFor(0, 100) != LotConsumed {
		t.Error("expected Consumed at zero")
	}
	if StatusFor(40, 100) != LotPartiallyIssued {
		t.Error("expected Partially Issued below received")
	}
	if StatusFor(100, 100) != LotAvailable {
		t.Error("expected Available at received")
	}
}

func TestIdentifiers(t *testing.T) {
	if got := JobID(1, "2025-26"); got != "SL00001/2025-26" {
		t.Errorf("JobID = %q", got)
	}
	if got := OutputBatchNo("B123", 3); got != "B123-SL03" {
		t.Errorf("OutputBatchNo = %q", got)
	}
	if got := OutputLotID("SL00001/2025-26", 12); got != "SL00001/2025-26-OUT-12" {
		t.Errorf("OutputLotID = %q", got)
	}
}

func TestFiscalYear(t *testing.T) {
	tests := []struct {
		date  time.Time
		start time.Month
		want  string
	}{
		{time.Date(2025, time.March, 31, 0, 0, 0, 0, time.UTC), time.April, "2024-25"},
		{time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC), time.April, "2025-26"},
		{time.Date(2099, time.December, 1, 0, 0, 0, 0, time.UTC), time.April, "2099-00"},
		{time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC), time.January, "2025"},
	}
	for _, tt := range tests {
		if got := FiscalYear(tt.date, tt.start); got != tt.want {
			t.Errorf("FiscalYear(%s, %s) = %q, want %q", tt.date.Format("2006-01-02"), tt.start, got, tt.want)
		}
	}
}

func TestParseUnit(t *testing.T) {
	for in, want := range map[string]Unit{"KG": UnitKg, "mtr": UnitM, "sqm": UnitM2} {
		got, err := ParseUnit(in)
		if err != nil || got != want {
			t.Errorf("ParseUnit(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseUnit("ft"); err == nil {
		t.Error("expected error for unknown unit")
	}
}
