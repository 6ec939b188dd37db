package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/piwi3910/RollSlit/internal/model"
)

func TestExportImportMachine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "machine.json")
	m := model.NewMachineProfile("Slitter SR-2000", 2000, 30, 40)

	if err := ExportMachine(path, m); err != nil {
		t.Fatalf("ExportMachine failed: %v", err)
	}
	got, err := ImportMachine(path)
	if err != nil {
		t.Fatalf("ImportMachine failed: %v", err)
	}
	if got != m {
		t.Errorf("expected %+v, got %+v", m, got)
	}
}

func TestImportMachine_AssignsID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "machine.json")
	if err := os.WriteFile(path, []byte(`{"name":"Rewinder","max_web_width_mm":1300}`), 0644); err != nil {
		t.Fatal(err)
	}
	got, err := ImportMachine(path)
	if err != nil {
		t.Fatalf("ImportMachine failed: %v", err)
	}
	if got.ID == "" {
		t.Error("expected generated ID")
	}
}

func TestImportMachine_Invalid(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"noname.json":  `{"max_web_width_mm":1300}`,
		"noweb.json":   `{"name":"X"}`,
		"minslit.json": `{"name":"X","max_web_width_mm":100,"min_slit_width_mm":200}`,
		"bad.json":     `{not json`,
	}
	for name, body := range cases {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(body), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := ImportMachine(path); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
	if _, err := ImportMachine(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestAddMachine_ReplacesByName(t *testing.T) {
	cat := model.Catalog{}
	first := model.NewMachineProfile("SR", 1300, 20, 24)
	cat = AddMachine(cat, first)

	updated := model.NewMachineProfile("SR", 1350, 20, 24)
	cat = AddMachine(cat, updated)

	if len(cat.Machines) != 1 {
		t.Fatalf("expected 1 machine, got %d", len(cat.Machines))
	}
	if cat.Machines[0].MaxWebWidthMM != 1350 {
		t.Errorf("expected updated width, got %v", cat.Machines[0].MaxWebWidthMM)
	}
	if cat.Machines[0].ID != first.ID {
		t.Error("expected original ID to be kept")
	}
}
