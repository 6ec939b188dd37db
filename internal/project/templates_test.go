package project

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/piwi3910/RollSlit/internal/model"
)

func TestSaveAndLoadTemplates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "templates.json")

	store := model.NewTemplateStore()
	plans := []model.CuttingPlan{model.NewCuttingPlan(300, 2), model.NewCuttingPlan(200, 3)}
	tmpl := model.NewPlanTemplate("Label stock", "Two wide, three narrow", 1200, model.MaterialSticker, plans)
	store.Add(tmpl)

	if err := SaveTemplates(path, store); err != nil {
		t.Fatalf("SaveTemplates error: %v", err)
	}

	loaded, err := LoadTemplates(path)
	if err != nil {
		t.Fatalf("LoadTemplates error: %v", err)
	}

	if len(loaded.Templates) != 1 {
		t.Fatalf("expected 1 template, got %d", len(loaded.Templates))
	}
	got := loaded.Templates[0]
	if got.Name != "Label stock" {
		t.Errorf("expected 'Label stock', got %q", got.Name)
	}
	if got.Kind != model.MaterialSticker {
		t.Errorf("expected Sticker, got %v", got.Kind)
	}
	if len(got.Plans) != 2 {
		t.Fatalf("expected 2 plans, got %d", len(got.Plans))
	}
	if got.Plans[1].TotalWidthMM != 600 {
		t.Errorf("expected plan total width 600, got %v", got.Plans[1].TotalWidthMM)
	}
}

func TestLoadTemplates_NotFound(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nonexistent.json")

	store, err := LoadTemplates(path)
	if err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}
	if len(store.Templates) != 0 {
		t.Errorf("expected empty store, got %d templates", len(store.Templates))
	}
}

func TestSaveAndLoadTemplates_Multiple(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "templates.json")

	store := model.NewTemplateStore()
	halves := []model.CuttingPlan{model.NewCuttingPlan(500, 2)}
	store.Add(model.NewPlanTemplate("T1", "First", 1000, model.MaterialPaper, halves))
	store.Add(model.NewPlanTemplate("T2", "Second", 1000, model.MaterialPaper, halves))
	store.Add(model.NewPlanTemplate("T3", "Third", 1100, model.MaterialFilm, []model.CuttingPlan{model.NewCuttingPlan(550, 2)}))

	if err := SaveTemplates(path, store); err != nil {
		t.Fatalf("SaveTemplates error: %v", err)
	}

	loaded, err := LoadTemplates(path)
	if err != nil {
		t.Fatalf("LoadTemplates error: %v", err)
	}
	if len(loaded.Templates) != 3 {
		t.Fatalf("expected 3 templates, got %d", len(loaded.Templates))
	}
	if loaded.FindByName("T3") == nil {
		t.Error("expected to find T3 after reload")
	}
}

func TestLoadTemplates_RejectsBadRows(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "zero width",
			body: `{"templates":[{"id":"a1","name":"Halves","mother_width_mm":1000,"plans":[{"child_width_mm":0,"quantity":2}]}]}`,
			want: "child width must be > 0",
		},
		{
			name: "zero quantity",
			body: `{"templates":[{"id":"a1","name":"Halves","mother_width_mm":1000,"plans":[{"child_width_mm":500,"quantity":0}]}]}`,
			want: "quantity must be at least 1",
		},
		{
			name: "wider than mother",
			body: `{"templates":[{"id":"a1","name":"Thirds","mother_width_mm":1000,"plans":[{"child_width_mm":400,"quantity":3}]}]}`,
			want: "rows use 1200mm of a 1000mm mother roll",
		},
		{
			name: "duplicate id",
			body: `{"templates":[{"id":"a1","name":"A","plans":[{"child_width_mm":500,"quantity":1}]},{"id":"a1","name":"B","plans":[{"child_width_mm":500,"quantity":1}]}]}`,
			want: "duplicate id a1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "templates.json")
			if err := os.WriteFile(path, []byte(tt.body), 0644); err != nil {
				t.Fatal(err)
			}
			_, err := LoadTemplates(path)
			if err == nil {
				t.Fatal("expected an error for an unusable template")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadTemplates_RecomputesRowTotals(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.json")
	body := `{"templates":[{"id":"a1","name":"Halves","mother_width_mm":1000,"plans":[{"child_width_mm":500,"quantity":2,"total_width_mm":7,"total_mass_kg":3}]}]}`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	store, err := LoadTemplates(path)
	if err != nil {
		t.Fatalf("LoadTemplates error: %v", err)
	}
	p := store.Templates[0].Plans[0]
	if p.TotalWidthMM != 1000 || p.TotalMassKg != 0 {
		t.Errorf("row totals = %gmm %gkg, want 1000mm 0kg", p.TotalWidthMM, p.TotalMassKg)
	}
}

func TestSaveTemplates_RejectsBadRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.json")
	store := model.NewTemplateStore()
	store.Add(model.NewPlanTemplate("Empty", "", 1000, model.MaterialPaper, nil))
	if err := SaveTemplates(path, store); err == nil {
		t.Fatal("expected an error saving a template without rows")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("file written despite invalid template: %v", err)
	}
}
