package gcode

import (
	"strings"
	"testing"

	"github.com/piwi3910/RollSlit/internal/model"
)

// newTestLayout is a 1200 mm web cut into 500 + 300 + 300 with 100 mm trim.
func newTestLayout() model.KnifeLayout {
	return model.BuildKnifeLayout(1200, []model.CuttingPlan{
		model.NewCuttingPlan(500, 1),
		model.NewCuttingPlan(300, 2),
	})
}

func TestGenerate_ContainsHeaderAndMoves(t *testing.T) {
	g := New(Settings{Profile: "Generic"})
	code, err := g.Generate(newTestLayout(), "SL00001/2025-26")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{
		"; RollSlit knife setup: SL00001/2025-26",
		"; Mother width: 1200.00 mm, lanes: 3, knives: 3",
		"G21\nG90\n",
		"M11\n",
		"T01\nG0 X500.00\n",
		"T02\nG0 X800.00\n",
		"T03\nG0 X1100.00\n",
		"M10\n",
		"M30\n",
	} {
		if !strings.Contains(code, want) {
			t.Errorf("expected program to contain %q\n%s", want, code)
		}
	}
	if strings.Index(code, "M11") > strings.Index(code, "T01") {
		t.Error("knives must be raised before the first move")
	}
	if strings.Index(code, "M10") < strings.Index(code, "T03") {
		t.Error("knives must be lowered after the last move")
	}
}

func TestGenerate_FanucDialect(t *testing.T) {
	g := New(Settings{Profile: "Fanuc"})
	code, err := g.Generate(newTestLayout(), "plan")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(code, "( RollSlit knife setup: plan)") {
		t.Errorf("expected parenthetical header, got %q", strings.SplitN(code, "\n", 2)[0])
	}
	if !strings.Contains(code, "G00 X500.000") {
		t.Error("expected G00 moves with three decimals")
	}
	if !strings.HasSuffix(code, "M30\n%\n") {
		t.Error("expected program end marker")
	}
}

func TestGenerate_UnknownProfileFallsBack(t *testing.T) {
	if p := GetProfile("nope"); p.Name != "Generic" {
		t.Errorf("expected Generic fallback, got %s", p.Name)
	}
	if names := ProfileNames(); len(names) != 2 || names[0] != "Fanuc" {
		t.Errorf("unexpected profile names %v", names)
	}
}

func TestGenerate_ParksSpareCarriages(t *testing.T) {
	g := New(Settings{Profile: "Generic", Carriages: 5, ParkX: 1300})
	code, err := g.Generate(newTestLayout(), "plan")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(code, "; Park carriage 4\nT04\nG0 X1300.00\n") {
		t.Errorf("expected carriage 4 parked\n%s", code)
	}
	if !strings.Contains(code, "T05\nG0 X1300.00\n") {
		t.Error("expected carriage 5 parked")
	}
}

func TestGenerate_TooFewCarriages(t *testing.T) {
	g := New(Settings{Carriages: 2})
	if _, err := g.Generate(newTestLayout(), "plan"); err == nil {
		t.Error("expected error when the layout needs more knives than carriages")
	}
}

func TestGenerate_NoKnives(t *testing.T) {
	g := New(Settings{})
	if _, err := g.Generate(model.KnifeLayout{MotherWidthMM: 1000}, "empty"); err == nil {
		t.Error("expected error for a layout without knives")
	}
}

func TestSettingsFor(t *testing.T) {
	m := model.MachineProfile{Name: "SR-1300", MaxWebWidthMM: 1300, MinSlitWidthMM: 20, MaxKnives: 24}
	s := SettingsFor(m, "Fanuc")
	if s.Carriages != 24 || s.ParkX != 1300 || s.HolderWidthMM != 20 || s.Profile != "Fanuc" {
		t.Errorf("unexpected settings %+v", s)
	}
}

// ─── Clearance Tests ────────────────────────────────────────

func TestCheckKnifeClearance_Clear(t *testing.T) {
	s := Settings{HolderWidthMM: 20, ParkX: 1300}
	if clashes := CheckKnifeClearance(newTestLayout(), s); len(clashes) != 0 {
		t.Errorf("expected no clashes, got %+v", clashes)
	}
}

func TestCheckKnifeClearance_NarrowLane(t *testing.T) {
	layout := model.BuildKnifeLayout(1000, []model.CuttingPlan{
		model.NewCuttingPlan(500, 1),
		model.NewCuttingPlan(15, 1),
		model.NewCuttingPlan(400, 1),
	})
	clashes := CheckKnifeClearance(layout, Settings{HolderWidthMM: 20})
	if len(clashes) != 1 {
		t.Fatalf("expected 1 clash, got %+v", clashes)
	}
	c := clashes[0]
	if c.Knife != 1 || c.Next != 2 || c.GapMM != 15 {
		t.Errorf("unexpected clash %+v", c)
	}
}

func TestCheckKnifeClearance_OutOfWeb(t *testing.T) {
	clashes := CheckKnifeClearance(newTestLayout(), Settings{ParkX: 1000})
	if len(clashes) != 1 || !clashes[0].OutOfWeb || clashes[0].Knife != 3 {
		t.Errorf("expected knife 3 out of web, got %+v", clashes)
	}
}
