package model

import (
	"strings"
	"testing"
)

func TestNewRollMaster(t *testing.T) {
	m := NewRollMaster("Kraft 600mm", RollSpec{WidthMM: 600, BasisWeight: 120})
	if len(m.ID) != 8 {
		t.Errorf("expected 8-char ID, got %q", m.ID)
	}
	if !strings.HasPrefix(m.Code, "RM-") || len(m.Code) != 11 {
		t.Errorf("unexpected code %q", m.Code)
	}
}

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()
	if len(c.Masters) == 0 || len(c.Machines) == 0 {
		t.Fatal("expected default masters and machines")
	}
	seen := map[string]bool{}
	for _, m := range c.Masters {
		if seen[m.ID] {
			t.Errorf("duplicate master ID %q", m.ID)
		}
		seen[m.ID] = true
	}
}

func TestCatalog_Find(t *testing.T) {
	c := DefaultCatalog()
	first := c.Masters[0]
	if got := c.FindMasterByID(first.ID); got == nil || got.Name != first.Name {
		t.Errorf("FindMasterByID did not return %q", first.Name)
	}
	if c.FindMasterByID("missing") != nil {
		t.Error("expected nil for missing master")
	}
	if got := c.FindMachineByName("Slitter SR-1300"); got == nil || got.MaxWebWidthMM != 1300 {
		t.Error("expected to find SR-1300")
	}
	if c.FindMachineByID(c.Machines[1].ID) == nil {
		t.Error("expected to find machine by ID")
	}
	if len(c.MasterNames()) != len(c.Masters) || len(c.MachineNames()) != len(c.Machines) {
		t.Error("names length mismatch")
	}
}
