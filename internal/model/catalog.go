package model

import (
	"strings"

	"github.com/google/uuid"
)

// RollMaster is a catalog entry describing a reusable roll specification.
type RollMaster struct {
	ID       string   `json:"id"`
	Code     string   `json:"code"`
	Name     string   `json:"name"`
	Spec     RollSpec `json:"spec"`
	ParentID string   `json:"parent_id,omitempty"` // set when created by slitting
}

// NewRollMaster creates a RollMaster with a generated ID and code.
func NewRollMaster(name string, spec RollSpec) RollMaster {
	id := uuid.New().String()
	return RollMaster{
		ID:   id[:8],
		Code: "RM-" + strings.ToUpper(id[9:13]+id[14:18]),
		Name: name,
		Spec: spec,
	}
}

// MachineProfile describes the physical limits of a slitter-rewinder.
type MachineProfile struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	MaxWebWidthMM  float64 `json:"max_web_width_mm"`  // widest mother roll the machine accepts
	MinSlitWidthMM float64 `json:"min_slit_width_mm"` // narrowest child the knives can produce
	MaxKnives      int     `json:"max_knives"`        // 0 = unlimited
}

// NewMachineProfile creates a MachineProfile with a generated ID.
func NewMachineProfile(name string, maxWeb, minSlit float64, maxKnives int) MachineProfile {
	return MachineProfile{
		ID:             uuid.New().String()[:8],
		Name:           name,
		MaxWebWidthMM:  maxWeb,
		MinSlitWidthMM: minSlit,
		MaxKnives:      maxKnives,
	}
}

// Catalog holds the roll masters and slitter profiles known to the plant.
type Catalog struct {
	Masters  []RollMaster     `json:"masters"`
	Machines []MachineProfile `json:"machines"`
}

// DefaultCatalog returns a catalog populated with common defaults.
func DefaultCatalog() Catalog {
	return Catalog{
		Masters: []RollMaster{
			NewRollMaster("Maplitho 1200mm", RollSpec{WidthMM: 1200, BasisWeight: 70, Kind: MaterialPaper}),
			NewRollMaster("Kraft 1000mm", RollSpec{WidthMM: 1000, BasisWeight: 120, Kind: MaterialPaper}),
			NewRollMaster("BOPP 12mic 1100mm", RollSpec{WidthMM: 1100, ThicknessMicron: 12, Density: 0.91, Kind: MaterialFilm}),
			NewRollMaster("PET 12mic 1050mm", RollSpec{WidthMM: 1050, ThicknessMicron: 12, Density: 1.4, Kind: MaterialFilm}),
			NewRollMaster("Chromo Sticker 1020mm", RollSpec{WidthMM: 1020, BasisWeight: 150, Kind: MaterialSticker}),
		},
		Machines: []MachineProfile{
			NewMachineProfile("Slitter SR-1300", 1300, 20, 24),
			NewMachineProfile("Slitter SR-1600", 1600, 25, 32),
		},
	}
}

// FindMasterByID returns a pointer to the roll master with the given ID, or nil.
func (c *Catalog) FindMasterByID(id string) *RollMaster {
	for i := range c.Masters {
		if c.Masters[i].ID == id {
			return &c.Masters[i]
		}
	}
	return nil
}

// FindMachineByID returns a pointer to the machine with the given ID, or nil.
func (c *Catalog) FindMachineByID(id string) *MachineProfile {
	for i := range c.Machines {
		if c.Machines[i].ID == id {
			return &c.Machines[i]
		}
	}
	return nil
}

// FindMachineByName returns a pointer to the first machine with the given name, or nil.
func (c *Catalog) FindMachineByName(name string) *MachineProfile {
	for i := range c.Machines {
		if c.Machines[i].Name == name {
			return &c.Machines[i]
		}
	}
	return nil
}

// MasterNames returns the roll master names in catalog order.
func (c *Catalog) MasterNames() []string {
	names := make([]string, len(c.Masters))
	for i, m := range c.Masters {
		names[i] = m.Name
	}
	return names
}

// MachineNames returns the machine names in catalog order.
func (c *Catalog) MachineNames() []string {
	names := make([]string, len(c.Machines))
	for i, m := range c.Machines {
		names[i] = m.Name
	}
	return names
}
