package project

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/piwi3910/RollSlit/internal/model"
)

// ExportMachine writes a single slitter profile to a JSON file for sharing
// between plants.
func ExportMachine(path string, m model.MachineProfile) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ImportMachine reads a single slitter profile from a JSON file. A profile
// without an ID gets a fresh one.
func ImportMachine(path string) (model.MachineProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.MachineProfile{}, err
	}

	var m model.MachineProfile
	if err := json.Unmarshal(data, &m); err != nil {
		return model.MachineProfile{}, err
	}
	if err := ValidateMachine(m); err != nil {
		return model.MachineProfile{}, err
	}
	if m.ID == "" {
		m.ID = uuid.New().String()[:8]
	}
	return m, nil
}

// ValidateMachine checks that a profile describes a usable slitter.
func ValidateMachine(m model.MachineProfile) error {
	switch {
	case m.Name == "":
		return errors.New("machine profile has no name")
	case m.MaxWebWidthMM <= 0:
		return errors.New("machine profile needs a positive maximum web width")
	case m.MinSlitWidthMM < 0:
		return errors.New("machine profile minimum slit width cannot be negative")
	case m.MinSlitWidthMM > m.MaxWebWidthMM:
		return errors.New("machine profile minimum slit width exceeds its web width")
	case m.MaxKnives < 0:
		return errors.New("machine profile knife count cannot be negative")
	}
	return nil
}

// AddMachine adds or replaces a profile in the catalog by name.
func AddMachine(cat model.Catalog, m model.MachineProfile) model.Catalog {
	if existing := cat.FindMachineByName(m.Name); existing != nil {
		m.ID = existing.ID
		*existing = m
		return cat
	}
	cat.Machines = append(cat.Machines, m)
	return cat
}
