package project

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/piwi3910/RollSlit/internal/model"
)

// DefaultDir returns the application data directory, ~/.rollslit.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".rollslit"), nil
}

// DefaultCatalogPath returns the default file path for the catalog file.
// This is located at ~/.rollslit/catalog.json.
func DefaultCatalogPath() (string, error) {
	dir, err := DefaultDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "catalog.json"), nil
}

// SaveCatalog writes the catalog to the specified JSON file.
// It creates parent directories if they do not exist.
func SaveCatalog(path string, cat model.Catalog) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cat, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadCatalog reads the catalog from the specified JSON file.
// If the file does not exist, it returns the default catalog and saves it.
func LoadCatalog(path string) (model.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cat := model.DefaultCatalog()
			if saveErr := SaveCatalog(path, cat); saveErr != nil {
				return cat, saveErr
			}
			return cat, nil
		}
		return model.Catalog{}, err
	}
	var cat model.Catalog
	if err := json.Unmarshal(data, &cat); err != nil {
		return model.Catalog{}, err
	}
	return cat, nil
}

// LoadOrCreateCatalog loads the catalog from the default path.
// If the file does not exist, it creates one with default entries.
func LoadOrCreateCatalog() (model.Catalog, string, error) {
	path, err := DefaultCatalogPath()
	if err != nil {
		return model.DefaultCatalog(), "", err
	}
	cat, err := LoadCatalog(path)
	return cat, path, err
}

// ImportCatalog reads a catalog from a user-specified JSON file and merges
// it into existing. Entries whose ID is already present are skipped.
func ImportCatalog(path string, existing model.Catalog) (model.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return existing, err
	}
	var imported model.Catalog
	if err := json.Unmarshal(data, &imported); err != nil {
		return existing, err
	}
	return MergeCatalog(existing, imported), nil
}

// MergeCatalog appends entries of imported whose IDs are not in existing.
func MergeCatalog(existing, imported model.Catalog) model.Catalog {
	masterIDs := make(map[string]bool, len(existing.Masters))
	for _, m := range existing.Masters {
		masterIDs[m.ID] = true
	}
	machineIDs := make(map[string]bool, len(existing.Machines))
	for _, m := range existing.Machines {
		machineIDs[m.ID] = true
	}

	for _, m := range imported.Masters {
		if !masterIDs[m.ID] {
			existing.Masters = append(existing.Masters, m)
			masterIDs[m.ID] = true
		}
	}
	for _, m := range imported.Machines {
		if !machineIDs[m.ID] {
			existing.Machines = append(existing.Machines, m)
			machineIDs[m.ID] = true
		}
	}
	return existing
}
