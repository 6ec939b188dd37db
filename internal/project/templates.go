package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/piwi3910/RollSlit/internal/model"
)

// DefaultTemplatePath returns ~/.rollslit/templates.json.
func DefaultTemplatePath() (string, error) {
	dir, err := DefaultDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "templates.json"), nil
}

// ValidateTemplates checks every plan row a template would put into a job.
// Each row needs a positive child width and at least one roll, and the rows
// together must fit the template's mother width when one is set. Template
// ids must be unique. All problems are reported together.
func ValidateTemplates(templates []model.PlanTemplate) error {
	var errs []error
	seen := make(map[string]bool, len(templates))
	for _, t := range templates {
		label := t.Name
		if label == "" {
			label = t.ID
		}
		switch {
		case t.ID == "":
			errs = append(errs, fmt.Errorf("template %q: missing id", label))
		case seen[t.ID]:
			errs = append(errs, fmt.Errorf("template %q: duplicate id %s", label, t.ID))
		}
		seen[t.ID] = true
		if len(t.Plans) == 0 {
			errs = append(errs, fmt.Errorf("template %q: no plan rows", label))
		}
		for i, p := range t.Plans {
			if p.ChildWidthMM <= 0 {
				errs = append(errs, fmt.Errorf("template %q row %d: child width must be > 0, got %g", label, i+1, p.ChildWidthMM))
			}
			if p.Quantity < 1 {
				errs = append(errs, fmt.Errorf("template %q row %d: quantity must be at least 1, got %d", label, i+1, p.Quantity))
			}
		}
		if used := model.TotalUsedWidth(t.Plans); t.MotherWidthMM > 0 && used > t.MotherWidthMM {
			errs = append(errs, fmt.Errorf("template %q: rows use %gmm of a %gmm mother roll", label, used, t.MotherWidthMM))
		}
	}
	return errors.Join(errs...)
}

// SaveTemplates validates the store and writes it to a JSON file.
func SaveTemplates(path string, store model.TemplateStore) error {
	if err := ValidateTemplates(store.Templates); err != nil {
		return fmt.Errorf("save templates: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(store, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadTemplates reads a template store from a JSON file. A missing file is
// an empty store. Row totals are recomputed from width and quantity, and a
// file with an unusable row is rejected rather than handed to a job.
func LoadTemplates(path string) (model.TemplateStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.NewTemplateStore(), nil
		}
		return model.TemplateStore{}, err
	}
	var store model.TemplateStore
	if err := json.Unmarshal(data, &store); err != nil {
		return model.TemplateStore{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if store.Templates == nil {
		store.Templates = []model.PlanTemplate{}
	}
	for i := range store.Templates {
		for j, p := range store.Templates[i].Plans {
			store.Templates[i].Plans[j] = model.NewCuttingPlan(p.ChildWidthMM, p.Quantity)
		}
	}
	if err := ValidateTemplates(store.Templates); err != nil {
		return model.TemplateStore{}, fmt.Errorf("load %s: %w", path, err)
	}
	return store, nil
}

// LoadDefaultTemplates loads templates from the default path.
func LoadDefaultTemplates() (model.TemplateStore, error) {
	path, err := DefaultTemplatePath()
	if err != nil {
		return model.NewTemplateStore(), err
	}
	return LoadTemplates(path)
}

// SaveDefaultTemplates saves templates to the default path.
func SaveDefaultTemplates(store model.TemplateStore) error {
	path, err := DefaultTemplatePath()
	if err != nil {
		return err
	}
	return SaveTemplates(path, store)
}
