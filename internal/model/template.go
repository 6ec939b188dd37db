package model

import (
	"time"

	"github.com/google/uuid"
)

// PlanTemplate is a saved slitting layout that can be reapplied to any
// mother roll of the same width.
type PlanTemplate struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Description   string        `json:"description"`
	MotherWidthMM float64       `json:"mother_width_mm"`
	Kind          MaterialKind  `json:"material_kind"`
	CreatedAt     string        `json:"created_at"`
	UpdatedAt     string        `json:"updated_at"`
	Plans         []CuttingPlan `json:"plans"`
}

// NewPlanTemplate creates a template from the given plan rows. Only width
// and quantity are kept; length and mass totals belong to a specific job.
func NewPlanTemplate(name, description string, motherWidthMM float64, kind MaterialKind, plans []CuttingPlan) PlanTemplate {
	now := time.Now().UTC().Format(time.RFC3339)
	return PlanTemplate{
		ID:            uuid.New().String()[:8],
		Name:          name,
		Description:   description,
		MotherWidthMM: motherWidthMM,
		Kind:          kind,
		CreatedAt:     now,
		UpdatedAt:     now,
		Plans:         copyPlans(plans),
	}
}

// ToPlans returns fresh plan rows for a new job.
func (t PlanTemplate) ToPlans() []CuttingPlan {
	return copyPlans(t.Plans)
}

// Fits reports whether the template can be applied to a mother roll.
func (t PlanTemplate) Fits(spec RollSpec) bool {
	return spec.Kind == t.Kind && TotalUsedWidth(t.Plans) <= spec.WidthMM
}

// TemplateStore holds a collection of plan templates.
type TemplateStore struct {
	Templates []PlanTemplate `json:"templates"`
}

// NewTemplateStore creates an empty template store.
func NewTemplateStore() TemplateStore {
	return TemplateStore{
		Templates: []PlanTemplate{},
	}
}

// Add adds a template to the store.
func (ts *TemplateStore) Add(t PlanTemplate) {
	ts.Templates = append(ts.Templates, t)
}

// Remove removes a template by ID. Returns true if found and removed.
func (ts *TemplateStore) Remove(id string) bool {
	for i, t := range ts.Templates {
		if t.ID == id {
			ts.Templates = append(ts.Templates[:i], ts.Templates[i+1:]...)
			return true
		}
	}
	return false
}

// FindByID returns a pointer to the template with the given ID, or nil.
func (ts *TemplateStore) FindByID(id string) *PlanTemplate {
	for i := range ts.Templates {
		if ts.Templates[i].ID == id {
			return &ts.Templates[i]
		}
	}
	return nil
}

// FindByName returns a pointer to the first template with the given name, or nil.
func (ts *TemplateStore) FindByName(name string) *PlanTemplate {
	for i := range ts.Templates {
		if ts.Templates[i].Name == name {
			return &ts.Templates[i]
		}
	}
	return nil
}

// Matching returns the templates that fit the given mother roll spec.
func (ts *TemplateStore) Matching(spec RollSpec) []PlanTemplate {
	var out []PlanTemplate
	for _, t := range ts.Templates {
		if t.Fits(spec) {
			out = append(out, t)
		}
	}
	return out
}

// copyPlans copies width and quantity of each plan row.
func copyPlans(plans []CuttingPlan) []CuttingPlan {
	if plans == nil {
		return []CuttingPlan{}
	}
	cp := make([]CuttingPlan, len(plans))
	for i, p := range plans {
		cp[i] = NewCuttingPlan(p.ChildWidthMM, p.Quantity)
	}
	return cp
}
