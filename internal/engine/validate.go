package engine

import (
	"fmt"
	"strconv"

	"github.com/piwi3910/RollSlit/internal/model"
)

// DefaultWarnUnusedPercent is the unused-width share above which a valid
// plan set carries a warning.
const DefaultWarnUnusedPercent = 10.0

// widthEpsilon absorbs float noise when comparing summed widths.
const widthEpsilon = 1e-6

// ValidationResult is the diagnostic for a cutting plan set against a mother
// roll's width budget.
type ValidationResult struct {
	Valid            bool    `json:"valid"`
	TotalUsedWidthMM float64 `json:"total_used_width_mm"`
	UnusedWidthMM    float64 `json:"unused_width_mm"`
	UnusedPercent    float64 `json:"unused_percent"`
	Message          string  `json:"message,omitempty"`
	WarningMessage   string  `json:"warning_message,omitempty"`
}

// ValidateCuttingPlans checks plan rows against the mother width. Only width
// overflow is invalid; under-utilization is allowed and above
// DefaultWarnUnusedPercent carries a warning.
func ValidateCuttingPlans(motherWidthMM float64, plans []model.CuttingPlan) ValidationResult {
	return ValidateCuttingPlansWithThreshold(motherWidthMM, plans, DefaultWarnUnusedPercent)
}

// ValidateCuttingPlansWithThreshold is ValidateCuttingPlans with a custom
// warning threshold in percent.
func ValidateCuttingPlansWithThreshold(motherWidthMM float64, plans []model.CuttingPlan, warnPercent float64) ValidationResult {
	used := model.TotalUsedWidth(plans)
	res := ValidationResult{TotalUsedWidthMM: used}

	if motherWidthMM <= 0 {
		res.Message = "Mother roll width must be greater than zero"
		return res
	}

	unused := motherWidthMM - used
	res.UnusedWidthMM = unused
	res.UnusedPercent = unused / motherWidthMM * 100

	switch {
	case unused < -widthEpsilon:
		res.Message = fmt.Sprintf("Total width %smm exceeds mother roll width %smm by %smm",
			formatMM(used), formatMM(motherWidthMM), formatMM(-unused))
	case unused <= widthEpsilon:
		res.Valid = true
		res.UnusedWidthMM = 0
		res.UnusedPercent = 0
		res.Message = "100% utilization"
	case res.UnusedPercent > warnPercent:
		res.Valid = true
		res.WarningMessage = fmt.Sprintf("Unused width: %smm (%.1f%%)", formatMM(unused), res.UnusedPercent)
	default:
		res.Valid = true
	}
	return res
}

// ValidatePlanRows checks each row for a positive width and quantity.
func ValidatePlanRows(plans []model.CuttingPlan) []string {
	if len(plans) == 0 {
		return []string{"At least one cutting plan is required"}
	}
	var msgs []string
	for i, p := range plans {
		if p.ChildWidthMM <= 0 {
			msgs = append(msgs, fmt.Sprintf("Cutting plan %d: child width must be greater than zero", i+1))
		}
		if p.Quantity < 1 {
			msgs = append(msgs, fmt.Sprintf("Cutting plan %d: quantity must be at least 1", i+1))
		}
	}
	return msgs
}

// ValidateMachine checks a plan set against a slitter's physical limits.
func ValidateMachine(m model.MachineProfile, motherWidthMM float64, plans []model.CuttingPlan) []string {
	var msgs []string
	if m.MaxWebWidthMM > 0 && motherWidthMM > m.MaxWebWidthMM+widthEpsilon {
		msgs = append(msgs, fmt.Sprintf("Mother roll width %smm exceeds %s maximum web width %smm",
			formatMM(motherWidthMM), m.Name, formatMM(m.MaxWebWidthMM)))
	}
	for i, p := range plans {
		if m.MinSlitWidthMM > 0 && p.ChildWidthMM > 0 && p.ChildWidthMM < m.MinSlitWidthMM-widthEpsilon {
			msgs = append(msgs, fmt.Sprintf("Cutting plan %d: child width %smm is below %s minimum slit width %smm",
				i+1, formatMM(p.ChildWidthMM), m.Name, formatMM(m.MinSlitWidthMM)))
		}
	}
	if m.MaxKnives > 0 {
		if knives := model.BuildKnifeLayout(motherWidthMM, plans).Knives(); knives > m.MaxKnives {
			msgs = append(msgs, fmt.Sprintf("Layout needs %d knives but %s has %d", knives, m.Name, m.MaxKnives))
		}
	}
	return msgs
}

// validateDraft collects every commit-time problem with a draft against the
// mother roll it will consume.
func validateDraft(d model.JobDraft, input model.SlittingInputRoll, warnPercent float64) []string {
	var msgs []string
	if d.Operator == "" {
		msgs = append(msgs, "Operator is required")
	}
	if d.Machine == "" {
		msgs = append(msgs, "Machine is required")
	}
	if d.StartTime.IsZero() {
		msgs = append(msgs, "Start time is required")
	}
	if d.EndTime.IsZero() {
		msgs = append(msgs, "End time is required")
	}
	if !d.StartTime.IsZero() && !d.EndTime.IsZero() && d.EndTime.Before(d.StartTime) {
		msgs = append(msgs, "End time must not be before start time")
	}
	if input.ProcessLengthM <= 0 {
		msgs = append(msgs, "Process length must be greater than zero")
	} else if input.ProcessLengthM > input.TotalLengthM+widthEpsilon {
		msgs = append(msgs, fmt.Sprintf("Process length %sm exceeds remaining roll length %sm",
			formatMM(input.ProcessLengthM), formatMM(input.TotalLengthM)))
	}

	rowMsgs := ValidatePlanRows(d.CuttingPlans)
	msgs = append(msgs, rowMsgs...)
	if len(rowMsgs) == 0 {
		if res := ValidateCuttingPlansWithThreshold(input.Spec.WidthMM, d.CuttingPlans, warnPercent); !res.Valid {
			msgs = append(msgs, res.Message)
		}
	}
	return msgs
}

// formatMM prints a quantity without trailing zeros.
func formatMM(v float64) string {
	return strconv.FormatFloat(model.Round2(v), 'f', -1, 64)
}
