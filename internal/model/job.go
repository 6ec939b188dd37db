package model

import (
	"fmt"
	"strings"
	"time"
)

// JobState is the ledger state of a slitting job.
type JobState string

const (
	StateDraft     JobState = "Draft"
	StateCommitted JobState = "Committed"
	StateReversed  JobState = "Reversed"
)

// Unit selects which quantity a manual entry is expressed in.
type Unit string

const (
	UnitKg Unit = "kg"
	UnitM  Unit = "m"
	UnitM2 Unit = "m2"
)

// ParseUnit accepts the common spellings of the three roll units.
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "kg", "kgs":
		return UnitKg, nil
	case "m", "mtr", "meter", "metre":
		return UnitM, nil
	case "m2", "sqm", "m²":
		return UnitM2, nil
	default:
		return "", fmt.Errorf("unknown unit %q", s)
	}
}

// ManualQuantity is a user-entered value in one unit.
type ManualQuantity struct {
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit"`
}

// JobDraft is everything a caller supplies before a job is committed.
type JobDraft struct {
	LotID           string          `json:"lot_id"`
	Store           LotStore        `json:"store"`
	ProcessLengthM  float64         `json:"process_length_m"`
	CuttingPlans    []CuttingPlan   `json:"cutting_plans"`
	Operator        string          `json:"operator"`
	Machine         string          `json:"machine"`
	StartTime       time.Time       `json:"start_time"`
	EndTime         time.Time       `json:"end_time"`
	Remarks         string          `json:"remarks,omitempty"`
	WastageOverride *ManualQuantity `json:"wastage_override,omitempty"`
}

// SlittingJob is the committed transaction record.
type SlittingJob struct {
	ID           string               `json:"id"`
	Seq          int                  `json:"seq"`
	FiscalYear   string               `json:"fiscal_year"`
	State        JobState             `json:"state"`
	InputRoll    SlittingInputRoll    `json:"input_roll"`
	CuttingPlans []CuttingPlan        `json:"cutting_plans"`
	OutputRolls  []SlittingOutputRoll `json:"output_rolls"`
	WastageKg    float64              `json:"wastage_kg"`
	WastageM     float64              `json:"wastage_m"`
	WastageM2    float64              `json:"wastage_m2"`
	ConsumedKg   float64              `json:"consumed_kg"`
	Operator     string               `json:"operator"`
	Machine      string               `json:"machine"`
	StartTime    time.Time            `json:"start_time"`
	EndTime      time.Time            `json:"end_time"`
	Remarks      string               `json:"remarks,omitempty"`

	// Pre-commit state of the input lot and whether commit removed it.
	InputLotSnapshot Lot  `json:"input_lot_snapshot"`
	InputLotDeleted  bool `json:"input_lot_deleted"`

	CreatedAt  time.Time  `json:"created_at"`
	ReversedAt *time.Time `json:"reversed_at,omitempty"`
}

// JobID formats a job sequence number and fiscal year label.
func JobID(seq int, fy string) string {
	return fmt.Sprintf("SL%05d/%s", seq, fy)
}

// OutputLotID returns the stock lot id for the seq-th output of a job.
func OutputLotID(jobID string, seq int) string {
	return fmt.Sprintf("%s-OUT-%02d", jobID, seq)
}

// OutputBatchNo derives a child roll batch number from the mother's batch.
func OutputBatchNo(motherBatch string, seq int) string {
	return fmt.Sprintf("%s-SL%02d", motherBatch, seq)
}

// FiscalYear returns the label of the fiscal year containing t, e.g. "2025-26"
// for a year starting in April. startMonth outside 1..12 is treated as January.
func FiscalYear(t time.Time, startMonth time.Month) string {
	if startMonth < time.January || startMonth > time.December {
		startMonth = time.January
	}
	y := t.Year()
	if t.Month() < startMonth {
		y--
	}
	if startMonth == time.January {
		return fmt.Sprintf("%d", y)
	}
	return fmt.Sprintf("%d-%02d", y, (y+1)%100)
}
