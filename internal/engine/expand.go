package engine

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/piwi3910/RollSlit/internal/model"
)

// CalculateCuttingPlanTotals fills in a plan row's derived totals for the
// given mother roll. Every child in the row runs the full process length.
func CalculateCuttingPlanTotals(plan model.CuttingPlan, input model.SlittingInputRoll) model.CuttingPlan {
	qty := float64(plan.Quantity)
	plan.TotalWidthMM = model.Round2(plan.ChildWidthMM * qty)
	plan.TotalLengthM = model.Round2(input.ProcessLengthM * qty)
	plan.TotalMassKg = model.Round2(MassFromLength(input.ProcessLengthM, plan.ChildWidthMM, input.Spec) * qty)
	return plan
}

// CalculateAllPlanTotals applies CalculateCuttingPlanTotals to every row.
func CalculateAllPlanTotals(plans []model.CuttingPlan, input model.SlittingInputRoll) []model.CuttingPlan {
	out := make([]model.CuttingPlan, len(plans))
	for i, p := range plans {
		out[i] = CalculateCuttingPlanTotals(p, input)
	}
	return out
}

// ExpandCuttingPlansToOutputRolls emits one output roll per unit of quantity,
// in plan order. The sequence number runs across the whole job so batch
// numbers stay unique when several rows share a width.
func ExpandCuttingPlansToOutputRolls(plans []model.CuttingPlan, input model.SlittingInputRoll) []model.SlittingOutputRoll {
	rolls := make([]model.SlittingOutputRoll, 0, model.TotalQuantity(plans))
	seq := 0
	for _, p := range plans {
		spec := input.Spec.WithWidth(p.ChildWidthMM)
		length := input.ProcessLengthM
		area := AreaFromLength(length, p.ChildWidthMM)
		mass := MassFromLength(length, p.ChildWidthMM, input.Spec)
		for i := 0; i < p.Quantity; i++ {
			seq++
			r := model.SlittingOutputRoll{
				ID:       uuid.New().String(),
				Seq:      seq,
				Spec:     spec,
				ItemName: DeriveItemName(input.ItemName, p.ChildWidthMM),
				BatchNo:  model.OutputBatchNo(input.BatchNo, seq),
				LengthM:  model.Round2(length),
				AreaM2:   model.Round2(area),
				MassKg:   model.Round2(mass),
			}
			r.QRPayload = QRPayload(r)
			rolls = append(rolls, r)
		}
	}
	return rolls
}

// LabelInfo is the data encoded in an output roll's QR code.
type LabelInfo struct {
	BatchNo  string  `json:"batch"`
	ItemName string  `json:"item,omitempty"`
	Kind     string  `json:"kind"`
	WidthMM  float64 `json:"width_mm"`
	GSM      float64 `json:"gsm,omitempty"`
	Micron   float64 `json:"micron,omitempty"`
	LengthM  float64 `json:"length_m"`
	MassKg   float64 `json:"mass_kg"`
	LotID    string  `json:"lot,omitempty"`
}

// NewLabelInfo collects the label fields of an output roll.
func NewLabelInfo(r model.SlittingOutputRoll) LabelInfo {
	return LabelInfo{
		BatchNo:  r.BatchNo,
		ItemName: r.ItemName,
		Kind:     r.Spec.Kind.String(),
		WidthMM:  r.Spec.WidthMM,
		GSM:      r.Spec.BasisWeight,
		Micron:   r.Spec.ThicknessMicron,
		LengthM:  r.LengthM,
		MassKg:   r.MassKg,
		LotID:    r.LotID,
	}
}

// QRPayload returns the JSON text encoded in a roll's QR label.
func QRPayload(r model.SlittingOutputRoll) string {
	data, err := json.Marshal(NewLabelInfo(r))
	if err != nil {
		return r.BatchNo
	}
	return string(data)
}
