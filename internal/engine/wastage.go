package engine

import (
	"math"

	"github.com/piwi3910/RollSlit/internal/model"
)

// WastageResult is the material lost to trim in one job.
type WastageResult struct {
	WastageKg float64 `json:"wastage_kg"`
	WastageM  float64 `json:"wastage_m"`
	WastageM2 float64 `json:"wastage_m2"`
}

// CalculateWastage compares the run portion of the mother roll with the
// outputs. Run length is never lost in slitting, so WastageM is always zero;
// trim shows up as mass and area. Negative results from rounding clip to zero.
func CalculateWastage(input model.SlittingInputRoll, outputs []model.SlittingOutputRoll) WastageResult {
	massUsed := MassFromLength(input.ProcessLengthM, input.Spec.WidthMM, input.Spec)
	areaUsed := AreaFromLength(input.ProcessLengthM, input.Spec.WidthMM)
	return WastageResult{
		WastageKg: model.Round2(math.Max(0, massUsed-model.TotalOutputMass(outputs))),
		WastageM:  0,
		WastageM2: model.Round2(math.Max(0, areaUsed-model.TotalOutputArea(outputs))),
	}
}

// WastageFromManual re-derives all three wastage units from one user-entered
// value against the mother roll's width.
func WastageFromManual(q model.ManualQuantity, spec model.RollSpec) (WastageResult, error) {
	rq, err := ConvertRollQuantity(math.Max(0, q.Value), q.Unit, spec)
	if err != nil {
		return WastageResult{}, err
	}
	return WastageResult{WastageKg: rq.MassKg, WastageM: rq.LengthM, WastageM2: rq.AreaM2}, nil
}

// ConsumedMass is the mass issued from the mother lot for a job.
func ConsumedMass(outputs []model.SlittingOutputRoll, w WastageResult) float64 {
	return model.Round2(model.TotalOutputMass(outputs) + w.WastageKg)
}
