package engine

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/RollSlit/internal/model"
)

func exampleInput() model.SlittingInputRoll {
	return model.SlittingInputRoll{
		LotID:          "GRN-1",
		Store:          model.StoreGRN,
		ItemName:       "Maplitho 40gsm 1200mm",
		Spec:           paperSpec(1200, 40),
		BatchNo:        "B2506",
		TotalLengthM:   2000,
		ProcessLengthM: 500,
	}
}

func TestExpand_HalfWidthExample(t *testing.T) {
	input := exampleInput()
	plans := []model.CuttingPlan{model.NewCuttingPlan(600, 2)}

	res := ValidateCuttingPlans(input.Spec.WidthMM, plans)
	assert.Equal(t, "100% utilization", res.Message)

	rolls := ExpandCuttingPlansToOutputRolls(plans, input)
	require.Len(t, rolls, 2)
	for i, r := range rolls {
		assert.Equal(t, i+1, r.Seq)
		assert.Equal(t, 500.0, r.LengthM)
		assert.Equal(t, 300.0, r.AreaM2)
		assert.Equal(t, 12.0, r.MassKg)
		assert.Equal(t, 600.0, r.Spec.WidthMM)
		assert.Equal(t, 40.0, r.Spec.BasisWeight)
		assert.Equal(t, "Maplitho 40gsm 600mm", r.ItemName)
		assert.NotEmpty(t, r.ID)
	}
	assert.Equal(t, "B2506-SL01", rolls[0].BatchNo)
	assert.Equal(t, "B2506-SL02", rolls[1].BatchNo)
	assert.Equal(t, 24.0, model.TotalOutputMass(rolls))

	w := CalculateWastage(input, rolls)
	assert.Equal(t, WastageResult{}, w)
}

func TestExpand_SequenceRunsAcrossPlans(t *testing.T) {
	plans := []model.CuttingPlan{
		model.NewCuttingPlan(300, 2),
		model.NewCuttingPlan(300, 1),
		model.NewCuttingPlan(150, 2),
	}
	rolls := ExpandCuttingPlansToOutputRolls(plans, exampleInput())
	require.Len(t, rolls, model.TotalQuantity(plans))

	seen := make(map[string]bool)
	for i, r := range rolls {
		assert.Equal(t, i+1, r.Seq)
		assert.False(t, seen[r.BatchNo], "duplicate batch %s", r.BatchNo)
		seen[r.BatchNo] = true
	}
	assert.Equal(t, "B2506-SL05", rolls[4].BatchNo)
	assert.Equal(t, 150.0, rolls[4].Spec.WidthMM)
}

func TestExpand_QRPayloadIsLabelJSON(t *testing.T) {
	rolls := ExpandCuttingPlansToOutputRolls([]model.CuttingPlan{model.NewCuttingPlan(400, 1)}, exampleInput())
	require.Len(t, rolls, 1)

	var info LabelInfo
	require.NoError(t, json.Unmarshal([]byte(rolls[0].QRPayload), &info))
	assert.Equal(t, "B2506-SL01", info.BatchNo)
	assert.Equal(t, 400.0, info.WidthMM)
	assert.Equal(t, "Paper", info.Kind)
	assert.Equal(t, 8.0, info.MassKg)
}

func TestCalculateCuttingPlanTotals(t *testing.T) {
	p := CalculateCuttingPlanTotals(model.CuttingPlan{ChildWidthMM: 300, Quantity: 3}, exampleInput())

	assert.Equal(t, 900.0, p.TotalWidthMM)
	assert.Equal(t, 1500.0, p.TotalLengthM)
	// 500m x 0.3m x 40gsm = 6kg per roll
	assert.Equal(t, 18.0, p.TotalMassKg)
}

func TestCalculateWastage_Trim(t *testing.T) {
	input := exampleInput()
	rolls := ExpandCuttingPlansToOutputRolls([]model.CuttingPlan{model.NewCuttingPlan(500, 1)}, input)

	w := CalculateWastage(input, rolls)
	// 700mm of 1200mm unused over 500m: 350m², 14kg
	assert.Equal(t, 14.0, w.WastageKg)
	assert.Equal(t, 0.0, w.WastageM)
	assert.Equal(t, 350.0, w.WastageM2)
}

func TestCalculateWastage_NeverNegative(t *testing.T) {
	input := exampleInput()
	rolls := []model.SlittingOutputRoll{
		{LengthM: 500, AreaM2: 600.004, MassKg: 24.003},
	}
	w := CalculateWastage(input, rolls)
	assert.Equal(t, 0.0, w.WastageKg)
	assert.Equal(t, 0.0, w.WastageM2)

	w = CalculateWastage(input, []model.SlittingOutputRoll{{AreaM2: 9999, MassKg: 9999}})
	assert.GreaterOrEqual(t, w.WastageKg, 0.0)
	assert.GreaterOrEqual(t, w.WastageM2, 0.0)
}

func TestWastageFromManual(t *testing.T) {
	w, err := WastageFromManual(model.ManualQuantity{Value: 2.4, Unit: model.UnitKg}, paperSpec(1200, 40))
	require.NoError(t, err)
	assert.Equal(t, 2.4, w.WastageKg)
	assert.Equal(t, 50.0, w.WastageM)
	assert.Equal(t, 60.0, w.WastageM2)

	_, err = WastageFromManual(model.ManualQuantity{Value: 1, Unit: "yards"}, paperSpec(1200, 40))
	assert.Error(t, err)
}

func TestConsumedMass(t *testing.T) {
	rolls := []model.SlittingOutputRoll{{MassKg: 12}, {MassKg: 7.5}}
	assert.Equal(t, 21.5, ConsumedMass(rolls, WastageResult{WastageKg: 2}))
}
