package engine

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/piwi3910/RollSlit/internal/model"
)

func TestValidateCuttingPlans_FullUtilization(t *testing.T) {
	res := ValidateCuttingPlans(1200, []model.CuttingPlan{model.NewCuttingPlan(600, 2)})

	assert.True(t, res.Valid)
	assert.Equal(t, 1200.0, res.TotalUsedWidthMM)
	assert.Equal(t, "100% utilization", res.Message)
	assert.Empty(t, res.WarningMessage)
}

func TestValidateCuttingPlans_LargeUnusedWarns(t *testing.T) {
	res := ValidateCuttingPlans(1200, []model.CuttingPlan{model.NewCuttingPlan(500, 1)})

	assert.True(t, res.Valid)
	assert.Equal(t, 500.0, res.TotalUsedWidthMM)
	assert.Equal(t, 700.0, res.UnusedWidthMM)
	assert.Contains(t, res.WarningMessage, "700mm")
	assert.Contains(t, res.WarningMessage, "58.3%")
}

func TestValidateCuttingPlans_SmallUnusedSilent(t *testing.T) {
	// 100 of 1200 unused is 8.3%
	res := ValidateCuttingPlans(1200, []model.CuttingPlan{
		model.NewCuttingPlan(500, 1),
		model.NewCuttingPlan(300, 2),
	})

	assert.True(t, res.Valid)
	assert.Empty(t, res.Message)
	assert.Empty(t, res.WarningMessage)
}

func TestValidateCuttingPlans_Overflow(t *testing.T) {
	res := ValidateCuttingPlans(1000, []model.CuttingPlan{
		model.NewCuttingPlan(400, 2),
		model.NewCuttingPlan(250, 1),
	})

	assert.False(t, res.Valid)
	assert.Equal(t, 1050.0, res.TotalUsedWidthMM)
	assert.Contains(t, res.Message, "by 50mm")
}

func TestValidateCuttingPlans_FloatSumsTreatedAsExact(t *testing.T) {
	// 0.1 * 3 style noise must not flip an exact fit into an overflow
	res := ValidateCuttingPlans(30.3, []model.CuttingPlan{
		model.NewCuttingPlan(10.1, 3),
	})
	assert.True(t, res.Valid)
	assert.Equal(t, "100% utilization", res.Message)
}

func TestValidateCuttingPlans_CustomThreshold(t *testing.T) {
	plans := []model.CuttingPlan{model.NewCuttingPlan(900, 1)}

	assert.Empty(t, ValidateCuttingPlansWithThreshold(1000, plans, 10).WarningMessage)
	assert.NotEmpty(t, ValidateCuttingPlansWithThreshold(1000, plans, 5).WarningMessage)
}

func TestValidateCuttingPlans_WidthBudgetProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		mother := float64(100 + rng.Intn(1900))
		var plans []model.CuttingPlan
		var sum float64
		for j := 0; j < 1+rng.Intn(4); j++ {
			w := float64(10 + rng.Intn(600))
			q := 1 + rng.Intn(4)
			plans = append(plans, model.NewCuttingPlan(w, q))
			sum += w * float64(q)
		}
		res := ValidateCuttingPlans(mother, plans)
		assert.Equal(t, sum <= mother, res.Valid, "mother=%v used=%v", mother, sum)
	}
}

func TestValidatePlanRows(t *testing.T) {
	assert.Empty(t, ValidatePlanRows([]model.CuttingPlan{model.NewCuttingPlan(100, 1)}))
	assert.Len(t, ValidatePlanRows(nil), 1)

	msgs := ValidatePlanRows([]model.CuttingPlan{
		{ChildWidthMM: 0, Quantity: 1},
		{ChildWidthMM: 100, Quantity: 0},
	})
	assert.Len(t, msgs, 2)
	assert.Contains(t, msgs[0], "Cutting plan 1")
	assert.Contains(t, msgs[1], "Cutting plan 2")
}

func TestValidateMachine(t *testing.T) {
	m := model.MachineProfile{Name: "SR", MaxWebWidthMM: 1300, MinSlitWidthMM: 20, MaxKnives: 3}

	assert.Empty(t, ValidateMachine(m, 1200, []model.CuttingPlan{model.NewCuttingPlan(600, 2)}))

	msgs := ValidateMachine(m, 1400, []model.CuttingPlan{model.NewCuttingPlan(10, 1)})
	assert.Len(t, msgs, 2)

	// 4 lanes with trailing trim need 4 knives
	msgs = ValidateMachine(m, 1000, []model.CuttingPlan{model.NewCuttingPlan(200, 4)})
	assert.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "knives")
}

func TestValidateDraft_RequiredFields(t *testing.T) {
	input := model.SlittingInputRoll{Spec: paperSpec(1200, 40), TotalLengthM: 1000, ProcessLengthM: 1500}
	msgs := validateDraft(model.JobDraft{CuttingPlans: []model.CuttingPlan{model.NewCuttingPlan(600, 3)}}, input, 10)

	assert.Contains(t, msgs, "Operator is required")
	assert.Contains(t, msgs, "Machine is required")
	assert.Contains(t, msgs, "Start time is required")
	assert.Contains(t, msgs, "End time is required")
	assert.Len(t, msgs, 6, "%v", msgs)
}

func TestValidateDraft_EndBeforeStart(t *testing.T) {
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	d := model.JobDraft{
		Operator:     "op",
		Machine:      "m",
		StartTime:    start,
		EndTime:      start.Add(-time.Minute),
		CuttingPlans: []model.CuttingPlan{model.NewCuttingPlan(600, 2)},
	}
	input := model.SlittingInputRoll{Spec: paperSpec(1200, 40), TotalLengthM: 1000, ProcessLengthM: 500}
	assert.Equal(t, []string{"End time must not be before start time"}, validateDraft(d, input, 10))
}
