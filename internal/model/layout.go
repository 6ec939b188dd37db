package model

// Strip is one child roll's lane across the mother web.
type Strip struct {
	Seq       int     `json:"seq"`        // 1-based, matches the output roll sequence
	PlanIndex int     `json:"plan_index"` // index of the cutting plan that produced it
	X         float64 `json:"x"`          // mm from the operator-side edge
	WidthMM   float64 `json:"width_mm"`
}

// KnifeLayout is the lane arrangement of a cutting plan set across a mother roll.
type KnifeLayout struct {
	MotherWidthMM  float64   `json:"mother_width_mm"`
	Strips         []Strip   `json:"strips"`
	KnifePositions []float64 `json:"knife_positions"` // mm from the operator-side edge
	TrimMM         float64   `json:"trim_mm"`         // unused width left at the far edge
}

// BuildKnifeLayout lays plan rows across the web in plan order. Lanes are
// packed from the operator side; whatever width remains is trim. An
// overflowing plan set still produces a layout so it can be drawn, with a
// negative trim.
func BuildKnifeLayout(motherWidthMM float64, plans []CuttingPlan) KnifeLayout {
	layout := KnifeLayout{MotherWidthMM: motherWidthMM}

	x := 0.0
	seq := 0
	for pi, p := range plans {
		for q := 0; q < p.Quantity; q++ {
			seq++
			layout.Strips = append(layout.Strips, Strip{
				Seq:       seq,
				PlanIndex: pi,
				X:         x,
				WidthMM:   p.ChildWidthMM,
			})
			x += p.ChildWidthMM
		}
	}
	layout.TrimMM = motherWidthMM - x

	// A knife sits between adjacent lanes, plus one at the trim edge when
	// there is trim to separate.
	for i := 1; i < len(layout.Strips); i++ {
		layout.KnifePositions = append(layout.KnifePositions, layout.Strips[i].X)
	}
	if layout.TrimMM > 0 && len(layout.Strips) > 0 {
		layout.KnifePositions = append(layout.KnifePositions, x)
	}
	return layout
}

// Knives returns the number of knives the layout needs.
func (l KnifeLayout) Knives() int {
	return len(l.KnifePositions)
}

// UsedWidth returns the total lane width.
func (l KnifeLayout) UsedWidth() float64 {
	return l.MotherWidthMM - l.TrimMM
}

// Utilization returns the used width as a percentage of the mother width.
func (l KnifeLayout) Utilization() float64 {
	if l.MotherWidthMM <= 0 {
		return 0
	}
	return (l.UsedWidth() / l.MotherWidthMM) * 100.0
}
