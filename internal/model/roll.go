package model

import "strings"

// MaterialKind identifies the family of web material on a roll.
type MaterialKind int

const (
	MaterialPaper MaterialKind = iota
	MaterialFilm
	MaterialSticker
	MaterialFoil
	MaterialBoard
)

func (k MaterialKind) String() string {
	switch k {
	case MaterialFilm:
		return "Film"
	case MaterialSticker:
		return "Sticker"
	case MaterialFoil:
		return "Foil"
	case MaterialBoard:
		return "Board"
	default:
		return "Paper"
	}
}

// ParseMaterialKind converts a material name to a MaterialKind.
// It returns false for names it does not recognize.
func ParseMaterialKind(s string) (MaterialKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "paper", "":
		return MaterialPaper, true
	case "film":
		return MaterialFilm, true
	case "sticker", "label":
		return MaterialSticker, true
	case "foil":
		return MaterialFoil, true
	case "board":
		return MaterialBoard, true
	default:
		return MaterialPaper, false
	}
}

// MarshalText encodes the kind by name so stored records stay readable.
func (k MaterialKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name. Unknown names decode as Paper.
func (k *MaterialKind) UnmarshalText(b []byte) error {
	*k, _ = ParseMaterialKind(string(b))
	return nil
}

// RollSpec is the physical descriptor shared by lots, input rolls, output rolls
// and catalog entries.
type RollSpec struct {
	WidthMM         float64      `json:"width_mm"`
	BasisWeight     float64      `json:"gsm"`                        // g/m²
	ThicknessMicron float64      `json:"thickness_micron,omitempty"` // film only
	Density         float64      `json:"density,omitempty"`          // g/cm³, film only
	Kind            MaterialKind `json:"material_kind"`
}

// UsesFilmFormula reports whether mass is derived from thickness and density
// instead of basis weight. Only film with both values positive qualifies.
func (s RollSpec) UsesFilmFormula() bool {
	return s.Kind == MaterialFilm && s.ThicknessMicron > 0 && s.Density > 0
}

// MassComputable reports whether the spec carries enough data to convert
// between length and mass at the given width.
func (s RollSpec) MassComputable(widthMM float64) bool {
	if widthMM <= 0 {
		return false
	}
	if s.UsesFilmFormula() {
		return true
	}
	return s.BasisWeight > 0
}

// WithWidth returns a copy of the spec with a different width.
func (s RollSpec) WithWidth(widthMM float64) RollSpec {
	s.WidthMM = widthMM
	return s
}

// SlittingInputRoll is the mother roll consumed by a job.
type SlittingInputRoll struct {
	LotID          string   `json:"lot_id"`
	Store          LotStore `json:"store"`
	ItemName       string   `json:"item_name"`
	RollMasterID   string   `json:"roll_master_id,omitempty"`
	Spec           RollSpec `json:"spec"`
	BatchNo        string   `json:"batch_no"`
	TotalLengthM   float64  `json:"total_length_m"`   // full remaining length of the lot
	ProcessLengthM float64  `json:"process_length_m"` // length run through the slitter in this job
	TotalMassKg    float64  `json:"total_mass_kg"`
}

// CuttingPlan is one row of the cut layout: quantity child rolls of one width.
type CuttingPlan struct {
	ChildWidthMM float64 `json:"child_width_mm"`
	Quantity     int     `json:"quantity"`
	TotalWidthMM float64 `json:"total_width_mm"`
	TotalLengthM float64 `json:"total_length_m"`
	TotalMassKg  float64 `json:"total_mass_kg"`
}

// NewCuttingPlan creates a plan row with its width total filled in.
func NewCuttingPlan(childWidthMM float64, qty int) CuttingPlan {
	return CuttingPlan{
		ChildWidthMM: childWidthMM,
		Quantity:     qty,
		TotalWidthMM: childWidthMM * float64(qty),
	}
}

// TotalUsedWidth sums width times quantity over all plans.
func TotalUsedWidth(plans []CuttingPlan) float64 {
	var total float64
	for _, p := range plans {
		total += p.ChildWidthMM * float64(p.Quantity)
	}
	return total
}

// TotalQuantity returns the number of child rolls all plans produce.
func TotalQuantity(plans []CuttingPlan) int {
	n := 0
	for _, p := range plans {
		n += p.Quantity
	}
	return n
}

// SlittingOutputRoll is one physical child roll.
type SlittingOutputRoll struct {
	ID           string   `json:"id"`
	Seq          int      `json:"seq"` // 1-based across the whole job
	Spec         RollSpec `json:"spec"`
	ItemName     string   `json:"item_name,omitempty"`
	BatchNo      string   `json:"batch_no"`
	LengthM      float64  `json:"length_m"`
	AreaM2       float64  `json:"area_m2"`
	MassKg       float64  `json:"mass_kg"`
	RollMasterID string   `json:"roll_master_id,omitempty"`
	LotID        string   `json:"lot_id,omitempty"`
	QRPayload    string   `json:"qr_payload,omitempty"`
}

// TotalOutputMass sums mass over output rolls.
func TotalOutputMass(rolls []SlittingOutputRoll) float64 {
	var total float64
	for _, r := range rolls {
		total += r.MassKg
	}
	return total
}

// TotalOutputArea sums area over output rolls.
func TotalOutputArea(rolls []SlittingOutputRoll) float64 {
	var total float64
	for _, r := range rolls {
		total += r.AreaM2
	}
	return total
}
