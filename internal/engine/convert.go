package engine

import (
	"fmt"

	"github.com/piwi3910/RollSlit/internal/model"
)

// massFormula converts running length to mass for one material family.
type massFormula interface {
	kgPerMetre(widthMM float64, spec model.RollSpec) float64
}

// basisWeightFormula: area (m²) × GSM / 1000.
type basisWeightFormula struct{}

func (basisWeightFormula) kgPerMetre(widthMM float64, spec model.RollSpec) float64 {
	if widthMM <= 0 || spec.BasisWeight <= 0 {
		return 0
	}
	return (widthMM / 1000) * spec.BasisWeight / 1000
}

// filmFormula: thickness (m) × width (m) × density (kg/m³).
type filmFormula struct{}

func (filmFormula) kgPerMetre(widthMM float64, spec model.RollSpec) float64 {
	if widthMM <= 0 || spec.ThicknessMicron <= 0 || spec.Density <= 0 {
		return 0
	}
	return (spec.ThicknessMicron / 1e6) * (widthMM / 1000) * (spec.Density * 1000)
}

// formulaFor picks the mass formula for a spec. Film falls back to basis
// weight when thickness or density is missing.
func formulaFor(spec model.RollSpec) massFormula {
	switch spec.Kind {
	case model.MaterialFilm:
		if spec.UsesFilmFormula() {
			return filmFormula{}
		}
		return basisWeightFormula{}
	case model.MaterialPaper, model.MaterialSticker, model.MaterialFoil, model.MaterialBoard:
		return basisWeightFormula{}
	}
	return basisWeightFormula{}
}

// MassFromLength returns the mass in kg of lengthM metres of web widthMM wide.
// It returns 0 when the spec is incomplete.
func MassFromLength(lengthM, widthMM float64, spec model.RollSpec) float64 {
	if lengthM <= 0 {
		return 0
	}
	return lengthM * formulaFor(spec).kgPerMetre(widthMM, spec)
}

// LengthFromMass is the inverse of MassFromLength. It returns 0 when the
// divisor is zero.
func LengthFromMass(massKg, widthMM float64, spec model.RollSpec) float64 {
	kpm := formulaFor(spec).kgPerMetre(widthMM, spec)
	if massKg <= 0 || kpm <= 0 {
		return 0
	}
	return massKg / kpm
}

// AreaFromLength returns the area in m² of lengthM metres of web widthMM wide.
func AreaFromLength(lengthM, widthMM float64) float64 {
	if lengthM <= 0 || widthMM <= 0 {
		return 0
	}
	return lengthM * widthMM / 1000
}

// LengthFromArea is the inverse of AreaFromLength.
func LengthFromArea(areaM2, widthMM float64) float64 {
	if areaM2 <= 0 || widthMM <= 0 {
		return 0
	}
	return areaM2 * 1000 / widthMM
}

// RollQuantity is one quantity of web expressed in all three units.
// Complete is false when the spec could not support the mass conversion, in
// which case MassKg (or the length derived from it) is a placeholder zero.
type RollQuantity struct {
	LengthM  float64 `json:"length_m"`
	AreaM2   float64 `json:"area_m2"`
	MassKg   float64 `json:"mass_kg"`
	Complete bool    `json:"complete"`
}

// ConvertRollQuantity expresses a value given in one unit in all three,
// using the spec's width. Results are rounded for storage.
func ConvertRollQuantity(value float64, unit model.Unit, spec model.RollSpec) (RollQuantity, error) {
	w := spec.WidthMM
	var length, area, mass float64
	switch unit {
	case model.UnitKg:
		mass = value
		length = LengthFromMass(value, w, spec)
		area = AreaFromLength(length, w)
	case model.UnitM:
		length = value
		area = AreaFromLength(value, w)
		mass = MassFromLength(value, w, spec)
	case model.UnitM2:
		area = value
		length = LengthFromArea(value, w)
		mass = MassFromLength(length, w, spec)
	default:
		return RollQuantity{}, fmt.Errorf("convert roll quantity: unknown unit %q", unit)
	}
	return RollQuantity{
		LengthM:  model.Round2(length),
		AreaM2:   model.Round2(area),
		MassKg:   model.Round2(mass),
		Complete: spec.MassComputable(w),
	}, nil
}
