package engine

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/piwi3910/RollSlit/internal/model"
)

var widthToken = regexp.MustCompile(`(?i)\s*\b\d+(\.\d+)?\s*mm\b`)

// DeriveItemName replaces the width token in a roll name with a new width,
// e.g. "Maplitho 70gsm 1200mm" becomes "Maplitho 70gsm 600mm".
func DeriveItemName(name string, widthMM float64) string {
	base := itemBase(name)
	w := strconv.FormatFloat(widthMM, 'f', -1, 64) + "mm"
	if base == "" {
		return w
	}
	return base + " " + w
}

// SpecMatches reports whether two specs describe the same catalog item.
// Width and material must match exactly. With legacyGSM, a whole-number
// basis weight matches any value that rounds to it, which absorbs older
// records stored without decimals.
func SpecMatches(a, b model.RollSpec, legacyGSM bool) bool {
	if a.Kind != b.Kind || a.WidthMM != b.WidthMM {
		return false
	}
	if !gsmMatches(a.BasisWeight, b.BasisWeight, legacyGSM) {
		return false
	}
	if (a.ThicknessMicron > 0) != (b.ThicknessMicron > 0) || (a.Density > 0) != (b.Density > 0) {
		return false
	}
	return a.ThicknessMicron == b.ThicknessMicron && a.Density == b.Density
}

func gsmMatches(a, b float64, legacy bool) bool {
	if a == b {
		return true
	}
	if !legacy {
		return false
	}
	whole := a == math.Trunc(a) || b == math.Trunc(b)
	return whole && math.Round(a) == math.Round(b)
}

func itemBase(name string) string {
	return strings.Join(strings.Fields(widthToken.ReplaceAllString(name, "")), " ")
}

// SameItem reports whether two roll names denote the same item. Width
// tokens, spacing and case are ignored. A name that is only a width matches
// any item.
func SameItem(a, b string) bool {
	ba, bb := itemBase(a), itemBase(b)
	return ba == "" || bb == "" || strings.EqualFold(ba, bb)
}

// FindRollMaster returns the first master for the item called name whose
// spec matches, or nil. Two items can share width and basis weight, so the
// name has to agree as well.
func FindRollMaster(masters []model.RollMaster, name string, spec model.RollSpec, legacyGSM bool) *model.RollMaster {
	for i := range masters {
		if SpecMatches(masters[i].Spec, spec, legacyGSM) && SameItem(masters[i].Name, name) {
			return &masters[i]
		}
	}
	return nil
}

// derivedName is the catalog name of a slit width cut from parent.
func derivedName(spec model.RollSpec, parent *model.RollMaster, fallbackName string) string {
	name := fallbackName
	if parent != nil && parent.Name != "" {
		name = parent.Name
	}
	return DeriveItemName(name, spec.WidthMM)
}

// NewDerivedRollMaster synthesizes a catalog entry for a slit width. Physical
// fields come from spec; the name is the parent's with its width replaced.
// fallbackName is used when there is no parent.
func NewDerivedRollMaster(spec model.RollSpec, parent *model.RollMaster, fallbackName string) model.RollMaster {
	m := model.NewRollMaster(derivedName(spec, parent, fallbackName), spec)
	if parent != nil {
		m.ParentID = parent.ID
	}
	return m
}

// FindOrCreateRollMaster returns the master for an output roll, creating it
// in ms when the catalog has no entry with a matching spec and item name.
// created reports whether a new entry was written.
func FindOrCreateRollMaster(ctx context.Context, ms MasterStore, spec model.RollSpec, parent *model.RollMaster, fallbackName string, legacyGSM bool) (m model.RollMaster, created bool, err error) {
	masters, err := ms.ListMasters(ctx)
	if err != nil {
		return model.RollMaster{}, false, fmt.Errorf("list roll masters: %w", err)
	}
	if found := FindRollMaster(masters, derivedName(spec, parent, fallbackName), spec, legacyGSM); found != nil {
		return *found, false, nil
	}
	m = NewDerivedRollMaster(spec, parent, fallbackName)
	if err := ms.CreateMaster(ctx, m); err != nil {
		return model.RollMaster{}, false, fmt.Errorf("create roll master %q: %w", m.Name, err)
	}
	return m, true, nil
}

// FindMotherLots lists lots that can feed a job for the given master: same
// material and basis weight, width equal to or narrower than the master, and
// stock remaining. Narrower lots are earlier slitting output that can be cut
// again. Results are sorted widest first.
func FindMotherLots(master model.RollMaster, lots []model.Lot, legacyGSM bool) []model.Lot {
	var out []model.Lot
	for _, l := range lots {
		if l.RemainingQty <= 0 && l.LengthM <= 0 {
			continue
		}
		if l.Spec.Kind != master.Spec.Kind || l.Spec.WidthMM <= 0 || l.Spec.WidthMM > master.Spec.WidthMM {
			continue
		}
		if !gsmMatches(l.Spec.BasisWeight, master.Spec.BasisWeight, legacyGSM) {
			continue
		}
		if master.Spec.UsesFilmFormula() &&
			(l.Spec.ThicknessMicron != master.Spec.ThicknessMicron || l.Spec.Density != master.Spec.Density) {
			continue
		}
		out = append(out, l)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Spec.WidthMM != out[j].Spec.WidthMM {
			return out[i].Spec.WidthMM > out[j].Spec.WidthMM
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
