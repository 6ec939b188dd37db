package gcode

import "github.com/piwi3910/RollSlit/internal/model"

// KnifeClash reports two adjacent knives whose holders overlap, or a knife
// outside the machine's travel.
type KnifeClash struct {
	Knife    int     `json:"knife"` // 1-based
	Next     int     `json:"next,omitempty"`
	GapMM    float64 `json:"gap_mm"`
	OutOfWeb bool    `json:"out_of_web,omitempty"`
}

// CheckKnifeClearance finds knife pairs closer than the holder width and
// knives past ParkX. Positions are assumed sorted, as BuildKnifeLayout
// produces them for non-negative widths.
func CheckKnifeClearance(layout model.KnifeLayout, settings Settings) []KnifeClash {
	var clashes []KnifeClash
	pos := layout.KnifePositions
	for i, x := range pos {
		if settings.ParkX > 0 && x > settings.ParkX {
			clashes = append(clashes, KnifeClash{Knife: i + 1, GapMM: settings.ParkX - x, OutOfWeb: true})
		}
		if i+1 < len(pos) && settings.HolderWidthMM > 0 {
			if gap := pos[i+1] - x; gap < settings.HolderWidthMM {
				clashes = append(clashes, KnifeClash{Knife: i + 1, Next: i + 2, GapMM: model.Round2(gap)})
			}
		}
	}
	return clashes
}
