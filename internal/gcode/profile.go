package gcode

import "sort"

// Profile is the program dialect of a knife positioning controller.
type Profile struct {
	Name          string
	CommentPrefix string
	CommentSuffix string
	RapidMove     string
	SelectKnife   string // format with the 1-based carriage number
	KnivesUp      string
	KnivesDown    string
	StartCode     []string
	EndCode       []string
	Decimals      int
}

var profiles = map[string]Profile{
	"Generic": {
		Name:          "Generic",
		CommentPrefix: ";",
		RapidMove:     "G0",
		SelectKnife:   "T%02d",
		KnivesUp:      "M11",
		KnivesDown:    "M10",
		StartCode:     []string{"G21", "G90"},
		EndCode:       []string{"M30"},
		Decimals:      2,
	},
	"Fanuc": {
		Name:          "Fanuc",
		CommentPrefix: "(",
		CommentSuffix: ")",
		RapidMove:     "G00",
		SelectKnife:   "T%02d",
		KnivesUp:      "M61",
		KnivesDown:    "M60",
		StartCode:     []string{"%", "O1000", "G21 G90"},
		EndCode:       []string{"M30", "%"},
		Decimals:      3,
	},
}

// GetProfile returns the named dialect, falling back to Generic.
func GetProfile(name string) Profile {
	if p, ok := profiles[name]; ok {
		return p
	}
	return profiles["Generic"]
}

// ProfileNames lists the built-in dialects.
func ProfileNames() []string {
	names := make([]string, 0, len(profiles))
	for n := range profiles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
