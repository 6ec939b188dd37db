package gcode

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/piwi3910/RollSlit/internal/model"
)

// Settings control program generation for one slitter.
type Settings struct {
	Profile string
	// Carriages is the number of knife carriages on the machine. Carriages
	// beyond the layout's knives are parked at ParkX. 0 means one per knife.
	Carriages int
	ParkX     float64
	// HolderWidthMM is the width of a knife holder; adjacent knives closer
	// than this clash.
	HolderWidthMM float64
}

// SettingsFor derives settings from a machine profile.
func SettingsFor(m model.MachineProfile, profile string) Settings {
	return Settings{
		Profile:       profile,
		Carriages:     m.MaxKnives,
		ParkX:         m.MaxWebWidthMM,
		HolderWidthMM: m.MinSlitWidthMM,
	}
}

// Generator produces knife positioning programs from knife layouts.
type Generator struct {
	Settings Settings
	profile  Profile
}

func New(settings Settings) *Generator {
	return &Generator{
		Settings: settings,
		profile:  GetProfile(settings.Profile),
	}
}

// Generate writes the program that sets every knife of layout. title names
// the job or plan set in the header.
func (g *Generator) Generate(layout model.KnifeLayout, title string) (string, error) {
	if len(layout.KnifePositions) == 0 {
		return "", fmt.Errorf("layout has no knives to position")
	}
	if g.Settings.Carriages > 0 && layout.Knives() > g.Settings.Carriages {
		return "", fmt.Errorf("layout needs %d knives but the machine has %d carriages",
			layout.Knives(), g.Settings.Carriages)
	}

	var b strings.Builder
	g.writeHeader(&b, layout, title)

	b.WriteString(g.profile.KnivesUp + "\n")
	for i, x := range layout.KnifePositions {
		b.WriteString(g.comment(fmt.Sprintf("Knife %d", i+1)))
		g.writeMove(&b, i+1, x)
	}
	for c := layout.Knives() + 1; c <= g.Settings.Carriages; c++ {
		b.WriteString(g.comment(fmt.Sprintf("Park carriage %d", c)))
		g.writeMove(&b, c, g.Settings.ParkX)
	}
	b.WriteString(g.profile.KnivesDown + "\n")

	b.WriteString("\n")
	for _, code := range g.profile.EndCode {
		b.WriteString(code + "\n")
	}
	return b.String(), nil
}

func (g *Generator) writeHeader(b *strings.Builder, layout model.KnifeLayout, title string) {
	b.WriteString(g.comment("RollSlit knife setup: " + title))
	b.WriteString(g.comment(fmt.Sprintf("Mother width: %s mm, lanes: %d, knives: %d",
		g.format(layout.MotherWidthMM), len(layout.Strips), layout.Knives())))
	b.WriteString(g.comment(fmt.Sprintf("Trim: %s mm, utilization: %.1f%%",
		g.format(layout.TrimMM), layout.Utilization())))
	b.WriteString(g.comment("Profile: " + g.profile.Name))
	b.WriteString("\n")
	for _, code := range g.profile.StartCode {
		b.WriteString(code + "\n")
	}
}

func (g *Generator) writeMove(b *strings.Builder, carriage int, x float64) {
	b.WriteString(fmt.Sprintf(g.profile.SelectKnife+"\n", carriage))
	b.WriteString(fmt.Sprintf("%s X%s\n", g.profile.RapidMove, g.format(x)))
}

func (g *Generator) comment(s string) string {
	return g.profile.CommentPrefix + " " + s + g.profile.CommentSuffix + "\n"
}

func (g *Generator) format(v float64) string {
	return strconv.FormatFloat(v, 'f', g.profile.Decimals, 64)
}
