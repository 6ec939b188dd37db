package export

import (
	"fmt"

	"github.com/yofu/dxf"
	"github.com/yofu/dxf/color"
	"github.com/yofu/dxf/table"

	"github.com/piwi3910/RollSlit/internal/model"
)

// DXF layer names used by ExportKnifeLayoutDXF.
const (
	LayerWeb   = "WEB"
	LayerKnife = "KNIFE"
	LayerLane  = "LANE"
	LayerTrim  = "TRIM"
)

// dxfWebLength is the drawn length of the web in drawing units. The layout
// only varies across the width, so any length reads the same.
const dxfWebLength = 300.0

// ExportKnifeLayoutDXF writes a knife layout as a DXF drawing in millimetres.
// The web is drawn as a rectangle with X across the width, each knife as a
// line along the web, and each lane labelled with its width.
func ExportKnifeLayoutDXF(path string, layout model.KnifeLayout) error {
	if layout.MotherWidthMM <= 0 {
		return fmt.Errorf("mother width must be greater than zero")
	}
	if len(layout.Strips) == 0 {
		return fmt.Errorf("layout has no lanes")
	}

	d := dxf.NewDrawing()
	layers := []struct {
		name string
		cl   color.ColorNumber
		lt   *table.LineType
	}{
		{LayerWeb, color.White, table.LT_CONTINUOUS},
		{LayerKnife, color.Red, table.LT_DASHDOT},
		{LayerLane, color.Green, table.LT_CONTINUOUS},
		{LayerTrim, color.Yellow, table.LT_HIDDEN},
	}
	for _, l := range layers {
		if _, err := d.AddLayer(l.name, l.cl, l.lt, false); err != nil {
			return fmt.Errorf("add layer %s: %w", l.name, err)
		}
	}

	w := layout.MotherWidthMM
	if err := d.ChangeLayer(LayerWeb); err != nil {
		return err
	}
	edges := [][4]float64{
		{0, 0, w, 0},
		{w, 0, w, dxfWebLength},
		{w, dxfWebLength, 0, dxfWebLength},
		{0, dxfWebLength, 0, 0},
	}
	for _, e := range edges {
		if _, err := d.Line(e[0], e[1], 0, e[2], e[3], 0); err != nil {
			return fmt.Errorf("draw web: %w", err)
		}
	}

	if err := d.ChangeLayer(LayerKnife); err != nil {
		return err
	}
	for _, k := range layout.KnifePositions {
		if _, err := d.Line(k, 0, 0, k, dxfWebLength, 0); err != nil {
			return fmt.Errorf("draw knife at %.2f: %w", k, err)
		}
	}

	textHeight := 5.0
	if err := d.ChangeLayer(LayerLane); err != nil {
		return err
	}
	for _, s := range layout.Strips {
		text := fmt.Sprintf("%d: %s", s.Seq, formatQty(s.WidthMM))
		if _, err := d.Text(text, s.X+1, dxfWebLength/2, 0, textHeight); err != nil {
			return fmt.Errorf("label lane %d: %w", s.Seq, err)
		}
	}

	if layout.TrimMM > 0 {
		if err := d.ChangeLayer(LayerTrim); err != nil {
			return err
		}
		text := "TRIM " + formatQty(layout.TrimMM)
		if _, err := d.Text(text, layout.UsedWidth()+1, dxfWebLength/4, 0, textHeight); err != nil {
			return fmt.Errorf("label trim: %w", err)
		}
	}

	return d.SaveAs(path)
}
