package export

import (
	"fmt"
	"math"
	"strconv"

	"github.com/go-pdf/fpdf"

	"github.com/piwi3910/RollSlit/internal/model"
)

// laneColor represents an RGB color for a slit lane.
type laneColor struct {
	R, G, B int
}

// laneColors cycles per cutting plan row so lanes of one width share a color.
var laneColors = []laneColor{
	{R: 76, G: 175, B: 80},  // green
	{R: 33, G: 150, B: 243}, // blue
	{R: 255, G: 152, B: 0},  // orange
	{R: 156, G: 39, B: 176}, // purple
	{R: 0, G: 188, B: 212},  // cyan
	{R: 244, G: 67, B: 54},  // red
	{R: 255, G: 235, B: 59}, // yellow
	{R: 121, G: 85, B: 72},  // brown
}

// Page layout constants (A4 landscape in mm).
const (
	pageWidth    = 297.0
	pageHeight   = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 15.0
	headerHeight = 12.0
	webHeight    = 30.0
	rowHeight    = 6.0
)

// ExportJobSheet generates the shop-floor sheet for a slitting job: a header
// with the job facts, the knife layout across the mother web, the cutting
// plan table and the list of output rolls.
func ExportJobSheet(path string, job model.SlittingJob) error {
	if len(job.CuttingPlans) == 0 {
		return fmt.Errorf("job %s has no cutting plans", job.ID)
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, marginBottom)
	pdf.AddPage()

	y := renderJobHeader(pdf, job)
	layout := model.BuildKnifeLayout(job.InputRoll.Spec.WidthMM, job.CuttingPlans)
	y = renderKnifeLayout(pdf, layout, y+4)
	y = renderPlanTable(pdf, job.CuttingPlans, y+6)
	renderOutputTable(pdf, job, y+6)

	return pdf.OutputFileAndClose(path)
}

// renderJobHeader draws the title and job facts and returns the next free y.
func renderJobHeader(pdf *fpdf.Fpdf, job model.SlittingJob) float64 {
	contentW := pageWidth - marginLeft - marginRight

	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(marginLeft, marginTop)
	title := fmt.Sprintf("Slitting Job %s (%s)", job.ID, job.State)
	pdf.CellFormat(contentW, headerHeight, title, "", 0, "L", false, 0, "")

	in := job.InputRoll
	lines := []string{
		fmt.Sprintf("Input: %s  |  Batch %s  |  %s  |  %s mm  |  Lot %s (%s)",
			in.ItemName, in.BatchNo, in.Spec.Kind, formatQty(in.Spec.WidthMM), in.LotID, in.Store),
		fmt.Sprintf("Process length: %s m of %s m  |  Consumed: %s kg  |  Wastage: %s kg / %s m²",
			formatQty(in.ProcessLengthM), formatQty(in.TotalLengthM), formatQty(job.ConsumedKg),
			formatQty(job.WastageKg), formatQty(job.WastageM2)),
		fmt.Sprintf("Operator: %s  |  Machine: %s  |  %s - %s",
			job.Operator, job.Machine, job.StartTime.Format("2006-01-02 15:04"), job.EndTime.Format("15:04")),
	}

	pdf.SetFont("Helvetica", "", 10)
	y := marginTop + headerHeight
	for _, line := range lines {
		pdf.SetXY(marginLeft, y)
		pdf.CellFormat(contentW, 5, line, "", 0, "L", false, 0, "")
		y += 5
	}
	if job.Remarks != "" {
		pdf.SetFont("Helvetica", "I", 9)
		pdf.SetXY(marginLeft, y)
		pdf.CellFormat(contentW, 5, "Remarks: "+job.Remarks, "", 0, "L", false, 0, "")
		y += 5
	}
	return y
}

// renderKnifeLayout draws the mother web as a band with one colored lane per
// child roll and the trim hatched at the far edge. Returns the next free y.
func renderKnifeLayout(pdf *fpdf.Fpdf, layout model.KnifeLayout, top float64) float64 {
	drawWidth := pageWidth - marginLeft - marginRight
	span := math.Max(layout.MotherWidthMM, layout.UsedWidth())
	if span <= 0 {
		return top
	}
	scale := drawWidth / span

	pdf.SetFillColor(235, 235, 235)
	pdf.SetDrawColor(100, 100, 100)
	pdf.SetLineWidth(0.5)
	pdf.Rect(marginLeft, top, layout.MotherWidthMM*scale, webHeight, "FD")

	for _, s := range layout.Strips {
		col := laneColors[s.PlanIndex%len(laneColors)]
		sx := marginLeft + s.X*scale
		sw := s.WidthMM * scale

		pdf.SetFillColor(col.R, col.G, col.B)
		pdf.SetDrawColor(30, 30, 30)
		pdf.SetLineWidth(0.3)
		pdf.Rect(sx, top, sw, webHeight, "FD")

		if sw > 8 {
			pdf.SetFont("Helvetica", "", labelFontSize(sw, webHeight))
			pdf.SetTextColor(0, 0, 0)
			text := formatQty(s.WidthMM)
			tw := pdf.GetStringWidth(text)
			if tw < sw-1 {
				pdf.SetXY(sx+(sw-tw)/2, top+webHeight/2-2)
				pdf.CellFormat(tw, 4, text, "", 0, "C", false, 0, "")
			}
		}
	}

	if layout.TrimMM > 0 {
		tx := marginLeft + layout.UsedWidth()*scale
		tw := layout.TrimMM * scale
		pdf.SetFillColor(255, 200, 200)
		pdf.SetDrawColor(200, 0, 0)
		pdf.Rect(tx, top, tw, webHeight, "FD")
		drawHatchPattern(pdf, tx, top, tw, webHeight)
	}

	// Knife marks above the band.
	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.4)
	for _, k := range layout.KnifePositions {
		kx := marginLeft + k*scale
		pdf.Line(kx, top-3, kx, top)
	}

	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(80, 80, 80)
	summary := fmt.Sprintf("Web %s mm  |  Used %s mm (%.1f%%)  |  Trim %s mm  |  Knives %d",
		formatQty(layout.MotherWidthMM), formatQty(layout.UsedWidth()), layout.Utilization(),
		formatQty(layout.TrimMM), layout.Knives())
	pdf.SetXY(marginLeft, top+webHeight+1)
	pdf.CellFormat(drawWidth, 4, summary, "", 0, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)

	return top + webHeight + 5
}

// drawHatchPattern draws diagonal lines inside a rectangle to mark trim.
func drawHatchPattern(pdf *fpdf.Fpdf, x, y, w, h float64) {
	pdf.SetDrawColor(200, 0, 0)
	pdf.SetLineWidth(0.15)

	spacing := 4.0
	maxDist := w + h

	for d := spacing; d < maxDist; d += spacing {
		x1 := x + math.Max(0, d-h)
		y1 := y + math.Min(h, d)
		x2 := x + math.Min(w, d)
		y2 := y + math.Max(0, d-w)

		pdf.Line(x1, y1, x2, y2)
	}
}

// renderPlanTable draws the cutting plan rows with their totals.
func renderPlanTable(pdf *fpdf.Fpdf, plans []model.CuttingPlan, top float64) float64 {
	colWidths := []float64{15, 40, 30, 45, 45, 45}
	headers := []string{"#", "Child Width (mm)", "Qty", "Total Width (mm)", "Total Length (m)", "Total Mass (kg)"}
	y := tableHeader(pdf, "Cutting Plan", colWidths, headers, top)

	pdf.SetFont("Helvetica", "", 9)
	for i, p := range plans {
		laneColor := laneColors[i%len(laneColors)]
		pdf.SetFillColor(laneColor.R, laneColor.G, laneColor.B)
		pdf.Rect(marginLeft-4, y+1.5, 3, 3, "F")

		tableRow(pdf, colWidths, []string{
			strconv.Itoa(i + 1),
			formatQty(p.ChildWidthMM),
			strconv.Itoa(p.Quantity),
			formatQty(p.TotalWidthMM),
			formatQty(p.TotalLengthM),
			formatQty(p.TotalMassKg),
		}, y, i)
		y += rowHeight
	}
	return y
}

// renderOutputTable lists every output roll, continuing on new pages as needed.
func renderOutputTable(pdf *fpdf.Fpdf, job model.SlittingJob, top float64) {
	colWidths := []float64{12, 55, 60, 25, 30, 30, 30}
	headers := []string{"#", "Batch", "Item", "Width", "Length (m)", "Mass (kg)", "Area (m²)"}
	y := tableHeader(pdf, "Output Rolls", colWidths, headers, top)

	pdf.SetFont("Helvetica", "", 9)
	for i, r := range job.OutputRolls {
		if y+rowHeight > pageHeight-marginBottom {
			pdf.AddPage()
			y = tableHeader(pdf, "Output Rolls (continued)", colWidths, headers, marginTop)
			pdf.SetFont("Helvetica", "", 9)
		}
		tableRow(pdf, colWidths, []string{
			strconv.Itoa(r.Seq),
			r.BatchNo,
			r.ItemName,
			formatQty(r.Spec.WidthMM),
			formatQty(r.LengthM),
			formatQty(r.MassKg),
			formatQty(r.AreaM2),
		}, y, i)
		y += rowHeight
	}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetXY(marginLeft, y+2)
	total := fmt.Sprintf("Total: %d rolls, %s kg, %s m²", len(job.OutputRolls),
		formatQty(model.TotalOutputMass(job.OutputRolls)), formatQty(model.TotalOutputArea(job.OutputRolls)))
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 5, total, "", 0, "L", false, 0, "")
}

func tableHeader(pdf *fpdf.Fpdf, title string, colWidths []float64, headers []string, top float64) float64 {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(marginLeft, top)
	pdf.CellFormat(100, 7, title, "", 0, "L", false, 0, "")
	y := top + 8

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	xPos := marginLeft
	for i, header := range headers {
		pdf.SetXY(xPos, y)
		pdf.CellFormat(colWidths[i], rowHeight, header, "1", 0, "C", true, 0, "")
		xPos += colWidths[i]
	}
	return y + rowHeight
}

func tableRow(pdf *fpdf.Fpdf, colWidths []float64, cells []string, y float64, idx int) {
	if idx%2 == 0 {
		pdf.SetFillColor(245, 245, 245)
	} else {
		pdf.SetFillColor(255, 255, 255)
	}
	xPos := marginLeft
	for j, cell := range cells {
		pdf.SetXY(xPos, y)
		pdf.CellFormat(colWidths[j], rowHeight, cell, "1", 0, "C", true, 0, "")
		xPos += colWidths[j]
	}
}

// labelFontSize returns an appropriate font size based on the rectangle dimensions.
func labelFontSize(w, h float64) float64 {
	minDim := math.Min(w, h)
	switch {
	case minDim > 40:
		return 8
	case minDim > 20:
		return 7
	default:
		return 6
	}
}

// formatQty prints a stored quantity without trailing zeros.
func formatQty(v float64) string {
	return strconv.FormatFloat(model.Round2(v), 'f', -1, 64)
}
