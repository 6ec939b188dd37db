// Package export writes slitting job results to label sheets, job sheets,
// spreadsheets and drawings.
package export

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/piwi3910/RollSlit/internal/engine"
	"github.com/piwi3910/RollSlit/internal/model"
)

// Label layout constants for L7163-compatible roll labels (2 columns, 7 rows
// per page). Each label cell is 99.1mm x 38.1mm on A4 paper.
const (
	labelMarginTop  = 15.1 // mm
	labelMarginLeft = 4.65 // mm
	labelGap        = 2.5  // mm between columns
	labelWidth      = 99.1 // mm per label
	labelHeight     = 38.1 // mm per label
	labelCols       = 2
	labelRows       = 7
	labelsPerPage   = labelCols * labelRows
	qrSize          = 32.0 // QR code size in mm
	labelPadding    = 3.0  // mm internal padding
)

// RollLabel pairs an output roll's printable fields with the QR text encoded
// on its label.
type RollLabel struct {
	Info      engine.LabelInfo
	QRPayload string
	JobID     string
}

// CollectRollLabels returns one label per output roll of a job, in roll
// sequence order.
func CollectRollLabels(job model.SlittingJob) []RollLabel {
	labels := make([]RollLabel, 0, len(job.OutputRolls))
	for _, r := range job.OutputRolls {
		payload := r.QRPayload
		if payload == "" {
			payload = engine.QRPayload(r)
		}
		labels = append(labels, RollLabel{
			Info:      engine.NewLabelInfo(r),
			QRPayload: payload,
			JobID:     job.ID,
		})
	}
	return labels
}

// ExportLabels generates a PDF of QR-coded labels for every output roll of
// the given jobs. Labels from several jobs share pages.
func ExportLabels(path string, jobs ...model.SlittingJob) error {
	var labels []RollLabel
	for _, job := range jobs {
		labels = append(labels, CollectRollLabels(job)...)
	}
	if len(labels) == 0 {
		return fmt.Errorf("no output rolls to generate labels for")
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)

	for i, label := range labels {
		if i%labelsPerPage == 0 {
			pdf.AddPage()
		}

		posOnPage := i % labelsPerPage
		col := posOnPage % labelCols
		row := posOnPage / labelCols

		x := labelMarginLeft + float64(col)*(labelWidth+labelGap)
		y := labelMarginTop + float64(row)*labelHeight

		if err := renderLabel(pdf, x, y, i, label); err != nil {
			return fmt.Errorf("failed to render label for %q: %w", label.Info.BatchNo, err)
		}
	}

	return pdf.OutputFileAndClose(path)
}

// renderLabel draws a single roll label at the given position.
func renderLabel(pdf *fpdf.Fpdf, x, y float64, idx int, label RollLabel) error {
	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.1)
	pdf.Rect(x, y, labelWidth, labelHeight, "D")

	qrPNG, err := qrcode.Encode(label.QRPayload, qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("failed to generate QR code: %w", err)
	}

	imgName := fmt.Sprintf("qr_%d", idx)
	pdf.RegisterImageOptionsReader(imgName, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(qrPNG))

	qrX := x + labelWidth - qrSize - labelPadding
	qrY := y + (labelHeight-qrSize)/2
	pdf.ImageOptions(imgName, qrX, qrY, qrSize, qrSize, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	textX := x + labelPadding
	textW := labelWidth - qrSize - 3*labelPadding
	info := label.Info

	// Batch number is what the floor reads first.
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(textX, y+labelPadding)
	pdf.CellFormat(textW, 6, truncate(pdf, info.BatchNo, textW), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	pdf.SetXY(textX, y+labelPadding+7)
	pdf.CellFormat(textW, 4, truncate(pdf, info.ItemName, textW), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	pdf.SetXY(textX, y+labelPadding+12)
	pdf.CellFormat(textW, 4, specLine(info), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetXY(textX, y+labelPadding+17)
	qty := fmt.Sprintf("%s m  |  %s kg", formatQty(info.LengthM), formatQty(info.MassKg))
	pdf.CellFormat(textW, 4.5, qty, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 6)
	pdf.SetTextColor(100, 100, 100)
	pdf.SetXY(textX, y+labelPadding+23)
	pdf.CellFormat(textW, 3, truncate(pdf, label.JobID, textW), "", 1, "L", false, 0, "")

	pdf.SetTextColor(0, 0, 0)
	return nil
}

// specLine summarises width and material, e.g. "500 mm  Paper 70 gsm".
func specLine(info engine.LabelInfo) string {
	line := fmt.Sprintf("%s mm  %s", formatQty(info.WidthMM), info.Kind)
	switch {
	case info.Micron > 0:
		line += fmt.Sprintf(" %s mic", formatQty(info.Micron))
	case info.GSM > 0:
		line += fmt.Sprintf(" %s gsm", formatQty(info.GSM))
	}
	return line
}

// truncate shortens s with an ellipsis until it fits width w at the current font.
func truncate(pdf *fpdf.Fpdf, s string, w float64) string {
	if pdf.GetStringWidth(s) <= w {
		return s
	}
	for len(s) > 0 && pdf.GetStringWidth(s+"...") > w {
		s = s[:len(s)-1]
	}
	return s + "..."
}
