package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/RollSlit/internal/model"
)

// Sheet names in the job report workbook.
const (
	SheetJobs    = "Jobs"
	SheetOutputs = "Output Rolls"
)

var jobReportHeader = []interface{}{
	"Job ID", "Fiscal Year", "State", "Input Lot", "Store", "Batch", "Item",
	"Mother Width (mm)", "Process Length (m)", "Consumed (kg)", "Output Rolls",
	"Output Mass (kg)", "Wastage (kg)", "Wastage (m²)", "Operator", "Machine",
	"Start", "End", "Remarks",
}

var outputReportHeader = []interface{}{
	"Job ID", "Seq", "Lot ID", "Batch", "Item", "Material", "Width (mm)",
	"GSM", "Micron", "Length (m)", "Area (m²)", "Mass (kg)",
}

// ExportJobReport writes an Excel workbook summarising jobs to path.
func ExportJobReport(path string, jobs []model.SlittingJob) error {
	f, err := buildJobReport(jobs)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	return f.SaveAs(path)
}

// WriteJobReport writes the same workbook as ExportJobReport to w.
func WriteJobReport(w io.Writer, jobs []model.SlittingJob) error {
	f, err := buildJobReport(jobs)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	return f.Write(w)
}

func buildJobReport(jobs []model.SlittingJob) (*excelize.File, error) {
	if len(jobs) == 0 {
		return nil, fmt.Errorf("no jobs to report")
	}

	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), SheetJobs); err != nil {
		_ = f.Close()
		return nil, err
	}
	if _, err := f.NewSheet(SheetOutputs); err != nil {
		_ = f.Close()
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Size: 11},
		Fill:   excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{{Type: "bottom", Color: "000000", Style: 1}},
	})
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	jobRows := make([][]interface{}, 0, len(jobs))
	var outputRows [][]interface{}
	for _, job := range jobs {
		in := job.InputRoll
		jobRows = append(jobRows, []interface{}{
			job.ID, job.FiscalYear, string(job.State), in.LotID, in.Store.String(), in.BatchNo, in.ItemName,
			in.Spec.WidthMM, in.ProcessLengthM, job.ConsumedKg, len(job.OutputRolls),
			model.Round2(model.TotalOutputMass(job.OutputRolls)), job.WastageKg, job.WastageM2,
			job.Operator, job.Machine, job.StartTime, job.EndTime, job.Remarks,
		})
		for _, r := range job.OutputRolls {
			outputRows = append(outputRows, []interface{}{
				job.ID, r.Seq, r.LotID, r.BatchNo, r.ItemName, r.Spec.Kind.String(), r.Spec.WidthMM,
				r.Spec.BasisWeight, r.Spec.ThicknessMicron, r.LengthM, r.AreaM2, r.MassKg,
			})
		}
	}

	if err := writeSheet(f, SheetJobs, jobReportHeader, jobRows, headerStyle); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := writeSheet(f, SheetOutputs, outputReportHeader, outputRows, headerStyle); err != nil {
		_ = f.Close()
		return nil, err
	}
	return f, nil
}

// writeSheet writes a styled header in row 1 followed by data rows.
func writeSheet(f *excelize.File, sheet string, header []interface{}, rows [][]interface{}, headerStyle int) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write %s header: %w", sheet, err)
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return err
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}
