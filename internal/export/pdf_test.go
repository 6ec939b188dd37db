package export

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/piwi3910/RollSlit/internal/model"
)

func TestExportJobSheet_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job.pdf")

	if err := ExportJobSheet(path, buildTestJob()); err != nil {
		t.Fatalf("ExportJobSheet returned error: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("PDF file was not created: %v", err)
	}
	if info.Size() < 500 {
		t.Errorf("PDF file seems too small: %d bytes", info.Size())
	}
}

func TestExportJobSheet_NoPlans(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job.pdf")

	job := buildTestJob()
	job.CuttingPlans = nil
	if err := ExportJobSheet(path, job); err == nil {
		t.Fatal("expected error for job without cutting plans")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("expected no file to be written")
	}
}

func TestExportJobSheet_ManyRollsAndRemarks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job_many.pdf")

	// Forty 30mm lanes overflow the first page's output table.
	job := buildTestJob()
	job.Remarks = "Edge damage on first 20m"
	job.CuttingPlans = []model.CuttingPlan{model.NewCuttingPlan(30, 40)}
	job.OutputRolls = nil
	for seq := 1; seq <= 40; seq++ {
		job.OutputRolls = append(job.OutputRolls, model.SlittingOutputRoll{
			Seq:     seq,
			Spec:    model.RollSpec{WidthMM: 30, BasisWeight: 50},
			BatchNo: model.OutputBatchNo("K77", seq),
			LengthM: 600,
			MassKg:  0.9,
		})
	}

	if err := ExportJobSheet(path, job); err != nil {
		t.Fatalf("ExportJobSheet returned error: %v", err)
	}
}

func TestExportJobSheet_OverflowingPlan(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overflow.pdf")

	// A draft that overflows the web still renders so the operator can see it.
	job := buildTestJob()
	job.State = model.StateDraft
	job.CuttingPlans = []model.CuttingPlan{model.NewCuttingPlan(700, 2)}

	if err := ExportJobSheet(path, job); err != nil {
		t.Fatalf("ExportJobSheet returned error: %v", err)
	}
}

func TestFormatQty(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{500, "500"},
		{12.5, "12.5"},
		{0.125, "0.13"},
		{1.999, "2"},
		{0, "0"},
	}
	for _, tt := range tests {
		if got := formatQty(tt.in); got != tt.want {
			t.Errorf("formatQty(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLabelFontSize(t *testing.T) {
	if got := labelFontSize(50, 50); got != 8 {
		t.Errorf("expected 8 for large rect, got %v", got)
	}
	if got := labelFontSize(30, 50); got != 7 {
		t.Errorf("expected 7 for medium rect, got %v", got)
	}
	if got := labelFontSize(10, 50); got != 6 {
		t.Errorf("expected 6 for small rect, got %v", got)
	}
}
