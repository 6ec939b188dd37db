package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"

	"github.com/piwi3910/RollSlit/internal/engine"
	"github.com/piwi3910/RollSlit/internal/model"
)

// buildTestJob creates a committed job slitting a 1200mm kraft roll into
// two 500mm rolls with 200mm trim.
func buildTestJob() model.SlittingJob {
	spec := model.RollSpec{WidthMM: 1200, BasisWeight: 50, Kind: model.MaterialPaper}
	child := spec.WithWidth(500)
	jobID := "SL00001/2025-26"
	start := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	plan := model.NewCuttingPlan(500, 2)
	plan.TotalLengthM = 1200
	plan.TotalMassKg = 30

	var rolls []model.SlittingOutputRoll
	for seq := 1; seq <= 2; seq++ {
		rolls = append(rolls, model.SlittingOutputRoll{
			ID:       fmt.Sprintf("r%d", seq),
			Seq:      seq,
			Spec:     child,
			ItemName: "Kraft 500mm",
			BatchNo:  model.OutputBatchNo("K77", seq),
			LengthM:  600,
			AreaM2:   300,
			MassKg:   15,
			LotID:    model.OutputLotID(jobID, seq),
		})
	}

	return model.SlittingJob{
		ID:         jobID,
		Seq:        1,
		FiscalYear: "2025-26",
		State:      model.StateCommitted,
		InputRoll: model.SlittingInputRoll{
			LotID:          "STK-1",
			Store:          model.StoreStock,
			ItemName:       "Kraft 1200mm",
			Spec:           spec,
			BatchNo:        "K77",
			TotalLengthM:   1000,
			ProcessLengthM: 600,
			TotalMassKg:    60,
		},
		CuttingPlans: []model.CuttingPlan{plan},
		OutputRolls:  rolls,
		WastageKg:    6,
		WastageM2:    120,
		ConsumedKg:   36,
		Operator:     "Ravi",
		Machine:      "Slitter-1",
		StartTime:    start,
		EndTime:      start.Add(45 * time.Minute),
	}
}

func TestExportLabels_CreatesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "labels.pdf")

	if err := ExportLabels(path, buildTestJob()); err != nil {
		t.Fatalf("ExportLabels returned error: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("PDF file was not created: %v", err)
	}
	if info.Size() < 500 {
		t.Errorf("PDF file seems too small: %d bytes", info.Size())
	}
}

func TestExportLabels_NoOutputs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.pdf")

	job := buildTestJob()
	job.OutputRolls = nil
	if err := ExportLabels(path, job); err == nil {
		t.Fatal("expected error for job without output rolls, got nil")
	}
	if err := ExportLabels(path); err == nil {
		t.Fatal("expected error for no jobs, got nil")
	}
}

func TestExportLabels_ManyRolls(t *testing.T) {
	path := filepath.Join(t.TempDir(), "many_labels.pdf")

	// 35 rolls span three label pages.
	job := buildTestJob()
	job.OutputRolls = nil
	for seq := 1; seq <= 35; seq++ {
		job.OutputRolls = append(job.OutputRolls, model.SlittingOutputRoll{
			Seq:      seq,
			Spec:     model.RollSpec{WidthMM: 30, BasisWeight: 50},
			ItemName: "Kraft 30mm with a very long descriptive item name for truncation",
			BatchNo:  model.OutputBatchNo("K77", seq),
			LengthM:  600,
			MassKg:   0.9,
		})
	}

	if err := ExportLabels(path, job); err != nil {
		t.Fatalf("ExportLabels returned error: %v", err)
	}
	if info, err := os.Stat(path); err != nil || info.Size() == 0 {
		t.Fatalf("PDF file missing or empty: %v", err)
	}
}

func TestCollectRollLabels(t *testing.T) {
	labels := CollectRollLabels(buildTestJob())

	if len(labels) != 2 {
		t.Fatalf("expected 2 labels, got %d", len(labels))
	}
	if labels[0].Info.BatchNo != "K77-SL01" || labels[1].Info.BatchNo != "K77-SL02" {
		t.Errorf("unexpected batch numbers %q, %q", labels[0].Info.BatchNo, labels[1].Info.BatchNo)
	}
	if labels[0].JobID != "SL00001/2025-26" {
		t.Errorf("expected job id on label, got %q", labels[0].JobID)
	}

	var decoded engine.LabelInfo
	if err := json.Unmarshal([]byte(labels[1].QRPayload), &decoded); err != nil {
		t.Fatalf("QR payload is not JSON: %v", err)
	}
	if decoded.LotID != "SL00001/2025-26-OUT-02" {
		t.Errorf("expected lot id in payload, got %q", decoded.LotID)
	}
}

func TestCollectRollLabels_KeepsStoredPayload(t *testing.T) {
	job := buildTestJob()
	job.OutputRolls[0].QRPayload = `{"batch":"fixed"}`

	labels := CollectRollLabels(job)
	if labels[0].QRPayload != `{"batch":"fixed"}` {
		t.Errorf("expected stored payload to be kept, got %q", labels[0].QRPayload)
	}
}

func TestQRPayload_Golden(t *testing.T) {
	labels := CollectRollLabels(buildTestJob())

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "qr_payload", []byte(labels[0].QRPayload))
}

func TestSpecLine(t *testing.T) {
	tests := []struct {
		info engine.LabelInfo
		want string
	}{
		{engine.LabelInfo{WidthMM: 500, Kind: "Paper", GSM: 70}, "500 mm  Paper 70 gsm"},
		{engine.LabelInfo{WidthMM: 250.5, Kind: "Film", GSM: 16.8, Micron: 12}, "250.5 mm  Film 12 mic"},
		{engine.LabelInfo{WidthMM: 100, Kind: "Foil"}, "100 mm  Foil"},
	}
	for _, tt := range tests {
		if got := specLine(tt.info); got != tt.want {
			t.Errorf("specLine(%+v) = %q, want %q", tt.info, got, tt.want)
		}
	}
}
