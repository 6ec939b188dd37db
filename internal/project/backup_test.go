package project

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/piwi3910/RollSlit/internal/engine"
	"github.com/piwi3910/RollSlit/internal/model"
	"github.com/piwi3910/RollSlit/internal/store"
)

func seededSlitter(t *testing.T, st engine.Store) *engine.Slitter {
	t.Helper()
	ctx := context.Background()
	clock := time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)
	s := engine.NewSlitter(st, engine.DefaultConfig(), engine.WithClock(func() time.Time { return clock }))

	err := s.ReceiveLots(ctx, model.StoreGRN, []model.Lot{{
		ID:           "G1",
		BatchNo:      "B1",
		ItemName:     "Maplitho 1000mm",
		Spec:         model.RollSpec{WidthMM: 1000, BasisWeight: 60},
		RemainingQty: 120,
	}})
	if err != nil {
		t.Fatal(err)
	}
	_, err = s.CommitSlittingJob(ctx, model.JobDraft{
		LotID:          "G1",
		Store:          model.StoreGRN,
		ProcessLengthM: 500,
		CuttingPlans:   []model.CuttingPlan{model.NewCuttingPlan(500, 2)},
		Operator:       "op",
		Machine:        "SR",
		StartTime:      clock.Add(-time.Hour),
		EndTime:        clock,
	})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestExportAndImportAllData(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	seededSlitter(t, st)

	machines := []model.MachineProfile{model.NewMachineProfile("SR", 1300, 20, 24)}
	templates := []model.PlanTemplate{model.NewPlanTemplate("Halves", "", 1000, model.MaterialPaper, []model.CuttingPlan{model.NewCuttingPlan(500, 2)})}
	backup, err := CollectBackup(ctx, st, machines, templates)
	if err != nil {
		t.Fatalf("CollectBackup failed: %v", err)
	}
	if len(backup.GRNLots) != 1 || len(backup.StockLots) != 2 || len(backup.Jobs) != 1 {
		t.Fatalf("unexpected backup contents: %d grn, %d stock, %d jobs",
			len(backup.GRNLots), len(backup.StockLots), len(backup.Jobs))
	}

	path := filepath.Join(t.TempDir(), "backup.json")
	if err := ExportAllData(path, backup); err != nil {
		t.Fatalf("ExportAllData failed: %v", err)
	}

	loaded, err := ImportAllData(path)
	if err != nil {
		t.Fatalf("ImportAllData failed: %v", err)
	}
	if loaded.Version != BackupVersion {
		t.Errorf("expected version %s, got %s", BackupVersion, loaded.Version)
	}
	if loaded.CreatedAt == "" {
		t.Error("expected non-empty CreatedAt")
	}
	if len(loaded.Catalog.Machines) != 1 || len(loaded.Templates) != 1 {
		t.Errorf("machines/templates not preserved")
	}
	if loaded.Jobs[0].ID != "SL00001/2025-26" {
		t.Errorf("unexpected job id %s", loaded.Jobs[0].ID)
	}
}

func TestRestoreBackup_AdvancesSequence(t *testing.T) {
	ctx := context.Background()
	src := store.NewMemory()
	seededSlitter(t, src)

	backup, err := CollectBackup(ctx, src, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	dst := store.NewMemory()
	if err := RestoreBackup(ctx, dst, backup); err != nil {
		t.Fatalf("RestoreBackup failed: %v", err)
	}

	clock := time.Date(2025, 7, 2, 9, 0, 0, 0, time.UTC)
	s := engine.NewSlitter(dst, engine.DefaultConfig(), engine.WithClock(func() time.Time { return clock }))
	job, err := s.CommitSlittingJob(ctx, model.JobDraft{
		LotID:          "G1",
		Store:          model.StoreGRN,
		ProcessLengthM: 100,
		CuttingPlans:   []model.CuttingPlan{model.NewCuttingPlan(250, 4)},
		Operator:       "op",
		Machine:        "SR",
		StartTime:      clock.Add(-time.Hour),
		EndTime:        clock,
	})
	if err != nil {
		t.Fatalf("commit after restore failed: %v", err)
	}
	if job.ID != "SL00002/2025-26" {
		t.Errorf("expected SL00002/2025-26, got %s", job.ID)
	}

	// The restored job can still be reversed.
	if err := s.DeleteSlittingJob(ctx, "SL00001/2025-26"); err != nil {
		t.Fatalf("reverse restored job: %v", err)
	}
}

type recordingAdvancer map[string]int

func (r recordingAdvancer) AdvanceJobSeq(_ context.Context, fy string, last int) error {
	r[fy] = last
	return nil
}

func TestRestoreBackup_CounterAlreadyAhead(t *testing.T) {
	ctx := context.Background()
	src := store.NewMemory()
	seededSlitter(t, src)
	backup, err := CollectBackup(ctx, src, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	dst := store.NewMemory()
	err = dst.Update(ctx, func(tx engine.Tx) error {
		return tx.AdvanceJobSeq(ctx, "2025-26", 5)
	})
	if err != nil {
		t.Fatal(err)
	}
	redis := recordingAdvancer{}
	if err := RestoreBackup(ctx, dst, backup, redis); err != nil {
		t.Fatalf("RestoreBackup failed: %v", err)
	}
	if redis["2025-26"] != 1 {
		t.Errorf("external counter advanced to %d, want 1", redis["2025-26"])
	}

	var n int
	err = dst.Update(ctx, func(tx engine.Tx) error {
		var err error
		n, err = tx.NextJobSeq(ctx, "2025-26")
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	if n != 6 {
		t.Errorf("next number after restore = %d, want 6", n)
	}
}

func TestRestoreBackup_ExistingJobFails(t *testing.T) {
	ctx := context.Background()
	src := store.NewMemory()
	seededSlitter(t, src)
	backup, err := CollectBackup(ctx, src, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	// The target already holds a job with the same number but different lots.
	dst := store.NewMemory()
	taken := backup.Jobs[0]
	taken.InputRoll.LotID = "OTHER"
	err = dst.Update(ctx, func(tx engine.Tx) error {
		return tx.Jobs().CreateJob(ctx, taken)
	})
	if err != nil {
		t.Fatal(err)
	}

	backup.Catalog.Masters = nil
	err = RestoreBackup(ctx, dst, backup)
	if !errors.Is(err, engine.ErrJobExists) {
		t.Fatalf("expected ErrJobExists, got %v", err)
	}
	err = dst.View(ctx, func(tx engine.Tx) error {
		got, err := tx.Jobs().GetJob(ctx, taken.ID)
		if err != nil {
			return err
		}
		if got.InputRoll.LotID != "OTHER" {
			t.Errorf("existing job overwritten: input lot %s", got.InputRoll.LotID)
		}
		lots, err := tx.GRN().ListLots(ctx)
		if err != nil {
			return err
		}
		if len(lots) != 0 {
			t.Errorf("restore left %d GRN lots behind", len(lots))
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestImportAllDataMissingFile(t *testing.T) {
	_, err := ImportAllData(filepath.Join(t.TempDir(), "nope.json"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestImportAllDataInvalidJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(path, []byte("{not json}"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := ImportAllData(path)
	if err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestImportAllDataMissingVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.json")
	if err := os.WriteFile(path, []byte(`{"jobs":[]}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ImportAllData(path); err == nil {
		t.Fatal("expected error for missing version")
	}
}
