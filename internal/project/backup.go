package project

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/piwi3910/RollSlit/internal/engine"
	"github.com/piwi3910/RollSlit/internal/model"
)

// BackupVersion is written to every backup file.
const BackupVersion = "1.0.0"

// BackupData is the top-level structure for import/export of all ledger data.
type BackupData struct {
	Version   string               `json:"version"`
	CreatedAt string               `json:"created_at"`
	Catalog   model.Catalog        `json:"catalog"`
	Templates []model.PlanTemplate `json:"templates"`
	GRNLots   []model.Lot          `json:"grn_lots"`
	StockLots []model.Lot          `json:"stock_lots"`
	Jobs      []model.SlittingJob  `json:"jobs"`
}

// CollectBackup reads every lot, job and roll master from st. Machines and
// templates come from the file-based catalog and are passed in.
func CollectBackup(ctx context.Context, st engine.Store, machines []model.MachineProfile, templates []model.PlanTemplate) (BackupData, error) {
	b := BackupData{
		Version:   BackupVersion,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Templates: templates,
	}
	b.Catalog.Machines = machines
	err := st.View(ctx, func(tx engine.Tx) error {
		var err error
		if b.Catalog.Masters, err = tx.Masters().ListMasters(ctx); err != nil {
			return err
		}
		if b.GRNLots, err = tx.GRN().ListLots(ctx); err != nil {
			return err
		}
		if b.StockLots, err = tx.Stock().ListLots(ctx); err != nil {
			return err
		}
		b.Jobs, err = tx.Jobs().ListJobs(ctx)
		return err
	})
	if err != nil {
		return BackupData{}, fmt.Errorf("failed to collect backup data: %w", err)
	}
	return b, nil
}

// RestoreBackup writes the lots, jobs and roll masters of b into st in one
// transaction. The store must not already hold any of the records; a job
// whose number is taken fails the whole restore. Job counters in st and in
// every extra sequencer are raised to the highest restored number.
func RestoreBackup(ctx context.Context, st engine.Store, b BackupData, extra ...engine.SequenceAdvancer) error {
	last := LastJobSeqs(b.Jobs)
	err := st.Update(ctx, func(tx engine.Tx) error {
		for _, m := range b.Catalog.Masters {
			if err := tx.Masters().CreateMaster(ctx, m); err != nil {
				return err
			}
		}
		if err := tx.GRN().CreateLots(ctx, b.GRNLots); err != nil {
			return err
		}
		if err := tx.Stock().CreateLots(ctx, b.StockLots); err != nil {
			return err
		}
		for _, j := range b.Jobs {
			if err := tx.Jobs().CreateJob(ctx, j); err != nil {
				return fmt.Errorf("restore job: %w", err)
			}
		}
		return advanceAll(ctx, tx, last)
	})
	if err != nil {
		return err
	}
	for _, seq := range extra {
		if err := advanceAll(ctx, seq, last); err != nil {
			return err
		}
	}
	return nil
}

// LastJobSeqs returns the highest job number per fiscal year.
func LastJobSeqs(jobs []model.SlittingJob) map[string]int {
	last := make(map[string]int)
	for _, j := range jobs {
		if j.Seq > last[j.FiscalYear] {
			last[j.FiscalYear] = j.Seq
		}
	}
	return last
}

func advanceAll(ctx context.Context, seq engine.SequenceAdvancer, last map[string]int) error {
	for fy, n := range last {
		if err := seq.AdvanceJobSeq(ctx, fy, n); err != nil {
			return err
		}
	}
	return nil
}

// ExportAllData writes a backup to a single JSON file at the specified path.
func ExportAllData(exportPath string, backup BackupData) error {
	if backup.Version == "" {
		backup.Version = BackupVersion
	}
	if backup.CreatedAt == "" {
		backup.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	data, err := json.MarshalIndent(backup, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal backup data: %w", err)
	}

	dir := filepath.Dir(exportPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	if err := os.WriteFile(exportPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write backup file: %w", err)
	}
	return nil
}

// ImportAllData reads a backup JSON file and returns the contained data.
func ImportAllData(importPath string) (BackupData, error) {
	data, err := os.ReadFile(importPath)
	if err != nil {
		return BackupData{}, fmt.Errorf("failed to read backup file: %w", err)
	}
	var backup BackupData
	if err := json.Unmarshal(data, &backup); err != nil {
		return BackupData{}, fmt.Errorf("failed to parse backup file: %w", err)
	}
	if backup.Version == "" {
		return BackupData{}, fmt.Errorf("invalid backup file: missing version field")
	}
	if backup.Templates == nil {
		backup.Templates = []model.PlanTemplate{}
	}
	return backup, nil
}
