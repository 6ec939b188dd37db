package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/piwi3910/RollSlit/internal/model"
)

// quantityTolerance is the slack allowed when comparing stored quantities.
const quantityTolerance = 0.01

// ledger applies a job's lot effects inside one transaction.
type ledger struct {
	tx              Tx
	log             *slog.Logger
	minStockLengthM float64
	now             time.Time
}

func integrity(op, jobID, lotID, reason string, err error) *LedgerIntegrityError {
	return &LedgerIntegrityError{Op: op, JobID: jobID, LotID: lotID, Reason: reason, Err: err}
}

// commit issues the consumed material from the input lot and creates one
// stock lot per output roll. It records on job whether the input lot was
// removed.
func (l *ledger) commit(ctx context.Context, job *model.SlittingJob) error {
	in := job.InputRoll
	lots := lotsFor(l.tx, in.Store)
	if lots == nil {
		return integrity("commit", job.ID, in.LotID, fmt.Sprintf("unsupported lot store %s", in.Store), nil)
	}

	switch in.Store {
	case model.StoreGRN:
		if err := lots.UpdateLotQuantity(ctx, in.LotID, job.ConsumedKg); err != nil {
			return l.lotErr("commit", job.ID, in.LotID, "issue input lot", err)
		}
		l.log.Debug("issued grn lot", "lot", in.LotID, "kg", job.ConsumedKg)
	case model.StoreStock:
		remaining := job.InputLotSnapshot.LengthM - in.ProcessLengthM
		if remaining < l.minStockLengthM {
			if err := lots.DeleteLot(ctx, in.LotID); err != nil {
				return l.lotErr("commit", job.ID, in.LotID, "remove consumed input lot", err)
			}
			job.InputLotDeleted = true
			l.log.Debug("removed consumed stock lot", "lot", in.LotID, "remaining_m", remaining)
		} else {
			if err := lots.UpdateLotQuantity(ctx, in.LotID, in.ProcessLengthM); err != nil {
				return l.lotErr("commit", job.ID, in.LotID, "issue input lot", err)
			}
			l.log.Debug("issued stock lot", "lot", in.LotID, "m", in.ProcessLengthM)
		}
	}

	outLots := make([]model.Lot, len(job.OutputRolls))
	for i, r := range job.OutputRolls {
		outLots[i] = outputLot(r, job.ID, l.now)
	}
	if err := l.tx.Stock().CreateLots(ctx, outLots); err != nil {
		return fmt.Errorf("create output lots for %s: %w", job.ID, err)
	}
	l.log.Debug("created output lots", "job_id", job.ID, "count", len(outLots))
	return nil
}

// reverse undoes commit. Output lots are checked before anything is touched
// so a consumed child roll aborts the reversal cleanly.
func (l *ledger) reverse(ctx context.Context, job *model.SlittingJob) error {
	stock := l.tx.Stock()
	for _, r := range job.OutputRolls {
		lot, err := stock.GetLot(ctx, r.LotID)
		if err != nil {
			return l.lotErr("reverse", job.ID, r.LotID, "output lot missing", err)
		}
		if !lot.IsSlittingOutput(job.ID) {
			return integrity("reverse", job.ID, r.LotID, "output lot was not created by this job", nil)
		}
		if lot.LengthM < r.LengthM-quantityTolerance || lot.RemainingQty < r.MassKg-quantityTolerance {
			return integrity("reverse", job.ID, r.LotID,
				fmt.Sprintf("output lot already issued (%.2f of %.2f m left)", lot.LengthM, r.LengthM), nil)
		}
	}

	in := job.InputRoll
	lots := lotsFor(l.tx, in.Store)
	if lots == nil {
		return integrity("reverse", job.ID, in.LotID, fmt.Sprintf("unsupported lot store %s", in.Store), nil)
	}

	if job.InputLotDeleted {
		if _, err := lots.GetLot(ctx, in.LotID); err == nil {
			return integrity("reverse", job.ID, in.LotID, "input lot exists but was removed at commit", nil)
		} else if !errors.Is(err, ErrLotNotFound) {
			return fmt.Errorf("look up input lot %s: %w", in.LotID, err)
		}
		if err := lots.CreateLots(ctx, []model.Lot{job.InputLotSnapshot}); err != nil {
			return fmt.Errorf("recreate input lot %s: %w", in.LotID, err)
		}
		l.log.Debug("recreated input lot from snapshot", "lot", in.LotID)
	} else {
		var delta float64
		switch in.Store {
		case model.StoreGRN:
			delta = job.ConsumedKg
		case model.StoreStock:
			delta = in.ProcessLengthM
		}
		if err := lots.RestoreLotQuantity(ctx, in.LotID, delta); err != nil {
			return l.lotErr("reverse", job.ID, in.LotID, "restore input lot", err)
		}
		l.log.Debug("restored input lot", "lot", in.LotID, "store", in.Store.String(), "delta", delta)
	}

	for _, r := range job.OutputRolls {
		if err := stock.DeleteLot(ctx, r.LotID); err != nil {
			return l.lotErr("reverse", job.ID, r.LotID, "delete output lot", err)
		}
	}
	l.log.Debug("deleted output lots", "job_id", job.ID, "count", len(job.OutputRolls))
	return nil
}

// lotErr turns a missing lot into a ledger integrity failure and wraps
// anything else.
func (l *ledger) lotErr(op, jobID, lotID, action string, err error) error {
	if errors.Is(err, ErrLotNotFound) {
		return integrity(op, jobID, lotID, action+": lot not found", err)
	}
	return fmt.Errorf("%s %s: %w", action, lotID, err)
}

// outputLot is the stock lot registered for one child roll.
func outputLot(r model.SlittingOutputRoll, jobID string, now time.Time) model.Lot {
	return model.Lot{
		ID:              r.LotID,
		Store:           model.StoreStock,
		ItemName:        r.ItemName,
		RollMasterID:    r.RollMasterID,
		BatchNo:         r.BatchNo,
		Spec:            r.Spec,
		ReceivedQty:     r.MassKg,
		RemainingQty:    r.MassKg,
		ReceivedLengthM: r.LengthM,
		LengthM:         r.LengthM,
		AreaM2:          r.AreaM2,
		Status:          model.LotAvailable,
		Source:          model.SourceSlitting,
		SourceRef:       jobID,
		CreatedAt:       now,
	}
}
