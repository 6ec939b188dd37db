package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/piwi3910/RollSlit/internal/model"
)

// Config holds the tunables of a Slitter.
type Config struct {
	WarnUnusedPercent    float64    // unused width share that triggers a warning
	MinStockLengthM      float64    // stock lots shorter than this after a job are removed
	LegacyGSMTolerance   bool       // match whole-number GSM against rounded values
	FiscalYearStartMonth time.Month // first month of the fiscal year used in job ids
}

// DefaultConfig returns the plant defaults.
func DefaultConfig() Config {
	return Config{
		WarnUnusedPercent:    DefaultWarnUnusedPercent,
		MinStockLengthM:      1,
		LegacyGSMTolerance:   true,
		FiscalYearStartMonth: time.April,
	}
}

// Recorder receives ledger events, typically for metrics.
type Recorder interface {
	JobCommitted(job model.SlittingJob)
	JobReversed(job model.SlittingJob)
	LedgerFailure(op string)
}

type nopRecorder struct{}

func (nopRecorder) JobCommitted(model.SlittingJob) {}
func (nopRecorder) JobReversed(model.SlittingJob) {}
func (nopRecorder) LedgerFailure(string) {}

// Option customizes a Slitter.
type Option func(*Slitter)

// WithLogger sets the logger. A nil logger keeps slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Slitter) {
		if l != nil {
			s.log = l
		}
	}
}

// WithSequencer allocates job numbers outside the store transaction.
func WithSequencer(seq Sequencer) Option {
	return func(s *Slitter) { s.seq = seq }
}

// WithMachines registers slitter profiles checked at commit by machine name.
func WithMachines(machines []model.MachineProfile) Option {
	return func(s *Slitter) { s.machines = machines }
}

// WithRecorder sets the ledger event recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Slitter) {
		if r != nil {
			s.rec = r
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Slitter) { s.now = now }
}

// Slitter runs slitting jobs against a Store.
type Slitter struct {
	store    Store
	cfg      Config
	seq      Sequencer
	machines []model.MachineProfile
	log      *slog.Logger
	rec      Recorder
	now      func() time.Time
}

// NewSlitter creates a Slitter over store.
func NewSlitter(store Store, cfg Config, opts ...Option) *Slitter {
	s := &Slitter{
		store: store,
		cfg:   cfg,
		log:   slog.Default(),
		rec:   nopRecorder{},
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns the Slitter's configuration.
func (s *Slitter) Config() Config {
	return s.cfg
}

// NewInputRoll builds the mother roll for a job from a lot snapshot.
func NewInputRoll(lot model.Lot, processLengthM float64) model.SlittingInputRoll {
	total := lot.LengthM
	if total <= 0 && lot.RemainingQty > 0 {
		total = model.Round2(LengthFromMass(lot.RemainingQty, lot.Spec.WidthMM, lot.Spec))
	}
	return model.SlittingInputRoll{
		LotID:          lot.ID,
		Store:          lot.Store,
		ItemName:       lot.ItemName,
		RollMasterID:   lot.RollMasterID,
		Spec:           lot.Spec,
		BatchNo:        lot.BatchNo,
		TotalLengthM:   total,
		ProcessLengthM: processLengthM,
		TotalMassKg:    lot.RemainingQty,
	}
}

// prepared is a draft worked out against the current input lot.
type prepared struct {
	lot      model.Lot
	input    model.SlittingInputRoll
	plans    []model.CuttingPlan
	outputs  []model.SlittingOutputRoll
	wastage  WastageResult
	consumed float64
	check    ValidationResult
}

func (s *Slitter) prepare(ctx context.Context, tx Tx, d model.JobDraft) (*prepared, error) {
	lots := lotsFor(tx, d.Store)
	if lots == nil {
		return nil, newValidationError(fmt.Sprintf("Unknown lot store %s", d.Store))
	}
	lot, err := lots.GetLot(ctx, d.LotID)
	if err != nil {
		if errors.Is(err, ErrLotNotFound) {
			return nil, integrity("commit", "", d.LotID, "input lot not found", err)
		}
		return nil, fmt.Errorf("get input lot %s: %w", d.LotID, err)
	}

	input := NewInputRoll(*lot, d.ProcessLengthM)
	msgs := validateDraft(d, input, s.cfg.WarnUnusedPercent)
	for i := range s.machines {
		if s.machines[i].Name == d.Machine {
			msgs = append(msgs, ValidateMachine(s.machines[i], input.Spec.WidthMM, d.CuttingPlans)...)
			break
		}
	}
	if len(msgs) > 0 {
		return nil, newValidationError(msgs...)
	}

	p := &prepared{
		lot:     *lot,
		input:   input,
		plans:   CalculateAllPlanTotals(d.CuttingPlans, input),
		outputs: ExpandCuttingPlansToOutputRolls(d.CuttingPlans, input),
		check:   ValidateCuttingPlansWithThreshold(input.Spec.WidthMM, d.CuttingPlans, s.cfg.WarnUnusedPercent),
	}
	p.wastage = CalculateWastage(input, p.outputs)
	if d.WastageOverride != nil {
		w, err := WastageFromManual(*d.WastageOverride, input.Spec)
		if err != nil {
			return nil, newValidationError(fmt.Sprintf("Wastage override: %v", err))
		}
		p.wastage = w
	}
	p.consumed = ConsumedMass(p.outputs, p.wastage)

	if d.Store == model.StoreGRN && p.consumed > lot.RemainingQty+quantityTolerance {
		return nil, newValidationError(fmt.Sprintf("Consumed mass %.2fkg exceeds %.2fkg remaining on lot %s",
			p.consumed, lot.RemainingQty, lot.ID))
	}
	return p, nil
}

func (s *Slitter) jobFrom(d model.JobDraft, p *prepared) model.SlittingJob {
	return model.SlittingJob{
		State:            model.StateDraft,
		InputRoll:        p.input,
		CuttingPlans:     p.plans,
		OutputRolls:      p.outputs,
		WastageKg:        p.wastage.WastageKg,
		WastageM:         p.wastage.WastageM,
		WastageM2:        p.wastage.WastageM2,
		ConsumedKg:       p.consumed,
		Operator:         d.Operator,
		Machine:          d.Machine,
		StartTime:        d.StartTime,
		EndTime:          d.EndTime,
		Remarks:          d.Remarks,
		InputLotSnapshot: p.lot,
	}
}

// PreviewSlittingJob works out a draft without touching any store. The job
// is returned in Draft state together with the width diagnostic.
func (s *Slitter) PreviewSlittingJob(ctx context.Context, d model.JobDraft) (model.SlittingJob, ValidationResult, error) {
	var (
		job   model.SlittingJob
		check ValidationResult
	)
	err := s.store.View(ctx, func(tx Tx) error {
		p, err := s.prepare(ctx, tx, d)
		if err != nil {
			return err
		}
		job = s.jobFrom(d, p)
		check = p.check
		return nil
	})
	return job, check, err
}

// CommitSlittingJob validates a draft, expands it into output rolls and
// applies all lot effects in one transaction. Nothing is written when any
// step fails.
func (s *Slitter) CommitSlittingJob(ctx context.Context, d model.JobDraft) (model.SlittingJob, error) {
	var job model.SlittingJob
	now := s.now()
	err := s.store.Update(ctx, func(tx Tx) error {
		p, err := s.prepare(ctx, tx, d)
		if err != nil {
			return err
		}
		job = s.jobFrom(d, p)

		fy := model.FiscalYear(now, s.cfg.FiscalYearStartMonth)
		var seqr Sequencer = tx
		if s.seq != nil {
			seqr = s.seq
		}
		seq, err := seqr.NextJobSeq(ctx, fy)
		if err != nil {
			return fmt.Errorf("allocate job number: %w", err)
		}
		job.ID = model.JobID(seq, fy)
		job.Seq = seq
		job.FiscalYear = fy
		job.CreatedAt = now

		if err := s.linkMasters(ctx, tx, &job); err != nil {
			return err
		}
		for i := range job.OutputRolls {
			r := &job.OutputRolls[i]
			r.LotID = model.OutputLotID(job.ID, r.Seq)
			r.QRPayload = QRPayload(*r)
		}

		lg := &ledger{tx: tx, log: s.log, minStockLengthM: s.cfg.MinStockLengthM, now: now}
		if err := lg.commit(ctx, &job); err != nil {
			return err
		}
		job.State = model.StateCommitted
		if err := tx.Jobs().CreateJob(ctx, job); err != nil {
			if errors.Is(err, ErrJobExists) {
				return integrity("commit", job.ID, job.InputRoll.LotID, "job number already used", err)
			}
			return err
		}
		return nil
	})
	if err != nil {
		s.failed("commit", d.LotID, err)
		return model.SlittingJob{}, err
	}

	s.rec.JobCommitted(job)
	s.log.Info("slitting job committed",
		"job_id", job.ID,
		"input_lot", job.InputRoll.LotID,
		"outputs", len(job.OutputRolls),
		"consumed_kg", job.ConsumedKg,
		"wastage_kg", job.WastageKg,
	)
	return job, nil
}

// linkMasters attaches a roll master to every output roll, creating catalog
// entries for widths not seen before.
func (s *Slitter) linkMasters(ctx context.Context, tx Tx, job *model.SlittingJob) error {
	masters := tx.Masters()
	var parent *model.RollMaster
	if id := job.InputRoll.RollMasterID; id != "" {
		m, err := masters.GetMaster(ctx, id)
		switch {
		case err == nil:
			parent = m
		case errors.Is(err, ErrMasterNotFound):
			s.log.Warn("input roll master missing from catalog", "master", id)
		default:
			return fmt.Errorf("get roll master %s: %w", id, err)
		}
	}

	byWidth := make(map[float64]string)
	for i := range job.OutputRolls {
		r := &job.OutputRolls[i]
		if id, ok := byWidth[r.Spec.WidthMM]; ok {
			r.RollMasterID = id
			continue
		}
		m, created, err := FindOrCreateRollMaster(ctx, masters, r.Spec, parent, job.InputRoll.ItemName, s.cfg.LegacyGSMTolerance)
		if err != nil {
			return err
		}
		if created {
			s.log.Info("roll master created", "master", m.ID, "name", m.Name, "parent", m.ParentID)
		}
		byWidth[r.Spec.WidthMM] = m.ID
		r.RollMasterID = m.ID
	}
	return nil
}

// DeleteSlittingJob reverses a committed job: the input lot gets its
// material back, the job's output lots are removed and the job is kept in
// Reversed state.
func (s *Slitter) DeleteSlittingJob(ctx context.Context, id string) error {
	var job *model.SlittingJob
	err := s.store.Update(ctx, func(tx Tx) error {
		var err error
		job, err = tx.Jobs().GetJob(ctx, id)
		if err != nil {
			return err
		}
		if job.State != model.StateCommitted {
			return integrity("reverse", id, "", fmt.Sprintf("job is %s, not %s", job.State, model.StateCommitted), nil)
		}
		lg := &ledger{tx: tx, log: s.log, minStockLengthM: s.cfg.MinStockLengthM, now: s.now()}
		if err := lg.reverse(ctx, job); err != nil {
			return err
		}
		at := s.now()
		job.State = model.StateReversed
		job.ReversedAt = &at
		return tx.Jobs().SaveJob(ctx, *job)
	})
	if err != nil {
		s.failed("reverse", id, err)
		return err
	}

	s.rec.JobReversed(*job)
	s.log.Info("slitting job reversed", "job_id", id, "input_lot", job.InputRoll.LotID, "outputs", len(job.OutputRolls))
	return nil
}

func (s *Slitter) failed(op, ref string, err error) {
	if IsLedgerIntegrityError(err) {
		s.rec.LedgerFailure(op)
		s.log.Error("ledger transaction aborted", "op", op, "ref", ref, "err", err)
		return
	}
	s.log.Debug("slitting transaction rejected", "op", op, "ref", ref, "err", err)
}

// GetJob returns one job by id.
func (s *Slitter) GetJob(ctx context.Context, id string) (*model.SlittingJob, error) {
	var job *model.SlittingJob
	err := s.store.View(ctx, func(tx Tx) error {
		var err error
		job, err = tx.Jobs().GetJob(ctx, id)
		return err
	})
	return job, err
}

// ListJobs returns every job, committed and reversed.
func (s *Slitter) ListJobs(ctx context.Context) ([]model.SlittingJob, error) {
	var jobs []model.SlittingJob
	err := s.store.View(ctx, func(tx Tx) error {
		var err error
		jobs, err = tx.Jobs().ListJobs(ctx)
		return err
	})
	return jobs, err
}

// ListLots returns the lots of one store.
func (s *Slitter) ListLots(ctx context.Context, kind model.LotStore) ([]model.Lot, error) {
	var lots []model.Lot
	err := s.store.View(ctx, func(tx Tx) error {
		ls := lotsFor(tx, kind)
		if ls == nil {
			return fmt.Errorf("unsupported lot store %s", kind)
		}
		var err error
		lots, err = ls.ListLots(ctx)
		return err
	})
	return lots, err
}

// GetLot returns one lot from a store.
func (s *Slitter) GetLot(ctx context.Context, kind model.LotStore, id string) (*model.Lot, error) {
	var lot *model.Lot
	err := s.store.View(ctx, func(tx Tx) error {
		ls := lotsFor(tx, kind)
		if ls == nil {
			return fmt.Errorf("unsupported lot store %s", kind)
		}
		var err error
		lot, err = ls.GetLot(ctx, id)
		return err
	})
	return lot, err
}

// ReceiveLots adds lots to a store, filling in derived quantities.
func (s *Slitter) ReceiveLots(ctx context.Context, kind model.LotStore, lots []model.Lot) error {
	now := s.now()
	for i := range lots {
		l := &lots[i]
		l.Store = kind
		if l.CreatedAt.IsZero() {
			l.CreatedAt = now
		}
		FillLotQuantities(l)
	}
	return s.store.Update(ctx, func(tx Tx) error {
		ls := lotsFor(tx, kind)
		if ls == nil {
			return fmt.Errorf("unsupported lot store %s", kind)
		}
		return ls.CreateLots(ctx, lots)
	})
}

// FillLotQuantities completes a new lot's three units from whichever of mass
// and length was supplied, and sets received figures and status. A missing
// received length is scaled from the received mass so both received figures
// share the lot's kg-per-metre ratio.
func FillLotQuantities(l *model.Lot) {
	w := l.Spec.WidthMM
	switch {
	case l.LengthM <= 0 && l.RemainingQty > 0:
		l.LengthM = model.Round2(LengthFromMass(l.RemainingQty, w, l.Spec))
	case l.RemainingQty <= 0 && l.LengthM > 0:
		l.RemainingQty = model.Round2(MassFromLength(l.LengthM, w, l.Spec))
	}
	l.AreaM2 = model.Round2(AreaFromLength(l.LengthM, w))
	if l.ReceivedQty <= 0 {
		l.ReceivedQty = l.RemainingQty
		if l.LengthM > 0 && l.ReceivedLengthM > l.LengthM {
			l.ReceivedQty = model.Round2(l.RemainingQty * l.ReceivedLengthM / l.LengthM)
		}
	}
	if l.ReceivedLengthM <= 0 {
		l.ReceivedLengthM = l.LengthM
		// A partly issued lot received its full mass over a longer run.
		if l.RemainingQty > 0 && l.ReceivedQty > l.RemainingQty {
			l.ReceivedLengthM = model.Round2(l.LengthM * l.ReceivedQty / l.RemainingQty)
		}
	}
	if l.Status == "" {
		l.Status = model.StatusFor(l.RemainingQty, l.ReceivedQty)
	}
	if l.Source == "" {
		l.Source = model.SourceGRN
	}
}

// MotherLots lists lots in kind that can be slit for the given master.
func (s *Slitter) MotherLots(ctx context.Context, kind model.LotStore, masterID string) ([]model.Lot, error) {
	var out []model.Lot
	err := s.store.View(ctx, func(tx Tx) error {
		m, err := tx.Masters().GetMaster(ctx, masterID)
		if err != nil {
			return err
		}
		ls := lotsFor(tx, kind)
		if ls == nil {
			return fmt.Errorf("unsupported lot store %s", kind)
		}
		lots, err := ls.ListLots(ctx)
		if err != nil {
			return err
		}
		out = FindMotherLots(*m, lots, s.cfg.LegacyGSMTolerance)
		return nil
	})
	return out, err
}

// Masters returns the roll master catalog.
func (s *Slitter) Masters(ctx context.Context) ([]model.RollMaster, error) {
	var out []model.RollMaster
	err := s.store.View(ctx, func(tx Tx) error {
		var err error
		out, err = tx.Masters().ListMasters(ctx)
		return err
	})
	return out, err
}

// AddMasters writes catalog entries that are not yet present by id.
func (s *Slitter) AddMasters(ctx context.Context, masters []model.RollMaster) error {
	return s.store.Update(ctx, func(tx Tx) error {
		for _, m := range masters {
			if _, err := tx.Masters().GetMaster(ctx, m.ID); err == nil {
				continue
			} else if !errors.Is(err, ErrMasterNotFound) {
				return err
			}
			if err := tx.Masters().CreateMaster(ctx, m); err != nil {
				return err
			}
		}
		return nil
	})
}
