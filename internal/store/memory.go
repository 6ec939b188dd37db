package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/piwi3910/RollSlit/internal/engine"
	"github.com/piwi3910/RollSlit/internal/model"
)

// ErrReadOnly is returned by writes attempted inside a View.
var ErrReadOnly = errors.New("store: write in read-only transaction")

// Memory is an engine.Store kept in process memory. Update works on a copy
// of the state and swaps it in only when the function succeeds.
type Memory struct {
	mu    sync.RWMutex
	state *memState
}

var _ engine.Store = (*Memory)(nil)

type memState struct {
	grn     map[string]model.Lot
	stock   map[string]model.Lot
	jobs    map[string]model.SlittingJob
	masters []model.RollMaster
	seqs    map[string]int
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{state: &memState{
		grn:   make(map[string]model.Lot),
		stock: make(map[string]model.Lot),
		jobs:  make(map[string]model.SlittingJob),
		seqs:  make(map[string]int),
	}}
}

func (s *memState) clone() *memState {
	c := &memState{
		grn:     make(map[string]model.Lot, len(s.grn)),
		stock:   make(map[string]model.Lot, len(s.stock)),
		jobs:    make(map[string]model.SlittingJob, len(s.jobs)),
		masters: append([]model.RollMaster(nil), s.masters...),
		seqs:    make(map[string]int, len(s.seqs)),
	}
	for k, v := range s.grn {
		c.grn[k] = v
	}
	for k, v := range s.stock {
		c.stock[k] = v
	}
	for k, v := range s.jobs {
		c.jobs[k] = cloneJob(v)
	}
	for k, v := range s.seqs {
		c.seqs[k] = v
	}
	return c
}

func cloneJob(j model.SlittingJob) model.SlittingJob {
	j.CuttingPlans = append([]model.CuttingPlan(nil), j.CuttingPlans...)
	j.OutputRolls = append([]model.SlittingOutputRoll(nil), j.OutputRolls...)
	if j.ReversedAt != nil {
		at := *j.ReversedAt
		j.ReversedAt = &at
	}
	return j
}

// Update runs fn against a private copy of the state.
func (m *Memory) Update(ctx context.Context, fn func(tx engine.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	work := m.state.clone()
	if err := fn(&memTx{s: work}); err != nil {
		return err
	}
	m.state = work
	return nil
}

// View runs fn against the current state. Writes fail with ErrReadOnly.
func (m *Memory) View(ctx context.Context, fn func(tx engine.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return fn(&memTx{s: m.state, readOnly: true})
}

type memTx struct {
	s        *memState
	readOnly bool
}

func (t *memTx) GRN() engine.LotStore {
	return &memLots{tx: t, kind: model.StoreGRN, lots: t.s.grn}
}

func (t *memTx) Stock() engine.LotStore {
	return &memLots{tx: t, kind: model.StoreStock, lots: t.s.stock}
}

func (t *memTx) Jobs() engine.JobStore { return (*memJobs)(t) }
func (t *memTx) Masters() engine.MasterStore { return (*memMasters)(t) }

func (t *memTx) NextJobSeq(_ context.Context, fy string) (int, error) {
	if t.readOnly {
		return 0, ErrReadOnly
	}
	t.s.seqs[fy]++
	return t.s.seqs[fy], nil
}

func (t *memTx) AdvanceJobSeq(_ context.Context, fy string, last int) error {
	if t.readOnly {
		return ErrReadOnly
	}
	if last > t.s.seqs[fy] {
		t.s.seqs[fy] = last
	}
	return nil
}

type memLots struct {
	tx   *memTx
	kind model.LotStore
	lots map[string]model.Lot
}

func (l *memLots) GetLot(_ context.Context, id string) (*model.Lot, error) {
	lot, ok := l.lots[id]
	if !ok {
		return nil, fmt.Errorf("%s lot %s: %w", l.kind, id, engine.ErrLotNotFound)
	}
	return &lot, nil
}

func (l *memLots) ListLots(_ context.Context) ([]model.Lot, error) {
	out := make([]model.Lot, 0, len(l.lots))
	for _, lot := range l.lots {
		out = append(out, lot)
	}
	sortLots(out)
	return out, nil
}

func (l *memLots) UpdateLotQuantity(ctx context.Context, id string, delta float64) error {
	return l.modify(ctx, id, func(lot *model.Lot) error { return lot.Decrement(delta) })
}

func (l *memLots) RestoreLotQuantity(ctx context.Context, id string, delta float64) error {
	return l.modify(ctx, id, func(lot *model.Lot) error { return lot.Restore(delta) })
}

func (l *memLots) modify(ctx context.Context, id string, fn func(*model.Lot) error) error {
	if l.tx.readOnly {
		return ErrReadOnly
	}
	lot, err := l.GetLot(ctx, id)
	if err != nil {
		return err
	}
	if err := fn(lot); err != nil {
		return err
	}
	l.lots[id] = *lot
	return nil
}

func (l *memLots) CreateLots(_ context.Context, lots []model.Lot) error {
	if l.tx.readOnly {
		return ErrReadOnly
	}
	for _, lot := range lots {
		if _, ok := l.lots[lot.ID]; ok {
			return fmt.Errorf("%s lot %s already exists", l.kind, lot.ID)
		}
	}
	for _, lot := range lots {
		lot.Store = l.kind
		l.lots[lot.ID] = lot
	}
	return nil
}

func (l *memLots) DeleteLot(_ context.Context, id string) error {
	if l.tx.readOnly {
		return ErrReadOnly
	}
	if _, ok := l.lots[id]; !ok {
		return fmt.Errorf("%s lot %s: %w", l.kind, id, engine.ErrLotNotFound)
	}
	delete(l.lots, id)
	return nil
}

type memJobs memTx

func (j *memJobs) GetJob(_ context.Context, id string) (*model.SlittingJob, error) {
	job, ok := j.s.jobs[id]
	if !ok {
		return nil, fmt.Errorf("job %s: %w", id, engine.ErrJobNotFound)
	}
	job = cloneJob(job)
	return &job, nil
}

func (j *memJobs) CreateJob(_ context.Context, job model.SlittingJob) error {
	if j.readOnly {
		return ErrReadOnly
	}
	if job.ID == "" {
		return errors.New("create job: empty id")
	}
	if _, ok := j.s.jobs[job.ID]; ok {
		return fmt.Errorf("job %s: %w", job.ID, engine.ErrJobExists)
	}
	j.s.jobs[job.ID] = cloneJob(job)
	return nil
}

func (j *memJobs) SaveJob(_ context.Context, job model.SlittingJob) error {
	if j.readOnly {
		return ErrReadOnly
	}
	if _, ok := j.s.jobs[job.ID]; !ok {
		return fmt.Errorf("job %s: %w", job.ID, engine.ErrJobNotFound)
	}
	j.s.jobs[job.ID] = cloneJob(job)
	return nil
}

func (j *memJobs) ListJobs(_ context.Context) ([]model.SlittingJob, error) {
	out := make([]model.SlittingJob, 0, len(j.s.jobs))
	for _, job := range j.s.jobs {
		out = append(out, cloneJob(job))
	}
	sortJobs(out)
	return out, nil
}

type memMasters memTx

func (m *memMasters) GetMaster(_ context.Context, id string) (*model.RollMaster, error) {
	for _, rm := range m.s.masters {
		if rm.ID == id {
			rm := rm
			return &rm, nil
		}
	}
	return nil, fmt.Errorf("roll master %s: %w", id, engine.ErrMasterNotFound)
}

func (m *memMasters) ListMasters(_ context.Context) ([]model.RollMaster, error) {
	return append([]model.RollMaster(nil), m.s.masters...), nil
}

func (m *memMasters) CreateMaster(_ context.Context, rm model.RollMaster) error {
	if m.readOnly {
		return ErrReadOnly
	}
	for _, existing := range m.s.masters {
		if existing.ID == rm.ID {
			return fmt.Errorf("roll master %s already exists", rm.ID)
		}
	}
	m.s.masters = append(m.s.masters, rm)
	return nil
}

func sortLots(lots []model.Lot) {
	sort.Slice(lots, func(i, j int) bool {
		if !lots[i].CreatedAt.Equal(lots[j].CreatedAt) {
			return lots[i].CreatedAt.Before(lots[j].CreatedAt)
		}
		return lots[i].ID < lots[j].ID
	})
}

func sortJobs(jobs []model.SlittingJob) {
	sort.Slice(jobs, func(i, j int) bool {
		if jobs[i].FiscalYear != jobs[j].FiscalYear {
			return jobs[i].FiscalYear < jobs[j].FiscalYear
		}
		return jobs[i].Seq < jobs[j].Seq
	})
}
