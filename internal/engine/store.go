package engine

import (
	"context"

	"github.com/piwi3910/RollSlit/internal/model"
)

// LotStore is one of the two physical lot stores. GRN stores count deltas in
// kg, stock stores in metres (see model.Lot.Decrement). GetLot returns an
// error wrapping ErrLotNotFound when the lot does not exist.
type LotStore interface {
	GetLot(ctx context.Context, id string) (*model.Lot, error)
	ListLots(ctx context.Context) ([]model.Lot, error)
	UpdateLotQuantity(ctx context.Context, id string, delta float64) error
	RestoreLotQuantity(ctx context.Context, id string, delta float64) error
	CreateLots(ctx context.Context, lots []model.Lot) error
	DeleteLot(ctx context.Context, id string) error
}

// JobStore persists slitting jobs. GetJob and SaveJob wrap ErrJobNotFound
// when the job is missing. CreateJob never replaces a stored job; it wraps
// ErrJobExists when the id is taken.
type JobStore interface {
	GetJob(ctx context.Context, id string) (*model.SlittingJob, error)
	CreateJob(ctx context.Context, job model.SlittingJob) error
	SaveJob(ctx context.Context, job model.SlittingJob) error
	ListJobs(ctx context.Context) ([]model.SlittingJob, error)
}

// MasterStore is the roll master catalog. GetMaster wraps ErrMasterNotFound.
type MasterStore interface {
	GetMaster(ctx context.Context, id string) (*model.RollMaster, error)
	ListMasters(ctx context.Context) ([]model.RollMaster, error)
	CreateMaster(ctx context.Context, m model.RollMaster) error
}

// Sequencer allocates job sequence numbers, monotonic per fiscal year.
type Sequencer interface {
	NextJobSeq(ctx context.Context, fiscalYear string) (int, error)
}

// SequenceAdvancer moves a fiscal year's counter forward so the next number
// handed out is above last. A counter already past last is left alone.
type SequenceAdvancer interface {
	AdvanceJobSeq(ctx context.Context, fiscalYear string, last int) error
}

// Tx is a view of every store inside one transaction.
type Tx interface {
	Sequencer
	SequenceAdvancer
	GRN() LotStore
	Stock() LotStore
	Jobs() JobStore
	Masters() MasterStore
}

// Store runs functions inside transactions. Update commits when fn returns
// nil and rolls back every effect otherwise. Implementations serialize
// writers so read-decrement-write sequences cannot interleave.
type Store interface {
	Update(ctx context.Context, fn func(tx Tx) error) error
	View(ctx context.Context, fn func(tx Tx) error) error
}

// lotsFor returns the lot store a lot kind lives in.
func lotsFor(tx Tx, kind model.LotStore) LotStore {
	switch kind {
	case model.StoreGRN:
		return tx.GRN()
	case model.StoreStock:
		return tx.Stock()
	}
	return nil
}
