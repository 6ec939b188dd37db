package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/piwi3910/RollSlit/internal/engine"
	"github.com/piwi3910/RollSlit/internal/model"
)

//go:embed schema.sql
var schemaSQL string

// timeLayout is fixed-width so created_at sorts correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLite is an engine.Store backed by a SQLite database. Writers are
// serialized; each Update runs in one database transaction.
type SQLite struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ engine.Store = (*SQLite)(nil)

// OpenSQLite creates or opens the database at path and applies the schema.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	// SQLite allows one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", p, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Update runs fn in a transaction, committing only when fn returns nil.
func (s *SQLite) Update(ctx context.Context, fn func(tx engine.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.run(ctx, false, fn)
}

// View runs fn in a transaction that is always rolled back.
func (s *SQLite) View(ctx context.Context, fn func(tx engine.Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.run(ctx, true, fn)
}

func (s *SQLite) run(ctx context.Context, readOnly bool, fn func(tx engine.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&sqlTx{tx: tx, readOnly: readOnly}); err != nil {
		return err
	}
	if readOnly {
		return nil
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type sqlTx struct {
	tx       *sql.Tx
	readOnly bool
}

func (t *sqlTx) GRN() engine.LotStore {
	return &sqlLots{t: t, kind: model.StoreGRN, table: "grn_lots"}
}

func (t *sqlTx) Stock() engine.LotStore {
	return &sqlLots{t: t, kind: model.StoreStock, table: "stock_lots"}
}

func (t *sqlTx) Jobs() engine.JobStore { return (*sqlJobs)(t) }

func (t *sqlTx) Masters() engine.MasterStore { return (*sqlMasters)(t) }

func (t *sqlTx) NextJobSeq(ctx context.Context, fy string) (int, error) {
	if t.readOnly {
		return 0, ErrReadOnly
	}
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO job_sequences (fiscal_year, last_seq) VALUES (?, 1)
		ON CONFLICT(fiscal_year) DO UPDATE SET last_seq = last_seq + 1
	`, fy)
	if err != nil {
		return 0, fmt.Errorf("next job seq: %w", err)
	}
	var seq int
	if err := t.tx.QueryRowContext(ctx, `SELECT last_seq FROM job_sequences WHERE fiscal_year = ?`, fy).Scan(&seq); err != nil {
		return 0, fmt.Errorf("next job seq: %w", err)
	}
	return seq, nil
}

func (t *sqlTx) AdvanceJobSeq(ctx context.Context, fy string, last int) error {
	if t.readOnly {
		return ErrReadOnly
	}
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO job_sequences (fiscal_year, last_seq) VALUES (?, ?)
		ON CONFLICT(fiscal_year) DO UPDATE SET last_seq = MAX(last_seq, excluded.last_seq)
	`, fy, last)
	if err != nil {
		return fmt.Errorf("advance job seq %s: %w", fy, err)
	}
	return nil
}

const lotColumns = `id, item_name, roll_master_id, batch_no, spec, received_qty, remaining_qty,
	received_length_m, length_m, area_m2, status, source, source_ref, created_at`

type sqlLots struct {
	t     *sqlTx
	kind  model.LotStore
	table string
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (l *sqlLots) scan(row rowScanner) (*model.Lot, error) {
	var (
		lot     model.Lot
		spec    string
		status  string
		created string
	)
	err := row.Scan(&lot.ID, &lot.ItemName, &lot.RollMasterID, &lot.BatchNo, &spec,
		&lot.ReceivedQty, &lot.RemainingQty, &lot.ReceivedLengthM, &lot.LengthM, &lot.AreaM2,
		&status, &lot.Source, &lot.SourceRef, &created)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(spec), &lot.Spec); err != nil {
		return nil, fmt.Errorf("decode spec of lot %s: %w", lot.ID, err)
	}
	if lot.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return nil, fmt.Errorf("decode created_at of lot %s: %w", lot.ID, err)
	}
	lot.Store = l.kind
	lot.Status = model.LotStatus(status)
	return &lot, nil
}

func (l *sqlLots) GetLot(ctx context.Context, id string) (*model.Lot, error) {
	row := l.t.tx.QueryRowContext(ctx, `SELECT `+lotColumns+` FROM `+l.table+` WHERE id = ?`, id)
	lot, err := l.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s lot %s: %w", l.kind, id, engine.ErrLotNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s lot %s: %w", l.kind, id, err)
	}
	return lot, nil
}

func (l *sqlLots) ListLots(ctx context.Context) ([]model.Lot, error) {
	rows, err := l.t.tx.QueryContext(ctx, `SELECT `+lotColumns+` FROM `+l.table+` ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list %s lots: %w", l.kind, err)
	}
	defer rows.Close()

	var lots []model.Lot
	for rows.Next() {
		lot, err := l.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("list %s lots: %w", l.kind, err)
		}
		lots = append(lots, *lot)
	}
	return lots, rows.Err()
}

func (l *sqlLots) UpdateLotQuantity(ctx context.Context, id string, delta float64) error {
	return l.modify(ctx, id, func(lot *model.Lot) error { return lot.Decrement(delta) })
}

func (l *sqlLots) RestoreLotQuantity(ctx context.Context, id string, delta float64) error {
	return l.modify(ctx, id, func(lot *model.Lot) error { return lot.Restore(delta) })
}

func (l *sqlLots) modify(ctx context.Context, id string, fn func(*model.Lot) error) error {
	if l.t.readOnly {
		return ErrReadOnly
	}
	lot, err := l.GetLot(ctx, id)
	if err != nil {
		return err
	}
	if err := fn(lot); err != nil {
		return err
	}
	_, err = l.t.tx.ExecContext(ctx, `
		UPDATE `+l.table+`
		SET remaining_qty = ?, length_m = ?, area_m2 = ?, status = ?
		WHERE id = ?
	`, lot.RemainingQty, lot.LengthM, lot.AreaM2, string(lot.Status), id)
	if err != nil {
		return fmt.Errorf("update %s lot %s: %w", l.kind, id, err)
	}
	return nil
}

func (l *sqlLots) CreateLots(ctx context.Context, lots []model.Lot) error {
	if l.t.readOnly {
		return ErrReadOnly
	}
	for _, lot := range lots {
		spec, err := json.Marshal(lot.Spec)
		if err != nil {
			return fmt.Errorf("encode spec of lot %s: %w", lot.ID, err)
		}
		_, err = l.t.tx.ExecContext(ctx, `INSERT INTO `+l.table+` (`+lotColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			lot.ID, lot.ItemName, lot.RollMasterID, lot.BatchNo, string(spec),
			lot.ReceivedQty, lot.RemainingQty, lot.ReceivedLengthM, lot.LengthM, lot.AreaM2,
			string(lot.Status), lot.Source, lot.SourceRef, lot.CreatedAt.UTC().Format(timeLayout),
		)
		if err != nil {
			return fmt.Errorf("create %s lot %s: %w", l.kind, lot.ID, err)
		}
	}
	return nil
}

func (l *sqlLots) DeleteLot(ctx context.Context, id string) error {
	if l.t.readOnly {
		return ErrReadOnly
	}
	res, err := l.t.tx.ExecContext(ctx, `DELETE FROM `+l.table+` WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete %s lot %s: %w", l.kind, id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s lot %s: %w", l.kind, id, engine.ErrLotNotFound)
	}
	return nil
}

type sqlJobs sqlTx

func (j *sqlJobs) GetJob(ctx context.Context, id string) (*model.SlittingJob, error) {
	var data string
	err := j.tx.QueryRowContext(ctx, `SELECT data FROM jobs WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("job %s: %w", id, engine.ErrJobNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", id, err)
	}
	var job model.SlittingJob
	if err := json.Unmarshal([]byte(data), &job); err != nil {
		return nil, fmt.Errorf("decode job %s: %w", id, err)
	}
	return &job, nil
}

func (j *sqlJobs) CreateJob(ctx context.Context, job model.SlittingJob) error {
	if j.readOnly {
		return ErrReadOnly
	}
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job %s: %w", job.ID, err)
	}
	res, err := j.tx.ExecContext(ctx, `
		INSERT INTO jobs (id, fiscal_year, seq, state, input_lot_id, data)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, job.ID, job.FiscalYear, job.Seq, string(job.State), job.InputRoll.LotID, string(data))
	if err != nil {
		return fmt.Errorf("create job %s: %w", job.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("job %s: %w", job.ID, engine.ErrJobExists)
	}
	return nil
}

func (j *sqlJobs) SaveJob(ctx context.Context, job model.SlittingJob) error {
	if j.readOnly {
		return ErrReadOnly
	}
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job %s: %w", job.ID, err)
	}
	res, err := j.tx.ExecContext(ctx, `UPDATE jobs SET state = ?, data = ? WHERE id = ?`,
		string(job.State), string(data), job.ID)
	if err != nil {
		return fmt.Errorf("save job %s: %w", job.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("job %s: %w", job.ID, engine.ErrJobNotFound)
	}
	return nil
}

func (j *sqlJobs) ListJobs(ctx context.Context) ([]model.SlittingJob, error) {
	rows, err := j.tx.QueryContext(ctx, `SELECT data FROM jobs ORDER BY fiscal_year, seq`)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []model.SlittingJob
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("list jobs: %w", err)
		}
		var job model.SlittingJob
		if err := json.Unmarshal([]byte(data), &job); err != nil {
			return nil, fmt.Errorf("decode job: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

type sqlMasters sqlTx

func scanMaster(row rowScanner) (*model.RollMaster, error) {
	var (
		m    model.RollMaster
		spec string
	)
	if err := row.Scan(&m.ID, &m.Code, &m.Name, &m.ParentID, &spec); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(spec), &m.Spec); err != nil {
		return nil, fmt.Errorf("decode spec of master %s: %w", m.ID, err)
	}
	return &m, nil
}

func (m *sqlMasters) GetMaster(ctx context.Context, id string) (*model.RollMaster, error) {
	rm, err := scanMaster(m.tx.QueryRowContext(ctx,
		`SELECT id, code, name, parent_id, spec FROM masters WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("roll master %s: %w", id, engine.ErrMasterNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get roll master %s: %w", id, err)
	}
	return rm, nil
}

func (m *sqlMasters) ListMasters(ctx context.Context) ([]model.RollMaster, error) {
	rows, err := m.tx.QueryContext(ctx, `SELECT id, code, name, parent_id, spec FROM masters ORDER BY pos`)
	if err != nil {
		return nil, fmt.Errorf("list roll masters: %w", err)
	}
	defer rows.Close()

	var out []model.RollMaster
	for rows.Next() {
		rm, err := scanMaster(rows)
		if err != nil {
			return nil, fmt.Errorf("list roll masters: %w", err)
		}
		out = append(out, *rm)
	}
	return out, rows.Err()
}

func (m *sqlMasters) CreateMaster(ctx context.Context, rm model.RollMaster) error {
	if m.readOnly {
		return ErrReadOnly
	}
	spec, err := json.Marshal(rm.Spec)
	if err != nil {
		return fmt.Errorf("encode spec of master %s: %w", rm.ID, err)
	}
	_, err = m.tx.ExecContext(ctx,
		`INSERT INTO masters (id, code, name, parent_id, spec) VALUES (?, ?, ?, ?, ?)`,
		rm.ID, rm.Code, rm.Name, rm.ParentID, string(spec))
	if err != nil {
		return fmt.Errorf("create roll master %s: %w", rm.ID, err)
	}
	return nil
}
