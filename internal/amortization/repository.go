package amortization

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-fin/meridian/internal/platform/db"
)

// Repository provides access to amortization entry storage.
type Repository interface {
	ListByContract(ctx context.Context, contractID int64) ([]Entry, error)
	Get(ctx context.Context, id int64) (Entry, error)
	ReplaceForContract(ctx context.Context, contractID int64, entries []Entry) ([]Entry, error)
	Operate(ctx context.Context, contractID int64, upserts []Entry, deletes []int64) ([]Entry, error)
	HasSettled(ctx context.Context, contractID int64) (bool, error)
	MarkOverdue(ctx context.Context, asOf time.Time) (int64, error)
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository builds a Postgres-backed amortization repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

const entryColumns = `id, contract_id, amortization_period, accounting_period, amount, paid_amount,
	period_date, payment_status, payment_date, created_at, updated_at, created_by, updated_by`

func (r *pgRepository) ListByContract(ctx context.Context, contractID int64) ([]Entry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+entryColumns+`
		FROM amortization_entries
		WHERE contract_id = $1
		ORDER BY amortization_period, id`, contractID)
	if err != nil {
		return nil, fmt.Errorf("amortization: list: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (r *pgRepository) Get(ctx context.Context, id int64) (Entry, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+entryColumns+` FROM amortization_entries WHERE id = $1`, id)
	e, err := scanEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, ErrEntryNotFound
	}
	return e, err
}

// ReplaceForContract swaps the whole schedule of a contract in one
// transaction. Callers must ensure no entry is settled before regenerating.
func (r *pgRepository) ReplaceForContract(ctx context.Context, contractID int64, entries []Entry) ([]Entry, error) {
	var out []Entry
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM amortization_entries WHERE contract_id = $1`, contractID); err != nil {
			return fmt.Errorf("amortization: clear schedule: %w", err)
		}
		for _, e := range entries {
			saved, err := insertEntry(ctx, tx, e)
			if err != nil {
				return err
			}
			out = append(out, saved)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Operate applies a batch of manual schedule edits atomically. Entries with
// an ID are updated, entries without one are inserted, and the listed IDs
// are deleted. Settled entries are protected at the service layer; here a
// settled row simply refuses the update.
func (r *pgRepository) Operate(ctx context.Context, contractID int64, upserts []Entry, deletes []int64) ([]Entry, error) {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		for _, id := range deletes {
			tag, err := tx.Exec(ctx, `
				DELETE FROM amortization_entries
				WHERE id = $1 AND contract_id = $2 AND payment_status <> $3`,
				id, contractID, StatusCompleted)
			if err != nil {
				return fmt.Errorf("amortization: delete entry %d: %w", id, err)
			}
			if tag.RowsAffected() == 0 {
				return guardFailure(ctx, tx, id, contractID)
			}
		}
		for _, e := range upserts {
			e.ContractID = contractID
			if e.ID == 0 {
				if _, err := insertEntry(ctx, tx, e); err != nil {
					return err
				}
				continue
			}
			tag, err := tx.Exec(ctx, `
				UPDATE amortization_entries
				SET amortization_period = $2, accounting_period = $3, amount = $4,
					period_date = $5, updated_at = now(), updated_by = $6
				WHERE id = $1 AND contract_id = $7 AND payment_status <> $8`,
				e.ID, e.AmortizationPeriod, e.AccountingPeriod, e.Amount,
				e.PeriodDate, e.UpdatedBy, contractID, StatusCompleted)
			if err != nil {
				return fmt.Errorf("amortization: update entry %d: %w", e.ID, err)
			}
			if tag.RowsAffected() == 0 {
				return guardFailure(ctx, tx, e.ID, contractID)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.ListByContract(ctx, contractID)
}

// guardFailure explains a zero-row guarded write: the row is either gone or
// already settled.
func guardFailure(ctx context.Context, tx pgx.Tx, id, contractID int64) error {
	var status string
	err := tx.QueryRow(ctx, `
		SELECT payment_status FROM amortization_entries
		WHERE id = $1 AND contract_id = $2`, id, contractID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("entry %d: %w", id, ErrEntryNotFound)
	}
	if err != nil {
		return fmt.Errorf("amortization: check entry %d: %w", id, err)
	}
	return fmt.Errorf("entry %d: %w", id, ErrEntrySettled)
}

func (r *pgRepository) HasSettled(ctx context.Context, contractID int64) (bool, error) {
	var settled bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM amortization_entries
			WHERE contract_id = $1 AND (payment_status = $2 OR paid_amount > 0)
		)`, contractID, StatusCompleted).Scan(&settled)
	if err != nil {
		return false, fmt.Errorf("amortization: check settled: %w", err)
	}
	return settled, nil
}

// MarkOverdue flips pending entries whose period month has fully elapsed.
func (r *pgRepository) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE amortization_entries
		SET payment_status = $1, updated_at = now(), updated_by = 'scheduler'
		WHERE payment_status = $2
		  AND (period_date + INTERVAL '1 month') <= $3`,
		StatusOverdue, StatusPending, asOf)
	if err != nil {
		return 0, fmt.Errorf("amortization: mark overdue: %w", err)
	}
	return tag.RowsAffected(), nil
}

func insertEntry(ctx context.Context, tx pgx.Tx, e Entry) (Entry, error) {
	row := tx.QueryRow(ctx, `
		INSERT INTO amortization_entries (contract_id, amortization_period, accounting_period,
			amount, paid_amount, period_date, payment_status, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		RETURNING `+entryColumns,
		e.ContractID, e.AmortizationPeriod, e.AccountingPeriod,
		e.Amount, e.PaidAmount, e.PeriodDate, e.PaymentStatus, e.CreatedBy)
	saved, err := scanEntry(row)
	if err != nil {
		return Entry{}, fmt.Errorf("amortization: insert entry: %w", err)
	}
	return saved, nil
}

func scanEntry(row pgx.Row) (Entry, error) {
	var e Entry
	err := row.Scan(&e.ID, &e.ContractID, &e.AmortizationPeriod, &e.AccountingPeriod,
		&e.Amount, &e.PaidAmount, &e.PeriodDate, &e.PaymentStatus, &e.PaymentDate,
		&e.CreatedAt, &e.UpdatedAt, &e.CreatedBy, &e.UpdatedBy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, err
		}
		return Entry{}, fmt.Errorf("amortization: scan: %w", err)
	}
	return e, nil
}

func scanEntries(rows pgx.Rows) ([]Entry, error) {
	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
