package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-fin/meridian/internal/amortization"
	"github.com/meridian-fin/meridian/internal/journals"
	"github.com/meridian-fin/meridian/internal/platform/db"
)

// Repository provides access to payment storage. Payment execution happens
// inside WithTx so the record, its journal lines and the schedule updates
// commit or roll back together.
type Repository interface {
	WithTx(ctx context.Context, fn func(TxRepository) error) error
	Get(ctx context.Context, id int64) (Record, error)
	ListByContract(ctx context.Context, contractID int64) ([]Record, error)
	ListJournal(ctx context.Context, paymentID int64) ([]journals.Entry, error)
	UpdateStatus(ctx context.Context, id int64, status Status) error
}

// TxRepository is the transaction-scoped slice of the repository. Journal
// lines have no update or delete here: once written they are immutable.
type TxRepository interface {
	EntriesForUpdate(ctx context.Context, ids []int64) ([]amortization.Entry, error)
	InsertRecord(ctx context.Context, rec Record) (Record, error)
	InsertJournal(ctx context.Context, paymentID int64, lines []journals.Entry) ([]journals.Entry, error)
	UpdateEntryAllocation(ctx context.Context, e amortization.Entry) error
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository builds a Postgres-backed payment repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

func (r *pgRepository) WithTx(ctx context.Context, fn func(TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(&pgTxRepository{tx: tx})
	})
}

const recordColumns = `id, contract_id, payment_amount, booking_date, selected_periods, status, operator, created_at, updated_at`

func (r *pgRepository) Get(ctx context.Context, id int64) (Record, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+recordColumns+` FROM payments WHERE id = $1`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	return rec, err
}

func (r *pgRepository) ListByContract(ctx context.Context, contractID int64) ([]Record, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+recordColumns+`
		FROM payments
		WHERE contract_id = $1
		ORDER BY booking_date DESC, id DESC`, contractID)
	if err != nil {
		return nil, fmt.Errorf("payments: list: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *pgRepository) ListJournal(ctx context.Context, paymentID int64) ([]journals.Entry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, contract_id, payment_id, booking_date, account, debit, credit, memo, entry_type, entry_order, created_at
		FROM journal_entries
		WHERE payment_id = $1
		ORDER BY entry_order`, paymentID)
	if err != nil {
		return nil, fmt.Errorf("payments: list journal: %w", err)
	}
	defer rows.Close()

	var out []journals.Entry
	for rows.Next() {
		var e journals.Entry
		if err := rows.Scan(&e.ID, &e.ContractID, &e.PaymentID, &e.BookingDate, &e.Account,
			&e.Debit, &e.Credit, &e.Memo, &e.EntryType, &e.EntryOrder, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("payments: scan journal: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *pgRepository) UpdateStatus(ctx context.Context, id int64, status Status) error {
	tag, err := r.pool.Exec(ctx, `UPDATE payments SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("payments: update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type pgTxRepository struct {
	tx pgx.Tx
}

// EntriesForUpdate re-reads the selected schedule entries under a row lock.
// A selection that raced a concurrent settlement is caught here, not at the
// caller's stale view. Contract ownership is checked by the service, so an
// entry from another contract is returned rather than silently dropped.
func (r *pgTxRepository) EntriesForUpdate(ctx context.Context, ids []int64) ([]amortization.Entry, error) {
	rows, err := r.tx.Query(ctx, `
		SELECT id, contract_id, amortization_period, accounting_period, amount, paid_amount,
			period_date, payment_status, payment_date, created_at, updated_at, created_by, updated_by
		FROM amortization_entries
		WHERE id = ANY($1)
		ORDER BY amortization_period
		FOR UPDATE`, ids)
	if err != nil {
		return nil, fmt.Errorf("payments: lock entries: %w", err)
	}
	defer rows.Close()

	var out []amortization.Entry
	for rows.Next() {
		var e amortization.Entry
		if err := rows.Scan(&e.ID, &e.ContractID, &e.AmortizationPeriod, &e.AccountingPeriod,
			&e.Amount, &e.PaidAmount, &e.PeriodDate, &e.PaymentStatus, &e.PaymentDate,
			&e.CreatedAt, &e.UpdatedAt, &e.CreatedBy, &e.UpdatedBy); err != nil {
			return nil, fmt.Errorf("payments: scan entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *pgTxRepository) InsertRecord(ctx context.Context, rec Record) (Record, error) {
	row := r.tx.QueryRow(ctx, `
		INSERT INTO payments (contract_id, payment_amount, booking_date, selected_periods, status, operator)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+recordColumns,
		rec.ContractID, rec.Amount, rec.BookingDate, joinPeriods(rec.SelectedPeriods), rec.Status, rec.Operator)
	saved, err := scanRecord(row)
	if err != nil {
		return Record{}, fmt.Errorf("payments: insert record: %w", err)
	}
	return saved, nil
}

func (r *pgTxRepository) InsertJournal(ctx context.Context, paymentID int64, lines []journals.Entry) ([]journals.Entry, error) {
	out := make([]journals.Entry, 0, len(lines))
	for _, e := range lines {
		row := r.tx.QueryRow(ctx, `
			INSERT INTO journal_entries (contract_id, payment_id, booking_date, account, debit, credit, memo, entry_type, entry_order)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id, created_at`,
			e.ContractID, paymentID, e.BookingDate, e.Account, e.Debit, e.Credit, e.Memo, e.EntryType, e.EntryOrder)
		if err := row.Scan(&e.ID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("payments: insert journal line: %w", err)
		}
		id := paymentID
		e.PaymentID = &id
		out = append(out, e)
	}
	return out, nil
}

func (r *pgTxRepository) UpdateEntryAllocation(ctx context.Context, e amortization.Entry) error {
	tag, err := r.tx.Exec(ctx, `
		UPDATE amortization_entries
		SET paid_amount = $2, payment_status = $3, payment_date = $4, updated_at = now(), updated_by = $5
		WHERE id = $1`,
		e.ID, e.PaidAmount, e.PaymentStatus, e.PaymentDate, e.UpdatedBy)
	if err != nil {
		return fmt.Errorf("payments: update allocation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return amortization.ErrEntryNotFound
	}
	return nil
}

func scanRecord(row pgx.Row) (Record, error) {
	var (
		rec     Record
		periods string
	)
	err := row.Scan(&rec.ID, &rec.ContractID, &rec.Amount, &rec.BookingDate, &periods,
		&rec.Status, &rec.Operator, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, err
		}
		return Record{}, fmt.Errorf("payments: scan record: %w", err)
	}
	if rec.SelectedPeriods, err = splitPeriods(periods); err != nil {
		return Record{}, fmt.Errorf("payments: stored periods: %w", err)
	}
	return rec, nil
}
