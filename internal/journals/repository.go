package journals

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads persisted journal lines. There is no update or delete:
// lines are written once by payment execution and only ever read afterwards.
type Repository interface {
	ListByContract(ctx context.Context, contractID int64) ([]Entry, error)
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository builds a Postgres-backed journal reader.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

const entryColumns = `id, contract_id, payment_id, booking_date, account, debit, credit, memo, entry_type, entry_order, created_at`

func (r *pgRepository) ListByContract(ctx context.Context, contractID int64) ([]Entry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+entryColumns+`
		FROM journal_entries
		WHERE contract_id = $1
		ORDER BY booking_date, payment_id, entry_order`, contractID)
	if err != nil {
		return nil, fmt.Errorf("journals: list by contract: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func scanEntries(rows pgx.Rows) ([]Entry, error) {
	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.ContractID, &e.PaymentID, &e.BookingDate, &e.Account,
			&e.Debit, &e.Credit, &e.Memo, &e.EntryType, &e.EntryOrder, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("journals: scan: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
