package reports

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/meridian-fin/meridian/internal/shared"
)

// Repository runs the aggregate queries behind the reports.
type Repository interface {
	Dashboard(ctx context.Context, period shared.Period) (Dashboard, error)
	VendorTotals(ctx context.Context) ([]VendorShare, error)
	ScheduleRows(ctx context.Context) ([]ScheduleRow, error)
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository builds a Postgres-backed reports repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

func (r *pgRepository) Dashboard(ctx context.Context, period shared.Period) (Dashboard, error) {
	var d Dashboard
	err := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE status = 'ACTIVE'),
			COUNT(*),
			COALESCE(SUM(total_amount), 0)
		FROM contracts`).Scan(&d.ActiveContracts, &d.TotalContracts, &d.TotalAmount)
	if err != nil {
		return Dashboard{}, fmt.Errorf("reports: dashboard contracts: %w", err)
	}
	err = r.pool.QueryRow(ctx, `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE accounting_period = $1), 0),
			COALESCE(SUM(amount - paid_amount) FILTER (WHERE payment_status <> 'COMPLETED'), 0),
			COUNT(*) FILTER (WHERE payment_status = 'OVERDUE')
		FROM amortization_entries`, period).Scan(&d.MonthAmortization, &d.RemainingPayable, &d.OverdueEntries)
	if err != nil {
		return Dashboard{}, fmt.Errorf("reports: dashboard entries: %w", err)
	}
	return d, nil
}

func (r *pgRepository) VendorTotals(ctx context.Context) ([]VendorShare, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT vendor_name, COALESCE(SUM(total_amount), 0)
		FROM contracts
		GROUP BY vendor_name
		ORDER BY 2 DESC, vendor_name`)
	if err != nil {
		return nil, fmt.Errorf("reports: vendor totals: %w", err)
	}
	defer rows.Close()

	var out []VendorShare
	for rows.Next() {
		var s VendorShare
		if err := rows.Scan(&s.VendorName, &s.Total); err != nil {
			return nil, fmt.Errorf("reports: scan vendor total: %w", err)
		}
		s.Percentage = decimal.Zero
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *pgRepository) ScheduleRows(ctx context.Context) ([]ScheduleRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT c.id, c.vendor_name, e.amortization_period, e.accounting_period,
			e.amount, e.paid_amount, e.payment_status
		FROM amortization_entries e
		JOIN contracts c ON c.id = e.contract_id
		ORDER BY c.id, e.amortization_period`)
	if err != nil {
		return nil, fmt.Errorf("reports: schedule rows: %w", err)
	}
	defer rows.Close()

	var out []ScheduleRow
	for rows.Next() {
		var row ScheduleRow
		if err := rows.Scan(&row.ContractID, &row.VendorName, &row.AmortizationPeriod,
			&row.AccountingPeriod, &row.Amount, &row.PaidAmount, &row.PaymentStatus); err != nil {
			return nil, fmt.Errorf("reports: scan schedule row: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
