package contracts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides access to contract storage.
type Repository interface {
	Create(ctx context.Context, c Contract) (Contract, error)
	Get(ctx context.Context, id int64) (Contract, error)
	List(ctx context.Context, offset, limit int) ([]Contract, int, error)
	Update(ctx context.Context, c Contract) (Contract, error)
	UpdateStatus(ctx context.Context, id int64, status Status) error
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository builds a Postgres-backed contract repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

const contractColumns = `id, vendor_name, total_amount, start_date, end_date, tax_rate,
	attachment_name, file_path, original_file_name, status, custom_fields, created_at, updated_at`

func (r *pgRepository) Create(ctx context.Context, c Contract) (Contract, error) {
	fields, err := marshalCustomFields(c.CustomFields)
	if err != nil {
		return Contract{}, err
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO contracts (vendor_name, total_amount, start_date, end_date, tax_rate,
			attachment_name, file_path, original_file_name, status, custom_fields)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+contractColumns,
		c.VendorName, c.TotalAmount, c.StartDate, c.EndDate, c.TaxRate,
		c.AttachmentName, c.FilePath, c.OriginalFileName, c.Status, fields)
	return scanContract(row)
}

func (r *pgRepository) Get(ctx context.Context, id int64) (Contract, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+contractColumns+` FROM contracts WHERE id = $1`, id)
	c, err := scanContract(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Contract{}, ErrNotFound
	}
	return c, err
}

func (r *pgRepository) List(ctx context.Context, offset, limit int) ([]Contract, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM contracts`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("contracts: count: %w", err)
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+contractColumns+`
		FROM contracts
		ORDER BY created_at DESC, id DESC
		OFFSET $1 LIMIT $2`, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("contracts: list: %w", err)
	}
	defer rows.Close()

	var out []Contract
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

func (r *pgRepository) Update(ctx context.Context, c Contract) (Contract, error) {
	fields, err := marshalCustomFields(c.CustomFields)
	if err != nil {
		return Contract{}, err
	}
	row := r.pool.QueryRow(ctx, `
		UPDATE contracts
		SET vendor_name = $2, total_amount = $3, start_date = $4, end_date = $5,
			tax_rate = $6, custom_fields = $7, updated_at = now()
		WHERE id = $1
		RETURNING `+contractColumns,
		c.ID, c.VendorName, c.TotalAmount, c.StartDate, c.EndDate, c.TaxRate, fields)
	updated, err := scanContract(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Contract{}, ErrNotFound
	}
	return updated, err
}

func (r *pgRepository) UpdateStatus(ctx context.Context, id int64, status Status) error {
	tag, err := r.pool.Exec(ctx, `UPDATE contracts SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("contracts: update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanContract(row pgx.Row) (Contract, error) {
	var (
		c      Contract
		fields []byte
	)
	err := row.Scan(&c.ID, &c.VendorName, &c.TotalAmount, &c.StartDate, &c.EndDate, &c.TaxRate,
		&c.AttachmentName, &c.FilePath, &c.OriginalFileName, &c.Status, &fields, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Contract{}, err
		}
		return Contract{}, fmt.Errorf("contracts: scan: %w", err)
	}
	if len(fields) > 0 {
		if err := json.Unmarshal(fields, &c.CustomFields); err != nil {
			return Contract{}, fmt.Errorf("contracts: decode custom fields: %w", err)
		}
	}
	return c, nil
}

func marshalCustomFields(fields map[string]string) ([]byte, error) {
	if len(fields) == 0 {
		return []byte(`{}`), nil
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("contracts: encode custom fields: %w", err)
	}
	return data, nil
}
