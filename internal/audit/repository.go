package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-fin/meridian/internal/shared"
)

// Filter narrows the audit trail listing. Zero values mean no constraint.
type Filter struct {
	Entity   string
	EntityID int64
	Operator string
}

// Repository reads the audit trail written by shared.AuditLogger.
type Repository interface {
	List(ctx context.Context, filter Filter, offset, limit int) ([]shared.AuditLog, int, error)
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository builds a Postgres-backed audit reader.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

func (r *pgRepository) List(ctx context.Context, filter Filter, offset, limit int) ([]shared.AuditLog, int, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.Entity != "" {
		where = append(where, "entity = "+arg(filter.Entity))
	}
	if filter.EntityID != 0 {
		where = append(where, "entity_id = "+arg(filter.EntityID))
	}
	if filter.Operator != "" {
		where = append(where, "operator = "+arg(filter.Operator))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM audit_logs"+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("audit: count: %w", err)
	}

	query := "SELECT id, operator, action, entity, entity_id, meta, occurred_at FROM audit_logs" +
		clause + " ORDER BY occurred_at DESC, id DESC OFFSET " + arg(offset) + " LIMIT " + arg(limit)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("audit: list: %w", err)
	}
	defer rows.Close()

	var out []shared.AuditLog
	for rows.Next() {
		var (
			log  shared.AuditLog
			meta []byte
		)
		if err := rows.Scan(&log.ID, &log.Operator, &log.Action, &log.Entity, &log.EntityID, &meta, &log.At); err != nil {
			return nil, 0, fmt.Errorf("audit: scan: %w", err)
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &log.Meta); err != nil {
				return nil, 0, fmt.Errorf("audit: decode meta: %w", err)
			}
		}
		out = append(out, log)
	}
	return out, total, rows.Err()
}
