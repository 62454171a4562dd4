package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nigmanand/portfolio-api/internal/domain/audit"
)

// AuditRepo owns the append-only audit_logs collection. Application code only
// ever inserts and reads; there is no update or delete path.
type AuditRepo struct {
	pool *pgxpool.Pool
}

func NewAuditRepo(pool *pgxpool.Pool) *AuditRepo {
	return &AuditRepo{pool: pool}
}

func (r *AuditRepo) Insert(ctx context.Context, e audit.Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}

	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	var changes []byte

	if e.Changes != nil {
		b, err := json.Marshal(e.Changes)
		if err != nil {
			return fmt.Errorf("marshal audit changes: %w", err)
		}
		changes = b
	}

	var resourceID *string
	if e.ResourceID != "" {
		resourceID = &e.ResourceID
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO audit_logs (id, user_id, action, resource, resource_id, changes, ip_address, user_agent, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		e.ID, e.UserID, e.Action, e.Resource, resourceID, changes, e.IPAddress, e.UserAgent, e.CreatedAt,
	)

	return err
}

func (r *AuditRepo) Query(ctx context.Context, filter audit.QueryFilter) ([]audit.Entry, int, error) {
	var conds []string
	var args []interface{}

	argsPosition := 1

	if filter.Resource != "" {
		conds = append(conds, fmt.Sprintf("resource = $%d", argsPosition))
		args = append(args, filter.Resource)
		argsPosition++
	}

	if filter.Action != "" {
		conds = append(conds, fmt.Sprintf("action = $%d", argsPosition))
		args = append(args, filter.Action)
		argsPosition++
	}

	query := `SELECT id, user_id, action, resource, COALESCE(resource_id, ''), changes, COALESCE(ip_address, ''), COALESCE(user_agent, ''), created_at,
		COUNT(*) OVER() AS total
	FROM audit_logs`

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argsPosition, argsPosition+1)
	args = append(args, filter.Limit, filter.Skip)

	rows, err := r.pool.Query(ctx, query, args...)

	if err != nil {
		return nil, 0, err
	}

	defer rows.Close()

	output := make([]audit.Entry, 0, filter.Limit)
	total := 0

	for rows.Next() {
		var e audit.Entry
		var changes []byte
		var t int

		err = rows.Scan(&e.ID, &e.UserID, &e.Action, &e.Resource, &e.ResourceID, &changes, &e.IPAddress, &e.UserAgent, &e.CreatedAt, &t)

		if err != nil {
			return nil, 0, err
		}

		if len(changes) > 0 {
			var decoded any
			if err := json.Unmarshal(changes, &decoded); err == nil {
				e.Changes = decoded
			}
		}

		total = t
		output = append(output, e)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return output, total, nil
}
