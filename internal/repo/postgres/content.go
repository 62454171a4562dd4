package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nigmanand/portfolio-api/internal/domain/content"
	"github.com/nigmanand/portfolio-api/internal/observability"
)

const contentColumns = `id, kind, order_index, visibility, status, COALESCE(slug, ''), views, attrs, created_by, created_at, updated_at`

// ContentRepo serves every ordered resource kind from the content_items table;
// the kind column keeps the collections apart.
type ContentRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewContentRepo(pool *pgxpool.Pool, prom *observability.Prom) *ContentRepo {
	return &ContentRepo{
		pool: pool,
		prom: prom,
	}
}

func (r *ContentRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (r *ContentRepo) List(ctx context.Context, kind content.Kind, filter content.ListFilter) ([]content.Item, int, error) {
	conds := []string{"kind = $1"}
	args := []interface{}{string(kind)}

	argsPosition := 2

	if filter.VisibleOnly {
		conds = append(conds, "visibility = TRUE")
	} else if filter.Visibility != nil {
		conds = append(conds, fmt.Sprintf("visibility = $%d", argsPosition))
		args = append(args, *filter.Visibility)
		argsPosition++
	}

	if filter.PublishedOnly {
		conds = append(conds, fmt.Sprintf("status = $%d", argsPosition))
		args = append(args, string(content.StatusPublished))
		argsPosition++
	} else if filter.Status != nil {
		conds = append(conds, fmt.Sprintf("status = $%d", argsPosition))
		args = append(args, string(*filter.Status))
		argsPosition++
	}

	if filter.Category != "" {
		conds = append(conds, fmt.Sprintf("attrs->>'category' = $%d", argsPosition))
		args = append(args, filter.Category)
		argsPosition++
	}

	if filter.Featured != nil {
		conds = append(conds, fmt.Sprintf("(attrs->>'featured')::boolean = $%d", argsPosition))
		args = append(args, *filter.Featured)
		argsPosition++
	}

	if filter.Search != "" {
		conds = append(conds, fmt.Sprintf("(attrs->>'title' ILIKE $%d OR attrs->>'shortDescription' ILIKE $%d)", argsPosition, argsPosition))
		args = append(args, "%"+filter.Search+"%")
		argsPosition++
	}

	query := `SELECT ` + contentColumns + `, COUNT(*) OVER() AS total
	FROM content_items
	WHERE ` + strings.Join(conds, " AND ")

	// display order: admin-controlled sequence first, newest breaks ties
	query += " ORDER BY order_index ASC, created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argsPosition, argsPosition+1)
		args = append(args, filter.Limit, filter.Offset)
	}

	output := make([]content.Item, 0)
	total := 0

	err := r.observe("content.list", func() error {
		rows, err := r.pool.Query(ctx, query, args...)

		if err != nil {
			return err
		}

		defer rows.Close()

		for rows.Next() {
			var it content.Item
			var t int

			if err := scanItem(rows.Scan, &it, &t); err != nil {
				return err
			}

			total = t
			output = append(output, it)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, 0, err
	}

	return output, total, nil
}

func (r *ContentRepo) GetByID(ctx context.Context, kind content.Kind, id string) (content.Item, error) {
	var it content.Item

	err := r.observe("content.get", func() error {
		row := r.pool.QueryRow(ctx,
			`SELECT `+contentColumns+` FROM content_items WHERE id = $1 AND kind = $2`,
			id, string(kind),
		)

		return scanItem(row.Scan, &it, nil)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return content.Item{}, content.ErrNotFound
		}

		return content.Item{}, err
	}

	return it, nil
}

// GetBySlug resolves a project by slug and bumps its view counter in the same
// statement. publicOnly restricts the lookup to published, visible records.
func (r *ContentRepo) GetBySlug(ctx context.Context, slug string, publicOnly bool) (content.Item, error) {
	query := `UPDATE content_items
		SET views = views + 1
		WHERE slug = $1 AND kind = $2`

	args := []interface{}{slug, string(content.KindProject)}

	if publicOnly {
		query += ` AND visibility = TRUE AND status = $3`
		args = append(args, string(content.StatusPublished))
	}

	query += ` RETURNING ` + contentColumns

	var it content.Item

	err := r.observe("content.get_by_slug", func() error {
		row := r.pool.QueryRow(ctx, query, args...)

		return scanItem(row.Scan, &it, nil)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return content.Item{}, content.ErrNotFound
		}

		return content.Item{}, err
	}

	return it, nil
}

func (r *ContentRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool

	err := r.observe("content.slug_exists", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM content_items WHERE slug = $1)`, slug,
		).Scan(&exists)
	})

	return exists, err
}

func (r *ContentRepo) Create(ctx context.Context, it content.Item) (content.Item, error) {
	now := time.Now().UTC()

	it.ID = uuid.NewString()
	it.CreatedAt = now
	it.UpdatedAt = now

	var slug *string
	if it.Slug != "" {
		slug = &it.Slug
	}

	err := r.observe("content.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO content_items (id, kind, order_index, visibility, status, slug, views, attrs, created_by, created_at, updated_at)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
			it.ID, string(it.Kind), it.Order, it.Visibility, string(it.Status), slug, it.Views, it.Attrs, it.CreatedBy, it.CreatedAt, it.UpdatedAt,
		)

		return err
	})

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return content.Item{}, content.ErrSlugTaken
		}

		return content.Item{}, err
	}

	return it, nil
}

// Patch merges the provided fields into the stored record. Envelope fields use
// COALESCE so absent values keep their current state; attrs merge field-wise
// through the JSONB || operator, matching document-store update semantics.
func (r *ContentRepo) Patch(ctx context.Context, kind content.Kind, id string, p content.Patch) (content.Item, error) {
	attrs := p.Attrs
	if len(attrs) == 0 {
		attrs = []byte(`{}`)
	}

	var status *string
	if p.Status != nil {
		s := string(*p.Status)
		status = &s
	}

	var it content.Item

	err := r.observe("content.patch", func() error {
		row := r.pool.QueryRow(ctx,
			`UPDATE content_items
				SET order_index = COALESCE($3, order_index),
						visibility = COALESCE($4, visibility),
						status = COALESCE($5, status),
						attrs = attrs || $6,
						updated_at = NOW()
			 WHERE id = $1 AND kind = $2
			 RETURNING `+contentColumns,
			id, string(kind), p.Order, p.Visibility, status, attrs,
		)

		return scanItem(row.Scan, &it, nil)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return content.Item{}, content.ErrNotFound
		}

		return content.Item{}, err
	}

	return it, nil
}

func (r *ContentRepo) Delete(ctx context.Context, kind content.Kind, id string) error {
	var tag pgconn.CommandTag

	err := r.observe("content.delete", func() error {
		var err error

		tag, err = r.pool.Exec(ctx,
			`DELETE FROM content_items WHERE id = $1 AND kind = $2`,
			id, string(kind),
		)

		return err
	})

	if err != nil {
		return err
	}

	// if no rows were deleted as a result return a not found error
	if tag.RowsAffected() == 0 {
		return content.ErrNotFound
	}

	return nil
}

func scanItem(scan func(dest ...any) error, it *content.Item, total *int) error {
	var kind, status string

	dest := []any{
		&it.ID,
		&kind,
		&it.Order,
		&it.Visibility,
		&status,
		&it.Slug,
		&it.Views,
		&it.Attrs,
		&it.CreatedBy,
		&it.CreatedAt,
		&it.UpdatedAt,
	}

	if total != nil {
		dest = append(dest, total)
	}

	if err := scan(dest...); err != nil {
		return err
	}

	it.Kind = content.Kind(kind)
	it.Status = content.Status(status)

	return nil
}
