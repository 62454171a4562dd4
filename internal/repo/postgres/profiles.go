package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrProfileNotFound = errors.New("profile not found")

// Profile is the singleton-per-user contact/bio document. Like content items,
// the free-form fields live in a JSONB column and flatten into the response.
type Profile struct {
	ID         string
	UserID     string
	Visibility bool
	Attrs      json.RawMessage
	CreatedBy  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (p Profile) MarshalJSON() ([]byte, error) {
	m := map[string]any{}

	if len(p.Attrs) > 0 {
		if err := json.Unmarshal(p.Attrs, &m); err != nil {
			return nil, err
		}
	}

	m["id"] = p.ID
	m["userId"] = p.UserID
	m["visibility"] = p.Visibility
	m["createdBy"] = p.CreatedBy
	m["createdAt"] = p.CreatedAt
	m["updatedAt"] = p.UpdatedAt

	return json.Marshal(m)
}

type ProfilesRepo struct {
	pool *pgxpool.Pool
}

func NewProfilesRepo(pool *pgxpool.Pool) *ProfilesRepo {
	return &ProfilesRepo{pool: pool}
}

const profileColumns = `id, user_id, visibility, attrs, created_by, created_at, updated_at`

// Get returns the site profile. Non-admin callers only see a visible one.
func (r *ProfilesRepo) Get(ctx context.Context, visibleOnly bool) (Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles`

	if visibleOnly {
		query += ` WHERE visibility = TRUE`
	}

	query += ` LIMIT 1`

	return r.scanOne(r.pool.QueryRow(ctx, query))
}

func (r *ProfilesRepo) GetByUserID(ctx context.Context, userID string) (Profile, error) {
	return r.scanOne(r.pool.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE user_id = $1`,
		userID,
	))
}

// Upsert creates the caller's profile if absent, otherwise merges the patch
// into the existing document. created reports which of the two happened so the
// caller can audit CREATE vs UPDATE.
func (r *ProfilesRepo) Upsert(ctx context.Context, userID string, visibility *bool, attrs json.RawMessage) (p Profile, created bool, err error) {
	if len(attrs) == 0 {
		attrs = []byte(`{}`)
	}

	_, err = r.GetByUserID(ctx, userID)

	if errors.Is(err, ErrProfileNotFound) {
		now := time.Now().UTC()

		vis := true
		if visibility != nil {
			vis = *visibility
		}

		p, err = r.scanOne(r.pool.QueryRow(ctx,
			`INSERT INTO profiles (id, user_id, visibility, attrs, created_by, created_at, updated_at)
			 VALUES ($1,$2,$3,$4,$5,$6,$7)
			 RETURNING `+profileColumns,
			uuid.NewString(), userID, vis, attrs, userID, now, now,
		))

		return p, true, err
	}

	if err != nil {
		return Profile{}, false, err
	}

	p, err = r.scanOne(r.pool.QueryRow(ctx,
		`UPDATE profiles
			SET visibility = COALESCE($2, visibility),
					attrs = attrs || $3,
					updated_at = NOW()
		 WHERE user_id = $1
		 RETURNING `+profileColumns,
		userID, visibility, attrs,
	))

	return p, false, err
}

func (r *ProfilesRepo) scanOne(row pgx.Row) (Profile, error) {
	var p Profile

	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.Visibility,
		&p.Attrs,
		&p.CreatedBy,
		&p.CreatedAt,
		&p.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, ErrProfileNotFound
		}

		return Profile{}, err
	}

	return p, nil
}
