// Package candidate holds the portal-facing candidate records the routing
// core reads.
package candidate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hireflow/geomatch"
)

// ErrNotFound signals that no candidate row exists for the identifier.
var ErrNotFound = errors.New("candidate: not found")

// Candidate is an applicant from the public portal. Location may be absent
// when the candidate declined geolocation; matching then degrades to the
// district comparison.
type Candidate struct {
	ID        string
	Name      string
	District  string
	Coords    *geomatch.Coords
	CreatedAt time.Time
}

// CreateParams contains write parameters for registering candidates.
type CreateParams struct {
	Name     string
	District string
	Coords   *geomatch.Coords
}

// Repository handles data access for candidates.
type Repository interface {
	Create(ctx context.Context, params CreateParams) (Candidate, error)
	GetByID(ctx context.Context, id string) (Candidate, error)
}

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a PostgreSQL-backed candidate repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func (r *PGRepository) Create(ctx context.Context, params CreateParams) (Candidate, error) {
	if params.Name == "" {
		return Candidate{}, fmt.Errorf("candidate: name is required")
	}

	const insertSQL = `
		INSERT INTO candidates (name, district, lat, lng)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, district, lat, lng, created_at
	`

	var lat, lng *float64
	if params.Coords != nil {
		lat, lng = &params.Coords.Lat, &params.Coords.Lng
	}

	c, err := scanCandidate(r.pool.QueryRow(ctx, insertSQL, params.Name, params.District, lat, lng))
	if err != nil {
		return Candidate{}, fmt.Errorf("candidate: create: %w", err)
	}
	return c, nil
}

func (r *PGRepository) GetByID(ctx context.Context, id string) (Candidate, error) {
	const query = `SELECT id, name, district, lat, lng, created_at FROM candidates WHERE id = $1`

	c, err := scanCandidate(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Candidate{}, ErrNotFound
		}
		return Candidate{}, fmt.Errorf("candidate: get: %w", err)
	}
	return c, nil
}

func scanCandidate(row pgx.Row) (Candidate, error) {
	var (
		c        Candidate
		lat, lng *float64
	)
	if err := row.Scan(&c.ID, &c.Name, &c.District, &lat, &lng, &c.CreatedAt); err != nil {
		return Candidate{}, err
	}
	if lat != nil && lng != nil {
		c.Coords = &geomatch.Coords{Lat: *lat, Lng: *lng}
	}
	return c, nil
}
