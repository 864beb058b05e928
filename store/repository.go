package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hireflow/geomatch"
)

// ErrStoreNotFound signals that no store row exists for the identifier.
var ErrStoreNotFound = errors.New("store: not found")

// Repository handles read access to the store directory.
type Repository interface {
	GetByID(ctx context.Context, id string) (Store, error)
	ListByBrand(ctx context.Context, brandID string) ([]Store, error)
}

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a PostgreSQL-backed store repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func (r *PGRepository) GetByID(ctx context.Context, id string) (Store, error) {
	const query = `SELECT id, brand_id, name, district, lat, lng FROM stores WHERE id = $1`

	s, err := scanStore(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Store{}, ErrStoreNotFound
		}
		return Store{}, fmt.Errorf("store: get: %w", err)
	}
	return s, nil
}

func (r *PGRepository) ListByBrand(ctx context.Context, brandID string) ([]Store, error) {
	const query = `
		SELECT id, brand_id, name, district, lat, lng
		FROM stores
		WHERE brand_id = $1
		ORDER BY name
	`

	rows, err := r.pool.Query(ctx, query, brandID)
	if err != nil {
		return nil, fmt.Errorf("store: list by brand: %w", err)
	}
	defer rows.Close()

	stores := make([]Store, 0, 16)
	for rows.Next() {
		s, err := scanStore(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan: %w", err)
		}
		stores = append(stores, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate: %w", err)
	}
	return stores, nil
}

func scanStore(row pgx.Row) (Store, error) {
	var (
		s        Store
		lat, lng *float64
	)
	if err := row.Scan(&s.ID, &s.BrandID, &s.Name, &s.District, &lat, &lng); err != nil {
		return Store{}, err
	}
	if lat != nil && lng != nil {
		s.Coords = &geomatch.Coords{Lat: *lat, Lng: *lng}
	}
	return s, nil
}
