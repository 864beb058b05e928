package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"hireflow/requisition"
)

var (
	// ErrNotFound signals that no application row exists for the identifier.
	ErrNotFound = errors.New("application: not found")
	// ErrDuplicate signals the candidate already applied to the
	// requisition; applications are write-once per pair.
	ErrDuplicate = errors.New("application: candidate already applied to requisition")
)

// InsertParams enumerates the fields persisted when an application is routed.
type InsertParams struct {
	CandidateID   string
	RequisitionID string
	Answers       map[string]string
	KQPassed      bool
	MatchScore    int
	IsGeoMatch    bool
	Flow          Flow
}

// Repository handles data access for applications.
type Repository interface {
	Insert(ctx context.Context, params InsertParams) (Application, error)
	GetByID(ctx context.Context, id string) (Application, error)
	ListByRequisition(ctx context.Context, requisitionID string) ([]Application, error)
}

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a PostgreSQL-backed application repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const applicationColumns = `
	id, candidate_id, requisition_id, answers, kq_passed, match_score, is_geo_match, flow, created_at
`

// Insert persists a routed application. The insert is guarded by the
// requisition's live status: the row only lands while the requisition is
// still recruiting, so a cancel or fill racing the router cannot take an
// application. The (candidate, requisition) pair is unique; a second
// submission surfaces as ErrDuplicate.
func (r *PGRepository) Insert(ctx context.Context, params InsertParams) (Application, error) {
	answers, err := json.Marshal(params.Answers)
	if err != nil {
		return Application{}, fmt.Errorf("application: marshal answers: %w", err)
	}

	insertSQL := `
		INSERT INTO applications (candidate_id, requisition_id, answers, kq_passed, match_score, is_geo_match, flow)
		SELECT $1, $2, $3::jsonb, $4, $5, $6, $7
		WHERE EXISTS (
			SELECT 1 FROM requisitions WHERE id = $2 AND status = 'recruiting'
		)
		RETURNING` + applicationColumns

	row := r.pool.QueryRow(ctx, insertSQL,
		params.CandidateID,
		params.RequisitionID,
		answers,
		params.KQPassed,
		params.MatchScore,
		params.IsGeoMatch,
		params.Flow,
	)
	app, err := scanApplication(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Application{}, ErrDuplicate
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return Application{}, r.notRecruitingOrGone(ctx, params.RequisitionID)
		}
		return Application{}, fmt.Errorf("application: insert: %w", err)
	}
	return app, nil
}

// notRecruitingOrGone distinguishes a missing requisition from one that left
// recruiting between the caller's read and the insert.
func (r *PGRepository) notRecruitingOrGone(ctx context.Context, requisitionID string) error {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM requisitions WHERE id = $1)`, requisitionID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("application: check requisition: %w", err)
	}
	if !exists {
		return requisition.ErrNotFound
	}
	return ErrNotRecruiting
}

func (r *PGRepository) GetByID(ctx context.Context, id string) (Application, error) {
	query := `SELECT` + applicationColumns + `FROM applications WHERE id = $1`

	app, err := scanApplication(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Application{}, ErrNotFound
		}
		return Application{}, fmt.Errorf("application: get: %w", err)
	}
	return app, nil
}

func (r *PGRepository) ListByRequisition(ctx context.Context, requisitionID string) ([]Application, error) {
	query := `SELECT` + applicationColumns + `FROM applications WHERE requisition_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, requisitionID)
	if err != nil {
		return nil, fmt.Errorf("application: list: %w", err)
	}
	defer rows.Close()

	apps := make([]Application, 0, 8)
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("application: scan: %w", err)
		}
		apps = append(apps, app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("application: iterate: %w", err)
	}
	return apps, nil
}

func scanApplication(row pgx.Row) (Application, error) {
	var (
		app     Application
		answers []byte
	)
	err := row.Scan(
		&app.ID, &app.CandidateID, &app.RequisitionID, &answers,
		&app.KQPassed, &app.MatchScore, &app.IsGeoMatch, &app.Flow, &app.CreatedAt,
	)
	if err != nil {
		return Application{}, err
	}
	if len(answers) > 0 {
		if err := json.Unmarshal(answers, &app.Answers); err != nil {
			return Application{}, fmt.Errorf("application: decode answers: %w", err)
		}
	}
	return app, nil
}
