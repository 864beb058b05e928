package requisition

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hireflow/geomatch"
)

var (
	// ErrNotFound signals that no requisition row exists for the identifier.
	ErrNotFound = errors.New("requisition: not found")
	// ErrStaleVersion signals the optimistic check failed: the row changed
	// between the caller's read and this write. Re-read and retry.
	ErrStaleVersion = errors.New("requisition: stale version")
	// ErrInvalidTransition signals the requested status change is not
	// allowed from the requisition's current state.
	ErrInvalidTransition = errors.New("requisition: invalid status transition")
)

// CreateParams enumerates the fields persisted for a new requisition.
type CreateParams struct {
	BrandID       string
	StoreID       string
	Position      string
	Shift         geomatch.Shift
	Modality      Modality
	SeatCount     int
	Category      Category
	Chain         []ApprovalStep
	CurrentLevel  int
	Screening     []ScreeningQuestion
	CreatedBy     string
	CreatedByRole Role
}

// ApprovalUpdate carries a compare-and-swap write against the approval
// state. ObservedLevel is the current_approval_level the caller read; the
// write only lands if the stored value still matches.
type ApprovalUpdate struct {
	ID             string
	ObservedLevel  int
	NewLevel       int
	ApprovalStatus ApprovalStatus
	Status         Status
	Chain          []ApprovalStep
}

// Repository is the persistence contract for requisitions. Every mutating
// method is an atomic compare-and-swap: a concurrent change surfaces as
// ErrStaleVersion (or ErrInvalidTransition when the guard is a status),
// never as a silent overwrite.
type Repository interface {
	Create(ctx context.Context, params CreateParams) (Requisition, error)
	GetByID(ctx context.Context, id string) (Requisition, error)
	UpdateApproval(ctx context.Context, params ApprovalUpdate) (Requisition, error)
	IncrementFilled(ctx context.Context, id string, observedFilled int) (Requisition, error)
	UpdateStatus(ctx context.Context, id string, from []Status, to Status) (Requisition, error)
}

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a PostgreSQL-backed requisition repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const requisitionColumns = `
	id, seq, brand_id, store_id, position, shift, modality, seat_count,
	category, approval_status, current_approval_level, approval_chain,
	status, filled_slots, screening, created_by, created_by_role,
	created_at, updated_at
`

func (r *PGRepository) Create(ctx context.Context, params CreateParams) (Requisition, error) {
	chain, err := json.Marshal(params.Chain)
	if err != nil {
		return Requisition{}, fmt.Errorf("requisition: marshal chain: %w", err)
	}
	screening, err := json.Marshal(params.Screening)
	if err != nil {
		return Requisition{}, fmt.Errorf("requisition: marshal screening: %w", err)
	}

	insertSQL := `
		INSERT INTO requisitions (
			brand_id, store_id, position, shift, modality, seat_count,
			category, approval_status, current_approval_level,
			approval_chain, status, filled_slots, screening,
			created_by, created_by_role
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,'pending',$8,$9::jsonb,'pending',0,$10::jsonb,$11,$12)
		RETURNING` + requisitionColumns

	row := r.pool.QueryRow(ctx, insertSQL,
		params.BrandID,
		params.StoreID,
		params.Position,
		params.Shift,
		params.Modality,
		params.SeatCount,
		params.Category,
		params.CurrentLevel,
		chain,
		screening,
		params.CreatedBy,
		params.CreatedByRole,
	)
	rq, err := scanRequisition(row)
	if err != nil {
		return Requisition{}, fmt.Errorf("requisition: insert: %w", err)
	}
	return rq, nil
}

func (r *PGRepository) GetByID(ctx context.Context, id string) (Requisition, error) {
	query := `SELECT` + requisitionColumns + `FROM requisitions WHERE id = $1`

	rq, err := scanRequisition(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Requisition{}, ErrNotFound
		}
		return Requisition{}, fmt.Errorf("requisition: get: %w", err)
	}
	return rq, nil
}

// UpdateApproval advances or terminates the approval chain. The row is only
// written while approval_status is still pending and the stored level equals
// ObservedLevel, so two approvers racing on the same level produce exactly
// one winner.
func (r *PGRepository) UpdateApproval(ctx context.Context, params ApprovalUpdate) (Requisition, error) {
	chain, err := json.Marshal(params.Chain)
	if err != nil {
		return Requisition{}, fmt.Errorf("requisition: marshal chain: %w", err)
	}

	updateSQL := `
		UPDATE requisitions
		SET approval_status = $1,
		    current_approval_level = $2,
		    approval_chain = $3::jsonb,
		    status = $4,
		    updated_at = now()
		WHERE id = $5
		  AND approval_status = 'pending'
		  AND current_approval_level = $6
		RETURNING` + requisitionColumns

	row := r.pool.QueryRow(ctx, updateSQL,
		params.ApprovalStatus,
		params.NewLevel,
		chain,
		params.Status,
		params.ID,
		params.ObservedLevel,
	)
	rq, err := scanRequisition(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Requisition{}, r.missOrStale(ctx, params.ID)
		}
		return Requisition{}, fmt.Errorf("requisition: update approval: %w", err)
	}
	return rq, nil
}

// IncrementFilled adds one filled seat under the observed count. Reaching the
// requested seat count flips the requisition to filled in the same write.
func (r *PGRepository) IncrementFilled(ctx context.Context, id string, observedFilled int) (Requisition, error) {
	updateSQL := `
		UPDATE requisitions
		SET filled_slots = filled_slots + 1,
		    status = CASE WHEN filled_slots + 1 >= seat_count THEN 'filled' ELSE status END,
		    updated_at = now()
		WHERE id = $1
		  AND status = 'recruiting'
		  AND filled_slots = $2
		  AND filled_slots < seat_count
		RETURNING` + requisitionColumns

	rq, err := scanRequisition(r.pool.QueryRow(ctx, updateSQL, id, observedFilled))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Requisition{}, r.missOrStale(ctx, id)
		}
		return Requisition{}, fmt.Errorf("requisition: increment filled: %w", err)
	}
	return rq, nil
}

// UpdateStatus moves the requisition to a new status when its current status
// is in the allowed set. Zero rows with an existing row means the requisition
// was not in any of the from states.
func (r *PGRepository) UpdateStatus(ctx context.Context, id string, from []Status, to Status) (Requisition, error) {
	updateSQL := `
		UPDATE requisitions
		SET status = $1, updated_at = now()
		WHERE id = $2 AND status = ANY($3)
		RETURNING` + requisitionColumns

	allowed := make([]string, len(from))
	for i, s := range from {
		allowed[i] = string(s)
	}

	rq, err := scanRequisition(r.pool.QueryRow(ctx, updateSQL, to, id, allowed))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if _, getErr := r.GetByID(ctx, id); getErr != nil {
				return Requisition{}, getErr
			}
			return Requisition{}, ErrInvalidTransition
		}
		return Requisition{}, fmt.Errorf("requisition: update status: %w", err)
	}
	return rq, nil
}

// missOrStale distinguishes a missing row from a failed optimistic check.
func (r *PGRepository) missOrStale(ctx context.Context, id string) error {
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return ErrStaleVersion
}

func scanRequisition(row pgx.Row) (Requisition, error) {
	var (
		rq        Requisition
		chain     []byte
		screening []byte
	)
	err := row.Scan(
		&rq.ID, &rq.Seq, &rq.BrandID, &rq.StoreID, &rq.Position,
		&rq.Shift, &rq.Modality, &rq.SeatCount, &rq.Category,
		&rq.ApprovalStatus, &rq.CurrentLevel, &chain,
		&rq.Status, &rq.FilledSlots, &screening,
		&rq.CreatedBy, &rq.CreatedByRole, &rq.CreatedAt, &rq.UpdatedAt,
	)
	if err != nil {
		return Requisition{}, err
	}
	if err := json.Unmarshal(chain, &rq.Chain); err != nil {
		return Requisition{}, fmt.Errorf("requisition: decode chain: %w", err)
	}
	if len(screening) > 0 {
		if err := json.Unmarshal(screening, &rq.Screening); err != nil {
			return Requisition{}, fmt.Errorf("requisition: decode screening: %w", err)
		}
	}
	return rq, nil
}
