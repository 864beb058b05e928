package approval

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hireflow/requisition"
)

var (
	// ErrApproverNotFound signals that no active approver covers the scope.
	ErrApproverNotFound = errors.New("approval: approver not found")
)

// ApproverStore is the read-only contract against the access-control
// subsystem's approver records.
type ApproverStore interface {
	GetByID(ctx context.Context, userID string) (Approver, error)
	FindSupervisorForStore(ctx context.Context, storeID string) (Approver, error)
	FindBrandHeadForBrand(ctx context.Context, brandID string) (Approver, error)
}

// PGApproverStore implements ApproverStore backed by PostgreSQL.
type PGApproverStore struct {
	pool *pgxpool.Pool
}

// NewApproverStore creates a PostgreSQL-backed approver store.
func NewApproverStore(pool *pgxpool.Pool) *PGApproverStore {
	return &PGApproverStore{pool: pool}
}

const approverColumns = `
	a.user_id, a.name, a.role, a.active, a.vacation_mode, a.backup_user_id, a.backup_name, a.brand_id
`

func (r *PGApproverStore) GetByID(ctx context.Context, userID string) (Approver, error) {
	query := `SELECT` + approverColumns + `FROM approvers a WHERE a.user_id = $1`

	a, err := scanApprover(r.pool.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Approver{}, ErrApproverNotFound
		}
		return Approver{}, fmt.Errorf("approval: get approver: %w", err)
	}
	return a, nil
}

// FindSupervisorForStore returns the active supervisor whose assignment
// covers the store.
func (r *PGApproverStore) FindSupervisorForStore(ctx context.Context, storeID string) (Approver, error) {
	query := `
		SELECT` + approverColumns + `FROM approvers a
		JOIN approver_stores s ON s.user_id = a.user_id
		WHERE s.store_id = $1 AND a.role = $2 AND a.active
		ORDER BY a.user_id
		LIMIT 1
	`

	a, err := scanApprover(r.pool.QueryRow(ctx, query, storeID, requisition.RoleSupervisor))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Approver{}, ErrApproverNotFound
		}
		return Approver{}, fmt.Errorf("approval: find supervisor: %w", err)
	}
	return a, nil
}

// FindBrandHeadForBrand returns the active brand head responsible for the
// brand.
func (r *PGApproverStore) FindBrandHeadForBrand(ctx context.Context, brandID string) (Approver, error) {
	query := `
		SELECT` + approverColumns + `FROM approvers a
		WHERE a.brand_id = $1 AND a.role = $2 AND a.active
		ORDER BY a.user_id
		LIMIT 1
	`

	a, err := scanApprover(r.pool.QueryRow(ctx, query, brandID, requisition.RoleBrandHead))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Approver{}, ErrApproverNotFound
		}
		return Approver{}, fmt.Errorf("approval: find brand head: %w", err)
	}
	return a, nil
}

func scanApprover(row pgx.Row) (Approver, error) {
	var a Approver
	err := row.Scan(
		&a.UserID, &a.Name, &a.Role, &a.Active,
		&a.VacationMode, &a.BackupUserID, &a.BackupName, &a.BrandID,
	)
	if err != nil {
		return Approver{}, err
	}
	return a, nil
}
