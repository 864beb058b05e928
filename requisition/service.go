package requisition

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"hireflow/geomatch"
)

const (
	minSeatCount = 1
	maxSeatCount = 20
)

var (
	// ErrSeatCountRange signals the requested seat count is outside 1-20.
	ErrSeatCountRange = errors.New("requisition: seat count must be between 1 and 20")
	// ErrManagerialShape signals a managerial requisition that is not
	// full-time on the administrative shift.
	ErrManagerialShape = errors.New("requisition: managerial positions are full-time administrative")
	// ErrCreatorRole signals the creator role cannot open requisitions.
	ErrCreatorRole = errors.New("requisition: creator must be a store manager or supervisor")
)

// ChainBuilder constructs the approval chain for a new requisition and
// returns the steps together with the level awaiting the first decision.
type ChainBuilder interface {
	BuildChain(ctx context.Context, storeID, brandID string, creatorRole Role, creatorID, creatorName string) ([]ApprovalStep, int, error)
}

// Service validates and creates requisitions.
type Service struct {
	repo  Repository
	chain ChainBuilder
}

// NewService creates a requisition service.
func NewService(repo Repository, chain ChainBuilder) *Service {
	return &Service{repo: repo, chain: chain}
}

// CreateRequest contains requisition creation data supplied by callers.
type CreateRequest struct {
	BrandID     string
	StoreID     string
	Position    string
	Shift       geomatch.Shift
	Modality    Modality
	SeatCount   int
	Category    Category
	Screening   []ScreeningQuestion
	CreatorID   string
	CreatorName string
	CreatorRole Role
}

// Create validates the request, builds the approval chain for the creator's
// role, and persists the requisition in pending approval state. Validation
// failures are rejected before any state mutation.
func (s *Service) Create(ctx context.Context, req CreateRequest) (Requisition, error) {
	if err := validateCreate(&req); err != nil {
		return Requisition{}, err
	}

	chain, level, err := s.chain.BuildChain(ctx, req.StoreID, req.BrandID, req.CreatorRole, req.CreatorID, req.CreatorName)
	if err != nil {
		return Requisition{}, err
	}

	return s.repo.Create(ctx, CreateParams{
		BrandID:       req.BrandID,
		StoreID:       req.StoreID,
		Position:      req.Position,
		Shift:         req.Shift,
		Modality:      req.Modality,
		SeatCount:     req.SeatCount,
		Category:      req.Category,
		Chain:         chain,
		CurrentLevel:  level,
		Screening:     req.Screening,
		CreatedBy:     req.CreatorID,
		CreatedByRole: req.CreatorRole,
	})
}

// Get returns a requisition by id.
func (s *Service) Get(ctx context.Context, id string) (Requisition, error) {
	return s.repo.GetByID(ctx, id)
}

func validateCreate(req *CreateRequest) error {
	if req.BrandID == "" || req.StoreID == "" || req.CreatorID == "" {
		return fmt.Errorf("requisition: brand, store and creator ids are required")
	}
	if strings.TrimSpace(req.Position) == "" {
		return fmt.Errorf("requisition: position is required")
	}
	if req.SeatCount < minSeatCount || req.SeatCount > maxSeatCount {
		return ErrSeatCountRange
	}
	if req.CreatorRole != RoleStoreManager && req.CreatorRole != RoleSupervisor {
		return ErrCreatorRole
	}

	if req.Category == "" {
		req.Category = CategoryOperational
	}
	if req.Category != CategoryOperational && req.Category != CategoryManagerial {
		return fmt.Errorf("requisition: invalid category %q", req.Category)
	}

	// Managerial demand has a fixed shape and defaults into it when the
	// caller omits shift or modality.
	if req.Category == CategoryManagerial {
		if req.Shift == "" {
			req.Shift = geomatch.ShiftAdministrative
		}
		if req.Modality == "" {
			req.Modality = ModalityFullTime
		}
		if req.Shift != geomatch.ShiftAdministrative || req.Modality != ModalityFullTime {
			return ErrManagerialShape
		}
	}

	if !geomatch.IsValidShift(req.Shift) {
		return fmt.Errorf("requisition: invalid shift %q", req.Shift)
	}
	switch req.Modality {
	case ModalityPartTime19, ModalityPartTime23, ModalityFullTime:
	default:
		return fmt.Errorf("requisition: invalid modality %q", req.Modality)
	}

	for i, q := range req.Screening {
		if strings.TrimSpace(q.ID) == "" {
			return fmt.Errorf("requisition: screening question %d missing id", i+1)
		}
	}
	return nil
}
