package requisition

import (
	"context"
	"errors"
	"testing"

	"hireflow/geomatch"
)

// memRepo is an in-memory Repository for service and tracker tests. Writes
// apply the same optimistic guards as the SQL implementation.
type memRepo struct {
	byID    map[string]Requisition
	created *CreateParams
	nextID  string
}

func newMemRepo() *memRepo {
	return &memRepo{byID: map[string]Requisition{}, nextID: "rq-1"}
}

func (m *memRepo) Create(_ context.Context, params CreateParams) (Requisition, error) {
	m.created = &params
	rq := Requisition{
		ID:             m.nextID,
		BrandID:        params.BrandID,
		StoreID:        params.StoreID,
		Position:       params.Position,
		Shift:          params.Shift,
		Modality:       params.Modality,
		SeatCount:      params.SeatCount,
		Category:       params.Category,
		ApprovalStatus: ApprovalPending,
		CurrentLevel:   params.CurrentLevel,
		Chain:          params.Chain,
		Status:         StatusPending,
		Screening:      params.Screening,
		CreatedBy:      params.CreatedBy,
		CreatedByRole:  params.CreatedByRole,
	}
	m.byID[rq.ID] = rq
	return rq, nil
}

func (m *memRepo) GetByID(_ context.Context, id string) (Requisition, error) {
	rq, ok := m.byID[id]
	if !ok {
		return Requisition{}, ErrNotFound
	}
	return rq, nil
}

func (m *memRepo) UpdateApproval(_ context.Context, params ApprovalUpdate) (Requisition, error) {
	rq, ok := m.byID[params.ID]
	if !ok {
		return Requisition{}, ErrNotFound
	}
	if rq.ApprovalStatus != ApprovalPending || rq.CurrentLevel != params.ObservedLevel {
		return Requisition{}, ErrStaleVersion
	}
	rq.ApprovalStatus = params.ApprovalStatus
	rq.CurrentLevel = params.NewLevel
	rq.Status = params.Status
	rq.Chain = params.Chain
	m.byID[params.ID] = rq
	return rq, nil
}

func (m *memRepo) IncrementFilled(_ context.Context, id string, observedFilled int) (Requisition, error) {
	rq, ok := m.byID[id]
	if !ok {
		return Requisition{}, ErrNotFound
	}
	if rq.Status != StatusRecruiting || rq.FilledSlots != observedFilled || rq.FilledSlots >= rq.SeatCount {
		return Requisition{}, ErrStaleVersion
	}
	rq.FilledSlots++
	if rq.FilledSlots >= rq.SeatCount {
		rq.Status = StatusFilled
	}
	m.byID[id] = rq
	return rq, nil
}

func (m *memRepo) UpdateStatus(_ context.Context, id string, from []Status, to Status) (Requisition, error) {
	rq, ok := m.byID[id]
	if !ok {
		return Requisition{}, ErrNotFound
	}
	for _, s := range from {
		if rq.Status == s {
			rq.Status = to
			m.byID[id] = rq
			return rq, nil
		}
	}
	return Requisition{}, ErrInvalidTransition
}

type fakeChainBuilder struct {
	chain []ApprovalStep
	level int
	err   error

	gotStoreID string
	gotRole    Role
}

func (f *fakeChainBuilder) BuildChain(_ context.Context, storeID, _ string, creatorRole Role, _, _ string) ([]ApprovalStep, int, error) {
	f.gotStoreID = storeID
	f.gotRole = creatorRole
	return f.chain, f.level, f.err
}

func validRequest() CreateRequest {
	return CreateRequest{
		BrandID:     "brand-1",
		StoreID:     "store-1",
		Position:    "cashier",
		Shift:       geomatch.ShiftMorning,
		Modality:    ModalityPartTime19,
		SeatCount:   3,
		CreatorID:   "mgr-1",
		CreatorName: "Mara",
		CreatorRole: RoleStoreManager,
	}
}

func TestCreate_PersistsChainFromBuilder(t *testing.T) {
	repo := newMemRepo()
	builder := &fakeChainBuilder{
		chain: []ApprovalStep{
			{Level: 1, Role: RoleStoreManager, Status: StepApproved, ApproverID: "mgr-1"},
			{Level: 2, Role: RoleSupervisor, Status: StepPending},
		},
		level: 2,
	}
	svc := NewService(repo, builder)

	rq, err := svc.Create(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if builder.gotStoreID != "store-1" || builder.gotRole != RoleStoreManager {
		t.Errorf("builder called with %s/%s", builder.gotStoreID, builder.gotRole)
	}
	if rq.ApprovalStatus != ApprovalPending || rq.Status != StatusPending {
		t.Errorf("new requisition should be pending on both axes: %s/%s", rq.ApprovalStatus, rq.Status)
	}
	if rq.CurrentLevel != 2 || len(rq.Chain) != 2 {
		t.Errorf("chain not persisted: level %d, %d steps", rq.CurrentLevel, len(rq.Chain))
	}
	if rq.Category != CategoryOperational {
		t.Errorf("category should default to operational, got %s", rq.Category)
	}
}

func TestCreate_SeatCountBounds(t *testing.T) {
	svc := NewService(newMemRepo(), &fakeChainBuilder{level: 2})

	for _, seats := range []int{0, -1, 21} {
		req := validRequest()
		req.SeatCount = seats
		if _, err := svc.Create(context.Background(), req); !errors.Is(err, ErrSeatCountRange) {
			t.Errorf("seats=%d: expected ErrSeatCountRange, got %v", seats, err)
		}
	}

	req := validRequest()
	req.SeatCount = 20
	if _, err := svc.Create(context.Background(), req); err != nil {
		t.Errorf("seats=20 should be accepted: %v", err)
	}
}

func TestCreate_CreatorRoleRestricted(t *testing.T) {
	svc := NewService(newMemRepo(), &fakeChainBuilder{level: 2})

	for _, role := range []Role{RoleRecruiter, RoleBrandHead, RoleAdmin, Role("")} {
		req := validRequest()
		req.CreatorRole = role
		if _, err := svc.Create(context.Background(), req); !errors.Is(err, ErrCreatorRole) {
			t.Errorf("role=%s: expected ErrCreatorRole, got %v", role, err)
		}
	}
}

func TestCreate_ManagerialDefaultsShape(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, &fakeChainBuilder{level: 2})

	req := validRequest()
	req.Category = CategoryManagerial
	req.Shift = ""
	req.Modality = ""

	rq, err := svc.Create(context.Background(), req)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if rq.Shift != geomatch.ShiftAdministrative || rq.Modality != ModalityFullTime {
		t.Errorf("managerial defaults not applied: %s/%s", rq.Shift, rq.Modality)
	}
}

func TestCreate_ManagerialRejectsOtherShapes(t *testing.T) {
	svc := NewService(newMemRepo(), &fakeChainBuilder{level: 2})

	req := validRequest()
	req.Category = CategoryManagerial
	req.Shift = geomatch.ShiftNight
	req.Modality = ModalityFullTime

	if _, err := svc.Create(context.Background(), req); !errors.Is(err, ErrManagerialShape) {
		t.Fatalf("expected ErrManagerialShape, got %v", err)
	}
}

func TestCreate_ScreeningNeedsIDs(t *testing.T) {
	svc := NewService(newMemRepo(), &fakeChainBuilder{level: 2})

	req := validRequest()
	req.Screening = []ScreeningQuestion{{Text: "Can you work weekends?", Required: true}}

	if _, err := svc.Create(context.Background(), req); err == nil {
		t.Fatal("screening question without id should be rejected")
	}
}

func TestCreate_ChainBuilderFailureStopsCreate(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, &fakeChainBuilder{err: errors.New("approver lookup down")})

	if _, err := svc.Create(context.Background(), validRequest()); err == nil {
		t.Fatal("expected builder error to propagate")
	}
	if repo.created != nil {
		t.Fatal("nothing should be persisted when the chain cannot be built")
	}
}
