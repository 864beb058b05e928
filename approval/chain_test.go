package approval

import (
	"context"
	"errors"
	"testing"
	"time"

	"hireflow/geomatch"
	"hireflow/requisition"
)

type fakeApproverStore struct {
	byID       map[string]Approver
	supervisor *Approver
	brandHead  *Approver
}

func (f *fakeApproverStore) GetByID(_ context.Context, userID string) (Approver, error) {
	if a, ok := f.byID[userID]; ok {
		return a, nil
	}
	return Approver{}, ErrApproverNotFound
}

func (f *fakeApproverStore) FindSupervisorForStore(_ context.Context, _ string) (Approver, error) {
	if f.supervisor == nil {
		return Approver{}, ErrApproverNotFound
	}
	return *f.supervisor, nil
}

func (f *fakeApproverStore) FindBrandHeadForBrand(_ context.Context, _ string) (Approver, error) {
	if f.brandHead == nil {
		return Approver{}, ErrApproverNotFound
	}
	return *f.brandHead, nil
}

type fakeRequisitionRepo struct {
	byID    map[string]requisition.Requisition
	updated *requisition.ApprovalUpdate
	stale   bool
}

func (f *fakeRequisitionRepo) Create(_ context.Context, _ requisition.CreateParams) (requisition.Requisition, error) {
	panic("not used")
}

func (f *fakeRequisitionRepo) GetByID(_ context.Context, id string) (requisition.Requisition, error) {
	rq, ok := f.byID[id]
	if !ok {
		return requisition.Requisition{}, requisition.ErrNotFound
	}
	return rq, nil
}

func (f *fakeRequisitionRepo) UpdateApproval(_ context.Context, params requisition.ApprovalUpdate) (requisition.Requisition, error) {
	if f.stale {
		return requisition.Requisition{}, requisition.ErrStaleVersion
	}
	f.updated = &params
	rq := f.byID[params.ID]
	rq.CurrentLevel = params.NewLevel
	rq.ApprovalStatus = params.ApprovalStatus
	rq.Status = params.Status
	rq.Chain = params.Chain
	f.byID[params.ID] = rq
	return rq, nil
}

func (f *fakeRequisitionRepo) IncrementFilled(_ context.Context, _ string, _ int) (requisition.Requisition, error) {
	panic("not used")
}

func (f *fakeRequisitionRepo) UpdateStatus(_ context.Context, _ string, _ []requisition.Status, _ requisition.Status) (requisition.Requisition, error) {
	panic("not used")
}

func newTestEngine(approvers *fakeApproverStore, reqs *fakeRequisitionRepo) *Engine {
	e := NewEngine(approvers, reqs)
	e.now = func() time.Time { return time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC) }
	return e
}

func TestBuildChain_StoreManagerGetsThreeLevels(t *testing.T) {
	approvers := &fakeApproverStore{
		supervisor: &Approver{UserID: "sup-1", Name: "Sol", Role: requisition.RoleSupervisor, Active: true},
		brandHead:  &Approver{UserID: "bh-1", Name: "Bruno", Role: requisition.RoleBrandHead, Active: true},
	}
	engine := newTestEngine(approvers, &fakeRequisitionRepo{})

	chain, level, err := engine.BuildChain(context.Background(), "store-1", "brand-1", requisition.RoleStoreManager, "mgr-1", "Mara")
	if err != nil {
		t.Fatalf("build chain: %v", err)
	}

	if len(chain) != 3 {
		t.Fatalf("expected 3 levels, got %d", len(chain))
	}
	if level != 2 {
		t.Fatalf("expected current level 2, got %d", level)
	}
	if chain[0].Status != requisition.StepApproved || chain[0].ApproverID != "mgr-1" {
		t.Errorf("level 1 should be pre-approved by creator: %+v", chain[0])
	}
	if chain[1].Role != requisition.RoleSupervisor || chain[1].ApproverID != "sup-1" || chain[1].Status != requisition.StepPending {
		t.Errorf("level 2 should be pending supervisor: %+v", chain[1])
	}
	if chain[2].Role != requisition.RoleBrandHead || chain[2].ApproverID != "bh-1" || chain[2].Status != requisition.StepPending {
		t.Errorf("level 3 should be pending brand head: %+v", chain[2])
	}
}

func TestBuildChain_SupervisorGetsTwoLevels(t *testing.T) {
	approvers := &fakeApproverStore{
		brandHead: &Approver{UserID: "bh-1", Name: "Bruno", Role: requisition.RoleBrandHead, Active: true},
	}
	engine := newTestEngine(approvers, &fakeRequisitionRepo{})

	chain, level, err := engine.BuildChain(context.Background(), "store-1", "brand-1", requisition.RoleSupervisor, "sup-1", "Sol")
	if err != nil {
		t.Fatalf("build chain: %v", err)
	}

	if len(chain) != 2 || level != 2 {
		t.Fatalf("expected 2 levels at current level 2, got %d levels at %d", len(chain), level)
	}
	if chain[0].Role != requisition.RoleSupervisor || chain[0].Status != requisition.StepApproved {
		t.Errorf("level 1 should be the creator's approved supervisor step: %+v", chain[0])
	}
	if chain[1].Role != requisition.RoleBrandHead {
		t.Errorf("level 2 should be the brand head: %+v", chain[1])
	}
}

func TestBuildChain_VacationDelegatesToBackup(t *testing.T) {
	backupID := "sup-2"
	approvers := &fakeApproverStore{
		byID: map[string]Approver{
			backupID: {UserID: backupID, Name: "Berta", Role: requisition.RoleSupervisor, Active: true},
		},
		supervisor: &Approver{UserID: "sup-1", Name: "Sol", Role: requisition.RoleSupervisor, Active: true, VacationMode: true, BackupUserID: &backupID},
		brandHead:  &Approver{UserID: "bh-1", Name: "Bruno", Role: requisition.RoleBrandHead, Active: true},
	}
	engine := newTestEngine(approvers, &fakeRequisitionRepo{})

	chain, _, err := engine.BuildChain(context.Background(), "store-1", "brand-1", requisition.RoleStoreManager, "mgr-1", "Mara")
	if err != nil {
		t.Fatalf("build chain: %v", err)
	}

	if chain[1].ApproverID != backupID {
		t.Fatalf("expected supervisor step delegated to %s, got %s", backupID, chain[1].ApproverID)
	}
}

func TestBuildChain_NoApproverLeavesStepUnassigned(t *testing.T) {
	engine := newTestEngine(&fakeApproverStore{}, &fakeRequisitionRepo{})

	chain, _, err := engine.BuildChain(context.Background(), "store-1", "brand-1", requisition.RoleStoreManager, "mgr-1", "Mara")
	if err != nil {
		t.Fatalf("build chain: %v", err)
	}

	for _, step := range chain[1:] {
		if step.ApproverID != "" {
			t.Errorf("level %d should be unassigned, got %s", step.Level, step.ApproverID)
		}
		if step.Status != requisition.StepPending {
			t.Errorf("level %d should stay pending", step.Level)
		}
	}
}

func pendingRequisition(level int, chain []requisition.ApprovalStep) requisition.Requisition {
	return requisition.Requisition{
		ID:             "rq-1",
		StoreID:        "store-1",
		BrandID:        "brand-1",
		Shift:          geomatch.ShiftMorning,
		SeatCount:      3,
		ApprovalStatus: requisition.ApprovalPending,
		CurrentLevel:   level,
		Chain:          chain,
		Status:         requisition.StatusPending,
	}
}

func threeLevelChain() []requisition.ApprovalStep {
	return []requisition.ApprovalStep{
		{Level: 1, Role: requisition.RoleStoreManager, Status: requisition.StepApproved, ApproverID: "mgr-1"},
		{Level: 2, Role: requisition.RoleSupervisor, Status: requisition.StepPending, ApproverID: "sup-1"},
		{Level: 3, Role: requisition.RoleBrandHead, Status: requisition.StepPending, ApproverID: "bh-1"},
	}
}

func TestAdvance_ApproveMidLevelIncrements(t *testing.T) {
	repo := &fakeRequisitionRepo{byID: map[string]requisition.Requisition{
		"rq-1": pendingRequisition(2, threeLevelChain()),
	}}
	engine := newTestEngine(&fakeApproverStore{}, repo)

	rq, err := engine.Advance(context.Background(), AdvanceParams{
		RequisitionID: "rq-1",
		ActorID:       "sup-1",
		ActorRole:     requisition.RoleSupervisor,
		Decision:      DecisionApprove,
	})
	if err != nil {
		t.Fatalf("advance: %v", err)
	}

	if rq.CurrentLevel != 3 {
		t.Errorf("expected level 3, got %d", rq.CurrentLevel)
	}
	if rq.ApprovalStatus != requisition.ApprovalPending {
		t.Errorf("mid-level approve must keep approval pending, got %s", rq.ApprovalStatus)
	}
	if rq.Chain[1].Status != requisition.StepApproved || rq.Chain[1].DecidedAt == nil {
		t.Errorf("level 2 step should be approved with timestamp: %+v", rq.Chain[1])
	}
	if repo.updated.ObservedLevel != 2 {
		t.Errorf("expected CAS against observed level 2, got %d", repo.updated.ObservedLevel)
	}
}

func TestAdvance_ApproveFinalLevelOpensRecruiting(t *testing.T) {
	repo := &fakeRequisitionRepo{byID: map[string]requisition.Requisition{
		"rq-1": pendingRequisition(3, threeLevelChain()),
	}}
	engine := newTestEngine(&fakeApproverStore{}, repo)

	rq, err := engine.Advance(context.Background(), AdvanceParams{
		RequisitionID: "rq-1",
		ActorID:       "bh-1",
		ActorRole:     requisition.RoleBrandHead,
		Decision:      DecisionApprove,
	})
	if err != nil {
		t.Fatalf("advance: %v", err)
	}

	if rq.ApprovalStatus != requisition.ApprovalApproved {
		t.Errorf("expected approved, got %s", rq.ApprovalStatus)
	}
	if rq.Status != requisition.StatusRecruiting {
		t.Errorf("final approve should open recruiting, got %s", rq.Status)
	}
	if rq.CurrentLevel != 3 {
		t.Errorf("final approve must not move past the last level, got %d", rq.CurrentLevel)
	}
}

func TestAdvance_WrongRoleRejected(t *testing.T) {
	repo := &fakeRequisitionRepo{byID: map[string]requisition.Requisition{
		"rq-1": pendingRequisition(2, threeLevelChain()),
	}}
	engine := newTestEngine(&fakeApproverStore{}, repo)

	_, err := engine.Advance(context.Background(), AdvanceParams{
		RequisitionID: "rq-1",
		ActorID:       "bh-1",
		ActorRole:     requisition.RoleBrandHead,
		Decision:      DecisionApprove,
	})
	if !errors.Is(err, ErrWrongRole) {
		t.Fatalf("expected ErrWrongRole, got %v", err)
	}
	if repo.updated != nil {
		t.Fatalf("no write should happen on authorization failure")
	}
}

func TestAdvance_RejectIsTerminal(t *testing.T) {
	repo := &fakeRequisitionRepo{byID: map[string]requisition.Requisition{
		"rq-1": pendingRequisition(2, threeLevelChain()),
	}}
	engine := newTestEngine(&fakeApproverStore{}, repo)

	rq, err := engine.Advance(context.Background(), AdvanceParams{
		RequisitionID: "rq-1",
		ActorID:       "sup-1",
		ActorRole:     requisition.RoleSupervisor,
		Decision:      DecisionReject,
		Reason:        "headcount freeze",
	})
	if err != nil {
		t.Fatalf("advance: %v", err)
	}

	if rq.ApprovalStatus != requisition.ApprovalRejected {
		t.Errorf("expected rejected, got %s", rq.ApprovalStatus)
	}
	if rq.Chain[1].Reason != "headcount freeze" {
		t.Errorf("rejection reason missing: %+v", rq.Chain[1])
	}

	_, err = engine.Advance(context.Background(), AdvanceParams{
		RequisitionID: "rq-1",
		ActorID:       "bh-1",
		ActorRole:     requisition.RoleBrandHead,
		Decision:      DecisionApprove,
	})
	if !errors.Is(err, ErrChainDecided) {
		t.Fatalf("advance after rejection should fail with ErrChainDecided, got %v", err)
	}
}

func TestAdvance_RejectWithoutReasonFails(t *testing.T) {
	repo := &fakeRequisitionRepo{byID: map[string]requisition.Requisition{
		"rq-1": pendingRequisition(2, threeLevelChain()),
	}}
	engine := newTestEngine(&fakeApproverStore{}, repo)

	_, err := engine.Advance(context.Background(), AdvanceParams{
		RequisitionID: "rq-1",
		ActorID:       "sup-1",
		ActorRole:     requisition.RoleSupervisor,
		Decision:      DecisionReject,
	})
	if !errors.Is(err, ErrReasonRequired) {
		t.Fatalf("expected ErrReasonRequired, got %v", err)
	}
}

func TestAdvance_StaleVersionSurfaces(t *testing.T) {
	repo := &fakeRequisitionRepo{
		byID: map[string]requisition.Requisition{
			"rq-1": pendingRequisition(2, threeLevelChain()),
		},
		stale: true,
	}
	engine := newTestEngine(&fakeApproverStore{}, repo)

	_, err := engine.Advance(context.Background(), AdvanceParams{
		RequisitionID: "rq-1",
		ActorID:       "sup-1",
		ActorRole:     requisition.RoleSupervisor,
		Decision:      DecisionApprove,
	})
	if !errors.Is(err, requisition.ErrStaleVersion) {
		t.Fatalf("expected ErrStaleVersion, got %v", err)
	}
}

func TestAdvance_UnknownRequisition(t *testing.T) {
	engine := newTestEngine(&fakeApproverStore{}, &fakeRequisitionRepo{byID: map[string]requisition.Requisition{}})

	_, err := engine.Advance(context.Background(), AdvanceParams{
		RequisitionID: "missing",
		ActorRole:     requisition.RoleSupervisor,
		Decision:      DecisionApprove,
	})
	if !errors.Is(err, requisition.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
