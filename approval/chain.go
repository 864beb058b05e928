package approval

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"hireflow/requisition"
)

var (
	// ErrWrongRole signals the acting role does not match the role required
	// at the requisition's current approval level.
	ErrWrongRole = errors.New("approval: acting role does not match current level")
	// ErrChainDecided signals the chain already reached approved or
	// rejected; no further advance is possible.
	ErrChainDecided = errors.New("approval: chain already decided")
	// ErrReasonRequired signals a rejection without a reason.
	ErrReasonRequired = errors.New("approval: rejection reason required")
)

// Decision is an approver's verdict on the current chain level.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// Engine builds requisition approval chains and advances them level by
// level. It holds no state of its own; every advance is an optimistic write
// through the requisition repository.
type Engine struct {
	approvers ApproverStore
	reqs      requisition.Repository
	now       func() time.Time
}

// NewEngine creates an approval chain engine.
func NewEngine(approvers ApproverStore, reqs requisition.Repository) *Engine {
	return &Engine{
		approvers: approvers,
		reqs:      reqs,
		now:       time.Now,
	}
}

// BuildChain constructs the approval chain for a requisition created by the
// given role.
//
// A supervisor-created requisition gets two levels: the supervisor level
// auto-approved by the creator and a pending brand-head level. A store
// manager (the default requester) gets three: their own auto-approved level,
// then supervisor, then brand head. The first pending level becomes the
// current one.
//
// Pending levels are assigned the active approver covering the store (for
// supervisors) or the brand (for brand heads), passed through vacation
// delegation. When nobody covers a scope the step stays pending and
// unassigned; escalation is the notification collaborator's problem, the
// engine never invents an approver.
func (e *Engine) BuildChain(ctx context.Context, storeID, brandID string, creatorRole requisition.Role, creatorID, creatorName string) ([]requisition.ApprovalStep, int, error) {
	decided := e.now()
	first := requisition.ApprovalStep{
		Level:        1,
		Role:         creatorRole,
		Status:       requisition.StepApproved,
		ApproverID:   creatorID,
		ApproverName: creatorName,
		DecidedAt:    &decided,
	}

	var pendingRoles []requisition.Role
	switch creatorRole {
	case requisition.RoleSupervisor:
		pendingRoles = []requisition.Role{requisition.RoleBrandHead}
	default:
		pendingRoles = []requisition.Role{requisition.RoleSupervisor, requisition.RoleBrandHead}
	}

	chain := []requisition.ApprovalStep{first}
	for i, role := range pendingRoles {
		step := requisition.ApprovalStep{
			Level:  i + 2,
			Role:   role,
			Status: requisition.StepPending,
		}
		assignee, err := e.lookupForScope(ctx, role, storeID, brandID)
		switch {
		case err == nil:
			effective := e.effectiveApprover(ctx, assignee)
			step.ApproverID = effective.UserID
			step.ApproverName = effective.Name
		case errors.Is(err, ErrApproverNotFound):
			// Unassigned step, surfaced to the caller via the chain.
		default:
			return nil, 0, err
		}
		chain = append(chain, step)
	}

	return chain, 2, nil
}

func (e *Engine) lookupForScope(ctx context.Context, role requisition.Role, storeID, brandID string) (Approver, error) {
	switch role {
	case requisition.RoleSupervisor:
		return e.approvers.FindSupervisorForStore(ctx, storeID)
	case requisition.RoleBrandHead:
		return e.approvers.FindBrandHeadForBrand(ctx, brandID)
	}
	return Approver{}, fmt.Errorf("approval: no scope lookup for role %q", role)
}

// effectiveApprover applies vacation delegation to a freshly looked-up
// assignee. A backup that cannot be loaded falls back to the assignee.
func (e *Engine) effectiveApprover(ctx context.Context, assignee Approver) Approver {
	if !assignee.VacationMode || assignee.BackupUserID == nil || *assignee.BackupUserID == "" {
		return assignee
	}
	backup, err := e.approvers.GetByID(ctx, *assignee.BackupUserID)
	if err != nil {
		return assignee
	}
	return ResolveDelegate(assignee, &backup)
}

// AdvanceParams describes one approval action against a requisition.
type AdvanceParams struct {
	RequisitionID string
	ActorID       string
	ActorName     string
	ActorRole     requisition.Role
	Decision      Decision
	Reason        string
}

// Advance applies one decision at the requisition's current approval level.
//
// Approving the final level marks the whole requisition approved and opens
// recruiting. Approving a non-final level moves the current level forward by
// exactly one. Rejecting terminates the chain: the requisition becomes
// rejected and withdrawn, and a new requisition must be created to retry.
//
// The write is a compare-and-swap on the level observed here; if another
// approver lands first the caller gets requisition.ErrStaleVersion and must
// re-read.
func (e *Engine) Advance(ctx context.Context, params AdvanceParams) (requisition.Requisition, error) {
	rq, err := e.reqs.GetByID(ctx, params.RequisitionID)
	if err != nil {
		return requisition.Requisition{}, err
	}
	if rq.ApprovalStatus != requisition.ApprovalPending {
		return requisition.Requisition{}, ErrChainDecided
	}

	step := rq.CurrentStep()
	if step == nil {
		return requisition.Requisition{}, fmt.Errorf("approval: requisition %s has no step at level %d", rq.ID, rq.CurrentLevel)
	}
	if step.Role != params.ActorRole {
		return requisition.Requisition{}, fmt.Errorf("%w: level %d requires %s, got %s",
			ErrWrongRole, rq.CurrentLevel, step.Role, params.ActorRole)
	}

	decided := e.now()
	step.ApproverID = params.ActorID
	step.ApproverName = params.ActorName
	step.DecidedAt = &decided

	update := requisition.ApprovalUpdate{
		ID:            rq.ID,
		ObservedLevel: rq.CurrentLevel,
		Chain:         rq.Chain,
	}

	switch params.Decision {
	case DecisionApprove:
		step.Status = requisition.StepApproved
		if rq.CurrentLevel == lastLevel(rq.Chain) {
			update.NewLevel = rq.CurrentLevel
			update.ApprovalStatus = requisition.ApprovalApproved
			update.Status = requisition.StatusRecruiting
		} else {
			update.NewLevel = rq.CurrentLevel + 1
			update.ApprovalStatus = requisition.ApprovalPending
			update.Status = rq.Status
		}
	case DecisionReject:
		if strings.TrimSpace(params.Reason) == "" {
			return requisition.Requisition{}, ErrReasonRequired
		}
		step.Status = requisition.StepRejected
		step.Reason = params.Reason
		update.NewLevel = rq.CurrentLevel
		update.ApprovalStatus = requisition.ApprovalRejected
		update.Status = requisition.StatusCancelled
	default:
		return requisition.Requisition{}, fmt.Errorf("approval: unknown decision %q", params.Decision)
	}

	return e.reqs.UpdateApproval(ctx, update)
}

func lastLevel(chain []requisition.ApprovalStep) int {
	last := 0
	for _, s := range chain {
		if s.Level > last {
			last = s.Level
		}
	}
	return last
}
